package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// @Summary Dropdown catalog
// @Tags config
// @Produce json
// @Security BearerAuth
// @Success 200 {object} service.Catalog
// @Router /api/config [get]
func (h *Handler) Config(c *gin.Context) {
	c.JSON(http.StatusOK, h.Catalog.Get())
}

// @Summary Reload dropdown catalog
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} service.Catalog
// @Router /api/admin/config/reload [post]
func (h *Handler) ReloadConfig(c *gin.Context) {
	cat, err := h.Catalog.Load(c.Request.Context())
	if err != nil {
		h.writeServiceError(c, err, "DB_ERROR", "Failed to reload config")
		return
	}
	c.JSON(http.StatusOK, cat)
}
