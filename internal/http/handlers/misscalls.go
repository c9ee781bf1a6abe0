package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/callcenter-console/backend/internal/service"
)

// @Summary Import missed calls
// @Description Replaces all missed-call rows with the uploaded CSV export
// @Tags admin
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param file formData file true "missed calls .csv"
// @Success 200 {object} service.ImportSummary
// @Failure 400 {object} map[string]any
// @Router /api/admin/misscalls/import [post]
func (h *Handler) ImportMissedCalls(c *gin.Context) {
	fh, err := c.FormFile("file")
	if err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "file required", nil)
		return
	}
	if !validateExt(fh.Filename) {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "file must be .csv", nil)
		return
	}
	f, err := fh.Open()
	if err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "cannot read file", err.Error())
		return
	}
	defer f.Close()

	calls, errs := service.ParseMissedCallsCSV(f, h.Location)
	if len(errs) > 0 {
		writeError(c, http.StatusBadRequest, "CSV_PARSE_ERROR", "CSV validation errors", errs)
		return
	}

	summary, err := h.MissCalls.Import(c.Request.Context(), calls)
	if err != nil {
		h.writeServiceError(c, err, "DB_ERROR", "Failed to import missed calls")
		return
	}
	c.JSON(http.StatusOK, summary)
}

// @Summary Missed-call summary
// @Tags misscalls
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.MissCallSummary
// @Router /api/misscalls/summary [get]
func (h *Handler) MissCallSummary(c *gin.Context) {
	s, err := h.MissCalls.Summary(c.Request.Context())
	if err != nil {
		h.writeServiceError(c, err, "DB_ERROR", "Failed to load missed calls")
		return
	}
	c.JSON(http.StatusOK, s)
}
