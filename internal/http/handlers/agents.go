package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/callcenter-console/backend/internal/http/middleware"
)

// @Summary Agents active in the presence window
// @Tags agents
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.Agent
// @Router /api/agents/online [get]
func (h *Handler) OnlineAgents(c *gin.Context) {
	agents, err := h.Auth.Online(c.Request.Context(), h.PresenceWindow)
	if err != nil {
		h.writeServiceError(c, err, "DB_ERROR", "Failed to list online agents")
		return
	}
	c.JSON(http.StatusOK, agents)
}

// @Summary Refresh the current agent's activity
// @Tags agents
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]any
// @Router /api/agents/heartbeat [post]
func (h *Handler) Heartbeat(c *gin.Context) {
	p, _ := middleware.CurrentPrincipal(c)
	at, err := h.Auth.Heartbeat(c.Request.Context(), p.Agent.ID)
	if err != nil {
		h.writeServiceError(c, err, "DB_ERROR", "Failed to record heartbeat")
		return
	}
	c.JSON(http.StatusOK, gin.H{"last_time_active": at})
}
