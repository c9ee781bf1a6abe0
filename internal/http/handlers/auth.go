package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/callcenter-console/backend/internal/http/middleware"
	"github.com/callcenter-console/backend/internal/models"
	"github.com/callcenter-console/backend/internal/service"
)

type LoginRequest struct {
	AgentID  string `json:"agent_id" validate:"required,max=64"`
	Password string `json:"password" validate:"required"`
}

type LoginResponse struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	Agent     models.Agent `json:"agent"`
}

// @Summary Agent login
// @Tags auth
// @Accept json
// @Produce json
// @Param body body LoginRequest true "credentials"
// @Success 200 {object} LoginResponse
// @Failure 401 {object} map[string]any
// @Router /api/auth/login [post]
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if !h.bind(c, &req) {
		return
	}
	session, agent, err := h.Auth.Login(c.Request.Context(), req.AgentID, req.Password)
	if errors.Is(err, service.ErrInvalidCredentials) {
		writeError(c, http.StatusUnauthorized, "INVALID_CREDENTIALS", "Invalid agent id or password", nil)
		return
	}
	if err != nil {
		h.writeServiceError(c, err, "DB_ERROR", "Login failed")
		return
	}
	c.JSON(http.StatusOK, LoginResponse{
		Token:     session.Token,
		ExpiresAt: session.ExpiresAt,
		Agent:     agent,
	})
}

// @Summary Current agent
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]any
// @Router /api/auth/me [get]
func (h *Handler) Me(c *gin.Context) {
	p, _ := middleware.CurrentPrincipal(c)
	c.JSON(http.StatusOK, gin.H{"agent": p.Agent, "expires_at": p.Session.ExpiresAt})
}

// @Summary Logout
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]any
// @Router /api/auth/logout [post]
func (h *Handler) Logout(c *gin.Context) {
	p, _ := middleware.CurrentPrincipal(c)
	if err := h.Auth.Logout(c.Request.Context(), p.Session.Token); err != nil {
		h.writeServiceError(c, err, "DB_ERROR", "Logout failed")
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
