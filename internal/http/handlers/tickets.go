package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/callcenter-console/backend/internal/http/middleware"
	"github.com/callcenter-console/backend/internal/service"
)

type SaveInteractionRequest struct {
	Note         string     `json:"note" validate:"max=4000"`
	RequestType  string     `json:"request_type" validate:"max=200"`
	Detail       string     `json:"detail" validate:"max=200"`
	ServiceType  string     `json:"service_type" validate:"max=200"`
	Status       string     `json:"status" validate:"max=32"`
	Channel      string     `json:"channel" validate:"max=100"`
	Department   string     `json:"department" validate:"max=100"`
	TimeStart    *time.Time `json:"time_start"`
	Selection    string     `json:"selection" validate:"omitempty,oneof=auto existing new"`
	TicketSerial string     `json:"ticket_serial" validate:"max=200"`
}

// @Summary Save interaction
// @Description Appends to the customer's pending ticket or creates a new one
// @Tags tickets
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param code path int true "customer code"
// @Param body body SaveInteractionRequest true "interaction form"
// @Success 201 {object} service.SaveResult
// @Success 200 {object} service.SaveResult
// @Failure 400 {object} map[string]any
// @Failure 409 {object} map[string]any
// @Router /api/customers/{code}/interactions [post]
func (h *Handler) SaveInteraction(c *gin.Context) {
	code, ok := customerCodeParam(c)
	if !ok {
		return
	}
	var req SaveInteractionRequest
	if !h.bind(c, &req) {
		return
	}
	p, _ := middleware.CurrentPrincipal(c)

	sr := service.SaveRequest{
		CustomerCode: code,
		AgentID:      p.Agent.ID,
		Note:         req.Note,
		RequestType:  req.RequestType,
		Detail:       req.Detail,
		ServiceType:  req.ServiceType,
		Status:       req.Status,
		Channel:      req.Channel,
		Department:   req.Department,
		Selection:    service.Selection{Mode: service.SelectionMode(req.Selection), Serial: req.TicketSerial},
	}
	if req.TimeStart != nil {
		sr.TimeStart = req.TimeStart.UTC()
	}

	result, err := h.Tickets.Save(c.Request.Context(), sr)
	if err != nil {
		h.writeServiceError(c, err, "SAVE_FAILED", "Could not save interaction")
		return
	}
	status := http.StatusOK
	if result.Created {
		status = http.StatusCreated
	}
	c.JSON(status, result)
}

// @Summary Pending tickets of a customer
// @Tags tickets
// @Produce json
// @Security BearerAuth
// @Param code path int true "customer code"
// @Success 200 {array} models.PendingTicket
// @Router /api/customers/{code}/pending-tickets [get]
func (h *Handler) PendingTickets(c *gin.Context) {
	code, ok := customerCodeParam(c)
	if !ok {
		return
	}
	pending, err := h.Tickets.PendingTickets(c.Request.Context(), code)
	if err != nil {
		h.writeServiceError(c, err, "DB_ERROR", "Failed to load pending tickets")
		return
	}
	c.JSON(http.StatusOK, pending)
}

// @Summary Ticket with its interactions
// @Tags tickets
// @Produce json
// @Security BearerAuth
// @Param serial path string true "ticket serial"
// @Success 200 {object} map[string]any
// @Router /api/tickets/{serial}/interactions [get]
func (h *Handler) TicketInteractions(c *gin.Context) {
	ticket, interactions, err := h.Tickets.TicketInteractions(c.Request.Context(), c.Param("serial"))
	if err != nil {
		h.writeServiceError(c, err, "DB_ERROR", "Failed to load ticket")
		return
	}
	c.JSON(http.StatusOK, gin.H{"ticket": ticket, "interactions": interactions})
}
