package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/callcenter-console/backend/internal/service"
)

type SearchResponse struct {
	service.CustomerHistory
	Created bool `json:"created"`
}

type UpdateCustomerRequest struct {
	Name  string `json:"name" validate:"max=200"`
	Email string `json:"email" validate:"omitempty,email,max=200"`
}

// @Summary Search customer by phone
// @Description Normalizes the phone, creates the customer on first contact and returns its history
// @Tags customers
// @Produce json
// @Security BearerAuth
// @Param phone query string true "phone number"
// @Param limit query int false "history size"
// @Success 200 {object} SearchResponse
// @Failure 400 {object} map[string]any
// @Router /api/customers/search [get]
func (h *Handler) SearchCustomer(c *gin.Context) {
	ctx := c.Request.Context()
	customer, created, err := h.Customers.Resolve(ctx, c.Query("phone"))
	if err != nil {
		h.writeServiceError(c, err, "SEARCH_FAILED", "Customer search failed")
		return
	}
	history, err := h.Customers.History(ctx, customer, limitParam(c, 50))
	if err != nil {
		h.writeServiceError(c, err, "DB_ERROR", "Failed to load customer history")
		return
	}
	c.JSON(http.StatusOK, SearchResponse{CustomerHistory: history, Created: created})
}

// @Summary Get customer
// @Tags customers
// @Produce json
// @Security BearerAuth
// @Param code path int true "customer code"
// @Success 200 {object} models.Customer
// @Router /api/customers/{code} [get]
func (h *Handler) GetCustomer(c *gin.Context) {
	code, ok := customerCodeParam(c)
	if !ok {
		return
	}
	customer, err := h.Customers.Get(c.Request.Context(), code)
	if err != nil {
		h.writeServiceError(c, err, "DB_ERROR", "Failed to load customer")
		return
	}
	c.JSON(http.StatusOK, customer)
}

// @Summary Update customer contact details
// @Tags customers
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param code path int true "customer code"
// @Param body body UpdateCustomerRequest true "contact"
// @Success 200 {object} models.Customer
// @Router /api/customers/{code} [patch]
func (h *Handler) UpdateCustomer(c *gin.Context) {
	code, ok := customerCodeParam(c)
	if !ok {
		return
	}
	var req UpdateCustomerRequest
	if !h.bind(c, &req) {
		return
	}
	customer, err := h.Customers.UpdateContact(c.Request.Context(), code, req.Name, req.Email)
	if err != nil {
		h.writeServiceError(c, err, "DB_ERROR", "Failed to update customer")
		return
	}
	c.JSON(http.StatusOK, customer)
}

// @Summary Customer history
// @Tags customers
// @Produce json
// @Security BearerAuth
// @Param code path int true "customer code"
// @Param limit query int false "history size"
// @Success 200 {object} service.CustomerHistory
// @Router /api/customers/{code}/history [get]
func (h *Handler) CustomerHistory(c *gin.Context) {
	code, ok := customerCodeParam(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	customer, err := h.Customers.Get(ctx, code)
	if err != nil {
		h.writeServiceError(c, err, "DB_ERROR", "Failed to load customer")
		return
	}
	history, err := h.Customers.History(ctx, customer, limitParam(c, 50))
	if err != nil {
		h.writeServiceError(c, err, "DB_ERROR", "Failed to load customer history")
		return
	}
	c.JSON(http.StatusOK, history)
}
