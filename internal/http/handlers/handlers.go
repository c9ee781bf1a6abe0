package handlers

import (
	"context"
	"errors"
	"net/http"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/callcenter-console/backend/internal/db"
	"github.com/callcenter-console/backend/internal/models"
	"github.com/callcenter-console/backend/internal/service"
)

type Handler struct {
	Store          db.Backend
	Customers      *service.CustomerResolver
	Tickets        *service.TicketReconciler
	Catalog        *service.CatalogCache
	Auth           *service.AuthService
	MissCalls      *service.MissCallService
	Reports        *service.ReportService
	Validator      *validator.Validate
	Logger         zerolog.Logger
	Location       *time.Location
	PresenceWindow time.Duration
}

// NewValidator reports field errors under their json names.
func NewValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	return v
}

func (h *Handler) Healthz(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()
	if err := h.Store.Ping(ctx); err != nil {
		writeError(c, http.StatusServiceUnavailable, "DB_UNAVAILABLE", "Database unavailable", err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func writeError(c *gin.Context, status int, code string, message string, details any) {
	c.JSON(status, gin.H{
		"error": gin.H{
			"code":    code,
			"message": message,
			"details": details,
		},
	})
}

// bind decodes the JSON body and runs struct validation, writing the 400
// response itself when either fails.
func (h *Handler) bind(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid JSON body", err.Error())
		return false
	}
	if err := h.Validator.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := map[string]string{}
			for _, fe := range verrs {
				fields[fe.Field()] = fe.Tag()
			}
			writeError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Validation failed", fields)
			return false
		}
		writeError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Validation failed", err.Error())
		return false
	}
	return true
}

// writeServiceError maps service and storage errors onto the API envelope.
func (h *Handler) writeServiceError(c *gin.Context, err error, code, message string) {
	var verr *service.ValidationError
	var serr *service.SelectionRequiredError
	switch {
	case errors.As(err, &verr):
		writeError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Validation failed", verr.Fields)
	case errors.As(err, &serr):
		writeError(c, http.StatusConflict, "SELECTION_REQUIRED", "Customer has several pending tickets, select one", serr.Pending)
	case errors.Is(err, service.ErrInvalidPhone):
		writeError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Validation failed", map[string]string{"phone": "required"})
	case errors.Is(err, service.ErrTicketNotPending):
		writeError(c, http.StatusConflict, "TICKET_NOT_PENDING", "Ticket is no longer pending", nil)
	case errors.Is(err, db.ErrNotFound):
		writeError(c, http.StatusNotFound, "NOT_FOUND", "Not found", nil)
	case errors.Is(err, service.ErrSearchFailed):
		writeError(c, http.StatusInternalServerError, "SEARCH_FAILED", "Customer search failed", nil)
	case errors.Is(err, service.ErrSaveFailed):
		writeError(c, http.StatusInternalServerError, "SAVE_FAILED", "Could not save interaction", nil)
	case errors.Is(err, context.DeadlineExceeded):
		writeError(c, http.StatusGatewayTimeout, "TIMEOUT", "Request timed out", nil)
	default:
		h.Logger.Error().Err(err).Str("code", code).Msg(message)
		writeError(c, http.StatusInternalServerError, code, message, nil)
	}
}

func customerCodeParam(c *gin.Context) (int64, bool) {
	code, err := strconv.ParseInt(c.Param("code"), 10, 64)
	if err != nil || code <= 0 {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "customer code must be a positive integer", nil)
		return 0, false
	}
	return code, true
}

func parseTimeParam(v string) (*time.Time, error) {
	if v == "" {
		return nil, nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, v); err == nil {
			return &t, nil
		}
	}
	return nil, errors.New("invalid time " + strconv.Quote(v))
}

func rangeParams(c *gin.Context) (models.TimeRange, bool) {
	from, err := parseTimeParam(c.Query("from"))
	if err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "from must be RFC3339 or YYYY-MM-DD", nil)
		return models.TimeRange{}, false
	}
	to, err := parseTimeParam(c.Query("to"))
	if err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "to must be RFC3339 or YYYY-MM-DD", nil)
		return models.TimeRange{}, false
	}
	return models.TimeRange{From: from, To: to}, true
}

func limitParam(c *gin.Context, def int) int {
	n, err := strconv.Atoi(c.Query("limit"))
	if err != nil || n <= 0 {
		return def
	}
	return n
}

func validateExt(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	return ext == ".csv"
}
