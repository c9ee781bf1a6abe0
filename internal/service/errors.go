package service

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/callcenter-console/backend/internal/models"
)

var (
	ErrInvalidPhone       = errors.New("phone number is required")
	ErrSearchFailed       = errors.New("customer search failed")
	ErrSaveFailed         = errors.New("interaction save failed")
	ErrTicketNotPending   = errors.New("ticket is not pending for this customer")
	ErrInvalidCredentials = errors.New("invalid agent id or password")
	ErrUnauthenticated    = errors.New("session not found")
	ErrSessionExpired     = errors.New("session expired")
)

// ValidationError maps a field name to what is wrong with it.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e *ValidationError) add(field, msg string) {
	if e.Fields == nil {
		e.Fields = map[string]string{}
	}
	if _, ok := e.Fields[field]; !ok {
		e.Fields[field] = msg
	}
}

func (e *ValidationError) orNil() error {
	if len(e.Fields) == 0 {
		return nil
	}
	return e
}

// SelectionRequiredError is returned when a customer has several pending
// tickets and the caller did not say which one to append to.
type SelectionRequiredError struct {
	Pending []models.PendingTicket
}

func (e *SelectionRequiredError) Error() string {
	return fmt.Sprintf("%d pending tickets, a selection is required", len(e.Pending))
}
