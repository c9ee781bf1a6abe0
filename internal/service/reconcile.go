package service

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"

	"github.com/callcenter-console/backend/internal/db"
	"github.com/callcenter-console/backend/internal/models"
)

// UnspecifiedDetail is shown for pending tickets whose latest interaction
// has no detail.
const UnspecifiedDetail = "Không xác định"

type SelectionMode string

const (
	SelectAuto     SelectionMode = "auto"
	SelectExisting SelectionMode = "existing"
	SelectNew      SelectionMode = "new"
)

// Selection tells Save which ticket an interaction belongs to.
type Selection struct {
	Mode   SelectionMode
	Serial string
}

type SaveRequest struct {
	CustomerCode int64
	AgentID      string
	// TimeStart is when the agent opened the customer. Zero means the
	// customer's last activity.
	TimeStart time.Time

	Note        string
	RequestType string
	Detail      string
	ServiceType string
	Status      string
	Channel     string
	Department  string

	Selection Selection
}

type SaveResult struct {
	Ticket      models.Ticket      `json:"ticket"`
	Interaction models.Interaction `json:"interaction"`
	Created     bool               `json:"created"`
	// Closed counts the interactions moved to the terminal status.
	Closed int64 `json:"closed"`
}

// TicketReconciler records an interaction against the customer's open
// ticket, or opens a new ticket when there is none.
type TicketReconciler struct {
	Store    db.Backend
	Catalog  *CatalogCache
	Clock    Clock
	Location *time.Location
	Logger   zerolog.Logger
}

var notePolicy = bluemonday.StrictPolicy()

func sanitizeNote(note string) string {
	return strings.TrimSpace(html.UnescapeString(notePolicy.Sanitize(note)))
}

type form struct {
	SaveRequest
	status models.TicketStatus
}

func (t *TicketReconciler) catalog() *Catalog {
	if t.Catalog == nil {
		return BuildCatalog(nil)
	}
	return t.Catalog.Get()
}

func (t *TicketReconciler) validate(req SaveRequest) (form, error) {
	f := form{SaveRequest: req}
	f.Note = sanitizeNote(req.Note)
	f.RequestType = strings.TrimSpace(req.RequestType)
	f.Detail = strings.TrimSpace(req.Detail)
	f.ServiceType = strings.TrimSpace(req.ServiceType)
	f.Channel = strings.TrimSpace(req.Channel)
	f.Department = strings.TrimSpace(req.Department)
	f.Selection.Serial = strings.TrimSpace(req.Selection.Serial)
	if f.Selection.Mode == "" {
		f.Selection.Mode = SelectAuto
	}

	cat := t.catalog()
	verr := &ValidationError{}
	if f.AgentID == "" {
		verr.add("agent_id", "required")
	}
	if f.Note == "" {
		verr.add("note", "required")
	}
	if f.RequestType == "" {
		verr.add("request_type", "required")
	} else if !cat.Allows(CategoryRequestType, f.RequestType) {
		verr.add("request_type", "unknown option")
	}
	if f.Detail != "" && !cat.AllowsDetail(f.RequestType, f.Detail) {
		verr.add("detail", "not allowed for request type")
	}
	if f.ServiceType != "" && !cat.Allows(CategoryServiceType, f.ServiceType) {
		verr.add("service_type", "unknown option")
	}
	if strings.TrimSpace(req.Status) == "" {
		verr.add("status", "required")
	} else if s, ok := models.ParseTicketStatus(req.Status); !ok {
		verr.add("status", "must be PENDING, DONE or CANCELLED")
	} else {
		f.status = s
	}
	if f.Channel == "" {
		verr.add("channel", "required")
	} else if !cat.Allows(CategoryChannel, f.Channel) {
		verr.add("channel", "unknown option")
	}
	if f.Department != "" && !cat.Allows(CategoryDepartment, f.Department) {
		verr.add("department", "unknown option")
	}
	switch f.Selection.Mode {
	case SelectAuto, SelectNew:
	case SelectExisting:
		if f.Selection.Serial == "" {
			verr.add("ticket_serial", "required when selecting an existing ticket")
		}
	default:
		verr.add("selection", "must be auto, existing or new")
	}
	return f, verr.orNil()
}

// Save validates the form and writes the interaction and ticket rows in one
// transaction.
func (t *TicketReconciler) Save(ctx context.Context, req SaveRequest) (SaveResult, error) {
	f, err := t.validate(req)
	if err != nil {
		return SaveResult{}, err
	}

	var result SaveResult
	err = t.Store.InTx(ctx, func(repo db.Repository) error {
		customer, err := repo.GetCustomer(ctx, f.CustomerCode)
		if err != nil {
			return err
		}
		if f.TimeStart.IsZero() {
			f.TimeStart = customer.LastActivity
		}

		pending, err := repo.ListPendingTickets(ctx, f.CustomerCode)
		if err != nil {
			return err
		}
		target, err := pickTarget(f.Selection, pending)
		if err != nil {
			return err
		}

		if target == nil {
			result, err = t.create(ctx, repo, f)
		} else {
			result, err = t.appendTo(ctx, repo, f, target.Ticket)
		}
		if err != nil {
			return err
		}

		if f.status.Terminal() {
			n, err := repo.SetInteractionStatusBySerial(ctx, result.Ticket.Serial, f.status)
			if err != nil {
				return err
			}
			result.Closed = n
			result.Interaction.Status = f.status
		}
		return nil
	})
	if err != nil {
		var verr *ValidationError
		var serr *SelectionRequiredError
		switch {
		case errors.As(err, &verr), errors.As(err, &serr),
			errors.Is(err, ErrTicketNotPending), errors.Is(err, db.ErrNotFound):
			return SaveResult{}, err
		}
		t.Logger.Error().Err(err).Int64("customer_code", f.CustomerCode).Msg("save interaction failed")
		return SaveResult{}, fmt.Errorf("%w: %v", ErrSaveFailed, err)
	}

	t.Logger.Info().
		Str("ticket_serial", result.Ticket.Serial).
		Int64("interaction_code", result.Interaction.Code).
		Bool("created", result.Created).
		Str("status", string(result.Ticket.Status)).
		Msg("interaction saved")
	return result, nil
}

// pickTarget returns nil when a new ticket must be created.
func pickTarget(sel Selection, pending []models.PendingTicket) (*models.PendingTicket, error) {
	switch sel.Mode {
	case SelectNew:
		return nil, nil
	case SelectExisting:
		for i := range pending {
			if pending[i].Serial == sel.Serial {
				return &pending[i], nil
			}
		}
		return nil, ErrTicketNotPending
	}
	switch len(pending) {
	case 0:
		return nil, nil
	case 1:
		return &pending[0], nil
	}
	fillPendingDefaults(pending)
	return nil, &SelectionRequiredError{Pending: pending}
}

func (t *TicketReconciler) create(ctx context.Context, repo db.Repository, f form) (SaveResult, error) {
	if f.ServiceType == "" {
		verr := &ValidationError{}
		verr.add("service_type", "required for a new ticket")
		return SaveResult{}, verr
	}
	now := t.Clock.now()

	code, err := repo.NextTicketCode(ctx)
	if err != nil {
		return SaveResult{}, err
	}
	serial := GenerateTicketSerial(f.ServiceType, f.AgentID, f.TimeStart, t.Location, code)

	interaction, err := repo.InsertInteraction(ctx, models.Interaction{
		CustomerCode: f.CustomerCode,
		AgentID:      f.AgentID,
		Note:         f.Note,
		RequestType:  f.RequestType,
		Detail:       f.Detail,
		Status:       f.status,
		TicketSerial: serial,
		TimeStart:    now,
	})
	if err != nil {
		return SaveResult{}, err
	}

	ticket := models.Ticket{
		Serial:           serial,
		Code:             code,
		CustomerCode:     f.CustomerCode,
		AgentID:          f.AgentID,
		Channel:          f.Channel,
		Department:       f.Department,
		ServiceType:      f.ServiceType,
		Status:           f.status,
		InteractionStart: interaction.Code,
		InteractionEnd:   interaction.Code,
		TimeStart:        f.TimeStart,
		TimeEnd:          now,
	}
	if err := repo.InsertTicket(ctx, ticket); err != nil {
		return SaveResult{}, err
	}
	return SaveResult{Ticket: ticket, Interaction: interaction, Created: true}, nil
}

func (t *TicketReconciler) appendTo(ctx context.Context, repo db.Repository, f form, ticket models.Ticket) (SaveResult, error) {
	now := t.Clock.now()
	interaction, err := repo.InsertInteraction(ctx, models.Interaction{
		CustomerCode: f.CustomerCode,
		AgentID:      f.AgentID,
		Note:         f.Note,
		RequestType:  f.RequestType,
		Detail:       f.Detail,
		Status:       f.status,
		TicketSerial: ticket.Serial,
		TimeStart:    now,
	})
	if err != nil {
		return SaveResult{}, err
	}
	if err := repo.UpdateTicketProgress(ctx, ticket.Serial, f.status, interaction.Code, now); err != nil {
		return SaveResult{}, err
	}
	ticket.Status = f.status
	ticket.InteractionEnd = interaction.Code
	ticket.TimeEnd = now
	return SaveResult{Ticket: ticket, Interaction: interaction}, nil
}

// PendingTickets lists the customer's open tickets for the selection dialog.
func (t *TicketReconciler) PendingTickets(ctx context.Context, customerCode int64) ([]models.PendingTicket, error) {
	if _, err := t.Store.GetCustomer(ctx, customerCode); err != nil {
		return nil, err
	}
	pending, err := t.Store.ListPendingTickets(ctx, customerCode)
	if err != nil {
		return nil, err
	}
	fillPendingDefaults(pending)
	if pending == nil {
		pending = []models.PendingTicket{}
	}
	return pending, nil
}

func (t *TicketReconciler) TicketInteractions(ctx context.Context, serial string) (models.Ticket, []models.Interaction, error) {
	ticket, err := t.Store.GetTicket(ctx, serial)
	if err != nil {
		return models.Ticket{}, nil, err
	}
	interactions, err := t.Store.ListInteractionsBySerial(ctx, serial)
	if err != nil {
		return models.Ticket{}, nil, err
	}
	return ticket, interactions, nil
}

func fillPendingDefaults(pending []models.PendingTicket) {
	for i := range pending {
		if pending[i].Detail == "" {
			pending[i].Detail = UnspecifiedDetail
		}
	}
}
