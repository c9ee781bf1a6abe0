package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/callcenter-console/backend/internal/db"
	"github.com/callcenter-console/backend/internal/models"
)

type Clock func() time.Time

func (c Clock) now() time.Time {
	if c == nil {
		return time.Now().UTC().Truncate(time.Microsecond)
	}
	return c().UTC().Truncate(time.Microsecond)
}

// CustomerResolver finds or creates the customer behind a phone number.
type CustomerResolver struct {
	Store  db.Repository
	Clock  Clock
	Logger zerolog.Logger
}

// Resolve normalizes rawPhone, then returns the matching customer with its
// last activity moved to now, or a new customer when the phone is unseen.
func (r *CustomerResolver) Resolve(ctx context.Context, rawPhone string) (models.Customer, bool, error) {
	phone, err := NormalizePhone(rawPhone)
	if err != nil {
		return models.Customer{}, false, err
	}
	now := r.Clock.now()

	c, err := r.Store.FindCustomerByPhone(ctx, phone)
	switch {
	case errors.Is(err, db.ErrNotFound):
		created, insErr := r.Store.InsertCustomer(ctx, models.Customer{Phone: phone, FirstActivity: now, LastActivity: now})
		if insErr == nil {
			r.Logger.Info().Int64("customer_code", created.Code).Msg("customer created")
			return created, true, nil
		}
		if !errors.Is(insErr, db.ErrConflict) {
			r.Logger.Error().Err(insErr).Msg("customer insert failed")
			return models.Customer{}, false, fmt.Errorf("%w: %v", ErrSearchFailed, insErr)
		}
		// Lost a race with another search for the same phone.
		c, err = r.Store.FindCustomerByPhone(ctx, phone)
		if err != nil {
			r.Logger.Error().Err(err).Msg("customer lookup after conflict failed")
			return models.Customer{}, false, fmt.Errorf("%w: %v", ErrSearchFailed, err)
		}
	case err != nil:
		r.Logger.Error().Err(err).Msg("customer lookup failed")
		return models.Customer{}, false, fmt.Errorf("%w: %v", ErrSearchFailed, err)
	}

	at := now
	if !at.After(c.LastActivity) {
		at = c.LastActivity.Add(time.Microsecond)
	}
	if err := r.Store.TouchCustomer(ctx, c.Code, at); err != nil {
		r.Logger.Error().Err(err).Int64("customer_code", c.Code).Msg("customer touch failed")
		return models.Customer{}, false, fmt.Errorf("%w: %v", ErrSearchFailed, err)
	}
	c.LastActivity = at
	return c, false, nil
}

func (r *CustomerResolver) Get(ctx context.Context, code int64) (models.Customer, error) {
	return r.Store.GetCustomer(ctx, code)
}

func (r *CustomerResolver) UpdateContact(ctx context.Context, code int64, name, email string) (models.Customer, error) {
	return r.Store.UpdateCustomerContact(ctx, code, name, email)
}

// CustomerHistory is what an agent sees after a search.
type CustomerHistory struct {
	Customer       models.Customer        `json:"customer"`
	Interactions   []models.Interaction   `json:"interactions"`
	PendingTickets []models.PendingTicket `json:"pending_tickets"`
	MissedCalls    []models.MissedCall    `json:"missed_calls"`
}

func (r *CustomerResolver) History(ctx context.Context, c models.Customer, limit int) (CustomerHistory, error) {
	h := CustomerHistory{Customer: c}
	var err error
	if h.Interactions, err = r.Store.ListInteractionsByCustomer(ctx, c.Code, limit); err != nil {
		return h, err
	}
	if h.PendingTickets, err = r.Store.ListPendingTickets(ctx, c.Code); err != nil {
		return h, err
	}
	fillPendingDefaults(h.PendingTickets)
	if h.MissedCalls, err = r.Store.ListMissedCallsByANI(ctx, c.Phone, limit); err != nil {
		return h, err
	}
	if h.Interactions == nil {
		h.Interactions = []models.Interaction{}
	}
	if h.PendingTickets == nil {
		h.PendingTickets = []models.PendingTicket{}
	}
	if h.MissedCalls == nil {
		h.MissedCalls = []models.MissedCall{}
	}
	return h, nil
}
