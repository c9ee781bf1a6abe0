package db

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/callcenter-console/backend/internal/models"
)

var (
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("conflict")
)

// Repository is the row-level access used by the services. Implementations
// must behave the same whether they run inside a transaction or not.
type Repository interface {
	FindCustomerByPhone(ctx context.Context, phone string) (models.Customer, error)
	GetCustomer(ctx context.Context, code int64) (models.Customer, error)
	InsertCustomer(ctx context.Context, c models.Customer) (models.Customer, error)
	TouchCustomer(ctx context.Context, code int64, at time.Time) error
	UpdateCustomerContact(ctx context.Context, code int64, name, email string) (models.Customer, error)

	ListPendingTickets(ctx context.Context, customerCode int64) ([]models.PendingTicket, error)
	GetTicket(ctx context.Context, serial string) (models.Ticket, error)
	NextTicketCode(ctx context.Context) (int64, error)
	InsertTicket(ctx context.Context, t models.Ticket) error
	UpdateTicketProgress(ctx context.Context, serial string, status models.TicketStatus, interactionEnd int64, timeEnd time.Time) error

	InsertInteraction(ctx context.Context, i models.Interaction) (models.Interaction, error)
	SetInteractionStatusBySerial(ctx context.Context, serial string, status models.TicketStatus) (int64, error)
	ListInteractionsByCustomer(ctx context.Context, customerCode int64, limit int) ([]models.Interaction, error)
	ListInteractionsBySerial(ctx context.Context, serial string) ([]models.Interaction, error)

	ListConfigRows(ctx context.Context) ([]models.ConfigRow, error)

	GetAgent(ctx context.Context, id string) (models.Agent, error)
	UpsertAgent(ctx context.Context, a models.Agent) error
	TouchAgent(ctx context.Context, id string, at time.Time) error
	ListAgentsActiveSince(ctx context.Context, since time.Time) ([]models.Agent, error)

	InsertSession(ctx context.Context, s models.Session) error
	GetSession(ctx context.Context, token string) (models.Session, error)
	DeleteSession(ctx context.Context, token string) error

	DeleteMissedCalls(ctx context.Context) (int64, error)
	InsertMissedCalls(ctx context.Context, calls []models.MissedCall) (int64, error)
	ListMissedCallsByANI(ctx context.Context, ani string, limit int) ([]models.MissedCall, error)
	MissCallSummary(ctx context.Context) (models.MissCallSummary, error)

	CountInteractionsByAgent(ctx context.Context, r models.TimeRange) ([]models.AgentInteractionCount, error)
	ListTicketSpans(ctx context.Context, r models.TimeRange) ([]models.TicketSpan, error)
}

// Backend is a Repository that can also open transactions.
type Backend interface {
	Repository
	InTx(ctx context.Context, fn func(Repository) error) error
	Ping(ctx context.Context) error
}

func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return errors.Join(ErrConflict, err)
	}
	return err
}
