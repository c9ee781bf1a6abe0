package db

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/callcenter-console/backend/internal/models"
)

func newIntegrationStore(t *testing.T) *Store {
	t.Helper()
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	ctx := context.Background()
	require.NoError(t, Migrate(ctx, url, "reset"))
	require.NoError(t, Migrate(ctx, url, "up"))

	store, err := New(ctx, url)
	require.NoError(t, err)
	t.Cleanup(store.Close)
	return store
}

func TestStoreCustomerAndTicketIntegration(t *testing.T) {
	store := newIntegrationStore(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Microsecond)

	c, err := store.InsertCustomer(ctx, models.Customer{Phone: "0912345678", FirstActivity: now, LastActivity: now})
	require.NoError(t, err)
	_, err = store.InsertCustomer(ctx, models.Customer{Phone: "0912345678", FirstActivity: now, LastActivity: now})
	assert.ErrorIs(t, err, ErrConflict)

	_, err = store.FindCustomerByPhone(ctx, "0000")
	assert.ErrorIs(t, err, ErrNotFound)

	err = store.InTx(ctx, func(r Repository) error {
		code, err := r.NextTicketCode(ctx)
		if err != nil {
			return err
		}
		assert.Equal(t, int64(1), code)
		i, err := r.InsertInteraction(ctx, models.Interaction{CustomerCode: c.Code, AgentID: "SONTX", Note: "n", RequestType: "r", Status: models.StatusPending, TicketSerial: "DVSONTX01012024-1", TimeStart: now})
		if err != nil {
			return err
		}
		return r.InsertTicket(ctx, models.Ticket{Serial: "DVSONTX01012024-1", Code: code, CustomerCode: c.Code, AgentID: "SONTX", Status: models.StatusPending,
			InteractionStart: i.Code, InteractionEnd: i.Code, TimeStart: now, TimeEnd: now})
	})
	require.NoError(t, err)

	pending, err := store.ListPendingTickets(ctx, c.Code)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "r", pending[0].RequestType)

	boom := errors.New("boom")
	err = store.InTx(ctx, func(r Repository) error {
		if _, err := r.SetInteractionStatusBySerial(ctx, "DVSONTX01012024-1", models.StatusDone); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	interactions, err := store.ListInteractionsBySerial(ctx, "DVSONTX01012024-1")
	require.NoError(t, err)
	require.Len(t, interactions, 1)
	assert.Equal(t, models.StatusPending, interactions[0].Status)
}

func TestStoreConfigSeedIntegration(t *testing.T) {
	store := newIntegrationStore(t)
	rows, err := store.ListConfigRows(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, rows)
}
