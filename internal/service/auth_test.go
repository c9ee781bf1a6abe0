package service

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/callcenter-console/backend/internal/db"
	"github.com/callcenter-console/backend/internal/models"
)

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("s3cret")
	require.NoError(t, err)
	assert.NotEqual(t, "s3cret", hash)
	assert.True(t, CheckPassword("s3cret", hash))
	assert.False(t, CheckPassword("wrong", hash))
}

func newAuth(t *testing.T) (*AuthService, *fakeClock) {
	t.Helper()
	clock := newFakeClock()
	svc := &AuthService{Store: db.NewMemoryStore(), TTL: time.Hour, Clock: clock.Now, Logger: zerolog.Nop()}
	require.NoError(t, svc.EnsureAgent(context.Background(), models.Agent{ID: "SONTX", Name: "Son"}, "s3cret"))
	return svc, clock
}

func TestSessionLifecycle(t *testing.T) {
	svc, clock := newAuth(t)
	ctx := context.Background()

	_, _, err := svc.Login(ctx, "SONTX", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, _, err = svc.Login(ctx, "NOBODY", "s3cret")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	session, agent, err := svc.Login(ctx, "SONTX", "s3cret")
	require.NoError(t, err)
	assert.Len(t, session.Token, SessionTokenLength*2)
	assert.Equal(t, models.RoleAgent, agent.Role)
	require.NotNil(t, agent.LastTimeActive)
	assert.Equal(t, clock.Now().Add(time.Hour), session.ExpiresAt)

	_, restored, err := svc.Restore(ctx, session.Token)
	require.NoError(t, err)
	assert.Equal(t, "SONTX", restored.ID)

	require.NoError(t, svc.Logout(ctx, session.Token))
	_, _, err = svc.Restore(ctx, session.Token)
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestRestoreExpiredSession(t *testing.T) {
	svc, clock := newAuth(t)
	ctx := context.Background()

	session, _, err := svc.Login(ctx, "SONTX", "s3cret")
	require.NoError(t, err)

	clock.Advance(2 * time.Hour)
	_, _, err = svc.Restore(ctx, session.Token)
	assert.ErrorIs(t, err, ErrSessionExpired)
	_, _, err = svc.Restore(ctx, session.Token)
	assert.ErrorIs(t, err, ErrUnauthenticated, "expired session is removed")
}

func TestOnlineAgents(t *testing.T) {
	svc, clock := newAuth(t)
	ctx := context.Background()
	require.NoError(t, svc.EnsureAgent(ctx, models.Agent{ID: "HOANV"}, "pw"))

	_, _, err := svc.Login(ctx, "SONTX", "s3cret")
	require.NoError(t, err)

	clock.Advance(4 * time.Minute)
	_, err = svc.Heartbeat(ctx, "HOANV")
	require.NoError(t, err)

	online, err := svc.Online(ctx, 5*time.Minute)
	require.NoError(t, err)
	assert.Len(t, online, 2)

	clock.Advance(2 * time.Minute)
	online, err = svc.Online(ctx, 5*time.Minute)
	require.NoError(t, err)
	require.Len(t, online, 1)
	assert.Equal(t, "HOANV", online[0].ID)
}
