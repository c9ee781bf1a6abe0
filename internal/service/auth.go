package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/callcenter-console/backend/internal/db"
	"github.com/callcenter-console/backend/internal/models"
)

const (
	BcryptCost             = 10
	SessionTokenLength     = 32
	DefaultSessionDuration = 12 * time.Hour
	DefaultPresenceWindow  = 5 * time.Minute
)

func HashPassword(password string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(password), BcryptCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(b), nil
}

func CheckPassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

func GenerateSessionToken() (string, error) {
	b := make([]byte, SessionTokenLength)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate session token: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// AuthService handles agent login and the sessions that replace the
// browser-held login state.
type AuthService struct {
	Store  db.Repository
	TTL    time.Duration
	Clock  Clock
	Logger zerolog.Logger
}

func (s *AuthService) ttl() time.Duration {
	if s.TTL <= 0 {
		return DefaultSessionDuration
	}
	return s.TTL
}

func (s *AuthService) Login(ctx context.Context, agentID, password string) (models.Session, models.Agent, error) {
	agentID = strings.TrimSpace(agentID)
	agent, err := s.Store.GetAgent(ctx, agentID)
	if errors.Is(err, db.ErrNotFound) {
		return models.Session{}, models.Agent{}, ErrInvalidCredentials
	}
	if err != nil {
		return models.Session{}, models.Agent{}, err
	}
	if !CheckPassword(password, agent.PasswordHash) {
		s.Logger.Warn().Str("agent_id", agentID).Msg("login rejected")
		return models.Session{}, models.Agent{}, ErrInvalidCredentials
	}

	now := s.Clock.now()
	if err := s.Store.TouchAgent(ctx, agent.ID, now); err != nil {
		return models.Session{}, models.Agent{}, err
	}
	agent.LastTimeActive = &now

	token, err := GenerateSessionToken()
	if err != nil {
		return models.Session{}, models.Agent{}, err
	}
	session := models.Session{
		ID:        uuid.New().String(),
		Token:     token,
		AgentID:   agent.ID,
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl()),
	}
	if err := s.Store.InsertSession(ctx, session); err != nil {
		return models.Session{}, models.Agent{}, err
	}
	s.Logger.Info().Str("agent_id", agent.ID).Str("session_id", session.ID).Msg("agent logged in")
	return session, agent, nil
}

// Restore resolves a session token to its agent. Expired sessions are removed.
func (s *AuthService) Restore(ctx context.Context, token string) (models.Session, models.Agent, error) {
	if token == "" {
		return models.Session{}, models.Agent{}, ErrUnauthenticated
	}
	session, err := s.Store.GetSession(ctx, token)
	if errors.Is(err, db.ErrNotFound) {
		return models.Session{}, models.Agent{}, ErrUnauthenticated
	}
	if err != nil {
		return models.Session{}, models.Agent{}, err
	}
	if session.IsExpired(s.Clock.now()) {
		if err := s.Store.DeleteSession(ctx, token); err != nil {
			s.Logger.Error().Err(err).Str("session_id", session.ID).Msg("failed to delete expired session")
		}
		return models.Session{}, models.Agent{}, ErrSessionExpired
	}
	agent, err := s.Store.GetAgent(ctx, session.AgentID)
	if errors.Is(err, db.ErrNotFound) {
		return models.Session{}, models.Agent{}, ErrUnauthenticated
	}
	if err != nil {
		return models.Session{}, models.Agent{}, err
	}
	return session, agent, nil
}

func (s *AuthService) Logout(ctx context.Context, token string) error {
	return s.Store.DeleteSession(ctx, token)
}

func (s *AuthService) Heartbeat(ctx context.Context, agentID string) (time.Time, error) {
	now := s.Clock.now()
	return now, s.Store.TouchAgent(ctx, agentID, now)
}

// Online lists agents active within window of now.
func (s *AuthService) Online(ctx context.Context, window time.Duration) ([]models.Agent, error) {
	if window <= 0 {
		window = DefaultPresenceWindow
	}
	agents, err := s.Store.ListAgentsActiveSince(ctx, s.Clock.now().Add(-window))
	if err != nil {
		return nil, err
	}
	if agents == nil {
		agents = []models.Agent{}
	}
	return agents, nil
}

// EnsureAgent creates or updates an agent with the given password.
func (s *AuthService) EnsureAgent(ctx context.Context, agent models.Agent, password string) error {
	agent.ID = strings.TrimSpace(agent.ID)
	if agent.ID == "" || password == "" {
		return errors.New("agent id and password are required")
	}
	if agent.Role == "" {
		agent.Role = models.RoleAgent
	}
	hash, err := HashPassword(password)
	if err != nil {
		return err
	}
	agent.PasswordHash = hash
	return s.Store.UpsertAgent(ctx, agent)
}
