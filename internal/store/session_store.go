package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"swipe/interview/internal/metrics"
	"swipe/interview/internal/models"
)

const sessionKeyPrefix = "session:"

// SessionStore persists in-progress sessions so they survive a restart.
type SessionStore struct {
	kv     KV
	logger *zap.Logger
}

func NewSessionStore(kv KV, logger *zap.Logger) *SessionStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SessionStore{kv: kv, logger: logger}
}

func sessionKey(id string) string { return sessionKeyPrefix + id }

// Save writes the snapshot. Failures are returned as *models.PersistenceWriteError.
func (s *SessionStore) Save(ctx context.Context, session models.Session) error {
	key := sessionKey(session.SessionID)
	data, err := json.Marshal(session)
	if err != nil {
		return &models.PersistenceWriteError{Key: key, Err: err}
	}
	if err := s.kv.Set(ctx, key, data); err != nil {
		metrics.ObservePersistenceFailure("session")
		return &models.PersistenceWriteError{Key: key, Err: err}
	}
	return nil
}

func (s *SessionStore) Load(ctx context.Context, id string) (models.Session, error) {
	data, err := s.kv.Get(ctx, sessionKey(id))
	if errors.Is(err, ErrNotFound) {
		return models.Session{}, models.ErrSessionNotFound
	}
	if err != nil {
		return models.Session{}, fmt.Errorf("load session %s: %w", id, err)
	}
	var session models.Session
	if err := json.Unmarshal(data, &session); err != nil {
		return models.Session{}, fmt.Errorf("decode session %s: %w", id, err)
	}
	return session, nil
}

// LoadAll returns every persisted session. Corrupt entries are logged and skipped.
func (s *SessionStore) LoadAll(ctx context.Context) ([]models.Session, error) {
	keys, err := s.kv.Keys(ctx, sessionKeyPrefix+"*")
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	sessions := make([]models.Session, 0, len(keys))
	for _, key := range keys {
		id := strings.TrimPrefix(key, sessionKeyPrefix)
		session, err := s.Load(ctx, id)
		if err != nil {
			s.logger.Warn("skipping unreadable session", zap.String("session_id", id), zap.Error(err))
			continue
		}
		sessions = append(sessions, session)
	}
	return sessions, nil
}

func (s *SessionStore) Delete(ctx context.Context, id string) error {
	if err := s.kv.Delete(ctx, sessionKey(id)); err != nil {
		metrics.ObservePersistenceFailure("session")
		return &models.PersistenceWriteError{Key: sessionKey(id), Err: err}
	}
	return nil
}

// Clear drops every persisted session.
func (s *SessionStore) Clear(ctx context.Context) error {
	keys, err := s.kv.Keys(ctx, sessionKeyPrefix+"*")
	if err != nil {
		return &models.PersistenceWriteError{Key: sessionKeyPrefix + "*", Err: err}
	}
	for _, key := range keys {
		if err := s.kv.Delete(ctx, key); err != nil {
			return &models.PersistenceWriteError{Key: key, Err: err}
		}
	}
	return nil
}
