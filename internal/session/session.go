// Package session owns the admin bearer token for one client process. The
// token is read from its store once in Init and cleared in Teardown; nothing
// else reads the store directly.
package session

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

type Session struct {
	store  TokenStore
	logger *zap.Logger

	mu          sync.RWMutex
	token       string
	initialized bool
}

func New(store TokenStore, logger *zap.Logger) *Session {
	return &Session{store: store, logger: logger}
}

// Init loads the persisted token. Calling it again is a no-op.
func (s *Session) Init(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.initialized {
		return nil
	}
	token, err := s.store.Load(ctx)
	if err != nil {
		return err
	}
	s.token = token
	s.initialized = true

	s.logger.Debug("Session initialized", zap.Bool("has_token", token != ""))
	return nil
}

// Token returns the current bearer token, or "" when logged out.
func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

func (s *Session) HasToken() bool {
	return s.Token() != ""
}

// SetToken stores a freshly issued token in memory and in the backing store.
func (s *Session) SetToken(ctx context.Context, token string) error {
	s.mu.Lock()
	s.token = token
	s.initialized = true
	s.mu.Unlock()

	return s.store.Save(ctx, token)
}

// Teardown forgets the token. The in-memory copy is dropped even when the
// store fails, so the process never keeps using a revoked session.
func (s *Session) Teardown(ctx context.Context) error {
	s.mu.Lock()
	had := s.token != ""
	s.token = ""
	s.mu.Unlock()

	if err := s.store.Delete(ctx); err != nil {
		s.logger.Warn("Failed to delete persisted token", zap.Error(err))
		return err
	}
	if had {
		s.logger.Info("Session cleared")
	}
	return nil
}
