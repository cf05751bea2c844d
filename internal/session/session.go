// Package session holds the authentication token of the signed-in user.
//
// The token is obtained from the login endpoint, persisted in the settings
// table so a restart resumes the session, and broadcast to listeners whenever
// it changes. An empty token means logged out.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/soniadragulescu/beerstore/internal/cache"
)

// ErrExpired is returned by ParseClaims for a token past its exp claim.
var ErrExpired = errors.New("session token expired")

// Claims are the fields the backend puts in its tokens.
type Claims struct {
	UserID   string `json:"_id,omitempty"`
	Username string `json:"username,omitempty"`
	jwt.RegisteredClaims
}

// Authenticator exchanges credentials for a token.
type Authenticator interface {
	Login(ctx context.Context, username, password string) (string, error)
}

// Listener is told about every token change.
type Listener func(ctx context.Context, token string)

// Session is safe for concurrent use.
type Session struct {
	auth     Authenticator
	settings cache.Settings
	logger   *slog.Logger
	now      func() time.Time

	notifyMu sync.Mutex // held from token change through the listener loop

	mu        sync.RWMutex
	token     string
	claims    *Claims
	listeners []Listener
}

// New returns a logged-out session.
func New(auth Authenticator, settings cache.Settings, logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.Default()
	}
	return &Session{
		auth:     auth,
		settings: settings,
		logger:   logger.With("component", "session"),
		now:      time.Now,
	}
}

// OnChange registers fn to run after each token change.
func (s *Session) OnChange(fn Listener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

// Token returns the current token, or "" when logged out.
func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// Claims returns the decoded claims of the current token. ok is false when
// logged out or when the token is not a JWT.
func (s *Session) Claims() (Claims, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.claims == nil {
		return Claims{}, false
	}
	return *s.claims, true
}

// Login authenticates, persists the token and notifies listeners.
func (s *Session) Login(ctx context.Context, username, password string) error {
	if username == "" {
		return errors.New("username required")
	}
	token, err := s.auth.Login(ctx, username, password)
	if err != nil {
		return fmt.Errorf("login: %w", err)
	}
	if token == "" {
		return errors.New("login: server returned an empty token")
	}
	if s.settings != nil {
		if err := s.settings.SetSetting(ctx, cache.KeyToken, token); err != nil {
			s.logger.Warn("persist token failed", "error", err)
		}
	}
	s.logger.Info("logged in", "username", username)
	s.set(ctx, token)
	return nil
}

// Logout forgets the token and notifies listeners with "".
func (s *Session) Logout(ctx context.Context) error {
	var err error
	if s.settings != nil {
		if derr := s.settings.DeleteSetting(ctx, cache.KeyToken); derr != nil {
			err = fmt.Errorf("logout: %w", derr)
		}
	}
	s.logger.Info("logged out")
	s.set(ctx, "")
	return err
}

// Restore reloads a persisted token. Expired tokens are discarded. It reports
// whether a session was resumed.
func (s *Session) Restore(ctx context.Context) (bool, error) {
	if s.settings == nil {
		return false, nil
	}
	token, ok, err := s.settings.GetSetting(ctx, cache.KeyToken)
	if err != nil {
		return false, fmt.Errorf("restore session: %w", err)
	}
	if !ok || token == "" {
		return false, nil
	}
	if _, err := ParseClaims(token, s.now()); errors.Is(err, ErrExpired) {
		s.logger.Info("persisted token expired")
		if derr := s.settings.DeleteSetting(ctx, cache.KeyToken); derr != nil {
			s.logger.Warn("drop expired token failed", "error", derr)
		}
		return false, nil
	}
	s.logger.Info("session restored")
	s.set(ctx, token)
	return true, nil
}

// set installs token and notifies listeners. Concurrent calls reach the
// listeners in the order the token was installed, so the last listener call
// always carries the current token.
func (s *Session) set(ctx context.Context, token string) {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()

	s.mu.Lock()
	s.token = token
	s.claims = nil
	if token != "" {
		if c, err := ParseClaims(token, s.now()); err == nil {
			s.claims = c
		}
	}
	listeners := append([]Listener(nil), s.listeners...)
	s.mu.Unlock()

	for _, fn := range listeners {
		fn(ctx, token)
	}
}

// ParseClaims decodes token without verifying its signature; the signing key
// lives on the server. It returns ErrExpired when exp is before now.
func ParseClaims(token string, now time.Time) (*Claims, error) {
	claims := &Claims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil, fmt.Errorf("parsing token: %w", err)
	}
	if claims.ExpiresAt != nil && claims.ExpiresAt.Before(now) {
		return claims, ErrExpired
	}
	return claims, nil
}
