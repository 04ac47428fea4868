// Package auth resolves credentials into actors. Token mechanics are
// demo-grade by design: opaque bearer tokens with a Redis TTL, no refresh.
package auth

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/meridian-hr/meridian/internal/eventlog"
	"github.com/meridian-hr/meridian/internal/platform/httpx"
	"github.com/meridian-hr/meridian/internal/store"
)

// Service wraps authentication business rules.
type Service struct {
	store  *store.Store
	tokens *TokenStore
	log    *eventlog.Log
}

// NewService constructs a new Service.
func NewService(st *store.Store, tokens *TokenStore, log *eventlog.Log) *Service {
	return &Service{store: st, tokens: tokens, log: log}
}

// Authenticate validates username/password credentials.
func (s *Service) Authenticate(ctx context.Context, username, password string) (store.User, error) {
	user, ok := s.store.UserByUsername(username)
	if !ok {
		return store.User{}, fmt.Errorf("auth: invalid credentials: %w", httpx.ErrUnauthorized)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return store.User{}, fmt.Errorf("auth: invalid credentials: %w", httpx.ErrUnauthorized)
	}
	return user, nil
}

// IssueToken mints a bearer token for the user and logs the login.
func (s *Service) IssueToken(ctx context.Context, user store.User) (string, time.Time, error) {
	token, expiresAt, err := s.tokens.Issue(ctx, user.ID)
	if err != nil {
		return "", time.Time{}, err
	}
	if err := s.log.Append("auth_login", user.ID, string(user.Role), map[string]any{
		"username": user.Username,
	}); err != nil {
		return "", time.Time{}, err
	}
	return token, expiresAt, nil
}

// ResolveToken maps a bearer token back to the current user record.
func (s *Service) ResolveToken(ctx context.Context, token string) (store.User, error) {
	userID, err := s.tokens.Resolve(ctx, token)
	if err != nil {
		return store.User{}, fmt.Errorf("auth: %w", httpx.ErrUnauthorized)
	}
	user, ok := s.store.User(userID)
	if !ok {
		return store.User{}, fmt.Errorf("auth: user %s: %w", userID, httpx.ErrUnauthorized)
	}
	return user, nil
}

// Logout revokes the presented token.
func (s *Service) Logout(ctx context.Context, token string) error {
	return s.tokens.Revoke(ctx, token)
}

// ListUsers returns every account. The handler gates this to HR.
func (s *Service) ListUsers(ctx context.Context) ([]store.User, error) {
	var users []store.User
	err := s.store.View(func(state *store.State) error {
		for _, u := range state.Users {
			users = append(users, *u)
		}
		return nil
	})
	return users, err
}

// IsManagerOf reports whether managerID directly manages employeeID.
func (s *Service) IsManagerOf(ctx context.Context, managerID, employeeID string) bool {
	manager, ok := s.store.User(managerID)
	if !ok {
		return false
	}
	for _, id := range manager.TeamMembers {
		if id == employeeID {
			return true
		}
	}
	return false
}
