// Copyright (c) 2026 Keymaster Team
// Studentdir - student directory client
// This source code is licensed under the MIT license found in the LICENSE file.

// Package auth implements the user-initiated account actions: login,
// registration and logout.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/toeirei/studentdir/internal/cache"
	"github.com/toeirei/studentdir/internal/identity"
	"github.com/toeirei/studentdir/internal/logging"
	"github.com/toeirei/studentdir/internal/security"
)

// ErrMissingInput is returned when email or password is empty.
var ErrMissingInput = errors.New("email and password are required")

// Service runs account actions against a provider and keeps the local
// credential cache in step with them.
type Service struct {
	provider identity.Provider
	creds    *cache.Credentials
	log      *log.Logger
}

// NewService returns a Service. logger may be nil.
func NewService(provider identity.Provider, creds *cache.Credentials, logger *log.Logger) *Service {
	return &Service{provider: provider, creds: creds, log: logging.Or(logger)}
}

// Login signs in and caches id, email and the issued refresh token so the
// next start can resume without a password. A cache write failure is
// logged; the sign-in itself still counts.
func (s *Service) Login(ctx context.Context, email string, password security.Secret) (identity.Identity, error) {
	email = strings.TrimSpace(email)
	if email == "" || password.IsEmpty() {
		return identity.Identity{}, ErrMissingInput
	}
	sess, err := s.provider.SignIn(ctx, email, password)
	if err != nil {
		return identity.Identity{}, err
	}
	cred := cache.CachedCredential{ID: sess.Identity.ID, Email: sess.Identity.Email, Secret: sess.RefreshToken}
	if err := s.creds.Save(cred); err != nil {
		s.log.Warn("login: caching credential failed", "id", cred.ID, "err", err)
	}
	s.log.Debug("login: signed in", "id", sess.Identity.ID)
	return sess.Identity, nil
}

// Register creates an account. It does not sign in.
func (s *Service) Register(ctx context.Context, email string, password security.Secret) (identity.Identity, error) {
	email = strings.TrimSpace(email)
	if email == "" || password.IsEmpty() {
		return identity.Identity{}, ErrMissingInput
	}
	ident, err := s.provider.SignUp(ctx, email, password)
	if err != nil {
		return identity.Identity{}, err
	}
	s.log.Debug("register: account created", "id", ident.ID)
	return ident, nil
}

// Logout signs out and then wipes the whole local cache. When sign-out
// fails the cache is left alone.
func (s *Service) Logout(ctx context.Context) error {
	if err := s.provider.SignOut(ctx); err != nil {
		return err
	}
	if err := s.creds.Store().ClearAll(); err != nil {
		return fmt.Errorf("logout: clear cache: %w", err)
	}
	s.log.Debug("logout: signed out and cache cleared")
	return nil
}
