// Copyright (c) 2026 Keymaster Team
// Studentdir - student directory client
// This source code is licensed under the MIT license found in the LICENSE file.

package auth

import (
	"context"
	"errors"
	"testing"

	"github.com/toeirei/studentdir/internal/cache"
	"github.com/toeirei/studentdir/internal/identity"
	"github.com/toeirei/studentdir/internal/security"
)

func TestLoginCachesTriple(t *testing.T) {
	mem := cache.NewMemory()
	p := identity.NewMockProvider(nil, identity.MockProviderOverwrites{
		SignIn: func(_ context.Context, email string, pw security.Secret) (identity.Session, error) {
			if email != "a@b.com" || pw.Reveal() != "hunter2" {
				return identity.Session{}, &identity.AuthError{Op: "sign in", Err: identity.ErrInvalidCredentials}
			}
			return identity.Session{
				Identity:     identity.Identity{ID: "u1", Email: "a@b.com", Confirmed: true},
				RefreshToken: security.FromString("refresh-1"),
			}, nil
		},
	})
	s := NewService(p, cache.NewCredentials(mem), nil)

	ident, err := s.Login(context.Background(), " a@b.com ", security.FromString("hunter2"))
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if ident.ID != "u1" {
		t.Fatalf("unexpected identity %+v", ident)
	}
	got, ok := cache.NewCredentials(mem).Load()
	if !ok || got.ID != "u1" || got.Email != "a@b.com" || got.Secret.Reveal() != "refresh-1" {
		t.Fatalf("unexpected cached credential %+v", got)
	}

	_, err = s.Login(context.Background(), "a@b.com", security.FromString("nope"))
	if !errors.Is(err, identity.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if again, _ := cache.NewCredentials(mem).Load(); again.Secret.Reveal() != "refresh-1" {
		t.Fatalf("failed login must leave cache unchanged")
	}
}

func TestMissingInput(t *testing.T) {
	s := NewService(identity.NewMockProvider(nil, identity.MockProviderOverwrites{}), cache.NewCredentials(cache.NewMemory()), nil)
	ctx := context.Background()
	if _, err := s.Login(ctx, "  ", security.FromString("x")); !errors.Is(err, ErrMissingInput) {
		t.Fatalf("expected ErrMissingInput, got %v", err)
	}
	if _, err := s.Register(ctx, "a@b.com", nil); !errors.Is(err, ErrMissingInput) {
		t.Fatalf("expected ErrMissingInput, got %v", err)
	}
}

func TestRegisterDoesNotTouchCache(t *testing.T) {
	mem := cache.NewMemory()
	p := identity.NewMockProvider(nil, identity.MockProviderOverwrites{
		SignUp: func(_ context.Context, email string, _ security.Secret) (identity.Identity, error) {
			return identity.Identity{ID: "new", Email: email, Confirmed: true}, nil
		},
	})
	s := NewService(p, cache.NewCredentials(mem), nil)
	if _, err := s.Register(context.Background(), "n@b.com", security.FromString("secret1")); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if mem.Len() != 0 {
		t.Fatalf("register must not write the cache, got %d keys", mem.Len())
	}
}

func TestLogoutClearsEverything(t *testing.T) {
	mem := cache.NewMemory()
	creds := cache.NewCredentials(mem)
	_ = creds.Save(cache.CachedCredential{ID: "u1", Email: "a@b.com", Secret: security.FromString("tok")})
	_ = mem.Set("unrelated", "x")

	signOutErr := errors.New("offline")
	var fail bool
	p := identity.NewMockProvider(nil, identity.MockProviderOverwrites{
		SignOut: func(context.Context) error {
			if fail {
				return signOutErr
			}
			return nil
		},
	})
	s := NewService(p, creds, nil)

	fail = true
	if err := s.Logout(context.Background()); !errors.Is(err, signOutErr) {
		t.Fatalf("expected sign-out error, got %v", err)
	}
	if mem.Len() != 4 {
		t.Fatalf("cache must survive a failed sign-out, got %d keys", mem.Len())
	}

	fail = false
	if err := s.Logout(context.Background()); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	if mem.Len() != 0 {
		t.Fatalf("expected empty cache after logout, got %d keys", mem.Len())
	}
}
