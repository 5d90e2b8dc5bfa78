// Copyright (c) 2026 Keymaster Team
// Studentdir - student directory client
// This source code is licensed under the MIT license found in the LICENSE file.

// Package identity defines the identity-provider contract consumed by the
// session bootstrap and the user actions, and ships a local bun-backed
// provider implementing it.
package identity

import (
	"context"

	"github.com/toeirei/studentdir/internal/security"
)

// Identity is an authenticated principal. Confirmed is true when the
// provider vouched for it and false when it was rebuilt from the local cache.
type Identity struct {
	ID        string
	Email     string
	Confirmed bool
}

// Clone returns a copy of i, or nil.
func (i *Identity) Clone() *Identity {
	if i == nil {
		return nil
	}
	c := *i
	return &c
}

// Session is the result of a successful sign-in. RefreshToken can later be
// handed to Resume to restore the session without the password.
type Session struct {
	Identity     Identity
	RefreshToken security.Secret
}

// Listener receives identity changes. A nil identity means nobody is
// signed in.
type Listener func(*Identity)

// Provider is the identity provider as seen by the client.
type Provider interface {
	// Subscribe registers fn. fn is called at least once shortly after
	// subscribing and then on every sign-in and sign-out, in order.
	Subscribe(fn Listener) (unsubscribe func())
	// AwaitSessionRestored blocks until the provider finished trying to
	// restore a previous session. It does not say whether it succeeded.
	AwaitSessionRestored(ctx context.Context) error
	// CurrentIdentity returns the signed-in identity or nil.
	CurrentIdentity() *Identity
	SignIn(ctx context.Context, email string, password security.Secret) (Session, error)
	SignUp(ctx context.Context, email string, password security.Secret) (Identity, error)
	SignOut(ctx context.Context) error
	// Resume signs in with a refresh token previously issued by SignIn.
	Resume(ctx context.Context, email string, token security.Secret) (Identity, error)
}
