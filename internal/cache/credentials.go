// Copyright (c) 2026 Keymaster Team
// Studentdir - student directory client
// This source code is licensed under the MIT license found in the LICENSE file.

package cache

import (
	"errors"
	"fmt"

	"github.com/toeirei/studentdir/internal/security"
)

// Keys under which the credential triple is stored.
const (
	KeyUserID     = "userId"
	KeyUserEmail  = "userEmail"
	KeyUserSecret = "userSecret"
)

// ErrIncompleteCredential is returned when saving a secret without the
// id and email it belongs to.
var ErrIncompleteCredential = errors.New("cache: secret requires id and email")

// CachedCredential is the locally remembered sign-in. Secret holds a
// provider-issued refresh token and may be empty when only the identity was
// recorded from a provider notification.
type CachedCredential struct {
	ID     string
	Email  string
	Secret security.Secret
}

// HasSecret reports whether the credential can be replayed.
func (c CachedCredential) HasSecret() bool {
	return c.Email != "" && !c.Secret.IsEmpty()
}

// Credentials reads and writes the credential triple on a Store.
type Credentials struct {
	store Store
}

// NewCredentials wraps store.
func NewCredentials(store Store) *Credentials {
	return &Credentials{store: store}
}

// Store returns the underlying Store.
func (c *Credentials) Store() Store { return c.store }

// Load returns the cached credential. Read failures and a missing id count
// as a miss. A secret found without an email is dropped from the result.
func (c *Credentials) Load() (CachedCredential, bool) {
	id, ok := c.read(KeyUserID)
	if !ok || id == "" {
		return CachedCredential{}, false
	}
	cred := CachedCredential{ID: id}
	cred.Email, _ = c.read(KeyUserEmail)
	if secret, ok := c.read(KeyUserSecret); ok && secret != "" && cred.Email != "" {
		cred.Secret = security.FromString(secret)
	}
	return cred, true
}

func (c *Credentials) read(key string) (string, bool) {
	v, err := c.store.Get(key)
	if err != nil {
		return "", false
	}
	return v, true
}

// Save writes the full triple.
func (c *Credentials) Save(cred CachedCredential) error {
	if cred.ID == "" || cred.Email == "" {
		return ErrIncompleteCredential
	}
	if err := c.SaveIdentity(cred.ID, cred.Email); err != nil {
		return err
	}
	if cred.Secret.IsEmpty() {
		return nil
	}
	if err := c.store.Set(KeyUserSecret, cred.Secret.Reveal()); err != nil {
		return fmt.Errorf("cache: write %s: %w", KeyUserSecret, err)
	}
	return nil
}

// SaveIdentity records id and email. A stored secret is kept only while it
// still belongs to the same id and email.
func (c *Credentials) SaveIdentity(id, email string) error {
	if id == "" {
		return ErrIncompleteCredential
	}
	prevID, _ := c.read(KeyUserID)
	prevEmail, _ := c.read(KeyUserEmail)
	if prevID != id || prevEmail != email {
		if err := c.store.Remove(KeyUserSecret); err != nil {
			return fmt.Errorf("cache: remove %s: %w", KeyUserSecret, err)
		}
	}
	if err := c.store.Set(KeyUserID, id); err != nil {
		return fmt.Errorf("cache: write %s: %w", KeyUserID, err)
	}
	if err := c.store.Set(KeyUserEmail, email); err != nil {
		return fmt.Errorf("cache: write %s: %w", KeyUserEmail, err)
	}
	return nil
}

// Clear removes id, email and secret together. Every key is attempted even
// when one removal fails.
func (c *Credentials) Clear() error {
	var errs []error
	for _, k := range []string{KeyUserID, KeyUserEmail, KeyUserSecret} {
		if err := c.store.Remove(k); err != nil {
			errs = append(errs, fmt.Errorf("cache: remove %s: %w", k, err))
		}
	}
	return errors.Join(errs...)
}
