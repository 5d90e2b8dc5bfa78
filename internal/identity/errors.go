// Copyright (c) 2026 Keymaster Team
// Studentdir - student directory client
// This source code is licensed under the MIT license found in the LICENSE file.

package identity

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidCredentials is returned for an unknown email or a wrong password.
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrEmailInUse is returned by SignUp when the email is already registered.
	ErrEmailInUse = errors.New("email already in use")
	// ErrInvalidToken is returned by Resume for a malformed, expired or revoked token.
	ErrInvalidToken = errors.New("invalid or expired token")
	// ErrWeakPassword is returned by SignUp for passwords below MinPasswordLength.
	ErrWeakPassword = errors.New("password too short")
	// ErrInvalidEmail is returned for a malformed email address.
	ErrInvalidEmail = errors.New("invalid email address")
)

// AuthError wraps a failed provider operation.
type AuthError struct {
	Op  string
	Err error
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("auth: %s: %v", e.Op, e.Err)
}

func (e *AuthError) Unwrap() error { return e.Err }

func authErr(op string, err error) error {
	if err == nil {
		return nil
	}
	return &AuthError{Op: op, Err: err}
}
