// Copyright (c) 2026 Keymaster Team
// Studentdir - student directory client
// This source code is licensed under the MIT license found in the LICENSE file.

// Package security holds the small primitives used around credentials:
// a redacting Secret type, bcrypt password hashing and random key material.
package security

import (
	"crypto/subtle"
	"encoding/json"
	"fmt"
	"io"
)

const redacted = "[SECRET]"

// Secret wraps sensitive material (passwords, refresh tokens) so that
// accidental formatting or JSON encoding never reveals it.
type Secret []byte

// FromString copies in into a new Secret.
func FromString(in string) Secret { return Secret([]byte(in)) }

// String redacts the secret for fmt.Print* convenience.
func (s Secret) String() string { return redacted }

// Format implements fmt.Formatter so every verb is redacted.
func (s Secret) Format(f fmt.State, _ rune) {
	_, _ = io.WriteString(f, redacted)
}

// MarshalJSON redacts secrets in JSON output.
func (s Secret) MarshalJSON() ([]byte, error) { return json.Marshal(redacted) }

// Reveal returns the plaintext. Call it only at the boundary that needs the
// raw value (cache write, provider call).
func (s Secret) Reveal() string { return string(s) }

// IsEmpty reports whether the secret holds no material.
func (s Secret) IsEmpty() bool { return len(s) == 0 }

// Equal compares two secrets in constant time.
func (s Secret) Equal(other Secret) bool {
	return subtle.ConstantTimeCompare(s, other) == 1
}

// Zero overwrites the underlying bytes.
func (s *Secret) Zero() {
	if s == nil || *s == nil {
		return
	}
	clear(*s)
}
