// Copyright (c) 2026 Keymaster Team
// Studentdir - student directory client
// This source code is licensed under the MIT license found in the LICENSE file.

package cache

import (
	"errors"
	"testing"

	"github.com/toeirei/studentdir/internal/db"
)

func newBunStore(t *testing.T) *BunStore {
	t.Helper()
	bdb, err := db.Open("sqlite", "file:"+t.Name()+"?mode=memory&cache=shared")
	if err != nil {
		t.Fatalf("db.Open failed: %v", err)
	}
	t.Cleanup(func() { _ = bdb.Close() })
	return NewBunStore(bdb)
}

func exerciseStore(t *testing.T, s Store) {
	t.Helper()
	if _, err := s.Get("missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := s.Set("a", "1"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if err := s.Set("a", "2"); err != nil {
		t.Fatalf("Set overwrite failed: %v", err)
	}
	if v, err := s.Get("a"); err != nil || v != "2" {
		t.Fatalf("Get(a) = %q, %v; want 2", v, err)
	}
	if err := s.Set("b", "x"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if err := s.Remove("a"); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	if err := s.Remove("a"); err != nil {
		t.Fatalf("Remove of missing key failed: %v", err)
	}
	if _, err := s.Get("a"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected a removed, got %v", err)
	}
	if err := s.ClearAll(); err != nil {
		t.Fatalf("ClearAll failed: %v", err)
	}
	if _, err := s.Get("b"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected b cleared, got %v", err)
	}
}

func TestMemoryStore(t *testing.T) {
	m := NewMemory()
	exerciseStore(t, m)
	if m.Len() != 0 {
		t.Fatalf("expected empty store, got %d keys", m.Len())
	}
}

func TestBunStore(t *testing.T) {
	exerciseStore(t, newBunStore(t))
}

func TestBunStoreReadErrorOnClosedDB(t *testing.T) {
	s := newBunStore(t)
	_ = s.bun.Close()
	_, err := s.Get("anything")
	var re *ReadError
	if !errors.As(err, &re) || re.Key != "anything" {
		t.Fatalf("expected *ReadError, got %v", err)
	}
}
