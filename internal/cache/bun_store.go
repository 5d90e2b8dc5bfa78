// Copyright (c) 2026 Keymaster Team
// Studentdir - student directory client
// This source code is licensed under the MIT license found in the LICENSE file.

package cache

import (
	"context"
	"errors"
	"time"

	"github.com/toeirei/studentdir/internal/db"
	"github.com/uptrace/bun"
)

type kvEntry struct {
	bun.BaseModel `bun:"table:kv_entries"`

	Key       string    `bun:"cache_key,pk"`
	Value     string    `bun:"value,notnull"`
	UpdatedAt time.Time `bun:"updated_at"`
}

// BunStore persists entries in the kv_entries table.
type BunStore struct {
	bun *bun.DB
	now func() time.Time
}

// NewBunStore returns a Store over an already migrated database.
func NewBunStore(bdb *bun.DB) *BunStore {
	return &BunStore{bun: bdb, now: time.Now}
}

// Get returns the value stored under key, ErrNotFound on a miss and a
// *ReadError for any other failure.
func (s *BunStore) Get(key string) (string, error) {
	var e kvEntry
	err := s.bun.NewSelect().Model(&e).Where("cache_key = ?", key).Limit(1).Scan(context.Background())
	if err != nil {
		if errors.Is(db.MapDBError(err), db.ErrNotFound) {
			return "", ErrNotFound
		}
		return "", &ReadError{Key: key, Err: err}
	}
	return e.Value, nil
}

// Set replaces the value under key.
func (s *BunStore) Set(key, value string) error {
	ctx := context.Background()
	return s.bun.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewDelete().Model((*kvEntry)(nil)).Where("cache_key = ?", key).Exec(ctx); err != nil {
			return err
		}
		e := &kvEntry{Key: key, Value: value, UpdatedAt: s.now().UTC()}
		_, err := tx.NewInsert().Model(e).Exec(ctx)
		return db.MapDBError(err)
	})
}

// Remove deletes key. Removing a missing key is not an error.
func (s *BunStore) Remove(key string) error {
	_, err := s.bun.NewDelete().Model((*kvEntry)(nil)).Where("cache_key = ?", key).Exec(context.Background())
	return err
}

// ClearAll removes every entry.
func (s *BunStore) ClearAll() error {
	_, err := db.ExecRaw(context.Background(), s.bun, "DELETE FROM kv_entries")
	return err
}
