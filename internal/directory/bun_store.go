// Copyright (c) 2026 Keymaster Team
// Studentdir - student directory client
// This source code is licensed under the MIT license found in the LICENSE file.

package directory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/uptrace/bun"
)

type documentRow struct {
	bun.BaseModel `bun:"table:documents"`

	Collection string    `bun:"collection,pk"`
	DocID      string    `bun:"doc_id,pk"`
	Body       string    `bun:"body,notnull"`
	UpdatedAt  time.Time `bun:"updated_at"`
}

// BunStore keeps documents in the documents table with the fields encoded
// as a JSON object.
type BunStore struct {
	bun *bun.DB
}

var _ Store = (*BunStore)(nil)

// NewBunStore returns a Store over an already migrated database.
func NewBunStore(bdb *bun.DB) *BunStore {
	return &BunStore{bun: bdb}
}

// ListRecords implements Store.
func (s *BunStore) ListRecords(ctx context.Context, collection string) ([]Record, error) {
	var rows []documentRow
	err := s.bun.NewSelect().Model(&rows).
		Where("collection = ?", collection).
		Order("doc_id ASC").
		Scan(ctx)
	if err != nil {
		return nil, &QueryError{Collection: collection, Err: err}
	}
	out := make([]Record, 0, len(rows))
	for _, row := range rows {
		fields := map[string]any{}
		if err := json.Unmarshal([]byte(row.Body), &fields); err != nil {
			return nil, &QueryError{Collection: collection, Err: fmt.Errorf("document %s: %w", row.DocID, err)}
		}
		out = append(out, Record{ID: row.DocID, Fields: fields})
	}
	return out, nil
}

// Put inserts or replaces one document.
func (s *BunStore) Put(ctx context.Context, collection string, rec Record) error {
	return s.bun.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		return putTx(ctx, tx, collection, rec)
	})
}

// PutAll writes every record in one transaction.
func (s *BunStore) PutAll(ctx context.Context, collection string, recs []Record) error {
	return s.bun.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		for _, rec := range recs {
			if err := putTx(ctx, tx, collection, rec); err != nil {
				return err
			}
		}
		return nil
	})
}

func putTx(ctx context.Context, tx bun.Tx, collection string, rec Record) error {
	if rec.ID == "" {
		return errors.New("directory: document id is required")
	}
	body, err := json.Marshal(rec.Fields)
	if err != nil {
		return fmt.Errorf("directory: encode %s: %w", rec.ID, err)
	}
	if _, err := tx.NewDelete().Model((*documentRow)(nil)).
		Where("collection = ?", collection).
		Where("doc_id = ?", rec.ID).
		Exec(ctx); err != nil {
		return err
	}
	row := &documentRow{Collection: collection, DocID: rec.ID, Body: string(body), UpdatedAt: time.Now().UTC()}
	_, err = tx.NewInsert().Model(row).Exec(ctx)
	return err
}
