// Copyright (c) 2026 Keymaster Team
// Studentdir - student directory client
// This source code is licensed under the MIT license found in the LICENSE file.

package directory

import (
	"context"
	"errors"
	"testing"

	"github.com/toeirei/studentdir/internal/db"
)

func newTestStore(t *testing.T) *BunStore {
	t.Helper()
	bdb, err := db.Open("sqlite", "file:"+t.Name()+"?mode=memory&cache=shared")
	if err != nil {
		t.Fatalf("db.Open failed: %v", err)
	}
	t.Cleanup(func() { _ = bdb.Close() })
	return NewBunStore(bdb)
}

func TestListRecordsOrderedAndScoped(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	for _, id := range []string{"003", "001", "002"} {
		if err := s.Put(ctx, DefaultCollection, Student{ID: id, Name: "N" + id, Program: "TI", Faculty: "FT"}.Record()); err != nil {
			t.Fatalf("Put %s: %v", id, err)
		}
	}
	if err := s.Put(ctx, "dosen", Record{ID: "x", Fields: map[string]any{"nama": "Other"}}); err != nil {
		t.Fatalf("Put other collection: %v", err)
	}

	recs, err := s.ListRecords(ctx, DefaultCollection)
	if err != nil {
		t.Fatalf("ListRecords: %v", err)
	}
	if len(recs) != 3 || recs[0].ID != "001" || recs[2].ID != "003" {
		t.Fatalf("unexpected records %+v", recs)
	}
	if st := StudentFromRecord(recs[1]); st.Name != "N002" || st.Program != "TI" || st.Faculty != "FT" {
		t.Fatalf("unexpected student %+v", st)
	}

	if err := s.Put(ctx, DefaultCollection, Student{ID: "001", Name: "Renamed"}.Record()); err != nil {
		t.Fatalf("Put replace: %v", err)
	}
	recs, _ = s.ListRecords(ctx, DefaultCollection)
	if len(recs) != 3 || recs[0].String(FieldName) != "Renamed" {
		t.Fatalf("expected replacement, got %+v", recs[0])
	}
}

func TestListRecordsQueryError(t *testing.T) {
	s := newTestStore(t)
	_ = s.bun.Close()
	_, err := s.ListRecords(context.Background(), DefaultCollection)
	var qe *QueryError
	if !errors.As(err, &qe) || qe.Collection != DefaultCollection {
		t.Fatalf("expected QueryError, got %v", err)
	}
}

func TestPutRequiresID(t *testing.T) {
	s := newTestStore(t)
	if err := s.Put(context.Background(), DefaultCollection, Record{}); err == nil {
		t.Fatalf("expected error for empty id")
	}
}

func TestRecordStringFormatsNonStrings(t *testing.T) {
	r := Record{ID: "1", Fields: map[string]any{"angkatan": float64(2021), "nil": nil}}
	if got := r.String("angkatan"); got != "2021" {
		t.Fatalf("unexpected %q", got)
	}
	if r.String("nil") != "" || r.String("missing") != "" {
		t.Fatalf("absent fields should be empty")
	}
}
