// Copyright (c) 2026 Keymaster Team
// Studentdir - student directory client
// This source code is licensed under the MIT license found in the LICENSE file.

// Package directory reads student records from the document store.
package directory

import (
	"context"
	"fmt"
)

// DefaultCollection is the collection holding student documents.
const DefaultCollection = "mahasiswa"

// Field names of a student document.
const (
	FieldName    = "nama"
	FieldProgram = "prodi"
	FieldFaculty = "fakultas"
)

// Record is one document: its id within the collection and its fields.
type Record struct {
	ID     string
	Fields map[string]any
}

// String returns the named field as a string, or "" when it is absent.
func (r Record) String(field string) string {
	v, ok := r.Fields[field]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

// Student is a student document. ID is the student number (NIM).
type Student struct {
	ID      string `json:"id" yaml:"id"`
	Name    string `json:"nama" yaml:"nama"`
	Program string `json:"prodi" yaml:"prodi"`
	Faculty string `json:"fakultas" yaml:"fakultas"`
}

// StudentFromRecord maps a document onto a Student.
func StudentFromRecord(r Record) Student {
	return Student{
		ID:      r.ID,
		Name:    r.String(FieldName),
		Program: r.String(FieldProgram),
		Faculty: r.String(FieldFaculty),
	}
}

// Record converts s back into a document.
func (s Student) Record() Record {
	return Record{ID: s.ID, Fields: map[string]any{
		FieldName:    s.Name,
		FieldProgram: s.Program,
		FieldFaculty: s.Faculty,
	}}
}

// Store lists the documents of a collection ordered by id.
type Store interface {
	ListRecords(ctx context.Context, collection string) ([]Record, error)
}

// QueryError wraps a failed listing.
type QueryError struct {
	Collection string
	Err        error
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("query %s: %v", e.Collection, e.Err)
}

func (e *QueryError) Unwrap() error { return e.Err }
