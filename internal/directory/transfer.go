// Copyright (c) 2026 Keymaster Team
// Studentdir - student directory client
// This source code is licensed under the MIT license found in the LICENSE file.

package directory

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zstd"
	"gopkg.in/yaml.v3"
)

// ImportStudents writes students into collection, replacing documents with
// the same id. It returns how many were written.
func (s *BunStore) ImportStudents(ctx context.Context, collection string, students []Student) (int, error) {
	recs := make([]Record, 0, len(students))
	for _, st := range students {
		if strings.TrimSpace(st.ID) == "" {
			return 0, fmt.Errorf("directory: student %q has no id", st.Name)
		}
		recs = append(recs, st.Record())
	}
	if err := s.PutAll(ctx, collection, recs); err != nil {
		return 0, err
	}
	return len(recs), nil
}

// ExportStudents writes collection to w as zstd-compressed JSON lines.
func ExportStudents(ctx context.Context, store Store, collection string, w io.Writer) (int, error) {
	recs, err := store.ListRecords(ctx, collection)
	if err != nil {
		return 0, err
	}
	enc, err := zstd.NewWriter(w)
	if err != nil {
		return 0, err
	}
	je := json.NewEncoder(enc)
	for _, r := range recs {
		if err := je.Encode(StudentFromRecord(r)); err != nil {
			_ = enc.Close()
			return 0, err
		}
	}
	if err := enc.Close(); err != nil {
		return 0, err
	}
	return len(recs), nil
}

// ReadStudents decodes zstd-compressed JSON lines as written by
// ExportStudents.
func ReadStudents(r io.Reader) ([]Student, error) {
	dec, err := zstd.NewReader(r)
	if err != nil {
		return nil, err
	}
	defer dec.Close()
	return readJSONLines(dec)
}

func readJSONLines(r io.Reader) ([]Student, error) {
	var out []Student
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" {
			continue
		}
		var st Student
		if err := json.Unmarshal([]byte(text), &st); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		out = append(out, st)
	}
	return out, sc.Err()
}

// LoadStudentsFile reads students from path. The format follows the
// extension: .zst (export format), .yaml/.yml (list), .json (array) and
// .jsonl (JSON lines).
func LoadStudentsFile(path string) ([]Student, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".zst":
		return ReadStudents(f)
	case ".jsonl":
		return readJSONLines(f)
	case ".json":
		var out []Student
		if err := json.NewDecoder(f).Decode(&out); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
		return out, nil
	case ".yaml", ".yml":
		var out []Student
		if err := yaml.NewDecoder(f).Decode(&out); err != nil && err != io.EOF {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unsupported student file type: %s", filepath.Ext(path))
	}
}
