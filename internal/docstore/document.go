// Package docstore persists JSON documents keyed by an opaque id and pushes
// every committed change to subscribers. It offers the primitives a shared
// room needs: read, create-if-absent, partial dotted-path update, optimistic
// read-modify-write and change subscription.
package docstore

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

var (
	ErrNotFound = errors.New("document not found")
	// ErrConflict is returned when a transaction keeps losing the
	// compare-and-swap race after every retry.
	ErrConflict = errors.New("document changed concurrently")
	ErrBadPath  = errors.New("invalid field path")
)

// Document is a JSON object viewed by its top-level fields.
type Document map[string]json.RawMessage

// NewDocument encodes v (a struct or map that marshals to a JSON object).
func NewDocument(v any) (Document, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("document must be a JSON object: %w", err)
	}
	return doc, nil
}

// Decode unmarshals the whole document into v.
func (d Document) Decode(v any) error {
	data, err := json.Marshal(d)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}

// Has reports whether the top-level field is present.
func (d Document) Has(field string) bool {
	_, ok := d[field]
	return ok
}

// Field is one partial write: Value is JSON-encoded into Path.
// Path uses dotted addressing into nested objects, e.g. "charades.running".
type Field struct {
	Path  string
	Value any
}

func Set(path string, value any) Field {
	return Field{Path: path, Value: value}
}

// Snapshot is a committed state of a document. Doc is nil when the document
// does not exist (never created, or deleted).
type Snapshot struct {
	Key     string   `json:"key"`
	Version int64    `json:"version"`
	Doc     Document `json:"doc"`
}

func (s Snapshot) Exists() bool { return s.Doc != nil }

var segmentRE = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// sqlPath converts "a.b" into the SQLite JSON path "$.a.b".
func sqlPath(path string) (string, error) {
	for _, seg := range strings.Split(path, ".") {
		if !segmentRE.MatchString(seg) {
			return "", fmt.Errorf("%w: %q", ErrBadPath, path)
		}
	}
	return "$." + path, nil
}

// setArgs builds the (path, value) argument list shared by every
// jsonb_set call, plus the matching SQL expression.
func setArgs(fields []Field) (string, []any, error) {
	var b strings.Builder
	b.WriteString("jsonb_set(data")
	args := make([]any, 0, len(fields)*2)
	for _, f := range fields {
		p, err := sqlPath(f.Path)
		if err != nil {
			return "", nil, err
		}
		v, err := json.Marshal(f.Value)
		if err != nil {
			return "", nil, fmt.Errorf("encoding %s: %w", f.Path, err)
		}
		b.WriteString(", ?, json(?)")
		args = append(args, p, string(v))
	}
	b.WriteString(")")
	return b.String(), args, nil
}
