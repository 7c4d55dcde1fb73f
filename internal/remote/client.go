// Package remote is the optional database-service backend. A Client exposes
// per-table select/insert/update/delete with equality filters. When no
// database is configured the mock client answers every call with fixed data.
package remote

import (
	"context"
	"encoding/json"
	"errors"
)

// ErrNotConfigured is returned by mock calls that cannot produce a useful
// answer without a real backend.
var ErrNotConfigured = errors.New("remote backend is not configured")

// Filter is an equality condition on one column.
type Filter struct {
	Column string
	Value  any
}

// Eq is shorthand for an equality filter.
func Eq(column string, value any) Filter {
	return Filter{Column: column, Value: value}
}

// Query narrows and orders a select.
type Query struct {
	Filters []Filter
	OrderBy string
	Desc    bool
}

// Table is the set of operations available on one remote table. Rows are
// returned as JSON objects keyed by column name.
type Table interface {
	Select(ctx context.Context, q Query) ([]json.RawMessage, error)

	// Insert stores one row and returns it as persisted.
	Insert(ctx context.Context, values map[string]any) (json.RawMessage, error)

	// Update sets values on every row matching filters and returns the
	// updated rows.
	Update(ctx context.Context, values map[string]any, filters ...Filter) ([]json.RawMessage, error)

	// Delete removes every row matching filters and returns how many were
	// removed.
	Delete(ctx context.Context, filters ...Filter) (int64, error)
}

// Client hands out tables.
type Client interface {
	From(table string) Table

	// Configured reports whether calls reach a real backend.
	Configured() bool

	Close() error
}

// decodeRows unmarshals every row into a T.
func decodeRows[T any](rows []json.RawMessage) ([]T, error) {
	out := make([]T, 0, len(rows))
	for _, row := range rows {
		var item T
		if err := json.Unmarshal(row, &item); err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, nil
}
