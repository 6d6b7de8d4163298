// Package records models the external, key-indexed record store that holds
// the user table and the upload ledger. Backends only move untyped rows;
// the typed accessors on Record are the single place where the remote shape
// is interpreted.
package records

import (
	"context"
	"time"
)

// AutoNumberField is the numeric display id every row carries.
// Airtable fills it through an autonumber column; the other backends assign it.
const AutoNumberField = "ID"

// Fields is the raw column → value map of one row. A nil value passed to
// Update clears the column.
type Fields map[string]any

// Record is one row of a table.
type Record struct {
	ID          string
	CreatedTime time.Time
	Fields      Fields
}

// Filter selects rows whose Field equals Value.
type Filter struct {
	Field string
	Value string
}

// Query describes a select. A nil Filter selects every row; MaxRecords <= 0
// means the backend default.
type Query struct {
	Filter     *Filter
	MaxRecords int
}

// Equals is shorthand for a single-field equality query.
func Equals(field, value string, max int) Query {
	return Query{Filter: &Filter{Field: field, Value: value}, MaxRecords: max}
}

// Store is the contract every backend implements. All calls are remote and
// may fail; errors are returned as-is and never retried.
type Store interface {
	Query(ctx context.Context, table string, q Query) ([]Record, error)
	Create(ctx context.Context, table string, fields Fields) (*Record, error)
	Update(ctx context.Context, table string, id string, fields Fields) (*Record, error)
}
