// Package memory is an in-process records.Store used for local development
// and tests. Rows live only as long as the process.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/ecoportal/internal/common"
	"github.com/dmitrijs2005/ecoportal/internal/server/records"
	"github.com/google/uuid"
)

const defaultMaxRecords = 100

type table struct {
	rows    []*records.Record
	nextNum int
}

type Store struct {
	mu     sync.Mutex
	tables map[string]*table
	now    func() time.Time
}

func New() *Store {
	return &Store{tables: map[string]*table{}, now: time.Now}
}

var _ records.Store = (*Store)(nil)

func (s *Store) table(name string) *table {
	t, ok := s.tables[name]
	if !ok {
		t = &table{nextNum: 1}
		s.tables[name] = t
	}
	return t
}

// copyRecord hands out snapshots so callers cannot mutate stored rows.
func copyRecord(r *records.Record) records.Record {
	fields := make(records.Fields, len(r.Fields))
	for k, v := range r.Fields {
		fields[k] = v
	}
	return records.Record{ID: r.ID, CreatedTime: r.CreatedTime, Fields: fields}
}

func matches(r *records.Record, f *records.Filter) bool {
	if f == nil {
		return true
	}
	v, ok := r.Fields[f.Field]
	if !ok || v == nil {
		return f.Value == ""
	}
	return fmt.Sprint(v) == f.Value
}

func (s *Store) Query(ctx context.Context, name string, q records.Query) ([]records.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	max := q.MaxRecords
	if max <= 0 {
		max = defaultMaxRecords
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var out []records.Record
	for _, r := range s.table(name).rows {
		if len(out) == max {
			break
		}
		if matches(r, q.Filter) {
			out = append(out, copyRecord(r))
		}
	}
	return out, nil
}

func (s *Store) Create(ctx context.Context, name string, fields records.Fields) (*records.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	normalized, err := records.Normalize(fields)
	if err != nil {
		return nil, fmt.Errorf("encode fields: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	t := s.table(name)
	for k, v := range normalized {
		if v == nil {
			delete(normalized, k)
		}
	}
	normalized[records.AutoNumberField] = float64(t.nextNum)
	t.nextNum++

	r := &records.Record{ID: "rec" + uuid.NewString(), CreatedTime: s.now().UTC(), Fields: normalized}
	t.rows = append(t.rows, r)

	out := copyRecord(r)
	return &out, nil
}

func (s *Store) Update(ctx context.Context, name string, id string, fields records.Fields) (*records.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	normalized, err := records.Normalize(fields)
	if err != nil {
		return nil, fmt.Errorf("encode fields: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, r := range s.table(name).rows {
		if r.ID != id {
			continue
		}
		for k, v := range normalized {
			if v == nil {
				delete(r.Fields, k)
				continue
			}
			r.Fields[k] = v
		}
		out := copyRecord(r)
		return &out, nil
	}

	return nil, common.ErrorNotFound
}
