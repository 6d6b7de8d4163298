// Package postgres stores records as JSONB rows in a single Postgres table,
// one logical table per table_name value.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/ecoportal/internal/common"
	"github.com/dmitrijs2005/ecoportal/internal/dbx"
	"github.com/dmitrijs2005/ecoportal/internal/server/records"
	"github.com/google/uuid"
)

const defaultMaxRecords = 100

type Store struct {
	db dbx.DBTX
}

func NewStore(db dbx.DBTX) *Store {
	return &Store{db: db}
}

var _ records.Store = (*Store)(nil)

// encodeFields drops the autonumber column, which is derived from seq.
func encodeFields(fields records.Fields) ([]byte, error) {
	out := make(records.Fields, len(fields))
	for k, v := range fields {
		if k != records.AutoNumberField {
			out[k] = v
		}
	}
	b, err := json.Marshal(out)
	if err != nil {
		return nil, fmt.Errorf("encode fields: %w", err)
	}
	return b, nil
}

// scanRecord exposes seq as the autonumber column.
func scanRecord(id string, seq int64, created time.Time, raw []byte) (records.Record, error) {
	r := records.Record{ID: id, CreatedTime: created.UTC(), Fields: records.Fields{}}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &r.Fields); err != nil {
			return records.Record{}, fmt.Errorf("decode fields: %w", err)
		}
	}
	r.Fields[records.AutoNumberField] = float64(seq)
	return r, nil
}

func (s *Store) Query(ctx context.Context, table string, q records.Query) ([]records.Record, error) {
	max := q.MaxRecords
	if max <= 0 {
		max = defaultMaxRecords
	}

	var sb strings.Builder
	args := []any{table}
	sb.WriteString(`SELECT id, seq, created_at, fields FROM records WHERE table_name = $1`)
	if q.Filter != nil {
		args = append(args, q.Filter.Field, q.Filter.Value)
		sb.WriteString(` AND fields ->> $2 = $3`)
	}
	args = append(args, max)
	fmt.Fprintf(&sb, ` ORDER BY seq LIMIT $%d`, len(args))

	rows, err := s.db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var out []records.Record
	for rows.Next() {
		var (
			id      string
			seq     int64
			created time.Time
			raw     []byte
		)
		if err := rows.Scan(&id, &seq, &created, &raw); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		r, err := scanRecord(id, seq, created, raw)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return out, nil
}

func (s *Store) Create(ctx context.Context, table string, fields records.Fields) (*records.Record, error) {
	raw, err := encodeFields(fields)
	if err != nil {
		return nil, err
	}

	query :=
		`INSERT INTO records (id, table_name, fields)
		 VALUES ($1, $2, jsonb_strip_nulls($3::jsonb))
		 RETURNING seq, created_at, fields
		 `

	id := "rec" + strings.ReplaceAll(uuid.NewString(), "-", "")
	var (
		seq     int64
		created time.Time
		stored  []byte
	)
	if err := s.db.QueryRowContext(ctx, query, id, table, raw).Scan(&seq, &created, &stored); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	r, err := scanRecord(id, seq, created, stored)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// Update merges fields into the stored row; nil values remove columns.
func (s *Store) Update(ctx context.Context, table string, id string, fields records.Fields) (*records.Record, error) {
	raw, err := encodeFields(fields)
	if err != nil {
		return nil, err
	}

	query :=
		`UPDATE records SET fields = jsonb_strip_nulls(fields || $3::jsonb), updated_at = now()
		 WHERE table_name = $1 AND id = $2
		 RETURNING seq, created_at, fields
		 `

	var (
		seq     int64
		created time.Time
		stored  []byte
	)
	err = s.db.QueryRowContext(ctx, query, table, id, raw).Scan(&seq, &created, &stored)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	r, err := scanRecord(id, seq, created, stored)
	if err != nil {
		return nil, err
	}
	return &r, nil
}
