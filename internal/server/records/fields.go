package records

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/dmitrijs2005/ecoportal/internal/common"
)

// Attachment is a file reference stored in an attachment column.
type Attachment struct {
	ID       string `json:"id,omitempty"`
	URL      string `json:"url"`
	Filename string `json:"filename,omitempty"`
}

func (r *Record) lookup(name string) (any, bool) {
	if r == nil || r.Fields == nil {
		return nil, false
	}
	v, ok := r.Fields[name]
	if !ok || v == nil {
		return nil, false
	}
	return v, true
}

func typeError(name string, v any) error {
	return fmt.Errorf("field %q holds %T: %w", name, v, common.ErrFieldType)
}

// Has reports whether the column is present and non-null.
func (r *Record) Has(name string) bool {
	_, ok := r.lookup(name)
	return ok
}

// String returns a text column; absent means "".
func (r *Record) String(name string) (string, error) {
	v, ok := r.lookup(name)
	if !ok {
		return "", nil
	}
	s, ok := v.(string)
	if !ok {
		return "", typeError(name, v)
	}
	return s, nil
}

// Int returns a whole-number column; absent means 0.
func (r *Record) Int(name string) (int, error) {
	v, ok := r.lookup(name)
	if !ok {
		return 0, nil
	}
	switch n := v.(type) {
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case float64:
		if n != math.Trunc(n) {
			return 0, typeError(name, v)
		}
		return int(n), nil
	case json.Number:
		i, err := n.Int64()
		if err != nil {
			return 0, typeError(name, v)
		}
		return int(i), nil
	case string:
		i, err := strconv.Atoi(strings.TrimSpace(n))
		if err != nil {
			return 0, typeError(name, v)
		}
		return i, nil
	default:
		return 0, typeError(name, v)
	}
}

// Time returns a timestamp column; absent or blank means nil.
func (r *Record) Time(name string) (*time.Time, error) {
	v, ok := r.lookup(name)
	if !ok {
		return nil, nil
	}
	switch t := v.(type) {
	case time.Time:
		return &t, nil
	case string:
		if strings.TrimSpace(t) == "" {
			return nil, nil
		}
		parsed, err := time.Parse(time.RFC3339Nano, t)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", name, err)
		}
		return &parsed, nil
	default:
		return nil, typeError(name, v)
	}
}

// Attachments returns an attachment column; absent means nil.
func (r *Record) Attachments(name string) ([]Attachment, error) {
	v, ok := r.lookup(name)
	if !ok {
		return nil, nil
	}
	switch a := v.(type) {
	case []Attachment:
		return a, nil
	case []any:
		out := make([]Attachment, 0, len(a))
		for _, item := range a {
			m, ok := item.(map[string]any)
			if !ok {
				return nil, typeError(name, item)
			}
			att := Attachment{}
			att.ID, _ = m["id"].(string)
			att.URL, _ = m["url"].(string)
			att.Filename, _ = m["filename"].(string)
			out = append(out, att)
		}
		return out, nil
	default:
		return nil, typeError(name, v)
	}
}

// FormatTime renders a timestamp the way it is stored in the record store.
func FormatTime(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000Z07:00")
}

// Normalize converts typed values (attachments, times) into their JSON wire
// shape so every backend persists the same representation.
func Normalize(fields Fields) (Fields, error) {
	b, err := json.Marshal(fields)
	if err != nil {
		return nil, err
	}
	out := Fields{}
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, err
	}
	return out, nil
}
