// Package airtable implements records.Store on top of the Airtable REST API,
// the spreadsheet-backed database the portal's tables live in.
package airtable

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/dmitrijs2005/ecoportal/internal/common"
	"github.com/dmitrijs2005/ecoportal/internal/server/records"
)

// maxPageSize is the largest page the API returns.
const maxPageSize = 100

// Config holds connection settings for one Airtable base.
type Config struct {
	Endpoint string
	BaseID   string
	APIKey   string
	Timeout  time.Duration
}

// Client talks to a single base. It is safe for concurrent use.
type Client struct {
	endpoint string
	baseID   string
	apiKey   string
	http     *http.Client
}

// APIError is a non-2xx answer from the API.
type APIError struct {
	StatusCode int
	Type       string
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("airtable: status %d %s", e.StatusCode, e.Type)
	}
	return fmt.Sprintf("airtable: status %d %s: %s", e.StatusCode, e.Type, e.Message)
}

func (e *APIError) Unwrap() error {
	if e.StatusCode == http.StatusNotFound {
		return common.ErrorNotFound
	}
	return nil
}

func New(cfg Config) *Client {
	return &Client{
		endpoint: strings.TrimRight(cfg.Endpoint, "/"),
		baseID:   cfg.BaseID,
		apiKey:   cfg.APIKey,
		http:     &http.Client{Timeout: cfg.Timeout},
	}
}

var _ records.Store = (*Client)(nil)

type wireRecord struct {
	ID          string         `json:"id"`
	CreatedTime string         `json:"createdTime,omitempty"`
	Fields      records.Fields `json:"fields"`
}

type listResponse struct {
	Records []wireRecord `json:"records"`
	Offset  string       `json:"offset,omitempty"`
}

type writeRequest struct {
	Fields   records.Fields `json:"fields"`
	Typecast bool           `json:"typecast,omitempty"`
}

func (w wireRecord) toRecord() records.Record {
	r := records.Record{ID: w.ID, Fields: w.Fields}
	if r.Fields == nil {
		r.Fields = records.Fields{}
	}
	if t, err := time.Parse(time.RFC3339Nano, w.CreatedTime); err == nil {
		r.CreatedTime = t
	}
	return r
}

// Formula renders an equality filter as an Airtable formula, escaping the
// value so user input cannot alter the expression.
func Formula(f records.Filter) string {
	value := strings.NewReplacer(`\`, `\\`, `'`, `\'`).Replace(f.Value)
	return fmt.Sprintf("{%s} = '%s'", f.Field, value)
}

func (c *Client) tableURL(table string, id string) string {
	u := c.endpoint + "/" + url.PathEscape(c.baseID) + "/" + url.PathEscape(table)
	if id != "" {
		u += "/" + url.PathEscape(id)
	}
	return u
}

func (c *Client) do(ctx context.Context, method, target string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("airtable request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// decodeError understands both error shapes the API uses:
// {"error": {"type": ..., "message": ...}} and {"error": "NOT_FOUND"}.
func decodeError(resp *http.Response) error {
	apiErr := &APIError{StatusCode: resp.StatusCode}

	b, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	var payload struct {
		Error json.RawMessage `json:"error"`
	}
	if json.Unmarshal(b, &payload) != nil || len(payload.Error) == 0 {
		apiErr.Message = strings.TrimSpace(string(b))
		return apiErr
	}

	var detailed struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(payload.Error, &detailed); err == nil {
		apiErr.Type, apiErr.Message = detailed.Type, detailed.Message
		return apiErr
	}
	var plain string
	if err := json.Unmarshal(payload.Error, &plain); err == nil {
		apiErr.Type = plain
	}
	return apiErr
}

// Query lists rows, following pagination until MaxRecords rows were read.
func (c *Client) Query(ctx context.Context, table string, q records.Query) ([]records.Record, error) {
	max := q.MaxRecords
	if max <= 0 {
		max = maxPageSize
	}

	params := url.Values{}
	params.Set("maxRecords", strconv.Itoa(max))
	params.Set("pageSize", strconv.Itoa(min(max, maxPageSize)))
	if q.Filter != nil {
		params.Set("filterByFormula", Formula(*q.Filter))
	}

	var out []records.Record
	for {
		var page listResponse
		if err := c.do(ctx, http.MethodGet, c.tableURL(table, "")+"?"+params.Encode(), nil, &page); err != nil {
			return nil, err
		}
		for _, w := range page.Records {
			out = append(out, w.toRecord())
		}
		if page.Offset == "" || len(out) >= max {
			break
		}
		params.Set("offset", page.Offset)
	}

	if len(out) > max {
		out = out[:max]
	}
	return out, nil
}

func (c *Client) Create(ctx context.Context, table string, fields records.Fields) (*records.Record, error) {
	var w wireRecord
	if err := c.do(ctx, http.MethodPost, c.tableURL(table, ""), writeRequest{Fields: fields, Typecast: true}, &w); err != nil {
		return nil, err
	}
	r := w.toRecord()
	return &r, nil
}

// Update patches only the given columns; nil values clear a column.
func (c *Client) Update(ctx context.Context, table string, id string, fields records.Fields) (*records.Record, error) {
	if id == "" {
		return nil, errors.New("airtable: empty record id")
	}
	var w wireRecord
	if err := c.do(ctx, http.MethodPatch, c.tableURL(table, id), writeRequest{Fields: fields}, &w); err != nil {
		return nil, err
	}
	r := w.toRecord()
	return &r, nil
}
