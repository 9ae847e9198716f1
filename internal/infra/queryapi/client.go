package queryapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Client talks to the project's data API (the REST layer in front of the
// database). The same client shape serves both credential tiers: construct it
// with the anonymous key for public reads or the service-role key for
// privileged ones.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient builds a data API client bound to one credential.
func NewClient(baseURL, apiKey string, logger *slog.Logger) *Client {
	return &Client{
		baseURL:    strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 15 * time.Second},
		logger:     logger.With("component", "queryapi.client"),
	}
}

// SelectBuilder accumulates a single read query against one table.
type SelectBuilder struct {
	client  *Client
	table   string
	columns []string
	limit   int
	count   bool
}

// From starts a read against the named table.
func (c *Client) From(table string) *SelectBuilder {
	return &SelectBuilder{client: c, table: table}
}

// Select restricts the returned columns. Defaults to "*".
func (b *SelectBuilder) Select(columns ...string) *SelectBuilder {
	b.columns = columns
	return b
}

// Limit caps the number of returned rows.
func (b *SelectBuilder) Limit(n int) *SelectBuilder {
	b.limit = n
	return b
}

// Count asks the API for the exact total row count alongside the page.
func (b *SelectBuilder) Count() *SelectBuilder {
	b.count = true
	return b
}

// Result holds the rows of one read plus the exact count when requested.
type Result struct {
	Rows  []json.RawMessage
	Count int64
}

// Decode unmarshals the returned rows into out, which must be a pointer to a
// slice.
func (r Result) Decode(out any) error {
	raw, err := json.Marshal(r.Rows)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, out)
}

// Execute performs the read. Row-level security never surfaces as an error
// on this path: a credential without access simply sees zero rows.
func (b *SelectBuilder) Execute(ctx context.Context) (Result, error) {
	columns := "*"
	if len(b.columns) > 0 {
		columns = strings.Join(b.columns, ",")
	}
	query := url.Values{}
	query.Set("select", columns)
	if b.limit > 0 {
		query.Set("limit", strconv.Itoa(b.limit))
	}
	endpoint := fmt.Sprintf("%s/rest/v1/%s?%s", b.client.baseURL, url.PathEscape(b.table), query.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return Result{}, fmt.Errorf("build read request: %w", err)
	}
	req.Header.Set("apikey", b.client.apiKey)
	req.Header.Set("Authorization", "Bearer "+b.client.apiKey)
	if b.count {
		req.Header.Set("Prefer", "count=exact")
	}

	resp, err := b.client.httpClient.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("read request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return Result{}, fmt.Errorf("read %s: status=%d body=%s", b.table, resp.StatusCode, string(payload))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Result{}, fmt.Errorf("read response body: %w", err)
	}

	var rows []json.RawMessage
	if err := json.Unmarshal(body, &rows); err != nil {
		return Result{}, fmt.Errorf("decode rows from %s: %w", b.table, err)
	}

	result := Result{Rows: rows, Count: int64(len(rows))}
	if b.count {
		if total, ok := parseContentRange(resp.Header.Get("Content-Range")); ok {
			result.Count = total
		}
	}
	b.client.logger.Debug("read completed", "table", b.table, "rows", len(result.Rows), "count", result.Count)
	return result, nil
}

// parseContentRange extracts the total from headers like "0-0/42" or "*/0".
func parseContentRange(header string) (int64, bool) {
	_, totalPart, found := strings.Cut(header, "/")
	if !found || totalPart == "*" {
		return 0, false
	}
	total, err := strconv.ParseInt(totalPart, 10, 64)
	if err != nil {
		return 0, false
	}
	return total, true
}

// CountRows issues the minimal existence probe used by migration
// verification: one identifier column, exact count, a single row.
func (c *Client) CountRows(ctx context.Context, table string) (int64, error) {
	result, err := c.From(table).Select("id").Count().Limit(1).Execute(ctx)
	if err != nil {
		return 0, err
	}
	return result.Count, nil
}

// ReadRows fetches up to limit full rows and reports how many came back.
func (c *Client) ReadRows(ctx context.Context, table string, limit int) (int, error) {
	result, err := c.From(table).Limit(limit).Execute(ctx)
	if err != nil {
		return 0, err
	}
	return len(result.Rows), nil
}
