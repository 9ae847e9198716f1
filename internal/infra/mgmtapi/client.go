package mgmtapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	apperrors "github.com/Maillman/conference-rag/pkg/errors"
)

const defaultBaseURL = "https://api.supabase.com"

// maxDiagnosticBody caps how much of a rejection body is kept for logs.
const maxDiagnosticBody = 500

// Client submits SQL batches to the hosted project's management API. The
// endpoint executes arbitrary schema SQL, so a batch is sent exactly once and
// never retried here; idempotence is the responsibility of the SQL author.
type Client struct {
	baseURL     string
	accessToken string
	projectRef  string
	httpClient  *http.Client
	logger      *slog.Logger
}

// NewClient builds a management API client for one project.
func NewClient(baseURL, accessToken, projectRef string, logger *slog.Logger) *Client {
	url := strings.TrimSpace(baseURL)
	if url == "" {
		url = defaultBaseURL
	}
	return &Client{
		baseURL:     strings.TrimRight(url, "/"),
		accessToken: accessToken,
		projectRef:  projectRef,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger: logger.With("component", "mgmtapi.client"),
	}
}

// RejectionError carries the management API's verbatim response for a batch
// it refused, with the body truncated to 500 bytes.
type RejectionError struct {
	StatusCode int
	Body       string
}

func (e *RejectionError) Error() string {
	return fmt.Sprintf("status=%d body=%s", e.StatusCode, e.Body)
}

type queryRequest struct {
	Query string `json:"query"`
}

// Submit sends one SQL batch and interprets the status code: 200 and 201 are
// accepted, anything else is a rejection.
func (c *Client) Submit(ctx context.Context, sql string) error {
	endpoint := fmt.Sprintf("%s/v1/projects/%s/database/query", c.baseURL, c.projectRef)

	payload, err := json.Marshal(queryRequest{Query: sql})
	if err != nil {
		return fmt.Errorf("encode schema batch: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build schema request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.accessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("schema request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusOK || resp.StatusCode == http.StatusCreated {
		c.logger.Debug("schema batch accepted", "status", resp.StatusCode)
		return nil
	}

	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxDiagnosticBody))
	return apperrors.Wrap(apperrors.CodeMigrationRejected, "schema batch rejected", &RejectionError{
		StatusCode: resp.StatusCode,
		Body:       string(body),
	})
}
