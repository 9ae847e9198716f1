package mgmtapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	apperrors "github.com/Maillman/conference-rag/pkg/errors"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestSubmitAccepted(t *testing.T) {
	var (
		gotPath  string
		gotAuth  string
		gotQuery string
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		var body struct {
			Query string `json:"query"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		gotQuery = body.Query
		w.WriteHeader(http.StatusCreated)
	}))
	defer server.Close()

	client := NewClient(server.URL, "sbp_token", "projref", newTestLogger())
	err := client.Submit(context.Background(), "CREATE TABLE IF NOT EXISTS question_cache ()")
	require.NoError(t, err)

	require.Equal(t, "/v1/projects/projref/database/query", gotPath)
	require.Equal(t, "Bearer sbp_token", gotAuth)
	require.Contains(t, gotQuery, "question_cache")
}

func TestSubmitRejectedCarriesStatusAndTruncatedBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(strings.Repeat("x", 2000)))
	}))
	defer server.Close()

	client := NewClient(server.URL, "sbp_token", "projref", newTestLogger())
	err := client.Submit(context.Background(), "SELECT 1")
	require.Error(t, err)
	require.True(t, apperrors.IsCode(err, apperrors.CodeMigrationRejected))

	var rejection *RejectionError
	require.True(t, errors.As(err, &rejection))
	require.Equal(t, http.StatusInternalServerError, rejection.StatusCode)
	require.Len(t, rejection.Body, 500)
}

func TestSubmitDefaultsBaseURL(t *testing.T) {
	client := NewClient("", "sbp_token", "projref", newTestLogger())
	require.Equal(t, defaultBaseURL, client.baseURL)
}
