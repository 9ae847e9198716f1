package migrate

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	apperrors "github.com/Maillman/conference-rag/pkg/errors"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testParams() Params {
	return Params{EmbeddingDim: 1536, SimilarityThreshold: 0.95, MaxResults: 5}
}

func testMigrations(t *testing.T) []Migration {
	t.Helper()
	migrations, err := Registry()
	require.NoError(t, err)
	return migrations
}

type stubSubmitter struct {
	calls   int
	lastSQL string
	err     error
}

func (s *stubSubmitter) Submit(ctx context.Context, sql string) error {
	s.calls++
	s.lastSQL = sql
	return s.err
}

// stubVerifier fails every CountRows call until failUntil calls have been
// made, then reports count rows.
type stubVerifier struct {
	calls     int
	failUntil int
	count     int64
	tables    []string
}

func (v *stubVerifier) CountRows(ctx context.Context, table string) (int64, error) {
	v.calls++
	v.tables = append(v.tables, table)
	if v.calls <= v.failUntil {
		return 0, errors.New("schema cache not refreshed")
	}
	return v.count, nil
}

type recordingSleeper struct {
	slept []time.Duration
}

func (s *recordingSleeper) sleep(d time.Duration) {
	s.slept = append(s.slept, d)
}

func TestApplySubmitsRenderedBatchAndVerifiesOnce(t *testing.T) {
	submitter := &stubSubmitter{}
	verifier := &stubVerifier{count: 7}
	sleeper := &recordingSleeper{}

	runner := NewRunner(submitter, verifier, newTestLogger(), WithSleep(sleeper.sleep))
	report, err := runner.Apply(context.Background(), testMigrations(t), testParams())
	require.NoError(t, err)

	require.Equal(t, 1, submitter.calls)
	require.Contains(t, submitter.lastSQL, "CREATE TABLE IF NOT EXISTS question_cache")
	require.Equal(t, 1, verifier.calls)
	require.Equal(t, []string{"question_cache"}, verifier.tables)
	require.Empty(t, sleeper.slept)

	require.Len(t, report.Applied, 1)
	require.True(t, report.Applied[0].Verified)
	require.Equal(t, int64(7), report.Applied[0].RowCount)
}

func TestApplyConvergesOnFinalAttempt(t *testing.T) {
	submitter := &stubSubmitter{}
	verifier := &stubVerifier{failUntil: 4, count: 0}
	sleeper := &recordingSleeper{}

	runner := NewRunner(submitter, verifier, newTestLogger(),
		WithAttempts(5),
		WithInterval(3*time.Second),
		WithSleep(sleeper.sleep),
	)
	report, err := runner.Apply(context.Background(), testMigrations(t), testParams())
	require.NoError(t, err)

	require.Equal(t, 5, verifier.calls)
	require.Equal(t, []time.Duration{3 * time.Second, 3 * time.Second, 3 * time.Second, 3 * time.Second}, sleeper.slept)
	require.True(t, report.Applied[0].Verified)
}

func TestApplyExhaustedVerificationIsStillSuccess(t *testing.T) {
	submitter := &stubSubmitter{}
	verifier := &stubVerifier{failUntil: 100}
	sleeper := &recordingSleeper{}

	runner := NewRunner(submitter, verifier, newTestLogger(), WithSleep(sleeper.sleep))
	report, err := runner.Apply(context.Background(), testMigrations(t), testParams())
	require.NoError(t, err)

	require.Equal(t, 5, verifier.calls)
	// no sleep after the final attempt
	require.Len(t, sleeper.slept, 4)
	require.Len(t, report.Applied, 1)
	require.False(t, report.Applied[0].Verified)
}

func TestApplyRejectedSubmissionSkipsVerification(t *testing.T) {
	submitter := &stubSubmitter{err: apperrors.Wrap(apperrors.CodeMigrationRejected, "schema batch rejected", nil)}
	verifier := &stubVerifier{}
	sleeper := &recordingSleeper{}

	runner := NewRunner(submitter, verifier, newTestLogger(), WithSleep(sleeper.sleep))
	report, err := runner.Apply(context.Background(), testMigrations(t), testParams())
	require.Error(t, err)
	require.True(t, apperrors.IsCode(err, apperrors.CodeMigrationRejected))

	require.Zero(t, verifier.calls)
	require.Empty(t, report.Applied)
}
