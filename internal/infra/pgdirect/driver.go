package pgdirect

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	pgvector "github.com/pgvector/pgvector-go"

	"github.com/Maillman/conference-rag/internal/domain/cache"
)

// Driver applies schema batches over a direct Postgres connection instead of
// the management API, for projects that expose a DSN but no management token.
// It satisfies the same submit and verify contracts as the HTTP clients.
type Driver struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// New connects a pgx pool to the given DSN.
func New(ctx context.Context, dsn string, logger *slog.Logger) (*Driver, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	return &Driver{
		pool:   pool,
		logger: logger.With("component", "pgdirect.driver"),
	}, nil
}

// Close releases the pool.
func (d *Driver) Close() {
	d.pool.Close()
}

// Submit executes one SQL batch in a single round trip.
func (d *Driver) Submit(ctx context.Context, sql string) error {
	if _, err := d.pool.Exec(ctx, sql); err != nil {
		return fmt.Errorf("execute schema batch: %w", err)
	}
	d.logger.Debug("schema batch executed")
	return nil
}

// CountRows reads the row count of a table through the same connection.
// Unlike the query-layer path there is no cache to converge, so a single
// read settles it.
func (d *Driver) CountRows(ctx context.Context, table string) (int64, error) {
	var count int64
	query := fmt.Sprintf("SELECT count(*) FROM %s", pgx.Identifier{table}.Sanitize())
	if err := d.pool.QueryRow(ctx, query).Scan(&count); err != nil {
		return 0, fmt.Errorf("count %s: %w", table, err)
	}
	return count, nil
}

// ProbeSimilar exercises the find_similar_questions function with a zero
// vector, proving the function plans and runs end to end. On a fresh cache it
// returns no matches.
func (d *Driver) ProbeSimilar(ctx context.Context, dim int, threshold float64, maxResults int) ([]cache.Match, error) {
	probe := pgvector.NewVector(make([]float32, dim))
	rows, err := d.pool.Query(ctx, `
		SELECT id, question, ai_answer, similarity, created_at
		FROM find_similar_questions($1, $2, $3)
	`, probe, threshold, maxResults)
	if err != nil {
		return nil, fmt.Errorf("probe find_similar_questions: %w", err)
	}
	defer rows.Close()

	var matches []cache.Match
	for rows.Next() {
		var m cache.Match
		if err := rows.Scan(&m.ID, &m.Question, &m.Answer, &m.Similarity, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan similarity match: %w", err)
		}
		matches = append(matches, m)
	}
	return matches, rows.Err()
}
