package migrate

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRegistryOrder(t *testing.T) {
	migrations, err := Registry()
	require.NoError(t, err)
	require.Len(t, migrations, 1)
	require.Equal(t, "question_cache", migrations[0].Name)
	require.Equal(t, "question_cache", migrations[0].VerifyTable)
}

func TestRenderSubstitutesSchemaParameters(t *testing.T) {
	migrations, err := Registry()
	require.NoError(t, err)

	sql, err := migrations[0].Render(Params{EmbeddingDim: 1536, SimilarityThreshold: 0.95, MaxResults: 5})
	require.NoError(t, err)

	require.Contains(t, sql, "VECTOR(1536)")
	require.Contains(t, sql, "similarity_threshold FLOAT DEFAULT 0.95")
	require.Contains(t, sql, "max_results INT DEFAULT 5")
	require.NotContains(t, sql, "{{")
}

func TestRenderedBatchStaysIdempotent(t *testing.T) {
	migrations, err := Registry()
	require.NoError(t, err)

	sql, err := migrations[0].Render(Params{EmbeddingDim: 1536, SimilarityThreshold: 0.95, MaxResults: 5})
	require.NoError(t, err)

	// Every object creation must be guarded so a second submission is safe.
	require.Contains(t, sql, "CREATE TABLE IF NOT EXISTS question_cache")
	require.Contains(t, sql, "CREATE INDEX IF NOT EXISTS idx_question_cache_embedding")
	require.Contains(t, sql, `DROP POLICY IF EXISTS "Users can read own questions"`)
	require.Contains(t, sql, "CREATE OR REPLACE FUNCTION find_similar_questions")
	require.Contains(t, sql, "ENABLE ROW LEVEL SECURITY")
}

func TestRenderAlternateDimensions(t *testing.T) {
	migrations, err := Registry()
	require.NoError(t, err)

	sql, err := migrations[0].Render(Params{EmbeddingDim: 768, SimilarityThreshold: 0.9, MaxResults: 10})
	require.NoError(t, err)
	require.Contains(t, sql, "question_embedding VECTOR(768)")
	require.NotContains(t, sql, "1536")
}
