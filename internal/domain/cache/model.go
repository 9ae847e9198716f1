package cache

import (
	"time"

	"github.com/google/uuid"
)

// Question mirrors one row of the question_cache table. The table itself
// lives in the hosted database; this type exists so reads coming back through
// the data API or the direct driver decode into something structured. Access
// is restricted remotely by row-level security: a non-privileged credential
// only ever sees rows whose user_id matches its own identity.
type Question struct {
	ID             uuid.UUID   `json:"id"`
	UserID         *uuid.UUID  `json:"user_id,omitempty"`
	Question       string      `json:"question"`
	Embedding      []float32   `json:"question_embedding,omitempty"`
	Answer         string      `json:"ai_answer,omitempty"`
	ContextTalkIDs []uuid.UUID `json:"context_talk_ids,omitempty"`
	CreatedAt      time.Time   `json:"created_at"`
	UpdatedAt      time.Time   `json:"updated_at"`
}

// Match is one similarity hit returned by find_similar_questions.
type Match struct {
	ID         uuid.UUID `json:"id"`
	Question   string    `json:"question"`
	Answer     string    `json:"ai_answer"`
	Similarity float64   `json:"similarity"`
	CreatedAt  time.Time `json:"created_at"`
}
