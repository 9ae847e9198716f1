package migrate

import (
	"embed"
	"fmt"
	"strings"
	"text/template"
)

//go:embed sql/*.sql.tmpl
var sqlFS embed.FS

// Params fills the named holes in a migration template. The schema constants
// (vector width, similarity cutoff, result cap) are deliberately not baked
// into the SQL text.
type Params struct {
	EmbeddingDim        int
	SimilarityThreshold float64
	MaxResults          int
}

// Migration is one named, idempotent SQL batch. Every batch must be safe to
// submit repeatedly: guarded CREATEs, drop-then-recreate policies. The batch
// is opaque to the runner, which only renders and submits it as one unit.
type Migration struct {
	Name        string
	VerifyTable string
	tmpl        *template.Template
}

// Render produces the SQL batch for the given parameters.
func (m Migration) Render(p Params) (string, error) {
	var sb strings.Builder
	if err := m.tmpl.Execute(&sb, p); err != nil {
		return "", fmt.Errorf("render migration %s: %w", m.Name, err)
	}
	return sb.String(), nil
}

// Registry returns the ordered migrations this tool knows how to apply.
func Registry() ([]Migration, error) {
	defs := []struct {
		name        string
		file        string
		verifyTable string
	}{
		{name: "question_cache", file: "sql/0001_question_cache.sql.tmpl", verifyTable: "question_cache"},
	}

	migrations := make([]Migration, 0, len(defs))
	for _, def := range defs {
		tmpl, err := template.ParseFS(sqlFS, def.file)
		if err != nil {
			return nil, fmt.Errorf("parse migration %s: %w", def.name, err)
		}
		migrations = append(migrations, Migration{
			Name:        def.name,
			VerifyTable: def.verifyTable,
			tmpl:        tmpl,
		})
	}
	return migrations, nil
}
