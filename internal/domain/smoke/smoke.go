package smoke

import (
	"context"
	"log/slog"
)

// Reader is the anonymous-tier read path.
type Reader interface {
	ReadRows(ctx context.Context, table string, limit int) (int, error)
}

// Report holds the observed row counts for both tables.
type Report struct {
	PublicTable    string
	PublicRows     int
	ProtectedTable string
	ProtectedRows  int
}

// rowLimit bounds each demo read.
const rowLimit = 5

// Run reads a publicly readable table and a row-level-secured one with the
// same anonymous credential. The protected read coming back empty is the
// expected demonstration, not a failure: the policy layer filters rows rather
// than rejecting the request. Transport errors propagate untouched.
func Run(ctx context.Context, reader Reader, publicTable, protectedTable string, logger *slog.Logger) (Report, error) {
	log := logger.With("component", "smoke")

	publicRows, err := reader.ReadRows(ctx, publicTable, rowLimit)
	if err != nil {
		return Report{}, err
	}
	log.Info("public table read", "table", publicTable, "rows", publicRows)

	protectedRows, err := reader.ReadRows(ctx, protectedTable, rowLimit)
	if err != nil {
		return Report{}, err
	}
	log.Info("protected table read", "table", protectedTable, "rows", protectedRows)

	return Report{
		PublicTable:    publicTable,
		PublicRows:     publicRows,
		ProtectedTable: protectedTable,
		ProtectedRows:  protectedRows,
	}, nil
}
