package main

import (
	"context"
	"flag"
	"fmt"
	"log"

	"github.com/Maillman/conference-rag/internal/domain/smoke"
	"github.com/Maillman/conference-rag/internal/infra/config"
	"github.com/Maillman/conference-rag/internal/infra/queryapi"
	"github.com/Maillman/conference-rag/pkg/logger"
)

// Reads two tables with the anonymous key to show row-level security at
// work: the public table answers with rows, the protected one comes back
// empty. A diagnostic, not a guarded operation — any failure just dies.
func main() {
	var (
		publicPath     = flag.String("public", "config.public.yaml", "path to the public configuration file")
		secretPath     = flag.String("secret", "config.secret.yaml", "path to the secret configuration file")
		publicTable    = flag.String("public-table", "page_views", "table with a public read policy")
		protectedTable = flag.String("protected-table", "sentence_embeddings", "table restricted by row-level security")
	)
	flag.Parse()

	cfg, err := config.Load(*publicPath, *secretPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logg := logger.New("smokequery")
	// The anonymous key, deliberately: this run demonstrates what an
	// unauthenticated caller can see.
	client := queryapi.NewClient(cfg.Public.SupabaseURL, cfg.Public.AnonKey, logg)

	report, err := smoke.Run(context.Background(), client, *publicTable, *protectedTable, logg)
	if err != nil {
		log.Fatalf("smoke query: %v", err)
	}

	fmt.Printf("%s: %d rows ✅\n", report.PublicTable, report.PublicRows)
	fmt.Printf("%s: %d rows (expected: 0) 🔒\n", report.ProtectedTable, report.ProtectedRows)
}
