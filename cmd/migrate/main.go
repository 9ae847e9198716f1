package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/Maillman/conference-rag/internal/domain/migrate"
	"github.com/Maillman/conference-rag/internal/infra/config"
	"github.com/Maillman/conference-rag/internal/infra/mgmtapi"
	"github.com/Maillman/conference-rag/internal/infra/pgdirect"
	"github.com/Maillman/conference-rag/internal/infra/queryapi"
	"github.com/Maillman/conference-rag/pkg/logger"
)

func main() {
	var (
		publicPath = flag.String("public", "config.public.yaml", "path to the public configuration file")
		secretPath = flag.String("secret", "config.secret.yaml", "path to the secret configuration file")
		only       = flag.String("only", "", "apply a single migration by name")
		direct     = flag.Bool("direct", false, "apply over a direct Postgres connection instead of the management API")
		probe      = flag.Bool("probe", false, "after applying, probe find_similar_questions (requires -direct)")
	)
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log := logger.New("migrate")

	if err := run(ctx, log, *publicPath, *secretPath, *only, *direct, *probe); err != nil {
		fmt.Printf("❌ Migration failed: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, log *slog.Logger, publicPath, secretPath, only string, direct, probe bool) error {
	cfg, err := config.Load(publicPath, secretPath)
	if err != nil {
		return err
	}

	migrations, err := migrate.Registry()
	if err != nil {
		return err
	}
	if only != "" {
		migrations = filterByName(migrations, only)
		if len(migrations) == 0 {
			return fmt.Errorf("unknown migration %q", only)
		}
	}

	var (
		submitter migrate.Submitter
		verifier  migrate.Verifier
		driver    *pgdirect.Driver
	)
	if direct {
		if strings.TrimSpace(cfg.Secret.DirectDSN) == "" {
			return fmt.Errorf("-direct requires SUPABASE_DB_DSN in the secret configuration")
		}
		driver, err = pgdirect.New(ctx, cfg.Secret.DirectDSN, log)
		if err != nil {
			return err
		}
		defer driver.Close()
		submitter, verifier = driver, driver
	} else {
		submitter = mgmtapi.NewClient("", cfg.Secret.AccessToken, cfg.Secret.ProjectRef, log)
		verifier = queryapi.NewClient(cfg.Public.SupabaseURL, cfg.Secret.ServiceKey, log)
	}

	params := migrate.Params{
		EmbeddingDim:        cfg.Cache.EmbeddingDim,
		SimilarityThreshold: cfg.Cache.SimilarityThreshold,
		MaxResults:          cfg.Cache.MaxResults,
	}
	runner := migrate.NewRunner(submitter, verifier, log,
		migrate.WithAttempts(cfg.Verify.Attempts),
		migrate.WithInterval(cfg.Verify.Interval()),
	)

	banner("Applying schema migrations")
	report, err := runner.Apply(ctx, migrations, params)
	if err != nil {
		return err
	}
	for _, outcome := range report.Applied {
		if outcome.Verified {
			fmt.Printf("✅ %s applied and verified! Current cached rows: %d\n", outcome.Name, outcome.RowCount)
		} else {
			fmt.Printf("⚠️  %s applied; the query layer cache hasn't refreshed yet\n", outcome.Name)
		}
	}

	if probe {
		if driver == nil {
			return fmt.Errorf("-probe requires -direct")
		}
		matches, err := driver.ProbeSimilar(ctx, cfg.Cache.EmbeddingDim, cfg.Cache.SimilarityThreshold, cfg.Cache.MaxResults)
		if err != nil {
			return err
		}
		fmt.Printf("✅ find_similar_questions responded with %d match(es)\n", len(matches))
	}

	banner("Schema migrations complete")
	return nil
}

func filterByName(migrations []migrate.Migration, name string) []migrate.Migration {
	var out []migrate.Migration
	for _, m := range migrations {
		if m.Name == name {
			out = append(out, m)
		}
	}
	return out
}

func banner(title string) {
	line := strings.Repeat("=", 60)
	fmt.Println(line)
	fmt.Println(title)
	fmt.Println(line)
}
