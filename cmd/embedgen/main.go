package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/kestrelhealth/vocab-backend/internal/clients/embedding"
	"github.com/kestrelhealth/vocab-backend/internal/data/db"
	vocabrepo "github.com/kestrelhealth/vocab-backend/internal/data/repos/vocab"
	"github.com/kestrelhealth/vocab-backend/internal/jobs/embedgen"
	"github.com/kestrelhealth/vocab-backend/internal/platform/envutil"
	"github.com/kestrelhealth/vocab-backend/internal/platform/logger"
)

var appLog *logger.Logger

func main() {
	app := &cli.App{
		Name:   "embedgen",
		Usage:  "Generate and validate concept-name embeddings for semantic search",
		Before: setupLogger,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "log-mode",
				Usage: "Logger mode (development, production)",
				Value: envutil.Str("LOG_MODE", "development"),
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "generate",
				Usage:  "Embed standard concept names into concept_embedding",
				Action: generateCommand,
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "resume",
						Usage: "Only process concepts without an embedding row",
					},
					&cli.BoolFlag{
						Name:  "dry-run",
						Usage: "Report the amount of work without embedding or writing",
					},
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Cap how many concepts this run processes (0 = no cap)",
					},
					&cli.IntFlag{
						Name:  "batch-size",
						Usage: "Concepts per embedding request (0 = pipeline spec default)",
					},
					&cli.IntFlag{
						Name:  "workers",
						Usage: "Concurrent batches in flight (0 = pipeline spec default)",
					},
					&cli.IntFlag{
						Name:  "report-interval",
						Usage: "Report progress every N concepts (0 = pipeline spec default)",
					},
					&cli.IntFlag{
						Name:  "max-retries",
						Usage: "Attempts per batch before recording a failure (0 = pipeline spec default)",
					},
					&cli.DurationFlag{
						Name:  "retry-delay",
						Usage: "Base delay for exponential backoff (0 = pipeline spec default)",
					},
					&cli.StringFlag{
						Name:    "embed-url",
						Usage:   "Embedding service base URL",
						EnvVars: []string{"EMBED_BASE_URL"},
					},
				},
			},
			{
				Name:   "validate",
				Usage:  "Check coverage, dimension, normalization, orphans, and model consistency",
				Action: validateCommand,
			},
			{
				Name:   "progress",
				Usage:  "Show embedding coverage over the standard vocabulary",
				Action: progressCommand,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func setupLogger(c *cli.Context) error {
	mode := strings.ToLower(c.String("log-mode"))
	switch mode {
	case "development", "dev", "production", "prod":
	default:
		return fmt.Errorf("invalid log mode %q: must be development or production", mode)
	}
	l, err := logger.New(mode)
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	appLog = l
	return nil
}

func openStore() (*db.PostgresService, vocabrepo.EmbeddingRepo, error) {
	pg, err := db.NewPostgresService(appLog)
	if err != nil {
		return nil, nil, err
	}
	return pg, vocabrepo.NewEmbeddingRepo(pg.DB(), appLog), nil
}

func generateCommand(c *cli.Context) error {
	ctx := context.Background()

	spec, err := embedgen.LoadSpec()
	if err != nil {
		return err
	}

	cfg := spec.RunConfig()
	if v := c.Int("batch-size"); v > 0 {
		cfg.BatchSize = v
	}
	if v := c.Int("workers"); v > 0 {
		cfg.Workers = v
	}
	if v := c.Int("report-interval"); v > 0 {
		cfg.ReportInterval = v
	}
	if v := c.Int("max-retries"); v > 0 {
		cfg.MaxRetries = v
	}
	if v := c.Duration("retry-delay"); v > 0 {
		cfg.RetryDelay = v
	}
	cfg.Resume = c.Bool("resume")
	cfg.DryRun = c.Bool("dry-run")
	cfg.Limit = c.Int("limit")

	pg, repo, err := openStore()
	if err != nil {
		return err
	}
	defer pg.Close()

	if err := pg.EnsureSchema(); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}

	var client embedding.Client
	if !cfg.DryRun {
		client, err = embedding.NewClientWithOptions(appLog, embedding.Options{
			BaseURL:      c.String("embed-url"),
			APIKey:       strings.TrimSpace(os.Getenv("EMBED_API_KEY")),
			Model:        spec.Model.Name,
			ModelVersion: spec.Model.Version,
			Dimension:    spec.Model.Dimension,
		})
		if err != nil {
			return err
		}

		fmt.Fprintf(os.Stderr, "Model: %s/%s (dim %d)\n", spec.Model.Name, spec.Model.Version, spec.Model.Dimension)
		fmt.Fprintf(os.Stderr, "Batch size: %d, workers: %d, resume: %t\n", cfg.BatchSize, cfg.Workers, cfg.Resume)
		fmt.Fprintln(os.Stderr)
	}

	runner := embedgen.NewRunner(appLog, cfg, client, repo, os.Stderr)
	report, err := runner.Generate(ctx)
	if err != nil {
		return err
	}

	if report.DryRun {
		fmt.Printf("Dry run: %d concepts would be embedded (%d of %d already covered, %.2f%%)\n",
			report.Planned, report.EmbeddedStandard, report.TotalStandard, report.CoveragePct)
		return nil
	}

	fmt.Printf("Processed: %d, failed: %d, elapsed: %s\n",
		report.Processed, report.Failed, report.Elapsed.Round(time.Second))
	fmt.Printf("Coverage: %d of %d standard concepts (%.2f%%)\n",
		report.EmbeddedStandard, report.TotalStandard, report.CoveragePct)

	if report.Failed > 0 {
		fmt.Fprintln(os.Stderr, "Some batches failed; rerun with --resume to fill the gaps:")
		for _, msg := range report.Errors {
			fmt.Fprintf(os.Stderr, "  - %s\n", msg)
		}
	}
	return nil
}

func validateCommand(c *cli.Context) error {
	ctx := context.Background()

	spec, err := embedgen.LoadSpec()
	if err != nil {
		return err
	}

	pg, repo, err := openStore()
	if err != nil {
		return err
	}
	defer pg.Close()

	report, err := embedgen.NewValidator(appLog, spec, repo).Run(ctx)
	if err != nil {
		return err
	}

	report.Render(os.Stdout)
	if !report.OK() {
		return cli.Exit("embedding validation failed", 1)
	}
	return nil
}

func progressCommand(c *cli.Context) error {
	ctx := context.Background()

	pg, repo, err := openStore()
	if err != nil {
		return err
	}
	defer pg.Close()

	stats, err := embedgen.CollectStats(ctx, repo)
	if err != nil {
		if vocabrepo.IsUndefinedTable(err) {
			return fmt.Errorf("vocabulary schema is missing, nothing to report: %w", err)
		}
		return err
	}
	stats.Render(os.Stdout)
	return nil
}
