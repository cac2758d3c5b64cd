package embedgen

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/pgvector/pgvector-go"

	"github.com/kestrelhealth/vocab-backend/internal/clients/embedding"
	vocabrepo "github.com/kestrelhealth/vocab-backend/internal/data/repos/vocab"
	types "github.com/kestrelhealth/vocab-backend/internal/domain/vocab"
	"github.com/kestrelhealth/vocab-backend/internal/pkg/vecmath"
	"github.com/kestrelhealth/vocab-backend/internal/platform/logger"
)

// maxRecordedErrors caps the error messages kept in a report; the failed
// count still covers every concept.
const maxRecordedErrors = 10

// Config carries the knobs for one generate run. Zero values fall back to
// safe defaults, so a spec-derived Config only needs flag overrides applied.
type Config struct {
	BatchSize      int
	Workers        int
	ReportInterval int

	// MaxRetries is the total attempt count per batch, not extra attempts.
	MaxRetries int
	RetryDelay time.Duration

	// Resume skips concepts that already have an embedding row.
	Resume bool
	// DryRun reports the amount of work without embedding or writing.
	DryRun bool
	// Limit caps how many concepts this run processes; zero means no cap.
	Limit int
}

type Runner struct {
	log        *logger.Logger
	cfg        Config
	client     embedding.Client
	embeddings vocabrepo.EmbeddingRepo
	progress   io.Writer
}

// NewRunner wires a generate run. client may be nil for dry runs; progress
// may be nil to silence throughput reporting.
func NewRunner(baseLog *logger.Logger, cfg Config, client embedding.Client, embeddings vocabrepo.EmbeddingRepo, progress io.Writer) *Runner {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 1000
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.ReportInterval <= 0 {
		cfg.ReportInterval = 1000
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 1
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = time.Second
	}
	if progress == nil {
		progress = io.Discard
	}
	return &Runner{
		log:        baseLog.With("job", "embedgen"),
		cfg:        cfg,
		client:     client,
		embeddings: embeddings,
		progress:   progress,
	}
}

// GenerateReport is the outcome of one generate run. Failed batches do not
// abort the run; their concepts stay unembedded and show up in Failed and in
// the coverage numbers, and a resume run picks them up again.
type GenerateReport struct {
	Planned          int64         `json:"planned"`
	Processed        int           `json:"processed"`
	Failed           int           `json:"failed"`
	TotalStandard    int64         `json:"total_standard"`
	EmbeddedStandard int64         `json:"embedded_standard"`
	CoveragePct      float64       `json:"coverage_pct"`
	Errors           []string      `json:"errors,omitempty"`
	Elapsed          time.Duration `json:"elapsed"`
	DryRun           bool          `json:"dry_run"`
}

func (r *Runner) Generate(ctx context.Context) (*GenerateReport, error) {
	stats, err := CollectStats(ctx, r.embeddings)
	if err != nil {
		if vocabrepo.IsUndefinedTable(err) {
			return nil, fmt.Errorf("vocabulary schema is missing, load the vocabulary and run migrations first: %w", err)
		}
		return nil, err
	}

	planned := stats.TotalStandard
	if r.cfg.Resume {
		planned = stats.Remaining
	}
	if r.cfg.Limit > 0 && planned > int64(r.cfg.Limit) {
		planned = int64(r.cfg.Limit)
	}

	report := &GenerateReport{
		Planned:          planned,
		TotalStandard:    stats.TotalStandard,
		EmbeddedStandard: stats.EmbeddedStandard,
		CoveragePct:      stats.CoveragePct,
		DryRun:           r.cfg.DryRun,
	}
	if r.cfg.DryRun || planned == 0 {
		return report, nil
	}
	if r.client == nil {
		return nil, fmt.Errorf("embedding client required for generate")
	}

	r.log.Info("embedding generation starting",
		"planned", planned,
		"batch_size", r.cfg.BatchSize,
		"workers", r.cfg.Workers,
		"resume", r.cfg.Resume,
		"model", r.client.Model(),
	)

	pool, err := ants.NewPool(r.cfg.Workers)
	if err != nil {
		return nil, fmt.Errorf("worker pool: %w", err)
	}
	defer pool.Release()

	tracker := NewProgressTracker(r.progress, int(planned), r.cfg.ReportInterval)
	tracker.Start()

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		processed int
		failed    int
		errMsgs   []string
	)
	record := func(firstID int64, n int, batchErr error) {
		mu.Lock()
		if batchErr != nil {
			failed += n
			if len(errMsgs) < maxRecordedErrors {
				errMsgs = append(errMsgs, fmt.Sprintf("batch at concept %d (%d concepts): %v", firstID, n, batchErr))
			}
			r.log.Warn("batch failed, continuing",
				"first_concept_id", firstID,
				"batch_len", n,
				"error", batchErr,
			)
		} else {
			processed += n
		}
		mu.Unlock()
		tracker.Increment(n)
	}

	var scheduled int64
	lastID := int64(0)
	var fetchErr error

	for scheduled < planned && ctx.Err() == nil {
		fetch := r.cfg.BatchSize
		if remaining := planned - scheduled; remaining < int64(fetch) {
			fetch = int(remaining)
		}

		batch, err := r.embeddings.StandardConceptBatch(ctx, nil, lastID, fetch, r.cfg.Resume)
		if err != nil {
			fetchErr = fmt.Errorf("fetch concept batch: %w", err)
			break
		}
		if len(batch) == 0 {
			break
		}
		lastID = batch[len(batch)-1].ConceptID
		scheduled += int64(len(batch))

		rows := batch
		firstID := rows[0].ConceptID
		wg.Add(1)
		if err := pool.Submit(func() {
			defer wg.Done()
			record(firstID, len(rows), r.processBatch(ctx, rows))
		}); err != nil {
			wg.Done()
			record(firstID, len(rows), fmt.Errorf("submit: %w", err))
		}
	}

	wg.Wait()
	tracker.Finish()

	report.Processed = processed
	report.Failed = failed
	report.Errors = errMsgs
	report.Elapsed = tracker.Elapsed()

	if fetchErr != nil {
		return report, fetchErr
	}
	if ctx.Err() != nil {
		return report, ctx.Err()
	}

	if embedded, err := r.embeddings.CountEmbeddedStandard(ctx, nil); err == nil {
		report.EmbeddedStandard = embedded
		if report.TotalStandard > 0 {
			report.CoveragePct = float64(embedded) / float64(report.TotalStandard) * 100
		}
	} else {
		r.log.Warn("final coverage count failed", "error", err)
	}

	r.log.Info("embedding generation finished",
		"processed", processed,
		"failed", failed,
		"elapsed", report.Elapsed.Round(time.Second).String(),
	)
	return report, nil
}

// processBatch embeds one page of concepts and upserts the resulting rows.
// The embedding call retries with backoff; the store retries only on
// retryable SQLSTATEs.
func (r *Runner) processBatch(ctx context.Context, batch []*types.Concept) error {
	inputs := make([]string, len(batch))
	for i, c := range batch {
		inputs[i] = c.ConceptName
	}

	var vecs [][]float32
	embedOp := func() error {
		var err error
		vecs, err = r.client.Embed(ctx, inputs)
		return err
	}
	if err := RetryWithBackoff(ctx, r.log, embedOp, r.cfg.MaxRetries, r.cfg.RetryDelay); err != nil {
		return fmt.Errorf("embed: %w", err)
	}
	if len(vecs) != len(batch) {
		return fmt.Errorf("embed: got %d vectors for %d concepts", len(vecs), len(batch))
	}

	now := time.Now().UTC()
	rows := make([]*types.ConceptEmbedding, len(batch))
	for i, c := range batch {
		rows[i] = &types.ConceptEmbedding{
			ConceptID:    c.ConceptID,
			Embedding:    pgvector.NewVector(vecmath.Normalize(vecs[i])),
			ModelName:    r.client.Model(),
			ModelVersion: r.client.ModelVersion(),
			GeneratedAt:  now,
		}
	}

	upsert := func() error {
		return r.embeddings.UpsertBatch(ctx, nil, rows)
	}
	if err := upsert(); err != nil {
		if !vocabrepo.IsRetryable(err) {
			return fmt.Errorf("store: %w", err)
		}
		if err := RetryWithBackoff(ctx, r.log, upsert, r.cfg.MaxRetries, r.cfg.RetryDelay); err != nil {
			return fmt.Errorf("store: %w", err)
		}
	}
	return nil
}
