package embedgen

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	vocabrepo "github.com/kestrelhealth/vocab-backend/internal/data/repos/vocab"
	"github.com/kestrelhealth/vocab-backend/internal/pkg/vecmath"
	"github.com/kestrelhealth/vocab-backend/internal/platform/logger"
)

// NormTolerance is how far an embedding norm may drift from 1.0 before the
// row counts as unnormalized. Cosine ranking assumes unit vectors.
const NormTolerance = 0.01

const validatePageSize = 1000

// ValidationReport aggregates every integrity check over concept_embedding.
// Failures holds one line per violated check; an empty slice means the table
// is consistent and fully covers the standard vocabulary.
type ValidationReport struct {
	Stats         *Stats   `json:"stats"`
	EmbeddingRows int64    `json:"embedding_rows"`
	BadDimension  int64    `json:"bad_dimension"`
	BadNorm       int64    `json:"bad_norm"`
	Orphans       int64    `json:"orphans"`
	Failures      []string `json:"failures,omitempty"`
}

func (r *ValidationReport) OK() bool { return len(r.Failures) == 0 }

func (r *ValidationReport) Render(w io.Writer) {
	status := func(bad bool) string {
		if bad {
			return "FAIL"
		}
		return "PASS"
	}

	missing := r.Stats.Remaining
	fmt.Fprintf(w, "coverage:      %s  %d of %d standard concepts embedded (%.2f%%)\n",
		status(missing > 0), r.Stats.EmbeddedStandard, r.Stats.TotalStandard, r.Stats.CoveragePct)
	fmt.Fprintf(w, "dimension:     %s  %d of %d rows off-width\n",
		status(r.BadDimension > 0), r.BadDimension, r.EmbeddingRows)
	fmt.Fprintf(w, "normalization: %s  %d rows outside tolerance %.2f\n",
		status(r.BadNorm > 0), r.BadNorm, NormTolerance)
	fmt.Fprintf(w, "orphans:       %s  %d rows without a standard concept\n",
		status(r.Orphans > 0), r.Orphans)

	modelBad := false
	for _, f := range r.Failures {
		if strings.HasPrefix(f, "model:") {
			modelBad = true
		}
	}
	fmt.Fprintf(w, "models:        %s ", status(modelBad))
	if len(r.Stats.Models) == 0 {
		fmt.Fprint(w, " none")
	}
	for _, m := range r.Stats.Models {
		fmt.Fprintf(w, " %s/%s=%d", m.ModelName, m.ModelVersion, m.Count)
	}
	fmt.Fprintln(w)

	if r.OK() {
		fmt.Fprintln(w, "result: PASS")
		return
	}
	fmt.Fprintln(w, "result: FAIL")
	for _, f := range r.Failures {
		fmt.Fprintf(w, "  - %s\n", f)
	}
}

type Validator struct {
	log        *logger.Logger
	spec       *PipelineSpec
	embeddings vocabrepo.EmbeddingRepo
	workers    int
}

func NewValidator(baseLog *logger.Logger, spec *PipelineSpec, embeddings vocabrepo.EmbeddingRepo) *Validator {
	workers := spec.Batch.Workers
	if workers <= 0 {
		workers = 1
	}
	return &Validator{
		log:        baseLog.With("job", "embedgen-validate"),
		spec:       spec,
		embeddings: embeddings,
		workers:    workers,
	}
}

// Run performs all checks and returns the report. The error return covers
// scan failures only; check violations land in report.Failures.
func (v *Validator) Run(ctx context.Context) (*ValidationReport, error) {
	stats, err := CollectStats(ctx, v.embeddings)
	if err != nil {
		if vocabrepo.IsUndefinedTable(err) {
			return nil, fmt.Errorf("vocabulary schema is missing, nothing to validate: %w", err)
		}
		return nil, err
	}

	rows, err := v.embeddings.CountEmbeddings(ctx, nil)
	if err != nil {
		return nil, err
	}
	orphans, err := v.embeddings.CountOrphans(ctx, nil)
	if err != nil {
		return nil, err
	}

	badDim, badNorm, err := v.scanVectors(ctx)
	if err != nil {
		return nil, fmt.Errorf("vector scan: %w", err)
	}

	report := &ValidationReport{
		Stats:         stats,
		EmbeddingRows: rows,
		BadDimension:  badDim,
		BadNorm:       badNorm,
		Orphans:       orphans,
	}

	if missing := stats.Remaining; missing > 0 {
		report.Failures = append(report.Failures,
			fmt.Sprintf("coverage: %d standard concepts have no embedding", missing))
	}
	if badDim > 0 {
		report.Failures = append(report.Failures,
			fmt.Sprintf("dimension: %d rows are not %d-dimensional", badDim, v.spec.Model.Dimension))
	}
	if badNorm > 0 {
		report.Failures = append(report.Failures,
			fmt.Sprintf("normalization: %d rows deviate from unit norm by more than %.2f", badNorm, NormTolerance))
	}
	if orphans > 0 {
		report.Failures = append(report.Failures,
			fmt.Sprintf("orphans: %d embedding rows without a standard concept", orphans))
	}
	if rows > 0 {
		switch {
		case len(stats.Models) != 1:
			report.Failures = append(report.Failures,
				fmt.Sprintf("model: %d distinct model versions present, want exactly 1", len(stats.Models)))
		case stats.Models[0].ModelName != v.spec.Model.Name || stats.Models[0].ModelVersion != v.spec.Model.Version:
			report.Failures = append(report.Failures,
				fmt.Sprintf("model: found %s/%s, want %s/%s",
					stats.Models[0].ModelName, stats.Models[0].ModelVersion,
					v.spec.Model.Name, v.spec.Model.Version))
		}
	}
	return report, nil
}

// scanVectors pages through every stored embedding and checks width and norm.
// Pages are fetched serially by cursor; checking fans out to a bounded group
// so the fetch never outruns memory.
func (v *Validator) scanVectors(ctx context.Context) (int64, int64, error) {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(v.workers)

	var (
		mu      sync.Mutex
		badDim  int64
		badNorm int64
	)

	cursor := int64(0)
	for {
		page, err := v.embeddings.ListBatch(gctx, nil, cursor, validatePageSize)
		if err != nil {
			_ = g.Wait()
			return 0, 0, err
		}
		if len(page) == 0 {
			break
		}
		cursor = page[len(page)-1].ConceptID

		rows := page
		g.Go(func() error {
			var d, n int64
			for _, row := range rows {
				vec := row.Embedding.Slice()
				if len(vec) != v.spec.Model.Dimension {
					d++
					continue
				}
				if !vecmath.IsUnitNorm(vec, NormTolerance) {
					n++
				}
			}
			mu.Lock()
			badDim += d
			badNorm += n
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 0, 0, err
	}
	return badDim, badNorm, nil
}
