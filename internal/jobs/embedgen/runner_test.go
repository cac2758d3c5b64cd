package embedgen

import (
	"context"
	"errors"
	"io"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"

	vocabrepo "github.com/kestrelhealth/vocab-backend/internal/data/repos/vocab"
	types "github.com/kestrelhealth/vocab-backend/internal/domain/vocab"
	"github.com/kestrelhealth/vocab-backend/internal/pkg/vecmath"
)

// fakeStore is an in-memory EmbeddingRepo. Concepts must be provided in
// ascending id order; all of them count as standard and named.
type fakeStore struct {
	mu       sync.Mutex
	concepts []*types.Concept
	rows     map[int64]*types.ConceptEmbedding
}

func newFakeStore(concepts ...*types.Concept) *fakeStore {
	return &fakeStore{
		concepts: concepts,
		rows:     map[int64]*types.ConceptEmbedding{},
	}
}

func stdConcept(id int64, name string) *types.Concept {
	s := "S"
	return &types.Concept{ConceptID: id, ConceptName: name, StandardConcept: &s}
}

func (f *fakeStore) conceptSet() map[int64]struct{} {
	set := make(map[int64]struct{}, len(f.concepts))
	for _, c := range f.concepts {
		set[c.ConceptID] = struct{}{}
	}
	return set
}

func (f *fakeStore) SearchByVector(ctx context.Context, tx *gorm.DB, q types.SearchQuery, queryVec []float32) ([]types.SearchHit, error) {
	return nil, nil
}

func (f *fakeStore) GetByConceptID(ctx context.Context, tx *gorm.DB, conceptID int64) (*types.ConceptEmbedding, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.rows[conceptID], nil
}

func (f *fakeStore) UpsertBatch(ctx context.Context, tx *gorm.DB, rows []*types.ConceptEmbedding) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range rows {
		cp := *r
		f.rows[r.ConceptID] = &cp
	}
	return nil
}

func (f *fakeStore) StandardConceptBatch(ctx context.Context, tx *gorm.DB, afterConceptID int64, limit int, missingOnly bool) ([]*types.Concept, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*types.Concept
	for _, c := range f.concepts {
		if c.ConceptID <= afterConceptID {
			continue
		}
		if missingOnly {
			if _, ok := f.rows[c.ConceptID]; ok {
				continue
			}
		}
		out = append(out, c)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (f *fakeStore) ListBatch(ctx context.Context, tx *gorm.DB, afterConceptID int64, limit int) ([]*types.ConceptEmbedding, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*types.ConceptEmbedding
	for _, r := range f.rows {
		if r.ConceptID > afterConceptID {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ConceptID < out[j].ConceptID })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeStore) CountStandardConcepts(ctx context.Context, tx *gorm.DB) (int64, error) {
	return int64(len(f.concepts)), nil
}

func (f *fakeStore) CountEmbeddings(ctx context.Context, tx *gorm.DB) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return int64(len(f.rows)), nil
}

func (f *fakeStore) CountEmbeddedStandard(ctx context.Context, tx *gorm.DB) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	set := f.conceptSet()
	var n int64
	for id := range f.rows {
		if _, ok := set[id]; ok {
			n++
		}
	}
	return n, nil
}

func (f *fakeStore) CountOrphans(ctx context.Context, tx *gorm.DB) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	set := f.conceptSet()
	var n int64
	for id := range f.rows {
		if _, ok := set[id]; !ok {
			n++
		}
	}
	return n, nil
}

func (f *fakeStore) ModelBreakdown(ctx context.Context, tx *gorm.DB) ([]vocabrepo.ModelCount, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	counts := map[[2]string]int64{}
	for _, r := range f.rows {
		counts[[2]string{r.ModelName, r.ModelVersion}]++
	}
	var out []vocabrepo.ModelCount
	for k, n := range counts {
		out = append(out, vocabrepo.ModelCount{ModelName: k[0], ModelVersion: k[1], Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].ModelName < out[j].ModelName
	})
	return out, nil
}

// fakeClient returns a fixed non-unit vector for every text so tests can
// verify the runner normalizes before storing. Batches containing a text in
// failTexts fail outright.
type fakeClient struct {
	mu        sync.Mutex
	calls     int
	failTexts map[string]bool
}

func (f *fakeClient) Embed(ctx context.Context, inputs []string) ([][]float32, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	for _, s := range inputs {
		if f.failTexts[s] {
			return nil, errors.New("embed backend error")
		}
	}
	out := make([][]float32, len(inputs))
	for i := range inputs {
		out[i] = []float32{2, 0}
	}
	return out, nil
}

func (f *fakeClient) Model() string        { return "test-model" }
func (f *fakeClient) ModelVersion() string { return "tv1" }
func (f *fakeClient) Dimension() int       { return 2 }

func (f *fakeClient) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func quickConfig() Config {
	return Config{
		BatchSize:      2,
		Workers:        2,
		ReportInterval: 100,
		MaxRetries:     2,
		RetryDelay:     time.Millisecond,
	}
}

func TestGenerateDryRunTouchesNothing(t *testing.T) {
	store := newFakeStore(
		stdConcept(1, "a"), stdConcept(2, "b"), stdConcept(3, "c"),
		stdConcept(4, "d"), stdConcept(5, "e"),
	)
	preRow := &types.ConceptEmbedding{ConceptID: 1, Embedding: pgvector.NewVector([]float32{1, 0}), ModelName: "test-model", ModelVersion: "tv1"}
	_ = store.UpsertBatch(context.Background(), nil, []*types.ConceptEmbedding{preRow})

	cfg := quickConfig()
	cfg.Resume = true
	cfg.DryRun = true
	r := NewRunner(testLogger(t), cfg, nil, store, io.Discard)

	report, err := r.Generate(context.Background())
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if !report.DryRun || report.Planned != 4 {
		t.Fatalf("planned: want=4 got=%d (dry=%t)", report.Planned, report.DryRun)
	}
	if n, _ := store.CountEmbeddings(context.Background(), nil); n != 1 {
		t.Fatalf("dry run wrote rows: %d", n)
	}
}

func TestGenerateEmbedsAndNormalizes(t *testing.T) {
	store := newFakeStore(
		stdConcept(1, "a"), stdConcept(2, "b"), stdConcept(3, "c"),
		stdConcept(4, "d"), stdConcept(5, "e"),
	)
	client := &fakeClient{}
	r := NewRunner(testLogger(t), quickConfig(), client, store, io.Discard)

	report, err := r.Generate(context.Background())
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if report.Processed != 5 || report.Failed != 0 {
		t.Fatalf("counts: processed=%d failed=%d", report.Processed, report.Failed)
	}
	if report.EmbeddedStandard != 5 || report.CoveragePct != 100 {
		t.Fatalf("coverage: %d (%.2f%%)", report.EmbeddedStandard, report.CoveragePct)
	}

	for id := int64(1); id <= 5; id++ {
		row, _ := store.GetByConceptID(context.Background(), nil, id)
		if row == nil {
			t.Fatalf("missing row for %d", id)
		}
		if !vecmath.IsUnitNorm(row.Embedding.Slice(), 1e-6) {
			t.Fatalf("row %d not normalized: %v", id, row.Embedding.Slice())
		}
		if row.ModelName != "test-model" || row.ModelVersion != "tv1" {
			t.Fatalf("row %d model identity: %s/%s", id, row.ModelName, row.ModelVersion)
		}
		if row.GeneratedAt.IsZero() {
			t.Fatalf("row %d missing generated_at", id)
		}
	}
}

func TestGenerateResumeSkipsExistingRows(t *testing.T) {
	store := newFakeStore(
		stdConcept(1, "a"), stdConcept(2, "b"), stdConcept(3, "c"),
		stdConcept(4, "d"), stdConcept(5, "e"),
	)
	old := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	_ = store.UpsertBatch(context.Background(), nil, []*types.ConceptEmbedding{
		{ConceptID: 2, Embedding: pgvector.NewVector([]float32{1, 0}), ModelName: "test-model", ModelVersion: "tv1", GeneratedAt: old},
		{ConceptID: 4, Embedding: pgvector.NewVector([]float32{0, 1}), ModelName: "test-model", ModelVersion: "tv1", GeneratedAt: old},
	})

	cfg := quickConfig()
	cfg.Resume = true
	client := &fakeClient{}
	r := NewRunner(testLogger(t), cfg, client, store, io.Discard)

	report, err := r.Generate(context.Background())
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if report.Planned != 3 || report.Processed != 3 {
		t.Fatalf("resume counts: planned=%d processed=%d", report.Planned, report.Processed)
	}

	row2, _ := store.GetByConceptID(context.Background(), nil, 2)
	if !row2.GeneratedAt.Equal(old) {
		t.Fatalf("resume must not rewrite existing rows, generated_at=%v", row2.GeneratedAt)
	}
	if n, _ := store.CountEmbeddings(context.Background(), nil); n != 5 {
		t.Fatalf("rows: want=5 got=%d", n)
	}
}

func TestGenerateLimitCapsWork(t *testing.T) {
	store := newFakeStore(
		stdConcept(1, "a"), stdConcept(2, "b"), stdConcept(3, "c"),
		stdConcept(4, "d"), stdConcept(5, "e"),
	)
	cfg := quickConfig()
	cfg.Limit = 3
	r := NewRunner(testLogger(t), cfg, &fakeClient{}, store, io.Discard)

	report, err := r.Generate(context.Background())
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if report.Planned != 3 || report.Processed != 3 {
		t.Fatalf("limit counts: planned=%d processed=%d", report.Planned, report.Processed)
	}
	if n, _ := store.CountEmbeddings(context.Background(), nil); n != 3 {
		t.Fatalf("rows: want=3 got=%d", n)
	}
	if row, _ := store.GetByConceptID(context.Background(), nil, 4); row != nil {
		t.Fatalf("concept beyond limit was embedded")
	}
}

func TestGenerateContinuesAfterBatchFailure(t *testing.T) {
	store := newFakeStore(
		stdConcept(1, "a"), stdConcept(2, "bad"), stdConcept(3, "c"), stdConcept(4, "d"),
	)
	client := &fakeClient{failTexts: map[string]bool{"bad": true}}
	r := NewRunner(testLogger(t), quickConfig(), client, store, io.Discard)

	report, err := r.Generate(context.Background())
	if err != nil {
		t.Fatalf("a failed batch must not abort the run: %v", err)
	}
	if report.Failed != 2 || report.Processed != 2 {
		t.Fatalf("counts: processed=%d failed=%d", report.Processed, report.Failed)
	}
	if len(report.Errors) != 1 {
		t.Fatalf("errors: %v", report.Errors)
	}
	if report.EmbeddedStandard != 2 {
		t.Fatalf("coverage after partial run: %d", report.EmbeddedStandard)
	}
	if row, _ := store.GetByConceptID(context.Background(), nil, 3); row == nil {
		t.Fatalf("batch after the failure was not processed")
	}
}

func TestGenerateNothingToDo(t *testing.T) {
	store := newFakeStore(stdConcept(1, "a"))
	_ = store.UpsertBatch(context.Background(), nil, []*types.ConceptEmbedding{
		{ConceptID: 1, Embedding: pgvector.NewVector([]float32{1, 0}), ModelName: "test-model", ModelVersion: "tv1", GeneratedAt: time.Now()},
	})
	cfg := quickConfig()
	cfg.Resume = true
	r := NewRunner(testLogger(t), cfg, nil, store, io.Discard)

	report, err := r.Generate(context.Background())
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if report.Planned != 0 || report.Processed != 0 {
		t.Fatalf("empty plan: %+v", report)
	}
}

func TestCollectStats(t *testing.T) {
	store := newFakeStore(stdConcept(1, "a"), stdConcept(2, "b"), stdConcept(3, "c"), stdConcept(4, "d"))
	_ = store.UpsertBatch(context.Background(), nil, []*types.ConceptEmbedding{
		{ConceptID: 1, Embedding: pgvector.NewVector([]float32{1, 0}), ModelName: "test-model", ModelVersion: "tv1"},
	})

	stats, err := CollectStats(context.Background(), store)
	if err != nil {
		t.Fatalf("CollectStats: %v", err)
	}
	if stats.TotalStandard != 4 || stats.EmbeddedStandard != 1 || stats.Remaining != 3 {
		t.Fatalf("stats: %+v", stats)
	}
	if stats.CoveragePct != 25 {
		t.Fatalf("pct: %v", stats.CoveragePct)
	}
	if len(stats.Models) != 1 || stats.Models[0].Count != 1 {
		t.Fatalf("models: %+v", stats.Models)
	}
}
