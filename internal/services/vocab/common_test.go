package vocab

import (
	"context"
	"testing"

	"gorm.io/gorm"

	vocabrepo "github.com/kestrelhealth/vocab-backend/internal/data/repos/vocab"
	types "github.com/kestrelhealth/vocab-backend/internal/domain/vocab"
	"github.com/kestrelhealth/vocab-backend/internal/platform/logger"
)

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("logger.New: %v", err)
	}
	return log
}

type fakeConceptRepo struct {
	byID map[int64]*types.Concept

	lexicalHits  []types.SearchHit
	lexicalErr   error
	lexicalCalls int
	lastLexicalQ types.SearchQuery

	trigramHits  []types.SearchHit
	trigramErr   error
	trigramCalls int

	nameSearchRows  []types.Concept
	nameSearchErr   error
	nameSearchCalls int
	lastNameIDs     []int64
	lastNameQuery   string
	lastNameLimit   int
}

func (f *fakeConceptRepo) GetByID(ctx context.Context, tx *gorm.DB, id int64) (*types.Concept, error) {
	return f.byID[id], nil
}

func (f *fakeConceptRepo) GetByIDs(ctx context.Context, tx *gorm.DB, ids []int64) ([]*types.Concept, error) {
	var out []*types.Concept
	for _, id := range ids {
		if c, ok := f.byID[id]; ok {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeConceptRepo) SearchLexical(ctx context.Context, tx *gorm.DB, q types.SearchQuery) ([]types.SearchHit, error) {
	f.lexicalCalls++
	f.lastLexicalQ = q
	return f.lexicalHits, f.lexicalErr
}

func (f *fakeConceptRepo) SearchTrigram(ctx context.Context, tx *gorm.DB, q types.SearchQuery) ([]types.SearchHit, error) {
	f.trigramCalls++
	return f.trigramHits, f.trigramErr
}

func (f *fakeConceptRepo) SearchByIDsAndName(ctx context.Context, tx *gorm.DB, ids []int64, query string, limit int) ([]types.Concept, error) {
	f.nameSearchCalls++
	f.lastNameIDs = ids
	f.lastNameQuery = query
	f.lastNameLimit = limit
	return f.nameSearchRows, f.nameSearchErr
}

type fakeEmbeddingRepo struct {
	vectorHits  []types.SearchHit
	vectorErr   error
	vectorCalls int
	lastVec     []float32
	lastQuery   types.SearchQuery
}

func (f *fakeEmbeddingRepo) SearchByVector(ctx context.Context, tx *gorm.DB, q types.SearchQuery, queryVec []float32) ([]types.SearchHit, error) {
	f.vectorCalls++
	f.lastVec = queryVec
	f.lastQuery = q
	return f.vectorHits, f.vectorErr
}

func (f *fakeEmbeddingRepo) GetByConceptID(ctx context.Context, tx *gorm.DB, conceptID int64) (*types.ConceptEmbedding, error) {
	return nil, nil
}

func (f *fakeEmbeddingRepo) UpsertBatch(ctx context.Context, tx *gorm.DB, rows []*types.ConceptEmbedding) error {
	return nil
}

func (f *fakeEmbeddingRepo) StandardConceptBatch(ctx context.Context, tx *gorm.DB, afterConceptID int64, limit int, missingOnly bool) ([]*types.Concept, error) {
	return nil, nil
}

func (f *fakeEmbeddingRepo) ListBatch(ctx context.Context, tx *gorm.DB, afterConceptID int64, limit int) ([]*types.ConceptEmbedding, error) {
	return nil, nil
}

func (f *fakeEmbeddingRepo) CountStandardConcepts(ctx context.Context, tx *gorm.DB) (int64, error) {
	return 0, nil
}

func (f *fakeEmbeddingRepo) CountEmbeddings(ctx context.Context, tx *gorm.DB) (int64, error) {
	return 0, nil
}

func (f *fakeEmbeddingRepo) CountEmbeddedStandard(ctx context.Context, tx *gorm.DB) (int64, error) {
	return 0, nil
}

func (f *fakeEmbeddingRepo) CountOrphans(ctx context.Context, tx *gorm.DB) (int64, error) {
	return 0, nil
}

func (f *fakeEmbeddingRepo) ModelBreakdown(ctx context.Context, tx *gorm.DB) ([]vocabrepo.ModelCount, error) {
	return nil, nil
}

type fakeEmbedder struct {
	vecs      [][]float32
	err       error
	calls     int
	lastTexts []string
}

func (f *fakeEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	f.calls++
	f.lastTexts = texts
	return f.vecs, f.err
}

type fakeAncestorRepo struct {
	ancestors      []types.AncestryHit
	ancestorsErr   error
	ancestorCalls  int
	descendants    []types.AncestryHit
	descendantsErr error
	descendantIDs  []int64
	idsErr         error
	idsCalls       int
	lastLimit      int
}

func (f *fakeAncestorRepo) AncestorsOf(ctx context.Context, tx *gorm.DB, conceptID int64, limit int) ([]types.AncestryHit, error) {
	f.ancestorCalls++
	f.lastLimit = limit
	return f.ancestors, f.ancestorsErr
}

func (f *fakeAncestorRepo) DirectDescendantsOf(ctx context.Context, tx *gorm.DB, conceptID int64, limit int) ([]types.AncestryHit, error) {
	return f.descendants, f.descendantsErr
}

func (f *fakeAncestorRepo) DirectDescendantIDs(ctx context.Context, tx *gorm.DB, conceptID int64) ([]int64, error) {
	f.idsCalls++
	return f.descendantIDs, f.idsErr
}

type fakeRelationshipRepo struct {
	outgoing    []types.RelatedHit
	outgoingErr error
	incoming    []types.RelatedHit
	incomingErr error
	lastKinds   []string
}

func (f *fakeRelationshipRepo) OutgoingMappings(ctx context.Context, tx *gorm.DB, conceptID int64, kinds []string) ([]types.RelatedHit, error) {
	f.lastKinds = kinds
	return f.outgoing, f.outgoingErr
}

func (f *fakeRelationshipRepo) IncomingMappings(ctx context.Context, tx *gorm.DB, conceptID int64, kinds []string) ([]types.RelatedHit, error) {
	return f.incoming, f.incomingErr
}
