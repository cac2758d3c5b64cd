package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	types "github.com/kestrelhealth/vocab-backend/internal/domain/vocab"
	"github.com/kestrelhealth/vocab-backend/internal/http/response"
	"github.com/kestrelhealth/vocab-backend/internal/platform/logger"
	vocabsvc "github.com/kestrelhealth/vocab-backend/internal/services/vocab"
)

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("logger.New: %v", err)
	}
	return log
}

type fakeSearchService struct {
	result  *types.SearchResult
	err     error
	calls   int
	lastReq types.SearchRequest
}

func (f *fakeSearchService) Search(ctx context.Context, req types.SearchRequest) (*types.SearchResult, error) {
	f.calls++
	f.lastReq = req
	if f.err != nil {
		return nil, f.err
	}
	if f.result != nil {
		return f.result, nil
	}
	return &types.SearchResult{Query: req.Query, Strategy: "exact", Results: []types.SearchHit{}}, nil
}

type fakeNavigatorService struct {
	concept     *types.Concept
	detail      *types.ConceptDetail
	ancestors   []types.AncestryHit
	descendants []types.AncestryHit
	related     []types.RelatedHit
	searchRows  []types.Concept
	err         error

	calls     int
	lastID    int64
	lastLimit int
	lastQuery string
}

func (f *fakeNavigatorService) GetConcept(ctx context.Context, id int64) (*types.Concept, error) {
	f.calls++
	f.lastID = id
	if f.err != nil {
		return nil, f.err
	}
	return f.concept, nil
}

func (f *fakeNavigatorService) GetConceptDetail(ctx context.Context, id int64, limit int) (*types.ConceptDetail, error) {
	f.calls++
	f.lastID = id
	f.lastLimit = limit
	if f.err != nil {
		return nil, f.err
	}
	return f.detail, nil
}

func (f *fakeNavigatorService) Ancestors(ctx context.Context, id int64, limit int) ([]types.AncestryHit, error) {
	f.calls++
	f.lastID = id
	f.lastLimit = limit
	return f.ancestors, f.err
}

func (f *fakeNavigatorService) Descendants(ctx context.Context, id int64, limit int) ([]types.AncestryHit, error) {
	f.calls++
	f.lastID = id
	f.lastLimit = limit
	return f.descendants, f.err
}

func (f *fakeNavigatorService) Related(ctx context.Context, id int64, limit int) ([]types.RelatedHit, error) {
	f.calls++
	f.lastID = id
	f.lastLimit = limit
	return f.related, f.err
}

func (f *fakeNavigatorService) SearchDescendants(ctx context.Context, id int64, query string, limit int) ([]types.Concept, error) {
	f.calls++
	f.lastID = id
	f.lastQuery = query
	f.lastLimit = limit
	return f.searchRows, f.err
}

type fakeReferenceService struct {
	vocabularies []types.Vocabulary
	domains      []types.Domain
	err          error
	calls        int
}

func (f *fakeReferenceService) ListVocabularies(ctx context.Context) ([]types.Vocabulary, error) {
	f.calls++
	return f.vocabularies, f.err
}

func (f *fakeReferenceService) ListDomains(ctx context.Context) ([]types.Domain, error) {
	f.calls++
	return f.domains, f.err
}

// newTestRouter wires the handlers onto a bare engine with the same paths the
// server registers, so tests exercise real route params and query binding.
func newTestRouter(t *testing.T, search vocabsvc.SearchService, navigator vocabsvc.NavigatorService, reference vocabsvc.ReferenceService) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	log := testLogger(t)

	r := gin.New()
	r.GET("/healthcheck", NewHealthHandler().HealthCheck)
	if search != nil {
		h := NewSearchHandler(log, search)
		r.GET("/api/search", h.Search)
	}
	if navigator != nil {
		h := NewConceptHandler(log, navigator)
		r.GET("/api/concepts/:id", h.GetConcept)
		r.GET("/api/concepts/:id/ancestors", h.Ancestors)
		r.GET("/api/concepts/:id/descendants", h.Descendants)
		r.GET("/api/concepts/:id/descendants/search", h.SearchDescendants)
		r.GET("/api/concepts/:id/related", h.Related)
	}
	if reference != nil {
		h := NewReferenceHandler(log, reference)
		r.GET("/api/vocabularies", h.ListVocabularies)
		r.GET("/api/domains", h.ListDomains)
	}
	return r
}

func doGet(t *testing.T, r *gin.Engine, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	return rr
}

func decodeErrorEnvelope(t *testing.T, rr *httptest.ResponseRecorder) response.ErrorEnvelope {
	t.Helper()
	var env response.ErrorEnvelope
	if err := json.NewDecoder(rr.Body).Decode(&env); err != nil {
		t.Fatalf("decode error envelope: %v", err)
	}
	return env
}

func testConcept(id int64, name string) types.Concept {
	std := types.StandardConceptFlag
	return types.Concept{
		ConceptID:       id,
		ConceptName:     name,
		DomainID:        "Condition",
		VocabularyID:    "SNOMED",
		ConceptClassID:  "Clinical Finding",
		StandardConcept: &std,
		ConceptCode:     "code-" + name,
	}
}
