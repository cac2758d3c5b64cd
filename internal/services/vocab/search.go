package vocab

import (
	"context"
	"fmt"

	vocabrepo "github.com/kestrelhealth/vocab-backend/internal/data/repos/vocab"
	types "github.com/kestrelhealth/vocab-backend/internal/domain/vocab"
	"github.com/kestrelhealth/vocab-backend/internal/pkg/vecmath"
	"github.com/kestrelhealth/vocab-backend/internal/platform/logger"
)

// Embedder turns texts into unit-norm vectors of the configured dimension.
// The embedding client satisfies this; tests stub it.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

type SearchService interface {
	// Search normalizes the request, runs exactly one strategy, and returns
	// the ranked page. An empty query yields an empty result, not an error.
	Search(ctx context.Context, req types.SearchRequest) (*types.SearchResult, error)
}

type searchService struct {
	log           *logger.Logger
	conceptRepo   vocabrepo.ConceptRepo
	embeddingRepo vocabrepo.EmbeddingRepo
	embedder      Embedder
}

func NewSearchService(
	baseLog *logger.Logger,
	conceptRepo vocabrepo.ConceptRepo,
	embeddingRepo vocabrepo.EmbeddingRepo,
	embedder Embedder,
) SearchService {
	return &searchService{
		log:           baseLog.With("service", "SearchService"),
		conceptRepo:   conceptRepo,
		embeddingRepo: embeddingRepo,
		embedder:      embedder,
	}
}

func (s *searchService) Search(ctx context.Context, req types.SearchRequest) (*types.SearchResult, error) {
	q := types.NormalizeSearch(req)
	res := &types.SearchResult{
		Query:    q.Query,
		Strategy: q.Strategy.String(),
		Results:  []types.SearchHit{},
	}
	if q.Query == "" {
		return res, nil
	}

	var (
		hits []types.SearchHit
		err  error
	)
	switch q.Strategy {
	case types.StrategySemantic:
		hits, err = s.searchSemantic(ctx, q)
	case types.StrategyFuzzy:
		hits, err = s.conceptRepo.SearchTrigram(ctx, nil, q)
		if err == nil {
			sortTrigramHits(hits, q.Query)
		}
	default:
		hits, err = s.conceptRepo.SearchLexical(ctx, nil, q)
		if err == nil {
			sortLexicalHits(hits, q.Query)
		}
	}
	if err != nil {
		s.log.Warn("Search: strategy failed", "error", err, "strategy", q.Strategy.String())
		return nil, err
	}

	if hits != nil {
		res.Results = hits
	}
	res.Total = len(res.Results)
	return res, nil
}

// searchSemantic embeds the query and ranks stored concept embeddings by
// cosine similarity. Provider failures carry embedding.ErrUnavailable so the
// caller can distinguish them from store errors; they are not retried here.
func (s *searchService) searchSemantic(ctx context.Context, q types.SearchQuery) ([]types.SearchHit, error) {
	vecs, err := s.embedder.Embed(ctx, []string{q.Query})
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	if len(vecs) != 1 {
		return nil, fmt.Errorf("embed query: got %d vectors for one text", len(vecs))
	}
	hits, err := s.embeddingRepo.SearchByVector(ctx, nil, q, vecmath.Normalize(vecs[0]))
	if err != nil {
		return nil, err
	}
	sortSemanticHits(hits)
	return hits, nil
}
