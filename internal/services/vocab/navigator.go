package vocab

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	vocabrepo "github.com/kestrelhealth/vocab-backend/internal/data/repos/vocab"
	types "github.com/kestrelhealth/vocab-backend/internal/domain/vocab"
	pkgerrors "github.com/kestrelhealth/vocab-backend/internal/pkg/errors"
	"github.com/kestrelhealth/vocab-backend/internal/platform/logger"
)

// NavigatorService resolves a concept's position in the ontology graph. The
// traversal operations return empty collections for unknown ids; only the
// concept fetch itself reports not-found, because the closure and edge tables
// are authoritative and absence of rows is a valid empty result.
type NavigatorService interface {
	GetConcept(ctx context.Context, id int64) (*types.Concept, error)
	GetConceptDetail(ctx context.Context, id int64, limit int) (*types.ConceptDetail, error)
	Ancestors(ctx context.Context, id int64, limit int) ([]types.AncestryHit, error)
	Descendants(ctx context.Context, id int64, limit int) ([]types.AncestryHit, error)
	Related(ctx context.Context, id int64, limit int) ([]types.RelatedHit, error)
	SearchDescendants(ctx context.Context, id int64, query string, limit int) ([]types.Concept, error)
}

type navigatorService struct {
	log              *logger.Logger
	conceptRepo      vocabrepo.ConceptRepo
	ancestorRepo     vocabrepo.AncestorRepo
	relationshipRepo vocabrepo.RelationshipRepo
}

func NewNavigatorService(
	baseLog *logger.Logger,
	conceptRepo vocabrepo.ConceptRepo,
	ancestorRepo vocabrepo.AncestorRepo,
	relationshipRepo vocabrepo.RelationshipRepo,
) NavigatorService {
	return &navigatorService{
		log:              baseLog.With("service", "NavigatorService"),
		conceptRepo:      conceptRepo,
		ancestorRepo:     ancestorRepo,
		relationshipRepo: relationshipRepo,
	}
}

func (s *navigatorService) GetConcept(ctx context.Context, id int64) (*types.Concept, error) {
	c, err := s.conceptRepo.GetByID(ctx, nil, id)
	if err != nil {
		s.log.Warn("GetConcept: load failed", "error", err, "concept_id", id)
		return nil, err
	}
	if c == nil {
		return nil, fmt.Errorf("concept %d: %w", id, pkgerrors.ErrNotFound)
	}
	return c, nil
}

// GetConceptDetail fetches the concept for display context, then resolves its
// ancestors, direct descendants, and mapping neighbors concurrently.
func (s *navigatorService) GetConceptDetail(ctx context.Context, id int64, limit int) (*types.ConceptDetail, error) {
	c, err := s.GetConcept(ctx, id)
	if err != nil {
		return nil, err
	}

	detail := &types.ConceptDetail{Concept: *c}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		rows, err := s.Ancestors(gctx, id, limit)
		if err != nil {
			return err
		}
		detail.Ancestors = rows
		return nil
	})
	g.Go(func() error {
		rows, err := s.Descendants(gctx, id, limit)
		if err != nil {
			return err
		}
		detail.Descendants = rows
		return nil
	})
	g.Go(func() error {
		rows, err := s.Related(gctx, id, limit)
		if err != nil {
			return err
		}
		detail.Related = rows
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return detail, nil
}

func (s *navigatorService) Ancestors(ctx context.Context, id int64, limit int) ([]types.AncestryHit, error) {
	rows, err := s.ancestorRepo.AncestorsOf(ctx, nil, id, limit)
	if err != nil {
		s.log.Warn("Ancestors: load failed", "error", err, "concept_id", id)
		return nil, err
	}
	return rows, nil
}

func (s *navigatorService) Descendants(ctx context.Context, id int64, limit int) ([]types.AncestryHit, error) {
	rows, err := s.ancestorRepo.DirectDescendantsOf(ctx, nil, id, limit)
	if err != nil {
		s.log.Warn("Descendants: load failed", "error", err, "concept_id", id)
		return nil, err
	}
	return rows, nil
}

// Related merges valid "Maps to"/"Mapped from" edges from both directions.
// Outgoing edges are scanned before incoming ones; the first occurrence of a
// neighbor wins, the concept itself is skipped, and the merged list is
// truncated to limit.
func (s *navigatorService) Related(ctx context.Context, id int64, limit int) ([]types.RelatedHit, error) {
	if limit <= 0 {
		limit = types.DefaultSearchLimit
	}
	kinds := types.MappingRelationshipIDs()

	outgoing, err := s.relationshipRepo.OutgoingMappings(ctx, nil, id, kinds)
	if err != nil {
		s.log.Warn("Related: outgoing load failed", "error", err, "concept_id", id)
		return nil, err
	}
	incoming, err := s.relationshipRepo.IncomingMappings(ctx, nil, id, kinds)
	if err != nil {
		s.log.Warn("Related: incoming load failed", "error", err, "concept_id", id)
		return nil, err
	}

	seen := make(map[int64]struct{}, len(outgoing)+len(incoming))
	merged := []types.RelatedHit{}
	for _, hits := range [][]types.RelatedHit{outgoing, incoming} {
		for _, h := range hits {
			if h.ConceptID == id {
				continue
			}
			if _, dup := seen[h.ConceptID]; dup {
				continue
			}
			seen[h.ConceptID] = struct{}{}
			merged = append(merged, h)
			if len(merged) >= limit {
				return merged, nil
			}
		}
	}
	return merged, nil
}

// SearchDescendants restricts a case-insensitive name substring match to the
// direct descendants of id. An empty query or a concept with no direct
// descendants short-circuits before the candidate fetch.
func (s *navigatorService) SearchDescendants(ctx context.Context, id int64, query string, limit int) ([]types.Concept, error) {
	q := strings.TrimSpace(query)
	if q == "" {
		return []types.Concept{}, nil
	}

	ids, err := s.ancestorRepo.DirectDescendantIDs(ctx, nil, id)
	if err != nil {
		s.log.Warn("SearchDescendants: id load failed", "error", err, "concept_id", id)
		return nil, err
	}
	if len(ids) == 0 {
		return []types.Concept{}, nil
	}

	rows, err := s.conceptRepo.SearchByIDsAndName(ctx, nil, ids, q, limit)
	if err != nil {
		s.log.Warn("SearchDescendants: search failed", "error", err, "concept_id", id)
		return nil, err
	}
	sortByNameID(rows)
	return rows, nil
}
