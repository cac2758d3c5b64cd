package vocab

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/gorm"

	types "github.com/kestrelhealth/vocab-backend/internal/domain/vocab"
	"github.com/kestrelhealth/vocab-backend/internal/platform/logger"
)

type ConceptRepo interface {
	GetByID(ctx context.Context, tx *gorm.DB, id int64) (*types.Concept, error)
	GetByIDs(ctx context.Context, tx *gorm.DB, ids []int64) ([]*types.Concept, error)

	// SearchLexical runs the exact/prefix strategy: substring match over name
	// or code with exact and prefix matches ranked first.
	SearchLexical(ctx context.Context, tx *gorm.DB, q types.SearchQuery) ([]types.SearchHit, error)

	// SearchTrigram runs the fuzzy strategy: trigram similarity over names,
	// substring match over codes, ranked by similarity score.
	SearchTrigram(ctx context.Context, tx *gorm.DB, q types.SearchQuery) ([]types.SearchHit, error)

	// SearchByIDsAndName restricts a case-insensitive name substring match to
	// a fixed id set, for descendant search.
	SearchByIDsAndName(ctx context.Context, tx *gorm.DB, ids []int64, query string, limit int) ([]types.Concept, error)
}

type conceptRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewConceptRepo(db *gorm.DB, baseLog *logger.Logger) ConceptRepo {
	return &conceptRepo{db: db, log: baseLog.With("repo", "ConceptRepo")}
}

func (r *conceptRepo) GetByID(ctx context.Context, tx *gorm.DB, id int64) (*types.Concept, error) {
	rows, err := r.GetByIDs(ctx, tx, []int64{id})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

func (r *conceptRepo) GetByIDs(ctx context.Context, tx *gorm.DB, ids []int64) ([]*types.Concept, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	var out []*types.Concept
	if len(ids) == 0 {
		return out, nil
	}
	if err := t.WithContext(ctx).Where("concept_id IN ?", ids).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *conceptRepo) SearchLexical(ctx context.Context, tx *gorm.DB, q types.SearchQuery) ([]types.SearchHit, error) {
	if strings.TrimSpace(q.Query) == "" {
		return []types.SearchHit{}, nil
	}
	if q.Limit <= 0 {
		q.Limit = types.DefaultSearchLimit
	}

	t := tx
	if t == nil {
		t = r.db
	}

	pattern := "%" + escapeLike(q.Query) + "%"
	prefix := escapeLike(q.Query) + "%"

	conds := []string{"(concept.concept_name ILIKE ? OR concept.concept_code ILIKE ?)"}
	args := []any{pattern, pattern}
	conds, args = appendConceptFilters(conds, args, q)

	// LIMIT applies after the full composite ordering; ties inside any key
	// fall through to the next, ending at the bytewise name order.
	sql := fmt.Sprintf(`
		SELECT concept.*
		FROM concept
		WHERE %s
		ORDER BY (lower(concept.concept_code) = lower(?)) DESC,
		         (lower(concept.concept_name) = lower(?)) DESC,
		         (concept.concept_code ILIKE ?) DESC,
		         (concept.concept_name ILIKE ?) DESC,
		         (coalesce(concept.standard_concept, '') = 'S') DESC,
		         concept.concept_name ASC,
		         concept.concept_id ASC
		LIMIT %d;
	`, strings.Join(conds, " AND "), q.Limit)
	args = append(args, q.Query, q.Query, prefix, prefix)

	var rows []types.SearchHit
	if err := t.WithContext(ctx).Raw(sql, args...).Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("lexical search: %w", err)
	}
	return rows, nil
}

func (r *conceptRepo) SearchTrigram(ctx context.Context, tx *gorm.DB, q types.SearchQuery) ([]types.SearchHit, error) {
	if strings.TrimSpace(q.Query) == "" {
		return []types.SearchHit{}, nil
	}
	if q.Limit <= 0 {
		q.Limit = types.DefaultSearchLimit
	}

	t := tx
	if t == nil {
		t = r.db
	}

	pattern := "%" + escapeLike(q.Query) + "%"

	// Codes are matched by substring, never fuzzily: typo tolerance over
	// structured identifiers produces false positives.
	conds := []string{"(concept.concept_name % ? OR concept.concept_code ILIKE ?)"}
	args := []any{q.Query, pattern}
	conds, args = appendConceptFilters(conds, args, q)

	sql := fmt.Sprintf(`
		SELECT concept.*,
		       similarity(concept.concept_name, ?) AS score
		FROM concept
		WHERE %s
		ORDER BY (lower(concept.concept_code) = lower(?)) DESC,
		         score DESC,
		         concept.concept_name ASC,
		         concept.concept_id ASC
		LIMIT %d;
	`, strings.Join(conds, " AND "), q.Limit)
	allArgs := append([]any{q.Query}, args...)
	allArgs = append(allArgs, q.Query)

	var rows []types.SearchHit
	if err := t.WithContext(ctx).Raw(sql, allArgs...).Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("trigram search: %w", err)
	}
	return rows, nil
}

func (r *conceptRepo) SearchByIDsAndName(ctx context.Context, tx *gorm.DB, ids []int64, query string, limit int) ([]types.Concept, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	out := []types.Concept{}
	if len(ids) == 0 || strings.TrimSpace(query) == "" {
		return out, nil
	}
	if limit <= 0 {
		limit = types.DefaultSearchLimit
	}

	pattern := "%" + escapeLike(query) + "%"
	if err := t.WithContext(ctx).
		Where("concept_id IN ? AND concept_name ILIKE ?", ids, pattern).
		Order("concept_name ASC, concept_id ASC").
		Limit(limit).
		Find(&out).Error; err != nil {
		return nil, fmt.Errorf("search by ids and name: %w", err)
	}
	return out, nil
}

// appendConceptFilters ANDs the strategy-independent filters onto a search
// predicate. Filter placeholders must precede any ORDER BY placeholders in
// the final arg slice.
func appendConceptFilters(conds []string, args []any, q types.SearchQuery) ([]string, []any) {
	if q.VocabularyID != "" {
		conds = append(conds, "concept.vocabulary_id = ?")
		args = append(args, q.VocabularyID)
	}
	if q.DomainID != "" {
		conds = append(conds, "concept.domain_id = ?")
		args = append(args, q.DomainID)
	}
	if q.StandardOnly {
		conds = append(conds, "concept.standard_concept = 'S'")
	}
	return conds, args
}

// escapeLike neutralizes LIKE/ILIKE wildcards so the caller's query is
// matched as a literal substring.
func escapeLike(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `%`, `\%`)
	s = strings.ReplaceAll(s, `_`, `\_`)
	return s
}
