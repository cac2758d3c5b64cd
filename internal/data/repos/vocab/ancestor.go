package vocab

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	types "github.com/kestrelhealth/vocab-backend/internal/domain/vocab"
	"github.com/kestrelhealth/vocab-backend/internal/platform/logger"
)

type AncestorRepo interface {
	// AncestorsOf returns every ancestor of conceptID at separation > 0,
	// closest first. The concept itself never appears even if the closure
	// holds a self-referential row.
	AncestorsOf(ctx context.Context, tx *gorm.DB, conceptID int64, limit int) ([]types.AncestryHit, error)

	// DirectDescendantsOf returns descendants at min separation exactly 1.
	// Deeper levels are excluded to bound result size.
	DirectDescendantsOf(ctx context.Context, tx *gorm.DB, conceptID int64, limit int) ([]types.AncestryHit, error)

	// DirectDescendantIDs returns only the ids of direct descendants, for
	// callers that restrict a later fetch to that set.
	DirectDescendantIDs(ctx context.Context, tx *gorm.DB, conceptID int64) ([]int64, error)
}

type ancestorRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewAncestorRepo(db *gorm.DB, baseLog *logger.Logger) AncestorRepo {
	return &ancestorRepo{db: db, log: baseLog.With("repo", "AncestorRepo")}
}

func (r *ancestorRepo) AncestorsOf(ctx context.Context, tx *gorm.DB, conceptID int64, limit int) ([]types.AncestryHit, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	if limit <= 0 {
		limit = types.DefaultSearchLimit
	}

	sql := fmt.Sprintf(`
		SELECT concept.*,
		       concept_ancestor.min_levels_of_separation,
		       concept_ancestor.max_levels_of_separation
		FROM concept_ancestor
		JOIN concept ON concept.concept_id = concept_ancestor.ancestor_concept_id
		WHERE concept_ancestor.descendant_concept_id = ?
		  AND concept_ancestor.ancestor_concept_id <> ?
		  AND concept_ancestor.min_levels_of_separation > 0
		ORDER BY concept_ancestor.min_levels_of_separation ASC,
		         concept.concept_id ASC
		LIMIT %d;
	`, limit)

	var rows []types.AncestryHit
	if err := t.WithContext(ctx).Raw(sql, conceptID, conceptID).Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("ancestors of %d: %w", conceptID, err)
	}
	return rows, nil
}

func (r *ancestorRepo) DirectDescendantsOf(ctx context.Context, tx *gorm.DB, conceptID int64, limit int) ([]types.AncestryHit, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	if limit <= 0 {
		limit = types.DefaultSearchLimit
	}

	sql := fmt.Sprintf(`
		SELECT concept.*,
		       concept_ancestor.min_levels_of_separation,
		       concept_ancestor.max_levels_of_separation
		FROM concept_ancestor
		JOIN concept ON concept.concept_id = concept_ancestor.descendant_concept_id
		WHERE concept_ancestor.ancestor_concept_id = ?
		  AND concept_ancestor.descendant_concept_id <> ?
		  AND concept_ancestor.min_levels_of_separation = 1
		ORDER BY concept.concept_name ASC,
		         concept.concept_id ASC
		LIMIT %d;
	`, limit)

	var rows []types.AncestryHit
	if err := t.WithContext(ctx).Raw(sql, conceptID, conceptID).Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("direct descendants of %d: %w", conceptID, err)
	}
	return rows, nil
}

func (r *ancestorRepo) DirectDescendantIDs(ctx context.Context, tx *gorm.DB, conceptID int64) ([]int64, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	var ids []int64
	if err := t.WithContext(ctx).
		Model(&types.ConceptAncestor{}).
		Where("ancestor_concept_id = ? AND descendant_concept_id <> ? AND min_levels_of_separation = 1", conceptID, conceptID).
		Order("descendant_concept_id ASC").
		Pluck("descendant_concept_id", &ids).Error; err != nil {
		return nil, fmt.Errorf("direct descendant ids of %d: %w", conceptID, err)
	}
	return ids, nil
}
