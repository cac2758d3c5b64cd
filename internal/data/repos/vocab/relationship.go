package vocab

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	types "github.com/kestrelhealth/vocab-backend/internal/domain/vocab"
	"github.com/kestrelhealth/vocab-backend/internal/platform/logger"
)

type RelationshipRepo interface {
	// OutgoingMappings returns valid edges where conceptID is the source,
	// restricted to the given relationship kinds.
	OutgoingMappings(ctx context.Context, tx *gorm.DB, conceptID int64, kinds []string) ([]types.RelatedHit, error)

	// IncomingMappings returns valid edges where conceptID is the target.
	// The relationship table stores directed pairs, so a concept can be a
	// target without ever being a source for the kinds of interest.
	IncomingMappings(ctx context.Context, tx *gorm.DB, conceptID int64, kinds []string) ([]types.RelatedHit, error)
}

type relationshipRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewRelationshipRepo(db *gorm.DB, baseLog *logger.Logger) RelationshipRepo {
	return &relationshipRepo{db: db, log: baseLog.With("repo", "RelationshipRepo")}
}

func (r *relationshipRepo) OutgoingMappings(ctx context.Context, tx *gorm.DB, conceptID int64, kinds []string) ([]types.RelatedHit, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	if len(kinds) == 0 {
		return []types.RelatedHit{}, nil
	}

	sql := `
		SELECT concept.*,
		       concept_relationship.relationship_id AS relationship_id
		FROM concept_relationship
		JOIN concept ON concept.concept_id = concept_relationship.concept_id_2
		WHERE concept_relationship.concept_id_1 = ?
		  AND concept_relationship.relationship_id IN ?
		  AND concept_relationship.invalid_reason IS NULL
		ORDER BY concept.concept_id ASC;
	`

	var rows []types.RelatedHit
	if err := t.WithContext(ctx).Raw(sql, conceptID, kinds).Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("outgoing mappings of %d: %w", conceptID, err)
	}
	return rows, nil
}

func (r *relationshipRepo) IncomingMappings(ctx context.Context, tx *gorm.DB, conceptID int64, kinds []string) ([]types.RelatedHit, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	if len(kinds) == 0 {
		return []types.RelatedHit{}, nil
	}

	sql := `
		SELECT concept.*,
		       concept_relationship.relationship_id AS relationship_id
		FROM concept_relationship
		JOIN concept ON concept.concept_id = concept_relationship.concept_id_1
		WHERE concept_relationship.concept_id_2 = ?
		  AND concept_relationship.relationship_id IN ?
		  AND concept_relationship.invalid_reason IS NULL
		ORDER BY concept.concept_id ASC;
	`

	var rows []types.RelatedHit
	if err := t.WithContext(ctx).Raw(sql, conceptID, kinds).Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("incoming mappings of %d: %w", conceptID, err)
	}
	return rows, nil
}
