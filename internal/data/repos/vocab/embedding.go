package vocab

import (
	"context"
	"fmt"
	"strings"

	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/kestrelhealth/vocab-backend/internal/domain/vocab"
	"github.com/kestrelhealth/vocab-backend/internal/platform/logger"
)

// ModelCount is the per-model embedding tally used by coverage reports.
type ModelCount struct {
	ModelName    string `gorm:"column:model_name" json:"model_name"`
	ModelVersion string `gorm:"column:model_version" json:"model_version"`
	Count        int64  `gorm:"column:count" json:"count"`
}

type EmbeddingRepo interface {
	// SearchByVector runs the semantic strategy: cosine ranking of stored
	// concept embeddings against queryVec. Concepts without an embedding row
	// never appear.
	SearchByVector(ctx context.Context, tx *gorm.DB, q types.SearchQuery, queryVec []float32) ([]types.SearchHit, error)

	GetByConceptID(ctx context.Context, tx *gorm.DB, conceptID int64) (*types.ConceptEmbedding, error)

	// UpsertBatch inserts or refreshes embedding rows keyed by concept id.
	UpsertBatch(ctx context.Context, tx *gorm.DB, rows []*types.ConceptEmbedding) error

	// StandardConceptBatch pages through embeddable concepts (standard, named)
	// by ascending concept id. With missingOnly set, concepts that already
	// have an embedding row are skipped, which makes interrupted runs
	// resumable.
	StandardConceptBatch(ctx context.Context, tx *gorm.DB, afterConceptID int64, limit int, missingOnly bool) ([]*types.Concept, error)

	// ListBatch pages through stored embeddings by ascending concept id.
	ListBatch(ctx context.Context, tx *gorm.DB, afterConceptID int64, limit int) ([]*types.ConceptEmbedding, error)

	CountStandardConcepts(ctx context.Context, tx *gorm.DB) (int64, error)
	CountEmbeddings(ctx context.Context, tx *gorm.DB) (int64, error)
	CountEmbeddedStandard(ctx context.Context, tx *gorm.DB) (int64, error)

	// CountOrphans counts embedding rows whose concept is missing or no
	// longer standard; validation treats any orphan as a defect.
	CountOrphans(ctx context.Context, tx *gorm.DB) (int64, error)

	ModelBreakdown(ctx context.Context, tx *gorm.DB) ([]ModelCount, error)
}

type embeddingRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewEmbeddingRepo(db *gorm.DB, baseLog *logger.Logger) EmbeddingRepo {
	return &embeddingRepo{db: db, log: baseLog.With("repo", "EmbeddingRepo")}
}

func (r *embeddingRepo) SearchByVector(ctx context.Context, tx *gorm.DB, q types.SearchQuery, queryVec []float32) ([]types.SearchHit, error) {
	if len(queryVec) == 0 {
		return []types.SearchHit{}, nil
	}
	if q.Limit <= 0 {
		q.Limit = types.DefaultSearchLimit
	}

	t := tx
	if t == nil {
		t = r.db
	}

	vec := pgvector.NewVector(queryVec)

	conds, args := appendConceptFilters(nil, nil, q)
	where := ""
	if len(conds) > 0 {
		where = "WHERE " + strings.Join(conds, " AND ")
	}

	// <=> is cosine distance; ascending distance is descending similarity.
	// Concept id breaks exact score ties so reruns return identical order.
	sql := fmt.Sprintf(`
		SELECT concept.*,
		       1 - (concept_embedding.embedding <=> ?) AS score
		FROM concept_embedding
		JOIN concept ON concept.concept_id = concept_embedding.concept_id
		%s
		ORDER BY concept_embedding.embedding <=> ? ASC,
		         concept.concept_id ASC
		LIMIT %d;
	`, where, q.Limit)

	allArgs := append([]any{vec}, args...)
	allArgs = append(allArgs, vec)

	var rows []types.SearchHit
	if err := t.WithContext(ctx).Raw(sql, allArgs...).Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}
	return rows, nil
}

func (r *embeddingRepo) GetByConceptID(ctx context.Context, tx *gorm.DB, conceptID int64) (*types.ConceptEmbedding, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	var out []*types.ConceptEmbedding
	if err := t.WithContext(ctx).Where("concept_id = ?", conceptID).Limit(1).Find(&out).Error; err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out[0], nil
}

func (r *embeddingRepo) UpsertBatch(ctx context.Context, tx *gorm.DB, rows []*types.ConceptEmbedding) error {
	if len(rows) == 0 {
		return nil
	}
	t := tx
	if t == nil {
		t = r.db
	}
	if err := t.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "concept_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"embedding", "model_name", "model_version", "generated_at"}),
	}).Create(&rows).Error; err != nil {
		return fmt.Errorf("upsert embeddings: %w", err)
	}
	return nil
}

func (r *embeddingRepo) StandardConceptBatch(ctx context.Context, tx *gorm.DB, afterConceptID int64, limit int, missingOnly bool) ([]*types.Concept, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	if limit <= 0 {
		limit = 1000
	}

	join := ""
	missing := ""
	if missingOnly {
		join = "LEFT JOIN concept_embedding ON concept_embedding.concept_id = concept.concept_id"
		missing = "AND concept_embedding.concept_id IS NULL"
	}

	sql := fmt.Sprintf(`
		SELECT concept.*
		FROM concept
		%s
		WHERE concept.standard_concept = 'S'
		  AND concept.concept_name <> ''
		  AND concept.concept_id > ?
		  %s
		ORDER BY concept.concept_id ASC
		LIMIT %d;
	`, join, missing, limit)

	var rows []*types.Concept
	if err := t.WithContext(ctx).Raw(sql, afterConceptID).Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("standard concept batch: %w", err)
	}
	return rows, nil
}

func (r *embeddingRepo) ListBatch(ctx context.Context, tx *gorm.DB, afterConceptID int64, limit int) ([]*types.ConceptEmbedding, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	if limit <= 0 {
		limit = 1000
	}
	var rows []*types.ConceptEmbedding
	if err := t.WithContext(ctx).
		Where("concept_id > ?", afterConceptID).
		Order("concept_id ASC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("embedding batch: %w", err)
	}
	return rows, nil
}

func (r *embeddingRepo) CountStandardConcepts(ctx context.Context, tx *gorm.DB) (int64, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	var n int64
	if err := t.WithContext(ctx).
		Model(&types.Concept{}).
		Where("standard_concept = 'S' AND concept_name <> ''").
		Count(&n).Error; err != nil {
		return 0, fmt.Errorf("count standard concepts: %w", err)
	}
	return n, nil
}

func (r *embeddingRepo) CountEmbeddings(ctx context.Context, tx *gorm.DB) (int64, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	var n int64
	if err := t.WithContext(ctx).Model(&types.ConceptEmbedding{}).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("count embeddings: %w", err)
	}
	return n, nil
}

func (r *embeddingRepo) CountEmbeddedStandard(ctx context.Context, tx *gorm.DB) (int64, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	var n int64
	sql := `
		SELECT count(*)
		FROM concept_embedding
		JOIN concept ON concept.concept_id = concept_embedding.concept_id
		WHERE concept.standard_concept = 'S';
	`
	if err := t.WithContext(ctx).Raw(sql).Scan(&n).Error; err != nil {
		return 0, fmt.Errorf("count embedded standard concepts: %w", err)
	}
	return n, nil
}

func (r *embeddingRepo) CountOrphans(ctx context.Context, tx *gorm.DB) (int64, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	var n int64
	sql := `
		SELECT count(*)
		FROM concept_embedding
		LEFT JOIN concept ON concept.concept_id = concept_embedding.concept_id
		WHERE concept.concept_id IS NULL
		   OR coalesce(concept.standard_concept, '') <> 'S';
	`
	if err := t.WithContext(ctx).Raw(sql).Scan(&n).Error; err != nil {
		return 0, fmt.Errorf("count orphan embeddings: %w", err)
	}
	return n, nil
}

func (r *embeddingRepo) ModelBreakdown(ctx context.Context, tx *gorm.DB) ([]ModelCount, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	var rows []ModelCount
	sql := `
		SELECT model_name, model_version, count(*) AS count
		FROM concept_embedding
		GROUP BY model_name, model_version
		ORDER BY count DESC, model_name ASC, model_version ASC;
	`
	if err := t.WithContext(ctx).Raw(sql).Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("model breakdown: %w", err)
	}
	return rows, nil
}
