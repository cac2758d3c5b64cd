package vocab

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	types "github.com/kestrelhealth/vocab-backend/internal/domain/vocab"
	"github.com/kestrelhealth/vocab-backend/internal/platform/logger"
)

type ReferenceRepo interface {
	ListVocabularies(ctx context.Context, tx *gorm.DB) ([]types.Vocabulary, error)
	ListDomains(ctx context.Context, tx *gorm.DB) ([]types.Domain, error)
}

type referenceRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewReferenceRepo(db *gorm.DB, baseLog *logger.Logger) ReferenceRepo {
	return &referenceRepo{db: db, log: baseLog.With("repo", "ReferenceRepo")}
}

func (r *referenceRepo) ListVocabularies(ctx context.Context, tx *gorm.DB) ([]types.Vocabulary, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	out := []types.Vocabulary{}
	if err := t.WithContext(ctx).Order("vocabulary_id ASC").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("list vocabularies: %w", err)
	}
	return out, nil
}

func (r *referenceRepo) ListDomains(ctx context.Context, tx *gorm.DB) ([]types.Domain, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	out := []types.Domain{}
	if err := t.WithContext(ctx).Order("domain_id ASC").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("list domains: %w", err)
	}
	return out, nil
}
