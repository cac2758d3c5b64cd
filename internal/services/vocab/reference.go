package vocab

import (
	"context"

	vocabrepo "github.com/kestrelhealth/vocab-backend/internal/data/repos/vocab"
	types "github.com/kestrelhealth/vocab-backend/internal/domain/vocab"
	"github.com/kestrelhealth/vocab-backend/internal/platform/logger"
)

// ReferenceService lists the vocabulary and domain dimensions that drive
// search filter pickers.
type ReferenceService interface {
	ListVocabularies(ctx context.Context) ([]types.Vocabulary, error)
	ListDomains(ctx context.Context) ([]types.Domain, error)
}

type referenceService struct {
	log           *logger.Logger
	referenceRepo vocabrepo.ReferenceRepo
}

func NewReferenceService(baseLog *logger.Logger, referenceRepo vocabrepo.ReferenceRepo) ReferenceService {
	return &referenceService{
		log:           baseLog.With("service", "ReferenceService"),
		referenceRepo: referenceRepo,
	}
}

func (s *referenceService) ListVocabularies(ctx context.Context) ([]types.Vocabulary, error) {
	rows, err := s.referenceRepo.ListVocabularies(ctx, nil)
	if err != nil {
		s.log.Warn("ListVocabularies: load failed", "error", err)
		return nil, err
	}
	return rows, nil
}

func (s *referenceService) ListDomains(ctx context.Context) ([]types.Domain, error) {
	rows, err := s.referenceRepo.ListDomains(ctx, nil)
	if err != nil {
		s.log.Warn("ListDomains: load failed", "error", err)
		return nil, err
	}
	return rows, nil
}
