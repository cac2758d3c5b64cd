package app

import (
	"github.com/kestrelhealth/vocab-backend/internal/clients/embedding"
	"github.com/kestrelhealth/vocab-backend/internal/platform/logger"
	vocabsvc "github.com/kestrelhealth/vocab-backend/internal/services/vocab"
)

type Services struct {
	Search    vocabsvc.SearchService
	Navigator vocabsvc.NavigatorService
	Reference vocabsvc.ReferenceService
}

// wireServices builds the request-path services. The embedding provider is
// handed to the search service explicitly; it initializes its client lazily
// on the first semantic query, so a missing embedding backend only degrades
// semantic search.
func wireServices(log *logger.Logger, repos Repos, provider *embedding.Provider) Services {
	log.Info("Wiring services...")
	return Services{
		Search:    vocabsvc.NewSearchService(log, repos.Concept, repos.Embedding, provider),
		Navigator: vocabsvc.NewNavigatorService(log, repos.Concept, repos.Ancestor, repos.Relationship),
		Reference: vocabsvc.NewReferenceService(log, repos.Reference),
	}
}
