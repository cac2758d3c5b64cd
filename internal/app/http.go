package app

import (
	"github.com/gin-gonic/gin"

	"github.com/kestrelhealth/vocab-backend/internal/http"
	httpH "github.com/kestrelhealth/vocab-backend/internal/http/handlers"
	"github.com/kestrelhealth/vocab-backend/internal/platform/logger"
)

type Handlers struct {
	Health    *httpH.HealthHandler
	Search    *httpH.SearchHandler
	Concept   *httpH.ConceptHandler
	Reference *httpH.ReferenceHandler
}

func wireHandlers(log *logger.Logger, services Services) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Health:    httpH.NewHealthHandler(),
		Search:    httpH.NewSearchHandler(log, services.Search),
		Concept:   httpH.NewConceptHandler(log, services.Navigator),
		Reference: httpH.NewReferenceHandler(log, services.Reference),
	}
}

func wireRouter(log *logger.Logger, handlers Handlers) *gin.Engine {
	return http.NewRouter(http.RouterConfig{
		Log:              log,
		HealthHandler:    handlers.Health,
		SearchHandler:    handlers.Search,
		ConceptHandler:   handlers.Concept,
		ReferenceHandler: handlers.Reference,
	})
}
