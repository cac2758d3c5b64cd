package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/kestrelhealth/vocab-backend/internal/http/handlers"
	httpMW "github.com/kestrelhealth/vocab-backend/internal/http/middleware"
	"github.com/kestrelhealth/vocab-backend/internal/platform/logger"
)

type RouterConfig struct {
	Log *logger.Logger

	SearchHandler    *httpH.SearchHandler
	ConceptHandler   *httpH.ConceptHandler
	ReferenceHandler *httpH.ReferenceHandler
	HealthHandler    *httpH.HealthHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(otelgin.Middleware("vocab-backend"))
	r.Use(httpMW.AttachTraceContext())
	r.Use(httpMW.RequestLogger(cfg.Log))
	r.Use(httpMW.CORS())

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
	}

	api := r.Group("/api")
	{
		// Search
		if cfg.SearchHandler != nil {
			api.GET("/search", cfg.SearchHandler.Search)
		}

		// Concept graph
		if cfg.ConceptHandler != nil {
			api.GET("/concepts/:id", cfg.ConceptHandler.GetConcept)
			api.GET("/concepts/:id/ancestors", cfg.ConceptHandler.Ancestors)
			api.GET("/concepts/:id/descendants", cfg.ConceptHandler.Descendants)
			api.GET("/concepts/:id/descendants/search", cfg.ConceptHandler.SearchDescendants)
			api.GET("/concepts/:id/related", cfg.ConceptHandler.Related)
		}

		// Reference dimensions
		if cfg.ReferenceHandler != nil {
			api.GET("/vocabularies", cfg.ReferenceHandler.ListVocabularies)
			api.GET("/domains", cfg.ReferenceHandler.ListDomains)
		}
	}

	return r
}
