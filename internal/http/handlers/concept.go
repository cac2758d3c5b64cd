package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/kestrelhealth/vocab-backend/internal/http/response"
	"github.com/kestrelhealth/vocab-backend/internal/platform/apierr"
	"github.com/kestrelhealth/vocab-backend/internal/platform/logger"
	vocabsvc "github.com/kestrelhealth/vocab-backend/internal/services/vocab"
)

type ConceptHandler struct {
	log       *logger.Logger
	navigator vocabsvc.NavigatorService
}

func NewConceptHandler(log *logger.Logger, navigator vocabsvc.NavigatorService) *ConceptHandler {
	return &ConceptHandler{
		log:       log.With("handler", "ConceptHandler"),
		navigator: navigator,
	}
}

func parseConceptID(c *gin.Context) (int64, error) {
	raw := c.Param("id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, apierr.New(http.StatusBadRequest, "invalid_concept_id", fmt.Errorf("concept id %q is not an integer", raw))
	}
	return id, nil
}

// GetConcept returns the concept with its graph neighborhood: ancestors,
// direct descendants, and mapping neighbors.
func (h *ConceptHandler) GetConcept(c *gin.Context) {
	id, err := parseConceptID(c)
	if err != nil {
		respondServiceError(c, "invalid_concept_id", err)
		return
	}
	limit, err := parseLimit(c)
	if err != nil {
		respondServiceError(c, "invalid_limit", err)
		return
	}

	detail, err := h.navigator.GetConceptDetail(c.Request.Context(), id, limit)
	if err != nil {
		h.log.Warn("GetConcept failed", "error", err, "concept_id", id)
		respondServiceError(c, "load_concept_failed", err)
		return
	}
	response.RespondOK(c, detail)
}

func (h *ConceptHandler) Ancestors(c *gin.Context) {
	id, err := parseConceptID(c)
	if err != nil {
		respondServiceError(c, "invalid_concept_id", err)
		return
	}
	limit, err := parseLimit(c)
	if err != nil {
		respondServiceError(c, "invalid_limit", err)
		return
	}

	rows, err := h.navigator.Ancestors(c.Request.Context(), id, limit)
	if err != nil {
		h.log.Warn("Ancestors failed", "error", err, "concept_id", id)
		respondServiceError(c, "load_ancestors_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"ancestors": rows})
}

func (h *ConceptHandler) Descendants(c *gin.Context) {
	id, err := parseConceptID(c)
	if err != nil {
		respondServiceError(c, "invalid_concept_id", err)
		return
	}
	limit, err := parseLimit(c)
	if err != nil {
		respondServiceError(c, "invalid_limit", err)
		return
	}

	rows, err := h.navigator.Descendants(c.Request.Context(), id, limit)
	if err != nil {
		h.log.Warn("Descendants failed", "error", err, "concept_id", id)
		respondServiceError(c, "load_descendants_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"descendants": rows})
}

// SearchDescendants filters the direct descendants of a concept by name
// substring. An empty query is a valid request with an empty result.
func (h *ConceptHandler) SearchDescendants(c *gin.Context) {
	id, err := parseConceptID(c)
	if err != nil {
		respondServiceError(c, "invalid_concept_id", err)
		return
	}
	limit, err := parseLimit(c)
	if err != nil {
		respondServiceError(c, "invalid_limit", err)
		return
	}
	q := c.Query("q")

	rows, err := h.navigator.SearchDescendants(c.Request.Context(), id, q, limit)
	if err != nil {
		h.log.Warn("SearchDescendants failed", "error", err, "concept_id", id)
		respondServiceError(c, "search_descendants_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"query": q, "results": rows})
}

func (h *ConceptHandler) Related(c *gin.Context) {
	id, err := parseConceptID(c)
	if err != nil {
		respondServiceError(c, "invalid_concept_id", err)
		return
	}
	limit, err := parseLimit(c)
	if err != nil {
		respondServiceError(c, "invalid_limit", err)
		return
	}

	rows, err := h.navigator.Related(c.Request.Context(), id, limit)
	if err != nil {
		h.log.Warn("Related failed", "error", err, "concept_id", id)
		respondServiceError(c, "load_related_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"related": rows})
}
