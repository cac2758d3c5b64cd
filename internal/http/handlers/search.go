package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	types "github.com/kestrelhealth/vocab-backend/internal/domain/vocab"
	"github.com/kestrelhealth/vocab-backend/internal/platform/apierr"
	"github.com/kestrelhealth/vocab-backend/internal/platform/logger"
	vocabsvc "github.com/kestrelhealth/vocab-backend/internal/services/vocab"
)

type SearchHandler struct {
	log           *logger.Logger
	searchService vocabsvc.SearchService
}

func NewSearchHandler(log *logger.Logger, searchService vocabsvc.SearchService) *SearchHandler {
	return &SearchHandler{
		log:           log.With("handler", "SearchHandler"),
		searchService: searchService,
	}
}

// Search runs one ranked vocabulary search. Boolean flags are enabled by the
// literal string "true"; any other value leaves them off.
func (h *SearchHandler) Search(c *gin.Context) {
	limit, err := parseLimit(c)
	if err != nil {
		respondServiceError(c, "invalid_limit", err)
		return
	}

	req := types.SearchRequest{
		Query:        c.Query("q"),
		Fuzzy:        c.Query("fuzzy") == "true",
		Semantic:     c.Query("semantic") == "true",
		StandardOnly: c.Query("standard_only") == "true",
		VocabularyID: c.Query("vocabulary_id"),
		DomainID:     c.Query("domain_id"),
		Limit:        limit,
	}

	out, err := h.searchService.Search(c.Request.Context(), req)
	if err != nil {
		h.log.Error("Search failed", "error", err, "query", req.Query)
		respondServiceError(c, "search_failed", err)
		return
	}
	c.JSON(http.StatusOK, out)
}

// parseLimit reads the optional limit parameter. Absent or blank means use
// the server default; anything non-numeric is the caller's mistake.
func parseLimit(c *gin.Context) (int, error) {
	raw := strings.TrimSpace(c.Query("limit"))
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apierr.New(http.StatusBadRequest, "invalid_limit", fmt.Errorf("limit %q is not an integer", raw))
	}
	return n, nil
}
