package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/kestrelhealth/vocab-backend/internal/http/response"
	"github.com/kestrelhealth/vocab-backend/internal/platform/logger"
	vocabsvc "github.com/kestrelhealth/vocab-backend/internal/services/vocab"
)

type ReferenceHandler struct {
	log              *logger.Logger
	referenceService vocabsvc.ReferenceService
}

func NewReferenceHandler(log *logger.Logger, referenceService vocabsvc.ReferenceService) *ReferenceHandler {
	return &ReferenceHandler{
		log:              log.With("handler", "ReferenceHandler"),
		referenceService: referenceService,
	}
}

func (h *ReferenceHandler) ListVocabularies(c *gin.Context) {
	rows, err := h.referenceService.ListVocabularies(c.Request.Context())
	if err != nil {
		h.log.Warn("ListVocabularies failed", "error", err)
		respondServiceError(c, "load_vocabularies_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"vocabularies": rows})
}

func (h *ReferenceHandler) ListDomains(c *gin.Context) {
	rows, err := h.referenceService.ListDomains(c.Request.Context())
	if err != nil {
		h.log.Warn("ListDomains failed", "error", err)
		respondServiceError(c, "load_domains_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"domains": rows})
}
