package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kestrelhealth/vocab-backend/internal/clients/embedding"
	"github.com/kestrelhealth/vocab-backend/internal/http/response"
	pkgerrors "github.com/kestrelhealth/vocab-backend/internal/pkg/errors"
	"github.com/kestrelhealth/vocab-backend/internal/platform/apierr"
)

// respondServiceError maps service failures onto the error envelope: explicit
// apierr values keep their status and code, missing concepts become 404, an
// unreachable embedding backend becomes 503 with a code callers can key a
// strategy fallback on, everything else is a 500.
func respondServiceError(c *gin.Context, fallbackCode string, err error) {
	var ae *apierr.Error
	switch {
	case errors.As(err, &ae):
		response.RespondError(c, ae.Status, ae.Code, ae.Err)
	case pkgerrors.IsNotFound(err):
		response.RespondError(c, http.StatusNotFound, "concept_not_found", err)
	case errors.Is(err, embedding.ErrUnavailable):
		response.RespondError(c, http.StatusServiceUnavailable, "search_backend_unavailable", err)
	default:
		response.RespondError(c, http.StatusInternalServerError, fallbackCode, err)
	}
}
