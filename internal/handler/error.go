package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/VinayKumar7512/EventNest/internal/domain"
	"github.com/VinayKumar7512/EventNest/pkg/response"
)

// handleServiceError maps domain errors onto HTTP responses
func handleServiceError(c *gin.Context, err error) {
	switch {
	case domain.IsNotFoundError(err):
		response.NotFound(c, err.Error())
	case domain.IsValidationError(err):
		response.BadRequest(c, err.Error())
	case domain.IsCapacityError(err):
		response.Error(c, http.StatusBadRequest, "INSUFFICIENT_SEATS", err.Error(), "")
	case domain.IsConflictError(err):
		response.Conflict(c, err.Error())
	case domain.IsAuthenticityError(err):
		response.BadRequest(c, err.Error())
	case domain.IsExternalProviderError(err):
		response.BadGateway(c, err.Error())
	default:
		response.InternalError(c, err)
	}
}
