package api

import (
	"net/http"

	"github.com/Domenick1991/ticketline/internal/domain"
	"github.com/gin-gonic/gin"
)

func statusFor(code domain.ErrorCode) int {
	switch code {
	case domain.CodeValidation:
		return http.StatusBadRequest
	case domain.CodeAuthorization:
		return http.StatusForbidden
	case domain.CodeNotFound:
		return http.StatusNotFound
	case domain.CodeConflict, domain.CodeInsufficientStock, domain.CodeTicketUnavailable,
		domain.CodeInvalidTransition, domain.CodeCapacity:
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

// respondError maps domain errors to stable codes. Anything else is an
// internal failure and is never echoed to the client.
func respondError(c *gin.Context, err error) {
	if code := domain.CodeOf(err); code != "" {
		c.JSON(statusFor(code), gin.H{"code": code, "error": err.Error()})
		return
	}
	_ = c.Error(err)
	c.JSON(http.StatusInternalServerError, gin.H{"code": "INTERNAL", "error": "internal error"})
}
