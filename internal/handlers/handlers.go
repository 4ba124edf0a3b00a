package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"parkhub/internal/apperrors"
	"parkhub/internal/middleware"
	"parkhub/internal/models"
	"parkhub/internal/notify"
	"parkhub/internal/service"
)

type Handlers struct {
	services *service.Services
	hub      *notify.Hub
}

func NewHandlers(services *service.Services, hub *notify.Hub) *Handlers {
	return &Handlers{
		services: services,
		hub:      hub,
	}
}

// respondError maps domain errors onto HTTP status codes in one place so
// every endpoint reports the taxonomy the same way.
func respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	message := "Internal server error"

	switch {
	case errors.Is(err, apperrors.ErrNotFound):
		status, message = http.StatusNotFound, "Not found"
	case errors.Is(err, apperrors.ErrInvalidInterval):
		status, message = http.StatusBadRequest, "Invalid time interval"
	case errors.Is(err, apperrors.ErrSlotConflict):
		status, message = http.StatusConflict, "Space is already reserved for this interval"
	case errors.Is(err, apperrors.ErrInvalidState):
		status, message = http.StatusConflict, "Operation not allowed in the current state"
	case errors.Is(err, apperrors.ErrInvalidTransition):
		status, message = http.StatusConflict, "Invalid status transition"
	case errors.Is(err, apperrors.ErrInsufficientBalance):
		status, message = http.StatusPaymentRequired, "Insufficient points balance"
	case errors.Is(err, apperrors.ErrConflict):
		status, message = http.StatusConflict, "Conflicting resource state"
	case errors.Is(err, apperrors.ErrUnauthorized):
		status, message = http.StatusUnauthorized, "Invalid credentials"
	case errors.Is(err, apperrors.ErrForbidden):
		status, message = http.StatusForbidden, "Access denied"
	}

	if status == http.StatusInternalServerError {
		c.Error(err)
	}
	c.JSON(status, gin.H{"error": message})
}

// principal returns the authenticated principal or aborts with 401.
func principal(c *gin.Context) (models.Principal, bool) {
	p, ok := middleware.PrincipalFromContext(c.Request.Context())
	if !ok || !p.Authenticated() {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return models.Principal{}, false
	}
	return p, true
}
