package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"parkhub/internal/apperrors"
)

func TestRespondError(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		err    error
		status int
	}{
		{apperrors.ErrNotFound, http.StatusNotFound},
		{apperrors.ErrInvalidInterval, http.StatusBadRequest},
		{apperrors.ErrSlotConflict, http.StatusConflict},
		{apperrors.ErrInvalidState, http.StatusConflict},
		{apperrors.ErrInvalidTransition, http.StatusConflict},
		{apperrors.ErrConflict, http.StatusConflict},
		{apperrors.ErrInsufficientBalance, http.StatusPaymentRequired},
		{apperrors.ErrUnauthorized, http.StatusUnauthorized},
		{apperrors.ErrForbidden, http.StatusForbidden},
		{errors.New("boom"), http.StatusInternalServerError},
		// Wrapped errors map the same as bare sentinels.
		{fmt.Errorf("lot 42: %w", apperrors.ErrNotFound), http.StatusNotFound},
		{fmt.Errorf("balance 3 < 4: %w", apperrors.ErrInsufficientBalance), http.StatusPaymentRequired},
	}

	for _, tc := range tests {
		t.Run(tc.err.Error(), func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

			respondError(c, tc.err)

			assert.Equal(t, tc.status, w.Code)
			assert.Contains(t, w.Body.String(), "error")
		})
	}
}
