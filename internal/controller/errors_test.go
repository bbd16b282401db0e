package controller

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"learning_companion_backend/internal/service"
	"learning_companion_backend/internal/util"
	"learning_companion_backend/pkg/llm"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestRespondError(t *testing.T) {
	gin.SetMode(gin.TestMode)
	tests := []struct {
		name string
		err  error
		code int
	}{
		{"plan not found", fmt.Errorf("get plan: %w", util.ErrPlanNotFound), http.StatusNotFound},
		{"invalid input", util.ErrInvalidInput, http.StatusBadRequest},
		{"already complete", util.ErrQuizAlreadyComplete, http.StatusConflict},
		{"rate limited", &service.GenerationError{Op: "ask tutor", Kind: service.KindProviderFailure, Err: &llm.ErrRateLimit{Err: errors.New("429")}}, http.StatusTooManyRequests},
		{"generation", &service.GenerationError{Op: "generate quiz", Kind: service.KindParseFailure, Err: errors.New("bad json")}, http.StatusBadGateway},
		{"store", fmt.Errorf("%w: boom", util.ErrStoreUnavailable), http.StatusServiceUnavailable},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			ctx, _ := gin.CreateTestContext(w)
			respondError(ctx, tt.err)
			assert.Equal(t, tt.code, w.Code)
		})
	}
}
