package errors_test

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/anditianred/ao3-api/internal/errors"
)

func TestError_IsMatchesByCode(t *testing.T) {
	cause := stderrors.New("status 429")
	err := fmt.Errorf("search: %w", errors.RateLimited("slow down").WithCause(cause))

	assert.True(t, errors.Is(err, errors.ErrRateLimited))
	assert.False(t, errors.Is(err, errors.ErrFetchFailed))
	assert.True(t, errors.Is(err, cause))
	assert.Equal(t, "search: slow down: status 429", err.Error())
}

func TestCode_HTTPStatus(t *testing.T) {
	tests := []struct {
		code errors.Code
		want int
	}{
		{errors.CodeNotFound, http.StatusNotFound},
		{errors.CodeValidation, http.StatusBadRequest},
		{errors.CodeRateLimited, http.StatusTooManyRequests},
		{errors.CodeFetchFailed, http.StatusBadGateway},
		{errors.CodeParseFailed, http.StatusBadGateway},
		{errors.CodeUnavailable, http.StatusServiceUnavailable},
		{errors.CodeInternal, http.StatusInternalServerError},
		{errors.Code("UNKNOWN"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.code.HTTPStatus())
		})
	}
}

func TestCodeOf(t *testing.T) {
	assert.Equal(t, errors.CodeParseFailed, errors.CodeOf(fmt.Errorf("x: %w", errors.ParseFailed("bad page"))))
	assert.Equal(t, errors.CodeInternal, errors.CodeOf(stderrors.New("plain")))
}

func TestWithDetails_KeepsOriginal(t *testing.T) {
	base := errors.Validation("invalid query")
	detailed := base.WithDetails(map[string]string{"page": "must be at least 1"})

	assert.Nil(t, base.Details)
	assert.NotNil(t, detailed.Details)
	assert.True(t, errors.Is(detailed, errors.ErrValidation))
}
