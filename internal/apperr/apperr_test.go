package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindsSurviveWrapping(t *testing.T) {
	err := fmt.Errorf("assign: %w", Conflict("asset %d already assigned", 3))

	assert.True(t, errors.Is(err, ErrConflict))
	assert.False(t, errors.Is(err, ErrNotFound))
	assert.Equal(t, "conflict", Kind(err))
	assert.Equal(t, "assign: asset 3 already assigned", err.Error())
}

func TestHTTPStatus(t *testing.T) {
	cases := map[error]int{
		NotFound("x"):         http.StatusNotFound,
		Conflict("x"):         http.StatusConflict,
		Forbidden("x"):        http.StatusForbidden,
		Validation("x"):       http.StatusBadRequest,
		errors.New("db down"): http.StatusInternalServerError,
	}
	for err, want := range cases {
		assert.Equal(t, want, HTTPStatus(err), err.Error())
	}
	assert.Equal(t, "internal", Kind(errors.New("db down")))
}
