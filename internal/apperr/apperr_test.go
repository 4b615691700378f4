package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatus(t *testing.T) {
	cases := []struct {
		err  *Error
		want int
	}{
		{Validation("bad"), http.StatusBadRequest},
		{Conflict("dup"), http.StatusBadRequest},
		{NotFound("missing"), http.StatusNotFound},
		{PermissionDenied("no"), http.StatusForbidden},
		{Unauthenticated("who"), http.StatusUnauthorized},
		{Internal(errors.New("boom")), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, tc.err.Status(), tc.err.Error())
	}
}

func TestBody(t *testing.T) {
	body := Field("score", "must be between 0 and 10").Body()
	assert.Equal(t, []string{"must be between 0 and 10"}, body["score"])

	body = Validation("invalid data").Body()
	assert.Equal(t, []string{"invalid data"}, body[NonFieldErrors])

	body = Internal(errors.New("db down")).Body()
	assert.Equal(t, "internal server error", body["detail"])

	body = NotFound("title not found").Body()
	assert.Equal(t, "title not found", body["detail"])
}

func TestAsWrapsUnknownErrors(t *testing.T) {
	wrapped := fmt.Errorf("handler: %w", NotFound("gone"))
	assert.Equal(t, KindNotFound, As(wrapped).Kind)
	assert.True(t, Is(wrapped, KindNotFound))

	plain := errors.New("boom")
	e := As(plain)
	assert.Equal(t, KindInternal, e.Kind)
	assert.ErrorIs(t, e, plain)
}
