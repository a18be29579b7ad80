package serrors_test

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"testing"

	"mmrag/pkg/serrors"

	"github.com/stretchr/testify/require"
)

func TestWith_MatchesKind(t *testing.T) {
	err := serrors.With(serrors.ErrNotFound, "document %s not found", "abc")

	require.True(t, errors.Is(err, serrors.ErrNotFound))
	require.False(t, errors.Is(err, serrors.ErrBadRequest))
	require.Equal(t, "document abc not found", err.Error())
}

func TestWrap_MatchesKindAndCause(t *testing.T) {
	cause := io.ErrUnexpectedEOF
	err := serrors.Wrap(serrors.ErrUnsupported, cause, "could not parse pdf")

	require.True(t, errors.Is(err, serrors.ErrUnsupported))
	require.True(t, errors.Is(err, io.ErrUnexpectedEOF))
	require.Equal(t, "could not parse pdf: unexpected EOF", err.Error())
}

func TestWrap_SurvivesFurtherWrapping(t *testing.T) {
	err := serrors.With(serrors.ErrRateLimited, "quota exhausted")
	wrapped := fmt.Errorf("embedding batch failed: %w", err)

	require.True(t, errors.Is(wrapped, serrors.ErrRateLimited))

	var sem *serrors.Error
	require.True(t, errors.As(wrapped, &sem))
	require.Equal(t, serrors.ErrRateLimited, sem.Kind())
}

func TestHTTPStatus(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, http.StatusOK},
		{"not found", serrors.With(serrors.ErrNotFound, "gone"), http.StatusNotFound},
		{"bad request", serrors.With(serrors.ErrBadRequest, "bad"), http.StatusBadRequest},
		{"unsupported", serrors.With(serrors.ErrUnsupported, "nope"), http.StatusBadRequest},
		{"unauthorized", serrors.With(serrors.ErrUnauthorized, "who"), http.StatusUnauthorized},
		{"conflict", serrors.With(serrors.ErrConflict, "dupe"), http.StatusConflict},
		{"rate limited", serrors.With(serrors.ErrRateLimited, "slow down"), http.StatusTooManyRequests},
		{"unavailable", serrors.With(serrors.ErrUnavailable, "down"), http.StatusServiceUnavailable},
		{"plain error", errors.New("boom"), http.StatusInternalServerError},
		{"wrapped kind", fmt.Errorf("outer: %w", serrors.With(serrors.ErrNotFound, "inner")), http.StatusNotFound},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, serrors.HTTPStatus(tc.err))
		})
	}
}
