package serrors_test

import (
	"errors"
	"bookverse/pkg/serrors"
	"testing"

	"github.com/stretchr/testify/require"
)

type customError struct{ msg string }

func (e customError) Error() string { return e.msg }

func TestDefaultKindsDistinct(t *testing.T) {
	kinds := []serrors.Kind{
		serrors.ErrNotFound,
		serrors.ErrUnauthorized,
		serrors.ErrForbidden,
		serrors.ErrBadRequest,
		serrors.ErrConflict,
		serrors.ErrInternal,
		serrors.ErrTimeout,
		serrors.ErrUnavailable,
		serrors.ErrRateLimited,
	}
	seen := map[serrors.Kind]bool{}
	for i, k := range kinds {
		require.NotNil(t, k, "kind at index %d is nil", i)
		require.False(t, seen[k], "kind at index %d is duplicate: %v", i, k)
		seen[k] = true
	}

	// Ensure some expected inequalities
	require.NotEqual(t, serrors.ErrNotFound, serrors.ErrUnauthorized, "NotFound should not equal Unauthorized")
}

func TestErrorFormatting(t *testing.T) {
	base := errors.New("db down")

	e1 := serrors.With(serrors.ErrNotFound, "scan %d not found", 42)
	require.Equal(t, "scan 42 not found", e1.Error(), "With() Error() mismatch")

	e2 := serrors.Wrap(serrors.ErrNotFound, base, "getting scan")
	require.Equal(t, "getting scan: db down", e2.Error(), "Wrap() Error() mismatch")

	e3 := serrors.KindOnly(serrors.ErrNotFound)
	require.Equal(t, "NOT_FOUND", e3.Error(), "KindOnly Error() mismatch")
}

func TestIsMatchesKindAndWrapped(t *testing.T) {
	base := customError{"root cause"}
	e := serrors.Wrap(serrors.ErrNotFound, base, "reading")

	require.ErrorIs(t, e, serrors.ErrNotFound)
	require.ErrorIs(t, e, base)
	require.NotErrorIs(t, e, serrors.ErrUnauthorized, "errors.Is should not match a different kind")
}

func TestAsMatchesKindAndWrapped(t *testing.T) {
	base := &customError{"root cause"}
	e := serrors.Wrap(serrors.ErrNotFound, base, "reading")

	var k serrors.Kind
	require.ErrorAs(t, e, &k, "errors.As should extract Kind")
	require.Equal(t, serrors.ErrNotFound, k)

	var ce *customError
	require.ErrorAs(t, e, &ce, "errors.As should extract wrapped error type")
	require.Equal(t, base, ce, "extracted cause pointer mismatch")
}

func TestAccessors(t *testing.T) {
	base := errors.New("boom")
	e := serrors.Wrap(serrors.ErrUnauthorized, base, "no token")
	require.Equal(t, serrors.ErrUnauthorized, e.Kind())
	require.Equal(t, "no token", e.Message())
	require.Equal(t, base, e.Cause())
}

func TestFromHTTPStatus(t *testing.T) {
	require.Nil(t, serrors.FromHTTPStatus(200))
	require.Nil(t, serrors.FromHTTPStatus(204))
	require.Equal(t, serrors.ErrNotFound, serrors.FromHTTPStatus(404))
	require.Equal(t, serrors.ErrUnauthorized, serrors.FromHTTPStatus(401))
	require.Equal(t, serrors.ErrForbidden, serrors.FromHTTPStatus(403))
	require.Equal(t, serrors.ErrConflict, serrors.FromHTTPStatus(409))
	require.Equal(t, serrors.ErrRateLimited, serrors.FromHTTPStatus(429))
	require.Equal(t, serrors.ErrUnavailable, serrors.FromHTTPStatus(503))
	require.Equal(t, serrors.ErrInternal, serrors.FromHTTPStatus(500))
	require.Equal(t, serrors.ErrBadRequest, serrors.FromHTTPStatus(418))
}

func TestHTTPStatusRoundTrip(t *testing.T) {
	require.Equal(t, 404, serrors.HTTPStatus(serrors.With(serrors.ErrNotFound, "missing")))
	require.Equal(t, 429, serrors.HTTPStatus(serrors.KindOnly(serrors.ErrRateLimited)))
	require.Equal(t, 500, serrors.HTTPStatus(errors.New("opaque")))
	require.Equal(t, 200, serrors.HTTPStatus(nil))
}
