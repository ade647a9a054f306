package v1handler

import (
	"context"
	"crypto/rsa"
	"fmt"
	"net/http"
	"strings"

	"bookverse/internal/config"
	"bookverse/pkg/serrors"

	"github.com/golang-jwt/jwt/v5"
)

// subjectCtxKey is the context key under which the authenticated subject is stored.
type subjectCtxKey struct{}

// SecHandlerOptions configure API authentication.
type SecHandlerOptions struct {
	// PublicKey is the PEM encoded RSA public key used to verify tokens.
	PublicKey string
}

// NewSecHandlerOptions constructs SecHandlerOptions from the application config.
func NewSecHandlerOptions(cfg *config.Config) *SecHandlerOptions {
	return &SecHandlerOptions{PublicKey: cfg.JWT.PublicKey}
}

// SecHandler verifies RS256 bearer tokens on protected routes.
type SecHandler struct {
	key *rsa.PublicKey
}

// NewSecHandler parses the configured public key and returns a SecHandler.
func NewSecHandler(opts *SecHandlerOptions) (*SecHandler, error) {
	key, err := jwt.ParseRSAPublicKeyFromPEM([]byte(opts.PublicKey))
	if err != nil {
		return nil, fmt.Errorf("could not parse RSA public key: %w", err)
	}

	return &SecHandler{key: key}, nil
}

// Wrap returns a middleware enforcing bearer authentication. On success the
// token subject is stored in the request context.
func (s *SecHandler) Wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, found := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !found || raw == "" {
			writeError(w, r, serrors.With(serrors.ErrUnauthorized, "missing bearer token"))

			return
		}

		var claims jwt.RegisteredClaims
		_, err := jwt.ParseWithClaims(raw, &claims, func(*jwt.Token) (any, error) {
			return s.key, nil
		}, jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}))
		if err != nil {
			writeError(w, r, serrors.Wrap(serrors.ErrUnauthorized, err, "invalid token"))

			return
		}

		ctx := context.WithValue(r.Context(), subjectCtxKey{}, claims.Subject)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetSubjectFromContext returns the authenticated subject stored by Wrap, or
// an empty string when the request was not authenticated.
func GetSubjectFromContext(ctx context.Context) string {
	subject, _ := ctx.Value(subjectCtxKey{}).(string)

	return subject
}
