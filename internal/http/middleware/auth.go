package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/MrJamesThe3rd/ledgerflow/internal/logger"
)

// HeaderOwnerID is trusted only when authentication is disabled.
const HeaderOwnerID = "X-Owner-ID"

type ownerKey struct{}

var errMissingToken = errors.New("missing bearer token")

// WithOwner returns a context carrying the authenticated owner id.
func WithOwner(ctx context.Context, ownerID string) context.Context {
	return context.WithValue(ctx, ownerKey{}, ownerID)
}

// OwnerFromContext returns the owner set by Authenticate, or "".
func OwnerFromContext(ctx context.Context) string {
	owner, _ := ctx.Value(ownerKey{}).(string)
	return owner
}

// Authenticate resolves the owner from an HS256 bearer token whose subject is
// the owner id. Tokens are issued by the external auth service. With
// disabled set, the X-Owner-ID header is used instead.
func Authenticate(secret []byte, disabled bool) func(http.Handler) http.Handler {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	)

	keyFunc := func(*jwt.Token) (any, error) { return secret, nil }

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var (
				owner string
				err   error
			)

			if disabled {
				owner = strings.TrimSpace(r.Header.Get(HeaderOwnerID))
			} else {
				owner, err = ownerFromToken(parser, keyFunc, r.Header.Get("Authorization"))
			}

			if err != nil || owner == "" {
				log := logger.FromContext(r.Context())
				log.Debug().Err(err).Msg("request not authenticated")

				http.Error(w, "unauthorized", http.StatusUnauthorized)

				return
			}

			ctx := WithOwner(r.Context(), owner)

			reqLog := logger.FromContext(ctx).With().Str("owner_id", owner).Logger()
			ctx = logger.WithContext(ctx, reqLog)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func ownerFromToken(parser *jwt.Parser, keyFunc jwt.Keyfunc, header string) (string, error) {
	raw, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || strings.TrimSpace(raw) == "" {
		return "", errMissingToken
	}

	token, err := parser.Parse(strings.TrimSpace(raw), keyFunc)
	if err != nil {
		return "", err
	}

	return token.Claims.GetSubject()
}
