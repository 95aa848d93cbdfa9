package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/ledgerflow/internal/http/middleware"
)

var secret = []byte("test-secret")

func sign(t *testing.T, method jwt.SigningMethod, key []byte, claims jwt.RegisteredClaims) string {
	t.Helper()

	token, err := jwt.NewWithClaims(method, claims).SignedString(key)
	require.NoError(t, err)

	return token
}

func ownerEcho() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(middleware.OwnerFromContext(r.Context())))
	})
}

func TestAuthenticate(t *testing.T) {
	valid := jwt.RegisteredClaims{
		Subject:   "U1",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}

	tests := []struct {
		name       string
		disabled   bool
		header     func(t *testing.T, r *http.Request)
		wantStatus int
		wantOwner  string
	}{
		{
			name: "valid token",
			header: func(t *testing.T, r *http.Request) {
				r.Header.Set("Authorization", "Bearer "+sign(t, jwt.SigningMethodHS256, secret, valid))
			},
			wantStatus: http.StatusOK,
			wantOwner:  "U1",
		},
		{
			name:       "missing token",
			header:     func(*testing.T, *http.Request) {},
			wantStatus: http.StatusUnauthorized,
		},
		{
			name: "wrong secret",
			header: func(t *testing.T, r *http.Request) {
				r.Header.Set("Authorization", "Bearer "+sign(t, jwt.SigningMethodHS256, []byte("other"), valid))
			},
			wantStatus: http.StatusUnauthorized,
		},
		{
			name: "unexpected algorithm",
			header: func(t *testing.T, r *http.Request) {
				r.Header.Set("Authorization", "Bearer "+sign(t, jwt.SigningMethodHS512, secret, valid))
			},
			wantStatus: http.StatusUnauthorized,
		},
		{
			name: "expired",
			header: func(t *testing.T, r *http.Request) {
				r.Header.Set("Authorization", "Bearer "+sign(t, jwt.SigningMethodHS256, secret, jwt.RegisteredClaims{
					Subject:   "U1",
					ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
				}))
			},
			wantStatus: http.StatusUnauthorized,
		},
		{
			name: "no expiry",
			header: func(t *testing.T, r *http.Request) {
				r.Header.Set("Authorization", "Bearer "+sign(t, jwt.SigningMethodHS256, secret, jwt.RegisteredClaims{Subject: "U1"}))
			},
			wantStatus: http.StatusUnauthorized,
		},
		{
			name: "empty subject",
			header: func(t *testing.T, r *http.Request) {
				r.Header.Set("Authorization", "Bearer "+sign(t, jwt.SigningMethodHS256, secret, jwt.RegisteredClaims{
					ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
				}))
			},
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:     "disabled trusts header",
			disabled: true,
			header: func(_ *testing.T, r *http.Request) {
				r.Header.Set(middleware.HeaderOwnerID, " U2 ")
			},
			wantStatus: http.StatusOK,
			wantOwner:  "U2",
		},
		{
			name:       "disabled without header",
			disabled:   true,
			header:     func(*testing.T, *http.Request) {},
			wantStatus: http.StatusUnauthorized,
		},
		{
			name: "header ignored when enabled",
			header: func(_ *testing.T, r *http.Request) {
				r.Header.Set(middleware.HeaderOwnerID, "U2")
			},
			wantStatus: http.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := middleware.Authenticate(secret, tt.disabled)(ownerEcho())

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			tt.header(t, req)

			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)

			if tt.wantStatus == http.StatusOK {
				assert.Equal(t, tt.wantOwner, rec.Body.String())
			}
		})
	}
}

func TestOwnerFromContext_Empty(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Empty(t, middleware.OwnerFromContext(req.Context()))
}
