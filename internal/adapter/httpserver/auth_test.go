package httpserver_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	httpserver "github.com/orientis/orientis/internal/adapter/httpserver"
	"github.com/orientis/orientis/internal/domain"
)

func TestJWTRoundTrip(t *testing.T) {
	t.Parallel()
	svc := httpserver.NewJWTService("test-secret", time.Hour)

	token, err := svc.IssueToken("user-42")
	require.NoError(t, err)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user-42", claims.UserID)
}

func TestJWTRejectsWrongSecret(t *testing.T) {
	t.Parallel()
	issuer := httpserver.NewJWTService("secret-a", time.Hour)
	verifier := httpserver.NewJWTService("secret-b", time.Hour)

	token, err := issuer.IssueToken("user-1")
	require.NoError(t, err)

	_, err = verifier.ValidateToken(token)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestJWTRejectsExpiredToken(t *testing.T) {
	t.Parallel()
	svc := httpserver.NewJWTService("test-secret", -time.Minute)

	token, err := svc.IssueToken("user-1")
	require.NoError(t, err)

	_, err = svc.ValidateToken(token)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestAuthMiddleware(t *testing.T) {
	t.Parallel()
	svc := httpserver.NewJWTService("test-secret", time.Hour)
	token, err := svc.IssueToken("user-7")
	require.NoError(t, err)

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, err := httpserver.UserIDFrom(r)
		require.NoError(t, err)
		assert.Equal(t, "user-7", id)
		w.WriteHeader(http.StatusNoContent)
	})
	h := httpserver.AuthMiddleware(svc)(next)

	cases := []struct {
		name   string
		header string
		want   int
	}{
		{"valid", "Bearer " + token, http.StatusNoContent},
		{"lowercase scheme", "bearer " + token, http.StatusNoContent},
		{"missing header", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic abc", http.StatusUnauthorized},
		{"garbage token", "Bearer not.a.token", http.StatusUnauthorized},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/v1/auth/profile", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			assert.Equal(t, tc.want, rec.Code)
		})
	}
}
