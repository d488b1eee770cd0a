package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func authenticated(t *testing.T, issuer *TokenIssuer) (http.Handler, *int) {
	t.Helper()
	calls := 0
	h := Authenticate(issuer, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusNoContent)
	}))
	return h, &calls
}

func TestAuthenticateAnonymousPassesThrough(t *testing.T) {
	issuer := NewTokenIssuer("key", "issuer", time.Hour)
	h, calls := authenticated(t, issuer)

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/restaurant/1", nil))

	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.Equal(t, 1, *calls)
}

func TestAuthenticatePopulatesPrincipal(t *testing.T) {
	issuer := NewTokenIssuer("key", "issuer", time.Hour)
	token, err := issuer.Issue(Principal{ID: 9, Role: RoleAdmin})
	require.NoError(t, err)

	var got Principal
	h := Authenticate(issuer, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = PrincipalFromContext(r.Context())
	}))
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	h.ServeHTTP(httptest.NewRecorder(), req)

	assert.Equal(t, int64(9), got.ID)
	assert.Equal(t, RoleAdmin, got.Role)
}

func TestAuthenticateRejectsInvalidToken(t *testing.T) {
	issuer := NewTokenIssuer("key", "issuer", time.Hour)
	for name, header := range map[string]string{
		"garbage token": "Bearer not-a-jwt",
		"wrong scheme":  "Basic dXNlcjpwYXNz",
		"empty bearer":  "Bearer ",
	} {
		t.Run(name, func(t *testing.T) {
			h, calls := authenticated(t, issuer)
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.Header.Set("Authorization", header)
			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, req)

			assert.Equal(t, http.StatusUnauthorized, rr.Code)
			assert.Zero(t, *calls)
		})
	}
}
