package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gokatarajesh/starknow-arena/internal/auth/jwt"
)

func newTokens(ttl time.Duration) *jwt.Manager {
	return jwt.NewManager(jwt.TokenConfig{Secret: []byte("secret"), Issuer: "starknow-auth", AccessTTL: ttl})
}

func identityEcho(t *testing.T, seen *Identity) http.Handler {
	t.Helper()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := IdentityFromContext(r.Context())
		if ok {
			*seen = id
		}
		w.WriteHeader(http.StatusNoContent)
	})
}

func TestMiddlewareAttachesIdentity(t *testing.T) {
	tokens := newTokens(time.Hour)
	token, err := tokens.GenerateAccessToken(jwt.User{Phone: "13800000001", Name: "Hana"})
	require.NoError(t, err)

	var seen Identity
	h := Middleware(tokens, zerolog.Nop())(RequireIdentity(identityEcho(t, &seen)))

	req := httptest.NewRequest(http.MethodGet, "/v1/arena/match", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, Identity{ID: "13800000001", DisplayName: "Hana"}, seen)
}

func TestMiddlewareRejectsBadHeader(t *testing.T) {
	var seen Identity
	h := Middleware(newTokens(time.Hour), zerolog.Nop())(identityEcho(t, &seen))

	for _, header := range []string{"Token abc", "Bearer", "Bearer not-a-jwt"} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", header)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, header)
	}
}

func TestMiddlewareReportsExpiredToken(t *testing.T) {
	tokens := newTokens(-time.Minute)
	token, err := tokens.GenerateAccessToken(jwt.User{Phone: "1"})
	require.NoError(t, err)

	var seen Identity
	h := Middleware(tokens, zerolog.Nop())(identityEcho(t, &seen))
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "token_expired")
}

func TestRequireIdentityWithoutHeader(t *testing.T) {
	var seen Identity
	h := Middleware(newTokens(time.Hour), zerolog.Nop())(RequireIdentity(identityEcho(t, &seen)))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "authentication_required")
}
