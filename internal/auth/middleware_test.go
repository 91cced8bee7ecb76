package auth

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arbiter-io/arbiter/internal/apikeys"
	"github.com/arbiter-io/arbiter/internal/authz"
	"github.com/arbiter-io/arbiter/internal/shared"
)

func testLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func principalEcho(t *testing.T, captured *authz.Principal) http.Handler {
	t.Helper()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if principal, ok := authz.PrincipalFromContext(r.Context()); ok {
			*captured = principal
		}
		w.WriteHeader(http.StatusOK)
	})
}

func TestPrincipalMiddlewareBearerToken(t *testing.T) {
	verifier := &mockVerifier{keys: map[string]apikeys.APIKey{
		"machine-secret": {ID: "key-1", OrganizationID: "org-1", RoleID: "role-api", IsActive: true},
	}}
	svc := NewService(newMockRepository(), verifier)

	var captured authz.Principal
	handler := Principal(svc, testLogger())(principalEcho(t, &captured))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer machine-secret")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	cred, ok := captured.(authz.CredentialPrincipal)
	require.True(t, ok)
	assert.Equal(t, "key-1", cred.ID)
	assert.Equal(t, "org-1", cred.OrganizationID)
}

func TestPrincipalMiddlewareRejectsBadBearerToken(t *testing.T) {
	svc := NewService(newMockRepository(), &mockVerifier{})

	var captured authz.Principal
	handler := Principal(svc, testLogger())(principalEcho(t, &captured))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer forged")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Nil(t, captured)
}

func TestPrincipalMiddlewareSessionUser(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	sessions := shared.NewSessionManager(client, "arbiter_session", "test-secret", time.Hour, false)

	repo := newMockRepository()
	repo.add(Account{ID: "user-1", Email: "ana@example.com", IsActive: true})
	svc := NewService(repo, &mockVerifier{})

	var captured authz.Principal
	handler := Principal(svc, testLogger())(principalEcho(t, &captured))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	sess, err := sessions.Load(context.Background(), req)
	require.NoError(t, err)
	sess.SetUser("user-1")
	req = req.WithContext(shared.ContextWithSession(req.Context(), sess))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	user, ok := captured.(authz.UserPrincipal)
	require.True(t, ok)
	assert.Equal(t, "user-1", user.ID)
}

func TestPrincipalMiddlewareAnonymousPassesThrough(t *testing.T) {
	svc := NewService(newMockRepository(), &mockVerifier{})

	var captured authz.Principal
	handler := Principal(svc, testLogger())(principalEcho(t, &captured))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Nil(t, captured)
}

func TestPrincipalMiddlewareClearsStaleSessionUser(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	sessions := shared.NewSessionManager(client, "arbiter_session", "test-secret", time.Hour, false)
	svc := NewService(newMockRepository(), &mockVerifier{})

	var captured authz.Principal
	handler := Principal(svc, testLogger())(principalEcho(t, &captured))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	sess, err := sessions.Load(context.Background(), req)
	require.NoError(t, err)
	sess.SetUser("deleted-user")
	req = req.WithContext(shared.ContextWithSession(req.Context(), sess))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Nil(t, captured)
	assert.Empty(t, sess.User())
}
