package middlewarectx_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/contractforge-auth/internal/http/middlewarectx"
	"github.com/magabrotheeeer/contractforge-auth/internal/http/response"
	"github.com/magabrotheeeer/contractforge-auth/internal/lib/jwt"
	"github.com/magabrotheeeer/contractforge-auth/internal/models"
	"github.com/magabrotheeeer/contractforge-auth/internal/storage"
)

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

type protectEnv struct {
	store  *storage.Storage
	maker  *jwt.MakerImpl
	user   models.User
	token  string
	called bool
	seen   models.User
	router http.Handler
}

func newProtectEnv(t *testing.T, now time.Time) *protectEnv {
	t.Helper()
	ctx := context.Background()

	env := &protectEnv{
		store: storage.New(),
		maker: jwt.NewJWTMaker("middleware-secret", time.Hour),
	}

	user, err := env.store.CreateUser(ctx, models.User{Name: "Alice", Email: "alice@example.com", Role: models.RoleUser})
	require.NoError(t, err)
	env.user = user

	token, err := env.maker.GenerateToken(user.ID)
	require.NoError(t, err)
	env.token = token

	_, err = env.store.CreateSession(ctx, models.Session{Token: token, UserID: user.ID, Device: "test", IP: "127.0.0.1"})
	require.NoError(t, err)

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		env.called = true
		env.seen, _ = middlewarectx.UserFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})
	env.router = middlewarectx.Protect(newNoopLogger(), env.maker, env.store, func() time.Time { return now })(next)
	return env
}

func (e *protectEnv) do(authHeader string) *httptest.ResponseRecorder {
	e.called = false
	req := httptest.NewRequest(http.MethodGet, "/api/auth/profile", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func TestProtect(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name       string
		header     func(e *protectEnv) string
		prepare    func(t *testing.T, e *protectEnv)
		wantStatus int
		wantCalled bool
	}{
		{
			name:       "missing header",
			header:     func(*protectEnv) string { return "" },
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "wrong scheme",
			header:     func(e *protectEnv) string { return "Basic " + e.token },
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "empty bearer",
			header:     func(*protectEnv) string { return "Bearer " },
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "garbage token",
			header:     func(*protectEnv) string { return "Bearer not-a-jwt" },
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "signed with another secret",
			header:     func(e *protectEnv) string { return "Bearer " + mustToken(t, jwt.NewJWTMaker("other", time.Hour), e.user.ID) },
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "valid signature but no session",
			header:     func(e *protectEnv) string { return "Bearer " + mustToken(t, e.maker, e.user.ID) },
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "revoked session",
			header:     func(e *protectEnv) string { return "Bearer " + e.token },
			prepare:    func(t *testing.T, e *protectEnv) {
				require.True(t, e.store.DeleteSession(context.Background(), e.token))
			},
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "orphaned session",
			header:     func(e *protectEnv) string { return "Bearer " + e.token },
			prepare:    func(t *testing.T, e *protectEnv) {
				require.True(t, e.store.DeleteUser(context.Background(), e.user.ID))
			},
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "session owned by another user",
			header:     func(e *protectEnv) string { return "Bearer " + e.token },
			prepare:    func(t *testing.T, e *protectEnv) {
				ctx := context.Background()
				require.True(t, e.store.DeleteSession(ctx, e.token))
				other, err := e.store.CreateUser(ctx, models.User{Name: "Bob", Email: "bob@example.com", Role: models.RoleUser})
				require.NoError(t, err)
				_, err = e.store.CreateSession(ctx, models.Session{Token: e.token, UserID: other.ID})
				require.NoError(t, err)
			},
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "valid session",
			header:     func(e *protectEnv) string { return "Bearer " + e.token },
			wantStatus: http.StatusOK,
			wantCalled: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newProtectEnv(t, now)
			if tt.prepare != nil {
				tt.prepare(t, env)
			}

			rec := env.do(tt.header(env))

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantCalled, env.called)
			assert.NotContains(t, rec.Body.String(), env.token)
			if !tt.wantCalled {
				var body response.ErrorResponse
				require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
				assert.Equal(t, response.StatusError, body.Status)
				assert.NotEmpty(t, body.Error)
			}
		})
	}
}

func TestProtect_AttachesUserAndTouchesSession(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	env := newProtectEnv(t, now)

	rec := env.do("Bearer " + env.token)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, env.user.ID, env.seen.ID)
	assert.Equal(t, env.user.Email, env.seen.Email)

	session, err := env.store.FindSessionByToken(context.Background(), env.token)
	require.NoError(t, err)
	assert.True(t, session.LastActive.Equal(now))
}

func TestRequireRole(t *testing.T) {
	tests := []struct {
		name       string
		user       *models.User
		wantStatus int
	}{
		{name: "no user in context", wantStatus: http.StatusUnauthorized},
		{name: "regular user", user: &models.User{ID: "u1", Role: models.RoleUser}, wantStatus: http.StatusForbidden},
		{name: "admin", user: &models.User{ID: "a1", Role: models.RoleAdmin}, wantStatus: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			called := false
			next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				called = true
				w.WriteHeader(http.StatusOK)
			})
			h := middlewarectx.RequireRole(newNoopLogger(), models.RoleAdmin)(next)

			req := httptest.NewRequest(http.MethodGet, "/api/auth/admin/users", nil)
			if tt.user != nil {
				req = req.WithContext(middlewarectx.WithUser(req.Context(), *tt.user))
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantStatus == http.StatusOK, called)
		})
	}
}

func mustToken(t *testing.T, maker *jwt.MakerImpl, userID string) string {
	t.Helper()
	token, err := maker.GenerateToken(userID)
	require.NoError(t, err)
	return token
}
