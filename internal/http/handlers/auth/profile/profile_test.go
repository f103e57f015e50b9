package profile

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/contractforge-auth/internal/http/middlewarectx"
	"github.com/magabrotheeeer/contractforge-auth/internal/lib/apperr"
	"github.com/magabrotheeeer/contractforge-auth/internal/models"
)

type ServiceMock struct {
	mock.Mock
}

func (m *ServiceMock) GetProfile(ctx context.Context, userID string) (models.PublicUser, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(models.PublicUser), args.Error(1)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

func TestProfileHandler(t *testing.T) {
	caller := models.User{ID: "u1", Name: "Alice", Email: "alice@example.com", PasswordHash: "$2a$hash", Role: models.RoleUser}

	t.Run("returns public profile", func(t *testing.T) {
		svc := new(ServiceMock)
		svc.On("GetProfile", mock.Anything, "u1").Return(caller.Public(), nil).Once()

		req := httptest.NewRequest(http.MethodGet, "/api/auth/profile", nil)
		req = req.WithContext(middlewarectx.WithUser(req.Context(), caller))
		rec := httptest.NewRecorder()
		New(newNoopLogger(), svc).ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		var got struct {
			Data map[string]any `json:"data"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
		assert.Equal(t, "alice@example.com", got.Data["email"])
		assert.NotContains(t, rec.Body.String(), "$2a$hash")
		svc.AssertExpectations(t)
	})

	t.Run("user deleted meanwhile", func(t *testing.T) {
		svc := new(ServiceMock)
		svc.On("GetProfile", mock.Anything, "u1").Return(models.PublicUser{}, fmt.Errorf("auth.GetProfile: %w", apperr.ErrNotFound)).Once()

		req := httptest.NewRequest(http.MethodGet, "/api/auth/profile", nil)
		req = req.WithContext(middlewarectx.WithUser(req.Context(), caller))
		rec := httptest.NewRecorder()
		New(newNoopLogger(), svc).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("no user in context", func(t *testing.T) {
		svc := new(ServiceMock)
		rec := httptest.NewRecorder()
		New(newNoopLogger(), svc).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/auth/profile", nil))

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		svc.AssertNotCalled(t, "GetProfile", mock.Anything, mock.Anything)
	})
}
