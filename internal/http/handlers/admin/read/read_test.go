package read

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/contractforge-auth/internal/lib/apperr"
	"github.com/magabrotheeeer/contractforge-auth/internal/models"
)

type ServiceMock struct {
	mock.Mock
}

func (m *ServiceMock) GetUser(ctx context.Context, id string) (models.PublicUser, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(models.PublicUser), args.Error(1)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

func TestReadHandler(t *testing.T) {
	at := time.Date(2026, 5, 6, 7, 8, 9, 0, time.UTC)

	tests := []struct {
		name       string
		user       models.PublicUser
		mockErr    error
		wantStatus int
		wantBody   string
	}{
		{
			name: "found",
			user: models.PublicUser{ID: "u1", Name: "Alice", Email: "alice@example.com", Role: models.RoleUser, CreatedAt: at, UpdatedAt: at},
			wantStatus: http.StatusOK,
			wantBody: `{"status":"OK","data":{"id":"u1","name":"Alice","email":"alice@example.com","role":"user",` +
				`"isEmailVerified":false,"createdAt":"2026-05-06T07:08:09Z","updatedAt":"2026-05-06T07:08:09Z"}}`,
		},
		{
			name:       "not found",
			mockErr:    fmt.Errorf("auth.GetUser: %w", apperr.ErrNotFound),
			wantStatus: http.StatusNotFound,
			wantBody:   `{"status":"Error","error":"not found"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(ServiceMock)
			svc.On("GetUser", mock.Anything, "u1").Return(tt.user, tt.mockErr).Once()

			req := httptest.NewRequest(http.MethodGet, "/api/auth/admin/users/u1", nil)
			rctx := chi.NewRouteContext()
			rctx.URLParams.Add("id", "u1")
			req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
			rec := httptest.NewRecorder()

			New(newNoopLogger(), svc).ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.JSONEq(t, tt.wantBody, rec.Body.String())
			svc.AssertExpectations(t)
		})
	}
}
