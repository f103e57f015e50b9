package resetpassword

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/contractforge-auth/internal/lib/apperr"
)

type ServiceMock struct {
	mock.Mock
}

func (m *ServiceMock) ResetPassword(ctx context.Context, token, newPassword string) error {
	return m.Called(ctx, token, newPassword).Error(0)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

func TestResetPasswordHandler(t *testing.T) {
	tests := []struct {
		name        string
		body        string
		callService bool
		mockErr     error
		wantStatus  int
		wantBody    string
	}{
		{
			name:        "reset",
			body:        `{"password":"newsecret"}`,
			callService: true,
			wantStatus:  http.StatusOK,
			wantBody:    `{"status":"OK","message":"Password reset successful"}`,
		},
		{
			name:        "expired token",
			body:        `{"password":"newsecret"}`,
			callService: true,
			mockErr:     fmt.Errorf("auth.ResetPassword: %w", apperr.ErrInvalidToken),
			wantStatus:  http.StatusBadRequest,
			wantBody:    `{"status":"Error","error":"invalid or expired token"}`,
		},
		{
			name:       "short password",
			body:       `{"password":"123"}`,
			wantStatus: http.StatusBadRequest,
			wantBody:   `{"status":"Error","error":"field Password must be at least 6 characters long"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(ServiceMock)
			if tt.callService {
				svc.On("ResetPassword", mock.Anything, "tok", "newsecret").Return(tt.mockErr).Once()
			}

			req := httptest.NewRequest(http.MethodPost, "/api/auth/reset-password/tok", bytes.NewBufferString(tt.body))
			rctx := chi.NewRouteContext()
			rctx.URLParams.Add("token", "tok")
			req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
			rec := httptest.NewRecorder()

			New(newNoopLogger(), svc).ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.JSONEq(t, tt.wantBody, rec.Body.String())
			assert.NotContains(t, rec.Body.String(), "newsecret")
			svc.AssertExpectations(t)
		})
	}
}
