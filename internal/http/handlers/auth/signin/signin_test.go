package signin

import (
	"bytes"
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

	"github.com/magabrotheeeer/contractforge-auth/internal/lib/apperr"
	"github.com/magabrotheeeer/contractforge-auth/internal/models"
	services "github.com/magabrotheeeer/contractforge-auth/internal/services/auth"
)

type ServiceMock struct {
	mock.Mock
}

func (m *ServiceMock) Signin(ctx context.Context, email, password, device, ip string) (services.SigninResult, error) {
	args := m.Called(ctx, email, password, device, ip)
	return args.Get(0).(services.SigninResult), args.Error(1)
}

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func doSignin(t *testing.T, h http.Handler, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/auth/signin", bytes.NewBufferString(body))
	req.Header.Set("User-Agent", "Firefox")
	req.RemoteAddr = "198.51.100.4:3333"
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var got map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	return rec, got
}

func TestSigninHandler_Success(t *testing.T) {
	svc := new(ServiceMock)
	res := services.SigninResult{
		Token: "jwt-token",
		User:  models.PublicUser{ID: "u1", Name: "Alice", Email: "alice@example.com", Role: models.RoleUser},
	}
	svc.On("Signin", mock.Anything, "alice@example.com", "secret123", "Firefox", "198.51.100.4").Return(res, nil).Once()

	rec, got := doSignin(t, New(newNoopLogger(), svc), `{"email":"alice@example.com","password":"secret123"}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	data, ok := got["data"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "jwt-token", data["token"])
	user, ok := data["user"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "u1", user["id"])
	assert.Equal(t, "user", user["role"])
	assert.NotContains(t, rec.Body.String(), "secret123")
	svc.AssertExpectations(t)
}

func TestSigninHandler_Failures(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		mockErr    error
		wantStatus int
		wantError  string
	}{
		{name: "bad json", body: `{`, wantStatus: http.StatusBadRequest, wantError: "invalid request body"},
		{name: "missing email", body: `{"password":"x"}`, wantStatus: http.StatusBadRequest, wantError: "field Email is a required field"},
		{
			name:       "invalid credentials",
			body:       `{"email":"alice@example.com","password":"wrong"}`,
			mockErr:    fmt.Errorf("auth.Signin: %w", apperr.ErrInvalidCredentials),
			wantStatus: http.StatusUnauthorized,
			wantError:  "invalid credentials",
		},
		{
			name:       "email not verified",
			body:       `{"email":"alice@example.com","password":"wrong"}`,
			mockErr:    fmt.Errorf("auth.Signin: %w", apperr.ErrEmailNotVerified),
			wantStatus: http.StatusUnauthorized,
			wantError:  "please verify your email first",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(ServiceMock)
			if tt.mockErr != nil {
				svc.On("Signin", mock.Anything, "alice@example.com", "wrong", mock.Anything, mock.Anything).
					Return(services.SigninResult{}, tt.mockErr).Once()
			}

			rec, got := doSignin(t, New(newNoopLogger(), svc), tt.body)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, "Error", got["status"])
			assert.Equal(t, tt.wantError, got["error"])
			svc.AssertExpectations(t)
		})
	}
}
