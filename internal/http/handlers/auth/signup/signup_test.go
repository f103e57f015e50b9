package signup

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/contractforge-auth/internal/lib/apperr"
)

type ServiceMock struct {
	mock.Mock
}

func (m *ServiceMock) Signup(ctx context.Context, name, email, password string) error {
	args := m.Called(ctx, name, email, password)
	return args.Error(0)
}

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func TestSignupHandler_ServeHTTP(t *testing.T) {
	valid := Request{Name: "Alice", Email: "alice@example.com", Password: "secret123"}

	tests := []struct {
		name           string
		requestBody    any
		mockErr        error
		callService    bool
		wantStatusCode int
		wantStatus     string
		wantError      string
	}{
		{
			name:           "valid signup",
			requestBody:    valid,
			callService:    true,
			wantStatusCode: http.StatusCreated,
			wantStatus:     "OK",
		},
		{
			name:           "invalid json body",
			requestBody:    "not a json",
			wantStatusCode: http.StatusBadRequest,
			wantStatus:     "Error",
			wantError:      "invalid request body",
		},
		{
			name:           "missing password",
			requestBody:    Request{Name: "Alice", Email: "alice@example.com"},
			wantStatusCode: http.StatusBadRequest,
			wantStatus:     "Error",
			wantError:      "field Password is a required field",
		},
		{
			name:           "malformed email",
			requestBody:    Request{Name: "Alice", Email: "alice", Password: "secret123"},
			wantStatusCode: http.StatusBadRequest,
			wantStatus:     "Error",
			wantError:      "field Email must be a valid email",
		},
		{
			name:           "duplicate email",
			requestBody:    valid,
			mockErr:        fmt.Errorf("auth.Signup: %w", apperr.ErrConflict),
			callService:    true,
			wantStatusCode: http.StatusBadRequest,
			wantStatus:     "Error",
			wantError:      "email already registered",
		},
		{
			name:           "internal failure",
			requestBody:    valid,
			mockErr:        errors.New("hash failure"),
			callService:    true,
			wantStatusCode: http.StatusInternalServerError,
			wantStatus:     "Error",
			wantError:      "internal error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(ServiceMock)
			if tt.callService {
				svc.On("Signup", mock.Anything, valid.Name, valid.Email, valid.Password).Return(tt.mockErr).Once()
			}
			handler := New(newNoopLogger(), svc)

			var body []byte
			if s, ok := tt.requestBody.(string); ok {
				body = []byte(s)
			} else {
				var err error
				body, err = json.Marshal(tt.requestBody)
				require.NoError(t, err)
			}

			req := httptest.NewRequest(http.MethodPost, "/api/auth/signup", bytes.NewReader(body))
			req = req.WithContext(context.WithValue(req.Context(), middleware.RequestIDKey, "reqid123"))
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatusCode, rec.Code)

			var got map[string]any
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
			assert.Equal(t, tt.wantStatus, got["status"])
			if tt.wantError != "" {
				assert.Equal(t, tt.wantError, got["error"])
			} else {
				assert.Nil(t, got["error"])
				assert.NotEmpty(t, got["message"])
			}
			assert.NotContains(t, fmt.Sprint(got), valid.Password)

			svc.AssertExpectations(t)
		})
	}
}
