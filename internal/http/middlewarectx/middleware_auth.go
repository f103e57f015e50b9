// Package middlewarectx содержит HTTP middleware сервиса аутентификации.
//
// Protect проверяет токен сессии в заголовке Authorization, сверяет его с
// активной сессией в хранилище и кладёт пользователя в контекст запроса.
// RequireRole пропускает только пользователей с нужной ролью.
// RateLimit ограничивает частоту запросов с одного клиента.
package middlewarectx

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/contractforge-auth/internal/http/response"
	"github.com/magabrotheeeer/contractforge-auth/internal/lib/apperr"
	"github.com/magabrotheeeer/contractforge-auth/internal/lib/jwt"
	"github.com/magabrotheeeer/contractforge-auth/internal/lib/sl"
	"github.com/magabrotheeeer/contractforge-auth/internal/models"
)

// Key тип для ключей контекста HTTP-запроса.
type Key string

// User — ключ для аутентифицированного пользователя в контексте.
const User Key = "user"

// TokenParser проверяет подпись и срок действия токена сессии.
type TokenParser interface {
	ParseToken(tokenStr string) (*jwt.CustomClaims, error)
}

// SessionStore — часть хранилища, нужная для проверки сессии.
type SessionStore interface {
	FindUserByID(ctx context.Context, id string) (models.User, error)
	FindSessionByToken(ctx context.Context, token string) (models.Session, error)
	TouchSession(ctx context.Context, token string, at time.Time) error
}

// UserFromContext возвращает пользователя, которого положил Protect.
func UserFromContext(ctx context.Context) (models.User, bool) {
	user, ok := ctx.Value(User).(models.User)
	return user, ok
}

// WithUser кладёт пользователя в контекст.
func WithUser(ctx context.Context, user models.User) context.Context {
	return context.WithValue(ctx, User, user)
}

// Protect возвращает middleware, пропускающий только запросы с действующей сессией.
//
// Токен должен быть корректно подписан, не истёк, принадлежать существующему
// пользователю и совпадать с сессией этого пользователя в хранилище.
// Отозванные сессии и сессии удалённых пользователей отклоняются с 401.
func Protect(log *slog.Logger, parser TokenParser, store SessionStore, now func() time.Time) func(http.Handler) http.Handler {
	if now == nil {
		now = time.Now
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			const op = "middlewarectx.Protect"

			log := log.With(
				slog.String("op", op),
				slog.String("request_id", middleware.GetReqID(r.Context())),
			)

			tokenStr, ok := bearerToken(r.Header.Get("Authorization"))
			if !ok {
				log.Info("missing or invalid authorization header")
				unauthorized(w, r, apperr.ErrUnauthorized.Error())
				return
			}

			claims, err := parser.ParseToken(tokenStr)
			if err != nil {
				log.Info("invalid or expired token", sl.Err(err))
				unauthorized(w, r, apperr.ErrUnauthorized.Error())
				return
			}

			user, err := store.FindUserByID(r.Context(), claims.UserID)
			if err != nil {
				log.Info("token owner not found", slog.String("user_id", claims.UserID))
				unauthorized(w, r, "user not found")
				return
			}

			session, err := store.FindSessionByToken(r.Context(), tokenStr)
			if err != nil || session.UserID != user.ID {
				log.Info("session is revoked or belongs to another user", slog.String("user_id", user.ID))
				unauthorized(w, r, "invalid session")
				return
			}

			if err := store.TouchSession(r.Context(), tokenStr, now()); err != nil {
				log.Info("failed to touch session", slog.String("session_id", session.ID), sl.Err(err))
				unauthorized(w, r, "invalid session")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
		})
	}
}

// RequireRole возвращает middleware, пропускающий только пользователей с ролью role.
// Должен стоять после Protect.
func RequireRole(log *slog.Logger, role models.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			const op = "middlewarectx.RequireRole"

			user, ok := UserFromContext(r.Context())
			if !ok {
				unauthorized(w, r, apperr.ErrUnauthorized.Error())
				return
			}
			if user.Role != role {
				log.Info("access denied",
					slog.String("op", op),
					slog.String("request_id", middleware.GetReqID(r.Context())),
					slog.String("user_id", user.ID),
					slog.String("role", string(user.Role)),
				)
				render.Status(r, http.StatusForbidden)
				render.JSON(w, r, response.Error("user role "+string(user.Role)+" is not authorized to access this route"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func bearerToken(header string) (string, bool) {
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || scheme != "Bearer" {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func unauthorized(w http.ResponseWriter, r *http.Request, msg string) {
	render.Status(r, http.StatusUnauthorized)
	render.JSON(w, r, response.Error(msg))
}
