package auth

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger"

	_ "github.com/magabrotheeeer/contractforge-auth/docs" // swagger
	"github.com/magabrotheeeer/contractforge-auth/internal/http/handlers/admin/list"
	"github.com/magabrotheeeer/contractforge-auth/internal/http/handlers/admin/read"
	"github.com/magabrotheeeer/contractforge-auth/internal/http/handlers/admin/remove"
	"github.com/magabrotheeeer/contractforge-auth/internal/http/handlers/admin/stats"
	"github.com/magabrotheeeer/contractforge-auth/internal/http/handlers/admin/update"
	"github.com/magabrotheeeer/contractforge-auth/internal/http/handlers/auth/forgotpassword"
	"github.com/magabrotheeeer/contractforge-auth/internal/http/handlers/auth/profile"
	"github.com/magabrotheeeer/contractforge-auth/internal/http/handlers/auth/resetpassword"
	"github.com/magabrotheeeer/contractforge-auth/internal/http/handlers/auth/revokesession"
	"github.com/magabrotheeeer/contractforge-auth/internal/http/handlers/auth/sessions"
	"github.com/magabrotheeeer/contractforge-auth/internal/http/handlers/auth/signin"
	"github.com/magabrotheeeer/contractforge-auth/internal/http/handlers/auth/signup"
	"github.com/magabrotheeeer/contractforge-auth/internal/http/handlers/auth/verifyemail"
	"github.com/magabrotheeeer/contractforge-auth/internal/http/handlers/health"
	"github.com/magabrotheeeer/contractforge-auth/internal/http/middlewarectx"
	"github.com/magabrotheeeer/contractforge-auth/internal/metrics"
	"github.com/magabrotheeeer/contractforge-auth/internal/models"
	authservice "github.com/magabrotheeeer/contractforge-auth/internal/services/auth"
)

// Deps — зависимости маршрутов.
type Deps struct {
	Logger         *slog.Logger
	Service        *authservice.AuthService
	Tokens         middlewarectx.TokenParser
	Sessions       middlewarectx.SessionStore
	General        middlewarectx.Limiter
	Auth           middlewarectx.Limiter
	Metrics        *metrics.Metrics
	MetricsHandler http.Handler
	FrontendURL    string
	Production     bool
}

// RegisterRoutes регистрирует все маршруты приложения.
func RegisterRoutes(r chi.Router, d Deps) {
	logger := d.Logger

	// Глобальные middleware
	r.Use(
		middleware.RequestID,
		middleware.RealIP,
		middlewarectx.RequestLogger(logger),
		middleware.Recoverer,
	)
	r.Use(middlewarectx.SecurityHeaders(d.Production)...)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{d.FrontendURL},
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	r.Get("/health", health.New(logger).ServeHTTP)
	if d.MetricsHandler != nil {
		r.Handle("/metrics", d.MetricsHandler)
	}
	r.Get("/docs/*", httpSwagger.WrapHandler)

	r.Route("/api/auth", func(r chi.Router) {
		r.Use(middlewarectx.RateLimit(logger, d.General, middlewarectx.ClientIP, middlewarectx.Policy{
			Name:    "general",
			Message: "Too many requests from this IP, please try again later",
		}, d.Metrics))

		// Открытые конечные точки
		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.RateLimit(logger, d.Auth, middlewarectx.ClientIP, middlewarectx.Policy{
				Name:    "auth",
				Message: "Too many login attempts, please try again later",
			}, d.Metrics))
			r.Post("/signup", signup.New(logger, d.Service).ServeHTTP)
			r.Post("/signin", signin.New(logger, d.Service).ServeHTTP)
			r.Post("/forgot-password", forgotpassword.New(logger, d.Service).ServeHTTP)
			r.Post("/reset-password/{token}", resetpassword.New(logger, d.Service).ServeHTTP)
		})
		r.Get("/verify-email/{token}", verifyemail.New(logger, d.Service).ServeHTTP)

		// Группа с проверкой сессии
		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.Protect(logger, d.Tokens, d.Sessions, nil))
			r.Get("/profile", profile.New(logger, d.Service).ServeHTTP)
			r.Get("/sessions", sessions.New(logger, d.Service).ServeHTTP)
			r.Delete("/sessions/{token}", revokesession.New(logger, d.Service).ServeHTTP)

			r.Route("/admin", func(r chi.Router) {
				r.Use(middlewarectx.RequireRole(logger, models.RoleAdmin))
				r.Get("/users", list.New(logger, d.Service).ServeHTTP)
				r.Get("/users/{id}", read.New(logger, d.Service).ServeHTTP)
				r.Put("/users/{id}", update.New(logger, d.Service).ServeHTTP)
				r.Delete("/users/{id}", remove.New(logger, d.Service).ServeHTTP)
				r.Get("/stats", stats.New(logger, d.Service).ServeHTTP)
			})
		})
	})
}
