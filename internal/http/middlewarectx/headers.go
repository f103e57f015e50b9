package middlewarectx

import (
	"net/http"

	"github.com/go-chi/chi/middleware"
)

// SecurityHeaders возвращает набор middleware, выставляющих защитные заголовки.
// Strict-Transport-Security добавляется только в production.
func SecurityHeaders(production bool) []func(http.Handler) http.Handler {
	mws := []func(http.Handler) http.Handler{
		middleware.SetHeader("X-Content-Type-Options", "nosniff"),
		middleware.SetHeader("X-Frame-Options", "DENY"),
		middleware.SetHeader("Referrer-Policy", "no-referrer"),
		middleware.SetHeader("X-XSS-Protection", "0"),
	}
	if production {
		mws = append(mws, middleware.SetHeader("Strict-Transport-Security", "max-age=15552000; includeSubDomains"))
	}
	return mws
}
