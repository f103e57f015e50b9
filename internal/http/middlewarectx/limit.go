package middlewarectx

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"golang.org/x/time/rate"

	"github.com/magabrotheeeer/contractforge-auth/internal/http/response"
	"github.com/magabrotheeeer/contractforge-auth/internal/lib/sl"
	"github.com/magabrotheeeer/contractforge-auth/internal/metrics"
)

// Limiter решает, укладывается ли очередной запрос клиента key в бюджет.
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// KeyFunc возвращает ключ клиента, по которому считается бюджет.
type KeyFunc func(r *http.Request) string

// Policy описывает политику ограничения: имя для метрик и текст ответа 429.
type Policy struct {
	Name    string
	Message string
}

// ClientIP возвращает адрес клиента без порта. Ожидает, что middleware.RealIP
// уже подставил адрес из X-Forwarded-For/X-Real-IP.
func ClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// RateLimit возвращает middleware, отвечающий 429, когда клиент исчерпал бюджет.
// Ошибки limiter логируются, запрос при этом пропускается.
func RateLimit(log *slog.Logger, limiter Limiter, keyFunc KeyFunc, policy Policy, m *metrics.Metrics) func(http.Handler) http.Handler {
	if keyFunc == nil {
		keyFunc = ClientIP
	}
	// при недоступном хранилище счётчиков ошибка пишется не чаще раза в интервал
	errLog := &rate.Sometimes{First: 1, Interval: limiterErrorLogInterval}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			const op = "middlewarectx.RateLimit"

			key := keyFunc(r)
			allowed, err := limiter.Allow(r.Context(), key)
			if err != nil {
				errLog.Do(func() {
					log.Error("rate limiter unavailable",
						slog.String("op", op),
						slog.String("policy", policy.Name),
						sl.Err(err),
					)
				})
				next.ServeHTTP(w, r)
				return
			}
			if !allowed {
				log.Warn("too many requests",
					slog.String("op", op),
					slog.String("request_id", middleware.GetReqID(r.Context())),
					slog.String("policy", policy.Name),
					slog.String("client", key),
				)
				if m != nil {
					m.RateLimited.WithLabelValues(policy.Name).Inc()
				}
				render.Status(r, http.StatusTooManyRequests)
				render.JSON(w, r, response.Error(policy.Message))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// limiterErrorLogInterval ограничивает частоту записи ошибок limiter в лог.
const limiterErrorLogInterval = 10 * time.Second

// maxIdleClients — после этого числа клиентов LocalLimiter удаляет клиентов с истёкшим окном.
const maxIdleClients = 10000

type clientWindow struct {
	start time.Time
	count int
}

// LocalLimiter — ограничитель в памяти процесса с фиксированным окном на каждого
// клиента: не больше limit запросов с начала окна, окно начинается с первого запроса.
// Считает так же, как cache.WindowLimiter.
type LocalLimiter struct {
	mu      sync.Mutex
	clients map[string]*clientWindow
	limit   int
	window  time.Duration
	now     func() time.Time
}

// LimiterOption настраивает LocalLimiter.
type LimiterOption func(*LocalLimiter)

// WithLimiterClock подменяет источник времени (для тестов).
func WithLimiterClock(now func() time.Time) LimiterOption {
	return func(l *LocalLimiter) {
		l.now = now
	}
}

// NewLocalLimiter создаёт ограничитель на limit запросов за window.
func NewLocalLimiter(limit int, window time.Duration, opts ...LimiterOption) *LocalLimiter {
	if limit < 1 {
		limit = 1
	}
	l := &LocalLimiter{
		clients: make(map[string]*clientWindow),
		limit:   limit,
		window:  window,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Allow реализует Limiter. Никогда не возвращает ошибку.
func (l *LocalLimiter) Allow(_ context.Context, key string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	w, ok := l.clients[key]
	if !ok || !now.Before(w.start.Add(l.window)) {
		if !ok && len(l.clients) >= maxIdleClients {
			l.pruneLocked(now)
		}
		w = &clientWindow{start: now}
		l.clients[key] = w
	}
	w.count++
	return w.count <= l.limit, nil
}

// pruneLocked удаляет клиентов, чьё окно уже закончилось.
func (l *LocalLimiter) pruneLocked(now time.Time) {
	for key, w := range l.clients {
		if !now.Before(w.start.Add(l.window)) {
			delete(l.clients, key)
		}
	}
}
