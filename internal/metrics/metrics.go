// Package metrics содержит счётчики Prometheus сервиса аутентификации.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Значения метки result.
const (
	ResultSuccess = "success"
	ResultFailure = "failure"
)

// Metrics объединяет счётчики сервиса.
type Metrics struct {
	Signups         *prometheus.CounterVec
	Signins         *prometheus.CounterVec
	SessionsRevoked prometheus.Counter
	Emails          *prometheus.CounterVec
	RateLimited     *prometheus.CounterVec
}

// New создаёт счётчики и регистрирует их в reg. Если reg равен nil,
// счётчики не регистрируются.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Signups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "auth_signups_total",
			Help: "Number of signup attempts by result.",
		}, []string{"result"}),
		Signins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "auth_signins_total",
			Help: "Number of signin attempts by result.",
		}, []string{"result"}),
		SessionsRevoked: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "auth_sessions_revoked_total",
			Help: "Number of sessions revoked by users, admins or cap pruning.",
		}),
		Emails: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "auth_emails_total",
			Help: "Number of emails dispatched by kind and result.",
		}, []string{"kind", "result"}),
		RateLimited: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "auth_rate_limited_total",
			Help: "Number of requests rejected by a rate limit policy.",
		}, []string{"policy"}),
	}
	if reg != nil {
		reg.MustRegister(m.Signups, m.Signins, m.SessionsRevoked, m.Emails, m.RateLimited)
	}
	return m
}

// Result переводит ошибку в значение метки result.
func Result(err error) string {
	if err != nil {
		return ResultFailure
	}
	return ResultSuccess
}
