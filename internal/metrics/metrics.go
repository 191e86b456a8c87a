// Package metrics содержит счётчики Prometheus для процесса регистрации.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Signup считает исходы регистрации и подтверждения.
type Signup struct {
	signups     *prometheus.CounterVec
	pendings    *prometheus.CounterVec
	mailFailure prometheus.Counter
}

// NewSignup создаёт счётчики и регистрирует их в reg.
func NewSignup(reg prometheus.Registerer) *Signup {
	m := &Signup{
		signups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "signup",
			Name:      "requests_total",
			Help:      "Signup requests by outcome.",
		}, []string{"outcome"}),
		pendings: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "signup",
			Name:      "pending_completions_total",
			Help:      "Pending registration completions by outcome.",
		}, []string{"outcome"}),
		mailFailure: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "signup",
			Name:      "mail_publish_failures_total",
			Help:      "Confirmation emails that could not be queued.",
		}),
	}
	reg.MustRegister(m.signups, m.pendings, m.mailFailure)
	return m
}

func (m *Signup) SignupOutcome(outcome string) {
	m.signups.WithLabelValues(outcome).Inc()
}

func (m *Signup) PendingOutcome(outcome string) {
	m.pendings.WithLabelValues(outcome).Inc()
}

func (m *Signup) MailPublishFailed() {
	m.mailFailure.Inc()
}
