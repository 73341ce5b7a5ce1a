// Package metrics provides Prometheus metrics for the sign-up portal.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "signup"

// Metrics holds the portal's collectors. A nil *Metrics records nothing, so
// services can be built without one in tests.
type Metrics struct {
	InvitesSent        prometheus.Counter
	InvitesSkipped     prometheus.Counter
	BulkJobs           *prometheus.CounterVec
	BulkJobSize        prometheus.Histogram
	AccountsCreated    prometheus.Counter
	TokenVerifications *prometheus.CounterVec
}

// New registers the collectors with reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)

	return &Metrics{
		InvitesSent: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "invites_sent_total",
			Help:      "Invitation emails sent, single and bulk",
		}),
		InvitesSkipped: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "invites_skipped_total",
			Help:      "Invitations skipped because an account already exists",
		}),
		BulkJobs: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bulk_jobs_total",
			Help:      "Finished bulk invitation jobs by outcome",
		}, []string{"outcome"}),
		BulkJobSize: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "bulk_job_size",
			Help:      "Number of addresses per bulk invitation job",
			Buckets:   []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000},
		}),
		AccountsCreated: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "accounts_created_total",
			Help:      "Accounts created through an invitation link",
		}),
		TokenVerifications: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "token_verifications_total",
			Help:      "Invitation token verifications by result",
		}, []string{"result"}),
	}
}

// Bulk job outcomes.
const (
	OutcomeCompleted = "completed"
	OutcomeFailed    = "failed"
)

// Token verification results.
const (
	TokenValid   = "valid"
	TokenExpired = "expired"
	TokenInvalid = "invalid"
)

func (m *Metrics) RecordInvite(sent bool) {
	if m == nil {
		return
	}
	if sent {
		m.InvitesSent.Inc()
	} else {
		m.InvitesSkipped.Inc()
	}
}

// RecordBulkJob records a finished job and the invites it produced.
func (m *Metrics) RecordBulkJob(outcome string, size, sent, skipped int) {
	if m == nil {
		return
	}
	m.BulkJobs.WithLabelValues(outcome).Inc()
	m.BulkJobSize.Observe(float64(size))
	m.InvitesSent.Add(float64(sent))
	m.InvitesSkipped.Add(float64(skipped))
}

func (m *Metrics) RecordAccountCreated() {
	if m == nil {
		return
	}
	m.AccountsCreated.Inc()
}

func (m *Metrics) RecordTokenVerification(result string) {
	if m == nil {
		return
	}
	m.TokenVerifications.WithLabelValues(result).Inc()
}
