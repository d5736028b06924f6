// Package metrics exposes engine counters over Prometheus.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jwyneal/typequiz/internal/services"
)

// Collector counts session-engine events. It satisfies
// services.EngineMetrics.
type Collector struct {
	sessionsStarted   prometheus.Counter
	cooldownRejected  prometheus.Counter
	answersRecorded   prometheus.Counter
	staleDropped      prometheus.Counter
	sessionsCompleted *prometheus.CounterVec
	ledgerWriteFail   prometheus.Counter
}

// NewCollector registers all counters on reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		sessionsStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "typequiz_sessions_started_total",
			Help: "Quiz sessions created.",
		}),
		cooldownRejected: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "typequiz_cooldown_rejected_total",
			Help: "Start attempts rejected by the retake cooldown.",
		}),
		answersRecorded: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "typequiz_answers_recorded_total",
			Help: "Answers accepted and scored.",
		}),
		staleDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "typequiz_stale_answers_dropped_total",
			Help: "Duplicate or late answer actions silently discarded.",
		}),
		sessionsCompleted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "typequiz_sessions_completed_total",
			Help: "Finalized sessions by resulting type label.",
		}, []string{"label"}),
		ledgerWriteFail: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "typequiz_ledger_write_failures_total",
			Help: "Cooldown ledger writes that failed after retry.",
		}),
	}

	reg.MustRegister(
		c.sessionsStarted,
		c.cooldownRejected,
		c.answersRecorded,
		c.staleDropped,
		c.sessionsCompleted,
		c.ledgerWriteFail,
	)

	return c
}

func (c *Collector) SessionStarted()   { c.sessionsStarted.Inc() }
func (c *Collector) CooldownRejected() { c.cooldownRejected.Inc() }
func (c *Collector) AnswerRecorded()   { c.answersRecorded.Inc() }
func (c *Collector) StaleDropped()     { c.staleDropped.Inc() }

func (c *Collector) SessionCompleted(label services.TypeLabel) {
	c.sessionsCompleted.WithLabelValues(string(label)).Inc()
}

func (c *Collector) LedgerWriteFailed() { c.ledgerWriteFail.Inc() }

// Handler serves the registry in the Prometheus exposition format.
func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}

var _ services.EngineMetrics = (*Collector)(nil)
