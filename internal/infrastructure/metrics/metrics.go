package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// NegotiationMetrics содержит все метрики переговоров по спорам
type NegotiationMetrics struct {
	// Споры
	DisputesCreatedTotal   *prometheus.CounterVec
	InvitationsIssuedTotal prometheus.Counter
	CounterpartiesJoined   prometheus.Counter

	// Переходы состояний
	NegotiationEventsTotal *prometheus.CounterVec
	SettlementsTotal       prometheus.Counter
	RejectedActionsTotal   *prometheus.CounterVec

	// Генерация предложений
	GenerationAttemptsTotal *prometheus.CounterVec
	GenerationDuration      *prometheus.HistogramVec
	GenerationInFlight      prometheus.Gauge
	GenerationSkippedTotal  *prometheus.CounterVec
	StaleLeasesReleased     prometheus.Counter

	// Ошибки
	PublishErrorsTotal *prometheus.CounterVec
}

// NewNegotiationMetrics registers the collectors on reg. Pass
// prometheus.DefaultRegisterer in production and a fresh registry in tests.
func NewNegotiationMetrics(reg prometheus.Registerer) *NegotiationMetrics {
	factory := promauto.With(reg)
	return &NegotiationMetrics{
		DisputesCreatedTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "settlement",
				Name:      "disputes_created_total",
				Help:      "Disputes opened, by how the counterparty was resolved",
			},
			[]string{"counterparty"},
		),
		InvitationsIssuedTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "settlement",
			Name:      "invitations_issued_total",
			Help:      "Invitation tokens minted for unknown counterparties",
		}),
		CounterpartiesJoined: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "settlement",
			Name:      "counterparties_joined_total",
			Help:      "Invitation tokens redeemed",
		}),

		NegotiationEventsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "settlement",
				Subsystem: "negotiation",
				Name:      "events_total",
				Help:      "Committed negotiation events by resulting status",
			},
			[]string{"event", "status"},
		),
		SettlementsTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "settlement",
			Subsystem: "negotiation",
			Name:      "settled_total",
			Help:      "Disputes that reached ACCEPTED_ALL",
		}),
		RejectedActionsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "settlement",
				Subsystem: "negotiation",
				Name:      "rejected_actions_total",
				Help:      "Party actions rejected by the state machine",
			},
			[]string{"action", "reason"},
		),

		GenerationAttemptsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "settlement",
				Subsystem: "generation",
				Name:      "attempts_total",
				Help:      "Proposal generation attempts by outcome",
			},
			[]string{"outcome"},
		),
		GenerationDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "settlement",
				Subsystem: "generation",
				Name:      "duration_seconds",
				Help:      "Time spent in the external proposal generator",
				Buckets:   []float64{1, 5, 15, 30, 60, 120, 180, 300},
			},
			[]string{"outcome"},
		),
		GenerationInFlight: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "settlement",
			Subsystem: "generation",
			Name:      "in_flight",
			Help:      "Generations currently holding a lease",
		}),
		GenerationSkippedTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "settlement",
				Subsystem: "generation",
				Name:      "skipped_total",
				Help:      "Dispatches that did not call the generator",
			},
			[]string{"reason"},
		),
		StaleLeasesReleased: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "settlement",
			Subsystem: "generation",
			Name:      "stale_leases_released_total",
			Help:      "Generation leases released by the reaper",
		}),

		PublishErrorsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "settlement",
				Name:      "publish_errors_total",
				Help:      "Events that could not be published",
			},
			[]string{"kind"},
		),
	}
}

func (m *NegotiationMetrics) RecordDisputeCreated(counterparty string) {
	if m == nil {
		return
	}
	m.DisputesCreatedTotal.WithLabelValues(counterparty).Inc()
}

func (m *NegotiationMetrics) RecordInvitationIssued() {
	if m == nil {
		return
	}
	m.InvitationsIssuedTotal.Inc()
}

func (m *NegotiationMetrics) RecordCounterpartyJoined() {
	if m == nil {
		return
	}
	m.CounterpartiesJoined.Inc()
}

func (m *NegotiationMetrics) RecordEvent(event, status string) {
	if m == nil {
		return
	}
	m.NegotiationEventsTotal.WithLabelValues(event, status).Inc()
}

func (m *NegotiationMetrics) RecordSettled() {
	if m == nil {
		return
	}
	m.SettlementsTotal.Inc()
}

func (m *NegotiationMetrics) RecordRejected(action, reason string) {
	if m == nil {
		return
	}
	m.RejectedActionsTotal.WithLabelValues(action, reason).Inc()
}

func (m *NegotiationMetrics) GenerationStarted() {
	if m == nil {
		return
	}
	m.GenerationInFlight.Inc()
}

func (m *NegotiationMetrics) GenerationFinished(outcome string, took time.Duration) {
	if m == nil {
		return
	}
	m.GenerationInFlight.Dec()
	m.GenerationAttemptsTotal.WithLabelValues(outcome).Inc()
	m.GenerationDuration.WithLabelValues(outcome).Observe(took.Seconds())
}

func (m *NegotiationMetrics) RecordGenerationSkipped(reason string) {
	if m == nil {
		return
	}
	m.GenerationSkippedTotal.WithLabelValues(reason).Inc()
}

func (m *NegotiationMetrics) RecordStaleLeasesReleased(n int64) {
	if m == nil {
		return
	}
	m.StaleLeasesReleased.Add(float64(n))
}

func (m *NegotiationMetrics) RecordPublishError(kind string) {
	if m == nil {
		return
	}
	m.PublishErrorsTotal.WithLabelValues(kind).Inc()
}
