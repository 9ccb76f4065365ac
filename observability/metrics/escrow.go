package metrics

import (
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// EscrowMetrics tracks the trade lifecycle and dispute outcomes.
type EscrowMetrics struct {
	requestsCreated   *prometheus.CounterVec
	offersCreated     prometheus.Counter
	offerTransitions  *prometheus.CounterVec
	settlements       *prometheus.CounterVec
	claimRejections   prometheus.Counter
	historyMismatches prometheus.Counter
	stakeChanges      *prometheus.CounterVec
	relayPayments     *prometheus.CounterVec
	questionsAsked    prometheus.Counter
	answersSubmitted  prometheus.Counter
}

var (
	escrowOnce     sync.Once
	escrowRegistry *EscrowMetrics
)

// Escrow returns the lazily registered protocol metrics.
func Escrow() *EscrowMetrics {
	escrowOnce.Do(func() {
		escrowRegistry = &EscrowMetrics{
			requestsCreated: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "crosstrade",
				Subsystem: "escrow",
				Name:      "requests_created_total",
				Help:      "Count of deposit+request records by deposit asset kind.",
			}, []string{"asset"}),
			offersCreated: prometheus.NewCounter(prometheus.CounterOpts{
				Namespace: "crosstrade",
				Subsystem: "escrow",
				Name:      "offers_created_total",
				Help:      "Count of offers created.",
			}),
			offerTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "crosstrade",
				Subsystem: "escrow",
				Name:      "offer_transitions_total",
				Help:      "Count of offer accept/reject transitions.",
			}, []string{"transition"}),
			settlements: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "crosstrade",
				Subsystem: "escrow",
				Name:      "settlements_total",
				Help:      "Count of paid offers by claim path.",
			}, []string{"path"}),
			claimRejections: prometheus.NewCounter(prometheus.CounterOpts{
				Namespace: "crosstrade",
				Subsystem: "escrow",
				Name:      "claim_rejections_total",
				Help:      "Count of disputed claims rejected on the merits.",
			}),
			historyMismatches: prometheus.NewCounter(prometheus.CounterOpts{
				Namespace: "crosstrade",
				Subsystem: "escrow",
				Name:      "history_mismatches_total",
				Help:      "Count of disputed claims whose answer history failed verification.",
			}),
			stakeChanges: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "crosstrade",
				Subsystem: "collateral",
				Name:      "stake_changes_total",
				Help:      "Count of stake mutations by direction.",
			}, []string{"direction"}),
			relayPayments: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "crosstrade",
				Subsystem: "relay",
				Name:      "payments_total",
				Help:      "Count of relay payments recorded by id scheme.",
			}, []string{"scheme"}),
			questionsAsked: prometheus.NewCounter(prometheus.CounterOpts{
				Namespace: "crosstrade",
				Subsystem: "arbitration",
				Name:      "questions_total",
				Help:      "Count of arbitration questions asked.",
			}),
			answersSubmitted: prometheus.NewCounter(prometheus.CounterOpts{
				Namespace: "crosstrade",
				Subsystem: "arbitration",
				Name:      "answers_total",
				Help:      "Count of bonded answers accepted.",
			}),
		}
		prometheus.MustRegister(
			escrowRegistry.requestsCreated,
			escrowRegistry.offersCreated,
			escrowRegistry.offerTransitions,
			escrowRegistry.settlements,
			escrowRegistry.claimRejections,
			escrowRegistry.historyMismatches,
			escrowRegistry.stakeChanges,
			escrowRegistry.relayPayments,
			escrowRegistry.questionsAsked,
			escrowRegistry.answersSubmitted,
		)
	})
	return escrowRegistry
}

func label(v string) string {
	trimmed := strings.TrimSpace(v)
	if trimmed == "" {
		return "unknown"
	}
	return trimmed
}

func (m *EscrowMetrics) RecordRequest(asset string) {
	if m == nil {
		return
	}
	m.requestsCreated.WithLabelValues(label(asset)).Inc()
}

func (m *EscrowMetrics) RecordOffer() {
	if m == nil {
		return
	}
	m.offersCreated.Inc()
}

func (m *EscrowMetrics) RecordOfferTransition(transition string) {
	if m == nil {
		return
	}
	m.offerTransitions.WithLabelValues(label(transition)).Inc()
}

func (m *EscrowMetrics) RecordSettlement(path string) {
	if m == nil {
		return
	}
	m.settlements.WithLabelValues(label(path)).Inc()
}

func (m *EscrowMetrics) RecordClaimRejected() {
	if m == nil {
		return
	}
	m.claimRejections.Inc()
}

func (m *EscrowMetrics) RecordHistoryMismatch() {
	if m == nil {
		return
	}
	m.historyMismatches.Inc()
}

func (m *EscrowMetrics) RecordStakeChange(direction string) {
	if m == nil {
		return
	}
	m.stakeChanges.WithLabelValues(label(direction)).Inc()
}

func (m *EscrowMetrics) RecordRelayPayment(scheme string) {
	if m == nil {
		return
	}
	m.relayPayments.WithLabelValues(label(scheme)).Inc()
}

func (m *EscrowMetrics) RecordQuestion() {
	if m == nil {
		return
	}
	m.questionsAsked.Inc()
}

func (m *EscrowMetrics) RecordAnswer() {
	if m == nil {
		return
	}
	m.answersSubmitted.Inc()
}
