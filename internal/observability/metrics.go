package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "dispatch"

var (
	AssignmentsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "assignments_total", Help: "Matching attempts by outcome"},
		[]string{"outcome"},
	)
	AssignmentLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "assignment_latency_seconds",
		Help:      "Time spent choosing and claiming a rider",
		Buckets:   prometheus.DefBuckets,
	})
	ClaimConflictsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "claim_conflicts_total",
		Help:      "Rider claims lost to a concurrent order",
	})
	CandidateRiders = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "candidate_riders",
		Help:      "Available riders scanned per match",
		Buckets:   []float64{0, 1, 2, 5, 10, 25, 50, 100, 250},
	})
	OrdersTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "orders_total", Help: "Order transitions by status"},
		[]string{"status"},
	)
	FeedClients = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "feed_clients",
		Help:      "Connected websocket feed clients",
	})

	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "http_requests_total", Help: "Total HTTP requests handled"},
		[]string{"method", "path", "status"},
	)
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency distribution",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)

// Assignment outcomes.
const (
	OutcomeAssigned = "assigned"
	OutcomeNoRider  = "no_rider"
	OutcomeError    = "error"
)
