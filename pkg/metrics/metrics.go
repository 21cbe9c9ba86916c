// Package metrics provides Prometheus metrics for the oracle feeder.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// TicksTotal is a counter of vote ticks by outcome.
	TicksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feeder_ticks_total",
			Help: "Total number of vote ticks by outcome",
		},
		[]string{"outcome"},
	)

	// SourceFetchesTotal is a counter of price source fetches.
	SourceFetchesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feeder_source_fetches_total",
			Help: "Total number of price source fetch attempts by result",
		},
		[]string{"source", "status"},
	)

	// SourceFetchDuration is a histogram of price source fetch latencies.
	SourceFetchDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "feeder_source_fetch_duration_seconds",
			Help:    "Latency of price source fetches",
			Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"source"},
	)

	// VoteSubmissionsTotal is a counter of vote transaction submissions.
	VoteSubmissionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feeder_vote_submissions_total",
			Help: "Total number of vote transaction submissions by status",
		},
		[]string{"status"},
	)

	// VoteInclusionTime is a histogram of broadcast-to-inclusion latencies.
	VoteInclusionTime = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "feeder_vote_inclusion_seconds",
			Help:    "Time from broadcast until the vote transaction is found in a block",
			Buckets: []float64{1, 2, 5, 10, 20, 30, 60},
		},
	)

	// ConfirmedHeight is a gauge of the last confirmed vote height.
	ConfirmedHeight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "feeder_confirmed_height",
			Help: "Block height of the last confirmed vote transaction",
		},
	)

	// RevealMissesTotal is a counter of missed reveals requiring state reset.
	RevealMissesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "feeder_reveal_misses_total",
			Help: "Total number of missed reveals that forced a state reset",
		},
	)

	// GRPCFailoversTotal is a counter of gRPC endpoint failovers.
	GRPCFailoversTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "feeder_grpc_failovers_total",
			Help: "Total number of gRPC endpoint failovers",
		},
	)
)

// Init registers all feeder metrics with the default registry.
func Init() {
	prometheus.MustRegister(
		TicksTotal,
		SourceFetchesTotal,
		SourceFetchDuration,
		VoteSubmissionsTotal,
		VoteInclusionTime,
		ConfirmedHeight,
		RevealMissesTotal,
		GRPCFailoversTotal,
	)
}

// ServeHTTP serves Prometheus metrics on the specified address.
func ServeHTTP(addr, path string) error {
	mux := http.NewServeMux()
	mux.Handle(path, promhttp.Handler())
	server := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return server.ListenAndServe()
}

// RecordTick records the outcome of a vote tick.
func RecordTick(outcome string) {
	TicksTotal.WithLabelValues(outcome).Inc()
}

// RecordSourceFetch records a price source fetch attempt.
func RecordSourceFetch(source, status string, duration time.Duration) {
	SourceFetchesTotal.WithLabelValues(source, status).Inc()
	SourceFetchDuration.WithLabelValues(source).Observe(duration.Seconds())
}

// RecordVoteSubmission records a vote transaction submission.
func RecordVoteSubmission(status string) {
	VoteSubmissionsTotal.WithLabelValues(status).Inc()
}

// RecordConfirmation records a confirmed vote transaction.
func RecordConfirmation(height int64, elapsed time.Duration) {
	ConfirmedHeight.Set(float64(height))
	VoteInclusionTime.Observe(elapsed.Seconds())
}

// RecordRevealMiss records a missed reveal.
func RecordRevealMiss() {
	RevealMissesTotal.Inc()
}

// RecordGRPCFailover records a gRPC endpoint failover.
func RecordGRPCFailover() {
	GRPCFailoversTotal.Inc()
}
