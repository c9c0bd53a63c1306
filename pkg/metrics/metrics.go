// Package metrics provides Prometheus metrics for the Beacon service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ScansTotal tracks match scans by what triggered them
	ScansTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "beacon",
			Subsystem: "matching",
			Name:      "scans_total",
			Help:      "Total number of match scans by trigger",
		},
		[]string{"trigger"},
	)

	// ScanDuration tracks scan duration in seconds
	ScanDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "beacon",
			Subsystem: "matching",
			Name:      "scan_duration_seconds",
			Help:      "Duration of match scans in seconds",
			Buckets:   []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
	)

	// ProposalsCreatedTotal tracks new matches written by scans
	ProposalsCreatedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "beacon",
			Subsystem: "matching",
			Name:      "proposals_created_total",
			Help:      "Total number of new match proposals persisted",
		},
	)

	// ProposalsDuplicateTotal tracks proposals skipped because the pair already had a match
	ProposalsDuplicateTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "beacon",
			Subsystem: "matching",
			Name:      "proposals_duplicate_total",
			Help:      "Total number of proposals skipped for an existing pair",
		},
	)

	// MatchesResolvedTotal tracks staff decisions by outcome
	MatchesResolvedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "beacon",
			Subsystem: "review",
			Name:      "matches_resolved_total",
			Help:      "Total number of match resolutions by status",
		},
		[]string{"status"},
	)

	// ConsumerMessagesTotal tracks item events consumed by outcome
	ConsumerMessagesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "beacon",
			Subsystem: "consumer",
			Name:      "messages_total",
			Help:      "Total number of item events processed by outcome",
		},
		[]string{"outcome"},
	)
)
