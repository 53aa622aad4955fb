package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	CandidatesExpanded = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "briefai_candidates_expanded_total",
		Help: "Total number of candidate articles produced by expansion",
	}, []string{"role"})

	CandidatesDropped = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "briefai_candidates_dropped_total",
		Help: "Total number of candidates dropped before grouping, by reason",
	}, []string{"reason"})

	DuplicatesRemoved = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "briefai_duplicates_removed_total",
		Help: "Total number of candidates removed as duplicates, by strategy",
	}, []string{"strategy"})

	ExtractionFallbacks = promauto.NewCounter(prometheus.CounterOpts{
		Name: "briefai_entity_extraction_fallbacks_total",
		Help: "Total number of entity extractions that fell back to local tagging",
	})

	ScoringFallbacks = promauto.NewCounter(prometheus.CounterOpts{
		Name: "briefai_cluster_scoring_fallbacks_total",
		Help: "Total number of cluster scorings that fell back to the canonical score",
	})

	DegradedRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "briefai_degraded_runs_total",
		Help: "Total number of runs that completed in a degraded mode, by reason",
	}, []string{"reason"})

	ClustersFormed = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "briefai_clusters_formed",
		Help: "Number of clusters formed in the last run, by mode",
	}, []string{"mode"})

	SingletonsRemaining = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "briefai_singletons_remaining",
		Help: "Number of ungrouped candidates in the last run, by mode",
	}, []string{"mode"})

	StageDurationSeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "briefai_stage_duration_seconds",
		Help:    "Duration of each pipeline stage",
		Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30, 60, 120},
	}, []string{"stage"})

	RunDurationSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "briefai_run_duration_seconds",
		Help:    "End to end duration of a dual feed run",
		Buckets: []float64{1, 2, 5, 10, 30, 60, 120, 300, 600},
	})

	RemoteRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "briefai_remote_request_duration_seconds",
		Help:    "Duration of remote model requests",
		Buckets: prometheus.DefBuckets,
	}, []string{"task"})
)
