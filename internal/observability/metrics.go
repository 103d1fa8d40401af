package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce        sync.Once
	submissionsTotal    *prometheus.CounterVec
	examTransitions     *prometheus.CounterVec
	apiRequestsTotal    *prometheus.CounterVec
	apiLatencySeconds   *prometheus.HistogramVec
	rankingBuildSeconds prometheus.Histogram
)

// RegisterMetrics initialises the Prometheus collectors used across the API.
func RegisterMetrics() {
	registerOnce.Do(func() {
		submissionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "kuis_submissions_total",
			Help: "Quiz submissions processed, labelled by outcome.",
		}, []string{"outcome"})

		examTransitions = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "kuis_exam_transitions_total",
			Help: "Exam lifecycle transitions, including lazy expiries.",
		}, []string{"transition"})

		apiRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "kuis_api_requests_total",
			Help: "Total number of API requests served.",
		}, []string{"method", "route", "status"})

		apiLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "kuis_api_latency_seconds",
			Help:    "Latency distribution for API requests.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0},
		}, []string{"method", "route"})

		rankingBuildSeconds = prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "kuis_ranking_build_seconds",
			Help:    "Time spent recomputing leaderboards from the result set.",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5},
		})

		prometheus.MustRegister(submissionsTotal, examTransitions, apiRequestsTotal, apiLatencySeconds, rankingBuildSeconds)
	})
}

// Submissions exposes the submission outcome counter.
func Submissions() *prometheus.CounterVec {
	RegisterMetrics()
	return submissionsTotal
}

// ExamTransitions exposes the exam lifecycle transition counter.
func ExamTransitions() *prometheus.CounterVec {
	RegisterMetrics()
	return examTransitions
}

// APIRequests exposes the request counter.
func APIRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return apiRequestsTotal
}

// APILatency exposes the latency histogram.
func APILatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return apiLatencySeconds
}

// RankingBuild exposes the leaderboard recomputation histogram.
func RankingBuild() prometheus.Histogram {
	RegisterMetrics()
	return rankingBuildSeconds
}
