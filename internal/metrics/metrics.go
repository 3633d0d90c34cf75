package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	"net/http"
	"sync"
)

var (
	ErrorsCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jobmatch_errors_total",
			Help: "Total number of occurred errors.",
		},
		[]string{"type"},
	)
	ScoringRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jobmatch_scoring_requests_total",
			Help: "Requests sent to the scoring service by operation and outcome.",
		},
		[]string{"operation", "outcome"},
	)
	ScoringDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "jobmatch_scoring_request_duration_seconds",
			Help:    "Duration of scoring service requests in seconds.",
			Buckets: []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"operation"},
	)
	CacheLookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jobmatch_score_cache_lookups_total",
			Help: "Score cache lookups by result (hit, stale, miss, corrupt).",
		},
		[]string{"result"},
	)
	RankingDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "jobmatch_ranking_duration_seconds",
			Help:    "Duration of producing a ranked job list.",
			Buckets: prometheus.DefBuckets,
		},
	)
	RankingFallbacks = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "jobmatch_ranking_fallbacks_total",
			Help: "Ranked listings served from cached scores after a scoring failure.",
		},
	)
	BackgroundTasks = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jobmatch_scoring_tasks_total",
			Help: "Background application scoring tasks by outcome.",
		},
		[]string{"outcome"},
	)
)

var registerOnce sync.Once

func Register() {
	registerOnce.Do(func() {
		prometheus.MustRegister(ErrorsCounter)
		prometheus.MustRegister(ScoringRequests)
		prometheus.MustRegister(ScoringDuration)
		prometheus.MustRegister(CacheLookups)
		prometheus.MustRegister(RankingDuration)
		prometheus.MustRegister(RankingFallbacks)
		prometheus.MustRegister(BackgroundTasks)
	})
}

func StartMetricsServer(address string) {

	Register()

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	go func() {
		if err := http.ListenAndServe(address, mux); err != nil {
			log.Errorf("metrics server stopped: %v", err)
		}
	}()
}
