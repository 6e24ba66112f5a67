package services

import "github.com/prometheus/client_golang/prometheus"

var (
	searchesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "searches_total",
			Help: "Total number of searches executed, by collection type.",
		},
		[]string{"collection_type"},
	)
	searchDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "search_duration_seconds",
			Help:    "Time spent running a provider query and transforming its results.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"collection_type"},
	)
	historyFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "search_history_failures_total",
			Help: "Searches whose history entry could not be written.",
		},
	)
	papersImported = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "papers_imported_total",
			Help: "Total number of new scientific papers added by the importer.",
		},
		[]string{"source"},
	)
)

func init() {
	prometheus.MustRegister(searchesTotal, searchDuration, historyFailures, papersImported)
}
