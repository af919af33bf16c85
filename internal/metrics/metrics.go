// Package metrics exposes Prometheus collectors for the scraper service.
package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	scraperCardsProcessedTotal *prometheus.CounterVec
	scraperCardsSkippedTotal   *prometheus.CounterVec
	reconcileTitlesSavedTotal  *prometheus.CounterVec
	reconcileRecordsFailed     *prometheus.CounterVec
	referenceEntitiesCreated   *prometheus.CounterVec

	once sync.Once
)

// Init initializes the Prometheus metrics collectors.
// It is safe to call this function multiple times.
func Init() {
	once.Do(func() {
		scraperCardsProcessedTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "scraper_cards_processed_total",
				Help: "Total listing cards whose detail view was extracted, labeled by title kind.",
			},
			[]string{"kind"},
		)

		scraperCardsSkippedTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "scraper_cards_skipped_total",
				Help: "Total listing cards skipped because the detail view could not be opened.",
			},
			[]string{"kind"},
		)

		reconcileTitlesSavedTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "reconcile_titles_saved_total",
				Help: "Total records fully reconciled into the catalog, labeled by title kind.",
			},
			[]string{"kind"},
		)

		reconcileRecordsFailed = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "reconcile_records_failed_total",
				Help: "Total records skipped because a store operation failed mid-record.",
			},
			[]string{"kind"},
		)

		referenceEntitiesCreated = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "reference_entities_created_total",
				Help: "Total genres and languages created lazily during reconciliation.",
			},
			[]string{"kind"},
		)
	})
}

// Handler returns an http.Handler for exposing Prometheus metrics.
func Handler() http.Handler {
	Init()
	return promhttp.Handler()
}

// ObserveCardProcessed increments the processed-cards counter.
func ObserveCardProcessed(kind string) {
	Init()
	scraperCardsProcessedTotal.WithLabelValues(kind).Inc()
}

// ObserveCardSkipped increments the skipped-cards counter.
func ObserveCardSkipped(kind string) {
	Init()
	scraperCardsSkippedTotal.WithLabelValues(kind).Inc()
}

// ObserveTitleSaved increments the saved-titles counter.
func ObserveTitleSaved(kind string) {
	Init()
	reconcileTitlesSavedTotal.WithLabelValues(kind).Inc()
}

// ObserveRecordFailed increments the failed-records counter.
func ObserveRecordFailed(kind string) {
	Init()
	reconcileRecordsFailed.WithLabelValues(kind).Inc()
}

// ObserveReferenceEntityCreated increments the created-entities counter.
func ObserveReferenceEntityCreated(kind string) {
	Init()
	referenceEntitiesCreated.WithLabelValues(kind).Inc()
}
