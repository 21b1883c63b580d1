package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	ScrapeRuns         prometheus.Counter
	TendersIngested    prometheus.Counter
	TendersSkipped     prometheus.Counter
	BatchesClassified  prometheus.Counter
	TendersQualified   prometheus.Counter
	TendersUnqualified prometheus.Counter
	NotifySuccesses    prometheus.Counter
	NotifyFailures     prometheus.Counter
	PipelineFailures   prometheus.Counter
	WaitingBacklog     prometheus.Gauge
	RunDuration        prometheus.Histogram
}

// NewMetrics creates metrics registered on the default registerer
func NewMetrics() *Metrics {
	return NewMetricsWith(prometheus.DefaultRegisterer)
}

// NewMetricsWith creates metrics registered on the given registerer
func NewMetricsWith(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		ScrapeRuns: factory.NewCounter(prometheus.CounterOpts{
			Name: "tender_scout_scrape_runs",
			Help: "Total number of source scrape operations",
		}),
		TendersIngested: factory.NewCounter(prometheus.CounterOpts{
			Name: "tender_scout_tenders_ingested",
			Help: "Total number of new tenders created by the ingestion gate",
		}),
		TendersSkipped: factory.NewCounter(prometheus.CounterOpts{
			Name: "tender_scout_tenders_skipped",
			Help: "Total number of candidates skipped as duplicates",
		}),
		BatchesClassified: factory.NewCounter(prometheus.CounterOpts{
			Name: "tender_scout_batches_classified",
			Help: "Total number of batches submitted to the classifier",
		}),
		TendersQualified: factory.NewCounter(prometheus.CounterOpts{
			Name: "tender_scout_tenders_qualified",
			Help: "Total number of tenders marked qualified",
		}),
		TendersUnqualified: factory.NewCounter(prometheus.CounterOpts{
			Name: "tender_scout_tenders_unqualified",
			Help: "Total number of tenders marked unqualified",
		}),
		NotifySuccesses: factory.NewCounter(prometheus.CounterOpts{
			Name: "tender_scout_notify_successes",
			Help: "Total number of successful tender notifications",
		}),
		NotifyFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "tender_scout_notify_failures",
			Help: "Total number of failed tender notifications",
		}),
		PipelineFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "tender_scout_pipeline_failures",
			Help: "Total number of pipeline runs aborted by a fatal stage error",
		}),
		WaitingBacklog: factory.NewGauge(prometheus.GaugeOpts{
			Name: "tender_scout_waiting_backlog",
			Help: "Number of tenders currently waiting for filtering",
		}),
		RunDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "tender_scout_run_duration_seconds",
			Help:    "Time spent on one full pipeline run",
			Buckets: prometheus.DefBuckets,
		}),
	}
}
