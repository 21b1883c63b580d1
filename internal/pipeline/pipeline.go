package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"tender-scout-go/internal/metrics"
	"tender-scout-go/internal/scraper"
)

// Pipeline sequences one full processing invocation: ingestion of scraped
// candidates, the batch classification loop, then notification dispatch.
// The store is the only coordination medium between the stages.
type Pipeline struct {
	scrapers   []scraper.TenderScraper
	ingestor   *Ingestor
	filter     *FilterLoop
	dispatcher *Dispatcher
	metrics    *metrics.Metrics
}

// New creates a new pipeline
func New(scrapers []scraper.TenderScraper, ingestor *Ingestor, filter *FilterLoop, dispatcher *Dispatcher, m *metrics.Metrics) *Pipeline {
	return &Pipeline{
		scrapers:   scrapers,
		ingestor:   ingestor,
		filter:     filter,
		dispatcher: dispatcher,
		metrics:    m,
	}
}

// Run executes the three stages strictly in order. Scrape and ingestion
// failures are logged and the run proceeds; a filter-loop failure aborts
// the invocation with already-committed transitions kept; dispatch
// isolates failures per tender and never aborts. There is no internal
// retry of a run: the next scheduled invocation picks up whatever this
// one left behind.
func (p *Pipeline) Run(ctx context.Context) error {
	start := time.Now()
	defer func() {
		p.metrics.RunDuration.Observe(time.Since(start).Seconds())
	}()

	logrus.Info("Starting tender processing run")

	for _, s := range p.scrapers {
		p.metrics.ScrapeRuns.Inc()
		candidates, err := s.FetchTenders(ctx)
		if err != nil {
			logrus.Errorf("Scrape from %s failed: %v", s.Source(), err)
			continue
		}
		report := p.ingestor.Ingest(ctx, candidates)
		logrus.Infof("Ingested %d new tenders from %s (%d duplicates, %d failed)",
			report.Created, s.Source(), report.Skipped, report.Failed)
	}

	if err := p.filter.Run(ctx); err != nil {
		p.metrics.PipelineFailures.Inc()
		return fmt.Errorf("filter loop aborted: %w", err)
	}

	report, err := p.dispatcher.Dispatch(ctx)
	if err != nil {
		logrus.Errorf("Notification dispatch failed: %v", err)
	}
	logrus.Infof("Run completed in %v: %d notifications sent, %d failed, %d unrecorded",
		time.Since(start), report.Sent, report.Failed, report.Unrecorded)
	return nil
}
