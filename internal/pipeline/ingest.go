package pipeline

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"tender-scout-go/internal/metrics"
	"tender-scout-go/internal/models"
	"tender-scout-go/internal/store"
)

// IngestReport aggregates per-candidate outcomes of one ingestion pass.
type IngestReport struct {
	Created int
	Skipped int
	Failed  int
}

// Ingestor is the gate through which scraped candidates enter the store.
// Ingestion is insert-only: existing records are never mutated.
type Ingestor struct {
	store   *store.TenderStore
	metrics *metrics.Metrics
}

// NewIngestor creates a new ingestor
func NewIngestor(s *store.TenderStore, m *metrics.Metrics) *Ingestor {
	return &Ingestor{store: s, metrics: m}
}

// Ingest validates, deduplicates, and stores candidates. A candidate whose
// dedup key (title, posted_date) is already stored is skipped silently;
// per-candidate failures are counted and the loop continues.
func (g *Ingestor) Ingest(ctx context.Context, candidates []models.Candidate) IngestReport {
	var report IngestReport

	for _, c := range candidates {
		select {
		case <-ctx.Done():
			logrus.Warnf("Ingestion cancelled with %d candidates remaining", len(candidates)-report.Created-report.Skipped-report.Failed)
			return report
		default:
		}

		postedDate := canonicalDate(c.PostedDate)
		if postedDate != c.PostedDate {
			logrus.Warnf("Invalid posted_date %q for candidate %q, storing empty", c.PostedDate, c.Title)
		}
		closingDate := canonicalDate(c.ClosingDate)
		if closingDate != c.ClosingDate {
			logrus.Warnf("Invalid closing_date %q for candidate %q, storing empty", c.ClosingDate, c.Title)
		}

		exists, err := g.store.Exists(c.Title, postedDate)
		if err != nil {
			report.Failed++
			logrus.Errorf("Failed to check for duplicate of %q: %v", c.Title, err)
			continue
		}
		if exists {
			report.Skipped++
			g.metrics.TendersSkipped.Inc()
			continue
		}

		tender := &models.Tender{
			Title:         c.Title,
			Organization:  c.Organization,
			PostedDate:    postedDate,
			ClosingDate:   closingDate,
			Location:      c.Location,
			URL:           c.URL,
			Source:        c.Source,
			TenderContent: c.TenderContent,
		}
		if err := g.store.Create(tender); err != nil {
			report.Failed++
			logrus.Errorf("Failed to create tender %q: %v", c.Title, err)
			continue
		}

		report.Created++
		g.metrics.TendersIngested.Inc()
	}

	return report
}

// canonicalDate keeps a date only when it is strict YYYY-MM-DD; anything
// else becomes the empty sentinel. The record is ingested either way.
func canonicalDate(s string) string {
	if _, err := time.Parse("2006-01-02", s); err != nil {
		return ""
	}
	return s
}
