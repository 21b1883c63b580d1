package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tender-scout-go/internal/models"
	"tender-scout-go/internal/scraper"
	"tender-scout-go/internal/store"
)

func newTestPipeline(t *testing.T, s *store.TenderStore, sc scraper.TenderScraper, fc *fakeClassifier, fn *fakeNotifier) *Pipeline {
	t.Helper()
	m := newTestMetrics()
	return New(
		[]scraper.TenderScraper{sc},
		NewIngestor(s, m),
		NewFilterLoop(s, fc, "tech tenders", m),
		NewDispatcher(s, fn, "chat-1", m),
		m,
	)
}

func TestPipelineEndToEnd(t *testing.T) {
	s := newTestStore(t)
	sc := &fakeScraper{candidates: []models.Candidate{
		{Title: "Build ERP", PostedDate: "2024-01-10", Source: "fake.test"},
	}}
	fc := &fakeClassifier{qualify: qualifyAll}
	fn := &fakeNotifier{}
	p := newTestPipeline(t, s, sc, fc, fn)

	require.NoError(t, p.Run(context.Background()))

	// Scraped, classified qualifying, and notified exactly once.
	assert.Equal(t, 1, fc.calls)
	assert.Equal(t, 1, fn.sentContaining("Build ERP"))

	tenders, err := s.GetByStateAndSent(models.StateNotified, true)
	require.NoError(t, err)
	require.Len(t, tenders, 1)
	assert.Equal(t, "Build ERP", tenders[0].Title)
}

func TestPipelineRerunIsIdempotent(t *testing.T) {
	s := newTestStore(t)
	sc := &fakeScraper{candidates: []models.Candidate{
		{Title: "Build ERP", PostedDate: "2024-01-10", Source: "fake.test"},
	}}
	fc := &fakeClassifier{qualify: qualifyAll}
	fn := &fakeNotifier{}
	p := newTestPipeline(t, s, sc, fc, fn)

	require.NoError(t, p.Run(context.Background()))
	require.NoError(t, p.Run(context.Background()))

	// Second run: the candidate deduplicates, the filter loop sees no
	// waiting records, the dispatcher sends nothing.
	assert.Equal(t, 1, fc.calls)
	assert.Len(t, fn.sent, 1)

	var total int64
	for _, state := range []string{
		models.StateWaitingForFiltering,
		models.StateQualified,
		models.StateUnqualified,
		models.StateNotified,
	} {
		count, err := s.CountByState(state)
		require.NoError(t, err)
		total += count
	}
	assert.Equal(t, int64(1), total)
}

func TestPipelineProceedsPastScrapeFailure(t *testing.T) {
	s := newTestStore(t)
	seedWaiting(t, s, 2)

	sc := &fakeScraper{err: errors.New("site unreachable")}
	fc := &fakeClassifier{qualify: qualifyAll}
	fn := &fakeNotifier{}
	p := newTestPipeline(t, s, sc, fc, fn)

	// Ingestion failure is not fatal: the backlog still gets classified
	// and dispatched.
	require.NoError(t, p.Run(context.Background()))
	assert.Equal(t, 1, fc.calls)
	assert.Len(t, fn.sent, 2)
}

func TestPipelineAbortsOnClassifierFailure(t *testing.T) {
	s := newTestStore(t)
	sc := &fakeScraper{candidates: []models.Candidate{
		{Title: "Build ERP", PostedDate: "2024-01-10"},
	}}
	fc := &fakeClassifier{failOnCall: 1}
	fn := &fakeNotifier{}
	p := newTestPipeline(t, s, sc, fc, fn)

	err := p.Run(context.Background())
	require.Error(t, err)

	// The run aborted before dispatch; the record is still waiting.
	assert.Empty(t, fn.sent)
	waiting, err2 := s.CountByState(models.StateWaitingForFiltering)
	require.NoError(t, err2)
	assert.Equal(t, int64(1), waiting)
}

func TestPipelineRecoversOnReinvocation(t *testing.T) {
	s := newTestStore(t)
	sc := &fakeScraper{candidates: []models.Candidate{
		{Title: "Build ERP", PostedDate: "2024-01-10"},
	}}
	fc := &fakeClassifier{qualify: qualifyAll, failOnCall: 1}
	fn := &fakeNotifier{}
	p := newTestPipeline(t, s, sc, fc, fn)

	require.Error(t, p.Run(context.Background()))

	// The next invocation picks the waiting record back up.
	require.NoError(t, p.Run(context.Background()))
	assert.Equal(t, 1, fn.sentContaining("Build ERP"))
}
