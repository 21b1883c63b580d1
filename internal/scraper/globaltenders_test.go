package scraper

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tender-scout-go/internal/config"
)

const sampleListing = `
<html><body>
<table class="gt-table">
<tr id="tender_GT101"><td>
  <div class="row">
    <div>Description:</div><div>Supply of ERP software</div>
    <div>Authority:</div><div>Ministry of Finance</div>
    <div>Country:</div><div>Somalia</div>
    <div>Notice Type:</div><div>Invitation to Tender</div>
    <div>Action Deadline:</div><div>05 Feb 2024</div>
  </div>
  <a class="btn-sdetail" href="https://example.com/t/101">Details</a>
</td></tr>
<tr id="tender_GT102"><td>
  <div class="row">
    <div>Description:</div><div>Road maintenance works</div>
    <div>Authority:</div><div>Public Works Dept</div>
    <div>Country:</div><div>Kenya</div>
    <div>Notice Type:</div><div>Tender</div>
    <div>Action Deadline:</div><div>unknown</div>
  </div>
</td></tr>
<tr id="tender_GT103"><td>
  <div class="row">
    <div>Authority:</div><div>No Description Authority</div>
  </div>
</td></tr>
</table>
</body></html>`

func newTestScraper(url string) *GlobalTendersScraper {
	return NewGlobalTendersScraper(&config.ScraperConfig{
		URL:            url,
		RequestTimeout: 5 * time.Second,
		MaxRetries:     1,
		RequestsPerSec: 100,
	})
}

func TestParseListing(t *testing.T) {
	s := newTestScraper("https://example.com")

	candidates := s.parseListing(sampleListing)

	// Rows without a title are dropped.
	require.Len(t, candidates, 2)

	first := candidates[0]
	assert.Equal(t, "Supply of ERP software", first.Title)
	assert.Equal(t, "Ministry of Finance", first.Organization)
	assert.Equal(t, "Somalia", first.Location)
	assert.Equal(t, "2024-02-05", first.ClosingDate)
	assert.Equal(t, "https://example.com/t/101", first.URL)
	assert.Equal(t, "globaltenders.com", first.Source)
	assert.Equal(t, "Supply of ERP software - Invitation to Tender", first.TenderContent)

	second := candidates[1]
	assert.Equal(t, "Road maintenance works", second.Title)
	// Unparseable deadlines pass through for the ingestion gate to judge.
	assert.Equal(t, "unknown", second.ClosingDate)
	assert.Empty(t, second.URL)
}

func TestNormalizeDate(t *testing.T) {
	assert.Equal(t, "2024-02-05", normalizeDate("05 Feb 2024"))
	assert.Equal(t, "2024-12-31", normalizeDate(" 31 Dec 2024 "))
	assert.Equal(t, "not a date", normalizeDate("not a date"))
}

func TestFetchTenders(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NotEmpty(t, r.Header.Get("User-Agent"))
		w.Write([]byte(sampleListing))
	}))
	t.Cleanup(srv.Close)

	s := newTestScraper(srv.URL)
	candidates, err := s.FetchTenders(context.Background())
	require.NoError(t, err)
	assert.Len(t, candidates, 2)
}

func TestFetchTendersRetriesTransientError(t *testing.T) {
	requests := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		if requests == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte(sampleListing))
	}))
	t.Cleanup(srv.Close)

	s := NewGlobalTendersScraper(&config.ScraperConfig{
		URL:            srv.URL,
		RequestTimeout: 5 * time.Second,
		MaxRetries:     2,
		RequestsPerSec: 100,
	})

	candidates, err := s.FetchTenders(context.Background())
	require.NoError(t, err)

	assert.Len(t, candidates, 2)
	assert.Equal(t, 2, requests)
}

func TestFetchTendersServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	t.Cleanup(srv.Close)

	s := newTestScraper(srv.URL)
	_, err := s.FetchTenders(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "after 1 attempts")
}
