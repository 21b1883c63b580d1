package scraper

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"tender-scout-go/internal/config"
	"tender-scout-go/internal/models"
)

const (
	reliefWebSource = "reliefweb.int"

	// ReliefWeb taxonomy ids: content type 264 (jobs/tenders),
	// country 216 (Somalia).
	reliefWebTypeID    = "264"
	reliefWebCountryID = "216"
)

// ReliefWebScraper implements TenderScraper over the ReliefWeb jobs API.
type ReliefWebScraper struct {
	url        string
	limit      int
	client     *http.Client
	limiter    *rate.Limiter
	maxRetries int
}

// NewReliefWebScraper creates a new ReliefWeb scraper
func NewReliefWebScraper(cfg *config.ScraperConfig) *ReliefWebScraper {
	rps := cfg.RequestsPerSec
	if rps <= 0 {
		rps = 1
	}
	retries := cfg.MaxRetries
	if retries <= 0 {
		retries = 1
	}
	limit := cfg.ReliefWebLimit
	if limit <= 0 {
		limit = 20
	}
	return &ReliefWebScraper{
		url:        cfg.ReliefWebURL,
		limit:      limit,
		client:     &http.Client{Timeout: cfg.RequestTimeout},
		limiter:    rate.NewLimiter(rate.Limit(rps), 1),
		maxRetries: retries,
	}
}

// Source returns the source label stamped on scraped candidates.
func (s *ReliefWebScraper) Source() string {
	return reliefWebSource
}

type reliefWebCondition struct {
	Field string `json:"field"`
	Value string `json:"value"`
}

type reliefWebRequest struct {
	Offset int `json:"offset"`
	Limit  int `json:"limit"`
	Filter struct {
		Conditions []reliefWebCondition `json:"conditions"`
		Operator   string               `json:"operator"`
	} `json:"filter"`
	Preset  string `json:"preset"`
	Profile string `json:"profile"`
}

type reliefWebItem struct {
	Fields struct {
		Title string `json:"title"`
		URL   string `json:"url"`
		Date  struct {
			Created string `json:"created"`
			Closing string `json:"closing"`
		} `json:"date"`
		Source []struct {
			Name string `json:"name"`
		} `json:"source"`
	} `json:"fields"`
}

type reliefWebResponse struct {
	Data []reliefWebItem `json:"data"`
}

// FetchTenders queries the API for the latest Somalia tender postings.
// Transient failures are retried with exponential backoff up to the
// configured attempt count.
func (s *ReliefWebScraper) FetchTenders(ctx context.Context) ([]models.Candidate, error) {
	var lastErr error
	for attempt := 1; attempt <= s.maxRetries; attempt++ {
		if err := s.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter wait cancelled: %w", err)
		}

		items, err := s.fetchBatch(ctx)
		if err == nil {
			candidates := make([]models.Candidate, 0, len(items))
			for _, item := range items {
				candidates = append(candidates, formatReliefWebItem(item))
			}
			logrus.Infof("Scraped %d candidate tenders from %s", len(candidates), reliefWebSource)
			return candidates, nil
		}

		lastErr = err
		logrus.Warnf("Failed to query ReliefWeb API (attempt %d/%d): %v", attempt, s.maxRetries, err)

		if attempt < s.maxRetries {
			waitTime := time.Duration(attempt*attempt) * time.Second
			select {
			case <-ctx.Done():
				return nil, fmt.Errorf("fetch cancelled: %w", ctx.Err())
			case <-time.After(waitTime):
			}
		}
	}

	return nil, fmt.Errorf("failed to query ReliefWeb API after %d attempts: %w", s.maxRetries, lastErr)
}

func (s *ReliefWebScraper) fetchBatch(ctx context.Context) ([]reliefWebItem, error) {
	reqBody := reliefWebRequest{
		Offset:  0,
		Limit:   s.limit,
		Preset:  "latest",
		Profile: "list",
	}
	reqBody.Filter.Conditions = []reliefWebCondition{
		{Field: "type.id", Value: reliefWebTypeID},
		{Field: "country.id", Value: reliefWebCountryID},
	}
	reqBody.Filter.Operator = "AND"

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "scout-bot/1.0")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d from %s", resp.StatusCode, s.url)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	var apiResp reliefWebResponse
	if err := json.Unmarshal(body, &apiResp); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if len(apiResp.Data) == 0 {
		return nil, fmt.Errorf("no data returned from %s", s.url)
	}

	return apiResp.Data, nil
}

// formatReliefWebItem maps an API item onto a candidate. Dates arrive as
// RFC 3339 timestamps; only the date part is kept. The country filter
// pins every posting to Somalia, and the API carries no body text, so
// the title doubles as content.
func formatReliefWebItem(item reliefWebItem) models.Candidate {
	candidate := models.Candidate{
		Title:         strings.ToLower(item.Fields.Title),
		PostedDate:    datePart(item.Fields.Date.Created),
		ClosingDate:   datePart(item.Fields.Date.Closing),
		Location:      "Somalia",
		URL:           item.Fields.URL,
		Source:        reliefWebSource,
		TenderContent: item.Fields.Title,
	}
	if len(item.Fields.Source) > 0 {
		candidate.Organization = strings.ToLower(item.Fields.Source[0].Name)
	}
	return candidate
}

func datePart(timestamp string) string {
	if i := strings.Index(timestamp, "T"); i >= 0 {
		return timestamp[:i]
	}
	return timestamp
}
