package scraper

import (
	"context"
	"fmt"
	"html"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"tender-scout-go/internal/config"
	"tender-scout-go/internal/models"
)

const (
	globalTendersSource = "globaltenders.com"
	userAgent           = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36"
)

var (
	tenderRowRe = regexp.MustCompile(`(?is)<tr[^>]*\bid="tender_GT[^"]*"[^>]*>(.*?)</tr>`)
	leafDivRe   = regexp.MustCompile(`(?is)<div[^>]*>([^<]+)</div>`)
	detailRe    = regexp.MustCompile(`(?is)<a[^>]*btn-sdetail[^>]*>`)
	hrefRe      = regexp.MustCompile(`(?i)href="([^"]+)"`)
)

// GlobalTendersScraper implements TenderScraper for the GlobalTenders
// free listing page.
type GlobalTendersScraper struct {
	url        string
	client     *http.Client
	limiter    *rate.Limiter
	maxRetries int
}

// NewGlobalTendersScraper creates a new GlobalTenders scraper
func NewGlobalTendersScraper(cfg *config.ScraperConfig) *GlobalTendersScraper {
	rps := cfg.RequestsPerSec
	if rps <= 0 {
		rps = 1
	}
	retries := cfg.MaxRetries
	if retries <= 0 {
		retries = 1
	}
	return &GlobalTendersScraper{
		url:        cfg.URL,
		client:     &http.Client{Timeout: cfg.RequestTimeout},
		limiter:    rate.NewLimiter(rate.Limit(rps), 1),
		maxRetries: retries,
	}
}

// Source returns the source label stamped on scraped candidates.
func (s *GlobalTendersScraper) Source() string {
	return globalTendersSource
}

// FetchTenders downloads the listing page and parses it into candidates.
// Transient fetch failures are retried with exponential backoff up to the
// configured attempt count.
func (s *GlobalTendersScraper) FetchTenders(ctx context.Context) ([]models.Candidate, error) {
	var lastErr error
	for attempt := 1; attempt <= s.maxRetries; attempt++ {
		if err := s.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter wait cancelled: %w", err)
		}

		page, err := s.fetchPage(ctx)
		if err == nil {
			candidates := s.parseListing(page)
			logrus.Infof("Scraped %d candidate tenders from %s", len(candidates), globalTendersSource)
			return candidates, nil
		}

		lastErr = err
		logrus.Warnf("Failed to fetch tender listing (attempt %d/%d): %v", attempt, s.maxRetries, err)

		if attempt < s.maxRetries {
			waitTime := time.Duration(attempt*attempt) * time.Second
			select {
			case <-ctx.Done():
				return nil, fmt.Errorf("fetch cancelled: %w", ctx.Err())
			case <-time.After(waitTime):
			}
		}
	}

	return nil, fmt.Errorf("failed to fetch tender listing after %d attempts: %w", s.maxRetries, lastErr)
}

func (s *GlobalTendersScraper) fetchPage(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return "", fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status %d from %s", resp.StatusCode, s.url)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response body: %w", err)
	}

	return string(body), nil
}

// parseListing extracts candidates from tender rows. A row that cannot be
// parsed is skipped; rows without a title are dropped.
func (s *GlobalTendersScraper) parseListing(page string) []models.Candidate {
	var candidates []models.Candidate

	for _, match := range tenderRowRe.FindAllStringSubmatch(page, -1) {
		candidate := s.parseRow(match[1])
		if candidate.Title == "" {
			continue
		}
		candidates = append(candidates, candidate)
	}

	return candidates
}

// parseRow maps the labeled cells of a listing row onto a candidate.
// Cells come as alternating label/value divs.
func (s *GlobalTendersScraper) parseRow(row string) models.Candidate {
	candidate := models.Candidate{Source: globalTendersSource}

	fields := make(map[string]string)
	cells := leafDivRe.FindAllStringSubmatch(row, -1)
	for i := 0; i+1 < len(cells); i += 2 {
		key := strings.ToLower(strings.TrimSuffix(cleanText(cells[i][1]), ":"))
		fields[key] = cleanText(cells[i+1][1])
	}

	candidate.Title = fields["description"]
	candidate.Organization = fields["authority"]
	candidate.Location = fields["country"]
	if deadline, ok := fields["action deadline"]; ok {
		candidate.ClosingDate = normalizeDate(deadline)
	}
	candidate.TenderContent = fmt.Sprintf("%s - %s", fields["description"], fields["notice type"])

	if tag := detailRe.FindString(row); tag != "" {
		if href := hrefRe.FindStringSubmatch(tag); href != nil {
			candidate.URL = html.UnescapeString(href[1])
		}
	}

	return candidate
}

// normalizeDate converts listing dates ("02 Jan 2006") to canonical
// YYYY-MM-DD form. Unparseable values pass through untouched; the
// ingestion gate decides what to do with them.
func normalizeDate(raw string) string {
	t, err := time.Parse("02 Jan 2006", strings.TrimSpace(raw))
	if err != nil {
		logrus.Debugf("Could not normalize date %q: %v", raw, err)
		return raw
	}
	return t.Format("2006-01-02")
}

func cleanText(s string) string {
	return strings.TrimSpace(html.UnescapeString(s))
}
