package scraper

import (
	"context"

	"tender-scout-go/internal/models"
)

// TenderScraper fetches raw candidate tenders from an external source.
// A fetch may block for a long time; the returned slice is always finite.
type TenderScraper interface {
	FetchTenders(ctx context.Context) ([]models.Candidate, error)
	Source() string
}
