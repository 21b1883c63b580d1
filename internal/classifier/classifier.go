package classifier

import (
	"context"

	"tender-scout-go/internal/models"
)

// Classifier judges which tenders of a batch qualify against a free-text
// criterion. The returned ids are drawn from the submitted batch; callers
// must still validate membership before trusting them.
type Classifier interface {
	Classify(ctx context.Context, tenders []models.Tender, criterion string) ([]uint, error)
}
