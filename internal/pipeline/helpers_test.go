package pipeline

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"tender-scout-go/internal/metrics"
	"tender-scout-go/internal/models"
	"tender-scout-go/internal/notifier"
	"tender-scout-go/internal/store"
)

func newTestStore(t *testing.T) *store.TenderStore {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// A pooled connection would get its own empty in-memory database.
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(&models.Tender{}))
	return store.New(db)
}

func newTestMetrics() *metrics.Metrics {
	return metrics.NewMetricsWith(prometheus.NewRegistry())
}

// fakeClassifier qualifies batch members through a pluggable judgment and
// can be made to fail on a specific call.
type fakeClassifier struct {
	qualify    func(batch []models.Tender) []uint
	calls      int
	failOnCall int
}

func (f *fakeClassifier) Classify(ctx context.Context, tenders []models.Tender, criterion string) ([]uint, error) {
	f.calls++
	if f.failOnCall > 0 && f.calls == f.failOnCall {
		return nil, errors.New("classifier unavailable")
	}
	if f.qualify == nil {
		return nil, nil
	}
	return f.qualify(tenders), nil
}

// qualifyAll returns every id of the batch.
func qualifyAll(batch []models.Tender) []uint {
	ids := make([]uint, 0, len(batch))
	for _, t := range batch {
		ids = append(ids, t.ID)
	}
	return ids
}

// fakeNotifier records sent messages and can fail selectively based on
// the rendered text. onSend runs after a successful delivery.
type fakeNotifier struct {
	sent     []string
	failWhen func(text string) bool
	onSend   func(text string)
	nextID   int64
}

func (f *fakeNotifier) Send(ctx context.Context, text, chatID string) (notifier.SendResult, error) {
	if f.failWhen != nil && f.failWhen(text) {
		return notifier.SendResult{}, errors.New("channel send failed")
	}
	f.sent = append(f.sent, text)
	f.nextID++
	if f.onSend != nil {
		f.onSend(text)
	}
	return notifier.SendResult{MessageID: f.nextID}, nil
}

// sentContaining counts sent messages containing the substring.
func (f *fakeNotifier) sentContaining(sub string) int {
	n := 0
	for _, msg := range f.sent {
		if strings.Contains(msg, sub) {
			n++
		}
	}
	return n
}

// fakeScraper returns a fixed candidate list or error.
type fakeScraper struct {
	candidates []models.Candidate
	err        error
}

func (f *fakeScraper) FetchTenders(ctx context.Context) ([]models.Candidate, error) {
	return f.candidates, f.err
}

func (f *fakeScraper) Source() string {
	return "fake.test"
}
