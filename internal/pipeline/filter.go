package pipeline

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"tender-scout-go/internal/classifier"
	"tender-scout-go/internal/metrics"
	"tender-scout-go/internal/models"
	"tender-scout-go/internal/store"
)

// BatchSize is the fixed number of tenders submitted to the classifier
// per round.
const BatchSize = 8

// FilterLoop drains waiting tenders through the classifier in fixed-size
// batches, moving each batch member to qualified or unqualified.
type FilterLoop struct {
	store      *store.TenderStore
	classifier classifier.Classifier
	criterion  string
	metrics    *metrics.Metrics
}

// NewFilterLoop creates a new filter loop
func NewFilterLoop(s *store.TenderStore, c classifier.Classifier, criterion string, m *metrics.Metrics) *FilterLoop {
	return &FilterLoop{store: s, classifier: c, criterion: criterion, metrics: m}
}

// Run repeats classification rounds until no tender is left waiting. A
// classifier or store failure aborts the loop with the in-flight batch
// still waiting; transitions from earlier rounds are kept.
func (l *FilterLoop) Run(ctx context.Context) error {
	for {
		batch, err := l.store.GetByState(models.StateWaitingForFiltering, BatchSize)
		if err != nil {
			return fmt.Errorf("failed to fetch waiting batch: %w", err)
		}
		if len(batch) == 0 {
			l.metrics.WaitingBacklog.Set(0)
			logrus.Info("No tenders waiting for filtering")
			return nil
		}

		logrus.Infof("Classifying batch of %d tenders", len(batch))
		returnedIDs, err := l.classifier.Classify(ctx, batch, l.criterion)
		if err != nil {
			return fmt.Errorf("classification failed, batch left waiting: %w", err)
		}
		l.metrics.BatchesClassified.Inc()

		qualified := validateBatchIDs(batch, returnedIDs)

		// Exhaustive partition: every batch member gets exactly one
		// terminal classification state.
		for _, t := range batch {
			newState := models.StateUnqualified
			if _, ok := qualified[t.ID]; ok {
				newState = models.StateQualified
			}
			if _, err := l.store.UpdateField(t.ID, "state", newState); err != nil {
				return fmt.Errorf("failed to transition tender %d: %w", t.ID, err)
			}
			if newState == models.StateQualified {
				l.metrics.TendersQualified.Inc()
			} else {
				l.metrics.TendersUnqualified.Inc()
			}
			logrus.Infof("Tender %d marked as %s", t.ID, newState)
		}

		remaining, err := l.store.CountByState(models.StateWaitingForFiltering)
		if err != nil {
			return fmt.Errorf("failed to count waiting tenders: %w", err)
		}
		l.metrics.WaitingBacklog.Set(float64(remaining))
		logrus.Infof("Remaining tenders to filter: %d", remaining)
		if remaining == 0 {
			return nil
		}
	}
}

// validateBatchIDs filters classifier output down to members of the
// submitted batch. An out-of-batch id is an expected occasional model
// misbehavior: it is dropped and logged, never applied and never fatal.
func validateBatchIDs(batch []models.Tender, ids []uint) map[uint]struct{} {
	members := make(map[uint]struct{}, len(batch))
	for _, t := range batch {
		members[t.ID] = struct{}{}
	}

	qualified := make(map[uint]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := members[id]; !ok {
			logrus.Warnf("Classifier returned id %d outside the submitted batch, discarding", id)
			continue
		}
		qualified[id] = struct{}{}
	}
	return qualified
}
