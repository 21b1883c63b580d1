package pipeline

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"tender-scout-go/internal/metrics"
	"tender-scout-go/internal/models"
	"tender-scout-go/internal/notifier"
	"tender-scout-go/internal/store"
)

// DispatchReport aggregates per-tender outcomes of one dispatch pass.
// Unrecorded counts messages that reached the channel but whose sent
// marker could not be persisted; those tenders will be re-sent on the
// next invocation.
type DispatchReport struct {
	Sent       int
	Failed     int
	Unrecorded int
}

// Dispatcher delivers qualifying, unnotified tenders to the channel one
// at a time.
type Dispatcher struct {
	store    *store.TenderStore
	notifier notifier.Notifier
	chatID   string
	metrics  *metrics.Metrics
}

// NewDispatcher creates a new dispatcher
func NewDispatcher(s *store.TenderStore, n notifier.Notifier, chatID string, m *metrics.Metrics) *Dispatcher {
	return &Dispatcher{store: s, notifier: n, chatID: chatID, metrics: m}
}

// Dispatch sends one alert per qualified unsent tender, newest posting
// first. A failed send leaves the tender unsent and never blocks delivery
// of the remaining tenders; re-running with nothing newly qualified sends
// nothing.
func (d *Dispatcher) Dispatch(ctx context.Context) (DispatchReport, error) {
	var report DispatchReport

	tenders, err := d.store.GetByStateAndSent(models.StateQualified, false)
	if err != nil {
		return report, fmt.Errorf("failed to fetch qualified tenders: %w", err)
	}
	if len(tenders) == 0 {
		logrus.Info("No new qualified tenders to notify")
		return report, nil
	}

	logrus.Infof("Found %d qualified tenders to notify", len(tenders))
	for _, t := range tenders {
		message := notifier.RenderTenderMessage(t)
		result, err := d.notifier.Send(ctx, message, d.chatID)
		if err != nil {
			report.Failed++
			d.metrics.NotifyFailures.Inc()
			logrus.Errorf("Failed to send notification for tender %d: %v", t.ID, err)
			continue
		}

		d.metrics.NotifySuccesses.Inc()
		if ok, err := d.store.MarkNotified(t.ID); err != nil {
			report.Unrecorded++
			logrus.Errorf("Failed to mark tender %d as notified: %v", t.ID, err)
			continue
		} else if !ok {
			report.Unrecorded++
			logrus.Warnf("Tender %d no longer qualified, notified flag not set", t.ID)
			continue
		}

		report.Sent++
		logrus.Infof("Sent notification for tender %d (message %d)", t.ID, result.MessageID)
	}

	return report, nil
}
