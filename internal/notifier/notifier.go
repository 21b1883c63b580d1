package notifier

import "context"

// SendResult carries the channel-assigned identifier of a delivered
// message.
type SendResult struct {
	MessageID int64
}

// Notifier delivers a rendered message to a destination.
type Notifier interface {
	Send(ctx context.Context, text, chatID string) (SendResult, error)
}
