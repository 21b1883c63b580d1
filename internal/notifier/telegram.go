package notifier

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

	"tender-scout-go/internal/config"
)

// TelegramNotifier implements Notifier over the Telegram bot API.
type TelegramNotifier struct {
	botToken   string
	apiBase    string
	client     *http.Client
	maxRetries int
}

// NewTelegramNotifier creates a new Telegram notifier
func NewTelegramNotifier(cfg *config.TelegramConfig) *TelegramNotifier {
	retries := cfg.MaxRetries
	if retries <= 0 {
		retries = 1
	}
	return &TelegramNotifier{
		botToken:   cfg.BotToken,
		apiBase:    strings.TrimRight(cfg.APIBase, "/"),
		client:     &http.Client{Timeout: cfg.RequestTimeout},
		maxRetries: retries,
	}
}

type sendMessageRequest struct {
	ChatID    string `json:"chat_id"`
	Text      string `json:"text"`
	ParseMode string `json:"parse_mode"`
}

type sendMessageResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
	Result      struct {
		MessageID int64 `json:"message_id"`
	} `json:"result"`
}

// Send delivers one message with HTML formatting. Rate-limit and server
// errors are retried with exponential backoff; other failures are not.
func (n *TelegramNotifier) Send(ctx context.Context, text, chatID string) (SendResult, error) {
	var lastErr error
	for attempt := 1; attempt <= n.maxRetries; attempt++ {
		result, retryable, err := n.sendOnce(ctx, text, chatID)
		if err == nil {
			return result, nil
		}

		lastErr = err
		if !retryable || attempt == n.maxRetries {
			break
		}

		waitTime := time.Duration(attempt*attempt) * time.Second
		logrus.Warnf("Telegram send failed (attempt %d/%d), retrying in %v: %v", attempt, n.maxRetries, waitTime, err)
		select {
		case <-ctx.Done():
			return SendResult{}, fmt.Errorf("send cancelled: %w", ctx.Err())
		case <-time.After(waitTime):
		}
	}

	return SendResult{}, fmt.Errorf("failed to send Telegram message: %w", lastErr)
}

func (n *TelegramNotifier) sendOnce(ctx context.Context, text, chatID string) (SendResult, bool, error) {
	payload, err := json.Marshal(sendMessageRequest{
		ChatID:    chatID,
		Text:      text,
		ParseMode: "HTML",
	})
	if err != nil {
		return SendResult{}, false, fmt.Errorf("failed to serialize message: %w", err)
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", n.apiBase, n.botToken)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return SendResult{}, false, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return SendResult{}, true, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return SendResult{}, true, fmt.Errorf("failed to read response: %w", err)
	}

	var apiResp sendMessageResponse
	if err := json.Unmarshal(body, &apiResp); err != nil {
		return SendResult{}, false, fmt.Errorf("failed to decode response: %w", err)
	}

	if !apiResp.OK {
		retryable := resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500
		return SendResult{}, retryable, fmt.Errorf("telegram API error (status %d): %s", resp.StatusCode, apiResp.Description)
	}

	return SendResult{MessageID: apiResp.Result.MessageID}, false, nil
}
