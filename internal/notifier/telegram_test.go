package notifier

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tender-scout-go/internal/config"
)

func newTelegramTest(t *testing.T, maxRetries int, handler http.HandlerFunc) (*TelegramNotifier, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	n := NewTelegramNotifier(&config.TelegramConfig{
		BotToken:       "123:abc",
		APIBase:        srv.URL,
		RequestTimeout: 5 * time.Second,
		MaxRetries:     maxRetries,
	})
	return n, srv
}

func TestTelegramSendSuccess(t *testing.T) {
	var gotPath string
	var gotReq sendMessageRequest

	n, _ := newTelegramTest(t, 1, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		json.NewEncoder(w).Encode(map[string]interface{}{
			"ok":     true,
			"result": map[string]interface{}{"message_id": 42},
		})
	})

	result, err := n.Send(context.Background(), "<b>hello</b>", "-100200300")
	require.NoError(t, err)

	assert.Equal(t, int64(42), result.MessageID)
	assert.Equal(t, "/bot123:abc/sendMessage", gotPath)
	assert.Equal(t, "-100200300", gotReq.ChatID)
	assert.Equal(t, "<b>hello</b>", gotReq.Text)
	assert.Equal(t, "HTML", gotReq.ParseMode)
}

func TestTelegramSendAPIError(t *testing.T) {
	requests := 0
	n, _ := newTelegramTest(t, 3, func(w http.ResponseWriter, r *http.Request) {
		requests++
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"ok":          false,
			"description": "Bad Request: chat not found",
		})
	})

	_, err := n.Send(context.Background(), "hello", "bogus")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "chat not found")
	// Client errors are not retried.
	assert.Equal(t, 1, requests)
}

func TestTelegramSendRetriesRateLimit(t *testing.T) {
	requests := 0
	n, _ := newTelegramTest(t, 2, func(w http.ResponseWriter, r *http.Request) {
		requests++
		if requests == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			json.NewEncoder(w).Encode(map[string]interface{}{
				"ok":          false,
				"description": "Too Many Requests: retry after 1",
			})
			return
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"ok":     true,
			"result": map[string]interface{}{"message_id": 7},
		})
	})

	result, err := n.Send(context.Background(), "hello", "-100200300")
	require.NoError(t, err)

	assert.Equal(t, int64(7), result.MessageID)
	assert.Equal(t, 2, requests)
}

func TestTelegramSendServerErrorExhaustsRetries(t *testing.T) {
	requests := 0
	n, _ := newTelegramTest(t, 2, func(w http.ResponseWriter, r *http.Request) {
		requests++
		w.WriteHeader(http.StatusBadGateway)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"ok":          false,
			"description": "Bad Gateway",
		})
	})

	_, err := n.Send(context.Background(), "hello", "-100200300")
	require.Error(t, err)

	assert.Contains(t, err.Error(), "Bad Gateway")
	assert.Equal(t, 2, requests)
}
