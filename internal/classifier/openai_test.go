package classifier

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
	"tender-scout-go/internal/models"
)

func newClassifierTest(t *testing.T, handler http.HandlerFunc) *OpenAIClassifier {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return NewOpenAIClassifier(&config.ClassifierConfig{
		APIKey:         "sk-test",
		Model:          "gpt-4o",
		BaseURL:        srv.URL,
		RequestTimeout: 5 * time.Second,
	})
}

func chatReplyWith(content string) map[string]interface{} {
	return map[string]interface{}{
		"choices": []map[string]interface{}{
			{"message": map[string]interface{}{"content": content}},
		},
	}
}

func TestClassifyParsesQualifiedIDs(t *testing.T) {
	var gotAuth string
	var gotReq chatRequest

	c := newClassifierTest(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		json.NewEncoder(w).Encode(chatReplyWith(`{"qualified_ids": [2, 5]}`))
	})

	batch := []models.Tender{
		{ID: 2, Title: "ERP implementation"},
		{ID: 5, Title: "CRM rollout"},
		{ID: 9, Title: "Road construction"},
	}

	ids, err := c.Classify(context.Background(), batch, "tech tenders")
	require.NoError(t, err)

	assert.Equal(t, []uint{2, 5}, ids)
	assert.Equal(t, "Bearer sk-test", gotAuth)
	assert.Equal(t, "gpt-4o", gotReq.Model)
	require.Len(t, gotReq.Messages, 2)
	assert.Equal(t, "system", gotReq.Messages[0].Role)
	assert.Contains(t, gotReq.Messages[1].Content, "tech tenders")
	assert.Contains(t, gotReq.Messages[1].Content, "ERP implementation")
	require.NotNil(t, gotReq.ResponseFormat)
	assert.Equal(t, "json_schema", gotReq.ResponseFormat.Type)
}

func TestClassifyAPIError(t *testing.T) {
	c := newClassifierTest(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"error": map[string]interface{}{
				"type":    "invalid_request_error",
				"message": "Incorrect API key provided",
			},
		})
	})

	_, err := c.Classify(context.Background(), []models.Tender{{ID: 1}}, "tech")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Incorrect API key")
}

func TestClassifyMalformedOutput(t *testing.T) {
	c := newClassifierTest(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(chatReplyWith("sure, here are the ids: 2 and 5"))
	})

	_, err := c.Classify(context.Background(), []models.Tender{{ID: 2}}, "tech")
	require.Error(t, err)
}

func TestClassifyNoChoices(t *testing.T) {
	c := newClassifierTest(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{"choices": []interface{}{}})
	})

	_, err := c.Classify(context.Background(), []models.Tender{{ID: 2}}, "tech")
	require.Error(t, err)
}
