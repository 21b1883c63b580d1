package classifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/sirupsen/logrus"

	"tender-scout-go/internal/config"
	"tender-scout-go/internal/models"
)

const systemPrompt = `You are a tender analyst. You are given a JSON array of
procurement tenders and a qualification criterion. Judge each tender against
the criterion using its title, organization, location and content. Respond
with the ids of the tenders that qualify. Only ever return ids that appear
in the given batch.`

// OpenAIClassifier implements Classifier against an OpenAI-compatible
// chat-completions endpoint using JSON-schema structured output.
type OpenAIClassifier struct {
	apiKey  string
	model   string
	baseURL string
	client  *http.Client
}

// NewOpenAIClassifier creates a new OpenAI classifier
func NewOpenAIClassifier(cfg *config.ClassifierConfig) *OpenAIClassifier {
	return &OpenAIClassifier{
		apiKey:  cfg.APIKey,
		model:   cfg.Model,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		client:  &http.Client{Timeout: cfg.RequestTimeout},
	}
}

type chatRequest struct {
	Model          string          `json:"model"`
	Temperature    float64         `json:"temperature"`
	Messages       []chatMessage   `json:"messages"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type responseFormat struct {
	Type       string      `json:"type"`
	JSONSchema *jsonSchema `json:"json_schema,omitempty"`
}

type jsonSchema struct {
	Name   string          `json:"name"`
	Strict bool            `json:"strict"`
	Schema json.RawMessage `json:"schema"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// qualifiedResult is the structured output the model is constrained to.
type qualifiedResult struct {
	QualifiedIDs []uint `json:"qualified_ids"`
}

var qualifiedSchema = json.RawMessage(`{
	"type": "object",
	"properties": {
		"qualified_ids": {
			"type": "array",
			"items": {"type": "integer"}
		}
	},
	"required": ["qualified_ids"],
	"additionalProperties": false
}`)

// Classify submits one batch to the model and returns the ids it judged
// qualifying. A single attempt is made; the caller owns retry policy.
func (c *OpenAIClassifier) Classify(ctx context.Context, tenders []models.Tender, criterion string) ([]uint, error) {
	batch, err := json.Marshal(tenders)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize tender batch: %w", err)
	}

	reqBody := chatRequest{
		Model:       c.model,
		Temperature: 0,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: fmt.Sprintf("%s\n\nTenders:\n%s", criterion, batch)},
		},
		ResponseFormat: &responseFormat{
			Type: "json_schema",
			JSONSchema: &jsonSchema{
				Name:   "qualified_tenders",
				Strict: true,
				Schema: qualifiedSchema,
			},
		},
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("classifier request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read classifier response: %w", err)
	}

	var chatResp chatResponse
	if err := json.Unmarshal(body, &chatResp); err != nil {
		return nil, fmt.Errorf("failed to decode classifier response: %w", err)
	}

	if chatResp.Error != nil {
		return nil, fmt.Errorf("classifier API error (%s): %s", chatResp.Error.Type, chatResp.Error.Message)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("classifier returned status %d", resp.StatusCode)
	}
	if len(chatResp.Choices) == 0 {
		return nil, fmt.Errorf("classifier returned no choices")
	}

	var result qualifiedResult
	if err := json.Unmarshal([]byte(chatResp.Choices[0].Message.Content), &result); err != nil {
		return nil, fmt.Errorf("failed to parse classifier output: %w", err)
	}

	logrus.Debugf("Classifier returned %d qualified ids for batch of %d", len(result.QualifiedIDs), len(tenders))
	return result.QualifiedIDs, nil
}
