// Package llm extracts scheduling intents from free-form text using an
// OpenAI-compatible chat completions endpoint. When the model response is
// not valid JSON the client falls back to keyword matching so the caller
// always receives a raw intent to resolve.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/starford/dagaz/internal/models"
)

const systemPromptTemplate = `You are an appointment scheduling assistant. Extract the user's intent from their message and respond with a single JSON object, nothing else.

Fields:
  "intent": one of "book_schedule", "cancel_schedule", "get_schedule"
  "title": short description of the appointment (for booking)
  "participant": person the appointment is with, if mentioned
  "date": the date expression as spoken (e.g. "tomorrow", "next friday", "2024-03-05")
  "time": the time expression as spoken (e.g. "3pm", "10:30")
  "duration_minutes": appointment length in minutes, if mentioned
  "id": appointment number, if the user refers to one (for cancelling)
  "date_filter": "today", "tomorrow", "week", "month" or a date (for listing)

Omit fields that do not apply. Current datetime: %s`

// Client talks to a chat completions API to turn transcribed speech into
// raw intents.
type Client struct {
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
}

// NewClient creates a Client for the given endpoint. baseURL is the API
// root (e.g. https://openrouter.ai/api/v1).
func NewClient(baseURL, apiKey, model string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		model:      model,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model          string        `json:"model"`
	Messages       []chatMessage `json:"messages"`
	MaxTokens      int           `json:"max_tokens"`
	Temperature    float64       `json:"temperature"`
	ResponseFormat struct {
		Type string `json:"type"`
	} `json:"response_format"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// ExtractIntent sends text to the model and returns the extracted raw
// intent. now anchors relative date expressions in the prompt. Transport
// and API errors are returned; an unparseable model reply degrades to
// KeywordFallback instead.
func (c *Client) ExtractIntent(ctx context.Context, text string, now time.Time) (models.RawIntent, error) {
	body := chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: fmt.Sprintf(systemPromptTemplate, now.Format("Monday, 2006-01-02 15:04"))},
			{Role: "user", Content: text},
		},
		MaxTokens:   150,
		Temperature: 0.3,
	}
	body.ResponseFormat.Type = "json_object"

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("llm: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("llm: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("X-Title", "dagaz")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("llm: request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("llm: read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("llm: status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	var cr chatResponse
	if err := json.Unmarshal(raw, &cr); err != nil {
		return nil, fmt.Errorf("llm: decode response: %w", err)
	}
	if cr.Error != nil {
		return nil, fmt.Errorf("llm: api error: %s", cr.Error.Message)
	}
	if len(cr.Choices) == 0 {
		return nil, fmt.Errorf("llm: empty response")
	}

	content := strings.TrimSpace(cr.Choices[0].Message.Content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.Trim(content, "` \n")

	var intent models.RawIntent
	if err := json.Unmarshal([]byte(content), &intent); err != nil {
		return KeywordFallback(text), nil
	}
	return intent, nil
}

// KeywordFallback produces a coarse raw intent from keyword matching. It
// covers model outages and malformed completions.
func KeywordFallback(text string) models.RawIntent {
	lower := strings.ToLower(text)
	switch {
	case containsAny(lower, "cancel", "delete", "remove"):
		return models.RawIntent{"intent": "cancel_schedule", "description": text}
	case containsAny(lower, "book", "schedule", "add"):
		return models.RawIntent{"intent": "book_schedule", "description": text}
	case containsAny(lower, "list", "show", "appointments", "meetings"):
		return models.RawIntent{"intent": "get_schedule"}
	default:
		return models.RawIntent{"intent": "unknown"}
	}
}

func containsAny(s string, words ...string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}
