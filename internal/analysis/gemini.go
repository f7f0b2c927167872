package analysis

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	DefaultGeminiBaseURL = "https://generativelanguage.googleapis.com"
	DefaultGeminiModel   = "gemini-2.0-flash"
)

// GeminiClient calls the Gemini generateContent REST method directly.
type GeminiClient struct {
	APIKey     string
	Model      string
	BaseURL    string
	HTTPClient *http.Client
}

// NewGeminiClient creates a client using the default model and base URL.
// A zero timeout means DefaultTimeout.
func NewGeminiClient(apiKey string, timeout time.Duration) *GeminiClient {
	return &GeminiClient{
		APIKey:     apiKey,
		Model:      DefaultGeminiModel,
		BaseURL:    DefaultGeminiBaseURL,
		HTTPClient: newHTTPClient(timeout),
	}
}

type geminiRequest struct {
	Contents []geminiContent `json:"contents"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text       string            `json:"text,omitempty"`
	InlineData *geminiInlineData `json:"inlineData,omitempty"`
}

type geminiInlineData struct {
	MimeType string `json:"mimeType"`
	Data     string `json:"data"`
}

type geminiResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// Analyze sends the prompt and the image and parses the first candidate's
// text. Transport failures and non-2xx statuses return ErrUnreachable
// wrapped with the provider's message when it sent one.
func (c *GeminiClient) Analyze(ctx context.Context, imageBase64 string) (*Extraction, error) {
	payload, err := json.Marshal(geminiRequest{Contents: []geminiContent{{
		Parts: []geminiPart{
			{Text: Prompt},
			{InlineData: &geminiInlineData{MimeType: "image/jpeg", Data: imageBase64}},
		},
	}}})
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(), bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.APIKey)

	client := c.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: reading response: %v", ErrUnreachable, err)
	}

	var decoded geminiResponse
	decodeErr := json.Unmarshal(body, &decoded)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		if decodeErr == nil && decoded.Error != nil {
			return nil, fmt.Errorf("%w: status %d: %s", ErrUnreachable, resp.StatusCode, decoded.Error.Message)
		}
		return nil, fmt.Errorf("%w: status %d", ErrUnreachable, resp.StatusCode)
	}
	if decodeErr != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, decodeErr)
	}
	if decoded.Error != nil {
		return nil, fmt.Errorf("%w: %s", ErrProvider, decoded.Error.Message)
	}

	text := decoded.text()
	if text == "" {
		return nil, fmt.Errorf("%w: no text content in response", ErrMalformedResponse)
	}
	return ParseExtraction([]byte(text))
}

func (c *GeminiClient) endpoint() string {
	base := c.BaseURL
	if base == "" {
		base = DefaultGeminiBaseURL
	}
	model := c.Model
	if model == "" {
		model = DefaultGeminiModel
	}
	return strings.TrimRight(base, "/") + "/v1beta/models/" + model + ":generateContent"
}

func (r *geminiResponse) text() string {
	if len(r.Candidates) == 0 || len(r.Candidates[0].Content.Parts) == 0 {
		return ""
	}
	return r.Candidates[0].Content.Parts[0].Text
}
