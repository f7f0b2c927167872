// Package analysis turns a menu photo into structured data by asking a
// vision model. Two clients share one contract: EndpointClient calls the
// trusted server-side analysis endpoint, GeminiClient calls the provider
// directly with its own key.
package analysis

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
)

var (
	// ErrUnreachable means the analyzer could not be reached or answered
	// with a non-success status. Callers may try another analyzer.
	ErrUnreachable = errors.New("analysis endpoint unreachable")

	// ErrMalformedResponse means the analyzer answered but its output is
	// not the expected JSON.
	ErrMalformedResponse = errors.New("malformed analysis response")

	// ErrProvider means the model provider reported an error.
	ErrProvider = errors.New("analysis provider error")
)

// Prompt is sent with every image.
const Prompt = `Analyze this menu image. 1. Extract the Restaurant Name, Phone Number, and Address. 2. Extract all food items and their prices. Return a JSON object with this exact structure: { "restaurant": { "name": "string", "phone": "string", "address": "string" }, "items": [{ "name": "string", "price": 123 }] }. If address or phone is missing, use empty string. Do not use markdown code blocks. Just pure JSON string.`

// Analyzer extracts a menu from a base64 encoded JPEG.
type Analyzer interface {
	Analyze(ctx context.Context, imageBase64 string) (*Extraction, error)
}

// Extraction is what the model returns. Any field may be missing.
type Extraction struct {
	Restaurant *ExtractedRestaurant `json:"restaurant,omitempty"`
	Items      []ExtractedItem      `json:"items"`
}

type ExtractedRestaurant struct {
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
}

// ExtractedItem carries the price as the model wrote it; models sometimes
// return decimals.
type ExtractedItem struct {
	Name  string  `json:"name"`
	Price float64 `json:"price"`
}

var fence = regexp.MustCompile("```json|```")

// ParseExtraction strips markdown code fences from raw model text and
// decodes the remaining JSON object.
func ParseExtraction(raw []byte) (*Extraction, error) {
	cleaned := bytes.TrimSpace(fence.ReplaceAll(raw, nil))
	if len(cleaned) == 0 {
		return nil, fmt.Errorf("%w: empty output", ErrMalformedResponse)
	}

	var ext Extraction
	if err := json.Unmarshal(cleaned, &ext); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return &ext, nil
}
