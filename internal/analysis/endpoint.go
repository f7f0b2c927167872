package analysis

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// maxResponseBytes bounds what we read back from any analyzer.
const maxResponseBytes = 4 << 20

// DefaultTimeout bounds a single analysis request.
const DefaultTimeout = 90 * time.Second

func newHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &http.Client{Timeout: timeout}
}

// EndpointClient calls the trusted analysis endpoint, which holds the
// provider key on the server.
type EndpointClient struct {
	URL        string
	HTTPClient *http.Client
}

// NewEndpointClient creates a client for the endpoint at url. A zero
// timeout means DefaultTimeout.
func NewEndpointClient(url string, timeout time.Duration) *EndpointClient {
	return &EndpointClient{URL: url, HTTPClient: newHTTPClient(timeout)}
}

type endpointRequest struct {
	Image string `json:"image"`
}

type endpointError struct {
	Error string `json:"error"`
}

// Analyze posts the image to the endpoint. A transport failure or non-2xx
// status returns ErrUnreachable; a 2xx body that does not decode returns
// ErrMalformedResponse.
func (c *EndpointClient) Analyze(ctx context.Context, imageBase64 string) (*Extraction, error) {
	payload, err := json.Marshal(endpointRequest{Image: imageBase64})
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.URL, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client().Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: reading response: %v", ErrUnreachable, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var e endpointError
		if json.Unmarshal(body, &e) == nil && e.Error != "" {
			return nil, fmt.Errorf("%w: status %d: %s", ErrUnreachable, resp.StatusCode, e.Error)
		}
		return nil, fmt.Errorf("%w: status %d", ErrUnreachable, resp.StatusCode)
	}

	return ParseExtraction(body)
}

func (c *EndpointClient) client() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return http.DefaultClient
}
