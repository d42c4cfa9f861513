// Package encoder calls the host's text encoder over HTTP.
package encoder

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/zoobzio/enhancer"
)

// ErrInvalidConditioning is returned when the encoder replies with a body
// that is not JSON.
var ErrInvalidConditioning = errors.New("encoder returned invalid conditioning")

// maxBody caps how much of an encoder reply is read.
const maxBody = 64 << 20

// Client implements enhancer.TextEncoder against an HTTP endpoint.
// The endpoint receives {"text": "..."} and answers with the conditioning as
// an opaque JSON document.
type Client struct {
	url        string
	httpClient *http.Client
}

// Config holds configuration for the encoder client.
type Config struct {
	URL     string
	Timeout time.Duration // Optional, defaults to 60s
}

// New creates an encoder client.
func New(config Config) *Client {
	if config.Timeout == 0 {
		config.Timeout = 60 * time.Second
	}
	return &Client{
		url: config.URL,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
	}
}

type encodeRequest struct {
	Text string `json:"text"`
}

// Encode posts text to the encoder and returns the reply as json.RawMessage.
func (c *Client) Encode(ctx context.Context, text string) (enhancer.Conditioning, error) {
	body, err := json.Marshal(encodeRequest{Text: text})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		if msg := bytes.TrimSpace(respBody); len(msg) > 0 {
			return nil, fmt.Errorf("encoder error: status %d: %s", resp.StatusCode, msg)
		}
		return nil, fmt.Errorf("encoder error: status %d", resp.StatusCode)
	}
	if !json.Valid(respBody) {
		return nil, ErrInvalidConditioning
	}

	return json.RawMessage(respBody), nil
}
