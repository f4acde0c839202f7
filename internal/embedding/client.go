// Client for the external embedding service.
//
// The service computes embeddings for a comma-separated word list and
// projects them to three dimensions:
//
//	POST /get_embedding {"text": "...", "model": "..."}
//	200 {"reduced_embeddings": [[x, y, z], ...], "labels": ["...", ...]}
package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"
)

// ErrRequestFailed is returned for any non-2xx answer. The status and body
// are deliberately not part of the error.
var ErrRequestFailed = errors.New("failed to generate embedding")

// Request is the body sent to /get_embedding
type Request struct {
	Text  string `json:"text"`
	Model string `json:"model"`
}

// Response is the body returned by /get_embedding. Labels[i] belongs to
// ReducedEmbeddings[i].
type Response struct {
	ReducedEmbeddings [][]float64 `json:"reduced_embeddings"`
	Labels            []string    `json:"labels"`
}

// Client talks to the embedding service over HTTP
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a client for the service at baseURL. A zero timeout
// leaves requests unbounded; callers cancel through the context instead.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// BaseURL returns the service address the client was created with
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Project sends exactly one POST /get_embedding and decodes the answer
func (c *Client) Project(ctx context.Context, req Request) (*Response, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal embedding request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/get_embedding", bytes.NewBuffer(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to send request to embedding service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Drain so the connection can be reused; the content is only logged.
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		log.Printf("Embedding service returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
		return nil, ErrRequestFailed
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var projection Response
	if err := json.Unmarshal(body, &projection); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	return &projection, nil
}
