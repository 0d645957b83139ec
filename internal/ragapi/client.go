// Package ragapi is the HTTP client for the three RAG backend endpoints:
// classification, retrieval and response generation. The backends are black
// boxes reached through an authenticated API base path; this package owns the
// wire contract and nothing else.
package ragapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// Endpoint paths under the shared API base.
const (
	EndpointClassifier = "/api/classifier"
	EndpointRetriever  = "/api/retriever"
	EndpointResponse   = "/api/response"
)

// ErrTransport is the sentinel for any transport-level failure: network
// error, non-2xx status, or a body that does not parse as JSON. Callers use
// it to tell "backend unreachable or broken" apart from an application-level
// error carried inside a JSON body.
var ErrTransport = errors.New("rag backend transport failure")

type Client struct {
	baseURL    string
	tokens     TokenSource
	httpClient *http.Client
}

func NewClient(baseURL string, tokens TokenSource, timeout time.Duration) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		tokens:     tokens,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Call POSTs body as JSON to endpoint and returns the raw JSON response.
// Every transport-level failure is wrapped in ErrTransport; Call never
// panics and never returns a non-JSON payload.
func (c *Client) Call(ctx context.Context, endpoint string, body any) (json.RawMessage, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("%w: marshal request: %v", ErrTransport, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("%w: create request: %v", ErrTransport, err)
	}
	req.Header.Set("Content-Type", "application/json")

	token, err := c.tokens.Token(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: acquire token: %v", ErrTransport, err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		slog.Error("rag api call failed", "endpoint", endpoint, "error", err)
		return nil, fmt.Errorf("%w: %v", ErrTransport, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %v", ErrTransport, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		slog.Error("rag api returned error status", "endpoint", endpoint, "status", resp.StatusCode)
		return nil, fmt.Errorf("%w: status %d", ErrTransport, resp.StatusCode)
	}

	if !json.Valid(raw) {
		return nil, fmt.Errorf("%w: response is not JSON", ErrTransport)
	}
	return json.RawMessage(raw), nil
}

// Classify resolves the entity a question is about.
func (c *Client) Classify(ctx context.Context, message string) (*ClassifyResult, error) {
	raw, err := c.Call(ctx, EndpointClassifier, map[string]any{"message": message})
	if err != nil {
		return nil, err
	}
	return parseClassify(raw)
}

// Retrieve fetches supporting chunks. The classifier output is merged into
// the request body alongside the original message.
func (c *Client) Retrieve(ctx context.Context, message string, cls *ClassifyResult) (*RetrieveResult, error) {
	body, err := mergeBody(message, cls.Raw)
	if err != nil {
		return nil, err
	}
	raw, err := c.Call(ctx, EndpointRetriever, body)
	if err != nil {
		return nil, err
	}
	return parseRetrieve(raw)
}

// Generate produces the final answer from the full retrieval payload merged
// with the original message.
func (c *Client) Generate(ctx context.Context, message string, ret *RetrieveResult) (*GenerateResult, error) {
	body, err := mergeBody(message, ret.Raw)
	if err != nil {
		return nil, err
	}
	raw, err := c.Call(ctx, EndpointResponse, body)
	if err != nil {
		return nil, err
	}
	return parseGenerate(raw)
}

// mergeBody overlays the previous stage's raw response onto {"message": msg}.
func mergeBody(message string, raw json.RawMessage) (map[string]any, error) {
	body := map[string]any{"message": message}
	if len(raw) == 0 {
		return body, nil
	}
	var fields map[string]any
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, fmt.Errorf("%w: merge request body: %v", ErrTransport, err)
	}
	for k, v := range fields {
		body[k] = v
	}
	return body, nil
}
