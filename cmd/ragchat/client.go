package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/ragworks/finchat/internal/domain"
)

// apiClient is a thin wrapper over the finchat HTTP API.
type apiClient struct {
	baseURL    string
	httpClient *http.Client
}

func newAPIClient(baseURL string) *apiClient {
	return &apiClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 2 * time.Minute},
	}
}

type chatResponse struct {
	SessionID string         `json:"session_id"`
	Message   domain.Message `json:"message"`
}

type historyRecord struct {
	Question  string    `json:"question"`
	Answer    string    `json:"answer"`
	Outcome   string    `json:"outcome"`
	Info      string    `json:"info"`
	CreatedAt time.Time `json:"created_at"`
}

func (c *apiClient) Chat(ctx context.Context, sessionID, message string) (*chatResponse, error) {
	var resp chatResponse
	err := c.post(ctx, "/api/chat", map[string]string{
		"session_id": sessionID,
		"message":    message,
	}, &resp)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *apiClient) Retry(ctx context.Context, sessionID string) (*chatResponse, error) {
	var resp chatResponse
	err := c.post(ctx, "/api/chat/retry", map[string]string{"session_id": sessionID}, &resp)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *apiClient) Reset(ctx context.Context, sessionID string) error {
	return c.post(ctx, "/api/chat/reset", map[string]string{"session_id": sessionID}, nil)
}

func (c *apiClient) History(ctx context.Context, sessionID string, limit int) ([]historyRecord, error) {
	u := c.baseURL + "/api/history?session_id=" + sessionID + "&limit=" + strconv.Itoa(limit)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call api: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, apiError(resp)
	}
	var records []historyRecord
	if err := json.NewDecoder(resp.Body).Decode(&records); err != nil {
		return nil, fmt.Errorf("parse history: %w", err)
	}
	return records, nil
}

func (c *apiClient) post(ctx context.Context, path string, body any, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("call api: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return apiError(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("parse response: %w", err)
	}
	return nil
}

func apiError(resp *http.Response) error {
	body, _ := io.ReadAll(resp.Body)
	var payload struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(body, &payload) == nil && payload.Error != "" {
		return fmt.Errorf("%s (status %d)", payload.Error, resp.StatusCode)
	}
	return fmt.Errorf("api returned status %d", resp.StatusCode)
}
