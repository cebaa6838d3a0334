package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/custodia-labs/onair/internal/core/domain"
)

// Client talks to a running onair API server.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a client for the server at baseURL, e.g. "http://localhost:3000".
// A bare ":3000" listen address is accepted and resolved against localhost.
func NewClient(baseURL string) *Client {
	if strings.HasPrefix(baseURL, ":") {
		baseURL = "http://localhost" + baseURL
	}
	if !strings.Contains(baseURL, "://") {
		baseURL = "http://" + baseURL
	}
	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// Status fetches the capture state of every channel.
func (c *Client) Status(ctx context.Context) ([]domain.ChannelWatchState, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/status", http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	var resp StatusResponse
	if err := c.do(req, &resp); err != nil {
		return nil, err
	}

	states := make([]domain.ChannelWatchState, 0, len(resp.Channels))
	for _, ch := range resp.Channels {
		ping, _ := time.ParseDuration(ch.PingInterval) //nolint:errcheck // zero on malformed input
		states = append(states, domain.ChannelWatchState{
			ChannelID:            ch.Channel,
			State:                domain.StreamState(ch.State),
			IsStreaming:          ch.Streaming,
			CurrentSequence:      ch.Sequence,
			Reconnects:           ch.Reconnects,
			PingInterval:         ping,
			LastReconnectAttempt: ch.LastReconnectAttempt,
			LastError:            ch.LastError,
			UpdatedAt:            ch.UpdatedAt,
		})
	}
	return states, nil
}

// Search runs an on-demand channel search on the server.
func (c *Client) Search(ctx context.Context, channelID, query string) (*domain.MonitorResult, error) {
	body, err := json.Marshal(SearchRequest{ChannelName: channelID, Query: query})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/search", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	var resp SearchResponse
	if err := c.do(req, &resp); err != nil {
		return nil, err
	}

	result := &domain.MonitorResult{
		ChannelID:  resp.Channel,
		Query:      resp.Query,
		Matches:    resp.Matches,
		Relevant:   resp.Relevant,
		SearchedAt: time.Now(),
	}
	if resp.Summary != nil {
		result.Summary = *resp.Summary
	}
	return result, nil
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var apiErr errorResponse
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096)) //nolint:errcheck // best-effort error body
		if json.Unmarshal(data, &apiErr) == nil && apiErr.Error != "" {
			return fmt.Errorf("%s %s: status %d: %s", req.Method, req.URL.Path, resp.StatusCode, apiErr.Error)
		}
		return fmt.Errorf("%s %s: status %d", req.Method, req.URL.Path, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
