// Package pinecone implements driven.VectorStore against a Pinecone
// index's data plane REST API.
package pinecone

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/custodia-labs/onair/internal/adapters/driven/ratelimit"
	"github.com/custodia-labs/onair/internal/core/domain"
	"github.com/custodia-labs/onair/internal/core/ports/driven"
)

// Ensure Store implements the interface.
var _ driven.VectorStore = (*Store)(nil)

// Default configuration values.
const (
	DefaultTimeout = 30 * time.Second
	APIVersion     = "2024-07"
)

// Legacy rows written before the channel_name rename.
const metaRadioName = "radio_name"

// Config holds configuration for the Pinecone store.
type Config struct {
	// Host is the index host, e.g. https://my-index-abc123.svc.pinecone.io (required).
	Host string

	// APIKey is the Pinecone API key (required).
	APIKey string

	// Namespace scopes all operations. Empty uses the default namespace.
	Namespace string

	// Timeout is the request timeout (default: 30s).
	Timeout time.Duration
}

// Store is a Pinecone-backed vector store.
type Store struct {
	client    *http.Client
	host      string
	apiKey    string
	namespace string
	limiter   *ratelimit.Limiter
}

type vector struct {
	ID       string         `json:"id"`
	Values   []float32      `json:"values,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

type upsertRequest struct {
	Vectors   []vector `json:"vectors"`
	Namespace string   `json:"namespace,omitempty"`
}

type queryRequest struct {
	Vector          []float32      `json:"vector"`
	TopK            int            `json:"topK"`
	Filter          map[string]any `json:"filter,omitempty"`
	Namespace       string         `json:"namespace,omitempty"`
	IncludeMetadata bool           `json:"includeMetadata"`
	IncludeValues   bool           `json:"includeValues"`
}

type queryResponse struct {
	Matches []struct {
		vector
		Score float64 `json:"score"`
	} `json:"matches"`
}

type fetchResponse struct {
	Vectors map[string]vector `json:"vectors"`
}

type listResponse struct {
	Vectors []struct {
		ID string `json:"id"`
	} `json:"vectors"`
	Pagination *struct {
		Next string `json:"next"`
	} `json:"pagination,omitempty"`
}

type deleteRequest struct {
	IDs       []string `json:"ids"`
	Namespace string   `json:"namespace,omitempty"`
}

type updateRequest struct {
	ID          string         `json:"id"`
	SetMetadata map[string]any `json:"setMetadata"`
	Namespace   string         `json:"namespace,omitempty"`
}

type errorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// NewStore creates a Pinecone store.
func NewStore(cfg Config) (*Store, error) {
	if cfg.Host == "" || cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: pinecone: host and API key are required", domain.ErrVectorStoreUnavailable)
	}
	host := strings.TrimRight(cfg.Host, "/")
	if !strings.Contains(host, "://") {
		host = "https://" + host
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}

	return &Store{
		client:    &http.Client{Timeout: cfg.Timeout},
		host:      host,
		apiKey:    cfg.APIKey,
		namespace: cfg.Namespace,
		limiter:   ratelimit.New(ratelimit.ServicePinecone),
	}, nil
}

// Upsert writes entries with their metadata.
func (s *Store) Upsert(ctx context.Context, entries []domain.IndexEntry) error {
	if len(entries) == 0 {
		return nil
	}
	req := upsertRequest{Namespace: s.namespace}
	for i := range entries {
		if entries[i].ID == "" {
			return fmt.Errorf("%w: entry id is required", domain.ErrInvalidInput)
		}
		req.Vectors = append(req.Vectors, vector{
			ID:       entries[i].ID,
			Values:   entries[i].Vector,
			Metadata: toMetadata(&entries[i]),
		})
	}
	return s.do(ctx, http.MethodPost, "/vectors/upsert", req, nil)
}

// Query runs a filtered similarity search. Values are not requested.
func (s *Store) Query(
	ctx context.Context,
	vec []float32,
	topK int,
	filter domain.QueryFilter,
) ([]domain.Match, error) {
	if topK <= 0 {
		return nil, nil
	}

	var resp queryResponse
	err := s.do(ctx, http.MethodPost, "/query", queryRequest{
		Vector:          vec,
		TopK:            topK,
		Filter:          toFilter(filter),
		Namespace:       s.namespace,
		IncludeMetadata: true,
	}, &resp)
	if err != nil {
		return nil, err
	}

	matches := make([]domain.Match, 0, len(resp.Matches))
	for _, m := range resp.Matches {
		matches = append(matches, domain.Match{
			Entry: fromVector(m.vector),
			Score: m.Score,
		})
	}
	return matches, nil
}

// Fetch returns entries by ID.
func (s *Store) Fetch(ctx context.Context, ids []string) (map[string]domain.IndexEntry, error) {
	result := make(map[string]domain.IndexEntry, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	q := url.Values{}
	for _, id := range ids {
		q.Add("ids", id)
	}
	if s.namespace != "" {
		q.Set("namespace", s.namespace)
	}

	var resp fetchResponse
	if err := s.do(ctx, http.MethodGet, "/vectors/fetch?"+q.Encode(), nil, &resp); err != nil {
		return nil, err
	}
	for id, v := range resp.Vectors {
		if v.ID == "" {
			v.ID = id
		}
		result[id] = fromVector(v)
	}
	return result, nil
}

// List returns one page of IDs using Pinecone's pagination token.
func (s *Store) List(ctx context.Context, limit int, token string) (*domain.ListPage, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("%w: list limit must be positive", domain.ErrInvalidInput)
	}

	q := url.Values{}
	q.Set("limit", strconv.Itoa(limit))
	if token != "" {
		q.Set("paginationToken", token)
	}
	if s.namespace != "" {
		q.Set("namespace", s.namespace)
	}

	var resp listResponse
	if err := s.do(ctx, http.MethodGet, "/vectors/list?"+q.Encode(), nil, &resp); err != nil {
		return nil, err
	}

	page := &domain.ListPage{}
	for _, v := range resp.Vectors {
		page.IDs = append(page.IDs, v.ID)
	}
	if resp.Pagination != nil {
		page.NextToken = resp.Pagination.Next
	}
	return page, nil
}

// DeleteMany removes the given IDs.
func (s *Store) DeleteMany(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	return s.do(ctx, http.MethodPost, "/vectors/delete", deleteRequest{IDs: ids, Namespace: s.namespace}, nil)
}

// Update sets metadata fields on one vector.
func (s *Store) Update(ctx context.Context, id string, patch domain.MetadataPatch) error {
	if patch.IsEmpty() {
		return nil
	}
	set := make(map[string]any, 3)
	if patch.StartTime != nil {
		set[domain.MetaStartTime] = domain.UnixMillis(*patch.StartTime)
	}
	if patch.EndTime != nil {
		set[domain.MetaEndTime] = domain.UnixMillis(*patch.EndTime)
	}
	if patch.IngestionDate != nil {
		set[domain.MetaDate] = *patch.IngestionDate
	}
	return s.do(ctx, http.MethodPost, "/vectors/update", updateRequest{
		ID:          id,
		SetMetadata: set,
		Namespace:   s.namespace,
	}, nil)
}

// Close releases resources.
func (s *Store) Close() error {
	return nil
}

func (s *Store) do(ctx context.Context, method, path string, in, out any) error {
	if err := s.limiter.Wait(ctx); err != nil {
		return err
	}

	body := io.Reader(http.NoBody)
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.host+path, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Api-Key", s.apiKey)
	req.Header.Set("X-Pinecone-API-Version", APIVersion)
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", domain.ErrVectorStoreUnavailable, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if s.limiter.Observe(resp) {
		return fmt.Errorf("pinecone: %w", domain.ErrRateLimited)
	}
	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("pinecone %s: %w", path, domain.ErrNotFound)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var apiErr errorResponse
		if json.Unmarshal(respBody, &apiErr) == nil && apiErr.Message != "" {
			return fmt.Errorf("pinecone error (status %d): %s", resp.StatusCode, apiErr.Message)
		}
		return fmt.Errorf("pinecone error (status %d): %s", resp.StatusCode, string(respBody))
	}

	if out == nil || len(respBody) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
