package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEmbedder_Defaults(t *testing.T) {
	_, err := NewEmbedder(Config{})
	require.Error(t, err)

	e, err := NewEmbedder(Config{APIKey: "k"})
	require.NoError(t, err)
	assert.Equal(t, DefaultModel, e.ModelName())
	assert.Equal(t, DefaultBaseURL, e.api.BaseURL())
	assert.Equal(t, DefaultTimeout, e.api.Timeout())
}

func TestEmbedder_Embed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/embeddings", r.URL.Path)
		assert.Equal(t, "Bearer k", r.Header.Get("Authorization"))

		var req embeddingRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "text-embedding-3-small", req.Model)
		assert.Equal(t, "hello", req.Input)
		assert.Equal(t, 256, req.Dimensions)

		_, _ = w.Write([]byte(`{"data":[{"embedding":[1,0.5]}]}`))
	}))
	defer server.Close()

	e, err := NewEmbedder(Config{APIKey: "k", BaseURL: server.URL, Dimensions: 256})
	require.NoError(t, err)

	vec, err := e.Embed(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 0.5}, vec)
}

func TestEmbedder_Embed_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"Incorrect API key","type":"invalid_request_error"}}`))
	}))
	defer server.Close()

	e, err := NewEmbedder(Config{APIKey: "k", BaseURL: server.URL})
	require.NoError(t, err)

	_, err = e.Embed(context.Background(), "hello")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Incorrect API key")
}

func TestEmbedder_Ping(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/models", r.URL.Path)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	e, err := NewEmbedder(Config{APIKey: "k", BaseURL: server.URL})
	require.NoError(t, err)
	assert.NoError(t, e.Ping(context.Background()))
	assert.NoError(t, e.Close())
}

func TestEmbedder_Errors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr string
	}{
		{name: "plain failure", status: http.StatusBadGateway, body: "upstream down", wantErr: "status 502: upstream down"},
		{name: "empty data", status: http.StatusOK, body: `{"data":[]}`, wantErr: "no embedding returned"},
		{name: "not json", status: http.StatusOK, body: "<html>", wantErr: "decode response"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			e, err := NewEmbedder(Config{APIKey: "k", BaseURL: server.URL})
			require.NoError(t, err)

			_, err = e.Embed(context.Background(), "hello")
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestEmbedder_Ping_Unauthorised(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"Incorrect API key"}}`))
	}))
	defer server.Close()

	e, err := NewEmbedder(Config{APIKey: "k", BaseURL: server.URL})
	require.NoError(t, err)

	err = e.Ping(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 401")
}
