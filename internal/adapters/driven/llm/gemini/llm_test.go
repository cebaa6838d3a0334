package gemini

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSummariser_Summarise(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/models/gemini-1.5-pro:generateContent", r.URL.Path)
		assert.Equal(t, "k", r.URL.Query().Get("key"))

		var req generateRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.Contents, 1)
		assert.Equal(t, "user", req.Contents[0].Role)
		assert.Equal(t, "transcripts", req.Contents[0].Parts[0].Text)
		require.NotNil(t, req.SystemInstruction)
		assert.Equal(t, "only the watch list", req.SystemInstruction.Parts[0].Text)

		_, _ = w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"  The Treasurer spoke about rates.\n"}]}}]}`))
	}))
	defer server.Close()

	s, err := NewSummariser(Config{APIKey: "k", BaseURL: server.URL})
	require.NoError(t, err)

	out, err := s.Summarise(context.Background(), "transcripts", "only the watch list")
	require.NoError(t, err)
	assert.Equal(t, "The Treasurer spoke about rates.", out)
}

func TestSummariser_NoCandidatesIsEmpty(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"candidates":[]}`))
	}))
	defer server.Close()

	s, err := NewSummariser(Config{APIKey: "k", BaseURL: server.URL})
	require.NoError(t, err)

	out, err := s.Summarise(context.Background(), "p", "")
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestSummariser_Errors(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		contains string
	}{
		{"api error", http.StatusBadRequest, `{"error":{"code":400,"message":"bad model"}}`, "bad model"},
		{"blocked", http.StatusOK, `{"promptFeedback":{"blockReason":"SAFETY"}}`, "SAFETY"},
		{"not json", http.StatusBadGateway, `<html>`, "status 502"},
		{"rate limited", http.StatusTooManyRequests, `{}`, "status 429"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			s, err := NewSummariser(Config{APIKey: "k", BaseURL: server.URL})
			require.NoError(t, err)

			_, err = s.Summarise(context.Background(), "p", "i")
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.contains)
		})
	}
}

func TestNewSummariser_RequiresKey(t *testing.T) {
	_, err := NewSummariser(Config{})
	assert.Error(t, err)

	s, err := NewSummariser(Config{APIKey: "k"})
	require.NoError(t, err)
	assert.Equal(t, DefaultModel, s.ModelName())
	assert.NoError(t, s.Close())
}
