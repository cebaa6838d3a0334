package services

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/custodia-labs/onair/internal/core/domain"
	"github.com/custodia-labs/onair/internal/core/ports/driven"
)

// --- Mock implementations shared by the service tests ---

// mockChunkIndex implements driven.ChunkIndexStore in memory.
type mockChunkIndex struct {
	mu      sync.Mutex
	next    map[string]int64
	saveErr error
	saves   []int64
}

func newMockChunkIndex() *mockChunkIndex {
	return &mockChunkIndex{next: make(map[string]int64)}
}

func (m *mockChunkIndex) Next(_ context.Context, channelID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if n, ok := m.next[channelID]; ok {
		return n, nil
	}
	return 1, nil
}

func (m *mockChunkIndex) Save(_ context.Context, channelID string, next int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	m.next[channelID] = next
	m.saves = append(m.saves, next)
	return nil
}

// mockStreamSource implements driven.StreamSource. Each Connect hands out
// the next queued stream; with none queued it fails.
type mockStreamSource struct {
	mu       sync.Mutex
	streams  []io.ReadCloser
	connects int
	probes   int
	probeErr error
}

func (m *mockStreamSource) queue(r io.ReadCloser) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.streams = append(m.streams, r)
}

func (m *mockStreamSource) Connect(_ context.Context) (io.ReadCloser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.connects++
	if len(m.streams) == 0 {
		return nil, domain.ErrStreamUnavailable
	}
	r := m.streams[0]
	m.streams = m.streams[1:]
	return r, nil
}

func (m *mockStreamSource) Probe(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.probes++
	if m.probeErr != nil {
		return m.probeErr
	}
	if len(m.streams) == 0 {
		return domain.ErrStreamUnavailable
	}
	return nil
}

func (m *mockStreamSource) counts() (connects, probes int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.connects, m.probes
}

// mockTranscriber implements driven.Transcriber. Status replays the
// scripted responses; the last one repeats.
type mockTranscriber struct {
	mu        sync.Mutex
	uploads   [][]byte
	submitted []driven.TranscribeOptions
	statuses  []driven.TranscriptStatus
	polls     int
	uploadErr error
	submitErr error
	statusErr error
}

func (m *mockTranscriber) Upload(_ context.Context, audio io.Reader) (string, error) {
	if m.uploadErr != nil {
		return "", m.uploadErr
	}
	data, err := io.ReadAll(audio)
	if err != nil {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.uploads = append(m.uploads, data)
	return "https://cdn.example/upload", nil
}

func (m *mockTranscriber) Submit(_ context.Context, _ string, opts driven.TranscribeOptions) (string, error) {
	if m.submitErr != nil {
		return "", m.submitErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.submitted = append(m.submitted, opts)
	return "job-1", nil
}

func (m *mockTranscriber) Status(_ context.Context, jobID string) (*driven.TranscriptStatus, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.polls++
	if m.statusErr != nil {
		return nil, m.statusErr
	}
	if len(m.statuses) == 0 {
		return &driven.TranscriptStatus{ID: jobID, Status: domain.JobStatusProcessing}, nil
	}
	st := m.statuses[0]
	if len(m.statuses) > 1 {
		m.statuses = m.statuses[1:]
	}
	st.ID = jobID
	return &st, nil
}

func (m *mockTranscriber) pollCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.polls
}

// mockEmbedder implements driven.Embedder with a deterministic vector:
// one dimension per keyword present in the text.
type mockEmbedder struct {
	mu       sync.Mutex
	keywords []string
	embedErr error
	texts    []string
}

func newMockEmbedder(keywords ...string) *mockEmbedder {
	if len(keywords) == 0 {
		keywords = []string{"budget", "election", "weather"}
	}
	return &mockEmbedder{keywords: keywords}
}

func (m *mockEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	if m.embedErr != nil {
		return nil, m.embedErr
	}
	m.mu.Lock()
	m.texts = append(m.texts, text)
	m.mu.Unlock()

	lower := strings.ToLower(text)
	vec := make([]float32, len(m.keywords)+1)
	vec[len(m.keywords)] = 0.1
	for i, k := range m.keywords {
		if strings.Contains(lower, k) {
			vec[i] = 1
		}
	}
	return vec, nil
}

func (m *mockEmbedder) ModelName() string            { return "mock-embed" }
func (m *mockEmbedder) Ping(_ context.Context) error { return nil }
func (m *mockEmbedder) Close() error                 { return nil }

// mockSummariser implements driven.Summariser.
type mockSummariser struct {
	mu           sync.Mutex
	response     string
	responses    map[string]string // keyed by a substring of the prompt
	err          error
	prompts      []string
	instructions []string
}

func (m *mockSummariser) Summarise(_ context.Context, prompt, instructions string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.prompts = append(m.prompts, prompt)
	m.instructions = append(m.instructions, instructions)
	if m.err != nil {
		return "", m.err
	}
	for key, resp := range m.responses {
		if strings.Contains(prompt, key) {
			return resp, nil
		}
	}
	return m.response, nil
}

func (m *mockSummariser) ModelName() string            { return "mock-llm" }
func (m *mockSummariser) Ping(_ context.Context) error { return nil }
func (m *mockSummariser) Close() error                 { return nil }

// mockNotifier implements driven.Notifier.
type mockNotifier struct {
	mu       sync.Mutex
	messages []string
	to       [][]string
	err      error
}

func (m *mockNotifier) Send(_ context.Context, recipients []string, message string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.messages = append(m.messages, message)
	m.to = append(m.to, recipients)
	return nil
}

// mockPromptStore implements driven.PromptStore.
type mockPromptStore struct {
	prompts map[string]string
	err     error
}

func newMockPromptStore() *mockPromptStore {
	return &mockPromptStore{prompts: map[string]string{
		driven.PromptMonitorProbe:        "news about {{watch_list}}",
		driven.PromptMonitorTask:         "watch: {{watch_list}}\ndata:\n{{data}}",
		driven.PromptMonitorInstructions: "only report on {{watch_list}}",
	}}
}

func (m *mockPromptStore) Load(name string) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	p, ok := m.prompts[name]
	if !ok {
		return "", domain.ErrNotFound
	}
	return p, nil
}

func (m *mockPromptStore) Reload() {}

// mockTranscriptSearch implements driving.TranscriptSearch.
type mockTranscriptSearch struct {
	mu       sync.Mutex
	matches  map[string][]domain.Match
	errs     map[string]error
	calls    []string
	probes   []string
	lookback time.Duration
	times    []time.Time
}

func (m *mockTranscriptSearch) Query(_ context.Context, channelID, probe string, lookback time.Duration) ([]domain.Match, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, channelID)
	m.probes = append(m.probes, probe)
	m.lookback = lookback
	m.times = append(m.times, time.Now())
	if err := m.errs[channelID]; err != nil {
		return nil, err
	}
	return m.matches[channelID], nil
}

// failingVectorStore wraps a store and fails selected operations.
type failingVectorStore struct {
	driven.VectorStore
	listErr   error
	fetchErr  error
	deleteErr error
	upsertErr error
	updateErr error
	listCalls int
	deletes   [][]string
}

func (f *failingVectorStore) List(ctx context.Context, limit int, token string) (*domain.ListPage, error) {
	f.listCalls++
	if f.listErr != nil && f.listCalls > 1 {
		return nil, f.listErr
	}
	return f.VectorStore.List(ctx, limit, token)
}

func (f *failingVectorStore) Fetch(ctx context.Context, ids []string) (map[string]domain.IndexEntry, error) {
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	return f.VectorStore.Fetch(ctx, ids)
}

func (f *failingVectorStore) DeleteMany(ctx context.Context, ids []string) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.deletes = append(f.deletes, append([]string(nil), ids...))
	return f.VectorStore.DeleteMany(ctx, ids)
}

func (f *failingVectorStore) Upsert(ctx context.Context, entries []domain.IndexEntry) error {
	if f.upsertErr != nil {
		return f.upsertErr
	}
	return f.VectorStore.Upsert(ctx, entries)
}

func (f *failingVectorStore) Update(ctx context.Context, id string, patch domain.MetadataPatch) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	return f.VectorStore.Update(ctx, id, patch)
}

var errBoom = errors.New("boom")

// blockingReader delivers queued chunks and then blocks until closed.
type blockingReader struct {
	data   chan []byte
	closed chan struct{}
	once   sync.Once
}

func newBlockingReader() *blockingReader {
	return &blockingReader{data: make(chan []byte, 64), closed: make(chan struct{})}
}

func (b *blockingReader) send(p []byte) { b.data <- p }

func (b *blockingReader) Read(p []byte) (int, error) {
	select {
	case chunk := <-b.data:
		return copy(p, chunk), nil
	case <-b.closed:
		return 0, io.ErrClosedPipe
	}
}

func (b *blockingReader) Close() error {
	b.once.Do(func() { close(b.closed) })
	return nil
}
