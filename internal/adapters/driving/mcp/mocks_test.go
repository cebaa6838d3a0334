package mcp

import (
	"context"
	"time"

	"github.com/custodia-labs/onair/internal/core/domain"
)

// mockMonitorService is a mock implementation of driving.MonitorService.
type mockMonitorService struct {
	result  *domain.MonitorResult
	err     error
	channel string
	query   string
}

func (m *mockMonitorService) Search(_ context.Context, channelID, query string) (*domain.MonitorResult, error) {
	m.channel = channelID
	m.query = query
	return m.result, m.err
}

func (m *mockMonitorService) Tick(_ context.Context) (int, error) {
	return 0, m.err
}

// mockTranscriptSearch is a mock implementation of driving.TranscriptSearch.
type mockTranscriptSearch struct {
	matches  []domain.Match
	err      error
	lookback time.Duration
}

func (m *mockTranscriptSearch) Query(_ context.Context, _, _ string, lookback time.Duration) ([]domain.Match, error) {
	m.lookback = lookback
	return m.matches, m.err
}

// mockCaptureService is a mock implementation of driving.CaptureService.
type mockCaptureService struct {
	states []domain.ChannelWatchState
}

func (m *mockCaptureService) Run(ctx context.Context) error {
	<-ctx.Done()
	return nil
}

func (m *mockCaptureService) Status() []domain.ChannelWatchState {
	return m.states
}
