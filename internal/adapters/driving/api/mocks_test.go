package api

import (
	"context"
	"sync"

	"github.com/custodia-labs/onair/internal/core/domain"
)

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

type mockCaptureService struct {
	mu     sync.Mutex
	states []domain.ChannelWatchState
}

func (m *mockCaptureService) setStates(states []domain.ChannelWatchState) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.states = states
}

func (m *mockCaptureService) Run(ctx context.Context) error {
	<-ctx.Done()
	return nil
}

func (m *mockCaptureService) Status() []domain.ChannelWatchState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.states
}
