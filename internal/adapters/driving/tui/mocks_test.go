package tui

import (
	"context"

	"github.com/custodia-labs/onair/internal/core/domain"
)

type mockStatusSource struct {
	states []domain.ChannelWatchState
	err    error
	calls  int
}

func (m *mockStatusSource) Status(_ context.Context) ([]domain.ChannelWatchState, error) {
	m.calls++
	return m.states, m.err
}

type mockSearcher struct {
	result  *domain.MonitorResult
	err     error
	channel string
	query   string
}

func (m *mockSearcher) Search(_ context.Context, channelID, query string) (*domain.MonitorResult, error) {
	m.channel = channelID
	m.query = query
	return m.result, m.err
}
