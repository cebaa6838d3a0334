package mcp

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/onair/internal/core/domain"
)

func TestNewServer(t *testing.T) {
	t.Run("requires a monitor", func(t *testing.T) {
		server, err := NewServer(&Ports{Transcripts: &mockTranscriptSearch{}})
		assert.ErrorIs(t, err, ErrMissingMonitorService)
		assert.Nil(t, server)
	})

	t.Run("monitor only", func(t *testing.T) {
		server, err := NewServer(&Ports{Monitor: &mockMonitorService{}})
		require.NoError(t, err)
		assert.NotNil(t, server.Handler())
	})

	t.Run("all ports", func(t *testing.T) {
		ports := &Ports{
			Monitor:     &mockMonitorService{},
			Transcripts: &mockTranscriptSearch{},
			Capture:     &mockCaptureService{},
			Channels:    []domain.Channel{{ID: "2GB"}},
		}
		require.NoError(t, ports.Validate())
		_, err := NewServer(ports)
		assert.NoError(t, err)
	})
}

func TestInstructions(t *testing.T) {
	assert.NotContains(t, instructions(nil), "Channels:")

	text := instructions([]domain.Channel{
		{ID: "2GB", Name: "2GB Sydney"},
		{ID: "SKY"},
	})
	assert.Contains(t, text, "search_channel")
	assert.Contains(t, text, "\n- 2GB (2GB Sydney)")
	assert.Contains(t, text, "\n- SKY")
	assert.NotContains(t, text, "SKY (")
}

func TestServer_RunHTTP_StopsOnCancel(t *testing.T) {
	server, err := NewServer(&Ports{Monitor: &mockMonitorService{}})
	require.NoError(t, err)

	// Reserve a free port, then release it for the server
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- server.RunHTTP(ctx, addr) }()

	require.Eventually(t, func() bool {
		conn, err := net.Dial("tcp", addr)
		if err != nil {
			return false
		}
		conn.Close()
		return true
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
