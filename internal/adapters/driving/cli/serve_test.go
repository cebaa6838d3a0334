package cli

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/onair/internal/core/domain"
)

func (m *mockScheduler) state() (started, stopped bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.started, m.stopped
}

func TestServeCmd_Flags(t *testing.T) {
	assert.NotNil(t, serveCmd.Flags().Lookup("addr"))
	assert.NotNil(t, serveCmd.Flags().Lookup("no-capture"))
}

func TestServeCmd_RunsUntilCancelled(t *testing.T) {
	s, cleanup := setupTestServices()
	defer cleanup()
	s.capture.started = make(chan struct{})
	schedulerConfig = domain.SchedulerConfig{Enabled: true}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := executeContext(ctx, "", "serve", "--addr", "127.0.0.1:0")
		done <- err
	}()

	select {
	case <-s.capture.started:
	case <-time.After(2 * time.Second):
		t.Fatal("capture did not start")
	}
	require.Eventually(t, func() bool {
		started, _ := s.scheduler.state()
		return started
	}, 2*time.Second, 5*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("serve did not stop")
	}

	_, stopped := s.scheduler.state()
	assert.True(t, stopped)
}

func TestServeCmd_CaptureFailureStopsEverything(t *testing.T) {
	s, cleanup := setupTestServices()
	defer cleanup()
	s.capture.err = errBoom

	_, err := executeContext(context.Background(), "", "serve", "--addr", "127.0.0.1:0")

	assert.ErrorIs(t, err, errBoom)
	assert.Contains(t, err.Error(), "capture")
}

func TestServeCmd_NoCapture(t *testing.T) {
	s, cleanup := setupTestServices()
	defer cleanup()
	s.capture.err = errBoom

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	_, err := executeContext(ctx, "", "serve", "--no-capture", "--addr", "127.0.0.1:0")

	assert.NoError(t, err, "capture never runs")
}

func TestServeCmd_SchedulerDisabled(t *testing.T) {
	s, cleanup := setupTestServices()
	defer cleanup()

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	_, err := executeContext(ctx, "", "serve", "--addr", "127.0.0.1:0")

	require.NoError(t, err)
	started, _ := s.scheduler.state()
	assert.False(t, started)
}

func TestServeCmd_NothingToRun(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()
	captureService = nil
	monitorService = nil

	_, err := execute("serve")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "nothing to run")
}

func TestServeCmd_NoChannelsSkipsCapture(t *testing.T) {
	s, cleanup := setupTestServices()
	defer cleanup()
	channels = nil
	s.capture.err = errBoom

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	_, err := executeContext(ctx, "", "serve", "--addr", "127.0.0.1:0")

	assert.NoError(t, err)
}

func TestServeCmd_AddressInUse(t *testing.T) {
	s, cleanup := setupTestServices()
	defer cleanup()
	startTestAPI(t, s)
	captureService = nil

	// serverAddr now holds the test server URL, so listen on its host:port
	addr := serverAddr[len("http://"):]
	_, err := executeContext(context.Background(), "", "serve", "--addr", addr)

	assert.Error(t, err)
}
