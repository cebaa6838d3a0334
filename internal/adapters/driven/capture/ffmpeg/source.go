// Package ffmpeg captures any input ffmpeg can read (HLS, YouTube live
// URLs resolved upstream, capture devices) and pipes MP3 audio to stdout.
package ffmpeg

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/custodia-labs/onair/internal/core/domain"
	"github.com/custodia-labs/onair/internal/core/ports/driven"
	"github.com/custodia-labs/onair/internal/logger"
)

// Ensure Source implements the interface.
var _ driven.StreamSource = (*Source)(nil)

// Default configuration values.
const (
	DefaultBinary       = "ffmpeg"
	DefaultProbeTimeout = 20 * time.Second
)

// Config describes how to launch ffmpeg for one channel.
type Config struct {
	// Input is passed to -i (required unless Args is set).
	Input string

	// Binary is the ffmpeg executable (default: ffmpeg on PATH).
	Binary string

	// Args replaces the generated argument list entirely.
	Args []string

	// ProbeTimeout bounds a recovery probe (default: 20s).
	ProbeTimeout time.Duration
}

// Source runs one ffmpeg process per connection.
type Source struct {
	binary       string
	input        string
	args         []string
	probeTimeout time.Duration
}

// NewSource creates an ffmpeg source.
func NewSource(cfg Config) (*Source, error) {
	if cfg.Input == "" && len(cfg.Args) == 0 {
		return nil, fmt.Errorf("%w: ffmpeg input is required", domain.ErrInvalidInput)
	}
	if cfg.Binary == "" {
		cfg.Binary = DefaultBinary
	}
	if cfg.ProbeTimeout == 0 {
		cfg.ProbeTimeout = DefaultProbeTimeout
	}
	return &Source{
		binary:       cfg.Binary,
		input:        cfg.Input,
		args:         cfg.Args,
		probeTimeout: cfg.ProbeTimeout,
	}, nil
}

// captureArgs transcodes the input's first audio stream to stereo MP3 on stdout.
func (s *Source) captureArgs() []string {
	if len(s.args) > 0 {
		return s.args
	}
	return []string{
		"-hide_banner", "-loglevel", "error",
		"-reconnect", "1", "-reconnect_streamed", "1",
		"-i", s.input,
		"-vn", "-ac", "2",
		"-f", "mp3", "pipe:1",
	}
}

// probeArgs decodes one second of input and discards it.
func (s *Source) probeArgs() []string {
	return []string{
		"-hide_banner", "-loglevel", "error",
		"-t", "1", "-i", s.input,
		"-f", "null", "-",
	}
}

// Connect starts ffmpeg. Closing the returned reader stops the process.
func (s *Source) Connect(ctx context.Context) (io.ReadCloser, error) {
	cmd := exec.CommandContext(ctx, s.binary, s.captureArgs()...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	cmd.WaitDelay = 2 * time.Second

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("ffmpeg stdout: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("%w: start ffmpeg: %w", domain.ErrStreamUnavailable, err)
	}
	logger.Debug("ffmpeg: started pid %d for %s", cmd.Process.Pid, s.input)

	return &process{cmd: cmd, stdout: stdout, stderr: &stderr}, nil
}

// Probe succeeds when ffmpeg can open and decode the input briefly.
// Without an input (custom Args) it only checks the binary exists.
func (s *Source) Probe(ctx context.Context) error {
	if s.input == "" {
		if _, err := exec.LookPath(s.binary); err != nil {
			return fmt.Errorf("%w: %w", domain.ErrStreamUnavailable, err)
		}
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, s.probeTimeout)
	defer cancel()

	out, err := exec.CommandContext(ctx, s.binary, s.probeArgs()...).CombinedOutput()
	if err != nil {
		msg := strings.TrimSpace(string(out))
		if msg == "" {
			msg = err.Error()
		}
		return fmt.Errorf("%w: %s", domain.ErrStreamUnavailable, msg)
	}
	return nil
}

// process adapts a running ffmpeg to io.ReadCloser.
type process struct {
	cmd    *exec.Cmd
	stdout io.ReadCloser
	stderr *bytes.Buffer
	once   sync.Once
	err    error
}

func (p *process) Read(b []byte) (int, error) {
	return p.stdout.Read(b)
}

// Close kills ffmpeg if it is still running and reaps it.
func (p *process) Close() error {
	p.once.Do(func() {
		if p.cmd.ProcessState == nil && p.cmd.Process != nil {
			_ = p.cmd.Process.Kill()
		}
		err := p.cmd.Wait()
		var exitErr *exec.ExitError
		if err != nil && !errors.As(err, &exitErr) {
			p.err = err
		}
		if msg := strings.TrimSpace(p.stderr.String()); msg != "" {
			logger.Debug("ffmpeg: %s", msg)
		}
	})
	return p.err
}
