// Package httpstream reads a live audio stream over HTTP(S).
package httpstream

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/custodia-labs/onair/internal/core/domain"
	"github.com/custodia-labs/onair/internal/core/ports/driven"
)

// Ensure Source implements the interface.
var _ driven.StreamSource = (*Source)(nil)

// DefaultProbeTimeout bounds a single recovery probe.
const DefaultProbeTimeout = 5 * time.Second

// Config describes one stream endpoint.
type Config struct {
	// URL is the stream URL (required).
	URL string

	// ProbeURL is checked while recovering. Defaults to URL.
	ProbeURL string

	// ProbeTimeout bounds a probe (default: 5s).
	ProbeTimeout time.Duration

	// UserAgent is sent with every request. Some stream hosts reject Go's default.
	UserAgent string
}

// Source connects to an HTTP audio stream. The connection has no overall
// timeout; it stays open for as long as the broadcaster keeps sending.
type Source struct {
	client       *http.Client
	url          string
	probeURL     string
	probeTimeout time.Duration
	userAgent    string
}

// NewSource creates an HTTP stream source.
func NewSource(cfg Config) (*Source, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("%w: stream url is required", domain.ErrInvalidInput)
	}
	if cfg.ProbeURL == "" {
		cfg.ProbeURL = cfg.URL
	}
	if cfg.ProbeTimeout == 0 {
		cfg.ProbeTimeout = DefaultProbeTimeout
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = "onair/1.0"
	}

	return &Source{
		client:       &http.Client{},
		url:          cfg.URL,
		probeURL:     cfg.ProbeURL,
		probeTimeout: cfg.ProbeTimeout,
		userAgent:    cfg.UserAgent,
	}, nil
}

// Connect opens the stream. The caller owns the returned body.
func (s *Source) Connect(ctx context.Context) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", s.userAgent)
	req.Header.Set("Icy-MetaData", "0")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrStreamUnavailable, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		resp.Body.Close()
		return nil, fmt.Errorf("%w: status %d", domain.ErrStreamUnavailable, resp.StatusCode)
	}
	return resp.Body, nil
}

// Probe checks reachability with HEAD, falling back to a GET that is
// closed immediately for servers that do not allow HEAD.
func (s *Source) Probe(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.probeTimeout)
	defer cancel()

	status, err := s.probe(ctx, http.MethodHead)
	if err == nil && (status == http.StatusMethodNotAllowed || status == http.StatusNotImplemented) {
		status, err = s.probe(ctx, http.MethodGet)
	}
	if err != nil {
		return fmt.Errorf("%w: %w", domain.ErrStreamUnavailable, err)
	}
	if status >= 400 {
		return fmt.Errorf("%w: probe status %d", domain.ErrStreamUnavailable, status)
	}
	return nil
}

func (s *Source) probe(ctx context.Context, method string) (int, error) {
	req, err := http.NewRequestWithContext(ctx, method, s.probeURL, http.NoBody)
	if err != nil {
		return 0, err
	}
	req.Header.Set("User-Agent", s.userAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		return 0, err
	}
	resp.Body.Close()
	return resp.StatusCode, nil
}
