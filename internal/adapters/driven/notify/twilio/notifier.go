// Package twilio delivers alerts as SMS through Twilio's Messages API.
package twilio

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/custodia-labs/onair/internal/adapters/driven/ratelimit"
	"github.com/custodia-labs/onair/internal/core/domain"
	"github.com/custodia-labs/onair/internal/core/ports/driven"
	"github.com/custodia-labs/onair/internal/logger"
)

// Ensure Notifier implements the interface.
var _ driven.Notifier = (*Notifier)(nil)

// Default configuration values.
const (
	DefaultBaseURL = "https://api.twilio.com"
	DefaultTimeout = 15 * time.Second

	// maxBodyLength is the longest body Twilio accepts for one message.
	maxBodyLength = 1600
)

// Config holds Twilio credentials and the sending number.
type Config struct {
	AccountSID string
	AuthToken  string

	// From is the Twilio number messages are sent from, E.164.
	From string

	// BaseURL overrides the API host (default: https://api.twilio.com).
	BaseURL string

	Timeout time.Duration
}

// Notifier sends one SMS per recipient.
type Notifier struct {
	client     *http.Client
	baseURL    string
	accountSID string
	authToken  string
	from       string
	limiter    *ratelimit.Limiter
}

type messageResponse struct {
	SID    string `json:"sid"`
	Status string `json:"status"`
}

type errorResponse struct {
	Code     int    `json:"code"`
	Message  string `json:"message"`
	MoreInfo string `json:"more_info"`
}

// NewNotifier creates a Twilio notifier.
func NewNotifier(cfg Config) (*Notifier, error) {
	if cfg.AccountSID == "" || cfg.AuthToken == "" || cfg.From == "" {
		return nil, fmt.Errorf("%w: twilio: account SID, auth token and from number are required",
			domain.ErrNotifierUnavailable)
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}

	return &Notifier{
		client:     &http.Client{Timeout: cfg.Timeout},
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		accountSID: cfg.AccountSID,
		authToken:  cfg.AuthToken,
		from:       cfg.From,
		limiter:    ratelimit.New(ratelimit.ServiceTwilio),
	}, nil
}

// Send texts message to every recipient. Failures are collected so one bad
// number does not block the rest.
func (n *Notifier) Send(ctx context.Context, recipients []string, message string) error {
	body := truncate(message, maxBodyLength)

	var errs []error
	for _, to := range recipients {
		sid, err := n.sendOne(ctx, to, body)
		if err != nil {
			logger.Warn("twilio: sending to %s failed: %v", to, err)
			errs = append(errs, fmt.Errorf("sms to %s: %w", to, err))
			if ctx.Err() != nil {
				break
			}
			continue
		}
		logger.Debug("twilio: queued message %s to %s", sid, to)
	}
	return errors.Join(errs...)
}

func (n *Notifier) sendOne(ctx context.Context, to, body string) (string, error) {
	if err := n.limiter.Wait(ctx); err != nil {
		return "", err
	}

	form := url.Values{}
	form.Set("To", to)
	form.Set("From", n.from)
	form.Set("Body", body)

	endpoint := fmt.Sprintf("%s/2010-04-01/Accounts/%s/Messages.json", n.baseURL, url.PathEscape(n.accountSID))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.SetBasicAuth(n.accountSID, n.authToken)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := n.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	if n.limiter.Observe(resp) {
		return "", domain.ErrRateLimited
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var apiErr errorResponse
		if json.Unmarshal(respBody, &apiErr) == nil && apiErr.Message != "" {
			return "", fmt.Errorf("twilio error %d (status %d): %s", apiErr.Code, resp.StatusCode, apiErr.Message)
		}
		return "", fmt.Errorf("twilio error (status %d): %s", resp.StatusCode, string(respBody))
	}

	var msg messageResponse
	if err := json.Unmarshal(respBody, &msg); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	return msg.SID, nil
}

// truncate cuts s to at most n runes.
func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n-1]) + "…"
}
