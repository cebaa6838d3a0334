package services

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/custodia-labs/onair/internal/core/domain"
	"github.com/custodia-labs/onair/internal/core/ports/driven"
	"github.com/custodia-labs/onair/internal/core/ports/driving"
	"github.com/custodia-labs/onair/internal/logger"
)

// Default monitor timings.
const (
	DefaultMonitorLookback = 10 * time.Minute
	DefaultChannelDelay    = 30 * time.Second
)

// Ensure ScheduledMonitor implements the interface.
var _ driving.MonitorService = (*ScheduledMonitor)(nil)

// MonitorConfig configures the entity monitor.
type MonitorConfig struct {
	// Channels are searched in order on every tick.
	Channels []domain.Channel

	// Recipients receive every relevant summary.
	Recipients []string

	// WatchList names the entities to look for.
	WatchList []string

	// Lookback is the transcript window searched.
	Lookback time.Duration

	// ChannelDelay spaces consecutive channel searches within a tick.
	ChannelDelay time.Duration
}

// ScheduledMonitor searches recent transcripts for watch-list mentions,
// summarises what it finds and alerts the recipients.
type ScheduledMonitor struct {
	query      driving.TranscriptSearch
	summariser driven.Summariser
	notifier   driven.Notifier
	prompts    driven.PromptStore
	cfg        MonitorConfig
	now        func() time.Time
}

// NewScheduledMonitor creates a monitor. summariser and notifier may be nil;
// searches then fail with ErrLLMUnavailable and alerts with ErrNotifierUnavailable.
func NewScheduledMonitor(
	query driving.TranscriptSearch,
	summariser driven.Summariser,
	notifier driven.Notifier,
	prompts driven.PromptStore,
	cfg MonitorConfig,
) *ScheduledMonitor {
	if cfg.Lookback <= 0 {
		cfg.Lookback = DefaultMonitorLookback
	}
	if cfg.ChannelDelay < 0 {
		cfg.ChannelDelay = 0
	}
	return &ScheduledMonitor{
		query:      query,
		summariser: summariser,
		notifier:   notifier,
		prompts:    prompts,
		cfg:        cfg,
		now:        time.Now,
	}
}

// Tick searches every channel in turn and sends relevant summaries.
// A failing channel is logged and skipped; its error is included in the
// joined result. Returns the number of alerts sent.
func (m *ScheduledMonitor) Tick(ctx context.Context) (int, error) {
	limit := rate.Inf
	if m.cfg.ChannelDelay > 0 {
		limit = rate.Every(m.cfg.ChannelDelay)
	}
	pacer := rate.NewLimiter(limit, 1)

	var errs []error
	sent := 0

	for _, channel := range m.cfg.Channels {
		if err := pacer.Wait(ctx); err != nil {
			errs = append(errs, err)
			break
		}

		log := logger.With("component", "monitor", "channel", channel.ID)

		result, err := m.Search(ctx, channel.ID, "")
		if err != nil {
			log.Error("search failed", "error", err)
			errs = append(errs, fmt.Errorf("%s: %w", channel.ID, err))
			continue
		}
		if !result.Relevant {
			log.Debug("nothing relevant", "matches", result.Matches)
			continue
		}

		if err := m.alert(ctx, channel, result.Summary); err != nil {
			log.Error("alert failed", "error", err)
			errs = append(errs, fmt.Errorf("%s: %w", channel.ID, err))
			continue
		}
		log.Info("alert sent", "recipients", len(m.cfg.Recipients))
		sent++
	}

	return sent, errors.Join(errs...)
}

// Search retrieves the channel's recent transcripts for query, or for the
// watch-list probe when query is empty, and summarises them.
func (m *ScheduledMonitor) Search(ctx context.Context, channelID, query string) (*domain.MonitorResult, error) {
	if channelID == "" {
		return nil, fmt.Errorf("%w: channel is required", domain.ErrInvalidInput)
	}
	if m.summariser == nil {
		return nil, domain.ErrLLMUnavailable
	}

	watchList := strings.Join(m.cfg.WatchList, "\n")

	probe := strings.TrimSpace(query)
	if probe == "" {
		p, err := m.render(driven.PromptMonitorProbe, map[string]string{
			driven.PromptVarWatchList: watchList,
		})
		if err != nil {
			return nil, err
		}
		probe = p
	}

	result := &domain.MonitorResult{
		ChannelID:  channelID,
		Query:      probe,
		SearchedAt: m.now(),
	}

	matches, err := m.query.Query(ctx, channelID, probe, m.cfg.Lookback)
	if err != nil {
		return nil, err
	}
	result.Matches = len(matches)
	if len(matches) == 0 {
		return result, nil
	}

	texts := make([]string, 0, len(matches))
	for _, match := range matches {
		texts = append(texts, match.Entry.Text)
	}

	task, err := m.render(driven.PromptMonitorTask, map[string]string{
		driven.PromptVarWatchList: watchList,
		driven.PromptVarData:      strings.Join(texts, "\n\n"),
	})
	if err != nil {
		return nil, err
	}
	instructions, err := m.render(driven.PromptMonitorInstructions, map[string]string{
		driven.PromptVarWatchList: watchList,
	})
	if err != nil {
		return nil, err
	}

	summary, err := m.summariser.Summarise(ctx, task, instructions)
	if err != nil {
		return nil, fmt.Errorf("summarising: %w", err)
	}

	if domain.IsNullSummary(summary) {
		return result, nil
	}
	result.Summary = strings.TrimSpace(summary)
	result.Relevant = true
	return result, nil
}

// alert sends the summary prefixed with the channel name.
func (m *ScheduledMonitor) alert(ctx context.Context, channel domain.Channel, summary string) error {
	if m.notifier == nil {
		return domain.ErrNotifierUnavailable
	}
	if len(m.cfg.Recipients) == 0 {
		return fmt.Errorf("%w: no recipients configured", domain.ErrNotifierUnavailable)
	}
	message := fmt.Sprintf("%s\n\n%s", channel.DisplayName(), summary)
	return m.notifier.Send(ctx, m.cfg.Recipients, message)
}

// render loads a prompt template and substitutes its placeholders. Every
// placeholder in vars must appear in the template; any other text,
// including a literal %, is kept as written.
func (m *ScheduledMonitor) render(name string, vars map[string]string) (string, error) {
	if m.prompts == nil {
		return "", fmt.Errorf("%w: no prompt store", domain.ErrInvalidInput)
	}
	tmpl, err := m.prompts.Load(name)
	if err != nil {
		return "", fmt.Errorf("loading prompt %s: %w", name, err)
	}

	pairs := make([]string, 0, 2*len(vars))
	for _, key := range slices.Sorted(maps.Keys(vars)) {
		if !strings.Contains(tmpl, key) {
			return "", fmt.Errorf("%w: prompt %s is missing %s", domain.ErrInvalidInput, name, key)
		}
		pairs = append(pairs, key, vars[key])
	}
	return strings.NewReplacer(pairs...).Replace(tmpl), nil
}
