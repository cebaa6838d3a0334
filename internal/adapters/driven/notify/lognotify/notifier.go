// Package lognotify writes alerts to the application log instead of
// sending them anywhere. It is the default when no SMS provider is set up.
package lognotify

import (
	"context"

	"github.com/custodia-labs/onair/internal/core/ports/driven"
	"github.com/custodia-labs/onair/internal/logger"
)

// Ensure Notifier implements the interface.
var _ driven.Notifier = (*Notifier)(nil)

// Notifier logs each alert once per recipient.
type Notifier struct{}

// NewNotifier creates a log notifier.
func NewNotifier() *Notifier {
	return &Notifier{}
}

// Send logs the message. It never fails.
func (n *Notifier) Send(_ context.Context, recipients []string, message string) error {
	log := logger.With("component", "notify")
	if len(recipients) == 0 {
		log.Info("alert", "message", message)
		return nil
	}
	for _, to := range recipients {
		log.Info("alert", "to", to, "message", message)
	}
	return nil
}
