package driven

import "context"

// Notifier delivers alert text to recipients.
// Delivery is best-effort; there is no exactly-once guarantee.
//
// Implementations may include:
//   - Twilio SMS
//   - Log output
type Notifier interface {
	// Send delivers message to every recipient. A failure for one recipient
	// does not prevent delivery to the others; the joined errors are returned.
	Send(ctx context.Context, recipients []string, message string) error
}
