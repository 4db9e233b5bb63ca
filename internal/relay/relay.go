// Package relay copies broadcast alerts onto the mock SMS transport in the
// background, one job per recipient.
package relay

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/mr1hm/crisis-alerts/internal/models"
	"github.com/mr1hm/crisis-alerts/internal/worker"
)

// Sender is the transport side of the relay.
type Sender interface {
	SendSMS(ctx context.Context, phoneNumber, message string) (*models.SMSMessage, error)
}

type job struct {
	alertID string
	phone   string
	text    string
}

type Relay struct {
	sender Sender
	pool   *worker.Pool[job]
}

func New(sender Sender, workers, bufferSize int) *Relay {
	r := &Relay{sender: sender}
	r.pool = worker.NewPool("sms-relay", workers, bufferSize, r.process)
	return r
}

func (r *Relay) Start(ctx context.Context) {
	r.pool.Start(ctx)
}

// Relay queues one SMS per recipient without blocking. Recipients that do
// not fit in the queue are dropped and logged.
func (r *Relay) Relay(alert models.Alert) {
	text := FormatMessage(alert)

	for _, rcpt := range alert.Recipients {
		err := r.pool.TrySubmit(job{alertID: alert.ID, phone: rcpt.Phone, text: text})
		if err != nil {
			slog.Warn("relay dropped recipient", "alert_id", alert.ID, "phone", rcpt.Phone, "error", err)
		}
	}
}

func (r *Relay) process(ctx context.Context, j job) error {
	msg, err := r.sender.SendSMS(ctx, j.phone, j.text)
	if err != nil {
		return fmt.Errorf("relay alert %s to %s: %w", j.alertID, j.phone, err)
	}
	slog.Debug("relayed alert", "alert_id", j.alertID, "message_id", msg.MessageID)
	return nil
}

// Stop waits for queued relays to finish.
func (r *Relay) Stop() {
	r.pool.Stop()
	slog.Info("sms relay stopped")
}

// FormatMessage renders the SMS body for an alert.
func FormatMessage(a models.Alert) string {
	var b strings.Builder
	if a.Severity != "" {
		fmt.Fprintf(&b, "[%s] ", strings.ToUpper(string(a.Severity)))
	}
	if a.Location != "" {
		b.WriteString(a.Location)
		b.WriteString(": ")
	}
	b.WriteString(a.Description)
	return b.String()
}
