package alerting

import (
	"context"
	"log/slog"
	"time"

	"github.com/mr1hm/crisis-alerts/internal/feed"
	"github.com/mr1hm/crisis-alerts/internal/models"
	"github.com/mr1hm/crisis-alerts/internal/repository"
)

// TestRecipients is the fixed fan-out set used by every broadcast.
// TODO: derive recipients from Registry subscribers once delivery is backed
// by a real gateway; until then subscriptions do not affect who is sent to.
var TestRecipients = []string{
	"+1234567890",
	"+1987654321",
	"+1122334455",
}

// Relayer receives each successfully persisted alert. The SMS relay
// implements it; nil disables relaying.
type Relayer interface {
	Relay(alert models.Alert)
}

type Broadcaster struct {
	repo       repository.AlertRepository
	feed       *feed.Publisher[models.Alert]
	recipients []string
	relay      Relayer
	now        func() time.Time
}

// NewBroadcaster uses TestRecipients when recipients is empty.
func NewBroadcaster(repo repository.AlertRepository, recipients []string, relay Relayer) *Broadcaster {
	if len(recipients) == 0 {
		recipients = TestRecipients
	}
	return &Broadcaster{
		repo:       repo,
		feed:       feed.NewPublisher[models.Alert]("alerts", repo.ListAlerts),
		recipients: append([]string(nil), recipients...),
		relay:      relay,
		now:        time.Now,
	}
}

// Send marks every recipient delivered, persists the alert and returns a
// receipt. Nothing is published or relayed if the write fails.
func (b *Broadcaster) Send(ctx context.Context, in models.AlertInput) (*models.Receipt, error) {
	now := b.now()

	statuses := make([]models.RecipientStatus, 0, len(b.recipients))
	for _, phone := range b.recipients {
		statuses = append(statuses, models.RecipientStatus{
			Phone:     phone,
			Status:    models.DeliveryDelivered,
			Timestamp: now,
		})
	}

	alert := &models.Alert{
		Title:       in.Title,
		Description: in.Description,
		Location:    in.Location,
		Severity:    in.Severity,
		Type:        in.Type,
		Status:      models.AlertStatusSent,
		MessageType: models.MessageTypeTest,
		CreatedAt:   now,
		Recipients:  statuses,
	}
	if err := b.repo.AddAlert(ctx, alert); err != nil {
		slog.Error("error sending alert", "location", in.Location, "error", err)
		return nil, &PersistenceError{Op: "add alert", Err: err}
	}

	slog.Info("alert sent", "id", alert.ID, "severity", alert.Severity, "location", alert.Location, "recipients", len(statuses))

	// The write is committed; observers hear about it even if the caller is gone.
	b.feed.Notify(context.WithoutCancel(ctx))
	if b.relay != nil {
		b.relay.Relay(*alert)
	}

	return &models.Receipt{
		Success:    true,
		MessageID:  alert.ID,
		Timestamp:  now,
		Recipients: statuses,
	}, nil
}

func (b *Broadcaster) List(ctx context.Context) ([]models.Alert, error) {
	alerts, err := b.repo.ListAlerts(ctx)
	if err != nil {
		return nil, &PersistenceError{Op: "list alerts", Err: err}
	}
	return alerts, nil
}

func (b *Broadcaster) Recipients() []string {
	return append([]string(nil), b.recipients...)
}

func (b *Broadcaster) Feed() *feed.Publisher[models.Alert] {
	return b.feed
}
