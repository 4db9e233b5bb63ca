package repository

import (
	"context"

	"github.com/mr1hm/crisis-alerts/internal/models"
)

// AlertRepository stores broadcast records. AddAlert assigns a.ID.
type AlertRepository interface {
	AddAlert(ctx context.Context, a *models.Alert) error
	ListAlerts(ctx context.Context) ([]models.Alert, error)
}

// SubscriberRepository stores phone subscriptions. Phone numbers are not
// unique; DeleteSubscribersByPhone removes every matching record.
type SubscriberRepository interface {
	AddSubscriber(ctx context.Context, s *models.Subscriber) error
	ListSubscribers(ctx context.Context) ([]models.Subscriber, error)
	DeleteSubscribersByPhone(ctx context.Context, phoneNumber string) (int64, error)
}

// Store is a backend holding both collections.
type Store interface {
	AlertRepository
	SubscriberRepository
	Close() error
}
