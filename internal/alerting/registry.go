package alerting

import (
	"context"
	"log/slog"
	"regexp"
	"sync"
	"time"

	"github.com/mr1hm/crisis-alerts/internal/feed"
	"github.com/mr1hm/crisis-alerts/internal/models"
	"github.com/mr1hm/crisis-alerts/internal/repository"
)

// Optional +, then 2-15 digits with a non-zero first digit.
var phonePattern = regexp.MustCompile(`^\+?[1-9]\d{1,14}$`)

func IsValidPhoneNumber(phoneNumber string) bool {
	return phonePattern.MatchString(phoneNumber)
}

// Registry records phone subscriptions in the store and keeps a
// process-local view keyed by phone number. The local view starts empty and
// only reflects calls made through this instance.
type Registry struct {
	repo    repository.SubscriberRepository
	feed    *feed.Publisher[models.Subscriber]
	entries map[string]models.Subscriber
	mu      sync.RWMutex
	now     func() time.Time
}

func NewRegistry(repo repository.SubscriberRepository) *Registry {
	return &Registry{
		repo:    repo,
		feed:    feed.NewPublisher[models.Subscriber]("subscribers", repo.ListSubscribers),
		entries: make(map[string]models.Subscriber),
		now:     time.Now,
	}
}

// Subscribe validates and persists a new subscription. Re-subscribing a
// number adds another record and replaces the local entry outright.
func (r *Registry) Subscribe(ctx context.Context, phoneNumber string, prefs models.Preferences) (*models.SubscriptionReceipt, error) {
	if !IsValidPhoneNumber(phoneNumber) {
		return nil, &ValidationError{Field: "phoneNumber", Value: phoneNumber, Err: ErrInvalidPhoneNumber}
	}

	sub := &models.Subscriber{
		PhoneNumber: phoneNumber,
		Area:        prefs.Area,
		Subscribed:  true,
		IsTest:      true,
		CreatedAt:   r.now(),
	}
	if err := r.repo.AddSubscriber(ctx, sub); err != nil {
		slog.Error("error subscribing", "phone", phoneNumber, "error", err)
		return nil, &PersistenceError{Op: "add subscriber", Err: err}
	}

	r.mu.Lock()
	r.entries[phoneNumber] = *sub
	r.mu.Unlock()

	slog.Info("subscribed", "id", sub.ID, "phone", phoneNumber, "area", prefs.Area)
	// The write is committed; observers hear about it even if the caller is gone.
	r.feed.Notify(context.WithoutCancel(ctx))

	return &models.SubscriptionReceipt{
		Success:     true,
		ID:          sub.ID,
		PhoneNumber: phoneNumber,
		Area:        prefs.Area,
		IsTest:      true,
	}, nil
}

// Unsubscribe removes every stored record for phoneNumber. A number with no
// records still succeeds.
func (r *Registry) Unsubscribe(ctx context.Context, phoneNumber string) (*models.UnsubscribeResult, error) {
	deleted, err := r.repo.DeleteSubscribersByPhone(ctx, phoneNumber)
	if err != nil {
		slog.Error("error unsubscribing", "phone", phoneNumber, "error", err)
		return nil, &PersistenceError{Op: "delete subscribers", Err: err}
	}

	r.mu.Lock()
	delete(r.entries, phoneNumber)
	r.mu.Unlock()

	slog.Info("unsubscribed", "phone", phoneNumber, "deleted", deleted)
	r.feed.Notify(context.WithoutCancel(ctx))

	return &models.UnsubscribeResult{Success: true, PhoneNumber: phoneNumber}, nil
}

// List returns every stored subscriber in storage order.
func (r *Registry) List(ctx context.Context) ([]models.Subscriber, error) {
	subs, err := r.repo.ListSubscribers(ctx)
	if err != nil {
		return nil, &PersistenceError{Op: "list subscribers", Err: err}
	}
	return subs, nil
}

// Lookup reads the local entry for phoneNumber without touching the store.
func (r *Registry) Lookup(phoneNumber string) (models.Subscriber, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	sub, ok := r.entries[phoneNumber]
	return sub, ok
}

func (r *Registry) Feed() *feed.Publisher[models.Subscriber] {
	return r.feed
}
