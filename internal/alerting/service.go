package alerting

import "github.com/mr1hm/crisis-alerts/internal/repository"

// Service bundles the subscription registry and the alert broadcaster over
// one store.
type Service struct {
	Subscriptions *Registry
	Alerts        *Broadcaster
}

func NewService(store repository.Store, recipients []string, relay Relayer) *Service {
	return &Service{
		Subscriptions: NewRegistry(store),
		Alerts:        NewBroadcaster(store, recipients, relay),
	}
}

// Close detaches every live observer.
func (s *Service) Close() {
	s.Subscriptions.Feed().Close()
	s.Alerts.Feed().Close()
}
