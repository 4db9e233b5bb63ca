// Package sms is a mock SMS transport. It never contacts a carrier: sends
// are delayed, logged and appended to an in-memory history that can be
// queried by message id.
package sms

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/mr1hm/crisis-alerts/internal/models"
)

const DefaultLatency = time.Second

var ErrMessageNotFound = errors.New("message not found")

type NotFoundError struct {
	MessageID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%v: %s", ErrMessageNotFound, e.MessageID)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrMessageNotFound
}

type Service struct {
	latency time.Duration
	history []models.SMSMessage
	index   map[string]int
	mu      sync.RWMutex
	now     func() time.Time
}

func NewService(latency time.Duration) *Service {
	return &Service{
		latency: latency,
		index:   make(map[string]int),
		now:     time.Now,
	}
}

// SendSMS simulates a gateway round trip and records the message.
func (s *Service) SendSMS(ctx context.Context, phoneNumber, message string) (*models.SMSMessage, error) {
	if s.latency > 0 {
		timer := time.NewTimer(s.latency)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	now := s.now()

	s.mu.Lock()
	id := s.nextID(now)
	msg := models.SMSMessage{
		Success:     true,
		MessageID:   id,
		PhoneNumber: phoneNumber,
		Message:     message,
		Timestamp:   now,
	}
	s.index[id] = len(s.history)
	s.history = append(s.history, msg)
	s.mu.Unlock()

	slog.Info("[Mock SMS] sent", "message_id", id, "phone", phoneNumber, "message", message)
	return &msg, nil
}

// nextID must be called with mu held.
func (s *Service) nextID(now time.Time) string {
	base := fmt.Sprintf("mock-%d", now.UnixMilli())
	id := base
	for n := 1; ; n++ {
		if _, taken := s.index[id]; !taken {
			return id
		}
		id = fmt.Sprintf("%s-%d", base, n)
	}
}

// GetMessageHistory returns a copy of every sent message, oldest first.
func (s *Service) GetMessageHistory() []models.SMSMessage {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.SMSMessage{}, s.history...)
}

func (s *Service) GetMessageStatus(messageID string) (*models.MessageStatus, error) {
	s.mu.RLock()
	i, ok := s.index[messageID]
	var msg models.SMSMessage
	if ok {
		msg = s.history[i]
	}
	s.mu.RUnlock()

	if !ok {
		return nil, &NotFoundError{MessageID: messageID}
	}

	return &models.MessageStatus{
		SMSMessage:  msg,
		Status:      models.DeliveryDelivered,
		DeliveredAt: s.now(),
	}, nil
}
