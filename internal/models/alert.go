package models

import "time"

type AlertSeverity string

const (
	AlertSeverityLow      AlertSeverity = "low"
	AlertSeverityMedium   AlertSeverity = "medium"
	AlertSeverityHigh     AlertSeverity = "high"
	AlertSeverityCritical AlertSeverity = "critical"
)

const (
	AlertStatusSent    = "sent"
	MessageTypeTest    = "test"
	DeliveryDelivered  = "delivered"
	AlertTypeEmergency = "emergency"
)

// AlertInput is what a caller supplies to a broadcast. Everything else on
// Alert is assigned at send time.
type AlertInput struct {
	Title       string        `json:"title,omitempty"`
	Description string        `json:"description"`
	Location    string        `json:"location"`
	Severity    AlertSeverity `json:"severity"`
	Type        string        `json:"type"`
}

type RecipientStatus struct {
	Phone     string    `json:"phone"`
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

type Alert struct {
	ID          string            `json:"id"`
	Title       string            `json:"title,omitempty"`
	Description string            `json:"description"`
	Location    string            `json:"location"`
	Severity    AlertSeverity     `json:"severity"`
	Type        string            `json:"type"`
	Status      string            `json:"status"`
	MessageType string            `json:"messageType"`
	CreatedAt   time.Time         `json:"createdAt"`
	Recipients  []RecipientStatus `json:"recipients"` // snapshot at send time
}

// Receipt is returned to the caller of a successful broadcast.
type Receipt struct {
	Success    bool              `json:"success"`
	MessageID  string            `json:"messageId"`
	Timestamp  time.Time         `json:"timestamp"`
	Recipients []RecipientStatus `json:"recipients"`
}
