package models

import "time"

// SMSMessage is a single entry in the mock transport's history.
type SMSMessage struct {
	Success     bool      `json:"success"`
	MessageID   string    `json:"messageId"`
	PhoneNumber string    `json:"phoneNumber"`
	Message     string    `json:"message"`
	Timestamp   time.Time `json:"timestamp"`
}

type MessageStatus struct {
	SMSMessage
	Status      string    `json:"status"`
	DeliveredAt time.Time `json:"deliveredAt"`
}
