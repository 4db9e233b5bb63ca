package models

import "time"

type Subscriber struct {
	ID          string    `json:"id"`
	PhoneNumber string    `json:"phoneNumber"`
	Area        string    `json:"area,omitempty"`
	Subscribed  bool      `json:"subscribed"`
	IsTest      bool      `json:"isTest"`
	CreatedAt   time.Time `json:"createdAt"`
}

type Preferences struct {
	Area string `json:"area,omitempty"`
}

type SubscriptionReceipt struct {
	Success     bool   `json:"success"`
	ID          string `json:"id"`
	PhoneNumber string `json:"phoneNumber"`
	Area        string `json:"area,omitempty"`
	IsTest      bool   `json:"isTest"`
}

type UnsubscribeResult struct {
	Success     bool   `json:"success"`
	PhoneNumber string `json:"phoneNumber"`
}
