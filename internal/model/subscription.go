package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type SubscriptionStatus string

const (
	SubscriptionStatusNone      SubscriptionStatus = "none"
	SubscriptionStatusActive    SubscriptionStatus = "active"
	SubscriptionStatusCancelled SubscriptionStatus = "cancelled"
	SubscriptionStatusPaused    SubscriptionStatus = "paused"
	SubscriptionStatusExpired   SubscriptionStatus = "expired"
)

// Subscription is the paid plan of a supervisor, driven only by verified billing events
type Subscription struct {
	SupervisorID int64              `json:"supervisor_id"`
	ExternalID   string             `json:"external_id"` // id подписки у платёжного провайдера
	Status       SubscriptionStatus `json:"status"`
	RenewsAt     *time.Time         `json:"renews_at"`
	EndsAt       *time.Time         `json:"ends_at"`
	CancelledAt  *time.Time         `json:"cancelled_at"`
	PortalURL    string             `json:"portal_url"`
	CreatedAt    time.Time          `json:"created_at"`
	UpdatedAt    time.Time          `json:"updated_at"`
}

// IsActiveAt reports whether the subscription grants access at the given moment.
// A cancelled plan keeps access until EndsAt.
func (s *Subscription) IsActiveAt(now time.Time) bool {
	if s == nil {
		return false
	}
	switch s.Status {
	case SubscriptionStatusActive:
		return true
	case SubscriptionStatusCancelled:
		return s.EndsAt != nil && now.Before(*s.EndsAt)
	}
	return false
}

// EventKind is the normalized billing event name
type EventKind string

const (
	EventUnknown          EventKind = ""
	EventCreated          EventKind = "created"
	EventUpdated          EventKind = "updated"
	EventCancelled        EventKind = "cancelled"
	EventResumed          EventKind = "resumed"
	EventUnpaused         EventKind = "unpaused"
	EventExpired          EventKind = "expired"
	EventPaused           EventKind = "paused"
	EventPaymentFailed    EventKind = "payment_failed"
	EventPaymentRecovered EventKind = "payment_recovered"
)

var eventAliases = map[string]EventKind{
	"created":           EventCreated,
	"updated":           EventUpdated,
	"cancelled":         EventCancelled,
	"canceled":          EventCancelled,
	"resumed":           EventResumed,
	"unpaused":          EventUnpaused,
	"expired":           EventExpired,
	"paused":            EventPaused,
	"payment_failed":    EventPaymentFailed,
	"payment_recovered": EventPaymentRecovered,
	"payment_success":   EventPaymentRecovered,
}

// ParseEventKind maps a provider event name ("subscription_cancelled", "cancelled") to an EventKind.
// Unknown names map to EventUnknown.
func ParseEventKind(name string) EventKind {
	name = strings.ToLower(strings.TrimSpace(name))
	name = strings.TrimPrefix(name, "subscription_")
	return eventAliases[name]
}

// BillingEvent is a verified webhook delivery, already decoded
type BillingEvent struct {
	ID             uuid.UUID  `json:"id"`
	Name           string     `json:"event_name"` // как прислал провайдер
	Kind           EventKind  `json:"kind"`
	PersonID       int64      `json:"person_id"`
	ExternalID     string     `json:"external_id"`
	ProviderStatus string     `json:"provider_status"`
	RenewsAt       *time.Time `json:"renews_at"`
	EndsAt         *time.Time `json:"ends_at"`
	PortalURL      string     `json:"portal_url"`
	Payload        []byte     `json:"-"`
	ReceivedAt     time.Time  `json:"received_at"`
}

// ProviderCancelled checks if the provider reports the subscription as cancelled
func (e *BillingEvent) ProviderCancelled() bool {
	s := strings.ToLower(e.ProviderStatus)
	return s == "cancelled" || s == "canceled"
}
