package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSubscriptionIsActiveAt(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	hourLater := now.Add(time.Hour)
	hourAgo := now.Add(-time.Hour)

	tests := []struct {
		name string
		sub  *Subscription
		want bool
	}{
		{"nil", nil, false},
		{"none", &Subscription{Status: SubscriptionStatusNone}, false},
		{"active", &Subscription{Status: SubscriptionStatusActive}, true},
		{"cancelled in grace period", &Subscription{Status: SubscriptionStatusCancelled, EndsAt: &hourLater}, true},
		{"cancelled after ends_at", &Subscription{Status: SubscriptionStatusCancelled, EndsAt: &hourAgo}, false},
		{"cancelled without ends_at", &Subscription{Status: SubscriptionStatusCancelled}, false},
		{"paused", &Subscription{Status: SubscriptionStatusPaused, EndsAt: &hourLater}, false},
		{"expired", &Subscription{Status: SubscriptionStatusExpired}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.sub.IsActiveAt(now))
		})
	}
}

func TestParseEventKind(t *testing.T) {
	tests := map[string]EventKind{
		"subscription_created":           EventCreated,
		"subscription_updated":           EventUpdated,
		"subscription_cancelled":         EventCancelled,
		"cancelled":                      EventCancelled,
		"Subscription_Resumed":           EventResumed,
		"subscription_unpaused":          EventUnpaused,
		"subscription_expired":           EventExpired,
		"subscription_paused":            EventPaused,
		"subscription_payment_failed":    EventPaymentFailed,
		"subscription_payment_recovered": EventPaymentRecovered,
		"subscription_payment_success":   EventPaymentRecovered,
		"order_created":                  EventUnknown,
		"":                               EventUnknown,
	}

	for name, want := range tests {
		assert.Equal(t, want, ParseEventKind(name), name)
	}
}

func TestBillingEventProviderCancelled(t *testing.T) {
	assert.True(t, (&BillingEvent{ProviderStatus: "cancelled"}).ProviderCancelled())
	assert.True(t, (&BillingEvent{ProviderStatus: "Canceled"}).ProviderCancelled())
	assert.False(t, (&BillingEvent{ProviderStatus: "active"}).ProviderCancelled())
}
