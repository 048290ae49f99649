// Package billing models the subscription records synced from the payment
// provider into the document store.
package billing

import (
	"context"
	"time"
)

const (
	StatusActive   = "active"
	StatusTrialing = "trialing"
)

// Subscription is one billing record under a user's customer document.
type Subscription struct {
	ID               string
	Status           string
	PriceID          string
	CurrentPeriodEnd time.Time
}

// Entitles reports whether this record grants access on its own.
func (s Subscription) Entitles() bool {
	return s.Status == StatusActive || s.Status == StatusTrialing
}

// Repository reads and writes the per-user subscription collection.
type Repository interface {
	HasActiveSubscription(ctx context.Context, userID string) (bool, error)
	UpsertSubscription(ctx context.Context, userID string, sub Subscription) error
	DeleteSubscription(ctx context.Context, userID, subscriptionID string) error
}
