// Package billing reads and writes the customers/{uid}/subscriptions
// collection the payment webhook keeps in sync.
package billing

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"

	domain "github.com/iiresodh/prequal-api/internal/domain/billing"
)

// Repository implements billing.Repository on Firestore.
type Repository struct {
	client *firestore.Client
}

// NewRepository builds the Firestore-backed billing repository.
func NewRepository(client *firestore.Client) *Repository {
	return &Repository{client: client}
}

func (r *Repository) subscriptions(userID string) *firestore.CollectionRef {
	return r.client.Collection("customers").Doc(userID).Collection("subscriptions")
}

// HasActiveSubscription reports whether any record carries an entitling
// status. One matching document is enough.
func (r *Repository) HasActiveSubscription(ctx context.Context, userID string) (bool, error) {
	iter := r.subscriptions(userID).
		Where("status", "in", []string{domain.StatusActive, domain.StatusTrialing}).
		Limit(1).
		Documents(ctx)
	defer iter.Stop()

	_, err := iter.Next()
	if err == iterator.Done {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("query subscriptions for %s: %w", userID, err)
	}
	return true, nil
}

// UpsertSubscription writes the record keyed by the provider's
// subscription ID.
func (r *Repository) UpsertSubscription(ctx context.Context, userID string, sub domain.Subscription) error {
	_, err := r.subscriptions(userID).Doc(sub.ID).Set(ctx, map[string]interface{}{
		"status":             sub.Status,
		"price_id":           sub.PriceID,
		"current_period_end": sub.CurrentPeriodEnd,
		"updated_at":         firestore.ServerTimestamp,
	})
	if err != nil {
		return fmt.Errorf("upsert subscription %s for %s: %w", sub.ID, userID, err)
	}
	return nil
}

// DeleteSubscription removes the record.
func (r *Repository) DeleteSubscription(ctx context.Context, userID, subscriptionID string) error {
	if _, err := r.subscriptions(userID).Doc(subscriptionID).Delete(ctx); err != nil {
		return fmt.Errorf("delete subscription %s for %s: %w", subscriptionID, userID, err)
	}
	return nil
}

var _ domain.Repository = (*Repository)(nil)
