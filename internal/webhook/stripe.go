// Package webhook syncs Stripe subscription events into the billing
// collection the entitlement checker reads.
package webhook

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stripe/stripe-go/v72"
	"github.com/stripe/stripe-go/v72/client"
	"github.com/stripe/stripe-go/v72/webhook"

	"github.com/iiresodh/prequal-api/internal/domain/billing"
	"github.com/iiresodh/prequal-api/internal/infrastructure/metrics"
)

const maxPayloadBytes = 65536

// firebaseUIDKey is the metadata key the checkout flow stamps on Stripe
// customers and subscriptions.
const firebaseUIDKey = "firebaseUID"

// StripeHandler verifies webhook signatures and mirrors subscription state
// into the document store.
type StripeHandler struct {
	secret       string
	billing      billing.Repository
	stripeClient *client.API
	log          zerolog.Logger
}

// NewStripeHandler builds the webhook handler. apiKey may be empty; the
// customer-metadata fallback for UID resolution is then unavailable.
func NewStripeHandler(secret, apiKey string, repo billing.Repository, log zerolog.Logger) *StripeHandler {
	h := &StripeHandler{
		secret:  secret,
		billing: repo,
		log:     log.With().Str("component", "stripe-webhook").Logger(),
	}
	if apiKey != "" {
		api := &client.API{}
		api.Init(apiKey, nil)
		h.stripeClient = api
	}
	return h
}

// Enabled reports whether a webhook secret is configured.
func (h *StripeHandler) Enabled() bool {
	return h.secret != ""
}

// Handle processes POST /webhooks/stripe. The signature is the only
// authentication on this route.
func (h *StripeHandler) Handle(c *gin.Context) {
	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, maxPayloadBytes))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable payload"})
		return
	}

	event, err := webhook.ConstructEvent(payload, c.GetHeader("Stripe-Signature"), h.secret)
	if err != nil {
		h.log.Warn().Err(err).Msg("webhook signature verification failed")
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid signature"})
		return
	}

	switch event.Type {
	case "customer.subscription.created", "customer.subscription.updated":
		h.syncSubscription(c.Request.Context(), event)
	case "customer.subscription.deleted":
		h.removeSubscription(c.Request.Context(), event)
	default:
		h.log.Debug().Str("event", event.Type).Msg("ignoring webhook event")
	}

	c.JSON(http.StatusOK, gin.H{"received": true})
}

func (h *StripeHandler) syncSubscription(ctx context.Context, event stripe.Event) {
	sub, userID, ok := h.decode(event)
	if !ok {
		metrics.SubscriptionSyncTotal.WithLabelValues(event.Type, "skipped").Inc()
		return
	}

	record := billing.Subscription{
		ID:               sub.ID,
		Status:           string(sub.Status),
		CurrentPeriodEnd: time.Unix(sub.CurrentPeriodEnd, 0).UTC(),
	}
	if sub.Items != nil && len(sub.Items.Data) > 0 && sub.Items.Data[0].Price != nil {
		record.PriceID = sub.Items.Data[0].Price.ID
	}

	if err := h.billing.UpsertSubscription(ctx, userID, record); err != nil {
		metrics.SubscriptionSyncTotal.WithLabelValues(event.Type, "error").Inc()
		h.log.Error().Err(err).Str("user_id", userID).Str("subscription", sub.ID).
			Msg("subscription upsert failed")
		return
	}
	metrics.SubscriptionSyncTotal.WithLabelValues(event.Type, "ok").Inc()
	h.log.Info().Str("user_id", userID).Str("subscription", sub.ID).
		Str("status", string(sub.Status)).Msg("subscription synced")
}

func (h *StripeHandler) removeSubscription(ctx context.Context, event stripe.Event) {
	sub, userID, ok := h.decode(event)
	if !ok {
		metrics.SubscriptionSyncTotal.WithLabelValues(event.Type, "skipped").Inc()
		return
	}

	if err := h.billing.DeleteSubscription(ctx, userID, sub.ID); err != nil {
		metrics.SubscriptionSyncTotal.WithLabelValues(event.Type, "error").Inc()
		h.log.Error().Err(err).Str("user_id", userID).Str("subscription", sub.ID).
			Msg("subscription delete failed")
		return
	}
	metrics.SubscriptionSyncTotal.WithLabelValues(event.Type, "ok").Inc()
	h.log.Info().Str("user_id", userID).Str("subscription", sub.ID).Msg("subscription removed")
}

func (h *StripeHandler) decode(event stripe.Event) (*stripe.Subscription, string, bool) {
	var sub stripe.Subscription
	if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
		h.log.Error().Err(err).Str("event", event.Type).Msg("decode subscription payload failed")
		return nil, "", false
	}

	userID := h.resolveUserID(&sub)
	if userID == "" {
		h.log.Warn().Str("subscription", sub.ID).Msg("no firebase UID on subscription, skipping")
		return nil, "", false
	}
	return &sub, userID, true
}

// resolveUserID reads the Firebase UID from the subscription metadata, then
// falls back to the customer's metadata via the Stripe API.
func (h *StripeHandler) resolveUserID(sub *stripe.Subscription) string {
	if uid := sub.Metadata[firebaseUIDKey]; uid != "" {
		return uid
	}
	if h.stripeClient == nil || sub.Customer == nil || sub.Customer.ID == "" {
		return ""
	}
	customer, err := h.stripeClient.Customers.Get(sub.Customer.ID, nil)
	if err != nil {
		h.log.Error().Err(err).Str("customer", sub.Customer.ID).Msg("customer lookup failed")
		return ""
	}
	return customer.Metadata[firebaseUIDKey]
}
