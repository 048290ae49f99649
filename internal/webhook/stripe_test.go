package webhook_test

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/iiresodh/prequal-api/internal/domain/billing"
	"github.com/iiresodh/prequal-api/internal/webhook"
)

const testSecret = "whsec_test_secret"

// MockBillingRepository implements billing.Repository for tests.
type MockBillingRepository struct {
	Upserts map[string]billing.Subscription
	Deletes []string
}

func newMockBilling() *MockBillingRepository {
	return &MockBillingRepository{Upserts: map[string]billing.Subscription{}}
}

func (m *MockBillingRepository) HasActiveSubscription(ctx context.Context, userID string) (bool, error) {
	return false, nil
}

func (m *MockBillingRepository) UpsertSubscription(ctx context.Context, userID string, sub billing.Subscription) error {
	m.Upserts[userID] = sub
	return nil
}

func (m *MockBillingRepository) DeleteSubscription(ctx context.Context, userID, subscriptionID string) error {
	m.Deletes = append(m.Deletes, userID+"/"+subscriptionID)
	return nil
}

// signPayload builds a Stripe-Signature header for the payload.
func signPayload(payload []byte, secret string) string {
	ts := time.Now().Unix()
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%d.%s", ts, payload)
	return fmt.Sprintf("t=%d,v1=%s", ts, hex.EncodeToString(mac.Sum(nil)))
}

func subscriptionEvent(eventType, subID, status, uid string) []byte {
	return []byte(fmt.Sprintf(`{
		"id": "evt_1",
		"type": %q,
		"data": {
			"object": {
				"id": %q,
				"object": "subscription",
				"status": %q,
				"metadata": {"firebaseUID": %q},
				"current_period_end": 1767225600
			}
		}
	}`, eventType, subID, status, uid))
}

func performWebhook(t *testing.T, handler *webhook.StripeHandler, payload []byte, signature string) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.POST("/webhooks/stripe", handler.Handle)

	req := httptest.NewRequest(http.MethodPost, "/webhooks/stripe", bytes.NewReader(payload))
	req.Header.Set("Stripe-Signature", signature)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestHandleSubscriptionCreated(t *testing.T) {
	repo := newMockBilling()
	handler := webhook.NewStripeHandler(testSecret, "", repo, zerolog.Nop())

	payload := subscriptionEvent("customer.subscription.created", "sub_1", "trialing", "uid-9")
	rec := performWebhook(t, handler, payload, signPayload(payload, testSecret))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	sub, ok := repo.Upserts["uid-9"]
	if !ok {
		t.Fatal("no subscription upserted for uid-9")
	}
	if sub.ID != "sub_1" || sub.Status != "trialing" {
		t.Errorf("upserted record = %+v", sub)
	}
}

func TestHandleSubscriptionDeleted(t *testing.T) {
	repo := newMockBilling()
	handler := webhook.NewStripeHandler(testSecret, "", repo, zerolog.Nop())

	payload := subscriptionEvent("customer.subscription.deleted", "sub_2", "canceled", "uid-9")
	rec := performWebhook(t, handler, payload, signPayload(payload, testSecret))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if len(repo.Deletes) != 1 || repo.Deletes[0] != "uid-9/sub_2" {
		t.Errorf("deletes = %v", repo.Deletes)
	}
}

func TestHandleRejectsBadSignature(t *testing.T) {
	repo := newMockBilling()
	handler := webhook.NewStripeHandler(testSecret, "", repo, zerolog.Nop())

	payload := subscriptionEvent("customer.subscription.created", "sub_1", "active", "uid-9")
	rec := performWebhook(t, handler, payload, signPayload(payload, "whsec_wrong_secret"))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if len(repo.Upserts) != 0 {
		t.Error("nothing must be written on signature failure")
	}
}

func TestHandleSkipsEventWithoutUID(t *testing.T) {
	repo := newMockBilling()
	handler := webhook.NewStripeHandler(testSecret, "", repo, zerolog.Nop())

	payload := subscriptionEvent("customer.subscription.created", "sub_1", "active", "")
	rec := performWebhook(t, handler, payload, signPayload(payload, testSecret))

	// Acknowledged so Stripe stops retrying, but nothing written.
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if len(repo.Upserts) != 0 {
		t.Error("no write expected without a resolvable user")
	}
}

func TestHandleIgnoresUnrelatedEvents(t *testing.T) {
	repo := newMockBilling()
	handler := webhook.NewStripeHandler(testSecret, "", repo, zerolog.Nop())

	payload := []byte(`{"id": "evt_2", "type": "invoice.paid", "data": {"object": {"id": "in_1"}}}`)
	rec := performWebhook(t, handler, payload, signPayload(payload, testSecret))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if len(repo.Upserts) != 0 || len(repo.Deletes) != 0 {
		t.Error("unrelated events must not touch the store")
	}
}

func TestEnabled(t *testing.T) {
	if webhook.NewStripeHandler("", "", newMockBilling(), zerolog.Nop()).Enabled() {
		t.Error("handler without secret must report disabled")
	}
	if !webhook.NewStripeHandler(testSecret, "", newMockBilling(), zerolog.Nop()).Enabled() {
		t.Error("handler with secret must report enabled")
	}
}
