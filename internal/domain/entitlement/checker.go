// Package entitlement decides whether an authenticated caller may invoke
// the paid endpoints.
package entitlement

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"github.com/iiresodh/prequal-api/internal/domain/apperr"
	"github.com/iiresodh/prequal-api/internal/domain/identity"
)

// BillingRepository reads subscription state from the billing store.
type BillingRepository interface {
	// HasActiveSubscription reports whether the user has at least one
	// subscription record with status "active" or "trialing".
	HasActiveSubscription(ctx context.Context, userID string) (bool, error)
}

// Checker evaluates the privileged allow-lists and, for the strict variant,
// the billing store.
type Checker struct {
	adminDomains []string
	adminEmails  []string
	billing      BillingRepository
	log          zerolog.Logger
}

// NewChecker builds a Checker. The allow-list entries are expected to be
// lower-cased and trimmed already (config.Normalize does that).
func NewChecker(adminDomains, adminEmails []string, billing BillingRepository, log zerolog.Logger) *Checker {
	return &Checker{
		adminDomains: adminDomains,
		adminEmails:  adminEmails,
		billing:      billing,
		log:          log.With().Str("component", "entitlement").Logger(),
	}
}

// Authorize is the strict variant used by the analysis endpoint: privileged
// allow-list first, then the billing store. A billing-store fault is an
// internal error, never a silent deny; it masks real entitlement state, so
// it is logged loudly.
func (c *Checker) Authorize(ctx context.Context, id identity.Identity) error {
	if c.isPrivileged(id) {
		return nil
	}

	active, err := c.billing.HasActiveSubscription(ctx, id.UserID)
	if err != nil {
		c.log.Error().Err(err).Str("user_id", id.UserID).
			Msg("billing store query failed, entitlement state unknown")
		return apperr.Internal(err)
	}
	if !active {
		return apperr.Forbidden("an active subscription is required")
	}
	return nil
}

// AuthorizeAuthenticated is the lighter variant used by the chat endpoints.
// With no allow-list entries configured it treats every verified caller as
// authorized (open mode); configuring any entry switches to restricted mode.
func (c *Checker) AuthorizeAuthenticated(id identity.Identity) error {
	if len(c.adminDomains) == 0 && len(c.adminEmails) == 0 {
		return nil
	}
	if c.isPrivileged(id) {
		return nil
	}
	return apperr.Forbidden("access restricted")
}

func (c *Checker) isPrivileged(id identity.Identity) bool {
	email := strings.ToLower(strings.TrimSpace(id.Email))
	if email == "" {
		return false
	}
	for _, allowed := range c.adminEmails {
		if email == allowed {
			return true
		}
	}
	domain := id.EmailDomain()
	if domain == "" {
		return false
	}
	for _, allowed := range c.adminDomains {
		if domain == allowed {
			return true
		}
	}
	return false
}
