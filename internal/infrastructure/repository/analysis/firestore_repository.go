// Package analysis persists completed prequalification analyses in the
// flat prequalifications collection.
package analysis

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	"github.com/google/uuid"

	domain "github.com/iiresodh/prequal-api/internal/domain/analysis"
)

// Repository implements analysis.Repository on Firestore.
type Repository struct {
	client *firestore.Client
}

// NewRepository builds the Firestore-backed analysis repository.
func NewRepository(client *firestore.Client) *Repository {
	return &Repository{client: client}
}

// SaveAnalysis writes one write-once prequalification record.
func (r *Repository) SaveAnalysis(ctx context.Context, record domain.Prequalification) error {
	ref := r.client.Collection("prequalifications").Doc(uuid.NewString())
	_, err := ref.Set(ctx, map[string]interface{}{
		"user_id":      record.UserID,
		"title":        record.Title,
		"facts":        record.Facts,
		"country_code": record.CountryCode,
		"result":       record.Result,
		"created_at":   firestore.ServerTimestamp,
	})
	if err != nil {
		return fmt.Errorf("save analysis for %s: %w", record.UserID, err)
	}
	return nil
}

var _ domain.Repository = (*Repository)(nil)
