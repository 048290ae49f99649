package analysis

import "context"

// Repository persists completed analyses.
type Repository interface {
	SaveAnalysis(ctx context.Context, record Prequalification) error
}
