// Package firestore owns the long-lived document store handle.
package firestore

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
)

// Connect opens the Firestore client for the project. The client is safe
// for concurrent use and lives for the whole process.
func Connect(ctx context.Context, projectID string) (*firestore.Client, error) {
	client, err := firestore.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("connect firestore: %w", err)
	}
	return client, nil
}
