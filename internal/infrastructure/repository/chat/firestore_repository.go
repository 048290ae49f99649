// Package chat persists conversations and messages in Firestore under
// users/{uid}/conversations/{cid}/messages/{mid}.
package chat

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"

	domain "github.com/iiresodh/prequal-api/internal/domain/chat"
)

// Repository implements chat.Repository on Firestore.
type Repository struct {
	client *firestore.Client
}

// NewRepository builds the Firestore-backed chat repository.
func NewRepository(client *firestore.Client) *Repository {
	return &Repository{client: client}
}

type conversationDoc struct {
	Title     string    `firestore:"title"`
	CreatedAt time.Time `firestore:"created_at"`
}

type messageDoc struct {
	Role      string    `firestore:"role"`
	Content   string    `firestore:"content"`
	Timestamp time.Time `firestore:"timestamp"`
}

func (r *Repository) conversations(userID string) *firestore.CollectionRef {
	return r.client.Collection("users").Doc(userID).Collection("conversations")
}

// ListConversations returns the user's conversations, newest first.
func (r *Repository) ListConversations(ctx context.Context, userID string) ([]domain.Conversation, error) {
	iter := r.conversations(userID).OrderBy("created_at", firestore.Desc).Documents(ctx)
	defer iter.Stop()

	var convos []domain.Conversation
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("list conversations for %s: %w", userID, err)
		}
		var data conversationDoc
		if err := doc.DataTo(&data); err != nil {
			return nil, fmt.Errorf("decode conversation %s: %w", doc.Ref.ID, err)
		}
		convos = append(convos, domain.Conversation{
			ID:        doc.Ref.ID,
			UserID:    userID,
			Title:     data.Title,
			CreatedAt: data.CreatedAt,
		})
	}
	return convos, nil
}

// CreateConversation creates the thread document with a server timestamp.
func (r *Repository) CreateConversation(ctx context.Context, userID, title string) (*domain.Conversation, error) {
	ref := r.conversations(userID).NewDoc()
	_, err := ref.Set(ctx, map[string]interface{}{
		"title":      title,
		"created_at": firestore.ServerTimestamp,
	})
	if err != nil {
		return nil, fmt.Errorf("create conversation for %s: %w", userID, err)
	}
	return &domain.Conversation{ID: ref.ID, UserID: userID, Title: title}, nil
}

// RenameConversation updates only the title field.
func (r *Repository) RenameConversation(ctx context.Context, userID, conversationID, title string) error {
	ref := r.conversations(userID).Doc(conversationID)
	_, err := ref.Update(ctx, []firestore.Update{{Path: "title", Value: title}})
	if err != nil {
		return fmt.Errorf("rename conversation %s: %w", conversationID, err)
	}
	return nil
}

// DeleteConversation removes the messages first, then the thread document;
// the store has no native cascade.
func (r *Repository) DeleteConversation(ctx context.Context, userID, conversationID string) error {
	convoRef := r.conversations(userID).Doc(conversationID)

	iter := convoRef.Collection("messages").Documents(ctx)
	defer iter.Stop()
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return fmt.Errorf("list messages of %s: %w", conversationID, err)
		}
		if _, err := doc.Ref.Delete(ctx); err != nil {
			return fmt.Errorf("delete message %s: %w", doc.Ref.ID, err)
		}
	}

	if _, err := convoRef.Delete(ctx); err != nil {
		return fmt.Errorf("delete conversation %s: %w", conversationID, err)
	}
	return nil
}

// ListMessages returns the thread's messages in timestamp order.
func (r *Repository) ListMessages(ctx context.Context, userID, conversationID string) ([]domain.Message, error) {
	iter := r.conversations(userID).Doc(conversationID).
		Collection("messages").OrderBy("timestamp", firestore.Asc).Documents(ctx)
	defer iter.Stop()

	var messages []domain.Message
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("list messages of %s: %w", conversationID, err)
		}
		var data messageDoc
		if err := doc.DataTo(&data); err != nil {
			return nil, fmt.Errorf("decode message %s: %w", doc.Ref.ID, err)
		}
		messages = append(messages, domain.Message{
			ID:        doc.Ref.ID,
			Role:      domain.Role(data.Role),
			Content:   data.Content,
			Timestamp: data.Timestamp,
		})
	}
	return messages, nil
}

// AppendMessage adds a turn with a server-assigned timestamp.
func (r *Repository) AppendMessage(ctx context.Context, userID, conversationID string, message domain.Message) error {
	_, _, err := r.conversations(userID).Doc(conversationID).Collection("messages").Add(ctx, map[string]interface{}{
		"role":      string(message.Role),
		"content":   message.Content,
		"timestamp": firestore.ServerTimestamp,
	})
	if err != nil {
		return fmt.Errorf("append message to %s: %w", conversationID, err)
	}
	return nil
}

var _ domain.Repository = (*Repository)(nil)
