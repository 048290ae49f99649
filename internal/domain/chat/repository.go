package chat

import "context"

// Repository persists conversation metadata and messages in the document
// store. Deletion removes messages before the conversation document: the
// store has no native cascade.
type Repository interface {
	ListConversations(ctx context.Context, userID string) ([]Conversation, error)
	CreateConversation(ctx context.Context, userID, title string) (*Conversation, error)
	RenameConversation(ctx context.Context, userID, conversationID, title string) error
	DeleteConversation(ctx context.Context, userID, conversationID string) error
	ListMessages(ctx context.Context, userID, conversationID string) ([]Message, error)
	AppendMessage(ctx context.Context, userID, conversationID string, message Message) error
}
