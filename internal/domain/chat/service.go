package chat

import (
	"context"
	"errors"

	"github.com/rs/zerolog"
)

// ErrInvalidRole rejects messages whose role is neither caller nor model.
var ErrInvalidRole = errors.New("chat: invalid message role")

// Service wraps the repository with the degradation policy: read faults
// collapse to empty results, write faults on non-critical paths to no-ops.
// Everything is logged; nothing propagates to the HTTP caller except where
// the caller genuinely needs to know a write failed (create, rename, delete).
type Service struct {
	repo Repository
	log  zerolog.Logger
}

// NewService builds the chat service.
func NewService(repo Repository, log zerolog.Logger) *Service {
	return &Service{
		repo: repo,
		log:  log.With().Str("component", "chat").Logger(),
	}
}

// ListConversations returns the user's conversations, newest first. A store
// fault yields an empty list.
func (s *Service) ListConversations(ctx context.Context, userID string) []Conversation {
	convos, err := s.repo.ListConversations(ctx, userID)
	if err != nil {
		s.log.Error().Err(err).Str("user_id", userID).Msg("list conversations failed")
		return []Conversation{}
	}
	return convos
}

// ListMessages returns a conversation's messages in timestamp order. A store
// fault yields an empty list.
func (s *Service) ListMessages(ctx context.Context, userID, conversationID string) []Message {
	messages, err := s.repo.ListMessages(ctx, userID, conversationID)
	if err != nil {
		s.log.Error().Err(err).Str("user_id", userID).Str("conversation_id", conversationID).
			Msg("list messages failed")
		return []Message{}
	}
	return messages
}

// AppendMessage adds one turn. A store fault is logged and swallowed; the
// chat flow keeps going on best-effort history.
func (s *Service) AppendMessage(ctx context.Context, userID, conversationID string, message Message) error {
	if !message.Role.Valid() {
		return ErrInvalidRole
	}
	if err := s.repo.AppendMessage(ctx, userID, conversationID, message); err != nil {
		s.log.Error().Err(err).Str("user_id", userID).Str("conversation_id", conversationID).
			Msg("append message failed")
	}
	return nil
}

// CreateConversation starts a new thread. The caller needs the new ID, so a
// store fault propagates.
func (s *Service) CreateConversation(ctx context.Context, userID, title string) (*Conversation, error) {
	convo, err := s.repo.CreateConversation(ctx, userID, title)
	if err != nil {
		s.log.Error().Err(err).Str("user_id", userID).Msg("create conversation failed")
		return nil, err
	}
	return convo, nil
}

// RenameConversation updates the thread title.
func (s *Service) RenameConversation(ctx context.Context, userID, conversationID, title string) error {
	if err := s.repo.RenameConversation(ctx, userID, conversationID, title); err != nil {
		s.log.Error().Err(err).Str("conversation_id", conversationID).Msg("rename conversation failed")
		return err
	}
	return nil
}

// DeleteConversation removes the thread and all its messages.
func (s *Service) DeleteConversation(ctx context.Context, userID, conversationID string) error {
	if err := s.repo.DeleteConversation(ctx, userID, conversationID); err != nil {
		s.log.Error().Err(err).Str("conversation_id", conversationID).Msg("delete conversation failed")
		return err
	}
	s.log.Info().Str("user_id", userID).Str("conversation_id", conversationID).Msg("conversation deleted")
	return nil
}
