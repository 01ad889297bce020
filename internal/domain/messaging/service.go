package messaging

import (
	"context"
	"fmt"
	"strings"
)

const maxContentLength = 4000

type Service struct {
	messages Repository
}

func NewService(messages Repository) *Service {
	return &Service{messages: messages}
}

// SaveMessage validates and persists a direct message, returning the stored
// message with its canonical id and timestamp.
func (s *Service) SaveMessage(ctx context.Context, senderID, recipientID int64, content string) (*ChatMessage, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, fmt.Errorf("content is required")
	}
	if len(content) > maxContentLength {
		return nil, fmt.Errorf("content exceeds %d characters", maxContentLength)
	}
	if senderID <= 0 || recipientID <= 0 {
		return nil, fmt.Errorf("sender and recipient are required")
	}
	if senderID == recipientID {
		return nil, fmt.Errorf("cannot send a message to yourself")
	}

	m := &ChatMessage{
		SenderID:    senderID,
		RecipientID: recipientID,
		Content:     content,
	}
	if err := s.messages.Create(ctx, m); err != nil {
		return nil, fmt.Errorf("save message: %w", err)
	}
	return m, nil
}

// MarkMessagesRead marks the given messages as read on behalf of readerID.
// Messages not addressed to the reader, already read, or unknown are
// ignored. Returns markers for the messages actually updated.
func (s *Service) MarkMessagesRead(ctx context.Context, readerID int64, messageIDs []int64) ([]ReadMarker, error) {
	if readerID <= 0 {
		return nil, fmt.Errorf("invalid reader id: %d", readerID)
	}
	if len(messageIDs) == 0 {
		return nil, nil
	}
	return s.messages.MarkRead(ctx, readerID, messageIDs)
}

// ChatHistory returns the message history between the caller and a
// counterpart, newest first.
func (s *Service) ChatHistory(ctx context.Context, callerID, counterpartID int64, limit, offset int) ([]*ChatMessage, int, error) {
	if callerID <= 0 || counterpartID <= 0 {
		return nil, 0, fmt.Errorf("invalid user id")
	}
	return s.messages.History(ctx, callerID, counterpartID, limit, offset)
}

// Conversations returns the caller's conversation list, most recent first.
func (s *Service) Conversations(ctx context.Context, callerID int64) ([]*ConversationSummary, error) {
	if callerID <= 0 {
		return nil, fmt.Errorf("invalid user id")
	}
	return s.messages.Conversations(ctx, callerID)
}
