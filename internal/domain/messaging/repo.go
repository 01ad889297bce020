package messaging

import "context"

type Repository interface {
	Create(ctx context.Context, m *ChatMessage) error
	MarkRead(ctx context.Context, readerID int64, messageIDs []int64) ([]ReadMarker, error)
	History(ctx context.Context, userID, counterpartID int64, limit, offset int) ([]*ChatMessage, int, error)
	Conversations(ctx context.Context, userID int64) ([]*ConversationSummary, error)
}
