package messaging

import "time"

// ChatMessage is a persisted direct message between two users.
type ChatMessage struct {
	ID          int64      `db:"id" json:"id"`
	SenderID    int64      `db:"sender_id" json:"sender_id"`
	RecipientID int64      `db:"recipient_id" json:"recipient_id"`
	Content     string     `db:"content" json:"content"`
	SentAt      time.Time  `db:"sent_at" json:"sent_at"`
	ReadAt      *time.Time `db:"read_at" json:"read_at,omitempty"`
}

// Read reports whether the recipient has read the message.
func (m *ChatMessage) Read() bool {
	return m.ReadAt != nil
}

// ReadMarker records that a message was read, addressed to its original
// sender so they can be notified.
type ReadMarker struct {
	MessageID int64     `json:"message_id"`
	SenderID  int64     `json:"sender_id"`
	ReadAt    time.Time `json:"read_at"`
}

// ConversationSummary is one row of a user's conversation list: the
// counterpart, the latest message, and how many messages are unread.
type ConversationSummary struct {
	CounterpartID   int64     `db:"counterpart_id" json:"counterpart_id"`
	CounterpartName string    `db:"counterpart_name" json:"counterpart_name"`
	CounterpartRole string    `db:"counterpart_role" json:"counterpart_role"`
	LastContent     string    `db:"last_content" json:"last_content"`
	LastSentAt      time.Time `db:"last_sent_at" json:"last_sent_at"`
	UnreadCount     int       `db:"unread_count" json:"unread_count"`
}
