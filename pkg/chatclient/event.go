// Package chatclient implements the client side of the secure-messaging
// real-time channel: a session manager that authenticates a persistent
// websocket connection, sends and receives chat messages, tracks read
// receipts and presence, and maintains an in-memory conversation store
// that UI layers render from.
package chatclient

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// Wire envelope. Every frame in both directions is an Envelope whose Data
// payload depends on Type.
type Envelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// Inbound event types.
const (
	TypeConnected    = "connected"
	TypeNewMessage   = "new_message"
	TypeMessageSent  = "message_sent"
	TypeMessageRead  = "message_read"
	TypeOnlineStatus = "online_status"
)

// Outbound request types.
const (
	TypeSendMessage     = "send_message"
	TypeMarkAsRead      = "mark_as_read"
	TypeGetOnlineStatus = "get_online_status"
)

// Message is one chat message as carried on the wire and held in the store.
// The id and sent timestamp are always server-assigned; the client never
// fabricates a Message before the server acknowledges it.
type Message struct {
	ID          int64      `json:"id"`
	SenderID    int64      `json:"sender_id"`
	RecipientID int64      `json:"recipient_id"`
	Content     string     `json:"content"`
	SentAt      time.Time  `json:"sent_at"`
	Read        bool       `json:"read"`
	ReadAt      *time.Time `json:"read_at,omitempty"`
	SenderName  string     `json:"sender_name,omitempty"`
	SenderRole  string     `json:"sender_role,omitempty"`
}

// SendMessageRequest is the payload of a send_message request.
type SendMessageRequest struct {
	RecipientID int64  `json:"recipient_id"`
	Content     string `json:"content"`
	MessageType string `json:"message_type"`
}

// MarkAsReadRequest is the payload of a mark_as_read request.
type MarkAsReadRequest struct {
	MessageIDs []int64 `json:"message_ids"`
}

// GetOnlineStatusRequest is the payload of a get_online_status request.
type GetOnlineStatusRequest struct {
	UserIDs []int64 `json:"user_ids"`
}

// Event is the closed set of inbound events the session handles. Decoding to
// a tagged union instead of dispatching on raw strings means every event kind
// is handled exhaustively; nothing is silently dropped.
type Event interface {
	isEvent()
}

// ConnectedEvent carries the server-assigned connection identifier sent on a
// successful handshake.
type ConnectedEvent struct {
	ConnectionID string `json:"connection_id"`
}

// NewMessageEvent carries a message sent to the local user by a counterpart.
type NewMessageEvent struct {
	Message Message
}

// MessageSentEvent echoes the local user's own outbound message with its
// canonical id and timestamp.
type MessageSentEvent struct {
	Message Message
}

// MessageReadEvent reports that a message was read.
type MessageReadEvent struct {
	MessageID int64     `json:"message_id"`
	ReadAt    time.Time `json:"read_at"`
	ReaderID  int64     `json:"reader_id"`
}

// OnlineStatusEvent carries a partial presence map. Only the user ids present
// in the payload are updated; all others are untouched.
type OnlineStatusEvent struct {
	Status map[int64]bool
}

func (ConnectedEvent) isEvent()    {}
func (NewMessageEvent) isEvent()   {}
func (MessageSentEvent) isEvent()  {}
func (MessageReadEvent) isEvent()  {}
func (OnlineStatusEvent) isEvent() {}

// DecodeEvent parses a raw inbound frame into one of the concrete Event
// types. Unknown event types return an error so the session can count them
// rather than drop them silently.
func DecodeEvent(raw []byte) (Event, error) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("decode envelope: %w", err)
	}

	switch env.Type {
	case TypeConnected:
		var ev ConnectedEvent
		if err := json.Unmarshal(env.Data, &ev); err != nil {
			return nil, fmt.Errorf("decode %s: %w", env.Type, err)
		}
		return ev, nil
	case TypeNewMessage:
		var m Message
		if err := json.Unmarshal(env.Data, &m); err != nil {
			return nil, fmt.Errorf("decode %s: %w", env.Type, err)
		}
		return NewMessageEvent{Message: m}, nil
	case TypeMessageSent:
		var m Message
		if err := json.Unmarshal(env.Data, &m); err != nil {
			return nil, fmt.Errorf("decode %s: %w", env.Type, err)
		}
		return MessageSentEvent{Message: m}, nil
	case TypeMessageRead:
		var ev MessageReadEvent
		if err := json.Unmarshal(env.Data, &ev); err != nil {
			return nil, fmt.Errorf("decode %s: %w", env.Type, err)
		}
		return ev, nil
	case TypeOnlineStatus:
		// The wire carries user ids as JSON object keys, which are strings.
		var wire map[string]bool
		if err := json.Unmarshal(env.Data, &wire); err != nil {
			return nil, fmt.Errorf("decode %s: %w", env.Type, err)
		}
		status := make(map[int64]bool, len(wire))
		for k, v := range wire {
			id, err := strconv.ParseInt(k, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("decode %s: bad user id %q", env.Type, k)
			}
			status[id] = v
		}
		return OnlineStatusEvent{Status: status}, nil
	default:
		return nil, fmt.Errorf("unknown event type %q", env.Type)
	}
}

// EncodeRequest wraps an outbound payload in an Envelope and marshals it.
func EncodeRequest(reqType string, payload interface{}) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode %s payload: %w", reqType, err)
	}
	return json.Marshal(Envelope{Type: reqType, Data: data})
}
