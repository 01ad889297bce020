// Package realtime is the server side of the secure-messaging channel. It
// implements a hub-and-spoke pattern where each authenticated user holds one
// or more websocket connections; chat requests arriving on any connection are
// persisted and fanned out to the affected users' connections.
package realtime

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/clinidesk/clinidesk/pkg/chatclient"
)

// ReadReceipt describes one message whose read flag was just set, with the
// user to notify (the message's original sender).
type ReadReceipt struct {
	MessageID int64
	SenderID  int64
	ReadAt    time.Time
}

// MessageStore persists chat traffic. Implemented by the messaging domain
// service; ids and timestamps are always assigned by the store, never by
// clients.
type MessageStore interface {
	Save(ctx context.Context, senderID, recipientID int64, content string) (chatclient.Message, error)
	MarkRead(ctx context.Context, readerID int64, messageIDs []int64) ([]ReadReceipt, error)
}

// Hub tracks connected clients per user id. All operations are thread-safe
// via sync.RWMutex.
type Hub struct {
	mu      sync.RWMutex
	clients map[int64]map[*Client]struct{} // user id -> connections

	store MessageStore
	log   zerolog.Logger
}

// NewHub creates a Hub persisting through the given store.
func NewHub(store MessageStore, logger zerolog.Logger) *Hub {
	return &Hub{
		clients: make(map[int64]map[*Client]struct{}),
		store:   store,
		log:     logger.With().Str("component", "realtime").Logger(),
	}
}

// Register adds a client. The user's transition to online is broadcast when
// this is their first connection.
func (h *Hub) Register(client *Client) {
	h.mu.Lock()
	first := len(h.clients[client.UserID]) == 0
	if h.clients[client.UserID] == nil {
		h.clients[client.UserID] = make(map[*Client]struct{})
	}
	h.clients[client.UserID][client] = struct{}{}
	h.mu.Unlock()

	if first {
		h.broadcastPresence(client.UserID, true)
	}
	h.log.Debug().Int64("user_id", client.UserID).Str("conn_id", client.ID).Msg("client registered")
}

// Unregister removes a client and closes its send channel. The user's
// transition to offline is broadcast when their last connection goes away.
func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	conns, ok := h.clients[client.UserID]
	if !ok {
		h.mu.Unlock()
		return
	}
	if _, ok := conns[client]; !ok {
		h.mu.Unlock()
		return
	}
	delete(conns, client)
	last := len(conns) == 0
	if last {
		delete(h.clients, client.UserID)
	}
	close(client.Send)
	h.mu.Unlock()

	if last {
		h.broadcastPresence(client.UserID, false)
	}
	h.log.Debug().Int64("user_id", client.UserID).Str("conn_id", client.ID).Msg("client unregistered")
}

// UserOnline reports whether a user has at least one connection.
func (h *Hub) UserOnline(userID int64) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[userID]) > 0
}

// ConnectionCount returns the total number of connections across all users.
func (h *Hub) ConnectionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	n := 0
	for _, conns := range h.clients {
		n += len(conns)
	}
	return n
}

// OnlineStatus returns the online flag for each requested user id, keyed by
// the id's decimal form as the wire contract requires.
func (h *Hub) OnlineStatus(userIDs []int64) map[string]bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	status := make(map[string]bool, len(userIDs))
	for _, id := range userIDs {
		status[strconv.FormatInt(id, 10)] = len(h.clients[id]) > 0
	}
	return status
}

// ProcessMessage handles one inbound request frame from a client.
func (h *Hub) ProcessMessage(ctx context.Context, client *Client, raw []byte) {
	var env chatclient.Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		h.log.Debug().Err(err).Int64("user_id", client.UserID).Msg("malformed frame")
		return
	}

	switch env.Type {
	case chatclient.TypeSendMessage:
		var req chatclient.SendMessageRequest
		if err := json.Unmarshal(env.Data, &req); err != nil {
			return
		}
		h.handleSend(ctx, client, req)
	case chatclient.TypeMarkAsRead:
		var req chatclient.MarkAsReadRequest
		if err := json.Unmarshal(env.Data, &req); err != nil {
			return
		}
		h.handleMarkRead(ctx, client, req)
	case chatclient.TypeGetOnlineStatus:
		var req chatclient.GetOnlineStatusRequest
		if err := json.Unmarshal(env.Data, &req); err != nil {
			return
		}
		h.sendToClient(client, chatclient.TypeOnlineStatus, h.OnlineStatus(req.UserIDs))
	default:
		h.log.Debug().Str("type", env.Type).Int64("user_id", client.UserID).Msg("unknown request type")
	}
}

func (h *Hub) handleSend(ctx context.Context, client *Client, req chatclient.SendMessageRequest) {
	content := strings.TrimSpace(req.Content)
	if content == "" || req.RecipientID == 0 {
		return
	}

	msg, err := h.store.Save(ctx, client.UserID, req.RecipientID, content)
	if err != nil {
		h.log.Error().Err(err).Int64("user_id", client.UserID).Msg("failed to persist message")
		return
	}
	msg.SenderName = client.Name
	msg.SenderRole = client.Role

	h.sendToUser(req.RecipientID, chatclient.TypeNewMessage, msg)
	h.sendToUser(client.UserID, chatclient.TypeMessageSent, msg)
}

func (h *Hub) handleMarkRead(ctx context.Context, client *Client, req chatclient.MarkAsReadRequest) {
	if len(req.MessageIDs) == 0 {
		return
	}
	receipts, err := h.store.MarkRead(ctx, client.UserID, req.MessageIDs)
	if err != nil {
		h.log.Error().Err(err).Int64("user_id", client.UserID).Msg("failed to mark messages read")
		return
	}
	for _, r := range receipts {
		h.sendToUser(r.SenderID, chatclient.TypeMessageRead, chatclient.MessageReadEvent{
			MessageID: r.MessageID,
			ReadAt:    r.ReadAt,
			ReaderID:  client.UserID,
		})
	}
}

func (h *Hub) broadcastPresence(userID int64, online bool) {
	payload := map[string]bool{strconv.FormatInt(userID, 10): online}
	data, err := encodeEvent(chatclient.TypeOnlineStatus, payload)
	if err != nil {
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for id, conns := range h.clients {
		if id == userID {
			continue
		}
		for c := range conns {
			select {
			case c.Send <- data:
			default:
				// Client buffer full; skip to avoid blocking.
			}
		}
	}
}

func (h *Hub) sendToUser(userID int64, eventType string, payload interface{}) {
	data, err := encodeEvent(eventType, payload)
	if err != nil {
		h.log.Error().Err(err).Str("type", eventType).Msg("failed to marshal event")
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients[userID] {
		select {
		case c.Send <- data:
		default:
			// Client buffer full; skip to avoid blocking.
		}
	}
}

func (h *Hub) sendToClient(client *Client, eventType string, payload interface{}) {
	data, err := encodeEvent(eventType, payload)
	if err != nil {
		return
	}
	select {
	case client.Send <- data:
	default:
	}
}

func encodeEvent(eventType string, payload interface{}) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(chatclient.Envelope{Type: eventType, Data: data})
}
