package chatclient

import (
	"sort"
	"sync"
)

// ConnState is the connection lifecycle state observed by the UI.
type ConnState int

const (
	StateUninitialized ConnState = iota
	StateConnecting
	StateConnected
	StateDisconnected
	StateReconnecting
	StateTerminated
)

func (s ConnState) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateDisconnected:
		return "disconnected"
	case StateReconnecting:
		return "reconnecting"
	case StateTerminated:
		return "terminated"
	default:
		return "unknown"
	}
}

// Conversation is the message thread with exactly one counterpart user.
// Messages are chronological and append-only; the store never deletes them.
type Conversation struct {
	CounterpartID   int64
	CounterpartName string
	CounterpartRole string
	Messages        []Message
	UnreadCount     int
	Online          bool
}

// Store holds all conversation, message and presence state for one session.
// The session's single event-processing goroutine is the only writer for
// inbound events; UI surfaces read concurrently through the accessors, so
// all state is guarded by a RWMutex. State is in-memory only and lost when
// the session goes away.
type Store struct {
	mu sync.RWMutex

	localUserID   int64
	connectionID  string
	state         ConnState
	lastErr       error
	conversations map[int64]*Conversation
	presence      map[int64]bool
	selected      int64 // counterpart id of the selected conversation, 0 if none
}

// NewStore creates an empty store for the given local user.
func NewStore(localUserID int64) *Store {
	return &Store{
		localUserID:   localUserID,
		state:         StateUninitialized,
		conversations: make(map[int64]*Conversation),
		presence:      make(map[int64]bool),
	}
}

// LocalUserID returns the id of the user this store belongs to.
func (s *Store) LocalUserID() int64 {
	return s.localUserID
}

// SeedConversations loads the initial conversation list fetched over REST.
// Existing state for a counterpart is replaced; at most one conversation per
// counterpart id is kept.
func (s *Store) SeedConversations(convs []Conversation) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range convs {
		c := convs[i]
		s.conversations[c.CounterpartID] = &c
	}
}

// SelectConversation marks a conversation as the one currently open in the
// UI and clears its unread count. Passing 0 deselects.
func (s *Store) SelectConversation(counterpartID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selected = counterpartID
	if c, ok := s.conversations[counterpartID]; ok {
		c.UnreadCount = 0
	}
}

// SelectedConversation returns the counterpart id of the selected
// conversation, or 0 if none is selected.
func (s *Store) SelectedConversation() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.selected
}

// Connected reports whether the session is currently connected. The UI uses
// this to gate message composition.
func (s *Store) Connected() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state == StateConnected
}

// State returns the current connection state.
func (s *Store) State() ConnState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// ConnectionID returns the server-assigned connection identifier, or "" if
// no handshake has completed yet.
func (s *Store) ConnectionID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.connectionID
}

// LastError returns the most recent connection-related error, or nil.
func (s *Store) LastError() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastErr
}

// Online reports the presence flag for a user. The second return is false if
// no presence information has been received for that user.
func (s *Store) Online(userID int64) (bool, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	online, ok := s.presence[userID]
	return online, ok
}

// Conversation returns a snapshot copy of the conversation with the given
// counterpart, or false if none exists.
func (s *Store) Conversation(counterpartID int64) (Conversation, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.conversations[counterpartID]
	if !ok {
		return Conversation{}, false
	}
	return s.snapshot(c), true
}

// Conversations returns snapshot copies of all conversations, ordered by
// counterpart id for stable iteration.
func (s *Store) Conversations() []Conversation {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Conversation, 0, len(s.conversations))
	for _, c := range s.conversations {
		out = append(out, s.snapshot(c))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CounterpartID < out[j].CounterpartID })
	return out
}

// CounterpartIDs returns the ids of all counterparts with a conversation.
func (s *Store) CounterpartIDs() []int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]int64, 0, len(s.conversations))
	for id := range s.conversations {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// UnreadMessageIDs returns the ids of unread messages authored by the
// counterpart in the given conversation. The local user's own messages are
// never included; a message cannot be self-marked-read.
func (s *Store) UnreadMessageIDs(counterpartID int64) []int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.conversations[counterpartID]
	if !ok {
		return nil
	}
	var ids []int64
	for i := range c.Messages {
		m := &c.Messages[i]
		if m.SenderID == counterpartID && !m.Read {
			ids = append(ids, m.ID)
		}
	}
	return ids
}

func (s *Store) snapshot(c *Conversation) Conversation {
	out := *c
	out.Messages = make([]Message, len(c.Messages))
	copy(out.Messages, c.Messages)
	return out
}

// -- mutation entry points used by the session --

func (s *Store) setState(state ConnState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = state
	if state == StateConnected {
		s.lastErr = nil
	}
}

func (s *Store) setError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastErr = err
}

func (s *Store) setConnectionID(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.connectionID = id
}

// applyNewMessage appends an inbound message from a counterpart. The owning
// conversation is whichever of sender/recipient is not the local user. The
// unread count increments only when that conversation is not selected.
func (s *Store) applyNewMessage(m Message) {
	s.mu.Lock()
	defer s.mu.Unlock()

	counterpartID := m.SenderID
	if counterpartID == s.localUserID {
		counterpartID = m.RecipientID
	}

	c := s.conversation(counterpartID)
	if c.CounterpartName == "" && m.SenderID == counterpartID {
		c.CounterpartName = m.SenderName
		c.CounterpartRole = m.SenderRole
	}
	c.Messages = append(c.Messages, m)
	if m.SenderID != s.localUserID && s.selected != counterpartID {
		c.UnreadCount++
	}
}

// applyMessageSent appends the authoritative echo of the local user's own
// outbound message. Unread counts are unaffected.
func (s *Store) applyMessageSent(m Message) {
	s.mu.Lock()
	defer s.mu.Unlock()

	counterpartID := m.RecipientID
	if counterpartID == s.localUserID {
		counterpartID = m.SenderID
	}
	c := s.conversation(counterpartID)
	c.Messages = append(c.Messages, m)
}

// applyMessageRead locates the message across all conversations and sets its
// read flag and timestamp. Read state is monotonic: a message already read
// stays read, so replaying the same event is a no-op. An unknown message id
// is also a no-op; it may belong to a conversation not yet loaded.
func (s *Store) applyMessageRead(ev MessageReadEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, c := range s.conversations {
		for i := range c.Messages {
			m := &c.Messages[i]
			if m.ID != ev.MessageID {
				continue
			}
			if m.Read {
				return
			}
			m.Read = true
			readAt := ev.ReadAt
			m.ReadAt = &readAt
			return
		}
	}
}

// applyOnlineStatus merges a partial presence map. Only the user ids present
// in the payload are touched.
func (s *Store) applyOnlineStatus(status map[int64]bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, online := range status {
		s.presence[id] = online
		if c, ok := s.conversations[id]; ok {
			c.Online = online
		}
	}
}

// conversation returns the thread for a counterpart, creating it if needed.
// Caller must hold the write lock.
func (s *Store) conversation(counterpartID int64) *Conversation {
	c, ok := s.conversations[counterpartID]
	if !ok {
		c = &Conversation{CounterpartID: counterpartID}
		if online, known := s.presence[counterpartID]; known {
			c.Online = online
		}
		s.conversations[counterpartID] = c
	}
	return c
}
