package chatclient

import (
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

// CloseCodeAuthRevoked is the close code the server uses when it terminates a
// session because the credential was revoked. It is the one server-initiated
// close that must not trigger reconnection.
const CloseCodeAuthRevoked = 4001

const (
	defaultReconnectDelay = 2 * time.Second
	defaultMaxAttempts    = 5
	handshakeTimeout      = 10 * time.Second
)

// CredentialSource supplies the bearer token presented during the websocket
// handshake. The token is assumed pre-issued; this package never refreshes it.
type CredentialSource interface {
	Token() (string, error)
}

// StaticCredential is a CredentialSource wrapping a fixed token string.
type StaticCredential string

func (c StaticCredential) Token() (string, error) {
	return string(c), nil
}

// Config configures a Session.
type Config struct {
	// URL is the websocket endpoint, e.g. ws://host/api/v1/chat/ws.
	URL string

	// Credentials supplies the bearer token for the handshake. An empty
	// token is a terminal AuthenticationError; no connection is attempted.
	Credentials CredentialSource

	// ReconnectDelay is the fixed delay between reconnection attempts.
	// Defaults to 2s.
	ReconnectDelay time.Duration

	// MaxAttempts bounds consecutive failed connection attempts before the
	// session gives up with a persistent ConnectionError. Defaults to 5.
	MaxAttempts int

	// Dialer overrides the websocket dialer, mainly for tests.
	Dialer *websocket.Dialer

	Logger zerolog.Logger
}

// DroppedCounts reports operations dropped while disconnected. Best-effort
// operations (mark-read, presence) no-op silently; the counters make those
// drops observable.
type DroppedCounts struct {
	Sends          int
	MarkReads      int
	StatusRequests int
}

// Session owns the lifecycle of one logical real-time connection: it
// establishes and authenticates the connection, reconnects with a bounded
// fixed-delay policy, and feeds inbound events into its Store. A Session is
// single-use: after Close or retry exhaustion it cannot be restarted; create
// a new Session instead.
//
// Anything in flight when the connection drops is lost; sends are never
// queued or replayed.
type Session struct {
	cfg   Config
	store *Store
	log   zerolog.Logger

	mu      sync.Mutex
	conn    *websocket.Conn
	dropped DroppedCounts
	unknown int

	writeMu sync.Mutex

	done      chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
}

// New creates a Session feeding the given store. Start must be called before
// any other method.
func New(cfg Config, store *Store) *Session {
	if cfg.ReconnectDelay <= 0 {
		cfg.ReconnectDelay = defaultReconnectDelay
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = defaultMaxAttempts
	}
	if cfg.Dialer == nil {
		d := *websocket.DefaultDialer
		d.HandshakeTimeout = handshakeTimeout
		cfg.Dialer = &d
	}
	return &Session{
		cfg:   cfg,
		store: store,
		log:   cfg.Logger.With().Str("component", "chatclient").Logger(),
		done:  make(chan struct{}),
	}
}

// Start retrieves the credential and begins connecting. A missing credential
// is terminal: the error is recorded in the store, no connection is attempted,
// and the session is unusable. Connection establishment itself is
// asynchronous; observe progress through the store.
func (s *Session) Start() error {
	if s.cfg.Credentials == nil {
		err := &AuthenticationError{Reason: "no credential source"}
		s.store.setError(err)
		s.store.setState(StateTerminated)
		return err
	}
	token, err := s.cfg.Credentials.Token()
	if err != nil || token == "" {
		authErr := &AuthenticationError{Reason: "missing auth token"}
		if err != nil {
			authErr.Reason = err.Error()
		}
		s.store.setError(authErr)
		s.store.setState(StateTerminated)
		return authErr
	}

	s.store.setState(StateConnecting)
	s.wg.Add(1)
	go s.run(token)
	return nil
}

// Close tears the session down synchronously. If connected the connection is
// closed; in-flight requests are lost. Safe to call more than once.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		close(s.done)
		s.mu.Lock()
		conn := s.conn
		s.conn = nil
		s.mu.Unlock()
		if conn != nil {
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(time.Second))
			_ = conn.Close()
		}
	})
	s.wg.Wait()
	if s.store.State() != StateTerminated {
		s.store.setState(StateDisconnected)
	}
}

// Send emits a chat message to a counterpart. Whitespace-only content is a
// no-op. While not connected the send is dropped entirely and a
// NotConnectedError is both returned and recorded in the store. The message
// enters the store only when the server echoes it back as message_sent.
func (s *Session) Send(recipientID int64, content string) error {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil
	}

	s.mu.Lock()
	conn := s.conn
	s.mu.Unlock()
	if conn == nil || !s.store.Connected() {
		err := &NotConnectedError{Op: "send"}
		s.store.setError(err)
		s.mu.Lock()
		s.dropped.Sends++
		s.mu.Unlock()
		s.log.Debug().Int64("recipient_id", recipientID).Msg("send dropped while disconnected")
		return err
	}

	return s.emit(conn, TypeSendMessage, SendMessageRequest{
		RecipientID: recipientID,
		Content:     content,
		MessageType: "text",
	})
}

// MarkRead asks the server to mark the given message ids read. Read state is
// best-effort: while disconnected this is a silent no-op, observable only via
// Dropped().
func (s *Session) MarkRead(messageIDs []int64) error {
	if len(messageIDs) == 0 {
		return nil
	}
	s.mu.Lock()
	conn := s.conn
	s.mu.Unlock()
	if conn == nil || !s.store.Connected() {
		s.mu.Lock()
		s.dropped.MarkReads++
		s.mu.Unlock()
		s.log.Debug().Ints64("message_ids", messageIDs).Msg("mark-read dropped while disconnected")
		return nil
	}
	return s.emit(conn, TypeMarkAsRead, MarkAsReadRequest{MessageIDs: messageIDs})
}

// RequestStatus asks the server for the online flags of the given users.
// This is a pull, not a subscription: callers re-invoke when the counterpart
// set changes. The session itself re-issues the request for all known
// counterparts after every successful (re)connect. While disconnected this
// is a silent no-op.
func (s *Session) RequestStatus(userIDs []int64) error {
	if len(userIDs) == 0 {
		return nil
	}
	s.mu.Lock()
	conn := s.conn
	s.mu.Unlock()
	if conn == nil || !s.store.Connected() {
		s.mu.Lock()
		s.dropped.StatusRequests++
		s.mu.Unlock()
		s.log.Debug().Msg("status request dropped while disconnected")
		return nil
	}
	return s.emit(conn, TypeGetOnlineStatus, GetOnlineStatusRequest{UserIDs: userIDs})
}

// Dropped returns counters of operations dropped while disconnected.
func (s *Session) Dropped() DroppedCounts {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dropped
}

// UnknownEvents returns how many inbound frames failed to decode into a
// known event type.
func (s *Session) UnknownEvents() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.unknown
}

func (s *Session) emit(conn *websocket.Conn, reqType string, payload interface{}) error {
	data, err := EncodeRequest(reqType, payload)
	if err != nil {
		return err
	}
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		return fmt.Errorf("emit %s: %w", reqType, err)
	}
	return nil
}

// run drives the connect/read/reconnect loop until the session is closed,
// the retry budget is exhausted, or the server revokes the credential.
func (s *Session) run(token string) {
	defer s.wg.Done()

	attempts := 0
	for {
		conn, err := s.dial(token)
		if err != nil {
			attempts++
			connErr := &ConnectionError{Reason: err.Error(), Attempts: attempts}
			s.store.setError(connErr)
			s.log.Warn().Err(err).Int("attempt", attempts).Msg("connect failed")
			if attempts >= s.cfg.MaxAttempts {
				s.store.setState(StateTerminated)
				s.log.Error().Int("attempts", attempts).Msg("retry budget exhausted")
				return
			}
			if !s.wait(s.cfg.ReconnectDelay) {
				return
			}
			s.store.setState(StateReconnecting)
			continue
		}

		attempts = 0
		s.mu.Lock()
		s.conn = conn
		s.mu.Unlock()
		s.store.setState(StateConnected)
		s.log.Info().Str("url", s.cfg.URL).Msg("connected")

		// Presence is not preserved across a connection's lifetime, so
		// refresh it for every known counterpart on each (re)connect.
		if ids := s.store.CounterpartIDs(); len(ids) > 0 {
			_ = s.emit(conn, TypeGetOnlineStatus, GetOnlineStatusRequest{UserIDs: ids})
		}

		readErr := s.readLoop(conn)

		s.mu.Lock()
		s.conn = nil
		s.mu.Unlock()
		_ = conn.Close()

		select {
		case <-s.done:
			return
		default:
		}

		if closeErr, ok := readErr.(*websocket.CloseError); ok {
			if closeErr.Code == CloseCodeAuthRevoked {
				s.store.setError(&AuthenticationError{Reason: "session revoked by server"})
				s.store.setState(StateTerminated)
				s.log.Warn().Msg("server revoked session; not reconnecting")
				return
			}
			// Server-initiated close: reconnect immediately.
			s.store.setState(StateReconnecting)
			s.log.Info().Int("code", closeErr.Code).Msg("server closed connection; reconnecting")
			continue
		}

		if readErr != nil {
			s.store.setError(&TransportError{Reason: readErr.Error()})
			s.log.Warn().Err(readErr).Msg("connection lost")
		}
		s.store.setState(StateDisconnected)
		if !s.wait(s.cfg.ReconnectDelay) {
			return
		}
		s.store.setState(StateReconnecting)
	}
}

func (s *Session) dial(token string) (*websocket.Conn, error) {
	u, err := url.Parse(s.cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse endpoint: %w", err)
	}
	q := u.Query()
	q.Set("token", token)
	u.RawQuery = q.Encode()

	conn, resp, err := s.cfg.Dialer.Dial(u.String(), nil)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("dial %s: %s: %w", s.cfg.URL, resp.Status, err)
		}
		return nil, fmt.Errorf("dial %s: %w", s.cfg.URL, err)
	}
	return conn, nil
}

// readLoop processes inbound frames until the connection fails. Frames are
// handled in the order the transport delivers them; no resequencing.
func (s *Session) readLoop(conn *websocket.Conn) error {
	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		ev, err := DecodeEvent(raw)
		if err != nil {
			s.mu.Lock()
			s.unknown++
			s.mu.Unlock()
			s.log.Debug().Err(err).Msg("undecodable event")
			continue
		}
		s.handleEvent(ev)
	}
}

func (s *Session) handleEvent(ev Event) {
	switch ev := ev.(type) {
	case ConnectedEvent:
		s.store.setConnectionID(ev.ConnectionID)
	case NewMessageEvent:
		s.store.applyNewMessage(ev.Message)
	case MessageSentEvent:
		s.store.applyMessageSent(ev.Message)
	case MessageReadEvent:
		s.store.applyMessageRead(ev)
	case OnlineStatusEvent:
		s.store.applyOnlineStatus(ev.Status)
	}
}

// wait sleeps for d or returns false if the session is closed first.
func (s *Session) wait(d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-s.done:
		return false
	}
}
