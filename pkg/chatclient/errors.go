package chatclient

import "fmt"

// AuthenticationError indicates the session credential was missing or rejected
// before a connection was attempted. The session is unusable until a new one
// is created with a valid credential.
type AuthenticationError struct {
	Reason string
}

func (e *AuthenticationError) Error() string {
	return fmt.Sprintf("chat authentication failed: %s", e.Reason)
}

// ConnectionError indicates the transport failed to establish or re-establish
// the connection within the retry budget.
type ConnectionError struct {
	Reason   string
	Attempts int
}

func (e *ConnectionError) Error() string {
	if e.Attempts > 0 {
		return fmt.Sprintf("chat connection failed after %d attempts: %s", e.Attempts, e.Reason)
	}
	return fmt.Sprintf("chat connection failed: %s", e.Reason)
}

// TransportError is a generic error surfaced by an established connection.
// It does not by itself mean the connection is gone.
type TransportError struct {
	Reason string
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("chat transport error: %s", e.Reason)
}

// NotConnectedError is returned when a caller attempts to send a message while
// the session is not connected. The send is dropped, not queued.
type NotConnectedError struct {
	Op string
}

func (e *NotConnectedError) Error() string {
	return fmt.Sprintf("chat %s failed: not connected", e.Op)
}
