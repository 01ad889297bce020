package chatclient

import (
	"encoding/json"
	"testing"
	"time"
)

func TestDecodeEvent_NewMessage(t *testing.T) {
	raw := []byte(`{"type":"new_message","data":{"id":10,"sender_id":2,"recipient_id":1,"content":"Hi","sent_at":"2026-03-01T09:00:00Z","sender_name":"Dr. Osei","sender_role":"physician"}}`)
	ev, err := DecodeEvent(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	nm, ok := ev.(NewMessageEvent)
	if !ok {
		t.Fatalf("expected NewMessageEvent, got %T", ev)
	}
	if nm.Message.ID != 10 || nm.Message.SenderID != 2 || nm.Message.Content != "Hi" {
		t.Errorf("unexpected message: %+v", nm.Message)
	}
}

func TestDecodeEvent_MessageRead(t *testing.T) {
	raw := []byte(`{"type":"message_read","data":{"message_id":501,"read_at":"2026-03-01T09:05:00Z","reader_id":2}}`)
	ev, err := DecodeEvent(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	mr, ok := ev.(MessageReadEvent)
	if !ok {
		t.Fatalf("expected MessageReadEvent, got %T", ev)
	}
	want := time.Date(2026, 3, 1, 9, 5, 0, 0, time.UTC)
	if mr.MessageID != 501 || mr.ReaderID != 2 || !mr.ReadAt.Equal(want) {
		t.Errorf("unexpected event: %+v", mr)
	}
}

func TestDecodeEvent_OnlineStatus_StringKeys(t *testing.T) {
	raw := []byte(`{"type":"online_status","data":{"2":true,"3":false}}`)
	ev, err := DecodeEvent(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	os, ok := ev.(OnlineStatusEvent)
	if !ok {
		t.Fatalf("expected OnlineStatusEvent, got %T", ev)
	}
	if !os.Status[2] || os.Status[3] {
		t.Errorf("unexpected status map: %v", os.Status)
	}
}

func TestDecodeEvent_Connected(t *testing.T) {
	raw := []byte(`{"type":"connected","data":{"connection_id":"abc-123"}}`)
	ev, err := DecodeEvent(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	c, ok := ev.(ConnectedEvent)
	if !ok {
		t.Fatalf("expected ConnectedEvent, got %T", ev)
	}
	if c.ConnectionID != "abc-123" {
		t.Errorf("unexpected connection id %q", c.ConnectionID)
	}
}

func TestDecodeEvent_UnknownType(t *testing.T) {
	if _, err := DecodeEvent([]byte(`{"type":"typing","data":{}}`)); err == nil {
		t.Error("expected error for unknown event type")
	}
}

func TestDecodeEvent_Malformed(t *testing.T) {
	if _, err := DecodeEvent([]byte(`not json`)); err == nil {
		t.Error("expected error for malformed frame")
	}
}

func TestEncodeRequest_SendMessage(t *testing.T) {
	raw, err := EncodeRequest(TypeSendMessage, SendMessageRequest{
		RecipientID: 2,
		Content:     "Hello",
		MessageType: "text",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if env.Type != TypeSendMessage {
		t.Errorf("expected type %q, got %q", TypeSendMessage, env.Type)
	}
	var req SendMessageRequest
	if err := json.Unmarshal(env.Data, &req); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if req.RecipientID != 2 || req.Content != "Hello" || req.MessageType != "text" {
		t.Errorf("unexpected payload: %+v", req)
	}
}
