package messaging

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
)

func newTestHandler() (*Handler, *echo.Echo, *mockRepo) {
	repo := newMockRepo()
	h := NewHandler(NewService(repo))
	e := echo.New()
	return h, e, repo
}

func authedContext(e *echo.Echo, req *http.Request, rec *httptest.ResponseRecorder, userID int64) echo.Context {
	c := e.NewContext(req, rec)
	c.Set("user_id", userID)
	return c
}

func TestHandler_GetChatHistory(t *testing.T) {
	h, e, _ := newTestHandler()
	ctx := context.Background()
	h.svc.SaveMessage(ctx, 1, 2, "hello")
	h.svc.SaveMessage(ctx, 2, 1, "hi back")

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := authedContext(e, req, rec, 1)
	c.SetParamNames("userID")
	c.SetParamValues("2")

	if err := h.GetChatHistory(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp struct {
		Data  []*ChatMessage `json:"data"`
		Total int            `json:"total"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if resp.Total != 2 {
		t.Errorf("expected total 2, got %d", resp.Total)
	}
	if len(resp.Data) != 2 {
		t.Errorf("expected 2 messages, got %d", len(resp.Data))
	}
}

func TestHandler_GetChatHistory_InvalidUserID(t *testing.T) {
	h, e, _ := newTestHandler()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := authedContext(e, req, rec, 1)
	c.SetParamNames("userID")
	c.SetParamValues("not-a-number")

	err := h.GetChatHistory(c)
	if err == nil {
		t.Fatal("expected error for bad user id")
	}
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %v", err)
	}
}

func TestHandler_ListConversations_InvalidCaller(t *testing.T) {
	h, e, _ := newTestHandler()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec) // no user_id set

	if err := h.ListConversations(c); err == nil {
		t.Error("expected error for unauthenticated caller")
	}
}
