package documents

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

func newTestHandler() (*Handler, *echo.Echo) {
	h := NewHandler(NewService(newMockRepo()))
	e := echo.New()
	return h, e
}

func TestHandler_AttachDocument(t *testing.T) {
	h, e := newTestHandler()
	body := `{"title":"Lab results","content_type":"application/pdf","storage_key":"docs/lab.pdf","size_bytes":1024}`
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set("user_id", int64(1))
	c.SetParamNames("patientID")
	c.SetParamValues(uuid.New().String())

	if err := h.AttachDocument(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Errorf("expected 201, got %d", rec.Code)
	}
}

func TestHandler_AttachDocument_Unauthenticated(t *testing.T) {
	h, e := newTestHandler()
	body := `{"title":"Lab results","storage_key":"docs/lab.pdf","size_bytes":1024}`
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec) // no user_id
	c.SetParamNames("patientID")
	c.SetParamValues(uuid.New().String())

	if err := h.AttachDocument(c); err == nil {
		t.Error("expected error when uploader is unknown")
	}
}

func TestHandler_RemoveDocument(t *testing.T) {
	h, e := newTestHandler()
	d := validDocument()
	h.svc.AttachDocument(nil, d)

	req := httptest.NewRequest(http.MethodDelete, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(d.ID.String())

	if err := h.RemoveDocument(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusNoContent {
		t.Errorf("expected 204, got %d", rec.Code)
	}
}

func TestHandler_GetDocument_NotFound(t *testing.T) {
	h, e := newTestHandler()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(uuid.New().String())

	if err := h.GetDocument(c); err == nil {
		t.Error("expected error for unknown document")
	}
}
