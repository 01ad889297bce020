package realtime

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/clinidesk/clinidesk/pkg/chatclient"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Origins are enforced by the CORS layer.
	},
}

// Identity is the authenticated principal behind a websocket connection.
type Identity struct {
	UserID int64
	Name   string
	Role   string
}

// TokenVerifier validates the handshake token and resolves the identity it
// was issued to.
type TokenVerifier func(token string) (Identity, error)

// Client represents a single websocket connection for one user.
type Client struct {
	ID     string
	UserID int64
	Name   string
	Role   string
	Send   chan []byte

	hub  *Hub
	conn *websocket.Conn
}

// Handler upgrades HTTP connections to websocket chat sessions.
type Handler struct {
	hub    *Hub
	verify TokenVerifier
}

// NewHandler creates a handler bound to the given hub and token verifier.
func NewHandler(hub *Hub, verify TokenVerifier) *Handler {
	return &Handler{hub: hub, verify: verify}
}

// RegisterRoutes registers the chat websocket endpoint on the given group.
func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.GET("/chat/ws", h.HandleConnect)
}

// HandleConnect authenticates the handshake token, upgrades the connection,
// registers the client with the hub and starts the read/write pumps. A
// missing or invalid token rejects the whole connection attempt.
func (h *Handler) HandleConnect(c echo.Context) error {
	token := c.QueryParam("token")
	if token == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "missing token")
	}
	identity, err := h.verify(token)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
	}

	ws, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}

	client := &Client{
		ID:     uuid.New().String(),
		UserID: identity.UserID,
		Name:   identity.Name,
		Role:   identity.Role,
		Send:   make(chan []byte, 256),
		hub:    h.hub,
		conn:   ws,
	}

	h.hub.Register(client)
	h.hub.sendToClient(client, chatclient.TypeConnected, chatclient.ConnectedEvent{ConnectionID: client.ID})

	go h.writePump(client)
	go h.readPump(client)

	return nil
}

func (h *Handler) readPump(client *Client) {
	defer func() {
		h.hub.Unregister(client)
		client.conn.Close()
	}()

	for {
		_, raw, err := client.conn.ReadMessage()
		if err != nil {
			break
		}
		h.hub.ProcessMessage(context.Background(), client, raw)
	}
}

func (h *Handler) writePump(client *Client) {
	defer client.conn.Close()

	for message := range client.Send {
		if err := client.conn.WriteMessage(websocket.TextMessage, message); err != nil {
			break
		}
	}
}
