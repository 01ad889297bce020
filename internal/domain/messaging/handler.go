package messaging

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/clinidesk/clinidesk/internal/platform/auth"
	"github.com/clinidesk/clinidesk/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/conversations", h.ListConversations)
	api.GET("/conversations/:userID/messages", h.GetChatHistory)
}

func (h *Handler) ListConversations(c echo.Context) error {
	callerID := auth.CurrentUserID(c)
	summaries, err := h.svc.Conversations(c.Request().Context(), callerID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, summaries)
}

func (h *Handler) GetChatHistory(c echo.Context) error {
	callerID := auth.CurrentUserID(c)
	counterpartID, err := strconv.ParseInt(c.Param("userID"), 10, 64)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid user id")
	}

	pg := pagination.FromContext(c)
	messages, total, err := h.svc.ChatHistory(c.Request().Context(), callerID, counterpartID, pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(messages, total, pg.Limit, pg.Offset))
}
