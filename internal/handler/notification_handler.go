package handler

import (
	"net/http"
	"time"

	"github.com/brrowapp/brrow-backend/internal/model"
	"github.com/brrowapp/brrow-backend/internal/repository"
	"github.com/brrowapp/brrow-backend/internal/service"
	"github.com/labstack/echo/v4"
)

type NotificationHandler struct {
	svc service.NotificationService
}

func NewNotificationHandler(svc service.NotificationService) *NotificationHandler {
	return &NotificationHandler{svc: svc}
}

type NotificationResponse struct {
	ID             uint64         `json:"id"`
	Category       model.Category `json:"category"`
	Title          string         `json:"title"`
	Body           string         `json:"body"`
	ConversationID *uint64        `json:"conversationId,omitempty"`
	MessageID      *uint64        `json:"messageId,omitempty"`
	ReadAt         *time.Time     `json:"readAt,omitempty"`
	CreatedAt      time.Time      `json:"createdAt"`
}

type notificationListResponse struct {
	Notifications []NotificationResponse `json:"notifications"`
	UnreadCount   int64                  `json:"unreadCount"`
	NextBefore    uint64                 `json:"nextBefore,omitempty"`
}

// List serves the in-app history. Filters: unread_only (default true),
// category, conversation_id, before (id cursor) and limit.
func (h *NotificationHandler) List(c echo.Context) error {
	uid, ok := currentUID(c)
	if !ok {
		return unauthorized(c)
	}
	f := repository.NotificationFilter{
		UnreadOnly: c.QueryParam("unread_only") != "false",
		Category:   model.Category(c.QueryParam("category")),
	}
	var err error
	if f.ConversationID, err = queryUint(c, "conversation_id"); err != nil {
		return badRequest(c, "invalid conversation_id")
	}
	if f.Before, err = queryUint(c, "before"); err != nil {
		return badRequest(c, "invalid before")
	}
	if f.Limit, err = queryLimit(c, 20); err != nil {
		return badRequest(c, err.Error())
	}

	page, err := h.svc.List(c.Request().Context(), uid, f)
	if err != nil {
		return serviceError(c, err, "notifications not found")
	}
	resp := notificationListResponse{
		Notifications: make([]NotificationResponse, 0, len(page.Items)),
		UnreadCount:   page.UnreadCount,
		NextBefore:    page.NextBefore,
	}
	for _, n := range page.Items {
		resp.Notifications = append(resp.Notifications, NotificationResponse{
			ID:             n.ID,
			Category:       n.Type,
			Title:          n.Title,
			Body:           n.Body,
			ConversationID: n.ConversationID,
			MessageID:      n.MessageID,
			ReadAt:         n.ReadAt,
			CreatedAt:      n.CreatedAt,
		})
	}
	return c.JSON(http.StatusOK, resp)
}

func (h *NotificationHandler) UnreadCount(c echo.Context) error {
	uid, ok := currentUID(c)
	if !ok {
		return unauthorized(c)
	}
	n, err := h.svc.UnreadCount(c.Request().Context(), uid)
	if err != nil {
		return serviceError(c, err, "")
	}
	return c.JSON(http.StatusOK, map[string]int64{"unreadCount": n})
}

func (h *NotificationHandler) MarkAllRead(c echo.Context) error {
	uid, ok := currentUID(c)
	if !ok {
		return unauthorized(c)
	}
	n, err := h.svc.MarkAllRead(c.Request().Context(), uid)
	if err != nil {
		return serviceError(c, err, "")
	}
	return c.JSON(http.StatusOK, map[string]int64{"marked": n})
}
