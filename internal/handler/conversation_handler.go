package handler

import (
	"net/http"
	"time"

	"github.com/brrowapp/brrow-backend/internal/model"
	"github.com/brrowapp/brrow-backend/internal/service"
	"github.com/labstack/echo/v4"
)

type ConversationHandler struct {
	svc service.ConversationService
}

func NewConversationHandler(svc service.ConversationService) *ConversationHandler {
	return &ConversationHandler{svc: svc}
}

type CreateConversationRequest struct {
	Title           string   `json:"title"`
	ParticipantUIDs []string `json:"participantUids"`
}

type ParticipantResponse struct {
	UserUID    string  `json:"userUid"`
	Muted      bool    `json:"muted"`
	LastReadAt *string `json:"lastReadAt,omitempty"`
}

type ConversationResponse struct {
	ID           uint64                `json:"id"`
	Title        string                `json:"title,omitempty"`
	LastSeq      uint64                `json:"lastSeq"`
	Participants []ParticipantResponse `json:"participants"`
	HasUnread    bool                  `json:"hasUnread"`
	CreatedAt    string                `json:"createdAt"`
	UpdatedAt    string                `json:"updatedAt"`
}

type MessageRequest struct {
	Type model.MessageType `json:"type"`
	Body string            `json:"body"`
}

func toConversationResponse(cv model.Conversation, uid string) ConversationResponse {
	resp := ConversationResponse{
		ID:           cv.ID,
		Title:        cv.Title,
		LastSeq:      cv.LastSeq,
		Participants: make([]ParticipantResponse, 0, len(cv.Participants)),
		CreatedAt:    cv.CreatedAt.Format(time.RFC3339),
		UpdatedAt:    cv.UpdatedAt.Format(time.RFC3339),
	}
	for _, p := range cv.Participants {
		pr := ParticipantResponse{UserUID: p.UserUID, Muted: p.Muted}
		if p.LastReadAt != nil {
			s := p.LastReadAt.Format(time.RFC3339)
			pr.LastReadAt = &s
		}
		if p.UserUID == uid && cv.LastSeq > 0 && (p.LastReadAt == nil || p.LastReadAt.Before(cv.UpdatedAt)) {
			resp.HasUnread = true
		}
		resp.Participants = append(resp.Participants, pr)
	}
	return resp
}

func (h *ConversationHandler) Create(c echo.Context) error {
	uid, ok := currentUID(c)
	if !ok {
		return unauthorized(c)
	}
	var req CreateConversationRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid json")
	}
	cv, err := h.svc.Create(c.Request().Context(), uid, req.Title, req.ParticipantUIDs)
	if err != nil {
		return serviceError(c, err, "conversation not found")
	}
	return c.JSON(http.StatusCreated, toConversationResponse(*cv, uid))
}

func (h *ConversationHandler) List(c echo.Context) error {
	uid, ok := currentUID(c)
	if !ok {
		return unauthorized(c)
	}
	convs, err := h.svc.ListByUser(c.Request().Context(), uid)
	if err != nil {
		return internalError(err, "failed to fetch conversations")
	}
	resp := make([]ConversationResponse, 0, len(convs))
	for _, cv := range convs {
		resp = append(resp, toConversationResponse(cv, uid))
	}
	return c.JSON(http.StatusOK, resp)
}

func (h *ConversationHandler) Delete(c echo.Context) error {
	uid, ok := currentUID(c)
	if !ok {
		return unauthorized(c)
	}
	convID, valid := parseID(c, "id")
	if !valid {
		return badRequest(c, "invalid conversation id")
	}
	if err := h.svc.Delete(c.Request().Context(), convID, uid); err != nil {
		return serviceError(c, err, "conversation not found")
	}
	return c.NoContent(http.StatusNoContent)
}

// ListMessages pages forward through the log with ?after=<seq>&limit=<n>.
func (h *ConversationHandler) ListMessages(c echo.Context) error {
	uid, ok := currentUID(c)
	if !ok {
		return unauthorized(c)
	}
	convID, valid := parseID(c, "id")
	if !valid {
		return badRequest(c, "invalid conversation id")
	}
	after, err := queryUint(c, "after")
	if err != nil {
		return badRequest(c, "invalid after")
	}
	limit, err := queryLimit(c, 50)
	if err != nil {
		return badRequest(c, err.Error())
	}
	msgs, err := h.svc.ListMessages(c.Request().Context(), convID, uid, after, limit)
	if err != nil {
		return serviceError(c, err, "conversation not found")
	}
	return c.JSON(http.StatusOK, msgs)
}

// CreateMessage returns as soon as the message is stored; notifications are
// delivered in the background.
func (h *ConversationHandler) CreateMessage(c echo.Context) error {
	uid, ok := currentUID(c)
	if !ok {
		return unauthorized(c)
	}
	convID, valid := parseID(c, "id")
	if !valid {
		return badRequest(c, "invalid conversation id")
	}
	var req MessageRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid json")
	}
	msg, err := h.svc.SendMessage(c.Request().Context(), convID, uid, req.Type, req.Body)
	if err != nil {
		return serviceError(c, err, "conversation not found")
	}
	return c.JSON(http.StatusCreated, msg)
}

func (h *ConversationHandler) Mute(c echo.Context) error {
	return h.setMuted(c, true)
}

func (h *ConversationHandler) Unmute(c echo.Context) error {
	return h.setMuted(c, false)
}

func (h *ConversationHandler) setMuted(c echo.Context, muted bool) error {
	uid, ok := currentUID(c)
	if !ok {
		return unauthorized(c)
	}
	convID, valid := parseID(c, "id")
	if !valid {
		return badRequest(c, "invalid conversation id")
	}
	if err := h.svc.SetMuted(c.Request().Context(), convID, uid, muted); err != nil {
		return serviceError(c, err, "conversation not found")
	}
	return c.JSON(http.StatusOK, map[string]bool{"muted": muted})
}

func (h *ConversationHandler) RemoveParticipant(c echo.Context) error {
	uid, ok := currentUID(c)
	if !ok {
		return unauthorized(c)
	}
	convID, valid := parseID(c, "id")
	if !valid {
		return badRequest(c, "invalid conversation id")
	}
	target := c.Param("uid")
	if target == "" {
		return badRequest(c, "invalid uid")
	}
	if err := h.svc.RemoveParticipant(c.Request().Context(), convID, uid, target); err != nil {
		return serviceError(c, err, "participant not found")
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *ConversationHandler) MarkRead(c echo.Context) error {
	uid, ok := currentUID(c)
	if !ok {
		return unauthorized(c)
	}
	convID, valid := parseID(c, "id")
	if !valid {
		return badRequest(c, "invalid conversation id")
	}
	if err := h.svc.MarkRead(c.Request().Context(), convID, uid); err != nil {
		return serviceError(c, err, "conversation not found")
	}
	return c.JSON(http.StatusOK, statusOK)
}
