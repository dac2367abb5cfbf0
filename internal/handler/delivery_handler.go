package handler

import (
	"net/http"
	"time"

	"github.com/brrowapp/brrow-backend/internal/model"
	"github.com/brrowapp/brrow-backend/internal/repository"
	"github.com/brrowapp/brrow-backend/internal/service"
	"github.com/labstack/echo/v4"
)

const defaultHealthWindow = 24 * time.Hour

type DeliveryHandler struct {
	svc service.DeliveryService
}

func NewDeliveryHandler(svc service.DeliveryService) *DeliveryHandler {
	return &DeliveryHandler{svc: svc}
}

func attemptsResponse(list []model.DeliveryAttempt) map[string]any {
	if list == nil {
		list = []model.DeliveryAttempt{}
	}
	return map[string]any{"attempts": list, "count": len(list)}
}

// ForMessage lets the sender see how their message was delivered.
func (h *DeliveryHandler) ForMessage(c echo.Context) error {
	uid, ok := currentUID(c)
	if !ok {
		return unauthorized(c)
	}
	msgID, valid := parseID(c, "id")
	if !valid {
		return badRequest(c, "invalid message id")
	}
	list, err := h.svc.ForMessage(c.Request().Context(), uid, msgID)
	if err != nil {
		return serviceError(c, err, "message not found")
	}
	return c.JSON(http.StatusOK, attemptsResponse(list))
}

func (h *DeliveryHandler) Query(c echo.Context) error {
	var (
		f   repository.DeliveryFilter
		err error
	)
	if f.MessageID, err = queryUint(c, "message_id"); err != nil {
		return badRequest(c, "invalid message_id")
	}
	f.RecipientUID = c.QueryParam("recipient")
	if s := c.QueryParam("status"); s != "" {
		st, ok := model.ParseDeliveryStatus(s)
		if !ok {
			return badRequest(c, "invalid status")
		}
		f.Status = st
	}
	if f.Limit, err = queryLimit(c, 100); err != nil {
		return badRequest(c, err.Error())
	}
	list, err := h.svc.Query(c.Request().Context(), f)
	if err != nil {
		return internalError(err, "failed to query deliveries")
	}
	return c.JSON(http.StatusOK, attemptsResponse(list))
}

// Health counts attempts per status since ?since= (RFC3339), default the last
// 24 hours.
func (h *DeliveryHandler) Health(c echo.Context) error {
	since := time.Now().UTC().Add(-defaultHealthWindow)
	if s := c.QueryParam("since"); s != "" {
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			return badRequest(c, "since must be RFC3339")
		}
		since = t.UTC()
	}
	counts, err := h.svc.Health(c.Request().Context(), since)
	if err != nil {
		return internalError(err, "failed to count deliveries")
	}
	return c.JSON(http.StatusOK, map[string]any{
		"since":  since.Format(time.RFC3339),
		"counts": counts,
	})
}
