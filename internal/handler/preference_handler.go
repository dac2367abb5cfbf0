package handler

import (
	"net/http"

	"github.com/brrowapp/brrow-backend/internal/model"
	"github.com/brrowapp/brrow-backend/internal/service"
	"github.com/labstack/echo/v4"
)

type PreferenceHandler struct {
	svc service.PreferenceService
}

func NewPreferenceHandler(svc service.PreferenceService) *PreferenceHandler {
	return &PreferenceHandler{svc: svc}
}

func (h *PreferenceHandler) Get(c echo.Context) error {
	uid, ok := currentUID(c)
	if !ok {
		return unauthorized(c)
	}
	p, err := h.svc.Get(c.Request().Context(), uid)
	if err != nil {
		return serviceError(c, err, "preferences not found")
	}
	return c.JSON(http.StatusOK, p)
}

// Put replaces the whole document; omitted toggles read as false.
func (h *PreferenceHandler) Put(c echo.Context) error {
	uid, ok := currentUID(c)
	if !ok {
		return unauthorized(c)
	}
	var req model.NotificationPreferences
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid json")
	}
	p, err := h.svc.Replace(c.Request().Context(), uid, req)
	if err != nil {
		return serviceError(c, err, "preferences not found")
	}
	return c.JSON(http.StatusOK, p)
}
