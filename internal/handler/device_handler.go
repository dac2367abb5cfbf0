package handler

import (
	"net/http"

	"github.com/brrowapp/brrow-backend/internal/model"
	"github.com/brrowapp/brrow-backend/internal/service"
	"github.com/labstack/echo/v4"
)

type DeviceHandler struct {
	svc            service.DeviceService
	vapidPublicKey string
}

func NewDeviceHandler(svc service.DeviceService, vapidPublicKey string) *DeviceHandler {
	return &DeviceHandler{svc: svc, vapidPublicKey: vapidPublicKey}
}

// RegisterDeviceRequest accepts either a native push token or a browser
// PushSubscription (endpoint plus keys).
type RegisterDeviceRequest struct {
	Platform string `json:"platform"`
	Token    string `json:"token"`
	Endpoint string `json:"endpoint"`
	Keys     struct {
		P256dh string `json:"p256dh"`
		Auth   string `json:"auth"`
	} `json:"keys"`
}

func (h *DeviceHandler) Register(c echo.Context) error {
	uid, ok := currentUID(c)
	if !ok {
		return unauthorized(c)
	}
	var req RegisterDeviceRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid json")
	}
	in := service.DeviceInput{
		Token:    req.Token,
		Platform: model.Platform(req.Platform),
		P256dh:   req.Keys.P256dh,
		Auth:     req.Keys.Auth,
	}
	if in.Token == "" {
		in.Token = req.Endpoint
	}
	d, err := h.svc.Register(c.Request().Context(), uid, in)
	if err != nil {
		return serviceError(c, err, "device not found")
	}
	return c.JSON(http.StatusCreated, d)
}

func (h *DeviceHandler) List(c echo.Context) error {
	uid, ok := currentUID(c)
	if !ok {
		return unauthorized(c)
	}
	list, err := h.svc.List(c.Request().Context(), uid)
	if err != nil {
		return internalError(err, "failed to fetch devices")
	}
	if list == nil {
		list = []model.Device{}
	}
	return c.JSON(http.StatusOK, list)
}

func (h *DeviceHandler) Deactivate(c echo.Context) error {
	uid, ok := currentUID(c)
	if !ok {
		return unauthorized(c)
	}
	id, valid := parseID(c, "id")
	if !valid {
		return badRequest(c, "invalid device id")
	}
	if err := h.svc.Deactivate(c.Request().Context(), uid, id); err != nil {
		return serviceError(c, err, "device not found")
	}
	return c.NoContent(http.StatusNoContent)
}

// VAPIDKey gives browsers the application server key for subscribing.
func (h *DeviceHandler) VAPIDKey(c echo.Context) error {
	if h.vapidPublicKey == "" {
		return c.JSON(http.StatusNotFound, NewErrorResponse("not_found", "web push is not configured"))
	}
	return c.JSON(http.StatusOK, map[string]string{"publicKey": h.vapidPublicKey})
}
