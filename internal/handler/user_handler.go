package handler

import (
	"net/http"

	"github.com/brrowapp/brrow-backend/internal/model"
	"github.com/brrowapp/brrow-backend/internal/service"
	"github.com/labstack/echo/v4"
)

type UserHandler struct {
	users   service.UserService
	devices service.DeviceService
}

func NewUserHandler(users service.UserService, devices service.DeviceService) *UserHandler {
	return &UserHandler{users: users, devices: devices}
}

type ProfileRequest struct {
	DisplayName string `json:"displayName"`
	Timezone    string `json:"timezone"`
}

type FCMTokenRequest struct {
	Token    string `json:"fcmToken"`
	Platform string `json:"platform"`
}

func (h *UserHandler) UpdateMe(c echo.Context) error {
	uid, ok := currentUID(c)
	if !ok {
		return unauthorized(c)
	}
	var req ProfileRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid json")
	}
	u, err := h.users.UpdateProfile(c.Request().Context(), uid, req.DisplayName, req.Timezone)
	if err != nil {
		return serviceError(c, err, "user not found")
	}
	return c.JSON(http.StatusOK, u)
}

// UpdateFCMToken is the mobile apps' registration call. The platform defaults
// to ios, which is what older builds send without saying so.
func (h *UserHandler) UpdateFCMToken(c echo.Context) error {
	uid, ok := currentUID(c)
	if !ok {
		return unauthorized(c)
	}
	var req FCMTokenRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid json")
	}
	platform := model.Platform(req.Platform)
	if platform == "" {
		platform = model.PlatformIOS
	}
	if platform == model.PlatformWeb {
		return badRequest(c, "register web push subscriptions with POST /api/devices")
	}
	d, err := h.devices.Register(c.Request().Context(), uid, service.DeviceInput{Token: req.Token, Platform: platform})
	if err != nil {
		return serviceError(c, err, "device not found")
	}
	return c.JSON(http.StatusOK, d)
}
