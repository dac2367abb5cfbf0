package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/brrowapp/brrow-backend/internal/service"
	"github.com/labstack/echo/v4"
)

type errorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ErrorResponse struct {
	Error errorPayload `json:"error"`
}

func NewErrorResponse(code, message string) ErrorResponse {
	return ErrorResponse{
		Error: errorPayload{
			Code:    code,
			Message: message,
		},
	}
}

type statusResponse struct {
	Status string `json:"status"`
}

var statusOK = statusResponse{Status: "ok"}

// currentUID returns the caller set by the auth middleware.
func currentUID(c echo.Context) (string, bool) {
	uid, _ := c.Get("uid").(string)
	return uid, uid != ""
}

func unauthorized(c echo.Context) error {
	return c.JSON(http.StatusUnauthorized, NewErrorResponse("unauthorized", "missing uid"))
}

func badRequest(c echo.Context, msg string) error {
	return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", msg))
}

func parseID(c echo.Context, name string) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	return id, err == nil && id > 0
}

// serviceError maps service sentinels to HTTP errors. notFound is the message
// used for ErrNotFound.
func serviceError(c echo.Context, err error, notFound string) error {
	switch {
	case errors.Is(err, service.ErrNotFound):
		return c.JSON(http.StatusNotFound, NewErrorResponse("not_found", notFound))
	case errors.Is(err, service.ErrForbidden):
		return c.JSON(http.StatusForbidden, NewErrorResponse("forbidden", "not allowed"))
	case errors.Is(err, service.ErrInvalid):
		return badRequest(c, err.Error())
	}
	return internalError(err, "internal error")
}

// internalError hands err back to echo so the request logger records it; the
// client only sees msg in the usual error envelope.
func internalError(err error, msg string) error {
	return &echo.HTTPError{
		Code:     http.StatusInternalServerError,
		Message:  NewErrorResponse("internal_error", msg),
		Internal: err,
	}
}

// queryUint reads an optional unsigned query parameter; absent means zero.
func queryUint(c echo.Context, name string) (uint64, error) {
	s := c.QueryParam(name)
	if s == "" {
		return 0, nil
	}
	return strconv.ParseUint(s, 10, 64)
}

// queryLimit reads ?limit=, falling back to def when absent.
func queryLimit(c echo.Context, def int) (int, error) {
	s := c.QueryParam("limit")
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, errors.New("invalid limit")
	}
	return n, nil
}
