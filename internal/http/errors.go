package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/jmehdipour/rfm-dashboard/internal/dashboard"
	"github.com/jmehdipour/rfm-dashboard/internal/gateway"
	"github.com/labstack/echo/v4"
	"github.com/labstack/gommon/log"
)

type errorBody struct {
	Error  string              `json:"error"`
	Fields map[string][]string `json:"fields,omitempty"`
}

// writeError maps a gateway or dashboard error onto an HTTP status.
func writeError(c echo.Context, err error, msg string) error {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, gateway.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, gateway.ErrAuthentication):
		status = http.StatusUnauthorized
	case errors.Is(err, gateway.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, dashboard.ErrNoCustomers):
		status = http.StatusConflict
	case errors.Is(err, gateway.ErrTransient), errors.Is(err, context.DeadlineExceeded):
		status = http.StatusServiceUnavailable
	case errors.Is(err, gateway.ErrProtocol):
		status = http.StatusBadGateway
	}
	if status == http.StatusInternalServerError {
		log.Errorf("http: %s: %v", c.Path(), err)
	}

	if msg == "" {
		msg = gateway.Detail(err)
	}
	if msg == "" {
		msg = err.Error()
	}
	return c.JSON(status, errorBody{Error: msg, Fields: gateway.FieldErrors(err)})
}
