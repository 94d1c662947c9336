package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// Envelope is the JSON body shared by every API response. Data and Errors
// are omitted when empty so failures stay compact.
type Envelope struct {
	Success bool     `json:"success"`
	Message string   `json:"message"`
	Data    any      `json:"data,omitempty"`
	Errors  []string `json:"errors,omitempty"`
}

// respond writes a success envelope.
func respond(c echo.Context, status int, msg string, data any) error {
	return c.JSON(status, Envelope{Success: true, Message: msg, Data: data})
}

// fail writes a failure envelope with optional field errors.
func fail(c echo.Context, status int, msg string, errs ...string) error {
	return c.JSON(status, Envelope{Success: false, Message: msg, Errors: errs})
}

// ErrorHandler is the central echo error handler. It renders echo's own
// errors (404 route misses, method errors) in the shared envelope and hides
// everything else behind a generic message; the real error is logged
// server-side only.
func ErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	status := http.StatusInternalServerError
	msg := "Server error"
	if he, ok := err.(*echo.HTTPError); ok {
		status = he.Code
		if s, ok := he.Message.(string); ok {
			msg = s
		} else if status == http.StatusNotFound {
			msg = "Route not found"
		}
	} else {
		c.Logger().Error(err)
	}
	_ = fail(c, status, msg)
}
