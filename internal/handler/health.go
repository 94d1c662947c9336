package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// Health reports service liveness for load balancers and monitoring.
func Health(c echo.Context) error {
	return respond(c, http.StatusOK, "Server is running", echo.Map{
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
