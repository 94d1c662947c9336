// Package router wires HTTP routes to their handlers and middleware.
package router

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/task-manager-api/internal/config"
	"github.com/iliyamo/task-manager-api/internal/handler"
	"github.com/iliyamo/task-manager-api/internal/middleware"
	"github.com/iliyamo/task-manager-api/internal/model"
)

// Register mounts the full API surface on e. The rate limiter guards
// everything under /api; the bearer check guards every route that needs an
// authenticated caller, and the admin listing additionally requires the
// admin role. /tasks/stats and /tasks/admin/all are registered before the
// /:id routes so echo never swallows them as path parameters.
func Register(e *echo.Echo, cfg config.Config, limiter echo.MiddlewareFunc,
	auth *handler.AuthHandler, tasks *handler.TaskHandler, users middleware.UserLoader) {

	e.GET("/health", handler.Health)

	api := e.Group("/api", limiter)
	v1 := api.Group("/v1")
	bearer := middleware.BearerAuth(cfg.AccessSecret, users)

	a := v1.Group("/auth")
	a.POST("/register", auth.Register)
	a.POST("/login", auth.Login)
	a.POST("/refresh", auth.Refresh)
	a.GET("/me", auth.Me, bearer)
	a.POST("/logout", auth.Logout, bearer)
	a.PUT("/profile", auth.UpdateProfile, bearer)
	a.PUT("/change-password", auth.ChangePassword, bearer)

	t := v1.Group("/tasks", bearer)
	t.GET("/stats", tasks.Stats)
	t.GET("/admin/all", tasks.AdminAll, middleware.RequireRole(model.RoleAdmin))
	t.POST("", tasks.Create)
	t.GET("", tasks.List)
	t.GET("/:id", tasks.Get)
	t.PUT("/:id", tasks.Update)
	t.DELETE("/:id", tasks.Delete)

	e.RouteNotFound("/*", func(c echo.Context) error {
		return echo.NewHTTPError(http.StatusNotFound, "Route not found")
	})
}
