package middleware

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/task-manager-api/internal/config"
)

// NewFixedWindow returns middleware that allows cfg.Max requests per client
// IP inside each cfg.Window. Counters live in redis so the limit holds
// across replicas. The limiter fails open: when redis is unavailable (nil
// client or a runtime error) requests pass through untouched.
func NewFixedWindow(cfg config.RateLimitConfig, rdb *redis.Client) echo.MiddlewareFunc {
	if !cfg.Enabled || rdb == nil {
		return func(next echo.HandlerFunc) echo.HandlerFunc {
			return func(c echo.Context) error { return next(c) }
		}
	}

	winMS := cfg.Window.Milliseconds()
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ip := c.RealIP()
			if ip == "" {
				ip = "unknown"
			}
			now := time.Now().UnixMilli()
			window := now / winMS
			key := fmt.Sprintf("%s:ip:%s:%d", cfg.Prefix, ip, window)

			ctx := c.Request().Context()
			n, err := rdb.Incr(ctx, key).Result()
			if err != nil {
				c.Logger().Warnf("ratelimit: redis error for key=%s: %v", key, err)
				return next(c)
			}
			if n == 1 {
				// First hit in this window owns the expiry.
				rdb.Expire(ctx, key, cfg.Window)
			}

			remaining := int64(cfg.Max) - n
			if remaining < 0 {
				remaining = 0
			}
			c.Response().Header().Set("X-RateLimit-Limit", strconv.Itoa(cfg.Max))
			c.Response().Header().Set("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))

			if n > int64(cfg.Max) {
				retry := (window+1)*winMS - now
				secs := int(retry / 1000)
				if secs < 1 {
					secs = 1
				}
				c.Response().Header().Set("Retry-After", strconv.Itoa(secs))
				return c.JSON(http.StatusTooManyRequests, echo.Map{
					"success": false,
					"message": "Too many requests from this IP, please try again later.",
				})
			}
			return next(c)
		}
	}
}
