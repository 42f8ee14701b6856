package middleware

import (
	"net/http"

	"github.com/jmehdipour/rfm-dashboard/internal/model"
	echo "github.com/labstack/echo/v4"
)

const ctxUsername = "username"

// Session is the view of the session manager the guards need.
type Session interface {
	Initialized() bool
	Authenticated() bool
	Identity() *model.Identity
}

// UsernameFromCtx extracts the username set by AuthMiddleware.
func UsernameFromCtx(c echo.Context) (string, bool) {
	v := c.Get(ctxUsername)
	name, ok := v.(string)
	return name, ok && name != ""
}

// ReadyMiddleware answers 503 until the first session resolution finished.
func ReadyMiddleware(sess Session) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !sess.Initialized() {
				return c.JSON(http.StatusServiceUnavailable, map[string]string{"error": "session is initializing"})
			}
			return next(c)
		}
	}
}

// AuthMiddleware rejects requests while the session is not authenticated.
// On success it stores the username in context.
func AuthMiddleware(sess Session) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id := sess.Identity()
			if !sess.Authenticated() || id == nil {
				return c.JSON(http.StatusUnauthorized, map[string]string{"error": "not logged in"})
			}
			c.Set(ctxUsername, id.Username)
			return next(c)
		}
	}
}
