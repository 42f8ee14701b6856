package http

import (
	"net/http"
	"strings"

	"github.com/jmehdipour/rfm-dashboard/internal/model"
	"github.com/jmehdipour/rfm-dashboard/internal/session"
	"github.com/labstack/echo/v4"
)

type sessionResp struct {
	State       session.State   `json:"state"`
	Initialized bool            `json:"initialized"`
	Identity    *model.Identity `json:"identity,omitempty"`
}

type loginReq struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type registerReq struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	Password2 string `json:"password2"`
}

func currentSession(sess *session.Manager) sessionResp {
	return sessionResp{
		State:       sess.State(),
		Initialized: sess.Initialized(),
		Identity:    sess.Identity(),
	}
}

func sessionHandler(sess *session.Manager) echo.HandlerFunc {
	return func(c echo.Context) error {
		return c.JSON(http.StatusOK, currentSession(sess))
	}
}

func loginHandler(sess *session.Manager) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req loginReq
		if err := c.Bind(&req); err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "bad request"})
		}
		req.Username = strings.TrimSpace(req.Username)
		if req.Username == "" || req.Password == "" {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "username and password are required"})
		}

		if _, err := sess.Login(c.Request().Context(), req.Username, req.Password); err != nil {
			return writeError(c, err, "")
		}
		return c.JSON(http.StatusOK, currentSession(sess))
	}
}

func registerHandler(sess *session.Manager) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req registerReq
		if err := c.Bind(&req); err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "bad request"})
		}

		res, err := sess.Register(c.Request().Context(),
			strings.TrimSpace(req.Username), strings.TrimSpace(req.Email), req.Password, req.Password2)
		if err != nil {
			return writeError(c, err, "")
		}
		// the token, if any, is not handed out: registering does not log in
		return c.JSON(http.StatusCreated, map[string]any{
			"message": "Registration successful. Please log in.",
			"user":    res.User,
		})
	}
}

func logoutHandler(sess *session.Manager) echo.HandlerFunc {
	return func(c echo.Context) error {
		sess.Logout(c.Request().Context())
		return c.NoContent(http.StatusNoContent)
	}
}
