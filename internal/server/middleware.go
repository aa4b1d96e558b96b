package server

import (
	"net/http"

	router "github.com/goliatone/go-router"
)

// AuthRequired rejects requests that do not carry a valid session cookie.
func (a *App) AuthRequired() router.MiddlewareFunc {
	return func(next router.HandlerFunc) router.HandlerFunc {
		return func(c router.Context) error {
			if _, ok := a.sessionFromRequest(c); !ok {
				return c.JSON(http.StatusUnauthorized, map[string]any{"error": "unauthorized"})
			}
			return next(c)
		}
	}
}

// AdminRequired rejects non-admin sessions.
func (a *App) AdminRequired() router.MiddlewareFunc {
	return func(next router.HandlerFunc) router.HandlerFunc {
		return func(c router.Context) error {
			session, ok := a.sessionFromRequest(c)
			if !ok || !session.IsAdmin {
				return c.JSON(http.StatusForbidden, map[string]any{"error": "admin access required"})
			}
			return next(c)
		}
	}
}

func (a *App) sessionFromRequest(c router.Context) (Session, bool) {
	id := c.Cookies(a.Config.Auth.CookieName)
	if id == "" {
		return Session{}, false
	}
	return a.Sessions.Get(id)
}
