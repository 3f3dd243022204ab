package handler

import (
	"net/http"

	"github.com/gorilla/sessions"
	"github.com/labstack/echo/v4"
)

const flashSession = "mailtriage_flash"

// Flash kinds rendered by the dashboard.
const (
	FlashSuccess = "success"
	FlashError   = "error"
	FlashWarning = "warning"
)

type Flash struct {
	Kind    string
	Message string
}

// NewSessionStore creates a new cookie store for sessions
func NewSessionStore(secret []byte, secure bool) *sessions.CookieStore {
	store := sessions.NewCookieStore(secret)
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   86400, // 1 day
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
	return store
}

func addFlash(c echo.Context, store sessions.Store, kind, message string) {
	session, err := store.Get(c.Request(), flashSession)
	if err != nil {
		// an undecodable cookie still yields a fresh session
		c.Logger().Warn("flash session reset: ", err)
	}
	session.AddFlash(message, kind)
	if err := session.Save(c.Request(), c.Response()); err != nil {
		c.Logger().Error("Failed to save flash session:", err)
	}
}

// popFlashes returns and clears pending flash messages. It must run before
// the response body is written.
func popFlashes(c echo.Context, store sessions.Store) []Flash {
	session, err := store.Get(c.Request(), flashSession)
	if err != nil {
		return nil
	}

	var out []Flash
	for _, kind := range []string{FlashSuccess, FlashWarning, FlashError} {
		for _, v := range session.Flashes(kind) {
			if msg, ok := v.(string); ok {
				out = append(out, Flash{Kind: kind, Message: msg})
			}
		}
	}
	if len(out) > 0 {
		if err := session.Save(c.Request(), c.Response()); err != nil {
			c.Logger().Error("Failed to clear flash session:", err)
		}
	}
	return out
}
