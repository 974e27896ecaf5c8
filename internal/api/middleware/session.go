package middleware

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/updoot/discussion-backend/internal/core/domain"
	"github.com/updoot/discussion-backend/internal/core/ports"
)

const sessionContextKey = "session"

// cookieMaxAge matches the server-side session TTL: ten years, effectively
// persistent until an explicit logout.
const cookieMaxAge = 10 * 365 * 24 * 60 * 60

// SessionConfig controls the transport cookie.
type SessionConfig struct {
	CookieName string
	Secure     bool
}

// Session extracts the session identifier from the transport cookie and
// threads an explicit *domain.Session through the request. Unknown or
// missing cookies yield a fresh anonymous session that is not persisted.
// After the handler runs, a modified session is saved and its cookie
// written, and a destroyed session has its cookie cleared — both before the
// first response byte.
func Session(store ports.SessionStore, cfg SessionConfig, log zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			sess, err := loadSession(c, store, cfg.CookieName)
			if err != nil {
				return err
			}
			c.Set(sessionContextKey, sess)

			c.Response().Before(func() {
				switch {
				case sess.Destroyed():
					clearCookie(c, cfg)
				case sess.Modified():
					if err := store.Save(c.Request().Context(), sess); err != nil {
						// No cookie for a session that was never saved.
						log.Error().Err(err).Str("session_id", sess.ID).Msg("session save failed")
						return
					}
					writeCookie(c, cfg, sess.Token)
				}
			})

			return next(c)
		}
	}
}

func loadSession(c echo.Context, store ports.SessionStore, cookieName string) (*domain.Session, error) {
	cookie, err := c.Cookie(cookieName)
	if err != nil || cookie.Value == "" {
		return domain.NewSession()
	}

	sess, err := store.Get(c.Request().Context(), cookie.Value)
	if errors.Is(err, domain.ErrSessionNotFound) {
		return domain.NewSession()
	}
	if err != nil {
		return nil, err
	}
	return sess, nil
}

func writeCookie(c echo.Context, cfg SessionConfig, token string) {
	c.SetCookie(&http.Cookie{
		Name:     cfg.CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   cookieMaxAge,
		HttpOnly: true,
		Secure:   cfg.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func clearCookie(c echo.Context, cfg SessionConfig) {
	c.SetCookie(&http.Cookie{
		Name:     cfg.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   cfg.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// SessionFromContext returns the session installed by the Session
// middleware. It panics when the middleware is not mounted, which is a
// wiring bug, not a runtime condition.
func SessionFromContext(c echo.Context) *domain.Session {
	sess, ok := c.Get(sessionContextKey).(*domain.Session)
	if !ok {
		panic("middleware: session not in context")
	}
	return sess
}

// RequireAuth rejects requests whose session has no bound user.
func RequireAuth() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !SessionFromContext(c).Authenticated() {
				return echo.NewHTTPError(http.StatusUnauthorized, "not authenticated")
			}
			return next(c)
		}
	}
}
