package home

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/csrf"

	"github.com/qolzam/telar-turnstile/internal/turnstile"
)

const (
	csrfContextKey = "csrf"
	csrfFormField  = "_csrf"
	csrfCookieName = "__Host-csrf_"
)

// RouterConfig holds the configuration needed for the router's middleware.
type RouterConfig struct {
	SiteKey string
	// DisableCSRF turns off anti-forgery checks, for handler tests only
	DisableCSRF  bool
	CookieSecure bool
}

// RegisterRoutes mounts the sample pages on app.
func RegisterRoutes(app *fiber.App, verifier turnstile.Verifier, config RouterConfig) *Handler {
	handlerConfig := &HandlerConfig{
		SiteKey:   config.SiteKey,
		CSRFField: csrfFormField,
	}
	if !config.DisableCSRF {
		handlerConfig.CSRFContextKey = csrfContextKey
	}
	h := NewHandler(verifier, handlerConfig)

	app.Get("/health", h.Health)

	group := app.Group("/")
	if !config.DisableCSRF {
		group.Use(csrf.New(csrf.Config{
			KeyLookup:      "form:" + csrfFormField,
			CookieName:     cookieName(config.CookieSecure),
			CookiePath:     "/",
			CookieSecure:   config.CookieSecure,
			CookieHTTPOnly: true,
			CookieSameSite: "Lax",
			Expiration:     1 * time.Hour,
			ContextKey:     csrfContextKey,
		}))
	}
	group.Get("/", h.Index)
	group.Post("/", h.Submit)

	return h
}

// cookieName uses the __Host- prefix only when the cookie can be Secure
func cookieName(secure bool) string {
	if secure {
		return csrfCookieName
	}
	return "csrf_"
}
