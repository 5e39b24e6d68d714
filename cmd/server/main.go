package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	json "github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/qolzam/telar-turnstile/home"
	"github.com/qolzam/telar-turnstile/internal/middleware/requestid"
	"github.com/qolzam/telar-turnstile/internal/pkg/log"
	platformconfig "github.com/qolzam/telar-turnstile/internal/platform/config"
	"github.com/qolzam/telar-turnstile/internal/turnstile"
)

func main() {
	cfg, err := loadConfig()
	if err != nil {
		log.Error("Failed to load platform config: %v", err)
		os.Exit(1)
	}
	log.SetDebug(cfg.Server.Debug)

	provider, err := turnstile.Register(cfg.Turnstile, nil)
	if err != nil {
		log.Error("Failed to register Cloudflare Turnstile: %v", err)
		os.Exit(1)
	}

	app := newApp(provider, cfg)

	go func() {
		if err := app.Listen(cfg.Server.Address()); err != nil {
			log.Error("Server stopped: %v", err)
			os.Exit(1)
		}
	}()
	log.Info("Listening on %s", cfg.Server.Address())

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := app.ShutdownWithContext(ctx); err != nil {
		log.Error("Graceful shutdown failed: %v", err)
	}
	log.Info("Server exited")
}

// loadConfig reads CONFIG_FILE when set and the environment otherwise.
func loadConfig() (*platformconfig.Config, error) {
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		return platformconfig.LoadFromFile(path)
	}
	return platformconfig.LoadFromEnv()
}

func newApp(provider *turnstile.Provider, cfg *platformconfig.Config) *fiber.App {
	app := fiber.New(fiber.Config{
		JSONEncoder: json.Marshal,
		JSONDecoder: json.Unmarshal,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			log.ErrorWithContext(c.UserContext(), "[ErrorHandler] Path: %s, Error: %v, Code: %d", c.Path(), err, code)

			return c.Status(code).JSON(fiber.Map{
				"error": err.Error(),
			})
		},
	})

	app.Use(recover.New())
	app.Use(requestid.New())

	home.RegisterRoutes(app, provider, home.RouterConfig{
		SiteKey:      provider.SiteKey(),
		CookieSecure: cfg.Server.CookieSecure,
	})

	return app
}
