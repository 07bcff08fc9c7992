package status

import (
	"context"
	"log/slog"
	"time"

	"github.com/gofiber/contrib/otelfiber/v2"
	"github.com/gofiber/fiber/v2"
)

const shutdownTimeout = 5 * time.Second

// NewApp builds the status application around tr.
func NewApp(tr *Tracker) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "mailtriage",
		DisableStartupMessage: true,
	})

	app.Use(otelfiber.Middleware())
	app.Use(func(c *fiber.Ctx) error {
		c.Locals(trackerKey, tr)
		return c.Next()
	})

	app.Get("/healthz", Healthz)
	app.Get("/status", Status)
	app.Use(NotFound)

	return app
}

// Serve listens on addr until ctx is done.
func Serve(ctx context.Context, addr string, app *fiber.App, log *slog.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- app.Listen(addr)
	}()
	log.Info("status endpoint listening", "addr", addr)

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return app.ShutdownWithContext(shutdownCtx)
	}
}
