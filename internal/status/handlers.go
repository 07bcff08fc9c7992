package status

import (
	"github.com/gofiber/fiber/v2"
)

const trackerKey = "tracker"

func trackerFrom(c *fiber.Ctx) (*Tracker, bool) {
	tr, ok := c.Locals(trackerKey).(*Tracker)
	return tr, ok
}

// Healthz answers 200 while the watch loop is alive.
func Healthz(c *fiber.Ctx) error {
	tr, ok := trackerFrom(c)
	if !ok {
		return c.Status(fiber.StatusInternalServerError).SendString("Could not retrieve tracker")
	}
	if !tr.Healthy() {
		return c.Status(fiber.StatusServiceUnavailable).SendString("stopped")
	}
	return c.SendString("ok")
}

// Status renders the current snapshot.
func Status(c *fiber.Ctx) error {
	tr, ok := trackerFrom(c)
	if !ok {
		return c.Status(fiber.StatusInternalServerError).SendString("Could not retrieve tracker")
	}
	return c.JSON(tr.Snapshot())
}

// NotFound answers unknown routes.
func NotFound(c *fiber.Ctx) error {
	return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not found"})
}
