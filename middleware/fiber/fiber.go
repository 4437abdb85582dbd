// Package fiber mounts the webhook processor inside a Fiber application.
package fiber

import (
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
)

// WebhookProcessor is the slice of the processor this adapter needs.
type WebhookProcessor interface {
	Handler() http.Handler
}

// Mount registers the webhook endpoint on the given Fiber app.
// Only POST is routed; the processor enforces the rest of the contract.
func Mount(app *fiber.App, path string, processor WebhookProcessor) {
	app.Post(path, adaptor.HTTPHandler(processor.Handler()))
}
