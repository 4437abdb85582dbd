// Package echo mounts the webhook processor inside an Echo application.
package echo

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// WebhookProcessor is the slice of the processor this adapter needs.
type WebhookProcessor interface {
	Handler() http.Handler
}

// Mount registers the webhook endpoint on the given Echo instance.
// Only POST is routed; the processor enforces the rest of the contract.
func Mount(e *echo.Echo, path string, processor WebhookProcessor) {
	e.POST(path, echo.WrapHandler(processor.Handler()))
}
