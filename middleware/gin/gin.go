// Package gin mounts the webhook processor inside a Gin application.
package gin

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// WebhookProcessor is the slice of the processor this adapter needs.
type WebhookProcessor interface {
	Handler() http.Handler
}

// Mount registers the webhook endpoint on the given Gin engine.
// Only POST is routed; the processor enforces the rest of the contract.
func Mount(r *gin.Engine, path string, processor WebhookProcessor) {
	r.POST(path, gin.WrapH(processor.Handler()))
}
