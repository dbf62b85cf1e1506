package checkoutControllers

import (
	"errors"
	"io"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/oakmart-dev/storefront-api/checkout"
	"github.com/oakmart-dev/storefront-api/gateway"
)

const maxWebhookBody = 1 << 20

// WebhookHandler is the push path. The signature middleware has already
// verified the body; this handler decodes the event envelope and hands the
// session id to the shared reconciliation procedure. Delivery is
// at-least-once, so every outcome short of a transient failure answers 2xx
// to stop redelivery.
func WebhookHandler(rec Reconciling) gin.HandlerFunc {
	return func(c *gin.Context) {
		body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read event body"})
			return
		}

		event, err := gateway.ParseEvent(body)
		if err != nil {
			log.Printf("webhook: rejected payload: %v", err)
			c.JSON(http.StatusBadRequest, gin.H{"error": "malformed event"})
			return
		}

		result, err := rec.Reconcile(c.Request.Context(), event.Data.SessionID)
		if err != nil {
			if errors.Is(err, checkout.ErrMissingSession) || errors.Is(err, gateway.ErrSessionNotFound) {
				c.JSON(http.StatusBadRequest, gin.H{"error": "unknown checkout session"})
				return
			}
			// Transient: answer non-2xx so the gateway redelivers. The
			// procedure is idempotent, so redelivery is always safe.
			log.Printf("webhook: reconcile session %s failed: %v", event.Data.SessionID, err)
			c.JSON(http.StatusBadGateway, gin.H{"error": "reconciliation failed"})
			return
		}

		// Duplicates included: a 2xx is what stops the gateway's retries.
		c.JSON(http.StatusOK, gin.H{"outcome": string(result.Outcome)})
	}
}
