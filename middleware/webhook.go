package middleware

import (
	"bytes"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/oakmart-dev/storefront-api/gateway"
)

// maxWebhookBody caps webhook payload size before signature verification.
const maxWebhookBody = 1 << 20

// WebhookAuth verifies the gateway signature before the handler runs.
// No field of the body may be trusted until this passes, and there is no
// mode that skips the check.
func WebhookAuth(secret string) gin.HandlerFunc {
	if secret == "" {
		panic("webhook secret is not set")
	}

	return func(c *gin.Context) {
		body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read request body"})
			c.Abort()
			return
		}
		// Restore the body for the handler.
		c.Request.Body = io.NopCloser(bytes.NewReader(body))

		header := c.GetHeader(gateway.SignatureHeader)
		if err := gateway.VerifySignature(body, header, secret, time.Now()); err != nil {
			log.Printf("rejected webhook: %v", err)
			c.JSON(http.StatusForbidden, gin.H{"error": "invalid webhook signature"})
			c.Abort()
			return
		}

		c.Next()
	}
}
