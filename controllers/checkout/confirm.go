package checkoutControllers

import (
	"context"
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/oakmart-dev/storefront-api/checkout"
	"github.com/oakmart-dev/storefront-api/gateway"
)

// Reconciling is implemented by checkout.Reconciler.
type Reconciling interface {
	Reconcile(ctx context.Context, sessionID string) (*checkout.Result, error)
}

// ConfirmCheckoutHandler is the pull path: the customer's browser lands
// here after paying. Only the session id is taken from the URL; everything
// else comes from the authoritative gateway fetch inside Reconcile.
func ConfirmCheckoutHandler(rec Reconciling) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionID := c.Query("session_id")
		if sessionID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "session_id is required"})
			return
		}

		result, err := rec.Reconcile(c.Request.Context(), sessionID)
		if err != nil {
			if errors.Is(err, gateway.ErrUnavailable) {
				// Never claim success while the gateway is unreachable.
				c.JSON(http.StatusServiceUnavailable, gin.H{
					"status":  "awaiting_confirmation",
					"message": "payment not yet confirmed, please refresh shortly",
				})
				return
			}
			if errors.Is(err, gateway.ErrSessionNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "unknown checkout session"})
				return
			}
			log.Printf("confirm: reconcile session %s failed: %v", sessionID, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to confirm payment"})
			return
		}

		switch result.Outcome {
		case checkout.OutcomeConfirmed, checkout.OutcomeDuplicate:
			// The customer cannot tell who won the race, and should not.
			c.JSON(http.StatusOK, gin.H{"status": "confirmed", "order": result.Order})
		case checkout.OutcomePending:
			c.JSON(http.StatusAccepted, gin.H{"status": "awaiting_confirmation"})
		case checkout.OutcomeFailed:
			c.JSON(http.StatusOK, gin.H{"status": "payment_failed"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "unexpected reconciliation outcome"})
		}
	}
}
