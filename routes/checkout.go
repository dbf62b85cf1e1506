package routes

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	checkoutControllers "github.com/oakmart-dev/storefront-api/controllers/checkout"
	"github.com/oakmart-dev/storefront-api/middleware"
)

func SetupCheckoutRoutes(r *gin.Engine, db *gorm.DB, deps Deps) {
	checkout := r.Group("/checkout")
	{
		// Opens a gateway session for an explicit cart value
		checkout.POST("/session", checkoutControllers.CreateCheckoutSessionHandler(db, deps.Gateway, deps.Currency))

		// Pull path: success-redirect landing
		checkout.GET("/confirm", checkoutControllers.ConfirmCheckoutHandler(deps.Reconciler))
	}

	// Push path: signature is verified before the handler ever sees the body
	r.POST("/payment/webhook",
		middleware.WebhookAuth(deps.WebhookSecret),
		checkoutControllers.WebhookHandler(deps.Reconciler),
	)
}
