package routes

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	checkoutControllers "github.com/oakmart-dev/storefront-api/controllers/checkout"
	orderControllers "github.com/oakmart-dev/storefront-api/controllers/order"
	productcontroller "github.com/oakmart-dev/storefront-api/controllers/product"
)

// Deps carries the wired components the handlers close over.
type Deps struct {
	Gateway       checkoutControllers.SessionCreator
	Reconciler    checkoutControllers.Reconciling
	Inventory     productcontroller.Restocker
	Feed          *orderControllers.Feed
	WebhookSecret string
	Currency      string
}

// SetupRoutes is the single entry point that wires up the public catalog,
// checkout and admin route groups.
func SetupRoutes(r *gin.Engine, db *gorm.DB, deps Deps) {
	// Public catalog routes
	SetupCatalogRoutes(r, db)

	// Checkout session + reconciliation entry points
	SetupCheckoutRoutes(r, db, deps)

	// Admin routes (API-key-protected)
	SetupAdminRoutes(r, db, deps)
}
