package routes

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	orderControllers "github.com/oakmart-dev/storefront-api/controllers/order"
	productcontroller "github.com/oakmart-dev/storefront-api/controllers/product"
	"github.com/oakmart-dev/storefront-api/middleware"
)

func SetupAdminRoutes(r *gin.Engine, db *gorm.DB, deps Deps) {
	admin := r.Group("/admin", middleware.ValidateAPIKey)
	{
		// Catalog management
		admin.POST("/products", productcontroller.CreateProduct(db))
		admin.PUT("/products/:id", productcontroller.UpdateProduct(db))
		admin.DELETE("/products/:id", productcontroller.DeleteProduct(db))
		admin.POST("/products/:id/restock", productcontroller.RestockProduct(deps.Inventory))
		admin.POST("/categories", productcontroller.CreateCategory(db))
		admin.DELETE("/categories/:id", productcontroller.DeleteCategory(db))

		// Order management
		admin.GET("/orders", orderControllers.GetAllOrdersHandler(db))
		admin.GET("/orders/export", orderControllers.ExportOrdersHandler(db))
		admin.GET("/orders/:orderID", orderControllers.GetOrderByIDHandler(db))
		admin.PUT("/orders/:orderID/status", orderControllers.UpdateOrderStatusHandler(db))

		// Real-time order feed for the dashboard
		admin.GET("/orders-feed", deps.Feed.Handle)

		// Manual review queue for clamped stock decrements
		admin.GET("/stock-clamps", orderControllers.GetStockClampsHandler(db))
		admin.PUT("/stock-clamps/:id/resolve", orderControllers.ResolveStockClampHandler(db))
	}
}
