package routes

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	productcontroller "github.com/oakmart-dev/storefront-api/controllers/product"
)

func SetupCatalogRoutes(r *gin.Engine, db *gorm.DB) {
	products := r.Group("/products")
	{
		products.GET("/", productcontroller.GetProducts(db))
		products.GET("/:id", productcontroller.GetProductByID(db))
	}

	r.GET("/categories", productcontroller.GetCategories(db))
}
