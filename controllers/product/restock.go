package productcontroller

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Restocker is implemented by store.Inventory.
type Restocker interface {
	Restock(ctx context.Context, productID uint, qty int) error
}

type RestockInput struct {
	Quantity int `json:"quantity" binding:"required,min=1"`
}

// RestockProduct adds stock with a single atomic increment. Admins never
// write an absolute stock value; that would race against concurrent
// checkout decrements.
func RestockProduct(inv Restocker) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid product ID"})
			return
		}

		var input RestockInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		if err := inv.Restock(c.Request.Context(), uint(id), input.Quantity); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to restock product"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Stock updated successfully"})
	}
}
