package orderControllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/oakmart-dev/storefront-api/models"
)

// GetStockClampsHandler lists clamp events for the manual review queue.
// Pass ?resolved=true to include handled ones.
func GetStockClampsHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		query := db.Model(&models.StockClampEvent{}).Order("created_at DESC")
		if c.Query("resolved") != "true" {
			query = query.Where("resolved = ?", false)
		}

		var events []models.StockClampEvent
		if err := query.Find(&events).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch clamp events"})
			return
		}
		c.JSON(http.StatusOK, events)
	}
}

// ResolveStockClampHandler marks a clamp event as handled after manual
// reconciliation (refund, backorder, restock).
func ResolveStockClampHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid clamp event id"})
			return
		}

		res := db.Model(&models.StockClampEvent{}).Where("id = ?", id).Update("resolved", true)
		if res.Error != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to resolve clamp event"})
			return
		}
		if res.RowsAffected == 0 {
			c.JSON(http.StatusNotFound, gin.H{"error": "clamp event not found"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Clamp event resolved"})
	}
}
