package orderControllers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/tealeg/xlsx"
	"gorm.io/gorm"

	"github.com/oakmart-dev/storefront-api/models"
)

// ExportOrdersHandler streams all orders as an xlsx workbook for the
// dashboard's download button.
func ExportOrdersHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var orders []models.Order
		if err := db.Order("created_at DESC").Find(&orders).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch orders"})
			return
		}

		file := xlsx.NewFile()
		sheet, err := file.AddSheet("Orders")
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to build workbook"})
			return
		}

		header := sheet.AddRow()
		for _, title := range []string{"Order ID", "Session ID", "Status", "Amount", "Currency", "Items", "Customer", "Email", "Created At"} {
			header.AddCell().SetString(title)
		}

		for _, order := range orders {
			row := sheet.AddRow()
			row.AddCell().SetString(order.ID)
			row.AddCell().SetString(order.SessionID)
			row.AddCell().SetString(string(order.Status))
			row.AddCell().SetInt64(order.Amount)
			row.AddCell().SetString(order.Currency)
			row.AddCell().SetInt(len(order.Items))
			row.AddCell().SetString(order.CustomerName)
			row.AddCell().SetString(order.CustomerEmail)
			row.AddCell().SetString(order.CreatedAt.Format(time.RFC3339))
		}

		filename := fmt.Sprintf("orders-%s.xlsx", time.Now().Format("2006-01-02"))
		c.Header("Content-Disposition", "attachment; filename="+filename)
		c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		if err := file.Write(c.Writer); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to write workbook"})
		}
	}
}
