package checkoutControllers

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/oakmart-dev/storefront-api/gateway"
	"github.com/oakmart-dev/storefront-api/models"
)

// SessionCreator is the slice of the gateway client the initiator needs.
type SessionCreator interface {
	CreateSession(ctx context.Context, req gateway.CreateSessionRequest) (*gateway.CreateSessionResponse, error)
}

type CartItemInput struct {
	ProductID uint `json:"product_id" binding:"required"`
	Quantity  int  `json:"quantity" binding:"required,min=1"`
}

type CreateSessionInput struct {
	Items      []CartItemInput `json:"items" binding:"required,min=1,dive"`
	SuccessURL string          `json:"success_url" binding:"required,url"`
	CancelURL  string          `json:"cancel_url" binding:"required,url"`
}

// CreateCheckoutSessionHandler validates the cart, prices it from the
// catalog and opens a gateway session. Nothing is written locally: orders
// exist only after a confirmed payment.
func CreateCheckoutSessionHandler(db *gorm.DB, gw SessionCreator, currency string) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input CreateSessionInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "INVALID_CART", "details": err.Error()})
			return
		}

		// Unit prices and names come from the catalog, never from the
		// request body.
		lineItems := make([]gateway.LineItem, 0, len(input.Items))
		for _, item := range input.Items {
			var product models.Product
			if err := db.First(&product, item.ProductID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					c.JSON(http.StatusBadRequest, gin.H{
						"error":   "INVALID_CART",
						"details": fmt.Sprintf("unknown product %d", item.ProductID),
					})
					return
				}
				c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load products"})
				return
			}
			lineItems = append(lineItems, gateway.LineItem{
				ProductID:  product.ID,
				Name:       product.Name,
				UnitAmount: product.Price,
				Quantity:   item.Quantity,
			})
		}

		resp, err := gw.CreateSession(c.Request.Context(), gateway.CreateSessionRequest{
			LineItems:  lineItems,
			Currency:   currency,
			SuccessURL: input.SuccessURL,
			CancelURL:  input.CancelURL,
		})
		if err != nil {
			// Not retried here; the customer can restart checkout.
			c.JSON(http.StatusBadGateway, gin.H{"error": "GATEWAY_UNAVAILABLE"})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"session_id":   resp.SessionID,
			"redirect_url": resp.RedirectURL,
		})
	}
}
