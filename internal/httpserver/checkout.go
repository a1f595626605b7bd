package httpserver

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"diorder/internal/checkout"
	"diorder/internal/domain"
)

func checkoutHandler(svc CheckoutService) gin.HandlerFunc {
	return func(c *gin.Context) {
		result, err := svc.Submit(c.Request.Context())
		if err != nil {
			var verr *checkout.ValidationError
			switch {
			case errors.As(err, &verr):
				c.JSON(http.StatusUnprocessableEntity, gin.H{
					"error":   "incomplete customer info",
					"missing": verr.Missing,
				})
			case errors.Is(err, checkout.ErrEmptyCart):
				c.JSON(http.StatusBadRequest, gin.H{"error": "cart is empty"})
			case errors.Is(err, domain.ErrServiceClosed):
				c.JSON(http.StatusConflict, gin.H{"error": "service is closed"})
			default:
				c.JSON(http.StatusInternalServerError, gin.H{"error": "checkout failed"})
			}
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"order":   result.Order,
			"contact": result.Contact,
		})
	}
}
