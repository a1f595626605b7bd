package httpserver

import (
	"net/http"
	"sort"
	"strconv"

	"github.com/gin-gonic/gin"

	"diorder/internal/cartstore"
	"diorder/internal/domain"
	"diorder/internal/options"
	"diorder/internal/pricing"
)

type addItemRequest struct {
	MerchantID int64            `json:"merchantId" binding:"required"`
	ItemID     int64            `json:"itemId" binding:"required"`
	Quantity   int              `json:"quantity"`
	Selection  domain.Selection `json:"selectedOptions"`
}

type lineRef struct {
	MerchantID  int64  `json:"merchantId" binding:"required"`
	Fingerprint string `json:"fingerprint" binding:"required"`
}

type setQuantityRequest struct {
	lineRef
	Quantity int `json:"quantity"`
}

type setNotesRequest struct {
	lineRef
	Notes string `json:"notes"`
}

type cartLineResponse struct {
	ItemID      int64                  `json:"id"`
	Name        string                 `json:"name"`
	Price       int64                  `json:"price"`
	Image       string                 `json:"image,omitempty"`
	Category    string                 `json:"category,omitempty"`
	Quantity    int                    `json:"quantity"`
	Notes       string                 `json:"notes,omitempty"`
	Options     domain.ResolvedOptions `json:"selectedOptions"`
	Fingerprint string                 `json:"fingerprint"`
	LineTotal   int64                  `json:"lineTotal"`
}

type cartMerchantSection struct {
	MerchantID int64              `json:"merchantId"`
	Subtotal   int64              `json:"subtotal"`
	Items      []cartLineResponse `json:"items"`
}

type cartResponse struct {
	Merchants     []cartMerchantSection `json:"merchants"`
	TotalItems    int                   `json:"totalItems"`
	Subtotal      int64                 `json:"subtotal"`
	DeliveryFee   int64                 `json:"deliveryFee"`
	FeeNegotiable bool                  `json:"feeNegotiable"`
	Total         int64                 `json:"total"`
	Customer      domain.CustomerInfo   `json:"customer"`
}

func toCartResponse(store *cartstore.Store) cartResponse {
	items := store.Items()

	merchantIDs := make([]int64, 0, len(items))
	for merchantID := range items {
		merchantIDs = append(merchantIDs, merchantID)
	}
	sort.Slice(merchantIDs, func(i, j int) bool { return merchantIDs[i] < merchantIDs[j] })

	sections := make([]cartMerchantSection, 0, len(merchantIDs))
	for _, merchantID := range merchantIDs {
		lines := items[merchantID]
		section := cartMerchantSection{
			MerchantID: merchantID,
			Subtotal:   pricing.MerchantSubtotal(lines),
			Items:      make([]cartLineResponse, 0, len(lines)),
		}
		for _, line := range lines {
			section.Items = append(section.Items, cartLineResponse{
				ItemID:      line.ItemID,
				Name:        line.Name,
				Price:       line.Price,
				Image:       line.Image,
				Category:    line.Category,
				Quantity:    line.Quantity,
				Notes:       line.Notes,
				Options:     line.Options,
				Fingerprint: options.Fingerprint(line.ItemID, line.Options),
				LineTotal:   pricing.LineTotal(line),
			})
		}
		sections = append(sections, section)
	}

	subtotal := pricing.CartSubtotal(items)
	fee := store.DeliveryFee()
	total := subtotal
	if !fee.Negotiable {
		total += fee.Amount
	}
	return cartResponse{
		Merchants:     sections,
		TotalItems:    pricing.TotalQuantity(items),
		Subtotal:      subtotal,
		DeliveryFee:   fee.Amount,
		FeeNegotiable: fee.Negotiable,
		Total:         total,
		Customer:      store.Customer(),
	}
}

func cartHandler(store *cartstore.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, toCartResponse(store))
	}
}

func addItemHandler(store *cartstore.Store, catalog Catalog) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req addItemRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		menu, err := catalog.Menu(c.Request.Context(), req.MerchantID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "menu unavailable"})
			return
		}
		var item *domain.MenuItem
		for i := range menu {
			if menu[i].ID == req.ItemID {
				item = &menu[i]
				break
			}
		}
		if item == nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "menu item not found"})
			return
		}

		store.AddLine(*item, req.MerchantID, req.Quantity, req.Selection)
		c.JSON(http.StatusOK, toCartResponse(store))
	}
}

func decrementItemHandler(store *cartstore.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req lineRef
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		line, ok := store.FindLine(req.MerchantID, req.Fingerprint)
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "cart line not found"})
			return
		}
		store.RemoveLine(line, req.MerchantID)
		c.JSON(http.StatusOK, toCartResponse(store))
	}
}

func setQuantityHandler(store *cartstore.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req setQuantityRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		line, ok := store.FindLine(req.MerchantID, req.Fingerprint)
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "cart line not found"})
			return
		}
		store.SetQuantity(line, req.MerchantID, req.Quantity)
		c.JSON(http.StatusOK, toCartResponse(store))
	}
}

func setNotesHandler(store *cartstore.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req setNotesRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		line, ok := store.FindLine(req.MerchantID, req.Fingerprint)
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "cart line not found"})
			return
		}
		store.SetNotes(line, req.MerchantID, req.Notes)
		c.JSON(http.StatusOK, toCartResponse(store))
	}
}

func clearCartHandler(store *cartstore.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		store.ClearCart()
		c.JSON(http.StatusOK, toCartResponse(store))
	}
}

func clearMerchantHandler(store *cartstore.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		merchantID, err := strconv.ParseInt(c.Param("merchantID"), 10, 64)
		if err != nil || merchantID <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid merchant id"})
			return
		}
		store.ClearMerchantCart(merchantID)
		c.JSON(http.StatusOK, toCartResponse(store))
	}
}

func getCustomerHandler(store *cartstore.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, store.Customer())
	}
}

func setCustomerHandler(store *cartstore.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		var info domain.CustomerInfo
		if err := c.ShouldBindJSON(&info); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		store.SetCustomer(info)
		c.JSON(http.StatusOK, toCartResponse(store))
	}
}

func notificationsHandler(store *cartstore.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		notifs := store.Drain()
		if notifs == nil {
			notifs = []cartstore.Notification{}
		}
		c.JSON(http.StatusOK, gin.H{"notifications": notifs})
	}
}
