package httpserver

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"diorder/internal/domain"
)

type merchantResponse struct {
	ID           int64               `json:"id"`
	Name         string              `json:"name"`
	Address      string              `json:"address"`
	Logo         string              `json:"logo,omitempty"`
	OpeningHours domain.OpeningHours `json:"openingHours"`
	Point        int64               `json:"point"`
	IsOpen       bool                `json:"isOpen"`
	UpdatedAt    time.Time           `json:"updated_at"`
}

func toMerchantResponse(m domain.Merchant, now time.Time) merchantResponse {
	return merchantResponse{
		ID:           m.ID,
		Name:         m.Name,
		Address:      m.Address,
		Logo:         m.Logo,
		OpeningHours: m.OpeningHours,
		Point:        m.Point,
		IsOpen:       m.IsOpenAt(now),
		UpdatedAt:    m.UpdatedAt,
	}
}

func listMerchantsHandler(catalog Catalog) gin.HandlerFunc {
	return func(c *gin.Context) {
		merchants, err := catalog.Merchants(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "merchants unavailable"})
			return
		}
		now := time.Now()
		out := make([]merchantResponse, 0, len(merchants))
		for _, m := range merchants {
			out = append(out, toMerchantResponse(m, now))
		}
		c.JSON(http.StatusOK, gin.H{"merchants": out})
	}
}

func merchantMenuHandler(catalog Catalog) gin.HandlerFunc {
	return func(c *gin.Context) {
		merchantID, err := strconv.ParseInt(c.Param("merchantID"), 10, 64)
		if err != nil || merchantID <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid merchant id"})
			return
		}
		items, err := catalog.Menu(c.Request.Context(), merchantID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "menu unavailable"})
			return
		}
		if items == nil {
			items = []domain.MenuItem{}
		}
		c.JSON(http.StatusOK, gin.H{"items": items})
	}
}

func settingsHandler(catalog Catalog) gin.HandlerFunc {
	return func(c *gin.Context) {
		settings, err := catalog.Settings(c.Request.Context())
		if errors.Is(err, domain.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "settings not loaded yet"})
			return
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "settings unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"is_open":       settings.IsOpen,
			"opening_hours": settings.OpeningHours,
			"accepting":     settings.IsOpenAt(time.Now()),
		})
	}
}
