package domain

import "time"

// OrderLine is the persisted snapshot of one cart line at checkout time.
type OrderLine struct {
	ItemID     int64           `json:"itemId"`
	MerchantID int64           `json:"merchantId"`
	Name       string          `json:"name"`
	Price      int64           `json:"price"`
	Quantity   int             `json:"quantity"`
	Notes      string          `json:"notes,omitempty"`
	Options    ResolvedOptions `json:"selectedOptions"`
	Total      int64           `json:"total"`
}

// Order is the record inserted at checkout. The insert is fire-and-forget;
// the messaging handoff has already happened by the time it completes.
type Order struct {
	ID            string       `json:"id"`
	Customer      CustomerInfo `json:"customer"`
	Lines         []OrderLine  `json:"lines"`
	Subtotal      int64        `json:"subtotal"`
	DeliveryFee   int64        `json:"deliveryFee"`
	FeeNegotiable bool         `json:"feeNegotiable"`
	Total         int64        `json:"total"`
	CreatedAt     time.Time    `json:"createdAt"`
}
