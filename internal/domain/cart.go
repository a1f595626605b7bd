package domain

// CartLine is one (item, resolved-options) pairing with a quantity inside one
// merchant's section of the cart. It snapshots the menu item's display fields
// so a later catalog refresh does not rewrite lines already in the cart.
type CartLine struct {
	ItemID     int64           `json:"id"`
	MerchantID int64           `json:"merchant_id"`
	Name       string          `json:"name"`
	Price      int64           `json:"price"`
	Image      string          `json:"image"`
	Category   string          `json:"category"`
	Quantity   int             `json:"quantity"`
	Notes      string          `json:"notes"`
	Options    ResolvedOptions `json:"selectedOptions"`
}

// CustomerInfo is the destination profile attached to the cart.
type CustomerInfo struct {
	Name             string `json:"name"`
	Phone            string `json:"phone,omitempty"`
	Village          string `json:"village,omitempty"`
	AddressDetail    string `json:"addressDetail,omitempty"`
	Notes            string `json:"notes,omitempty"`
	IsCustomVillage  bool   `json:"isCustomVillage,omitempty"`
	CustomVillage    string `json:"customVillage,omitempty"`
	NeedsNegotiation bool   `json:"needsNegotiation,omitempty"`
}
