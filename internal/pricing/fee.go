package pricing

import "diorder/internal/domain"

const (
	// DefaultVillageCost applies when the destination is not in the table.
	DefaultVillageCost int64 = 5000

	// SubtotalTier is the subtotal bracket size; every full tier adds one
	// base-cost increment to the fee.
	SubtotalTier int64 = 100000

	feeRounding int64 = 1000
)

// Fee is a delivery fee result. When Negotiable is set the price is agreed
// out of band: Amount is meaningless and must never be summed or rendered as
// a number.
type Fee struct {
	Amount     int64 `json:"amount"`
	Negotiable bool  `json:"negotiable"`
}

// DeliveryFee computes the shipping cost for a cart snapshot. It works on any
// hypothetical snapshot, which lets the cart store preview the fee before
// committing a mutation.
func DeliveryFee(items map[int64][]domain.CartLine, info domain.CustomerInfo) Fee {
	if info.IsCustomVillage && info.NeedsNegotiation {
		return Fee{Negotiable: true}
	}

	base := VillageCost(info.Village)
	multiplier := CartSubtotal(items) / SubtotalTier
	fee := base * (multiplier + 1)

	// Each merchant beyond the third adds half of the pre-surcharge fee.
	if extra := int64(len(items)) - 3; extra > 0 {
		fee += fee * extra / 2
	}

	return Fee{Amount: roundUp(fee, feeRounding)}
}

func roundUp(v, step int64) int64 {
	if rem := v % step; rem != 0 {
		return v + step - rem
	}
	return v
}
