// Package pricing computes line, merchant and cart totals plus the delivery
// fee. All functions are pure over cart snapshots; totals are always
// re-derived from the lines so no accumulator can drift.
package pricing

import "diorder/internal/domain"

// LineTotal is (base + variant + level + toppings) * quantity, in the
// smallest currency unit.
func LineTotal(line domain.CartLine) int64 {
	unit := line.Price
	if line.Options.Variant != nil {
		unit += line.Options.Variant.ExtraPrice
	}
	if line.Options.Level != nil {
		unit += line.Options.Level.ExtraPrice
	}
	for _, topping := range line.Options.Toppings {
		unit += topping.ExtraPrice
	}
	return unit * int64(line.Quantity)
}

// MerchantSubtotal sums the line totals of one merchant's section.
func MerchantSubtotal(lines []domain.CartLine) int64 {
	var total int64
	for _, line := range lines {
		total += LineTotal(line)
	}
	return total
}

// CartSubtotal sums every merchant's subtotal.
func CartSubtotal(items map[int64][]domain.CartLine) int64 {
	var total int64
	for _, lines := range items {
		total += MerchantSubtotal(lines)
	}
	return total
}

// TotalQuantity is the cart-wide item count (sum of line quantities).
func TotalQuantity(items map[int64][]domain.CartLine) int {
	var count int
	for _, lines := range items {
		for _, line := range lines {
			count += line.Quantity
		}
	}
	return count
}
