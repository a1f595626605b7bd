package pricing

import (
	"testing"

	"diorder/internal/domain"
)

func line(merchantID int64, price int64, qty int, opts domain.ResolvedOptions) domain.CartLine {
	return domain.CartLine{
		ItemID:     1,
		MerchantID: merchantID,
		Price:      price,
		Quantity:   qty,
		Options:    opts,
	}
}

func TestLineTotal_WithOptions(t *testing.T) {
	l := line(1, 20000, 2, domain.ResolvedOptions{
		Variant: &domain.ResolvedOption{Value: "m", ExtraPrice: 0},
		Toppings: []domain.ResolvedOption{
			{Value: "cheese", ExtraPrice: 3000},
		},
	})
	if got := LineTotal(l); got != 46000 {
		t.Fatalf("LineTotal = %d, want 46000", got)
	}
}

func TestLineTotal_LevelAndToppings(t *testing.T) {
	l := line(1, 15000, 3, domain.ResolvedOptions{
		Level: &domain.ResolvedOption{Value: "hot", ExtraPrice: 1000},
		Toppings: []domain.ResolvedOption{
			{Value: "egg", ExtraPrice: 2000},
			{Value: "cheese", ExtraPrice: 3000},
		},
	})
	// (15000 + 1000 + 2000 + 3000) * 3
	if got := LineTotal(l); got != 63000 {
		t.Fatalf("LineTotal = %d, want 63000", got)
	}
}

func TestCartSubtotal_AcrossMerchants(t *testing.T) {
	items := map[int64][]domain.CartLine{
		1: {line(1, 10000, 1, domain.ResolvedOptions{}), line(1, 5000, 2, domain.ResolvedOptions{})},
		2: {line(2, 8000, 1, domain.ResolvedOptions{})},
	}
	if got := MerchantSubtotal(items[1]); got != 20000 {
		t.Fatalf("MerchantSubtotal = %d, want 20000", got)
	}
	if got := CartSubtotal(items); got != 28000 {
		t.Fatalf("CartSubtotal = %d, want 28000", got)
	}
	if got := TotalQuantity(items); got != 4 {
		t.Fatalf("TotalQuantity = %d, want 4", got)
	}
}
