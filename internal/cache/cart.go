package cache

import (
	"context"
	"encoding/json"
	"fmt"

	"diorder/internal/domain"
	"diorder/internal/options"
)

// cartRecord is the flat persisted shape of a cart line. The nested
// ResolvedOptions is rebuilt from these fields on load, and the round trip
// must be exact.
type cartRecord struct {
	ItemID     int64  `json:"id"`
	MerchantID int64  `json:"merchant_id"`
	Name       string `json:"name"`
	Price      int64  `json:"price"`
	Image      string `json:"image,omitempty"`
	Category   string `json:"category,omitempty"`
	Quantity   int    `json:"quantity"`
	Notes      string `json:"notes,omitempty"`

	HasVariant   bool   `json:"has_variant,omitempty"`
	VariantLabel string `json:"variant_label,omitempty"`
	VariantValue string `json:"variant_value,omitempty"`
	VariantExtra int64  `json:"variant_extra,omitempty"`

	HasLevel   bool   `json:"has_level,omitempty"`
	LevelLabel string `json:"level_label,omitempty"`
	LevelValue string `json:"level_value,omitempty"`
	LevelExtra int64  `json:"level_extra,omitempty"`

	ToppingLabels []string `json:"topping_labels,omitempty"`
	ToppingValues []string `json:"topping_values,omitempty"`
	ToppingExtras []int64  `json:"topping_extras,omitempty"`
}

func flattenLine(line domain.CartLine) cartRecord {
	rec := cartRecord{
		ItemID:     line.ItemID,
		MerchantID: line.MerchantID,
		Name:       line.Name,
		Price:      line.Price,
		Image:      line.Image,
		Category:   line.Category,
		Quantity:   line.Quantity,
		Notes:      line.Notes,
	}
	if v := line.Options.Variant; v != nil {
		rec.HasVariant = true
		rec.VariantLabel = v.Label
		rec.VariantValue = v.Value
		rec.VariantExtra = v.ExtraPrice
	}
	if l := line.Options.Level; l != nil {
		rec.HasLevel = true
		rec.LevelLabel = l.Label
		rec.LevelValue = l.Value
		rec.LevelExtra = l.ExtraPrice
	}
	for _, t := range line.Options.Toppings {
		rec.ToppingLabels = append(rec.ToppingLabels, t.Label)
		rec.ToppingValues = append(rec.ToppingValues, t.Value)
		rec.ToppingExtras = append(rec.ToppingExtras, t.ExtraPrice)
	}
	return rec
}

func (rec cartRecord) toLine() domain.CartLine {
	line := domain.CartLine{
		ItemID:     rec.ItemID,
		MerchantID: rec.MerchantID,
		Name:       rec.Name,
		Price:      rec.Price,
		Image:      rec.Image,
		Category:   rec.Category,
		Quantity:   rec.Quantity,
		Notes:      rec.Notes,
	}
	if rec.HasVariant {
		line.Options.Variant = &domain.ResolvedOption{
			Label:      rec.VariantLabel,
			Value:      rec.VariantValue,
			ExtraPrice: rec.VariantExtra,
		}
	}
	if rec.HasLevel {
		line.Options.Level = &domain.ResolvedOption{
			Label:      rec.LevelLabel,
			Value:      rec.LevelValue,
			ExtraPrice: rec.LevelExtra,
		}
	}
	for i, value := range rec.ToppingValues {
		topping := domain.ResolvedOption{Value: value}
		if i < len(rec.ToppingLabels) {
			topping.Label = rec.ToppingLabels[i]
		}
		if i < len(rec.ToppingExtras) {
			topping.ExtraPrice = rec.ToppingExtras[i]
		}
		line.Options.Toppings = append(line.Options.Toppings, topping)
	}
	return line
}

// cartKey is the composite record key: merchant id plus the option
// fingerprint (which itself starts with the item id).
func cartKey(line domain.CartLine) string {
	return fmt.Sprintf("%d|%s", line.MerchantID, options.Fingerprint(line.ItemID, line.Options))
}

// ReplaceCart clears the cart collection and rewrites it from the given
// lines. The cart store calls this after every mutation: full overwrite
// instead of diffing, so cache and state cannot diverge.
func (c *Cache) ReplaceCart(ctx context.Context, lines []domain.CartLine) error {
	if err := c.Clear(ctx, CartItems); err != nil {
		return err
	}
	for _, line := range lines {
		if err := c.Upsert(ctx, CartItems, cartKey(line), flattenLine(line)); err != nil {
			return err
		}
	}
	return nil
}

// ClearCartRows empties the cart collection.
func (c *Cache) ClearCartRows(ctx context.Context) error {
	return c.Clear(ctx, CartItems)
}

// CartSnapshot returns every persisted cart line with its ResolvedOptions
// rebuilt from the flat record shape.
func (c *Cache) CartSnapshot(ctx context.Context) ([]domain.CartLine, error) {
	raw, err := c.GetAll(ctx, CartItems)
	if err != nil {
		return nil, err
	}
	out := make([]domain.CartLine, 0, len(raw))
	for key, value := range raw {
		var rec cartRecord
		if err := json.Unmarshal(value, &rec); err != nil {
			c.logger.Printf("cache: skipping corrupt cart record %s: %v", key, err)
			continue
		}
		out = append(out, rec.toLine())
	}
	return out, nil
}

const customerInfoKey = "customer_info"

// SaveCustomerInfo mirrors the customer profile into scalar storage.
func (c *Cache) SaveCustomerInfo(ctx context.Context, info domain.CustomerInfo) error {
	raw, err := json.Marshal(info)
	if err != nil {
		return &StorageError{Op: "save customer info marshal", Err: err}
	}
	return c.SetValue(ctx, customerInfoKey, string(raw))
}

// LoadCustomerInfo reads the mirrored profile; ok is false when none is
// stored.
func (c *Cache) LoadCustomerInfo(ctx context.Context) (domain.CustomerInfo, bool, error) {
	value, ok, err := c.GetValue(ctx, customerInfoKey)
	if err != nil || !ok {
		return domain.CustomerInfo{}, false, err
	}
	var info domain.CustomerInfo
	if err := json.Unmarshal([]byte(value), &info); err != nil {
		return domain.CustomerInfo{}, false, &StorageError{Op: "load customer info unmarshal", Err: err}
	}
	return info, true, nil
}
