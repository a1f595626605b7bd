// Package options resolves a customer's raw selections against a menu item's
// option-group definitions and derives the canonical fingerprint used to merge
// cart lines.
package options

import "diorder/internal/domain"

// Group ids reserved as role aliases. "varian" is the legacy spelling still
// present in older catalog rows.
const (
	aliasVariant       = "variant"
	aliasVariantLegacy = "varian"
	aliasSpiceLevel    = "spice_level"
)

// Resolve matches the selection against the item's current option groups.
// Unknown group ids in the selection are ignored and a selection id that no
// longer exists resolves to an absent role; Resolve never fails.
//
// Role assignment follows group order: the first single-choice group (or one
// aliased "variant") is the variant, the next single-choice group (or one
// aliased "spice_level") is the level, and any multiple_optional group
// supplies the toppings.
func Resolve(item domain.MenuItem, sel domain.Selection) domain.ResolvedOptions {
	var out domain.ResolvedOptions
	for _, group := range item.OptionGroups {
		switch {
		case group.Type == domain.MultipleOptional:
			if out.Toppings == nil {
				out.Toppings = resolveToppings(group, sel)
			}
		case group.ID == aliasVariant || group.ID == aliasVariantLegacy:
			out.Variant = resolveSingle(group, sel)
		case group.ID == aliasSpiceLevel:
			out.Level = resolveSingle(group, sel)
		case group.Type == domain.SingleRequired || group.Type == domain.SingleOptional:
			if out.Variant == nil {
				out.Variant = resolveSingle(group, sel)
			} else if out.Level == nil {
				out.Level = resolveSingle(group, sel)
			}
		}
	}
	return out
}

func resolveSingle(group domain.OptionGroup, sel domain.Selection) *domain.ResolvedOption {
	value, ok := sel[group.ID]
	if !ok || value.Option == "" {
		return nil
	}
	for _, opt := range group.Options {
		if opt.ID == value.Option {
			return &domain.ResolvedOption{
				Label:      opt.Name,
				Value:      opt.ID,
				ExtraPrice: opt.ExtraPrice,
			}
		}
	}
	return nil
}

func resolveToppings(group domain.OptionGroup, sel domain.Selection) []domain.ResolvedOption {
	value, ok := sel[group.ID]
	if !ok || len(value.Options) == 0 {
		return nil
	}
	chosen := make(map[string]bool, len(value.Options))
	for _, id := range value.Options {
		chosen[id] = true
	}
	var out []domain.ResolvedOption
	for _, opt := range group.Options {
		if !chosen[opt.ID] {
			continue
		}
		out = append(out, domain.ResolvedOption{
			Label:      opt.Name,
			Value:      opt.ID,
			ExtraPrice: opt.ExtraPrice,
		})
		if group.MaxSelections > 0 && len(out) == group.MaxSelections {
			break
		}
	}
	return out
}
