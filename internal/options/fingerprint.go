package options

import (
	"sort"
	"strconv"
	"strings"

	"diorder/internal/domain"
)

// Fingerprint builds the canonical dedup key for a cart line: the item id plus
// its resolved options with toppings sorted, so two selections that resolve to
// the same options produce the same key regardless of selection order.
func Fingerprint(itemID int64, resolved domain.ResolvedOptions) string {
	parts := []string{strconv.FormatInt(itemID, 10)}
	if resolved.Variant != nil {
		parts = append(parts, "variant:"+resolved.Variant.Value)
	}
	if resolved.Level != nil {
		parts = append(parts, "level:"+resolved.Level.Value)
	}
	if len(resolved.Toppings) > 0 {
		values := make([]string, 0, len(resolved.Toppings))
		for _, t := range resolved.Toppings {
			values = append(values, t.Value)
		}
		sort.Strings(values)
		parts = append(parts, "toppings:"+strings.Join(values, ","))
	}
	return strings.Join(parts, "|")
}
