package domain

import (
	"bytes"
	"encoding/json"
	"time"
)

// OptionGroupType tags how many options a group accepts.
type OptionGroupType string

const (
	SingleRequired   OptionGroupType = "single_required"
	SingleOptional   OptionGroupType = "single_optional"
	MultipleOptional OptionGroupType = "multiple_optional"
)

type Option struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	ExtraPrice int64  `json:"extraPrice"`
}

type OptionGroup struct {
	ID            string          `json:"id"`
	Title         string          `json:"title"`
	Description   string          `json:"description,omitempty"`
	Type          OptionGroupType `json:"type"`
	MaxSelections int             `json:"maxSelections,omitempty"`
	Options       []Option        `json:"options"`
}

// MenuItem mirrors a catalog row. Prices are in the smallest currency unit.
type MenuItem struct {
	ID           int64         `json:"id"`
	MerchantID   int64         `json:"merchant_id"`
	Name         string        `json:"name"`
	Price        int64         `json:"price"`
	Image        string        `json:"image"`
	Category     string        `json:"category"`
	IsActive     bool          `json:"is_active"`
	OptionGroups []OptionGroup `json:"optionGroups,omitempty"`
	UpdatedAt    time.Time     `json:"updated_at"`
}

// SelectionValue is either a single option id (single_* groups) or a list of
// option ids (multiple_optional groups). The UI sends both shapes under the
// same selection object, so JSON decoding accepts either.
type SelectionValue struct {
	Option  string
	Options []string
}

// Selection maps an option-group id to the customer's raw choice.
type Selection map[string]SelectionValue

func (v *SelectionValue) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '[' {
		return json.Unmarshal(data, &v.Options)
	}
	return json.Unmarshal(data, &v.Option)
}

func (v SelectionValue) MarshalJSON() ([]byte, error) {
	if v.Options != nil {
		return json.Marshal(v.Options)
	}
	return json.Marshal(v.Option)
}

// ResolvedOption is one concrete choice matched against the item's current
// option-group definitions.
type ResolvedOption struct {
	Label      string `json:"label"`
	Value      string `json:"value"`
	ExtraPrice int64  `json:"extraPrice"`
}

// ResolvedOptions holds the recognized semantic roles of a selection. A role
// that was not selected (or no longer matches the item's definitions) is
// absent, never an error.
type ResolvedOptions struct {
	Variant  *ResolvedOption  `json:"variant,omitempty"`
	Level    *ResolvedOption  `json:"level,omitempty"`
	Toppings []ResolvedOption `json:"toppings,omitempty"`
}

// IsZero reports whether no role was resolved.
func (r ResolvedOptions) IsZero() bool {
	return r.Variant == nil && r.Level == nil && len(r.Toppings) == 0
}
