package cartstore

import "diorder/internal/pricing"

// NotificationKind classifies an advisory message.
type NotificationKind string

const (
	// ShippingTierCrossed fires when an add pushes the subtotal over the
	// 100k tier for the first time.
	ShippingTierCrossed NotificationKind = "shipping_tier_crossed"

	// FourthMerchantAdded fires when an add introduces a fourth distinct
	// merchant, which starts the multi-merchant surcharge.
	FourthMerchantAdded NotificationKind = "fourth_merchant_added"
)

const notificationBuffer = 16

// Notification is an advisory fee message for the UI. Delivery is
// best-effort: notifications are informational and never block a mutation.
type Notification struct {
	Kind     NotificationKind `json:"kind"`
	Fee      pricing.Fee      `json:"fee"`
	FeeDelta int64            `json:"feeDelta,omitempty"`
}

// Notifications exposes the advisory channel. The UI drains it and renders
// dismissible alerts.
func (s *Store) Notifications() <-chan Notification {
	return s.notifs
}

// Drain collects pending notifications without blocking.
func (s *Store) Drain() []Notification {
	var out []Notification
	for {
		select {
		case n := <-s.notifs:
			out = append(out, n)
		default:
			return out
		}
	}
}

func (s *Store) emit(n Notification) {
	select {
	case s.notifs <- n:
	default:
		// dropped when the UI is not draining
	}
}
