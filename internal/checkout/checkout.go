// Package checkout turns the current cart into an order handoff: it gates on
// the storefront being open, validates the customer profile, snapshots the
// cart into an order record, and persists it fire-and-forget while the
// message-based handoff proceeds.
package checkout

import (
	"context"
	"errors"
	"io"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"diorder/internal/domain"
	"diorder/internal/pricing"
)

// ErrEmptyCart rejects a submit with nothing in the cart.
var ErrEmptyCart = errors.New("checkout: cart is empty")

// ValidationError lists the customer profile fields missing for checkout.
type ValidationError struct {
	Missing []string
}

func (e *ValidationError) Error() string {
	return "checkout: missing " + strings.Join(e.Missing, ", ")
}

// Cart is the slice of the cart store checkout reads from.
type Cart interface {
	Items() map[int64][]domain.CartLine
	Customer() domain.CustomerInfo
	TotalPrice() int64
	DeliveryFee() pricing.Fee
	ClearCart()
}

// SettingsSource supplies the storefront settings, cached or fresh.
type SettingsSource interface {
	Settings(ctx context.Context) (*domain.Settings, error)
}

// OrderSink persists submitted orders.
type OrderSink interface {
	Insert(ctx context.Context, o domain.Order) error
}

// PointSink receives the best-effort popularity counters.
type PointSink interface {
	AddMerchantPoints(ctx context.Context, merchantID, delta int64) error
	AddMenuPoints(ctx context.Context, itemID, delta int64) error
}

// Result is what the UI layer needs to finish the handoff: the persisted
// order snapshot and the destination contact for the messaging link. Message
// formatting itself stays with the UI.
type Result struct {
	Order   domain.Order
	Contact string
}

type Service struct {
	cart     Cart
	settings SettingsSource
	orders   OrderSink
	points   PointSink
	contact  string
	now      func() time.Time
	logger   *log.Logger
}

// Option customizes a Service.
type Option func(*Service)

// WithClock replaces the wall clock.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func New(cart Cart, settings SettingsSource, orders OrderSink, points PointSink, contact string, logger *log.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	s := &Service{
		cart:     cart,
		settings: settings,
		orders:   orders,
		points:   points,
		contact:  contact,
		now:      time.Now,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Validate checks the customer profile without submitting. The returned
// error is a *ValidationError naming every missing field, or nil.
func (s *Service) Validate(info domain.CustomerInfo) error {
	var missing []string
	if strings.TrimSpace(info.Name) == "" {
		missing = append(missing, "name")
	}
	destination := info.Village
	if info.IsCustomVillage {
		destination = info.CustomVillage
	}
	if strings.TrimSpace(destination) == "" {
		missing = append(missing, "destination")
	}
	if strings.TrimSpace(info.AddressDetail) == "" {
		missing = append(missing, "address")
	}
	if len(missing) > 0 {
		return &ValidationError{Missing: missing}
	}
	return nil
}

// Submit runs the full checkout: gate, validate, snapshot, persist. On
// success the cart is cleared and the order record is already on its way to
// the database; a failed insert is logged but never reported, since the
// handoff has happened by then.
func (s *Service) Submit(ctx context.Context) (*Result, error) {
	if err := s.gate(ctx); err != nil {
		return nil, err
	}

	info := s.cart.Customer()
	if err := s.Validate(info); err != nil {
		return nil, err
	}

	items := s.cart.Items()
	if len(items) == 0 {
		return nil, ErrEmptyCart
	}

	subtotal := s.cart.TotalPrice()
	fee := s.cart.DeliveryFee()
	// A negotiable fee never contributes to the total; its Amount carries no
	// meaning.
	total := subtotal
	if !fee.Negotiable {
		total += fee.Amount
	}
	order := domain.Order{
		ID:            uuid.NewString(),
		Customer:      info,
		Lines:         orderLines(items),
		Subtotal:      subtotal,
		DeliveryFee:   fee.Amount,
		FeeNegotiable: fee.Negotiable,
		Total:         total,
		CreatedAt:     s.now().UTC(),
	}

	go s.persist(order, items)

	s.cart.ClearCart()
	return &Result{Order: order, Contact: s.contact}, nil
}

// gate rejects submission while the storefront is closed. Settings that
// cannot be loaded at all leave checkout open rather than locking customers
// out on a cache miss.
func (s *Service) gate(ctx context.Context) error {
	settings, err := s.settings.Settings(ctx)
	if err != nil {
		s.logger.Printf("checkout: settings unavailable, skipping gate: %v", err)
		return nil
	}
	if !settings.IsOpenAt(s.now()) {
		return domain.ErrServiceClosed
	}
	return nil
}

// persist is the fire-and-forget tail of Submit: the order insert plus the
// popularity counters, each best-effort with no retry.
func (s *Service) persist(order domain.Order, items map[int64][]domain.CartLine) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.orders.Insert(ctx, order); err != nil {
		s.logger.Printf("checkout: order insert %s: %v", order.ID, err)
	}

	if s.points == nil {
		return
	}
	for merchantID, lines := range items {
		for _, line := range lines {
			if err := s.points.AddMenuPoints(ctx, line.ItemID, int64(line.Quantity)); err != nil {
				s.logger.Printf("checkout: menu points item=%d: %v", line.ItemID, err)
			}
		}
		if delta := pricing.MerchantSubtotal(lines) / 1000; delta > 0 {
			if err := s.points.AddMerchantPoints(ctx, merchantID, delta); err != nil {
				s.logger.Printf("checkout: merchant points merchant=%d: %v", merchantID, err)
			}
		}
	}
}

// orderLines flattens the cart mapping into persisted order lines.
func orderLines(items map[int64][]domain.CartLine) []domain.OrderLine {
	var out []domain.OrderLine
	for _, lines := range items {
		for _, line := range lines {
			out = append(out, domain.OrderLine{
				ItemID:     line.ItemID,
				MerchantID: line.MerchantID,
				Name:       line.Name,
				Price:      line.Price,
				Quantity:   line.Quantity,
				Notes:      line.Notes,
				Options:    line.Options,
				Total:      pricing.LineTotal(line),
			})
		}
	}
	return out
}
