// Package cartstore owns the session cart: the merchant -> line-item mapping
// and the customer profile. Mutations merge lines by option fingerprint,
// emit advisory fee notifications, and mirror state into the durable cache
// best-effort.
package cartstore

import (
	"context"
	"io"
	"log"
	"sync"

	"diorder/internal/domain"
	"diorder/internal/options"
	"diorder/internal/pricing"
)

// CartCache is the durable-cache port the store persists through. A nil
// cache disables persistence; the in-memory cart stays authoritative either
// way.
type CartCache interface {
	Ready() bool
	ReplaceCart(ctx context.Context, lines []domain.CartLine) error
	ClearCartRows(ctx context.Context) error
	CartSnapshot(ctx context.Context) ([]domain.CartLine, error)
	SaveCustomerInfo(ctx context.Context, info domain.CustomerInfo) error
	LoadCustomerInfo(ctx context.Context) (domain.CustomerInfo, bool, error)
}

// Store is the cart state machine. All mutations are applied in call order
// under one lock; cache writes happen asynchronously and may lag.
type Store struct {
	mu       sync.Mutex
	items    map[int64][]domain.CartLine
	customer domain.CustomerInfo
	clearing bool

	// syncMu serializes cache writes: full-cart rewrites and the clear
	// path take it, so their effects land in call order.
	syncMu sync.Mutex

	cache  CartCache
	logger *log.Logger
	notifs chan Notification
}

func New(cache CartCache, logger *log.Logger) *Store {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Store{
		items:  make(map[int64][]domain.CartLine),
		cache:  cache,
		logger: logger,
		notifs: make(chan Notification, notificationBuffer),
	}
}

// Load rehydrates the cart and customer profile from the durable cache.
// Meant for session start; it overwrites nothing when the cache is empty.
func (s *Store) Load(ctx context.Context) error {
	if s.cache == nil {
		return nil
	}
	lines, err := s.cache.CartSnapshot(ctx)
	if err != nil {
		return err
	}
	info, haveInfo, err := s.cache.LoadCustomerInfo(ctx)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, line := range lines {
		s.items[line.MerchantID] = append(s.items[line.MerchantID], line)
	}
	if haveInfo {
		s.customer = info
	}
	return nil
}

// AddLine resolves the selection, previews the fee impact, emits advisory
// notifications, and merges the line into the cart. Lines with the same
// fingerprint merge by quantity; new distinct lines append in arrival order.
func (s *Store) AddLine(item domain.MenuItem, merchantID int64, quantity int, sel domain.Selection) {
	if quantity < 1 {
		quantity = 1
	}
	resolved := options.Resolve(item, sel)
	line := domain.CartLine{
		ItemID:     item.ID,
		MerchantID: merchantID,
		Name:       item.Name,
		Price:      item.Price,
		Image:      item.Image,
		Category:   item.Category,
		Quantity:   quantity,
		Options:    resolved,
	}

	s.mu.Lock()
	subtotalBefore := pricing.CartSubtotal(s.items)
	feeBefore := pricing.DeliveryFee(s.items, s.customer)
	_, merchantKnown := s.items[merchantID]

	next := cloneItems(s.items)
	mergeLine(next, line)

	subtotalAfter := pricing.CartSubtotal(next)
	feeAfter := pricing.DeliveryFee(next, s.customer)

	if subtotalBefore <= pricing.SubtotalTier && subtotalAfter > pricing.SubtotalTier && !s.customer.IsCustomVillage {
		s.emit(Notification{
			Kind: ShippingTierCrossed,
			Fee:  feeAfter,
		})
	}
	if !merchantKnown && len(next) == 4 && !feeAfter.Negotiable && !feeBefore.Negotiable {
		s.emit(Notification{
			Kind:     FourthMerchantAdded,
			Fee:      feeAfter,
			FeeDelta: feeAfter.Amount - feeBefore.Amount,
		})
	}

	s.items = next
	s.scheduleSyncLocked()
	s.mu.Unlock()
}

// RemoveLine decrements the matching line by one unit. A line reaching zero
// is deleted; a merchant left without lines loses its key entirely.
func (s *Store) RemoveLine(line domain.CartLine, merchantID int64) {
	fp := options.Fingerprint(line.ItemID, line.Options)

	s.mu.Lock()
	lines := s.items[merchantID]
	for i := range lines {
		if options.Fingerprint(lines[i].ItemID, lines[i].Options) != fp {
			continue
		}
		if lines[i].Quantity > 1 {
			lines[i].Quantity--
		} else {
			lines = append(lines[:i], lines[i+1:]...)
			if len(lines) == 0 {
				delete(s.items, merchantID)
				s.scheduleSyncLocked()
				s.mu.Unlock()
				return
			}
			s.items[merchantID] = lines
		}
		s.scheduleSyncLocked()
		break
	}
	s.mu.Unlock()
}

// SetQuantity sets the matching line's quantity directly; qty <= 0 deletes
// the line. No merge logic: the caller already identified the exact line.
func (s *Store) SetQuantity(line domain.CartLine, merchantID int64, quantity int) {
	fp := options.Fingerprint(line.ItemID, line.Options)

	s.mu.Lock()
	lines := s.items[merchantID]
	for i := range lines {
		if options.Fingerprint(lines[i].ItemID, lines[i].Options) != fp {
			continue
		}
		if quantity <= 0 {
			lines = append(lines[:i], lines[i+1:]...)
			if len(lines) == 0 {
				delete(s.items, merchantID)
			} else {
				s.items[merchantID] = lines
			}
		} else {
			lines[i].Quantity = quantity
		}
		s.scheduleSyncLocked()
		break
	}
	s.mu.Unlock()
}

// SetNotes replaces the free-text notes on the matching line.
func (s *Store) SetNotes(line domain.CartLine, merchantID int64, notes string) {
	fp := options.Fingerprint(line.ItemID, line.Options)

	s.mu.Lock()
	lines := s.items[merchantID]
	for i := range lines {
		if options.Fingerprint(lines[i].ItemID, lines[i].Options) == fp {
			lines[i].Notes = notes
			s.scheduleSyncLocked()
			break
		}
	}
	s.mu.Unlock()
}

// ClearCart empties every merchant entry. The cache deletion runs in the
// background behind a clearing flag so no new resync starts mid-clear, and it
// takes syncMu so a resync already past its snapshot finishes its write
// before the rows are deleted. Either way the cache ends up empty.
func (s *Store) ClearCart() {
	s.mu.Lock()
	s.items = make(map[int64][]domain.CartLine)
	s.clearing = true
	s.mu.Unlock()

	go func() {
		s.syncMu.Lock()
		if s.cache != nil && s.cache.Ready() {
			if err := s.cache.ClearCartRows(context.Background()); err != nil {
				s.logger.Printf("cartstore: clear cart cache: %v", err)
			}
		}
		s.syncMu.Unlock()

		s.mu.Lock()
		s.clearing = false
		s.mu.Unlock()
	}()
}

// ClearMerchantCart deletes one merchant's section.
func (s *Store) ClearMerchantCart(merchantID int64) {
	s.mu.Lock()
	delete(s.items, merchantID)
	s.scheduleSyncLocked()
	s.mu.Unlock()
}

// FindLine locates a line by its option fingerprint within one merchant's
// section.
func (s *Store) FindLine(merchantID int64, fingerprint string) (domain.CartLine, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, line := range s.items[merchantID] {
		if options.Fingerprint(line.ItemID, line.Options) == fingerprint {
			return line, true
		}
	}
	return domain.CartLine{}, false
}

// Items returns a deep copy of the merchant -> lines mapping.
func (s *Store) Items() map[int64][]domain.CartLine {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneItems(s.items)
}

// MerchantItems returns a copy of one merchant's lines.
func (s *Store) MerchantItems(merchantID int64) []domain.CartLine {
	s.mu.Lock()
	defer s.mu.Unlock()
	lines := s.items[merchantID]
	out := make([]domain.CartLine, len(lines))
	copy(out, lines)
	return out
}

// TotalItems is the cart-wide item count (sum of quantities).
func (s *Store) TotalItems() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return pricing.TotalQuantity(s.items)
}

// TotalPrice is the cart-wide subtotal.
func (s *Store) TotalPrice() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return pricing.CartSubtotal(s.items)
}

// MerchantTotalPrice is one merchant's subtotal.
func (s *Store) MerchantTotalPrice(merchantID int64) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return pricing.MerchantSubtotal(s.items[merchantID])
}

// DeliveryFee is the fee for the current cart and destination.
func (s *Store) DeliveryFee() pricing.Fee {
	s.mu.Lock()
	defer s.mu.Unlock()
	return pricing.DeliveryFee(s.items, s.customer)
}

// Customer returns the current customer profile.
func (s *Store) Customer() domain.CustomerInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.customer
}

// SetCustomer updates the profile and mirrors it to scalar storage
// synchronously, best-effort: a storage failure is logged and does not block
// the in-memory update.
func (s *Store) SetCustomer(info domain.CustomerInfo) {
	s.mu.Lock()
	s.customer = info
	s.mu.Unlock()

	if s.cache != nil && s.cache.Ready() {
		if err := s.cache.SaveCustomerInfo(context.Background(), info); err != nil {
			s.logger.Printf("cartstore: save customer info: %v", err)
		}
	}
}

// mergeLine merges a candidate into the mapping: same fingerprint increments
// quantity, otherwise the line appends in arrival order.
func mergeLine(items map[int64][]domain.CartLine, line domain.CartLine) {
	fp := options.Fingerprint(line.ItemID, line.Options)
	lines := items[line.MerchantID]
	for i := range lines {
		if options.Fingerprint(lines[i].ItemID, lines[i].Options) == fp {
			lines[i].Quantity += line.Quantity
			return
		}
	}
	items[line.MerchantID] = append(lines, line)
}

func cloneItems(items map[int64][]domain.CartLine) map[int64][]domain.CartLine {
	out := make(map[int64][]domain.CartLine, len(items))
	for merchantID, lines := range items {
		copied := make([]domain.CartLine, len(lines))
		copy(copied, lines)
		out[merchantID] = copied
	}
	return out
}

// scheduleSyncLocked queues an asynchronous full rewrite of the cart
// collection. Callers must hold mu. The rewrite snapshots current state at
// write time, so overlapping syncs settle on the latest cart.
func (s *Store) scheduleSyncLocked() {
	if s.cache == nil || s.clearing || !s.cache.Ready() {
		return
	}
	go s.syncToCache()
}

func (s *Store) syncToCache() {
	s.syncMu.Lock()
	defer s.syncMu.Unlock()

	s.mu.Lock()
	if s.clearing {
		s.mu.Unlock()
		return
	}
	var snapshot []domain.CartLine
	for _, lines := range s.items {
		snapshot = append(snapshot, lines...)
	}
	s.mu.Unlock()

	if err := s.cache.ReplaceCart(context.Background(), snapshot); err != nil {
		s.logger.Printf("cartstore: sync to cache: %v", err)
	}
}
