// Package catalog serves merchants, menus and storefront settings through
// the durable cache. Reads go cache-first; a staleness policy decides when to
// probe the database for newer data, and a failed probe or fetch degrades to
// the cached copy instead of failing the read.
package catalog

import (
	"context"
	"errors"
	"io"
	"log"
	"time"

	"diorder/internal/cache"
	"diorder/internal/domain"
	"diorder/internal/staleness"
)

// MerchantSource is the database side of merchant reads.
type MerchantSource interface {
	ListActive(ctx context.Context) ([]domain.Merchant, error)
	UpdatedAt(ctx context.Context, id int64) (time.Time, error)
	LatestUpdate(ctx context.Context) (time.Time, error)
}

// MenuSource is the database side of menu reads.
type MenuSource interface {
	ListActive(ctx context.Context) ([]domain.MenuItem, error)
	ListByMerchant(ctx context.Context, merchantID int64) ([]domain.MenuItem, error)
}

// SettingsSource is the database side of storefront settings.
type SettingsSource interface {
	Get(ctx context.Context) (*domain.Settings, error)
	UpdatedAt(ctx context.Context) (time.Time, error)
}

type Loader struct {
	cache     *cache.Cache
	policy    *staleness.Policy
	merchants MerchantSource
	menu      MenuSource
	settings  SettingsSource
	logger    *log.Logger
}

func New(c *cache.Cache, policy *staleness.Policy, merchants MerchantSource, menu MenuSource, settings SettingsSource, logger *log.Logger) *Loader {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Loader{
		cache:     c,
		policy:    policy,
		merchants: merchants,
		menu:      menu,
		settings:  settings,
		logger:    logger,
	}
}

// Merchants returns the merchant list, refetching from the database when the
// staleness policy says the cached copy may be behind.
func (l *Loader) Merchants(ctx context.Context) ([]domain.Merchant, error) {
	if l.policy.IsCheckDue(ctx, staleness.ScopeMerchants) {
		probe, err := l.merchants.LatestUpdate(ctx)
		if err != nil {
			l.logger.Printf("catalog: merchant probe failed, serving cached: %v", err)
			return l.cachedMerchants(ctx)
		}
		l.policy.RecordCheck(ctx, staleness.ScopeMerchants)

		if l.policy.ShouldRefetch(ctx, staleness.ScopeMerchants, probe) {
			fresh, err := l.merchants.ListActive(ctx)
			if err != nil {
				l.logger.Printf("catalog: merchant fetch failed, serving cached: %v", err)
				return l.cachedMerchants(ctx)
			}
			if err := l.cache.ReconcileMerchants(ctx, fresh); err != nil {
				l.logger.Printf("catalog: merchant reconcile: %v", err)
			} else {
				l.policy.RecordFetched(ctx, staleness.ScopeMerchants, probe)
			}
			return fresh, nil
		}
	}
	return l.cachedMerchants(ctx)
}

// Menu returns menu items, scoped to one merchant when merchantID is
// non-zero. The per-merchant scope keeps its own staleness clock so browsing
// one merchant never forces a whole-catalog refetch.
func (l *Loader) Menu(ctx context.Context, merchantID int64) ([]domain.MenuItem, error) {
	scope := staleness.ScopeMenu
	if merchantID != 0 {
		scope = staleness.MerchantScope(merchantID)
	}

	if l.policy.IsCheckDue(ctx, scope) {
		probe, err := l.probeMenu(ctx, merchantID)
		if err != nil {
			l.logger.Printf("catalog: menu probe failed, serving cached: %v", err)
			return l.cachedMenu(ctx, merchantID)
		}
		l.policy.RecordCheck(ctx, scope)

		if l.policy.ShouldRefetch(ctx, scope, probe) {
			fresh, err := l.fetchMenu(ctx, merchantID)
			if err != nil {
				l.logger.Printf("catalog: menu fetch failed, serving cached: %v", err)
				return l.cachedMenu(ctx, merchantID)
			}
			if err := l.cache.ReconcileMenuItems(ctx, fresh, merchantID); err != nil {
				l.logger.Printf("catalog: menu reconcile: %v", err)
			} else {
				l.policy.RecordFetched(ctx, scope, probe)
			}
			return fresh, nil
		}
	}
	return l.cachedMenu(ctx, merchantID)
}

// Settings returns the storefront settings. A brand new install with nothing
// cached and an unreachable database yields domain.ErrNotFound.
func (l *Loader) Settings(ctx context.Context) (*domain.Settings, error) {
	if l.policy.IsCheckDue(ctx, staleness.ScopeSettings) {
		probe, err := l.settings.UpdatedAt(ctx)
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			l.logger.Printf("catalog: settings probe failed, serving cached: %v", err)
			return l.cachedSettings(ctx)
		}
		l.policy.RecordCheck(ctx, staleness.ScopeSettings)

		if err == nil && l.policy.ShouldRefetch(ctx, staleness.ScopeSettings, probe) {
			fresh, err := l.settings.Get(ctx)
			if err != nil {
				l.logger.Printf("catalog: settings fetch failed, serving cached: %v", err)
				return l.cachedSettings(ctx)
			}
			if err := l.cache.SaveSettings(ctx, *fresh); err != nil {
				l.logger.Printf("catalog: settings save: %v", err)
			} else {
				l.policy.RecordFetched(ctx, staleness.ScopeSettings, probe)
			}
			return fresh, nil
		}
	}
	return l.cachedSettings(ctx)
}

func (l *Loader) probeMenu(ctx context.Context, merchantID int64) (time.Time, error) {
	if merchantID != 0 {
		return l.merchants.UpdatedAt(ctx, merchantID)
	}
	return l.merchants.LatestUpdate(ctx)
}

func (l *Loader) fetchMenu(ctx context.Context, merchantID int64) ([]domain.MenuItem, error) {
	if merchantID != 0 {
		return l.menu.ListByMerchant(ctx, merchantID)
	}
	return l.menu.ListActive(ctx)
}

func (l *Loader) cachedMerchants(ctx context.Context) ([]domain.Merchant, error) {
	out, err := l.cache.Merchants(ctx)
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (l *Loader) cachedMenu(ctx context.Context, merchantID int64) ([]domain.MenuItem, error) {
	out, err := l.cache.MenuItemsFor(ctx, merchantID)
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (l *Loader) cachedSettings(ctx context.Context) (*domain.Settings, error) {
	s, ok, err := l.cache.LoadSettings(ctx)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &s, nil
}
