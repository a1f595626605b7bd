// Package staleness decides, per scope, whether a cached copy is fresh
// enough to serve. Two independent gates: a TTL that rate-limits the
// lightweight metadata probe, and a strict server-timestamp comparison that
// decides whether a full refetch is warranted.
package staleness

import (
	"context"
	"io"
	"log"
	"strconv"
	"time"
)

// DefaultTTL is how long a recorded check suppresses the next probe.
const DefaultTTL = 5 * time.Minute

// Scope keys for the entities the policy tracks.
const (
	ScopeMerchants = "merchants"
	ScopeMenu      = "menu"
	ScopeSettings  = "settings"
)

// MerchantScope returns the per-merchant scope key.
func MerchantScope(merchantID int64) string {
	return "merchant:" + strconv.FormatInt(merchantID, 10)
}

// Store is the scalar timestamp area the policy persists through, satisfied
// by the durable cache.
type Store interface {
	SetTimestamp(ctx context.Context, name string, ts time.Time) error
	GetTimestamp(ctx context.Context, name string) (time.Time, bool, error)
}

// Policy tracks per-scope fetch timestamps. The clock is injectable for
// tests.
type Policy struct {
	store  Store
	ttl    time.Duration
	now    func() time.Time
	logger *log.Logger
}

// Option customizes a Policy.
type Option func(*Policy)

// WithClock replaces the wall clock.
func WithClock(now func() time.Time) Option {
	return func(p *Policy) { p.now = now }
}

// WithTTL replaces the probe TTL.
func WithTTL(ttl time.Duration) Option {
	return func(p *Policy) { p.ttl = ttl }
}

func New(store Store, logger *log.Logger, opts ...Option) *Policy {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	p := &Policy{store: store, ttl: DefaultTTL, now: time.Now, logger: logger}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// ShouldRefetch reports whether the full entity must be refetched. A zero
// serverTimestamp means no probe result is available; then only a missing
// local record forces a fetch.
func (p *Policy) ShouldRefetch(ctx context.Context, scope string, serverTimestamp time.Time) bool {
	local, ok, err := p.store.GetTimestamp(ctx, entityKey(scope))
	if err != nil {
		p.logger.Printf("staleness: read %s: %v", scope, err)
		return true
	}
	if !ok {
		return true
	}
	if !serverTimestamp.IsZero() && serverTimestamp.After(local) {
		return true
	}
	return false
}

// RecordFetched stores the server timestamp of the copy just fetched.
func (p *Policy) RecordFetched(ctx context.Context, scope string, serverTimestamp time.Time) {
	if err := p.store.SetTimestamp(ctx, entityKey(scope), serverTimestamp); err != nil {
		p.logger.Printf("staleness: record %s: %v", scope, err)
	}
}

// IsCheckDue reports whether enough time has passed since the last recorded
// check to justify a metadata probe.
func (p *Policy) IsCheckDue(ctx context.Context, scope string) bool {
	last, ok, err := p.store.GetTimestamp(ctx, checkKey(scope))
	if err != nil {
		p.logger.Printf("staleness: read check %s: %v", scope, err)
		return true
	}
	if !ok {
		return true
	}
	return p.now().Sub(last) >= p.ttl
}

// RecordCheck stamps the current time as the last staleness check.
func (p *Policy) RecordCheck(ctx context.Context, scope string) {
	if err := p.store.SetTimestamp(ctx, checkKey(scope), p.now()); err != nil {
		p.logger.Printf("staleness: record check %s: %v", scope, err)
	}
}

func entityKey(scope string) string { return "updated_at:" + scope }
func checkKey(scope string) string  { return "last_fetch:" + scope }
