// Package cache is the durable local store: three record collections
// (menu items, merchant info, cart line items), a scalar key-value area for
// the customer profile and settings, and a timestamp namespace for the
// staleness clocks, backed by Redis.
//
// The cache is never the source of truth during a session; it exists so the
// cart and catalog survive a restart. Every failure is reported as a typed
// error and callers decide whether to degrade.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/go-redis/redis/v8"

	"diorder/internal/domain"
)

// schemaVersion gates a destructive upgrade: on mismatch the collections are
// dropped and recreated. Bump it whenever the persisted record shape changes.
const schemaVersion = "5"

const defaultPrefix = "diorder"

// Collection names one of the three record collections.
type Collection string

const (
	MenuItems    Collection = "menuItems"
	MerchantInfo Collection = "merchantInfo"
	CartItems    Collection = "cartItems"
)

// StorageError wraps a failed cache operation.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("cache: %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// Cache is a Redis-backed keyed store. It must be initialized with Init
// before use; operations attempted earlier fail fast with
// domain.ErrNotInitialized.
type Cache struct {
	rdb    *redis.Client
	logger *log.Logger
	prefix string
	ready  atomic.Bool
}

func New(rdb *redis.Client, logger *log.Logger) *Cache {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Cache{rdb: rdb, logger: logger, prefix: defaultPrefix}
}

// Init verifies connectivity and reconciles the schema version. An old
// version drops the record collections and their staleness timestamps
// wholesale; scalar entries survive so the customer profile outlives a
// schema bump.
func (c *Cache) Init(ctx context.Context) error {
	if err := c.rdb.Ping(ctx).Err(); err != nil {
		return &StorageError{Op: "init ping", Err: err}
	}

	versionKey := c.prefix + ":schema_version"
	current, err := c.rdb.Get(ctx, versionKey).Result()
	if err != nil && err != redis.Nil {
		return &StorageError{Op: "init read schema version", Err: err}
	}
	if current != schemaVersion {
		keys := []string{
			c.collectionKey(MenuItems),
			c.collectionKey(MerchantInfo),
			c.collectionKey(CartItems),
		}
		if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
			return &StorageError{Op: "init drop collections", Err: err}
		}
		// The staleness clocks describe the dropped collections; left in
		// place they would keep the loader serving the now-empty cache
		// until the TTL expires.
		stale, err := c.rdb.Keys(ctx, c.timestampKey("*")).Result()
		if err != nil {
			return &StorageError{Op: "init list timestamps", Err: err}
		}
		if len(stale) > 0 {
			if err := c.rdb.Del(ctx, stale...).Err(); err != nil {
				return &StorageError{Op: "init drop timestamps", Err: err}
			}
		}
		if err := c.rdb.Set(ctx, versionKey, schemaVersion, 0).Err(); err != nil {
			return &StorageError{Op: "init write schema version", Err: err}
		}
		if current != "" {
			c.logger.Printf("cache: schema upgraded %s -> %s, collections recreated", current, schemaVersion)
		}
	}

	c.ready.Store(true)
	return nil
}

// Ready reports whether Init has completed successfully.
func (c *Cache) Ready() bool { return c.ready.Load() }

func (c *Cache) guard() error {
	if !c.ready.Load() {
		return domain.ErrNotInitialized
	}
	return nil
}

func (c *Cache) collectionKey(col Collection) string {
	return c.prefix + ":" + string(col)
}

func (c *Cache) scalarKey(name string) string {
	return c.prefix + ":kv:" + name
}

func (c *Cache) timestampKey(name string) string {
	return c.prefix + ":ts:" + name
}

// Upsert writes one record into a collection under its key.
func (c *Cache) Upsert(ctx context.Context, col Collection, key string, record interface{}) error {
	if err := c.guard(); err != nil {
		return err
	}
	raw, err := json.Marshal(record)
	if err != nil {
		return &StorageError{Op: "upsert " + string(col) + " marshal", Err: err}
	}
	if err := c.rdb.HSet(ctx, c.collectionKey(col), key, raw).Err(); err != nil {
		return &StorageError{Op: "upsert " + string(col), Err: err}
	}
	return nil
}

// GetAll returns every record of a collection keyed by record key.
func (c *Cache) GetAll(ctx context.Context, col Collection) (map[string][]byte, error) {
	if err := c.guard(); err != nil {
		return nil, err
	}
	raw, err := c.rdb.HGetAll(ctx, c.collectionKey(col)).Result()
	if err != nil {
		return nil, &StorageError{Op: "getAll " + string(col), Err: err}
	}
	out := make(map[string][]byte, len(raw))
	for key, value := range raw {
		out[key] = []byte(value)
	}
	return out, nil
}

// DeleteByKey removes one record; deleting a missing key is not an error.
func (c *Cache) DeleteByKey(ctx context.Context, col Collection, key string) error {
	if err := c.guard(); err != nil {
		return err
	}
	if err := c.rdb.HDel(ctx, c.collectionKey(col), key).Err(); err != nil {
		return &StorageError{Op: "delete " + string(col), Err: err}
	}
	return nil
}

// Clear empties one collection.
func (c *Cache) Clear(ctx context.Context, col Collection) error {
	if err := c.guard(); err != nil {
		return err
	}
	if err := c.rdb.Del(ctx, c.collectionKey(col)).Err(); err != nil {
		return &StorageError{Op: "clear " + string(col), Err: err}
	}
	return nil
}

// SetValue writes a scalar entry.
func (c *Cache) SetValue(ctx context.Context, name, value string) error {
	if err := c.guard(); err != nil {
		return err
	}
	if err := c.rdb.Set(ctx, c.scalarKey(name), value, 0).Err(); err != nil {
		return &StorageError{Op: "set value " + name, Err: err}
	}
	return nil
}

// GetValue reads a scalar entry; ok is false when the entry does not exist.
func (c *Cache) GetValue(ctx context.Context, name string) (string, bool, error) {
	if err := c.guard(); err != nil {
		return "", false, err
	}
	value, err := c.rdb.Get(ctx, c.scalarKey(name)).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, &StorageError{Op: "get value " + name, Err: err}
	}
	return value, true, nil
}

// DeleteValue removes a scalar entry.
func (c *Cache) DeleteValue(ctx context.Context, name string) error {
	if err := c.guard(); err != nil {
		return err
	}
	if err := c.rdb.Del(ctx, c.scalarKey(name)).Err(); err != nil {
		return &StorageError{Op: "delete value " + name, Err: err}
	}
	return nil
}

// Merchants returns the cached merchant records.
func (c *Cache) Merchants(ctx context.Context) ([]domain.Merchant, error) {
	raw, err := c.GetAll(ctx, MerchantInfo)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Merchant, 0, len(raw))
	for key, value := range raw {
		var m domain.Merchant
		if err := json.Unmarshal(value, &m); err != nil {
			c.logger.Printf("cache: skipping corrupt merchant record %s: %v", key, err)
			continue
		}
		out = append(out, m)
	}
	return out, nil
}

// MenuItemsFor returns cached menu items, filtered to one merchant when
// merchantID is non-zero.
func (c *Cache) MenuItemsFor(ctx context.Context, merchantID int64) ([]domain.MenuItem, error) {
	raw, err := c.GetAll(ctx, MenuItems)
	if err != nil {
		return nil, err
	}
	out := make([]domain.MenuItem, 0, len(raw))
	for key, value := range raw {
		var item domain.MenuItem
		if err := json.Unmarshal(value, &item); err != nil {
			c.logger.Printf("cache: skipping corrupt menu record %s: %v", key, err)
			continue
		}
		if merchantID != 0 && item.MerchantID != merchantID {
			continue
		}
		out = append(out, item)
	}
	return out, nil
}

// ReconcileMerchants syncs the merchant collection against a server snapshot:
// cached merchants absent from the snapshot are evicted together with their
// menu and cart rows, then every server record is upserted.
func (c *Cache) ReconcileMerchants(ctx context.Context, server []domain.Merchant) error {
	cached, err := c.Merchants(ctx)
	if err != nil {
		return err
	}
	present := make(map[int64]bool, len(server))
	for _, m := range server {
		present[m.ID] = true
	}
	for _, m := range cached {
		if present[m.ID] {
			continue
		}
		if err := c.evictMerchant(ctx, m.ID); err != nil {
			return err
		}
	}
	for _, m := range server {
		if err := c.Upsert(ctx, MerchantInfo, strconv.FormatInt(m.ID, 10), m); err != nil {
			return err
		}
	}
	return nil
}

// ReconcileMenuItems syncs the menu collection against a server snapshot.
// A non-zero scope merchant limits orphan eviction to that merchant's rows so
// a per-merchant refresh does not wipe the rest of the catalog.
func (c *Cache) ReconcileMenuItems(ctx context.Context, server []domain.MenuItem, scopeMerchantID int64) error {
	cached, err := c.MenuItemsFor(ctx, scopeMerchantID)
	if err != nil {
		return err
	}
	present := make(map[int64]bool, len(server))
	for _, item := range server {
		present[item.ID] = true
	}
	for _, item := range cached {
		if present[item.ID] {
			continue
		}
		if err := c.DeleteByKey(ctx, MenuItems, strconv.FormatInt(item.ID, 10)); err != nil {
			return err
		}
	}
	for _, item := range server {
		if err := c.Upsert(ctx, MenuItems, strconv.FormatInt(item.ID, 10), item); err != nil {
			return err
		}
	}
	return nil
}

// evictMerchant removes a merchant record with its menu items and cart rows.
func (c *Cache) evictMerchant(ctx context.Context, merchantID int64) error {
	if err := c.DeleteByKey(ctx, MerchantInfo, strconv.FormatInt(merchantID, 10)); err != nil {
		return err
	}

	menu, err := c.MenuItemsFor(ctx, merchantID)
	if err != nil {
		return err
	}
	for _, item := range menu {
		if err := c.DeleteByKey(ctx, MenuItems, strconv.FormatInt(item.ID, 10)); err != nil {
			return err
		}
	}

	cartRows, err := c.GetAll(ctx, CartItems)
	if err != nil {
		return err
	}
	scope := strconv.FormatInt(merchantID, 10) + "|"
	for key := range cartRows {
		if strings.HasPrefix(key, scope) {
			if err := c.DeleteByKey(ctx, CartItems, key); err != nil {
				return err
			}
		}
	}
	return nil
}

// timestampFormat is the wire format for stored timestamps.
const timestampFormat = time.RFC3339Nano

// SetTimestamp stores a wall-clock timestamp under a name. Timestamps live in
// their own key namespace, separate from the scalar area, because a schema
// bump wipes them together with the collections they describe while scalars
// survive.
func (c *Cache) SetTimestamp(ctx context.Context, name string, ts time.Time) error {
	if err := c.guard(); err != nil {
		return err
	}
	raw := ts.UTC().Format(timestampFormat)
	if err := c.rdb.Set(ctx, c.timestampKey(name), raw, 0).Err(); err != nil {
		return &StorageError{Op: "set timestamp " + name, Err: err}
	}
	return nil
}

// GetTimestamp reads a stored timestamp; ok is false when none is recorded
// or the stored value does not parse.
func (c *Cache) GetTimestamp(ctx context.Context, name string) (time.Time, bool, error) {
	if err := c.guard(); err != nil {
		return time.Time{}, false, err
	}
	value, err := c.rdb.Get(ctx, c.timestampKey(name)).Result()
	if err == redis.Nil {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, &StorageError{Op: "get timestamp " + name, Err: err}
	}
	ts, err := time.Parse(timestampFormat, value)
	if err != nil {
		c.logger.Printf("cache: bad timestamp %s=%q: %v", name, value, err)
		return time.Time{}, false, nil
	}
	return ts, true, nil
}
