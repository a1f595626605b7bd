package cache

import (
	"context"
	"errors"
	"reflect"
	"sort"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"

	"diorder/internal/domain"
)

func setupTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	return mr, client
}

func initCache(t *testing.T) (*Cache, *miniredis.Miniredis) {
	t.Helper()
	mr, client := setupTestRedis(t)
	c := New(client, nil)
	if err := c.Init(context.Background()); err != nil {
		t.Fatalf("Init: %v", err)
	}
	return c, mr
}

func TestCache_FailsFastBeforeInit(t *testing.T) {
	_, client := setupTestRedis(t)
	c := New(client, nil)
	ctx := context.Background()

	if _, err := c.GetAll(ctx, MerchantInfo); !errors.Is(err, domain.ErrNotInitialized) {
		t.Fatalf("GetAll error = %v, want ErrNotInitialized", err)
	}
	if err := c.Upsert(ctx, MerchantInfo, "1", domain.Merchant{ID: 1}); !errors.Is(err, domain.ErrNotInitialized) {
		t.Fatalf("Upsert error = %v, want ErrNotInitialized", err)
	}
	if c.Ready() {
		t.Fatalf("cache must not report ready before Init")
	}
}

func TestCache_SchemaBumpDropsCollections(t *testing.T) {
	mr, client := setupTestRedis(t)
	ctx := context.Background()

	c := New(client, nil)
	if err := c.Init(ctx); err != nil {
		t.Fatalf("Init: %v", err)
	}
	if err := c.Upsert(ctx, MerchantInfo, "1", domain.Merchant{ID: 1, Name: "Warung A"}); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if err := c.SetValue(ctx, "keepme", "yes"); err != nil {
		t.Fatalf("SetValue: %v", err)
	}
	if err := c.SetTimestamp(ctx, "last_fetch:merchants", time.Now()); err != nil {
		t.Fatalf("SetTimestamp: %v", err)
	}

	// Simulate a deploy with an older persisted schema.
	mr.Set("diorder:schema_version", "4")

	fresh := New(client, nil)
	if err := fresh.Init(ctx); err != nil {
		t.Fatalf("re-Init: %v", err)
	}
	all, err := fresh.GetAll(ctx, MerchantInfo)
	if err != nil {
		t.Fatalf("GetAll: %v", err)
	}
	if len(all) != 0 {
		t.Fatalf("expected dropped collection, got %d records", len(all))
	}
	// The staleness clocks go with the collections they described.
	if _, ok, err := fresh.GetTimestamp(ctx, "last_fetch:merchants"); err != nil || ok {
		t.Fatalf("timestamp survived upgrade: ok=%v err=%v", ok, err)
	}
	// Scalars survive the destructive upgrade.
	value, ok, err := fresh.GetValue(ctx, "keepme")
	if err != nil || !ok || value != "yes" {
		t.Fatalf("scalar lost across upgrade: %q %v %v", value, ok, err)
	}
}

func TestCache_StorageFailureIsTyped(t *testing.T) {
	c, mr := initCache(t)
	mr.Close()

	err := c.Upsert(context.Background(), MerchantInfo, "1", domain.Merchant{ID: 1})
	var storageErr *StorageError
	if !errors.As(err, &storageErr) {
		t.Fatalf("error = %v, want *StorageError", err)
	}
}

func TestReconcileMerchants_EvictsOrphans(t *testing.T) {
	c, _ := initCache(t)
	ctx := context.Background()

	seed := []domain.Merchant{{ID: 1, Name: "A"}, {ID: 2, Name: "B"}, {ID: 3, Name: "C"}}
	if err := c.ReconcileMerchants(ctx, seed); err != nil {
		t.Fatalf("seed reconcile: %v", err)
	}
	if err := c.ReconcileMenuItems(ctx, []domain.MenuItem{
		{ID: 10, MerchantID: 2, Name: "Soto"},
		{ID: 11, MerchantID: 3, Name: "Rawon"},
	}, 0); err != nil {
		t.Fatalf("seed menu: %v", err)
	}
	if err := c.ReplaceCart(ctx, []domain.CartLine{
		{ItemID: 10, MerchantID: 2, Name: "Soto", Price: 12000, Quantity: 1},
		{ItemID: 11, MerchantID: 3, Name: "Rawon", Price: 15000, Quantity: 2},
	}); err != nil {
		t.Fatalf("seed cart: %v", err)
	}

	if err := c.ReconcileMerchants(ctx, []domain.Merchant{{ID: 1, Name: "A"}, {ID: 3, Name: "C"}}); err != nil {
		t.Fatalf("reconcile: %v", err)
	}

	merchants, err := c.Merchants(ctx)
	if err != nil {
		t.Fatalf("Merchants: %v", err)
	}
	var ids []int64
	for _, m := range merchants {
		ids = append(ids, m.ID)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	if !reflect.DeepEqual(ids, []int64{1, 3}) {
		t.Fatalf("merchant ids = %v, want [1 3]", ids)
	}

	// Merchant 2's menu and cart rows must be gone with it.
	menu, err := c.MenuItemsFor(ctx, 0)
	if err != nil {
		t.Fatalf("MenuItemsFor: %v", err)
	}
	if len(menu) != 1 || menu[0].ID != 11 {
		t.Fatalf("menu after eviction = %+v", menu)
	}
	cart, err := c.CartSnapshot(ctx)
	if err != nil {
		t.Fatalf("CartSnapshot: %v", err)
	}
	if len(cart) != 1 || cart[0].MerchantID != 3 {
		t.Fatalf("cart after eviction = %+v", cart)
	}
}

func TestReconcileMenuItems_MerchantScope(t *testing.T) {
	c, _ := initCache(t)
	ctx := context.Background()

	if err := c.ReconcileMenuItems(ctx, []domain.MenuItem{
		{ID: 10, MerchantID: 1, Name: "Soto"},
		{ID: 11, MerchantID: 1, Name: "Rawon"},
		{ID: 20, MerchantID: 2, Name: "Bakso"},
	}, 0); err != nil {
		t.Fatalf("seed: %v", err)
	}

	// Merchant 1 dropped one dish; merchant 2's catalog must be untouched.
	if err := c.ReconcileMenuItems(ctx, []domain.MenuItem{
		{ID: 10, MerchantID: 1, Name: "Soto"},
	}, 1); err != nil {
		t.Fatalf("scoped reconcile: %v", err)
	}

	all, err := c.MenuItemsFor(ctx, 0)
	if err != nil {
		t.Fatalf("MenuItemsFor: %v", err)
	}
	ids := make(map[int64]bool)
	for _, item := range all {
		ids[item.ID] = true
	}
	if len(ids) != 2 || !ids[10] || !ids[20] {
		t.Fatalf("menu ids after scoped reconcile = %v", ids)
	}
}

func TestCartRoundTrip_ExactOptions(t *testing.T) {
	c, _ := initCache(t)
	ctx := context.Background()

	line := domain.CartLine{
		ItemID:     7,
		MerchantID: 2,
		Name:       "Nasi Goreng",
		Price:      20000,
		Image:      "nasi.jpg",
		Category:   "Makanan",
		Quantity:   2,
		Notes:      "tanpa bawang",
		Options: domain.ResolvedOptions{
			Variant: &domain.ResolvedOption{Label: "Large", Value: "l", ExtraPrice: 4000},
			Level:   &domain.ResolvedOption{Label: "Pedas", Value: "hot", ExtraPrice: 1000},
			Toppings: []domain.ResolvedOption{
				{Label: "Telur", Value: "egg", ExtraPrice: 2000},
				{Label: "Keju", Value: "cheese", ExtraPrice: 3000},
			},
		},
	}
	if err := c.ReplaceCart(ctx, []domain.CartLine{line}); err != nil {
		t.Fatalf("ReplaceCart: %v", err)
	}

	snapshot, err := c.CartSnapshot(ctx)
	if err != nil {
		t.Fatalf("CartSnapshot: %v", err)
	}
	if len(snapshot) != 1 {
		t.Fatalf("snapshot size = %d", len(snapshot))
	}
	if !reflect.DeepEqual(snapshot[0], line) {
		t.Fatalf("round trip mismatch:\n got %+v\nwant %+v", snapshot[0], line)
	}
}

func TestReplaceCart_FullOverwrite(t *testing.T) {
	c, _ := initCache(t)
	ctx := context.Background()

	first := domain.CartLine{ItemID: 1, MerchantID: 1, Name: "A", Price: 1000, Quantity: 1}
	second := domain.CartLine{ItemID: 2, MerchantID: 1, Name: "B", Price: 2000, Quantity: 1}
	if err := c.ReplaceCart(ctx, []domain.CartLine{first}); err != nil {
		t.Fatalf("ReplaceCart: %v", err)
	}
	if err := c.ReplaceCart(ctx, []domain.CartLine{second}); err != nil {
		t.Fatalf("ReplaceCart: %v", err)
	}

	snapshot, err := c.CartSnapshot(ctx)
	if err != nil {
		t.Fatalf("CartSnapshot: %v", err)
	}
	if len(snapshot) != 1 || snapshot[0].ItemID != 2 {
		t.Fatalf("snapshot = %+v, want only the second line", snapshot)
	}
}

func TestCustomerInfoRoundTrip(t *testing.T) {
	c, _ := initCache(t)
	ctx := context.Background()

	if _, ok, err := c.LoadCustomerInfo(ctx); err != nil || ok {
		t.Fatalf("empty load: ok=%v err=%v", ok, err)
	}

	info := domain.CustomerInfo{
		Name:          "Budi",
		Village:       "Sumengko",
		AddressDetail: "RT 3 RW 1",
		Notes:         "rumah cat hijau",
	}
	if err := c.SaveCustomerInfo(ctx, info); err != nil {
		t.Fatalf("SaveCustomerInfo: %v", err)
	}
	got, ok, err := c.LoadCustomerInfo(ctx)
	if err != nil || !ok {
		t.Fatalf("LoadCustomerInfo: ok=%v err=%v", ok, err)
	}
	if got != info {
		t.Fatalf("customer info = %+v, want %+v", got, info)
	}
}

func TestTimestampRoundTrip(t *testing.T) {
	c, _ := initCache(t)
	ctx := context.Background()

	if _, ok, err := c.GetTimestamp(ctx, "last_fetch:menu"); err != nil || ok {
		t.Fatalf("empty timestamp: ok=%v err=%v", ok, err)
	}

	ts := time.Date(2025, 6, 1, 10, 30, 0, 0, time.UTC)
	if err := c.SetTimestamp(ctx, "last_fetch:menu", ts); err != nil {
		t.Fatalf("SetTimestamp: %v", err)
	}
	got, ok, err := c.GetTimestamp(ctx, "last_fetch:menu")
	if err != nil || !ok {
		t.Fatalf("GetTimestamp: ok=%v err=%v", ok, err)
	}
	if !got.Equal(ts) {
		t.Fatalf("timestamp = %v, want %v", got, ts)
	}
}

func TestSettingsRoundTrip(t *testing.T) {
	c, _ := initCache(t)
	ctx := context.Background()

	s := domain.Settings{
		IsOpen:       true,
		OpeningHours: &domain.OpeningHours{Open: "08:00", Close: "21:00"},
		UpdatedAt:    time.Date(2025, 5, 1, 7, 0, 0, 0, time.UTC),
	}
	if err := c.SaveSettings(ctx, s); err != nil {
		t.Fatalf("SaveSettings: %v", err)
	}
	got, ok, err := c.LoadSettings(ctx)
	if err != nil || !ok {
		t.Fatalf("LoadSettings: ok=%v err=%v", ok, err)
	}
	if !reflect.DeepEqual(got, s) {
		t.Fatalf("settings = %+v, want %+v", got, s)
	}
}
