package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"diorder/internal/cartstore"
	"diorder/internal/checkout"
	"diorder/internal/domain"
)

type stubCatalog struct {
	merchants []domain.Merchant
	menu      []domain.MenuItem
	settings  *domain.Settings
	err       error
}

func (s *stubCatalog) Merchants(_ context.Context) ([]domain.Merchant, error) {
	return s.merchants, s.err
}

func (s *stubCatalog) Menu(_ context.Context, merchantID int64) ([]domain.MenuItem, error) {
	if s.err != nil {
		return nil, s.err
	}
	var out []domain.MenuItem
	for _, item := range s.menu {
		if item.MerchantID == merchantID {
			out = append(out, item)
		}
	}
	return out, nil
}

func (s *stubCatalog) Settings(_ context.Context) (*domain.Settings, error) {
	if s.err != nil {
		return nil, s.err
	}
	if s.settings == nil {
		return nil, domain.ErrNotFound
	}
	return s.settings, nil
}

type stubCheckout struct {
	result *checkout.Result
	err    error
}

func (s *stubCheckout) Submit(_ context.Context) (*checkout.Result, error) {
	return s.result, s.err
}

func testRouter(catalog *stubCatalog, cart *cartstore.Store, co CheckoutService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	logger := log.New(io.Discard, "", 0)
	return buildRouter(logger, Deps{
		Catalog:  catalog,
		Cart:     cart,
		Checkout: co,
	})
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeCart(t *testing.T, rec *httptest.ResponseRecorder) cartResponse {
	t.Helper()
	var out cartResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode cart response: %v", err)
	}
	return out
}

func testMenu() []domain.MenuItem {
	return []domain.MenuItem{
		{ID: 10, MerchantID: 1, Name: "Nasi Goreng", Price: 15000, IsActive: true},
		{ID: 11, MerchantID: 1, Name: "Mie Goreng", Price: 13000, IsActive: true},
		{ID: 20, MerchantID: 2, Name: "Bakso Urat", Price: 12000, IsActive: true},
	}
}

func TestHealthz(t *testing.T) {
	router := testRouter(&stubCatalog{}, cartstore.New(nil, nil), &stubCheckout{})
	rec := doJSON(t, router, http.MethodGet, "/healthz", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
}

func TestListMerchants(t *testing.T) {
	catalog := &stubCatalog{merchants: []domain.Merchant{
		{ID: 1, Name: "Warung Bu Sri", OpeningHours: domain.OpeningHours{Open: "00:00", Close: "23:59"}},
	}}
	router := testRouter(catalog, cartstore.New(nil, nil), &stubCheckout{})

	rec := doJSON(t, router, http.MethodGet, "/api/merchants", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	var out struct {
		Merchants []merchantResponse `json:"merchants"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(out.Merchants) != 1 || out.Merchants[0].Name != "Warung Bu Sri" {
		t.Fatalf("merchants = %+v", out.Merchants)
	}
	if !out.Merchants[0].IsOpen {
		t.Fatalf("expected merchant marked open")
	}
}

func TestMerchantMenu(t *testing.T) {
	router := testRouter(&stubCatalog{menu: testMenu()}, cartstore.New(nil, nil), &stubCheckout{})

	rec := doJSON(t, router, http.MethodGet, "/api/merchants/1/menu", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	var out struct {
		Items []domain.MenuItem `json:"items"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(out.Items) != 2 {
		t.Fatalf("got %d items, want 2", len(out.Items))
	}

	rec = doJSON(t, router, http.MethodGet, "/api/merchants/abc/menu", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rec.Code)
	}
}

func TestSettingsNotLoaded(t *testing.T) {
	router := testRouter(&stubCatalog{}, cartstore.New(nil, nil), &stubCheckout{})
	rec := doJSON(t, router, http.MethodGet, "/api/settings", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", rec.Code)
	}
}

func TestAddItemAndCartView(t *testing.T) {
	cart := cartstore.New(nil, nil)
	router := testRouter(&stubCatalog{menu: testMenu()}, cart, &stubCheckout{})

	rec := doJSON(t, router, http.MethodPost, "/api/cart/items", addItemRequest{
		MerchantID: 1, ItemID: 10, Quantity: 2,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}
	out := decodeCart(t, rec)
	if out.TotalItems != 2 {
		t.Fatalf("total items = %d, want 2", out.TotalItems)
	}
	if out.Subtotal != 30000 {
		t.Fatalf("subtotal = %d, want 30000", out.Subtotal)
	}
	if out.DeliveryFee != 5000 {
		t.Fatalf("delivery fee = %d, want 5000", out.DeliveryFee)
	}
	if out.Total != 35000 {
		t.Fatalf("total = %d, want 35000", out.Total)
	}
	if len(out.Merchants) != 1 || len(out.Merchants[0].Items) != 1 {
		t.Fatalf("merchants = %+v", out.Merchants)
	}
	if out.Merchants[0].Items[0].Fingerprint == "" {
		t.Fatalf("expected fingerprint on cart line")
	}
}

func TestAddUnknownItem(t *testing.T) {
	router := testRouter(&stubCatalog{menu: testMenu()}, cartstore.New(nil, nil), &stubCheckout{})
	rec := doJSON(t, router, http.MethodPost, "/api/cart/items", addItemRequest{
		MerchantID: 1, ItemID: 999, Quantity: 1,
	})
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", rec.Code)
	}
}

func TestDecrementByFingerprint(t *testing.T) {
	cart := cartstore.New(nil, nil)
	router := testRouter(&stubCatalog{menu: testMenu()}, cart, &stubCheckout{})

	rec := doJSON(t, router, http.MethodPost, "/api/cart/items", addItemRequest{
		MerchantID: 1, ItemID: 10, Quantity: 2,
	})
	fp := decodeCart(t, rec).Merchants[0].Items[0].Fingerprint

	rec = doJSON(t, router, http.MethodPost, "/api/cart/items/decrement", lineRef{
		MerchantID: 1, Fingerprint: fp,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	if out := decodeCart(t, rec); out.TotalItems != 1 {
		t.Fatalf("total items = %d, want 1", out.TotalItems)
	}

	rec = doJSON(t, router, http.MethodPost, "/api/cart/items/decrement", lineRef{
		MerchantID: 1, Fingerprint: "bogus",
	})
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", rec.Code)
	}
}

func TestSetQuantityToZeroDeletesLine(t *testing.T) {
	cart := cartstore.New(nil, nil)
	router := testRouter(&stubCatalog{menu: testMenu()}, cart, &stubCheckout{})

	rec := doJSON(t, router, http.MethodPost, "/api/cart/items", addItemRequest{
		MerchantID: 1, ItemID: 10, Quantity: 2,
	})
	fp := decodeCart(t, rec).Merchants[0].Items[0].Fingerprint

	rec = doJSON(t, router, http.MethodPut, "/api/cart/items/quantity", setQuantityRequest{
		lineRef: lineRef{MerchantID: 1, Fingerprint: fp},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	if out := decodeCart(t, rec); len(out.Merchants) != 0 {
		t.Fatalf("merchants = %+v, want empty", out.Merchants)
	}
}

func TestSetNotes(t *testing.T) {
	cart := cartstore.New(nil, nil)
	router := testRouter(&stubCatalog{menu: testMenu()}, cart, &stubCheckout{})

	rec := doJSON(t, router, http.MethodPost, "/api/cart/items", addItemRequest{
		MerchantID: 1, ItemID: 10, Quantity: 1,
	})
	fp := decodeCart(t, rec).Merchants[0].Items[0].Fingerprint

	rec = doJSON(t, router, http.MethodPut, "/api/cart/items/notes", setNotesRequest{
		lineRef: lineRef{MerchantID: 1, Fingerprint: fp},
		Notes:   "tanpa sambal",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	if out := decodeCart(t, rec); out.Merchants[0].Items[0].Notes != "tanpa sambal" {
		t.Fatalf("notes = %q", out.Merchants[0].Items[0].Notes)
	}
}

func TestClearMerchant(t *testing.T) {
	cart := cartstore.New(nil, nil)
	router := testRouter(&stubCatalog{menu: testMenu()}, cart, &stubCheckout{})

	doJSON(t, router, http.MethodPost, "/api/cart/items", addItemRequest{MerchantID: 1, ItemID: 10, Quantity: 1})
	doJSON(t, router, http.MethodPost, "/api/cart/items", addItemRequest{MerchantID: 2, ItemID: 20, Quantity: 1})

	rec := doJSON(t, router, http.MethodDelete, "/api/cart/merchants/1", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	out := decodeCart(t, rec)
	if len(out.Merchants) != 1 || out.Merchants[0].MerchantID != 2 {
		t.Fatalf("merchants = %+v, want only merchant 2", out.Merchants)
	}
}

func TestCustomerRoundTrip(t *testing.T) {
	cart := cartstore.New(nil, nil)
	router := testRouter(&stubCatalog{}, cart, &stubCheckout{})

	info := domain.CustomerInfo{Name: "Budi", Village: "Sumengko", AddressDetail: "depan balai desa"}
	rec := doJSON(t, router, http.MethodPut, "/api/cart/customer", info)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}

	rec = doJSON(t, router, http.MethodGet, "/api/cart/customer", nil)
	var got domain.CustomerInfo
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got != info {
		t.Fatalf("customer = %+v, want %+v", got, info)
	}
}

func TestNotificationsDrainOnce(t *testing.T) {
	cart := cartstore.New(nil, nil)
	router := testRouter(&stubCatalog{menu: testMenu()}, cart, &stubCheckout{})

	// Eight nasi goreng at 15000 pushes the subtotal past the 100k tier.
	doJSON(t, router, http.MethodPost, "/api/cart/items", addItemRequest{MerchantID: 1, ItemID: 10, Quantity: 8})

	rec := doJSON(t, router, http.MethodGet, "/api/cart/notifications", nil)
	var out struct {
		Notifications []cartstore.Notification `json:"notifications"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(out.Notifications) != 1 || out.Notifications[0].Kind != cartstore.ShippingTierCrossed {
		t.Fatalf("notifications = %+v", out.Notifications)
	}

	rec = doJSON(t, router, http.MethodGet, "/api/cart/notifications", nil)
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(out.Notifications) != 0 {
		t.Fatalf("second drain = %+v, want empty", out.Notifications)
	}
}

func TestCheckoutStatusMapping(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"validation", &checkout.ValidationError{Missing: []string{"name"}}, http.StatusUnprocessableEntity},
		{"empty cart", checkout.ErrEmptyCart, http.StatusBadRequest},
		{"closed", domain.ErrServiceClosed, http.StatusConflict},
		{"other", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			router := testRouter(&stubCatalog{}, cartstore.New(nil, nil), &stubCheckout{err: tc.err})
			rec := doJSON(t, router, http.MethodPost, "/api/checkout", nil)
			if rec.Code != tc.want {
				t.Fatalf("expected status %d, got %d", tc.want, rec.Code)
			}
		})
	}
}

func TestCheckoutSuccess(t *testing.T) {
	result := &checkout.Result{
		Order:   domain.Order{ID: "abc", Total: 39000},
		Contact: "628123456789",
	}
	router := testRouter(&stubCatalog{}, cartstore.New(nil, nil), &stubCheckout{result: result})

	rec := doJSON(t, router, http.MethodPost, "/api/checkout", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	var out struct {
		Order   domain.Order `json:"order"`
		Contact string       `json:"contact"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.Order.ID != "abc" || out.Contact != "628123456789" {
		t.Fatalf("got %+v", out)
	}
}
