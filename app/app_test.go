package app

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"pizza-ordering-api/config"
	"pizza-ordering-api/logger"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const adminPassword = "shredder"

func init() {
	gin.SetMode(gin.TestMode)
}

func testConfig(t *testing.T, dir string) *config.Config {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(adminPassword), bcrypt.MinCost)
	require.NoError(t, err)
	return &config.Config{
		App:     config.AppConfig{Env: config.AppEnvDev, TaxRate: 0.086},
		DB:      config.DBConfig{Driver: config.DriverSQLite, DSN: filepath.Join(dir, "pizza.db")},
		Orders:  config.OrdersConfig{LegacyFile: filepath.Join(dir, "orders.json")},
		Session: config.SessionConfig{Secret: "test-secret", TTL: time.Hour, Store: config.SessionStoreMemory},
		Admin:   config.AdminConfig{Username: "admin", PasswordHash: string(hash)},
	}
}

func startApp(t *testing.T, cfg *config.Config) (*App, *httptest.Server) {
	t.Helper()
	a, err := Build(context.Background(), cfg, logger.Nop(), prometheus.NewRegistry())
	require.NoError(t, err)
	srv := httptest.NewServer(a.Engine)
	t.Cleanup(func() {
		srv.Close()
		_ = a.Close()
	})
	return a, srv
}

type client struct {
	t    *testing.T
	base string
	http *http.Client
}

func newClient(t *testing.T, srv *httptest.Server) *client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &client{t: t, base: srv.URL, http: &http.Client{Jar: jar}}
}

func (c *client) raw(method, path string, body any) *http.Response {
	c.t.Helper()
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(c.t, err)
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequest(method, c.base+path, reader)
	require.NoError(c.t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.http.Do(req)
	require.NoError(c.t, err)
	return resp
}

func (c *client) do(method, path string, body any) (int, map[string]any) {
	c.t.Helper()
	resp := c.raw(method, path, body)
	defer resp.Body.Close()
	var out map[string]any
	require.NoError(c.t, json.NewDecoder(resp.Body).Decode(&out))
	return resp.StatusCode, out
}

func (c *client) login() {
	c.t.Helper()
	status, body := c.do(http.MethodPost, "/api/admin/login", map[string]any{"username": "admin", "password": adminPassword})
	require.Equal(c.t, http.StatusOK, status, body)
}

func items(t *testing.T, body map[string]any, key string) []map[string]any {
	t.Helper()
	raw, ok := body[key].([]any)
	require.True(t, ok, "%s is not a list: %v", key, body[key])
	out := make([]map[string]any, len(raw))
	for i, v := range raw {
		out[i] = v.(map[string]any)
	}
	return out
}

func TestPresetCheckoutPickup(t *testing.T) {
	_, srv := startApp(t, testConfig(t, t.TempDir()))
	c := newClient(t, srv)

	status, body := c.do(http.MethodPost, "/api/cart/items", map[string]any{"name": "Cowabunga Classic", "price": 14.99, "qty": 2})
	require.Equal(t, http.StatusCreated, status, body)

	status, body = c.do(http.MethodGet, "/api/cart", nil)
	require.Equal(t, http.StatusOK, status)
	lines := items(t, body, "items")
	require.Len(t, lines, 1)
	assert.Equal(t, "Cowabunga Classic", lines[0]["name"])
	assert.Equal(t, 14.99, lines[0]["price"])
	assert.Equal(t, 2.0, lines[0]["qty"])
	assert.Equal(t, 29.98, body["subtotal"])
	assert.Equal(t, 32.56, body["total"])

	status, body = c.do(http.MethodPost, "/api/checkout", map[string]any{
		"customer":          map[string]any{"name": "A", "phone": "5551112222"},
		"fulfillmentMethod": "pickup",
	})
	require.Equal(t, http.StatusCreated, status, body)
	assert.Equal(t, 1.0, body["orderId"])

	status, body = c.do(http.MethodGet, "/api/orders/1", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, 1.0, body["orderId"])
	assert.Equal(t, "Pending", body["status"])
	assert.Equal(t, 30.0, body["estimatedMinutes"])
	assert.NotEmpty(t, body["placedAt"])

	_, body = c.do(http.MethodGet, "/api/cart", nil)
	assert.Empty(t, items(t, body, "items"))

	status, body = c.do(http.MethodGet, "/api/orders/1/details", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, 2.0, body["itemCount"])
	totals := body["totals"].(map[string]any)
	assert.Equal(t, 32.56, totals["total"])
	assert.Equal(t, 2.58, totals["tax"])
}

func TestCustomPricing(t *testing.T) {
	_, srv := startApp(t, testConfig(t, t.TempDir()))
	c := newClient(t, srv)

	status, body := c.do(http.MethodPost, "/api/price", map[string]any{
		"sizeId": "medium", "baseId": "classic-dough", "sauceId": "marinara", "cheeseId": "mozzarella",
		"toppings": []string{"pepperoni", "mushrooms"}, "quantity": 1,
	})
	require.Equal(t, http.StatusOK, status, body)
	breakdown := body["breakdown"].(map[string]any)
	assert.Equal(t, 8.0, breakdown["base"])
	assert.Equal(t, 0.0, breakdown["sauce"])
	assert.Equal(t, 0.0, breakdown["cheese"])
	assert.Equal(t, 2.25, breakdown["toppings"])
	assert.Equal(t, 10.25, body["singlePizzaSubtotal"])
	assert.Equal(t, 10.25, body["total"])
	assert.Equal(t, "USD", body["currency"])
}

func TestCustomMerge(t *testing.T) {
	_, srv := startApp(t, testConfig(t, t.TempDir()))
	c := newClient(t, srv)

	custom := map[string]any{
		"type": "custom", "sizeId": "large", "baseId": "classic-dough", "sauceId": "alfredo",
		"cheeseId": "mozzarella", "toppingIds": []string{"bacon"}, "quantity": 1,
	}
	status, first := c.do(http.MethodPost, "/api/cart/items", custom)
	require.Equal(t, http.StatusCreated, status, first)
	status, second := c.do(http.MethodPost, "/api/cart/items", custom)
	require.Equal(t, http.StatusCreated, status, second)

	_, body := c.do(http.MethodGet, "/api/cart", nil)
	lines := items(t, body, "items")
	require.Len(t, lines, 1)
	assert.Equal(t, "Custom Pizza", lines[0]["name"])
	assert.Equal(t, 2.0, lines[0]["qty"])
	assert.Equal(t, 12.65, lines[0]["price"])
	assert.Contains(t, lines[0]["meta"], "Toppings: Bacon")

	status, body = c.do(http.MethodPost, "/api/cart/items", map[string]any{"type": "custom", "quantity": -2})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Invalid quantity value", body["error"])
}

func TestDeliveryValidation(t *testing.T) {
	_, srv := startApp(t, testConfig(t, t.TempDir()))
	c := newClient(t, srv)

	status, body := c.do(http.MethodPost, "/api/checkout", map[string]any{
		"customer":          map[string]any{"name": "A", "phone": "555", "address": ""},
		"fulfillmentMethod": "delivery",
		"cart":              []map[string]any{{"name": "Soda", "price": 2, "qty": 1}},
	})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Address is required for delivery", body["error"])
	assert.Equal(t, "VALIDATION_ERROR", body["code"])

	status, body = c.do(http.MethodPost, "/api/checkout", map[string]any{
		"customer": map[string]any{"name": "A", "phone": "555"},
	})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Cart is empty or invalid", body["error"])
}

func TestAdminGate(t *testing.T) {
	_, srv := startApp(t, testConfig(t, t.TempDir()))
	customer := newClient(t, srv)
	status, _ := customer.do(http.MethodPost, "/api/checkout", map[string]any{
		"customer": map[string]any{"name": "A", "phone": "555"},
		"cart":     []map[string]any{{"name": "Soda", "price": 2, "qty": 1}},
	})
	require.Equal(t, http.StatusCreated, status)

	status, body := customer.do(http.MethodPatch, "/api/orders/1/status", map[string]any{"status": "Preparing"})
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "Unauthorized", body["error"])

	admin := newClient(t, srv)
	admin.login()

	status, body = admin.do(http.MethodPatch, "/api/orders/1/status", map[string]any{"status": "Cancelled"})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Invalid status value", body["error"])
	assert.Len(t, body["allowed"], 4)

	status, body = admin.do(http.MethodPatch, "/api/orders/1/status", map[string]any{"status": "Preparing"})
	require.Equal(t, http.StatusOK, status, body)
	assert.Equal(t, "Preparing", body["status"])

	_, body = customer.do(http.MethodGet, "/api/orders/1", nil)
	assert.Equal(t, "Preparing", body["status"])
	assert.Equal(t, 20.0, body["estimatedMinutes"])

	status, body = admin.do(http.MethodGet, "/api/admin/orders/1/history", nil)
	require.Equal(t, http.StatusOK, status)
	history := items(t, body, "history")
	require.Len(t, history, 1)
	assert.Equal(t, "Pending", history[0]["fromStatus"])
	assert.Equal(t, "admin", history[0]["changedBy"])

	status, _ = admin.do(http.MethodPatch, "/api/orders/99/status", map[string]any{"status": "Ready"})
	assert.Equal(t, http.StatusNotFound, status)
	status, body = admin.do(http.MethodPatch, "/api/orders/1/status", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Missing status in request body", body["error"])

	status, _ = admin.do(http.MethodPost, "/api/admin/logout", nil)
	require.Equal(t, http.StatusOK, status)
	status, _ = admin.do(http.MethodGet, "/api/admin/orders", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestCrashRecovery(t *testing.T) {
	dir := t.TempDir()
	cfg := testConfig(t, dir)

	first, err := Build(context.Background(), cfg, logger.Nop(), nil)
	require.NoError(t, err)
	srv := httptest.NewServer(first.Engine)
	c := newClient(t, srv)
	for _, name := range []string{"Leo", "Raph"} {
		status, body := c.do(http.MethodPost, "/api/checkout", map[string]any{
			"customer": map[string]any{"name": name, "phone": "555"},
			"cart":     []map[string]any{{"name": "Soda", "price": 2, "qty": 1}},
		})
		require.Equal(t, http.StatusCreated, status, body)
	}
	srv.Close()
	require.NoError(t, first.Close())

	_, srv2 := startApp(t, cfg)
	admin := newClient(t, srv2)
	admin.login()

	status, body := admin.do(http.MethodGet, "/api/admin/orders", nil)
	require.Equal(t, http.StatusOK, status)
	orders := items(t, body, "orders")
	require.Len(t, orders, 2)
	ids := []float64{orders[0]["id"].(float64), orders[1]["id"].(float64)}
	assert.ElementsMatch(t, []float64{1, 2}, ids)

	status, body = admin.do(http.MethodPost, "/api/checkout", map[string]any{
		"customer": map[string]any{"name": "Mikey", "phone": "555"},
		"cart":     []map[string]any{{"name": "Soda", "price": 2, "qty": 1}},
	})
	require.Equal(t, http.StatusCreated, status)
	assert.Equal(t, 3.0, body["orderId"])
}

func TestCartAdjustAndRemove(t *testing.T) {
	_, srv := startApp(t, testConfig(t, t.TempDir()))
	c := newClient(t, srv)

	_, body := c.do(http.MethodPost, "/api/cart/items", map[string]any{"name": "Soda", "price": 1.99, "qty": 1})
	id := body["item"].(map[string]any)["id"].(string)

	status, body := c.do(http.MethodPatch, "/api/cart/items/"+id, map[string]any{"delta": 2})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, 3.0, items(t, body, "cart")[0]["qty"])
	assert.Equal(t, 5.97, body["subtotal"])

	status, body = c.do(http.MethodPatch, "/api/cart/items/"+id, map[string]any{})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "No update value provided", body["error"])

	status, _ = c.do(http.MethodPatch, "/api/cart/items/nope", map[string]any{"qty": 1})
	assert.Equal(t, http.StatusNotFound, status)

	status, body = c.do(http.MethodPatch, "/api/cart/items/"+id, map[string]any{"qty": 0})
	require.Equal(t, http.StatusOK, status)
	assert.Empty(t, items(t, body, "cart"))

	_, body = c.do(http.MethodPost, "/api/cart/items", map[string]any{"name": "Soda", "price": 1.99})
	id = body["item"].(map[string]any)["id"].(string)
	status, body = c.do(http.MethodDelete, "/api/cart/items/"+id, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Cart item removed", body["message"])
	status, _ = c.do(http.MethodDelete, "/api/cart/items/"+id, nil)
	assert.Equal(t, http.StatusNotFound, status)

	status, body = c.do(http.MethodPost, "/api/cart/items", map[string]any{"name": "Soda", "price": 0})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Invalid cart item payload", body["error"])
}

func TestCartsAreIsolatedPerSession(t *testing.T) {
	_, srv := startApp(t, testConfig(t, t.TempDir()))
	alice, bob := newClient(t, srv), newClient(t, srv)

	alice.do(http.MethodPost, "/api/cart/items", map[string]any{"name": "Soda", "price": 2})
	_, body := bob.do(http.MethodGet, "/api/cart", nil)
	assert.Empty(t, items(t, body, "items"))
	_, body = alice.do(http.MethodGet, "/api/cart", nil)
	assert.Len(t, items(t, body, "items"), 1)
}

func TestAdminLoginErrors(t *testing.T) {
	cfg := testConfig(t, t.TempDir())
	_, srv := startApp(t, cfg)
	c := newClient(t, srv)

	status, body := c.do(http.MethodPost, "/api/admin/login", map[string]any{"username": "admin", "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "Invalid credentials.", body["error"])

	status, _ = c.do(http.MethodPost, "/api/admin/login", map[string]any{"username": "admin"})
	assert.Equal(t, http.StatusBadRequest, status)

	_, body = c.do(http.MethodGet, "/api/admin/session", nil)
	assert.Equal(t, false, body["isAdmin"])

	unconfigured := testConfig(t, t.TempDir())
	unconfigured.Admin.PasswordHash = ""
	_, srv2 := startApp(t, unconfigured)
	status, body = newClient(t, srv2).do(http.MethodPost, "/api/admin/login", map[string]any{"username": "admin", "password": "x"})
	assert.Equal(t, http.StatusServiceUnavailable, status)
	assert.Equal(t, "CONFIGURATION_ERROR", body["code"])
}

func TestAdminMenuAndCatalog(t *testing.T) {
	_, srv := startApp(t, testConfig(t, t.TempDir()))
	admin := newClient(t, srv)
	admin.login()

	status, body := admin.do(http.MethodPost, "/api/admin/menu", map[string]any{"name": "Garlic Knots", "price": 5.5, "category": "side"})
	require.Equal(t, http.StatusCreated, status, body)
	created := body["item"].(map[string]any)
	assert.Equal(t, 4.0, created["id"])
	assert.Equal(t, "side", created["category"])

	status, body = admin.do(http.MethodPut, "/api/admin/menu/4", map[string]any{"name": "Garlic Knots", "price": 6, "isAvailable": false})
	require.Equal(t, http.StatusOK, status, body)

	_, body = admin.do(http.MethodGet, "/api/menu", nil)
	for _, p := range items(t, body, "presetPizzas") {
		assert.NotEqual(t, "Garlic Knots", p["name"])
	}
	assert.NotNil(t, body["rules"])

	status, body = admin.do(http.MethodPost, "/api/admin/menu", map[string]any{"name": "Free", "price": 0})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Price must be a positive number", body["error"])

	status, _ = admin.do(http.MethodDelete, "/api/admin/menu/4", nil)
	assert.Equal(t, http.StatusOK, status)
	status, _ = admin.do(http.MethodDelete, "/api/admin/menu/4", nil)
	assert.Equal(t, http.StatusNotFound, status)

	status, body = admin.do(http.MethodPost, "/api/admin/catalog/toppings", map[string]any{"name": "Anchovies", "price": 1.25})
	require.Equal(t, http.StatusCreated, status, body)
	assert.Equal(t, "anchovies", body["item"].(map[string]any)["id"])

	status, body = admin.do(http.MethodPost, "/api/admin/catalog/toppings", map[string]any{"id": "anchovies", "name": "Anchovies", "price": 1.5})
	require.Equal(t, http.StatusOK, status, body)
	assert.Equal(t, 1.5, body["item"].(map[string]any)["price"])

	status, body = admin.do(http.MethodGet, "/api/admin/catalog", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, map[string]any{
		"sizes": "priceModifier", "bases": "basePrice", "sauces": "price", "cheeses": "price", "toppings": "price",
	}, body["priceKeys"])
	assert.Len(t, items(t, body, "toppings"), 18)

	status, body = admin.do(http.MethodPost, "/api/admin/catalog/bases", map[string]any{"id": "classic-dough", "name": "Classic", "isAvailable": false})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Each category needs at least one available item", body["error"])
	status, _ = admin.do(http.MethodPost, "/api/price", map[string]any{})
	assert.Equal(t, http.StatusOK, status)

	status, body = admin.do(http.MethodPost, "/api/admin/catalog/crusts", map[string]any{"name": "Stuffed"})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Invalid category", body["error"])

	status, _ = admin.do(http.MethodDelete, "/api/admin/catalog/toppings/anchovies", nil)
	assert.Equal(t, http.StatusOK, status)
	status, _ = admin.do(http.MethodDelete, "/api/admin/catalog/toppings/anchovies", nil)
	assert.Equal(t, http.StatusNotFound, status)

	anon := newClient(t, srv)
	status, _ = anon.do(http.MethodPost, "/api/admin/catalog/toppings", map[string]any{"name": "Anchovy"})
	assert.Equal(t, http.StatusUnauthorized, status)
	status, _ = anon.do(http.MethodPost, "/api/admin/menu", map[string]any{"name": "Sneaky", "price": 1})
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestAdminReports(t *testing.T) {
	_, srv := startApp(t, testConfig(t, t.TempDir()))
	admin := newClient(t, srv)
	admin.login()

	for i := 0; i < 2; i++ {
		status, _ := admin.do(http.MethodPost, "/api/checkout", map[string]any{
			"customer": map[string]any{"name": "Leo", "phone": "555"},
			"cart":     []map[string]any{{"name": "Cowabunga Classic", "price": 14.99, "qty": 2}},
		})
		require.Equal(t, http.StatusCreated, status)
	}

	status, body := admin.do(http.MethodGet, "/api/admin/reports/summary", nil)
	require.Equal(t, http.StatusOK, status)
	summary := body["summary"].(map[string]any)
	assert.Equal(t, 65.12, summary["revenue"])
	assert.Equal(t, 2.0, summary["orders"])
	assert.Equal(t, 4.0, summary["items"])

	resp := admin.raw(http.MethodGet, "/api/admin/report", nil)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, strings.HasPrefix(resp.Header.Get("Content-Type"), "text/csv"))
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "orders-")
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Len(t, strings.Split(strings.TrimSpace(string(raw)), "\n"), 3)
}

func TestOrderLookupErrors(t *testing.T) {
	_, srv := startApp(t, testConfig(t, t.TempDir()))
	c := newClient(t, srv)

	for _, path := range []string{"/api/orders/abc", "/api/orders/0", "/api/orders/42", "/api/orders/abc/details"} {
		status, body := c.do(http.MethodGet, path, nil)
		assert.Equal(t, http.StatusNotFound, status, path)
		assert.Equal(t, "Order not found", body["error"], path)
	}
}

func TestHealthAndMetrics(t *testing.T) {
	_, srv := startApp(t, testConfig(t, t.TempDir()))
	c := newClient(t, srv)

	status, body := c.do(http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "healthy", body["status"])

	resp := c.raw(http.MethodGet, "/metrics", nil)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `http_request_duration_seconds_count{method="GET",route="/health",status="200"}`)
}
