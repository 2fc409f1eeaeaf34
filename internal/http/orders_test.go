package handlers_test

import (
	"net/http"
	"testing"
)

type orderView struct {
	ID             string  `json:"id"`
	Status         string  `json:"status"`
	Quantity       int     `json:"quantity"`
	TotalPrice     float64 `json:"totalPrice"`
	PickupLocation string  `json:"pickupLocation"`
	Notes          string  `json:"notes"`
	Payment        bool    `json:"payment"`
	PaymentMethod  string  `json:"paymentMethod"`
}

func availableQty(t *testing.T, ta *testApp, id string) int {
	t.Helper()
	status, env := ta.call(t, "GET", "/api/product/"+id+"/availability", "", nil)
	if status != http.StatusOK {
		t.Fatalf("availability %s: %d", id, status)
	}
	var a struct {
		Qty int `json:"qty"`
	}
	decode(t, env.Data, &a)
	return a.Qty
}

// Totals are computed server side; a client-sent price is ignored.
func TestOrderTotalsComputedServerSide(t *testing.T) {
	ta := newTestApp(t, appOpts{})
	carla := ta.login(t, "carla@farmfresh.test")

	status, env := ta.call(t, "POST", "/api/order/create", carla, map[string]any{
		"productId": "p-tomato", "quantity": 3, "pickupDate": tomorrow, "totalPrice": 1,
	})
	if status != http.StatusCreated {
		t.Fatalf("create: %d %s", status, env.Message)
	}
	var o orderView
	decode(t, env.Data, &o)
	if o.TotalPrice != 120 {
		t.Fatalf("expected total 120, got %v", o.TotalPrice)
	}
	if o.PickupLocation != "Green Valley, Pune" || o.PaymentMethod != "cash" || o.Status != "pending" {
		t.Fatalf("unexpected order: %+v", o)
	}
	if got := availableQty(t, ta, "p-tomato"); got != 22 {
		t.Fatalf("expected stock 22, got %d", got)
	}
}

func TestOrderLifecycleOverHTTP(t *testing.T) {
	ta := newTestApp(t, appOpts{})
	carla := ta.login(t, "carla@farmfresh.test")
	asha := ta.login(t, "asha@farmfresh.test")
	dev := ta.login(t, "dev@farmfresh.test")

	_, env := ta.call(t, "POST", "/api/order/create", carla, map[string]any{
		"productId": "p-tomato", "quantity": 5, "pickupDate": tomorrow, "notes": "ring twice",
	})
	var o orderView
	decode(t, env.Data, &o)

	status, env := ta.call(t, "GET", "/api/order/details/"+o.ID, dev, nil)
	if status != http.StatusForbidden {
		t.Fatalf("stranger read order: %d", status)
	}

	status, env = ta.call(t, "POST", "/api/order/update-status", asha, map[string]string{"orderId": o.ID, "status": "confirmed"})
	if status != http.StatusOK || env.Message != "Order status updated to confirmed" {
		t.Fatalf("confirm: %d %s", status, env.Message)
	}

	status, env = ta.call(t, "POST", "/api/order/payment", carla, map[string]string{"orderId": o.ID, "paymentMethod": "upi"})
	if status != http.StatusOK {
		t.Fatalf("payment: %d %s", status, env.Message)
	}
	decode(t, env.Data, &o)
	if !o.Payment || o.PaymentMethod != "upi" {
		t.Fatalf("payment not recorded: %+v", o)
	}

	status, env = ta.call(t, "POST", "/api/order/cancel", carla, map[string]string{"orderId": o.ID, "reason": "travelling"})
	if status != http.StatusOK {
		t.Fatalf("cancel: %d %s", status, env.Message)
	}
	if got := availableQty(t, ta, "p-tomato"); got != 25 {
		t.Fatalf("stock not restored: %d", got)
	}

	_, env = ta.call(t, "GET", "/api/order/details/"+o.ID, asha, nil)
	decode(t, env.Data, &o)
	if o.Status != "cancelled" || o.Notes != "ring twice\nCancellation reason: travelling" {
		t.Fatalf("unexpected cancelled order: %+v", o)
	}

	status, env = ta.call(t, "POST", "/api/order/cancel", carla, map[string]string{"orderId": o.ID})
	if status != http.StatusConflict || env.Message != "Cannot cancel order with status: cancelled" {
		t.Fatalf("second cancel: %d %s", status, env.Message)
	}
	status, _ = ta.call(t, "POST", "/api/order/payment", carla, map[string]string{"orderId": o.ID})
	if status != http.StatusConflict {
		t.Fatalf("payment on cancelled: %d", status)
	}

	status, env = ta.call(t, "GET", "/api/order/farmer", asha, nil)
	if status != http.StatusOK || env.Count != 1 {
		t.Fatalf("farmer list: %d count=%d", status, env.Count)
	}
	var stats struct {
		Cancelled    int      `json:"cancelled"`
		TotalRevenue *float64 `json:"totalRevenue"`
	}
	decode(t, env.Stats, &stats)
	if stats.Cancelled != 1 || stats.TotalRevenue == nil || *stats.TotalRevenue != 0 {
		t.Fatalf("unexpected stats: %s", env.Stats)
	}

	status, _ = ta.call(t, "POST", "/api/order/delete", dev, map[string]string{"orderId": o.ID})
	if status != http.StatusOK {
		t.Fatalf("delete: %d", status)
	}
	status, _ = ta.call(t, "GET", "/api/order/details/"+o.ID, carla, nil)
	if status != http.StatusNotFound {
		t.Fatalf("expected 404 after delete, got %d", status)
	}
}

func TestCartCheckoutOverHTTP(t *testing.T) {
	ta := newTestApp(t, appOpts{})
	carla := ta.login(t, "carla@farmfresh.test")

	for _, item := range []map[string]any{
		{"itemId": "p-tomato", "quantity": 2},
		{"itemId": "p-milk", "quantity": 2},
	} {
		if status, env := ta.call(t, "POST", "/api/cart/update-item", carla, item); status != http.StatusOK {
			t.Fatalf("update-item: %d %s", status, env.Message)
		}
	}

	status, env := ta.call(t, "POST", "/api/order/checkout", carla, map[string]string{"pickupDate": tomorrow})
	if status != http.StatusCreated {
		t.Fatalf("checkout: %d %s", status, env.Message)
	}
	if env.Count != 1 || env.Message != "Some orders could not be placed" {
		t.Fatalf("unexpected checkout result: count=%d %s", env.Count, env.Message)
	}

	_, env = ta.call(t, "GET", "/api/cart/get", carla, nil)
	var cart map[string]int
	decode(t, env.Data, &cart)
	if len(cart) != 1 || cart["p-milk"] != 2 {
		t.Fatalf("unexpected cart after checkout: %v", cart)
	}

	// only the failed line is left, so a second checkout places nothing
	status, env = ta.call(t, "POST", "/api/order/checkout", carla, map[string]string{"pickupDate": tomorrow})
	if status != http.StatusConflict || env.Success {
		t.Fatalf("expected 409 when nothing is placed, got %d", status)
	}
}

func TestRoleGating(t *testing.T) {
	ta := newTestApp(t, appOpts{})
	carla := ta.login(t, "carla@farmfresh.test")
	asha := ta.login(t, "asha@farmfresh.test")

	cases := []struct {
		name, method, path, token string
		body                      any
	}{
		{"farmer cart", "GET", "/api/cart/get", asha, nil},
		{"farmer order", "POST", "/api/order/create", asha, map[string]any{"productId": "p-mango", "quantity": 1, "pickupDate": tomorrow}},
		{"customer farmer orders", "GET", "/api/order/farmer", carla, nil},
		{"customer farmer products", "GET", "/api/product/farmer-products", carla, nil},
		{"customer deletes product", "DELETE", "/api/product/p-tomato", carla, nil},
		{"farmer deletes other's product", "DELETE", "/api/product/p-mango", asha, nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			status, env := ta.call(t, tc.method, tc.path, tc.token, tc.body)
			if status != http.StatusForbidden {
				t.Fatalf("expected 403, got %d %s", status, env.Message)
			}
			if env.Success {
				t.Fatal("success flag set on 403")
			}
		})
	}
}
