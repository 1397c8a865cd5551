package handlers_test

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/requestid"

	"partforge/internal/config"
	"partforge/internal/http/handlers"
	"partforge/internal/payment"
	"partforge/internal/repos"
)

const (
	testSID         = "sid-api-test"
	testSecret      = "whsec_api_test"
	testAdminToken  = "tok-fulfillment"
	testRedirectURL = "https://gateway.example/pay/cs_api_1"
)

// newAPIApp wires the full route table against an in-memory database and a
// stubbed gateway backend, the same shape main() builds.
func newAPIApp(t *testing.T) *fiber.App {
	t.Helper()

	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"id":"cs_api_1","url":%q}`, testRedirectURL)
	}))
	t.Cleanup(backend.Close)

	db, err := repos.OpenDB(":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	cfg := config.Config{
		DBDSN:         ":memory:",
		PublicBaseURL: "http://localhost:8080",
		Currency:      "usd",
		AdminToken:    testAdminToken,
	}
	gw := payment.NewHostedAdapter(backend.URL, "sk_test", testSecret, 2*time.Second)

	app := fiber.New()
	app.Server().MaxRequestBodySize = 1 << 20
	app.Use(requestid.New())

	deps := handlers.NewDeps(db, cfg, gw)

	api := app.Group("/api/v1")
	api.Get("/components/:category", deps.CatalogHandler.List)

	app.Get("/builder", deps.BuilderHandler.Current)
	app.Post("/builder/select", deps.BuilderHandler.Select)
	app.Get("/builder/evaluate", deps.BuilderHandler.Evaluate)
	app.Get("/builder/estimate", deps.BuilderHandler.Estimate)
	app.Post("/builder/reset", deps.BuilderHandler.Reset)

	app.Get("/builds", deps.BuildHandler.List)
	app.Post("/builds", deps.BuildHandler.Save)
	app.Get("/builds/:id", deps.BuildHandler.View)
	app.Post("/builds/:id/delete", deps.BuildHandler.Delete)
	app.Post("/builds/:id/load", deps.BuildHandler.Load)

	app.Get("/cart", deps.CartHandler.View)
	app.Post("/cart/add", deps.CartHandler.Add)
	app.Post("/cart/add-build", deps.CartHandler.AddBuild)
	app.Post("/cart/remove", deps.CartHandler.Remove)
	app.Post("/cart/update", deps.CartHandler.Update)

	app.Post("/checkout", deps.OrderHandler.Place)
	app.Post("/orders/:id/payment", deps.OrderHandler.Pay)
	app.Get("/payment/success", deps.OrderHandler.Success)
	app.Post("/webhook", deps.WebhookHandler.Handle)
	app.Get("/order/:id", deps.OrderHandler.View)

	admin := app.Group("/admin", handlers.RequireAdminToken(cfg.AdminToken))
	admin.Get("/orders", deps.FulfillmentHandler.List)
	admin.Post("/orders/:id/status", deps.FulfillmentHandler.UpdateStatus)

	return app
}

func doForm(t *testing.T, app *fiber.App, method, path string, form url.Values) *http.Response {
	t.Helper()
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	req := httptest.NewRequest(method, path, body)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	req.AddCookie(&http.Cookie{Name: "sid", Value: testSID})
	resp, err := app.Test(req, 5000)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, out any) {
	t.Helper()
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}

func selectPart(t *testing.T, app *fiber.App, category, id string) {
	t.Helper()
	resp := doForm(t, app, "POST", "/builder/select", url.Values{
		"category": {category}, "component_id": {id},
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("select %s=%s: got %d", category, id, resp.StatusCode)
	}
	resp.Body.Close()
}

// selectSeededBuild fills the working configuration with a compatible set
// from the demo catalog.
func selectSeededBuild(t *testing.T, app *fiber.App) {
	t.Helper()
	for cat, id := range map[string]string{
		"cpu": "cpu-7600x", "motherboard": "mobo-b650", "ram": "ram-ddr5-32",
		"gpu": "gpu-4070s", "storage": "ssd-sn850x", "power_supply": "psu-750",
		"case": "case-4000d", "cooling": "cool-peerless",
	} {
		selectPart(t, app, cat, id)
	}
}

func checkoutForm() url.Values {
	return url.Values{
		"full_name":     {"Dana Smith"},
		"email":         {"dana@example.com"},
		"address_line1": {"12 Main Street"},
		"city":          {"Baltimore"},
		"state":         {"MD"},
		"postal_code":   {"21201"},
		"country":       {"US"},
	}
}

func TestPurchaseFlowOverHTTP(t *testing.T) {
	app := newAPIApp(t)

	selectSeededBuild(t, app)

	resp := doForm(t, app, "GET", "/builder/evaluate", nil)
	var eval struct {
		Issues     []any  `json:"issues"`
		TotalPrice string `json:"total_price"`
	}
	decodeBody(t, resp, &eval)
	if len(eval.Issues) != 0 {
		t.Fatalf("compatible build reported issues: %v", eval.Issues)
	}
	if eval.TotalPrice != "1554.93" {
		t.Fatalf("total price = %s, want 1554.93", eval.TotalPrice)
	}

	resp = doForm(t, app, "POST", "/cart/add", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("cart add: got %d", resp.StatusCode)
	}
	resp.Body.Close()

	resp = doForm(t, app, "POST", "/checkout", checkoutForm())
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("checkout: got %d", resp.StatusCode)
	}
	var placed struct {
		OrderID     string `json:"order_id"`
		OrderNumber string `json:"order_number"`
		Status      string `json:"status"`
	}
	decodeBody(t, resp, &placed)
	if placed.Status != "PENDING" {
		t.Fatalf("order status = %s, want PENDING", placed.Status)
	}
	if !strings.HasPrefix(placed.OrderNumber, "ORD-") || len(placed.OrderNumber) != 12 {
		t.Fatalf("bad order number %q", placed.OrderNumber)
	}

	resp = doForm(t, app, "POST", "/orders/"+placed.OrderID+"/payment", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("payment intent: got %d", resp.StatusCode)
	}
	var intent payment.Intent
	decodeBody(t, resp, &intent)
	if intent.Reference != "cs_api_1" || intent.RedirectURL != testRedirectURL {
		t.Fatalf("unexpected intent %+v", intent)
	}

	// Gateway settles asynchronously.
	payload := []byte(fmt.Sprintf(
		`{"id":"evt_api_1","type":"checkout.session.completed","data":{"object":{"id":%q,"metadata":{"order_id":%q}}}}`,
		intent.Reference, placed.OrderID))
	req := httptest.NewRequest("POST", "/webhook", strings.NewReader(string(payload)))
	req.Header.Set(handlers.SignatureHeader, payment.Sign(testSecret, time.Now(), payload))
	wresp, err := app.Test(req, 5000)
	if err != nil {
		t.Fatal(err)
	}
	if wresp.StatusCode != http.StatusOK {
		t.Fatalf("webhook: got %d", wresp.StatusCode)
	}
	wresp.Body.Close()

	resp = doForm(t, app, "GET", "/order/"+placed.OrderID, nil)
	var order struct {
		Status string `json:"status"`
	}
	decodeBody(t, resp, &order)
	if order.Status != "PAID" {
		t.Fatalf("order status after webhook = %s, want PAID", order.Status)
	}

	// Settlement empties the cart.
	resp = doForm(t, app, "GET", "/cart", nil)
	var cart struct {
		Empty bool `json:"empty"`
	}
	decodeBody(t, resp, &cart)
	if !cart.Empty {
		t.Fatal("cart not cleared after settlement")
	}
}

func TestWebhookRejectsBadSignature(t *testing.T) {
	app := newAPIApp(t)

	payload := []byte(`{"id":"evt_bad","type":"checkout.session.completed","data":{"object":{"id":"cs_x"}}}`)
	req := httptest.NewRequest("POST", "/webhook", strings.NewReader(string(payload)))
	req.Header.Set(handlers.SignatureHeader, "t=1,v1=deadbeef")
	resp, err := app.Test(req, 5000)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("forged webhook: got %d, want 400", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestWebhookAcksUnknownEvent(t *testing.T) {
	app := newAPIApp(t)

	payload := []byte(`{"id":"evt_unknown","type":"invoice.created","data":{"object":{"id":"in_1"}}}`)
	req := httptest.NewRequest("POST", "/webhook", strings.NewReader(string(payload)))
	req.Header.Set(handlers.SignatureHeader, payment.Sign(testSecret, time.Now(), payload))
	resp, err := app.Test(req, 5000)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unknown event: got %d, want 200 ack", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestCheckoutValidationAndEligibility(t *testing.T) {
	app := newAPIApp(t)

	// Empty cart first.
	resp := doForm(t, app, "POST", "/checkout", checkoutForm())
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("empty cart checkout: got %d, want 400", resp.StatusCode)
	}
	resp.Body.Close()

	// Partial build carts fine but fails the eligibility gate.
	selectPart(t, app, "cpu", "cpu-7600x")
	selectPart(t, app, "motherboard", "mobo-b650")
	resp = doForm(t, app, "POST", "/cart/add", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("cart add partial: got %d", resp.StatusCode)
	}
	resp.Body.Close()

	resp = doForm(t, app, "POST", "/checkout", checkoutForm())
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("incomplete checkout: got %d, want 400", resp.StatusCode)
	}
	resp.Body.Close()

	// Malformed email is rejected before anything else.
	form := checkoutForm()
	form.Set("email", "not-an-email")
	resp = doForm(t, app, "POST", "/checkout", form)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("bad email: got %d, want 400", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestCartAddAcceptsJSONConfig(t *testing.T) {
	app := newAPIApp(t)

	body := `{"config":{"cpu":"cpu-7600x","motherboard":"mobo-b660"}}`
	req := httptest.NewRequest("POST", "/cart/add", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.AddCookie(&http.Cookie{Name: "sid", Value: testSID})
	resp, err := app.Test(req, 5000)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("json cart add: got %d", resp.StatusCode)
	}
	var out struct {
		Issues []struct {
			Message string `json:"message"`
		} `json:"issues"`
	}
	decodeBody(t, resp, &out)
	// AM5 CPU on an LGA1700 board: advisory issue, still carted.
	if len(out.Issues) != 1 || !strings.Contains(out.Issues[0].Message, "CPU socket") {
		t.Fatalf("issues = %+v, want one socket mismatch", out.Issues)
	}
}

func TestFulfillmentRoutesNeedToken(t *testing.T) {
	app := newAPIApp(t)

	req := httptest.NewRequest("GET", "/admin/orders", nil)
	resp, err := app.Test(req, 5000)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("no token: got %d, want 404", resp.StatusCode)
	}
	resp.Body.Close()

	req = httptest.NewRequest("GET", "/admin/orders", nil)
	req.Header.Set("X-Admin-Token", testAdminToken)
	resp, err = app.Test(req, 5000)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("with token: got %d, want 200", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestPrebuiltToCart(t *testing.T) {
	app := newAPIApp(t)

	resp := doForm(t, app, "GET", "/builds", nil)
	var listing struct {
		Prebuilts []struct {
			ID   string `json:"id"`
			Tier string `json:"tier"`
		} `json:"prebuilts"`
	}
	decodeBody(t, resp, &listing)
	if len(listing.Prebuilts) != 3 {
		t.Fatalf("prebuilts = %d, want 3", len(listing.Prebuilts))
	}

	resp = doForm(t, app, "POST", "/cart/add-build", url.Values{"build_id": {"pb-starter"}})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("add prebuilt: got %d", resp.StatusCode)
	}
	resp.Body.Close()

	resp = doForm(t, app, "GET", "/cart", nil)
	var view struct {
		Cart struct {
			BuildID string `json:"build_id"`
		} `json:"cart"`
		Empty bool `json:"empty"`
	}
	decodeBody(t, resp, &view)
	if view.Empty || view.Cart.BuildID != "pb-starter" {
		t.Fatalf("cart after add-build: %+v", view)
	}
}

func TestBuilderEstimateOverHTTP(t *testing.T) {
	app := newAPIApp(t)

	// Nothing selected yet: not scoreable, still a 200.
	resp := doForm(t, app, "GET", "/builder/estimate", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("estimate: got %d", resp.StatusCode)
	}
	var est struct {
		Ready       bool `json:"ready"`
		Performance struct {
			Gaming1080 int    `json:"gaming_1080p"`
			Tier       string `json:"tier"`
		} `json:"performance"`
	}
	decodeBody(t, resp, &est)
	if est.Ready {
		t.Fatal("empty selection must not be ready to score")
	}

	selectSeededBuild(t, app)

	resp = doForm(t, app, "GET", "/builder/estimate", nil)
	decodeBody(t, resp, &est)
	if !est.Ready {
		t.Fatal("full selection must be scoreable")
	}
	if est.Performance.Gaming1080 != 246 || est.Performance.Tier != "Ultimate" {
		t.Fatalf("estimate = %+v", est.Performance)
	}
}
