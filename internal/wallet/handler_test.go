package wallet

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/congo-pay/walletops/internal/logging"
)

func newTestApp(t *testing.T) (*fiber.App, Store) {
	t.Helper()
	store := NewMemoryRepository()
	h := NewHandler(NewService(store, nil, logging.Discard()))
	app := fiber.New()
	app.Post("/api/v1/wallets", h.Create)
	app.Get("/api/v1/wallet/:walletUuid", h.Get)
	return app, store
}

func decodeBody(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	var body map[string]any
	dec := json.NewDecoder(strings.NewReader(string(raw)))
	dec.UseNumber()
	if err := dec.Decode(&body); err != nil {
		t.Fatalf("decode %q: %v", raw, err)
	}
	return body
}

func TestHandlerGetWallet(t *testing.T) {
	app, store := newTestApp(t)
	w := Wallet{ID: uuid.New(), Balance: decimal.RequireFromString("1000.005"), OwnerFirstName: "Ada", OwnerLastName: "Lovelace"}
	if err := store.Create(context.Background(), w); err != nil {
		t.Fatalf("seed: %v", err)
	}

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/wallet/"+w.ID.String(), nil))
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	body := decodeBody(t, resp)
	if body["id"] != w.ID.String() || body["ownerFirstName"] != "Ada" || body["ownerLastName"] != "Lovelace" {
		t.Fatalf("unexpected body %v", body)
	}
	if body["balance"].(json.Number).String() != "1000.01" {
		t.Fatalf("expected balance 1000.01, got %v", body["balance"])
	}
}

func TestHandlerGetWalletErrors(t *testing.T) {
	app, _ := newTestApp(t)

	cases := []struct {
		path string
		want int
	}{
		{path: "/api/v1/wallet/not-a-uuid", want: http.StatusBadRequest},
		{path: "/api/v1/wallet/" + uuid.NewString(), want: http.StatusNotFound},
	}
	for _, tc := range cases {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, tc.path, nil))
		if err != nil {
			t.Fatalf("request %s: %v", tc.path, err)
		}
		if resp.StatusCode != tc.want {
			t.Fatalf("%s: expected %d, got %d", tc.path, tc.want, resp.StatusCode)
		}
	}
}

func TestHandlerCreateWallet(t *testing.T) {
	app, _ := newTestApp(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/wallets",
		strings.NewReader(`{"ownerFirstName":"Ada","ownerLastName":"Lovelace","balance":99.9}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	body := decodeBody(t, resp)
	if body["balance"].(json.Number).String() != "99.90" {
		t.Fatalf("expected balance 99.90, got %v", body["balance"])
	}
	if _, err := uuid.Parse(body["id"].(string)); err != nil {
		t.Fatalf("expected uuid id, got %v", body["id"])
	}
}

func TestHandlerCreateWalletRejectsBadInput(t *testing.T) {
	app, _ := newTestApp(t)

	for _, payload := range []string{`{"ownerFirstName":"Ada"}`, `{"ownerFirstName":`} {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/wallets", strings.NewReader(payload))
		req.Header.Set("Content-Type", "application/json")
		resp, err := app.Test(req)
		if err != nil {
			t.Fatalf("request: %v", err)
		}
		if resp.StatusCode != http.StatusBadRequest {
			t.Fatalf("payload %s: expected 400, got %d", payload, resp.StatusCode)
		}
	}
}
