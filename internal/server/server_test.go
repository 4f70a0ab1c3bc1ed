package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/congo-pay/walletops/internal/config"
	"github.com/congo-pay/walletops/internal/infra"
	"github.com/congo-pay/walletops/internal/logging"
)

func testConfig() config.Config {
	return config.Config{
		AppName:        "WalletOps",
		AppEnv:         "test",
		Port:           "0",
		WalletCacheTTL: time.Minute,
		Pool: config.PoolConfig{
			MinWorkers:  2,
			MaxWorkers:  4,
			IdleTimeout: time.Minute,
			QueueSize:   16,
			Overload:    config.OverloadCallerRuns,
		},
	}
}

func newTestServer(t *testing.T, backends *infra.Backends) *Server {
	t.Helper()
	srv, err := New(testConfig(), backends, logging.Discard())
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	})
	return srv
}

func do(t *testing.T, srv *Server, method, path, body string) (int, map[string]any) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := srv.App().Test(req, -1)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()

	out := map[string]any{}
	dec := json.NewDecoder(resp.Body)
	dec.UseNumber()
	_ = dec.Decode(&out)
	return resp.StatusCode, out
}

func TestWalletLifecycle(t *testing.T) {
	srv := newTestServer(t, nil)

	status, created := do(t, srv, http.MethodPost, "/api/v1/wallets", `{"ownerFirstName":"Ada","ownerLastName":"Lovelace","balance":"100.00"}`)
	if status != http.StatusCreated {
		t.Fatalf("create: expected 201, got %d %v", status, created)
	}
	id := created["id"].(string)

	status, op := do(t, srv, http.MethodPost, "/api/v1/wallet", `{"userId":"`+id+`","operationType":"WITHDRAW","amount":"40.55"}`)
	if status != http.StatusOK || op["result"] != true || op["success"] != "Successful" {
		t.Fatalf("operate: unexpected %d %v", status, op)
	}

	status, got := do(t, srv, http.MethodGet, "/api/v1/wallet/"+id, "")
	if status != http.StatusOK {
		t.Fatalf("get: expected 200, got %d", status)
	}
	if got["balance"].(json.Number).String() != "59.45" {
		t.Fatalf("expected 59.45, got %v", got["balance"])
	}
}

func TestErrorEnvelope(t *testing.T) {
	srv := newTestServer(t, nil)

	status, body := do(t, srv, http.MethodGet, "/api/v1/wallet/7f1d2c1e-0000-4000-8000-000000000000", "")
	if status != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", status)
	}
	if body["statusCode"].(json.Number).String() != "404" || !strings.Contains(body["message"].(string), "is not found") {
		t.Fatalf("unexpected envelope %v", body)
	}

	status, body = do(t, srv, http.MethodPost, "/api/v1/wallet", `{"userId":`)
	if status != http.StatusBadRequest || body["message"] != "Malformed JSON request" {
		t.Fatalf("unexpected malformed response %d %v", status, body)
	}
}

func TestHealthAndMetrics(t *testing.T) {
	mr := miniredis.RunT(t)
	cache := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = cache.Close() })
	srv := newTestServer(t, &infra.Backends{Cache: cache})

	status, body := do(t, srv, http.MethodGet, "/healthz", "")
	if status != http.StatusOK {
		t.Fatalf("healthz: expected 200, got %d %v", status, body)
	}
	deps := body["status"].(map[string]any)
	if deps["redis"] != "ok" || deps["postgres"] != "disabled" {
		t.Fatalf("unexpected health %v", deps)
	}

	// one operation so the operation counters have a sample
	do(t, srv, http.MethodPost, "/api/v1/wallet", `{"userId":"7f1d2c1e-0000-4000-8000-000000000000","operationType":"DEPOSIT","amount":"1"}`)

	resp, err := srv.App().Test(httptest.NewRequest(http.MethodGet, "/metrics", nil), -1)
	if err != nil {
		t.Fatalf("metrics: %v", err)
	}
	defer resp.Body.Close()
	raw, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK || !strings.Contains(string(raw), "walletops_operations_total") {
		t.Fatalf("metrics: unexpected %d %s", resp.StatusCode, raw)
	}
}

func TestNewRequiresBackendsOutsideDev(t *testing.T) {
	cfg := testConfig()
	cfg.AppEnv = "production"
	if _, err := New(cfg, nil, logging.Discard()); err == nil {
		t.Fatalf("expected error without backends in production")
	}
}
