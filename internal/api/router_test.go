package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/dnlabs/credit-gateway/internal/api/handler"
	"github.com/dnlabs/credit-gateway/internal/core/ports"
	"github.com/dnlabs/credit-gateway/internal/core/service"
	"github.com/dnlabs/credit-gateway/internal/infrastructure/db/memory"
)

const adminSecret = "admin-secret"

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	store := memory.New()
	clock := ports.SystemClock{}
	creds, err := service.NewCredentials("test-secret", clock)
	if err != nil {
		t.Fatalf("credentials: %v", err)
	}
	log := zerolog.Nop()

	e := NewRouter(Deps{
		Accounts:    service.NewAccountService(store, store, creds, clock, nil, log),
		Sessions:    creds,
		Metering:    service.NewMeteringService(store, store, clock, log),
		Admin:       service.NewAdminService(store, store, clock, log),
		AdminSecret: adminSecret,
		Health:      map[string]handler.Pinger{"memory": store},
		Registry:    prometheus.NewRegistry(),
		Log:         log,
	})
	srv := httptest.NewServer(e)
	t.Cleanup(srv.Close)
	return srv
}

type call struct {
	method  string
	path    string
	body    string
	headers map[string]string
}

func do(t *testing.T, srv *httptest.Server, c call) (int, map[string]any) {
	t.Helper()
	req, err := http.NewRequest(c.method, srv.URL+c.path, strings.NewReader(c.body))
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if c.body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}

	resp, err := srv.Client().Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", c.method, c.path, err)
	}
	defer resp.Body.Close()

	var body map[string]any
	_ = json.NewDecoder(resp.Body).Decode(&body)
	return resp.StatusCode, body
}

func TestRouter_EndToEndScenario(t *testing.T) {
	srv := newTestServer(t)

	code, body := do(t, srv, call{
		method: http.MethodPost, path: "/api/auth-signup",
		body: `{"email":"a@x.com","password":"pw123","name":"Alice"}`,
	})
	if code != http.StatusCreated {
		t.Fatalf("signup: expected 201, got %d %v", code, body)
	}
	token, _ := body["token"].(string)
	bearer := map[string]string{"Authorization": "Bearer " + token}

	code, body = do(t, srv, call{method: http.MethodPost, path: "/api/generate-api-key", headers: bearer})
	if code != http.StatusOK {
		t.Fatalf("generate key: expected 200, got %d %v", code, body)
	}
	key, _ := body["apiKey"].(string)
	if !strings.HasPrefix(key, "dn_") {
		t.Fatalf("unexpected key %q", key)
	}
	metered := call{method: http.MethodPost, path: "/api/simulate-usage", headers: map[string]string{"x-api-key": key}}

	for i := 1; i <= 50; i++ {
		code, body = do(t, srv, metered)
		if code != http.StatusOK {
			t.Fatalf("call %d: expected 200, got %d %v", i, code, body)
		}
	}
	if body["remaining_credits"] != float64(0) || body["success"] != true {
		t.Fatalf("unexpected last success body: %v", body)
	}

	code, body = do(t, srv, metered)
	if code != http.StatusPaymentRequired || body["error"] != "Insufficient credits. Please recharge." {
		t.Fatalf("call 51: expected 402, got %d %v", code, body)
	}

	code, body = do(t, srv, call{
		method: http.MethodPost, path: "/api/admin-update-credits",
		body:    `{"email":"a@x.com","credits":100}`,
		headers: map[string]string{"x-admin-key": adminSecret},
	})
	if code != http.StatusOK || body["message"] != "Credits updated successfully" {
		t.Fatalf("admin: expected 200, got %d %v", code, body)
	}

	code, body = do(t, srv, metered)
	if code != http.StatusOK || body["remaining_credits"] != float64(99) {
		t.Fatalf("after top up: expected 99, got %d %v", code, body)
	}

	code, body = do(t, srv, call{method: http.MethodGet, path: "/api/get-dashboard-data", headers: bearer})
	if code != http.StatusOK {
		t.Fatalf("dashboard: expected 200, got %d %v", code, body)
	}
	user, _ := body["user"].(map[string]any)
	logs, _ := body["usageLogs"].([]any)
	if user["credits"] != float64(99) || user["apiKey"] != key {
		t.Fatalf("unexpected dashboard user: %v", user)
	}
	if len(logs) != 52 {
		t.Fatalf("expected 52 usage entries, got %d", len(logs))
	}

	code, body = do(t, srv, call{method: http.MethodGet, path: "/api/usage-series?days=7", headers: bearer})
	if code != http.StatusOK || body["days"] != float64(7) {
		t.Fatalf("series: expected 200 with 7 days, got %d %v", code, body)
	}
}

func TestRouter_ErrorMapping(t *testing.T) {
	srv := newTestServer(t)

	code, _ := do(t, srv, call{
		method: http.MethodPost, path: "/api/auth-signup",
		body: `{"email":"a@x.com","password":"pw123","name":"Alice"}`,
	})
	if code != http.StatusCreated {
		t.Fatalf("signup: expected 201, got %d", code)
	}

	tests := []struct {
		name string
		call call
		code int
		msg  string
	}{
		{
			name: "duplicate signup",
			call: call{method: http.MethodPost, path: "/api/auth-signup", body: `{"email":"a@x.com","password":"x","name":"B"}`},
			code: http.StatusBadRequest, msg: "User already exists",
		},
		{
			name: "missing signup fields",
			call: call{method: http.MethodPost, path: "/api/auth-signup", body: `{"email":"b@x.com"}`},
			code: http.StatusBadRequest, msg: "Email, password, and name are required",
		},
		{
			name: "wrong password",
			call: call{method: http.MethodPost, path: "/api/auth-login", body: `{"email":"a@x.com","password":"nope"}`},
			code: http.StatusBadRequest, msg: "Invalid credentials",
		},
		{
			name: "unknown email",
			call: call{method: http.MethodPost, path: "/api/auth-login", body: `{"email":"ghost@x.com","password":"pw123"}`},
			code: http.StatusBadRequest, msg: "Invalid credentials",
		},
		{
			name: "no token",
			call: call{method: http.MethodPost, path: "/api/generate-api-key"},
			code: http.StatusUnauthorized, msg: "No token provided",
		},
		{
			name: "bad token",
			call: call{method: http.MethodGet, path: "/api/get-dashboard-data", headers: map[string]string{"Authorization": "Bearer junk"}},
			code: http.StatusUnauthorized, msg: "Invalid token",
		},
		{
			name: "missing api key",
			call: call{method: http.MethodPost, path: "/api/simulate-usage"},
			code: http.StatusUnauthorized, msg: "Missing x-api-key header",
		},
		{
			name: "unknown api key",
			call: call{method: http.MethodPost, path: "/api/simulate-usage", headers: map[string]string{"x-api-key": "dn_nope"}},
			code: http.StatusUnauthorized, msg: "Invalid API Key",
		},
		{
			name: "bad admin secret",
			call: call{method: http.MethodPost, path: "/api/admin-update-credits", body: `{"email":"a@x.com","credits":1}`, headers: map[string]string{"x-admin-key": "guess"}},
			code: http.StatusForbidden, msg: "Forbidden: Invalid Admin Key",
		},
		{
			name: "admin unknown email",
			call: call{method: http.MethodPost, path: "/api/admin-update-credits", body: `{"email":"ghost@x.com","credits":1}`, headers: map[string]string{"x-admin-key": adminSecret}},
			code: http.StatusNotFound, msg: "User not found",
		},
		{
			name: "admin missing credits",
			call: call{method: http.MethodPost, path: "/api/admin-update-credits", body: `{"email":"a@x.com"}`, headers: map[string]string{"x-admin-key": adminSecret}},
			code: http.StatusBadRequest, msg: "Email and credits (number) required",
		},
		{
			name: "admin credits as string",
			call: call{method: http.MethodPost, path: "/api/admin-update-credits", body: `{"email":"a@x.com","credits":"100"}`, headers: map[string]string{"x-admin-key": adminSecret}},
			code: http.StatusBadRequest, msg: "Email and credits (number) required",
		},
		{
			name: "admin credits overflow",
			call: call{method: http.MethodPost, path: "/api/admin-update-credits", body: `{"email":"a@x.com","credits":9223372036854775807}`, headers: map[string]string{"x-admin-key": adminSecret}},
			code: http.StatusBadRequest, msg: "credits out of range",
		},
		{
			name: "wrong method",
			call: call{method: http.MethodGet, path: "/api/simulate-usage"},
			code: http.StatusMethodNotAllowed, msg: "Method Not Allowed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, body := do(t, srv, tt.call)
			if code != tt.code {
				t.Fatalf("expected %d, got %d %v", tt.code, code, body)
			}
			if body["error"] != tt.msg {
				t.Fatalf("expected error %q, got %v", tt.msg, body["error"])
			}
		})
	}
}

func TestRouter_HealthAndMetrics(t *testing.T) {
	srv := newTestServer(t)

	for _, path := range []string{"/health", "/health/ready"} {
		code, body := do(t, srv, call{method: http.MethodGet, path: path})
		if code != http.StatusOK || body["status"] != "ok" {
			t.Fatalf("%s: expected 200 ok, got %d %v", path, code, body)
		}
	}

	resp, err := srv.Client().Get(srv.URL + "/metrics")
	if err != nil {
		t.Fatalf("metrics: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("metrics: expected 200, got %d", resp.StatusCode)
	}
}
