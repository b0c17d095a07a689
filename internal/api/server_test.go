package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/hearthlabs/hearth-core/internal/command"
	"github.com/hearthlabs/hearth-core/internal/history"
	"github.com/hearthlabs/hearth-core/internal/infrastructure/config"
	"github.com/hearthlabs/hearth-core/internal/infrastructure/database"
	"github.com/hearthlabs/hearth-core/internal/infrastructure/logging"
	"github.com/hearthlabs/hearth-core/internal/peripheral"
	_ "github.com/hearthlabs/hearth-core/migrations"
)

type testEnv struct {
	server   *Server
	registry *peripheral.Registry
	history  *history.Store
	http     *httptest.Server
}

func newTestEnv(t *testing.T, security config.SecurityConfig) *testEnv {
	t.Helper()

	dir := t.TempDir()
	db, err := database.Open(database.Config{Path: filepath.Join(dir, "hearth.db")})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := db.Migrate(context.Background()); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}

	factory := peripheral.NewFactory(peripheral.FactoryOptions{CallTimeout: 2 * time.Second})
	registry := peripheral.NewRegistry(factory, peripheral.NewConfigStore(filepath.Join(dir, "peripherals.json")), nil)
	if err := registry.Init(); err != nil {
		t.Fatalf("Init() error = %v", err)
	}

	hist := history.NewStore(db.DB, nil)

	srv, err := New(Deps{
		Config:   config.APIConfig{Host: "127.0.0.1", Port: 0},
		WS:       config.WebSocketConfig{Path: "/ws", MaxMessageSize: 65536, PingInterval: 30, PongTimeout: 10},
		Security: security,
		Logger:   logging.Default(),
		Registry: registry,
		Router:   command.NewRouter(registry, nil),
		History:  hist,
		Version:  "test",
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	registry.AddNotifier(srv.Channel())

	ts := httptest.NewServer(srv.buildRouter())
	t.Cleanup(ts.Close)

	return &testEnv{server: srv, registry: registry, history: hist, http: ts}
}

func (e *testEnv) addThermostat(t *testing.T, id string) {
	t.Helper()
	if err := e.registry.Add(peripheral.Config{Kind: "temperaturecontrol", ID: id}); err != nil {
		t.Fatalf("Add(%s) error = %v", id, err)
	}
}

func TestHandleHealth(t *testing.T) {
	env := newTestEnv(t, config.SecurityConfig{})

	resp, err := http.Get(env.http.URL + "/api/v1/health")
	if err != nil {
		t.Fatalf("GET /health error = %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	var doc struct {
		Status      string `json:"status"`
		Version     string `json:"version"`
		Peripherals int    `json:"peripherals"`
		Channel     bool   `json:"channel"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		t.Fatalf("decode error = %v", err)
	}
	if doc.Status != "ok" || doc.Version != "test" || doc.Channel {
		t.Errorf("health doc = %+v", doc)
	}
}

func TestListPeripherals(t *testing.T) {
	env := newTestEnv(t, config.SecurityConfig{})

	resp, err := http.Get(env.http.URL + "/api/v1/peripherals")
	if err != nil {
		t.Fatalf("GET /peripherals error = %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if strings.TrimSpace(string(body)) != "[]" {
		t.Errorf("empty listing = %q, want []", body)
	}

	env.addThermostat(t, "thermo-1")

	resp, err = http.Get(env.http.URL + "/api/v1/peripherals")
	if err != nil {
		t.Fatalf("GET /peripherals error = %v", err)
	}
	defer resp.Body.Close()
	var list []peripheral.Info
	if err := json.NewDecoder(resp.Body).Decode(&list); err != nil {
		t.Fatalf("decode error = %v", err)
	}
	if len(list) != 1 || list[0].ID != "thermo-1" || list[0].Kind != peripheral.KindTemperatureControl {
		t.Errorf("listing = %v", list)
	}
}

func TestRefreshPeripherals(t *testing.T) {
	env := newTestEnv(t, config.SecurityConfig{})
	env.addThermostat(t, "thermo-1")

	payload := `[
		{"kind": "temperaturecontrol", "id": "thermo-1", "address": ""},
		{"kind": "temperaturecontrol", "id": "thermo-2", "address": ""}
	]`
	resp, err := http.Post(env.http.URL+"/api/v1/peripherals/refresh", "application/json", strings.NewReader(payload))
	if err != nil {
		t.Fatalf("POST /refresh error = %v", err)
	}
	defer resp.Body.Close()

	var doc map[string]int
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		t.Fatalf("decode error = %v", err)
	}
	if doc["added"] != 1 || doc["total"] != 2 {
		t.Errorf("refresh result = %v, want added 1 total 2", doc)
	}
}

func TestRefreshPeripheralsBadBody(t *testing.T) {
	env := newTestEnv(t, config.SecurityConfig{})
	resp, err := http.Post(env.http.URL+"/api/v1/peripherals/refresh", "application/json", strings.NewReader(`{"not": "an array"}`))
	if err != nil {
		t.Fatalf("POST /refresh error = %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}

func TestRemovePeripheral(t *testing.T) {
	env := newTestEnv(t, config.SecurityConfig{})
	env.addThermostat(t, "thermo-1")

	req, _ := http.NewRequest(http.MethodDelete, env.http.URL+"/api/v1/peripherals/thermo-1", nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("DELETE error = %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Errorf("status = %d, want 204", resp.StatusCode)
	}

	req, _ = http.NewRequest(http.MethodDelete, env.http.URL+"/api/v1/peripherals/thermo-1", nil)
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("DELETE error = %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("repeat delete status = %d, want 404", resp.StatusCode)
	}
}

func TestRemoveAllPeripherals(t *testing.T) {
	env := newTestEnv(t, config.SecurityConfig{})
	env.addThermostat(t, "thermo-1")
	env.addThermostat(t, "thermo-2")

	req, _ := http.NewRequest(http.MethodDelete, env.http.URL+"/api/v1/peripherals", nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("DELETE error = %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Errorf("status = %d, want 204", resp.StatusCode)
	}
	if env.registry.Count() != 0 {
		t.Errorf("Count() = %d, want 0", env.registry.Count())
	}
}

func TestGetPeripheralState(t *testing.T) {
	env := newTestEnv(t, config.SecurityConfig{})
	env.addThermostat(t, "thermo-1")

	resp, err := http.Get(env.http.URL + "/api/v1/peripherals/thermo-1/state")
	if err != nil {
		t.Fatalf("GET /state error = %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	var doc map[string]int
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		t.Fatalf("decode error = %v", err)
	}
	if _, ok := doc["temperature"]; !ok {
		t.Errorf("state doc = %v", doc)
	}

	resp, err = http.Get(env.http.URL + "/api/v1/peripherals/ghost/state")
	if err != nil {
		t.Fatalf("GET /state error = %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("unknown id status = %d, want 404", resp.StatusCode)
	}
}

func TestHandleCommand(t *testing.T) {
	env := newTestEnv(t, config.SecurityConfig{})
	env.addThermostat(t, "thermo-1")

	resp, err := http.Post(env.http.URL+"/api/v1/commands", "application/json",
		strings.NewReader(`{"commandType": "LIST_DEVICES"}`))
	if err != nil {
		t.Fatalf("POST /commands error = %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	var list []peripheral.Info
	if err := json.NewDecoder(resp.Body).Decode(&list); err != nil {
		t.Fatalf("decode error = %v", err)
	}
	if len(list) != 1 || list[0].ID != "thermo-1" {
		t.Errorf("command result = %v", list)
	}

	resp, err = http.Post(env.http.URL+"/api/v1/commands", "application/json",
		strings.NewReader(`{"commandType": "MAKE_COFFEE"}`))
	if err != nil {
		t.Fatalf("POST /commands error = %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("bad command status = %d, want 400", resp.StatusCode)
	}
}

func TestHandleAggregate(t *testing.T) {
	env := newTestEnv(t, config.SecurityConfig{})
	env.addThermostat(t, "thermo-1")

	now := time.Now().UTC()
	query := func(body string) (*http.Response, string) {
		resp, err := http.Post(env.http.URL+"/api/v1/peripherals/thermo-1/aggregate", "application/json", strings.NewReader(body))
		if err != nil {
			t.Fatalf("POST /aggregate error = %v", err)
		}
		defer resp.Body.Close()
		raw, _ := io.ReadAll(resp.Body)
		return resp, string(raw)
	}

	req, _ := json.Marshal(history.AggregateRequest{
		DateStart: now.Add(-time.Hour).Format("2006-01-02 15:04:05"),
		DateEnd:   now.Format("2006-01-02 15:04:05"),
		Type:      "LedControl",
	})
	resp, body := query(string(req))
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200 (no data): %s", resp.StatusCode, body)
	}
	if !strings.Contains(body, "message") {
		t.Errorf("no-data body = %s", body)
	}

	resp, body = query(`{"dateStart": "2026-08-02", "dateEnd": "2026-08-01", "type": "LedControl"}`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("inverted range status = %d, want 400: %s", resp.StatusCode, body)
	}

	resp, _ = func() (*http.Response, string) {
		r, err := http.Post(env.http.URL+"/api/v1/peripherals/ghost/aggregate", "application/json", strings.NewReader(string(req)))
		if err != nil {
			t.Fatalf("POST /aggregate error = %v", err)
		}
		r.Body.Close()
		return r, ""
	}()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("unknown id status = %d, want 404", resp.StatusCode)
	}
}

func TestRequestIDHeader(t *testing.T) {
	env := newTestEnv(t, config.SecurityConfig{})

	resp, err := http.Get(env.http.URL + "/api/v1/health")
	if err != nil {
		t.Fatalf("GET /health error = %v", err)
	}
	resp.Body.Close()
	if resp.Header.Get("X-Request-ID") == "" {
		t.Error("X-Request-ID header missing")
	}

	req, _ := http.NewRequest(http.MethodGet, env.http.URL+"/api/v1/health", nil)
	req.Header.Set("X-Request-ID", "fixed-id")
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("GET /health error = %v", err)
	}
	resp.Body.Close()
	if got := resp.Header.Get("X-Request-ID"); got != "fixed-id" {
		t.Errorf("X-Request-ID = %q, want fixed-id", got)
	}
}

func TestStatusWriterSupportsHijack(t *testing.T) {
	var w http.ResponseWriter = &statusWriter{ResponseWriter: httptest.NewRecorder(), status: http.StatusOK}

	hijacker, ok := w.(http.Hijacker)
	if !ok {
		t.Fatal("statusWriter does not expose http.Hijacker")
	}
	// The recorder cannot hijack, but the call must reach it rather
	// than fail at the wrapper.
	if _, _, err := hijacker.Hijack(); err == nil {
		t.Error("Hijack() over a recorder error = nil, want failure")
	}
}
