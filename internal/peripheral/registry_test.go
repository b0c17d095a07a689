package peripheral

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"
)

type capturedEvent struct {
	event string
	id    string
	kind  Kind
}

type captureNotifier struct {
	mu     sync.Mutex
	events []capturedEvent
}

func (c *captureNotifier) PeripheralAdded(id string, kind Kind) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, capturedEvent{event: "added", id: id, kind: kind})
}

func (c *captureNotifier) PeripheralRemoved(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, capturedEvent{event: "removed", id: id})
}

func (c *captureNotifier) all() []capturedEvent {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]capturedEvent(nil), c.events...)
}

func newTestRegistry(t *testing.T) (*Registry, *ConfigStore) {
	t.Helper()
	store := NewConfigStore(filepath.Join(t.TempDir(), "peripherals.json"))
	f := NewFactory(FactoryOptions{CallTimeout: 2 * time.Second})
	reg := NewRegistry(f, store, nil)
	if err := reg.Init(); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	return reg, store
}

func newDeviceServer(t *testing.T, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestRegistryAddRemove(t *testing.T) {
	reg, store := newTestRegistry(t)
	notifier := &captureNotifier{}
	reg.AddNotifier(notifier)

	if err := reg.Add(Config{Kind: "temperaturecontrol", ID: "thermo-1"}); err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	if err := reg.Add(Config{Kind: "led", ID: "led-1", Address: "10.0.0.5"}); err != nil {
		t.Fatalf("Add() error = %v", err)
	}

	list := reg.List()
	if len(list) != 2 {
		t.Fatalf("List() returned %d entries, want 2", len(list))
	}
	if list[0].ID != "thermo-1" || list[1].ID != "led-1" {
		t.Errorf("List() order = %v, want insertion order", list)
	}

	persisted, err := store.Load()
	if err != nil {
		t.Fatalf("store.Load() error = %v", err)
	}
	if len(persisted) != 2 || persisted[1].ID != "led-1" {
		t.Errorf("persisted configs = %v", persisted)
	}

	if err := reg.Remove("thermo-1"); err != nil {
		t.Fatalf("Remove() error = %v", err)
	}
	if _, ok := reg.Get("thermo-1"); ok {
		t.Error("Get() found removed peripheral")
	}
	persisted, err = store.Load()
	if err != nil {
		t.Fatalf("store.Load() error = %v", err)
	}
	if len(persisted) != 1 || persisted[0].ID != "led-1" {
		t.Errorf("persisted configs after remove = %v", persisted)
	}

	events := notifier.all()
	want := []capturedEvent{
		{event: "added", id: "thermo-1", kind: KindTemperatureControl},
		{event: "added", id: "led-1", kind: KindLEDControl},
		{event: "removed", id: "thermo-1"},
	}
	if len(events) != len(want) {
		t.Fatalf("notifier saw %d events, want %d: %v", len(events), len(want), events)
	}
	for i, ev := range events {
		if ev != want[i] {
			t.Errorf("event[%d] = %+v, want %+v", i, ev, want[i])
		}
	}
}

func TestRegistryRemoveUnknown(t *testing.T) {
	reg, _ := newTestRegistry(t)
	if err := reg.Remove("ghost"); err == nil {
		t.Error("Remove(ghost) error = nil, want ErrNotFound")
	}
}

func TestRegistryRemoveAll(t *testing.T) {
	reg, store := newTestRegistry(t)
	notifier := &captureNotifier{}
	reg.AddNotifier(notifier)

	for _, id := range []string{"a", "b", "c"} {
		if err := reg.Add(Config{Kind: "temperaturecontrol", ID: id}); err != nil {
			t.Fatalf("Add(%s) error = %v", id, err)
		}
	}
	if err := reg.RemoveAll(); err != nil {
		t.Fatalf("RemoveAll() error = %v", err)
	}
	if got := reg.Count(); got != 0 {
		t.Errorf("Count() = %d, want 0", got)
	}
	persisted, err := store.Load()
	if err != nil {
		t.Fatalf("store.Load() error = %v", err)
	}
	if len(persisted) != 0 {
		t.Errorf("persisted configs = %v, want empty", persisted)
	}

	removed := 0
	for _, ev := range notifier.all() {
		if ev.event == "removed" {
			removed++
		}
	}
	if removed != 3 {
		t.Errorf("removal events = %d, want 3", removed)
	}
}

func TestRegistryRefresh(t *testing.T) {
	reg, _ := newTestRegistry(t)
	if err := reg.Add(Config{Kind: "temperaturecontrol", ID: "thermo-1"}); err != nil {
		t.Fatalf("Add() error = %v", err)
	}

	added := reg.Refresh([]Config{
		{Kind: "temperaturecontrol", ID: "thermo-1"}, // already present
		{Kind: "relay", ID: "relay-1", Address: "10.0.0.7"},
		{Kind: "mystery", ID: "bad-1"}, // unknown kind, skipped
	})
	if added != 1 {
		t.Errorf("Refresh() added = %d, want 1", added)
	}
	if got := reg.Count(); got != 2 {
		t.Errorf("Count() = %d, want 2", got)
	}
}

func TestRegistryInitFromStore(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "peripherals.json")
	seed := `[
  {"kind": "temperaturecontrol", "id": "thermo-1", "address": ""},
  {"kind": "mystery", "id": "bad-1", "address": ""},
  {"kind": "relay", "id": "relay-1", "address": "10.0.0.7"}
]`
	if err := os.WriteFile(path, []byte(seed), 0600); err != nil {
		t.Fatalf("seed write error = %v", err)
	}

	f := NewFactory(FactoryOptions{})
	reg := NewRegistry(f, NewConfigStore(path), nil)
	if err := reg.Init(); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	if got := reg.Count(); got != 2 {
		t.Errorf("Count() = %d, want 2 (unknown kind skipped)", got)
	}
}

func TestRegistryListEmpty(t *testing.T) {
	reg, _ := newTestRegistry(t)
	list := reg.List()
	if list == nil {
		t.Fatal("List() = nil, want empty slice")
	}
	if len(list) != 0 {
		t.Errorf("List() = %v, want empty", list)
	}
}

func TestRegistryAllDataSkipsFailures(t *testing.T) {
	reg, _ := newTestRegistry(t)

	healthy := newDeviceServer(t, `{"brightness": 10}`)
	slow := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(300 * time.Millisecond)
		io.WriteString(w, `{"brightness": 99}`)
	}))
	t.Cleanup(slow.Close)

	f := NewFactory(FactoryOptions{CallTimeout: 50 * time.Millisecond})
	store := NewConfigStore(filepath.Join(t.TempDir(), "peripherals.json"))
	reg = NewRegistry(f, store, nil)
	if err := reg.Init(); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	if err := reg.Add(Config{Kind: "led", ID: "ok-led", Address: healthy.URL}); err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	if err := reg.Add(Config{Kind: "led", ID: "slow-led", Address: slow.URL}); err != nil {
		t.Fatalf("Add() error = %v", err)
	}

	readings := reg.AllData(context.Background())
	if len(readings) != 1 {
		t.Fatalf("AllData() returned %d readings, want 1: %v", len(readings), readings)
	}
	if readings[0].ID != "ok-led" || !strings.Contains(readings[0].Data, "brightness") {
		t.Errorf("reading = %+v", readings[0])
	}
}

func TestRegistryAllSensorData(t *testing.T) {
	reg, _ := newTestRegistry(t)

	gas := newDeviceServer(t, `{"gasValue": 3.2}`)
	led := newDeviceServer(t, `{"brightness": 40}`)
	if err := reg.Add(Config{Kind: "gassensor", ID: "gas-1", Address: gas.URL}); err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	if err := reg.Add(Config{Kind: "led", ID: "led-1", Address: led.URL}); err != nil {
		t.Fatalf("Add() error = %v", err)
	}

	readings := reg.AllSensorData(context.Background())
	if len(readings) != 1 || readings[0].ID != "gas-1" {
		t.Errorf("AllSensorData() = %v, want only gas-1", readings)
	}
}

func TestRegistryDispatch(t *testing.T) {
	reg, _ := newTestRegistry(t)
	if err := reg.Add(Config{Kind: "temperaturecontrol", ID: "thermo-1"}); err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	ctx := context.Background()

	state := reg.Dispatch(ctx, "thermo-1", `{"type": "SET_TEMPERATURE", "value": "23"}`)
	if !strings.Contains(state, `"temperature":23`) {
		t.Errorf("Dispatch() = %q, want setpoint 23", state)
	}

	if got := reg.Dispatch(ctx, "ghost", `{"type": "SET_TEMPERATURE", "value": "23"}`); got != "" {
		t.Errorf("Dispatch(unknown id) = %q, want empty sentinel", got)
	}
	if got := reg.Dispatch(ctx, "thermo-1", `not json`); got != "" {
		t.Errorf("Dispatch(bad payload) = %q, want empty sentinel", got)
	}

	// An unknown command type is swallowed; the state read still answers.
	state = reg.Dispatch(ctx, "thermo-1", `{"type": "SELF_DESTRUCT"}`)
	if !strings.Contains(state, `"temperature":23`) {
		t.Errorf("Dispatch(unknown type) = %q, want unchanged state", state)
	}
}

func TestRegistryAddGeneratesID(t *testing.T) {
	reg, store := newTestRegistry(t)

	if err := reg.Add(Config{Kind: "temperaturecontrol"}); err != nil {
		t.Fatalf("Add() error = %v", err)
	}

	infos := reg.List()
	if len(infos) != 1 || infos[0].ID == "" {
		t.Fatalf("List() = %+v, want one entry with generated id", infos)
	}

	persisted, err := store.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(persisted) != 1 || persisted[0].ID != infos[0].ID {
		t.Fatalf("persisted = %+v, want id %q", persisted, infos[0].ID)
	}
}

func TestRegistryAddDuplicateID(t *testing.T) {
	reg, store := newTestRegistry(t)
	if err := reg.Add(Config{Kind: "temperaturecontrol", ID: "thermo-1"}); err != nil {
		t.Fatalf("Add() error = %v", err)
	}

	err := reg.Add(Config{Kind: "relay", ID: "thermo-1", Address: "10.0.0.7"})
	if !errors.Is(err, ErrDuplicateID) {
		t.Fatalf("Add() duplicate error = %v, want ErrDuplicateID", err)
	}

	if got := reg.Count(); got != 1 {
		t.Errorf("Count() = %d, want 1", got)
	}
	persisted, loadErr := store.Load()
	if loadErr != nil {
		t.Fatalf("Load() error = %v", loadErr)
	}
	if len(persisted) != 1 {
		t.Errorf("persisted = %+v, want a single entry", persisted)
	}

	if added := reg.Refresh([]Config{{Kind: "temperaturecontrol", ID: "thermo-1"}}); added != 0 {
		t.Errorf("Refresh() added = %d, want 0", added)
	}
}
