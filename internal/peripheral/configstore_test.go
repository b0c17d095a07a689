package peripheral

import (
	"os"
	"path/filepath"
	"testing"
)

func TestConfigStoreMissingFile(t *testing.T) {
	store := NewConfigStore(filepath.Join(t.TempDir(), "peripherals.json"))
	configs, err := store.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if configs == nil || len(configs) != 0 {
		t.Errorf("Load() = %v, want empty slice", configs)
	}
}

func TestConfigStoreRoundTrip(t *testing.T) {
	store := NewConfigStore(filepath.Join(t.TempDir(), "nested", "peripherals.json"))
	in := []Config{
		{Kind: "led", ID: "led-1", Address: "10.0.0.5"},
		{Kind: "relay", ID: "relay-1", Address: "10.0.0.7"},
	}
	if err := store.Save(in); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	out, err := store.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(out) != len(in) {
		t.Fatalf("Load() returned %d entries, want %d", len(out), len(in))
	}
	for i := range in {
		if out[i] != in[i] {
			t.Errorf("entry[%d] = %+v, want %+v", i, out[i], in[i])
		}
	}

	info, err := os.Stat(store.Path())
	if err != nil {
		t.Fatalf("Stat() error = %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0600 {
		t.Errorf("config file mode = %o, want 0600", perm)
	}
}

func TestConfigStoreSaveNil(t *testing.T) {
	store := NewConfigStore(filepath.Join(t.TempDir(), "peripherals.json"))
	if err := store.Save(nil); err != nil {
		t.Fatalf("Save(nil) error = %v", err)
	}
	data, err := os.ReadFile(store.Path())
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if string(data) != "[]" {
		t.Errorf("file contents = %q, want []", data)
	}
}

func TestConfigStoreCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "peripherals.json")
	if err := os.WriteFile(path, []byte("{nope"), 0600); err != nil {
		t.Fatalf("seed write error = %v", err)
	}
	if _, err := NewConfigStore(path).Load(); err == nil {
		t.Error("Load() error = nil, want parse failure")
	}
}
