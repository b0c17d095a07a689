package peripheral

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// ConfigStore persists the ordered peripheral configuration as a JSON
// array on disk. Every mutation rewrites the whole file; callers are
// expected to serialise access (the registry holds its mutex across
// store operations).
type ConfigStore struct {
	path string
}

// NewConfigStore returns a store backed by the given file path.
func NewConfigStore(path string) *ConfigStore {
	return &ConfigStore{path: path}
}

// Path returns the backing file path.
func (s *ConfigStore) Path() string {
	return s.path
}

// Load reads the persisted configuration sequence. A missing file is not
// an error: the hub starts empty on first launch.
func (s *ConfigStore) Load() ([]Config, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []Config{}, nil
		}
		return nil, fmt.Errorf("failed to read peripheral config: %w", err)
	}

	var configs []Config
	if err := json.Unmarshal(data, &configs); err != nil {
		return nil, fmt.Errorf("failed to parse peripheral config: %w", err)
	}
	if configs == nil {
		configs = []Config{}
	}
	return configs, nil
}

// Save rewrites the configuration file with the given sequence, creating
// parent directories as needed.
func (s *ConfigStore) Save(configs []Config) error {
	if configs == nil {
		configs = []Config{}
	}
	data, err := json.MarshalIndent(configs, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode peripheral config: %w", err)
	}

	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}
	if err := os.WriteFile(s.path, data, 0600); err != nil {
		return fmt.Errorf("failed to write peripheral config: %w", err)
	}
	return nil
}
