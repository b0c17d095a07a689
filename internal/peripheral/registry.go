package peripheral

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// Registry owns the live peripheral set. Mutations update the in-memory
// set and the persisted configuration under one mutex, then fan out
// lifecycle notifications. Device reads run concurrently outside the
// lock; a peripheral that fails to answer is skipped, never fatal.
type Registry struct {
	factory *Factory
	store   *ConfigStore
	logger  Logger

	mu          sync.Mutex
	peripherals []Peripheral
	notifiers   []Notifier
}

// NewRegistry returns an empty registry. Call Init to hydrate it from
// the persisted configuration.
func NewRegistry(factory *Factory, store *ConfigStore, logger Logger) *Registry {
	if logger == nil {
		logger = noopLogger{}
	}
	return &Registry{
		factory:     factory,
		store:       store,
		logger:      logger,
		peripherals: []Peripheral{},
	}
}

// AddNotifier registers a lifecycle observer. Notifiers are invoked
// synchronously after a mutation commits and must not block.
func (r *Registry) AddNotifier(n Notifier) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notifiers = append(r.notifiers, n)
}

// Init builds peripherals from the persisted configuration. Entries with
// an unknown kind are logged and skipped so one bad line cannot keep the
// hub from starting. Startup hydration emits no lifecycle events.
func (r *Registry) Init() error {
	configs, err := r.store.Load()
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for _, cfg := range configs {
		p, err := r.factory.Create(cfg)
		if err != nil {
			r.logger.Warn("skipping persisted peripheral", "peripheral_id", cfg.ID, "kind", cfg.Kind, "error", err)
			continue
		}
		r.peripherals = append(r.peripherals, p)
	}

	r.logger.Info("peripheral registry initialised", "count", len(r.peripherals))
	return nil
}

// Add builds the peripheral described by cfg, appends it to the
// persisted sequence and announces it to notifiers. A missing id is
// filled with a generated UUID; an id that is already registered is
// rejected with ErrDuplicateID so the set stays unique by id.
func (r *Registry) Add(cfg Config) error {
	if cfg.ID == "" {
		cfg.ID = uuid.NewString()
	}
	p, err := r.factory.Create(cfg)
	if err != nil {
		return err
	}

	r.mu.Lock()
	for _, existing := range r.peripherals {
		if existing.ID() == cfg.ID {
			r.mu.Unlock()
			return fmt.Errorf("%w: %s", ErrDuplicateID, cfg.ID)
		}
	}
	persisted, err := r.store.Load()
	if err != nil {
		r.mu.Unlock()
		return err
	}
	persisted = append(persisted, cfg)
	if err := r.store.Save(persisted); err != nil {
		r.mu.Unlock()
		return err
	}
	r.peripherals = append(r.peripherals, p)
	notifiers := append([]Notifier(nil), r.notifiers...)
	r.mu.Unlock()

	r.logger.Info("peripheral added", "peripheral_id", p.ID(), "kind", p.Kind())
	for _, n := range notifiers {
		n.PeripheralAdded(p.ID(), p.Kind())
	}
	return nil
}

// Remove drops the peripheral with the given id from the set and the
// persisted sequence. Returns ErrNotFound when no such peripheral is
// registered.
func (r *Registry) Remove(id string) error {
	r.mu.Lock()
	idx := -1
	for i, p := range r.peripherals {
		if p.ID() == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		r.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	persisted, err := r.store.Load()
	if err != nil {
		r.mu.Unlock()
		return err
	}
	kept := persisted[:0]
	for _, cfg := range persisted {
		if cfg.ID != id {
			kept = append(kept, cfg)
		}
	}
	if err := r.store.Save(kept); err != nil {
		r.mu.Unlock()
		return err
	}
	r.peripherals = append(r.peripherals[:idx], r.peripherals[idx+1:]...)
	notifiers := append([]Notifier(nil), r.notifiers...)
	r.mu.Unlock()

	r.logger.Info("peripheral removed", "peripheral_id", id)
	for _, n := range notifiers {
		n.PeripheralRemoved(id)
	}
	return nil
}

// RemoveAll clears the peripheral set and persists an empty sequence.
func (r *Registry) RemoveAll() error {
	r.mu.Lock()
	if err := r.store.Save(nil); err != nil {
		r.mu.Unlock()
		return err
	}
	removed := r.peripherals
	r.peripherals = []Peripheral{}
	notifiers := append([]Notifier(nil), r.notifiers...)
	r.mu.Unlock()

	r.logger.Info("all peripherals removed", "count", len(removed))
	for _, p := range removed {
		for _, n := range notifiers {
			n.PeripheralRemoved(p.ID())
		}
	}
	return nil
}

// Refresh reconciles the registry against an incoming configuration
// sequence: entries whose id is not yet registered are added, existing
// peripherals are left untouched. Add's own duplicate check decides
// membership, so concurrent refreshes cannot double-register an id.
// Individual failures are logged and do not abort the sweep.
func (r *Registry) Refresh(configs []Config) int {
	added := 0
	for _, cfg := range configs {
		err := r.Add(cfg)
		if errors.Is(err, ErrDuplicateID) {
			continue
		}
		if err != nil {
			r.logger.Warn("refresh entry rejected", "peripheral_id", cfg.ID, "kind", cfg.Kind, "error", err)
			continue
		}
		added++
	}
	return added
}

// Get returns the peripheral with the given id.
func (r *Registry) Get(id string) (Peripheral, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.peripherals {
		if p.ID() == id {
			return p, true
		}
	}
	return nil, false
}

// List returns a listing entry per registered peripheral. The result is
// never nil so callers serialise an empty set as [].
func (r *Registry) List() []Info {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Info, 0, len(r.peripherals))
	for _, p := range r.peripherals {
		out = append(out, Info{ID: p.ID(), Kind: p.Kind()})
	}
	return out
}

// Count returns the number of registered peripherals.
func (r *Registry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.peripherals)
}

// AllData reads the current state of every registered peripheral.
func (r *Registry) AllData(ctx context.Context) []Reading {
	return r.collect(ctx, func(Peripheral) bool { return true })
}

// AllSensorData reads the current state of every read-only peripheral.
func (r *Registry) AllSensorData(ctx context.Context) []Reading {
	return r.collect(ctx, func(p Peripheral) bool { return p.Sensor() })
}

// collect fans state reads out over goroutines, one per matching
// peripheral, and keeps registry order in the result. Peripherals that
// fail to answer are dropped from the sweep.
func (r *Registry) collect(ctx context.Context, include func(Peripheral) bool) []Reading {
	r.mu.Lock()
	targets := make([]Peripheral, 0, len(r.peripherals))
	for _, p := range r.peripherals {
		if include(p) {
			targets = append(targets, p)
		}
	}
	r.mu.Unlock()

	results := make([]*Reading, len(targets))
	var wg sync.WaitGroup
	for i, p := range targets {
		wg.Add(1)
		go func() {
			defer wg.Done()
			data, err := p.State(ctx)
			if err != nil {
				r.logger.Warn("peripheral read failed", "peripheral_id", p.ID(), "error", err)
				return
			}
			results[i] = &Reading{ID: p.ID(), Data: data}
		}()
	}
	wg.Wait()

	out := make([]Reading, 0, len(targets))
	for _, reading := range results {
		if reading != nil {
			out = append(out, *reading)
		}
	}
	return out
}

// Dispatch parses payload as a command request and applies it to the
// peripheral with the given id, then reads the device state back. Any
// failure yields the empty string; callers treat that as the command
// failure sentinel.
func (r *Registry) Dispatch(ctx context.Context, id, payload string) string {
	p, ok := r.Get(id)
	if !ok {
		r.logger.Warn("command for unknown peripheral", "peripheral_id", id)
		return ""
	}

	var req Request
	if err := json.Unmarshal([]byte(payload), &req); err != nil {
		r.logger.Warn("unparseable command payload", "peripheral_id", id, "error", err)
		return ""
	}

	if ctrl, ok := p.(Control); ok {
		if err := ctrl.Apply(ctx, req); err != nil {
			r.logger.Warn("command rejected", "peripheral_id", id, "type", req.Type, "error", err)
		}
	} else {
		r.logger.Debug("command sent to read-only peripheral", "peripheral_id", id, "type", req.Type)
	}

	state, err := p.State(ctx)
	if err != nil {
		r.logger.Warn("state read after command failed", "peripheral_id", id, "error", err)
		return ""
	}
	return state
}
