package api

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hearthlabs/hearth-core/internal/peripheral"
)

// handleListPeripherals returns the registered peripheral listing.
func (s *Server) handleListPeripherals(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.registry.List())
}

// handleRefreshPeripherals reconciles the registry against a posted
// configuration sequence. Entries already registered are untouched;
// new ones are added and announced.
func (s *Server) handleRefreshPeripherals(w http.ResponseWriter, r *http.Request) {
	var configs []peripheral.Config
	if err := json.NewDecoder(r.Body).Decode(&configs); err != nil {
		writeBadRequest(w, "request body must be a JSON array of peripheral configs")
		return
	}

	added := s.registry.Refresh(configs)
	writeJSON(w, http.StatusOK, map[string]int{
		"added": added,
		"total": s.registry.Count(),
	})
}

// handleRemovePeripheral removes one peripheral by id.
func (s *Server) handleRemovePeripheral(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.registry.Remove(id); err != nil {
		writeNotFound(w, "peripheral not found: "+id)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleRemoveAllPeripherals clears the registry.
func (s *Server) handleRemoveAllPeripherals(w http.ResponseWriter, _ *http.Request) {
	if err := s.registry.RemoveAll(); err != nil {
		s.logger.Error("failed to remove all peripherals", "error", err)
		writeInternalError(w, "failed to remove peripherals")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleGetPeripheralState reads the live state of one peripheral and
// relays the device's own state document.
func (s *Server) handleGetPeripheralState(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	p, ok := s.registry.Get(id)
	if !ok {
		writeNotFound(w, "peripheral not found: "+id)
		return
	}

	state, err := p.State(r.Context())
	if err != nil {
		writeError(w, http.StatusBadGateway, "device_unreachable", "peripheral did not answer: "+id)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	io.WriteString(w, state) //nolint:errcheck
}

// handleCommand executes one command envelope over REST. The body is
// the same JSON the monitor channel carries inside correlated frames.
func (s *Server) handleCommand(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeBadRequest(w, "failed to read request body")
		return
	}

	result := s.router.Handle(r.Context(), string(body))
	if result == "" {
		writeBadRequest(w, invalidCommandMessage)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	io.WriteString(w, result) //nolint:errcheck
}

// handleAggregate answers an aggregation query for one peripheral's
// reading history.
func (s *Server) handleAggregate(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, ok := s.registry.Get(id); !ok {
		writeNotFound(w, "peripheral not found: "+id)
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeBadRequest(w, "failed to read request body")
		return
	}

	result := s.history.Aggregate(r.Context(), id, string(body))

	// Validation failures come back as an error document; surface
	// those as 400 so REST clients can tell them apart.
	status := http.StatusOK
	var doc struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal([]byte(result), &doc); err == nil && doc.Error != "" {
		status = http.StatusBadRequest
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	io.WriteString(w, result) //nolint:errcheck
}
