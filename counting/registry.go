package counting

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"blackjack-lite/card"

	"gopkg.in/yaml.v3"
)

// Registry holds the counting systems a session may bind to.
type Registry struct {
	mu      sync.RWMutex
	systems map[string]System
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		systems: make(map[string]System),
	}
}

// Default returns a registry preloaded with the built-in systems.
func Default() *Registry {
	r := NewRegistry()
	for _, s := range builtins {
		r.systems[s.ID] = s
	}
	return r
}

// Register adds a system. Ids are unique.
func (r *Registry) Register(s System) error {
	if s.ID == "" {
		return fmt.Errorf("counting system id must not be empty")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.systems[s.ID]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateSystem, s.ID)
	}
	r.systems[s.ID] = s
	return nil
}

// Get returns a system by id. An unknown id is a configuration error.
func (r *Registry) Get(id string) (System, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.systems[id]
	if !ok {
		return System{}, fmt.Errorf("%w: %q", ErrUnknownSystem, id)
	}
	return s, nil
}

// IDs returns the registered ids, sorted.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.systems))
	for id := range r.systems {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Count returns the number of registered systems.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.systems)
}

// systemDef is the on-disk shape of a counting system.
type systemDef struct {
	ID                 string         `json:"id" yaml:"id"`
	Name               string         `json:"name" yaml:"name"`
	Weights            map[string]int `json:"weights" yaml:"weights"`
	PlayingEfficiency  float64        `json:"playing_efficiency" yaml:"playing_efficiency"`
	BettingCorrelation float64        `json:"betting_correlation" yaml:"betting_correlation"`
}

func (d systemDef) toSystem() (System, error) {
	weights := make(map[card.Rank]int, len(d.Weights))
	for k, w := range d.Weights {
		rank, err := card.ParseRank(k)
		if err != nil {
			return System{}, fmt.Errorf("counting system %q: %w", d.ID, err)
		}
		if prev, dup := weights[rank]; dup && prev != w {
			return System{}, fmt.Errorf("counting system %q: conflicting weights for rank %s", d.ID, rank)
		}
		weights[rank] = w
	}
	return NewSystem(d.ID, d.Name, weights, d.PlayingEfficiency, d.BettingCorrelation)
}

// LoadFromFile loads systems from a .json, .yaml or .yml file.
func (r *Registry) LoadFromFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read counting systems file: %w", err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return r.LoadFromJSON(data)
	default:
		return r.LoadFromYAML(data)
	}
}

// LoadFromJSON loads systems from raw JSON bytes.
func (r *Registry) LoadFromJSON(data []byte) error {
	var list []systemDef
	if err := json.Unmarshal(data, &list); err != nil {
		return fmt.Errorf("parse counting systems JSON: %w", err)
	}
	return r.registerDefs(list)
}

// LoadFromYAML loads systems from raw YAML bytes.
func (r *Registry) LoadFromYAML(data []byte) error {
	var list []systemDef
	if err := yaml.Unmarshal(data, &list); err != nil {
		return fmt.Errorf("parse counting systems YAML: %w", err)
	}
	return r.registerDefs(list)
}

// registerDefs is all-or-nothing: a bad entry leaves the registry untouched.
func (r *Registry) registerDefs(list []systemDef) error {
	parsed := make([]System, 0, len(list))
	seen := make(map[string]bool, len(list))
	for _, d := range list {
		s, err := d.toSystem()
		if err != nil {
			return err
		}
		if seen[s.ID] {
			return fmt.Errorf("%w: %s", ErrDuplicateSystem, s.ID)
		}
		seen[s.ID] = true
		parsed = append(parsed, s)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range parsed {
		if _, ok := r.systems[s.ID]; ok {
			return fmt.Errorf("%w: %s", ErrDuplicateSystem, s.ID)
		}
	}
	for _, s := range parsed {
		r.systems[s.ID] = s
	}
	return nil
}
