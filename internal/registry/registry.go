// Package registry holds the descriptors of the dashboard modules and
// resolves which of them are enabled.
package registry

import (
	"fmt"
	"slices"
	"sync"

	"github.com/starford/tagprogress/internal/apperr"
)

// Module describes one feature that can be switched on or off.
type Module struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Description    string `json:"description"`
	DefaultEnabled bool   `json:"default_enabled"`
}

// Status is a module together with its resolved enabled flag.
type Status struct {
	Module
	Enabled bool `json:"enabled"`
}

// Built-in module IDs.
const (
	ModuleProgress = "edn_progress"
	ModuleExport   = "csv_export"
	ModuleMCP      = "mcp_tools"
)

// Registry is an explicit, process-wide list of modules. It is built once at
// startup and passed to the components that need it.
type Registry struct {
	mu      sync.RWMutex
	modules []Module
}

// New creates a registry holding mods.
func New(mods ...Module) (*Registry, error) {
	r := &Registry{}
	for _, m := range mods {
		if err := r.Register(m); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Default returns the registry of the built-in modules.
func Default() *Registry {
	r, _ := New(
		Module{
			ID:             ModuleProgress,
			Name:           "EDN Progress",
			Description:    "Statistiques de progression et difficulté des items EDN",
			DefaultEnabled: true,
		},
		Module{
			ID:             ModuleExport,
			Name:           "Export CSV",
			Description:    "Export des statistiques au format CSV",
			DefaultEnabled: true,
		},
		Module{
			ID:             ModuleMCP,
			Name:           "Outils MCP",
			Description:    "Accès aux statistiques pour les assistants via MCP",
			DefaultEnabled: false,
		},
	)
	return r
}

// Register adds a module. IDs must be unique.
func (r *Registry) Register(m Module) error {
	if m.ID == "" {
		return fmt.Errorf("registry: %w: module id is required", apperr.ErrInvalidArgument)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if slices.ContainsFunc(r.modules, func(x Module) bool { return x.ID == m.ID }) {
		return fmt.Errorf("registry: module %q: %w", m.ID, apperr.ErrConflict)
	}
	r.modules = append(r.modules, m)
	return nil
}

// Get returns the module with the given ID.
func (r *Registry) Get(id string) (Module, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	i := slices.IndexFunc(r.modules, func(x Module) bool { return x.ID == id })
	if i < 0 {
		return Module{}, false
	}
	return r.modules[i], true
}

// Enabled resolves a module's flag: an explicit override wins, then the
// module default. Unknown modules are enabled.
func (r *Registry) Enabled(id string, overrides map[string]bool) bool {
	if v, ok := overrides[id]; ok {
		return v
	}
	if m, ok := r.Get(id); ok {
		return m.DefaultEnabled
	}
	return true
}

// List returns every module with its resolved flag, in registration order.
func (r *Registry) List(overrides map[string]bool) []Status {
	r.mu.RLock()
	mods := slices.Clone(r.modules)
	r.mu.RUnlock()

	out := make([]Status, len(mods))
	for i, m := range mods {
		out[i] = Status{Module: m, Enabled: r.Enabled(m.ID, overrides)}
	}
	return out
}
