// Package statservice coordinates the collection, the progress engine and the
// user-state file behind the HTTP, MCP and CLI surfaces.
package statservice

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"

	"github.com/starford/tagprogress/internal/apperr"
	"github.com/starford/tagprogress/internal/collection"
	"github.com/starford/tagprogress/internal/export"
	"github.com/starford/tagprogress/internal/models"
	"github.com/starford/tagprogress/internal/progress"
	"github.com/starford/tagprogress/internal/registry"
	"github.com/starford/tagprogress/internal/storage"
)

// StateDetail is the user state with the checksum to send back as If-Match.
type StateDetail struct {
	State    models.State `json:"state"`
	Checksum string       `json:"checksum"`
}

// Status summarizes the open collection.
type Status struct {
	CollectionPath string `json:"collection_path"`
	Notes          int    `json:"notes"`
	Cards          int    `json:"cards"`
}

// Service wires the engine to its stores.
type Service struct {
	store    collection.Store
	state    storage.Provider
	registry *registry.Registry
	engine   *progress.Engine
	defaults progress.Options
	logger   *slog.Logger
}

// NewService creates a new stats service. defaults seeds every request.
func NewService(store collection.Store, state storage.Provider, reg *registry.Registry, defaults progress.Options, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if reg == nil {
		reg = registry.Default()
	}
	return &Service{
		store:    store,
		state:    state,
		registry: reg,
		engine:   progress.NewEngine(store, store, store, logger),
		defaults: defaults,
		logger:   logger,
	}
}

// Defaults returns a copy of the configured request defaults.
func (s *Service) Defaults() progress.Options {
	o := s.defaults
	o.SubjectBlacklist = slices.Clone(s.defaults.SubjectBlacklist)
	return o
}

// Overview computes the overview for opts.
func (s *Service) Overview(ctx context.Context, opts progress.Options) (*progress.Overview, error) {
	return s.engine.Overview(ctx, opts)
}

// InitialOverview computes the overview for the last saved settings.
func (s *Service) InitialOverview(ctx context.Context) (*progress.Overview, error) {
	return s.engine.Overview(ctx, s.SettingsOptions(s.loadState().Settings))
}

// SettingsOptions translates saved dashboard settings into engine options.
// The subject filter only applies when filtering is switched on or in
// subject mode. Saved settings never use a subject blacklist.
func (s *Service) SettingsOptions(st models.Settings) progress.Options {
	o := s.Defaults()
	if st.Mode != "" {
		o.Mode = progress.Mode(st.Mode)
	}
	switch st.Rang {
	case models.RangOnlyA:
		o.OnlyRang = "A"
	case models.RangNotA:
		o.ExcludeRang = "A"
	}
	o.IncludeChildren = st.IncludeChildren
	if st.FilterBySubject || o.Mode == progress.ModeSubject {
		o.SubjectFilter = slices.Clone(st.EnabledSubjects)
	}
	o.SubjectBlacklist = []string{}
	if st.MaskThreshold != nil {
		o.SuspendMaskThreshold = *st.MaskThreshold
	}
	if st.MatureIvl != nil {
		o.MatureInterval = *st.MatureIvl
	}
	if st.OverlapThreshold != nil {
		o.OverlapThreshold = *st.OverlapThreshold
	}
	return o
}

// TagStats computes the statistics of one arbitrary tag.
func (s *Service) TagStats(ctx context.Context, tag string, opts progress.Options) (*progress.UnitStats, error) {
	return s.engine.TagStats(ctx, tag, opts)
}

// CustomTagStats computes the statistics of every custom tag pinned in the
// saved settings. Tags without notes are skipped.
func (s *Service) CustomTagStats(ctx context.Context) ([]progress.UnitStats, error) {
	st := s.loadState().Settings
	opts := s.SettingsOptions(st)
	out := make([]progress.UnitStats, 0, len(st.CustomTags))
	for _, tag := range st.CustomTags {
		u, err := s.engine.TagStats(ctx, tag, opts)
		if err != nil {
			if errors.Is(err, apperr.ErrNotFound) {
				continue
			}
			return nil, err
		}
		out = append(out, *u)
	}
	return out, nil
}

// Subjects lists the subject tags with the configured blacklist.
func (s *Service) Subjects(ctx context.Context) ([]string, error) {
	return s.engine.Subjects(ctx, s.defaults.SubjectBlacklist)
}

// SearchTags searches item, SDD and subject-root tags.
func (s *Service) SearchTags(ctx context.Context, query string, limit int) ([]string, error) {
	return s.engine.SearchTags(ctx, query, limit)
}

// ExportCSV writes the overview for opts as CSV.
func (s *Service) ExportCSV(ctx context.Context, w io.Writer, opts progress.Options) error {
	if !s.ModuleEnabled(registry.ModuleExport) {
		return fmt.Errorf("statservice: module %s disabled: %w", registry.ModuleExport, apperr.ErrNotFound)
	}
	ov, err := s.engine.Overview(ctx, opts)
	if err != nil {
		return err
	}
	return export.WriteCSV(w, ov.Items)
}

// GetState returns the saved user state.
func (s *Service) GetState(_ context.Context) (*StateDetail, error) {
	st, cs, err := s.state.Load()
	if err != nil {
		return nil, err
	}
	return &StateDetail{State: st, Checksum: cs}, nil
}

// SaveState replaces the user state. A non-empty ifMatch must equal the
// current checksum, otherwise apperr.ErrConflict is returned.
func (s *Service) SaveState(_ context.Context, st models.State, ifMatch string) (*StateDetail, error) {
	if st.Modules == nil {
		// Module flags are managed separately; keep the stored ones.
		if current, _, err := s.state.Load(); err == nil {
			st.Modules = current.Modules
		}
	}
	cs, err := s.state.Save(st, ifMatch)
	if err != nil {
		return nil, err
	}
	s.logger.Info("statservice: state saved", slog.Int("presets", len(st.Presets)))
	return &StateDetail{State: st, Checksum: cs}, nil
}

// Modules lists every module with its resolved enabled flag.
func (s *Service) Modules(_ context.Context) []registry.Status {
	return s.registry.List(s.loadState().Modules)
}

// ModuleEnabled reports whether the module is switched on.
func (s *Service) ModuleEnabled(id string) bool {
	return s.registry.Enabled(id, s.loadState().Modules)
}

// SetModuleEnabled stores an explicit flag for a registered module.
func (s *Service) SetModuleEnabled(_ context.Context, id string, enabled bool) (*registry.Status, error) {
	m, ok := s.registry.Get(id)
	if !ok {
		return nil, fmt.Errorf("statservice: module %q: %w", id, apperr.ErrNotFound)
	}
	st, cs, err := s.state.Load()
	if err != nil {
		return nil, err
	}
	if st.Modules == nil {
		st.Modules = map[string]bool{}
	}
	st.Modules[id] = enabled
	if _, err := s.state.Save(st, cs); err != nil {
		return nil, err
	}
	return &registry.Status{Module: m, Enabled: enabled}, nil
}

// Status reports the collection path and sizes.
func (s *Service) Status(ctx context.Context) (*Status, error) {
	notes, cards, err := s.store.Counts(ctx)
	if err != nil {
		return nil, err
	}
	return &Status{CollectionPath: s.store.Path(), Notes: notes, Cards: cards}, nil
}

// loadState returns the saved state, or an empty one when it cannot be read.
func (s *Service) loadState() models.State {
	st, _, err := s.state.Load()
	if err != nil {
		s.logger.Warn("statservice: load state failed", slog.String("error", err.Error()))
		return models.EmptyState()
	}
	return st
}
