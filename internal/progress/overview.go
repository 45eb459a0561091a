package progress

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sort"
	"strings"
	"time"

	"github.com/starford/tagprogress/internal/apperr"
)

// Meta holds cross-unit aggregates of an overview.
type Meta struct {
	MedianMastery               float64  `json:"median_mastery"`
	MedianDifficulty            float64  `json:"median_difficulty"`
	MeanMastery                 float64  `json:"mean_mastery"`
	MeanDifficulty              float64  `json:"mean_difficulty"`
	NumDesuspendedOverThreshold int      `json:"num_desuspended_over_threshold"`
	NumCriticalItems            int      `json:"num_critical_items"`
	TotalUnits                  int      `json:"total_units"`
	AvailableSubjects           []string `json:"available_subjects"`
	DifficultySampleNotes       int      `json:"difficulty_sample_notes"`
}

// Overview is the full response of one computation.
type Overview struct {
	Mode  Mode        `json:"mode"`
	Items []UnitStats `json:"items"`
	Meta  Meta        `json:"meta"`
}

// Engine computes overviews from the external collaborators. It holds no
// state between calls; every call reads the stores again.
type Engine struct {
	tags       TagRegistry
	records    RecordStore
	difficulty DifficultyProvider
	logger     *slog.Logger
}

// NewEngine creates an engine. difficulty may be nil, in which case every
// unit reports a difficulty of 0.
func NewEngine(tags TagRegistry, records RecordStore, difficulty DifficultyProvider, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{tags: tags, records: records, difficulty: difficulty, logger: logger}
}

// Overview enumerates the units of the requested mode, scans the record store
// once, and returns the surviving units sorted by ascending mastery.
func (e *Engine) Overview(ctx context.Context, opts Options) (*Overview, error) {
	opts.Normalize()
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", apperr.ErrInvalidArgument, err)
	}

	start := time.Now()
	all, err := e.tags.AllTags(ctx)
	if err != nil {
		return nil, fmt.Errorf("progress: list tags: %w", err)
	}
	targets := selectTargets(all, &opts)
	idx := NewIndex(targets)

	rows, err := e.records.AllCardNoteRows(ctx)
	if err != nil {
		return nil, fmt.Errorf("progress: load rows: %w", err)
	}
	loaded := time.Now()

	res := scan(rows, idx, scanParams{
		matureInterval: opts.MatureInterval,
		rang:           NewRangFilter(opts.OnlyRang, opts.ExcludeRang),
		subjects:       NewSubjectMatcher(opts.SubjectFilter),
	})
	scanned := time.Now()

	rules := maskRules{
		suspendMask:      opts.SuspendMaskThreshold,
		overlapThreshold: opts.OverlapThreshold,
		checkSuspension:  true,
		checkOverlap:     opts.Mode != ModeSubject && len(opts.SubjectFilter) > 0,
	}
	items := make([]UnitStats, 0, len(targets))
	dropped := 0
	for _, t := range targets {
		acc, ok := res.units[strings.ToLower(t)]
		if !ok || acc.tag != t {
			// Case-insensitive duplicate of an earlier target.
			continue
		}
		u, reason := buildUnit(acc, rules)
		if reason != keep {
			if reason != dropEmpty {
				dropped++
			}
			continue
		}
		items = append(items, *u)
	}
	built := time.Now()

	for i := range items {
		fillDifficulty(ctx, &items[i], res.notes, e.difficulty, opts.DifficultySampleNotes, e.logger)
	}
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Mastery < items[j].Mastery
	})

	out := &Overview{
		Mode:  opts.Mode,
		Items: items,
		Meta:  summarize(items, &opts),
	}
	out.Meta.AvailableSubjects = SubjectTags(all, opts.blacklist())

	e.logger.Debug("progress: overview computed",
		slog.String("mode", string(opts.Mode)),
		slog.Int("rows", res.rows),
		slog.Int("notes", len(res.notes)),
		slog.Int("targets", len(targets)),
		slog.Int("units", len(items)),
		slog.Int("masked", dropped),
		slog.Duration("load", loaded.Sub(start)),
		slog.Duration("scan", scanned.Sub(loaded)),
		slog.Duration("build", built.Sub(scanned)),
		slog.Duration("difficulty", time.Since(built)))

	return out, nil
}

// TagStats computes the statistics of a single arbitrary tag with the same
// scan, without the suspension and overlap masks.
func (e *Engine) TagStats(ctx context.Context, tag string, opts Options) (*UnitStats, error) {
	tag = strings.TrimSpace(tag)
	if tag == "" {
		return nil, fmt.Errorf("%w: tag is required", apperr.ErrInvalidArgument)
	}
	opts.Normalize()
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", apperr.ErrInvalidArgument, err)
	}

	rows, err := e.records.AllCardNoteRows(ctx)
	if err != nil {
		return nil, fmt.Errorf("progress: load rows: %w", err)
	}
	idx := NewIndex([]string{tag})
	res := scan(rows, idx, scanParams{
		matureInterval: opts.MatureInterval,
		rang:           NewRangFilter(opts.OnlyRang, opts.ExcludeRang),
		subjects:       NewSubjectMatcher(opts.SubjectFilter),
	})

	u, reason := buildUnit(res.units[strings.ToLower(tag)], maskRules{})
	if reason != keep {
		return nil, fmt.Errorf("progress: tag %q: %w", tag, apperr.ErrNotFound)
	}
	fillDifficulty(ctx, u, res.notes, e.difficulty, opts.DifficultySampleNotes, e.logger)
	return u, nil
}

// Subjects lists every subject tag for pickers, ignoring any subject filter.
func (e *Engine) Subjects(ctx context.Context, blacklist []string) ([]string, error) {
	all, err := e.tags.AllTags(ctx)
	if err != nil {
		return nil, fmt.Errorf("progress: list tags: %w", err)
	}
	if blacklist == nil {
		blacklist = DefaultSubjectBlacklist
	}
	return SubjectTags(all, blacklist), nil
}

// SearchTags returns the item, SDD and subject-root tags containing every
// whitespace-separated term of query, case-insensitively. A limit <= 0
// returns every match.
func (e *Engine) SearchTags(ctx context.Context, query string, limit int) ([]string, error) {
	all, err := e.tags.AllTags(ctx)
	if err != nil {
		return nil, fmt.Errorf("progress: list tags: %w", err)
	}
	terms := strings.Fields(strings.ToLower(query))

	out := make([]string, 0)
	for _, t := range all {
		if searchable(t) && matchSearch(strings.ToLower(t), terms) {
			out = append(out, t)
		}
	}
	slices.Sort(out)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func summarize(items []UnitStats, o *Options) Meta {
	m := Meta{
		TotalUnits:            len(items),
		DifficultySampleNotes: o.DifficultySampleNotes,
	}
	if len(items) == 0 {
		return m
	}

	mastery := make([]float64, len(items))
	difficulty := make([]float64, len(items))
	for i, it := range items {
		mastery[i] = it.Mastery
		difficulty[i] = it.Difficulty
		if 1-it.Percent[StateSuspended] > o.DesuspendedThreshold {
			m.NumDesuspendedOverThreshold++
		}
		if it.Difficulty >= o.CriticalDifficulty {
			m.NumCriticalItems++
		}
	}
	m.MedianMastery = median(mastery)
	m.MedianDifficulty = median(difficulty)
	m.MeanMastery = mean(mastery)
	m.MeanDifficulty = mean(difficulty)
	return m
}

func median(vs []float64) float64 {
	if len(vs) == 0 {
		return 0
	}
	s := slices.Clone(vs)
	slices.Sort(s)
	mid := len(s) / 2
	if len(s)%2 == 1 {
		return s[mid]
	}
	return (s[mid-1] + s[mid]) / 2
}

func mean(vs []float64) float64 {
	if len(vs) == 0 {
		return 0
	}
	var sum float64
	for _, v := range vs {
		sum += v
	}
	return sum / float64(len(vs))
}
