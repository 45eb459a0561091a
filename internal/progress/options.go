package progress

import (
	"fmt"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Mode selects which family of tags is reported as units.
type Mode string

// Reporting modes.
const (
	ModeItems   Mode = "items"
	ModeSDD     Mode = "sdd"
	ModeSubject Mode = "subject"
)

// Default thresholds.
const (
	DefaultSuspendMaskThreshold  = 0.8
	DefaultOverlapThreshold      = 0.15
	DefaultDesuspendedThreshold  = 0.40
	DefaultCriticalDifficulty    = 0.5
	DefaultDifficultySampleNotes = 20
	DefaultWindowDays            = 30
)

// DefaultSubjectBlacklist holds tag segments that never name a subject.
var DefaultSubjectBlacklist = []string{
	"forme-compliquée", "grave", "iconographie", "maj", "new", "note",
	"img", "leech", "marked", "transport", "score", "scores", "source",
}

// Options parameterizes one overview computation. Start from DefaultOptions
// and override fields; zero values are meaningful for the thresholds.
type Options struct {
	Mode            Mode   `json:"mode" yaml:"mode"`
	OnlyRang        string `json:"only_rang,omitempty" yaml:"only_rang"`
	ExcludeRang     string `json:"exclude_rang,omitempty" yaml:"exclude_rang"`
	IncludeChildren bool   `json:"include_children" yaml:"include_children"`
	// SubjectTags restricts units to these tags when non-empty.
	SubjectTags          []string `json:"subject_tags,omitempty" yaml:"subject_tags"`
	SuspendMaskThreshold float64  `json:"suspend_mask_threshold" yaml:"suspend_mask_threshold"`
	// WindowDays is accepted for recency-windowed metrics; no current ratio uses it.
	WindowDays     int `json:"window_days" yaml:"window_days"`
	MatureInterval int `json:"mature_ivl" yaml:"mature_ivl"`
	// SubjectBlacklist nil means DefaultSubjectBlacklist; empty means none.
	SubjectBlacklist      []string `json:"subject_blacklist" yaml:"subject_blacklist"`
	SubjectFilter         []string `json:"subject_filter,omitempty" yaml:"subject_filter"`
	OverlapThreshold      float64  `json:"overlap_threshold" yaml:"overlap_threshold"`
	DesuspendedThreshold  float64  `json:"desuspended_threshold" yaml:"desuspended_threshold"`
	CriticalDifficulty    float64  `json:"critical_difficulty" yaml:"critical_difficulty"`
	DifficultySampleNotes int      `json:"difficulty_sample_notes" yaml:"difficulty_sample_notes"`
}

// DefaultOptions returns the options used when a caller sets nothing.
func DefaultOptions() Options {
	return Options{
		Mode:                  ModeItems,
		SuspendMaskThreshold:  DefaultSuspendMaskThreshold,
		WindowDays:            DefaultWindowDays,
		MatureInterval:        DefaultMatureInterval,
		OverlapThreshold:      DefaultOverlapThreshold,
		DesuspendedThreshold:  DefaultDesuspendedThreshold,
		CriticalDifficulty:    DefaultCriticalDifficulty,
		DifficultySampleNotes: DefaultDifficultySampleNotes,
	}
}

// Normalize fills an empty mode and converts a percentage overlap threshold
// (e.g. 15) to a ratio.
func (o *Options) Normalize() {
	if o.Mode == "" {
		o.Mode = ModeItems
	}
	if o.OverlapThreshold > 1 {
		o.OverlapThreshold /= 100
	}
}

// Validate validates the options.
func (o *Options) Validate() error {
	err := validation.ValidateStruct(o,
		validation.Field(&o.Mode, validation.Required, validation.In(ModeItems, ModeSDD, ModeSubject)),
		validation.Field(&o.SuspendMaskThreshold, validation.Min(0.0), validation.Max(1.0)),
		validation.Field(&o.OverlapThreshold, validation.Min(0.0), validation.Max(1.0)),
		validation.Field(&o.DesuspendedThreshold, validation.Min(0.0), validation.Max(1.0)),
		validation.Field(&o.CriticalDifficulty, validation.Min(0.0), validation.Max(1.0)),
		validation.Field(&o.MatureInterval, validation.Min(0)),
		validation.Field(&o.WindowDays, validation.Min(0)),
		validation.Field(&o.DifficultySampleNotes, validation.Required, validation.Min(1)),
	)
	if err != nil {
		return fmt.Errorf("progress: invalid options: %w", err)
	}
	return nil
}

func (o *Options) blacklist() []string {
	if o.SubjectBlacklist == nil {
		return DefaultSubjectBlacklist
	}
	return o.SubjectBlacklist
}
