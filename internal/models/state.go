// Package models defines the persisted user-state types.
package models

// Rang values of the saved settings.
const (
	RangAll   = "all"
	RangOnlyA = "onlyA"
	RangNotA  = "notA"
)

// Settings is one dashboard configuration, as saved by the UI. Pointer
// fields are optional and fall back to the configured defaults.
type Settings struct {
	Mode             string   `json:"mode,omitempty"`
	Rang             string   `json:"rang,omitempty"`
	IncludeChildren  bool     `json:"includeChildren"`
	FilterBySubject  bool     `json:"filterBySubject"`
	EnabledSubjects  []string `json:"enabledSubjects,omitempty"`
	MaskThreshold    *float64 `json:"maskThreshold,omitempty"`
	MatureIvl        *int     `json:"matureIvl,omitempty"`
	OverlapThreshold *float64 `json:"overlapThreshold,omitempty"`
	CustomTags       []string `json:"customTags,omitempty"`
}

// State is the content of the user-state file.
type State struct {
	Presets  map[string]Settings `json:"presets"`
	Settings Settings            `json:"settings"`
	// Modules maps module IDs to an explicit enabled flag.
	Modules map[string]bool `json:"modules,omitempty"`
}

// EmptyState returns a state with no presets and default settings.
func EmptyState() State {
	return State{Presets: map[string]Settings{}}
}
