package api

import (
	"github.com/starford/tagprogress/internal/models"
	"github.com/starford/tagprogress/internal/progress"
	"github.com/starford/tagprogress/internal/registry"
	"github.com/starford/tagprogress/internal/statservice"
)

// OverviewRequest is the body of POST /api/overview. Absent fields keep the
// configured defaults.
type OverviewRequest = progress.Options

// OverviewResponse is the overview payload (aliased from the engine).
type OverviewResponse = progress.Overview

// UnitStats is one unit of an overview (aliased from the engine).
type UnitStats = progress.UnitStats

// StateResponse is the saved user state with its checksum.
type StateResponse = statservice.StateDetail

// StateRequest is the body of PUT /api/state.
type StateRequest = models.State

// SearchResponse wraps tag search results.
type SearchResponse struct {
	Tags []string `json:"tags" validate:"required"`
}

// SubjectsResponse wraps the subject tag list.
type SubjectsResponse struct {
	Subjects []string `json:"subjects" validate:"required"`
}

// CustomTagsResponse wraps the statistics of pinned custom tags.
type CustomTagsResponse struct {
	Items []UnitStats `json:"items" validate:"required"`
}

// ModulesResponse wraps the module list.
type ModulesResponse struct {
	Modules []registry.Status `json:"modules" validate:"required"`
}

// ModuleToggleRequest is the body of PUT /api/modules/{id}.
type ModuleToggleRequest struct {
	Enabled *bool `json:"enabled" example:"true" validate:"required"`
}
