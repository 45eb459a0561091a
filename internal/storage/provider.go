// Package storage persists the user state (presets and last settings).
package storage

import "github.com/starford/tagprogress/internal/models"

// Provider is the interface for user-state persistence.
type Provider interface {
	// Load returns the stored state and its checksum. A missing or undecodable
	// file yields an empty state.
	Load() (models.State, string, error)
	// Save replaces the stored state and returns the new checksum. A non-empty
	// ifMatch must equal the current checksum.
	Save(state models.State, ifMatch string) (string, error)
	// Path returns the backing file path.
	Path() string
}
