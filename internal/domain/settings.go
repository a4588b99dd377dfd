package domain

import "fmt"

// FilterMode selects which questions the session shows.
type FilterMode string

const (
	FilterAll       FilterMode = "all"
	FilterWrongOnly FilterMode = "wrongOnly"
)

// ProgressScope selects which scope the progress bar is computed over.
type ProgressScope string

const (
	ScopeCatalog  ProgressScope = "catalog"
	ScopeModule   ProgressScope = "module"
	ScopeCategory ProgressScope = "category"
)

// Settings are the per-session display options.
type Settings struct {
	FilterMode    FilterMode    `json:"filterMode"`
	ProgressScope ProgressScope `json:"progressScope"`
}

// DefaultSettings matches the original defaults: show everything, catalog-wide bar.
func DefaultSettings() Settings {
	return Settings{FilterMode: FilterAll, ProgressScope: ScopeCatalog}
}

// ParseFilterMode validates a raw filter mode value.
func ParseFilterMode(raw string) (FilterMode, error) {
	switch FilterMode(raw) {
	case FilterAll, FilterWrongOnly:
		return FilterMode(raw), nil
	}
	return "", fmt.Errorf("invalid filter mode %q", raw)
}

// ParseProgressScope validates a raw progress scope value.
func ParseProgressScope(raw string) (ProgressScope, error) {
	switch ProgressScope(raw) {
	case ScopeCatalog, ScopeModule, ScopeCategory:
		return ProgressScope(raw), nil
	}
	return "", fmt.Errorf("invalid progress scope %q", raw)
}

// Validate checks both fields carry legal values.
func (s Settings) Validate() error {
	if _, err := ParseFilterMode(string(s.FilterMode)); err != nil {
		return err
	}
	if _, err := ParseProgressScope(string(s.ProgressScope)); err != nil {
		return err
	}
	return nil
}
