// Package preset persists restoration settings as JSON files. A preset
// stores only the fields the author touched; loading merges them over
// the system defaults and clamps, so presets written by older or
// sloppier tools still load into a valid state.
package preset

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/cwbudde/algo-restore/restore"
)

// File is the JSON schema of one preset.
type File struct {
	Name     string          `json:"name,omitempty"`
	Insight  string          `json:"insight,omitempty"`
	Settings restore.Partial `json:"settings"`
}

// Parse decodes a preset from raw JSON.
func Parse(b []byte) (*File, error) {
	var f File
	if err := json.Unmarshal(b, &f); err != nil {
		return nil, fmt.Errorf("parsing preset: %w", err)
	}
	return &f, nil
}

// Apply merges the preset's settings over base and clamps the result.
func (f *File) Apply(base restore.Settings) restore.Settings {
	if f == nil {
		return base.Clamp()
	}
	return restore.Merge(base, &f.Settings)
}

// LoadJSON reads a preset file and returns the settings it produces on
// top of the defaults.
func LoadJSON(path string) (restore.Settings, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return restore.Settings{}, err
	}
	f, err := Parse(b)
	if err != nil {
		return restore.Settings{}, fmt.Errorf("%s: %w", path, err)
	}
	return f.Apply(restore.Defaults()), nil
}

// SaveJSON writes a preset, creating parent directories as needed.
func SaveJSON(path string, f *File) error {
	if f == nil {
		return fmt.Errorf("nil preset")
	}
	b, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return err
	}
	b = append(b, '\n')
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, b, 0o644)
}
