package session

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// Profiles organises per-player save directories. Each profile holds the
// world chunk database and the telemetry log.
type Profiles struct {
	Root string
}

// NewProfiles returns a manager rooted at dir.
func NewProfiles(dir string) *Profiles {
	return &Profiles{Root: dir}
}

// Path returns the directory of a profile.
func (p *Profiles) Path(name string) string {
	return filepath.Join(p.Root, name)
}

// WorldPath returns the sqlite file holding the profile's world chunks.
func (p *Profiles) WorldPath(name string) string {
	return filepath.Join(p.Path(name), "world.db")
}

// TelemetryPath returns the JSONL telemetry log of the profile.
func (p *Profiles) TelemetryPath(name string) string {
	return filepath.Join(p.Path(name), "telemetry.jsonl")
}

// Ensure creates the profile directory when missing and returns it.
func (p *Profiles) Ensure(name string) (string, error) {
	if name == "" || name != filepath.Base(name) {
		return "", fmt.Errorf("invalid profile name %q", name)
	}
	dir := p.Path(name)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create profile %s: %w", name, err)
	}
	return dir, nil
}

// List returns the existing profile names in order.
func (p *Profiles) List() ([]string, error) {
	entries, err := os.ReadDir(p.Root)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list profiles: %w", err)
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}
