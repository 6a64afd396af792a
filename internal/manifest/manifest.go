// Package manifest reads arxml.toml files that list the documents of one model.
package manifest

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"

	"autosar/internal/config"
)

// FileName is the manifest name looked up in a project directory.
const FileName = "arxml.toml"

// Manifest names a set of sources loaded as one session.
type Manifest struct {
	Name           string   `toml:"name"`
	Autosar        string   `toml:"autosar,omitempty"`
	RejectNegative *bool    `toml:"reject_negative,omitempty"`
	Files          []string `toml:"files"`

	dir string
}

// Load reads and validates the manifest at path. A directory path selects
// its arxml.toml.
func Load(path string) (*Manifest, error) {
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		path = filepath.Join(path, FileName)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}

	var m Manifest
	if err := toml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse manifest %s: %w", path, err)
	}
	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("invalid manifest %s: %w", path, err)
	}
	m.dir = filepath.Dir(path)
	return &m, nil
}

// Validate checks the file list and the version pin.
func (m *Manifest) Validate() error {
	if len(m.Files) == 0 {
		return fmt.Errorf("no files listed")
	}
	for _, f := range m.Files {
		if f == "" {
			return fmt.Errorf("empty file entry")
		}
	}
	switch m.Autosar {
	case "", "auto", "3", "4":
		return nil
	}
	return fmt.Errorf("unknown autosar version %q", m.Autosar)
}

// Paths returns the listed files resolved against the manifest directory.
func (m *Manifest) Paths() []string {
	out := make([]string, len(m.Files))
	for i, f := range m.Files {
		if filepath.IsAbs(f) {
			out[i] = f
		} else {
			out[i] = filepath.Join(m.dir, filepath.FromSlash(f))
		}
	}
	return out
}

// Apply copies the manifest's settings over cfg.
func (m *Manifest) Apply(cfg *config.Config) {
	if m.Autosar != "" {
		cfg.Autosar.Version = m.Autosar
	}
	if m.RejectNegative != nil {
		cfg.Autosar.RejectNegative = *m.RejectNegative
	}
}

// Save writes m as TOML to path.
func (m *Manifest) Save(path string) error {
	if err := m.Validate(); err != nil {
		return err
	}
	data, err := toml.Marshal(m)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
