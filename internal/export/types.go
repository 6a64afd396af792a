// Package export renders workspace projections for downstream tools.
package export

import (
	"fmt"
	"strings"

	"autosar/internal/model"
)

// Format is an output encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
	FormatCBOR Format = "cbor"
	FormatText Format = "text"
)

// ParseFormat maps a case-insensitive name to a Format.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case FormatJSON, FormatYAML, FormatTOML, FormatCBOR, FormatText:
		return f, nil
	case "yml":
		return FormatYAML, nil
	}
	return "", fmt.Errorf("unknown export format %q", s)
}

// Binary reports whether f is not human readable.
func (f Format) Binary() bool { return f == FormatCBOR }

// ModelExport is the exported view of one workspace.
type ModelExport struct {
	Metadata ExportMetadata     `json:"metadata" yaml:"metadata" toml:"metadata" cbor:"metadata"`
	Entities []model.Projection `json:"entities" yaml:"entities" toml:"entities" cbor:"entities"`
}

// ExportMetadata contains metadata about the export
type ExportMetadata struct {
	Session     string         `json:"session" yaml:"session" toml:"session" cbor:"session"`
	Autosar     int            `json:"autosar" yaml:"autosar" toml:"autosar" cbor:"autosar"`
	Generated   string         `json:"generated" yaml:"generated" toml:"generated" cbor:"generated"` // ISO 8601 timestamp
	Root        string         `json:"root,omitempty" yaml:"root,omitempty" toml:"root,omitempty" cbor:"root,omitempty"`
	EntityCount int            `json:"entityCount" yaml:"entityCount" toml:"entityCount" cbor:"entityCount"`
	Sources     []ExportSource `json:"sources,omitempty" yaml:"sources,omitempty" toml:"sources,omitempty" cbor:"sources,omitempty"`
}

// ExportSource names a loaded document and its fingerprint.
type ExportSource struct {
	Name   string `json:"name" yaml:"name" toml:"name" cbor:"name"`
	Digest string `json:"digest" yaml:"digest" toml:"digest" cbor:"digest"`
}

// ExportOptions configures the export
type ExportOptions struct {
	Root    string         // Entity path to export; empty exports every package
	Kinds   []model.Kind   // Export only entities of these kinds, flat
	Sources []ExportSource // Documents the workspace was loaded from
}
