package export

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"reflect"
	"sort"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/fxamacker/cbor/v2"
	"gopkg.in/yaml.v3"

	"autosar/internal/model"
	"autosar/internal/ref"
	"autosar/internal/workspace"
)

// Exporter renders workspaces in the supported formats
type Exporter struct {
	logger *slog.Logger
	now    func() time.Time
}

// NewExporter creates a new exporter
func NewExporter(logger *slog.Logger) *Exporter {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Exporter{logger: logger, now: time.Now}
}

// Export collects the projections selected by opts. By default every root
// package is exported with its full subtree.
func (e *Exporter) Export(ws *workspace.Workspace, opts ExportOptions) (*ModelExport, error) {
	x := &ModelExport{
		Metadata: ExportMetadata{
			Session:   ws.ID().String(),
			Autosar:   int(ws.Version()),
			Generated: e.now().UTC().Format(time.RFC3339),
			Root:      opts.Root,
			Sources:   opts.Sources,
		},
	}

	switch {
	case opts.Root != "":
		p, err := ref.Parse(opts.Root)
		if err != nil {
			return nil, err
		}
		entity, err := ws.Resolve(p)
		if err != nil {
			return nil, err
		}
		x.Entities = []model.Projection{entity.Project()}
	case len(opts.Kinds) > 0:
		wanted := make(map[model.Kind]bool, len(opts.Kinds))
		for _, k := range opts.Kinds {
			wanted[k] = true
		}
		_ = ws.Walk(func(entity model.Entity) error {
			if wanted[entity.Kind()] {
				p := entity.Project()
				p["path"] = string(entity.Path())
				x.Entities = append(x.Entities, p)
			}
			return nil
		})
	default:
		for _, pkg := range ws.Packages() {
			x.Entities = append(x.Entities, pkg.Project())
		}
	}

	x.Metadata.EntityCount = ws.Len()
	e.logger.Debug("Built export",
		"session", x.Metadata.Session,
		"root", opts.Root,
		"entities", len(x.Entities),
	)
	return x, nil
}

// Write encodes x to w.
func (e *Exporter) Write(w io.Writer, x *ModelExport, format Format) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(x)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(x); err != nil {
			return err
		}
		return enc.Close()
	case FormatTOML:
		return toml.NewEncoder(w).Encode(x)
	case FormatCBOR:
		em, err := cbor.CoreDetEncOptions().EncMode()
		if err != nil {
			return err
		}
		return em.NewEncoder(w).Encode(x)
	case FormatText:
		_, err := io.WriteString(w, e.FormatText(x))
		return err
	}
	return fmt.Errorf("unknown export format %q", format)
}

// Decode reads an export written in a structured format.
func Decode(data []byte, format Format) (*ModelExport, error) {
	var x ModelExport
	var err error
	switch format {
	case FormatJSON:
		err = json.Unmarshal(data, &x)
	case FormatYAML:
		err = yaml.Unmarshal(data, &x)
	case FormatTOML:
		_, err = toml.Decode(string(data), &x)
	case FormatCBOR:
		dm, derr := cbor.DecOptions{DefaultMapType: reflect.TypeOf(map[string]any(nil))}.DecMode()
		if derr != nil {
			return nil, derr
		}
		err = dm.Unmarshal(data, &x)
	default:
		return nil, fmt.Errorf("cannot decode %q exports", format)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s export: %w", format, err)
	}
	return &x, nil
}

// FormatText renders an indented outline of the exported entities
func (e *Exporter) FormatText(x *ModelExport) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("# Session: %s\n", x.Metadata.Session))
	sb.WriteString(fmt.Sprintf("# AUTOSAR %d | Entities: %d | Generated: %s\n",
		x.Metadata.Autosar, x.Metadata.EntityCount, x.Metadata.Generated))
	for _, s := range x.Metadata.Sources {
		sb.WriteString(fmt.Sprintf("# Source: %s (%s)\n", s.Name, shortDigest(s.Digest)))
	}
	sb.WriteString("\n")

	for _, p := range x.Entities {
		writeOutline(&sb, p, 0)
	}
	return sb.String()
}

// writeOutline prints one line per projection and recurses into child lists
// in key order.
func writeOutline(sb *strings.Builder, p model.Projection, depth int) {
	indent := strings.Repeat("  ", depth)
	name, _ := p["name"].(string)
	if path, ok := p["path"].(string); ok {
		name = path
	}
	line := indent + p.Type()
	if name != "" {
		line += " " + name
	}
	for _, key := range []string{"portInterfaceRef", "typeRef", "componentRef", "behaviorRef", "startOnEventRef"} {
		if v, ok := p[key].(string); ok {
			line += fmt.Sprintf(" -> %s", v)
		}
	}
	sb.WriteString(line + "\n")

	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		switch v := p[k].(type) {
		case model.Projection:
			writeOutline(sb, v, depth+1)
		case []model.Projection:
			for _, child := range v {
				writeOutline(sb, child, depth+1)
			}
		case map[string]any:
			if _, tagged := v["type"]; tagged {
				writeOutline(sb, v, depth+1)
			}
		case []any:
			// decoded projections
			for _, child := range v {
				if m, ok := child.(map[string]any); ok {
					if _, tagged := m["type"]; tagged {
						writeOutline(sb, m, depth+1)
					}
				}
			}
		}
	}
}

func shortDigest(d string) string {
	if len(d) > 12 {
		return d[:12]
	}
	return d
}
