package export

import (
	"fmt"
	"sort"
	"strings"

	"autosar/internal/model"
	"autosar/internal/workspace"
)

// KindCount is the number of entities of one kind.
type KindCount struct {
	Kind  model.Kind `json:"kind"`
	Count int        `json:"count"`
}

// ComponentSummary is a one-line overview of a component type.
type ComponentSummary struct {
	Path         string `json:"path"`
	Kind         string `json:"kind"`
	RequirePorts int    `json:"requirePorts"`
	ProvidePorts int    `json:"providePorts"`
	Runnables    int    `json:"runnables,omitempty"`
	Events       int    `json:"events,omitempty"`
	Prototypes   int    `json:"prototypes,omitempty"`
	Connectors   int    `json:"connectors,omitempty"`
}

// Summary condenses a workspace for terminal output.
type Summary struct {
	Session    string             `json:"session"`
	Autosar    int                `json:"autosar"`
	Entities   int                `json:"entities"`
	Kinds      []KindCount        `json:"kinds"`
	Components []ComponentSummary `json:"components"`
}

// Summarize counts entities per kind, most frequent first, and lists
// component types in document order.
func Summarize(ws *workspace.Workspace) *Summary {
	s := &Summary{
		Session:  ws.ID().String(),
		Autosar:  int(ws.Version()),
		Entities: ws.Len(),
	}
	counts := make(map[model.Kind]int)
	_ = ws.Walk(func(e model.Entity) error {
		counts[e.Kind()]++
		switch c := e.(type) {
		case *model.CompositionType:
			s.Components = append(s.Components, ComponentSummary{
				Path:         string(c.Path()),
				Kind:         string(c.Kind()),
				RequirePorts: len(c.RequirePorts),
				ProvidePorts: len(c.ProvidePorts),
				Prototypes:   len(c.Components),
				Connectors:   len(c.AssemblyConnectors) + len(c.DelegationConnectors),
			})
		case *model.ComponentType:
			cs := ComponentSummary{
				Path:         string(c.Path()),
				Kind:         string(c.Kind()),
				RequirePorts: len(c.RequirePorts),
				ProvidePorts: len(c.ProvidePorts),
			}
			if b, ok := ws.BehaviorOf(c.Path()); ok {
				cs.Runnables = len(b.Runnables)
				cs.Events = len(b.Events)
			}
			s.Components = append(s.Components, cs)
		}
		return nil
	})

	for k, n := range counts {
		s.Kinds = append(s.Kinds, KindCount{Kind: k, Count: n})
	}
	sort.Slice(s.Kinds, func(i, j int) bool {
		if s.Kinds[i].Count != s.Kinds[j].Count {
			return s.Kinds[i].Count > s.Kinds[j].Count
		}
		return s.Kinds[i].Kind < s.Kinds[j].Kind
	})
	return s
}

// String renders the summary as aligned text.
func (s *Summary) String() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Session %s (AUTOSAR %d): %d entities\n", s.Session, s.Autosar, s.Entities))
	if len(s.Components) > 0 {
		sb.WriteString("\nComponents:\n")
		for _, c := range s.Components {
			line := fmt.Sprintf("  %-40s %-36s R=%d P=%d", c.Path, c.Kind, c.RequirePorts, c.ProvidePorts)
			if c.Runnables > 0 || c.Events > 0 {
				line += fmt.Sprintf(" runnables=%d events=%d", c.Runnables, c.Events)
			}
			if c.Prototypes > 0 || c.Connectors > 0 {
				line += fmt.Sprintf(" prototypes=%d connectors=%d", c.Prototypes, c.Connectors)
			}
			sb.WriteString(line + "\n")
		}
	}
	sb.WriteString("\nKinds:\n")
	for _, k := range s.Kinds {
		sb.WriteString(fmt.Sprintf("  %-40s %d\n", k.Kind, k.Count))
	}
	return sb.String()
}
