package model

import (
	arerrors "autosar/internal/errors"
	"autosar/internal/ref"
)

// ComponentFromProjection rebuilds a component or composition type from its
// projection. It accepts projections produced by Project as well as their
// decoded JSON, YAML or CBOR form. The nested behavior is not rebuilt.
func ComponentFromProjection(owner Owner, p map[string]any) (PortOwner, error) {
	name := stringOf(p, "name")
	if name == "" {
		return nil, arerrors.Invalid("component projection has no name")
	}
	var (
		c    PortOwner
		comp *CompositionType
	)
	switch t := Kind(stringOf(p, "type")); t {
	case KindApplicationComponent:
		c = NewApplicationComponent(owner, name)
	case KindCDDComponent:
		c = NewComplexDeviceDriverComponent(owner, name)
	case KindComposition:
		comp = NewCompositionType(owner, name)
		c = comp
	default:
		return nil, arerrors.Invalid("projection type %q is not a component type", t)
	}

	for _, key := range []string{"requirePorts", "providePorts"} {
		for _, pp := range listOf(p[key]) {
			port, err := portFromProjection(c, pp)
			if err != nil {
				return nil, err
			}
			c.AddPort(port)
		}
	}
	if comp == nil {
		return c, nil
	}

	for _, cp := range listOf(p["components"]) {
		comp.AddComponent(NewComponentPrototype(comp, stringOf(cp, "name"), refOf(cp, "typeRef")))
	}
	for _, ap := range listOf(p["assemblyConnectors"]) {
		prov := mapOf(ap["providerInstanceRef"])
		req := mapOf(ap["requesterInstanceRef"])
		conn, err := NewAssemblyConnector(comp, stringOf(ap, "name"),
			ProviderInstanceRef{ComponentRef: refOf(prov, "componentRef"), ProvidePortRef: refOf(prov, "providePortRef")},
			RequesterInstanceRef{ComponentRef: refOf(req, "componentRef"), RequirePortRef: refOf(req, "requirePortRef")})
		if err != nil {
			return nil, err
		}
		comp.AddAssemblyConnector(conn)
	}
	for _, dp := range listOf(p["delegationConnectors"]) {
		inner := mapOf(dp["innerPortInstanceRef"])
		conn, err := NewDelegationConnector(comp, stringOf(dp, "name"),
			InnerPortInstanceRef{ComponentRef: refOf(inner, "componentRef"), PortRef: refOf(inner, "portRef")},
			refOf(dp, "outerPortRef"))
		if err != nil {
			return nil, err
		}
		comp.AddDelegationConnector(conn)
	}
	return comp, nil
}

func portFromProjection(owner Owner, p map[string]any) (*Port, error) {
	var port *Port
	name, iface := stringOf(p, "name"), refOf(p, "portInterfaceRef")
	switch t := Kind(stringOf(p, "type")); t {
	case KindRequirePort:
		port = NewRequirePort(owner, name, iface)
	case KindProvidePort:
		port = NewProvidePort(owner, name, iface)
	default:
		return nil, arerrors.Invalid("projection type %q is not a port", t)
	}
	for _, cp := range listOf(p["comspec"]) {
		cs, err := comSpecFromProjection(cp)
		if err != nil {
			return nil, err
		}
		port.AddComSpec(cs)
	}
	return port, nil
}

func comSpecFromProjection(p map[string]any) (ComSpec, error) {
	name := stringOf(p, "name")
	switch t := Kind(stringOf(p, "type")); t {
	case KindDataElementComSpec:
		cs := &DataElementComSpec{Name: name, InitValueRef: refOf(p, "initValueRef"), InitValue: stringOf(p, "initValue")}
		if err := cs.SetAliveTimeout(p["aliveTimeout"]); err != nil {
			return nil, err
		}
		if err := cs.SetQueueLength(p["queueLength"]); err != nil {
			return nil, err
		}
		return cs, nil
	case KindOperationComSpec:
		cs := &OperationComSpec{Name: name}
		return cs, cs.SetQueueLength(p["queueLength"])
	case KindModeSwitchComSpec:
		cs := &ModeSwitchComSpec{Name: name}
		return cs, cs.SetQueueLength(p["queueLength"])
	default:
		return nil, arerrors.Invalid("projection type %q is not a comspec", t)
	}
}

func mapOf(v any) map[string]any {
	switch m := v.(type) {
	case Projection:
		return m
	case map[string]any:
		return m
	case map[any]any:
		out := make(map[string]any, len(m))
		for k, val := range m {
			if s, ok := k.(string); ok {
				out[s] = val
			}
		}
		return out
	}
	return nil
}

func listOf(v any) []map[string]any {
	var out []map[string]any
	switch l := v.(type) {
	case []Projection:
		for _, item := range l {
			out = append(out, item)
		}
	case []map[string]any:
		out = l
	case []any:
		for _, item := range l {
			if m := mapOf(item); m != nil {
				out = append(out, m)
			}
		}
	}
	return out
}

func stringOf(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return s
}

func refOf(m map[string]any, key string) ref.Path {
	return ref.Path(stringOf(m, key))
}
