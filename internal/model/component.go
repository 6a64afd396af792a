package model

import (
	arerrors "autosar/internal/errors"
	"autosar/internal/ref"
)

// Port is a require- or provide-port of a component type. Its path is always
// the owning component's path plus its name.
type Port struct {
	node
	kind         Kind
	InterfaceRef ref.Path
	ComSpecs     []ComSpec
}

// NewRequirePort creates a require-port owned by owner.
func NewRequirePort(owner Owner, name string, interfaceRef ref.Path) *Port {
	return &Port{node: newNode(owner, name), kind: KindRequirePort, InterfaceRef: interfaceRef}
}

// NewProvidePort creates a provide-port owned by owner.
func NewProvidePort(owner Owner, name string, interfaceRef ref.Path) *Port {
	return &Port{node: newNode(owner, name), kind: KindProvidePort, InterfaceRef: interfaceRef}
}

func (p *Port) Kind() Kind { return p.kind }

// IsRequire reports whether p is a require-port.
func (p *Port) IsRequire() bool { return p.kind == KindRequirePort }

// AddComSpec appends a communication specification in document order.
func (p *Port) AddComSpec(c ComSpec) {
	p.ComSpecs = append(p.ComSpecs, c)
}

func (p *Port) Project() Projection {
	out := newProjection(p.kind, p.name)
	out.setRef("portInterfaceRef", p.InterfaceRef)
	out.setList("comspec", projectAll(p.ComSpecs))
	return out
}

// PortOwner is implemented by every port-bearing component type.
type PortOwner interface {
	Entity
	AddPort(p *Port)
	Port(name string) *Port
	Ports() []*Port
}

// ComponentType is an atomic software component type (application or complex
// device driver). Compositions embed it to share port handling.
type ComponentType struct {
	node
	kind         Kind
	RequirePorts []*Port
	ProvidePorts []*Port
	// Behavior is set for AUTOSAR 4 components, which nest their internal behavior.
	Behavior *InternalBehavior
}

// NewApplicationComponent creates an application software component type.
func NewApplicationComponent(owner Owner, name string) *ComponentType {
	return &ComponentType{node: newNode(owner, name), kind: KindApplicationComponent}
}

// NewComplexDeviceDriverComponent creates a complex device driver component type.
func NewComplexDeviceDriverComponent(owner Owner, name string) *ComponentType {
	return &ComponentType{node: newNode(owner, name), kind: KindCDDComponent}
}

func (c *ComponentType) Kind() Kind { return c.kind }

// AddPort appends p to the require or provide list depending on its direction.
func (c *ComponentType) AddPort(p *Port) {
	if p.IsRequire() {
		c.RequirePorts = append(c.RequirePorts, p)
	} else {
		c.ProvidePorts = append(c.ProvidePorts, p)
	}
}

// Port returns the port with the given name, require-ports first.
func (c *ComponentType) Port(name string) *Port {
	for _, p := range c.RequirePorts {
		if p.name == name {
			return p
		}
	}
	for _, p := range c.ProvidePorts {
		if p.name == name {
			return p
		}
	}
	return nil
}

// Ports returns require-ports followed by provide-ports.
func (c *ComponentType) Ports() []*Port {
	out := make([]*Port, 0, len(c.RequirePorts)+len(c.ProvidePorts))
	out = append(out, c.RequirePorts...)
	return append(out, c.ProvidePorts...)
}

func (c *ComponentType) projectPorts(out Projection) {
	out.setList("requirePorts", projectAll(c.RequirePorts))
	out.setList("providePorts", projectAll(c.ProvidePorts))
}

func (c *ComponentType) Project() Projection {
	out := newProjection(c.kind, c.name)
	c.projectPorts(out)
	if c.Behavior != nil {
		out["behavior"] = c.Behavior.Project()
	}
	return out
}

// CompositionType is a component type made of component prototypes wired by connectors.
type CompositionType struct {
	ComponentType
	Components           []*ComponentPrototype
	AssemblyConnectors   []*AssemblyConnector
	DelegationConnectors []*DelegationConnector
}

// NewCompositionType creates an empty composition.
func NewCompositionType(owner Owner, name string) *CompositionType {
	return &CompositionType{ComponentType: ComponentType{node: newNode(owner, name), kind: KindComposition}}
}

// Component returns the prototype with the given name, or nil.
func (c *CompositionType) Component(name string) *ComponentPrototype {
	for _, proto := range c.Components {
		if proto.name == name {
			return proto
		}
	}
	return nil
}

// componentAt returns the prototype addressed by an absolute path, provided it
// belongs to this composition.
func (c *CompositionType) componentAt(p ref.Path) *ComponentPrototype {
	parent, leaf := p.Split()
	if parent != c.Path() {
		return nil
	}
	return c.Component(leaf)
}

// AddComponent appends a prototype.
func (c *CompositionType) AddComponent(proto *ComponentPrototype) {
	c.Components = append(c.Components, proto)
}

// AddAssemblyConnector appends an assembly connector.
func (c *CompositionType) AddAssemblyConnector(conn *AssemblyConnector) {
	c.AssemblyConnectors = append(c.AssemblyConnectors, conn)
}

// AddDelegationConnector appends a delegation connector.
func (c *CompositionType) AddDelegationConnector(conn *DelegationConnector) {
	c.DelegationConnectors = append(c.DelegationConnectors, conn)
}

func (c *CompositionType) Project() Projection {
	out := newProjection(c.kind, c.name)
	c.projectPorts(out)
	out.setList("components", projectAll(c.Components))
	out.setList("assemblyConnectors", projectAll(c.AssemblyConnectors))
	out.setList("delegationConnectors", projectAll(c.DelegationConnectors))
	return out
}

// ComponentPrototype instantiates a component type inside a composition.
// TypeRef is resolved lazily; it need not exist while parsing.
type ComponentPrototype struct {
	node
	TypeRef ref.Path
}

func NewComponentPrototype(owner *CompositionType, name string, typeRef ref.Path) *ComponentPrototype {
	return &ComponentPrototype{node: newNode(owner, name), TypeRef: typeRef}
}

func (c *ComponentPrototype) Kind() Kind { return KindComponentPrototype }

func (c *ComponentPrototype) Project() Projection {
	out := newProjection(c.Kind(), c.name)
	out.setRef("typeRef", c.TypeRef)
	return out
}

// ProviderInstanceRef addresses a provide-port of a component prototype.
type ProviderInstanceRef struct {
	ComponentRef   ref.Path
	ProvidePortRef ref.Path
}

func (r ProviderInstanceRef) Project() Projection {
	out := newProjection("ProviderInstanceRef", "")
	out.setRef("componentRef", r.ComponentRef)
	out.setRef("providePortRef", r.ProvidePortRef)
	return out
}

// RequesterInstanceRef addresses a require-port of a component prototype.
type RequesterInstanceRef struct {
	ComponentRef   ref.Path
	RequirePortRef ref.Path
}

func (r RequesterInstanceRef) Project() Projection {
	out := newProjection("RequesterInstanceRef", "")
	out.setRef("componentRef", r.ComponentRef)
	out.setRef("requirePortRef", r.RequirePortRef)
	return out
}

// InnerPortInstanceRef addresses a port of a component prototype from inside a composition.
type InnerPortInstanceRef struct {
	ComponentRef ref.Path
	PortRef      ref.Path
}

func (r InnerPortInstanceRef) Project() Projection {
	out := newProjection("InnerPortInstanceRef", "")
	out.setRef("componentRef", r.ComponentRef)
	out.setRef("portRef", r.PortRef)
	return out
}

// AssemblyConnector wires a provide-port to a require-port between two prototypes.
type AssemblyConnector struct {
	node
	Provider  ProviderInstanceRef
	Requester RequesterInstanceRef
}

// NewAssemblyConnector creates a connector owned by comp. Both component
// prototypes must already exist in comp.
func NewAssemblyConnector(comp *CompositionType, name string, provider ProviderInstanceRef, requester RequesterInstanceRef) (*AssemblyConnector, error) {
	for _, r := range []ref.Path{provider.ComponentRef, requester.ComponentRef} {
		if comp.componentAt(r) == nil {
			return nil, arerrors.Unresolved("component prototype", string(r)).AtPath(string(comp.Path().Join(name)))
		}
	}
	return &AssemblyConnector{node: newNode(comp, name), Provider: provider, Requester: requester}, nil
}

func (a *AssemblyConnector) Kind() Kind { return KindAssemblyConnector }

func (a *AssemblyConnector) Project() Projection {
	out := newProjection(a.Kind(), a.name)
	out["providerInstanceRef"] = a.Provider.Project()
	out["requesterInstanceRef"] = a.Requester.Project()
	return out
}

// DelegationConnector exposes an inner prototype's port as the composition's own
// boundary port of the same name.
type DelegationConnector struct {
	node
	InnerPort    InnerPortInstanceRef
	OuterPortRef ref.Path
}

// NewDelegationConnector creates a connector owned by comp. A zero outerPortRef
// defaults to the composition port named like the inner port. The inner prototype
// and the outer port must exist, and the two port names must agree.
func NewDelegationConnector(comp *CompositionType, name string, inner InnerPortInstanceRef, outerPortRef ref.Path) (*DelegationConnector, error) {
	path := string(comp.Path().Join(name))
	if comp.componentAt(inner.ComponentRef) == nil {
		return nil, arerrors.Unresolved("component prototype", string(inner.ComponentRef)).AtPath(path)
	}
	innerName := inner.PortRef.Leaf()
	if outerPortRef.IsZero() {
		outerPortRef = comp.Path().Join(innerName)
	}
	parent, outerName := outerPortRef.Split()
	if parent != comp.Path() || comp.Port(outerName) == nil {
		return nil, arerrors.Unresolved("composition port", string(outerPortRef)).AtPath(path)
	}
	if outerName != innerName {
		return nil, arerrors.Structural("delegated port '%s' does not match outer port '%s'", innerName, outerName).AtPath(path)
	}
	return &DelegationConnector{node: newNode(comp, name), InnerPort: inner, OuterPortRef: outerPortRef}, nil
}

func (d *DelegationConnector) Kind() Kind { return KindDelegationConnector }

func (d *DelegationConnector) Project() Projection {
	out := newProjection(d.Kind(), d.name)
	out["innerPortInstanceRef"] = d.InnerPort.Project()
	out.setRef("outerPortRef", d.OuterPortRef)
	return out
}

var (
	_ PortOwner = (*ComponentType)(nil)
	_ PortOwner = (*CompositionType)(nil)
)
