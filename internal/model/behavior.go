package model

import "autosar/internal/ref"

// InternalBehavior is the executable side of a component. In AUTOSAR 3 it is a
// package element pointing at its component; in AUTOSAR 4 it is nested in the
// component and ComponentRef is the component's own path.
type InternalBehavior struct {
	node
	ComponentRef        ref.Path
	MultipleInstances   bool
	Events              []Event
	PortAPIOptions      []*PortAPIOption
	Runnables           []*RunnableEntity
	PerInstanceMemories []*PerInstanceMemory
	ExclusiveAreas      []*ExclusiveArea
	SharedCalPrms       []*CalPrmElemPrototype
	NvBlockNeeds        []*SwcNvBlockNeeds
	DataTypeMappingRefs []ref.Path
}

func NewInternalBehavior(owner Owner, name string, componentRef ref.Path, multipleInstances bool) *InternalBehavior {
	return &InternalBehavior{node: newNode(owner, name), ComponentRef: componentRef, MultipleInstances: multipleInstances}
}

func (b *InternalBehavior) Kind() Kind { return KindInternalBehavior }

// Runnable returns the runnable with the given name, or nil.
func (b *InternalBehavior) Runnable(name string) *RunnableEntity {
	for _, r := range b.Runnables {
		if r.name == name {
			return r
		}
	}
	return nil
}

// ExclusiveArea returns the exclusive area with the given name, or nil.
func (b *InternalBehavior) ExclusiveArea(name string) *ExclusiveArea {
	for _, e := range b.ExclusiveAreas {
		if e.name == name {
			return e
		}
	}
	return nil
}

// Event returns the event with the given name, or nil.
func (b *InternalBehavior) Event(name string) Event {
	for _, e := range b.Events {
		if e.Name() == name {
			return e
		}
	}
	return nil
}

func (b *InternalBehavior) Project() Projection {
	p := newProjection(b.Kind(), b.name)
	p.setRef("componentRef", b.ComponentRef)
	if b.MultipleInstances {
		p["multipleInstances"] = true
	}
	p.setList("events", projectAll(b.Events))
	p.setList("portAPIOptions", projectAll(b.PortAPIOptions))
	p.setList("runnables", projectAll(b.Runnables))
	p.setList("perInstanceMemories", projectAll(b.PerInstanceMemories))
	p.setList("exclusiveAreas", projectAll(b.ExclusiveAreas))
	p.setList("sharedCalPrms", projectAll(b.SharedCalPrms))
	p.setList("nvBlockNeeds", projectAll(b.NvBlockNeeds))
	p.setRefs("dataTypeMappingRefs", b.DataTypeMappingRefs)
	return p
}

// PortAPIOption tunes the generated API of one port.
type PortAPIOption struct {
	PortRef           ref.Path
	EnableTakeAddress bool
	IndirectAPI       bool
}

func (o *PortAPIOption) Project() Projection {
	p := newProjection("PortAPIOption", "")
	p.setRef("portRef", o.PortRef)
	p["enableTakeAddress"] = o.EnableTakeAddress
	p["indirectAPI"] = o.IndirectAPI
	return p
}

// ExclusiveArea is a mutual exclusion scope.
type ExclusiveArea struct {
	node
}

func NewExclusiveArea(owner Owner, name string) *ExclusiveArea {
	return &ExclusiveArea{node: newNode(owner, name)}
}

func (e *ExclusiveArea) Kind() Kind { return KindExclusiveArea }

func (e *ExclusiveArea) Project() Projection { return newProjection(e.Kind(), e.name) }

type PerInstanceMemory struct {
	node
	TypeDefinition string
}

func NewPerInstanceMemory(owner Owner, name, typeDefinition string) *PerInstanceMemory {
	return &PerInstanceMemory{node: newNode(owner, name), TypeDefinition: typeDefinition}
}

func (m *PerInstanceMemory) Kind() Kind { return KindPerInstanceMemory }

func (m *PerInstanceMemory) Project() Projection {
	p := newProjection(m.Kind(), m.name)
	p.setString("typeDefinition", m.TypeDefinition)
	return p
}

// CalPrmElemPrototype is a calibration parameter shared by all instances.
type CalPrmElemPrototype struct {
	node
	TypeRef          ref.Path
	SwAddrMethodRefs []ref.Path
}

func NewCalPrmElemPrototype(owner Owner, name string, typeRef ref.Path) *CalPrmElemPrototype {
	return &CalPrmElemPrototype{node: newNode(owner, name), TypeRef: typeRef}
}

func (c *CalPrmElemPrototype) Kind() Kind { return KindCalPrmElemPrototype }

func (c *CalPrmElemPrototype) Project() Projection {
	p := newProjection(c.Kind(), c.name)
	p.setRef("typeRef", c.TypeRef)
	p.setRefs("swAddrMethodRefs", c.SwAddrMethodRefs)
	return p
}

// SwcImplementation binds code to an internal behavior.
type SwcImplementation struct {
	node
	BehaviorRef         ref.Path
	ProgrammingLanguage string
	SwVersion           string
}

func NewSwcImplementation(owner Owner, name string, behaviorRef ref.Path) *SwcImplementation {
	return &SwcImplementation{node: newNode(owner, name), BehaviorRef: behaviorRef}
}

func (s *SwcImplementation) Kind() Kind { return KindSwcImplementation }

func (s *SwcImplementation) Project() Projection {
	p := newProjection(s.Kind(), s.name)
	p.setRef("behaviorRef", s.BehaviorRef)
	p.setString("programmingLanguage", s.ProgrammingLanguage)
	p.setString("swVersion", s.SwVersion)
	return p
}
