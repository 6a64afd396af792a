package model

import "autosar/internal/ref"

// PortInterface is implemented by every interface kind a port can reference.
type PortInterface interface {
	Entity
	IsServiceInterface() bool
}

// DataElement is a data element prototype of a sender-receiver interface.
type DataElement struct {
	node
	TypeRef  ref.Path
	IsQueued bool
}

func NewDataElement(owner Owner, name string, typeRef ref.Path, queued bool) *DataElement {
	return &DataElement{node: newNode(owner, name), TypeRef: typeRef, IsQueued: queued}
}

func (d *DataElement) Kind() Kind { return KindDataElement }

func (d *DataElement) Project() Projection {
	p := newProjection(d.Kind(), d.name)
	p.setRef("typeRef", d.TypeRef)
	if d.IsQueued {
		p["isQueued"] = true
	}
	return p
}

// ModeGroup is a mode declaration group prototype inside an interface.
type ModeGroup struct {
	node
	TypeRef ref.Path
}

func NewModeGroup(owner Owner, name string, typeRef ref.Path) *ModeGroup {
	return &ModeGroup{node: newNode(owner, name), TypeRef: typeRef}
}

func (m *ModeGroup) Kind() Kind { return KindModeGroup }

func (m *ModeGroup) Project() Projection {
	p := newProjection(m.Kind(), m.name)
	p.setRef("typeRef", m.TypeRef)
	return p
}

// SenderReceiverInterface declares data elements in declaration order. In AUTOSAR 3
// it may also carry mode groups.
type SenderReceiverInterface struct {
	node
	IsService    bool
	DataElements []*DataElement
	ModeGroups   []*ModeGroup
}

func NewSenderReceiverInterface(owner Owner, name string, isService bool) *SenderReceiverInterface {
	return &SenderReceiverInterface{node: newNode(owner, name), IsService: isService}
}

func (s *SenderReceiverInterface) Kind() Kind              { return KindSenderReceiverIface }
func (s *SenderReceiverInterface) IsServiceInterface() bool { return s.IsService }

// DataElement returns the data element with the given name, or nil.
func (s *SenderReceiverInterface) DataElement(name string) *DataElement {
	for _, d := range s.DataElements {
		if d.name == name {
			return d
		}
	}
	return nil
}

// ModeGroup returns the mode group with the given name, or nil.
func (s *SenderReceiverInterface) ModeGroup(name string) *ModeGroup {
	for _, m := range s.ModeGroups {
		if m.name == name {
			return m
		}
	}
	return nil
}

func (s *SenderReceiverInterface) Project() Projection {
	p := newProjection(s.Kind(), s.name)
	if s.IsService {
		p["isService"] = true
	}
	p.setList("dataElements", projectAll(s.DataElements))
	p.setList("modeGroups", projectAll(s.ModeGroups))
	return p
}

// Argument is an operation argument.
type Argument struct {
	node
	TypeRef   ref.Path
	Direction string
}

func NewArgument(owner Owner, name string, typeRef ref.Path, direction string) *Argument {
	return &Argument{node: newNode(owner, name), TypeRef: typeRef, Direction: direction}
}

func (a *Argument) Kind() Kind { return KindArgument }

func (a *Argument) Project() Projection {
	p := newProjection(a.Kind(), a.name)
	p.setRef("typeRef", a.TypeRef)
	p.setString("direction", a.Direction)
	return p
}

// Operation is a client-server operation.
type Operation struct {
	node
	Arguments         []*Argument
	PossibleErrorRefs []ref.Path
}

func NewOperation(owner Owner, name string) *Operation {
	return &Operation{node: newNode(owner, name)}
}

func (o *Operation) Kind() Kind { return KindOperation }

func (o *Operation) Project() Projection {
	p := newProjection(o.Kind(), o.name)
	p.setList("arguments", projectAll(o.Arguments))
	p.setRefs("possibleErrorRefs", o.PossibleErrorRefs)
	return p
}

// ClientServerInterface declares operations in declaration order.
type ClientServerInterface struct {
	node
	IsService  bool
	Operations []*Operation
}

func NewClientServerInterface(owner Owner, name string, isService bool) *ClientServerInterface {
	return &ClientServerInterface{node: newNode(owner, name), IsService: isService}
}

func (c *ClientServerInterface) Kind() Kind              { return KindClientServerIface }
func (c *ClientServerInterface) IsServiceInterface() bool { return c.IsService }

// Operation returns the operation with the given name, or nil.
func (c *ClientServerInterface) Operation(name string) *Operation {
	for _, o := range c.Operations {
		if o.name == name {
			return o
		}
	}
	return nil
}

func (c *ClientServerInterface) Project() Projection {
	p := newProjection(c.Kind(), c.name)
	if c.IsService {
		p["isService"] = true
	}
	p.setList("operations", projectAll(c.Operations))
	return p
}

// ModeSwitchInterface is the AUTOSAR 4 interface carrying exactly one mode group.
type ModeSwitchInterface struct {
	node
	IsService bool
	ModeGroup *ModeGroup
}

func NewModeSwitchInterface(owner Owner, name string, isService bool) *ModeSwitchInterface {
	return &ModeSwitchInterface{node: newNode(owner, name), IsService: isService}
}

func (m *ModeSwitchInterface) Kind() Kind              { return KindModeSwitchIface }
func (m *ModeSwitchInterface) IsServiceInterface() bool { return m.IsService }

func (m *ModeSwitchInterface) Project() Projection {
	p := newProjection(m.Kind(), m.name)
	if m.IsService {
		p["isService"] = true
	}
	if m.ModeGroup != nil {
		p["modeGroup"] = m.ModeGroup.Project()
	}
	return p
}

// ModeDeclaration is a single mode.
type ModeDeclaration struct {
	node
}

func NewModeDeclaration(owner Owner, name string) *ModeDeclaration {
	return &ModeDeclaration{node: newNode(owner, name)}
}

func (m *ModeDeclaration) Kind() Kind { return KindModeDeclaration }

func (m *ModeDeclaration) Project() Projection {
	return newProjection(m.Kind(), m.name)
}

// ModeDeclarationGroup declares the modes of a mode machine.
type ModeDeclarationGroup struct {
	node
	Modes          []*ModeDeclaration
	InitialModeRef ref.Path
}

func NewModeDeclarationGroup(owner Owner, name string) *ModeDeclarationGroup {
	return &ModeDeclarationGroup{node: newNode(owner, name)}
}

func (m *ModeDeclarationGroup) Kind() Kind { return KindModeDeclarationGroup }

func (m *ModeDeclarationGroup) Project() Projection {
	p := newProjection(m.Kind(), m.name)
	p.setList("modes", projectAll(m.Modes))
	p.setRef("initialModeRef", m.InitialModeRef)
	return p
}

var (
	_ PortInterface = (*SenderReceiverInterface)(nil)
	_ PortInterface = (*ClientServerInterface)(nil)
	_ PortInterface = (*ModeSwitchInterface)(nil)
)
