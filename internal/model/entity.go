// Package model defines the software-component architecture graph built from ARXML.
//
// # Ownership
//
// Entities form a strict ownership tree: a package owns its elements, a component
// owns its ports, a behavior owns its runnables. The owner back-pointer only serves
// to derive an entity's absolute path:
//
//	/Pkg                     Package
//	/Pkg/Sensor              ComponentType
//	/Pkg/Sensor/PValue       Port
//	/Pkg/SensorBehavior/Run  RunnableEntity
//
// Every other relationship (port → interface, prototype → component type,
// runnable → port) is a ref.Path resolved lazily through a Finder, usually the
// workspace. The graph therefore has no ownership cycles.
//
// # Projection
//
// Each entity exposes Project(), a type-tagged map of its documented fields that
// mirrors document order and omits empty optional collections. Projections feed
// the export and storage layers.
package model

import (
	"autosar/internal/ref"
)

// Kind tags each entity variant.
type Kind string

const (
	KindPackage Kind = "Package"

	KindDataType             Kind = "DataType"
	KindConstant             Kind = "Constant"
	KindSenderReceiverIface  Kind = "SenderReceiverInterface"
	KindClientServerIface    Kind = "ClientServerInterface"
	KindModeSwitchIface      Kind = "ModeSwitchInterface"
	KindDataElement          Kind = "DataElement"
	KindOperation            Kind = "Operation"
	KindArgument             Kind = "Argument"
	KindModeGroup            Kind = "ModeGroup"
	KindModeDeclarationGroup Kind = "ModeDeclarationGroup"
	KindModeDeclaration      Kind = "ModeDeclaration"

	KindApplicationComponent Kind = "ApplicationSoftwareComponent"
	KindCDDComponent         Kind = "ComplexDeviceDriverSoftwareComponent"
	KindComposition          Kind = "CompositionType"
	KindRequirePort          Kind = "RequirePort"
	KindProvidePort          Kind = "ProvidePort"
	KindComponentPrototype   Kind = "ComponentPrototype"
	KindAssemblyConnector    Kind = "AssemblyConnector"
	KindDelegationConnector  Kind = "DelegationConnector"

	KindDataElementComSpec Kind = "DataElementComSpec"
	KindOperationComSpec   Kind = "OperationComSpec"
	KindModeSwitchComSpec  Kind = "ModeSwitchComSpec"

	KindInternalBehavior      Kind = "InternalBehavior"
	KindSwcImplementation     Kind = "SwcImplementation"
	KindRunnableEntity        Kind = "RunnableEntity"
	KindDataReceivePoint      Kind = "DataReceivePoint"
	KindDataSendPoint         Kind = "DataSendPoint"
	KindSyncServerCallPoint   Kind = "SyncServerCallPoint"
	KindModeAccessPoint       Kind = "ModeAccessPoint"
	KindInitEvent             Kind = "InitEvent"
	KindModeSwitchEvent       Kind = "ModeSwitchEvent"
	KindTimingEvent           Kind = "TimingEvent"
	KindDataReceivedEvent     Kind = "DataReceivedEvent"
	KindOperationInvokedEvent Kind = "OperationInvokedEvent"
	KindExclusiveArea         Kind = "ExclusiveArea"
	KindPerInstanceMemory     Kind = "PerInstanceMemory"
	KindCalPrmElemPrototype   Kind = "CalPrmElemPrototype"
	KindSwcNvBlockNeeds       Kind = "SwcNvBlockNeeds"
)

// Entity is a path-addressable node of the model.
type Entity interface {
	Name() string
	Path() ref.Path
	Kind() Kind
	Project() Projection
}

// Owner is anything that can own named children.
type Owner interface {
	Path() ref.Path
}

// Finder resolves absolute paths. The workspace implements it; lookups never fail,
// absence is reported through the boolean.
type Finder interface {
	Find(p ref.Path) (Entity, bool)
}

// node carries the name and owner shared by every entity.
type node struct {
	name  string
	owner Owner
}

func newNode(owner Owner, name string) node {
	return node{name: name, owner: owner}
}

// Name returns the short name.
func (n *node) Name() string {
	return n.name
}

// Path derives the absolute path from the owner chain.
func (n *node) Path() ref.Path {
	if n.owner == nil {
		return ref.Root.Join(n.name)
	}
	return n.owner.Path().Join(n.name)
}

// Owner returns the structural parent, nil for root packages.
func (n *node) Owner() Owner {
	return n.owner
}

// Projection is the type-tagged structural view of an entity.
type Projection map[string]any

func newProjection(kind Kind, name string) Projection {
	p := Projection{"type": string(kind)}
	if name != "" {
		p["name"] = name
	}
	return p
}

func (p Projection) setRef(key string, r ref.Path) {
	if !r.IsZero() {
		p[key] = string(r)
	}
}

func (p Projection) setString(key, v string) {
	if v != "" {
		p[key] = v
	}
}

func (p Projection) setInt(key string, v *int) {
	if v != nil {
		p[key] = *v
	}
}

func (p Projection) setList(key string, items []Projection) {
	if len(items) > 0 {
		p[key] = items
	}
}

func (p Projection) setRefs(key string, refs []ref.Path) {
	if len(refs) == 0 {
		return
	}
	out := make([]string, len(refs))
	for i, r := range refs {
		out[i] = string(r)
	}
	p[key] = out
}

// Type returns the variant tag.
func (p Projection) Type() string {
	s, _ := p["type"].(string)
	return s
}

type projector interface {
	Project() Projection
}

func projectAll[T projector](items []T) []Projection {
	if len(items) == 0 {
		return nil
	}
	out := make([]Projection, len(items))
	for i, item := range items {
		out[i] = item.Project()
	}
	return out
}
