package model

import (
	"strings"

	arerrors "autosar/internal/errors"
	"autosar/internal/ref"
)

// Event starts a runnable. The variants are InitEvent, ModeSwitchEvent,
// TimingEvent, DataReceivedEvent and OperationInvokedEvent.
type Event interface {
	Entity
	StartOnEventRef() ref.Path
	ModeDependency() *ModeDependency
	event()
}

// ModeInstanceRef addresses a mode of a mode group through a port.
type ModeInstanceRef struct {
	ModeDeclarationRef ref.Path
	ModeGroupRef       ref.Path
	PortRef            ref.Path
}

func (m ModeInstanceRef) Project() Projection {
	p := newProjection("ModeInstanceRef", "")
	p.setRef("modeDeclarationRef", m.ModeDeclarationRef)
	p.setRef("modeGroupRef", m.ModeGroupRef)
	p.setRef("portRef", m.PortRef)
	return p
}

// ModeDependency gates an event on a set of modes. Disabled marks the AUTOSAR 4
// DISABLED-MODE-IREFS form, where the listed modes suppress the event instead.
type ModeDependency struct {
	Disabled         bool
	ModeInstanceRefs []ModeInstanceRef
}

func (m *ModeDependency) Project() Projection {
	p := newProjection("ModeDependency", "")
	if m.Disabled {
		p["disabled"] = true
	}
	p.setList("modeInstanceRefs", projectAll(m.ModeInstanceRefs))
	return p
}

// DataInstanceRef addresses a data element through a port.
type DataInstanceRef struct {
	PortRef        ref.Path
	DataElementRef ref.Path
}

func (d DataInstanceRef) Project() Projection {
	p := newProjection("DataInstanceRef", "")
	p.setRef("portRef", d.PortRef)
	p.setRef("dataElemRef", d.DataElementRef)
	return p
}

type eventBase struct {
	node
	StartOnEvent ref.Path
	Dependency   *ModeDependency
}

func (e *eventBase) event()                          {}
func (e *eventBase) StartOnEventRef() ref.Path       { return e.StartOnEvent }
func (e *eventBase) ModeDependency() *ModeDependency { return e.Dependency }

func (e *eventBase) project(kind Kind) Projection {
	p := newProjection(kind, e.name)
	p.setRef("startOnEventRef", e.StartOnEvent)
	if e.Dependency != nil {
		p["modeDependency"] = e.Dependency.Project()
	}
	return p
}

type InitEvent struct{ eventBase }

func NewInitEvent(owner Owner, name string, startOnEvent ref.Path) *InitEvent {
	return &InitEvent{eventBase{node: newNode(owner, name), StartOnEvent: startOnEvent}}
}

func (e *InitEvent) Kind() Kind          { return KindInitEvent }
func (e *InitEvent) Project() Projection { return e.project(e.Kind()) }

// ModeActivation selects the mode transition that fires a ModeSwitchEvent.
type ModeActivation string

const (
	ActivationEntry      ModeActivation = "ENTRY"
	ActivationExit       ModeActivation = "EXIT"
	ActivationTransition ModeActivation = "TRANSITION"
)

// ParseModeActivation accepts both the AUTOSAR 3 (ENTRY) and AUTOSAR 4
// (ON-ENTRY) spellings.
func ParseModeActivation(s string) (ModeActivation, error) {
	switch strings.TrimPrefix(strings.TrimSpace(s), "ON-") {
	case "ENTRY":
		return ActivationEntry, nil
	case "EXIT":
		return ActivationExit, nil
	case "TRANSITION":
		return ActivationTransition, nil
	}
	return "", arerrors.Invalid("unknown mode activation kind %q", s)
}

type ModeSwitchEvent struct {
	eventBase
	Activation       ModeActivation
	ModeInstanceRefs []ModeInstanceRef
}

func NewModeSwitchEvent(owner Owner, name string, startOnEvent ref.Path, activation ModeActivation) *ModeSwitchEvent {
	return &ModeSwitchEvent{eventBase: eventBase{node: newNode(owner, name), StartOnEvent: startOnEvent}, Activation: activation}
}

func (e *ModeSwitchEvent) Kind() Kind { return KindModeSwitchEvent }

func (e *ModeSwitchEvent) Project() Projection {
	p := e.project(e.Kind())
	p.setString("activationType", string(e.Activation))
	p.setList("modeInstanceRefs", projectAll(e.ModeInstanceRefs))
	return p
}

// TimingEvent fires periodically. PeriodMs is in milliseconds.
type TimingEvent struct {
	eventBase
	PeriodMs float64
}

func NewTimingEvent(owner Owner, name string, startOnEvent ref.Path, periodMs float64) *TimingEvent {
	return &TimingEvent{eventBase: eventBase{node: newNode(owner, name), StartOnEvent: startOnEvent}, PeriodMs: periodMs}
}

func (e *TimingEvent) Kind() Kind { return KindTimingEvent }

func (e *TimingEvent) Project() Projection {
	p := e.project(e.Kind())
	p["period"] = e.PeriodMs
	return p
}

type DataReceivedEvent struct {
	eventBase
	DataInstanceRef DataInstanceRef
}

func NewDataReceivedEvent(owner Owner, name string, startOnEvent ref.Path, data DataInstanceRef) *DataReceivedEvent {
	return &DataReceivedEvent{eventBase: eventBase{node: newNode(owner, name), StartOnEvent: startOnEvent}, DataInstanceRef: data}
}

func (e *DataReceivedEvent) Kind() Kind { return KindDataReceivedEvent }

func (e *DataReceivedEvent) Project() Projection {
	p := e.project(e.Kind())
	p["dataInstanceRef"] = e.DataInstanceRef.Project()
	return p
}

type OperationInvokedEvent struct {
	eventBase
	OperationInstanceRef OperationInstanceRef
}

func NewOperationInvokedEvent(owner Owner, name string, startOnEvent ref.Path, op OperationInstanceRef) *OperationInvokedEvent {
	return &OperationInvokedEvent{eventBase: eventBase{node: newNode(owner, name), StartOnEvent: startOnEvent}, OperationInstanceRef: op}
}

func (e *OperationInvokedEvent) Kind() Kind { return KindOperationInvokedEvent }

func (e *OperationInvokedEvent) Project() Projection {
	p := e.project(e.Kind())
	p["operationInstanceRef"] = e.OperationInstanceRef.Project()
	return p
}

// SetModeDependency attaches a mode dependency. Init events cannot be mode gated.
func SetModeDependency(e Event, dep *ModeDependency) error {
	switch ev := e.(type) {
	case *InitEvent:
		return arerrors.Structural("init event '%s' cannot carry a mode dependency", ev.Name()).AtPath(string(ev.Path()))
	case *ModeSwitchEvent:
		ev.Dependency = dep
	case *TimingEvent:
		ev.Dependency = dep
	case *DataReceivedEvent:
		ev.Dependency = dep
	case *OperationInvokedEvent:
		ev.Dependency = dep
	}
	return nil
}

var (
	_ Event = (*InitEvent)(nil)
	_ Event = (*ModeSwitchEvent)(nil)
	_ Event = (*TimingEvent)(nil)
	_ Event = (*DataReceivedEvent)(nil)
	_ Event = (*OperationInvokedEvent)(nil)
)
