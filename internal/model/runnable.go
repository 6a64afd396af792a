package model

import "autosar/internal/ref"

// RunnableEntity is a unit of executable logic started by events.
type RunnableEntity struct {
	node
	CanBeInvokedConcurrently bool
	Symbol                   string
	// MinimumStartInterval is in milliseconds.
	MinimumStartInterval *float64
	DataReceivePoints    []*DataReceivePoint
	DataSendPoints       []*DataSendPoint
	ServerCallPoints     []*SyncServerCallPoint
	ExclusiveAreaRefs    []ref.Path
	ModeAccessPoints     []*ModeAccessPoint
}

func NewRunnableEntity(owner Owner, name string, concurrent bool, symbol string) *RunnableEntity {
	return &RunnableEntity{node: newNode(owner, name), CanBeInvokedConcurrently: concurrent, Symbol: symbol}
}

func (r *RunnableEntity) Kind() Kind { return KindRunnableEntity }

func (r *RunnableEntity) Project() Projection {
	p := newProjection(r.Kind(), r.name)
	if r.CanBeInvokedConcurrently {
		p["canBeInvokedConcurrently"] = true
	}
	p.setString("symbol", r.Symbol)
	if r.MinimumStartInterval != nil {
		p["minimumStartInterval"] = *r.MinimumStartInterval
	}
	p.setList("dataReceivePoints", projectAll(r.DataReceivePoints))
	p.setList("dataSendPoints", projectAll(r.DataSendPoints))
	p.setList("serverCallPoints", projectAll(r.ServerCallPoints))
	p.setRefs("exclusiveAreaRefs", r.ExclusiveAreaRefs)
	p.setList("modeAccessPoints", projectAll(r.ModeAccessPoints))
	return p
}

// DataPoint is the port and data element pair shared by receive and send points.
type DataPoint struct {
	node
	PortRef        ref.Path
	DataElementRef ref.Path
}

func (d *DataPoint) project(kind Kind) Projection {
	p := newProjection(kind, d.name)
	p.setRef("portRef", d.PortRef)
	p.setRef("dataElemRef", d.DataElementRef)
	return p
}

// DataReceivePoint is a read access of a runnable.
type DataReceivePoint struct{ DataPoint }

func NewDataReceivePoint(owner Owner, name string, portRef, dataElementRef ref.Path) *DataReceivePoint {
	return &DataReceivePoint{DataPoint{node: newNode(owner, name), PortRef: portRef, DataElementRef: dataElementRef}}
}

func (d *DataReceivePoint) Kind() Kind          { return KindDataReceivePoint }
func (d *DataReceivePoint) Project() Projection { return d.project(d.Kind()) }

// DataSendPoint is a write access of a runnable.
type DataSendPoint struct{ DataPoint }

func NewDataSendPoint(owner Owner, name string, portRef, dataElementRef ref.Path) *DataSendPoint {
	return &DataSendPoint{DataPoint{node: newNode(owner, name), PortRef: portRef, DataElementRef: dataElementRef}}
}

func (d *DataSendPoint) Kind() Kind          { return KindDataSendPoint }
func (d *DataSendPoint) Project() Projection { return d.project(d.Kind()) }

// OperationInstanceRef addresses an operation through a port.
type OperationInstanceRef struct {
	PortRef      ref.Path
	OperationRef ref.Path
}

func (o OperationInstanceRef) Project() Projection {
	p := newProjection("OperationInstanceRef", "")
	p.setRef("portRef", o.PortRef)
	p.setRef("operationRef", o.OperationRef)
	return p
}

// SyncServerCallPoint is a synchronous client call. Timeout is in seconds.
type SyncServerCallPoint struct {
	node
	Timeout               float64
	OperationInstanceRefs []OperationInstanceRef
}

func NewSyncServerCallPoint(owner Owner, name string, timeout float64) *SyncServerCallPoint {
	return &SyncServerCallPoint{node: newNode(owner, name), Timeout: timeout}
}

func (s *SyncServerCallPoint) Kind() Kind { return KindSyncServerCallPoint }

func (s *SyncServerCallPoint) Project() Projection {
	p := newProjection(s.Kind(), s.name)
	p["timeout"] = s.Timeout
	p.setList("operationInstanceRefs", projectAll(s.OperationInstanceRefs))
	return p
}

// ModeAccessPoint grants a runnable read access to a mode group of a port.
type ModeAccessPoint struct {
	PortRef      ref.Path
	ModeGroupRef ref.Path
}

func (m *ModeAccessPoint) Project() Projection {
	p := newProjection(KindModeAccessPoint, "")
	p.setRef("portRef", m.PortRef)
	p.setRef("modeGroupRef", m.ModeGroupRef)
	return p
}
