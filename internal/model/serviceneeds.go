package model

import (
	arerrors "autosar/internal/errors"
	"autosar/internal/ref"
)

// NvBlockReliability is the data protection required for an NV block.
type NvBlockReliability string

const (
	ReliabilityErrorCorrection NvBlockReliability = "ERROR-CORRECTION"
	ReliabilityErrorDetection  NvBlockReliability = "ERROR-DETECTION"
	ReliabilityNoProtection    NvBlockReliability = "NO-PROTECTION"
)

// ParseReliability maps the ARXML literal. An empty string means unset.
func ParseReliability(s string) (NvBlockReliability, error) {
	switch r := NvBlockReliability(s); r {
	case "", ReliabilityErrorCorrection, ReliabilityErrorDetection, ReliabilityNoProtection:
		return r, nil
	}
	return "", arerrors.Invalid("unknown NV block reliability %q", s)
}

// NvBlockWritingPriority is the write scheduling priority of an NV block.
type NvBlockWritingPriority string

const (
	WritingPriorityHigh   NvBlockWritingPriority = "HIGH"
	WritingPriorityMedium NvBlockWritingPriority = "MEDIUM"
	WritingPriorityLow    NvBlockWritingPriority = "LOW"
)

// ParseWritingPriority maps the ARXML literal. An empty string means unset.
func ParseWritingPriority(s string) (NvBlockWritingPriority, error) {
	switch w := NvBlockWritingPriority(s); w {
	case "", WritingPriorityHigh, WritingPriorityMedium, WritingPriorityLow:
		return w, nil
	}
	return "", arerrors.Invalid("unknown NV block writing priority %q", s)
}

// NvBlockPolicy is the persistence policy of an NV block need.
type NvBlockPolicy struct {
	NumberOfDataSets     *int
	ReadOnly             bool
	Reliability          NvBlockReliability
	ResistantToChangedSW bool
	RestoreAtStart       bool
	WriteOnlyOnce        bool
	WritingFrequency     *int
	WritingPriority      NvBlockWritingPriority
	DefaultBlockRef      ref.Path
	MirrorBlockRef       ref.Path
}

// RoleBasedRPortAssignment binds a service call port to a role of the need.
type RoleBasedRPortAssignment struct {
	PortRef ref.Path
	Role    string
}

func (r RoleBasedRPortAssignment) Project() Projection {
	p := newProjection("RoleBasedRPortAssignment", "")
	p.setRef("portRef", r.PortRef)
	p.setString("role", r.Role)
	return p
}

// SwcNvBlockNeeds describes a persistence requirement served by at least one port.
type SwcNvBlockNeeds struct {
	node
	NvBlockPolicy
	ServiceCallPorts []RoleBasedRPortAssignment
}

// NewSwcNvBlockNeeds fails with a structural violation when ports is empty.
func NewSwcNvBlockNeeds(owner Owner, name string, policy NvBlockPolicy, ports []RoleBasedRPortAssignment) (*SwcNvBlockNeeds, error) {
	n := &SwcNvBlockNeeds{node: newNode(owner, name), NvBlockPolicy: policy, ServiceCallPorts: ports}
	if len(ports) == 0 {
		return nil, arerrors.Structural("NV block needs '%s' has no service call ports", name).AtPath(string(n.Path()))
	}
	return n, nil
}

func (n *SwcNvBlockNeeds) Kind() Kind { return KindSwcNvBlockNeeds }

func (n *SwcNvBlockNeeds) Project() Projection {
	p := newProjection(n.Kind(), n.name)
	p.setInt("numberOfDataSets", n.NumberOfDataSets)
	p["readOnly"] = n.ReadOnly
	p.setString("reliability", string(n.Reliability))
	p["resistantToChangedSW"] = n.ResistantToChangedSW
	p["restoreAtStart"] = n.RestoreAtStart
	p["writeOnlyOnce"] = n.WriteOnlyOnce
	p.setInt("writingFrequency", n.WritingFrequency)
	p.setString("writingPriority", string(n.WritingPriority))
	p.setRef("defaultBlockRef", n.DefaultBlockRef)
	p.setRef("mirrorBlockRef", n.MirrorBlockRef)
	p.setList("serviceCallPorts", projectAll(n.ServiceCallPorts))
	return p
}
