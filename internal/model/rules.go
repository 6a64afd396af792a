package model

import (
	arerrors "autosar/internal/errors"
	"autosar/internal/ref"
)

// ResolveInterface returns the port interface at p.
func ResolveInterface(f Finder, p ref.Path) (PortInterface, error) {
	e, ok := f.Find(p)
	if !ok {
		return nil, arerrors.Unresolved("port interface", string(p))
	}
	iface, ok := e.(PortInterface)
	if !ok {
		return nil, arerrors.TypeMismatch("reference is not a port interface", "PortInterface", string(e.Kind())).WithRef(string(p))
	}
	return iface, nil
}

// NewDataElementComSpec derives a data element comspec for a port typed by the
// interface at interfaceRef:
//
//  1. the interface must resolve;
//  2. an empty name defaults to the interface's first declared data element;
//  3. the name must exist in the interface;
//  4. an init value reference must resolve to a Constant whose value type
//     equals the data element type, unless the value is untyped (AUTOSAR 4);
//  5. numeric fields are coerced permissively.
func NewDataElementComSpec(f Finder, interfaceRef ref.Path, req ComSpecRequest) (*DataElementComSpec, error) {
	iface, err := ResolveInterface(f, interfaceRef)
	if err != nil {
		return nil, err
	}
	sr, ok := iface.(*SenderReceiverInterface)
	if !ok {
		return nil, arerrors.TypeMismatch("data element comspec on incompatible interface",
			string(KindSenderReceiverIface), string(iface.Kind())).WithRef(string(interfaceRef))
	}
	name := req.Name
	if name == "" {
		if len(sr.DataElements) == 0 {
			return nil, arerrors.Structural("interface '%s' declares no data elements", sr.Name()).WithRef(string(interfaceRef))
		}
		name = sr.DataElements[0].Name()
	}
	elem := sr.DataElement(name)
	if elem == nil {
		return nil, arerrors.UnknownMember("element", name, sr.Name()).WithRef(string(interfaceRef))
	}
	if !req.InitValueRef.IsZero() {
		if err := CheckInitValue(f, elem, req.InitValueRef); err != nil {
			return nil, err
		}
	}
	cs := &DataElementComSpec{Name: name, InitValueRef: req.InitValueRef, InitValue: req.InitValue}
	if err := cs.SetAliveTimeout(req.AliveTimeout); err != nil {
		return nil, err
	}
	if err := cs.SetQueueLength(req.QueueLength); err != nil {
		return nil, err
	}
	return cs, nil
}

// CheckInitValue verifies that r names a Constant compatible with elem.
// Untyped values are accepted for any element; a typed value, including one
// missing its TYPE-TREF, must match the element type exactly.
func CheckInitValue(f Finder, elem *DataElement, r ref.Path) error {
	e, ok := f.Find(r)
	if !ok {
		return arerrors.Unresolved("init value", string(r))
	}
	c, ok := e.(*Constant)
	if !ok {
		return arerrors.TypeMismatch("reference is not a Constant object", string(KindConstant), string(e.Kind())).WithRef(string(r))
	}
	if c.Value.Untyped || c.Value.TypeRef == elem.TypeRef {
		return nil
	}
	found := string(c.Value.TypeRef)
	if found == "" {
		found = "none"
	}
	return arerrors.TypeMismatch("constant value has different type from data element",
		string(elem.TypeRef), found).WithRef(string(r))
}

// NewOperationComSpec derives an operation comspec. An empty name defaults to the
// interface's first operation.
func NewOperationComSpec(f Finder, interfaceRef ref.Path, name string, queueLength any) (*OperationComSpec, error) {
	iface, err := ResolveInterface(f, interfaceRef)
	if err != nil {
		return nil, err
	}
	cs, ok := iface.(*ClientServerInterface)
	if !ok {
		return nil, arerrors.TypeMismatch("operation comspec on incompatible interface",
			string(KindClientServerIface), string(iface.Kind())).WithRef(string(interfaceRef))
	}
	if name == "" {
		if len(cs.Operations) == 0 {
			return nil, arerrors.Structural("interface '%s' declares no operations", cs.Name()).WithRef(string(interfaceRef))
		}
		name = cs.Operations[0].Name()
	}
	if cs.Operation(name) == nil {
		return nil, arerrors.UnknownMember("operation", name, cs.Name()).WithRef(string(interfaceRef))
	}
	out := &OperationComSpec{Name: name}
	if err := out.SetQueueLength(queueLength); err != nil {
		return nil, err
	}
	return out, nil
}

// NewModeSwitchComSpec derives a mode switch comspec. An empty name defaults to
// the interface's mode group.
func NewModeSwitchComSpec(f Finder, interfaceRef ref.Path, name string, queueLength any) (*ModeSwitchComSpec, error) {
	iface, err := ResolveInterface(f, interfaceRef)
	if err != nil {
		return nil, err
	}
	ms, ok := iface.(*ModeSwitchInterface)
	if !ok {
		return nil, arerrors.TypeMismatch("mode switch comspec on incompatible interface",
			string(KindModeSwitchIface), string(iface.Kind())).WithRef(string(interfaceRef))
	}
	if ms.ModeGroup == nil {
		return nil, arerrors.Structural("interface '%s' declares no mode group", ms.Name()).WithRef(string(interfaceRef))
	}
	if name == "" {
		name = ms.ModeGroup.Name()
	}
	if name != ms.ModeGroup.Name() {
		return nil, arerrors.UnknownMember("mode group", name, ms.Name()).WithRef(string(interfaceRef))
	}
	out := &ModeSwitchComSpec{Name: name}
	if err := out.SetQueueLength(queueLength); err != nil {
		return nil, err
	}
	return out, nil
}

// CheckComSpec re-runs the derivation rules for an existing comspec of a port.
func CheckComSpec(f Finder, interfaceRef ref.Path, c ComSpec) error {
	var err error
	switch cs := c.(type) {
	case *DataElementComSpec:
		_, err = NewDataElementComSpec(f, interfaceRef, ComSpecRequest{Name: cs.Name, InitValueRef: cs.InitValueRef})
	case *OperationComSpec:
		_, err = NewOperationComSpec(f, interfaceRef, cs.Name, nil)
	case *ModeSwitchComSpec:
		_, err = NewModeSwitchComSpec(f, interfaceRef, cs.Name, nil)
	}
	return err
}
