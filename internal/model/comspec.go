package model

import (
	"math"
	"strconv"
	"strings"

	arerrors "autosar/internal/errors"
	"autosar/internal/ref"
)

// ComSpec is a communication specification attached to a port. The variants are
// DataElementComSpec, OperationComSpec and ModeSwitchComSpec.
type ComSpec interface {
	// ElementName is the interface member the spec configures.
	ElementName() string
	Kind() Kind
	Project() Projection
	comSpec()
}

// ComSpecRequest carries the raw values read from a comspec element. Name,
// InitValueRef, AliveTimeout and QueueLength may all be absent.
type ComSpecRequest struct {
	Name         string
	InitValueRef ref.Path
	InitValue    string
	AliveTimeout any
	QueueLength  any
}

// DataElementComSpec configures one data element of a sender-receiver port.
type DataElementComSpec struct {
	Name         string
	InitValueRef ref.Path
	// InitValue holds an inline literal (AUTOSAR 4 NUMERICAL-VALUE-SPECIFICATION and friends).
	InitValue    string
	aliveTimeout *int
	queueLength  *int
}

func (c *DataElementComSpec) comSpec()            {}
func (c *DataElementComSpec) ElementName() string { return c.Name }
func (c *DataElementComSpec) Kind() Kind          { return KindDataElementComSpec }

// AliveTimeout returns the alive timeout and whether it is set.
func (c *DataElementComSpec) AliveTimeout() (int, bool) { return deref(c.aliveTimeout) }

// QueueLength returns the queue length and whether it is set.
func (c *DataElementComSpec) QueueLength() (int, bool) { return deref(c.queueLength) }

// SetAliveTimeout accepts a string, integer, float or nil. Nil clears the value.
func (c *DataElementComSpec) SetAliveTimeout(v any) error {
	n, err := coerceInt("aliveTimeout", v)
	if err != nil {
		return err
	}
	c.aliveTimeout = n
	return nil
}

// SetQueueLength accepts a string, integer, float or nil. Nil clears the value.
func (c *DataElementComSpec) SetQueueLength(v any) error {
	n, err := coerceInt("queueLength", v)
	if err != nil {
		return err
	}
	c.queueLength = n
	return nil
}

func (c *DataElementComSpec) Project() Projection {
	p := newProjection(c.Kind(), c.Name)
	p.setRef("initValueRef", c.InitValueRef)
	p.setString("initValue", c.InitValue)
	p.setInt("aliveTimeout", c.aliveTimeout)
	p.setInt("queueLength", c.queueLength)
	return p
}

// OperationComSpec configures one operation of a client-server port.
type OperationComSpec struct {
	Name        string
	queueLength *int
}

func (c *OperationComSpec) comSpec()            {}
func (c *OperationComSpec) ElementName() string { return c.Name }
func (c *OperationComSpec) Kind() Kind          { return KindOperationComSpec }

func (c *OperationComSpec) QueueLength() (int, bool) { return deref(c.queueLength) }

func (c *OperationComSpec) SetQueueLength(v any) error {
	n, err := coerceInt("queueLength", v)
	if err != nil {
		return err
	}
	c.queueLength = n
	return nil
}

func (c *OperationComSpec) Project() Projection {
	p := newProjection(c.Kind(), c.Name)
	p.setInt("queueLength", c.queueLength)
	return p
}

// ModeSwitchComSpec configures the mode group of a mode-switch port.
type ModeSwitchComSpec struct {
	Name        string
	queueLength *int
}

func (c *ModeSwitchComSpec) comSpec()            {}
func (c *ModeSwitchComSpec) ElementName() string { return c.Name }
func (c *ModeSwitchComSpec) Kind() Kind          { return KindModeSwitchComSpec }

func (c *ModeSwitchComSpec) QueueLength() (int, bool) { return deref(c.queueLength) }

func (c *ModeSwitchComSpec) SetQueueLength(v any) error {
	n, err := coerceInt("queueLength", v)
	if err != nil {
		return err
	}
	c.queueLength = n
	return nil
}

func (c *ModeSwitchComSpec) Project() Projection {
	p := newProjection(c.Kind(), c.Name)
	p.setInt("queueLength", c.queueLength)
	return p
}

// HasNegative reports whether any numeric field of c is below zero.
func HasNegative(c ComSpec) bool {
	neg := func(v int, ok bool) bool { return ok && v < 0 }
	switch cs := c.(type) {
	case *DataElementComSpec:
		return neg(cs.AliveTimeout()) || neg(cs.QueueLength())
	case *OperationComSpec:
		return neg(cs.QueueLength())
	case *ModeSwitchComSpec:
		return neg(cs.QueueLength())
	}
	return false
}

func deref(v *int) (int, bool) {
	if v == nil {
		return 0, false
	}
	return *v, true
}

// coerceInt converts permissive numeric input to an optional integer.
// Floats are truncated toward zero; negative values are kept.
func coerceInt(field string, v any) (*int, error) {
	var n int
	switch x := v.(type) {
	case nil:
		return nil, nil
	case *int:
		return x, nil
	case int:
		n = x
	case int64:
		n = int(x)
	case uint64:
		n = int(x)
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return nil, arerrors.Invalid("%s is not a finite number", field)
		}
		n = int(x)
	case string:
		s := strings.TrimSpace(x)
		if s == "" {
			return nil, nil
		}
		i, err := strconv.Atoi(s)
		if err != nil {
			return nil, arerrors.NewModelError(arerrors.InvalidValue,
				field+" is not an integer: "+strconv.Quote(x), err)
		}
		n = i
	default:
		return nil, arerrors.Invalid("%s has unsupported type %T", field, v)
	}
	return &n, nil
}

var (
	_ ComSpec = (*DataElementComSpec)(nil)
	_ ComSpec = (*OperationComSpec)(nil)
	_ ComSpec = (*ModeSwitchComSpec)(nil)
)
