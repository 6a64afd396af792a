package model

import "autosar/internal/ref"

// DataType is any data type declaration. The model only needs data types as
// reference targets, so the source tag and category are kept verbatim.
type DataType struct {
	node
	Tag      string
	Category string
}

func NewDataType(owner Owner, name, tag, category string) *DataType {
	return &DataType{node: newNode(owner, name), Tag: tag, Category: category}
}

func (d *DataType) Kind() Kind { return KindDataType }

func (d *DataType) Project() Projection {
	p := newProjection(d.Kind(), d.name)
	p.setString("tag", d.Tag)
	p.setString("category", d.Category)
	return p
}

// ConstantValue is the value of a constant specification. AUTOSAR 3 literals
// carry a TypeRef; AUTOSAR 4 value specifications are Untyped.
type ConstantValue struct {
	Tag     string
	TypeRef ref.Path
	Literal string
	Untyped bool
}

// Constant is a CONSTANT-SPECIFICATION.
type Constant struct {
	node
	Value ConstantValue
}

func NewConstant(owner Owner, name string, value ConstantValue) *Constant {
	return &Constant{node: newNode(owner, name), Value: value}
}

func (c *Constant) Kind() Kind { return KindConstant }

func (c *Constant) Project() Projection {
	p := newProjection(c.Kind(), c.name)
	v := Projection{}
	v.setString("tag", c.Value.Tag)
	v.setRef("typeRef", c.Value.TypeRef)
	v.setString("value", c.Value.Literal)
	if c.Value.Untyped {
		v["untyped"] = true
	}
	if len(v) > 0 {
		p["value"] = v
	}
	return p
}
