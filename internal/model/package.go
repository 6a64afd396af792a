package model

// Package is an AR-PACKAGE: an ordered list of elements plus nested packages.
type Package struct {
	node
	Elements    []Entity
	SubPackages []*Package
}

// NewPackage creates a package below parent; a nil parent makes a root package.
func NewPackage(parent *Package, name string) *Package {
	if parent == nil {
		return &Package{node: newNode(nil, name)}
	}
	return &Package{node: newNode(parent, name)}
}

func (p *Package) Kind() Kind { return KindPackage }

// ReserveElements appends n empty element slots and returns the index of the
// first one. Elements parsed out of document order are placed into these slots.
func (p *Package) ReserveElements(n int) int {
	base := len(p.Elements)
	p.Elements = append(p.Elements, make([]Entity, n)...)
	return base
}

// PlaceElement stores e at its document position i.
func (p *Package) PlaceElement(i int, e Entity) {
	p.Elements[i] = e
}

// CompactElements drops slots of elements that were recognized but not modeled.
func (p *Package) CompactElements() {
	out := p.Elements[:0]
	for _, e := range p.Elements {
		if e != nil {
			out = append(out, e)
		}
	}
	p.Elements = out
}

// AddSubPackage attaches a nested package.
func (p *Package) AddSubPackage(sub *Package) {
	p.SubPackages = append(p.SubPackages, sub)
}

// Element returns the element with the given short name.
func (p *Package) Element(name string) Entity {
	for _, e := range p.Elements {
		if e != nil && e.Name() == name {
			return e
		}
	}
	return nil
}

func (p *Package) Project() Projection {
	out := newProjection(p.Kind(), p.name)
	out.setList("elements", projectAll(p.Elements))
	out.setList("subPackages", projectAll(p.SubPackages))
	return out
}
