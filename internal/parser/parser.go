// Package parser builds the unified model from ARXML element trees.
//
// One Parser serves one load session and reads exactly one AUTOSAR generation.
// Tag tables per generation (see dialect.go) map element tags to constructors;
// every tag that is neither handled nor explicitly ignored is rejected with an
// unsupported-construct error.
//
// Documents are read in two steps. ParseDocument registers the package tree
// and queues package elements; Build constructs the queued elements phase by
// phase so a component may reference an interface declared in a later file.
package parser

import (
	"context"
	"log/slog"

	"github.com/beevik/etree"

	arerrors "autosar/internal/errors"
	"autosar/internal/model"
	"autosar/internal/ref"
	"autosar/internal/workspace"
)

// Parser builds entities into a workspace.
type Parser struct {
	ws             *workspace.Workspace
	d              *dialect
	logger         *slog.Logger
	hardenNumerics bool

	pending  [phaseCount][]pendingElement
	packages []*model.Package
}

type pendingElement struct {
	pkg     *model.Package
	slot    int
	elem    *etree.Element
	handler elementHandler
}

// Option configures a Parser
type Option func(*Parser)

// WithLogger sets the logger for per-element debug output
func WithLogger(logger *slog.Logger) Option {
	return func(p *Parser) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithRejectNegative makes negative comspec numerics an invalid-value error
// instead of storing them as read.
func WithRejectNegative(reject bool) Option {
	return func(p *Parser) {
		p.hardenNumerics = reject
	}
}

// New creates a parser that reads documents of the workspace's version.
func New(ws *workspace.Workspace, opts ...Option) (*Parser, error) {
	d, err := dialectFor(ws.Version())
	if err != nil {
		return nil, err
	}
	p := &Parser{
		ws:     ws,
		d:      d,
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Version returns the generation this parser reads.
func (p *Parser) Version() Version {
	return p.d.version
}

// ParseDocument registers the packages of doc and queues their elements.
func (p *Parser) ParseDocument(doc *etree.Document) error {
	root := doc.Root()
	if root == nil {
		return arerrors.Structural("document has no root element")
	}
	if err := newShape(p.d.packageList).check(root, "AUTOSAR"); err != nil {
		return err
	}
	list := root.SelectElement(p.d.packageList)
	if list == nil {
		return nil
	}
	return p.parsePackages(nil, list)
}

func (p *Parser) parsePackages(parent *model.Package, list *etree.Element) error {
	for _, e := range list.ChildElements() {
		if e.Tag != "AR-PACKAGE" {
			return arerrors.Unsupported(e.Tag, list.Tag)
		}
		if err := p.parsePackage(parent, e); err != nil {
			return err
		}
	}
	return nil
}

func (p *Parser) parsePackage(parent *model.Package, e *etree.Element) error {
	name, err := shortName(e)
	if err != nil {
		return err
	}
	pkg, err := p.openPackage(parent, name)
	if err != nil {
		return err
	}
	if err := p.d.pkg.check(e, string(pkg.Path())); err != nil {
		return err
	}
	p.logger.Debug("Parsing package", "path", string(pkg.Path()))

	if elements := e.SelectElement("ELEMENTS"); elements != nil {
		items := elements.ChildElements()
		base := pkg.ReserveElements(len(items))
		for i, item := range items {
			h, ok := p.d.elements[item.Tag]
			if !ok {
				return arerrors.Unsupported(item.Tag, string(pkg.Path())).AtPath(string(pkg.Path()))
			}
			if h.parse == nil {
				continue
			}
			p.pending[h.phase] = append(p.pending[h.phase], pendingElement{pkg: pkg, slot: base + i, elem: item, handler: h})
		}
	}
	if sub := e.SelectElement(p.d.subPackages); sub != nil {
		return p.parsePackages(pkg, sub)
	}
	return nil
}

// openPackage returns the package at parent/name, creating and registering it
// when it does not exist yet. Packages split across documents are merged.
func (p *Parser) openPackage(parent *model.Package, name string) (*model.Package, error) {
	var path ref.Path
	if parent == nil {
		path = ref.Root.Join(name)
	} else {
		path = parent.Path().Join(name)
	}
	if existing, ok := p.ws.Find(path); ok {
		if pkg, ok := existing.(*model.Package); ok {
			return pkg, nil
		}
		return nil, arerrors.Structural("duplicate path %s", path).AtPath(string(path))
	}

	pkg := model.NewPackage(parent, name)
	if parent == nil {
		if err := p.ws.AddPackage(pkg); err != nil {
			return nil, err
		}
	} else {
		if err := p.ws.Register(pkg); err != nil {
			return nil, err
		}
		parent.AddSubPackage(pkg)
	}
	p.packages = append(p.packages, pkg)
	return pkg, nil
}

// Build constructs every queued element, phase by phase in document order,
// and fails on the first error.
func (p *Parser) Build(ctx context.Context) error {
	for ph := phase(0); ph < phaseCount; ph++ {
		queue := p.pending[ph]
		p.pending[ph] = nil
		p.logger.Debug("Building phase", "phase", ph.String(), "elements", len(queue))
		for _, item := range queue {
			if err := ctx.Err(); err != nil {
				return err
			}
			e, err := item.handler.parse(p, item.pkg, item.elem)
			if err != nil {
				return locate(err, item.pkg, item.elem)
			}
			item.pkg.PlaceElement(item.slot, e)
		}
	}
	for _, pkg := range p.packages {
		pkg.CompactElements()
	}
	return nil
}

// locate attaches the package element position to a model error.
func locate(err error, pkg *model.Package, e *etree.Element) error {
	if me, ok := arerrors.As(err); ok {
		name := text(e, "SHORT-NAME")
		if name != "" {
			me.AtPath(string(pkg.Path().Join(name)))
		} else {
			me.AtPath(string(pkg.Path()))
		}
		me.AtTag(e.Tag)
	}
	return err
}

// register adds e to the workspace.
func (p *Parser) register(e model.Entity) error {
	return p.ws.Register(e)
}
