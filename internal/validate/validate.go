// Package validate checks a built workspace for references that were recorded
// lazily during parsing and never resolved.
package validate

import (
	arerrors "autosar/internal/errors"
	"autosar/internal/model"
	"autosar/internal/ref"
	"autosar/internal/workspace"
)

// Check returns the first violation in registration order, or nil.
func Check(ws *workspace.Workspace) error {
	c := &checker{ws: ws}
	return ws.Walk(c.entity)
}

// CheckAll returns the first violation of every offending entity.
func CheckAll(ws *workspace.Workspace) []error {
	c := &checker{ws: ws}
	var errs []error
	_ = ws.Walk(func(e model.Entity) error {
		if err := c.entity(e); err != nil {
			errs = append(errs, err)
		}
		return nil
	})
	return errs
}

type checker struct {
	ws *workspace.Workspace
}

func (c *checker) entity(e model.Entity) error {
	err := c.check(e)
	if err == nil {
		return nil
	}
	if me, ok := arerrors.As(err); ok {
		me.AtPath(string(e.Path()))
	}
	return err
}

func (c *checker) check(e model.Entity) error {
	switch x := e.(type) {
	case *model.DataElement:
		return optional[*model.DataType](c.ws, x.TypeRef)
	case *model.Argument:
		return optional[*model.DataType](c.ws, x.TypeRef)
	case *model.Constant:
		return optional[*model.DataType](c.ws, x.Value.TypeRef)
	case *model.ModeGroup:
		return optional[*model.ModeDeclarationGroup](c.ws, x.TypeRef)
	case *model.ModeDeclarationGroup:
		return optional[*model.ModeDeclaration](c.ws, x.InitialModeRef)
	case *model.Port:
		return c.port(x)
	case *model.ComponentPrototype:
		_, err := workspace.ResolveAs[model.PortOwner](c.ws, x.TypeRef)
		return err
	case *model.AssemblyConnector:
		if err := c.prototypePort(x.Provider.ComponentRef, x.Provider.ProvidePortRef, false); err != nil {
			return err
		}
		return c.prototypePort(x.Requester.ComponentRef, x.Requester.RequirePortRef, true)
	case *model.DelegationConnector:
		inner, err := c.innerPort(x.InnerPort)
		if err != nil {
			return err
		}
		outer, err := workspace.ResolveAs[*model.Port](c.ws, x.OuterPortRef)
		if err != nil {
			return err
		}
		if inner.IsRequire() != outer.IsRequire() {
			return arerrors.TypeMismatch("delegation connects ports of different direction",
				string(outer.Kind()), string(inner.Kind()))
		}
		return nil
	case *model.InternalBehavior:
		return c.behavior(x)
	case *model.RunnableEntity:
		return c.runnable(c.behaviorOf(x.Path()), x)
	case *model.DataReceivePoint:
		return c.dataAccess(c.behaviorOf(x.Path()), x.PortRef, x.DataElementRef)
	case *model.DataSendPoint:
		return c.dataAccess(c.behaviorOf(x.Path()), x.PortRef, x.DataElementRef)
	case *model.SyncServerCallPoint:
		b := c.behaviorOf(x.Path())
		for _, op := range x.OperationInstanceRefs {
			if err := c.operation(b, op); err != nil {
				return err
			}
		}
		return nil
	case model.Event:
		return c.event(c.behaviorOf(x.Path()), x)
	case *model.CalPrmElemPrototype:
		return optional[*model.DataType](c.ws, x.TypeRef)
	case *model.SwcNvBlockNeeds:
		b := c.behaviorOf(x.Path())
		for _, a := range x.ServiceCallPorts {
			if err := c.requirePort(a.PortRef); err != nil {
				return err
			}
			if err := ownPort(b, a.PortRef); err != nil {
				return err
			}
		}
		return nil
	case *model.SwcImplementation:
		return optional[*model.InternalBehavior](c.ws, x.BehaviorRef)
	}
	return nil
}

// optional resolves p as T unless p is unset.
func optional[T model.Entity](ws *workspace.Workspace, p ref.Path) error {
	if p.IsZero() {
		return nil
	}
	_, err := workspace.ResolveAs[T](ws, p)
	return err
}

func (c *checker) port(p *model.Port) error {
	if _, err := model.ResolveInterface(c.ws, p.InterfaceRef); err != nil {
		return err
	}
	for _, cs := range p.ComSpecs {
		if err := model.CheckComSpec(c.ws, p.InterfaceRef, cs); err != nil {
			return err
		}
	}
	return nil
}

// prototypePort requires portRef to be a port of the type of the prototype at
// componentRef, in the given direction.
func (c *checker) prototypePort(componentRef, portRef ref.Path, require bool) error {
	port, err := c.innerPort(model.InnerPortInstanceRef{ComponentRef: componentRef, PortRef: portRef})
	if err != nil {
		return err
	}
	if port.IsRequire() != require {
		want := model.KindProvidePort
		if require {
			want = model.KindRequirePort
		}
		return arerrors.TypeMismatch("connector port has wrong direction", string(want), string(port.Kind())).WithRef(string(portRef))
	}
	return nil
}

func (c *checker) innerPort(r model.InnerPortInstanceRef) (*model.Port, error) {
	proto, err := workspace.ResolveAs[*model.ComponentPrototype](c.ws, r.ComponentRef)
	if err != nil {
		return nil, err
	}
	port, err := workspace.ResolveAs[*model.Port](c.ws, r.PortRef)
	if err != nil {
		return nil, err
	}
	if owner := r.PortRef.Parent(); owner != proto.TypeRef {
		return nil, arerrors.UnknownMember("port", r.PortRef.Leaf(), string(proto.TypeRef)).WithRef(string(r.PortRef))
	}
	return port, nil
}

func (c *checker) requirePort(p ref.Path) error {
	port, err := workspace.ResolveAs[*model.Port](c.ws, p)
	if err != nil {
		return err
	}
	if !port.IsRequire() {
		return arerrors.TypeMismatch("service port must be a require port",
			string(model.KindRequirePort), string(port.Kind())).WithRef(string(p))
	}
	return nil
}

// behaviorOf returns the internal behavior owning the entity at p, or nil.
func (c *checker) behaviorOf(p ref.Path) *model.InternalBehavior {
	for p = p.Parent(); !p.IsZero() && p != ref.Root; p = p.Parent() {
		if e, ok := c.ws.Find(p); ok {
			if b, ok := e.(*model.InternalBehavior); ok {
				return b
			}
		}
	}
	return nil
}

// ownPort requires portRef to be a port of the component b describes.
func ownPort(b *model.InternalBehavior, portRef ref.Path) error {
	if b == nil || portRef.IsZero() || portRef.Parent() == b.ComponentRef {
		return nil
	}
	return arerrors.UnknownMember("port", portRef.Leaf(), string(b.ComponentRef)).WithRef(string(portRef))
}

// ownMember requires p to be declared directly in behavior b.
func ownMember(b *model.InternalBehavior, kind string, p ref.Path) error {
	if b == nil || p.Parent() == b.Path() {
		return nil
	}
	return arerrors.UnknownMember(kind, p.Leaf(), string(b.Path())).WithRef(string(p))
}

func (c *checker) behavior(b *model.InternalBehavior) error {
	if _, err := workspace.ResolveAs[*model.ComponentType](c.ws, b.ComponentRef); err != nil {
		return err
	}
	for _, opt := range b.PortAPIOptions {
		if _, err := workspace.ResolveAs[*model.Port](c.ws, opt.PortRef); err != nil {
			return err
		}
		if err := ownPort(b, opt.PortRef); err != nil {
			return err
		}
	}
	return nil
}

func (c *checker) runnable(b *model.InternalBehavior, r *model.RunnableEntity) error {
	for _, ea := range r.ExclusiveAreaRefs {
		if _, err := workspace.ResolveAs[*model.ExclusiveArea](c.ws, ea); err != nil {
			return err
		}
		if err := ownMember(b, "exclusive area", ea); err != nil {
			return err
		}
	}
	for _, ap := range r.ModeAccessPoints {
		if _, err := workspace.ResolveAs[*model.Port](c.ws, ap.PortRef); err != nil {
			return err
		}
		if err := ownPort(b, ap.PortRef); err != nil {
			return err
		}
		if _, err := workspace.ResolveAs[*model.ModeGroup](c.ws, ap.ModeGroupRef); err != nil {
			return err
		}
	}
	return nil
}

// dataAccess requires the port to belong to the component of b and the data
// element to belong to the interface of the port.
func (c *checker) dataAccess(b *model.InternalBehavior, portRef, elementRef ref.Path) error {
	port, err := workspace.ResolveAs[*model.Port](c.ws, portRef)
	if err != nil {
		return err
	}
	if err := ownPort(b, portRef); err != nil {
		return err
	}
	if _, err := workspace.ResolveAs[*model.DataElement](c.ws, elementRef); err != nil {
		return err
	}
	if elementRef.Parent() != port.InterfaceRef {
		return arerrors.UnknownMember("element", elementRef.Leaf(), string(port.InterfaceRef)).WithRef(string(elementRef))
	}
	return nil
}

func (c *checker) operation(b *model.InternalBehavior, op model.OperationInstanceRef) error {
	port, err := workspace.ResolveAs[*model.Port](c.ws, op.PortRef)
	if err != nil {
		return err
	}
	if err := ownPort(b, op.PortRef); err != nil {
		return err
	}
	if _, err := workspace.ResolveAs[*model.Operation](c.ws, op.OperationRef); err != nil {
		return err
	}
	if op.OperationRef.Parent() != port.InterfaceRef {
		return arerrors.UnknownMember("operation", op.OperationRef.Leaf(), string(port.InterfaceRef)).WithRef(string(op.OperationRef))
	}
	return nil
}

func (c *checker) event(b *model.InternalBehavior, e model.Event) error {
	if _, err := workspace.ResolveAs[*model.RunnableEntity](c.ws, e.StartOnEventRef()); err != nil {
		return err
	}
	if err := ownMember(b, "runnable", e.StartOnEventRef()); err != nil {
		return err
	}
	if dep := e.ModeDependency(); dep != nil {
		if err := c.modeRefs(b, dep.ModeInstanceRefs); err != nil {
			return err
		}
	}
	switch x := e.(type) {
	case *model.ModeSwitchEvent:
		return c.modeRefs(b, x.ModeInstanceRefs)
	case *model.DataReceivedEvent:
		return c.dataAccess(b, x.DataInstanceRef.PortRef, x.DataInstanceRef.DataElementRef)
	case *model.OperationInvokedEvent:
		return c.operation(b, x.OperationInstanceRef)
	}
	return nil
}

func (c *checker) modeRefs(b *model.InternalBehavior, refs []model.ModeInstanceRef) error {
	for _, mi := range refs {
		if err := optional[*model.Port](c.ws, mi.PortRef); err != nil {
			return err
		}
		if err := ownPort(b, mi.PortRef); err != nil {
			return err
		}
		if err := optional[*model.ModeGroup](c.ws, mi.ModeGroupRef); err != nil {
			return err
		}
		if err := optional[*model.ModeDeclaration](c.ws, mi.ModeDeclarationRef); err != nil {
			return err
		}
	}
	return nil
}
