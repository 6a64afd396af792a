package parser

import (
	"math"
	"strconv"

	"github.com/beevik/etree"

	arerrors "autosar/internal/errors"
	"autosar/internal/model"
	"autosar/internal/ref"
)

func parseComponentType(p *Parser, pkg *model.Package, e *etree.Element) (model.Entity, error) {
	name, err := shortName(e)
	if err != nil {
		return nil, err
	}
	var swc *model.ComponentType
	switch p.d.componentTypes[e.Tag] {
	case model.KindApplicationComponent:
		swc = model.NewApplicationComponent(pkg, name)
	case model.KindCDDComponent:
		swc = model.NewComplexDeviceDriverComponent(pkg, name)
	default:
		return nil, arerrors.Unsupported(e.Tag, string(pkg.Path()))
	}
	if err := p.d.component.check(e, string(swc.Path())); err != nil {
		return nil, err
	}
	if err := p.register(swc); err != nil {
		return nil, err
	}
	p.logger.Debug("Parsing component", "path", string(swc.Path()), "tag", e.Tag)

	if err := p.parsePorts(swc, e.SelectElement("PORTS")); err != nil {
		return nil, err
	}
	if behaviors := e.SelectElement("INTERNAL-BEHAVIORS"); behaviors != nil {
		for _, b := range behaviors.ChildElements() {
			if b.Tag != "SWC-INTERNAL-BEHAVIOR" {
				return nil, arerrors.Unsupported(b.Tag, "INTERNAL-BEHAVIORS").AtPath(string(swc.Path()))
			}
			beh, err := p.parseInternalBehaviorV4(swc, b)
			if err != nil {
				return nil, err
			}
			swc.Behavior = beh
		}
	}
	return swc, nil
}

var (
	requirePortShape = newShape("SHORT-NAME", "REQUIRED-INTERFACE-TREF", "REQUIRED-COM-SPECS")
	providePortShape = newShape("SHORT-NAME", "PROVIDED-INTERFACE-TREF", "PROVIDED-COM-SPECS")
)

// parsePorts reads the PORTS list of any port-bearing component. Each port is
// registered before its comspecs are derived.
func (p *Parser) parsePorts(owner model.PortOwner, list *etree.Element) error {
	if list == nil {
		return nil
	}
	for _, e := range list.ChildElements() {
		var (
			port     *model.Port
			specsTag string
			table    map[string]comSpecKind
		)
		name, err := shortName(e)
		if err != nil {
			return err
		}
		switch e.Tag {
		case "R-PORT-PROTOTYPE":
			if err := requirePortShape.check(e, string(owner.Path())); err != nil {
				return err
			}
			iface, err := requiredRef(e, "REQUIRED-INTERFACE-TREF")
			if err != nil {
				return err
			}
			port = model.NewRequirePort(owner, name, iface)
			specsTag, table = "REQUIRED-COM-SPECS", p.d.requireComSpec
		case "P-PORT-PROTOTYPE":
			if err := providePortShape.check(e, string(owner.Path())); err != nil {
				return err
			}
			iface, err := requiredRef(e, "PROVIDED-INTERFACE-TREF")
			if err != nil {
				return err
			}
			port = model.NewProvidePort(owner, name, iface)
			specsTag, table = "PROVIDED-COM-SPECS", p.d.provideComSpec
		default:
			return arerrors.Unsupported(e.Tag, "PORTS").AtPath(string(owner.Path()))
		}
		if err := p.register(port); err != nil {
			return err
		}
		if specs := e.SelectElement(specsTag); specs != nil {
			for _, s := range specs.ChildElements() {
				kind, ok := table[s.Tag]
				if !ok {
					return arerrors.Unsupported(s.Tag, specsTag).AtPath(string(port.Path()))
				}
				cs, err := p.parseComSpec(port, kind, s)
				if err != nil {
					if me, ok := arerrors.As(err); ok {
						me.AtPath(string(port.Path())).AtTag(s.Tag)
					}
					return err
				}
				port.AddComSpec(cs)
			}
		}
		owner.AddPort(port)
	}
	return nil
}

// Child tags of each comspec family, covering the sender and receiver forms
// of both AUTOSAR 3 and 4.
var comSpecShapes = map[comSpecKind]shape{
	comSpecData: newShape("DATA-ELEMENT-REF", "QUEUE-LENGTH", "ALIVE-TIMEOUT", "INIT-VALUE-REF", "INIT-VALUE",
		"CAN-INVALIDATE", "FILTER", "RESYNC-TIME", "NETWORK-REPRESENTATION", "HANDLE-OUT-OF-RANGE",
		"HANDLE-OUT-OF-RANGE-STATUS", "USES-END-TO-END-PROTECTION", "ENABLE-UPDATE", "HANDLE-DATA-STATUS",
		"HANDLE-NEVER-RECEIVED", "HANDLE-TIMEOUT-TYPE", "TRANSMISSION-ACKNOWLEDGE"),
	comSpecOperation:  newShape("OPERATION-REF", "QUEUE-LENGTH"),
	comSpecModeSwitch: newShape("MODE-GROUP-REF", "QUEUE-LENGTH", "ENHANCED-MODE-API", "MODE-SWITCHED-ACK", "SUPPORTS-ASYNCHRONOUS-MODE-SWITCH"),
}

func (p *Parser) parseComSpec(port *model.Port, kind comSpecKind, e *etree.Element) (model.ComSpec, error) {
	var (
		cs  model.ComSpec
		err error
	)
	if err = comSpecShapes[kind].check(e, e.Tag); err != nil {
		return nil, err
	}
	switch kind {
	case comSpecData:
		var req model.ComSpecRequest
		if req, err = p.dataComSpecRequest(port.InterfaceRef, e); err != nil {
			return nil, err
		}
		cs, err = model.NewDataElementComSpec(p.ws, port.InterfaceRef, req)
	case comSpecOperation:
		var name string
		if name, err = memberName(e, "OPERATION-REF", port.InterfaceRef); err != nil {
			return nil, err
		}
		cs, err = model.NewOperationComSpec(p.ws, port.InterfaceRef, name, text(e, "QUEUE-LENGTH"))
	case comSpecModeSwitch:
		var name string
		if name, err = memberName(e, "MODE-GROUP-REF", port.InterfaceRef); err != nil {
			return nil, err
		}
		cs, err = model.NewModeSwitchComSpec(p.ws, port.InterfaceRef, name, text(e, "QUEUE-LENGTH"))
	}
	if err != nil {
		return nil, err
	}
	if p.hardenNumerics && model.HasNegative(cs) {
		return nil, arerrors.Invalid("negative numeric value in %s", e.Tag)
	}
	return cs, nil
}

// memberName extracts the member name from a reference into the port's
// interface. An absent reference yields "" so the derivation default applies;
// a reference into another interface names no member of this one.
func memberName(e *etree.Element, tag string, interfaceRef ref.Path) (string, error) {
	r, err := refText(e, tag)
	if err != nil || r.IsZero() {
		return "", err
	}
	parent, leaf := r.Split()
	if parent != interfaceRef {
		return "", arerrors.UnknownMember("element", string(r), string(interfaceRef)).WithRef(string(r))
	}
	return leaf, nil
}

func (p *Parser) dataComSpecRequest(interfaceRef ref.Path, e *etree.Element) (model.ComSpecRequest, error) {
	var req model.ComSpecRequest
	var err error
	if req.Name, err = memberName(e, "DATA-ELEMENT-REF", interfaceRef); err != nil {
		return req, err
	}
	if s := text(e, "QUEUE-LENGTH"); s != "" {
		req.QueueLength = s
	}
	if s := text(e, "ALIVE-TIMEOUT"); s != "" {
		if p.d.version == V3 {
			req.AliveTimeout = s
		} else {
			// AUTOSAR 4 states the alive timeout in seconds.
			f, err := strconv.ParseFloat(s, 64)
			if err != nil {
				return req, arerrors.NewModelError(arerrors.InvalidValue,
					"<ALIVE-TIMEOUT> is not a number: "+strconv.Quote(s), err).AtTag("ALIVE-TIMEOUT")
			}
			req.AliveTimeout = math.Round(secondsToMs(f))
		}
	}
	if p.d.version == V3 {
		req.InitValueRef, err = refText(e, "INIT-VALUE-REF")
		return req, err
	}
	if init := e.SelectElement("INIT-VALUE"); init != nil {
		err = parseInitValue(init, &req)
	}
	return req, err
}

// parseInitValue reads an AUTOSAR 4 INIT-VALUE: either a constant reference or
// an inline literal.
func parseInitValue(init *etree.Element, req *model.ComSpecRequest) error {
	items := init.ChildElements()
	if len(items) != 1 {
		return arerrors.Structural("<INIT-VALUE> must hold exactly one value specification").AtTag("INIT-VALUE")
	}
	v := items[0]
	switch v.Tag {
	case "CONSTANT-REFERENCE":
		r, err := requiredRef(v, "CONSTANT-REF")
		if err != nil {
			return err
		}
		req.InitValueRef = r
	case "NUMERICAL-VALUE-SPECIFICATION", "TEXT-VALUE-SPECIFICATION":
		req.InitValue = text(v, "VALUE")
	default:
		return arerrors.Unsupported(v.Tag, "INIT-VALUE")
	}
	return nil
}
