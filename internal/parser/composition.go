package parser

import (
	"github.com/beevik/etree"

	arerrors "autosar/internal/errors"
	"autosar/internal/model"
	"autosar/internal/ref"
)

// connectorTags names the connector elements and their instance references per generation.
type connectorTags struct {
	prototype  string
	assembly   string
	delegation string

	componentRef   string
	providePortRef string
	requirePortRef string
	innerPortRef   string
}

var compositionTags = map[Version]connectorTags{
	V3: {
		prototype:      "COMPONENT-PROTOTYPE",
		assembly:       "ASSEMBLY-CONNECTOR-PROTOTYPE",
		delegation:     "DELEGATION-CONNECTOR-PROTOTYPE",
		componentRef:   "COMPONENT-PROTOTYPE-REF",
		providePortRef: "P-PORT-PROTOTYPE-REF",
		requirePortRef: "R-PORT-PROTOTYPE-REF",
		innerPortRef:   "PORT-PROTOTYPE-REF",
	},
	V4: {
		prototype:      "SW-COMPONENT-PROTOTYPE",
		assembly:       "ASSEMBLY-SW-CONNECTOR",
		delegation:     "DELEGATION-SW-CONNECTOR",
		componentRef:   "CONTEXT-COMPONENT-REF",
		providePortRef: "TARGET-P-PORT-REF",
		requirePortRef: "TARGET-R-PORT-REF",
	},
}

func parseCompositionType(p *Parser, pkg *model.Package, e *etree.Element) (model.Entity, error) {
	name, err := shortName(e)
	if err != nil {
		return nil, err
	}
	comp := model.NewCompositionType(pkg, name)
	if err := p.d.composition.check(e, string(comp.Path())); err != nil {
		return nil, err
	}
	if err := p.register(comp); err != nil {
		return nil, err
	}
	p.logger.Debug("Parsing composition", "path", string(comp.Path()))

	if err := p.parsePorts(comp, e.SelectElement("PORTS")); err != nil {
		return nil, err
	}
	tags := compositionTags[p.d.version]
	if list := e.SelectElement("COMPONENTS"); list != nil {
		for _, item := range list.ChildElements() {
			if item.Tag != tags.prototype {
				return nil, arerrors.Unsupported(item.Tag, "COMPONENTS").AtPath(string(comp.Path()))
			}
			if err := p.parseComponentPrototype(comp, item); err != nil {
				return nil, err
			}
		}
	}
	if list := e.SelectElement("CONNECTORS"); list != nil {
		for _, item := range list.ChildElements() {
			var err error
			switch item.Tag {
			case tags.assembly:
				err = p.parseAssemblyConnector(comp, tags, item)
			case tags.delegation:
				err = p.parseDelegationConnector(comp, tags, item)
			default:
				err = arerrors.Unsupported(item.Tag, "CONNECTORS")
			}
			if err != nil {
				if me, ok := arerrors.As(err); ok {
					me.AtPath(string(comp.Path())).AtTag(item.Tag)
				}
				return nil, err
			}
		}
	}
	return comp, nil
}

// parseComponentPrototype reads the type reference without resolving it.
func (p *Parser) parseComponentPrototype(comp *model.CompositionType, e *etree.Element) error {
	name, err := shortName(e)
	if err != nil {
		return err
	}
	typeRef, err := requiredRef(e, "TYPE-TREF")
	if err != nil {
		return err
	}
	proto := model.NewComponentPrototype(comp, name, typeRef)
	if err := p.register(proto); err != nil {
		return err
	}
	comp.AddComponent(proto)
	return nil
}

// iref reads the component and port references of one instance reference.
func iref(e *etree.Element, componentTag, portTag string) (ref.Path, ref.Path, error) {
	if e == nil {
		return "", "", arerrors.Structural("missing instance reference")
	}
	component, err := requiredRef(e, componentTag)
	if err != nil {
		return "", "", err
	}
	port, err := requiredRef(e, portTag)
	if err != nil {
		return "", "", err
	}
	return component, port, nil
}

func (p *Parser) parseAssemblyConnector(comp *model.CompositionType, tags connectorTags, e *etree.Element) error {
	name, err := shortName(e)
	if err != nil {
		return err
	}
	if err := newShape("SHORT-NAME", "PROVIDER-IREF", "REQUESTER-IREF").check(e, e.Tag); err != nil {
		return err
	}
	provComp, provPort, err := iref(e.SelectElement("PROVIDER-IREF"), tags.componentRef, tags.providePortRef)
	if err != nil {
		return err
	}
	reqComp, reqPort, err := iref(e.SelectElement("REQUESTER-IREF"), tags.componentRef, tags.requirePortRef)
	if err != nil {
		return err
	}
	conn, err := model.NewAssemblyConnector(comp, name,
		model.ProviderInstanceRef{ComponentRef: provComp, ProvidePortRef: provPort},
		model.RequesterInstanceRef{ComponentRef: reqComp, RequirePortRef: reqPort})
	if err != nil {
		return err
	}
	if err := p.register(conn); err != nil {
		return err
	}
	comp.AddAssemblyConnector(conn)
	return nil
}

func (p *Parser) parseDelegationConnector(comp *model.CompositionType, tags connectorTags, e *etree.Element) error {
	name, err := shortName(e)
	if err != nil {
		return err
	}
	if err := newShape("SHORT-NAME", "INNER-PORT-IREF", "OUTER-PORT-REF").check(e, e.Tag); err != nil {
		return err
	}
	inner := e.SelectElement("INNER-PORT-IREF")
	if inner == nil {
		return arerrors.Structural("delegation connector '%s' has no INNER-PORT-IREF", name)
	}
	var innerComp, innerPort ref.Path
	if p.d.version == V3 {
		innerComp, innerPort, err = iref(inner, tags.componentRef, tags.innerPortRef)
	} else {
		// AUTOSAR 4 wraps the reference in a direction-specific element.
		items := inner.ChildElements()
		if len(items) != 1 {
			return arerrors.Structural("delegation connector '%s' must carry exactly one inner port reference", name)
		}
		switch items[0].Tag {
		case "R-PORT-IN-COMPOSITION-INSTANCE-REF":
			innerComp, innerPort, err = iref(items[0], tags.componentRef, "TARGET-R-PORT-REF")
		case "P-PORT-IN-COMPOSITION-INSTANCE-REF":
			innerComp, innerPort, err = iref(items[0], tags.componentRef, "TARGET-P-PORT-REF")
		default:
			return arerrors.Unsupported(items[0].Tag, "INNER-PORT-IREF")
		}
	}
	if err != nil {
		return err
	}
	outer, err := refText(e, "OUTER-PORT-REF")
	if err != nil {
		return err
	}
	conn, err := model.NewDelegationConnector(comp, name,
		model.InnerPortInstanceRef{ComponentRef: innerComp, PortRef: innerPort}, outer)
	if err != nil {
		return err
	}
	if err := p.register(conn); err != nil {
		return err
	}
	comp.AddDelegationConnector(conn)
	return nil
}
