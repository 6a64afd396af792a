package parser

import (
	"github.com/beevik/etree"

	arerrors "autosar/internal/errors"
	"autosar/internal/model"
)

// Data type bodies are opaque to the model; only name and category are read.
func parseDataType(p *Parser, pkg *model.Package, e *etree.Element) (model.Entity, error) {
	name, err := shortName(e)
	if err != nil {
		return nil, err
	}
	dt := model.NewDataType(pkg, name, e.Tag, text(e, "CATEGORY"))
	return dt, p.register(dt)
}

var constantShape = newShape("SHORT-NAME", "VALUE", "VALUE-SPEC")

func parseConstant(p *Parser, pkg *model.Package, e *etree.Element) (model.Entity, error) {
	name, err := shortName(e)
	if err != nil {
		return nil, err
	}
	if err := constantShape.check(e, e.Tag); err != nil {
		return nil, err
	}
	value := model.ConstantValue{Untyped: p.d.version == V4}
	holder := e.SelectElement("VALUE")
	if p.d.version == V4 {
		holder = e.SelectElement("VALUE-SPEC")
	}
	if holder != nil {
		if items := holder.ChildElements(); len(items) > 0 {
			v := items[0]
			value.Tag = v.Tag
			value.Literal = text(v, "VALUE")
			if p.d.version == V3 {
				if value.TypeRef, err = refText(v, "TYPE-TREF"); err != nil {
					return nil, err
				}
			}
		}
	}
	c := model.NewConstant(pkg, name, value)
	return c, p.register(c)
}

func parseSenderReceiverInterface(p *Parser, pkg *model.Package, e *etree.Element) (model.Entity, error) {
	name, err := shortName(e)
	if err != nil {
		return nil, err
	}
	if err := newShape("SHORT-NAME", "IS-SERVICE", "DATA-ELEMENTS", "MODE-GROUPS", "INVALIDATION-POLICYS").check(e, e.Tag); err != nil {
		return nil, err
	}
	isService, err := boolText(e, "IS-SERVICE")
	if err != nil {
		return nil, err
	}
	iface := model.NewSenderReceiverInterface(pkg, name, isService)
	if err := p.register(iface); err != nil {
		return nil, err
	}

	elemTag := "DATA-ELEMENT-PROTOTYPE"
	if p.d.version == V4 {
		elemTag = "VARIABLE-DATA-PROTOTYPE"
	}
	if list := e.SelectElement("DATA-ELEMENTS"); list != nil {
		for _, item := range list.ChildElements() {
			if item.Tag != elemTag {
				return nil, arerrors.Unsupported(item.Tag, "DATA-ELEMENTS")
			}
			elemName, err := shortName(item)
			if err != nil {
				return nil, err
			}
			typeRef, err := refText(item, "TYPE-TREF")
			if err != nil {
				return nil, err
			}
			queued, err := boolText(item, "IS-QUEUED")
			if err != nil {
				return nil, err
			}
			de := model.NewDataElement(iface, elemName, typeRef, queued)
			if err := p.register(de); err != nil {
				return nil, err
			}
			iface.DataElements = append(iface.DataElements, de)
		}
	}
	if list := e.SelectElement("MODE-GROUPS"); list != nil {
		for _, item := range list.ChildElements() {
			if item.Tag != "MODE-DECLARATION-GROUP-PROTOTYPE" {
				return nil, arerrors.Unsupported(item.Tag, "MODE-GROUPS")
			}
			mg, err := p.parseModeGroup(iface, item)
			if err != nil {
				return nil, err
			}
			iface.ModeGroups = append(iface.ModeGroups, mg)
		}
	}
	return iface, nil
}

func (p *Parser) parseModeGroup(owner model.Owner, e *etree.Element) (*model.ModeGroup, error) {
	name, err := shortName(e)
	if err != nil {
		return nil, err
	}
	typeRef, err := refText(e, "TYPE-TREF")
	if err != nil {
		return nil, err
	}
	mg := model.NewModeGroup(owner, name, typeRef)
	return mg, p.register(mg)
}

func parseClientServerInterface(p *Parser, pkg *model.Package, e *etree.Element) (model.Entity, error) {
	name, err := shortName(e)
	if err != nil {
		return nil, err
	}
	if err := newShape("SHORT-NAME", "IS-SERVICE", "OPERATIONS", "POSSIBLE-ERRORS").check(e, e.Tag); err != nil {
		return nil, err
	}
	isService, err := boolText(e, "IS-SERVICE")
	if err != nil {
		return nil, err
	}
	iface := model.NewClientServerInterface(pkg, name, isService)
	if err := p.register(iface); err != nil {
		return nil, err
	}

	opTag, argTag := "OPERATION-PROTOTYPE", "ARGUMENT-PROTOTYPE"
	if p.d.version == V4 {
		opTag, argTag = "CLIENT-SERVER-OPERATION", "ARGUMENT-DATA-PROTOTYPE"
	}
	list := e.SelectElement("OPERATIONS")
	if list == nil {
		return iface, nil
	}
	for _, item := range list.ChildElements() {
		if item.Tag != opTag {
			return nil, arerrors.Unsupported(item.Tag, "OPERATIONS")
		}
		opName, err := shortName(item)
		if err != nil {
			return nil, err
		}
		op := model.NewOperation(iface, opName)
		if err := p.register(op); err != nil {
			return nil, err
		}
		if args := item.SelectElement("ARGUMENTS"); args != nil {
			for _, a := range args.ChildElements() {
				if a.Tag != argTag {
					return nil, arerrors.Unsupported(a.Tag, "ARGUMENTS")
				}
				argName, err := shortName(a)
				if err != nil {
					return nil, err
				}
				typeRef, err := refText(a, "TYPE-TREF")
				if err != nil {
					return nil, err
				}
				arg := model.NewArgument(op, argName, typeRef, text(a, "DIRECTION"))
				if err := p.register(arg); err != nil {
					return nil, err
				}
				op.Arguments = append(op.Arguments, arg)
			}
		}
		if op.PossibleErrorRefs, err = refList(item, "POSSIBLE-ERROR-REFS", "POSSIBLE-ERROR-REF"); err != nil {
			return nil, err
		}
		iface.Operations = append(iface.Operations, op)
	}
	return iface, nil
}

func parseModeSwitchInterface(p *Parser, pkg *model.Package, e *etree.Element) (model.Entity, error) {
	name, err := shortName(e)
	if err != nil {
		return nil, err
	}
	if err := newShape("SHORT-NAME", "IS-SERVICE", "MODE-GROUP").check(e, e.Tag); err != nil {
		return nil, err
	}
	isService, err := boolText(e, "IS-SERVICE")
	if err != nil {
		return nil, err
	}
	iface := model.NewModeSwitchInterface(pkg, name, isService)
	if err := p.register(iface); err != nil {
		return nil, err
	}
	if mg := e.SelectElement("MODE-GROUP"); mg != nil {
		if iface.ModeGroup, err = p.parseModeGroup(iface, mg); err != nil {
			return nil, err
		}
	}
	return iface, nil
}

func parseModeDeclarationGroup(p *Parser, pkg *model.Package, e *etree.Element) (model.Entity, error) {
	name, err := shortName(e)
	if err != nil {
		return nil, err
	}
	if err := newShape("SHORT-NAME", "INITIAL-MODE-REF", "MODE-DECLARATIONS", "ON-TRANSITION-VALUE").check(e, e.Tag); err != nil {
		return nil, err
	}
	group := model.NewModeDeclarationGroup(pkg, name)
	if group.InitialModeRef, err = refText(e, "INITIAL-MODE-REF"); err != nil {
		return nil, err
	}
	if err := p.register(group); err != nil {
		return nil, err
	}
	if list := e.SelectElement("MODE-DECLARATIONS"); list != nil {
		for _, item := range list.ChildElements() {
			if item.Tag != "MODE-DECLARATION" {
				return nil, arerrors.Unsupported(item.Tag, "MODE-DECLARATIONS")
			}
			modeName, err := shortName(item)
			if err != nil {
				return nil, err
			}
			mode := model.NewModeDeclaration(group, modeName)
			if err := p.register(mode); err != nil {
				return nil, err
			}
			group.Modes = append(group.Modes, mode)
		}
	}
	return group, nil
}

var implementationShape = newShape("SHORT-NAME", "BEHAVIOR-REF", "PROGRAMMING-LANGUAGE", "SW-VERSION",
	"CODE-DESCRIPTORS", "RESOURCE-CONSUMPTION", "VENDOR-ID", "USED-CODE-GENERATOR", "REQUIRED-RTE-VENDOR")

func parseSwcImplementation(p *Parser, pkg *model.Package, e *etree.Element) (model.Entity, error) {
	name, err := shortName(e)
	if err != nil {
		return nil, err
	}
	if err := implementationShape.check(e, e.Tag); err != nil {
		return nil, err
	}
	behaviorRef, err := refText(e, "BEHAVIOR-REF")
	if err != nil {
		return nil, err
	}
	impl := model.NewSwcImplementation(pkg, name, behaviorRef)
	impl.ProgrammingLanguage = text(e, "PROGRAMMING-LANGUAGE")
	impl.SwVersion = text(e, "SW-VERSION")
	return impl, p.register(impl)
}
