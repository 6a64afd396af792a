package parser

import (
	"github.com/beevik/etree"

	arerrors "autosar/internal/errors"
	"autosar/internal/model"
	"autosar/internal/ref"
)

// instanceTags names the children of the instance references used by events.
type instanceTags struct {
	modeDeclaration string
	modeGroup       string
	modePort        string
	dataPort        string
	dataElement     string
	operationPort   string
	operation       string
	// dependency is the event child that gates activation on modes.
	dependency string
}

var eventTags = map[Version]instanceTags{
	V3: {
		modeDeclaration: "MODE-DECLARATION-REF",
		modeGroup:       "MODE-DECLARATION-GROUP-PROTOTYPE-REF",
		modePort:        "R-PORT-PROTOTYPE-REF",
		dataPort:        "R-PORT-PROTOTYPE-REF",
		dataElement:     "DATA-ELEMENT-PROTOTYPE-REF",
		operationPort:   "P-PORT-PROTOTYPE-REF",
		operation:       "OPERATION-PROTOTYPE-REF",
		dependency:      "MODE-DEPENDENCY",
	},
	V4: {
		modeDeclaration: "TARGET-MODE-DECLARATION-REF",
		modeGroup:       "CONTEXT-MODE-DECLARATION-GROUP-PROTOTYPE-REF",
		modePort:        "CONTEXT-PORT-REF",
		dataPort:        "CONTEXT-R-PORT-REF",
		dataElement:     "TARGET-DATA-ELEMENT-REF",
		operationPort:   "CONTEXT-P-PORT-REF",
		operation:       "TARGET-PROVIDED-OPERATION-REF",
		dependency:      "DISABLED-MODE-IREFS",
	},
}

// parseInternalBehaviorV3 reads an AUTOSAR 3 INTERNAL-BEHAVIOR package element.
// The component it belongs to is named by COMPONENT-REF.
func parseInternalBehaviorV3(p *Parser, pkg *model.Package, e *etree.Element) (model.Entity, error) {
	name, err := shortName(e)
	if err != nil {
		return nil, err
	}
	componentRef, err := requiredRef(e, "COMPONENT-REF")
	if err != nil {
		return nil, err
	}
	multi, err := boolText(e, "SUPPORTS-MULTIPLE-INSTANTIATION")
	if err != nil {
		return nil, err
	}
	b := model.NewInternalBehavior(pkg, name, componentRef, multi)
	if err := p.d.behavior.check(e, string(b.Path())); err != nil {
		return nil, err
	}
	if err := p.register(b); err != nil {
		return nil, err
	}
	return b, p.parseBehaviorBody(b, e)
}

// parseInternalBehaviorV4 reads an AUTOSAR 4 SWC-INTERNAL-BEHAVIOR nested in swc.
func (p *Parser) parseInternalBehaviorV4(swc *model.ComponentType, e *etree.Element) (*model.InternalBehavior, error) {
	name, err := shortName(e)
	if err != nil {
		return nil, err
	}
	multi, err := boolText(e, "SUPPORTS-MULTIPLE-INSTANTIATION")
	if err != nil {
		return nil, err
	}
	b := model.NewInternalBehavior(swc, name, swc.Path(), multi)
	if err := p.d.behavior.check(e, string(b.Path())); err != nil {
		return nil, err
	}
	if err := p.register(b); err != nil {
		return nil, err
	}
	if b.DataTypeMappingRefs, err = refList(e, "DATA-TYPE-MAPPING-REFS", "DATA-TYPE-MAPPING-REF"); err != nil {
		return nil, err
	}
	return b, p.parseBehaviorBody(b, e)
}

// parseBehaviorBody walks the sections of a behavior in document order. Tags
// accepted by the behavior shape but absent here are scalars or ignored sections.
func (p *Parser) parseBehaviorBody(b *model.InternalBehavior, e *etree.Element) error {
	sections := map[string]func(*etree.Element) error{
		"EVENTS":               func(l *etree.Element) error { return p.parseEvents(b, l) },
		"PORT-API-OPTIONS":     func(l *etree.Element) error { return p.parsePortAPIOptions(b, l) },
		"RUNNABLES":            func(l *etree.Element) error { return p.parseRunnables(b, l) },
		"PER-INSTANCE-MEMORYS": func(l *etree.Element) error { return p.parsePerInstanceMemories(b, l) },
		"EXCLUSIVE-AREAS":      func(l *etree.Element) error { return p.parseExclusiveAreas(b, l) },
		"SERVICE-NEEDSS":       func(l *etree.Element) error { return p.parseServiceNeeds(b, l) },
		"SHARED-CALPRMS":       func(l *etree.Element) error { return p.parseSharedCalPrms(b, l, "CALPRM-ELEMENT-PROTOTYPE") },
		"SHARED-PARAMETERS":    func(l *etree.Element) error { return p.parseSharedCalPrms(b, l, "PARAMETER-DATA-PROTOTYPE") },
	}
	for _, c := range e.ChildElements() {
		section, ok := sections[c.Tag]
		if !ok {
			continue
		}
		if err := section(c); err != nil {
			if me, ok := arerrors.As(err); ok {
				me.AtPath(string(b.Path()))
			}
			return err
		}
	}
	p.logger.Debug("Parsed internal behavior",
		"path", string(b.Path()),
		"component", string(b.ComponentRef),
		"events", len(b.Events),
		"runnables", len(b.Runnables),
	)
	return nil
}

func (p *Parser) parseEvents(b *model.InternalBehavior, list *etree.Element) error {
	for _, item := range list.ChildElements() {
		parse, ok := p.d.events[item.Tag]
		if !ok {
			return arerrors.Unsupported(item.Tag, "EVENTS")
		}
		ev, err := parse(p, b, item)
		if err != nil {
			if me, ok := arerrors.As(err); ok {
				me.AtTag(item.Tag)
			}
			return err
		}
		if err := p.register(ev); err != nil {
			return err
		}
		b.Events = append(b.Events, ev)
	}
	return nil
}

// eventHeader reads the name and started runnable and checks the event's children.
func (p *Parser) eventHeader(e *etree.Element, gated bool, extra ...string) (string, ref.Path, error) {
	name, err := shortName(e)
	if err != nil {
		return "", "", err
	}
	tags := append([]string{"SHORT-NAME", "START-ON-EVENT-REF"}, extra...)
	if gated {
		tags = append(tags, eventTags[p.d.version].dependency)
	}
	if err := newShape(tags...).check(e, e.Tag); err != nil {
		return "", "", err
	}
	start, err := requiredRef(e, "START-ON-EVENT-REF")
	if err != nil {
		return "", "", err
	}
	return name, start, nil
}

// attachDependency reads the mode dependency of a gated event, if any.
func (p *Parser) attachDependency(ev model.Event, e *etree.Element) (model.Event, error) {
	tags := eventTags[p.d.version]
	holder := e.SelectElement(tags.dependency)
	if holder == nil {
		return ev, nil
	}
	dep := &model.ModeDependency{}
	var items []*etree.Element
	if p.d.version == V3 {
		if list := holder.SelectElement("DEPENDENT-ON-MODE-IREFS"); list != nil {
			items = list.ChildElements()
		}
	} else {
		dep.Disabled = true
		items = holder.ChildElements()
	}
	for _, item := range items {
		if item.Tag != "DEPENDENT-ON-MODE-IREF" && item.Tag != "DISABLED-MODE-IREF" {
			return nil, arerrors.Unsupported(item.Tag, holder.Tag)
		}
		mi, err := p.modeInstanceRef(item)
		if err != nil {
			return nil, err
		}
		dep.ModeInstanceRefs = append(dep.ModeInstanceRefs, mi)
	}
	return ev, model.SetModeDependency(ev, dep)
}

func (p *Parser) modeInstanceRef(e *etree.Element) (model.ModeInstanceRef, error) {
	tags := eventTags[p.d.version]
	var (
		mi  model.ModeInstanceRef
		err error
	)
	if mi.ModeDeclarationRef, err = refText(e, tags.modeDeclaration); err != nil {
		return mi, err
	}
	if mi.ModeGroupRef, err = refText(e, tags.modeGroup); err != nil {
		return mi, err
	}
	mi.PortRef, err = refText(e, tags.modePort)
	return mi, err
}

func parseInitEvent(p *Parser, b *model.InternalBehavior, e *etree.Element) (model.Event, error) {
	name, start, err := p.eventHeader(e, false)
	if err != nil {
		return nil, err
	}
	return model.NewInitEvent(b, name, start), nil
}

func parseModeSwitchEvent(p *Parser, b *model.InternalBehavior, e *etree.Element) (model.Event, error) {
	modeTag := "MODE-IREF"
	if p.d.version == V4 {
		modeTag = "MODE-IREFS"
	}
	name, start, err := p.eventHeader(e, true, "ACTIVATION", modeTag)
	if err != nil {
		return nil, err
	}
	activation, err := model.ParseModeActivation(text(e, "ACTIVATION"))
	if err != nil {
		return nil, err
	}
	ev := model.NewModeSwitchEvent(b, name, start, activation)

	var items []*etree.Element
	if p.d.version == V3 {
		if mi := e.SelectElement("MODE-IREF"); mi != nil {
			items = []*etree.Element{mi}
		}
	} else if list := e.SelectElement("MODE-IREFS"); list != nil {
		items = list.ChildElements()
	}
	for _, item := range items {
		if item.Tag != "MODE-IREF" {
			return nil, arerrors.Unsupported(item.Tag, "MODE-IREFS")
		}
		mi, err := p.modeInstanceRef(item)
		if err != nil {
			return nil, err
		}
		ev.ModeInstanceRefs = append(ev.ModeInstanceRefs, mi)
	}
	return p.attachDependency(ev, e)
}

// parseTimingEvent normalizes PERIOD from seconds to milliseconds; a missing
// period is zero.
func parseTimingEvent(p *Parser, b *model.InternalBehavior, e *etree.Element) (model.Event, error) {
	name, start, err := p.eventHeader(e, true, "PERIOD")
	if err != nil {
		return nil, err
	}
	period, _, err := floatText(e, "PERIOD")
	if err != nil {
		return nil, err
	}
	return p.attachDependency(model.NewTimingEvent(b, name, start, secondsToMs(period)), e)
}

func parseDataReceivedEvent(p *Parser, b *model.InternalBehavior, e *etree.Element) (model.Event, error) {
	name, start, err := p.eventHeader(e, true, "DATA-IREF")
	if err != nil {
		return nil, err
	}
	tags := eventTags[p.d.version]
	iref := e.SelectElement("DATA-IREF")
	if iref == nil {
		return nil, arerrors.Structural("data received event '%s' has no DATA-IREF", name)
	}
	var data model.DataInstanceRef
	if data.PortRef, err = requiredRef(iref, tags.dataPort); err != nil {
		return nil, err
	}
	if data.DataElementRef, err = requiredRef(iref, tags.dataElement); err != nil {
		return nil, err
	}
	return p.attachDependency(model.NewDataReceivedEvent(b, name, start, data), e)
}

func parseOperationInvokedEvent(p *Parser, b *model.InternalBehavior, e *etree.Element) (model.Event, error) {
	name, start, err := p.eventHeader(e, true, "OPERATION-IREF")
	if err != nil {
		return nil, err
	}
	tags := eventTags[p.d.version]
	iref := e.SelectElement("OPERATION-IREF")
	if iref == nil {
		return nil, arerrors.Structural("operation invoked event '%s' has no OPERATION-IREF", name)
	}
	var op model.OperationInstanceRef
	if op.PortRef, err = requiredRef(iref, tags.operationPort); err != nil {
		return nil, err
	}
	if op.OperationRef, err = requiredRef(iref, tags.operation); err != nil {
		return nil, err
	}
	return p.attachDependency(model.NewOperationInvokedEvent(b, name, start, op), e)
}

var portAPIOptionShape = newShape("PORT-REF", "ENABLE-TAKE-ADDRESS", "INDIRECT-API", "PORT-ARG-VALUES")

func (p *Parser) parsePortAPIOptions(b *model.InternalBehavior, list *etree.Element) error {
	for _, item := range list.ChildElements() {
		if item.Tag != "PORT-API-OPTION" {
			return arerrors.Unsupported(item.Tag, "PORT-API-OPTIONS")
		}
		if err := portAPIOptionShape.check(item, item.Tag); err != nil {
			return err
		}
		var (
			opt model.PortAPIOption
			err error
		)
		if opt.PortRef, err = requiredRef(item, "PORT-REF"); err != nil {
			return err
		}
		if opt.EnableTakeAddress, err = boolText(item, "ENABLE-TAKE-ADDRESS"); err != nil {
			return err
		}
		if opt.IndirectAPI, err = boolText(item, "INDIRECT-API"); err != nil {
			return err
		}
		b.PortAPIOptions = append(b.PortAPIOptions, &opt)
	}
	return nil
}

func (p *Parser) parsePerInstanceMemories(b *model.InternalBehavior, list *etree.Element) error {
	for _, item := range list.ChildElements() {
		if item.Tag != "PER-INSTANCE-MEMORY" {
			return arerrors.Unsupported(item.Tag, "PER-INSTANCE-MEMORYS")
		}
		name, err := shortName(item)
		if err != nil {
			return err
		}
		pim := model.NewPerInstanceMemory(b, name, text(item, "TYPE-DEFINITION"))
		if err := p.register(pim); err != nil {
			return err
		}
		b.PerInstanceMemories = append(b.PerInstanceMemories, pim)
	}
	return nil
}

func (p *Parser) parseExclusiveAreas(b *model.InternalBehavior, list *etree.Element) error {
	for _, item := range list.ChildElements() {
		if item.Tag != "EXCLUSIVE-AREA" {
			return arerrors.Unsupported(item.Tag, "EXCLUSIVE-AREAS")
		}
		name, err := shortName(item)
		if err != nil {
			return err
		}
		ea := model.NewExclusiveArea(b, name)
		if err := p.register(ea); err != nil {
			return err
		}
		b.ExclusiveAreas = append(b.ExclusiveAreas, ea)
	}
	return nil
}
