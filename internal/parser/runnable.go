package parser

import (
	"github.com/beevik/etree"

	arerrors "autosar/internal/errors"
	"autosar/internal/model"
	"autosar/internal/ref"
)

// accessKind distinguishes read from write accesses of a runnable.
type accessKind int

const (
	accessReceive accessKind = iota
	accessSend
)

// runnableSections maps runnable list tags to the access they declare. Several
// AUTOSAR 4 tags collapse onto the receive and send points.
var runnableSections = map[string]accessKind{
	"DATA-RECEIVE-POINTS":             accessReceive,
	"DATA-RECEIVE-POINT-BY-ARGUMENTS": accessReceive,
	"DATA-RECEIVE-POINT-BY-VALUES":    accessReceive,
	"DATA-READ-ACCESSS":               accessReceive,
	"DATA-SEND-POINTS":                accessSend,
	"DATA-WRITE-ACCESSS":              accessSend,
}

func (p *Parser) parseRunnables(b *model.InternalBehavior, list *etree.Element) error {
	for _, item := range list.ChildElements() {
		if item.Tag != "RUNNABLE-ENTITY" {
			return arerrors.Unsupported(item.Tag, "RUNNABLES")
		}
		r, err := p.parseRunnable(b, item)
		if err != nil {
			return err
		}
		b.Runnables = append(b.Runnables, r)
	}
	return nil
}

func (p *Parser) parseRunnable(b *model.InternalBehavior, e *etree.Element) (*model.RunnableEntity, error) {
	name, err := shortName(e)
	if err != nil {
		return nil, err
	}
	concurrent, err := boolText(e, "CAN-BE-INVOKED-CONCURRENTLY")
	if err != nil {
		return nil, err
	}
	r := model.NewRunnableEntity(b, name, concurrent, text(e, "SYMBOL"))
	if err := p.d.runnable.check(e, string(r.Path())); err != nil {
		return nil, err
	}
	if err := p.register(r); err != nil {
		return nil, err
	}
	if interval, ok, err := floatText(e, "MINIMUM-START-INTERVAL"); err != nil {
		return nil, err
	} else if ok {
		ms := secondsToMs(interval)
		r.MinimumStartInterval = &ms
	}
	if r.ExclusiveAreaRefs, err = refList(e, "CAN-ENTER-EXCLUSIVE-AREA-REFS", "CAN-ENTER-EXCLUSIVE-AREA-REF"); err != nil {
		return nil, err
	}

	for _, c := range e.ChildElements() {
		switch c.Tag {
		case "SERVER-CALL-POINTS":
			err = p.parseServerCallPoints(r, c)
		case "MODE-ACCESS-POINTS":
			err = p.parseModeAccessPoints(r, c)
		default:
			if kind, ok := runnableSections[c.Tag]; ok {
				err = p.parseDataPoints(r, c, kind)
			}
		}
		if err != nil {
			if me, ok := arerrors.As(err); ok {
				me.AtPath(string(r.Path()))
			}
			return nil, err
		}
	}
	return r, nil
}

// parseDataPoints reads AUTOSAR 3 DATA-*-POINT entries or AUTOSAR 4
// VARIABLE-ACCESS entries into receive or send points.
func (p *Parser) parseDataPoints(r *model.RunnableEntity, list *etree.Element, kind accessKind) error {
	for _, item := range list.ChildElements() {
		name, err := shortName(item)
		if err != nil {
			return err
		}
		var portRef, dataRef ref.Path
		if p.d.version == V3 {
			portRef, dataRef, err = dataElementIRefV3(item, kind)
		} else {
			portRef, dataRef, err = variableAccessV4(item)
		}
		if err != nil {
			return err
		}
		switch kind {
		case accessReceive:
			pt := model.NewDataReceivePoint(r, name, portRef, dataRef)
			if err := p.register(pt); err != nil {
				return err
			}
			r.DataReceivePoints = append(r.DataReceivePoints, pt)
		case accessSend:
			pt := model.NewDataSendPoint(r, name, portRef, dataRef)
			if err := p.register(pt); err != nil {
				return err
			}
			r.DataSendPoints = append(r.DataSendPoints, pt)
		}
	}
	return nil
}

func dataElementIRefV3(item *etree.Element, kind accessKind) (ref.Path, ref.Path, error) {
	want, portTag := "DATA-RECEIVE-POINT", "R-PORT-PROTOTYPE-REF"
	if kind == accessSend {
		want, portTag = "DATA-SEND-POINT", "P-PORT-PROTOTYPE-REF"
	}
	if item.Tag != want {
		return "", "", arerrors.Unsupported(item.Tag, want+"S")
	}
	if err := newShape("SHORT-NAME", "DATA-ELEMENT-IREF").check(item, item.Tag); err != nil {
		return "", "", err
	}
	iref := item.SelectElement("DATA-ELEMENT-IREF")
	if iref == nil {
		return "", "", arerrors.Structural("<%s> has no DATA-ELEMENT-IREF", item.Tag).AtTag(item.Tag)
	}
	if err := newShape(portTag, "DATA-ELEMENT-PROTOTYPE-REF").check(iref, "DATA-ELEMENT-IREF"); err != nil {
		return "", "", err
	}
	portRef, err := requiredRef(iref, portTag)
	if err != nil {
		return "", "", err
	}
	dataRef, err := requiredRef(iref, "DATA-ELEMENT-PROTOTYPE-REF")
	return portRef, dataRef, err
}

func variableAccessV4(item *etree.Element) (ref.Path, ref.Path, error) {
	if item.Tag != "VARIABLE-ACCESS" {
		return "", "", arerrors.Unsupported(item.Tag, "variable accesses")
	}
	if err := newShape("SHORT-NAME", "ACCESSED-VARIABLE", "SCOPE").check(item, item.Tag); err != nil {
		return "", "", err
	}
	accessed := item.SelectElement("ACCESSED-VARIABLE")
	if accessed == nil {
		return "", "", arerrors.Structural("<VARIABLE-ACCESS> has no ACCESSED-VARIABLE").AtTag(item.Tag)
	}
	iref := accessed.SelectElement("AUTOSAR-VARIABLE-IREF")
	if iref == nil {
		if cs := accessed.ChildElements(); len(cs) > 0 {
			return "", "", arerrors.Unsupported(cs[0].Tag, "ACCESSED-VARIABLE")
		}
		return "", "", arerrors.Structural("<ACCESSED-VARIABLE> is empty").AtTag("ACCESSED-VARIABLE")
	}
	if err := newShape("AUTOSAR-VARIABLE-IREF").check(accessed, "ACCESSED-VARIABLE"); err != nil {
		return "", "", err
	}
	if err := newShape("PORT-PROTOTYPE-REF", "TARGET-DATA-PROTOTYPE-REF").check(iref, "AUTOSAR-VARIABLE-IREF"); err != nil {
		return "", "", err
	}
	portRef, err := requiredRef(iref, "PORT-PROTOTYPE-REF")
	if err != nil {
		return "", "", err
	}
	dataRef, err := requiredRef(iref, "TARGET-DATA-PROTOTYPE-REF")
	return portRef, dataRef, err
}

// parseServerCallPoints reads synchronous server call points. TIMEOUT stays in
// seconds; a missing timeout is zero.
func (p *Parser) parseServerCallPoints(r *model.RunnableEntity, list *etree.Element) error {
	callShape := newShape("SHORT-NAME", "OPERATION-IREFS", "TIMEOUT")
	if p.d.version == V4 {
		callShape = newShape("SHORT-NAME", "OPERATION-IREF", "TIMEOUT", "CALLED-FROM-WITHIN-EXCLUSIVE-AREA-REF")
	}
	for _, item := range list.ChildElements() {
		if item.Tag != "SYNCHRONOUS-SERVER-CALL-POINT" {
			return arerrors.Unsupported(item.Tag, "SERVER-CALL-POINTS")
		}
		name, err := shortName(item)
		if err != nil {
			return err
		}
		if err := callShape.check(item, item.Tag); err != nil {
			return err
		}
		timeout, _, err := floatText(item, "TIMEOUT")
		if err != nil {
			return err
		}
		call := model.NewSyncServerCallPoint(r, name, timeout)

		var irefs []*etree.Element
		portTag, opTag := "R-PORT-PROTOTYPE-REF", "OPERATION-PROTOTYPE-REF"
		if p.d.version == V3 {
			if l := item.SelectElement("OPERATION-IREFS"); l != nil {
				irefs = l.ChildElements()
			}
		} else {
			portTag, opTag = "CONTEXT-R-PORT-REF", "TARGET-REQUIRED-OPERATION-REF"
			if iref := item.SelectElement("OPERATION-IREF"); iref != nil {
				irefs = []*etree.Element{iref}
			}
		}
		for _, iref := range irefs {
			if iref.Tag != "OPERATION-IREF" {
				return arerrors.Unsupported(iref.Tag, "OPERATION-IREFS")
			}
			var op model.OperationInstanceRef
			if op.PortRef, err = requiredRef(iref, portTag); err != nil {
				return err
			}
			if op.OperationRef, err = requiredRef(iref, opTag); err != nil {
				return err
			}
			call.OperationInstanceRefs = append(call.OperationInstanceRefs, op)
		}
		if err := p.register(call); err != nil {
			return err
		}
		r.ServerCallPoints = append(r.ServerCallPoints, call)
	}
	return nil
}

// modeGroupIRefTags maps the AUTOSAR 4 mode group instance refs to their port tag.
var modeGroupIRefTags = map[string]string{
	"R-MODE-GROUP-IN-ATOMIC-SWC-INSTANCE-REF": "CONTEXT-R-PORT-REF",
	"P-MODE-GROUP-IN-ATOMIC-SWC-INSTANCE-REF": "CONTEXT-P-PORT-REF",
}

func (p *Parser) parseModeAccessPoints(r *model.RunnableEntity, list *etree.Element) error {
	for _, item := range list.ChildElements() {
		if item.Tag != "MODE-ACCESS-POINT" {
			return arerrors.Unsupported(item.Tag, "MODE-ACCESS-POINTS")
		}
		group := item.SelectElement("MODE-GROUP-IREF")
		if group == nil {
			return arerrors.Structural("<MODE-ACCESS-POINT> has no MODE-GROUP-IREF").AtTag(item.Tag)
		}
		for _, iref := range group.ChildElements() {
			portTag, ok := modeGroupIRefTags[iref.Tag]
			if !ok {
				return arerrors.Unsupported(iref.Tag, "MODE-GROUP-IREF")
			}
			var (
				ap  model.ModeAccessPoint
				err error
			)
			if ap.PortRef, err = requiredRef(iref, portTag); err != nil {
				return err
			}
			if ap.ModeGroupRef, err = requiredRef(iref, "TARGET-MODE-GROUP-REF"); err != nil {
				return err
			}
			r.ModeAccessPoints = append(r.ModeAccessPoints, &ap)
		}
	}
	return nil
}
