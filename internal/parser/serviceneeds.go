package parser

import (
	"strings"

	"github.com/beevik/etree"

	arerrors "autosar/internal/errors"
	"autosar/internal/model"
	"autosar/internal/ref"
)

// parseServiceNeeds reads the AUTOSAR 3 SERVICE-NEEDSS list. Only NV block
// needs are modeled.
func (p *Parser) parseServiceNeeds(b *model.InternalBehavior, list *etree.Element) error {
	for _, item := range list.ChildElements() {
		if item.Tag != "SWC-NV-BLOCK-NEEDS" {
			return arerrors.Unsupported(item.Tag, "SERVICE-NEEDSS")
		}
		needs, err := p.parseNvBlockNeeds(b, item)
		if err != nil {
			return err
		}
		b.NvBlockNeeds = append(b.NvBlockNeeds, needs)
	}
	return nil
}

var nvBlockNeedsShape = newShape("SHORT-NAME", "N-DATA-SETS", "WRITING-FREQUENCY", "READONLY",
	"RESISTANT-TO-CHANGED-SW", "RESTORE-AT-START", "WRITE-ONLY-ONCE", "RELIABILITY", "WRITING-PRIORITY",
	"DEFAULT-BLOCK-REF", "MIRROR-BLOCK-REF", "SERVICE-CALL-PORTS")

func (p *Parser) parseNvBlockNeeds(b *model.InternalBehavior, e *etree.Element) (*model.SwcNvBlockNeeds, error) {
	name, err := shortName(e)
	if err != nil {
		return nil, err
	}
	if err := nvBlockNeedsShape.check(e, e.Tag); err != nil {
		return nil, err
	}
	var policy model.NvBlockPolicy
	if policy.NumberOfDataSets, err = intText(e, "N-DATA-SETS"); err != nil {
		return nil, err
	}
	if policy.WritingFrequency, err = intText(e, "WRITING-FREQUENCY"); err != nil {
		return nil, err
	}
	flags := []struct {
		tag string
		dst *bool
	}{
		{"READONLY", &policy.ReadOnly},
		{"RESISTANT-TO-CHANGED-SW", &policy.ResistantToChangedSW},
		{"RESTORE-AT-START", &policy.RestoreAtStart},
		{"WRITE-ONLY-ONCE", &policy.WriteOnlyOnce},
	}
	for _, f := range flags {
		if *f.dst, err = boolText(e, f.tag); err != nil {
			return nil, err
		}
	}
	if policy.Reliability, err = model.ParseReliability(text(e, "RELIABILITY")); err != nil {
		return nil, err
	}
	if policy.WritingPriority, err = model.ParseWritingPriority(text(e, "WRITING-PRIORITY")); err != nil {
		return nil, err
	}
	if policy.DefaultBlockRef, err = refText(e, "DEFAULT-BLOCK-REF"); err != nil {
		return nil, err
	}
	if policy.MirrorBlockRef, err = refText(e, "MIRROR-BLOCK-REF"); err != nil {
		return nil, err
	}

	var ports []model.RoleBasedRPortAssignment
	if list := e.SelectElement("SERVICE-CALL-PORTS"); list != nil {
		for _, item := range list.ChildElements() {
			if item.Tag != "ROLE-BASED-R-PORT-ASSIGNMENT" {
				return nil, arerrors.Unsupported(item.Tag, "SERVICE-CALL-PORTS")
			}
			if err := newShape("R-PORT-PROTOTYPE-REF", "ROLE").check(item, item.Tag); err != nil {
				return nil, err
			}
			portRef, err := requiredRef(item, "R-PORT-PROTOTYPE-REF")
			if err != nil {
				return nil, err
			}
			ports = append(ports, model.RoleBasedRPortAssignment{PortRef: portRef, Role: text(item, "ROLE")})
		}
	}
	needs, err := model.NewSwcNvBlockNeeds(b, name, policy, ports)
	if err != nil {
		return nil, err
	}
	return needs, p.register(needs)
}

// parseSharedCalPrms reads calibration parameters: AUTOSAR 3
// CALPRM-ELEMENT-PROTOTYPE or AUTOSAR 4 PARAMETER-DATA-PROTOTYPE entries.
func (p *Parser) parseSharedCalPrms(b *model.InternalBehavior, list *etree.Element, itemTag string) error {
	itemShape := newShape("SHORT-NAME", "TYPE-TREF", "SW-DATA-DEF-PROPS")
	if p.d.version == V4 {
		itemShape = newShape("SHORT-NAME", "TYPE-TREF", "SW-DATA-DEF-PROPS", "INIT-VALUE")
	}
	for _, item := range list.ChildElements() {
		if item.Tag != itemTag {
			return arerrors.Unsupported(item.Tag, list.Tag)
		}
		name, err := shortName(item)
		if err != nil {
			return err
		}
		if err := itemShape.check(item, item.Tag); err != nil {
			return err
		}
		typeRef, err := refText(item, "TYPE-TREF")
		if err != nil {
			return err
		}
		c := model.NewCalPrmElemPrototype(b, name, typeRef)
		if c.SwAddrMethodRefs, err = p.swAddrMethodRefs(item.SelectElement("SW-DATA-DEF-PROPS")); err != nil {
			return err
		}
		if err := p.register(c); err != nil {
			return err
		}
		b.SharedCalPrms = append(b.SharedCalPrms, c)
	}
	return nil
}

// swAddrMethodRefs collects SW-ADDR-METHOD-REF values. AUTOSAR 3 lists them
// directly under SW-DATA-DEF-PROPS, where any other child is unsupported;
// AUTOSAR 4 nests them in SW-DATA-DEF-PROPS-VARIANTS/SW-DATA-DEF-PROPS-CONDITIONAL
// next to attributes that are not modeled.
func (p *Parser) swAddrMethodRefs(props *etree.Element) ([]ref.Path, error) {
	if props == nil {
		return nil, nil
	}
	var holders []*etree.Element
	if p.d.version == V3 {
		if err := newShape("SW-ADDR-METHOD-REF").check(props, "SW-DATA-DEF-PROPS"); err != nil {
			return nil, err
		}
		holders = []*etree.Element{props}
	} else if variants := props.SelectElement("SW-DATA-DEF-PROPS-VARIANTS"); variants != nil {
		holders = variants.SelectElements("SW-DATA-DEF-PROPS-CONDITIONAL")
	}
	var out []ref.Path
	for _, h := range holders {
		for _, r := range h.SelectElements("SW-ADDR-METHOD-REF") {
			path, err := ref.Parse(strings.TrimSpace(r.Text()))
			if err != nil {
				return nil, err
			}
			out = append(out, path)
		}
	}
	return out, nil
}
