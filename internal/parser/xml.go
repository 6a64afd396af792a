package parser

import (
	"strconv"
	"strings"

	"github.com/beevik/etree"

	arerrors "autosar/internal/errors"
	"autosar/internal/ref"
)

// commonIgnored lists documentation tags accepted under any identifiable element.
var commonIgnored = []string{
	"ADMIN-DATA",
	"ANNOTATIONS",
	"CATEGORY",
	"DESC",
	"INTRODUCTION",
	"LONG-NAME",
	"VARIATION-POINT",
}

// shape is the set of child tags an element may carry.
type shape map[string]struct{}

func newShape(tags ...string) shape {
	s := make(shape, len(tags)+len(commonIgnored))
	for _, t := range commonIgnored {
		s[t] = struct{}{}
	}
	for _, t := range tags {
		s[t] = struct{}{}
	}
	return s
}

// check rejects any child of e whose tag is not part of s.
func (s shape) check(e *etree.Element, context string) error {
	for _, child := range e.ChildElements() {
		if _, ok := s[child.Tag]; !ok {
			return arerrors.Unsupported(child.Tag, context)
		}
	}
	return nil
}

// text returns the trimmed text of the named child, or "" when absent.
func text(e *etree.Element, tag string) string {
	if e == nil {
		return ""
	}
	child := e.SelectElement(tag)
	if child == nil {
		return ""
	}
	return strings.TrimSpace(child.Text())
}

// shortName returns the SHORT-NAME of e and fails when it is missing.
func shortName(e *etree.Element) (string, error) {
	name := text(e, "SHORT-NAME")
	if name == "" {
		return "", arerrors.Structural("<%s> has no SHORT-NAME", e.Tag).AtTag(e.Tag)
	}
	return name, nil
}

// child follows a chain of child tags and returns nil when any link is missing.
func child(e *etree.Element, tags ...string) *etree.Element {
	for _, tag := range tags {
		if e == nil {
			return nil
		}
		e = e.SelectElement(tag)
	}
	return e
}

// refText parses the reference held by the named child. Absent children yield
// the zero Path; present ones must be absolute.
func refText(e *etree.Element, tag string) (ref.Path, error) {
	s := text(e, tag)
	if s == "" {
		return "", nil
	}
	p, err := ref.Parse(s)
	if err != nil {
		return "", err
	}
	if err := ref.RequireAbsolute(p); err != nil {
		return "", err
	}
	return p, nil
}

// requiredRef is refText for references that must be present.
func requiredRef(e *etree.Element, tag string) (ref.Path, error) {
	p, err := refText(e, tag)
	if err != nil {
		return "", err
	}
	if p.IsZero() {
		return "", arerrors.Structural("<%s> requires <%s>", e.Tag, tag).AtTag(e.Tag)
	}
	return p, nil
}

// refList collects the references held by the itemTag children of the named
// list element. Any other child is unsupported.
func refList(e *etree.Element, listTag, itemTag string) ([]ref.Path, error) {
	list := child(e, listTag)
	if list == nil {
		return nil, nil
	}
	var out []ref.Path
	for _, item := range list.ChildElements() {
		if item.Tag != itemTag {
			return nil, arerrors.Unsupported(item.Tag, listTag)
		}
		p, err := ref.Parse(strings.TrimSpace(item.Text()))
		if err != nil {
			return nil, err
		}
		if err := ref.RequireAbsolute(p); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

// boolText parses an optional boolean child; absence means false.
func boolText(e *etree.Element, tag string) (bool, error) {
	s := text(e, tag)
	if s == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(s)
	if err != nil {
		return false, arerrors.NewModelError(arerrors.InvalidValue,
			"<"+tag+"> is not a boolean: "+strconv.Quote(s), err).AtTag(tag)
	}
	return b, nil
}

// floatText parses an optional float child.
func floatText(e *etree.Element, tag string) (float64, bool, error) {
	s := text(e, tag)
	if s == "" {
		return 0, false, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false, arerrors.NewModelError(arerrors.InvalidValue,
			"<"+tag+"> is not a number: "+strconv.Quote(s), err).AtTag(tag)
	}
	return f, true, nil
}

// intText parses an optional integer child.
func intText(e *etree.Element, tag string) (*int, error) {
	s := text(e, tag)
	if s == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return nil, arerrors.NewModelError(arerrors.InvalidValue,
			"<"+tag+"> is not an integer: "+strconv.Quote(s), err).AtTag(tag)
	}
	return &n, nil
}

// secondsToMs converts a duration in seconds to milliseconds.
func secondsToMs(s float64) float64 {
	return s * 1000
}
