// Package ref implements the slash-delimited symbolic references used by ARXML
// to address model elements, e.g. /Pkg/Iface/Element.
package ref

import (
	"strings"

	arerrors "autosar/internal/errors"
)

// Separator delimits path segments.
const Separator = "/"

// Root is the absolute path of the workspace root.
const Root Path = "/"

// Path is an absolute or relative slash-delimited reference.
// The zero value means "no reference".
type Path string

// Parse validates s and returns it as a Path.
// Empty segments (a//b) and trailing separators are rejected.
func Parse(s string) (Path, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", arerrors.NewModelError(arerrors.InvalidReference, "reference cannot be empty", nil)
	}
	if s == Separator {
		return Root, nil
	}
	body := strings.TrimPrefix(s, Separator)
	for _, seg := range strings.Split(body, Separator) {
		if seg == "" {
			return "", arerrors.NewModelError(arerrors.InvalidReference, "reference contains empty segment", nil).WithRef(s)
		}
	}
	return Path(s), nil
}

// MustParse is like Parse but panics on malformed input. Intended for tests and constants.
func MustParse(s string) Path {
	p, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return p
}

// String returns the textual form.
func (p Path) String() string {
	return string(p)
}

// IsZero reports whether p is the empty reference.
func (p Path) IsZero() bool {
	return p == ""
}

// IsAbsolute reports whether p starts at the workspace root.
func (p Path) IsAbsolute() bool {
	return strings.HasPrefix(string(p), Separator)
}

// Segments returns the non-empty path segments.
func (p Path) Segments() []string {
	body := strings.Trim(string(p), Separator)
	if body == "" {
		return nil
	}
	return strings.Split(body, Separator)
}

// Split divides p into its parent path and leaf name.
// Split("/Pkg/Iface/Element") returns ("/Pkg/Iface", "Element");
// the parent of a top-level absolute path is Root.
func (p Path) Split() (Path, string) {
	s := string(p)
	i := strings.LastIndex(s, Separator)
	switch {
	case i < 0:
		return "", s
	case i == 0:
		return Root, s[1:]
	default:
		return Path(s[:i]), s[i+1:]
	}
}

// Parent returns the parent path of p.
func (p Path) Parent() Path {
	parent, _ := p.Split()
	return parent
}

// Leaf returns the last segment of p.
func (p Path) Leaf() string {
	_, leaf := p.Split()
	return leaf
}

// Join appends name as a new segment.
func (p Path) Join(name string) Path {
	if p == "" {
		return Path(name)
	}
	if p == Root {
		return Path(Separator + name)
	}
	return Path(string(p) + Separator + name)
}

// HasPrefix reports whether p equals prefix or lies below it.
func (p Path) HasPrefix(prefix Path) bool {
	if prefix == Root {
		return p.IsAbsolute()
	}
	return p == prefix || strings.HasPrefix(string(p), string(prefix)+Separator)
}

// RequireAbsolute returns an InvalidReference error for relative or empty paths.
func RequireAbsolute(p Path) error {
	if p.IsZero() {
		return arerrors.NewModelError(arerrors.InvalidReference, "reference cannot be empty", nil)
	}
	if !p.IsAbsolute() {
		return arerrors.NewModelError(arerrors.InvalidReference, "relative reference not allowed", nil).WithRef(string(p))
	}
	return nil
}
