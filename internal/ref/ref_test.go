package ref

import (
	"errors"
	"testing"

	arerrors "autosar/internal/errors"
)

func TestPath_Split(t *testing.T) {
	tests := []struct {
		path       Path
		wantParent Path
		wantLeaf   string
	}{
		{"/Pkg/Iface/Element", "/Pkg/Iface", "Element"},
		{"/Pkg", Root, "Pkg"},
		{"Iface/Element", "Iface", "Element"},
		{"Element", "", "Element"},
	}

	for _, tt := range tests {
		t.Run(string(tt.path), func(t *testing.T) {
			parent, leaf := tt.path.Split()
			if parent != tt.wantParent {
				t.Errorf("parent = %q, want %q", parent, tt.wantParent)
			}
			if leaf != tt.wantLeaf {
				t.Errorf("leaf = %q, want %q", leaf, tt.wantLeaf)
			}
			if tt.wantParent != "" && parent.Join(leaf) != tt.path {
				t.Errorf("Join(Split()) = %q, want %q", parent.Join(leaf), tt.path)
			}
		})
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		input   string
		wantErr bool
	}{
		{"/Pkg/Swc", false},
		{"Swc/Port", false},
		{"/", false},
		{"", true},
		{"/Pkg//Swc", true},
		{"/Pkg/Swc/", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			_, err := Parse(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Parse(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, arerrors.ErrInvalidReference) {
				t.Errorf("Parse(%q) error = %v, want INVALID_REFERENCE", tt.input, err)
			}
		})
	}
}

func TestPath_Segments(t *testing.T) {
	segs := Path("/A/B/C").Segments()
	if len(segs) != 3 || segs[0] != "A" || segs[2] != "C" {
		t.Errorf("Segments() = %v, want [A B C]", segs)
	}
	if Root.Segments() != nil {
		t.Errorf("Root.Segments() = %v, want nil", Root.Segments())
	}
}

func TestPath_HasPrefix(t *testing.T) {
	p := Path("/Pkg/Comp/Proto")
	if !p.HasPrefix("/Pkg/Comp") {
		t.Error("expected /Pkg/Comp to be a prefix")
	}
	if p.HasPrefix("/Pkg/Co") {
		t.Error("segment prefixes must not match partial names")
	}
	if !p.HasPrefix(Root) {
		t.Error("root is a prefix of every absolute path")
	}
}

func TestRequireAbsolute(t *testing.T) {
	if err := RequireAbsolute("/Pkg"); err != nil {
		t.Errorf("RequireAbsolute(/Pkg) = %v, want nil", err)
	}
	if err := RequireAbsolute("Pkg"); !errors.Is(err, arerrors.ErrInvalidReference) {
		t.Errorf("RequireAbsolute(Pkg) = %v, want INVALID_REFERENCE", err)
	}
	if err := RequireAbsolute(""); err == nil {
		t.Error("RequireAbsolute(\"\") should fail")
	}
}
