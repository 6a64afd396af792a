package errors

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestNewModelError(t *testing.T) {
	cause := errors.New("underlying error")

	err := NewModelError(UnresolvedReference, "port interface not found", cause)

	if err.Code != UnresolvedReference {
		t.Errorf("Code = %v, want %v", err.Code, UnresolvedReference)
	}
	if err.Message != "port interface not found" {
		t.Errorf("Message = %q, want %q", err.Message, "port interface not found")
	}
	if err.Unwrap() != cause {
		t.Errorf("Unwrap() = %v, want %v", err.Unwrap(), cause)
	}
}

func TestModelError_Error(t *testing.T) {
	tests := []struct {
		name      string
		err       *ModelError
		wantParts []string
	}{
		{
			name:      "with cause",
			err:       NewModelError(InvalidValue, "bad queue length", errors.New("strconv failure")),
			wantParts: []string{"INVALID_VALUE", "bad queue length", "strconv failure"},
		},
		{
			name:      "with location",
			err:       Unsupported("FOO-BAR", "PORTS").AtPath("/Pkg/Swc"),
			wantParts: []string{"UNSUPPORTED_CONSTRUCT", "<FOO-BAR>", "path=/Pkg/Swc", "tag=FOO-BAR"},
		},
		{
			name:      "type mismatch names both types",
			err:       TypeMismatch("constant value has different type from data element", "T1", "T2"),
			wantParts: []string{"TYPE_INCOMPATIBLE", "expected 'T1', found 'T2'"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.err.Error()
			for _, part := range tt.wantParts {
				if !strings.Contains(got, part) {
					t.Errorf("Error() = %q, want to contain %q", got, part)
				}
			}
		})
	}
}

func TestModelError_Is(t *testing.T) {
	err := fmt.Errorf("loading file: %w", Unresolved("constant", "/Pkg/C1"))

	if !errors.Is(err, ErrUnresolvedReference) {
		t.Error("errors.Is should match ErrUnresolvedReference through wrapping")
	}
	if errors.Is(err, ErrTypeIncompatible) {
		t.Error("errors.Is should not match a different code")
	}
	if got := CodeOf(err); got != UnresolvedReference {
		t.Errorf("CodeOf() = %v, want %v", got, UnresolvedReference)
	}
	if got := CodeOf(errors.New("plain")); got != "" {
		t.Errorf("CodeOf(plain) = %v, want empty", got)
	}
}

func TestModelError_LocationInnermostWins(t *testing.T) {
	err := Structural("duplicate path").AtPath("/Pkg/Swc/RPort")
	err.AtPath("/Pkg/Swc")

	if err.Location.Path != "/Pkg/Swc/RPort" {
		t.Errorf("Location.Path = %q, want %q", err.Location.Path, "/Pkg/Swc/RPort")
	}
}

func TestModelError_WithDetails(t *testing.T) {
	err := Invalid("queue length %q", "abc")
	details := map[string]string{"field": "queueLength"}

	result := err.WithDetails(details)

	if result != err {
		t.Error("WithDetails should return the same error for chaining")
	}
	if err.Details == nil {
		t.Error("Details should be set")
	}
}

func TestErrorCodes(t *testing.T) {
	codes := []ErrorCode{
		UnresolvedReference,
		TypeIncompatible,
		UnknownElement,
		UnsupportedConstruct,
		StructuralViolation,
		InvalidValue,
		InvalidReference,
	}

	seen := make(map[ErrorCode]bool)
	for _, code := range codes {
		if seen[code] {
			t.Errorf("Duplicate error code: %v", code)
		}
		seen[code] = true

		if string(code) == "" {
			t.Error("Error code should not be empty")
		}
	}
}
