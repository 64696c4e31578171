package resolve

import (
	"strings"
	"testing"
)

func TestFunctionRegistryRegisterAndCall(t *testing.T) {
	registry := NewFunctionRegistry()
	if err := registry.Register("Upper", func(args ...any) (any, error) {
		return strings.ToUpper(args[0].(string)), nil
	}); err != nil {
		t.Fatalf("register: %v", err)
	}

	// Names are case-insensitive.
	got, err := registry.Call("upper", "alice")
	if err != nil {
		t.Fatalf("call: %v", err)
	}
	if got != "ALICE" {
		t.Fatalf("expected ALICE, got %v", got)
	}
}

func TestFunctionRegistryRejectsDuplicates(t *testing.T) {
	registry := NewFunctionRegistry()
	fn := func(args ...any) (any, error) { return nil, nil }
	if err := registry.Register("upper", fn); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := registry.Register("UPPER", fn); err == nil {
		t.Fatalf("expected duplicate error")
	}
}

func TestFunctionRegistryRejectsInvalidInput(t *testing.T) {
	registry := NewFunctionRegistry()
	if err := registry.Register("", func(args ...any) (any, error) { return nil, nil }); err == nil {
		t.Fatalf("expected error for empty name")
	}
	if err := registry.Register("fn", nil); err == nil {
		t.Fatalf("expected error for nil function")
	}
	if _, err := registry.Call("missing"); err == nil {
		t.Fatalf("expected error for unknown function")
	}
}

func TestFunctionRegistryCloneIsIndependent(t *testing.T) {
	registry := NewFunctionRegistry()
	fn := func(args ...any) (any, error) { return "ok", nil }
	if err := registry.Register("probe", fn); err != nil {
		t.Fatalf("register: %v", err)
	}

	clone := registry.Clone()
	if err := clone.Register("extra", fn); err != nil {
		t.Fatalf("register on clone: %v", err)
	}
	if _, err := registry.Call("extra"); err == nil {
		t.Fatalf("clone registration must not leak into the original")
	}

	names := clone.Names()
	if len(names) != 2 || names[0] != "extra" || names[1] != "probe" {
		t.Fatalf("expected sorted names, got %v", names)
	}
}
