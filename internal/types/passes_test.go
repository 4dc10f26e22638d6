package types

import (
	"sort"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/sunholo/boxc/internal/lexer"
	"github.com/sunholo/boxc/internal/parser"
)

func parseModule(t *testing.T, src string) *Analysis {
	t.Helper()
	lx := lexer.New(src, "t.py")
	p := parser.New(lx, "t.py")
	mod := p.ParseFile()
	if errs := p.Errors(); len(errs) > 0 {
		t.Fatalf("parse errors: %v", errs)
	}
	return Analyze(mod)
}

func TestRuntimeNeedDirectAllocation(t *testing.T) {
	a := parseModule(t, "def make():\n    return [1, 2, 3]\n")
	if !a.Funcs["make"].NeedsAllocator {
		t.Fatal("expected make to need an allocator for its list literal")
	}
}

func TestRuntimeNeedTransitive(t *testing.T) {
	a := parseModule(t, "def inner():\n    return [1]\n\ndef outer():\n    return inner()\n")
	if !a.Funcs["outer"].NeedsAllocator {
		t.Fatal("expected outer to transitively need an allocator via inner")
	}
}

func TestRuntimeNeedAbsentForPureArithmetic(t *testing.T) {
	a := parseModule(t, "def add(a, b):\n    return a + b\n")
	if a.Funcs["add"].NeedsAllocator {
		t.Fatal("expected add (native int arithmetic) to not need an allocator")
	}
}

func TestRuntimeNeedForPrintingADynamicValue(t *testing.T) {
	a := parseModule(t, "def f(xs: list):\n    print(xs)\n")
	if !a.Funcs["f"].NeedsAllocator {
		t.Fatal("expected printing a dynamic value to need an allocator (scoped temp + rt.release)")
	}
}

func TestRuntimeNeedAbsentForPrintingNativeValues(t *testing.T) {
	a := parseModule(t, "def f(n: int, ok: bool):\n    print(n)\n    print(ok)\n    print(1.5)\n")
	if a.Funcs["f"].NeedsAllocator {
		t.Fatal("expected printing only native int/float/bool values to not need an allocator")
	}
}

func TestDeclaredNamesFlatAcrossNesting(t *testing.T) {
	src := "def f(x):\n    if x:\n        y = 1\n    else:\n        y = 2\n    return y\n"
	a := parseModule(t, src)
	got := append([]string{}, a.Declared["f"]...)
	sort.Strings(got)
	want := []string{"x", "y"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("declared names mismatch (-want +got):\n%s", diff)
	}
}

func TestMutableOnlyWhenReassigned(t *testing.T) {
	src := "def f():\n    total = 0\n    total = total + 1\n    once = 5\n    return total\n"
	a := parseModule(t, src)
	if !a.Mutable["f"]["total"] {
		t.Fatal("expected total to be marked mutable after reassignment")
	}
	if a.Mutable["f"]["once"] {
		t.Fatal("expected once (assigned exactly once) to not be marked mutable")
	}
}

func TestClassFieldsCollectedFromInit(t *testing.T) {
	src := "class Point:\n    def __init__(self, x):\n        self.x = x\n        self.y = 0\n"
	a := parseModule(t, src)
	desc, ok := a.Classes["Point"]
	if !ok {
		t.Fatal("expected Point class descriptor")
	}
	if _, ok := desc.Fields["y"]; !ok {
		t.Fatalf("expected field y to be collected, got %v", desc.Fields)
	}
	if desc.Fields["y"].Tag != TagInt {
		t.Fatalf("expected y to be tagged int, got %v", desc.Fields["y"].Tag)
	}
}

func TestLookupMethodWalksBaseChain(t *testing.T) {
	classes := map[string]*ClassDescriptor{
		"Animal": NewClassDescriptor("Animal", ""),
		"Dog":    NewClassDescriptor("Dog", "Animal"),
	}
	animal := classes["Animal"]
	animal.MethodAST["speak"] = nil // presence is what matters for LookupMethod
	if _, _, ok := LookupMethod(classes, "Dog", "speak"); !ok {
		t.Fatal("expected Dog to inherit speak from Animal")
	}
	if _, _, ok := LookupMethod(classes, "Dog", "fly"); ok {
		t.Fatal("expected fly to be absent on both Dog and Animal")
	}
}
