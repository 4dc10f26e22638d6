package codegen

import (
	"strings"
	"testing"

	"github.com/sunholo/boxc/internal/lexer"
	"github.com/sunholo/boxc/internal/parser"
	"github.com/sunholo/boxc/internal/types"
)

func generate(t *testing.T, src string) *Result {
	t.Helper()
	lx := lexer.New(src, "t.py")
	p := parser.New(lx, "t.py")
	mod := p.ParseFile()
	if errs := p.Errors(); len(errs) > 0 {
		t.Fatalf("parse errors: %v", errs)
	}
	analysis := types.Analyze(mod)
	res, err := NewGenerator(analysis).Generate(mod)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	return res
}

func TestGeneratePureArithmeticFunction(t *testing.T) {
	res := generate(t, "def add(a, b):\n    return a + b\n")
	if !strings.Contains(res.Source, "pub fn add(a: i64, b: i64)") {
		t.Fatalf("expected native i64 signature, got:\n%s", res.Source)
	}
	if strings.Contains(res.Source, "allocator:") {
		t.Fatalf("pure arithmetic function should not thread an allocator:\n%s", res.Source)
	}
}

func TestGenerateListLiteralThreadsAllocator(t *testing.T) {
	res := generate(t, "def make():\n    return [1, 2, 3]\n")
	if !strings.Contains(res.Source, "allocator: std.mem.Allocator") {
		t.Fatalf("expected allocator parameter for list-returning function, got:\n%s", res.Source)
	}
	if !strings.Contains(res.Source, "rt.list_new") {
		t.Fatalf("expected rt.list_new call, got:\n%s", res.Source)
	}
}

func TestGenerateMethodCallUsesRegistryShape(t *testing.T) {
	res := generate(t, "def f(xs: list):\n    xs.append(1)\n")
	if !strings.Contains(res.Source, "rt.rt_list_append") {
		t.Fatalf("expected append to lower via registry's rt_list_append, got:\n%s", res.Source)
	}
}

func TestGenerateUntypedReceiverMethodDispatchesDynamically(t *testing.T) {
	res := generate(t, "def f(xs):\n    xs.append(1)\n")
	if !strings.Contains(res.Source, "rt.dyn_dispatch") {
		t.Fatalf("expected untyped receiver to dispatch dynamically, got:\n%s", res.Source)
	}
}

func TestGenerateNativeIntAddRecordsNoSum(t *testing.T) {
	res := generate(t, "def f(a, b):\n    return a + b\n")
	for _, op := range res.IR {
		if op.Kind().String() == "sum" {
			t.Fatal("pure int+int should resolve immediately, not defer to ir.Sum")
		}
	}
}

func TestGenerateStringConcatDefersSumAndNeedsTry(t *testing.T) {
	res := generate(t, "def g(a: str, b: str):\n    return a + b\n")
	found := false
	for _, op := range res.IR {
		if op.Kind().String() == "sum" {
			found = true
		}
	}
	if !found {
		t.Fatal("expected string concatenation to defer an ir.Sum node")
	}
	if !strings.Contains(res.Source, "try rt.str_concat") {
		t.Fatalf("expected a try-wrapped str_concat call, got:\n%s", res.Source)
	}
}

func TestGenerateStatementMethodCallIsNotDiscarded(t *testing.T) {
	res := generate(t, "def f(xs: list):\n    xs.append(1)\n    xs.sort()\n")
	if strings.Contains(res.Source, "_ = try rt.rt_list_append") || strings.Contains(res.Source, "_ = rt.rt_list_sort") {
		t.Fatalf("statement-form calls must not be discarded with `_ =`, got:\n%s", res.Source)
	}
	if !strings.Contains(res.Source, "try rt.rt_list_append") {
		t.Fatalf("expected a bare try-statement append call, got:\n%s", res.Source)
	}
	if !strings.Contains(res.Source, "rt.rt_list_sort") {
		t.Fatalf("expected a bare sort call, got:\n%s", res.Source)
	}
}

func TestGenerateValueMethodCallAsStatementIsStillDiscarded(t *testing.T) {
	res := generate(t, "def f(xs: list):\n    xs.pop()\n")
	if !strings.Contains(res.Source, "_ = try rt.rt_list_pop") {
		t.Fatalf("expected xs.pop() used as a bare statement to still discard its result, got:\n%s", res.Source)
	}
}

func TestGenerateTryExceptLowersToLabeledBlock(t *testing.T) {
	res := generate(t, "def f(xs: list):\n    try:\n        xs.append(1)\n    except IndexError:\n        print(0)\n")
	if !strings.Contains(res.Source, "try_1: {") {
		t.Fatalf("expected a labeled try block, got:\n%s", res.Source)
	}
	if !strings.Contains(res.Source, "catch |err| switch (err)") {
		t.Fatalf("expected a fallible call inside the try to dispatch on err, got:\n%s", res.Source)
	}
	if !strings.Contains(res.Source, "error.IndexError =>") {
		t.Fatalf("expected an IndexError arm, got:\n%s", res.Source)
	}
	if !strings.Contains(res.Source, "break :try_1;") {
		t.Fatalf("expected the handler to break out of the labeled block, got:\n%s", res.Source)
	}
}

func TestGenerateBareExceptBecomesElseArm(t *testing.T) {
	res := generate(t, "def f(xs: list):\n    try:\n        xs.append(1)\n    except:\n        print(0)\n")
	if !strings.Contains(res.Source, "else => {") {
		t.Fatalf("expected a bare except to become the switch's else arm, got:\n%s", res.Source)
	}
	if strings.Contains(res.Source, "else => return err") {
		t.Fatalf("a bare except handles every error, it should not re-propagate, got:\n%s", res.Source)
	}
}

func TestGenerateUnhandledErrorTagRepropagates(t *testing.T) {
	res := generate(t, "def f(xs: list):\n    try:\n        xs.append(1)\n    except ValueError:\n        print(0)\n")
	if !strings.Contains(res.Source, "else => return err") {
		t.Fatalf("expected an unmatched error tag to re-propagate with return err, got:\n%s", res.Source)
	}
}

func TestGenerateReassignedLocalListReleasesOldValue(t *testing.T) {
	res := generate(t, "def f():\n    xs = [1, 2]\n    xs = [3, 4]\n    return xs\n")
	if !strings.Contains(res.Source, "rt.release(allocator, xs)") {
		t.Fatalf("expected the first list value to be released before reassignment, got:\n%s", res.Source)
	}
}

func TestGenerateBorrowedIndexReadSkipsRetainAndRelease(t *testing.T) {
	res := generate(t, "def f(xs: list):\n    y = xs[0]\n    return 0\n")
	if strings.Contains(res.Source, "rt.retain(y)") {
		t.Fatalf("a borrowed index read must not be retained, got:\n%s", res.Source)
	}
	if strings.Contains(res.Source, "rt.release(allocator, y)") {
		t.Fatalf("a borrowed index read must not be released at scope end, got:\n%s", res.Source)
	}
}

func TestGenerateAliasBindingRetainsAndReleases(t *testing.T) {
	res := generate(t, "def f(xs: list):\n    y = xs\n    return 0\n")
	if !strings.Contains(res.Source, "rt.retain(y)") {
		t.Fatalf("expected an aliasing bare-name binding to retain, got:\n%s", res.Source)
	}
	if !strings.Contains(res.Source, "defer rt.release(allocator, y)") {
		t.Fatalf("expected an aliasing binding to release at scope end, got:\n%s", res.Source)
	}
}

func TestGenerateSumMinMaxBuiltins(t *testing.T) {
	res := generate(t, "def f(xs: list):\n    return sum(xs)\n")
	if !strings.Contains(res.Source, "rt.rt_list_sum_int(xs)") {
		t.Fatalf("expected sum() to lower to rt_list_sum_int, got:\n%s", res.Source)
	}

	res = generate(t, "def g(a, b):\n    return min(a, b)\n")
	if !strings.Contains(res.Source, "@min(a, b)") {
		t.Fatalf("expected varargs min() to lower to @min, got:\n%s", res.Source)
	}

	res = generate(t, "def h(xs: list):\n    return max(xs)\n")
	if !strings.Contains(res.Source, "rt.rt_list_max_int(xs)") {
		t.Fatalf("expected single-iterable max() to lower to rt_list_max_int, got:\n%s", res.Source)
	}
}

func TestGenerateComprehensionEmitsInlineLoop(t *testing.T) {
	res := generate(t, "def f(xs: list):\n    return [x for x in xs if x]\n")
	if !strings.Contains(res.Source, "while (_i1 < rt.items(xs).len)") {
		t.Fatalf("expected an inline while loop over rt.items, got:\n%s", res.Source)
	}
	if !strings.Contains(res.Source, "if (!(x)) continue;") {
		t.Fatalf("expected the filter condition to short-circuit with continue, got:\n%s", res.Source)
	}
	if !strings.Contains(res.Source, "rt.rt_list_append(allocator, _comp1,") {
		t.Fatalf("expected the projected result to be appended to the accumulator, got:\n%s", res.Source)
	}
}

func TestGeneratePureNumericProgramNeverLinksRuntime(t *testing.T) {
	res := generate(t, "def add(a, b):\n    return a + b\n")
	if strings.Contains(res.Source, `@import("runtime.zig")`) {
		t.Fatalf("a pure-numeric program must not link the runtime, got:\n%s", res.Source)
	}
	if strings.Contains(res.Source, "rt.") {
		t.Fatalf("a pure-numeric program must not reference rt. at all, got:\n%s", res.Source)
	}
}

func TestGeneratePrintNativeIntSkipsRuntime(t *testing.T) {
	res := generate(t, "def f():\n    print(1)\n")
	if !strings.Contains(res.Source, "std.debug.print(\"{d}\\n\", .{1});") {
		t.Fatalf("expected a native int print to go straight through std.debug.print, got:\n%s", res.Source)
	}
	if strings.Contains(res.Source, "rt.print") {
		t.Fatalf("a native int print must not call rt.print, got:\n%s", res.Source)
	}
}

func TestGeneratePrintDynamicValueUsesRuntimePrint(t *testing.T) {
	res := generate(t, "def f(xs: list):\n    print(xs)\n")
	if !strings.Contains(res.Source, "rt.print(") {
		t.Fatalf("expected a dynamic value print to call rt.print, got:\n%s", res.Source)
	}
}

func TestGenerateClassFieldsAndInit(t *testing.T) {
	res := generate(t, "class Point:\n    def __init__(self, x):\n        self.x = x\n        self.y = 0\n")
	if !strings.Contains(res.Source, "pub const Point = struct") {
		t.Fatalf("expected Point struct, got:\n%s", res.Source)
	}
	if !strings.Contains(res.Source, "y: i64") {
		t.Fatalf("expected y field typed as i64 from its literal initializer, got:\n%s", res.Source)
	}
}
