package errors

import (
	"strings"
	"testing"

	"github.com/sunholo/boxc/internal/ast"
)

func TestNotImplementedReport(t *testing.T) {
	pos := ast.Pos{File: "m.py", Line: 3, Column: 1}
	rep := NotImplemented("with-statement", pos)
	if rep.Code != GEN001 {
		t.Fatalf("expected code %s, got %s", GEN001, rep.Code)
	}
	if !strings.Contains(rep.Message, "with-statement") {
		t.Fatalf("message missing construct name: %q", rep.Message)
	}
	err := rep.Wrap()
	got, ok := AsReport(err)
	if !ok || got.Code != GEN001 {
		t.Fatalf("AsReport failed to round-trip: %v %v", got, ok)
	}
}

func TestModuleNotFoundReport(t *testing.T) {
	rep := ModuleNotFound("helpers", "/src/helpers.py")
	if rep.Code != MOD001 {
		t.Fatalf("expected %s, got %s", MOD001, rep.Code)
	}
	if rep.Data["searched"] != "/src/helpers.py" {
		t.Fatalf("expected searched path in data, got %v", rep.Data)
	}
}

func TestReportJSONIsDeterministic(t *testing.T) {
	rep := New(GEN003, "codegen", "unknown method upper for list", nil).WithData("method", "upper")
	a, err := rep.ToJSON(true)
	if err != nil {
		t.Fatalf("ToJSON: %v", err)
	}
	b, _ := rep.ToJSON(true)
	if a != b {
		t.Fatalf("expected deterministic JSON, got %q vs %q", a, b)
	}
}

func TestCompilationFailedPrefix(t *testing.T) {
	rep := CompilationFailed("undefined symbol 'foo'")
	if !strings.HasPrefix(rep.Message, "compilation failed:") {
		t.Fatalf("expected compilation failed prefix, got %q", rep.Message)
	}
}
