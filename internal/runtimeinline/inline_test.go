package runtimeinline

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestSelectAlwaysIncludesCore(t *testing.T) {
	got := Select("pub fn main() void {}")
	if diff := cmp.Diff([]string{"core.zig"}, got); diff != "" {
		t.Fatalf("mismatch (-want +got):\n%s", diff)
	}
}

func TestSelectPicksFilesForUsedSymbolsOnly(t *testing.T) {
	src := `try rt.rt_list_append(xs, 1);
var y = rt.dict_get(d, "k");
`
	got := Select(src)
	want := []string{"core.zig", "dict.zig", "list.zig"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("mismatch (-want +got):\n%s", diff)
	}
}

func TestResolveFailsOnMissingRuntimeFile(t *testing.T) {
	dir := t.TempDir()
	os.WriteFile(filepath.Join(dir, "core.zig"), []byte("//core"), 0o644)
	_, err := Resolve(dir, `try rt.rt_str_upper(s)`)
	if err == nil {
		t.Fatal("expected error for missing string.zig")
	}
}

func TestResolveReturnsAbsolutePathsForUsedFiles(t *testing.T) {
	dir := t.TempDir()
	os.WriteFile(filepath.Join(dir, "core.zig"), []byte("//core"), 0o644)
	os.WriteFile(filepath.Join(dir, "tuple.zig"), []byte("//tuple"), 0o644)
	paths, err := Resolve(dir, `rt.rt_tuple_count(t)`)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if len(paths) != 2 {
		t.Fatalf("expected 2 paths, got %v", paths)
	}
}

func TestSpliceStripsCrossImportsAndRtPrefix(t *testing.T) {
	dir := t.TempDir()
	core := "const std = @import(\"std\");\n" +
		"pub const Object = struct { refcount: usize = 1 };\n" +
		"pub fn len(o: *Object) usize { return 0; }\n"
	os.WriteFile(filepath.Join(dir, "core.zig"), []byte(core), 0o644)

	generated := "const std = @import(\"std\");\n" +
		"const rt = @import(\"runtime.zig\");\n\n" +
		"pub fn main() !void {\n" +
		"    std.debug.print(\"{d}\\n\", .{rt.len(x)});\n" +
		"}\n"

	out, err := Splice(dir, generated)
	if err != nil {
		t.Fatalf("Splice: %v", err)
	}
	if strings.Contains(out, "@import(\"runtime.zig\")") {
		t.Fatalf("spliced output still imports runtime.zig:\n%s", out)
	}
	if strings.Contains(out, "rt.len") {
		t.Fatalf("spliced output still has an rt. prefix:\n%s", out)
	}
	if !strings.Contains(out, "len(x)") {
		t.Fatalf("spliced output missing inlined call:\n%s", out)
	}
	if !strings.Contains(out, "pub fn len(o: *Object)") {
		t.Fatalf("spliced output missing core.zig body:\n%s", out)
	}
	if strings.Count(out, "@import(\"std\")") != 1 {
		t.Fatalf("expected exactly one std import, got:\n%s", out)
	}
}

func TestSpliceOnlyIncludesNeededRuntimeFiles(t *testing.T) {
	dir := t.TempDir()
	os.WriteFile(filepath.Join(dir, "core.zig"), []byte("pub fn core_marker() void {}\n"), 0o644)
	os.WriteFile(filepath.Join(dir, "list.zig"), []byte("pub fn list_marker() void {}\n"), 0o644)
	os.WriteFile(filepath.Join(dir, "dict.zig"), []byte("pub fn dict_marker() void {}\n"), 0o644)

	generated := "pub fn main() void {\n    rt.list_new(allocator, &.{});\n}\n"
	out, err := Splice(dir, generated)
	if err != nil {
		t.Fatalf("Splice: %v", err)
	}
	if !strings.Contains(out, "list_marker") {
		t.Fatalf("expected list.zig to be spliced in:\n%s", out)
	}
	if strings.Contains(out, "dict_marker") {
		t.Fatalf("dict.zig should not be spliced in when unused:\n%s", out)
	}
}
