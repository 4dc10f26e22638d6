// Package runtimeinline implements the Runtime Inliner (spec §9's C7): it
// scans a generated Zig translation unit for which rt.* runtime symbols it
// actually calls and selects only the runtime/*.zig source files that
// define them, so a small program doesn't drag in the whole boxed-object
// runtime. Grounded on the teacher's internal/link package, which resolves
// dictionary references to concrete per-typeclass implementations
// (internal/link/linker.go's Linker.LinkProgram) rather than linking every
// registered instance unconditionally.
package runtimeinline

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
)

// catalog maps a bare rt.<symbol> name to the runtime/ source file that
// defines it. Select includes "core.zig" whether or not any of its
// symbols appear, since it defines the boxed Object type itself.
var catalog = map[string]string{
	"print":         "core.zig",
	"len":           "core.zig",
	"to_str":        "core.zig",
	"to_int":        "core.zig",
	"contains":      "core.zig",
	"dyn_dispatch":  "core.zig",
	"dynamic_add":   "core.zig",
	"dynamic_index": "core.zig",
	"slice":         "core.zig",
	"items":         "core.zig",
	"box_int":       "core.zig",
	"box_float":     "core.zig",
	"box_bool":      "core.zig",

	"list_new":        "list.zig",
	"list_get":        "list.zig",
	"list_concat":     "list.zig",
	"rt_list_append":  "list.zig",
	"rt_list_pop":     "list.zig",
	"rt_list_sort":    "list.zig",
	"rt_list_reverse": "list.zig",
	"rt_list_index":   "list.zig",
	"rt_list_count":   "list.zig",
	"rt_list_extend":  "list.zig",
	"rt_list_clear":   "list.zig",
	"rt_list_insert":  "list.zig",
	"rt_list_remove":  "list.zig",
	"rt_list_sum_int": "list.zig",
	"rt_list_min_int": "list.zig",
	"rt_list_max_int": "list.zig",

	"dict_new":           "dict.zig",
	"dict_get":           "dict.zig",
	"rt_dict_get":        "dict.zig",
	"rt_dict_keys":       "dict.zig",
	"rt_dict_values":     "dict.zig",
	"rt_dict_items":      "dict.zig",
	"rt_dict_pop":        "dict.zig",
	"rt_dict_update":     "dict.zig",
	"rt_dict_setdefault": "dict.zig",

	"box_string":        "string.zig",
	"str_concat":        "string.zig",
	"str_index":         "string.zig",
	"rt_str_upper":      "string.zig",
	"rt_str_lower":      "string.zig",
	"rt_str_strip":      "string.zig",
	"rt_str_split":      "string.zig",
	"rt_str_join":       "string.zig",
	"rt_str_find":       "string.zig",
	"rt_str_replace":    "string.zig",
	"rt_str_startswith": "string.zig",
	"rt_str_endswith":   "string.zig",
	"rt_str_format":     "string.zig",

	"tuple_new":      "tuple.zig",
	"tuple_get":      "tuple.zig",
	"rt_tuple_count": "tuple.zig",
	"rt_tuple_index": "tuple.zig",

	"rt_pyint_bit_length": "pyint.zig",
}

var callPattern = regexp.MustCompile(`\brt\.([A-Za-z_][A-Za-z0-9_]*)`)

// Select returns the sorted, de-duplicated set of runtime/*.zig file names
// that source actually needs, always including "core.zig".
func Select(source string) []string {
	needed := map[string]bool{"core.zig": true}
	for _, m := range callPattern.FindAllStringSubmatch(source, -1) {
		if file, ok := catalog[m[1]]; ok {
			needed[file] = true
		}
	}
	names := make([]string, 0, len(needed))
	for name := range needed {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Resolve turns the file names Select returns into absolute paths rooted
// at runtimeDir, verifying each one actually exists on disk so a missing
// or renamed runtime source fails fast with a clear error instead of
// surfacing as a baffling zig build-exe failure later.
func Resolve(runtimeDir, source string) ([]string, error) {
	var paths []string
	for _, name := range Select(source) {
		p := filepath.Join(runtimeDir, name)
		if _, err := os.Stat(p); err != nil {
			return nil, fmt.Errorf("runtime source %s not found: %w", p, err)
		}
		paths = append(paths, p)
	}
	return paths, nil
}

var (
	stdImportLine  = regexp.MustCompile(`^\s*const std = @import\("std"\);\s*$`)
	coreImportLine = regexp.MustCompile(`^\s*const core = @import\("core\.zig"\);\s*$`)
	objectAlias    = regexp.MustCompile(`^\s*const Object = core\.Object;\s*$`)
	rtImportLine   = regexp.MustCompile(`^\s*const rt = @import\("runtime\.zig"\);\s*$`)
)

// stripCrossImports removes a runtime source file's own `const std =
// @import("std")` and `const core = @import("core.zig");`/`const Object =
// core.Object;` lines, then drops the "core." namespace prefix, so the
// file reads as plain top-level declarations once concatenated into one
// translation unit (grounded on original_source/packages/core/compiler.py's
// compile_zig, which does the same per-line strip-and-prefix-removal for
// each runtime module it inlines).
func stripCrossImports(body string) string {
	lines := strings.Split(body, "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		if stdImportLine.MatchString(line) || coreImportLine.MatchString(line) || objectAlias.MatchString(line) {
			continue
		}
		out = append(out, strings.ReplaceAll(line, "core.", ""))
	}
	return strings.Join(out, "\n")
}

// Splice assembles the runtime files Select names plus the generated
// module body into one self-contained Zig translation unit with no
// `rt.`/`core.` cross-file namespacing left in it (spec §4.6): each
// runtime file is stripped of its own std/core import lines and has its
// "core." prefix removed, then the generated body has its own `const std`
// header, its "rt." prefix, and its `@import("runtime.zig")` header line
// all stripped the same way (Splice supplies exactly one `const std`
// import itself), so the whole thing compiles as a single flat Zig file.
//
// When source references no rt.* symbol at all (a pure-numeric program),
// Select still returns just "core.zig" by default; callers that already
// know the generator emitted no runtime header (internal/pipeline, by
// checking the source for the runtime.zig import) should skip calling
// Splice entirely rather than pay
// for inlining a runtime the program never touches (boundary scenario
// #1).
func Splice(runtimeDir string, source string) (string, error) {
	files := Select(source)
	var bodies []string
	for _, name := range files {
		raw, err := os.ReadFile(filepath.Join(runtimeDir, name))
		if err != nil {
			return "", fmt.Errorf("runtimeinline: reading %s: %w", name, err)
		}
		bodies = append(bodies, stripCrossImports(string(raw)))
	}

	generated := strings.ReplaceAll(source, "rt.", "")
	genLines := strings.Split(generated, "\n")
	keptGen := make([]string, 0, len(genLines))
	for _, line := range genLines {
		// The generated module already carries its own `const std =
		// @import("std");` header (Generator.Generate emits it
		// unconditionally); Splice supplies its own copy once above, so
		// the generated body's copy is dropped here the same way its
		// runtime.zig import is.
		if rtImportLine.MatchString(line) || stdImportLine.MatchString(line) {
			continue
		}
		keptGen = append(keptGen, line)
	}

	var out strings.Builder
	out.WriteString("const std = @import(\"std\");\n\n")
	for _, b := range bodies {
		out.WriteString(b)
		out.WriteString("\n\n")
	}
	out.WriteString(strings.Join(keptGen, "\n"))
	return out.String(), nil
}
