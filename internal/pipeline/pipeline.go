// Package pipeline orchestrates the compiler's phases (C2 through C9)
// into a single CompileFile entry point, grounded on the teacher's
// internal/pipeline/pipeline.go Config/Source/Result shape and its
// start := time.Now(); ...; result.PhaseTimings["x"] = time.Since(start)
// per-phase timing idiom, generalized from AILANG's parse/elaborate/
// typecheck/lower/link/evaluate phases to this compiler's parse/load/
// analyze/generate/cache/build phases.
package pipeline

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/sunholo/boxc/internal/ast"
	"github.com/sunholo/boxc/internal/cache"
	"github.com/sunholo/boxc/internal/codegen"
	"github.com/sunholo/boxc/internal/config"
	"github.com/sunholo/boxc/internal/errors"
	"github.com/sunholo/boxc/internal/module"
	"github.com/sunholo/boxc/internal/runtimeinline"
	"github.com/sunholo/boxc/internal/toolchain"
	"github.com/sunholo/boxc/internal/types"
)

// Options configures one compile. Unlike the teacher's REPL-oriented
// Config, there is no Mode switch: this compiler always goes all the way
// to a native binary (or, with DryRun, stops after code generation for
// diagnostics).
type Options struct {
	OutputPath string        // defaults to source path with its extension stripped
	ShowIR     bool          // dump the deferred-expansion IR sequence in Result
	DryRun     bool          // stop after codegen, skip cache lookup and toolchain
	Opt        toolchain.OptMode
	Config     config.Config
}

// Result mirrors the teacher's Result: generated artifacts plus
// per-phase timings, useful for --show-ir and for profiling slow builds.
type Result struct {
	Source       string
	IR           string
	BinaryPath   string
	FromCache    bool
	PhaseTimings map[string]int64 // milliseconds
}

// CompileFile runs the full pipeline (C2 Module Loader through C9
// Toolchain Driver) for the program rooted at sourcePath.
func CompileFile(sourcePath string, opts Options) (Result, error) {
	result := Result{PhaseTimings: make(map[string]int64)}

	start := time.Now()
	loader := module.NewLoader(sourcePath)
	modules, err := loader.LoadMain(sourcePath)
	if err != nil {
		return result, err
	}
	mod := mergeModules(sourcePath, modules)
	result.PhaseTimings["load"] = time.Since(start).Milliseconds()

	start = time.Now()
	analysis := types.Analyze(mod)
	result.PhaseTimings["analyze"] = time.Since(start).Milliseconds()

	start = time.Now()
	gen := codegen.NewGenerator(analysis)
	genResult, err := gen.Generate(mod)
	if err != nil {
		return result, err
	}
	result.Source = genResult.Source
	if opts.ShowIR {
		result.IR = genResult.IR.Dump()
	}
	result.PhaseTimings["generate"] = time.Since(start).Milliseconds()

	if opts.DryRun {
		return result, nil
	}

	outputPath := opts.OutputPath
	if outputPath == "" {
		outputPath = defaultOutputPath(sourcePath)
	}

	driver := toolchain.NewDriver(opts.Config.ZigPath)
	zigVersion, err := driver.Version()
	if err != nil {
		return result, err
	}

	var buildCache *cache.Cache
	if !opts.Config.CacheDisabled {
		buildCache, err = cache.New(opts.Config.CacheDir)
		if err != nil {
			return result, err
		}
		start = time.Now()
		if entry, ok := buildCache.Lookup(sourcePath, zigVersion); ok {
			if err := copyFile(entry.BinaryPath, outputPath); err == nil {
				result.BinaryPath = outputPath
				result.FromCache = true
				result.PhaseTimings["cache"] = time.Since(start).Milliseconds()
				return result, nil
			}
		}
		result.PhaseTimings["cache"] = time.Since(start).Milliseconds()
	}

	// The generator only emits a `const rt = @import("runtime.zig");`
	// header when the generated body actually calls into it (boundary
	// scenario #1: a pure-numeric program must not link the runtime at
	// all). Splicing is skipped entirely in that case rather than
	// inlining runtime/core.zig's definitions into a unit that never
	// references them.
	buildSource := genResult.Source
	if strings.Contains(genResult.Source, `@import("runtime.zig")`) {
		runtimeDir := filepath.Join(repoRoot(sourcePath), "runtime")
		spliced, err := runtimeinline.Splice(runtimeDir, genResult.Source)
		if err != nil {
			return result, errors.New(errors.CACHE002, "pipeline", err.Error(), nil).Wrap()
		}
		buildSource = spliced
	}

	start = time.Now()
	workDir, err := os.MkdirTemp("", "boxc-build-*")
	if err != nil {
		return result, fmt.Errorf("create build workdir: %w", err)
	}
	defer os.RemoveAll(workDir)

	buildResult, err := driver.Build(buildSource, workDir, outputPath, opts.Opt)
	if err != nil {
		return result, err
	}
	result.PhaseTimings["build"] = time.Since(start).Milliseconds()
	result.BinaryPath = buildResult.BinaryPath

	if buildCache != nil {
		if _, err := buildCache.Store(sourcePath, buildResult.BinaryPath, zigVersion); err != nil {
			return result, err
		}
	}

	return result, nil
}

// mergeModules flattens the loaded import graph into a single
// ast.Module: the accepted import subset has no namespacing (spec.md §6
// "import module (same-directory simple modules)"), so every imported
// module's functions and classes join the main module's global scope,
// while only the main module's top-level statements become `main`.
func mergeModules(sourcePath string, modules map[string]*module.Module) *ast.Module {
	abs, _ := filepath.Abs(sourcePath)
	mainName := ""
	for name, m := range modules {
		if m.Path == abs {
			mainName = name
		}
	}

	names := make([]string, 0, len(modules))
	for name := range modules {
		names = append(names, name)
	}
	sort.Strings(names)

	merged := &ast.Module{Name: mainName}
	for _, name := range names {
		m := modules[name]
		merged.Funcs = append(merged.Funcs, m.AST.Funcs...)
		merged.Classes = append(merged.Classes, m.AST.Classes...)
		if name == mainName {
			merged.Body = m.AST.Body
			merged.Pos = m.AST.Pos
			merged.Path = m.AST.Path
		}
	}
	return merged
}

func defaultOutputPath(sourcePath string) string {
	ext := filepath.Ext(sourcePath)
	return sourcePath[:len(sourcePath)-len(ext)]
}

// repoRoot walks up from the source file looking for a runtime/ sibling
// directory, falling back to the source's own directory. A real
// installation ships runtime/ next to the boxc binary; during
// development it lives at the module root.
func repoRoot(sourcePath string) string {
	dir, err := filepath.Abs(filepath.Dir(sourcePath))
	if err != nil {
		return "."
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, "runtime")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return filepath.Dir(sourcePath)
		}
		dir = parent
	}
}

func copyFile(src, dst string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	return os.WriteFile(dst, data, 0o755)
}
