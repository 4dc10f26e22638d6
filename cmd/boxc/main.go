// Command boxc is the CLI surface of spec.md §6, grounded on the
// teacher's cmd/ailang/main.go flag-dispatch idiom and fatih/color output.
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/fatih/color"

	"github.com/sunholo/boxc/internal/cache"
	"github.com/sunholo/boxc/internal/config"
	"github.com/sunholo/boxc/internal/pipeline"
	"github.com/sunholo/boxc/internal/toolchain"
)

var (
	Version = "dev"

	green  = color.New(color.FgGreen).SprintFunc()
	red    = color.New(color.FgRed).SprintFunc()
	yellow = color.New(color.FgYellow).SprintFunc()
	cyan   = color.New(color.FgCyan).SprintFunc()
	bold   = color.New(color.Bold).SprintFunc()
)

func main() {
	var (
		versionFlag = flag.Bool("version", false, "Print version information")
		helpFlag    = flag.Bool("help", false, "Show help")
		showIR      = flag.Bool("show-ir", false, "Dump generated Zig source and deferred IR before invoking the toolchain")
		outDir      = flag.String("o", "./bin", "Output directory for the build subcommand")
	)
	flag.Parse()

	if *versionFlag {
		fmt.Printf("boxc %s\n", bold(Version))
		return
	}
	if *helpFlag || flag.NArg() == 0 {
		printHelp()
		return
	}

	cmd := flag.Arg(0)
	switch {
	case cmd == "build":
		os.Exit(runBuild(flag.Args()[1:], *outDir, *showIR))
	case cmd == "cache" && flag.NArg() >= 2 && flag.Arg(1) == "clean":
		os.Exit(runCacheClean())
	default:
		os.Exit(runCompileAndExecute(cmd, *showIR))
	}
}

func printHelp() {
	fmt.Println(bold("boxc - ahead-of-time compiler for the accepted Python subset"))
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Printf("  %s <source.py>                 Compile-if-stale and run, exit code is the child's\n", cyan("boxc"))
	fmt.Printf("  %s build [path] [-o outdir]    Build one file or a directory of files\n", cyan("boxc"))
	fmt.Printf("  %s cache clean                 Remove all cached build artifacts\n", cyan("boxc"))
	fmt.Println()
	fmt.Println("Flags:")
	fmt.Println("  --show-ir        Dump generated Zig source and deferred IR")
	fmt.Println("  -o <dir>         Output directory for build (default ./bin)")
	fmt.Println("  --version        Print version information")
	fmt.Println()
	fmt.Println("Environment:")
	fmt.Println("  BOXC_RELEASE=1   Build with ReleaseFast instead of Debug")
	fmt.Println("  BOXC_CACHE=0     Disable the build cache")
	fmt.Println("  BOXC_PATH        Extra module search directories")
}

func loadConfig() config.Config {
	wd, _ := os.Getwd()
	cfg, err := config.Load(wd)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: loading boxc.yaml: %v\n", red("Error"), err)
		os.Exit(1)
	}
	return cfg
}

func optMode(cfg config.Config) toolchain.OptMode {
	if cfg.Release {
		return toolchain.ReleaseFast
	}
	return toolchain.Debug
}

// runCompileAndExecute implements `boxc <source.py>`: compile-if-stale,
// then run the resulting binary with its exit code propagated (spec.md
// §6: "exit code is the child's").
func runCompileAndExecute(source string, showIR bool) int {
	cfg := loadConfig()
	res, err := pipeline.CompileFile(source, pipeline.Options{
		ShowIR: showIR,
		Opt:    optMode(cfg),
		Config: cfg,
	})
	if err != nil {
		reportError(err)
		return 1
	}
	if showIR {
		fmt.Println(res.Source)
		fmt.Println(res.IR)
	}

	child := exec.Command(res.BinaryPath)
	child.Stdin = os.Stdin
	child.Stdout = os.Stdout
	child.Stderr = os.Stderr
	if err := child.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return exitErr.ExitCode()
		}
		fmt.Fprintf(os.Stderr, "%s: %v\n", red("Error"), err)
		return 1
	}
	return 0
}

// runBuild implements `boxc build [path] [-o outdir] [--show-ir]`: a
// single file, or every .py file under a directory (recursive unless the
// path names the current directory explicitly, spec.md §6).
func runBuild(args []string, outDir string, showIR bool) int {
	path := "."
	for i := 0; i < len(args); i++ {
		switch {
		case args[i] == "-o" && i+1 < len(args):
			outDir = args[i+1]
			i++
		case args[i] == "--show-ir" || args[i] == "-show-ir":
			showIR = true
		default:
			path = args[i]
		}
	}
	cfg := loadConfig()

	sources, err := collectSources(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", red("Error"), err)
		return 1
	}
	if len(sources) == 0 {
		fmt.Fprintf(os.Stderr, "%s: no .py sources found under %s\n", yellow("Warning"), path)
		return 0
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "%s: create output dir: %v\n", red("Error"), err)
		return 1
	}

	failed := false
	for _, src := range sources {
		name := strings.TrimSuffix(filepath.Base(src), filepath.Ext(src))
		out := filepath.Join(outDir, name)
		res, err := pipeline.CompileFile(src, pipeline.Options{
			OutputPath: out,
			ShowIR:     showIR,
			Opt:        optMode(cfg),
			Config:     cfg,
		})
		if err != nil {
			reportError(err)
			failed = true
			continue
		}
		if showIR {
			fmt.Println(res.Source)
			fmt.Println(res.IR)
		}
		fmt.Printf("%s %s -> %s\n", green("✓"), src, res.BinaryPath)
	}
	if failed {
		return 1
	}
	return 0
}

func runCacheClean() int {
	cfg := loadConfig()
	c, err := cache.New(cfg.CacheDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", red("Error"), err)
		return 1
	}
	if err := c.Clean(); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", red("Error"), err)
		return 1
	}
	fmt.Printf("%s cache cleaned: %s\n", green("✓"), cfg.CacheDir)
	return 0
}

// collectSources finds the .py sources to build for `boxc build [path]`.
// A bare "." stays at the current level; any other directory path is
// walked recursively (spec.md §6).
func collectSources(path string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return []string{path}, nil
	}
	if path == "." {
		return collectTopLevelSources(path)
	}

	var sources []string
	err = filepath.WalkDir(path, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if filepath.Ext(p) == ".py" {
			sources = append(sources, p)
		}
		return nil
	})
	return sources, err
}

func collectTopLevelSources(path string) ([]string, error) {
	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, err
	}
	var sources []string
	for _, e := range entries {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".py" {
			sources = append(sources, filepath.Join(path, e.Name()))
		}
	}
	return sources, nil
}

func reportError(err error) {
	fmt.Fprintf(os.Stderr, "%s: %v\n", red("Error"), err)
}
