// Package module implements the Module Loader of spec §4.2 (C3): given a
// main parsed module, it walks the import list breadth-first, parsing each
// imported source file from the same directory as the main module,
// following imports transitively, and de-duplicating by module name.
package module

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/sunholo/boxc/internal/ast"
	"github.com/sunholo/boxc/internal/errors"
	"github.com/sunholo/boxc/internal/lexer"
	"github.com/sunholo/boxc/internal/parser"
)

// Module wraps a Parsed Module (spec §3) with the bookkeeping the loader
// needs: its canonical name, absolute file path, and declared imports.
type Module struct {
	Name    string
	Path    string // absolute file path
	AST     *ast.Module
	Imports []string
}

// Loader resolves and recursively parses a main module's imports (C3).
// Imports are simple identifiers resolved relative to the main module's
// directory, plus any extra directories named by BOXC_PATH — dotted
// imports and packages are out of the accepted subset (spec §6).
type Loader struct {
	mu          sync.RWMutex
	cache       map[string]*Module
	searchPaths []string
	loadStack   []string
}

// NewLoader creates a Loader rooted at the directory containing mainFile.
func NewLoader(mainFile string) *Loader {
	dir := filepath.Dir(mainFile)
	paths := []string{dir}
	if extra := os.Getenv("BOXC_PATH"); extra != "" {
		paths = append(paths, strings.Split(extra, string(os.PathListSeparator))...)
	}
	return &Loader{
		cache:       make(map[string]*Module),
		searchPaths: paths,
	}
}

// LoadMain parses mainFile and then recursively loads every module it
// (transitively) imports, de-duplicating by module name, returning the
// full set keyed by module name. It always includes the main module under
// its own name.
func (l *Loader) LoadMain(mainFile string) (map[string]*Module, error) {
	abs, err := filepath.Abs(mainFile)
	if err != nil {
		return nil, fmt.Errorf("invalid source path: %w", err)
	}

	l.pushStack(moduleName(abs))
	main, err := l.loadFile(abs)
	if err != nil {
		l.popStack()
		return nil, err
	}
	for _, dep := range main.Imports {
		if _, err := l.Load(dep); err != nil {
			l.popStack()
			return nil, err
		}
	}
	l.popStack()

	l.mu.RLock()
	defer l.mu.RUnlock()
	result := make(map[string]*Module, len(l.cache)+1)
	for name, mod := range l.cache {
		result[name] = mod
	}
	result[main.Name] = main
	return result, nil
}

// Load resolves and parses a single module by its simple name, following
// its own imports transitively and using the cache to de-duplicate
// repeated imports. A module re-appearing on the active load stack is an
// import cycle (spec §4.2/§7).
func (l *Loader) Load(name string) (*Module, error) {
	if err := l.checkCycle(name); err != nil {
		return nil, err
	}
	if mod := l.getCached(name); mod != nil {
		return mod, nil
	}

	l.pushStack(name)
	defer l.popStack()

	path, err := l.resolve(name)
	if err != nil {
		return nil, errors.ModuleNotFound(name, err.Error()).Wrap()
	}
	mod, err := l.loadFile(path)
	if err != nil {
		return nil, err
	}
	for _, dep := range mod.Imports {
		if _, err := l.Load(dep); err != nil {
			return nil, err
		}
	}
	return mod, nil
}

func (l *Loader) loadFile(path string) (*Module, error) {
	name := moduleName(path)
	if mod := l.getCached(name); mod != nil {
		return mod, nil
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.ModuleNotFound(name, path).Wrap()
	}

	src := lexer.Normalize(content)
	lx := lexer.New(string(src), path)
	p := parser.New(lx, path)
	file := p.ParseFile()
	if errs := p.Errors(); len(errs) > 0 {
		return nil, fmt.Errorf("parse errors in %s: %v", path, errs)
	}

	mod := &Module{
		Name:    name,
		Path:    path,
		AST:     file,
		Imports: file.Imports,
	}
	l.cacheModule(mod)
	return mod, nil
}

func (l *Loader) resolve(name string) (string, error) {
	for _, dir := range l.searchPaths {
		candidate := filepath.Join(dir, name+".py")
		if _, err := os.Stat(candidate); err == nil {
			return filepath.Abs(candidate)
		}
	}
	return "", fmt.Errorf("searched %v for %s.py", l.searchPaths, name)
}

func moduleName(path string) string {
	return strings.TrimSuffix(filepath.Base(path), ".py")
}

func (l *Loader) getCached(name string) *Module {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.cache[name]
}

func (l *Loader) cacheModule(mod *Module) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.cache[mod.Name] = mod
}

func (l *Loader) checkCycle(name string) error {
	for _, id := range l.loadStack {
		if id == name {
			return errors.New(errors.MOD002, "module",
				fmt.Sprintf("import cycle detected: %s -> %s", strings.Join(l.loadStack, " -> "), name), nil).Wrap()
		}
	}
	return nil
}

func (l *Loader) pushStack(name string) { l.loadStack = append(l.loadStack, name) }
func (l *Loader) popStack() {
	if len(l.loadStack) > 0 {
		l.loadStack = l.loadStack[:len(l.loadStack)-1]
	}
}
