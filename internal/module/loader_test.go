package module

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

func TestLoadMainWithTransitiveImport(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "helpers.py", "def add(a, b):\n    return a + b\n")
	main := writeFile(t, dir, "main.py", "import helpers\nprint(helpers.add(1, 2))\n")

	l := NewLoader(main)
	mods, err := l.LoadMain(main)
	if err != nil {
		t.Fatalf("LoadMain: %v", err)
	}
	if _, ok := mods["main"]; !ok {
		t.Fatalf("expected main module in result, got %v", mods)
	}
	if _, ok := mods["helpers"]; !ok {
		t.Fatalf("expected helpers module in result, got %v", mods)
	}
}

func TestLoadMainMissingImport(t *testing.T) {
	dir := t.TempDir()
	main := writeFile(t, dir, "main.py", "import nope\n")

	l := NewLoader(main)
	_, err := l.LoadMain(main)
	if err == nil {
		t.Fatal("expected module-not-found error")
	}
}

func TestLoadMainImportCycle(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.py", "import b\n")
	main := writeFile(t, dir, "b.py", "import a\n")

	l := NewLoader(main)
	_, err := l.LoadMain(main)
	if err == nil {
		t.Fatal("expected import cycle error")
	}
}

func TestLoadDeduplicatesDiamondImport(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "base.py", "def one():\n    return 1\n")
	writeFile(t, dir, "left.py", "import base\n")
	writeFile(t, dir, "right.py", "import base\n")
	main := writeFile(t, dir, "main.py", "import left\nimport right\n")

	l := NewLoader(main)
	mods, err := l.LoadMain(main)
	if err != nil {
		t.Fatalf("LoadMain: %v", err)
	}
	if len(mods) != 4 {
		t.Fatalf("expected 4 distinct modules (main,left,right,base), got %d: %v", len(mods), mods)
	}
}
