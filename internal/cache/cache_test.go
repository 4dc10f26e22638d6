package cache

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLookupMissesWhenNeverStored(t *testing.T) {
	c, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	src := filepath.Join(t.TempDir(), "main.py")
	os.WriteFile(src, []byte("print(1)"), 0o644)
	if _, ok := c.Lookup(src, "0.13.0"); ok {
		t.Fatal("expected cache miss for a never-stored source")
	}
}

func TestStoreThenLookupHits(t *testing.T) {
	c, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	srcDir := t.TempDir()
	src := filepath.Join(srcDir, "main.py")
	os.WriteFile(src, []byte("print(1)"), 0o644)

	binDir := t.TempDir()
	bin := filepath.Join(binDir, "main")
	os.WriteFile(bin, []byte("fake-elf"), 0o755)

	if _, err := c.Store(src, bin, "0.13.0"); err != nil {
		t.Fatalf("Store: %v", err)
	}
	entry, ok := c.Lookup(src, "0.13.0")
	if !ok {
		t.Fatal("expected cache hit after Store")
	}
	if _, err := os.Stat(entry.BinaryPath); err != nil {
		t.Fatalf("expected cached binary to exist: %v", err)
	}
}

func TestLookupMissesAfterSourceModified(t *testing.T) {
	c, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	srcDir := t.TempDir()
	src := filepath.Join(srcDir, "main.py")
	os.WriteFile(src, []byte("print(1)"), 0o644)
	bin := filepath.Join(t.TempDir(), "main")
	os.WriteFile(bin, []byte("fake-elf"), 0o755)
	if _, err := c.Store(src, bin, "0.13.0"); err != nil {
		t.Fatalf("Store: %v", err)
	}

	future := time.Now().Add(time.Hour)
	if err := os.Chtimes(src, future, future); err != nil {
		t.Fatalf("Chtimes: %v", err)
	}
	if _, ok := c.Lookup(src, "0.13.0"); ok {
		t.Fatal("expected cache miss after source mtime changed")
	}
}

func TestLookupMissesAfterZigVersionChanges(t *testing.T) {
	c, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	srcDir := t.TempDir()
	src := filepath.Join(srcDir, "main.py")
	os.WriteFile(src, []byte("print(1)"), 0o644)
	bin := filepath.Join(t.TempDir(), "main")
	os.WriteFile(bin, []byte("fake-elf"), 0o755)
	if _, err := c.Store(src, bin, "0.13.0"); err != nil {
		t.Fatalf("Store: %v", err)
	}
	if _, ok := c.Lookup(src, "0.14.0"); ok {
		t.Fatal("expected cache miss after zig version changed")
	}
}

func TestCleanRemovesAllEntries(t *testing.T) {
	dir := t.TempDir()
	c, err := New(dir)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	src := filepath.Join(t.TempDir(), "main.py")
	os.WriteFile(src, []byte("print(1)"), 0o644)
	bin := filepath.Join(t.TempDir(), "main")
	os.WriteFile(bin, []byte("fake-elf"), 0o755)
	if _, err := c.Store(src, bin, "0.13.0"); err != nil {
		t.Fatalf("Store: %v", err)
	}

	if err := c.Clean(); err != nil {
		t.Fatalf("Clean: %v", err)
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 0 {
		t.Fatalf("expected empty cache dir after Clean, got %v", entries)
	}
}
