package config

import (
	"os"
	"path/filepath"
	"testing"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"BOXC_RELEASE", "BOXC_CACHE", "BOXC_PATH"} {
		old, had := os.LookupEnv(k)
		os.Unsetenv(k)
		t.Cleanup(func() {
			if had {
				os.Setenv(k, old)
			}
		})
	}
}

func TestLoadDefaultsWhenNoYamlOrEnv(t *testing.T) {
	clearEnv(t)
	cfg, err := Load(t.TempDir())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Release {
		t.Fatal("expected Release false by default")
	}
	if cfg.ZigPath != "zig" {
		t.Fatalf("expected default zig path, got %q", cfg.ZigPath)
	}
	if cfg.CacheDir == "" {
		t.Fatal("expected a non-empty default cache dir")
	}
}

func TestLoadReadsYamlFile(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	yaml := "release: true\nzig_path: /opt/zig/zig\ncache_dir: /tmp/boxc-cache\nsearch_paths:\n  - /opt/boxc/lib\n"
	if err := os.WriteFile(filepath.Join(dir, "boxc.yaml"), []byte(yaml), 0o644); err != nil {
		t.Fatalf("write boxc.yaml: %v", err)
	}
	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !cfg.Release {
		t.Fatal("expected release true from yaml")
	}
	if cfg.ZigPath != "/opt/zig/zig" {
		t.Fatalf("expected zig path from yaml, got %q", cfg.ZigPath)
	}
	if cfg.CacheDir != "/tmp/boxc-cache" {
		t.Fatalf("expected cache dir from yaml, got %q", cfg.CacheDir)
	}
	if len(cfg.SearchPaths) != 1 || cfg.SearchPaths[0] != "/opt/boxc/lib" {
		t.Fatalf("expected search paths from yaml, got %v", cfg.SearchPaths)
	}
}

func TestEnvVarsOverrideYaml(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	yaml := "release: false\ncache_dir: /tmp/from-yaml\n"
	if err := os.WriteFile(filepath.Join(dir, "boxc.yaml"), []byte(yaml), 0o644); err != nil {
		t.Fatalf("write boxc.yaml: %v", err)
	}
	os.Setenv("BOXC_RELEASE", "true")
	os.Setenv("BOXC_CACHE", "0")
	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !cfg.Release {
		t.Fatal("expected BOXC_RELEASE env var to override yaml")
	}
	if !cfg.CacheDisabled {
		t.Fatal("expected BOXC_CACHE=0 to disable the cache")
	}
	if cfg.CacheDir != "/tmp/from-yaml" {
		t.Fatalf("expected cache_dir from yaml to survive (BOXC_CACHE only disables, never redirects), got %q", cfg.CacheDir)
	}
}

func TestBoxcPathAppendsSearchPaths(t *testing.T) {
	clearEnv(t)
	sep := string(os.PathListSeparator)
	os.Setenv("BOXC_PATH", "/a/lib"+sep+"/b/lib")
	cfg, err := Load(t.TempDir())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(cfg.SearchPaths) != 2 || cfg.SearchPaths[0] != "/a/lib" || cfg.SearchPaths[1] != "/b/lib" {
		t.Fatalf("expected two search paths from BOXC_PATH, got %v", cfg.SearchPaths)
	}
}
