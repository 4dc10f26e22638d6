// Package config loads ambient compiler settings: an optional boxc.yaml
// in the working directory, overlaid by environment variables, following
// the teacher's getDefaultSearchPaths/getStdlibPath env-var-overlay
// pattern in internal/module/loader.go — generalized from a single
// AILANG_PATH/AILANG_STDLIB pair to the full settings surface spec.md §6
// names (BOXC_RELEASE, BOXC_CACHE, BOXC_PATH).
package config

import (
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config is the resolved set of compiler settings for one invocation.
type Config struct {
	// Release selects Zig's optimization mode: false builds Debug, true
	// builds ReleaseFast (spec.md §6's BOXC_RELEASE).
	Release bool `yaml:"release"`

	// CacheDir overrides the default build cache location. Empty means
	// the default (a boxc subdirectory of the system temp directory,
	// spec.md §6's "cache directory under the system temp directory").
	CacheDir string `yaml:"cache_dir"`

	// CacheDisabled turns off the build cache entirely (spec.md §6's
	// BOXC_CACHE=0 — every invocation rebuilds from scratch).
	CacheDisabled bool `yaml:"cache_disabled"`

	// ZigPath overrides the "zig" binary resolved from PATH.
	ZigPath string `yaml:"zig_path"`

	// SearchPaths are extra module search directories: search_paths from
	// boxc.yaml followed by any BOXC_PATH entries. internal/module's
	// loader does not read this field; it reads BOXC_PATH from the
	// environment itself, so search_paths entries take no part in module
	// resolution.
	SearchPaths []string `yaml:"search_paths"`
}

// defaults returns the settings used when neither boxc.yaml nor the
// environment says otherwise: a Debug build with the "zig" binary from
// PATH and no extra search paths.
func defaults() Config {
	return Config{Release: false, ZigPath: "zig"}
}

// Load reads boxc.yaml from dir if present, then overlays the
// BOXC_RELEASE / BOXC_CACHE / BOXC_PATH environment variables — the
// env vars always win, matching spec.md §6's stated precedence.
func Load(dir string) (Config, error) {
	cfg := defaults()

	path := filepath.Join(dir, "boxc.yaml")
	if data, err := os.ReadFile(path); err == nil {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, err
		}
	}

	if v := os.Getenv("BOXC_RELEASE"); v != "" {
		cfg.Release = v == "1" || strings.EqualFold(v, "true")
	}
	if v := os.Getenv("BOXC_CACHE"); v == "0" {
		cfg.CacheDisabled = true
	}
	if v := os.Getenv("BOXC_PATH"); v != "" {
		cfg.SearchPaths = append(cfg.SearchPaths, strings.Split(v, string(os.PathListSeparator))...)
	}

	if cfg.CacheDir == "" {
		cfg.CacheDir = defaultCacheDir()
	}
	return cfg, nil
}

func defaultCacheDir() string {
	return filepath.Join(os.TempDir(), "boxc-cache")
}
