package toolchain

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sunholo/boxc/internal/errors"
)

// fakeZig is a stand-in for `zig build-exe` that writes a dummy binary and
// exits 0, so toolchain.Build can be exercised without a real Zig
// toolchain installed.
func fakeZig(t *testing.T, behavior string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "fakezig.sh")
	script := "#!/bin/sh\n" + behavior + "\n"
	if err := os.WriteFile(path, []byte(script), 0o755); err != nil {
		t.Fatalf("write fake zig: %v", err)
	}
	return path
}

func TestBuildSucceedsAndReportsBinaryPath(t *testing.T) {
	out := filepath.Join(t.TempDir(), "out")
	zig := fakeZig(t, `
for a in "$@"; do
  case "$a" in
    -femit-bin=*) path="${a#-femit-bin=}" ;;
  esac
done
touch "$path"
exit 0
`)
	d := &Driver{ZigPath: zig, Timeout: 5 * time.Second}
	res, err := d.Build("const std = @import(\"std\");", t.TempDir(), out, ReleaseFast)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if res.BinaryPath != out {
		t.Fatalf("expected binary path %s, got %s", out, res.BinaryPath)
	}
}

func TestBuildFailureWrapsStderr(t *testing.T) {
	zig := fakeZig(t, `echo "error: undefined symbol 'foo'" 1>&2; exit 1`)
	d := &Driver{ZigPath: zig, Timeout: 5 * time.Second}
	_, err := d.Build("bogus", t.TempDir(), filepath.Join(t.TempDir(), "out"), Debug)
	if err == nil {
		t.Fatal("expected build failure")
	}
	rep, ok := errors.AsReport(err)
	if !ok || rep.Code != errors.TC001 {
		t.Fatalf("expected TC001 report, got %v", err)
	}
}

func TestBuildMissingArtifactIsReportedEvenOnZeroExit(t *testing.T) {
	zig := fakeZig(t, `exit 0`) // "succeeds" without ever creating the binary
	d := &Driver{ZigPath: zig, Timeout: 5 * time.Second}
	_, err := d.Build("const std = @import(\"std\");", t.TempDir(), filepath.Join(t.TempDir(), "out"), Debug)
	if err == nil {
		t.Fatal("expected missing-artifact error")
	}
	rep, ok := errors.AsReport(err)
	if !ok || rep.Code != errors.TC002 {
		t.Fatalf("expected TC002 report, got %v", err)
	}
}
