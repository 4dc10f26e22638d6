// Package toolchain implements the Toolchain Driver of spec §4 (C9): it
// shells out to `zig build-exe` on the spliced Zig source text and
// reports the resulting binary path or captured stderr, grounded on the
// teacher's subprocess-with-timeout pattern in
// internal/eval_harness/runner.go.
package toolchain

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/sunholo/boxc/internal/errors"
)

// OptMode selects Zig's optimization mode for build-exe.
type OptMode string

const (
	Debug       OptMode = "Debug"
	ReleaseFast OptMode = "ReleaseFast"
	ReleaseSafe OptMode = "ReleaseSafe"
)

// Driver invokes the Zig compiler to turn generated source text into a
// native executable.
type Driver struct {
	ZigPath string // defaults to "zig" on PATH
	Timeout time.Duration
}

// NewDriver returns a Driver using zigPath (falling back to "zig" when
// empty) with a default 2-minute build timeout.
func NewDriver(zigPath string) *Driver {
	if zigPath == "" {
		zigPath = "zig"
	}
	return &Driver{ZigPath: zigPath, Timeout: 2 * time.Minute}
}

// Result is the outcome of one build-exe invocation.
type Result struct {
	BinaryPath string
	Stdout     string
	Stderr     string
	Duration   time.Duration
}

// Build writes source to a temporary .zig file under workDir and invokes
// `zig build-exe` against it, producing outputPath. source is expected to
// already be one self-contained translation unit — internal/runtimeinline's
// Splice inlines any needed runtime/*.zig bodies into it ahead of time, so
// Build itself never needs a separate list of runtime source roots.
func (d *Driver) Build(source, workDir, outputPath string, opt OptMode) (*Result, error) {
	if err := os.MkdirAll(workDir, 0o755); err != nil {
		return nil, fmt.Errorf("create work dir: %w", err)
	}

	mainPath := filepath.Join(workDir, "main.zig")
	if err := os.WriteFile(mainPath, []byte(source), 0o644); err != nil {
		return nil, errors.New(errors.TC003, "toolchain",
			fmt.Sprintf("failed to write generated translation unit: %s", err), nil).Wrap()
	}

	args := []string{"build-exe", mainPath, "-femit-bin=" + outputPath, "-O" + string(opt)}

	ctx, cancel := context.WithTimeout(context.Background(), d.Timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, d.ZigPath, args...)
	cmd.Dir = workDir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	duration := time.Since(start)

	if ctx.Err() == context.DeadlineExceeded {
		return nil, errors.New(errors.TC002, "toolchain",
			fmt.Sprintf("zig build-exe timed out after %s, no output artifact produced", d.Timeout), nil).Wrap()
	}
	if err != nil {
		return nil, errors.CompilationFailed(stderr.String()).Wrap()
	}
	if _, statErr := os.Stat(outputPath); statErr != nil {
		return nil, errors.New(errors.TC002, "toolchain",
			"zig build-exe reported success but no output artifact was produced", nil).Wrap()
	}

	return &Result{
		BinaryPath: outputPath,
		Stdout:     stdout.String(),
		Stderr:     stderr.String(),
		Duration:   duration,
	}, nil
}

// Version reports the installed Zig compiler's version string, used to
// fingerprint cache entries (a cached binary built by a different Zig
// toolchain is not reusable).
func (d *Driver) Version() (string, error) {
	out, err := exec.Command(d.ZigPath, "version").Output()
	if err != nil {
		return "", errors.New(errors.TC001, "toolchain", "zig not found on PATH", nil).Wrap()
	}
	return string(bytes.TrimSpace(out)), nil
}
