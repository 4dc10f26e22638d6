package errors

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/sunholo/boxc/internal/ast"
)

// Report is the canonical structured error value produced by every
// compiler phase. Go's encoding/json sorts map[string]any keys, so
// marshaling a Report is deterministic without extra bookkeeping.
type Report struct {
	Schema  string         `json:"schema"` // always "boxc.error/v1"
	Code    string         `json:"code"`
	Phase   string         `json:"phase"`
	Message string         `json:"message"`
	Pos     *ast.Pos       `json:"pos,omitempty"`
	Data    map[string]any `json:"data,omitempty"`
}

// ReportError wraps a Report so it survives errors.As unwrapping while
// still satisfying the error interface.
type ReportError struct {
	Rep *Report
}

func (e *ReportError) Error() string {
	if e.Rep == nil {
		return "unknown error"
	}
	if e.Rep.Pos != nil {
		return fmt.Sprintf("%s: %s: %s", e.Rep.Pos, e.Rep.Code, e.Rep.Message)
	}
	return fmt.Sprintf("%s: %s", e.Rep.Code, e.Rep.Message)
}

// New builds a Report for the given code/phase/message, stamping the
// schema version and optional source position.
func New(code, phase, message string, pos *ast.Pos) *Report {
	return &Report{Schema: "boxc.error/v1", Code: code, Phase: phase, Message: message, Pos: pos}
}

// WithData attaches structured context (e.g. {"construct": "with-statement"})
// and returns the same Report for chaining at the call site.
func (r *Report) WithData(key string, value any) *Report {
	if r.Data == nil {
		r.Data = make(map[string]any)
	}
	r.Data[key] = value
	return r
}

// Wrap turns a Report into an error.
func (r *Report) Wrap() error {
	if r == nil {
		return nil
	}
	return &ReportError{Rep: r}
}

// AsReport extracts a Report from an error chain produced by Wrap.
func AsReport(err error) (*Report, bool) {
	var re *ReportError
	if errors.As(err, &re) {
		return re.Rep, true
	}
	return nil, false
}

// ToJSON renders the Report as JSON; compact controls indentation.
func (r *Report) ToJSON(compact bool) (string, error) {
	var data []byte
	var err error
	if compact {
		data, err = json.Marshal(r)
	} else {
		data, err = json.MarshalIndent(r, "", "  ")
	}
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// NotImplemented builds the spec §7 "not implemented: <construct>"
// generator-time failure report (code GEN001).
func NotImplemented(construct string, pos ast.Pos) *Report {
	return New(GEN001, "codegen", fmt.Sprintf("not implemented: %s", construct), &pos)
}

// ModuleNotFound builds the spec §7 module-resolution failure report
// (code MOD001), naming the path that was searched.
func ModuleNotFound(name, searchedPath string) *Report {
	return New(MOD001, "module", fmt.Sprintf("module not found: %s", name), nil).
		WithData("searched", searchedPath)
}

// CompilationFailed wraps the external toolchain's captured stderr into a
// diagnostic prefixed "compilation failed:" per spec §7.
func CompilationFailed(stderr string) *Report {
	return New(TC001, "toolchain", fmt.Sprintf("compilation failed: %s", stderr), nil)
}
