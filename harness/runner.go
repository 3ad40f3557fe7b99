// Package harness builds and verifies synthetic generated projects: the
// event-stream test-harness orchestrator, the generated-workspace writer,
// the external build/test runner, and the codegen integration driver.
package harness

import (
	"context"
	"fmt"
	"os/exec"
	"strings"

	"go.uber.org/zap"
)

// BuildError reports a failed external build/test command. The captured
// combined output is the primary diagnostic the harness exists to
// produce, so it is carried on the error rather than logged and dropped.
type BuildError struct {
	Dir    string
	Argv   []string
	Output string
	Cause  error
}

// outputTail is how much captured output Error keeps inline; the full
// output stays on the struct.
const outputTail = 2048

// Error implements the error interface.
func (e *BuildError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "stencil: command %q failed in %s", strings.Join(e.Argv, " "), e.Dir)
	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	if e.Output != "" {
		out := e.Output
		if len(out) > outputTail {
			out = "..." + out[len(out)-outputTail:]
		}
		b.WriteString("\noutput:\n")
		b.WriteString(out)
	}
	return b.String()
}

// Unwrap returns the underlying error.
func (e *BuildError) Unwrap() error {
	return e.Cause
}

// NewBuildError creates a new BuildError.
func NewBuildError(dir string, argv []string, output string, cause error) *BuildError {
	return &BuildError{Dir: dir, Argv: argv, Output: output, Cause: cause}
}

// DefaultCommands returns the standard verification pipeline run inside a
// generated workspace: resolve modules, vet with findings as errors, then
// run the tests. The first failing command wins.
func DefaultCommands() [][]string {
	return [][]string{
		{"go", "mod", "tidy"},
		{"go", "vet", "./..."},
		{"go", "test", "./..."},
	}
}

// RunCommand executes argv in dir, blocking until it exits and capturing
// combined stdout/stderr. A non-zero exit returns the captured output
// wrapped in a BuildError; there are no retries. Callers needing bounded
// run time cancel ctx, which kills the child.
func RunCommand(ctx context.Context, dir string, logger *zap.Logger, argv ...string) (string, error) {
	if len(argv) == 0 {
		return "", fmt.Errorf("stencil: empty command")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	logger.Info("running command", zap.Strings("argv", argv), zap.String("dir", dir))

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Dir = dir
	out, err := cmd.CombinedOutput()
	output := string(out)
	if err != nil {
		logger.Error("command failed",
			zap.Strings("argv", argv),
			zap.String("dir", dir),
			zap.String("output", output),
			zap.Error(err),
		)
		return output, NewBuildError(dir, argv, output, err)
	}
	return output, nil
}
