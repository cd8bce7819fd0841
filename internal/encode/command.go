package encode

import (
	"context"
	"fmt"
	"os/exec"
	"runtime"
	"strings"
	"time"

	"golang.org/x/sync/semaphore"
)

// Command is one external process invocation.
type Command struct {
	// Name is the binary to run, resolved through PATH.
	Name string

	// Args are passed to the binary verbatim.
	Args []string

	// Dir is the working directory. Empty means the current directory.
	Dir string
}

// String renders the command line for logs and errors. Long command lines
// are truncated.
func (c Command) String() string {
	s := strings.Join(append([]string{c.Name}, c.Args...), " ")
	if len(s) > 200 {
		s = s[:200] + "..."
	}
	return s
}

// Result is the outcome of a finished command.
type Result struct {
	Output   []byte
	Duration time.Duration
}

// Runner executes commands. The build pipeline only talks to external
// encoders through a Runner, so tests can substitute a stub.
type Runner interface {
	Run(ctx context.Context, cmd Command) (Result, error)
}

// CommandError wraps a failed command with its combined output.
type CommandError struct {
	Cmd    string
	Output string
	Err    error
}

func (e *CommandError) Error() string {
	out := strings.TrimSpace(e.Output)
	if len(out) > 500 {
		out = out[len(out)-500:]
	}
	if out == "" {
		return fmt.Sprintf("command failed: %v\nCommand: %s", e.Err, e.Cmd)
	}
	return fmt.Sprintf("command failed: %v\nCommand: %s\nOutput: %s", e.Err, e.Cmd, out)
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// ExecRunner runs commands as child processes.
type ExecRunner struct{}

// Run implements Runner. A cancelled context kills the process and the
// context error is returned.
func (ExecRunner) Run(ctx context.Context, c Command) (Result, error) {
	start := time.Now()
	cmd := exec.CommandContext(ctx, c.Name, c.Args...)
	cmd.Dir = c.Dir

	output, err := cmd.CombinedOutput()
	res := Result{Output: output, Duration: time.Since(start)}
	if err != nil {
		if ctx.Err() != nil {
			return res, ctx.Err()
		}
		return res, &CommandError{Cmd: c.String(), Output: string(output), Err: err}
	}
	return res, nil
}

// Limited bounds the number of commands running at once across every
// goroutine sharing it.
//
// Example:
//
//	runner := encode.NewLimited(encode.ExecRunner{}, 0) // one slot per CPU
//	ff := encode.NewFFmpeg("ffmpeg", runner, cat.Reference())
type Limited struct {
	next Runner
	sem  *semaphore.Weighted
	size int
}

// NewLimited wraps next with a semaphore of n slots. n <= 0 means one slot
// per CPU.
func NewLimited(next Runner, n int) *Limited {
	if n <= 0 {
		n = runtime.NumCPU()
	}
	return &Limited{next: next, sem: semaphore.NewWeighted(int64(n)), size: n}
}

// Size returns the number of slots.
func (l *Limited) Size() int {
	return l.size
}

// Run implements Runner.
func (l *Limited) Run(ctx context.Context, cmd Command) (Result, error) {
	if err := l.sem.Acquire(ctx, 1); err != nil {
		return Result{}, err
	}
	defer l.sem.Release(1)
	return l.next.Run(ctx, cmd)
}
