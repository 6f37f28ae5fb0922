// Package tool runs the external EDA binaries (magic, netgen, yosys, klayout)
// as blocking subprocesses.
//
// Configuration reaches a child only through Command.Env, which is layered
// on top of the current process environment for that child alone. The
// wrapper's own environment is never modified.
package tool

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sort"
	"strings"
)

// ErrInvocation is matched by every InvocationError.
var ErrInvocation = errors.New("tool: invocation failed")

// Command describes one subprocess invocation.
type Command struct {
	Name string
	Args []string
	Env  map[string]string // overrides on top of os.Environ()
	Dir  string

	// Stream, when set, receives the combined stdout/stderr line by line as
	// the process produces it. The output is captured in Result either way.
	Stream io.Writer
}

// String renders the command line for logs.
func (c Command) String() string {
	parts := append([]string{c.Name}, c.Args...)
	return strings.Join(parts, " ")
}

// EnvList returns the overrides as sorted KEY=VALUE pairs.
func (c Command) EnvList() []string {
	keys := make([]string, 0, len(c.Env))
	for k := range c.Env {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		out = append(out, k+"="+c.Env[k])
	}
	return out
}

// Result holds what a finished command produced.
type Result struct {
	ExitCode int
	Output   []byte
}

// Runner executes commands. Implementations block until the command exits.
type Runner interface {
	Run(ctx context.Context, cmd Command) (*Result, error)
}

// InvocationError reports a subprocess that could not be started or exited
// with a non-zero status.
type InvocationError struct {
	Tool     string
	Args     []string
	ExitCode int
	Output   []byte
	Streamed bool // output was already shown to the user
	Err      error
}

func (e *InvocationError) Error() string {
	var b strings.Builder
	if e.ExitCode < 0 {
		fmt.Fprintf(&b, "tool: %s could not be run", e.Tool)
		if e.Err != nil {
			fmt.Fprintf(&b, ": %v", e.Err)
		}
	} else {
		fmt.Fprintf(&b, "tool: %s exited with status %d", e.Tool, e.ExitCode)
	}
	if len(e.Output) > 0 && !e.Streamed {
		b.WriteString(":\n")
		b.WriteString(strings.TrimRight(string(e.Output), "\n"))
	}
	return b.String()
}

func (e *InvocationError) Is(target error) bool { return target == ErrInvocation }

func (e *InvocationError) Unwrap() error { return e.Err }

// ExecRunner runs commands with os/exec.
type ExecRunner struct{}

// Run starts cmd and waits for it. Cancelling ctx kills the child.
func (ExecRunner) Run(ctx context.Context, cmd Command) (*Result, error) {
	c := exec.CommandContext(ctx, cmd.Name, cmd.Args...)
	c.Dir = cmd.Dir
	c.Env = MergeEnv(os.Environ(), cmd.Env)

	var captured bytes.Buffer
	var sink io.Writer = &captured
	var lw *lineWriter
	if cmd.Stream != nil {
		lw = newLineWriter(cmd.Stream)
		sink = io.MultiWriter(&captured, lw)
	}
	out := &syncWriter{w: sink}
	c.Stdout = out
	c.Stderr = out

	err := c.Run()
	if lw != nil {
		lw.Flush()
	}
	res := &Result{Output: captured.Bytes()}
	if err == nil {
		return res, nil
	}

	invErr := &InvocationError{
		Tool:     cmd.Name,
		Args:     cmd.Args,
		ExitCode: -1,
		Output:   res.Output,
		Streamed: cmd.Stream != nil,
		Err:      err,
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		invErr.ExitCode = exitErr.ExitCode()
	}
	res.ExitCode = invErr.ExitCode
	return res, invErr
}

// MergeEnv layers overrides on top of base, replacing existing keys.
func MergeEnv(base []string, overrides map[string]string) []string {
	if len(overrides) == 0 {
		return base
	}
	out := make([]string, 0, len(base)+len(overrides))
	for _, kv := range base {
		key := kv
		if i := strings.IndexByte(kv, '='); i >= 0 {
			key = kv[:i]
		}
		if _, ok := overrides[key]; ok {
			continue
		}
		out = append(out, kv)
	}
	return append(out, Command{Env: overrides}.EnvList()...)
}

// Traced wraps a runner and prints every command before it runs.
type Traced struct {
	Runner Runner
	Out    io.Writer
}

func (t Traced) Run(ctx context.Context, cmd Command) (*Result, error) {
	for _, kv := range cmd.EnvList() {
		fmt.Fprintf(t.Out, "  env %s\n", kv)
	}
	if cmd.Dir != "" {
		fmt.Fprintf(t.Out, "  cd %s\n", cmd.Dir)
	}
	fmt.Fprintf(t.Out, "$ %s\n", cmd)
	return t.Runner.Run(ctx, cmd)
}
