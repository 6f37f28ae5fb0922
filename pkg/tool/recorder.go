package tool

import (
	"context"
	"path/filepath"
	"sync"
)

// Reply is what a scripted tool answers with.
type Reply struct {
	Output   string
	ExitCode int
}

// Handler produces the reply for one invocation. It may create files the
// real tool would have written.
type Handler func(cmd Command) Reply

// Recorder is a scripted Runner that never starts a process. Handlers are
// keyed by the base name of the binary; unknown binaries succeed silently.
type Recorder struct {
	mu       sync.Mutex
	calls    []Command
	handlers map[string]Handler
}

// NewRecorder creates an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{handlers: make(map[string]Handler)}
}

// Handle registers h for the binary named tool.
func (r *Recorder) Handle(tool string, h Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[tool] = h
}

// Calls returns a copy of every command run so far, in order.
func (r *Recorder) Calls() []Command {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Command, len(r.calls))
	copy(out, r.calls)
	return out
}

// CallsTo returns the recorded commands for one binary.
func (r *Recorder) CallsTo(tool string) []Command {
	var out []Command
	for _, c := range r.Calls() {
		if filepath.Base(c.Name) == tool {
			out = append(out, c)
		}
	}
	return out
}

// Run implements Runner.
func (r *Recorder) Run(ctx context.Context, cmd Command) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, &InvocationError{Tool: cmd.Name, Args: cmd.Args, ExitCode: -1, Err: err}
	}

	r.mu.Lock()
	r.calls = append(r.calls, cmd)
	h := r.handlers[filepath.Base(cmd.Name)]
	r.mu.Unlock()

	var reply Reply
	if h != nil {
		reply = h(cmd)
	}
	if cmd.Stream != nil && reply.Output != "" {
		lw := newLineWriter(cmd.Stream)
		lw.Write([]byte(reply.Output))
		lw.Flush()
	}

	res := &Result{ExitCode: reply.ExitCode, Output: []byte(reply.Output)}
	if reply.ExitCode != 0 {
		return res, &InvocationError{
			Tool:     cmd.Name,
			Args:     cmd.Args,
			ExitCode: reply.ExitCode,
			Output:   res.Output,
			Streamed: cmd.Stream != nil,
		}
	}
	return res, nil
}
