// Package runnertest provides a recording CommandRunner for tests.
package runnertest

import (
	"context"
	"strings"
	"sync"
)

type Call struct {
	Dir  string
	Name string
	Args []string
}

// Line returns the call as a single space separated command line.
func (c Call) Line() string {
	return strings.Join(append([]string{c.Name}, c.Args...), " ")
}

type response struct {
	prefix string
	output []byte
	err    error
}

// Recorder records every invocation and answers with the response registered
// for the longest matching command line prefix.
type Recorder struct {
	mu        sync.Mutex
	calls     []Call
	responses []response
}

func NewRecorder() *Recorder {
	return &Recorder{}
}

// On registers output and err for any command line starting with prefix.
func (r *Recorder) On(prefix string, output string, err error) *Recorder {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.responses = append(r.responses, response{prefix: prefix, output: []byte(output), err: err})
	return r
}

func (r *Recorder) Run(ctx context.Context, dir, name string, args ...string) error {
	_, err := r.RunOutput(ctx, dir, name, args...)
	return err
}

func (r *Recorder) RunOutput(_ context.Context, dir, name string, args ...string) ([]byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	call := Call{Dir: dir, Name: name, Args: append([]string(nil), args...)}
	r.calls = append(r.calls, call)

	line := call.Line()
	var match *response
	for i := range r.responses {
		candidate := &r.responses[i]
		if !strings.HasPrefix(line, candidate.prefix) {
			continue
		}
		if match == nil || len(candidate.prefix) > len(match.prefix) {
			match = candidate
		}
	}
	if match == nil {
		return nil, nil
	}

	return match.output, match.err
}

func (r *Recorder) Calls() []Call {
	r.mu.Lock()
	defer r.mu.Unlock()

	return append([]Call(nil), r.calls...)
}

// Lines returns all recorded calls as command lines.
func (r *Recorder) Lines() []string {
	calls := r.Calls()
	lines := make([]string, 0, len(calls))
	for _, c := range calls {
		lines = append(lines, c.Line())
	}
	return lines
}

// CallsWithPrefix returns the recorded calls whose command line starts with prefix.
func (r *Recorder) CallsWithPrefix(prefix string) []Call {
	var matched []Call
	for _, c := range r.Calls() {
		if strings.HasPrefix(c.Line(), prefix) {
			matched = append(matched, c)
		}
	}
	return matched
}
