// Package processtest provides an in-memory process.Spawner for tests.
package processtest

import (
	"context"
	"errors"
	"sync"

	"github.com/GriffinCanCode/mirrordeck/internal/providers/process"
)

// ErrKilled is the exit error of a terminated Process.
var ErrKilled = errors.New("processtest: killed")

// Call records one Spawn invocation.
type Call struct {
	Name string
	Args []string
}

// Spawner hands out fake processes with increasing pids.
type Spawner struct {
	mu      sync.Mutex
	nextPID int
	err     error
	calls   []Call
	procs   []*Process
}

// NewSpawner creates a spawner whose first pid is 1000.
func NewSpawner() *Spawner {
	return &Spawner{nextPID: 1000}
}

// FailWith makes subsequent spawns return err. nil restores success.
func (s *Spawner) FailWith(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}

// Spawn implements process.Spawner.
func (s *Spawner) Spawn(ctx context.Context, name string, args []string) (process.Handle, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.calls = append(s.calls, Call{Name: name, Args: append([]string(nil), args...)})
	if s.err != nil {
		return nil, s.err
	}
	s.nextPID++
	p := &Process{pid: s.nextPID, done: make(chan struct{})}
	s.procs = append(s.procs, p)
	return p, nil
}

// Calls returns every Spawn invocation so far.
func (s *Spawner) Calls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Call(nil), s.calls...)
}

// Processes returns every process spawned so far.
func (s *Spawner) Processes() []*Process {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*Process(nil), s.procs...)
}

// Live returns how many spawned processes have not exited.
func (s *Spawner) Live() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, p := range s.procs {
		if !p.Exited() {
			n++
		}
	}
	return n
}

// Last returns the most recent process, or nil.
func (s *Spawner) Last() *Process {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.procs) == 0 {
		return nil
	}
	return s.procs[len(s.procs)-1]
}

// Process is a fake process.Handle.
type Process struct {
	pid  int
	done chan struct{}

	mu         sync.Mutex
	err        error
	terminated bool
}

// PID implements process.Handle.
func (p *Process) PID() int { return p.pid }

// Done implements process.Handle.
func (p *Process) Done() <-chan struct{} { return p.done }

// Exited implements process.Handle.
func (p *Process) Exited() bool {
	select {
	case <-p.done:
		return true
	default:
		return false
	}
}

// Err implements process.Handle.
func (p *Process) Err() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.err
}

// Terminate implements process.Handle.
func (p *Process) Terminate() error {
	p.mu.Lock()
	p.terminated = true
	p.mu.Unlock()
	p.Exit(ErrKilled)
	return nil
}

// Terminated reports whether Terminate was called.
func (p *Process) Terminated() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.terminated
}

// Exit simulates the process exiting on its own with err.
func (p *Process) Exit(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	select {
	case <-p.done:
		return
	default:
	}
	p.err = err
	close(p.done)
}
