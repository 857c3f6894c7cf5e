package process

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// waitDelay bounds how long Wait keeps draining output after the process
// exits. Grandchildren such as a freshly started adb server can inherit
// the pipes and hold them open indefinitely.
const waitDelay = 2 * time.Second

// Handle is a spawned process owned by exactly one session.
type Handle interface {
	PID() int
	// Exited reports whether the process has been reaped.
	Exited() bool
	// Done is closed once the process has exited.
	Done() <-chan struct{}
	// Err returns the wait error after Done is closed.
	Err() error
	// Terminate kills the process. An already exited process is not an error.
	Terminate() error
}

// Spawner starts external processes.
type Spawner interface {
	Spawn(ctx context.Context, name string, args []string) (Handle, error)
}

// ExecSpawner starts processes with os/exec, hides their console window on
// Windows and forwards their output to the logger.
type ExecSpawner struct {
	logger *zap.Logger
}

// NewExecSpawner creates a spawner. Process output is logged under the
// given logger's "scrcpy" child.
func NewExecSpawner(logger *zap.Logger) *ExecSpawner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExecSpawner{logger: logger.Named("scrcpy")}
}

// Spawn starts name with args. The process is not bound to ctx; ctx only
// aborts a spawn that has not started yet.
func (s *ExecSpawner) Spawn(ctx context.Context, name string, args []string) (Handle, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	cmd := exec.Command(name, args...)
	HideConsole(cmd)
	cmd.Stdin = nil
	cmd.WaitDelay = waitDelay

	p := &execProcess{
		cmd:  cmd,
		done: make(chan struct{}),
	}
	stdout := newLineWriter(func(line string) {
		s.logger.Debug(line, zap.Int("pid", p.PID()))
	})
	stderr := newLineWriter(func(line string) {
		s.logger.Warn(line, zap.Int("pid", p.PID()))
	})
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start %s: %w", name, err)
	}
	p.pid.Store(int64(cmd.Process.Pid))

	go p.wait(stdout, stderr)

	return p, nil
}

type execProcess struct {
	cmd *exec.Cmd
	// pid is stored after Start while output may already be flowing.
	pid atomic.Int64

	done chan struct{}
	mu   sync.Mutex
	err  error
}

func (p *execProcess) wait(flush ...*lineWriter) {
	err := p.cmd.Wait()
	for _, w := range flush {
		w.Flush()
	}

	p.mu.Lock()
	p.err = err
	p.mu.Unlock()
	close(p.done)
}

func (p *execProcess) PID() int { return int(p.pid.Load()) }

func (p *execProcess) Done() <-chan struct{} { return p.done }

func (p *execProcess) Exited() bool {
	select {
	case <-p.done:
		return true
	default:
		return false
	}
}

func (p *execProcess) Err() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.err
}

func (p *execProcess) Terminate() error {
	if p.Exited() {
		return nil
	}
	if err := p.cmd.Process.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
		return fmt.Errorf("kill pid %d: %w", p.PID(), err)
	}
	return nil
}
