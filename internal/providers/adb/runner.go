package adb

import (
	"context"
	"os/exec"
	"time"

	"github.com/GriffinCanCode/mirrordeck/internal/providers/process"
)

// Runner executes a command and returns its combined output.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

// OSRunner runs commands with os/exec without a console window.
type OSRunner struct{}

// Run implements Runner.
func (OSRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	process.HideConsole(cmd)
	// A first call can fork the adb server, which inherits the output pipe.
	cmd.WaitDelay = time.Second
	return cmd.CombinedOutput()
}
