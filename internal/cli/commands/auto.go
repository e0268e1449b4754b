package commands

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/fzdarsky/portalpass/internal/orchestrator"
	"github.com/fzdarsky/portalpass/pkg/protocol"
)

// AutoCommand implements the 'auto' command: one automatic evaluation, for
// use from network dispatcher hooks.
type AutoCommand struct{}

// NewAutoCommand creates a new auto command instance.
func NewAutoCommand() *AutoCommand {
	return &AutoCommand{}
}

// Execute runs the auto command with the provided arguments.
func (c *AutoCommand) Execute(args []string) {
	fs := flag.NewFlagSet("auto", flag.ExitOnError)
	trigger := fs.String("trigger", string(orchestrator.TriggerStartup),
		"Why the evaluation runs (startup, permission-granted, foreground, network-change)")
	target := fs.String("target", "", "Name of the network that requires the portal login")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: portalpass auto [flags]

Evaluate the network once and log in automatically when the device is on the
target network, or when the network cannot be identified and the internet is
not reachable. At most one automatic login is attempted.

Flags:
`)
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, `
Examples:
  # NetworkManager dispatcher script
  portalpass auto --trigger network-change
`)
	}

	if err := fs.Parse(args); err != nil {
		exitWithError("failed to parse flags: %v", err)
	}

	t, ok := orchestrator.ParseTrigger(*trigger)
	if !ok {
		exitWithError("invalid trigger '%s'", *trigger)
	}

	cfg, err := loadConfig(*target)
	if err != nil {
		exitWithError("failed to load configuration: %v", err)
	}

	logger := newLogger(cfg, false)
	defer logger.Sync() //nolint:errcheck // Flushing stderr, nothing to do on failure

	rt, err := newRuntime(cfg, logger)
	if err != nil {
		exitWithError("%v", err)
	}

	ctx, stop := signalContext()
	defer stop()

	finish(c.run(ctx, rt, t, os.Stdout))
}

func (c *AutoCommand) run(ctx context.Context, rt *runtime, trigger orchestrator.Trigger, out io.Writer) (protocol.Outcome, error) {
	return rt.runOnce(ctx, out, func(o *orchestrator.Orchestrator) string {
		return o.BecomeReady(trigger)
	})
}
