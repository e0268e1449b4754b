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

// LogoutCommand implements the 'logout' command.
type LogoutCommand struct{}

// NewLogoutCommand creates a new logout command instance.
func NewLogoutCommand() *LogoutCommand {
	return &LogoutCommand{}
}

// Execute runs the logout command with the provided arguments.
func (c *LogoutCommand) Execute(args []string) {
	fs := flag.NewFlagSet("logout", flag.ExitOnError)
	target := fs.String("target", "", "Name of the network that requires the portal login")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: portalpass logout [flags]

Log out of the portal and erase the stored credentials.

Flags:
`)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		exitWithError("failed to parse flags: %v", err)
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

	finish(c.run(ctx, rt, os.Stdout))
}

func (c *LogoutCommand) run(ctx context.Context, rt *runtime, out io.Writer) (protocol.Outcome, error) {
	return rt.runOnce(ctx, out, func(o *orchestrator.Orchestrator) string {
		return o.RequestLogout()
	})
}
