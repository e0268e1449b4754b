package commands

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/fzdarsky/portalpass/internal/cli/clicontext"
	"github.com/fzdarsky/portalpass/internal/cli/output"
	"github.com/fzdarsky/portalpass/internal/config"
	"github.com/fzdarsky/portalpass/internal/lifecycle"
	"github.com/fzdarsky/portalpass/internal/network"
	"github.com/fzdarsky/portalpass/internal/orchestrator"
)

const (
	lockFileName    = "watch.lock"
	shutdownTimeout = 5 * time.Second
)

// WatchCommand implements the 'watch' daemon.
type WatchCommand struct {
	interfaces func() ([]network.NetworkInterface, error)
}

// NewWatchCommand creates a new watch command instance.
func NewWatchCommand() *WatchCommand {
	return &WatchCommand{interfaces: network.GetInterfaces}
}

// Execute runs the watch command with the provided arguments.
func (c *WatchCommand) Execute(args []string) {
	fs := flag.NewFlagSet("watch", flag.ExitOnError)
	target := fs.String("target", "", "Name of the network that requires the portal login")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: portalpass watch [flags]

Run in the foreground, evaluate the network at startup and again whenever the
network changes. SIGHUP forces a re-evaluation; SIGINT/SIGTERM stop the daemon.
Only one instance may run per user.

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

	logger := newLogger(cfg, true)
	defer logger.Sync() //nolint:errcheck // Flushing stderr, nothing to do on failure

	rt, err := newRuntime(cfg, logger)
	if err != nil {
		exitWithError("%v", err)
	}

	sm := lifecycle.NewShutdownManager()
	sm.OnReload(func() {
		logger.Info("Reload requested, re-evaluating network", nil)
		rt.orch.BecomeReady(orchestrator.TriggerForeground)
	})
	ctx := sm.Start(context.Background())
	defer sm.Stop()

	if err := c.run(ctx, rt, os.Stdout); err != nil {
		exitWithError("%v", err)
	}

	if reason := sm.Reason(); reason != "" {
		logger.Info("Shutdown complete", map[string]any{"reason": reason})
	}
}

func (c *WatchCommand) run(ctx context.Context, rt *runtime, out io.Writer) error {
	cacheDir, err := config.UserCacheDir()
	if err != nil {
		return err
	}
	lock := lifecycle.NewInstanceLock(filepath.Join(cacheDir, lockFileName))
	if err := lock.Acquire(); err != nil {
		return err
	}
	defer func() {
		if err := lock.Release(); err != nil {
			rt.logger.Warn("Failed to release instance lock", map[string]any{"error": err})
		}
	}()

	interval, err := rt.cfg.PollInterval()
	if err != nil {
		return err
	}
	settle, err := rt.cfg.SettleDelay()
	if err != nil {
		return err
	}

	watcher, err := network.NewWatcher(rt.identity, interval, rt.logger)
	if err != nil {
		return err
	}
	if c.interfaces != nil {
		watcher.WithInterfaces(c.interfaces)
		rt.identity.WithInterfaces(c.interfaces)
	}

	debouncer := lifecycle.NewDebouncer(settle, func() {
		rt.orch.BecomeReady(orchestrator.TriggerNetworkChange)
	})
	defer debouncer.Stop()

	rt.logger.Info("Watching network", map[string]any{
		"target":        rt.cfg.Network.Target,
		"poll_interval": interval.String(),
		"lock":          lock.Path(),
	})

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return rt.orch.Run(gctx)
	})

	g.Go(func() error {
		return watcher.Run(gctx, func(network.Identity) {
			debouncer.Touch()
		})
	})

	g.Go(func() error {
		renderer := output.NewRenderer(out, clicontext.Get().NoColor)
		for e := range rt.orch.Events() {
			renderer.Render(e)
			if e.Kind == orchestrator.EventDone {
				rt.logger.Info("Decision settled", map[string]any{
					"attempt": e.Attempt,
					"action":  string(e.Action),
					"success": e.Outcome.Success,
					"message": e.Outcome.Message,
				})
			}
		}
		return nil
	})

	rt.orch.BecomeReady(orchestrator.TriggerStartup)

	waitErr := make(chan error, 1)
	go func() { waitErr <- g.Wait() }()

	select {
	case err := <-waitErr:
		return err
	case <-ctx.Done():
	}

	rt.logger.Info("Shutting down", nil)
	return lifecycle.GracefulShutdown(context.Background(), func(sctx context.Context) error {
		select {
		case err := <-waitErr:
			return err
		case <-sctx.Done():
			return sctx.Err()
		}
	}, shutdownTimeout)
}
