// Package commands provides CLI command implementations for portalpass.
package commands

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/fzdarsky/portalpass/internal/cli/clicontext"
	"github.com/fzdarsky/portalpass/internal/cli/output"
	"github.com/fzdarsky/portalpass/internal/config"
	"github.com/fzdarsky/portalpass/internal/credentials"
	"github.com/fzdarsky/portalpass/internal/lifecycle"
	"github.com/fzdarsky/portalpass/internal/logging"
	"github.com/fzdarsky/portalpass/internal/network"
	"github.com/fzdarsky/portalpass/internal/orchestrator"
	"github.com/fzdarsky/portalpass/internal/portal"
	"github.com/fzdarsky/portalpass/internal/reachability"
	"github.com/fzdarsky/portalpass/pkg/protocol"
)

// runtime bundles the components shared by the commands.
type runtime struct {
	cfg      *config.Config
	logger   *logging.Logger
	identity *network.Probe
	prober   *reachability.Prober
	store    credentials.Store
	orch     *orchestrator.Orchestrator
}

// loadConfig loads the configuration and applies command-line flags.
func loadConfig(target string) (*config.Config, error) {
	cfg, err := config.Load(clicontext.Get().ConfigPath)
	if err != nil {
		return nil, err
	}

	cfg.ApplyFlags(target)

	if err := config.Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// newLogger creates the logger. One-shot commands only log warnings unless
// debug logging is configured, so log lines do not drown the rendered events.
func newLogger(cfg *config.Config, daemon bool) *logging.Logger {
	level := logging.ParseLevel(cfg.Logging.Level)
	if !daemon && level != logging.LevelDebug {
		level = logging.LevelWarn
	}

	logger := logging.New(level, logging.ParseFormat(cfg.Logging.Format))
	logger.RedactKeys(cfg.Logging.RedactKeys...)
	logger.SetOutput(os.Stderr, os.Stderr)
	return logger
}

// newIdentityProvider selects the pinned identity or the identity command.
func newIdentityProvider(cfg *config.Config) (network.IdentityProvider, error) {
	if cfg.Network.Identity != "" {
		return network.NewStaticProvider(cfg.Network.Identity), nil
	}
	return network.NewCommandProvider(cfg.Network.IdentityCommand)
}

func newRuntime(cfg *config.Config, logger *logging.Logger) (*runtime, error) {
	provider, err := newIdentityProvider(cfg)
	if err != nil {
		return nil, err
	}
	identity := network.NewProbe(provider)

	prober, err := reachability.NewProber(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create reachability prober: %w", err)
	}

	client, err := portal.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create portal client: %w", err)
	}

	store, err := credentials.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open credential store: %w", err)
	}

	orch := orchestrator.New(orchestrator.Dependencies{
		Target:   cfg.Network.Target,
		Identity: identity,
		Prober:   prober,
		Portal:   client,
		Store:    store,
		Logger:   logger,
	})

	return &runtime{
		cfg:      cfg,
		logger:   logger,
		identity: identity,
		prober:   prober,
		store:    store,
		orch:     orch,
	}, nil
}

// runOnce serves a single request: it starts the orchestrator, issues the
// request and renders its events until the request is done.
func (rt *runtime) runOnce(ctx context.Context, out io.Writer, request func(*orchestrator.Orchestrator) string) (protocol.Outcome, error) {
	ctx, cancel := context.WithCancel(ctx)
	stopped := make(chan struct{})
	go func() {
		_ = rt.orch.Run(ctx)
		close(stopped)
	}()
	defer func() { cancel(); <-stopped }()

	attempt := request(rt.orch)
	renderer := output.NewRenderer(out, clicontext.Get().NoColor)

	for {
		select {
		case e, ok := <-rt.orch.Events():
			if !ok {
				return protocol.Outcome{}, orchestrator.ErrStopped
			}
			if e.Attempt != attempt {
				continue
			}
			renderer.Render(e)
			if e.Kind == orchestrator.EventDone {
				return *e.Outcome, nil
			}
		case <-ctx.Done():
			return protocol.Outcome{}, fmt.Errorf("interrupted: %w", ctx.Err())
		}
	}
}

// signalContext returns a context cancelled on SIGINT/SIGTERM.
func signalContext() (context.Context, func()) {
	sm := lifecycle.NewShutdownManager()
	ctx := sm.Start(context.Background())
	return ctx, sm.Stop
}

// finish exits with status 1 when the outcome is a failure.
func finish(outcome protocol.Outcome, err error) {
	if err != nil {
		exitWithError("%v", err)
	}
	if !outcome.Success {
		os.Exit(1)
	}
}

// exitWithError prints an error message to stderr and exits with status 1.
func exitWithError(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
	os.Exit(1)
}
