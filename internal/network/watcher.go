package network

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/fzdarsky/portalpass/internal/logging"
)

// Watcher polls the identity and interface link state and reports changes.
type Watcher struct {
	probe      *Probe
	interfaces func() ([]NetworkInterface, error)
	interval   time.Duration
	logger     *logging.Logger
}

// NewWatcher creates a watcher polling every interval.
func NewWatcher(probe *Probe, interval time.Duration, logger *logging.Logger) (*Watcher, error) {
	if interval <= 0 {
		return nil, fmt.Errorf("poll interval must be positive, got %s", interval)
	}

	return &Watcher{
		probe:      probe,
		interfaces: GetInterfaces,
		interval:   interval,
		logger:     logger,
	}, nil
}

// WithInterfaces replaces the interface enumerator.
func (w *Watcher) WithInterfaces(list func() ([]NetworkInterface, error)) *Watcher {
	w.interfaces = list
	return w
}

// Run polls until ctx is cancelled. The first observation is the baseline and
// does not call onChange; every later change in the fingerprint does.
func (w *Watcher) Run(ctx context.Context, onChange func(Identity)) error {
	_, last := w.observe(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			identity, fp := w.observe(ctx)
			if fp == last {
				continue
			}

			w.logger.Info("Network changed", map[string]any{
				"identity": identity.String(),
			})
			last = fp
			onChange(identity)
		}
	}
}

func (w *Watcher) observe(ctx context.Context) (Identity, string) {
	identity := w.probe.Identity(ctx)

	var up []string
	ifaces, err := w.interfaces()
	if err != nil {
		w.logger.Debug("Failed to enumerate interfaces", map[string]any{"error": err})
	}
	for _, iface := range ifaces {
		if iface.Up() {
			up = append(up, iface.Name)
		}
	}
	sort.Strings(up)

	return identity, fingerprint(identity, up)
}

func fingerprint(identity Identity, up []string) string {
	return fmt.Sprintf("%t|%s|%s", identity.Known, identity.Name, strings.Join(up, ","))
}
