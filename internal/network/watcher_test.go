package network_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fzdarsky/portalpass/internal/logging"
	"github.com/fzdarsky/portalpass/internal/network"
)

func TestNewWatcher_InvalidInterval(t *testing.T) {
	probe := network.NewProbe(network.NewStaticProvider("NJU-WLAN"))
	_, err := network.NewWatcher(probe, 0, logging.NewNop())
	assert.Error(t, err)
}

func TestWatcher_ReportsChangesOnly(t *testing.T) {
	var (
		mu      sync.Mutex
		current = "eduroam"
	)
	provider := network.ProviderFunc(func(context.Context) (string, error) {
		mu.Lock()
		defer mu.Unlock()
		return current, nil
	})

	probe := network.NewProbe(provider).WithInterfaces(staticInterfaces(nil))
	watcher, err := network.NewWatcher(probe, 10*time.Millisecond, logging.NewNop())
	require.NoError(t, err)
	watcher.WithInterfaces(staticInterfaces(nil))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changes := make(chan network.Identity, 4)
	done := make(chan error, 1)
	go func() {
		done <- watcher.Run(ctx, func(id network.Identity) { changes <- id })
	}()

	// The baseline must not be reported.
	select {
	case id := <-changes:
		t.Fatalf("unexpected change before switch: %v", id)
	case <-time.After(50 * time.Millisecond):
	}

	mu.Lock()
	current = "NJU-WLAN"
	mu.Unlock()

	select {
	case id := <-changes:
		assert.Equal(t, network.KnownIdentity("NJU-WLAN"), id)
	case <-time.After(2 * time.Second):
		t.Fatal("change was not reported")
	}

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("watcher did not stop")
	}
}

func TestWatcher_LinkStateChange(t *testing.T) {
	var up atomic.Bool
	ifaces := func() ([]network.NetworkInterface, error) {
		state := network.LinkDown
		if up.Load() {
			state = network.LinkUp
		}
		return []network.NetworkInterface{{Name: "wlan0", Wireless: true, LinkState: state}}, nil
	}

	probe := network.NewProbe(network.NewStaticProvider("")).WithInterfaces(ifaces)
	watcher, err := network.NewWatcher(probe, 10*time.Millisecond, logging.NewNop())
	require.NoError(t, err)
	watcher.WithInterfaces(ifaces)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changes := make(chan network.Identity, 4)
	go func() { _ = watcher.Run(ctx, func(id network.Identity) { changes <- id }) }()

	time.Sleep(30 * time.Millisecond)
	up.Store(true)

	select {
	case id := <-changes:
		assert.False(t, id.Known)
		assert.Equal(t, network.ReasonUnreadable, id.Reason)
	case <-time.After(2 * time.Second):
		t.Fatal("link change was not reported")
	}
}
