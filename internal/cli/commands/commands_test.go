package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fzdarsky/portalpass/internal/cli/clicontext"
	"github.com/fzdarsky/portalpass/internal/cli/output"
	"github.com/fzdarsky/portalpass/internal/config"
	"github.com/fzdarsky/portalpass/internal/credentials"
	"github.com/fzdarsky/portalpass/internal/lifecycle"
	"github.com/fzdarsky/portalpass/internal/logging"
	"github.com/fzdarsky/portalpass/internal/network"
	"github.com/fzdarsky/portalpass/internal/orchestrator"
	"github.com/fzdarsky/portalpass/pkg/protocol"
)

func TestLoginCommand_Run(t *testing.T) {
	gw := newFakePortal(t, `{"reply_code":0,"reply_msg":"welcome"}`, `{"reply_code":101}`)
	cfg := testConfig(t, gw)
	rt := newTestRuntime(t, cfg)

	var out bytes.Buffer
	outcome, err := NewLoginCommand().run(context.Background(), rt,
		credentials.Credentials{Username: "2021001", Password: "secret"}, &out)
	require.NoError(t, err)
	assert.True(t, outcome.Success)
	assert.Contains(t, out.String(), "[success] logged in: welcome")

	assert.Equal(t, int32(1), gw.logins.Load())
	assert.Equal(t, "2021001", gw.lastUsername())

	creds, err := rt.store.Load()
	require.NoError(t, err)
	assert.Equal(t, credentials.Credentials{Username: "2021001", Password: "secret"}, creds)
}

func TestLoginCommand_ReplacesStoredPassword(t *testing.T) {
	gw := newFakePortal(t, `{"reply_code":0,"reply_msg":"welcome"}`, `{"reply_code":101}`)
	cfg := testConfig(t, gw)
	rt := newTestRuntime(t, cfg)
	require.NoError(t, rt.store.Save("2021001", "stale"))

	var out bytes.Buffer
	outcome, err := NewLoginCommand().run(context.Background(), rt,
		credentials.Credentials{Username: "2021001", Password: "fresh"}, &out)
	require.NoError(t, err)
	assert.True(t, outcome.Success, out.String())
	assert.Equal(t, int32(1), gw.logins.Load())

	creds, err := rt.store.Load()
	require.NoError(t, err)
	assert.Equal(t, "fresh", creds.Password)
}

func TestLoginCommand_RejectedOffTarget(t *testing.T) {
	gw := newFakePortal(t, `{"reply_code":0}`, `{"reply_code":101}`)
	cfg := testConfig(t, gw)
	cfg.Network.Identity = "eduroam"
	rt := newTestRuntime(t, cfg)

	var out bytes.Buffer
	outcome, err := NewLoginCommand().run(context.Background(), rt,
		credentials.Credentials{Username: "2021001", Password: "secret"}, &out)
	require.NoError(t, err)
	assert.False(t, outcome.Success)
	assert.Equal(t, protocol.KindValidation, outcome.Kind)
	assert.Contains(t, out.String(), "[network]")
	assert.Zero(t, gw.logins.Load())
}

func TestLogoutCommand_Run(t *testing.T) {
	gw := newFakePortal(t, `{"reply_code":0}`, `{"reply_code":101,"reply_msg":"下线成功"}`)
	cfg := testConfig(t, gw)

	t.Run("nothing stored", func(t *testing.T) {
		rt := newTestRuntime(t, cfg)
		outcome, err := NewLogoutCommand().run(context.Background(), rt, io.Discard)
		require.NoError(t, err)
		assert.False(t, outcome.Success)
		assert.Equal(t, orchestrator.MessageNothingToLogOut, outcome.Message)
		assert.Zero(t, gw.logouts.Load())
	})

	t.Run("stored credentials", func(t *testing.T) {
		rt := newTestRuntime(t, cfg)
		require.NoError(t, rt.store.Save("2021001", "secret"))

		outcome, err := NewLogoutCommand().run(context.Background(), rt, io.Discard)
		require.NoError(t, err)
		assert.True(t, outcome.Success)
		assert.Equal(t, "下线成功", outcome.Message)

		creds, err := rt.store.Load()
		require.NoError(t, err)
		assert.False(t, creds.Valid())
	})
}

func TestAutoCommand_Run(t *testing.T) {
	gw := newFakePortal(t, `{"reply_code":1,"results":{"io_reply_msg":"账号欠费"}}`, `{"reply_code":101}`)
	cfg := testConfig(t, gw)
	cfg.Credentials.Backend = config.BackendFile
	cfg.Credentials.Dir = t.TempDir()
	seedStore(t, cfg.Credentials.Dir)
	rt := newTestRuntime(t, cfg)

	var out bytes.Buffer
	outcome, err := NewAutoCommand().run(context.Background(), rt, orchestrator.TriggerNetworkChange, &out)
	require.NoError(t, err)
	assert.False(t, outcome.Success)
	assert.Equal(t, "账号欠费", outcome.Message)
	assert.Contains(t, out.String(), "automatic login failed")
	assert.Equal(t, int32(1), gw.logins.Load())
}

func TestStatusCommand_Run(t *testing.T) {
	gw := newFakePortal(t, `{"reply_code":0}`, `{"reply_code":101}`)
	cfg := testConfig(t, gw)
	rt := newTestRuntime(t, cfg)
	require.NoError(t, rt.store.Save("2021001", "hunter2"))

	cmd := &StatusCommand{interfaces: func() ([]network.NetworkInterface, error) {
		return []network.NetworkInterface{
			{Name: "eth0", LinkState: network.LinkUp},
			{Name: "wlan0", LinkState: network.LinkUp, Wireless: true},
		}, nil
	}}

	var out bytes.Buffer
	require.NoError(t, cmd.run(context.Background(), rt, output.FormatJSON, &out))
	assert.NotContains(t, out.String(), "hunter2")

	var report StatusReport
	require.NoError(t, json.Unmarshal(out.Bytes(), &report))
	assert.Equal(t, "NJU-WLAN", report.Target)
	assert.True(t, report.OnTarget)
	assert.True(t, report.Reachable)
	assert.Equal(t, gw.probe.URL, report.ProbeURL)
	assert.True(t, report.Credentials.Stored)
	assert.Equal(t, "2021001", report.Credentials.Username)
	require.Len(t, report.Wireless, 1)
	assert.Equal(t, "wlan0", report.Wireless[0].Name)

	out.Reset()
	require.NoError(t, cmd.run(context.Background(), rt, output.FormatTable, &out))
	assert.Contains(t, out.String(), "wireless wlan0")
	assert.Contains(t, out.String(), "2021001 [memory]")
	assert.NotContains(t, out.String(), "hunter2")
}

func TestWatchCommand_Run(t *testing.T) {
	cacheDir := t.TempDir()
	t.Setenv("XDG_CACHE_HOME", cacheDir)
	t.Setenv("HOME", cacheDir)

	gw := newFakePortal(t, `{"reply_code":0,"reply_msg":"welcome"}`, `{"reply_code":101}`)
	cfg := testConfig(t, gw)
	cfg.Network.PollInterval = "20ms"
	cfg.Network.SettleDelay = "0s"
	cfg.Credentials.Backend = config.BackendFile
	cfg.Credentials.Dir = t.TempDir()
	seedStore(t, cfg.Credentials.Dir)
	rt := newTestRuntime(t, cfg)

	cmd := &WatchCommand{interfaces: func() ([]network.NetworkInterface, error) { return nil, nil }}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- cmd.run(ctx, rt, io.Discard) }()

	require.Eventually(t, func() bool { return gw.logins.Load() == 1 }, 5*time.Second, 10*time.Millisecond)

	lockPath := filepath.Join(cacheDir, "portalpass", lockFileName)
	_, err := os.Stat(lockPath)
	require.NoError(t, err, "lock file must exist while running")

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watch did not stop")
	}

	_, err = os.Stat(lockPath)
	assert.True(t, os.IsNotExist(err), "lock file must be released")
	assert.Equal(t, int32(1), gw.logins.Load(), "at most one automatic login")
}

func TestWatchCommand_RefusesSecondInstance(t *testing.T) {
	cacheDir := t.TempDir()
	t.Setenv("XDG_CACHE_HOME", cacheDir)
	t.Setenv("HOME", cacheDir)

	held := lifecycle.NewInstanceLock(filepath.Join(cacheDir, "portalpass", lockFileName))
	require.NoError(t, held.Acquire())
	defer held.Release() //nolint:errcheck

	gw := newFakePortal(t, `{"reply_code":0}`, `{"reply_code":101}`)
	rt := newTestRuntime(t, testConfig(t, gw))

	err := NewWatchCommand().run(context.Background(), rt, io.Discard)
	assert.True(t, errors.Is(err, lifecycle.ErrLocked), "got %v", err)
	assert.Zero(t, gw.logins.Load())
}

// Helper functions

type fakePortal struct {
	portal   *httptest.Server
	probe    *httptest.Server
	logins   atomic.Int32
	logouts  atomic.Int32
	username atomic.Value
}

func newFakePortal(t *testing.T, loginReply, logoutReply string) *fakePortal {
	t.Helper()

	gw := &fakePortal{}
	gw.username.Store("")
	gw.portal = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost && strings.HasSuffix(r.URL.Path, "/login"):
			var req protocol.LoginRequest
			_ = json.NewDecoder(r.Body).Decode(&req)
			gw.username.Store(req.Username)
			gw.logins.Add(1)
			_, _ = io.WriteString(w, loginReply)
		case r.Method == http.MethodGet && strings.HasSuffix(r.URL.Path, "/logout"):
			gw.logouts.Add(1)
			_, _ = io.WriteString(w, logoutReply)
		default:
			http.NotFound(w, r)
		}
	}))
	gw.probe = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(gw.portal.Close)
	t.Cleanup(gw.probe.Close)

	return gw
}

func (gw *fakePortal) lastUsername() string {
	return gw.username.Load().(string)
}

func testConfig(t *testing.T, gw *fakePortal) *config.Config {
	t.Helper()
	clicontext.SetNoColor(true)

	cfg := config.Default()
	cfg.Portal.LoginURL = gw.portal.URL + "/api/portal/v1/login"
	cfg.Portal.LogoutURL = gw.portal.URL + "/portal_io/logout"
	cfg.Portal.Timeout = "2s"
	cfg.Reachability.URL = gw.probe.URL
	cfg.Network.Identity = "NJU-WLAN"
	cfg.Credentials.Backend = config.BackendMemory
	require.NoError(t, config.Validate(cfg))
	return cfg
}

func newTestRuntime(t *testing.T, cfg *config.Config) *runtime {
	t.Helper()
	rt, err := newRuntime(cfg, logging.NewNop())
	require.NoError(t, err)
	return rt
}

func seedStore(t *testing.T, dir string) {
	t.Helper()
	store, err := credentials.NewFileStore(dir)
	require.NoError(t, err)
	require.NoError(t, store.Save("2021001", "secret"))
}
