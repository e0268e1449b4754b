package network

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"time"
)

// defaultCommandTimeout bounds one identity lookup.
const defaultCommandTimeout = 2 * time.Second

// ErrCommandUnavailable is returned when the identity command is not installed.
var ErrCommandUnavailable = errors.New("identity command not found")

// CommandProvider reads the network identity from the stdout of a command,
// e.g. "iwgetid -r" or "nmcli -t -f active,ssid dev wifi".
type CommandProvider struct {
	argv    []string
	timeout time.Duration
}

// NewCommandProvider creates a provider running argv.
func NewCommandProvider(argv []string) (*CommandProvider, error) {
	if len(argv) == 0 || argv[0] == "" {
		return nil, fmt.Errorf("identity command cannot be empty")
	}

	return &CommandProvider{
		argv:    append([]string(nil), argv...),
		timeout: defaultCommandTimeout,
	}, nil
}

// CurrentIdentity runs the command and returns its stdout.
// A non-zero exit status is reported as an error; iwgetid exits 255 when the
// interface is not associated.
func (p *CommandProvider) CurrentIdentity(ctx context.Context) (string, error) {
	path, err := exec.LookPath(p.argv[0])
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrCommandUnavailable, p.argv[0])
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	//nolint:gosec // G204: the command comes from the operator's configuration
	cmd := exec.CommandContext(ctx, path, p.argv[1:]...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return "", fmt.Errorf("identity command cancelled: %w", ctx.Err())
		}
		return "", fmt.Errorf("identity command failed: %w (%s)", err, bytes.TrimSpace(stderr.Bytes()))
	}

	return stdout.String(), nil
}

// StaticProvider always reports the same identity. It serves devices where
// the operator pins the network identity in the configuration.
type StaticProvider struct {
	identity string
}

// NewStaticProvider creates a provider returning identity.
func NewStaticProvider(identity string) *StaticProvider {
	return &StaticProvider{identity: identity}
}

// CurrentIdentity returns the pinned identity.
func (p *StaticProvider) CurrentIdentity(context.Context) (string, error) {
	return p.identity, nil
}
