package commands

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/fzdarsky/portalpass/internal/cli/output"
	"github.com/fzdarsky/portalpass/internal/network"
)

// StatusReport is printed by the status command. The password is never part
// of it.
type StatusReport struct {
	Target      string                     `json:"target" yaml:"target"`
	Identity    network.Identity           `json:"identity" yaml:"identity"`
	OnTarget    bool                       `json:"on_target" yaml:"on_target"`
	Reachable   bool                       `json:"reachable" yaml:"reachable"`
	ProbeURL    string                     `json:"probe_url" yaml:"probe_url"`
	Credentials CredentialStatus           `json:"credentials" yaml:"credentials"`
	Wireless    []network.NetworkInterface `json:"wireless_interfaces" yaml:"wireless_interfaces"`
}

// CredentialStatus describes the stored pair without revealing the password.
type CredentialStatus struct {
	Backend  string `json:"backend" yaml:"backend"`
	Stored   bool   `json:"stored" yaml:"stored"`
	Username string `json:"username,omitempty" yaml:"username,omitempty"`
	Error    string `json:"error,omitempty" yaml:"error,omitempty"`
}

// Headers implements output.TableRenderer.
func (r StatusReport) Headers() []string {
	return []string{"Field", "Value"}
}

// Rows implements output.TableRenderer.
func (r StatusReport) Rows() [][]string {
	stored := "none"
	switch {
	case r.Credentials.Error != "":
		stored = "unavailable: " + r.Credentials.Error
	case r.Credentials.Stored:
		stored = r.Credentials.Username
	}

	rows := [][]string{
		{"target", r.Target},
		{"network", r.Identity.String()},
		{"on target", strconv.FormatBool(r.OnTarget)},
		{"reachable", fmt.Sprintf("%t (%s)", r.Reachable, r.ProbeURL)},
		{"credentials", fmt.Sprintf("%s [%s]", stored, r.Credentials.Backend)},
	}

	for _, iface := range r.Wireless {
		addrs := make([]string, 0, len(iface.IPAddresses))
		for _, a := range iface.IPAddresses {
			addrs = append(addrs, fmt.Sprintf("%s/%d", a.IP, a.Prefix))
		}
		rows = append(rows, []string{
			"wireless " + iface.Name,
			strings.TrimSpace(iface.LinkState + " " + strings.Join(addrs, " ")),
		})
	}

	return rows
}

// StatusCommand implements the 'status' command.
type StatusCommand struct {
	interfaces func() ([]network.NetworkInterface, error)
}

// NewStatusCommand creates a new status command instance.
func NewStatusCommand() *StatusCommand {
	return &StatusCommand{interfaces: network.GetInterfaces}
}

// Execute runs the status command with the provided arguments.
func (c *StatusCommand) Execute(args []string) {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	outputFormat := fs.String("output", "table", "Output format: table, yaml or json")
	fs.StringVar(outputFormat, "o", "table", "Output format (shorthand)")
	target := fs.String("target", "", "Name of the network that requires the portal login")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: portalpass status [flags]

Show the current network identity, internet reachability, the stored username
and the wireless interfaces.

Flags:
`)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		exitWithError("failed to parse flags: %v", err)
	}

	format, err := output.ParseFormat(*outputFormat)
	if err != nil {
		exitWithError("%v", err)
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

	if err := c.run(ctx, rt, format, os.Stdout); err != nil {
		exitWithError("%v", err)
	}
}

func (c *StatusCommand) run(ctx context.Context, rt *runtime, format output.Format, out io.Writer) error {
	report := c.collect(ctx, rt)
	return output.Write(out, report, format)
}

func (c *StatusCommand) collect(ctx context.Context, rt *runtime) StatusReport {
	target := rt.cfg.Network.Target

	ifaces, err := c.interfaces()
	if err != nil {
		rt.logger.Warn("Failed to enumerate interfaces", map[string]any{"error": err})
	}
	identity := rt.identity.WithInterfaces(func() ([]network.NetworkInterface, error) {
		return ifaces, err
	}).Identity(ctx)

	report := StatusReport{
		Target:    target,
		Identity:  identity,
		OnTarget:  identity.Is(target),
		Reachable: rt.prober.Probe(ctx),
		ProbeURL:  rt.prober.Target(),
		Credentials: CredentialStatus{
			Backend: rt.cfg.Credentials.Backend,
		},
		Wireless: []network.NetworkInterface{},
	}

	creds, err := rt.store.Load()
	if err != nil {
		report.Credentials.Error = err.Error()
	} else if creds.Valid() {
		report.Credentials.Stored = true
		report.Credentials.Username = creds.Username
	}

	for _, iface := range ifaces {
		if iface.Wireless {
			report.Wireless = append(report.Wireless, iface)
		}
	}

	return report
}
