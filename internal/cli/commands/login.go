package commands

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/fzdarsky/portalpass/internal/credentials"
	"github.com/fzdarsky/portalpass/internal/orchestrator"
	"github.com/fzdarsky/portalpass/pkg/protocol"
)

// LoginCommand implements the 'login' command.
type LoginCommand struct{}

// NewLoginCommand creates a new login command instance.
func NewLoginCommand() *LoginCommand {
	return &LoginCommand{}
}

// Execute runs the login command with the provided arguments.
func (c *LoginCommand) Execute(args []string) {
	fs := flag.NewFlagSet("login", flag.ExitOnError)

	username := fs.String("username", "", "Portal username (defaults to the stored one)")
	password := fs.String("password", "", "Portal password (prompts if nothing is stored)")
	target := fs.String("target", "", "Name of the network that requires the portal login")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: portalpass login [flags]

Log in to the portal. Without flags the stored credentials are used; when
nothing is stored the username and password are prompted for. Credentials are
stored after a successful login.

Flags:
`)
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, `
Examples:
  # Use stored credentials, or prompt for them
  portalpass login

  # Non-interactive
  portalpass login --username 2021001 --password secret
`)
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

	creds := credentials.Credentials{Username: *username, Password: *password}
	if err := c.completeCredentials(rt.store, &creds); err != nil {
		exitWithError("%v", err)
	}

	ctx, stop := signalContext()
	defer stop()

	finish(c.run(ctx, rt, creds, os.Stdout))
}

func (c *LoginCommand) run(ctx context.Context, rt *runtime, creds credentials.Credentials, out io.Writer) (protocol.Outcome, error) {
	return rt.runOnce(ctx, out, func(o *orchestrator.Orchestrator) string {
		return o.RequestLogin(creds)
	})
}

// completeCredentials prompts for missing values unless the stored pair will
// be used.
func (c *LoginCommand) completeCredentials(store credentials.Store, creds *credentials.Credentials) error {
	if creds.Username == "" && creds.Password == "" {
		stored, err := store.Load()
		if err == nil && stored.Valid() {
			return nil
		}
	}

	if !term.IsTerminal(int(os.Stdin.Fd())) {
		if creds.Username == "" || creds.Password == "" {
			return fmt.Errorf("username and password are required when stdin is not a terminal")
		}
		return nil
	}

	if creds.Username == "" {
		creds.Username = promptUsername()
	}
	if creds.Password == "" {
		password, err := promptPassword()
		if err != nil {
			return err
		}
		creds.Password = password
	}

	return nil
}

// promptUsername prompts the user to enter their username.
func promptUsername() string {
	fmt.Fprintf(os.Stderr, "Username: ")
	reader := bufio.NewReader(os.Stdin)
	username, _ := reader.ReadString('\n')
	return strings.TrimSpace(username)
}

// promptPassword prompts the user to enter their password (hidden input).
func promptPassword() (string, error) {
	fmt.Fprintf(os.Stderr, "Password: ")
	password, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintf(os.Stderr, "\n")
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return string(password), nil
}
