// Package main provides the portalpass CLI, which logs a device in to a
// captive-portal network automatically.
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/fzdarsky/portalpass/internal/cli/clicontext"
	"github.com/fzdarsky/portalpass/internal/cli/commands"
)

// version is set at build time via -ldflags.
var version = "dev"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	args, command, err := parseGlobalFlags(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n\n", err)
		printUsage()
		os.Exit(1)
	}

	switch command {
	case "", "--help", "-h", "help":
		printUsage()
		os.Exit(0)
	case "--version", "-v", "version":
		fmt.Printf("portalpass version %s\n", version)
		os.Exit(0)
	}

	switch command {
	case "login":
		commands.NewLoginCommand().Execute(args)
	case "logout":
		commands.NewLogoutCommand().Execute(args)
	case "auto":
		commands.NewAutoCommand().Execute(args)
	case "watch":
		commands.NewWatchCommand().Execute(args)
	case "status":
		commands.NewStatusCommand().Execute(args)
	default:
		fmt.Fprintf(os.Stderr, "Error: unknown command '%s'\n\n", command)
		printUsage()
		os.Exit(1)
	}
}

// parseGlobalFlags processes global flags and returns remaining args and the command.
// Global flags can appear anywhere in the argument list.
// Examples:
//
//	portalpass --no-color login
//	portalpass login --config /etc/portalpass.yaml
//	portalpass status -o json --config=/etc/portalpass.yaml
func parseGlobalFlags(args []string) ([]string, string, error) {
	remainingArgs := make([]string, 0, len(args))
	var command string

	for i := 0; i < len(args); i++ {
		arg := args[i]

		switch {
		case arg == "--no-color":
			clicontext.SetNoColor(true)
			continue
		case arg == "--config" || arg == "-c":
			if i+1 >= len(args) {
				return nil, "", fmt.Errorf("%s requires a path", arg)
			}
			i++
			clicontext.SetConfigPath(args[i])
			continue
		case strings.HasPrefix(arg, "--config="):
			clicontext.SetConfigPath(strings.TrimPrefix(arg, "--config="))
			continue
		case arg == "--help" || arg == "-h" || arg == "--version" || arg == "-v":
			if command == "" {
				command = arg
				continue
			}
		}

		// First non-flag argument is the command
		if command == "" && !isFlag(arg) {
			command = arg
			continue
		}

		// All other arguments are passed to the command
		remainingArgs = append(remainingArgs, arg)
	}

	return remainingArgs, command, nil
}

// isFlag returns true if the argument looks like a flag (starts with -).
func isFlag(arg string) bool {
	return len(arg) > 0 && arg[0] == '-'
}

func printUsage() {
	fmt.Fprintf(os.Stderr, `portalpass - automatic captive-portal login

Usage:
  portalpass <command> [flags]

Available Commands:
  login    Log in to the portal (stores credentials on success)
  logout   Log out of the portal and erase stored credentials
  auto     Evaluate the network once and log in automatically if needed
  watch    Run as a daemon and re-evaluate whenever the network changes
  status   Show network identity, reachability and stored username

Global Flags:
  --config, -c PATH  Configuration file (default: user config directory)
  --no-color         Disable colored output
  --help, -h         Show help information
  --version, -v      Show version information

Examples:
  # First login, prompts for credentials
  portalpass login

  # From a NetworkManager dispatcher hook
  portalpass auto --trigger network-change

  # As a user service
  portalpass watch

  # Machine-readable status
  portalpass status --output json

For detailed help on a specific command, run:
  portalpass <command> --help

`)
}
