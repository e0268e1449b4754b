package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fzdarsky/portalpass/internal/cli/clicontext"
)

func TestParseGlobalFlags(t *testing.T) {
	tests := []struct {
		name        string
		args        []string
		wantCommand string
		wantArgs    []string
		wantConfig  string
		wantNoColor bool
	}{
		{
			name:        "command only",
			args:        []string{"login"},
			wantCommand: "login",
			wantArgs:    []string{},
		},
		{
			name:        "global flags before command",
			args:        []string{"--no-color", "--config", "/etc/pp.yaml", "status", "-o", "json"},
			wantCommand: "status",
			wantArgs:    []string{"-o", "json"},
			wantConfig:  "/etc/pp.yaml",
			wantNoColor: true,
		},
		{
			name:        "global flags after command",
			args:        []string{"auto", "--trigger", "network-change", "--config=/tmp/c.yaml"},
			wantCommand: "auto",
			wantArgs:    []string{"--trigger", "network-change"},
			wantConfig:  "/tmp/c.yaml",
		},
		{
			name:        "command help stays with command",
			args:        []string{"login", "--help"},
			wantCommand: "login",
			wantArgs:    []string{"--help"},
		},
		{
			name:        "version",
			args:        []string{"--version"},
			wantCommand: "--version",
			wantArgs:    []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clicontext.Set(&clicontext.Global{})

			args, command, err := parseGlobalFlags(tt.args)
			require.NoError(t, err)
			assert.Equal(t, tt.wantCommand, command)
			assert.Equal(t, tt.wantArgs, args)

			global := clicontext.Get()
			assert.Equal(t, tt.wantConfig, global.ConfigPath)
			assert.Equal(t, tt.wantNoColor, global.NoColor)
		})
	}
}

func TestParseGlobalFlags_MissingConfigPath(t *testing.T) {
	_, _, err := parseGlobalFlags([]string{"status", "--config"})
	assert.Error(t, err)
}
