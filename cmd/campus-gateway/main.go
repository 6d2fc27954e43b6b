// ABOUTME: Entry point for the campus-gateway authentication server
// ABOUTME: Cobra command tree for serve, bootstrap, health and version

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/2389/campus-gateway/internal/config"
)

// Version is set by goreleaser at build time.
var version = "dev"

const banner = `
                                                         _
  ___ __ _ _ __ ___  _ __  _   _ ___        __ _  __ _| |_ _____      ____ _ _   _
 / __/ _' | '_ ' _ \| '_ \| | | / __|_____ / _' |/ _' | __/ _ \ \ /\ / / _' | | | |
| (_| (_| | | | | | | |_) | |_| \__ \_____| (_| | (_| | ||  __/\ V  V / (_| | |_| |
 \___\__,_|_| |_| |_| .__/ \__,_|___/      \__, |\__,_|\__\___| \_/\_/ \__,_|\__, |
                    |_|                    |___/                             |___/
`

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		cancel()
		os.Exit(1)
	}
}

// newRootCmd builds the command tree. The --config flag is shared by every subcommand.
func newRootCmd() *cobra.Command {
	var configFlag string

	root := &cobra.Command{
		Use:   "campus-gateway",
		Short: "Authentication and authorization gateway for the campus API",
		Long: `campus-gateway issues and validates bearer tokens for the campus
management API and enforces its per-route role table.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&configFlag, "config", "c", "",
		"config file (default $"+config.EnvConfigPath+" or ~/.config/campus/gateway.yaml)")

	root.AddCommand(
		newServeCmd(&configFlag),
		newBootstrapCmd(&configFlag),
		newHealthCmd(&configFlag),
		newVersionCmd(),
	)
	return root
}

// loadConfig resolves and loads the config file named by the flag or environment.
func loadConfig(configFlag string) (*config.Config, string, error) {
	path := config.ResolvePath(configFlag)
	cfg, err := config.Load(path)
	if err != nil {
		return nil, path, fmt.Errorf("loading config: %w", err)
	}
	return cfg, path, nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "campus-gateway %s\n", version)
		},
	}
}
