// ABOUTME: serve command that loads config and runs the gateway until interrupted
// ABOUTME: Prints the startup banner and a summary of the effective settings

package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/2389/campus-gateway/internal/gateway"
)

func newServeCmd(configFlag *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the gateway server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, *configFlag)
		},
	}
}

func runServe(cmd *cobra.Command, configFlag string) error {
	out := cmd.OutOrStdout()

	cyan := color.New(color.FgCyan)
	cyan.Fprint(out, banner)

	gray := color.New(color.FgHiBlack)
	gray.Fprintf(out, "    version: %s\n\n", version)

	cfg, configPath, err := loadConfig(configFlag)
	if err != nil {
		return err
	}

	logger := setupLogger(cfg.Logging, out)

	green := color.New(color.FgGreen)
	yellow := color.New(color.FgYellow)

	green.Fprint(out, "    ▶ ")
	fmt.Fprintf(out, "Config:    %s\n", configPath)
	green.Fprint(out, "    ▶ ")
	fmt.Fprintf(out, "HTTP:      %s\n", cfg.Server.HTTPAddr)
	green.Fprint(out, "    ▶ ")
	fmt.Fprintf(out, "Database:  %s\n", gateway.ResolveDBPath(cfg))
	green.Fprint(out, "    ▶ ")
	fmt.Fprintf(out, "Tokens:    %s, issuer %q\n", cfg.Auth.TokenTTL, cfg.Auth.Issuer)

	if rl := cfg.Auth.LoginRateLimit; rl.Disabled {
		yellow.Fprint(out, "    ▶ ")
		fmt.Fprintln(out, "Throttle:  disabled")
	} else {
		green.Fprint(out, "    ▶ ")
		fmt.Fprintf(out, "Throttle:  %d/min, burst %d\n", rl.RequestsPerMinute, rl.Burst)
	}
	if len(cfg.CORS.AllowedOrigins) > 0 {
		green.Fprint(out, "    ▶ ")
		fmt.Fprintf(out, "CORS:      %v\n", cfg.CORS.AllowedOrigins)
	}
	fmt.Fprintln(out)

	logger.Info("starting campus-gateway",
		"config", configPath,
		"http_addr", cfg.Server.HTTPAddr,
		"extra_rules", len(cfg.Authorization.Rules),
	)

	gw, err := gateway.New(cfg, logger)
	if err != nil {
		return fmt.Errorf("creating gateway: %w", err)
	}

	return gw.Run(cmd.Context())
}
