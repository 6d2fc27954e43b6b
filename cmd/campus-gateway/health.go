// ABOUTME: health command that probes a running gateway's /health endpoint
// ABOUTME: Exits non-zero when the gateway is unreachable or unhealthy

package main

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

func newHealthCmd(configFlag *string) *cobra.Command {
	var baseURL string

	cmd := &cobra.Command{
		Use:   "health",
		Short: "Check gateway health",
		Long: `Check that a running gateway answers on /health.

Examples:
  campus-gateway health
  campus-gateway health --url http://gateway.internal:8080`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if baseURL == "" {
				cfg, _, err := loadConfig(*configFlag)
				if err != nil {
					return err
				}
				baseURL = "http://" + cfg.Server.HTTPAddr
			}
			return runHealth(cmd, baseURL)
		},
	}
	cmd.Flags().StringVar(&baseURL, "url", "", "gateway base URL (default from config server.http_addr)")
	return cmd
}

func runHealth(cmd *cobra.Command, baseURL string) error {
	url := strings.TrimSuffix(baseURL, "/") + "/health"
	req, err := http.NewRequestWithContext(cmd.Context(), http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unhealthy: status %d", resp.StatusCode)
	}

	fmt.Fprintln(cmd.OutOrStdout(), "healthy")
	return nil
}
