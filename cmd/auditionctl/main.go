// Package main implements auditionctl, the operator CLI for the audition backend.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/MOFOSGANG/HUAUDITIONS-2026/internal/config"
	"github.com/MOFOSGANG/HUAUDITIONS-2026/internal/logging"
)

var (
	// serverURL is the base URL of a running auditiond
	serverURL string
	// configPath and envFile locate configuration for commands that touch the database
	configPath string
	envFile    string
	// version information
	version = "dev"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "auditionctl",
	Short: "Operator CLI for the HUDT audition backend",
	Long: `auditionctl runs schema migrations, manages admin accounts, delivers
queued email and checks the health of a running auditiond.`,
	Version:      version,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "http://localhost:5000", "auditiond server URL")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", os.Getenv(config.EnvPrefix+"CONFIG"), "YAML config file")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file")
	rootCmd.AddCommand(healthCmd)
}

// loadConfig reads configuration the same way auditiond does.
func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadWithFile(config.Options{ConfigPath: configPath, EnvFile: envFile})
	if err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}
	return cfg, nil
}

func newLogger(cfg *config.Config, name string) (*logging.Logger, error) {
	logCfg, err := logging.FromSettings(cfg.Logging, name)
	if err != nil {
		return nil, err
	}
	return logging.NewLogger(logCfg)
}

// healthCmd checks server health
var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check auditiond server health",
	Long: `Check the health status of a running auditiond.

Examples:
  # Check health
  auditionctl health

  # Check health on a different server
  auditionctl health --server http://localhost:8080`,
	Args: cobra.NoArgs,
	RunE: runHealth,
}

// HealthResponse matches internal/http HealthResponse
type HealthResponse struct {
	Status   string            `json:"status"`
	Version  string            `json:"version"`
	Services map[string]string `json:"services"`
}

func runHealth(cmd *cobra.Command, args []string) error {
	url := fmt.Sprintf("%s/health", strings.TrimRight(serverURL, "/"))

	client := &http.Client{
		Timeout: 5 * time.Second,
	}

	resp, err := client.Get(url)
	if err != nil {
		return fmt.Errorf("failed to connect to %s: %w", url, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	var health HealthResponse
	if err := json.Unmarshal(body, &health); err != nil {
		return fmt.Errorf("server returned status %d: %s", resp.StatusCode, string(body))
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Server Status: %s\n", health.Status)
	fmt.Fprintf(out, "Server URL: %s\n", serverURL)
	if health.Version != "" {
		fmt.Fprintf(out, "Version: %s\n", health.Version)
	}
	for name, state := range health.Services {
		fmt.Fprintf(out, "  %s: %s\n", name, state)
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("server is %s (status %d)", health.Status, resp.StatusCode)
	}
	return nil
}
