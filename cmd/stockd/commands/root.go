// Package commands implements the stockd command line.
package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/lavishdadwani/Stock-Management/internal/config"
)

var configFile string

var versionInfo = "dev"

var rootCmd = &cobra.Command{
	Use:   "stockd",
	Short: "Stock management server for wire inventory, transfers and attendance",
	Long: `stockd runs the stock management API and serves the frontend.

Settings come from config.yaml (or --config), a .env file, STOCK_* environment
variables and flags, in increasing order of precedence.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

// Execute runs the root command and prints any error in red.
func Execute() error {
	rootCmd.SilenceErrors = true
	rootCmd.SilenceUsage = true
	err := rootCmd.ExecuteContext(context.Background())
	if err != nil {
		color.New(color.FgRed, color.Bold).Fprintf(os.Stderr, "error: %v\n", err)
	}
	return err
}

// SetVersionInfo sets the version reported by --version.
func SetVersionInfo(v, c, d string) {
	versionInfo = fmt.Sprintf("%s (commit: %s, built: %s)", v, c, d)
	rootCmd.Version = versionInfo
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "stockd %s\n", versionInfo)
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&configFile, "config", "c", "", "config file (default: ./config.yaml if present)")
	pf.StringP("db", "d", "stock.sqlite3", "SQLite database path")
	pf.StringP("addr", "a", ":8080", "listen address")
	pf.StringP("log", "l", "", "log file path (default: stdout/stderr only)")

	rootCmd.AddCommand(versionCmd)
}

// loadConfig reads the configuration with cmd's flags applied on top.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(configFile, cmd.Flags())
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return cfg, nil
}
