package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/yojanasaar/yojanasaar/internal/cli"
	"github.com/yojanasaar/yojanasaar/internal/cli/client"
)

var version = "dev"

func main() {
	rootCmd := &cobra.Command{
		Use:   "yojana",
		Short: "YojanaSaar CLI - Ask questions about Indian government schemes",
		Long: `YojanaSaar CLI asks grounded questions against a YojanaSaar server.

Environment variables:
  YOJANA_API_URL   API base URL (default: http://localhost:8080)`,
		Version: version,
	}

	rootCmd.PersistentFlags().Bool("output", false, "Output as JSON")
	rootCmd.PersistentFlags().String("api-url", "", "API base URL (overrides env and config)")
	cli.AddHelpJSONFlag(rootCmd)

	rootCmd.AddCommand(client.InitCmd())
	rootCmd.AddCommand(client.AskCmd())
	rootCmd.AddCommand(client.ChatCmd())
	rootCmd.AddCommand(client.SchemesCmd())
	rootCmd.AddCommand(client.FiltersCmd())
	rootCmd.AddCommand(client.HealthCmd())

	cli.CheckHelpJSON(rootCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
