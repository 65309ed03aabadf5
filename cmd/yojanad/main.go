package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/yojanasaar/yojanasaar/internal/cli"
	"github.com/yojanasaar/yojanasaar/internal/cli/admin"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "yojanad",
		Short: "YojanaSaar daemon and admin CLI",
		Long:  "YojanaSaar daemon for serving the scheme API and running scrape and index jobs",
	}

	cli.AddHelpJSONFlag(rootCmd)
	rootCmd.AddCommand(admin.ServeCmd())
	rootCmd.AddCommand(admin.ScrapeCmd())
	rootCmd.AddCommand(admin.IndexCmd())
	rootCmd.AddCommand(admin.SchemaCmd())

	if len(os.Args) == 1 {
		os.Args = append(os.Args, "serve")
	}

	cli.CheckHelpJSON(rootCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
