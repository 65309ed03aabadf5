package client

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

// IndexStatusAPIResponse represents the index portion of the health response.
type IndexStatusAPIResponse struct {
	Backend  string `json:"backend"`
	Ready    bool   `json:"ready"`
	Total    int64  `json:"total"`
	Embedded int64  `json:"embedded"`
}

// HealthAPIResponse represents the health API response.
type HealthAPIResponse struct {
	Status   string                 `json:"status"`
	Database string                 `json:"database"`
	Index    IndexStatusAPIResponse `json:"index"`
}

// HealthCmd creates the health command.
func HealthCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "health",
		Short: "Check server health",
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")
			return runHealth(cmd, outputJSON)
		},
	}

	return cmd
}

func runHealth(cmd *cobra.Command, outputJSON bool) error {
	flagURL, _ := cmd.Flags().GetString("api-url")
	source, apiURL, err := ResolveAPIURL(flagURL)
	if err != nil {
		return err
	}

	api, err := NewAPIClientWithConfig(apiURL)
	if err != nil {
		return err
	}

	resp, err := api.Get("/health")
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}

	var health HealthAPIResponse
	if err := json.Unmarshal(resp.Data, &health); err != nil {
		return fmt.Errorf("failed to parse health response: %w", err)
	}

	if outputJSON {
		output, _ := json.MarshalIndent(health, "", "  ")
		fmt.Println(string(output))
		return nil
	}

	fmt.Printf("Server: %s (from %s)\n", apiURL, source)
	fmt.Printf("Status: %s\n", health.Status)
	fmt.Printf("Database: %s\n", health.Database)
	fmt.Printf("Index: %s (ready: %t, %d of %d schemes embedded)\n",
		health.Index.Backend, health.Index.Ready, health.Index.Embedded, health.Index.Total)

	if health.Status != "ok" {
		return fmt.Errorf("server is %s", health.Status)
	}

	return nil
}
