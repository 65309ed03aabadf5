package client

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

// FilterOptionsAPIResponse represents the filter options API response.
type FilterOptionsAPIResponse struct {
	States     []string `json:"states"`
	Categories []string `json:"categories"`
}

// FiltersCmd creates the filters command.
func FiltersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "filters",
		Short: "Show available state and category filters",
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")
			return runFilters(cmd, outputJSON)
		},
	}

	return cmd
}

func runFilters(cmd *cobra.Command, outputJSON bool) error {
	api, err := NewAPIClientWithCmd(cmd)
	if err != nil {
		return err
	}

	resp, err := api.Get("/meta/filters")
	if err != nil {
		return fmt.Errorf("failed to get filters: %w", err)
	}

	var filters FilterOptionsAPIResponse
	if err := json.Unmarshal(resp.Data, &filters); err != nil {
		return fmt.Errorf("failed to parse filters: %w", err)
	}

	if outputJSON {
		output, _ := json.MarshalIndent(filters, "", "  ")
		fmt.Println(string(output))
		return nil
	}

	if len(filters.States) == 0 && len(filters.Categories) == 0 {
		fmt.Println("No filters available (catalog is empty).")
		return nil
	}

	fmt.Printf("States (%d):\n  %s\n\n", len(filters.States), strings.Join(filters.States, "\n  "))
	fmt.Printf("Categories (%d):\n  %s\n", len(filters.Categories), strings.Join(filters.Categories, "\n  "))

	return nil
}
