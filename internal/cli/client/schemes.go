package client

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

// Scheme represents a scheme from the API.
type Scheme struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Category    string `json:"category"`
	State       string `json:"state"`
	Department  string `json:"department"`
	Link        string `json:"link"`
	Embedded    bool   `json:"embedded"`
	CreatedAt   string `json:"created_at"`
	UpdatedAt   string `json:"updated_at"`
}

// SchemeListAPIResponse represents the scheme list API response.
type SchemeListAPIResponse struct {
	Schemes []Scheme `json:"schemes"`
	Cursor  string   `json:"cursor,omitempty"`
	HasMore bool     `json:"has_more"`
}

// SchemesCmd creates the schemes command with list and get subcommands.
func SchemesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schemes",
		Short: "Browse the scheme catalog",
		Long:  "Lists and inspects schemes in the catalog without going through the query pipeline.",
	}

	cmd.AddCommand(schemesListCmd())
	cmd.AddCommand(schemesGetCmd())

	return cmd
}

func schemesListCmd() *cobra.Command {
	var (
		state    string
		category string
		limit    int
		cursor   string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List schemes",
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")
			return runSchemesList(cmd, state, category, limit, cursor, outputJSON)
		},
	}

	cmd.Flags().StringVar(&state, "state", "", "Filter by state")
	cmd.Flags().StringVar(&category, "category", "", "Filter by category")
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of results")
	cmd.Flags().StringVar(&cursor, "cursor", "", "Pagination cursor from previous response")

	return cmd
}

func schemesGetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "get <scheme_id>",
		Short:   "Get a scheme by ID",
		Aliases: []string{"view"},
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")
			return runSchemesGet(cmd, args[0], outputJSON)
		},
	}

	return cmd
}

func runSchemesList(cmd *cobra.Command, state, category string, limit int, cursor string, outputJSON bool) error {
	api, err := NewAPIClientWithCmd(cmd)
	if err != nil {
		return err
	}

	params := url.Values{}
	if state != "" {
		params.Set("state", state)
	}
	if category != "" {
		params.Set("category", category)
	}
	if limit > 0 {
		params.Set("limit", strconv.Itoa(limit))
	}
	if cursor != "" {
		params.Set("cursor", cursor)
	}

	path := "/schemes"
	if len(params) > 0 {
		path += "?" + params.Encode()
	}

	resp, err := api.Get(path)
	if err != nil {
		return fmt.Errorf("list failed: %w", err)
	}

	var listResp SchemeListAPIResponse
	if err := json.Unmarshal(resp.Data, &listResp); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	if outputJSON {
		output, _ := json.MarshalIndent(listResp, "", "  ")
		fmt.Println(string(output))
		return nil
	}

	if len(listResp.Schemes) == 0 {
		fmt.Println("No schemes found.")
		return nil
	}

	fmt.Printf("Found %d schemes:\n\n", len(listResp.Schemes))
	for i, scheme := range listResp.Schemes {
		fmt.Printf("%d. %s\n", i+1, scheme.Title)
		fmt.Printf("   %s / %s\n", scheme.State, scheme.Category)
		if scheme.Department != "" {
			fmt.Printf("   Department: %s\n", scheme.Department)
		}
		fmt.Printf("   ID: %s\n", scheme.ID)
		if i < len(listResp.Schemes)-1 {
			fmt.Println(strings.Repeat("-", 40))
		}
	}

	if listResp.HasMore && listResp.Cursor != "" {
		fmt.Printf("\n%s\n", strings.Repeat("-", 40))
		fmt.Printf("More results available. Use --cursor %s\n", listResp.Cursor)
	}

	return nil
}

func runSchemesGet(cmd *cobra.Command, schemeID string, outputJSON bool) error {
	api, err := NewAPIClientWithCmd(cmd)
	if err != nil {
		return err
	}

	resp, err := api.Get(fmt.Sprintf("/schemes/%s", url.PathEscape(schemeID)))
	if err != nil {
		return fmt.Errorf("failed to get scheme: %w", err)
	}

	var scheme Scheme
	if err := json.Unmarshal(resp.Data, &scheme); err != nil {
		return fmt.Errorf("failed to parse scheme: %w", err)
	}

	if outputJSON {
		output, _ := json.MarshalIndent(scheme, "", "  ")
		fmt.Println(string(output))
		return nil
	}

	fmt.Printf("Title: %s\n", scheme.Title)
	fmt.Printf("State: %s\n", scheme.State)
	fmt.Printf("Category: %s\n", scheme.Category)
	if scheme.Department != "" {
		fmt.Printf("Department: %s\n", scheme.Department)
	}
	if scheme.Link != "" {
		fmt.Printf("Link: %s\n", scheme.Link)
	}
	fmt.Printf("Indexed: %t\n", scheme.Embedded)
	fmt.Printf("Created: %s\n", scheme.CreatedAt)
	fmt.Printf("Updated: %s\n", scheme.UpdatedAt)
	fmt.Println()
	fmt.Println("--- Description ---")
	fmt.Println(scheme.Description)

	return nil
}
