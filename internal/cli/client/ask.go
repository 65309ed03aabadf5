package client

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

// QueryAPIRequest represents the query API request.
type QueryAPIRequest struct {
	Query               string        `json:"query"`
	K                   int           `json:"k,omitempty"`
	State               string        `json:"state,omitempty"`
	Category            string        `json:"category,omitempty"`
	ConversationHistory []HistoryTurn `json:"conversation_history,omitempty"`
}

// AnsweredScheme represents a scheme cited by an answer.
type AnsweredScheme struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Category    string `json:"category,omitempty"`
	State       string `json:"state,omitempty"`
	Department  string `json:"department,omitempty"`
	Link        string `json:"link,omitempty"`
}

// QueryAPIResponse represents the query API response.
type QueryAPIResponse struct {
	Answer          string           `json:"answer"`
	RelevantSchemes []AnsweredScheme `json:"relevant_schemes"`
}

// AskCmd creates the ask command.
func AskCmd() *cobra.Command {
	var (
		state    string
		category string
		k        int
	)

	cmd := &cobra.Command{
		Use:   "ask <question>",
		Short: "Ask a one-shot question about government schemes",
		Long:  "Sends a single question to the query API and prints the grounded answer with its source schemes.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")
			return runAsk(cmd, args[0], state, category, k, outputJSON)
		},
	}

	cmd.Flags().StringVar(&state, "state", "", "Filter retrieval by state")
	cmd.Flags().StringVar(&category, "category", "", "Filter retrieval by category")
	cmd.Flags().IntVarP(&k, "k", "k", 0, "Number of schemes to retrieve (server default if omitted)")

	return cmd
}

func runAsk(cmd *cobra.Command, question, state, category string, k int, outputJSON bool) error {
	api, err := NewAPIClientWithCmd(cmd)
	if err != nil {
		return err
	}

	queryResp, err := postQuery(api, QueryAPIRequest{
		Query:    question,
		K:        k,
		State:    state,
		Category: category,
	})
	if err != nil {
		return err
	}

	if outputJSON {
		output, _ := json.MarshalIndent(queryResp, "", "  ")
		fmt.Println(string(output))
		return nil
	}

	fmt.Println(queryResp.Answer)
	printRelevantSchemes(queryResp.RelevantSchemes)

	return nil
}

func postQuery(api *APIClient, req QueryAPIRequest) (*QueryAPIResponse, error) {
	resp, err := api.Post("/query", req)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}

	var queryResp QueryAPIResponse
	if err := json.Unmarshal(resp.Data, &queryResp); err != nil {
		return nil, fmt.Errorf("failed to parse query response: %w", err)
	}

	return &queryResp, nil
}

func printRelevantSchemes(schemes []AnsweredScheme) {
	if len(schemes) == 0 {
		return
	}

	fmt.Printf("\nBased on %d schemes:\n\n", len(schemes))
	for i, scheme := range schemes {
		fmt.Printf("%d. %s\n", i+1, scheme.Title)
		if scheme.State != "" || scheme.Category != "" {
			fmt.Printf("   %s / %s\n", scheme.State, scheme.Category)
		}
		if scheme.Description != "" {
			desc := scheme.Description
			if len(desc) > 100 {
				desc = desc[:97] + "..."
			}
			fmt.Printf("   %s\n", desc)
		}
		if scheme.Link != "" {
			fmt.Printf("   Link: %s\n", scheme.Link)
		}
		fmt.Printf("   ID: %s\n", scheme.ID)
		if i < len(schemes)-1 {
			fmt.Println(strings.Repeat("-", 40))
		}
	}
}
