package client

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

type chatOptions struct {
	state    string
	category string
	k        int
}

// ChatCmd creates the chat command.
func ChatCmd() *cobra.Command {
	var opts chatOptions

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Chat interactively about government schemes",
		Long: `Starts an interactive session with the query API. The conversation is
persisted to the global config directory and resent with each question,
so follow-ups can refer to earlier turns. Type /reset to start over and
/exit to quit.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			api, err := NewAPIClientWithCmd(cmd)
			if err != nil {
				return err
			}
			return chatLoop(api, os.Stdin, os.Stdout, opts)
		},
	}

	cmd.Flags().StringVar(&opts.state, "state", "", "Filter retrieval by state")
	cmd.Flags().StringVar(&opts.category, "category", "", "Filter retrieval by category")
	cmd.Flags().IntVarP(&opts.k, "k", "k", 0, "Number of schemes to retrieve (server default if omitted)")

	return cmd
}

func chatLoop(api *APIClient, in io.Reader, out io.Writer, opts chatOptions) error {
	history, err := LoadHistory()
	if err != nil {
		fmt.Fprintf(out, "Warning: %v (starting a new conversation)\n", err)
		history = nil
	}

	if len(history) > 0 {
		fmt.Fprintf(out, "Resuming conversation with %d turns. /reset starts over, /exit quits.\n", len(history))
	} else {
		fmt.Fprintln(out, "Ask about government schemes. /reset starts over, /exit quits.")
	}

	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			break
		}

		line := strings.TrimSpace(scanner.Text())
		switch line {
		case "":
			continue
		case "/exit":
			return nil
		case "/reset":
			if err := ClearHistory(); err != nil {
				fmt.Fprintf(out, "Error: %v\n", err)
				continue
			}
			history = nil
			fmt.Fprintln(out, "Conversation cleared.")
			continue
		}

		resp, err := postQuery(api, QueryAPIRequest{
			Query:               line,
			K:                   opts.k,
			State:               opts.state,
			Category:            opts.category,
			ConversationHistory: history,
		})
		if err != nil {
			fmt.Fprintf(out, "Error: %v\n", err)
			continue
		}

		fmt.Fprintf(out, "\n%s\n", resp.Answer)
		if len(resp.RelevantSchemes) > 0 {
			titles := make([]string, len(resp.RelevantSchemes))
			for i, scheme := range resp.RelevantSchemes {
				titles[i] = scheme.Title
			}
			fmt.Fprintf(out, "(sources: %s)\n", strings.Join(titles, "; "))
		}
		fmt.Fprintln(out)

		history = append(history,
			HistoryTurn{Role: "user", Content: line},
			HistoryTurn{Role: "model", Content: resp.Answer},
		)
		if err := SaveHistory(history); err != nil {
			fmt.Fprintf(out, "Warning: %v\n", err)
		}
	}

	return scanner.Err()
}
