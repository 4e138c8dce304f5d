package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"suada-mcp/internal/connector"
	"suada-mcp/internal/suada"
)

var (
	askAPIKey       string
	askBaseURL      string
	askUser         string
	askConversation string
	askContext      []string
	askInsights     bool
)

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Send one business question through the direct client",
	Args:  cobra.ExactArgs(1),
	RunE:  runAsk,
}

func init() {
	askCmd.Flags().StringVar(&askAPIKey, "api-key", "", "Suada API key (default $SUADA_API_KEY)")
	askCmd.Flags().StringVar(&askBaseURL, "base-url", "", "Suada API base URL (default from config)")
	askCmd.Flags().StringVar(&askUser, "user", "", "External user identifier (default from config)")
	askCmd.Flags().StringVar(&askConversation, "conversation", "", "Conversation ID to continue")
	askCmd.Flags().StringArrayVar(&askContext, "context", nil, "Context entry as key=value (repeatable)")
	askCmd.Flags().BoolVar(&askInsights, "insights", false, "Also print the structured-insights block")
}

func runAsk(cmd *cobra.Command, args []string) error {
	apiKey := cfg.APIKey
	if askAPIKey != "" {
		apiKey = askAPIKey
	}
	baseURL := cfg.BaseURL
	if askBaseURL != "" {
		baseURL = askBaseURL
	}

	client, err := suada.NewClient(suada.Config{APIKey: apiKey, BaseURL: baseURL})
	if err != nil {
		return err
	}

	reqContext, err := parseContext(askContext)
	if err != nil {
		return err
	}

	c := connector.New(client, cfg.ExternalUserIdentifier)
	resp := c.Process(cmd.Context(), connector.Request{
		Query:          args[0],
		Context:        reqContext,
		UserID:         askUser,
		ConversationID: askConversation,
	})

	if resp.Error != "" {
		return fmt.Errorf("suada: %s", resp.Error)
	}

	fmt.Println(resp.Content)

	if askInsights {
		if data, ok := resp.Metadata["suada_data"].(connector.Insights); ok {
			printInsights(data)
		}
	}
	return nil
}

func parseContext(entries []string) (map[string]any, error) {
	if len(entries) == 0 {
		return nil, nil
	}
	out := make(map[string]any, len(entries))
	for _, e := range entries {
		k, v, ok := strings.Cut(e, "=")
		if !ok || k == "" {
			return nil, fmt.Errorf("invalid context entry %q (want key=value)", e)
		}
		out[k] = v
	}
	return out, nil
}

func printInsights(data connector.Insights) {
	if len(data.Metrics) > 0 {
		fmt.Println("\nMetrics:")
		for k, v := range data.Metrics {
			fmt.Printf("  %s: %v\n", k, v)
		}
	}
	printList := func(title string, items []string) {
		if len(items) == 0 {
			return
		}
		fmt.Printf("\n%s:\n", title)
		for _, item := range items {
			fmt.Printf("  - %s\n", item)
		}
	}
	printList("Insights", data.Insights)
	printList("Recommendations", data.Recommendations)
	printList("Risks", data.Risks)
	if data.Reasoning != "" {
		fmt.Printf("\nReasoning: %s\n", data.Reasoning)
	}
}
