package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var (
	searchSession string
	searchLimit   int
	searchFormat  string
)

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search stored entities by name",
	Long: `Search the entities of a stored session by short name.

Search semantics:
  - Name tokens starting with the query rank first
  - Case-insensitive substring matches follow

Examples:
  arxml search Sensor
  arxml search Run --limit=5
  arxml search Sensor --session=<id>`,
	Args: cobra.ExactArgs(1),
	RunE: withEnv(runSearch),
}

func init() {
	searchCmd.Flags().StringVar(&searchSession, "session", "", "Stored session ID (default: latest)")
	searchCmd.Flags().IntVar(&searchLimit, "limit", 20, "Maximum number of results")
	searchCmd.Flags().StringVar(&searchFormat, "format", "human", "Output format (human, json)")
	rootCmd.AddCommand(searchCmd)
}

// SearchResponseCLI contains search results for CLI output
type SearchResponseCLI struct {
	Query   string            `json:"query"`
	Session string            `json:"session"`
	Results []SearchResultCLI `json:"results"`
}

// SearchResultCLI is one search hit
type SearchResultCLI struct {
	Path      string `json:"path"`
	Kind      string `json:"kind"`
	Name      string `json:"name"`
	MatchType string `json:"matchType"`
}

func runSearch(ctx context.Context, env *cliEnv, cmd *cobra.Command, args []string) error {
	format, err := parseOutputFormat(searchFormat)
	if err != nil {
		return err
	}
	db, repo, err := env.openStore()
	if err != nil {
		return err
	}
	defer db.Close()

	s, err := storedSession(ctx, repo, searchSession)
	if err != nil {
		return err
	}
	results, err := repo.Search(ctx, s.ID, args[0], searchLimit)
	if err != nil {
		return err
	}

	resp := &SearchResponseCLI{Query: args[0], Session: s.ID, Results: make([]SearchResultCLI, 0, len(results))}
	for _, r := range results {
		resp.Results = append(resp.Results, SearchResultCLI{
			Path:      r.Path,
			Kind:      string(r.Kind),
			Name:      r.Name,
			MatchType: r.MatchType,
		})
	}

	output, err := FormatResponse(resp, format)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), output)
	return nil
}
