package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var (
	sessionsFormat string
	sessionsDelete string
)

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "List stored sessions",
	Long: `List the sessions in the snapshot database, newest first.

Examples:
  arxml sessions
  arxml sessions --format=json
  arxml sessions --delete=<id>`,
	Args: cobra.NoArgs,
	RunE: withEnv(runSessions),
}

func init() {
	sessionsCmd.Flags().StringVar(&sessionsFormat, "format", "human", "Output format (human, json)")
	sessionsCmd.Flags().StringVar(&sessionsDelete, "delete", "", "Delete the session with this ID")
	rootCmd.AddCommand(sessionsCmd)
}

// SessionsResponseCLI lists stored sessions
type SessionsResponseCLI struct {
	Sessions []SessionCLI `json:"sessions"`
}

// SessionCLI is one stored session
type SessionCLI struct {
	ID         string   `json:"id"`
	Autosar    int      `json:"autosar"`
	CreatedAt  string   `json:"createdAt"`
	Entities   int      `json:"entities"`
	DurationMs int64    `json:"durationMs"`
	Documents  []string `json:"documents"`
}

func runSessions(ctx context.Context, env *cliEnv, cmd *cobra.Command, args []string) error {
	format, err := parseOutputFormat(sessionsFormat)
	if err != nil {
		return err
	}
	db, repo, err := env.openStore()
	if err != nil {
		return err
	}
	defer db.Close()

	if sessionsDelete != "" {
		if err := repo.DeleteSession(ctx, sessionsDelete); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Deleted session %s\n", sessionsDelete)
		return nil
	}

	sessions, err := repo.Sessions(ctx)
	if err != nil {
		return err
	}
	resp := &SessionsResponseCLI{Sessions: make([]SessionCLI, 0, len(sessions))}
	for _, s := range sessions {
		docs, err := repo.Documents(ctx, s.ID)
		if err != nil {
			return err
		}
		names := make([]string, len(docs))
		for i, d := range docs {
			names[i] = d.Name
		}
		resp.Sessions = append(resp.Sessions, SessionCLI{
			ID:         s.ID,
			Autosar:    s.Autosar,
			CreatedAt:  s.CreatedAt.Format(time.RFC3339),
			Entities:   s.EntityCount,
			DurationMs: s.Duration.Milliseconds(),
			Documents:  names,
		})
	}

	output, err := FormatResponse(resp, format)
	if err != nil {
		return err
	}
	fmt.Fprint(cmd.OutOrStdout(), output)
	return nil
}
