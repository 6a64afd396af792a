package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"autosar/internal/loader"
	"autosar/internal/paths"
)

var (
	indexForce  bool
	indexKeep   int
	indexFormat string
)

var indexCmd = &cobra.Command{
	Use:   "index [sources...]",
	Short: "Load a model and store it in the snapshot database",
	Long: `Load ARXML sources and store the resulting model as a session in the
snapshot database (.arxml/arxml.db by default).

A session whose documents have the same content is not stored again unless
--force is given. --keep prunes all but the newest sessions.

Examples:
  arxml index models/
  arxml index --keep=5
  arxml index --force`,
	RunE: withEnv(runIndex),
}

func init() {
	indexCmd.Flags().BoolVar(&indexForce, "force", false, "Store even when an identical session exists")
	indexCmd.Flags().IntVar(&indexKeep, "keep", 0, "Keep only the newest N sessions (0 = keep all)")
	indexCmd.Flags().StringVar(&indexFormat, "format", "human", "Output format (human, json)")
	rootCmd.AddCommand(indexCmd)
}

// IndexResponseCLI is the index command output
type IndexResponseCLI struct {
	Session   string `json:"session"`
	UpToDate  bool   `json:"upToDate"`
	Entities  int    `json:"entities"`
	Documents int    `json:"documents"`
	Pruned    int    `json:"pruned,omitempty"`
	Database  string `json:"database"`
}

func runIndex(ctx context.Context, env *cliEnv, cmd *cobra.Command, args []string) error {
	format, err := parseOutputFormat(indexFormat)
	if err != nil {
		return err
	}
	res, err := env.load(ctx, args)
	if err != nil {
		return err
	}
	resp, err := indexResult(ctx, env, res, indexForce, indexKeep)
	if err != nil {
		return err
	}

	output, err := FormatResponse(resp, format)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), output)
	return nil
}

// indexResult stores res unless an identical session exists, then prunes.
func indexResult(ctx context.Context, env *cliEnv, res *loader.Result, force bool, keep int) (*IndexResponseCLI, error) {
	db, repo, err := env.openStore()
	if err != nil {
		return nil, err
	}
	defer db.Close()

	for i, d := range res.Documents {
		name, err := paths.CanonicalizeDocument(d.Name, env.root)
		if err != nil {
			return nil, err
		}
		res.Documents[i].Name = name
	}

	resp := &IndexResponseCLI{Database: db.Path(), Documents: len(res.Documents)}
	if !force {
		digests := make([]string, len(res.Documents))
		for i, d := range res.Documents {
			digests[i] = d.Digest
		}
		existing, err := repo.FindByDigests(ctx, digests)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			resp.Session = existing.ID
			resp.UpToDate = true
			resp.Entities = existing.EntityCount
		}
	}

	if !resp.UpToDate {
		s, err := repo.Save(ctx, res)
		if err != nil {
			return nil, err
		}
		resp.Session = s.ID
		resp.Entities = s.EntityCount
	}

	if keep > 0 {
		if resp.Pruned, err = repo.Prune(ctx, keep); err != nil {
			return nil, err
		}
	}
	return resp, nil
}
