package main

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	arerrors "autosar/internal/errors"
	"autosar/internal/export"
	"autosar/internal/model"
	"autosar/internal/ref"
)

var (
	findFormat  string
	findStored  bool
	findSession string
)

var findCmd = &cobra.Command{
	Use:   "find <path> [sources...]",
	Short: "Look up one entity by absolute path",
	Long: `Look up one entity by absolute path and print its projection.

The entity is read from the given sources, or with --stored from a session
in the snapshot database.

Examples:
  arxml find /Pkg/Sensor models/
  arxml find /Pkg/SensorBehavior/Run --format=text
  arxml find /Swcs/Sensor --stored`,
	Args: cobra.MinimumNArgs(1),
	RunE: withEnv(runFind),
}

func init() {
	findCmd.Flags().StringVar(&findFormat, "format", "", "Output format (default: export.format from config)")
	findCmd.Flags().BoolVar(&findStored, "stored", false, "Read from the snapshot database")
	findCmd.Flags().StringVar(&findSession, "session", "", "Stored session ID (default: latest)")
	rootCmd.AddCommand(findCmd)
}

func runFind(ctx context.Context, env *cliEnv, cmd *cobra.Command, args []string) error {
	format, err := parseExportFormat(findFormat, env.cfg.Export.Format)
	if err != nil {
		return err
	}
	exporter := export.NewExporter(env.logger)

	var x *export.ModelExport
	if findStored || findSession != "" {
		x, err = findStoredEntity(ctx, env, args[0], findSession)
	} else {
		res, lerr := env.load(ctx, args[1:])
		if lerr != nil {
			return lerr
		}
		x, err = exporter.Export(res.Workspace, export.ExportOptions{Root: args[0], Sources: exportSources(res.Documents)})
	}
	if err != nil {
		return err
	}
	return writeExport(cmd.OutOrStdout(), exporter, x, format, "")
}

func findStoredEntity(ctx context.Context, env *cliEnv, path, sessionID string) (*export.ModelExport, error) {
	p, err := ref.Parse(path)
	if err != nil {
		return nil, err
	}
	db, repo, err := env.openStore()
	if err != nil {
		return nil, err
	}
	defer db.Close()

	s, err := storedSession(ctx, repo, sessionID)
	if err != nil {
		return nil, err
	}
	e, err := repo.Entity(ctx, s.ID, p)
	if err != nil {
		return nil, err
	}
	if e == nil {
		return nil, arerrors.Unresolved("entity", path)
	}
	docs, err := repo.Documents(ctx, s.ID)
	if err != nil {
		return nil, err
	}

	x := &export.ModelExport{
		Metadata: export.ExportMetadata{
			Session:     s.ID,
			Autosar:     s.Autosar,
			Generated:   time.Now().UTC().Format(time.RFC3339),
			Root:        path,
			EntityCount: s.EntityCount,
		},
		Entities: []model.Projection{e.Projection},
	}
	for _, d := range docs {
		x.Metadata.Sources = append(x.Metadata.Sources, export.ExportSource{Name: d.Name, Digest: d.Digest})
	}
	return x, nil
}
