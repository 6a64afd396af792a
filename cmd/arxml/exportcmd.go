package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"autosar/internal/export"
	"autosar/internal/loader"
	"autosar/internal/model"
)

var (
	exportFormat string
	exportRoot   string
	exportKinds  string
	exportOutput string
)

var exportCmd = &cobra.Command{
	Use:   "export [sources...]",
	Short: "Export the model projection",
	Long: `Export the structural projection of a loaded model.

By default every root package is exported with its full subtree. --root
selects one entity by absolute path; --kinds selects every entity of the
given kinds, each tagged with its path.

Formats: json, yaml, toml, cbor, text. cbor is binary and needs --output
when stdout is a terminal.

Examples:
  arxml export models/
  arxml export --root=/Swcs/Sensor --format=yaml
  arxml export --kinds=RunnableEntity,TimingEvent
  arxml export --format=cbor --output=model.cbor`,
	RunE: withEnv(runExport),
}

func init() {
	exportCmd.Flags().StringVar(&exportFormat, "format", "", "Output format (default: export.format from config)")
	exportCmd.Flags().StringVar(&exportRoot, "root", "", "Export only the entity at this absolute path")
	exportCmd.Flags().StringVar(&exportKinds, "kinds", "", "Export entities of these kinds (comma-separated)")
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "Write to file instead of stdout")
	rootCmd.AddCommand(exportCmd)
}

func runExport(ctx context.Context, env *cliEnv, cmd *cobra.Command, args []string) error {
	start := time.Now()
	format, err := parseExportFormat(exportFormat, env.cfg.Export.Format)
	if err != nil {
		return err
	}
	if exportRoot != "" && exportKinds != "" {
		return errors.New("--root and --kinds are mutually exclusive")
	}

	res, err := env.load(ctx, args)
	if err != nil {
		return err
	}

	exporter := export.NewExporter(env.logger)
	x, err := exporter.Export(res.Workspace, export.ExportOptions{
		Root:    exportRoot,
		Kinds:   parseKinds(exportKinds),
		Sources: exportSources(res.Documents),
	})
	if err != nil {
		return err
	}
	if err := writeExport(cmd.OutOrStdout(), exporter, x, format, exportOutput); err != nil {
		return err
	}

	env.logger.Debug("Export completed",
		"format", format,
		"entities", len(x.Entities),
		"duration", time.Since(start).Milliseconds(),
	)
	return nil
}

func parseKinds(s string) []model.Kind {
	var kinds []model.Kind
	for _, k := range strings.Split(s, ",") {
		if k = strings.TrimSpace(k); k != "" {
			kinds = append(kinds, model.Kind(k))
		}
	}
	return kinds
}

func exportSources(docs []loader.DocumentInfo) []export.ExportSource {
	sources := make([]export.ExportSource, len(docs))
	for i, d := range docs {
		sources[i] = export.ExportSource{Name: d.Name, Digest: d.Digest}
	}
	return sources
}

// writeExport writes x to output, or to stdout when output is empty.
func writeExport(stdout io.Writer, exporter *export.Exporter, x *export.ModelExport, format export.Format, output string) error {
	if output == "" {
		if format.Binary() && isTerminal(stdout) {
			return fmt.Errorf("refusing to write %s to a terminal; use --output", format)
		}
		return exporter.Write(stdout, x, format)
	}

	if err := os.MkdirAll(filepath.Dir(output), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	f, err := os.Create(output)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", output, err)
	}
	if err := exporter.Write(f, x, format); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
