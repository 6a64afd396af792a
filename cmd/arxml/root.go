package main

import (
	"github.com/spf13/cobra"

	"autosar/internal/version"
)

var (
	projectFlag string
	configFlag  string
	autosarFlag string
	verboseFlag int
	quietFlag   bool
)

var rootCmd = &cobra.Command{
	Use:   "arxml",
	Short: "arxml - AUTOSAR software component model builder",
	Long: `arxml reads AUTOSAR 3.x and 4.0 ARXML documents and builds one validated
software component model from them: packages, data types, port interfaces,
component types, compositions and internal behaviors.

Sources may be plain .arxml files, gzip or zstd compressed files, zip archives
or directories. Without arguments the files listed in arxml.toml are loaded.`,
	Version:       version.Info(),
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.SetVersionTemplate("arxml version {{.Version}}\n")
	rootCmd.PersistentFlags().StringVarP(&projectFlag, "project", "C", "",
		"Project directory (default: nearest directory with .arxml or arxml.toml)")
	rootCmd.PersistentFlags().StringVar(&configFlag, "config", "",
		"Config file path (default: <project>/.arxml/config.json)")
	rootCmd.PersistentFlags().StringVar(&autosarFlag, "autosar", "",
		"Pin the schema generation: auto, 3 or 4")
	rootCmd.PersistentFlags().CountVarP(&verboseFlag, "verbose", "v", "Increase log verbosity (-v info, -vv debug)")
	rootCmd.PersistentFlags().BoolVarP(&quietFlag, "quiet", "q", false, "Suppress all log output")
}
