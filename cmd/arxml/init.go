package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"autosar/internal/config"
	"autosar/internal/manifest"
	"autosar/internal/paths"
)

var initForce bool

var initCmd = &cobra.Command{
	Use:   "init [sources...]",
	Short: "Initialize arxml configuration",
	Long: `Creates a .arxml/ directory with default configuration in the project
directory. Sources given as arguments are written to arxml.toml so later
commands load them without arguments.`,
	RunE: runInit,
}

func init() {
	initCmd.Flags().BoolVarP(&initForce, "force", "f", false, "Overwrite existing configuration and manifest")
	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, args []string) error {
	root := projectFlag
	if root == "" {
		wd, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("failed to get current directory: %w", err)
		}
		root = wd
	}
	return initProject(cmd, root, args, initForce)
}

func initProject(cmd *cobra.Command, root string, sources []string, force bool) error {
	out := cmd.OutOrStdout()
	configPath := filepath.Join(root, config.DirName, "config.json")

	if _, err := os.Stat(configPath); err == nil && !force {
		// already initialized is success
		fmt.Fprintln(out, "arxml already initialized.")
		fmt.Fprintf(out, "Configuration at: %s\n", configPath)
		fmt.Fprintln(out, "\nRun 'arxml init --force' to reinitialize.")
		return nil
	}

	if err := config.DefaultConfig().Save(root); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	fmt.Fprintf(out, "Created %s\n", configPath)

	if len(sources) == 0 {
		return nil
	}
	manifestPath := filepath.Join(root, manifest.FileName)
	if _, err := os.Stat(manifestPath); err == nil && !force {
		return fmt.Errorf("%s already exists; use --force to overwrite", manifestPath)
	}

	m := &manifest.Manifest{Name: filepath.Base(root)}
	for _, src := range sources {
		rel, err := paths.CanonicalizePath(src, root)
		if err != nil {
			return err
		}
		m.Files = append(m.Files, rel)
	}
	if err := m.Save(manifestPath); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}
	fmt.Fprintf(out, "Created %s with %d sources\n", manifestPath, len(m.Files))
	return nil
}
