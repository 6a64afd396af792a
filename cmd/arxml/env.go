package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"autosar/internal/config"
	"autosar/internal/loader"
	"autosar/internal/manifest"
	"autosar/internal/paths"
	"autosar/internal/slogutil"
	"autosar/internal/storage"
)

// cliEnv is the resolved project context of one command run.
type cliEnv struct {
	root     string
	cfg      *config.Config
	manifest *manifest.Manifest
	logger   *slog.Logger
	closer   io.Closer
}

// newEnv resolves the project root, loads config and manifest, applies the
// global flags and sets up logging.
func newEnv(cmd *cobra.Command) (*cliEnv, error) {
	root, err := projectRoot()
	if err != nil {
		return nil, err
	}

	var loaded *config.LoadResult
	if configFlag != "" {
		loaded, err = config.LoadConfigFile(configFlag)
	} else {
		loaded, err = config.LoadConfigWithDetails(root)
	}
	if err != nil {
		return nil, err
	}
	cfg := loaded.Config

	var m *manifest.Manifest
	if _, err := os.Stat(filepath.Join(root, manifest.FileName)); err == nil {
		if m, err = manifest.Load(root); err != nil {
			return nil, err
		}
		m.Apply(cfg)
	}
	if autosarFlag != "" {
		cfg.Autosar.Version = autosarFlag
	}
	if cfg.Logging.File != "" && !filepath.IsAbs(cfg.Logging.File) {
		cfg.Logging.File = filepath.Join(root, cfg.Logging.File)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger, closer, err := slogutil.Setup(cfg.Logging, cmd.ErrOrStderr(),
		slogutil.LevelFromVerbosity(verboseFlag, quietFlag))
	if err != nil {
		return nil, fmt.Errorf("failed to set up logging: %w", err)
	}
	logger.Debug("Resolved project",
		"root", root,
		"config", loaded.ConfigPath,
		"defaults", loaded.UsedDefaults,
		"env_overrides", len(loaded.EnvOverrides),
		"manifest", m != nil,
	)

	return &cliEnv{root: root, cfg: cfg, manifest: m, logger: logger, closer: closer}, nil
}

func projectRoot() (string, error) {
	if projectFlag != "" {
		return filepath.Abs(projectFlag)
	}
	wd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	return paths.FindProjectRoot(wd, config.DirName, manifest.FileName)
}

// Close releases the log file.
func (e *cliEnv) Close() error {
	return e.closer.Close()
}

// sources returns args, or the manifest files when args is empty.
func (e *cliEnv) sources(args []string) ([]string, error) {
	if len(args) > 0 {
		return args, nil
	}
	if e.manifest != nil && len(e.manifest.Files) > 0 {
		return e.manifest.Paths(), nil
	}
	return nil, errors.New("no sources given and no " + manifest.FileName + " in " + e.root)
}

// load runs one load session over args.
func (e *cliEnv) load(ctx context.Context, args []string) (*loader.Result, error) {
	srcs, err := e.sources(args)
	if err != nil {
		return nil, err
	}
	return loader.New(e.cfg, e.logger).Load(ctx, srcs...)
}

// openStore opens the snapshot database.
func (e *cliEnv) openStore() (*storage.DB, *storage.SnapshotRepository, error) {
	if !e.cfg.Storage.Enabled {
		return nil, nil, errors.New("storage is disabled (storage.enabled = false)")
	}
	db, err := storage.Open(e.cfg.StoragePath(e.root), e.logger)
	if err != nil {
		return nil, nil, err
	}
	return db, storage.NewSnapshotRepository(db), nil
}

// storedSession picks the session by ID, or the latest one when id is empty.
func storedSession(ctx context.Context, repo *storage.SnapshotRepository, id string) (*storage.Session, error) {
	var (
		s   *storage.Session
		err error
	)
	if id != "" {
		s, err = repo.Session(ctx, id)
	} else {
		s, err = repo.LatestSession(ctx)
	}
	if err != nil {
		return nil, err
	}
	if s == nil {
		if id != "" {
			return nil, fmt.Errorf("session %s not found", id)
		}
		return nil, errors.New("no stored sessions; run arxml index first")
	}
	return s, nil
}

// withEnv wraps a command body with environment setup and teardown.
func withEnv(fn func(ctx context.Context, env *cliEnv, cmd *cobra.Command, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		env, err := newEnv(cmd)
		if err != nil {
			return err
		}
		defer env.Close()
		return fn(cmd.Context(), env, cmd, args)
	}
}
