// Package loader turns a set of ARXML sources into one frozen workspace.
package loader

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/beevik/etree"

	"autosar/internal/archive"
	"autosar/internal/config"
	arerrors "autosar/internal/errors"
	"autosar/internal/parser"
	"autosar/internal/validate"
	"autosar/internal/workspace"
)

// DocumentInfo describes one loaded document.
type DocumentInfo struct {
	Name     string           `json:"name"`
	Encoding archive.Encoding `json:"encoding"`
	Digest   string           `json:"digest"`
	Size     int              `json:"size"`
}

// Result is a completed load session.
type Result struct {
	Workspace *workspace.Workspace
	Documents []DocumentInfo
	Duration  time.Duration
}

// Loader runs load sessions.
type Loader struct {
	cfg    *config.Config
	logger *slog.Logger
	reader *archive.Reader
}

// New creates a Loader. A nil cfg selects config.DefaultConfig and a nil
// logger discards output.
func New(cfg *config.Config, logger *slog.Logger) *Loader {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Loader{
		cfg:    cfg,
		logger: logger,
		reader: archive.NewReader(cfg.Loader.MaxDocumentBytes),
	}
}

// Load reads paths, expanding directories and archives, and builds one
// workspace from every document found.
func (l *Loader) Load(ctx context.Context, paths ...string) (*Result, error) {
	files, err := archive.Expand(paths)
	if err != nil {
		return nil, err
	}
	var docs []archive.Document
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		found, err := l.reader.Open(f)
		if err != nil {
			return nil, err
		}
		docs = append(docs, found...)
	}
	return l.LoadDocuments(ctx, docs...)
}

// LoadDocuments builds, validates and freezes a workspace from docs. All
// documents must share one AUTOSAR generation. Nothing is returned unless
// every document parses and the result is consistent.
func (l *Loader) LoadDocuments(ctx context.Context, docs ...archive.Document) (*Result, error) {
	start := time.Now()
	if len(docs) == 0 {
		return nil, arerrors.Structural("no documents to load")
	}

	trees, err := l.decode(ctx, docs)
	if err != nil {
		return nil, err
	}
	version, err := l.sessionVersion(docs, trees)
	if err != nil {
		return nil, err
	}

	ws := workspace.New(version, workspace.WithLogger(l.logger))
	logger := l.logger.With("session", ws.ID().String())
	logger.Debug("Starting load session", "version", version.String(), "documents", len(docs))

	staging := ws.NewStaging()
	p, err := parser.New(staging,
		parser.WithLogger(logger),
		parser.WithRejectNegative(l.cfg.Autosar.RejectNegative),
	)
	if err != nil {
		return nil, err
	}
	for i, tree := range trees {
		if err := p.ParseDocument(tree); err != nil {
			return nil, fmt.Errorf("%s: %w", docs[i].Name, err)
		}
	}
	if err := p.Build(ctx); err != nil {
		return nil, err
	}
	if err := ws.Merge(staging); err != nil {
		return nil, err
	}
	if err := validate.Check(ws); err != nil {
		return nil, err
	}
	ws.Freeze()

	result := &Result{Workspace: ws, Duration: time.Since(start)}
	for _, d := range docs {
		result.Documents = append(result.Documents, DocumentInfo{
			Name:     d.Name,
			Encoding: d.Encoding,
			Digest:   d.Digest,
			Size:     len(d.Data),
		})
	}
	logger.Info("Loaded workspace",
		"documents", len(docs),
		"entities", ws.Len(),
		"duration", result.Duration,
	)
	return result, nil
}

// decode parses every document into an XML tree with at most
// cfg.Loader.Workers decoders running. The first failure in document order
// is reported.
func (l *Loader) decode(ctx context.Context, docs []archive.Document) ([]*etree.Document, error) {
	workers := l.cfg.Loader.Workers
	if workers < 1 {
		workers = 1
	}
	semaphore := make(chan struct{}, workers)
	trees := make([]*etree.Document, len(docs))
	errs := make([]error, len(docs))

	var wg sync.WaitGroup
	for i := range docs {
		select {
		case semaphore <- struct{}{}:
		case <-ctx.Done():
			wg.Wait()
			return nil, ctx.Err()
		}
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			defer func() { <-semaphore }()

			tree := etree.NewDocument()
			if err := tree.ReadFromBytes(docs[i].Data); err != nil {
				errs[i] = arerrors.NewModelError(arerrors.StructuralViolation,
					"malformed XML in "+docs[i].Name, err)
				return
			}
			trees[i] = tree
			l.logger.Debug("Decoded document", "name", docs[i].Name, "bytes", len(docs[i].Data))
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return trees, nil
}

// sessionVersion detects the generation of every tree and requires them to
// agree with each other and with a configured pin.
func (l *Loader) sessionVersion(docs []archive.Document, trees []*etree.Document) (workspace.Version, error) {
	var version workspace.Version
	if pin := l.cfg.Autosar.Version; pin != "" && pin != "auto" {
		n, err := strconv.Atoi(pin)
		if err != nil || !workspace.Version(n).Valid() {
			return 0, arerrors.NewModelError(arerrors.UnsupportedConstruct,
				"unsupported AUTOSAR version "+pin, nil)
		}
		version = workspace.Version(n)
	}

	for i, tree := range trees {
		v, err := parser.DetectVersion(tree)
		if err != nil {
			return 0, fmt.Errorf("%s: %w", docs[i].Name, err)
		}
		if version == 0 {
			version = v
			continue
		}
		if v != version {
			return 0, arerrors.NewModelError(arerrors.UnsupportedConstruct,
				fmt.Sprintf("%s is %s but the session is %s", docs[i].Name, v, version), nil)
		}
	}
	return version, nil
}
