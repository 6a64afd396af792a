// Package workspace is the path-addressed registry of one load session.
//
// A Workspace holds a non-owning index from absolute path to model entity.
// Parsers register entities as they build them so later subtrees can resolve
// references; after loading the workspace is frozen and may be read
// concurrently.
package workspace

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	arerrors "autosar/internal/errors"
	"autosar/internal/model"
	"autosar/internal/ref"
)

// Version is the AUTOSAR schema generation of a session.
type Version int

const (
	V3 Version = 3
	V4 Version = 4
)

func (v Version) String() string {
	return fmt.Sprintf("AUTOSAR %d", int(v))
}

// Valid reports whether v is a supported generation.
func (v Version) Valid() bool {
	return v == V3 || v == V4
}

// ErrFrozen matches registration attempts on a frozen workspace.
var ErrFrozen = arerrors.Structural("workspace is frozen")

// Workspace maps absolute paths to entities.
type Workspace struct {
	mu        sync.RWMutex
	id        uuid.UUID
	version   Version
	entities  map[ref.Path]model.Entity
	order     []ref.Path
	packages  []*model.Package
	behaviors map[ref.Path]*model.InternalBehavior
	frozen    bool
	logger    *slog.Logger
}

// Option configures a Workspace
type Option func(*Workspace)

// WithLogger sets the logger used for session diagnostics
func WithLogger(logger *slog.Logger) Option {
	return func(w *Workspace) {
		if logger != nil {
			w.logger = logger
		}
	}
}

// WithSessionID overrides the generated session ID
func WithSessionID(id uuid.UUID) Option {
	return func(w *Workspace) {
		w.id = id
	}
}

// New creates an empty workspace for one load session.
func New(version Version, opts ...Option) *Workspace {
	w := &Workspace{
		id:        uuid.New(),
		version:   version,
		entities:  make(map[ref.Path]model.Entity),
		behaviors: make(map[ref.Path]*model.InternalBehavior),
		logger:    slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// ID returns the session ID.
func (w *Workspace) ID() uuid.UUID { return w.id }

// Version returns the AUTOSAR generation fixed for the session.
func (w *Workspace) Version() Version { return w.version }

// NewStaging returns an empty workspace of the same version for a parallel
// loader. Its contents are published with Merge.
func (w *Workspace) NewStaging() *Workspace {
	return New(w.version, WithSessionID(w.id), WithLogger(w.logger))
}

// Register indexes e under its absolute path. Duplicate paths and a second
// internal behavior for the same component are structural violations.
func (w *Workspace) Register(e model.Entity) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.frozen {
		return arerrors.Structural("workspace is frozen").AtPath(string(e.Path()))
	}
	if err := w.checkLocked(e); err != nil {
		return err
	}
	w.insertLocked(e)
	return nil
}

func (w *Workspace) checkLocked(e model.Entity) error {
	p := e.Path()
	if err := ref.RequireAbsolute(p); err != nil {
		return err
	}
	if _, ok := w.entities[p]; ok {
		return arerrors.Structural("duplicate path %s", p).AtPath(string(p))
	}
	if b, ok := e.(*model.InternalBehavior); ok {
		if prev, ok := w.behaviors[b.ComponentRef]; ok {
			return arerrors.Structural("component %s already has internal behavior %s", b.ComponentRef, prev.Path()).
				AtPath(string(p)).WithRef(string(b.ComponentRef))
		}
	}
	return nil
}

func (w *Workspace) insertLocked(e model.Entity) {
	p := e.Path()
	w.entities[p] = e
	w.order = append(w.order, p)
	if b, ok := e.(*model.InternalBehavior); ok {
		w.behaviors[b.ComponentRef] = b
	}
}

// AddPackage registers a root package and records it in document order.
func (w *Workspace) AddPackage(pkg *model.Package) error {
	if err := w.Register(pkg); err != nil {
		return err
	}
	w.mu.Lock()
	w.packages = append(w.packages, pkg)
	w.mu.Unlock()
	return nil
}

// Packages returns the root packages in document order.
func (w *Workspace) Packages() []*model.Package {
	w.mu.RLock()
	defer w.mu.RUnlock()
	out := make([]*model.Package, len(w.packages))
	copy(out, w.packages)
	return out
}

// Find looks up p. Absence is not an error.
func (w *Workspace) Find(p ref.Path) (model.Entity, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	e, ok := w.entities[p]
	return e, ok
}

// Resolve looks up p and reports absence as an unresolved reference.
func (w *Workspace) Resolve(p ref.Path) (model.Entity, error) {
	if err := ref.RequireAbsolute(p); err != nil {
		return nil, err
	}
	e, ok := w.Find(p)
	if !ok {
		return nil, arerrors.Unresolved("reference", string(p))
	}
	return e, nil
}

// ResolveAs resolves p and requires the entity to be of type T.
func ResolveAs[T model.Entity](w *Workspace, p ref.Path) (T, error) {
	var zero T
	e, err := w.Resolve(p)
	if err != nil {
		return zero, err
	}
	t, ok := e.(T)
	if !ok {
		return zero, arerrors.TypeMismatch("reference has unexpected type", fmt.Sprintf("%T", zero), string(e.Kind())).WithRef(string(p))
	}
	return t, nil
}

// BehaviorOf returns the internal behavior registered for a component.
func (w *Workspace) BehaviorOf(component ref.Path) (*model.InternalBehavior, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	b, ok := w.behaviors[component]
	return b, ok
}

// Merge publishes a staging workspace. Either every entity of staging is
// registered or, on the first conflict, none is.
func (w *Workspace) Merge(staging *Workspace) error {
	staging.mu.RLock()
	defer staging.mu.RUnlock()
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.frozen {
		return arerrors.Structural("workspace is frozen")
	}
	if staging.version != w.version {
		return arerrors.NewModelError(arerrors.UnsupportedConstruct,
			fmt.Sprintf("cannot merge %s staging into %s workspace", staging.version, w.version), nil)
	}

	seenBehavior := make(map[ref.Path]bool)
	for _, p := range staging.order {
		e := staging.entities[p]
		if err := w.checkLocked(e); err != nil {
			return err
		}
		if b, ok := e.(*model.InternalBehavior); ok {
			seenBehavior[b.ComponentRef] = true
		}
	}
	for _, p := range staging.order {
		w.insertLocked(staging.entities[p])
	}
	w.packages = append(w.packages, staging.packages...)

	w.logger.Debug("Merged staging workspace",
		"session", w.id.String(),
		"entities", len(staging.order),
		"behaviors", len(seenBehavior),
	)
	return nil
}

// Freeze makes the workspace read-only.
func (w *Workspace) Freeze() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.frozen = true
	w.logger.Debug("Workspace frozen", "session", w.id.String(), "entities", len(w.order))
}

// Frozen reports whether Freeze has been called.
func (w *Workspace) Frozen() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.frozen
}

// Len returns the number of registered entities.
func (w *Workspace) Len() int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return len(w.order)
}

// Walk visits entities in registration order and stops at the first error.
func (w *Workspace) Walk(fn func(model.Entity) error) error {
	w.mu.RLock()
	order := make([]ref.Path, len(w.order))
	copy(order, w.order)
	w.mu.RUnlock()

	for _, p := range order {
		e, _ := w.Find(p)
		if err := fn(e); err != nil {
			return err
		}
	}
	return nil
}

var _ model.Finder = (*Workspace)(nil)
