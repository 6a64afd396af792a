package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"time"
	"unicode"

	"autosar/internal/archive"
	arerrors "autosar/internal/errors"
	"autosar/internal/loader"
	"autosar/internal/model"
	"autosar/internal/ref"
)

// Session is a stored load session
type Session struct {
	ID          string
	Autosar     int
	CreatedAt   time.Time
	EntityCount int
	Duration    time.Duration
}

// Document is a source document of a stored session
type Document struct {
	Name     string
	Encoding archive.Encoding
	Digest   string
	Size     int
}

// Entity is the stored snapshot of one model entity
type Entity struct {
	Path       string
	Kind       model.Kind
	Name       string
	Parent     string
	Ordinal    int
	Projection model.Projection
}

// SearchResult is one name search hit
type SearchResult struct {
	Path      string
	Kind      model.Kind
	Name      string
	MatchType string // "prefix" | "substring"
}

// SnapshotRepository stores and queries load sessions
type SnapshotRepository struct {
	db  *DB
	now func() time.Time
}

// NewSnapshotRepository creates a new snapshot repository
func NewSnapshotRepository(db *DB) *SnapshotRepository {
	return &SnapshotRepository{db: db, now: time.Now}
}

// Save writes the frozen workspace of res with its documents. Packages are
// stored without their elements; every element has its own row.
func (r *SnapshotRepository) Save(ctx context.Context, res *loader.Result) (*Session, error) {
	ws := res.Workspace
	if !ws.Frozen() {
		return nil, arerrors.Invalid("workspace %s is not frozen", ws.ID())
	}

	session := &Session{
		ID:          ws.ID().String(),
		Autosar:     int(ws.Version()),
		CreatedAt:   r.now().UTC(),
		EntityCount: ws.Len(),
		Duration:    res.Duration,
	}

	err := r.db.WithTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO sessions (id, autosar, created_at, entity_count, duration_ms)
			VALUES (?, ?, ?, ?, ?)
		`, session.ID, session.Autosar, session.CreatedAt.Format(time.RFC3339Nano),
			session.EntityCount, session.Duration.Milliseconds())
		if err != nil {
			return fmt.Errorf("failed to insert session: %w", err)
		}

		for i, d := range res.Documents {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO documents (session_id, ordinal, name, encoding, digest, size)
				VALUES (?, ?, ?, ?, ?, ?)
			`, session.ID, i, d.Name, string(d.Encoding), d.Digest, d.Size)
			if err != nil {
				return fmt.Errorf("failed to insert document %s: %w", d.Name, err)
			}
		}

		entityStmt, err := tx.PrepareContext(ctx, `
			INSERT INTO entities (session_id, path, kind, name, parent, ordinal, projection_json)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`)
		if err != nil {
			return fmt.Errorf("failed to prepare entity insert: %w", err)
		}
		defer entityStmt.Close()

		ftsStmt, err := tx.PrepareContext(ctx, `
			INSERT INTO entities_fts (name, session_id, path, kind) VALUES (?, ?, ?, ?)
		`)
		if err != nil {
			return fmt.Errorf("failed to prepare fts insert: %w", err)
		}
		defer ftsStmt.Close()

		ordinal := 0
		return ws.Walk(func(e model.Entity) error {
			if err := ctx.Err(); err != nil {
				return err
			}
			data, err := json.Marshal(snapshotProjection(e))
			if err != nil {
				return fmt.Errorf("failed to encode %s: %w", e.Path(), err)
			}
			path := string(e.Path())
			if _, err := entityStmt.ExecContext(ctx, session.ID, path, string(e.Kind()), e.Name(),
				string(e.Path().Parent()), ordinal, string(data)); err != nil {
				return fmt.Errorf("failed to insert entity %s: %w", path, err)
			}
			if _, err := ftsStmt.ExecContext(ctx, e.Name(), session.ID, path, string(e.Kind())); err != nil {
				return fmt.Errorf("failed to index entity %s: %w", path, err)
			}
			ordinal++
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	r.db.logger.Info("Session stored",
		"session", session.ID,
		"entities", session.EntityCount,
		"documents", len(res.Documents),
	)
	return session, nil
}

func snapshotProjection(e model.Entity) model.Projection {
	if e.Kind() == model.KindPackage {
		return model.Projection{"type": string(model.KindPackage), "name": e.Name()}
	}
	return e.Project()
}

const sessionColumns = "id, autosar, created_at, entity_count, duration_ms"

func scanSession(row interface{ Scan(...any) error }) (*Session, error) {
	var (
		s          Session
		createdAt  string
		durationMS int64
	)
	if err := row.Scan(&s.ID, &s.Autosar, &createdAt, &s.EntityCount, &durationMS); err != nil {
		return nil, err
	}
	t, err := time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return nil, fmt.Errorf("invalid created_at for session %s: %w", s.ID, err)
	}
	s.CreatedAt = t
	s.Duration = time.Duration(durationMS) * time.Millisecond
	return &s, nil
}

// Session retrieves a session by ID, nil when absent
func (r *SnapshotRepository) Session(ctx context.Context, id string) (*Session, error) {
	s, err := scanSession(r.db.conn.QueryRowContext(ctx,
		"SELECT "+sessionColumns+" FROM sessions WHERE id = ?", id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	return s, nil
}

// LatestSession returns the most recently stored session, nil when empty
func (r *SnapshotRepository) LatestSession(ctx context.Context) (*Session, error) {
	s, err := scanSession(r.db.conn.QueryRowContext(ctx,
		"SELECT "+sessionColumns+" FROM sessions ORDER BY created_at DESC, rowid DESC LIMIT 1"))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest session: %w", err)
	}
	return s, nil
}

// Sessions lists stored sessions, newest first
func (r *SnapshotRepository) Sessions(ctx context.Context) ([]*Session, error) {
	rows, err := r.db.conn.QueryContext(ctx,
		"SELECT "+sessionColumns+" FROM sessions ORDER BY created_at DESC, rowid DESC")
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer rows.Close()

	var sessions []*Session
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, s)
	}
	return sessions, rows.Err()
}

// Documents lists the source documents of a session in load order
func (r *SnapshotRepository) Documents(ctx context.Context, sessionID string) ([]Document, error) {
	rows, err := r.db.conn.QueryContext(ctx, `
		SELECT name, encoding, digest, size FROM documents
		WHERE session_id = ?
		ORDER BY ordinal
	`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	defer rows.Close()

	var docs []Document
	for rows.Next() {
		var (
			d   Document
			enc string
		)
		if err := rows.Scan(&d.Name, &enc, &d.Digest, &d.Size); err != nil {
			return nil, err
		}
		d.Encoding = archive.Encoding(enc)
		docs = append(docs, d)
	}
	return docs, rows.Err()
}

// FindByDigests returns the newest session loaded from exactly the given
// document contents, in any order. It returns nil when no session matches.
func (r *SnapshotRepository) FindByDigests(ctx context.Context, digests []string) (*Session, error) {
	want := slices.Clone(digests)
	slices.Sort(want)

	sessions, err := r.Sessions(ctx)
	if err != nil {
		return nil, err
	}
	for _, s := range sessions {
		docs, err := r.Documents(ctx, s.ID)
		if err != nil {
			return nil, err
		}
		got := make([]string, len(docs))
		for i, d := range docs {
			got[i] = d.Digest
		}
		slices.Sort(got)
		if slices.Equal(got, want) {
			return s, nil
		}
	}
	return nil, nil
}

const entityColumns = "path, kind, name, parent, ordinal, projection_json"

func scanEntity(row interface{ Scan(...any) error }) (*Entity, error) {
	var (
		e    Entity
		kind string
		data string
	)
	if err := row.Scan(&e.Path, &kind, &e.Name, &e.Parent, &e.Ordinal, &data); err != nil {
		return nil, err
	}
	e.Kind = model.Kind(kind)
	if err := json.Unmarshal([]byte(data), &e.Projection); err != nil {
		return nil, fmt.Errorf("invalid projection for %s: %w", e.Path, err)
	}
	return &e, nil
}

// Entity retrieves one entity of a session by absolute path, nil when absent
func (r *SnapshotRepository) Entity(ctx context.Context, sessionID string, path ref.Path) (*Entity, error) {
	if err := ref.RequireAbsolute(path); err != nil {
		return nil, err
	}
	e, err := scanEntity(r.db.conn.QueryRowContext(ctx,
		"SELECT "+entityColumns+" FROM entities WHERE session_id = ? AND path = ?",
		sessionID, string(path)))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get entity: %w", err)
	}
	return e, nil
}

// EntitiesByKind lists the entities of one kind in registration order
func (r *SnapshotRepository) EntitiesByKind(ctx context.Context, sessionID string, kind model.Kind) ([]*Entity, error) {
	return r.queryEntities(ctx,
		"SELECT "+entityColumns+" FROM entities WHERE session_id = ? AND kind = ? ORDER BY ordinal",
		sessionID, string(kind))
}

// Children lists the entities directly owned by parent
func (r *SnapshotRepository) Children(ctx context.Context, sessionID string, parent ref.Path) ([]*Entity, error) {
	return r.queryEntities(ctx,
		"SELECT "+entityColumns+" FROM entities WHERE session_id = ? AND parent = ? ORDER BY ordinal",
		sessionID, string(parent))
}

func (r *SnapshotRepository) queryEntities(ctx context.Context, query string, args ...any) ([]*Entity, error) {
	rows, err := r.db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query entities: %w", err)
	}
	defer rows.Close()

	var entities []*Entity
	for rows.Next() {
		e, err := scanEntity(rows)
		if err != nil {
			return nil, err
		}
		entities = append(entities, e)
	}
	return entities, rows.Err()
}

// parentOwner lets stored projections be rebuilt under their stored parent
type parentOwner ref.Path

func (p parentOwner) Path() ref.Path { return ref.Path(p) }

// Component rebuilds a stored component or composition type
func (r *SnapshotRepository) Component(ctx context.Context, sessionID string, path ref.Path) (model.PortOwner, error) {
	e, err := r.Entity(ctx, sessionID, path)
	if err != nil {
		return nil, err
	}
	if e == nil {
		return nil, arerrors.Unresolved("component", string(path))
	}
	return model.ComponentFromProjection(parentOwner(e.Parent), e.Projection)
}

// Search finds entities by short name. Token prefix matches come first,
// then case-insensitive substring matches.
func (r *SnapshotRepository) Search(ctx context.Context, sessionID, query string, limit int) ([]SearchResult, error) {
	if limit <= 0 {
		limit = 20
	}
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}

	results, err := r.searchPrefix(ctx, sessionID, query, limit)
	if err != nil {
		return nil, err
	}
	if len(results) >= limit {
		return results, nil
	}

	seen := make(map[string]bool, len(results))
	for _, res := range results {
		seen[res.Path] = true
	}
	like, err := r.searchLike(ctx, sessionID, query, limit)
	if err != nil {
		return nil, err
	}
	for _, res := range like {
		if len(results) == limit {
			break
		}
		if !seen[res.Path] {
			results = append(results, res)
		}
	}
	return results, nil
}

func (r *SnapshotRepository) searchPrefix(ctx context.Context, sessionID, query string, limit int) ([]SearchResult, error) {
	// a query without token characters cannot match
	if !strings.ContainsFunc(query, func(c rune) bool { return unicode.IsLetter(c) || unicode.IsDigit(c) }) {
		return nil, nil
	}
	ftsQuery := fmt.Sprintf(`"%s" *`, escapeFTS5Query(query))
	rows, err := r.db.conn.QueryContext(ctx, `
		SELECT path, kind, name FROM entities_fts
		WHERE entities_fts MATCH ? AND session_id = ?
		ORDER BY rank
		LIMIT ?
	`, ftsQuery, sessionID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to search: %w", err)
	}
	return scanResults(rows, "prefix")
}

func (r *SnapshotRepository) searchLike(ctx context.Context, sessionID, query string, limit int) ([]SearchResult, error) {
	rows, err := r.db.conn.QueryContext(ctx, `
		SELECT path, kind, name FROM entities
		WHERE session_id = ? AND name LIKE ? ESCAPE '\'
		ORDER BY ordinal
		LIMIT ?
	`, sessionID, "%"+escapeLike(query)+"%", limit*2)
	if err != nil {
		return nil, fmt.Errorf("failed to search: %w", err)
	}
	return scanResults(rows, "substring")
}

func scanResults(rows *sql.Rows, matchType string) ([]SearchResult, error) {
	defer rows.Close()
	var results []SearchResult
	for rows.Next() {
		var (
			res  SearchResult
			kind string
		)
		if err := rows.Scan(&res.Path, &kind, &res.Name); err != nil {
			return nil, err
		}
		res.Kind = model.Kind(kind)
		res.MatchType = matchType
		results = append(results, res)
	}
	return results, rows.Err()
}

// escapeFTS5Query quotes a term for use inside an FTS5 string
func escapeFTS5Query(query string) string {
	return strings.ReplaceAll(query, `"`, `""`)
}

func escapeLike(query string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(query)
}

// DeleteSession removes a session and everything stored for it
func (r *SnapshotRepository) DeleteSession(ctx context.Context, id string) error {
	return r.db.WithTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, "DELETE FROM entities_fts WHERE session_id = ?", id); err != nil {
			return fmt.Errorf("failed to delete search index: %w", err)
		}
		res, err := tx.ExecContext(ctx, "DELETE FROM sessions WHERE id = ?", id)
		if err != nil {
			return fmt.Errorf("failed to delete session: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return arerrors.Unresolved("session", id)
		}
		return nil
	})
}

// Prune keeps the newest keep sessions and deletes the rest. It returns the
// number of deleted sessions.
func (r *SnapshotRepository) Prune(ctx context.Context, keep int) (int, error) {
	if keep < 0 {
		return 0, arerrors.Invalid("keep must not be negative, got %d", keep)
	}
	sessions, err := r.Sessions(ctx)
	if err != nil {
		return 0, err
	}
	if len(sessions) <= keep {
		return 0, nil
	}
	stale := sessions[keep:]
	for _, s := range stale {
		if err := r.DeleteSession(ctx, s.ID); err != nil {
			return 0, err
		}
	}
	r.db.logger.Info("Pruned sessions", "deleted", len(stale), "kept", keep)
	return len(stale), nil
}
