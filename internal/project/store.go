package project

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	_ "modernc.org/sqlite"

	"github.com/goboss33/StoryGenAI-sub001/internal/config"
	"github.com/goboss33/StoryGenAI-sub001/internal/textutil"
)

// ErrLocked indicates another process already holds the data directory.
var ErrLocked = errors.New("project database is locked by another process")

// Store manages project persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
	lock *flock.Flock
}

// Open initializes or connects to the project database. It takes an
// exclusive file lock next to the database so only one writer touches a
// data directory at a time.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}

	lock := flock.New(filepath.Join(cfg.Paths.DataDir, "storygen.lock"))
	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire data dir lock: %w", err)
	}
	if !locked {
		return nil, ErrLocked
	}

	dbPath := filepath.Join(cfg.Paths.DataDir, "storygen.db")
	// Pragmas go through the DSN so every pooled connection carries them.
	dsn := dbPath + "?_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		_ = lock.Unlock()
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	store := &Store{db: db, path: dbPath, lock: lock}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		_ = lock.Unlock()
		return nil, err
	}

	return store, nil
}

// Close closes the database connection and releases the data directory lock.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	err := s.db.Close()
	if s.lock != nil {
		if unlockErr := s.lock.Unlock(); err == nil {
			err = unlockErr
		}
	}
	return err
}

// Path returns the filesystem path of the database.
func (s *Store) Path() string {
	return s.path
}

// Create inserts a new draft project. The slug is derived from the name and
// must be unique.
func (s *Store) Create(ctx context.Context, name string) (*Project, error) {
	now := time.Now().UTC()
	timestamp := now.Format(time.RFC3339Nano)

	res, err := s.db.ExecContext(
		ctx,
		`INSERT INTO projects (name, slug, status, created_at, updated_at)
         VALUES (?, ?, ?, ?, ?)`,
		name,
		textutil.Slug(name),
		StatusDraft,
		timestamp,
		timestamp,
	)
	if err != nil {
		return nil, fmt.Errorf("insert project: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}

	return s.GetByID(ctx, id)
}

// GetByID fetches a project by identifier. Missing projects return nil, nil.
func (s *Store) GetByID(ctx context.Context, id int64) (*Project, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+projectColumns+` FROM projects WHERE id = ?`, id)
	p, err := scanProject(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get project: %w", err)
	}
	return p, nil
}

// GetBySlug fetches a project by slug. Missing projects return nil, nil.
func (s *Store) GetBySlug(ctx context.Context, slug string) (*Project, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+projectColumns+` FROM projects WHERE slug = ?`, slug)
	p, err := scanProject(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get project by slug: %w", err)
	}
	return p, nil
}

// List returns projects ordered by creation time, optionally filtered by
// status. Archived projects only appear when asked for explicitly.
func (s *Store) List(ctx context.Context, statuses ...Status) ([]*Project, error) {
	query := `SELECT ` + projectColumns + ` FROM projects`
	args := make([]any, 0, len(statuses))
	if len(statuses) > 0 {
		query += ` WHERE status IN (` + makePlaceholders(len(statuses)) + `)`
		for _, status := range statuses {
			args = append(args, status)
		}
	} else {
		query += ` WHERE status != ?`
		args = append(args, StatusArchived)
	}
	query += ` ORDER BY id`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()

	var projects []*Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, fmt.Errorf("scan project: %w", err)
		}
		projects = append(projects, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate projects: %w", err)
	}
	return projects, nil
}

// Update persists changes to an existing project.
func (s *Store) Update(ctx context.Context, p *Project) error {
	if p == nil {
		return errors.New("project is nil")
	}
	if _, ok := statusSet[p.Status]; !ok {
		return fmt.Errorf("unknown status %q", p.Status)
	}
	p.UpdatedAt = time.Now().UTC()
	res, err := s.db.ExecContext(
		ctx,
		`UPDATE projects
         SET name = ?, slug = ?, status = ?, document_json = ?,
             revision_state = ?, questions_json = ?, error_message = ?, updated_at = ?
         WHERE id = ?`,
		p.Name,
		p.Slug,
		p.Status,
		nullableString(p.DocumentJSON),
		nullableString(p.RevisionState),
		nullableString(p.QuestionsJSON),
		nullableString(p.ErrorMessage),
		p.UpdatedAt.Format(time.RFC3339Nano),
		p.ID,
	)
	if err != nil {
		return fmt.Errorf("update project: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("project %d not found", p.ID)
	}
	return nil
}

// TransitionStatus moves a project into the target status only while it is
// in one of the given source statuses, in a single guarded update. It
// reports whether the transition happened; false means another caller won
// the race or the project is not in a source status.
func (s *Store) TransitionStatus(ctx context.Context, id int64, to Status, from ...Status) (bool, error) {
	if _, ok := statusSet[to]; !ok {
		return false, fmt.Errorf("unknown status %q", to)
	}
	if len(from) == 0 {
		return false, errors.New("no source statuses")
	}

	args := []any{to, time.Now().UTC().Format(time.RFC3339Nano), id}
	for _, status := range from {
		args = append(args, status)
	}
	res, err := s.db.ExecContext(
		ctx,
		`UPDATE projects SET status = ?, updated_at = ?
         WHERE id = ? AND status IN (`+makePlaceholders(len(from))+`)`,
		args...,
	)
	if err != nil {
		return false, fmt.Errorf("transition status: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected > 0, nil
}

// TransitionRevisionState moves a project's revision state from an expected
// value to a new one in a single guarded update, so concurrent regeneration
// triggers cannot both claim the same change.
func (s *Store) TransitionRevisionState(ctx context.Context, id int64, to, from string) (bool, error) {
	res, err := s.db.ExecContext(
		ctx,
		`UPDATE projects SET revision_state = ?, updated_at = ?
         WHERE id = ? AND IFNULL(revision_state, '') = ?`,
		nullableString(to),
		time.Now().UTC().Format(time.RFC3339Nano),
		id,
		from,
	)
	if err != nil {
		return false, fmt.Errorf("transition revision state: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected > 0, nil
}

// Delete removes a project and its asset request history.
func (s *Store) Delete(ctx context.Context, id int64) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM projects WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete project: %w", err)
	}
	return nil
}

// HealthSummary describes aggregated project counts per lifecycle state.
type HealthSummary struct {
	Total      int
	Draft      int
	Generating int
	Ready      int
	Stale      int
	Failed     int
}

// Summary aggregates project counts for status displays.
func (s *Store) Summary(ctx context.Context) (HealthSummary, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT status, COUNT(1) FROM projects GROUP BY status`)
	if err != nil {
		return HealthSummary{}, fmt.Errorf("summarize projects: %w", err)
	}
	defer rows.Close()

	var summary HealthSummary
	for rows.Next() {
		var status Status
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return HealthSummary{}, fmt.Errorf("scan summary row: %w", err)
		}
		summary.Total += count
		switch status {
		case StatusDraft:
			summary.Draft = count
		case StatusGenerating:
			summary.Generating = count
		case StatusReady:
			summary.Ready = count
		case StatusStale:
			summary.Stale = count
		case StatusFailed:
			summary.Failed = count
		}
	}
	if err := rows.Err(); err != nil {
		return HealthSummary{}, fmt.Errorf("iterate summary: %w", err)
	}
	return summary, nil
}
