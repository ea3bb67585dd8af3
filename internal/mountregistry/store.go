package mountregistry

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schemaSQL string

const schemaVersion = 1

// ErrSchemaMismatch indicates the database schema version doesn't match the
// version this build expects.
var ErrSchemaMismatch = errors.New("mount registry schema version mismatch")

// Store manages mount-table persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the mount registry database at path and
// applies the schema if it is new.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: path}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) initSchema(ctx context.Context) error {
	var tableExists int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	).Scan(&tableExists)
	if err != nil {
		return fmt.Errorf("check schema_version table: %w", err)
	}
	if tableExists == 0 {
		return s.createSchema(ctx)
	}

	var version int
	if err := s.db.QueryRowContext(ctx, "SELECT version FROM schema_version LIMIT 1").Scan(&version); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if version != schemaVersion {
		return fmt.Errorf("%w: database has version %d, expected %d", ErrSchemaMismatch, version, schemaVersion)
	}
	return nil
}

func (s *Store) createSchema(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "INSERT INTO schema_version (version) VALUES (?)", schemaVersion); err != nil {
		return fmt.Errorf("record schema version: %w", err)
	}
	return tx.Commit()
}

// Insert persists a newly created mount.
func (s *Store) Insert(ctx context.Context, m Mount) error {
	if m.ID == "" {
		return errors.New("mount id is required")
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO mounts (id, source_path, variant, mount_root, render_config, created_at)
         VALUES (?, ?, ?, ?, ?, ?)`,
		m.ID, m.SourcePath, string(m.Variant), m.MountRoot, m.RenderConfigJS, m.CreatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("insert mount: %w", err)
	}
	return nil
}

// Get fetches a mount by id. Returns (nil, nil) when not found.
func (s *Store) Get(ctx context.Context, id string) (*Mount, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, source_path, variant, mount_root, render_config, created_at FROM mounts WHERE id = ?`, id)
	m, err := scanMount(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get mount: %w", err)
	}
	return m, nil
}

// List returns every persisted mount, ordered by creation time.
func (s *Store) List(ctx context.Context) ([]*Mount, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, source_path, variant, mount_root, render_config, created_at FROM mounts ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("list mounts: %w", err)
	}
	defer rows.Close()

	var mounts []*Mount
	for rows.Next() {
		m, err := scanMount(rows)
		if err != nil {
			return nil, err
		}
		mounts = append(mounts, m)
	}
	return mounts, rows.Err()
}

// Remove deletes a mount by id. Reports whether a row was actually removed.
func (s *Store) Remove(ctx context.Context, id string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM mounts WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("delete mount: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected > 0, nil
}

func scanMount(scanner interface{ Scan(dest ...any) error }) (*Mount, error) {
	var (
		id, sourcePath, variant, mountRoot string
		renderConfig                       sql.NullString
		createdRaw                         string
	)
	if err := scanner.Scan(&id, &sourcePath, &variant, &mountRoot, &renderConfig, &createdRaw); err != nil {
		return nil, err
	}
	createdAt, err := time.Parse(time.RFC3339Nano, createdRaw)
	if err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	return &Mount{
		ID:             id,
		SourcePath:     sourcePath,
		Variant:        Variant(variant),
		MountRoot:      mountRoot,
		RenderConfigJS: renderConfig.String,
		CreatedAt:      createdAt,
	}, nil
}
