// Package geometrystore keeps named geometries in a SQLite catalog. Each row
// holds the YAML document written by geometryio.
package geometrystore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // pure go sqlite driver

	"github.com/MITK/MITK-sub033/pkg/geometry"
	"github.com/MITK/MITK-sub033/pkg/geometryio"
)

// ErrNotFound is returned for names that are not in the catalog.
var ErrNotFound = errors.New("geometry not found")

// Entry describes one catalog row without decoding its geometry
type Entry struct {
	Name     string
	Kind     geometryio.Kind
	Modified time.Time
}

// Store is a SQLite backed catalog of geometries
type Store struct {
	db   *sql.DB
	path string
}

// Open opens or creates the catalog at path.
func Open(path string) (*Store, error) {
	if path == "" {
		path = "geometries.db"
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil && !errors.Is(err, os.ErrExist) {
		return nil, fmt.Errorf("create dirs: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS geometries (
		name TEXT PRIMARY KEY,
		kind TEXT NOT NULL,
		modified INTEGER NOT NULL,
		document BLOB NOT NULL
	)`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create geometries table: %w", err)
	}
	return &Store{db: db, path: path}, nil
}

// Close releases the database handle.
func (s *Store) Close() error { return s.db.Close() }

// Path returns the database path.
func (s *Store) Path() string { return s.path }

// Put stores g under name, replacing an existing entry.
func (s *Store) Put(ctx context.Context, name string, g geometry.Geometry) error {
	if name == "" {
		return errors.New("empty geometry name")
	}
	doc, err := geometryio.ToDocument(g)
	if err != nil {
		return err
	}
	data, err := geometryio.MarshalDocument(doc)
	if err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO geometries(name,kind,modified,document) VALUES(?,?,?,?)
		ON CONFLICT(name) DO UPDATE SET kind=excluded.kind, modified=excluded.modified, document=excluded.document`,
		name, string(doc.Kind), time.Now().UnixNano(), data); err != nil {
		return fmt.Errorf("upsert %s: %w", name, err)
	}
	return nil
}

// Get loads the geometry stored under name.
func (s *Store) Get(ctx context.Context, name string) (geometry.Geometry, error) {
	var data []byte
	err := s.db.QueryRowContext(ctx, `SELECT document FROM geometries WHERE name = ?`, name).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", name, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("select %s: %w", name, err)
	}
	g, err := geometryio.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", name, err)
	}
	return g, nil
}

// List returns all entries ordered by name.
func (s *Store) List(ctx context.Context) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name, kind, modified FROM geometries ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("select geometries: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var kind string
		var modified int64
		if err := rows.Scan(&e.Name, &kind, &modified); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		e.Kind = geometryio.Kind(kind)
		e.Modified = time.Unix(0, modified)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate geometries: %w", err)
	}
	return entries, nil
}

// Delete removes the entry name.
func (s *Store) Delete(ctx context.Context, name string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM geometries WHERE name = ?`, name)
	if err != nil {
		return fmt.Errorf("delete %s: %w", name, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete %s: %w", name, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", name, ErrNotFound)
	}
	return nil
}
