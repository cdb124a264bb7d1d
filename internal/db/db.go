package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

const defaultDBName = "contentapi.db"

type Config struct {
	Path string
}

// DefaultPath returns the db path inside a workspace directory.
func DefaultPath(workspace string) string {
	if workspace == "" {
		workspace = "."
	}
	return filepath.Join(workspace, defaultDBName)
}

// Open opens the SQLite database with foreign keys on, creating parent
// directories if needed.
func Open(cfg Config) (*sql.DB, error) {
	path := cfg.Path
	if path == "" {
		path = DefaultPath(".")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	dsn := fmt.Sprintf("file:%s?cache=shared&_pragma=foreign_keys(1)", path)
	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	return conn, nil
}
