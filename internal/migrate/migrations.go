// Package migrate brings the content store schema up to date from the SQL
// files embedded under sql/.
package migrate

import (
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"
)

//go:embed sql/*.sql
var schemaFS embed.FS

// Migrate applies every embedded sql/NNNN_*.sql newer than the store's
// recorded version, in one transaction. File names carry the version;
// sorting them lexically is sorting them numerically as long as the
// prefixes stay zero-padded.
func Migrate(db *sql.DB) error {
	names, err := fs.Glob(schemaFS, "sql/*.sql")
	if err != nil {
		return err
	}
	sort.Strings(names)

	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	current, err := currentVersion(tx)
	if err != nil {
		return err
	}
	for _, name := range names {
		var version int
		if _, err := fmt.Sscanf(path.Base(name), "%d_", &version); err != nil {
			return fmt.Errorf("bad migration name %s: %w", name, err)
		}
		if version <= current {
			continue
		}
		stmt, err := schemaFS.ReadFile(name)
		if err != nil {
			return err
		}
		if _, err := tx.Exec(string(stmt)); err != nil {
			return fmt.Errorf("apply %s: %w", name, err)
		}
		if _, err := tx.Exec(`UPDATE schema_version SET version=?`, version); err != nil {
			return fmt.Errorf("record %s: %w", name, err)
		}
		current = version
	}
	return tx.Commit()
}

func currentVersion(tx *sql.Tx) (int, error) {
	if _, err := tx.Exec(`CREATE TABLE IF NOT EXISTS schema_version(version INTEGER NOT NULL)`); err != nil {
		return 0, fmt.Errorf("create schema_version: %w", err)
	}
	var v int
	err := tx.QueryRow(`SELECT version FROM schema_version LIMIT 1`).Scan(&v)
	if err == sql.ErrNoRows {
		_, err = tx.Exec(`INSERT INTO schema_version(version) VALUES (0)`)
		return 0, err
	}
	if err != nil {
		return 0, fmt.Errorf("read schema_version: %w", err)
	}
	return v, nil
}
