// Package sqliteutil opens sqlite databases and applies embedded schemas.
package sqliteutil

import (
	"database/sql"
	"strings"

	_ "modernc.org/sqlite"
)

// OpenDB opens (or creates) the sqlite database at path and executes the
// given schema. Re-applying a schema to an existing database is not an
// error. Use ":memory:" for a throwaway database in tests.
func OpenDB(schema, path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	_, err = db.Exec(schema)
	if err != nil && !strings.Contains(err.Error(), "already exists") {
		db.Close()
		return nil, err
	}
	return db, nil
}
