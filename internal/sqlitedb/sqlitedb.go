// Package sqlitedb opens the shared SQLite store used by the catalog and
// checkout repositories.
package sqlitedb

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite" // pure Go driver
)

func Open(path string) (*sql.DB, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=foreign_keys(ON)&_pragma=busy_timeout(5000)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	return db, nil
}
