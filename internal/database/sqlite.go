package database

import (
	"database/sql"
	"log"

	_ "modernc.org/sqlite"
)

var SQLiteDB *sql.DB

// OpenSQLite opens an embedded SQLite database file (or a file: URI).
func OpenSQLite(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// One writer at a time; SQLite serialises writes anyway.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec("PRAGMA foreign_keys = ON;"); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// ConnectSQLite opens the process-wide SQLite handle.
func ConnectSQLite(path string) error {
	db, err := OpenSQLite(path)
	if err != nil {
		return err
	}
	SQLiteDB = db
	log.Printf("✅ Opened SQLite database %s", path)
	return nil
}
