// Package db manages the shared SQLite database (SQLCipher driver).
package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	sqlite3 "github.com/mutecomm/go-sqlcipher/v4"
)

const (
	// DatabaseName is the filename for the application database.
	DatabaseName = "notes.db"

	// MaxOpenConns caps connections to the database. SQLite is
	// single-writer, so high connection counts are counterproductive.
	MaxOpenConns = 10

	// MaxIdleConns is the maximum number of idle connections.
	MaxIdleConns = 2
)

// DB wraps the sql.DB connection to the shared application database.
type DB struct {
	db *sql.DB
}

// Open opens (creating if needed) the application database under dataDir.
// keyHex, when non-empty, must be 64 hex characters and enables SQLCipher
// at-rest encryption.
func Open(ctx context.Context, dataDir, keyHex string) (*DB, error) {
	if err := os.MkdirAll(dataDir, 0o700); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}

	path := filepath.Join(dataDir, DatabaseName)
	sqlDB, err := sql.Open("sqlite3", buildDSN(path, keyHex))
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	sqlDB.SetMaxOpenConns(MaxOpenConns)
	sqlDB.SetMaxIdleConns(MaxIdleConns)

	d := &DB{db: sqlDB}
	if err := d.init(ctx); err != nil {
		sqlDB.Close()
		return nil, err
	}
	return d, nil
}

// OpenDSN opens a database from a raw DSN and applies the schema.
// Used by tests to open in-memory databases.
func OpenDSN(ctx context.Context, dsn string) (*DB, error) {
	sqlDB, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// Shared-cache in-memory databases disappear when the last connection
	// closes; a single persistent connection keeps them alive and also
	// serializes writers the way a single database file would.
	sqlDB.SetMaxOpenConns(1)

	d := &DB{db: sqlDB}
	if err := d.init(ctx); err != nil {
		sqlDB.Close()
		return nil, err
	}
	return d, nil
}

func buildDSN(path, keyHex string) string {
	params := url.Values{}
	params.Set("_busy_timeout", "5000")
	params.Set("_journal_mode", "WAL")
	params.Set("_foreign_keys", "on")
	dsn := path + "?" + params.Encode()
	if keyHex != "" {
		dsn += fmt.Sprintf("&_pragma_key=x'%s'&_pragma_cipher_page_size=4096", keyHex)
	}
	return dsn
}

func (d *DB) init(ctx context.Context) error {
	if err := d.db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping database: %w", err)
	}
	if _, err := d.db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

// SQL returns the underlying sql.DB.
func (d *DB) SQL() *sql.DB {
	return d.db
}

// Close closes the database connection.
func (d *DB) Close() error {
	return d.db.Close()
}

// IsUniqueViolation reports whether err is a SQLite unique-constraint
// violation. When column is non-empty the violation must mention that
// column (SQLite reports constraints as "table.column").
func IsUniqueViolation(err error, column string) bool {
	var sqliteErr sqlite3.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	if sqliteErr.ExtendedCode != sqlite3.ErrConstraintUnique &&
		sqliteErr.ExtendedCode != sqlite3.ErrConstraintPrimaryKey {
		return false
	}
	if column == "" {
		return true
	}
	return strings.Contains(sqliteErr.Error(), column)
}
