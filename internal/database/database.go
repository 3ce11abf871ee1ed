package database

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// ErrNoUsage is returned when a snippet has never been expanded.
var ErrNoUsage = errors.New("no usage recorded")

// Usage records how often a snippet has been expanded.
type Usage struct {
	Scope    string
	Trigger  string
	Count    int
	LastUsed time.Time
}

// Database defines the interface for snippet usage persistence
type Database interface {
	// GetUsage returns the usage of every snippet of a scope, keyed by trigger
	GetUsage(scope string) (map[string]*Usage, error)

	// GetUsageByTrigger returns the usage of a single snippet
	GetUsageByTrigger(scope, trigger string) (*Usage, error)

	// IncUsageCount increments the usage count for a snippet, creating it if needed
	IncUsageCount(scope, trigger string, at time.Time) error

	// SetUsage overwrites the usage of a snippet
	SetUsage(u *Usage) error

	// ResetUsage forgets the usage of every snippet of a scope
	ResetUsage(scope string) error

	// Close closes the database connection
	Close() error
}

// SQLiteDatabase implements the Database interface using SQLite
type SQLiteDatabase struct {
	db *sql.DB
}

// NewSQLiteDatabase creates a new SQLite database connection
func NewSQLiteDatabase(dbPath string) (*SQLiteDatabase, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}

	sqliteDB := &SQLiteDatabase{db: db}

	// Initialize the database schema
	if err := sqliteDB.initSchema(); err != nil {
		db.Close()
		return nil, err
	}

	return sqliteDB, nil
}

// initSchema creates the usage table if it doesn't exist
func (s *SQLiteDatabase) initSchema() error {
	if _, err := s.db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		return err
	}

	query := `
	CREATE TABLE IF NOT EXISTS snippet_usage (
		scope TEXT NOT NULL,
		snippet TEXT NOT NULL,
		count INTEGER NOT NULL DEFAULT 0,
		last_used INTEGER NOT NULL DEFAULT 0,
		PRIMARY KEY (scope, snippet)
	);`

	_, err := s.db.Exec(query)
	return err
}

// GetUsage returns the usage of every snippet of a scope, keyed by trigger
func (s *SQLiteDatabase) GetUsage(scope string) (map[string]*Usage, error) {
	query := "SELECT scope, snippet, count, last_used FROM snippet_usage WHERE scope = ? ORDER BY snippet"
	rows, err := s.db.Query(query, scope)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	usage := make(map[string]*Usage)
	for rows.Next() {
		u, err := scanUsage(rows)
		if err != nil {
			return nil, err
		}
		usage[u.Trigger] = u
	}

	return usage, rows.Err()
}

// GetUsageByTrigger returns the usage of a single snippet
func (s *SQLiteDatabase) GetUsageByTrigger(scope, trigger string) (*Usage, error) {
	query := "SELECT scope, snippet, count, last_used FROM snippet_usage WHERE scope = ? AND snippet = ?"
	row := s.db.QueryRow(query, scope, trigger)

	u, err := scanUsage(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("%w for snippet %q in scope %q", ErrNoUsage, trigger, scope)
		}
		return nil, err
	}

	return u, nil
}

// IncUsageCount increments the usage count for a snippet, creating it if needed
func (s *SQLiteDatabase) IncUsageCount(scope, trigger string, at time.Time) error {
	query := `
	INSERT INTO snippet_usage (scope, snippet, count, last_used) VALUES (?, ?, 1, ?)
	ON CONFLICT (scope, snippet) DO UPDATE SET count = count + 1, last_used = excluded.last_used`
	_, err := s.db.Exec(query, scope, trigger, at.Unix())
	return err
}

// SetUsage overwrites the usage of a snippet
func (s *SQLiteDatabase) SetUsage(u *Usage) error {
	query := `
	INSERT INTO snippet_usage (scope, snippet, count, last_used) VALUES (?, ?, ?, ?)
	ON CONFLICT (scope, snippet) DO UPDATE SET count = excluded.count, last_used = excluded.last_used`
	var lastUsed int64
	if !u.LastUsed.IsZero() {
		lastUsed = u.LastUsed.Unix()
	}
	_, err := s.db.Exec(query, u.Scope, u.Trigger, u.Count, lastUsed)
	return err
}

// ResetUsage forgets the usage of every snippet of a scope
func (s *SQLiteDatabase) ResetUsage(scope string) error {
	_, err := s.db.Exec("DELETE FROM snippet_usage WHERE scope = ?", scope)
	return err
}

// Close closes the database connection
func (s *SQLiteDatabase) Close() error {
	return s.db.Close()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanUsage(row scanner) (*Usage, error) {
	var (
		u        Usage
		lastUsed int64
	)
	if err := row.Scan(&u.Scope, &u.Trigger, &u.Count, &lastUsed); err != nil {
		return nil, err
	}
	// 0 means the time of use is unknown.
	if lastUsed != 0 {
		u.LastUsed = time.Unix(lastUsed, 0)
	}
	return &u, nil
}
