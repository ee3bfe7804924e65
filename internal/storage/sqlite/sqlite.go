// Package sqlite provides a SQLite-backed implementation of the
// storage.Storage interface using Go's standard database/sql package.
//
// WHY SQLite FOR BACKUPS?
// ───────────────────────
// The live roster is an in-memory map; this package only keeps copies of
// it. SQLite puts such a copy in a single file with no server process,
// and the copy can be inspected with any sqlite3 shell:
//
//	sqlite3 data/backup.db 'SELECT * FROM students ORDER BY gpa DESC'
//
// The blank import below registers the sqlite3 driver with database/sql.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/aanand-mishra/students-roster/internal/storage"
	"github.com/aanand-mishra/students-roster/internal/types"

	// Blank import: side-effect only (registers the "sqlite3" driver).
	_ "github.com/mattn/go-sqlite3"
)

// SQLite is the concrete implementation of storage.Storage.
// It holds a *sql.DB which is a connection pool managed by database/sql.
type SQLite struct {
	Db *sql.DB
}

var _ storage.Storage = (*SQLite)(nil)

// New opens the SQLite database at path, creates the students table if it
// does not already exist, and returns a ready-to-use *SQLite.
//
// sql.Open only validates the driver name; the file is created by the
// CREATE TABLE below, which is idempotent and runs on every start.
func New(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("sqlite.New: open db: %w", err)
	}

	// Schema:
	//   id   - student id, the roster key
	//   name - student's full name
	//   gpa  - grade-point average
	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS students (
			id   TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			gpa  REAL NOT NULL
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite.New: create table: %w", err)
	}

	return &SQLite{Db: db}, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// SaveStudents replaces the table contents with students.
//
// WHY ONE TRANSACTION:
// ────────────────────
// The DELETE and the INSERTs either all commit or none do. A failure
// half-way (disk full, cancelled ctx) rolls back to the previous snapshot
// instead of leaving a table that holds part of each.
//
// Rows are written through one prepared statement: SQLite parses the
// INSERT once, and the ? placeholders keep names containing quotes from
// being read as SQL.
// ─────────────────────────────────────────────────────────────────────────────
func (s *SQLite) SaveStudents(ctx context.Context, students []types.Student) error {
	tx, err := s.Db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("SaveStudents: begin: %w", err)
	}
	// Rollback after a successful Commit is a no-op.
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM students"); err != nil {
		return fmt.Errorf("SaveStudents: clear: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		"INSERT OR REPLACE INTO students (id, name, gpa) VALUES (?, ?, ?)",
	)
	if err != nil {
		return fmt.Errorf("SaveStudents: prepare: %w", err)
	}
	defer stmt.Close()

	for _, student := range students {
		if _, err := stmt.ExecContext(ctx, student.ID, student.Name, student.GPA); err != nil {
			return fmt.Errorf("SaveStudents: exec %s: %w", student.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("SaveStudents: commit: %w", err)
	}
	return nil
}

// ─────────────────────────────────────────────────────────────────────────────
// LoadStudents returns every row, ordered by id.
//
// The result is never nil, so an empty table encodes to [] rather than
// null when it ends up in a JSON response.
// ─────────────────────────────────────────────────────────────────────────────
func (s *SQLite) LoadStudents(ctx context.Context) ([]types.Student, error) {
	rows, err := s.Db.QueryContext(ctx, "SELECT id, name, gpa FROM students ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("LoadStudents: query: %w", err)
	}
	defer rows.Close()

	students := make([]types.Student, 0)
	// rows.Next advances the cursor; Scan copies the current row's columns
	// into the struct fields in SELECT order.
	for rows.Next() {
		var student types.Student
		if err := rows.Scan(&student.ID, &student.Name, &student.GPA); err != nil {
			return nil, fmt.Errorf("LoadStudents: scan row: %w", err)
		}
		students = append(students, student)
	}

	// rows.Next returns false both at the end and on an error; rows.Err
	// tells the two apart.
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("LoadStudents: rows iteration: %w", err)
	}
	return students, nil
}

// Close closes the connection pool.
func (s *SQLite) Close() error {
	return s.Db.Close()
}
