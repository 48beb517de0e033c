package library

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	sqlite3 "github.com/mattn/go-sqlite3"
)

// Database provides high-level helpers around a SQLite connection.
// Every mutating operation runs as a single transaction that writes the
// primary record and every mirrored field (availability flags,
// attendance counters, membership status) together, so derived state
// can never drift from the records that define it. The original system
// leaned on database triggers for these rules; here they are explicit
// application logic inside the owning transaction.
type Database struct {
	db *sql.DB

	loanPeriod time.Duration
	minSalary  int

	findItemsStmt *sql.Stmt
	openLoansStmt *sql.Stmt
}

// Options tune the engine's business defaults. Zero values fall back to
// the configured defaults.
type Options struct {
	LoanPeriodDays int // due-date offset for new borrowing records
	MinSalary      int // librarian salary floor
}

// NewDatabase opens (or creates) the SQLite database at dbPath with
// default options, applies schema migrations, and prepares common
// statements.
func NewDatabase(dbPath string) (*Database, error) {
	return NewDatabaseWithOptions(dbPath, Options{})
}

// NewDatabaseWithOptions is NewDatabase with explicit business knobs.
func NewDatabaseWithOptions(dbPath string, opts Options) (*Database, error) {
	if opts.LoanPeriodDays <= 0 {
		opts.LoanPeriodDays = DefaultLoanPeriodDays
	}
	if opts.MinSalary <= 0 {
		opts.MinSalary = DefaultMinSalary
	}

	// Ensure directory exists so first-run succeeds.
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}

	// busy_timeout and foreign keys as usual; txlock=immediate makes
	// every write transaction take the lock at BEGIN, so the engine's
	// check-then-insert sequences cannot interleave under concurrent
	// callers.
	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000&_foreign_keys=1&_txlock=immediate", dbPath)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if err := applyMigrations(db); err != nil {
		db.Close()
		return nil, err
	}

	database := &Database{
		db:         db,
		loanPeriod: time.Duration(opts.LoanPeriodDays) * 24 * time.Hour,
		minSalary:  opts.MinSalary,
	}
	if err := database.prepareStatements(); err != nil {
		db.Close()
		return nil, err
	}
	logger.Debug().Str("path", dbPath).Int("loan_period_days", opts.LoanPeriodDays).Msg("database opened")
	return database, nil
}

// Close releases prepared statements and closes the DB.
func (d *Database) Close() error {
	if d.findItemsStmt != nil {
		d.findItemsStmt.Close()
	}
	if d.openLoansStmt != nil {
		d.openLoansStmt.Close()
	}
	return d.db.Close()
}

// ---------------------------------------------------------------------------
// Schema migration
// ---------------------------------------------------------------------------

const schemaVersion = 1

func applyMigrations(db *sql.DB) error {
	// WAL improves write concurrency.
	if _, err := db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
		return fmt.Errorf("enable WAL: %w", err)
	}

	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS meta (key TEXT PRIMARY KEY, value TEXT);`); err != nil {
		return err
	}

	var current int
	_ = db.QueryRow(`SELECT value FROM meta WHERE key='schema_version';`).Scan(&current)
	if current >= schemaVersion {
		return nil
	}

	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmts := []string{
		`CREATE TABLE IF NOT EXISTS persons (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            name TEXT NOT NULL,
            address TEXT,
            phone TEXT,
            email TEXT NOT NULL UNIQUE,
            role TEXT NOT NULL CHECK (role IN ('Member','Librarian','Volunteer'))
        );`,
		`CREATE TABLE IF NOT EXISTS members (
            person_id INTEGER PRIMARY KEY REFERENCES persons(id),
            join_date DATETIME NOT NULL,
            status TEXT NOT NULL CHECK (status IN ('Active','Inactive'))
        );`,
		`CREATE TABLE IF NOT EXISTS librarians (
            person_id INTEGER PRIMARY KEY REFERENCES persons(id),
            hire_date DATETIME NOT NULL,
            salary INTEGER NOT NULL CHECK (salary >= 0)
        );`,
		`CREATE TABLE IF NOT EXISTS volunteers (
            person_id INTEGER PRIMARY KEY REFERENCES persons(id),
            join_date DATETIME NOT NULL,
            status TEXT NOT NULL
        );`,
		`CREATE TABLE IF NOT EXISTS items (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            title TEXT NOT NULL,
            type TEXT NOT NULL,
            author_publisher TEXT,
            isbn TEXT,
            publication_year INTEGER,
            available BOOLEAN NOT NULL DEFAULT 1
        );`,
		`CREATE TABLE IF NOT EXISTS borrowing_records (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            member_id INTEGER NOT NULL REFERENCES members(person_id),
            item_id INTEGER NOT NULL REFERENCES items(id),
            borrow_date DATETIME NOT NULL,
            due_date DATETIME NOT NULL,
            return_date DATETIME,
            fine_amount REAL NOT NULL DEFAULT 0
        );`,
		// Constraint backstop: at most one open loan per item.
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_open_loan_per_item
            ON borrowing_records(item_id) WHERE return_date IS NULL;`,
		`CREATE TABLE IF NOT EXISTS library_rooms (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            capacity INTEGER NOT NULL CHECK (capacity > 0),
            room_type TEXT NOT NULL
        );`,
		`CREATE TABLE IF NOT EXISTS events (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            name TEXT NOT NULL,
            event_date DATETIME NOT NULL,
            room_id INTEGER REFERENCES library_rooms(id),
            max_capacity INTEGER NOT NULL CHECK (max_capacity > 0),
            attendance INTEGER NOT NULL DEFAULT 0 CHECK (attendance >= 0)
        );`,
		`CREATE TABLE IF NOT EXISTS event_registrations (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            event_id INTEGER NOT NULL REFERENCES events(id),
            member_id INTEGER NOT NULL REFERENCES members(person_id),
            UNIQUE(event_id, member_id)
        );`,
		`CREATE TABLE IF NOT EXISTS donations (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            donor_id INTEGER NOT NULL REFERENCES persons(id),
            item_id INTEGER NOT NULL REFERENCES items(id),
            date_received DATETIME NOT NULL
        );`,
		`CREATE TABLE IF NOT EXISTS help_requests (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            member_id INTEGER NOT NULL REFERENCES members(person_id),
            librarian_id INTEGER REFERENCES librarians(person_id),
            request_date DATETIME NOT NULL,
            description TEXT NOT NULL,
            status TEXT NOT NULL DEFAULT 'Pending' CHECK (status IN ('Pending','In Progress','Resolved'))
        );`,
	}

	for _, stmt := range stmts {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("apply migration: %w", err)
		}
	}

	if _, err := tx.Exec(`INSERT INTO meta(key,value) VALUES('schema_version',?)
        ON CONFLICT(key) DO UPDATE SET value=excluded.value;`, schemaVersion); err != nil {
		return fmt.Errorf("record schema version: %w", err)
	}

	return tx.Commit()
}

// ---------------------------------------------------------------------------
// Prepared statements
// ---------------------------------------------------------------------------

func (d *Database) prepareStatements() error {
	var err error
	if d.findItemsStmt, err = d.db.Prepare(`
        SELECT id, title, type, COALESCE(author_publisher,''), COALESCE(isbn,''), COALESCE(publication_year,0), available
        FROM items
        WHERE title LIKE ? OR author_publisher LIKE ?
        ORDER BY title, id`); err != nil {
		return err
	}
	if d.openLoansStmt, err = d.db.Prepare(`
        SELECT r.id, r.item_id, i.title, r.borrow_date, r.due_date
        FROM borrowing_records r
        JOIN items i ON i.id = r.item_id
        WHERE r.member_id = ? AND r.return_date IS NULL
        ORDER BY r.due_date, r.id`); err != nil {
		return err
	}
	return nil
}

// ---------------------------------------------------------------------------
// Shared helpers
// ---------------------------------------------------------------------------

// isUniqueViolation reports whether err came from a UNIQUE constraint.
func isUniqueViolation(err error) bool {
	var serr sqlite3.Error
	return errors.As(err, &serr) &&
		(serr.ExtendedCode == sqlite3.ErrConstraintUnique || serr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey)
}

func (d *Database) memberExists(tx *sql.Tx, memberID int64) error {
	var exists bool
	if err := tx.QueryRow(`SELECT EXISTS(SELECT 1 FROM members WHERE person_id=?)`, memberID).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("member %d: %w", memberID, ErrMemberNotFound)
	}
	return nil
}

// nullable column helpers; empty/zero maps to NULL.

func nullString(s string) any {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return s
}

func nullInt(n int) any {
	if n == 0 {
		return nil
	}
	return n
}

// Timestamp layouts the driver writes. Plain DATETIME columns convert
// to time.Time inside the driver, but an aggregate or expression column
// has no declared type, so its value comes back as text and must be
// parsed here.
var storedTimeLayouts = []string{
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02T15:04:05.999999999-07:00",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

func parseStoredTime(s string) (time.Time, error) {
	for _, layout := range storedTimeLayouts {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}

// validateYear rejects publication years outside [1000, current year].
// Zero means unknown and is allowed.
func validateYear(year int) error {
	if year == 0 {
		return nil
	}
	if year < 1000 || year > time.Now().Year() {
		return fmt.Errorf("year %d: %w", year, ErrInvalidPublicationYear)
	}
	return nil
}
