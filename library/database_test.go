package library

import (
	"errors"
	"fmt"
	"path/filepath"
	"testing"
)

func tempDB(t *testing.T) *Database {
	t.Helper()
	dir := t.TempDir()
	db, err := NewDatabase(filepath.Join(dir, "test.db"))
	if err != nil {
		t.Fatalf("new db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

var testEmails int

// addTestMember creates a Member person with a fresh email.
func addTestMember(t *testing.T, db *Database, name string) int64 {
	t.Helper()
	testEmails++
	id, err := db.AddPerson(NewPerson{
		Name:  name,
		Email: fmt.Sprintf("%s%d@example.com", name, testEmails),
		Role:  RoleMember,
	})
	if err != nil {
		t.Fatalf("add member %s: %v", name, err)
	}
	return id
}

func addTestItem(t *testing.T, db *Database, title string) int64 {
	t.Helper()
	id, err := db.AddItem(title, "Book", "Test Author", "", 0)
	if err != nil {
		t.Fatalf("add item %s: %v", title, err)
	}
	return id
}

func TestMigrationsIdempotent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "lib.db")

	db, err := NewDatabase(path)
	if err != nil {
		t.Fatalf("first open: %v", err)
	}
	id := addTestItem(t, db, "Persistent")
	if err := db.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	// Reopening must not error or lose data.
	db, err = NewDatabase(path)
	if err != nil {
		t.Fatalf("second open: %v", err)
	}
	defer db.Close()
	it, err := db.GetItem(id)
	if err != nil {
		t.Fatalf("get after reopen: %v", err)
	}
	if it.Title != "Persistent" {
		t.Fatalf("want Persistent, got %q", it.Title)
	}
}

func TestOpenLoanIndexBlocksSecondRecord(t *testing.T) {
	db := tempDB(t)
	memberID := addTestMember(t, db, "alice")
	itemID := addTestItem(t, db, "Dune")

	if _, err := db.BorrowItem(memberID, itemID); err != nil {
		t.Fatalf("borrow: %v", err)
	}

	// Even writing around the engine, a second open record for the
	// same item must be impossible.
	_, err := db.db.Exec(`INSERT INTO borrowing_records(member_id,item_id,borrow_date,due_date) VALUES(?,?,date('now'),date('now','+30 days'))`,
		memberID, itemID)
	if !isUniqueViolation(err) {
		t.Fatalf("want unique violation, got %v", err)
	}
}

func TestParseStoredTime(t *testing.T) {
	stored := []string{
		"2026-08-29 10:30:00.123456789+02:00",
		"2026-08-29T10:30:00",
		"2026-08-29 10:30:00",
		"2026-08-29",
	}
	for _, s := range stored {
		ts, err := parseStoredTime(s)
		if err != nil {
			t.Fatalf("%q: %v", s, err)
		}
		if ts.Year() != 2026 {
			t.Fatalf("%q parsed to %v", s, ts)
		}
	}
	if _, err := parseStoredTime("not a timestamp"); err == nil {
		t.Fatal("garbage accepted")
	}
}

func TestValidateYear(t *testing.T) {
	if err := validateYear(0); err != nil {
		t.Fatalf("zero year should be allowed: %v", err)
	}
	if err := validateYear(1960); err != nil {
		t.Fatalf("1960: %v", err)
	}
	if err := validateYear(999); !errors.Is(err, ErrInvalidPublicationYear) {
		t.Fatalf("999: want ErrInvalidPublicationYear, got %v", err)
	}
	if err := validateYear(3000); !errors.Is(err, ErrInvalidPublicationYear) {
		t.Fatalf("3000: want ErrInvalidPublicationYear, got %v", err)
	}
}
