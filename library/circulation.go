package library

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// AddItem inserts a catalog entry, available for borrowing.
func (d *Database) AddItem(title, itemType, authorPublisher, isbn string, year int) (int64, error) {
	title = strings.TrimSpace(title)
	itemType = strings.TrimSpace(itemType)
	if title == "" {
		return 0, fmt.Errorf("title is required")
	}
	if itemType == "" {
		return 0, fmt.Errorf("item type is required")
	}
	if err := validateYear(year); err != nil {
		return 0, err
	}

	res, err := d.db.Exec(`INSERT INTO items(title,type,author_publisher,isbn,publication_year) VALUES(?,?,?,?,?)`,
		title, itemType, nullString(authorPublisher), nullString(isbn), nullInt(year))
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// GetItem fetches a single catalog entry.
func (d *Database) GetItem(id int64) (*Item, error) {
	var it Item
	err := d.db.QueryRow(`
        SELECT id, title, type, COALESCE(author_publisher,''), COALESCE(isbn,''), COALESCE(publication_year,0), available
        FROM items WHERE id=?`, id).
		Scan(&it.ID, &it.Title, &it.Type, &it.AuthorPublisher, &it.ISBN, &it.PublicationYear, &it.Available)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("item %d: %w", id, ErrItemNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &it, nil
}

// FindItems searches the catalog by title or author/publisher
// substring, case-insensitively. An empty term lists the whole catalog.
func (d *Database) FindItems(term string) ([]*Item, error) {
	pattern := "%" + strings.TrimSpace(term) + "%"
	rows, err := d.findItemsStmt.Query(pattern, pattern)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*Item
	for rows.Next() {
		var it Item
		if err := rows.Scan(&it.ID, &it.Title, &it.Type, &it.AuthorPublisher, &it.ISBN, &it.PublicationYear, &it.Available); err != nil {
			return nil, err
		}
		items = append(items, &it)
	}
	return items, rows.Err()
}

// GetBorrowingRecord fetches one borrowing record, open or closed.
// ReturnDate is the zero time while the record is open.
func (d *Database) GetBorrowingRecord(id int64) (*BorrowingRecord, error) {
	var r BorrowingRecord
	var returned sql.NullTime
	err := d.db.QueryRow(`
        SELECT id, member_id, item_id, borrow_date, due_date, return_date, fine_amount
        FROM borrowing_records WHERE id=?`, id).
		Scan(&r.ID, &r.MemberID, &r.ItemID, &r.BorrowDate, &r.DueDate, &returned, &r.Fine)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("record %d: %w", id, ErrRecordNotFound)
	}
	if err != nil {
		return nil, err
	}
	if returned.Valid {
		r.ReturnDate = returned.Time
	}
	return &r, nil
}

// BorrowItem creates a borrowing record due after the configured loan
// period and flips the item unavailable, in one transaction. The
// availability check and the insert commit together, so two concurrent
// borrows of one item can never both succeed. Borrowing also marks the
// member Active.
func (d *Database) BorrowItem(memberID, itemID int64) (int64, error) {
	tx, err := d.db.Begin()
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	if err := d.memberExists(tx, memberID); err != nil {
		return 0, err
	}

	var avail bool
	err = tx.QueryRow(`SELECT available FROM items WHERE id=?`, itemID).Scan(&avail)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("item %d: %w", itemID, ErrItemNotFound)
	}
	if err != nil {
		return 0, err
	}
	if !avail {
		return 0, fmt.Errorf("item %d: %w", itemID, ErrItemUnavailable)
	}

	now := time.Now()
	res, err := tx.Exec(`INSERT INTO borrowing_records(member_id,item_id,borrow_date,due_date) VALUES(?,?,?,?)`,
		memberID, itemID, now, now.Add(d.loanPeriod))
	if err != nil {
		// The partial unique index catches an open loan the
		// availability flag missed.
		if isUniqueViolation(err) {
			return 0, fmt.Errorf("item %d: %w", itemID, ErrItemUnavailable)
		}
		return 0, err
	}
	recordID, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}

	if _, err := tx.Exec(`UPDATE items SET available=0 WHERE id=?`, itemID); err != nil {
		return 0, err
	}
	if _, err := tx.Exec(`UPDATE members SET status=? WHERE person_id=?`, StatusActive, memberID); err != nil {
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	logger.Debug().Int64("record", recordID).Int64("member", memberID).Int64("item", itemID).Msg("item borrowed")
	return recordID, nil
}

// ReturnItem closes an open borrowing record: sets its return date,
// flips the item available again, and marks the member Inactive when
// this was their last open loan. A closed record cannot be returned
// again (ErrRecordNotFound); availability never double-flips.
func (d *Database) ReturnItem(recordID int64) error {
	tx, err := d.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var memberID, itemID int64
	err = tx.QueryRow(`SELECT member_id, item_id FROM borrowing_records WHERE id=? AND return_date IS NULL`, recordID).
		Scan(&memberID, &itemID)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("record %d: %w", recordID, ErrRecordNotFound)
	}
	if err != nil {
		return err
	}

	if _, err := tx.Exec(`UPDATE borrowing_records SET return_date=? WHERE id=?`, time.Now(), recordID); err != nil {
		return err
	}
	if _, err := tx.Exec(`UPDATE items SET available=1 WHERE id=?`, itemID); err != nil {
		return err
	}

	// Inactive only when no other loans stay open.
	var open int
	if err := tx.QueryRow(`SELECT COUNT(*) FROM borrowing_records WHERE member_id=? AND return_date IS NULL`, memberID).Scan(&open); err != nil {
		return err
	}
	if open == 0 {
		if _, err := tx.Exec(`UPDATE members SET status=? WHERE person_id=?`, StatusInactive, memberID); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	logger.Debug().Int64("record", recordID).Int64("item", itemID).Msg("item returned")
	return nil
}

// ListOpenLoans returns a member's open borrowing records joined with
// their items, soonest due first.
func (d *Database) ListOpenLoans(memberID int64) ([]*Loan, error) {
	rows, err := d.openLoansStmt.Query(memberID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var loans []*Loan
	for rows.Next() {
		var l Loan
		if err := rows.Scan(&l.RecordID, &l.ItemID, &l.Title, &l.BorrowDate, &l.DueDate); err != nil {
			return nil, err
		}
		loans = append(loans, &l)
	}
	return loans, rows.Err()
}
