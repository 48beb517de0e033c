package library

import (
	"fmt"
	"strings"
	"time"
)

// RequestHelp files a pending help request for a member.
func (d *Database) RequestHelp(memberID int64, description string) (int64, error) {
	description = strings.TrimSpace(description)
	if description == "" {
		return 0, fmt.Errorf("description is required")
	}

	tx, err := d.db.Begin()
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	if err := d.memberExists(tx, memberID); err != nil {
		return 0, err
	}

	res, err := tx.Exec(`INSERT INTO help_requests(member_id,request_date,description,status) VALUES(?,?,?,?)`,
		memberID, time.Now(), description, HelpPending)
	if err != nil {
		return 0, err
	}
	requestID, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return requestID, tx.Commit()
}

// AssignHelpRequest hands an unresolved request to a librarian and
// moves it to In Progress.
func (d *Database) AssignHelpRequest(requestID, librarianID int64) error {
	tx, err := d.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var exists bool
	if err := tx.QueryRow(`SELECT EXISTS(SELECT 1 FROM librarians WHERE person_id=?)`, librarianID).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("librarian %d: %w", librarianID, ErrLibrarianNotFound)
	}

	res, err := tx.Exec(`UPDATE help_requests SET librarian_id=?, status=? WHERE id=? AND status != ?`,
		librarianID, HelpInProgress, requestID, HelpResolved)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("request %d: %w", requestID, ErrRequestNotFound)
	}
	return tx.Commit()
}

// ResolveHelpRequest marks a request Resolved.
func (d *Database) ResolveHelpRequest(requestID int64) error {
	res, err := d.db.Exec(`UPDATE help_requests SET status=? WHERE id=?`, HelpResolved, requestID)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("request %d: %w", requestID, ErrRequestNotFound)
	}
	return nil
}

// ListHelpRequests returns a member's help-request history, newest
// first.
func (d *Database) ListHelpRequests(memberID int64) ([]*HelpRequest, error) {
	rows, err := d.db.Query(`
        SELECT id, member_id, COALESCE(librarian_id,0), request_date, description, status
        FROM help_requests
        WHERE member_id=?
        ORDER BY request_date DESC, id DESC`, memberID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var requests []*HelpRequest
	for rows.Next() {
		var r HelpRequest
		if err := rows.Scan(&r.ID, &r.MemberID, &r.LibrarianID, &r.RequestDate, &r.Description, &r.Status); err != nil {
			return nil, err
		}
		requests = append(requests, &r)
	}
	return requests, rows.Err()
}
