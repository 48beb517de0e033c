package library

import (
	"fmt"
	"strings"
	"time"
)

// DonateItem records a donation. The donation always materializes a new
// catalog item from the supplied metadata, available immediately, and
// back-links it from the donation row; both rows commit together.
// Returns the new item id and the donation id.
func (d *Database) DonateItem(donorID int64, title, itemType, authorPublisher, isbn string, year int) (int64, int64, error) {
	title = strings.TrimSpace(title)
	itemType = strings.TrimSpace(itemType)
	if title == "" {
		return 0, 0, fmt.Errorf("title is required")
	}
	if itemType == "" {
		return 0, 0, fmt.Errorf("item type is required")
	}
	if err := validateYear(year); err != nil {
		return 0, 0, err
	}

	tx, err := d.db.Begin()
	if err != nil {
		return 0, 0, err
	}
	defer tx.Rollback()

	var exists bool
	if err := tx.QueryRow(`SELECT EXISTS(SELECT 1 FROM persons WHERE id=?)`, donorID).Scan(&exists); err != nil {
		return 0, 0, err
	}
	if !exists {
		return 0, 0, fmt.Errorf("donor %d: %w", donorID, ErrPersonNotFound)
	}

	res, err := tx.Exec(`INSERT INTO items(title,type,author_publisher,isbn,publication_year,available) VALUES(?,?,?,?,?,1)`,
		title, itemType, nullString(authorPublisher), nullString(isbn), nullInt(year))
	if err != nil {
		return 0, 0, err
	}
	itemID, err := res.LastInsertId()
	if err != nil {
		return 0, 0, err
	}

	res, err = tx.Exec(`INSERT INTO donations(donor_id,item_id,date_received) VALUES(?,?,?)`,
		donorID, itemID, time.Now())
	if err != nil {
		return 0, 0, err
	}
	donationID, err := res.LastInsertId()
	if err != nil {
		return 0, 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, 0, err
	}
	logger.Debug().Int64("donor", donorID).Int64("item", itemID).Msg("donation received")
	return itemID, donationID, nil
}

// ListDonors returns everyone who has donated, with donation counts
// and the date of their most recent donation, sorted by name.
func (d *Database) ListDonors() ([]*Donor, error) {
	rows, err := d.db.Query(`
        SELECT p.id, p.name, p.email, COUNT(dn.id), MAX(dn.date_received)
        FROM donations dn
        JOIN persons p ON p.id = dn.donor_id
        GROUP BY p.id, p.name, p.email
        ORDER BY p.name, p.id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var donors []*Donor
	for rows.Next() {
		var dr Donor
		var last string
		if err := rows.Scan(&dr.PersonID, &dr.Name, &dr.Email, &dr.Donations, &last); err != nil {
			return nil, err
		}
		// MAX() strips the column's declared type, so the value
		// arrives as text rather than a converted time.Time.
		ts, err := parseStoredTime(last)
		if err != nil {
			return nil, err
		}
		dr.LastDonation = ts
		donors = append(donors, &dr)
	}
	return donors, rows.Err()
}

// ListDonations returns a person's donation rows, newest first.
func (d *Database) ListDonations(donorID int64) ([]*Donation, error) {
	rows, err := d.db.Query(`
        SELECT id, donor_id, item_id, date_received
        FROM donations
        WHERE donor_id=?
        ORDER BY date_received DESC, id DESC`, donorID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var donations []*Donation
	for rows.Next() {
		var dn Donation
		if err := rows.Scan(&dn.ID, &dn.DonorID, &dn.ItemID, &dn.DateReceived); err != nil {
			return nil, err
		}
		donations = append(donations, &dn)
	}
	return donations, rows.Err()
}
