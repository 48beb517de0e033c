package library

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// AddPerson inserts a person and the subtype row matching their role in
// one transaction. Email must be unused (ErrDuplicateEmail); the role
// must be one of the known values (ErrInvalidRole). Librarians are
// hired at the configured salary floor unless a higher salary is given;
// anything below the floor is rejected, never clamped
// (ErrSalaryBelowMinimum). On failure neither row exists.
func (d *Database) AddPerson(p NewPerson) (int64, error) {
	p.Name = strings.TrimSpace(p.Name)
	p.Email = strings.TrimSpace(p.Email)
	if p.Name == "" {
		return 0, fmt.Errorf("name is required")
	}
	if p.Email == "" {
		return 0, fmt.Errorf("email is required")
	}
	switch p.Role {
	case RoleMember, RoleLibrarian, RoleVolunteer:
	default:
		return 0, fmt.Errorf("role %q: %w", p.Role, ErrInvalidRole)
	}

	tx, err := d.db.Begin()
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	var exists bool
	if err := tx.QueryRow(`SELECT EXISTS(SELECT 1 FROM persons WHERE email=?)`, p.Email).Scan(&exists); err != nil {
		return 0, err
	}
	if exists {
		return 0, fmt.Errorf("%s: %w", p.Email, ErrDuplicateEmail)
	}

	res, err := tx.Exec(`INSERT INTO persons(name,address,phone,email,role) VALUES(?,?,?,?,?)`,
		p.Name, nullString(p.Address), nullString(p.Phone), p.Email, p.Role)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, fmt.Errorf("%s: %w", p.Email, ErrDuplicateEmail)
		}
		return 0, err
	}
	personID, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}

	now := time.Now()
	switch p.Role {
	case RoleMember:
		_, err = tx.Exec(`INSERT INTO members(person_id,join_date,status) VALUES(?,?,?)`,
			personID, now, StatusActive)
	case RoleVolunteer:
		_, err = tx.Exec(`INSERT INTO volunteers(person_id,join_date,status) VALUES(?,?,?)`,
			personID, now, StatusActive)
	case RoleLibrarian:
		salary := p.Salary
		if salary == 0 {
			salary = d.minSalary
		}
		if salary < d.minSalary {
			return 0, fmt.Errorf("salary %d below %d: %w", salary, d.minSalary, ErrSalaryBelowMinimum)
		}
		_, err = tx.Exec(`INSERT INTO librarians(person_id,hire_date,salary) VALUES(?,?,?)`,
			personID, now, salary)
	}
	if err != nil {
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	logger.Debug().Int64("person", personID).Str("role", p.Role).Msg("person added")
	return personID, nil
}

// TerminateLibrarian removes a librarian and their person row in one
// transaction. Help requests assigned to them go back to unassigned.
func (d *Database) TerminateLibrarian(librarianID int64) error {
	tx, err := d.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`UPDATE help_requests SET librarian_id=NULL WHERE librarian_id=?`, librarianID); err != nil {
		return err
	}

	res, err := tx.Exec(`DELETE FROM librarians WHERE person_id=?`, librarianID)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("librarian %d: %w", librarianID, ErrLibrarianNotFound)
	}

	// Donations are permanent history, so a donor's person row has to
	// stay on file.
	var donated bool
	if err := tx.QueryRow(`SELECT EXISTS(SELECT 1 FROM donations WHERE donor_id=?)`, librarianID).Scan(&donated); err != nil {
		return err
	}
	if donated {
		return fmt.Errorf("librarian %d: %w", librarianID, ErrPersonHasDonations)
	}

	if _, err := tx.Exec(`DELETE FROM persons WHERE id=?`, librarianID); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	logger.Debug().Int64("librarian", librarianID).Msg("librarian terminated")
	return nil
}

// GetPerson fetches a person row regardless of role.
func (d *Database) GetPerson(id int64) (*Person, error) {
	var p Person
	err := d.db.QueryRow(`
        SELECT id, name, COALESCE(address,''), COALESCE(phone,''), email, role
        FROM persons WHERE id=?`, id).
		Scan(&p.ID, &p.Name, &p.Address, &p.Phone, &p.Email, &p.Role)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("person %d: %w", id, ErrPersonNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// ListMembers returns all members with their membership status.
func (d *Database) ListMembers() ([]*Member, error) {
	rows, err := d.db.Query(`
        SELECT p.id, p.name, p.email, m.join_date, m.status
        FROM members m
        JOIN persons p ON p.id = m.person_id
        ORDER BY p.id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var members []*Member
	for rows.Next() {
		var m Member
		if err := rows.Scan(&m.PersonID, &m.Name, &m.Email, &m.JoinDate, &m.Status); err != nil {
			return nil, err
		}
		members = append(members, &m)
	}
	return members, rows.Err()
}

// ListVolunteers returns all volunteers.
func (d *Database) ListVolunteers() ([]*Volunteer, error) {
	rows, err := d.db.Query(`
        SELECT p.id, p.name, p.email, COALESCE(p.phone,''), v.join_date, v.status
        FROM volunteers v
        JOIN persons p ON p.id = v.person_id
        ORDER BY p.id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var volunteers []*Volunteer
	for rows.Next() {
		var v Volunteer
		if err := rows.Scan(&v.PersonID, &v.Name, &v.Email, &v.Phone, &v.JoinDate, &v.Status); err != nil {
			return nil, err
		}
		volunteers = append(volunteers, &v)
	}
	return volunteers, rows.Err()
}
