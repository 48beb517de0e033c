package library

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// AddRoom inserts a library room.
func (d *Database) AddRoom(capacity int, roomType string) (int64, error) {
	if capacity <= 0 {
		return 0, fmt.Errorf("room capacity must be positive")
	}
	roomType = strings.TrimSpace(roomType)
	if roomType == "" {
		return 0, fmt.Errorf("room type is required")
	}
	res, err := d.db.Exec(`INSERT INTO library_rooms(capacity,room_type) VALUES(?,?)`, capacity, roomType)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// ListRooms returns all library rooms.
func (d *Database) ListRooms() ([]*Room, error) {
	rows, err := d.db.Query(`SELECT id, capacity, room_type FROM library_rooms ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rooms []*Room
	for rows.Next() {
		var r Room
		if err := rows.Scan(&r.ID, &r.Capacity, &r.RoomType); err != nil {
			return nil, err
		}
		rooms = append(rooms, &r)
	}
	return rooms, rows.Err()
}

// AddEvent schedules an event with zero attendance. roomID may be zero
// for events without an assigned room; otherwise the room must exist.
func (d *Database) AddEvent(name string, date time.Time, roomID int64, maxCapacity int) (int64, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return 0, fmt.Errorf("event name is required")
	}
	if maxCapacity <= 0 {
		return 0, fmt.Errorf("event capacity must be positive")
	}

	tx, err := d.db.Begin()
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	if roomID != 0 {
		var exists bool
		if err := tx.QueryRow(`SELECT EXISTS(SELECT 1 FROM library_rooms WHERE id=?)`, roomID).Scan(&exists); err != nil {
			return 0, err
		}
		if !exists {
			return 0, fmt.Errorf("room %d: %w", roomID, ErrRoomNotFound)
		}
	}

	res, err := tx.Exec(`INSERT INTO events(name,event_date,room_id,max_capacity,attendance) VALUES(?,?,?,?,0)`,
		name, date, nullInt(int(roomID)), maxCapacity)
	if err != nil {
		return 0, err
	}
	eventID, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return eventID, tx.Commit()
}

// GetEvent fetches a single event.
func (d *Database) GetEvent(id int64) (*Event, error) {
	var e Event
	err := d.db.QueryRow(`
        SELECT id, name, event_date, COALESCE(room_id,0), max_capacity, attendance
        FROM events WHERE id=?`, id).
		Scan(&e.ID, &e.Name, &e.Date, &e.RoomID, &e.MaxCapacity, &e.Attendance)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("event %d: %w", id, ErrEventNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// RegisterForEvent registers a member and increments the event's
// attendance counter in one transaction. Preconditions, checked inside
// that transaction: the event exists, the member is not already
// registered (ErrAlreadyRegistered), and attendance is below the
// effective capacity (ErrEventFull). The effective capacity is the
// declared maximum, bounded by the assigned room's capacity.
func (d *Database) RegisterForEvent(memberID, eventID int64) (int64, error) {
	tx, err := d.db.Begin()
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	if err := d.memberExists(tx, memberID); err != nil {
		return 0, err
	}

	var attendance, maxCapacity, roomCapacity int
	err = tx.QueryRow(`
        SELECT e.attendance, e.max_capacity, COALESCE(r.capacity, 0)
        FROM events e
        LEFT JOIN library_rooms r ON r.id = e.room_id
        WHERE e.id=?`, eventID).
		Scan(&attendance, &maxCapacity, &roomCapacity)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("event %d: %w", eventID, ErrEventNotFound)
	}
	if err != nil {
		return 0, err
	}

	var exists bool
	if err := tx.QueryRow(`SELECT EXISTS(SELECT 1 FROM event_registrations WHERE event_id=? AND member_id=?)`,
		eventID, memberID).Scan(&exists); err != nil {
		return 0, err
	}
	if exists {
		return 0, fmt.Errorf("member %d, event %d: %w", memberID, eventID, ErrAlreadyRegistered)
	}

	capacity := maxCapacity
	if roomCapacity > 0 && roomCapacity < capacity {
		capacity = roomCapacity
	}
	if attendance >= capacity {
		return 0, fmt.Errorf("event %d at %d/%d: %w", eventID, attendance, capacity, ErrEventFull)
	}

	res, err := tx.Exec(`INSERT INTO event_registrations(event_id,member_id) VALUES(?,?)`, eventID, memberID)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, fmt.Errorf("member %d, event %d: %w", memberID, eventID, ErrAlreadyRegistered)
		}
		return 0, err
	}
	registrationID, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}

	if _, err := tx.Exec(`UPDATE events SET attendance = attendance + 1 WHERE id=?`, eventID); err != nil {
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	logger.Debug().Int64("member", memberID).Int64("event", eventID).Msg("registered for event")
	return registrationID, nil
}

// UnregisterFromEvent deletes the registration and decrements
// attendance. Registrations are hard-deleted; a later re-registration
// is indistinguishable from a fresh one.
func (d *Database) UnregisterFromEvent(memberID, eventID int64) error {
	tx, err := d.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.Exec(`DELETE FROM event_registrations WHERE event_id=? AND member_id=?`, eventID, memberID)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("member %d, event %d: %w", memberID, eventID, ErrNotRegistered)
	}

	// Guarded so a drifted counter can never go negative.
	if _, err := tx.Exec(`UPDATE events SET attendance = attendance - 1 WHERE id=? AND attendance > 0`, eventID); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	logger.Debug().Int64("member", memberID).Int64("event", eventID).Msg("unregistered from event")
	return nil
}

// FindEvents lists events whose name or date matches term (empty term
// lists all), annotated with fullness and, when forMember is non-zero,
// whether that member is registered. Soonest first.
func (d *Database) FindEvents(term string, forMember int64) ([]*EventSummary, error) {
	pattern := "%" + strings.TrimSpace(term) + "%"
	rows, err := d.db.Query(`
        SELECT e.id, e.name, e.event_date, COALESCE(e.room_id,0), e.max_capacity, e.attendance,
               COALESCE(r.capacity, 0),
               EXISTS(SELECT 1 FROM event_registrations g WHERE g.event_id = e.id AND g.member_id = ?)
        FROM events e
        LEFT JOIN library_rooms r ON r.id = e.room_id
        WHERE e.name LIKE ? OR e.event_date LIKE ?
        ORDER BY e.event_date, e.id`, forMember, pattern, pattern)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []*EventSummary
	for rows.Next() {
		var s EventSummary
		var roomCapacity int
		if err := rows.Scan(&s.ID, &s.Name, &s.Date, &s.RoomID, &s.MaxCapacity, &s.Attendance,
			&roomCapacity, &s.Registered); err != nil {
			return nil, err
		}
		s.Capacity = s.MaxCapacity
		if roomCapacity > 0 && roomCapacity < s.Capacity {
			s.Capacity = roomCapacity
		}
		s.Full = s.Attendance >= s.Capacity
		events = append(events, &s)
	}
	return events, rows.Err()
}
