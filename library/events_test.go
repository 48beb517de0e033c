package library

import (
	"errors"
	"testing"
	"time"
)

// checkAttendanceMirror asserts every event's attendance counter equals
// its live registration count.
func checkAttendanceMirror(t *testing.T, db *Database) {
	t.Helper()
	var broken int
	err := db.db.QueryRow(`
        SELECT COUNT(*) FROM events e
        WHERE e.attendance != (SELECT COUNT(*) FROM event_registrations g WHERE g.event_id = e.id)`).
		Scan(&broken)
	if err != nil {
		t.Fatalf("mirror query: %v", err)
	}
	if broken != 0 {
		t.Fatalf("%d events with attendance out of sync with registrations", broken)
	}
}

func addTestEvent(t *testing.T, db *Database, name string, roomID int64, capacity int) int64 {
	t.Helper()
	id, err := db.AddEvent(name, time.Now().Add(7*24*time.Hour), roomID, capacity)
	if err != nil {
		t.Fatalf("add event %s: %v", name, err)
	}
	return id
}

func TestRegisterIncrementsOnce(t *testing.T) {
	db := tempDB(t)
	memberID := addTestMember(t, db, "alice")
	eventID := addTestEvent(t, db, "Book Club", 0, 10)

	if _, err := db.RegisterForEvent(memberID, eventID); err != nil {
		t.Fatalf("register: %v", err)
	}
	checkAttendanceMirror(t, db)

	// Second registration rejected, attendance untouched.
	if _, err := db.RegisterForEvent(memberID, eventID); !errors.Is(err, ErrAlreadyRegistered) {
		t.Fatalf("duplicate: want ErrAlreadyRegistered, got %v", err)
	}
	ev, err := db.GetEvent(eventID)
	if err != nil {
		t.Fatalf("get event: %v", err)
	}
	if ev.Attendance != 1 {
		t.Fatalf("attendance incremented twice: %d", ev.Attendance)
	}
	checkAttendanceMirror(t, db)
}

func TestRegisterAtCapacity(t *testing.T) {
	db := tempDB(t)
	aliceID := addTestMember(t, db, "alice")
	bobID := addTestMember(t, db, "bob")
	eventID := addTestEvent(t, db, "Tiny Workshop", 0, 1)

	if _, err := db.RegisterForEvent(aliceID, eventID); err != nil {
		t.Fatalf("register: %v", err)
	}
	if _, err := db.RegisterForEvent(bobID, eventID); !errors.Is(err, ErrEventFull) {
		t.Fatalf("full event: want ErrEventFull, got %v", err)
	}
	ev, _ := db.GetEvent(eventID)
	if ev.Attendance != 1 {
		t.Fatalf("attendance changed by rejected registration: %d", ev.Attendance)
	}
}

func TestRoomCapacityBoundsEvent(t *testing.T) {
	db := tempDB(t)
	aliceID := addTestMember(t, db, "alice")
	bobID := addTestMember(t, db, "bob")

	// Declared capacity 50, but the room only holds one.
	roomID, err := db.AddRoom(1, "Meeting Room")
	if err != nil {
		t.Fatalf("add room: %v", err)
	}
	eventID := addTestEvent(t, db, "Story Time", roomID, 50)

	if _, err := db.RegisterForEvent(aliceID, eventID); err != nil {
		t.Fatalf("register: %v", err)
	}
	if _, err := db.RegisterForEvent(bobID, eventID); !errors.Is(err, ErrEventFull) {
		t.Fatalf("room full: want ErrEventFull, got %v", err)
	}
}

func TestUnregister(t *testing.T) {
	db := tempDB(t)
	memberID := addTestMember(t, db, "alice")
	eventID := addTestEvent(t, db, "Book Club", 0, 10)

	if err := db.UnregisterFromEvent(memberID, eventID); !errors.Is(err, ErrNotRegistered) {
		t.Fatalf("never registered: want ErrNotRegistered, got %v", err)
	}

	if _, err := db.RegisterForEvent(memberID, eventID); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := db.UnregisterFromEvent(memberID, eventID); err != nil {
		t.Fatalf("unregister: %v", err)
	}
	checkAttendanceMirror(t, db)

	ev, _ := db.GetEvent(eventID)
	if ev.Attendance != 0 {
		t.Fatalf("attendance after unregister: %d", ev.Attendance)
	}

	// Re-registration after cancelling looks like a fresh one.
	if _, err := db.RegisterForEvent(memberID, eventID); err != nil {
		t.Fatalf("re-register: %v", err)
	}
	checkAttendanceMirror(t, db)
}

func TestFindEventsAnnotations(t *testing.T) {
	db := tempDB(t)
	aliceID := addTestMember(t, db, "alice")
	bobID := addTestMember(t, db, "bob")
	clubID := addTestEvent(t, db, "Book Club", 0, 1)
	addTestEvent(t, db, "Programming Workshop", 0, 20)

	if _, err := db.RegisterForEvent(aliceID, clubID); err != nil {
		t.Fatalf("register: %v", err)
	}

	events, err := db.FindEvents("", aliceID)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("want 2 events, got %d", len(events))
	}
	for _, ev := range events {
		switch ev.ID {
		case clubID:
			if !ev.Full || !ev.Registered {
				t.Fatalf("club should be full and registered for alice: %+v", ev)
			}
		default:
			if ev.Full || ev.Registered {
				t.Fatalf("workshop should be open and unregistered: %+v", ev)
			}
		}
	}

	// Same listing for bob: not registered anywhere.
	events, _ = db.FindEvents("club", bobID)
	if len(events) != 1 || events[0].Registered {
		t.Fatalf("name filter for bob: got %+v", events)
	}
}

func TestListRooms(t *testing.T) {
	db := tempDB(t)
	studyID, err := db.AddRoom(30, "Study Room")
	if err != nil {
		t.Fatalf("add room: %v", err)
	}
	if _, err := db.AddRoom(100, "Event Hall"); err != nil {
		t.Fatalf("add room: %v", err)
	}

	rooms, err := db.ListRooms()
	if err != nil {
		t.Fatalf("list rooms: %v", err)
	}
	if len(rooms) != 2 {
		t.Fatalf("want 2 rooms, got %d", len(rooms))
	}
	if rooms[0].ID != studyID || rooms[0].Capacity != 30 || rooms[0].RoomType != "Study Room" {
		t.Fatalf("first room: %+v", rooms[0])
	}
}

func TestAddEventValidation(t *testing.T) {
	db := tempDB(t)
	if _, err := db.AddEvent("No Room", time.Now(), 42, 10); !errors.Is(err, ErrRoomNotFound) {
		t.Fatalf("missing room: want ErrRoomNotFound, got %v", err)
	}
	if _, err := db.AddEvent("", time.Now(), 0, 10); err == nil {
		t.Fatal("empty name accepted")
	}
	if _, err := db.AddEvent("Bad Capacity", time.Now(), 0, 0); err == nil {
		t.Fatal("zero capacity accepted")
	}
}
