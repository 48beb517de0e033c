package library

import "time"

// Role values accepted for Person rows. Each role owns exactly one
// subtype row (members, librarians or volunteers).
const (
	RoleMember    = "Member"
	RoleLibrarian = "Librarian"
	RoleVolunteer = "Volunteer"
)

// Membership and volunteer status values.
const (
	StatusActive   = "Active"
	StatusInactive = "Inactive"
)

// Help request status values.
const (
	HelpPending    = "Pending"
	HelpInProgress = "In Progress"
	HelpResolved   = "Resolved"
)

// Person is the base row shared by all roles.
type Person struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	Address string `json:"address"`
	Phone   string `json:"phone"`
	Email   string `json:"email"`
	Role    string `json:"role"`
}

// NewPerson describes a person to create along with their role subtype
// row. Salary applies to librarians only; zero means the configured
// floor.
type NewPerson struct {
	Name    string `json:"name"`
	Address string `json:"address"`
	Phone   string `json:"phone"`
	Email   string `json:"email"`
	Role    string `json:"role"`
	Salary  int    `json:"salary,omitempty"`
}

// Member is the membership view of a person.
type Member struct {
	PersonID int64     `json:"person_id"`
	Name     string    `json:"name"`
	Email    string    `json:"email"`
	JoinDate time.Time `json:"join_date"`
	Status   string    `json:"status"`
}

// Volunteer is the volunteer view of a person.
type Volunteer struct {
	PersonID int64     `json:"person_id"`
	Name     string    `json:"name"`
	Email    string    `json:"email"`
	Phone    string    `json:"phone"`
	JoinDate time.Time `json:"join_date"`
	Status   string    `json:"status"`
}

// Item is a catalog entry. Available mirrors the borrowing records: it
// is false exactly while an open record references the item.
type Item struct {
	ID              int64  `json:"id"`
	Title           string `json:"title"`
	Type            string `json:"type"`
	AuthorPublisher string `json:"author_publisher,omitempty"`
	ISBN            string `json:"isbn,omitempty"`
	PublicationYear int    `json:"publication_year,omitempty"`
	Available       bool   `json:"available"`
}

// BorrowingRecord links a member and an item. A record is open until
// ReturnDate is set; it never reopens.
type BorrowingRecord struct {
	ID         int64     `json:"id"`
	MemberID   int64     `json:"member_id"`
	ItemID     int64     `json:"item_id"`
	BorrowDate time.Time `json:"borrow_date"`
	DueDate    time.Time `json:"due_date"`
	ReturnDate time.Time `json:"return_date"`
	Fine       float64   `json:"fine"`
}

// Loan is an open borrowing record joined with its item, as shown on a
// member's loans page.
type Loan struct {
	RecordID   int64     `json:"record_id"`
	ItemID     int64     `json:"item_id"`
	Title      string    `json:"title"`
	BorrowDate time.Time `json:"borrow_date"`
	DueDate    time.Time `json:"due_date"`
}

// Event is a scheduled library event. Attendance mirrors the live
// registration count and never exceeds the effective capacity.
type Event struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Date        time.Time `json:"date"`
	RoomID      int64     `json:"room_id,omitempty"`
	MaxCapacity int       `json:"max_capacity"`
	Attendance  int       `json:"attendance"`
}

// EventSummary annotates an event for display: the effective capacity
// (declared maximum, bounded by the assigned room), whether it is full,
// and whether the member the query was run for is registered.
type EventSummary struct {
	Event
	Capacity   int  `json:"capacity"`
	Full       bool `json:"full"`
	Registered bool `json:"registered"`
}

// Donation records a person giving an item. The item row is always
// materialized by the donation itself.
type Donation struct {
	ID           int64     `json:"id"`
	DonorID      int64     `json:"donor_id"`
	ItemID       int64     `json:"item_id"`
	DateReceived time.Time `json:"date_received"`
}

// Donor aggregates a person's donation history.
type Donor struct {
	PersonID     int64     `json:"person_id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	Donations    int       `json:"donations"`
	LastDonation time.Time `json:"last_donation"`
}

// HelpRequest is a member's free-text request. LibrarianID is zero
// until the request is assigned.
type HelpRequest struct {
	ID          int64     `json:"id"`
	MemberID    int64     `json:"member_id"`
	LibrarianID int64     `json:"librarian_id,omitempty"`
	RequestDate time.Time `json:"request_date"`
	Description string    `json:"description"`
	Status      string    `json:"status"`
}

// Room is a library room referenced by events for the secondary
// capacity check.
type Room struct {
	ID       int64  `json:"id"`
	Capacity int    `json:"capacity"`
	RoomType string `json:"room_type"`
}
