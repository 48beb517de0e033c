package library

import "time"

// LibraryManager is a thin façade over the Database. It is the whole
// surface the presentation layer (web handlers, seeding tool) calls;
// the handlers bind request fields, call one method, and render the
// result.
type LibraryManager struct {
	db *Database
}

// NewLibraryManager opens (or creates) the SQLite database at dbPath.
func NewLibraryManager(dbPath string) (*LibraryManager, error) {
	return NewLibraryManagerWithOptions(dbPath, Options{})
}

// NewLibraryManagerWithOptions opens the database with explicit
// business knobs.
func NewLibraryManagerWithOptions(dbPath string, opts Options) (*LibraryManager, error) {
	db, err := NewDatabaseWithOptions(dbPath, opts)
	if err != nil {
		return nil, err
	}
	return &LibraryManager{db: db}, nil
}

// Close closes the underlying database.
func (lm *LibraryManager) Close() error { return lm.db.Close() }

// ------------------ People ------------------

func (lm *LibraryManager) AddPerson(p NewPerson) (int64, error) { return lm.db.AddPerson(p) }
func (lm *LibraryManager) GetPerson(id int64) (*Person, error)  { return lm.db.GetPerson(id) }
func (lm *LibraryManager) TerminateLibrarian(id int64) error    { return lm.db.TerminateLibrarian(id) }
func (lm *LibraryManager) ListMembers() ([]*Member, error)      { return lm.db.ListMembers() }
func (lm *LibraryManager) ListVolunteers() ([]*Volunteer, error) {
	return lm.db.ListVolunteers()
}

// ------------------ Catalog ------------------

func (lm *LibraryManager) AddItem(title, itemType, authorPublisher, isbn string, year int) (int64, error) {
	return lm.db.AddItem(title, itemType, authorPublisher, isbn, year)
}

func (lm *LibraryManager) GetItem(id int64) (*Item, error)        { return lm.db.GetItem(id) }
func (lm *LibraryManager) FindItems(term string) ([]*Item, error) { return lm.db.FindItems(term) }

// ------------------ Circulation ------------------

func (lm *LibraryManager) BorrowItem(memberID, itemID int64) (int64, error) {
	return lm.db.BorrowItem(memberID, itemID)
}

func (lm *LibraryManager) ReturnItem(recordID int64) error { return lm.db.ReturnItem(recordID) }

func (lm *LibraryManager) GetBorrowingRecord(id int64) (*BorrowingRecord, error) {
	return lm.db.GetBorrowingRecord(id)
}

func (lm *LibraryManager) ListOpenLoans(memberID int64) ([]*Loan, error) {
	return lm.db.ListOpenLoans(memberID)
}

// ------------------ Events ------------------

func (lm *LibraryManager) AddRoom(capacity int, roomType string) (int64, error) {
	return lm.db.AddRoom(capacity, roomType)
}

func (lm *LibraryManager) ListRooms() ([]*Room, error) { return lm.db.ListRooms() }

func (lm *LibraryManager) AddEvent(name string, date time.Time, roomID int64, maxCapacity int) (int64, error) {
	return lm.db.AddEvent(name, date, roomID, maxCapacity)
}

func (lm *LibraryManager) GetEvent(id int64) (*Event, error) { return lm.db.GetEvent(id) }

func (lm *LibraryManager) RegisterForEvent(memberID, eventID int64) (int64, error) {
	return lm.db.RegisterForEvent(memberID, eventID)
}

func (lm *LibraryManager) UnregisterFromEvent(memberID, eventID int64) error {
	return lm.db.UnregisterFromEvent(memberID, eventID)
}

func (lm *LibraryManager) FindEvents(term string, forMember int64) ([]*EventSummary, error) {
	return lm.db.FindEvents(term, forMember)
}

// ------------------ Donations ------------------

func (lm *LibraryManager) DonateItem(donorID int64, title, itemType, authorPublisher, isbn string, year int) (int64, int64, error) {
	return lm.db.DonateItem(donorID, title, itemType, authorPublisher, isbn, year)
}

func (lm *LibraryManager) ListDonors() ([]*Donor, error) { return lm.db.ListDonors() }

func (lm *LibraryManager) ListDonations(donorID int64) ([]*Donation, error) {
	return lm.db.ListDonations(donorID)
}

// ------------------ Help desk ------------------

func (lm *LibraryManager) RequestHelp(memberID int64, description string) (int64, error) {
	return lm.db.RequestHelp(memberID, description)
}

func (lm *LibraryManager) AssignHelpRequest(requestID, librarianID int64) error {
	return lm.db.AssignHelpRequest(requestID, librarianID)
}

func (lm *LibraryManager) ResolveHelpRequest(requestID int64) error {
	return lm.db.ResolveHelpRequest(requestID)
}

func (lm *LibraryManager) ListHelpRequests(memberID int64) ([]*HelpRequest, error) {
	return lm.db.ListHelpRequests(memberID)
}
