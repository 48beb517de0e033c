package library

import "errors"

// Business-rule violations surfaced to callers. The engine returns
// these (possibly wrapped) instead of raw store errors so handlers can
// match with errors.Is and pick the right result page. A failed
// precondition always rolls the whole transaction back.
var (
	ErrItemNotFound           = errors.New("item not found")
	ErrItemUnavailable        = errors.New("item is not available for borrowing")
	ErrRecordNotFound         = errors.New("borrowing record not found or already closed")
	ErrEventNotFound          = errors.New("event not found")
	ErrEventFull              = errors.New("event has reached maximum capacity")
	ErrAlreadyRegistered      = errors.New("member is already registered for this event")
	ErrNotRegistered          = errors.New("member is not registered for this event")
	ErrDuplicateEmail         = errors.New("email is already in use")
	ErrInvalidRole            = errors.New("role must be Member, Librarian or Volunteer")
	ErrInvalidPublicationYear = errors.New("publication year is out of range")
	ErrSalaryBelowMinimum     = errors.New("librarian salary is below the minimum")
	ErrPersonNotFound         = errors.New("person not found")
	ErrPersonHasDonations     = errors.New("person has donation records on file")
	ErrMemberNotFound         = errors.New("member not found")
	ErrLibrarianNotFound      = errors.New("librarian not found")
	ErrRoomNotFound           = errors.New("room not found")
	ErrRequestNotFound        = errors.New("help request not found")
)
