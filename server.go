package main

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"library-records/library"
)

// server holds the handler dependencies. The handlers are thin glue:
// bind the form fields, call one LibraryManager operation, render the
// result page.
type server struct {
	mgr *library.LibraryManager
	log zerolog.Logger
}

func newServer(mgr *library.LibraryManager, log zerolog.Logger) *gin.Engine {
	s := &server{mgr: mgr, log: log}

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery(), s.requestLog())

	r.GET("/items", s.findItems)
	r.GET("/items/:id", s.getItem)
	r.POST("/items", s.addItem)

	r.POST("/borrow", s.borrowItem)
	r.POST("/return", s.returnItem)
	r.GET("/records/:id", s.getRecord)

	r.POST("/donations", s.donateItem)
	r.GET("/donors", s.listDonors)

	r.GET("/events", s.findEvents)
	r.POST("/events", s.addEvent)
	r.POST("/events/register", s.registerForEvent)
	r.POST("/events/unregister", s.unregisterFromEvent)
	r.GET("/rooms", s.listRooms)
	r.POST("/rooms", s.addRoom)

	r.POST("/persons", s.addPerson)
	r.GET("/persons/:id", s.getPerson)
	r.GET("/persons/:id/donations", s.listDonations)
	r.DELETE("/librarians/:id", s.terminateLibrarian)
	r.GET("/members", s.listMembers)
	r.GET("/members/:id/loans", s.listOpenLoans)
	r.GET("/members/:id/help-requests", s.listHelpRequests)
	r.GET("/volunteers", s.listVolunteers)

	r.POST("/help", s.requestHelp)
	r.POST("/help/:id/assign", s.assignHelpRequest)
	r.POST("/help/:id/resolve", s.resolveHelpRequest)

	return r
}

func (s *server) requestLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.log.Info().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("elapsed", time.Since(start)).
			Msg("request")
	}
}

// ---------------------------------------------------------------------------
// Result pages
// ---------------------------------------------------------------------------

type resultPage struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

func respond(c *gin.Context, status int, data any) {
	c.JSON(status, resultPage{Success: true, Data: data})
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, resultPage{Success: false, Error: err.Error()})
}

func (s *server) fail(c *gin.Context, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		s.log.Error().Err(err).Str("path", c.Request.URL.Path).Msg("request failed")
	}
	c.JSON(status, resultPage{Success: false, Error: err.Error()})
}

// statusFor maps the engine's typed errors to status codes: missing
// rows are 404, state conflicts 409, bad input 400. Anything untyped is
// a server error.
func statusFor(err error) int {
	switch {
	case errors.Is(err, library.ErrItemNotFound),
		errors.Is(err, library.ErrEventNotFound),
		errors.Is(err, library.ErrMemberNotFound),
		errors.Is(err, library.ErrPersonNotFound),
		errors.Is(err, library.ErrLibrarianNotFound),
		errors.Is(err, library.ErrRoomNotFound),
		errors.Is(err, library.ErrRecordNotFound),
		errors.Is(err, library.ErrRequestNotFound):
		return http.StatusNotFound
	case errors.Is(err, library.ErrItemUnavailable),
		errors.Is(err, library.ErrEventFull),
		errors.Is(err, library.ErrAlreadyRegistered),
		errors.Is(err, library.ErrDuplicateEmail),
		errors.Is(err, library.ErrPersonHasDonations):
		return http.StatusConflict
	case errors.Is(err, library.ErrNotRegistered),
		errors.Is(err, library.ErrInvalidRole),
		errors.Is(err, library.ErrInvalidPublicationYear),
		errors.Is(err, library.ErrSalaryBelowMinimum):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func paramID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, resultPage{Success: false, Error: "invalid id"})
		return 0, false
	}
	return id, true
}

// ---------------------------------------------------------------------------
// Catalog & circulation
// ---------------------------------------------------------------------------

func (s *server) findItems(c *gin.Context) {
	items, err := s.mgr.FindItems(c.Query("q"))
	if err != nil {
		s.fail(c, err)
		return
	}
	respond(c, http.StatusOK, items)
}

func (s *server) getItem(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	item, err := s.mgr.GetItem(id)
	if err != nil {
		s.fail(c, err)
		return
	}
	respond(c, http.StatusOK, item)
}

type itemForm struct {
	Title           string `form:"title" json:"title" binding:"required"`
	Type            string `form:"type" json:"type" binding:"required"`
	AuthorPublisher string `form:"author_publisher" json:"author_publisher"`
	ISBN            string `form:"isbn" json:"isbn"`
	PublicationYear int    `form:"publication_year" json:"publication_year"`
}

func (s *server) addItem(c *gin.Context) {
	var form itemForm
	if err := c.ShouldBind(&form); err != nil {
		badRequest(c, err)
		return
	}
	id, err := s.mgr.AddItem(form.Title, form.Type, form.AuthorPublisher, form.ISBN, form.PublicationYear)
	if err != nil {
		s.fail(c, err)
		return
	}
	respond(c, http.StatusCreated, gin.H{"item_id": id})
}

type borrowForm struct {
	MemberID int64 `form:"member_id" json:"member_id" binding:"required"`
	ItemID   int64 `form:"item_id" json:"item_id" binding:"required"`
}

func (s *server) borrowItem(c *gin.Context) {
	var form borrowForm
	if err := c.ShouldBind(&form); err != nil {
		badRequest(c, err)
		return
	}
	recordID, err := s.mgr.BorrowItem(form.MemberID, form.ItemID)
	if err != nil {
		s.fail(c, err)
		return
	}
	respond(c, http.StatusCreated, gin.H{"record_id": recordID})
}

type returnForm struct {
	RecordID int64 `form:"record_id" json:"record_id" binding:"required"`
}

func (s *server) returnItem(c *gin.Context) {
	var form returnForm
	if err := c.ShouldBind(&form); err != nil {
		badRequest(c, err)
		return
	}
	if err := s.mgr.ReturnItem(form.RecordID); err != nil {
		s.fail(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"record_id": form.RecordID})
}

func (s *server) getRecord(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	record, err := s.mgr.GetBorrowingRecord(id)
	if err != nil {
		s.fail(c, err)
		return
	}
	respond(c, http.StatusOK, record)
}

// ---------------------------------------------------------------------------
// Donations
// ---------------------------------------------------------------------------

type donationForm struct {
	DonorID         int64  `form:"donor_id" json:"donor_id" binding:"required"`
	Title           string `form:"title" json:"title" binding:"required"`
	Type            string `form:"type" json:"type" binding:"required"`
	AuthorPublisher string `form:"author_publisher" json:"author_publisher"`
	ISBN            string `form:"isbn" json:"isbn"`
	PublicationYear int    `form:"publication_year" json:"publication_year"`
}

func (s *server) donateItem(c *gin.Context) {
	var form donationForm
	if err := c.ShouldBind(&form); err != nil {
		badRequest(c, err)
		return
	}
	itemID, donationID, err := s.mgr.DonateItem(form.DonorID, form.Title, form.Type, form.AuthorPublisher, form.ISBN, form.PublicationYear)
	if err != nil {
		s.fail(c, err)
		return
	}
	respond(c, http.StatusCreated, gin.H{"item_id": itemID, "donation_id": donationID})
}

func (s *server) listDonors(c *gin.Context) {
	donors, err := s.mgr.ListDonors()
	if err != nil {
		s.fail(c, err)
		return
	}
	respond(c, http.StatusOK, donors)
}

func (s *server) listDonations(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	donations, err := s.mgr.ListDonations(id)
	if err != nil {
		s.fail(c, err)
		return
	}
	respond(c, http.StatusOK, donations)
}

// ---------------------------------------------------------------------------
// Events
// ---------------------------------------------------------------------------

func (s *server) findEvents(c *gin.Context) {
	var forMember int64
	if raw := c.Query("member_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, resultPage{Success: false, Error: "invalid member_id"})
			return
		}
		forMember = id
	}
	events, err := s.mgr.FindEvents(c.Query("q"), forMember)
	if err != nil {
		s.fail(c, err)
		return
	}
	respond(c, http.StatusOK, events)
}

type eventForm struct {
	Name        string `form:"name" json:"name" binding:"required"`
	Date        string `form:"date" json:"date" binding:"required"`
	RoomID      int64  `form:"room_id" json:"room_id"`
	MaxCapacity int    `form:"max_capacity" json:"max_capacity" binding:"required"`
}

func (s *server) addEvent(c *gin.Context) {
	var form eventForm
	if err := c.ShouldBind(&form); err != nil {
		badRequest(c, err)
		return
	}
	date, err := time.Parse("2006-01-02", form.Date)
	if err != nil {
		badRequest(c, err)
		return
	}
	id, err := s.mgr.AddEvent(form.Name, date, form.RoomID, form.MaxCapacity)
	if err != nil {
		s.fail(c, err)
		return
	}
	respond(c, http.StatusCreated, gin.H{"event_id": id})
}

type registrationForm struct {
	MemberID int64 `form:"member_id" json:"member_id" binding:"required"`
	EventID  int64 `form:"event_id" json:"event_id" binding:"required"`
}

func (s *server) registerForEvent(c *gin.Context) {
	var form registrationForm
	if err := c.ShouldBind(&form); err != nil {
		badRequest(c, err)
		return
	}
	id, err := s.mgr.RegisterForEvent(form.MemberID, form.EventID)
	if err != nil {
		s.fail(c, err)
		return
	}
	respond(c, http.StatusCreated, gin.H{"registration_id": id})
}

func (s *server) unregisterFromEvent(c *gin.Context) {
	var form registrationForm
	if err := c.ShouldBind(&form); err != nil {
		badRequest(c, err)
		return
	}
	if err := s.mgr.UnregisterFromEvent(form.MemberID, form.EventID); err != nil {
		s.fail(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"event_id": form.EventID})
}

func (s *server) listRooms(c *gin.Context) {
	rooms, err := s.mgr.ListRooms()
	if err != nil {
		s.fail(c, err)
		return
	}
	respond(c, http.StatusOK, rooms)
}

type roomForm struct {
	Capacity int    `form:"capacity" json:"capacity" binding:"required"`
	RoomType string `form:"room_type" json:"room_type" binding:"required"`
}

func (s *server) addRoom(c *gin.Context) {
	var form roomForm
	if err := c.ShouldBind(&form); err != nil {
		badRequest(c, err)
		return
	}
	id, err := s.mgr.AddRoom(form.Capacity, form.RoomType)
	if err != nil {
		s.fail(c, err)
		return
	}
	respond(c, http.StatusCreated, gin.H{"room_id": id})
}

// ---------------------------------------------------------------------------
// People
// ---------------------------------------------------------------------------

type personForm struct {
	Name    string `form:"name" json:"name" binding:"required"`
	Address string `form:"address" json:"address"`
	Phone   string `form:"phone" json:"phone"`
	Email   string `form:"email" json:"email" binding:"required,email"`
	Role    string `form:"role" json:"role" binding:"required"`
	Salary  int    `form:"salary" json:"salary"`
}

func (s *server) addPerson(c *gin.Context) {
	var form personForm
	if err := c.ShouldBind(&form); err != nil {
		badRequest(c, err)
		return
	}
	id, err := s.mgr.AddPerson(library.NewPerson{
		Name:    form.Name,
		Address: form.Address,
		Phone:   form.Phone,
		Email:   form.Email,
		Role:    form.Role,
		Salary:  form.Salary,
	})
	if err != nil {
		s.fail(c, err)
		return
	}
	respond(c, http.StatusCreated, gin.H{"person_id": id})
}

func (s *server) getPerson(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	person, err := s.mgr.GetPerson(id)
	if err != nil {
		s.fail(c, err)
		return
	}
	respond(c, http.StatusOK, person)
}

func (s *server) terminateLibrarian(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	if err := s.mgr.TerminateLibrarian(id); err != nil {
		s.fail(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"librarian_id": id})
}

func (s *server) listMembers(c *gin.Context) {
	members, err := s.mgr.ListMembers()
	if err != nil {
		s.fail(c, err)
		return
	}
	respond(c, http.StatusOK, members)
}

func (s *server) listOpenLoans(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	loans, err := s.mgr.ListOpenLoans(id)
	if err != nil {
		s.fail(c, err)
		return
	}
	respond(c, http.StatusOK, loans)
}

func (s *server) listHelpRequests(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	requests, err := s.mgr.ListHelpRequests(id)
	if err != nil {
		s.fail(c, err)
		return
	}
	respond(c, http.StatusOK, requests)
}

func (s *server) listVolunteers(c *gin.Context) {
	volunteers, err := s.mgr.ListVolunteers()
	if err != nil {
		s.fail(c, err)
		return
	}
	respond(c, http.StatusOK, volunteers)
}

// ---------------------------------------------------------------------------
// Help desk
// ---------------------------------------------------------------------------

type helpForm struct {
	MemberID    int64  `form:"member_id" json:"member_id" binding:"required"`
	Description string `form:"description" json:"description" binding:"required"`
}

func (s *server) requestHelp(c *gin.Context) {
	var form helpForm
	if err := c.ShouldBind(&form); err != nil {
		badRequest(c, err)
		return
	}
	id, err := s.mgr.RequestHelp(form.MemberID, form.Description)
	if err != nil {
		s.fail(c, err)
		return
	}
	respond(c, http.StatusCreated, gin.H{"request_id": id})
}

type assignForm struct {
	LibrarianID int64 `form:"librarian_id" json:"librarian_id" binding:"required"`
}

func (s *server) assignHelpRequest(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	var form assignForm
	if err := c.ShouldBind(&form); err != nil {
		badRequest(c, err)
		return
	}
	if err := s.mgr.AssignHelpRequest(id, form.LibrarianID); err != nil {
		s.fail(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"request_id": id})
}

func (s *server) resolveHelpRequest(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	if err := s.mgr.ResolveHelpRequest(id); err != nil {
		s.fail(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"request_id": id})
}
