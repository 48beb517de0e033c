package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"library-records/library"
)

func newTestServer(t *testing.T) *gin.Engine {
	t.Helper()
	mgr, err := library.NewLibraryManager(filepath.Join(t.TempDir(), "lib.db"))
	require.NoError(t, err)
	t.Cleanup(func() { mgr.Close() })
	return newServer(mgr, zerolog.Nop())
}

func postForm(t *testing.T, r *gin.Engine, path string, form url.Values) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func get(t *testing.T, r *gin.Engine, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// dataField pulls one numeric field out of a result page.
func dataField(t *testing.T, w *httptest.ResponseRecorder, field string) int64 {
	t.Helper()
	var page struct {
		Success bool                       `json:"success"`
		Data    map[string]json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &page))
	require.True(t, page.Success)
	var id int64
	require.NoError(t, json.Unmarshal(page.Data[field], &id))
	return id
}

func addPersonHTTP(t *testing.T, r *gin.Engine, name, email, role string) int64 {
	t.Helper()
	w := postForm(t, r, "/persons", url.Values{
		"name":  {name},
		"email": {email},
		"role":  {role},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return dataField(t, w, "person_id")
}

func TestBorrowFlowOverHTTP(t *testing.T) {
	r := newTestServer(t)

	memberID := addPersonHTTP(t, r, "John Doe", "john@email.com", library.RoleMember)

	w := postForm(t, r, "/items", url.Values{
		"title":            {"The Great Gatsby"},
		"type":             {"Book"},
		"author_publisher": {"F. Scott Fitzgerald"},
		"publication_year": {"1925"},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	itemID := dataField(t, w, "item_id")

	borrow := url.Values{
		"member_id": {strconv.FormatInt(memberID, 10)},
		"item_id":   {strconv.FormatInt(itemID, 10)},
	}
	w = postForm(t, r, "/borrow", borrow)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	recordID := dataField(t, w, "record_id")

	// Item shows unavailable in search while on loan.
	w = get(t, r, "/items?q=gatsby")
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), `"available":false`)

	// A second borrow conflicts.
	w = postForm(t, r, "/borrow", borrow)
	require.Equal(t, http.StatusConflict, w.Code, w.Body.String())

	w = postForm(t, r, "/return", url.Values{"record_id": {strconv.FormatInt(recordID, 10)}})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = get(t, r, "/items?q=gatsby")
	require.Contains(t, w.Body.String(), `"available":true`)

	// Returning the closed record again is a 404.
	w = postForm(t, r, "/return", url.Values{"record_id": {strconv.FormatInt(recordID, 10)}})
	require.Equal(t, http.StatusNotFound, w.Code, w.Body.String())
}

func TestEventRegistrationOverHTTP(t *testing.T) {
	r := newTestServer(t)

	aliceID := addPersonHTTP(t, r, "Alice", "alice@email.com", library.RoleMember)
	bobID := addPersonHTTP(t, r, "Bob", "bob@email.com", library.RoleMember)

	w := postForm(t, r, "/rooms", url.Values{"capacity": {"1"}, "room_type": {"Meeting Room"}})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	roomID := dataField(t, w, "room_id")

	w = postForm(t, r, "/events", url.Values{
		"name":         {"Book Club Meeting"},
		"date":         {"2026-09-15"},
		"room_id":      {strconv.FormatInt(roomID, 10)},
		"max_capacity": {"30"},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	eventID := dataField(t, w, "event_id")

	reg := func(memberID int64) *httptest.ResponseRecorder {
		return postForm(t, r, "/events/register", url.Values{
			"member_id": {strconv.FormatInt(memberID, 10)},
			"event_id":  {strconv.FormatInt(eventID, 10)},
		})
	}

	require.Equal(t, http.StatusCreated, reg(aliceID).Code)
	// Alice again: conflict. Bob: room of one is full.
	require.Equal(t, http.StatusConflict, reg(aliceID).Code)
	require.Equal(t, http.StatusConflict, reg(bobID).Code)

	w = get(t, r, "/events?q=club&member_id="+strconv.FormatInt(aliceID, 10))
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), `"full":true`)
	require.Contains(t, w.Body.String(), `"registered":true`)
}

func TestErrorMapping(t *testing.T) {
	r := newTestServer(t)
	memberID := addPersonHTTP(t, r, "Alice", "alice@email.com", library.RoleMember)

	// Duplicate email: conflict, regardless of role.
	w := postForm(t, r, "/persons", url.Values{
		"name": {"Imposter"}, "email": {"alice@email.com"}, "role": {library.RoleVolunteer},
	})
	require.Equal(t, http.StatusConflict, w.Code, w.Body.String())

	// Donation with an impossible year: bad request.
	w = postForm(t, r, "/donations", url.Values{
		"donor_id": {strconv.FormatInt(memberID, 10)},
		"title":    {"Old Scroll"}, "type": {"Book"}, "publication_year": {"800"},
	})
	require.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())

	// Missing form fields: bad request before the engine is reached.
	w = postForm(t, r, "/borrow", url.Values{"member_id": {"1"}})
	require.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())

	// Unknown ids: not found.
	w = postForm(t, r, "/return", url.Values{"record_id": {"12345"}})
	require.Equal(t, http.StatusNotFound, w.Code, w.Body.String())
}

func TestDonationListsDonor(t *testing.T) {
	r := newTestServer(t)
	donorID := addPersonHTTP(t, r, "Alice Brown", "alice@email.com", library.RoleVolunteer)

	w := postForm(t, r, "/donations", url.Values{
		"donor_id": {strconv.FormatInt(donorID, 10)},
		"title":    {"Dune"},
		"type":     {"Book"},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	itemID := dataField(t, w, "item_id")

	// The materialized item is in the catalog and available.
	w = get(t, r, "/items/"+strconv.FormatInt(itemID, 10))
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), `"available":true`)

	w = get(t, r, "/donors")
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "Alice Brown")

	w = get(t, r, "/persons/"+strconv.FormatInt(donorID, 10)+"/donations")
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), `"item_id":`+strconv.FormatInt(itemID, 10))
}
