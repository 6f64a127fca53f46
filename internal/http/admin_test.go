package http

import (
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	loanstore "github.com/mrlokans/elibrary/internal/database/loans"
	"github.com/mrlokans/elibrary/internal/entities"
)

func TestAdminController_Overdue(t *testing.T) {
	manager := newFakeLoans()
	manager.overdue = []loanstore.OverdueRow{
		{
			LoanID:     12,
			MemberID:   member.ID,
			MemberName: member.Name,
			BookID:     1,
			BookTitle:  "Matilda",
			// 19 days before the fake clock's 20 Mar.
			BorrowDate: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
		},
	}
	controller := NewAdminController(manager)
	router := newTestEngine(admin)
	router.GET("/admin/loans", controller.OverdueLoansPage)
	router.GET("/api/admin/loans/overdue", controller.APIOverdueLoans)

	t.Run("page", func(t *testing.T) {
		w := perform(router, http.MethodGet, "/admin/loans", nil, nil)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "admin-loans count=1")
	})

	t.Run("api adds due date and days overdue", func(t *testing.T) {
		w := perform(router, http.MethodGet, "/api/admin/loans/overdue", nil, nil)

		assert.Equal(t, http.StatusOK, w.Code)
		body := decodeJSON(t, w)
		assert.Equal(t, float64(1), body["count"])

		rows := body["loans"].([]any)
		require.Len(t, rows, 1)
		row := rows[0].(map[string]any)
		assert.Equal(t, "Matilda", row["book_title"])
		assert.Equal(t, float64(5), row["days_overdue"])
		assert.Equal(t, "2024-03-15T12:00:00Z", row["due_date"])
	})

	t.Run("report failure", func(t *testing.T) {
		failing := newFakeLoans()
		failing.opErr = errors.New("query failed")
		router := newTestEngine(admin)
		router.GET("/api/admin/loans/overdue", NewAdminController(failing).APIOverdueLoans)

		w := perform(router, http.MethodGet, "/api/admin/loans/overdue", nil, nil)
		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})
}

type fakeAuditReader struct {
	events    []entities.AuditEvent
	eventType entities.AuditEventType
	userID    uint
	limit     int
	offset    int
}

func (f *fakeAuditReader) GetEvents(userID uint, limit, offset int) ([]entities.AuditEvent, int64, error) {
	f.userID, f.limit, f.offset = userID, limit, offset
	return f.events, int64(len(f.events)), nil
}

func (f *fakeAuditReader) GetEventsByType(eventType entities.AuditEventType, userID uint, limit, offset int) ([]entities.AuditEvent, int64, error) {
	f.eventType = eventType
	return f.GetEvents(userID, limit, offset)
}

func (f *fakeAuditReader) GetEventsForEntity(entityType string, entityID uint) ([]entities.AuditEvent, error) {
	var out []entities.AuditEvent
	for _, e := range f.events {
		if e.EntityType == entityType && e.EntityID != nil && *e.EntityID == entityID {
			out = append(out, e)
		}
	}
	return out, nil
}

func TestAuditController(t *testing.T) {
	loanID := uint(10)
	reader := &fakeAuditReader{events: []entities.AuditEvent{
		{ID: 1, EventType: entities.AuditEventLoan, Action: "loan_create", EntityType: "loan", EntityID: &loanID},
		{ID: 2, EventType: entities.AuditEventAuth, Action: "login", EntityType: "user"},
	}}
	controller := NewAuditController(reader)
	router := newTestEngine(admin)
	router.GET("/api/admin/audit", controller.GetAuditEvents)
	router.GET("/api/admin/loans/:id/history", controller.GetLoanHistory)

	t.Run("pages through events", func(t *testing.T) {
		w := perform(router, http.MethodGet, "/api/admin/audit?page=3&limit=10&user_id=7", nil, nil)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, uint(7), reader.userID)
		assert.Equal(t, 10, reader.limit)
		assert.Equal(t, 20, reader.offset)
		assert.Equal(t, float64(2), decodeJSON(t, w)["total_events"])
	})

	t.Run("filters by type and clamps the limit", func(t *testing.T) {
		w := perform(router, http.MethodGet, "/api/admin/audit?type=loan&limit=1000", nil, nil)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, entities.AuditEventLoan, reader.eventType)
		assert.Equal(t, 25, reader.limit)
	})

	t.Run("loan history", func(t *testing.T) {
		w := perform(router, http.MethodGet, "/api/admin/loans/10/history", nil, nil)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Len(t, decodeJSON(t, w)["events"], 1)
	})
}
