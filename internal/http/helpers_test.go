package http

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/mrlokans/elibrary/internal/auth"
	"github.com/mrlokans/elibrary/internal/database"
	"github.com/mrlokans/elibrary/internal/ledger"
	"github.com/mrlokans/elibrary/internal/loans"
	"github.com/mrlokans/elibrary/internal/validation"
)

func TestClassifyError(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"no copies", ledger.ErrNoCopiesAvailable, http.StatusConflict, "no_copies_available"},
		{"all copies present", ledger.ErrAllCopiesPresent, http.StatusConflict, "all_copies_present"},
		{"duplicate loan", loans.ErrDuplicateActiveLoan, http.StatusConflict, "duplicate_active_loan"},
		{"already returned", loans.ErrAlreadyReturned, http.StatusConflict, "already_returned"},
		{"renewal limit", loans.ErrRenewalLimitReached, http.StatusConflict, "renewal_limit_reached"},
		{"still active", loans.ErrLoanStillActive, http.StatusConflict, "loan_still_active"},
		{"admin borrow", loans.ErrAdminCannotBorrow, http.StatusForbidden, "admin_cannot_borrow"},
		{"unauthenticated", auth.ErrUnauthenticated, http.StatusUnauthorized, "unauthenticated"},
		{"forbidden", auth.ErrForbidden, http.StatusForbidden, "forbidden"},
		{"wrapped not found", fmt.Errorf("loan 7: %w", database.ErrNotFound), http.StatusNotFound, "not_found"},
		{"validation", validation.Failed("title", "required"), http.StatusBadRequest, "validation_failed"},
		{
			"reconciliation wins over its cause",
			fmt.Errorf("%w: %w", loans.ErrReturnReconciliationFailed, ledger.ErrAllCopiesPresent),
			http.StatusInternalServerError, "return_reconciliation_failed",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			de, ok := classifyError(tc.err)
			assert.True(t, ok)
			assert.Equal(t, tc.status, de.status)
			assert.Equal(t, tc.code, de.code)
			assert.NotEmpty(t, de.message)
		})
	}

	t.Run("unknown errors are not classified", func(t *testing.T) {
		_, ok := classifyError(errors.New("disk on fire"))
		assert.False(t, ok)
	})
}

func TestRespondAPIError_HidesInternalErrors(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	respondAPIError(c, errors.New("sql: connection refused at 10.0.0.5"), "test")

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "10.0.0.5")
	assert.Contains(t, w.Body.String(), `"code":"internal"`)
}

func TestRespondAPIError_ValidationDetails(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	respondAPIError(c, validation.Failed("title", "required"), "test")

	assert.Equal(t, http.StatusBadRequest, w.Code)
	body := decodeJSON(t, w)
	assert.Equal(t, "validation_failed", body["code"])
	assert.NotEmpty(t, body["details"])
}

func TestRedirectWithError(t *testing.T) {
	t.Run("domain error keeps its message", func(t *testing.T) {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest(http.MethodPost, "/loans", nil)

		redirectWithError(c, ledger.ErrNoCopiesAvailable, "/books/3", "test")

		assert.Equal(t, http.StatusSeeOther, w.Code)
		path, query := redirectTarget(t, w)
		assert.Equal(t, "/books/3", path)
		assert.Contains(t, query.Get("error"), "No copies")
	})

	t.Run("unauthenticated goes to login", func(t *testing.T) {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest(http.MethodGet, "/loans", nil)

		redirectWithError(c, auth.ErrUnauthenticated, "/books", "test")

		path, query := redirectTarget(t, w)
		assert.Equal(t, "/login", path)
		assert.Equal(t, "/loans", query.Get("next"))
	})

	t.Run("internal error gets a generic message", func(t *testing.T) {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest(http.MethodPost, "/loans", nil)

		redirectWithError(c, errors.New("database is locked"), "/loans", "test")

		_, query := redirectTarget(t, w)
		assert.NotContains(t, query.Get("error"), "locked")
	})
}

func TestWithQuery(t *testing.T) {
	assert.Equal(t, "/loans?message=ok", withQuery("/loans", "message", "ok"))
	assert.Equal(t, "/books?category=Adult&error=a+b", withQuery("/books?category=Adult", "error", "a b"))
}

func TestBackPath(t *testing.T) {
	tests := []struct {
		name    string
		referer string
		want    string
	}{
		{"no referer", "", "/loans"},
		{"same host", "http://example.com/admin/loans?error=x", "/admin/loans"},
		{"relative", "/books/2", "/books/2"},
		{"other host", "http://evil.example/loans", "/loans"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodPost, "http://example.com/loans/1/renew", nil)
			if tc.referer != "" {
				c.Request.Header.Set("Referer", tc.referer)
			}
			assert.Equal(t, tc.want, backPath(c, "/loans"))
		})
	}
}

func TestParseIDParam(t *testing.T) {
	tests := []struct {
		value string
		id    uint
		ok    bool
	}{
		{"123", 123, true},
		{"abc", 0, false},
		{"-1", 0, false},
		{"0", 0, false},
	}

	for _, tc := range tests {
		t.Run(tc.value, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Params = gin.Params{{Key: "id", Value: tc.value}}

			id, ok := parseIDParam(c, "id")

			assert.Equal(t, tc.ok, ok)
			assert.Equal(t, tc.id, id)
			if !ok {
				assert.Equal(t, http.StatusBadRequest, w.Code)
				assert.Contains(t, w.Body.String(), "invalid id")
			}
		})
	}
}

func TestRequestIDMiddleware(t *testing.T) {
	router := gin.New()
	router.Use(RequestIDMiddleware())
	router.GET("/", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	t.Run("generates an id", func(t *testing.T) {
		w := perform(router, http.MethodGet, "/", nil, nil)
		assert.Len(t, w.Header().Get("X-Request-ID"), 36)
	})

	t.Run("keeps the client's id", func(t *testing.T) {
		w := perform(router, http.MethodGet, "/", nil, map[string]string{"X-Request-ID": "abc-123"})
		assert.Equal(t, "abc-123", w.Header().Get("X-Request-ID"))
	})
}
