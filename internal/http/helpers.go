package http

import (
	"errors"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/elibrary/internal/auth"
	"github.com/mrlokans/elibrary/internal/database"
	"github.com/mrlokans/elibrary/internal/entities"
	"github.com/mrlokans/elibrary/internal/ledger"
	"github.com/mrlokans/elibrary/internal/loans"
	"github.com/mrlokans/elibrary/internal/validation"
)

// --- Response Types ---

// ErrorResponse is the standard error response format for all API errors.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`    // machine-readable error code
	Details any    `json:"details,omitempty"` // per-field validation messages
}

// --- Error Mapping ---

// domainError is how a known error is presented to clients.
type domainError struct {
	status  int
	code    string
	message string
}

// classifyError maps errors from the service packages to a status, a code and
// a user-facing message. ok is false for unexpected errors, which must not be
// shown to the client.
func classifyError(err error) (domainError, bool) {
	switch {
	case errors.Is(err, loans.ErrReturnReconciliationFailed):
		return domainError{http.StatusInternalServerError, "return_reconciliation_failed", "The return could not be recorded. Please try again."}, true
	case errors.Is(err, ledger.ErrNoCopiesAvailable):
		return domainError{http.StatusConflict, "no_copies_available", "No copies of this book are available right now."}, true
	case errors.Is(err, ledger.ErrAllCopiesPresent):
		return domainError{http.StatusConflict, "all_copies_present", "Every copy of this book is already on the shelf."}, true
	case errors.Is(err, loans.ErrDuplicateActiveLoan):
		return domainError{http.StatusConflict, "duplicate_active_loan", "You already have this book on loan."}, true
	case errors.Is(err, loans.ErrAlreadyReturned):
		return domainError{http.StatusConflict, "already_returned", "This loan has already been returned."}, true
	case errors.Is(err, loans.ErrRenewalLimitReached):
		return domainError{http.StatusConflict, "renewal_limit_reached", "This loan cannot be renewed again."}, true
	case errors.Is(err, loans.ErrLoanStillActive):
		return domainError{http.StatusConflict, "loan_still_active", "Return the book before deleting the loan."}, true
	case errors.Is(err, loans.ErrAdminCannotBorrow):
		return domainError{http.StatusForbidden, "admin_cannot_borrow", "Administrators cannot borrow books."}, true
	case errors.Is(err, auth.ErrUnauthenticated):
		return domainError{http.StatusUnauthorized, "unauthenticated", "Please log in to continue."}, true
	case errors.Is(err, auth.ErrForbidden):
		return domainError{http.StatusForbidden, "forbidden", "You do not have permission to do that."}, true
	case errors.Is(err, database.ErrNotFound):
		return domainError{http.StatusNotFound, "not_found", "Not found."}, true
	case errors.Is(err, validation.ErrValidationFailed):
		return domainError{http.StatusBadRequest, "validation_failed", validationSummary(err)}, true
	default:
		return domainError{}, false
	}
}

func validationSummary(err error) string {
	var verr *validation.Error
	if errors.As(err, &verr) {
		if messages := verr.Messages(); len(messages) > 0 {
			return strings.Join(messages, " ")
		}
	}
	return "The submitted data is invalid."
}

// --- Error Response Helpers ---

// respondBadRequest sends a 400 Bad Request response.
func respondBadRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, ErrorResponse{Error: message, Code: "bad_request"})
}

// respondInternalError logs the error and sends a 500 Internal Server Error response.
// The actual error is logged but not exposed to the client.
func respondInternalError(c *gin.Context, err error, context string) {
	logInternalError(err, context)
	c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error", Code: "internal"})
}

func logInternalError(err error, context string) {
	log.Printf("Internal error (%s): %v", context, err)
}

// respondAPIError answers an API call with the mapped status and code.
func respondAPIError(c *gin.Context, err error, context string) {
	de, ok := classifyError(err)
	if !ok {
		respondInternalError(c, err, context)
		return
	}
	if de.status == http.StatusInternalServerError {
		logInternalError(err, context)
	}

	resp := ErrorResponse{Error: de.message, Code: de.code}
	var verr *validation.Error
	if errors.As(err, &verr) {
		resp.Details = verr.Messages()
	}
	c.JSON(de.status, resp)
}

// redirectWithError sends a browser back to path with an error message.
// Anonymous callers go to the login page instead.
func redirectWithError(c *gin.Context, err error, path, context string) {
	if errors.Is(err, auth.ErrUnauthenticated) {
		c.Redirect(http.StatusSeeOther, auth.LoginRedirect(c))
		return
	}

	de, ok := classifyError(err)
	if !ok || de.status == http.StatusInternalServerError {
		logInternalError(err, context)
	}
	if !ok {
		de.message = "Something went wrong. Please try again."
	}
	c.Redirect(http.StatusSeeOther, withQuery(path, "error", de.message))
}

// redirectWithMessage sends a browser to path with a confirmation message.
func redirectWithMessage(c *gin.Context, path, message string) {
	c.Redirect(http.StatusSeeOther, withQuery(path, "message", message))
}

func withQuery(path, key, value string) string {
	separator := "?"
	if strings.Contains(path, "?") {
		separator = "&"
	}
	return path + separator + key + "=" + url.QueryEscape(value)
}

// backPath is the local page the request came from, or fallback. Query
// strings are dropped so messages do not pile up.
func backPath(c *gin.Context, fallback string) string {
	referer := c.Request.Referer()
	if referer == "" {
		return fallback
	}
	u, err := url.Parse(referer)
	if err != nil || (u.Host != "" && u.Host != c.Request.Host) {
		return fallback
	}
	if !strings.HasPrefix(u.Path, "/") || strings.HasPrefix(u.Path, "//") {
		return fallback
	}
	return u.Path
}

// requireAdmin is auth.RequireAdmin that tells anonymous callers to log in
// rather than forbidding them.
func requireAdmin(c *gin.Context) (*entities.User, error) {
	id := auth.CurrentIdentity(c)
	if _, err := auth.RequireAuthenticated(id); err != nil {
		return nil, err
	}
	return auth.RequireAdmin(id)
}

// --- Parameter Parsing ---

// parseIDParam extracts and validates an unsigned integer ID from URL parameters.
// Returns the parsed ID or responds with a 400 error and returns 0, false.
func parseIDParam(c *gin.Context, paramName string) (uint, bool) {
	id, err := parseID(c.Param(paramName))
	if err != nil {
		respondBadRequest(c, "invalid "+paramName)
		return 0, false
	}
	return id, true
}

func parseID(s string) (uint, error) {
	id, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0, err
	}
	if id == 0 {
		return 0, strconv.ErrRange
	}
	return uint(id), nil
}
