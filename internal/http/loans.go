package http

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/elibrary/internal/audit"
	"github.com/mrlokans/elibrary/internal/auth"
	"github.com/mrlokans/elibrary/internal/entities"
)

const dueDateLayout = "2 Jan 2006"

// LoansController serves the member's loan pages and the loans API.
type LoansController struct {
	loans LoanManager
	audit AuditLogger
}

// NewLoansController creates a LoansController. auditLogger may be nil.
func NewLoansController(manager LoanManager, auditLogger AuditLogger) *LoansController {
	return &LoansController{
		loans: manager,
		audit: auditLogger,
	}
}

// loanAction is a lifecycle operation on an existing loan.
type loanAction struct {
	name    string // audit action
	message string // confirmation shown in the UI
	run     func(ctx context.Context, m LoanManager, loanID uint) (*entities.Loan, error)
}

var (
	renewAction = loanAction{
		name:    "loan_renew",
		message: "Loan renewed.",
		run: func(ctx context.Context, m LoanManager, id uint) (*entities.Loan, error) {
			return m.RenewLoan(ctx, id)
		},
	}
	returnAction = loanAction{
		name:    "loan_return",
		message: "Book returned. Thank you!",
		run: func(ctx context.Context, m LoanManager, id uint) (*entities.Loan, error) {
			return m.ReturnLoan(ctx, id)
		},
	}
	deleteAction = loanAction{
		name:    "loan_delete",
		message: "Loan removed from your history.",
		run: func(ctx context.Context, m LoanManager, id uint) (*entities.Loan, error) {
			return nil, m.DeleteLoan(ctx, id)
		},
	}
)

// LoansPage handles GET /loans
func (lc *LoansController) LoansPage(c *gin.Context) {
	user, err := auth.RequireAuthenticated(auth.CurrentIdentity(c))
	if err != nil {
		redirectWithError(c, err, "/books", "loans page")
		return
	}

	history, err := lc.loans.MemberLoans(c.Request.Context(), user.ID)
	if err != nil {
		logInternalError(err, "member loans")
		c.String(http.StatusInternalServerError, "Error loading loans")
		return
	}

	c.HTML(http.StatusOK, "loans", pageData(c, gin.H{
		"Active":   lc.loans.Views(history.Active),
		"Returned": lc.loans.Views(history.Returned),
	}))
}

// CreateLoan handles the borrow form post with field book_id.
func (lc *LoansController) CreateLoan(c *gin.Context) {
	bookID, err := parseID(c.PostForm("book_id"))
	if err != nil {
		c.Redirect(http.StatusSeeOther, withQuery("/books", "error", "Book not found."))
		return
	}
	bookPath := fmt.Sprintf("/books/%d", bookID)

	loan, err := lc.borrow(c, bookID)
	if err != nil {
		redirectWithError(c, err, bookPath, "create loan")
		return
	}

	view := lc.loans.View(*loan)
	redirectWithMessage(c, "/loans", fmt.Sprintf("You borrowed %q. It is due on %s.", loan.Book.Title, view.DueDate.Format(dueDateLayout)))
}

// RenewLoan handles POST /loans/:id/renew
func (lc *LoansController) RenewLoan(c *gin.Context) {
	lc.handleForm(c, renewAction)
}

// ReturnLoan handles POST /loans/:id/return
func (lc *LoansController) ReturnLoan(c *gin.Context) {
	lc.handleForm(c, returnAction)
}

// DeleteLoan handles POST /loans/:id/delete
func (lc *LoansController) DeleteLoan(c *gin.Context) {
	lc.handleForm(c, deleteAction)
}

func (lc *LoansController) handleForm(c *gin.Context, action loanAction) {
	back := backPath(c, "/loans")

	id, err := parseID(c.Param("id"))
	if err != nil {
		c.Redirect(http.StatusSeeOther, withQuery(back, "error", "Loan not found."))
		return
	}

	if _, err := lc.apply(c, id, action); err != nil {
		redirectWithError(c, err, back, action.name)
		return
	}
	redirectWithMessage(c, back, action.message)
}

// APIListLoans handles GET /api/loans
func (lc *LoansController) APIListLoans(c *gin.Context) {
	user, err := auth.RequireAuthenticated(auth.CurrentIdentity(c))
	if err != nil {
		respondAPIError(c, err, "list loans")
		return
	}

	history, err := lc.loans.MemberLoans(c.Request.Context(), user.ID)
	if err != nil {
		respondInternalError(c, err, "member loans")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"active":   lc.loans.Views(history.Active),
		"returned": lc.loans.Views(history.Returned),
	})
}

// CreateLoanRequest is the body of POST /api/loans.
type CreateLoanRequest struct {
	BookID uint `json:"book_id" binding:"required"`
}

// APICreateLoan handles POST /api/loans
func (lc *LoansController) APICreateLoan(c *gin.Context) {
	var req CreateLoanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "book_id is required")
		return
	}

	loan, err := lc.borrow(c, req.BookID)
	if err != nil {
		respondAPIError(c, err, "create loan")
		return
	}

	c.JSON(http.StatusCreated, lc.loans.View(*loan))
}

// APIRenewLoan handles POST /api/loans/:id/renew
func (lc *LoansController) APIRenewLoan(c *gin.Context) {
	lc.handleAPI(c, renewAction)
}

// APIReturnLoan handles POST /api/loans/:id/return
func (lc *LoansController) APIReturnLoan(c *gin.Context) {
	lc.handleAPI(c, returnAction)
}

// APIDeleteLoan handles DELETE /api/loans/:id
func (lc *LoansController) APIDeleteLoan(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	if _, err := lc.apply(c, id, deleteAction); err != nil {
		respondAPIError(c, err, deleteAction.name)
		return
	}
	c.Status(http.StatusNoContent)
}

func (lc *LoansController) handleAPI(c *gin.Context, action loanAction) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	loan, err := lc.apply(c, id, action)
	if err != nil {
		respondAPIError(c, err, action.name)
		return
	}
	c.JSON(http.StatusOK, lc.loans.View(*loan))
}

// borrow lends bookID to the caller.
func (lc *LoansController) borrow(c *gin.Context, bookID uint) (*entities.Loan, error) {
	id := auth.CurrentIdentity(c)
	user, err := auth.RequireAuthenticated(id)
	if err != nil {
		return nil, err
	}

	loan, err := lc.loans.CreateLoan(c.Request.Context(), user, bookID)
	var loanID uint
	if loan != nil {
		loanID = loan.ID
	}
	lc.logLoan(c, "loan_create", loanID, bookID, err)
	return loan, err
}

// apply runs action on a loan the caller owns, or on any loan for an admin.
func (lc *LoansController) apply(c *gin.Context, loanID uint, action loanAction) (*entities.Loan, error) {
	id := auth.CurrentIdentity(c)
	if _, err := auth.RequireAuthenticated(id); err != nil {
		return nil, err
	}

	ctx := c.Request.Context()
	current, err := lc.loans.GetLoan(ctx, loanID)
	if err != nil {
		return nil, err
	}
	if _, err := auth.RequireOwnerOrAdmin(id, current.MemberID); err != nil {
		return nil, err
	}

	loan, err := action.run(ctx, lc.loans, loanID)
	lc.logLoan(c, action.name, loanID, current.BookID, err)
	return loan, err
}

func (lc *LoansController) logLoan(c *gin.Context, action string, loanID, bookID uint, err error) {
	if lc.audit == nil {
		return
	}
	origin := audit.RequestOrigin(c, auth.CurrentIdentity(c).UserID())
	lc.audit.LogLoan(origin, action, loanID, bookID, err)
}
