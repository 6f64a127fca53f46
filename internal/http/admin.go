package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	loanstore "github.com/mrlokans/elibrary/internal/database/loans"
)

// AdminController serves the overdue report. Routes are mounted behind
// auth.Middleware.RequireAdmin.
type AdminController struct {
	loans LoanManager
	now   func() time.Time
}

func NewAdminController(manager LoanManager) *AdminController {
	return &AdminController{loans: manager, now: time.Now}
}

// OverdueRow is a report line with the days it is late.
type OverdueRow struct {
	loanstore.OverdueRow
	DueDate     time.Time `json:"due_date"`
	DaysOverdue int       `json:"days_overdue"`
}

func (ac *AdminController) overdueRows(c *gin.Context) ([]OverdueRow, error) {
	report, err := ac.loans.OverdueReport(c.Request.Context())
	if err != nil {
		return nil, err
	}

	rows := make([]OverdueRow, 0, len(report))
	for _, r := range report {
		view := ac.loans.View(r.Loan())
		rows = append(rows, OverdueRow{
			OverdueRow:  r,
			DueDate:     view.DueDate,
			DaysOverdue: view.DaysOverdue,
		})
	}
	return rows, nil
}

// OverdueLoansPage handles GET /admin/loans
func (ac *AdminController) OverdueLoansPage(c *gin.Context) {
	rows, err := ac.overdueRows(c)
	if err != nil {
		logInternalError(err, "overdue report")
		c.String(http.StatusInternalServerError, "Error loading overdue loans")
		return
	}

	c.HTML(http.StatusOK, "admin-loans", pageData(c, gin.H{
		"Rows":        rows,
		"Count":       len(rows),
		"GeneratedAt": ac.now().Format(time.RFC1123),
	}))
}

// APIOverdueLoans handles GET /api/admin/loans/overdue
func (ac *AdminController) APIOverdueLoans(c *gin.Context) {
	rows, err := ac.overdueRows(c)
	if err != nil {
		respondInternalError(c, err, "overdue report")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"loans": rows,
		"count": len(rows),
	})
}
