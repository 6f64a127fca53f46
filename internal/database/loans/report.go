package loans

import (
	"context"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/sqlite3" // dialect registration

	"github.com/mrlokans/elibrary/internal/entities"
)

const dialectSQLite = "sqlite3"

// OverdueRow is one line of the overdue report.
type OverdueRow struct {
	LoanID      uint      `json:"loan_id"`
	MemberID    uint      `json:"member_id"`
	MemberName  string    `json:"member_name"`
	MemberEmail string    `json:"member_email"`
	BookID      uint      `json:"book_id"`
	BookTitle   string    `json:"book_title"`
	BorrowDate  time.Time `json:"borrow_date"`
	RenewCount  int       `json:"renew_count"`
}

// Loan rebuilds the active loan the row describes, enough for due-date math.
func (r OverdueRow) Loan() entities.Loan {
	return entities.Loan{
		ID:         r.LoanID,
		MemberID:   r.MemberID,
		BookID:     r.BookID,
		BorrowDate: r.BorrowDate,
		RenewCount: r.RenewCount,
	}
}

// buildOverdueQuery selects active loans borrowed before the cutoff, oldest first.
func buildOverdueQuery(borrowedBefore time.Time) (string, []any, error) {
	stmt := goqu.Dialect(dialectSQLite).
		From(goqu.T("loans").As("l")).
		Join(goqu.T("users").As("u"), goqu.On(goqu.I("u.id").Eq(goqu.I("l.member_id")))).
		Join(goqu.T("books").As("b"), goqu.On(goqu.I("b.id").Eq(goqu.I("l.book_id")))).
		Select(
			goqu.I("l.id").As("loan_id"),
			goqu.I("u.id").As("member_id"),
			goqu.I("u.name").As("member_name"),
			goqu.I("u.email").As("member_email"),
			goqu.I("b.id").As("book_id"),
			goqu.I("b.title").As("book_title"),
			goqu.I("l.borrow_date").As("borrow_date"),
			goqu.I("l.renew_count").As("renew_count"),
		).
		Where(
			goqu.I("l.return_date").IsNull(),
			goqu.I("l.borrow_date").Lt(borrowedBefore),
		).
		Order(goqu.I("l.borrow_date").Asc(), goqu.I("l.id").Asc()).
		Prepared(true)

	return stmt.ToSQL()
}

// OverdueReport lists active loans whose borrow date is before borrowedBefore,
// i.e. now minus the loan period.
func (r *Repository) OverdueReport(ctx context.Context, borrowedBefore time.Time) ([]OverdueRow, error) {
	query, args, err := buildOverdueQuery(borrowedBefore.UTC())
	if err != nil {
		return nil, fmt.Errorf("build overdue query: %w", err)
	}

	var rows []OverdueRow
	if err := r.DB().WithContext(ctx).Raw(query, args...).Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("run overdue query: %w", err)
	}
	return rows, nil
}
