package loans

import (
	"math"
	"time"

	"github.com/mrlokans/elibrary/internal/entities"
)

const (
	// DefaultLoanPeriod is how long a loan runs before it is overdue.
	DefaultLoanPeriod = 14 * 24 * time.Hour

	// DefaultMaxRenewals caps how many times one loan may be renewed.
	DefaultMaxRenewals = 2
)

const day = 24 * time.Hour

// Policy holds the lending rules.
type Policy struct {
	LoanPeriod  time.Duration
	MaxRenewals int
}

// DefaultPolicy returns a fourteen day loan with two renewals.
func DefaultPolicy() Policy {
	return Policy{
		LoanPeriod:  DefaultLoanPeriod,
		MaxRenewals: DefaultMaxRenewals,
	}
}

func (p Policy) withDefaults() Policy {
	if p.LoanPeriod <= 0 {
		p.LoanPeriod = DefaultLoanPeriod
	}
	if p.MaxRenewals < 0 {
		p.MaxRenewals = DefaultMaxRenewals
	}
	return p
}

// periodDays is the loan period in whole days.
func (p Policy) periodDays() int {
	return int(p.LoanPeriod / day)
}

// DueDate is the borrow date plus the loan period.
func (p Policy) DueDate(loan *entities.Loan) time.Time {
	return loan.BorrowDate.Add(p.LoanPeriod)
}

// IsOverdue reports whether an active loan has passed its due date.
// Returned loans are never overdue.
func (p Policy) IsOverdue(loan *entities.Loan, now time.Time) bool {
	return loan.ReturnDate == nil && now.After(p.DueDate(loan))
}

// DurationDays counts whole days from borrowing until the return, or until
// now for an active loan.
func (p Policy) DurationDays(loan *entities.Loan, now time.Time) int {
	end := now
	if loan.ReturnDate != nil {
		end = *loan.ReturnDate
	}
	elapsed := end.Sub(loan.BorrowDate)
	if elapsed < 0 {
		return 0
	}
	return int(math.Floor(elapsed.Hours() / 24))
}

// DaysOverdue is how many whole days the loan ran past its period.
func (p Policy) DaysOverdue(loan *entities.Loan, now time.Time) int {
	return max(0, p.DurationDays(loan, now)-p.periodDays())
}

// RenewalsLeft is how many more times the loan may be renewed.
func (p Policy) RenewalsLeft(loan *entities.Loan) int {
	return max(0, p.MaxRenewals-loan.RenewCount)
}
