// Package loans runs the loan lifecycle: borrowing, renewing, returning and
// deleting loans.
//
// A loan moves Active -> Returned, may renew while active up to the policy
// cap, and can only be deleted once returned. CreateLoan and ReturnLoan touch
// both the loan and the book's available count; each runs in a single
// transaction with the ledger bound to it, so a failure on either side leaves
// neither row changed.
package loans

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/mrlokans/elibrary/internal/database"
	"github.com/mrlokans/elibrary/internal/database/books"
	loanstore "github.com/mrlokans/elibrary/internal/database/loans"
	"github.com/mrlokans/elibrary/internal/entities"
	"github.com/mrlokans/elibrary/internal/ledger"
	"github.com/mrlokans/elibrary/internal/metrics"
)

const (
	OpCreate = "create"
	OpRenew  = "renew"
	OpReturn = "return"
	OpDelete = "delete"
)

var errNoMember = errors.New("loan requires a member")

type Manager struct {
	db     *gorm.DB
	ledger *ledger.Ledger
	policy Policy
	now    func() time.Time
}

func NewManager(db *gorm.DB, l *ledger.Ledger, policy Policy) *Manager {
	if l == nil {
		l = ledger.New(db)
	}
	return &Manager{
		db:     db,
		ledger: l,
		policy: policy.withDefaults(),
		now:    time.Now,
	}
}

// SetClock replaces the time source. Used by tests and the demo generator.
func (m *Manager) SetClock(now func() time.Time) {
	m.now = now
}

func (m *Manager) Policy() Policy {
	return m.policy
}

// Now returns the manager's current time in UTC.
func (m *Manager) Now() time.Time {
	return m.now().UTC()
}

// CreateLoan lends one copy of the book to user.
func (m *Manager) CreateLoan(ctx context.Context, user *entities.User, bookID uint) (loan *entities.Loan, err error) {
	defer observe(OpCreate, time.Now(), &err)

	if user == nil || user.ID == 0 {
		return nil, errNoMember
	}
	if user.IsAdmin {
		return nil, ErrAdminCannotBorrow
	}

	err = database.RetryOnBusy(ctx, func(ctx context.Context) error {
		return m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			book, err := books.NewRepository(tx).Get(ctx, bookID)
			if err != nil {
				return notFound("book", bookID, err)
			}

			repo := loanstore.NewRepository(tx)
			if _, err := repo.FindActive(ctx, user.ID, bookID); err == nil {
				return ErrDuplicateActiveLoan
			} else if !errors.Is(err, database.ErrNotFound) {
				return fmt.Errorf("check active loan: %w", err)
			}

			if !book.CanBorrow() {
				return ledger.ErrNoCopiesAvailable
			}

			book, err = m.ledger.WithTx(tx).Borrow(ctx, bookID)
			if err != nil {
				return err
			}

			created := &entities.Loan{
				MemberID:   user.ID,
				BookID:     bookID,
				BorrowDate: m.Now(),
			}
			if err := tx.Omit(clause.Associations).Create(created).Error; err != nil {
				if errors.Is(err, gorm.ErrDuplicatedKey) {
					return ErrDuplicateActiveLoan
				}
				return fmt.Errorf("create loan: %w", err)
			}

			created.Book = *book
			created.Member = *user
			loan = created
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return loan, nil
}

// RenewLoan extends an active loan by restarting its borrow date.
func (m *Manager) RenewLoan(ctx context.Context, loanID uint) (loan *entities.Loan, err error) {
	defer observe(OpRenew, time.Now(), &err)

	err = database.RetryOnBusy(ctx, func(ctx context.Context) error {
		result := m.db.WithContext(ctx).
			Model(&entities.Loan{}).
			Where("id = ? AND return_date IS NULL AND renew_count < ?", loanID, m.policy.MaxRenewals).
			Updates(map[string]any{
				"renew_count": gorm.Expr("renew_count + 1"),
				"borrow_date": m.Now(),
			})
		if result.Error != nil {
			return fmt.Errorf("renew loan %d: %w", loanID, result.Error)
		}
		if result.RowsAffected == 0 {
			return m.classifyRenewal(ctx, loanID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return m.GetLoan(ctx, loanID)
}

func (m *Manager) classifyRenewal(ctx context.Context, loanID uint) error {
	current, err := loanstore.NewRepository(m.db).Get(ctx, loanID)
	if err != nil {
		return notFound("loan", loanID, err)
	}
	if !current.IsActive() {
		return ErrAlreadyReturned
	}
	if current.RenewCount >= m.policy.MaxRenewals {
		return ErrRenewalLimitReached
	}
	return fmt.Errorf("renew loan %d: no rows updated", loanID)
}

// ReturnLoan records the return and puts the copy back on the shelf. When the
// ledger refuses the copy, the return is rolled back and the error matches
// both ErrReturnReconciliationFailed and the ledger error.
func (m *Manager) ReturnLoan(ctx context.Context, loanID uint) (loan *entities.Loan, err error) {
	defer observe(OpReturn, time.Now(), &err)

	err = database.RetryOnBusy(ctx, func(ctx context.Context) error {
		return m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			current, err := loanstore.NewRepository(tx).Get(ctx, loanID)
			if err != nil {
				return notFound("loan", loanID, err)
			}
			if !current.IsActive() {
				return ErrAlreadyReturned
			}

			result := tx.Model(&entities.Loan{}).
				Where("id = ? AND return_date IS NULL", loanID).
				Update("return_date", m.Now())
			if result.Error != nil {
				return fmt.Errorf("return loan %d: %w", loanID, result.Error)
			}
			if result.RowsAffected == 0 {
				return ErrAlreadyReturned
			}

			if _, err := m.ledger.WithTx(tx).Return(ctx, current.BookID); err != nil {
				return fmt.Errorf("%w: %w", ErrReturnReconciliationFailed, err)
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return m.GetLoan(ctx, loanID)
}

// DeleteLoan removes a returned loan.
func (m *Manager) DeleteLoan(ctx context.Context, loanID uint) (err error) {
	defer observe(OpDelete, time.Now(), &err)

	return database.RetryOnBusy(ctx, func(ctx context.Context) error {
		result := m.db.WithContext(ctx).
			Where("id = ? AND return_date IS NOT NULL", loanID).
			Delete(&entities.Loan{})
		if result.Error != nil {
			return fmt.Errorf("delete loan %d: %w", loanID, result.Error)
		}
		if result.RowsAffected > 0 {
			return nil
		}

		current, err := loanstore.NewRepository(m.db).Get(ctx, loanID)
		if err != nil {
			return notFound("loan", loanID, err)
		}
		if current.IsActive() {
			return ErrLoanStillActive
		}
		return fmt.Errorf("delete loan %d: no rows deleted", loanID)
	})
}

// GetLoan loads a loan with its book and member.
func (m *Manager) GetLoan(ctx context.Context, loanID uint) (*entities.Loan, error) {
	loan, err := loanstore.NewRepository(m.db).GetWithBook(ctx, loanID)
	if err != nil {
		return nil, notFound("loan", loanID, err)
	}
	return loan, nil
}

// History is a member's loans split by state.
type History struct {
	Active   []entities.Loan
	Returned []entities.Loan
}

// MemberLoans returns the member's active loans, newest borrow first, and
// returned loans, newest return first.
func (m *Manager) MemberLoans(ctx context.Context, memberID uint) (*History, error) {
	repo := loanstore.NewRepository(m.db)

	active, err := repo.ListActiveForMember(ctx, memberID)
	if err != nil {
		return nil, fmt.Errorf("list active loans: %w", err)
	}
	returned, err := repo.ListReturnedForMember(ctx, memberID)
	if err != nil {
		return nil, fmt.Errorf("list returned loans: %w", err)
	}
	return &History{Active: active, Returned: returned}, nil
}

// OverdueReport lists every active loan past its due date, oldest first.
func (m *Manager) OverdueReport(ctx context.Context) ([]loanstore.OverdueRow, error) {
	cutoff := m.Now().Add(-m.policy.LoanPeriod)
	return loanstore.NewRepository(m.db).OverdueReport(ctx, cutoff)
}

func (m *Manager) DueDate(loan *entities.Loan) time.Time {
	return m.policy.DueDate(loan)
}

func (m *Manager) IsOverdue(loan *entities.Loan) bool {
	return m.policy.IsOverdue(loan, m.Now())
}

func (m *Manager) DurationDays(loan *entities.Loan) int {
	return m.policy.DurationDays(loan, m.Now())
}

func (m *Manager) DaysOverdue(loan *entities.Loan) int {
	return m.policy.DaysOverdue(loan, m.Now())
}

func notFound(kind string, id uint, err error) error {
	if errors.Is(err, database.ErrNotFound) {
		return fmt.Errorf("%s %d: %w", kind, id, database.ErrNotFound)
	}
	return fmt.Errorf("load %s %d: %w", kind, id, err)
}

func observe(operation string, start time.Time, err *error) {
	metrics.ObserveLoanOperation(operation, Reason(*err), start)
}

// Reason is a short machine-readable label for a lifecycle error, used as a
// metric label and API error code. It returns "" for nil.
func Reason(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrReturnReconciliationFailed):
		return "return_reconciliation_failed"
	case errors.Is(err, ledger.ErrNoCopiesAvailable):
		return "no_copies_available"
	case errors.Is(err, ledger.ErrAllCopiesPresent):
		return "all_copies_present"
	case errors.Is(err, ErrDuplicateActiveLoan):
		return "duplicate_active_loan"
	case errors.Is(err, ErrAlreadyReturned):
		return "already_returned"
	case errors.Is(err, ErrRenewalLimitReached):
		return "renewal_limit_reached"
	case errors.Is(err, ErrLoanStillActive):
		return "loan_still_active"
	case errors.Is(err, ErrAdminCannotBorrow):
		return "admin_cannot_borrow"
	case errors.Is(err, database.ErrNotFound):
		return "not_found"
	default:
		return "error"
	}
}
