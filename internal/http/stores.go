package http

import (
	"context"

	"github.com/mikestefanello/backlite"

	"github.com/mrlokans/elibrary/internal/audit"
	"github.com/mrlokans/elibrary/internal/catalog"
	loanstore "github.com/mrlokans/elibrary/internal/database/loans"
	"github.com/mrlokans/elibrary/internal/entities"
	"github.com/mrlokans/elibrary/internal/loans"
)

// Each controller depends on the smallest interface it needs so tests can
// pass hand-written fakes.

// BookCatalog reads and adds books.
type BookCatalog interface {
	ListBooks(ctx context.Context, category string) ([]entities.Book, error)
	GetBook(ctx context.Context, id uint) (*entities.Book, error)
	Categories(ctx context.Context) ([]string, error)
	AddBook(ctx context.Context, in catalog.NewBookInput) (*entities.Book, error)
}

// LoanManager runs the loan lifecycle.
type LoanManager interface {
	CreateLoan(ctx context.Context, user *entities.User, bookID uint) (*entities.Loan, error)
	RenewLoan(ctx context.Context, loanID uint) (*entities.Loan, error)
	ReturnLoan(ctx context.Context, loanID uint) (*entities.Loan, error)
	DeleteLoan(ctx context.Context, loanID uint) error
	GetLoan(ctx context.Context, loanID uint) (*entities.Loan, error)
	MemberLoans(ctx context.Context, memberID uint) (*loans.History, error)
	OverdueReport(ctx context.Context) ([]loanstore.OverdueRow, error)
	View(loan entities.Loan) loans.View
	Views(list []entities.Loan) []loans.View
}

// AuditLogger records catalog and loan changes.
type AuditLogger interface {
	LogLoan(origin audit.Origin, action string, loanID, bookID uint, err error)
	LogCatalog(origin audit.Origin, action string, bookID uint, title string, err error)
}

// TaskQueue enqueues background tasks and reports their status.
type TaskQueue interface {
	Enqueue(ctx context.Context, task backlite.Task) (string, error)
	Status(ctx context.Context, taskID string) (backlite.TaskStatus, error)
}

var (
	_ BookCatalog = (*catalog.Service)(nil)
	_ LoanManager = (*loans.Manager)(nil)
	_ AuditLogger = (*audit.Service)(nil)
)
