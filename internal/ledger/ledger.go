// Package ledger owns the available-copy count of every book.
//
// Borrow and Return are single conditional UPDATE statements, so two
// concurrent borrowers can never both take the last copy and the count
// always stays within [0, copies]. Callers that combine a ledger change
// with other writes bind the ledger to their transaction with WithTx.
package ledger

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/mrlokans/elibrary/internal/database"
	"github.com/mrlokans/elibrary/internal/database/books"
	"github.com/mrlokans/elibrary/internal/entities"
)

var (
	ErrNoCopiesAvailable = errors.New("no copies available")
	ErrAllCopiesPresent  = errors.New("all copies are already on the shelf")
)

// Ledger mutates Book.Available. Nothing else in the application writes
// that column.
type Ledger struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Ledger {
	return &Ledger{db: db}
}

// WithTx returns a ledger whose writes join tx.
func (l *Ledger) WithTx(tx *gorm.DB) *Ledger {
	return &Ledger{db: tx}
}

// Borrow takes one copy off the shelf and returns the updated book.
func (l *Ledger) Borrow(ctx context.Context, bookID uint) (*entities.Book, error) {
	result := l.db.WithContext(ctx).
		Model(&entities.Book{}).
		Where("id = ? AND available > 0", bookID).
		Update("available", gorm.Expr("available - 1"))
	if result.Error != nil {
		return nil, fmt.Errorf("borrow book %d: %w", bookID, result.Error)
	}
	if result.RowsAffected == 0 {
		if _, err := l.load(ctx, bookID); err != nil {
			return nil, err
		}
		return nil, ErrNoCopiesAvailable
	}
	return l.load(ctx, bookID)
}

// Return puts one copy back on the shelf and returns the updated book.
// A count found below zero is repaired to zero.
func (l *Ledger) Return(ctx context.Context, bookID uint) (*entities.Book, error) {
	result := l.db.WithContext(ctx).
		Model(&entities.Book{}).
		Where("id = ? AND available < copies", bookID).
		Update("available", gorm.Expr("MAX(available + 1, 0)"))
	if result.Error != nil {
		return nil, fmt.Errorf("return book %d: %w", bookID, result.Error)
	}
	if result.RowsAffected == 0 {
		if _, err := l.load(ctx, bookID); err != nil {
			return nil, err
		}
		return nil, ErrAllCopiesPresent
	}
	return l.load(ctx, bookID)
}

func (l *Ledger) load(ctx context.Context, bookID uint) (*entities.Book, error) {
	book, err := books.NewRepository(l.db).Get(ctx, bookID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, fmt.Errorf("book %d: %w", bookID, database.ErrNotFound)
		}
		return nil, err
	}
	return book, nil
}
