// Package loans provides database operations for loan records.
//
// # Usage
//
//	repo := loans.NewRepository(tx)
//	active, err := repo.ListActiveForMember(ctx, userID)
package loans

import (
	"context"

	"gorm.io/gorm"

	"github.com/mrlokans/elibrary/internal/database"
	"github.com/mrlokans/elibrary/internal/entities"
)

// Repository handles loan database operations.
type Repository struct {
	*database.Repository[entities.Loan]
}

// NewRepository creates a new loans repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Repository: database.NewRepository[entities.Loan](db)}
}

// GetWithBook loads a loan together with its book and member.
func (r *Repository) GetWithBook(ctx context.Context, id uint) (*entities.Loan, error) {
	return r.FindOne(ctx, database.NewQuery(database.Eq("id", id)).Preload("Book", "Member"))
}

// FindActive returns the unreturned loan for the member and book, if any.
func (r *Repository) FindActive(ctx context.Context, memberID, bookID uint) (*entities.Loan, error) {
	return r.FindOne(ctx, database.NewQuery(
		database.Eq("member_id", memberID),
		database.Eq("book_id", bookID),
		database.IsNull("return_date"),
	))
}

// ListForMember returns all of a member's loans, most recently borrowed first.
func (r *Repository) ListForMember(ctx context.Context, memberID uint) ([]entities.Loan, error) {
	return r.FindMany(ctx, database.NewQuery(database.Eq("member_id", memberID)).
		OrderBy("borrow_date", true).
		Preload("Book"))
}

// ListActiveForMember returns a member's unreturned loans, most recently
// borrowed first.
func (r *Repository) ListActiveForMember(ctx context.Context, memberID uint) ([]entities.Loan, error) {
	return r.FindMany(ctx, database.NewQuery(
		database.Eq("member_id", memberID),
		database.IsNull("return_date"),
	).OrderBy("borrow_date", true).Preload("Book"))
}

// ListReturnedForMember returns a member's returned loans, most recently
// returned first.
func (r *Repository) ListReturnedForMember(ctx context.Context, memberID uint) ([]entities.Loan, error) {
	return r.FindMany(ctx, database.NewQuery(
		database.Eq("member_id", memberID),
		database.NotNull("return_date"),
	).OrderBy("return_date", true).Preload("Book"))
}

// CountActiveForBook returns how many copies of a book are out on loan.
func (r *Repository) CountActiveForBook(ctx context.Context, bookID uint) (int64, error) {
	return r.Count(ctx, database.NewQuery(
		database.Eq("book_id", bookID),
		database.IsNull("return_date"),
	))
}
