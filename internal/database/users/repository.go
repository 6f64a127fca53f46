// Package users provides database operations for library members and staff.
//
// # Usage
//
//	repo := users.NewRepository(db)
//	user, err := repo.FindByEmail(ctx, "poh@lib.sg")
package users

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/mrlokans/elibrary/internal/database"
	"github.com/mrlokans/elibrary/internal/entities"
)

// Repository handles all user database operations.
type Repository struct {
	*database.Repository[entities.User]
}

// NewRepository creates a new users repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Repository: database.NewRepository[entities.User](db)}
}

// NormalizeEmail is the canonical stored form of an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// FindByEmail looks a user up by email, ignoring case.
func (r *Repository) FindByEmail(ctx context.Context, email string) (*entities.User, error) {
	return r.FindOne(ctx, database.NewQuery(database.Eq("email", NormalizeEmail(email))))
}

// FindByTokenHash looks a user up by the hash of their API token.
func (r *Repository) FindByTokenHash(ctx context.Context, hash string) (*entities.User, error) {
	if hash == "" {
		return nil, database.ErrNotFound
	}
	return r.FindOne(ctx, database.NewQuery(database.Eq("token_hash", hash)))
}

// EmailExists reports whether any user already uses the email.
func (r *Repository) EmailExists(ctx context.Context, email string) (bool, error) {
	count, err := r.Count(ctx, database.NewQuery(database.Eq("email", NormalizeEmail(email))))
	return count > 0, err
}
