// Package books provides catalog queries over the books table.
//
// # Usage
//
//	repo := books.NewRepository(db)
//	teens, err := repo.ListByCategory(ctx, "Teens")
package books

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/mrlokans/elibrary/internal/database"
	"github.com/mrlokans/elibrary/internal/entities"
)

// AllCategories is the category filter value that disables filtering.
const AllCategories = "all"

// Repository handles book database operations.
type Repository struct {
	*database.Repository[entities.Book]
}

// NewRepository creates a new books repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Repository: database.NewRepository[entities.Book](db)}
}

// ListByCategory returns books ordered by title. The category match ignores
// case; an empty category or "all" returns the whole catalog.
func (r *Repository) ListByCategory(ctx context.Context, category string) ([]entities.Book, error) {
	q := database.NewQuery().OrderBy("title", false)
	category = strings.TrimSpace(category)
	if category != "" && !strings.EqualFold(category, AllCategories) {
		q = q.Where(database.FoldEq("category", category))
	}
	return r.FindMany(ctx, q)
}

// FindByTitle returns the book with exactly this title.
func (r *Repository) FindByTitle(ctx context.Context, title string) (*entities.Book, error) {
	return r.FindOne(ctx, database.NewQuery(database.Eq("title", title)))
}

// Categories returns the distinct categories in the catalog, sorted.
func (r *Repository) Categories(ctx context.Context) ([]string, error) {
	var categories []string
	err := r.DB().WithContext(ctx).
		Model(&entities.Book{}).
		Distinct("category").
		Order("category ASC").
		Pluck("category", &categories).Error
	return categories, err
}
