// Package catalog lists, shows and adds books, and seeds the initial catalog.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"log"

	"gorm.io/gorm"

	"github.com/mrlokans/elibrary/internal/database"
	"github.com/mrlokans/elibrary/internal/database/books"
	"github.com/mrlokans/elibrary/internal/entities"
	"github.com/mrlokans/elibrary/internal/validation"
)

type Service struct {
	books *books.Repository
}

func NewService(db *gorm.DB) *Service {
	return &Service{books: books.NewRepository(db)}
}

// ListBooks returns the catalog ordered by title, filtered by category when
// one other than "all" is given.
func (s *Service) ListBooks(ctx context.Context, category string) ([]entities.Book, error) {
	list, err := s.books.ListByCategory(ctx, category)
	if err != nil {
		return nil, fmt.Errorf("list books: %w", err)
	}
	return list, nil
}

func (s *Service) GetBook(ctx context.Context, id uint) (*entities.Book, error) {
	book, err := s.books.Get(ctx, id)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, fmt.Errorf("book %d: %w", id, database.ErrNotFound)
		}
		return nil, fmt.Errorf("get book %d: %w", id, err)
	}
	return book, nil
}

func (s *Service) Categories(ctx context.Context) ([]string, error) {
	return s.books.Categories(ctx)
}

func (s *Service) Count(ctx context.Context) (int64, error) {
	return s.books.Count(ctx, database.NewQuery())
}

// AddBook validates the input and stores a new book with every copy on the
// shelf.
func (s *Service) AddBook(ctx context.Context, in NewBookInput) (*entities.Book, error) {
	in.normalize()
	if err := validation.Struct(in); err != nil {
		return nil, err
	}

	book := in.book()
	if err := s.books.Save(ctx, book); err != nil {
		return nil, fmt.Errorf("add book: %w", err)
	}

	log.Printf("Added book %q (id=%d, copies=%d)", book.Title, book.ID, book.Copies)
	return book, nil
}

// Seed inserts the given books when the catalog is empty and reports how many
// were added.
func (s *Service) Seed(ctx context.Context, seed []SeedBook) (int, error) {
	count, err := s.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("count books: %w", err)
	}
	if count > 0 {
		log.Printf("Catalog already contains %d books, skipping seed", count)
		return 0, nil
	}

	err = s.books.DB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := books.NewRepository(tx)
		for _, sb := range seed {
			if err := repo.Save(ctx, sb.Book()); err != nil {
				return fmt.Errorf("seed %q: %w", sb.Title, err)
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	log.Printf("Seeded catalog with %d books", len(seed))
	return len(seed), nil
}
