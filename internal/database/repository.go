package database

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = errors.New("record not found")

// Repository is the generic data access contract shared by the entity
// repositories. It is bound to a *gorm.DB at construction, which may be a
// transaction handle.
type Repository[T any] struct {
	db *gorm.DB
}

// NewRepository creates a repository for entity type T.
func NewRepository[T any](db *gorm.DB) *Repository[T] {
	return &Repository[T]{db: db}
}

// DB returns the handle the repository was built with.
func (r *Repository[T]) DB() *gorm.DB {
	return r.db
}

// Get loads an entity by primary key.
func (r *Repository[T]) Get(ctx context.Context, id uint) (*T, error) {
	return r.FindOne(ctx, NewQuery(Eq("id", id)))
}

// FindOne returns the first entity matching q, or ErrNotFound.
func (r *Repository[T]) FindOne(ctx context.Context, q Query) (*T, error) {
	var out T
	err := q.apply(r.db.WithContext(ctx)).Take(&out).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &out, nil
}

// FindMany returns every entity matching q in the order q specifies.
func (r *Repository[T]) FindMany(ctx context.Context, q Query) ([]T, error) {
	var out []T
	if err := q.apply(r.db.WithContext(ctx)).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// Save inserts the entity if it has no primary key yet, otherwise updates it.
func (r *Repository[T]) Save(ctx context.Context, entity *T) error {
	if err := r.db.WithContext(ctx).Save(entity).Error; err != nil {
		return fmt.Errorf("save %T: %w", entity, err)
	}
	return nil
}

// Delete removes the entity by primary key.
func (r *Repository[T]) Delete(ctx context.Context, entity *T) error {
	result := r.db.WithContext(ctx).Delete(entity)
	if result.Error != nil {
		return fmt.Errorf("delete %T: %w", entity, result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Count returns the number of entities matching q.
func (r *Repository[T]) Count(ctx context.Context, q Query) (int64, error) {
	var count int64
	q.orders, q.preloads, q.limit, q.offset = nil, nil, 0, 0
	err := q.apply(r.db.WithContext(ctx).Model(new(T))).Count(&count).Error
	return count, err
}
