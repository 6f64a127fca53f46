package catalog

import (
	"slices"

	"github.com/go-playground/validator/v10"

	"github.com/mrlokans/elibrary/internal/validation"
)

// Genres is the fixed list offered on the add-book form.
var Genres = []string{
	"Animals", "Business", "Comics", "Communication", "Dark Academia",
	"Emotion", "Fantasy", "Fiction", "Friendship", "Graphic Novels",
	"Grief", "Historical Fiction", "Indigenous", "Inspirational", "Magic",
	"Mental Health", "Nonfiction", "Personal Development", "Philosophy",
	"Picture Books", "Poetry", "Productivity", "Psychology", "Romance",
	"School", "Self Help",
}

// Categories are the shelves a book can be filed under.
var Categories = []string{"Adult", "Children", "Teens"}

func IsGenre(name string) bool {
	return slices.Contains(Genres, name)
}

func init() {
	validation.RegisterRule("genre", func(fl validator.FieldLevel) bool {
		return IsGenre(fl.Field().String())
	})
}
