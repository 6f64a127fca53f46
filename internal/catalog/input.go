package catalog

import (
	"strings"

	"github.com/mrlokans/elibrary/internal/entities"
)

// MaxAuthors is how many author rows the add-book form offers.
const MaxAuthors = 5

type AuthorInput struct {
	Name        string `form:"name" json:"name" validate:"required,max=100"`
	Illustrator bool   `form:"illustrator" json:"illustrator"`
}

// DisplayName is the stored author string.
func (a AuthorInput) DisplayName() string {
	if a.Illustrator {
		return a.Name + illustratorSuffix
	}
	return a.Name
}

// NewBookInput is what an admin submits to add a book. Every field is required.
type NewBookInput struct {
	Title       string        `form:"title" json:"title" validate:"required,max=200"`
	Category    string        `form:"category" json:"category" validate:"required,oneof=Adult Children Teens"`
	CoverURL    string        `form:"url" json:"cover_url" validate:"required,url"`
	Description string        `form:"description" json:"description" validate:"required"`
	Pages       int           `form:"pages" json:"pages" validate:"required,gt=0"`
	Copies      int           `form:"copies" json:"copies" validate:"required,gt=0"`
	Genres      []string      `form:"genres" json:"genres" validate:"required,min=1,dive,genre"`
	Authors     []AuthorInput `form:"-" json:"authors" validate:"required,min=1,max=5,dive"`
}

// normalize trims text fields and drops author rows left blank.
func (in *NewBookInput) normalize() {
	in.Title = strings.TrimSpace(in.Title)
	in.Category = strings.TrimSpace(in.Category)
	in.CoverURL = strings.TrimSpace(in.CoverURL)
	in.Description = strings.TrimSpace(in.Description)

	authors := in.Authors[:0]
	for _, a := range in.Authors {
		a.Name = strings.TrimSpace(a.Name)
		if a.Name != "" {
			authors = append(authors, a)
		}
	}
	in.Authors = authors
}

func (in *NewBookInput) book() *entities.Book {
	authors := make([]string, 0, len(in.Authors))
	for _, a := range in.Authors {
		authors = append(authors, a.DisplayName())
	}

	description := SplitParagraphs(in.Description)
	if len(description) == 0 {
		description = []string{in.Description}
	}

	return &entities.Book{
		Title:       in.Title,
		Authors:     authors,
		Category:    in.Category,
		Genres:      in.Genres,
		Pages:       in.Pages,
		Copies:      in.Copies,
		Available:   in.Copies,
		CoverURL:    in.CoverURL,
		Description: description,
	}
}
