package catalog

import (
	"strings"

	"github.com/mrlokans/elibrary/internal/entities"
)

const (
	illustratorSuffix = " (Illustrator)"
	noDescription     = "No description available for this book."
)

// AuthorString joins the authors for display.
func AuthorString(book *entities.Book) string {
	return strings.Join(book.Authors, ", ")
}

func GenreString(book *entities.Book) string {
	return strings.Join(book.Genres, ", ")
}

// Paragraphs returns the non-blank description paragraphs, trimmed.
func Paragraphs(book *entities.Book) []string {
	out := make([]string, 0, len(book.Description))
	for _, p := range book.Description {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// DescriptionPreview returns the first and last paragraphs, the only one when
// there is a single paragraph, or a placeholder when there are none.
func DescriptionPreview(book *entities.Book) []string {
	paragraphs := Paragraphs(book)
	switch len(paragraphs) {
	case 0:
		return []string{noDescription}
	case 1:
		return paragraphs
	default:
		return []string{paragraphs[0], paragraphs[len(paragraphs)-1]}
	}
}

// FullDescription is every paragraph, or the placeholder.
func FullDescription(book *entities.Book) []string {
	if paragraphs := Paragraphs(book); len(paragraphs) > 0 {
		return paragraphs
	}
	return []string{noDescription}
}

// SplitParagraphs breaks free text into paragraphs on blank lines.
func SplitParagraphs(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	var out []string
	for _, p := range strings.Split(text, "\n\n") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Detail is a book with its display strings resolved.
type Detail struct {
	entities.Book
	AuthorString string   `json:"author_string"`
	GenreString  string   `json:"genre_string"`
	Preview      []string `json:"description_preview"`
	Paragraphs   []string `json:"-"`
	Borrowed     int      `json:"borrowed"`
	CanBorrow    bool     `json:"can_borrow"`
}

func NewDetail(book entities.Book) Detail {
	return Detail{
		Book:         book,
		AuthorString: AuthorString(&book),
		GenreString:  GenreString(&book),
		Preview:      DescriptionPreview(&book),
		Paragraphs:   FullDescription(&book),
		Borrowed:     book.BorrowedCount(),
		CanBorrow:    book.CanBorrow(),
	}
}

func NewDetails(books []entities.Book) []Detail {
	out := make([]Detail, 0, len(books))
	for _, b := range books {
		out = append(out, NewDetail(b))
	}
	return out
}
