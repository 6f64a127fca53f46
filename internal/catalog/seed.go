package catalog

import (
	_ "embed"
	"fmt"

	jsoniter "github.com/json-iterator/go"

	"github.com/mrlokans/elibrary/internal/entities"
)

//go:embed seed_books.json
var seedBooksJSON []byte

// SeedBook is one entry of the bundled starter catalog.
type SeedBook struct {
	Title       string   `json:"title"`
	Authors     []string `json:"authors"`
	Category    string   `json:"category"`
	Genres      []string `json:"genres"`
	Pages       int      `json:"pages"`
	Copies      int      `json:"copies"`
	CoverURL    string   `json:"cover_url"`
	Description []string `json:"description"`
}

// Book converts the entry with every copy available.
func (sb SeedBook) Book() *entities.Book {
	return &entities.Book{
		Title:       sb.Title,
		Authors:     sb.Authors,
		Category:    sb.Category,
		Genres:      sb.Genres,
		Pages:       sb.Pages,
		Copies:      sb.Copies,
		Available:   sb.Copies,
		CoverURL:    sb.CoverURL,
		Description: sb.Description,
	}
}

// DefaultSeed returns the bundled starter catalog.
func DefaultSeed() ([]SeedBook, error) {
	return ParseSeed(seedBooksJSON)
}

// ParseSeed decodes a JSON array of seed books.
func ParseSeed(data []byte) ([]SeedBook, error) {
	var books []SeedBook
	if err := jsoniter.ConfigCompatibleWithStandardLibrary.Unmarshal(data, &books); err != nil {
		return nil, fmt.Errorf("decode seed books: %w", err)
	}
	for i, sb := range books {
		if sb.Title == "" || sb.Copies <= 0 {
			return nil, fmt.Errorf("seed book %d: title and a positive copy count are required", i)
		}
	}
	return books, nil
}
