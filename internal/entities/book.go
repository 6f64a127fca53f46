package entities

import "time"

type Book struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Title       string    `gorm:"index;size:200;not null" json:"title"`
	Authors     []string  `gorm:"serializer:json;type:text" json:"authors"`
	Category    string    `gorm:"index;size:50;not null" json:"category"`
	Genres      []string  `gorm:"serializer:json;type:text" json:"genres"`
	Pages       int       `json:"pages"`
	Copies      int       `gorm:"not null;check:chk_books_copies,copies >= 0" json:"copies"`
	Available   int       `gorm:"not null;check:chk_books_available,available >= 0 AND available <= copies" json:"available"`
	CoverURL    string    `gorm:"size:2048" json:"cover_url"`
	Description []string  `gorm:"serializer:json;type:text" json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (Book) TableName() string {
	return "books"
}

// CanBorrow reports whether at least one copy is on the shelf.
func (b *Book) CanBorrow() bool {
	return b.Available > 0
}

// CanReturn reports whether at least one copy is out on loan.
func (b *Book) CanReturn() bool {
	return b.Available < b.Copies
}

// BorrowedCount returns the number of copies currently on loan.
func (b *Book) BorrowedCount() int {
	return b.Copies - b.Available
}
