package entities

import "time"

// Loan records one member borrowing one copy of a book.
// A loan is active until ReturnDate is set.
type Loan struct {
	ID         uint       `gorm:"primaryKey" json:"id"`
	MemberID   uint       `gorm:"index;not null" json:"member_id"`
	Member     User       `gorm:"foreignKey:MemberID" json:"member,omitempty"`
	BookID     uint       `gorm:"index;not null" json:"book_id"`
	Book       Book       `gorm:"foreignKey:BookID" json:"book,omitempty"`
	BorrowDate time.Time  `gorm:"index;not null" json:"borrow_date"`
	ReturnDate *time.Time `gorm:"index" json:"return_date,omitempty"`
	RenewCount int        `gorm:"not null;default:0;check:chk_loans_renew_count,renew_count >= 0" json:"renew_count"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

func (Loan) TableName() string {
	return "loans"
}

// IsActive reports whether the loan has not been returned yet.
func (l *Loan) IsActive() bool {
	return l.ReturnDate == nil
}
