package loans

import (
	"time"

	"github.com/mrlokans/elibrary/internal/entities"
)

const (
	StatusActive   = "active"
	StatusOverdue  = "overdue"
	StatusReturned = "returned"
)

// View is a loan with its computed dates, ready for rendering.
type View struct {
	entities.Loan
	DueDate      time.Time `json:"due_date"`
	Overdue      bool      `json:"overdue"`
	DaysOverdue  int       `json:"days_overdue"`
	DurationDays int       `json:"duration_days"`
	RenewalsLeft int       `json:"renewals_left"`
	Status       string    `json:"status"`
}

// CanRenew reports whether the renew action should be offered.
func (v View) CanRenew() bool {
	return v.Status != StatusReturned && v.RenewalsLeft > 0
}

func (m *Manager) View(loan entities.Loan) View {
	now := m.Now()
	v := View{
		Loan:         loan,
		DueDate:      m.policy.DueDate(&loan),
		Overdue:      m.policy.IsOverdue(&loan, now),
		DaysOverdue:  m.policy.DaysOverdue(&loan, now),
		DurationDays: m.policy.DurationDays(&loan, now),
		RenewalsLeft: m.policy.RenewalsLeft(&loan),
		Status:       StatusActive,
	}
	switch {
	case !loan.IsActive():
		v.Status = StatusReturned
	case v.Overdue:
		v.Status = StatusOverdue
	}
	return v
}

func (m *Manager) Views(loans []entities.Loan) []View {
	views := make([]View, 0, len(loans))
	for _, loan := range loans {
		views = append(views, m.View(loan))
	}
	return views
}
