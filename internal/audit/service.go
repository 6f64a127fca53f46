// Package audit records who did what to loans, books and accounts.
package audit

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/mrlokans/elibrary/internal/database/audit"
	"github.com/mrlokans/elibrary/internal/entities"
)

// Origin describes where a request came from.
type Origin struct {
	UserID    uint
	RequestID string
	IPAddress string
	UserAgent string
}

// Service provides high-level audit logging functionality.
type Service struct {
	repo     *audit.Repository
	archiver *Archiver
	pending  sync.WaitGroup
}

// NewService creates a new audit service.
func NewService(repo *audit.Repository) *Service {
	return &Service{repo: repo}
}

// SetArchiver makes DeleteOldEvents write pruned events to disk first.
func (s *Service) SetArchiver(a *Archiver) {
	s.archiver = a
}

// Log records a generic audit event.
func (s *Service) Log(event *entities.AuditEvent) error {
	return s.repo.LogEvent(event)
}

// LogAsync records an audit event in the background (non-blocking).
func (s *Service) LogAsync(event *entities.AuditEvent) {
	s.pending.Add(1)
	go func() {
		defer s.pending.Done()
		if err := s.repo.LogEvent(event); err != nil {
			log.Printf("Failed to log audit event: %v", err)
		}
	}()
}

// Wait blocks until every LogAsync write has finished.
func (s *Service) Wait() {
	s.pending.Wait()
}

// LogLoan records a loan lifecycle event such as "loan_create".
func (s *Service) LogLoan(origin Origin, action string, loanID, bookID uint, err error) {
	event := s.newEvent(origin, entities.AuditEventLoan, action)
	event.EntityType = "loan"
	if loanID > 0 {
		event.EntityID = &loanID
	}
	event.Description = fmt.Sprintf("%s for book %d", action, bookID)
	event.Metadata = encodeMetadata(map[string]any{"book_id": bookID})
	setError(event, err)

	s.LogAsync(event)
}

// LogCatalog records a change to the catalog.
func (s *Service) LogCatalog(origin Origin, action string, bookID uint, title string, err error) {
	event := s.newEvent(origin, entities.AuditEventCatalog, action)
	event.EntityType = "book"
	if bookID > 0 {
		event.EntityID = &bookID
	}
	event.Description = truncate("Book: "+title, 500)
	setError(event, err)

	s.LogAsync(event)
}

// LogAuth records an authentication event.
func (s *Service) LogAuth(origin Origin, action string, success bool) {
	event := s.newEvent(origin, entities.AuditEventAuth, action)
	event.EntityType = "user"
	if !success {
		event.Status = entities.AuditStatusFailed
	}

	s.LogAsync(event)
}

// LogMaintenance records the outcome of a background job.
func (s *Service) LogMaintenance(action, description string, metadata map[string]any, err error) {
	event := s.newEvent(Origin{}, entities.AuditEventMaintenance, action)
	event.Description = truncate(description, 500)
	if len(metadata) > 0 {
		event.Metadata = encodeMetadata(metadata)
	}
	setError(event, err)

	s.LogAsync(event)
}

// GetEvents retrieves paginated audit events.
func (s *Service) GetEvents(userID uint, limit, offset int) ([]entities.AuditEvent, int64, error) {
	return s.repo.GetEvents(userID, limit, offset)
}

// GetEventsByType retrieves audit events filtered by type.
func (s *Service) GetEventsByType(eventType entities.AuditEventType, userID uint, limit, offset int) ([]entities.AuditEvent, int64, error) {
	return s.repo.GetEventsByType(eventType, userID, limit, offset)
}

// GetEventsForEntity returns the history of one loan, book or user.
func (s *Service) GetEventsForEntity(entityType string, entityID uint) ([]entities.AuditEvent, error) {
	return s.repo.GetEventsForEntity(entityType, entityID)
}

// DeleteOldEvents removes events older than the retention period, archiving
// them first when an archiver is set.
func (s *Service) DeleteOldEvents(retention time.Duration) (int64, error) {
	cutoff := time.Now().UTC().Add(-retention)

	if s.archiver != nil {
		events, err := s.repo.GetEventsBefore(cutoff)
		if err != nil {
			return 0, fmt.Errorf("load events to archive: %w", err)
		}
		if len(events) > 0 {
			if _, err := s.archiver.SaveJSON(events); err != nil {
				return 0, err
			}
		}
	}

	return s.repo.DeleteOldEvents(cutoff)
}

func (s *Service) newEvent(origin Origin, eventType entities.AuditEventType, action string) *entities.AuditEvent {
	return &entities.AuditEvent{
		UserID:    origin.UserID,
		EventType: eventType,
		Action:    action,
		RequestID: origin.RequestID,
		IPAddress: origin.IPAddress,
		UserAgent: truncate(origin.UserAgent, 500),
		Status:    entities.AuditStatusSuccess,
	}
}

func setError(event *entities.AuditEvent, err error) {
	if err != nil {
		event.Status = entities.AuditStatusFailed
		event.ErrorMsg = truncate(err.Error(), 500)
	}
}

func encodeMetadata(metadata map[string]any) string {
	b, err := json.Marshal(metadata)
	if err != nil {
		return ""
	}
	return string(b)
}

// truncate shortens a string to max length.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
