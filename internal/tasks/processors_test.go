package tasks

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/elibrary/internal/database/loans"
)

type mockCleaner struct {
	retention time.Duration
	deleted   int64
	err       error
}

func (m *mockCleaner) DeleteOldEvents(retention time.Duration) (int64, error) {
	m.retention = retention
	return m.deleted, m.err
}

type mockReporter struct {
	rows []loans.OverdueRow
	err  error
}

func (m *mockReporter) OverdueReport(ctx context.Context) ([]loans.OverdueRow, error) {
	return m.rows, m.err
}

type recordedRun struct {
	action   string
	metadata map[string]any
	err      error
}

type mockRecorder struct {
	runs []recordedRun
}

func (m *mockRecorder) LogMaintenance(action, description string, metadata map[string]any, err error) {
	m.runs = append(m.runs, recordedRun{action: action, metadata: metadata, err: err})
}

func TestCleanupAuditEventsProcessor(t *testing.T) {
	t.Run("uses task retention", func(t *testing.T) {
		cleaner := &mockCleaner{deleted: 4}
		recorder := &mockRecorder{}

		err := CleanupAuditEventsProcessor(cleaner, recorder)(context.Background(), CleanupAuditEventsTask{RetentionDays: 7})
		require.NoError(t, err)
		assert.Equal(t, 7*24*time.Hour, cleaner.retention)
		require.Len(t, recorder.runs, 1)
		assert.Equal(t, int64(4), recorder.runs[0].metadata["deleted"])
	})

	t.Run("defaults to 90 days", func(t *testing.T) {
		cleaner := &mockCleaner{}
		require.NoError(t, CleanupAuditEventsProcessor(cleaner, nil)(context.Background(), CleanupAuditEventsTask{}))
		assert.Equal(t, 90*24*time.Hour, cleaner.retention)
	})

	t.Run("propagates errors", func(t *testing.T) {
		cleaner := &mockCleaner{err: errors.New("disk full")}
		recorder := &mockRecorder{}

		err := CleanupAuditEventsProcessor(cleaner, recorder)(context.Background(), CleanupAuditEventsTask{})
		assert.ErrorContains(t, err, "disk full")
		require.Len(t, recorder.runs, 1)
		assert.Error(t, recorder.runs[0].err)
	})

	t.Run("missing cleaner", func(t *testing.T) {
		assert.Error(t, CleanupAuditEventsProcessor(nil, nil)(context.Background(), CleanupAuditEventsTask{}))
	})
}

func TestScanOverdueLoansProcessor(t *testing.T) {
	reporter := &mockReporter{rows: []loans.OverdueRow{{LoanID: 3}, {LoanID: 9}}}
	recorder := &mockRecorder{}

	err := ScanOverdueLoansProcessor(reporter, recorder)(context.Background(), ScanOverdueLoansTask{})
	require.NoError(t, err)

	require.Len(t, recorder.runs, 1)
	assert.Equal(t, QueueScanOverdueLoans, recorder.runs[0].action)
	assert.Equal(t, 2, recorder.runs[0].metadata["overdue"])
	assert.Equal(t, []uint{3, 9}, recorder.runs[0].metadata["loan_ids"])

	t.Run("report failure", func(t *testing.T) {
		failing := &mockReporter{err: errors.New("locked")}
		recorder := &mockRecorder{}

		err := ScanOverdueLoansProcessor(failing, recorder)(context.Background(), ScanOverdueLoansTask{})
		assert.ErrorContains(t, err, "locked")
		require.Len(t, recorder.runs, 1)
	})
}
