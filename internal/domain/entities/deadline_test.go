package entities

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestClassifyDeadline(t *testing.T) {
	now := time.Date(2024, 6, 10, 12, 0, 0, 0, time.UTC)
	at := func(d time.Duration) *time.Time {
		e := now.Add(d)
		return &e
	}

	tests := []struct {
		name      string
		closed    bool
		end       *time.Time
		updatedAt time.Time
		want      DeadlineState
	}{
		{
			name:      "no deadline is always normal",
			end:       nil,
			updatedAt: now,
			want:      DeadlineNormal,
		},
		{
			name:      "no deadline is normal even when closed",
			closed:    true,
			end:       nil,
			updatedAt: now.Add(100 * 24 * time.Hour),
			want:      DeadlineNormal,
		},
		{
			name:      "open with deadline in the past is overdue",
			end:       at(-time.Hour),
			updatedAt: now,
			want:      DeadlineOverdue,
		},
		{
			name:      "open with deadline within the window is urgent",
			end:       at(24 * time.Hour),
			updatedAt: now,
			want:      DeadlineUrgent,
		},
		{
			name:      "open with deadline exactly now is urgent",
			end:       at(0),
			updatedAt: now,
			want:      DeadlineUrgent,
		},
		{
			name:      "open with deadline exactly at the window edge is urgent",
			end:       at(UrgentWindow),
			updatedAt: now,
			want:      DeadlineUrgent,
		},
		{
			name:      "open with deadline just past the window edge is normal",
			end:       at(UrgentWindow + time.Second),
			updatedAt: now,
			want:      DeadlineNormal,
		},
		{
			name:      "closed on time is normal",
			closed:    true,
			end:       at(-24 * time.Hour),
			updatedAt: now.Add(-48 * time.Hour),
			want:      DeadlineNormal,
		},
		{
			name:      "closed exactly at the deadline is normal",
			closed:    true,
			end:       at(-24 * time.Hour),
			updatedAt: now.Add(-24 * time.Hour),
			want:      DeadlineNormal,
		},
		{
			name:      "closed after the deadline stays overdue",
			closed:    true,
			end:       at(-48 * time.Hour),
			updatedAt: now.Add(-24 * time.Hour),
			want:      DeadlineOverdue,
		},
		{
			name:      "closed item is never urgent even with deadline ahead",
			closed:    true,
			end:       at(24 * time.Hour),
			updatedAt: now.Add(-time.Hour),
			want:      DeadlineNormal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ClassifyDeadline(tt.closed, tt.end, tt.updatedAt, now)
			assert.Equal(t, tt.want, got)
		})
	}
}

// A late close must classify as overdue no matter how long after the close
// the classification runs.
func TestClassifyDeadlineRetroactive(t *testing.T) {
	end := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
	closedAt := end.Add(6 * time.Hour)

	for _, later := range []time.Duration{0, 24 * time.Hour, 365 * 24 * time.Hour} {
		now := closedAt.Add(later)
		got := ClassifyDeadline(true, &end, closedAt, now)
		assert.Equal(t, DeadlineOverdue, got, "now = close + %s", later)
	}
}

func TestTaskDeadlineState(t *testing.T) {
	now := time.Date(2024, 6, 10, 12, 0, 0, 0, time.UTC)
	end := now.Add(12 * time.Hour)

	task := &Task{
		Status:      TaskStatusInProgress,
		EndDatetime: &end,
		UpdatedAt:   now.Add(-time.Hour),
	}
	assert.Equal(t, DeadlineUrgent, task.ClassifyAt(now))

	task.Status = TaskStatusClosed
	assert.Equal(t, DeadlineNormal, task.ClassifyAt(now))
}

func TestBugDeadlineState(t *testing.T) {
	now := time.Date(2024, 6, 10, 12, 0, 0, 0, time.UTC)
	end := now.Add(-time.Hour)

	bug := &Bug{
		Status:      BugStatusOpen,
		EndDatetime: &end,
		UpdatedAt:   now.Add(-2 * time.Hour),
	}
	assert.Equal(t, DeadlineOverdue, bug.ClassifyAt(now))

	// Resolved is not closed; the item still counts against its deadline.
	bug.Status = BugStatusResolved
	assert.Equal(t, DeadlineOverdue, bug.ClassifyAt(now))

	bug.Status = BugStatusClosed
	bug.UpdatedAt = now
	assert.Equal(t, DeadlineOverdue, bug.ClassifyAt(now))
}

func TestClassifyAtStampsJSONField(t *testing.T) {
	now := time.Date(2024, 6, 10, 12, 0, 0, 0, time.UTC)
	end := now.Add(12 * time.Hour)

	task := &Task{Status: TaskStatusInProgress, EndDatetime: &end, UpdatedAt: now}
	task.ClassifyAt(now)

	data, err := json.Marshal(task)
	assert.NoError(t, err)
	assert.Contains(t, string(data), `"deadline_state":"urgent"`)

	// Items without a deadline still render a badge, just a quiet one.
	bug := &Bug{Status: BugStatusOpen, UpdatedAt: now}
	bug.ClassifyAt(now)

	data, err = json.Marshal(bug)
	assert.NoError(t, err)
	assert.Contains(t, string(data), `"deadline_state":"normal"`)
}
