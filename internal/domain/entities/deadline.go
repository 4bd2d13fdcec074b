package entities

import "time"

// DeadlineState is the derived classification of an item relative to its
// deadline. It is computed on demand and never stored.
type DeadlineState string

const (
	DeadlineNormal  DeadlineState = "normal"
	DeadlineUrgent  DeadlineState = "urgent"
	DeadlineOverdue DeadlineState = "overdue"
)

// UrgentWindow is how far ahead of a deadline an open item counts as urgent.
const UrgentWindow = 3 * 24 * time.Hour

// ClassifyDeadline computes the deadline state of an item from its timestamps.
//
// A closed item is compared against the moment it was closed (updatedAt):
// closing after the deadline marks it overdue permanently, no matter when the
// classification runs. An open item is overdue once its deadline has passed
// and urgent when the deadline falls within the next three days. Items
// without a deadline are always normal.
//
// Callers must pass a single now for a whole request or report so that rows
// classified moments apart cannot disagree. This function is the only place
// the rule lives; report aggregation and badge rendering both go through it.
func ClassifyDeadline(closed bool, end *time.Time, updatedAt, now time.Time) DeadlineState {
	if end == nil {
		return DeadlineNormal
	}

	if closed {
		if updatedAt.After(*end) {
			return DeadlineOverdue
		}
		return DeadlineNormal
	}

	if end.Before(now) {
		return DeadlineOverdue
	}
	if !end.After(now.Add(UrgentWindow)) {
		return DeadlineUrgent
	}
	return DeadlineNormal
}

// ClassifyAt computes the task's deadline state at the given instant and
// stamps it onto the DeadlineState field for rendering.
func (t *Task) ClassifyAt(now time.Time) DeadlineState {
	t.DeadlineState = ClassifyDeadline(t.IsClosed(), t.EndDatetime, t.UpdatedAt, now)
	return t.DeadlineState
}

// ClassifyAt computes the bug's deadline state at the given instant and
// stamps it onto the DeadlineState field for rendering.
func (b *Bug) ClassifyAt(now time.Time) DeadlineState {
	b.DeadlineState = ClassifyDeadline(b.IsClosed(), b.EndDatetime, b.UpdatedAt, now)
	return b.DeadlineState
}
