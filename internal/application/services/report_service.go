package services

import (
	"context"
	"fmt"
	"time"

	"github.com/bugtrack/core/internal/domain/entities"
	"github.com/bugtrack/core/internal/infrastructure/logger"
	"github.com/bugtrack/core/internal/ports"
)

// ReportService computes per-employee, per-project and global statistics.
// It fetches raw rows and classifies them in Go through
// entities.ClassifyDeadline with one fixed now per report, so badge
// rendering and aggregate overdue counts can never drift apart.
type ReportService struct {
	repo   ports.ReportRepository
	logger *logger.Logger
	now    func() time.Time
}

// NewReportService creates a new report service
func NewReportService(repo ports.ReportRepository, logger *logger.Logger) *ReportService {
	return &ReportService{
		repo:   repo,
		logger: logger,
		now:    time.Now,
	}
}

// Stats computes the aggregate record for a scope. A scope matching no rows
// yields a zero-valued struct, never nil, so callers need no null-guards.
func (s *ReportService) Stats(ctx context.Context, scope ports.ReportScope) (*ports.ReportStats, error) {
	now := s.now()
	stats := &ports.ReportStats{GeneratedAt: now}

	rows, err := s.repo.TaskStatRows(ctx, scope)
	if err != nil {
		return nil, fmt.Errorf("report task rows: %w", err)
	}

	aggregateTaskRows(stats, rows, now)

	bugCounts, err := s.repo.BugStatusCounts(ctx, scope)
	if err != nil {
		return nil, fmt.Errorf("report bug counts: %w", err)
	}
	stats.BugsByStatus = bugCounts
	if stats.BugsByStatus == nil {
		stats.BugsByStatus = []ports.StatusCount{}
	}

	priorityCounts, err := s.repo.PriorityCounts(ctx, scope)
	if err != nil {
		return nil, fmt.Errorf("report priority counts: %w", err)
	}
	stats.PriorityBreakdown = orderPriorities(priorityCounts)

	if stats.CommentCount, err = s.repo.CommentCount(ctx, scope); err != nil {
		return nil, fmt.Errorf("report comment count: %w", err)
	}
	if stats.AttachmentCount, err = s.repo.AttachmentCount(ctx, scope); err != nil {
		return nil, fmt.Errorf("report attachment count: %w", err)
	}
	if stats.ProjectCount, err = s.repo.DistinctProjectCount(ctx, scope); err != nil {
		return nil, fmt.Errorf("report project count: %w", err)
	}

	return stats, nil
}

// aggregateTaskRows folds task rows into counts, completion rate, overdue
// and urgent tallies, and completion durations. One now for every row.
func aggregateTaskRows(stats *ports.ReportStats, rows []ports.TaskStatRow, now time.Time) {
	for _, row := range rows {
		stats.TotalTasks++

		closed := row.Status == entities.TaskStatusClosed
		if closed {
			stats.CompletedTasks++

			hours := row.UpdatedAt.Sub(row.CreatedAt).Hours()
			if stats.MinCompletionHours == nil || hours < *stats.MinCompletionHours {
				h := hours
				stats.MinCompletionHours = &h
			}
			if stats.MaxCompletionHours == nil || hours > *stats.MaxCompletionHours {
				h := hours
				stats.MaxCompletionHours = &h
			}
			if stats.AvgCompletionHours == nil {
				stats.AvgCompletionHours = new(float64)
			}
			*stats.AvgCompletionHours += hours
		}

		switch entities.ClassifyDeadline(closed, row.EndDatetime, row.UpdatedAt, now) {
		case entities.DeadlineOverdue:
			stats.OverdueTasks++
		case entities.DeadlineUrgent:
			stats.UrgentTasks++
		}
	}

	// Completion rate is exactly 0 for an empty scope, never NaN.
	if stats.TotalTasks > 0 {
		stats.CompletionRate = float64(stats.CompletedTasks) / float64(stats.TotalTasks)
	}
	if stats.AvgCompletionHours != nil {
		*stats.AvgCompletionHours /= float64(stats.CompletedTasks)
	}
}

// orderPriorities re-sorts a GROUP BY result into the fixed display order
// critical, high, medium, low, filling absent priorities with zero.
func orderPriorities(counts []ports.PriorityCount) []ports.PriorityCount {
	byPriority := make(map[entities.Priority]int, len(counts))
	for _, c := range counts {
		byPriority[c.Priority] = c.Count
	}

	ordered := make([]ports.PriorityCount, 0, len(entities.PriorityOrder))
	for _, p := range entities.PriorityOrder {
		ordered = append(ordered, ports.PriorityCount{Priority: p, Count: byPriority[p]})
	}

	return ordered
}

// Trend returns the time-bucketed task creation series for a scope in
// chronological order. The store fetches buckets newest first; charts read
// left to right, so the series is reversed here.
func (s *ReportService) Trend(ctx context.Context, scope ports.ReportScope, interval ports.TrendInterval) ([]ports.TrendPoint, error) {
	if interval != ports.TrendWeekly && interval != ports.TrendMonthly {
		interval = ports.TrendMonthly
	}

	points, err := s.repo.TrendCounts(ctx, scope, interval)
	if err != nil {
		return nil, fmt.Errorf("report trend: %w", err)
	}

	for i, j := 0, len(points)-1; i < j; i, j = i+1, j-1 {
		points[i], points[j] = points[j], points[i]
	}

	if points == nil {
		points = []ports.TrendPoint{}
	}

	return points, nil
}
