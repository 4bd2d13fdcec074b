package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bugtrack/core/internal/domain/entities"
	"github.com/bugtrack/core/internal/infrastructure/logger"
	"github.com/bugtrack/core/internal/ports"
)

type stubReportRepo struct {
	taskRows    []ports.TaskStatRow
	bugCounts   []ports.StatusCount
	priorities  []ports.PriorityCount
	comments    int
	attachments int
	projects    int
	trend       []ports.TrendPoint

	gotInterval ports.TrendInterval
}

func (s *stubReportRepo) TaskStatRows(ctx context.Context, scope ports.ReportScope) ([]ports.TaskStatRow, error) {
	return s.taskRows, nil
}

func (s *stubReportRepo) BugStatusCounts(ctx context.Context, scope ports.ReportScope) ([]ports.StatusCount, error) {
	return s.bugCounts, nil
}

func (s *stubReportRepo) PriorityCounts(ctx context.Context, scope ports.ReportScope) ([]ports.PriorityCount, error) {
	return s.priorities, nil
}

func (s *stubReportRepo) CommentCount(ctx context.Context, scope ports.ReportScope) (int, error) {
	return s.comments, nil
}

func (s *stubReportRepo) AttachmentCount(ctx context.Context, scope ports.ReportScope) (int, error) {
	return s.attachments, nil
}

func (s *stubReportRepo) DistinctProjectCount(ctx context.Context, scope ports.ReportScope) (int, error) {
	return s.projects, nil
}

func (s *stubReportRepo) TrendCounts(ctx context.Context, scope ports.ReportScope, interval ports.TrendInterval) ([]ports.TrendPoint, error) {
	s.gotInterval = interval
	return s.trend, nil
}

func newTestReportService(repo *stubReportRepo, now time.Time) *ReportService {
	svc := NewReportService(repo, logger.NewNop())
	svc.now = func() time.Time { return now }
	return svc
}

func TestStatsEmptyScope(t *testing.T) {
	now := time.Date(2024, 6, 10, 12, 0, 0, 0, time.UTC)
	svc := newTestReportService(&stubReportRepo{}, now)

	stats, err := svc.Stats(context.Background(), ports.ReportScope{})
	require.NoError(t, err)
	require.NotNil(t, stats)

	assert.Equal(t, 0, stats.TotalTasks)
	assert.Equal(t, float64(0), stats.CompletionRate)
	assert.Nil(t, stats.AvgCompletionHours)
	assert.Nil(t, stats.MinCompletionHours)
	assert.Nil(t, stats.MaxCompletionHours)
	assert.NotNil(t, stats.BugsByStatus)
	assert.Empty(t, stats.BugsByStatus)
	assert.Equal(t, now, stats.GeneratedAt)

	// The priority breakdown is zero-filled in fixed display order even
	// with no underlying rows.
	require.Len(t, stats.PriorityBreakdown, len(entities.PriorityOrder))
	for i, p := range entities.PriorityOrder {
		assert.Equal(t, p, stats.PriorityBreakdown[i].Priority)
		assert.Equal(t, 0, stats.PriorityBreakdown[i].Count)
	}
}

func TestStatsAggregation(t *testing.T) {
	now := time.Date(2024, 6, 10, 12, 0, 0, 0, time.UTC)
	past := now.Add(-10 * 24 * time.Hour)
	soon := now.Add(24 * time.Hour)
	lateClose := past.Add(12 * time.Hour)

	repo := &stubReportRepo{
		taskRows: []ports.TaskStatRow{
			// Closed in 24h, on time.
			{Status: entities.TaskStatusClosed, EndDatetime: &soon, CreatedAt: past, UpdatedAt: past.Add(24 * time.Hour)},
			// Closed in 48h, 12h after its deadline: overdue forever.
			{Status: entities.TaskStatusClosed, EndDatetime: &past, CreatedAt: past.Add(-36 * time.Hour), UpdatedAt: lateClose},
			// Open with deadline tomorrow: urgent.
			{Status: entities.TaskStatusInProgress, EndDatetime: &soon, CreatedAt: past, UpdatedAt: now},
			// Open with no deadline: normal.
			{Status: entities.TaskStatusTodo, CreatedAt: past, UpdatedAt: past},
		},
		bugCounts: []ports.StatusCount{{Status: "open", Count: 2}},
		priorities: []ports.PriorityCount{
			{Priority: entities.PriorityLow, Count: 3},
			{Priority: entities.PriorityCritical, Count: 1},
		},
		comments:    5,
		attachments: 2,
		projects:    3,
	}

	svc := newTestReportService(repo, now)

	stats, err := svc.Stats(context.Background(), ports.ReportScope{})
	require.NoError(t, err)

	assert.Equal(t, 4, stats.TotalTasks)
	assert.Equal(t, 2, stats.CompletedTasks)
	assert.InDelta(t, 0.5, stats.CompletionRate, 1e-9)
	assert.Equal(t, 1, stats.OverdueTasks)
	assert.Equal(t, 1, stats.UrgentTasks)

	require.NotNil(t, stats.AvgCompletionHours)
	require.NotNil(t, stats.MinCompletionHours)
	require.NotNil(t, stats.MaxCompletionHours)
	assert.InDelta(t, 24, *stats.MinCompletionHours, 1e-9)
	assert.InDelta(t, 48, *stats.MaxCompletionHours, 1e-9)
	assert.InDelta(t, 36, *stats.AvgCompletionHours, 1e-9)

	assert.Equal(t, 5, stats.CommentCount)
	assert.Equal(t, 2, stats.AttachmentCount)
	assert.Equal(t, 3, stats.ProjectCount)

	// GROUP BY order does not leak through; missing priorities are zero.
	require.Len(t, stats.PriorityBreakdown, 4)
	assert.Equal(t, entities.PriorityCritical, stats.PriorityBreakdown[0].Priority)
	assert.Equal(t, 1, stats.PriorityBreakdown[0].Count)
	assert.Equal(t, entities.PriorityHigh, stats.PriorityBreakdown[1].Priority)
	assert.Equal(t, 0, stats.PriorityBreakdown[1].Count)
	assert.Equal(t, entities.PriorityMedium, stats.PriorityBreakdown[2].Priority)
	assert.Equal(t, 0, stats.PriorityBreakdown[2].Count)
	assert.Equal(t, entities.PriorityLow, stats.PriorityBreakdown[3].Priority)
	assert.Equal(t, 3, stats.PriorityBreakdown[3].Count)
}

func TestTrendReversesToChronological(t *testing.T) {
	repo := &stubReportRepo{
		trend: []ports.TrendPoint{
			{Bucket: "2024-06", Count: 4},
			{Bucket: "2024-05", Count: 2},
			{Bucket: "2024-04", Count: 7},
		},
	}
	svc := newTestReportService(repo, time.Now())

	points, err := svc.Trend(context.Background(), ports.ReportScope{}, ports.TrendMonthly)
	require.NoError(t, err)

	require.Len(t, points, 3)
	assert.Equal(t, "2024-04", points[0].Bucket)
	assert.Equal(t, "2024-05", points[1].Bucket)
	assert.Equal(t, "2024-06", points[2].Bucket)
}

func TestTrendDefaultsToMonthly(t *testing.T) {
	repo := &stubReportRepo{}
	svc := newTestReportService(repo, time.Now())

	points, err := svc.Trend(context.Background(), ports.ReportScope{}, ports.TrendInterval("yearly"))
	require.NoError(t, err)

	assert.Equal(t, ports.TrendMonthly, repo.gotInterval)
	assert.NotNil(t, points)
	assert.Empty(t, points)
}
