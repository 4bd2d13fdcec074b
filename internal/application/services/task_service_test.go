package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bugtrack/core/internal/domain/entities"
	"github.com/bugtrack/core/internal/infrastructure/logger"
	"github.com/bugtrack/core/internal/ports"
)

type stubTaskRepo struct {
	task            *entities.Task
	tasks           []*entities.Task
	assignees       []uuid.UUID
	createErr       error
	updateStatusErr error
	replaceErr      error
	replacedWith    []uuid.UUID
}

func (s *stubTaskRepo) Create(ctx context.Context, task *entities.Task) error {
	if s.createErr != nil {
		return s.createErr
	}
	task.ID = 1
	return nil
}

func (s *stubTaskRepo) GetByID(ctx context.Context, id int) (*entities.Task, error) {
	if s.task == nil {
		return nil, entities.ErrTaskNotFound
	}
	copied := *s.task
	return &copied, nil
}

func (s *stubTaskRepo) Update(ctx context.Context, task *entities.Task) error { return nil }

func (s *stubTaskRepo) Delete(ctx context.Context, id int) error { return nil }

func (s *stubTaskRepo) List(ctx context.Context, filter ports.TaskFilter) ([]*entities.Task, int, error) {
	return s.tasks, len(s.tasks), nil
}

func (s *stubTaskRepo) GetByProject(ctx context.Context, projectID int) ([]*entities.Task, error) {
	return nil, nil
}

func (s *stubTaskRepo) UpdateStatus(ctx context.Context, id int, status entities.TaskStatus) error {
	if s.updateStatusErr != nil {
		return s.updateStatusErr
	}
	s.task.Status = status
	return nil
}

func (s *stubTaskRepo) GetAssignees(ctx context.Context, taskID int) ([]uuid.UUID, error) {
	return s.assignees, nil
}

func (s *stubTaskRepo) ReplaceAssignees(ctx context.Context, taskID int, userIDs []uuid.UUID) error {
	if s.replaceErr != nil {
		return s.replaceErr
	}
	s.replacedWith = userIDs
	return nil
}

type stubProjectRepo struct{}

func (stubProjectRepo) Create(ctx context.Context, project *entities.Project) error { return nil }
func (stubProjectRepo) GetByID(ctx context.Context, id int) (*entities.Project, error) {
	return &entities.Project{ID: id, Name: "core"}, nil
}
func (stubProjectRepo) Update(ctx context.Context, project *entities.Project) error { return nil }
func (stubProjectRepo) Delete(ctx context.Context, id int) error                    { return nil }
func (stubProjectRepo) List(ctx context.Context, filter ports.ProjectFilter) ([]*entities.Project, error) {
	return nil, nil
}

type stubUserRepo struct{}

func (stubUserRepo) Create(ctx context.Context, user *entities.User) error { return nil }
func (stubUserRepo) GetByID(ctx context.Context, id uuid.UUID) (*entities.User, error) {
	return &entities.User{ID: id, Email: "dev@example.com", Role: entities.UserRoleDeveloper}, nil
}
func (stubUserRepo) GetByEmail(ctx context.Context, email string) (*entities.User, error) {
	return nil, entities.ErrUserNotFound
}
func (stubUserRepo) Update(ctx context.Context, user *entities.User) error { return nil }
func (stubUserRepo) Delete(ctx context.Context, id uuid.UUID) error        { return nil }
func (stubUserRepo) List(ctx context.Context, filter ports.UserFilter) ([]*entities.User, error) {
	return nil, nil
}
func (stubUserRepo) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	return nil
}

type stubNotificationRepo struct {
	created []*entities.Notification
}

func (s *stubNotificationRepo) Create(ctx context.Context, n *entities.Notification) error {
	n.ID = len(s.created) + 1
	s.created = append(s.created, n)
	return nil
}
func (s *stubNotificationRepo) ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]*entities.Notification, error) {
	return nil, nil
}
func (s *stubNotificationRepo) UnreadCount(ctx context.Context, userID uuid.UUID) (int, error) {
	return 0, nil
}
func (s *stubNotificationRepo) MarkRead(ctx context.Context, id int, userID uuid.UUID) error {
	return nil
}
func (s *stubNotificationRepo) MarkAllRead(ctx context.Context, userID uuid.UUID) error { return nil }
func (s *stubNotificationRepo) DeleteRead(ctx context.Context, userID uuid.UUID) error  { return nil }

type stubMailer struct {
	sent    []string
	sendErr error
}

func (s *stubMailer) Send(to, subject, body string) error {
	if s.sendErr != nil {
		return s.sendErr
	}
	s.sent = append(s.sent, to)
	return nil
}

type taskServiceFixture struct {
	svc              *TaskService
	taskRepo         *stubTaskRepo
	activityRepo     *stubActivityRepo
	notificationRepo *stubNotificationRepo
	mailer           *stubMailer
}

func newTaskServiceFixture(taskRepo *stubTaskRepo) *taskServiceFixture {
	log := logger.NewNop()
	activityRepo := &stubActivityRepo{}
	notificationRepo := &stubNotificationRepo{}
	m := &stubMailer{}

	activity := NewActivityService(activityRepo, log)
	notifications := NewNotificationService(notificationRepo, stubUserRepo{}, m, log)

	return &taskServiceFixture{
		svc:              NewTaskService(taskRepo, stubProjectRepo{}, stubUserRepo{}, activity, notifications, log),
		taskRepo:         taskRepo,
		activityRepo:     activityRepo,
		notificationRepo: notificationRepo,
		mailer:           m,
	}
}

func manager() ports.Actor {
	return ports.Actor{UserID: uuid.New(), Role: entities.UserRoleManager}
}

func TestCreateTaskAuditsSuccess(t *testing.T) {
	f := newTaskServiceFixture(&stubTaskRepo{})
	actor := manager()

	task, err := f.svc.CreateTask(context.Background(), actor, ports.CreateTaskRequest{
		ProjectID: 2,
		Name:      "fix login",
		Priority:  entities.PriorityHigh,
	})
	require.NoError(t, err)
	assert.Equal(t, entities.TaskStatusTodo, task.Status)
	assert.Equal(t, actor.UserID, task.CreatedBy)

	require.Len(t, f.activityRepo.appended, 1)
	entry := f.activityRepo.appended[0]
	assert.Equal(t, "create_task", entry.Action)
	assert.Equal(t, &task.ID, entry.EntityID)
}

func TestCreateTaskAuditsFailure(t *testing.T) {
	f := newTaskServiceFixture(&stubTaskRepo{createErr: errors.New("disk full")})

	_, err := f.svc.CreateTask(context.Background(), manager(), ports.CreateTaskRequest{
		ProjectID: 2,
		Name:      "fix login",
		Priority:  entities.PriorityHigh,
	})
	require.Error(t, err)

	// Exactly one row per attempt, tagged as failed, with no subject row.
	require.Len(t, f.activityRepo.appended, 1)
	entry := f.activityRepo.appended[0]
	assert.Equal(t, "create_task"+FailedSuffix, entry.Action)
	assert.Nil(t, entry.EntityID)
	assert.Equal(t, "disk full", entry.Details["error"])
}

func TestUpdateStatusAuditsTransition(t *testing.T) {
	repo := &stubTaskRepo{task: &entities.Task{ID: 1, Status: entities.TaskStatusTodo}}
	f := newTaskServiceFixture(repo)

	task, err := f.svc.UpdateStatus(context.Background(), manager(), 1, entities.TaskStatusInProgress)
	require.NoError(t, err)
	assert.Equal(t, entities.TaskStatusInProgress, task.Status)

	require.Len(t, f.activityRepo.appended, 1)
	entry := f.activityRepo.appended[0]
	assert.Equal(t, "update_status", entry.Action)
	assert.Equal(t, "todo", entry.Details["old_status"])
	assert.Equal(t, "in_progress", entry.Details["new_status"])
}

func TestUpdateStatusRejectsUnknownStatus(t *testing.T) {
	f := newTaskServiceFixture(&stubTaskRepo{task: &entities.Task{ID: 1}})

	_, err := f.svc.UpdateStatus(context.Background(), manager(), 1, entities.TaskStatus("done"))
	assert.ErrorIs(t, err, entities.ErrInvalidStatus)
	assert.Empty(t, f.activityRepo.appended)
}

func TestReplaceAssigneesRequiresManager(t *testing.T) {
	f := newTaskServiceFixture(&stubTaskRepo{task: &entities.Task{ID: 1}})

	actor := ports.Actor{UserID: uuid.New(), Role: entities.UserRoleDeveloper}
	err := f.svc.ReplaceAssignees(context.Background(), actor, 1, nil)
	assert.ErrorIs(t, err, entities.ErrForbidden)
	assert.Empty(t, f.activityRepo.appended)
}

func TestReplaceAssigneesNotifiesOnlyNewUsers(t *testing.T) {
	kept := uuid.New()
	added := uuid.New()

	repo := &stubTaskRepo{
		task:      &entities.Task{ID: 1, Name: "fix login"},
		assignees: []uuid.UUID{kept},
	}
	f := newTaskServiceFixture(repo)

	err := f.svc.ReplaceAssignees(context.Background(), manager(), 1, []uuid.UUID{kept, added})
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{kept, added}, repo.replacedWith)

	require.Len(t, f.activityRepo.appended, 1)
	assert.Equal(t, "replace_assignees", f.activityRepo.appended[0].Action)
	assert.Equal(t, 2, f.activityRepo.appended[0].Details["assignee_count"])

	// Only the newly added user gets an assignment notification.
	require.Len(t, f.notificationRepo.created, 1)
	notification := f.notificationRepo.created[0]
	assert.Equal(t, added, notification.UserID)
	assert.Equal(t, entities.NotificationTypeAssignment, notification.Type)
	require.Len(t, f.mailer.sent, 1)
}

func TestReplaceAssigneesAuditsFailure(t *testing.T) {
	repo := &stubTaskRepo{
		task:       &entities.Task{ID: 1, Name: "fix login"},
		replaceErr: errors.New("deadlock"),
	}
	f := newTaskServiceFixture(repo)

	err := f.svc.ReplaceAssignees(context.Background(), manager(), 1, []uuid.UUID{uuid.New()})
	require.Error(t, err)

	require.Len(t, f.activityRepo.appended, 1)
	assert.Equal(t, "replace_assignees"+FailedSuffix, f.activityRepo.appended[0].Action)
	assert.Empty(t, f.notificationRepo.created)
}

func TestGetTaskStampsDeadlineState(t *testing.T) {
	now := time.Date(2024, 6, 10, 12, 0, 0, 0, time.UTC)
	end := now.Add(24 * time.Hour)

	repo := &stubTaskRepo{task: &entities.Task{
		ID:          5,
		Status:      entities.TaskStatusInProgress,
		EndDatetime: &end,
		UpdatedAt:   now.Add(-time.Hour),
	}}
	f := newTaskServiceFixture(repo)
	f.svc.now = func() time.Time { return now }

	task, err := f.svc.GetTask(context.Background(), 5)
	require.NoError(t, err)
	assert.Equal(t, entities.DeadlineUrgent, task.DeadlineState)
}

func TestListTasksClassifiesEveryRow(t *testing.T) {
	now := time.Date(2024, 6, 10, 12, 0, 0, 0, time.UTC)
	passed := now.Add(-time.Hour)
	far := now.Add(30 * 24 * time.Hour)

	repo := &stubTaskRepo{tasks: []*entities.Task{
		{ID: 1, Status: entities.TaskStatusInProgress, EndDatetime: &passed, UpdatedAt: passed},
		{ID: 2, Status: entities.TaskStatusClosed, EndDatetime: &passed, UpdatedAt: now},
		{ID: 3, Status: entities.TaskStatusTodo, EndDatetime: &far, UpdatedAt: now},
		{ID: 4, Status: entities.TaskStatusTodo, UpdatedAt: now},
	}}
	f := newTaskServiceFixture(repo)
	f.svc.now = func() time.Time { return now }

	tasks, total, err := f.svc.ListTasks(context.Background(), ports.TaskFilter{})
	require.NoError(t, err)
	assert.Equal(t, 4, total)

	assert.Equal(t, entities.DeadlineOverdue, tasks[0].DeadlineState)
	assert.Equal(t, entities.DeadlineOverdue, tasks[1].DeadlineState)
	assert.Equal(t, entities.DeadlineNormal, tasks[2].DeadlineState)
	assert.Equal(t, entities.DeadlineNormal, tasks[3].DeadlineState)
}
