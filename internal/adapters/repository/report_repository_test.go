package repository

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bugtrack/core/internal/ports"
)

func TestAttachmentCountProjectScopeIncludesCommentParents(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewReportRepository(db)

	projectID := 4

	// The project branch must cover attachments on tasks, on bugs, and on
	// comments of either, resolved back to the project.
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM attachments a WHERE \(\s*`+
		`\(a\.entity_type = 'task' AND a\.entity_id IN \(SELECT id FROM tasks WHERE project_id = \$1\)\)\s*`+
		`OR \(a\.entity_type = 'bug' AND a\.entity_id IN \(\s*`+
		`SELECT b\.id FROM bugs b JOIN tasks t ON t\.id = b\.task_id WHERE t\.project_id = \$2\)\)\s*`+
		`OR \(a\.entity_type = 'comment' AND a\.entity_id IN \(\s*`+
		`SELECT c\.id FROM comments c\s*`+
		`LEFT JOIN tasks ct ON c\.entity_type = 'task' AND ct\.id = c\.entity_id\s*`+
		`LEFT JOIN bugs cb ON c\.entity_type = 'bug' AND cb\.id = c\.entity_id\s*`+
		`LEFT JOIN tasks cbt ON cbt\.id = cb\.task_id\s*`+
		`WHERE ct\.project_id = \$3 OR cbt\.project_id = \$4\)\)`).
		WithArgs(projectID, projectID, projectID, projectID).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(12))

	count, err := repo.AttachmentCount(context.Background(), ports.ReportScope{ProjectID: &projectID})
	require.NoError(t, err)
	assert.Equal(t, 12, count)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAttachmentCountEmployeeScope(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewReportRepository(db)

	employeeID := uuid.New()

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM attachments a WHERE a\.uploaded_by = \$1`).
		WithArgs(employeeID).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))

	count, err := repo.AttachmentCount(context.Background(), ports.ReportScope{EmployeeID: &employeeID})
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	assert.NoError(t, mock.ExpectationsWereMet())
}
