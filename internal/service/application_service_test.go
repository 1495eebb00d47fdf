package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/fas-core-api/internal/models"
	appErrors "github.com/noah-isme/fas-core-api/pkg/errors"
)

type applicationStoreStub struct {
	applications map[string]*models.Application
	lastFrom     []models.ApplicationEditStatus
}

func newApplicationStoreStub() *applicationStoreStub {
	return &applicationStoreStub{applications: make(map[string]*models.Application)}
}

func (s *applicationStoreStub) GetByID(ctx context.Context, id string) (*models.Application, error) {
	if app, ok := s.applications[id]; ok {
		copy := *app
		return &copy, nil
	}
	return nil, sql.ErrNoRows
}

func (s *applicationStoreStub) UpdateEditStatus(ctx context.Context, id string, from []models.ApplicationEditStatus, to models.ApplicationEditStatus) error {
	s.lastFrom = from
	app, ok := s.applications[id]
	if !ok {
		return sql.ErrNoRows
	}
	for _, status := range from {
		if app.EditStatus == status {
			app.EditStatus = to
			return nil
		}
	}
	return sql.ErrNoRows
}

func (s *applicationStoreStub) CancelChangeRequest(ctx context.Context, applicationID, studentID string) error {
	app, ok := s.applications[applicationID]
	if !ok || app.StudentID != studentID {
		return sql.ErrNoRows
	}
	for _, status := range models.InProgressEditStatuses {
		if app.EditStatus == status {
			app.EditStatus = models.EditStatusChangeCancelled
			return nil
		}
	}
	return sql.ErrNoRows
}

type auditStub struct {
	logs []*models.AuditLog
}

func (a *auditStub) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	a.logs = append(a.logs, log)
	return nil
}

func TestApplicationServiceChangeRequestLifecycle(t *testing.T) {
	repo := newApplicationStoreStub()
	audit := &auditStub{}
	repo.applications["app-1"] = &models.Application{
		ID:         "app-1",
		StudentID:  "student-1",
		EditStatus: models.EditStatusOriginal,
	}
	svc := NewApplicationService(repo, audit, nil)
	ctx := context.Background()

	require.NoError(t, svc.OpenChangeRequest(ctx, "app-1", "student-1"))
	require.Equal(t, models.EditStatusChangeInProgress, repo.applications["app-1"].EditStatus)

	require.NoError(t, svc.SubmitChangeRequest(ctx, "app-1", "student-1"))
	require.Equal(t, models.EditStatusChangePendingApproval, repo.applications["app-1"].EditStatus)

	require.NoError(t, svc.ApproveChange(ctx, "app-1", "ministry-1"))
	require.Equal(t, models.EditStatusChangedWithApproval, repo.applications["app-1"].EditStatus)
	require.Len(t, audit.logs, 3)
}

func TestApplicationServiceDeclineFromPendingOnly(t *testing.T) {
	repo := newApplicationStoreStub()
	repo.applications["app-1"] = &models.Application{
		ID:         "app-1",
		EditStatus: models.EditStatusChangeInProgress,
	}
	svc := NewApplicationService(repo, &auditStub{}, nil)

	err := svc.DeclineChange(context.Background(), "app-1", "ministry-1")
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	require.Equal(t, appErrors.ErrUnprocessable.Code, appErr.Code)
	require.Equal(t, models.EditStatusChangeInProgress, repo.applications["app-1"].EditStatus)
}

func TestApplicationServiceCancelCollapsesFailureModes(t *testing.T) {
	repo := newApplicationStoreStub()
	repo.applications["app-resolved"] = &models.Application{
		ID:         "app-resolved",
		StudentID:  "student-1",
		EditStatus: models.EditStatusOriginal,
	}
	repo.applications["app-other"] = &models.Application{
		ID:         "app-other",
		StudentID:  "student-2",
		EditStatus: models.EditStatusChangeInProgress,
	}
	svc := NewApplicationService(repo, &auditStub{}, nil)
	ctx := context.Background()

	tests := []struct {
		name          string
		applicationID string
	}{
		{"wrong status", "app-resolved"},
		{"another student's revision", "app-other"},
		{"missing revision", "app-none"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := svc.CancelChangeRequest(ctx, tt.applicationID, "student-1")
			require.Error(t, err)
			appErr := appErrors.FromError(err)
			require.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
			require.Equal(t, MsgNoChangeRequestFound, appErr.Message)
		})
	}
}

func TestApplicationServiceCancelFromPendingApproval(t *testing.T) {
	repo := newApplicationStoreStub()
	audit := &auditStub{}
	repo.applications["app-1"] = &models.Application{
		ID:         "app-1",
		StudentID:  "student-1",
		EditStatus: models.EditStatusChangePendingApproval,
	}
	svc := NewApplicationService(repo, audit, nil)

	require.NoError(t, svc.CancelChangeRequest(context.Background(), "app-1", "student-1"))
	require.Equal(t, models.EditStatusChangeCancelled, repo.applications["app-1"].EditStatus)
	require.Len(t, audit.logs, 1)
	require.Equal(t, models.AuditActionChangeRequestCancel, audit.logs[0].Action)
}

func TestApplicationServiceReopenAfterCancellation(t *testing.T) {
	repo := newApplicationStoreStub()
	repo.applications["app-1"] = &models.Application{
		ID:         "app-1",
		StudentID:  "student-1",
		EditStatus: models.EditStatusChangeCancelled,
	}
	svc := NewApplicationService(repo, &auditStub{}, nil)

	require.NoError(t, svc.OpenChangeRequest(context.Background(), "app-1", "student-1"))
	require.Equal(t, models.EditStatusChangeInProgress, repo.applications["app-1"].EditStatus)
}
