package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/fas-core-api/internal/models"
	"github.com/noah-isme/fas-core-api/pkg/config"
	appErrors "github.com/noah-isme/fas-core-api/pkg/errors"
	"github.com/noah-isme/fas-core-api/pkg/jobs"
)

type assessmentStoreStub struct {
	assessments map[string]*models.Assessment
	original    *models.Assessment
	stale       []models.Assessment
}

func newAssessmentStoreStub() *assessmentStoreStub {
	return &assessmentStoreStub{assessments: make(map[string]*models.Assessment)}
}

func (s *assessmentStoreStub) GetByID(ctx context.Context, id string) (*models.Assessment, error) {
	if a, ok := s.assessments[id]; ok {
		copy := *a
		return &copy, nil
	}
	return nil, sql.ErrNoRows
}

func (s *assessmentStoreStub) GetOriginal(ctx context.Context, applicationID string) (*models.Assessment, error) {
	if s.original == nil {
		return nil, sql.ErrNoRows
	}
	copy := *s.original
	return &copy, nil
}

func (s *assessmentStoreStub) Create(ctx context.Context, assessment *models.Assessment) error {
	if assessment.ID == "" {
		assessment.ID = "assessment-new"
	}
	s.assessments[assessment.ID] = assessment
	return nil
}

func (s *assessmentStoreStub) UpdateStatus(ctx context.Context, id string, from []models.StudentAssessmentStatus, to models.StudentAssessmentStatus) error {
	a, ok := s.assessments[id]
	if !ok {
		return sql.ErrNoRows
	}
	for _, status := range from {
		if a.Status == status {
			a.Status = to
			return nil
		}
	}
	return sql.ErrNoRows
}

func (s *assessmentStoreStub) ListStaleQueued(ctx context.Context, threshold time.Duration, now time.Time) ([]models.Assessment, error) {
	return s.stale, nil
}

type applicationReaderStub struct {
	app *models.Application
}

func (s *applicationReaderStub) GetByID(ctx context.Context, id string) (*models.Application, error) {
	if s.app == nil {
		return nil, sql.ErrNoRows
	}
	copy := *s.app
	return &copy, nil
}

type queueStub struct {
	jobs []jobs.Job
}

func (q *queueStub) Enqueue(job jobs.Job) error {
	q.jobs = append(q.jobs, job)
	return nil
}

func completedOriginal() *models.Assessment {
	offering := "offering-1"
	return &models.Assessment{
		ID:          "assessment-0",
		TriggerType: models.TriggerOriginalAssessment,
		Status:      models.AssessmentStatusCompleted,
		OfferingID:  &offering,
	}
}

func TestCreateManualReassessment(t *testing.T) {
	repo := newAssessmentStoreStub()
	repo.original = completedOriginal()
	apps := &applicationReaderStub{app: &models.Application{
		ID:     "app-1",
		Status: models.ApplicationStatusCompleted,
	}}
	queue := &queueStub{}
	svc := NewAssessmentService(repo, apps, queue, &auditStub{}, config.AssessmentConfig{}, nil)

	assessment, err := svc.CreateManualReassessment(context.Background(), "app-1", "ministry-1")
	require.NoError(t, err)
	require.Equal(t, models.TriggerManualReassessment, assessment.TriggerType)
	require.Equal(t, models.AssessmentStatusQueued, assessment.Status)
	require.Equal(t, repo.original.OfferingID, assessment.OfferingID)
	require.Len(t, queue.jobs, 1)
	require.Equal(t, jobs.KindProcessAssessment, queue.jobs[0].Kind)
}

func TestCreateManualReassessmentPreconditions(t *testing.T) {
	tests := []struct {
		name     string
		app      *models.Application
		original *models.Assessment
		wantMsg  string
	}{
		{
			name:     "archived application",
			app:      &models.Application{ID: "app-1", Status: models.ApplicationStatusCompleted, IsArchived: true},
			original: completedOriginal(),
			wantMsg:  MsgApplicationArchived,
		},
		{
			name:     "cancelled application",
			app:      &models.Application{ID: "app-1", Status: models.ApplicationStatusCancelled},
			original: completedOriginal(),
			wantMsg:  MsgApplicationNotAssessable,
		},
		{
			name:     "draft application",
			app:      &models.Application{ID: "app-1", Status: models.ApplicationStatusDraft},
			original: completedOriginal(),
			wantMsg:  MsgApplicationNotAssessable,
		},
		{
			name:     "no original assessment",
			app:      &models.Application{ID: "app-1", Status: models.ApplicationStatusCompleted},
			original: nil,
			wantMsg:  MsgOriginalNotCompleted,
		},
		{
			name: "original not completed",
			app:  &models.Application{ID: "app-1", Status: models.ApplicationStatusCompleted},
			original: &models.Assessment{
				TriggerType: models.TriggerOriginalAssessment,
				Status:      models.AssessmentStatusInProgress,
			},
			wantMsg: MsgOriginalNotCompleted,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newAssessmentStoreStub()
			repo.original = tt.original
			apps := &applicationReaderStub{app: tt.app}
			svc := NewAssessmentService(repo, apps, &queueStub{}, &auditStub{}, config.AssessmentConfig{}, nil)

			_, err := svc.CreateManualReassessment(context.Background(), "app-1", "ministry-1")
			require.Error(t, err)
			appErr := appErrors.FromError(err)
			require.Equal(t, appErrors.ErrUnprocessable.Code, appErr.Code)
			require.Equal(t, tt.wantMsg, appErr.Message)
		})
	}
}

func TestAssessmentStatusMachine(t *testing.T) {
	repo := newAssessmentStoreStub()
	repo.assessments["a-1"] = &models.Assessment{ID: "a-1", Status: models.AssessmentStatusSubmitted}
	svc := NewAssessmentService(repo, &applicationReaderStub{}, &queueStub{}, &auditStub{}, config.AssessmentConfig{}, nil)
	ctx := context.Background()

	require.NoError(t, svc.Queue(ctx, "a-1"))
	require.NoError(t, svc.MarkInProgress(ctx, "a-1"))
	require.NoError(t, svc.Complete(ctx, "a-1"))
	require.Equal(t, models.AssessmentStatusCompleted, repo.assessments["a-1"].Status)

	// Completed runs cannot be cancelled.
	err := svc.QueueCancellation(ctx, "a-1")
	require.Error(t, err)
	require.Equal(t, appErrors.ErrUnprocessable.Code, appErrors.FromError(err).Code)
}

func TestAssessmentCancellationPath(t *testing.T) {
	repo := newAssessmentStoreStub()
	repo.assessments["a-1"] = &models.Assessment{ID: "a-1", Status: models.AssessmentStatusQueued}
	queue := &queueStub{}
	svc := NewAssessmentService(repo, &applicationReaderStub{}, queue, &auditStub{}, config.AssessmentConfig{}, nil)
	ctx := context.Background()

	require.NoError(t, svc.QueueCancellation(ctx, "a-1"))
	require.Equal(t, models.AssessmentStatusCancellationQueued, repo.assessments["a-1"].Status)
	require.Len(t, queue.jobs, 1)
	require.Equal(t, jobs.KindCancelAssessment, queue.jobs[0].Kind)

	require.NoError(t, svc.FinalizeCancellation(ctx, "a-1"))
	require.Equal(t, models.AssessmentStatusCancelled, repo.assessments["a-1"].Status)
}

func TestRequeueStaleChoosesJobKindByStatus(t *testing.T) {
	repo := newAssessmentStoreStub()
	repo.stale = []models.Assessment{
		{ID: "a-1", Status: models.AssessmentStatusQueued},
		{ID: "a-2", Status: models.AssessmentStatusCancellationQueued},
	}
	queue := &queueStub{}
	svc := NewAssessmentService(repo, &applicationReaderStub{}, queue, &auditStub{},
		config.AssessmentConfig{RetryThreshold: 4 * time.Hour}, nil)

	requeued, err := svc.RequeueStale(context.Background(), time.Now().UTC())
	require.NoError(t, err)
	require.Equal(t, 2, requeued)
	require.Len(t, queue.jobs, 2)
	require.Equal(t, jobs.KindProcessAssessment, queue.jobs[0].Kind)
	require.Equal(t, jobs.KindCancelAssessment, queue.jobs[1].Kind)
}

func TestHandleJobProcessesAssessment(t *testing.T) {
	repo := newAssessmentStoreStub()
	repo.assessments["a-1"] = &models.Assessment{ID: "a-1", Status: models.AssessmentStatusQueued}
	calculated := false
	calc := calculatorFunc(func(ctx context.Context, assessmentID string) error {
		calculated = true
		return nil
	})
	svc := NewAssessmentService(repo, &applicationReaderStub{}, &queueStub{}, &auditStub{},
		config.AssessmentConfig{}, nil, WithAwardCalculator(calc))

	err := svc.HandleJob(context.Background(), jobs.Job{Kind: jobs.KindProcessAssessment, AssessmentID: "a-1"})
	require.NoError(t, err)
	require.True(t, calculated)
	require.Equal(t, models.AssessmentStatusCompleted, repo.assessments["a-1"].Status)
}

func TestHandleJobAbsorbsDuplicateDelivery(t *testing.T) {
	repo := newAssessmentStoreStub()
	repo.assessments["a-1"] = &models.Assessment{ID: "a-1", Status: models.AssessmentStatusCompleted}
	svc := NewAssessmentService(repo, &applicationReaderStub{}, &queueStub{}, &auditStub{}, config.AssessmentConfig{}, nil)

	err := svc.HandleJob(context.Background(), jobs.Job{Kind: jobs.KindProcessAssessment, AssessmentID: "a-1"})
	require.NoError(t, err)
	require.Equal(t, models.AssessmentStatusCompleted, repo.assessments["a-1"].Status)
}

func TestHandleJobUnknownKindIsFatal(t *testing.T) {
	svc := NewAssessmentService(newAssessmentStoreStub(), &applicationReaderStub{}, &queueStub{}, &auditStub{}, config.AssessmentConfig{}, nil)

	err := svc.HandleJob(context.Background(), jobs.Job{Kind: "SOMETHING_ELSE", AssessmentID: "a-1"})
	require.Error(t, err)
	require.Equal(t, appErrors.ErrContractViolation.Code, appErrors.FromError(err).Code)
}

type calculatorFunc func(ctx context.Context, assessmentID string) error

func (f calculatorFunc) Calculate(ctx context.Context, assessmentID string) error {
	return f(ctx, assessmentID)
}
