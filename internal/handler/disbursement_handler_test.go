package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/fas-core-api/internal/dto"
	"github.com/noah-isme/fas-core-api/internal/middleware"
	"github.com/noah-isme/fas-core-api/internal/models"
)

type disbursementServiceMock struct {
	eligible  []models.EligibleDisbursement
	summary   *models.EligibilitySummary
	markedIDs []string
	markedDoc int64
	markErr   error
}

func (m *disbursementServiceMock) ListEligible(ctx context.Context, intensity models.OfferingIntensity, now time.Time) ([]models.EligibleDisbursement, error) {
	return m.eligible, nil
}

func (m *disbursementServiceMock) Summary(ctx context.Context, intensity models.OfferingIntensity, now time.Time) (*models.EligibilitySummary, error) {
	return m.summary, nil
}

func (m *disbursementServiceMock) MarkBatchSent(ctx context.Context, scheduleIDs []string, documentNumber int64, actorID string, now time.Time) error {
	m.markedIDs = scheduleIDs
	m.markedDoc = documentNumber
	return m.markErr
}

func (m *disbursementServiceMock) ExportEligible(ctx context.Context, intensity models.OfferingIntensity, format string, now time.Time) ([]byte, string, error) {
	return []byte("csv"), "text/csv", nil
}

func TestDisbursementHandlerListEligible(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc := &disbursementServiceMock{eligible: []models.EligibleDisbursement{{ScheduleID: "d-1"}}}
	h := NewDisbursementHandler(svc, nil)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/disbursements/eligible?intensity=Full+Time", nil)
	c.Request = req

	h.ListEligible(c)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "d-1")
}

func TestDisbursementHandlerListEligibleRequiresIntensity(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := NewDisbursementHandler(&disbursementServiceMock{}, nil)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/disbursements/eligible", nil)
	c.Request = req

	h.ListEligible(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDisbursementHandlerMarkSent(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc := &disbursementServiceMock{}
	h := NewDisbursementHandler(svc, nil)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	body, _ := json.Marshal(dto.MarkBatchSentRequest{
		DocumentNumber: 4001,
		ScheduleIDs:    []string{"0d4cab59-9f63-4066-8a65-3c2f2e6e9f31"},
	})
	req, _ := http.NewRequest(http.MethodPost, "/disbursements/mark-sent", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "ministry-1", Role: models.RoleMinistry})

	h.MarkSent(c)
	c.Writer.WriteHeaderNow()
	require.Equal(t, http.StatusNoContent, w.Code)
	require.Equal(t, int64(4001), svc.markedDoc)
	require.Len(t, svc.markedIDs, 1)
}

func TestDisbursementHandlerMarkSentRequiresSchedules(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc := &disbursementServiceMock{}
	h := NewDisbursementHandler(svc, nil)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	body, _ := json.Marshal(dto.MarkBatchSentRequest{DocumentNumber: 4001})
	req, _ := http.NewRequest(http.MethodPost, "/disbursements/mark-sent", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "ministry-1", Role: models.RoleMinistry})

	h.MarkSent(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Empty(t, svc.markedIDs)
}
