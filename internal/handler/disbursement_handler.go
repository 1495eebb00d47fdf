package handler

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/noah-isme/fas-core-api/internal/dto"
	"github.com/noah-isme/fas-core-api/internal/models"
	appErrors "github.com/noah-isme/fas-core-api/pkg/errors"
	"github.com/noah-isme/fas-core-api/pkg/response"
)

type disbursementService interface {
	ListEligible(ctx context.Context, intensity models.OfferingIntensity, now time.Time) ([]models.EligibleDisbursement, error)
	Summary(ctx context.Context, intensity models.OfferingIntensity, now time.Time) (*models.EligibilitySummary, error)
	MarkBatchSent(ctx context.Context, scheduleIDs []string, documentNumber int64, actorID string, now time.Time) error
	ExportEligible(ctx context.Context, intensity models.OfferingIntensity, format string, now time.Time) ([]byte, string, error)
}

// DisbursementHandler exposes the funding eligibility read surface and the
// mark-sent mutation.
type DisbursementHandler struct {
	service  disbursementService
	validate *validator.Validate
}

// NewDisbursementHandler constructs the handler.
func NewDisbursementHandler(service disbursementService, validate *validator.Validate) *DisbursementHandler {
	if validate == nil {
		validate = validator.New()
	}
	return &DisbursementHandler{service: service, validate: validate}
}

// ListEligible godoc
// @Summary List disbursement schedules eligible for the next funding batch
// @Tags Disbursements
// @Produce json
// @Param intensity query string true "Offering intensity (Full-Time or Part-Time)"
// @Param summary query bool false "Return the cached per-intensity summary instead"
// @Success 200 {object} response.Envelope
// @Router /disbursements/eligible [get]
func (h *DisbursementHandler) ListEligible(c *gin.Context) {
	var query dto.EligibleQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid eligibility query"))
		return
	}
	if err := h.validate.Struct(query); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "intensity must be Full Time or Part Time"))
		return
	}
	intensity := models.OfferingIntensity(query.Intensity)
	now := time.Now().UTC()

	if query.Summary {
		summary, err := h.service.Summary(c.Request.Context(), intensity, now)
		if err != nil {
			response.Error(c, err)
			return
		}
		response.JSON(c, http.StatusOK, summary)
		return
	}

	eligible, err := h.service.ListEligible(c.Request.Context(), intensity, now)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, eligible, map[string]interface{}{"count": len(eligible)})
}

// MarkSent godoc
// @Summary Mark a produced funding batch as sent
// @Tags Disbursements
// @Accept json
// @Produce json
// @Param payload body dto.MarkBatchSentRequest true "Batch payload"
// @Success 204
// @Router /disbursements/mark-sent [post]
func (h *DisbursementHandler) MarkSent(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req dto.MarkBatchSentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid mark-sent payload"))
		return
	}
	if err := h.validate.Struct(req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "documentNumber and at least one schedule id are required"))
		return
	}
	if err := h.service.MarkBatchSent(c.Request.Context(), req.ScheduleIDs, req.DocumentNumber, claims.UserID, time.Now().UTC()); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Export godoc
// @Summary Export the eligible set as a CSV or PDF operational summary
// @Tags Disbursements
// @Produce octet-stream
// @Param intensity query string true "Offering intensity (Full-Time or Part-Time)"
// @Param format query string false "csv or pdf (default csv)"
// @Success 200
// @Router /disbursements/eligible/export [get]
func (h *DisbursementHandler) Export(c *gin.Context) {
	var query dto.EligibleQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid eligibility query"))
		return
	}
	if err := h.validate.Struct(query); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "intensity must be Full Time or Part Time"))
		return
	}
	format := c.DefaultQuery("format", "csv")
	payload, contentType, err := h.service.ExportEligible(c.Request.Context(), models.OfferingIntensity(query.Intensity), format, time.Now().UTC())
	if err != nil {
		response.Error(c, err)
		return
	}
	filename := fmt.Sprintf("eligible-disbursements-%s.%s", time.Now().UTC().Format("20060102"), format)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, contentType, payload)
}
