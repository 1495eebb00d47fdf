package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/fas-core-api/internal/models"
	appErrors "github.com/noah-isme/fas-core-api/pkg/errors"
	"github.com/noah-isme/fas-core-api/pkg/response"
)

type assessmentService interface {
	CreateManualReassessment(ctx context.Context, applicationID, actorID string) (*models.Assessment, error)
}

// AssessmentHandler exposes the manual reassessment trigger.
type AssessmentHandler struct {
	service assessmentService
}

// NewAssessmentHandler constructs the handler.
func NewAssessmentHandler(service assessmentService) *AssessmentHandler {
	return &AssessmentHandler{service: service}
}

// CreateReassessment godoc
// @Summary Trigger a manual reassessment of an application
// @Tags Assessments
// @Produce json
// @Param id path string true "Application ID"
// @Success 201 {object} response.Envelope
// @Router /applications/{id}/reassessments [post]
func (h *AssessmentHandler) CreateReassessment(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	assessment, err := h.service.CreateManualReassessment(c.Request.Context(), c.Param("id"), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, assessment)
}
