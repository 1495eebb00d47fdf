package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/noah-isme/fas-core-api/internal/dto"
	"github.com/noah-isme/fas-core-api/internal/models"
	"github.com/noah-isme/fas-core-api/internal/service"
	appErrors "github.com/noah-isme/fas-core-api/pkg/errors"
	"github.com/noah-isme/fas-core-api/pkg/response"
)

type appealService interface {
	ProcessDecision(ctx context.Context, appealID string, input service.DecisionInput, reviewerID string) (*models.AppealRequest, error)
}

// AppealHandler exposes ministry appeal decisions.
type AppealHandler struct {
	service  appealService
	validate *validator.Validate
}

// NewAppealHandler constructs the handler.
func NewAppealHandler(service appealService, validate *validator.Validate) *AppealHandler {
	if validate == nil {
		validate = validator.New()
	}
	return &AppealHandler{service: service, validate: validate}
}

// Decide godoc
// @Summary Record a decision on a pending appeal
// @Tags Appeals
// @Accept json
// @Produce json
// @Param id path string true "Appeal ID"
// @Param payload body dto.AppealDecisionRequest true "Decision payload"
// @Success 200 {object} response.Envelope
// @Router /appeals/{id}/decision [post]
func (h *AppealHandler) Decide(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req dto.AppealDecisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid decision payload"))
		return
	}
	if err := h.validate.Struct(req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "status must be Approved or Declined and lastModified is required"))
		return
	}

	input := service.DecisionInput{
		Status:       models.AppealStatus(req.Status),
		Note:         req.Note,
		LastModified: req.LastModified,
	}
	appeal, err := h.service.ProcessDecision(c.Request.Context(), c.Param("id"), input, claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, appeal)
}
