package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/fas-core-api/internal/models"
	appErrors "github.com/noah-isme/fas-core-api/pkg/errors"
	"github.com/noah-isme/fas-core-api/pkg/response"
)

type restrictionService interface {
	ReconcileFederalSnapshot(ctx context.Context, actorID string) (*models.ReconciliationResult, error)
	ActiveRestrictions(ctx context.Context, studentID string) ([]models.StudentRestriction, error)
}

// RestrictionHandler exposes the snapshot reconciliation trigger and the
// active-ledger read.
type RestrictionHandler struct {
	service restrictionService
}

// NewRestrictionHandler constructs the handler.
func NewRestrictionHandler(service restrictionService) *RestrictionHandler {
	return &RestrictionHandler{service: service}
}

// Reconcile godoc
// @Summary Run one federal snapshot reconciliation cycle
// @Tags Restrictions
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /restrictions/reconcile [post]
func (h *RestrictionHandler) Reconcile(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	result, err := h.service.ReconcileFederalSnapshot(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result)
}

// ListActive godoc
// @Summary List a student's active restrictions
// @Tags Restrictions
// @Produce json
// @Param id path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /students/{id}/restrictions [get]
func (h *RestrictionHandler) ListActive(c *gin.Context) {
	restrictions, err := h.service.ActiveRestrictions(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, restrictions)
}
