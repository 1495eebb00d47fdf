package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/fas-core-api/internal/models"
	appErrors "github.com/noah-isme/fas-core-api/pkg/errors"
	"github.com/noah-isme/fas-core-api/pkg/response"
)

type applicationService interface {
	OpenChangeRequest(ctx context.Context, applicationID, actorID string) error
	SubmitChangeRequest(ctx context.Context, applicationID, actorID string) error
	ApproveChange(ctx context.Context, applicationID, actorID string) error
	DeclineChange(ctx context.Context, applicationID, actorID string) error
	CancelChangeRequest(ctx context.Context, applicationID, studentID string) error
}

type sequencerService interface {
	SequenceForApplication(ctx context.Context, applicationID string, fallbackDate *time.Time) (*models.SequencedApplications, error)
}

// ApplicationHandler exposes REST endpoints for the change-request workflow
// and application sequencing.
type ApplicationHandler struct {
	applications applicationService
	sequencer    sequencerService
}

// NewApplicationHandler constructs the handler.
func NewApplicationHandler(applications applicationService, sequencer sequencerService) *ApplicationHandler {
	return &ApplicationHandler{applications: applications, sequencer: sequencer}
}

// OpenChangeRequest godoc
// @Summary Open a change request on a resolved application
// @Tags Applications
// @Produce json
// @Param id path string true "Application ID"
// @Success 204
// @Router /applications/{id}/change-request [post]
func (h *ApplicationHandler) OpenChangeRequest(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	if err := h.applications.OpenChangeRequest(c.Request.Context(), c.Param("id"), claims.UserID); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// SubmitChangeRequest godoc
// @Summary Submit an in-progress change request for approval
// @Tags Applications
// @Produce json
// @Param id path string true "Application ID"
// @Success 204
// @Router /applications/{id}/change-request/submit [post]
func (h *ApplicationHandler) SubmitChangeRequest(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	if err := h.applications.SubmitChangeRequest(c.Request.Context(), c.Param("id"), claims.UserID); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// ApproveChange godoc
// @Summary Approve a pending change request
// @Tags Applications
// @Produce json
// @Param id path string true "Application ID"
// @Success 204
// @Router /applications/{id}/change-request/approve [post]
func (h *ApplicationHandler) ApproveChange(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	if err := h.applications.ApproveChange(c.Request.Context(), c.Param("id"), claims.UserID); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// DeclineChange godoc
// @Summary Decline a pending change request
// @Tags Applications
// @Produce json
// @Param id path string true "Application ID"
// @Success 204
// @Router /applications/{id}/change-request/decline [post]
func (h *ApplicationHandler) DeclineChange(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	if err := h.applications.DeclineChange(c.Request.Context(), c.Param("id"), claims.UserID); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// CancelChangeRequest godoc
// @Summary Cancel the caller's own in-progress change request
// @Tags Applications
// @Produce json
// @Param id path string true "Application ID"
// @Success 204
// @Router /applications/{id}/change-request/cancel [post]
func (h *ApplicationHandler) CancelChangeRequest(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	if err := h.applications.CancelChangeRequest(c.Request.Context(), c.Param("id"), claims.UserID); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Sequence godoc
// @Summary Partition an application's sibling family around it in time
// @Tags Applications
// @Produce json
// @Param id path string true "Application ID"
// @Param fallbackDate query string false "Fallback calculation date (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Router /applications/{id}/sequence [get]
func (h *ApplicationHandler) Sequence(c *gin.Context) {
	var fallback *time.Time
	if raw := c.Query("fallbackDate"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "fallbackDate must be YYYY-MM-DD"))
			return
		}
		fallback = &parsed
	}
	sequenced, err := h.sequencer.SequenceForApplication(c.Request.Context(), c.Param("id"), fallback)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, sequenced)
}
