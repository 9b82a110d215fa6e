package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/campushub/campushub-api/internal/models"
	"github.com/campushub/campushub-api/internal/service"
	"github.com/campushub/campushub-api/pkg/response"
)

type enrollmentService interface {
	Enroll(ctx context.Context, scope service.Scope, id string) (*models.IntakeCourse, error)
}

// EnrollmentHandler exposes the intake course enrollment transition.
type EnrollmentHandler struct {
	service enrollmentService
}

// NewEnrollmentHandler constructs the handler.
func NewEnrollmentHandler(svc *service.EnrollmentService) *EnrollmentHandler {
	return &EnrollmentHandler{service: svc}
}

// Enroll godoc
// @Summary Take one seat of an intake course
// @Description Allowed while the course is OPEN and below capacity. Filling the last seat closes it.
// @Tags Academics
// @Produce json
// @Param id path string true "Intake course ID"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /intake-courses/{id}/enroll [post]
func (h *EnrollmentHandler) Enroll(c *gin.Context) {
	course, err := h.service.Enroll(c.Request.Context(), scopeFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Message(c, http.StatusOK, "enrolled", course)
}
