package handler

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/campushub/campushub-api/internal/models"
	"github.com/campushub/campushub-api/internal/service"
	appErrors "github.com/campushub/campushub-api/pkg/errors"
	"github.com/campushub/campushub-api/pkg/export"
	"github.com/campushub/campushub-api/pkg/mailer"
	"github.com/campushub/campushub-api/pkg/response"
)

const maxImportBytes = 10 << 20

type scheduleService interface {
	Generate(ctx context.Context, scope service.Scope, createdBy string, req service.GenerateScheduleRequest) (*models.ScheduleDraft, error)
	Draft(ctx context.Context, scope service.Scope, id string) (*models.ScheduleDraft, error)
	Render(ctx context.Context, scope service.Scope, draftID string, format export.Format) (*service.RenderedFile, error)
	StoreExport(ctx context.Context, scope service.Scope, draftID string, format export.Format) (*service.ExportLink, error)
	OpenExport(token string) (*service.Download, error)
	Import(ctx context.Context, scope service.Scope, importer mailer.Address, filename string, r io.Reader) (*models.ImportSummary, error)
}

// ScheduleHandler exposes the generator and the spreadsheet round trip.
type ScheduleHandler struct {
	service scheduleService
}

// NewScheduleHandler constructs the handler.
func NewScheduleHandler(svc *service.ScheduleService) *ScheduleHandler {
	return &ScheduleHandler{service: svc}
}

// Generate godoc
// @Summary Generate a class and exam schedule draft
// @Description Randomly assigns day, slot, room and lecturer per semester module without double booking, then derives exams.
// @Tags Schedules
// @Accept json
// @Produce json
// @Param payload body service.GenerateScheduleRequest true "Generator payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /schedules/generate [post]
func (h *ScheduleHandler) Generate(c *gin.Context) {
	var req service.GenerateScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Invalid(err, "invalid schedule generation payload"))
		return
	}
	createdBy := ""
	if claims := claimsFromContext(c); claims != nil {
		createdBy = claims.UserID
	}
	draft, err := h.service.Generate(c.Request.Context(), scopeFromContext(c), createdBy, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Message(c, http.StatusCreated, fmt.Sprintf("generated %d classes and %d exams", len(draft.Classes), len(draft.Exams)), draft)
}

// Draft godoc
// @Summary Get a generated schedule draft
// @Tags Schedules
// @Produce json
// @Param id path string true "Draft ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /schedules/drafts/{id} [get]
func (h *ScheduleHandler) Draft(c *gin.Context) {
	draft, err := h.service.Draft(c.Request.Context(), scopeFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, draft)
}

// Export godoc
// @Summary Download a schedule draft
// @Tags Schedules
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param id path string true "Draft ID"
// @Param format query string false "xlsx (default), csv or pdf"
// @Success 200 {file} file
// @Router /schedules/drafts/{id}/export [get]
func (h *ScheduleHandler) Export(c *gin.Context) {
	format, err := export.ParseFormat(c.Query("format"))
	if err != nil {
		response.Error(c, appErrors.Invalid(err, "unsupported export format"))
		return
	}
	file, err := h.service.Render(c.Request.Context(), scopeFromContext(c), c.Param("id"), format)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", file.Filename))
	c.Data(http.StatusOK, file.ContentType, file.Data)
}

// ExportLink godoc
// @Summary Store a schedule draft export and return a signed download link
// @Tags Schedules
// @Produce json
// @Param id path string true "Draft ID"
// @Param format query string false "xlsx (default), csv or pdf"
// @Success 201 {object} response.Envelope
// @Router /schedules/drafts/{id}/export [post]
func (h *ScheduleHandler) ExportLink(c *gin.Context) {
	format, err := export.ParseFormat(c.Query("format"))
	if err != nil {
		response.Error(c, appErrors.Invalid(err, "unsupported export format"))
		return
	}
	link, err := h.service.StoreExport(c.Request.Context(), scopeFromContext(c), c.Param("id"), format)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, link)
}

// Download godoc
// @Summary Download a stored export through a signed token
// @Tags Schedules
// @Produce application/octet-stream
// @Param token path string true "Signed download token"
// @Success 200 {file} file
// @Failure 403 {object} response.Envelope
// @Failure 410 {object} response.Envelope
// @Router /exports/{token} [get]
func (h *ScheduleHandler) Download(c *gin.Context) {
	download, err := h.service.OpenExport(c.Param("token"))
	if err != nil {
		response.Error(c, err)
		return
	}
	defer download.Body.Close()
	c.DataFromReader(http.StatusOK, download.Size, download.ContentType, download.Body, map[string]string{
		"Content-Disposition": fmt.Sprintf("attachment; filename=%q", download.Filename),
	})
}

// Import godoc
// @Summary Import an edited schedule spreadsheet
// @Description Each row is inserted independently; failed rows are reported and nothing is rolled back.
// @Tags Schedules
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "xlsx or csv file"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /schedules/import [post]
func (h *ScheduleHandler) Import(c *gin.Context) {
	header, err := c.FormFile("file")
	if err != nil {
		response.Error(c, appErrors.Invalid(err, "file is required"))
		return
	}
	if header.Size > maxImportBytes {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "file is too large"))
		return
	}
	file, err := header.Open()
	if err != nil {
		response.Error(c, appErrors.Invalid(err, "unable to open uploaded file"))
		return
	}
	defer file.Close()

	summary, err := h.service.Import(c.Request.Context(), scopeFromContext(c), callerAddress(c), header.Filename, file)
	if err != nil {
		response.Error(c, err)
		return
	}
	message := fmt.Sprintf("imported %d of %d rows", summary.SuccessCount, summary.Total)
	response.Message(c, http.StatusOK, message, summary)
}
