package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/campushub/campushub-api/internal/models"
	appErrors "github.com/campushub/campushub-api/pkg/errors"
	"github.com/campushub/campushub-api/pkg/export"
	"github.com/campushub/campushub-api/pkg/mailer"
	"github.com/campushub/campushub-api/pkg/storage"
)

// Row types of the schedule spreadsheet.
const (
	RowTypeClass = "class"
	RowTypeExam  = "exam"
)

// ScheduleColumns is the header row of exported and imported schedule sheets.
var ScheduleColumns = []string{
	"type", "intakeCourseId", "courseId", "semesterId", "semesterModuleId", "moduleId",
	"dayOfWeek", "startTime", "endTime", "roomId", "lecturerId", "moduleStartDate", "moduleEndDate",
	"examDate", "examTime", "durationMinute", "invigilators", "schoolId",
}

var pdfColumns = []string{
	"type", "moduleId", "dayOfWeek", "startTime", "endTime", "roomId", "lecturerId",
	"moduleStartDate", "moduleEndDate", "examDate", "examTime",
}

// ErrExportExpired is returned for download links past their expiry.
var ErrExportExpired = appErrors.New("EXPORT_EXPIRED", http.StatusGone, "download link has expired")

type tableDecoder interface {
	Decode(r io.Reader) ([]string, []export.Record, error)
}

// RenderedFile is an export ready to stream.
type RenderedFile struct {
	Filename    string
	ContentType string
	Data        []byte
}

// ExportLink points at a stored export.
type ExportLink struct {
	URL       string        `json:"url"`
	Token     string        `json:"token"`
	Format    export.Format `json:"format"`
	ExpiresAt time.Time     `json:"expiresAt"`
}

// Download is an opened stored export.
type Download struct {
	Body        io.ReadCloser
	Size        int64
	Filename    string
	ContentType string
}

// Render encodes a draft in the requested format.
func (s *ScheduleService) Render(ctx context.Context, scope Scope, draftID string, format export.Format) (*RenderedFile, error) {
	draft, err := s.Draft(ctx, scope, draftID)
	if err != nil {
		return nil, err
	}
	encoder := encoderFor(format)
	data, err := encoder.Encode(draftTable(draft))
	if err != nil {
		return nil, appErrors.Internal(err, "failed to render schedule export")
	}
	return &RenderedFile{
		Filename:    fmt.Sprintf("schedule_%s.%s", draft.ID, format.Extension()),
		ContentType: format.ContentType(),
		Data:        data,
	}, nil
}

// StoreExport renders a draft to storage and returns a signed download link.
func (s *ScheduleService) StoreExport(ctx context.Context, scope Scope, draftID string, format export.Format) (*ExportLink, error) {
	if s.deps.Storage == nil || s.deps.Signer == nil {
		return nil, appErrors.Clone(appErrors.ErrUnavailable, "export storage is not configured")
	}
	file, err := s.Render(ctx, scope, draftID, format)
	if err != nil {
		return nil, err
	}
	name := fmt.Sprintf("%s_%s", s.now().UTC().Format("20060102T150405"), file.Filename)
	path, err := s.deps.Storage.Put(name, file.Data)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to store schedule export")
	}
	token, expiresAt, err := s.deps.Signer.Sign(draftID, path)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to sign export link")
	}
	prefix := strings.TrimRight(s.cfg.APIPrefix, "/")
	if prefix == "" {
		prefix = "/api/v1"
	}
	s.logger.Info("schedule export stored", zap.String("draft_id", draftID), zap.String("path", path))
	return &ExportLink{URL: prefix + "/exports/" + token, Token: token, Format: format, ExpiresAt: expiresAt}, nil
}

// OpenExport verifies a download token and opens the referenced file.
func (s *ScheduleService) OpenExport(token string) (*Download, error) {
	if s.deps.Storage == nil || s.deps.Signer == nil {
		return nil, appErrors.Clone(appErrors.ErrUnavailable, "export storage is not configured")
	}
	grant, err := s.deps.Signer.Verify(token)
	switch {
	case errors.Is(err, storage.ErrTokenExpired):
		return nil, ErrExportExpired
	case err != nil:
		return nil, appErrors.Wrap(err, appErrors.ErrForbidden.Code, appErrors.ErrForbidden.Status, "invalid download token")
	}
	body, size, err := s.deps.Storage.Open(grant.Path)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrNotFound.Code, appErrors.ErrNotFound.Status, "export file not found")
	}
	format, err := export.ParseFormat(strings.TrimPrefix(filepath.Ext(grant.Path), "."))
	if err != nil {
		format = export.FormatXLSX
	}
	return &Download{Body: body, Size: size, Filename: filepath.Base(grant.Path), ContentType: format.ContentType()}, nil
}

// CleanupExports removes stored exports older than the link lifetime.
func (s *ScheduleService) CleanupExports() ([]string, error) {
	if s.deps.Storage == nil {
		return nil, nil
	}
	ttl := s.cfg.ExportTTL
	if ttl <= 0 {
		ttl = time.Hour
	}
	removed, err := s.deps.Storage.Sweep(ttl)
	if err != nil {
		return removed, err
	}
	if len(removed) > 0 {
		s.logger.Info("expired exports removed", zap.Int("count", len(removed)))
	}
	return removed, nil
}

// Import inserts every row of an edited spreadsheet. Rows fail independently and nothing is rolled back.
func (s *ScheduleService) Import(ctx context.Context, scope Scope, importer mailer.Address, filename string, r io.Reader) (*models.ImportSummary, error) {
	decoder, err := decoderFor(filename)
	if err != nil {
		return nil, err
	}
	headers, records, err := decoder.Decode(r)
	if err != nil {
		return nil, appErrors.Invalid(err, "unable to read schedule file")
	}
	if !containsHeader(headers, "type") {
		return nil, appErrors.Clone(appErrors.ErrValidation, "schedule file is missing the type column")
	}
	if len(records) > s.cfg.MaxImportRows {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("schedule file exceeds %d rows", s.cfg.MaxImportRows))
	}

	summary := &models.ImportSummary{Total: len(records), Errors: []models.ImportRowError{}}
	for _, record := range records {
		if err := s.importRow(ctx, scope, record.Values); err != nil {
			summary.ErrorCount++
			summary.Errors = append(summary.Errors, models.ImportRowError{Row: record.Line, Message: appErrors.FromError(err).Message})
			continue
		}
		summary.SuccessCount++
	}

	s.deps.Metrics.ObserveImport(summary.SuccessCount, summary.ErrorCount)
	s.logger.Info("schedule import finished",
		zap.String("file", filename),
		zap.Int("total", summary.Total),
		zap.Int("succeeded", summary.SuccessCount),
		zap.Int("failed", summary.ErrorCount),
	)
	if s.deps.Notifier != nil {
		if err := s.deps.Notifier.ImportSummary(importer, filename, *summary); err != nil {
			s.logger.Warn("import summary mail not queued", zap.Error(err))
		}
	}
	return summary, nil
}

func (s *ScheduleService) importRow(ctx context.Context, scope Scope, values map[string]string) error {
	get := func(key string) string { return strings.TrimSpace(values[key]) }
	schoolID := get("schoolId")
	if schoolID == "" {
		schoolID = scope.SchoolID
	}

	switch strings.ToLower(get("type")) {
	case RowTypeClass:
		start, err := parseRowDate("moduleStartDate", get("moduleStartDate"))
		if err != nil {
			return err
		}
		end, err := parseRowDate("moduleEndDate", get("moduleEndDate"))
		if err != nil {
			return err
		}
		_, err = s.deps.Classes.Create(ctx, scope, &models.ClassSchedule{
			SchoolID:         schoolID,
			SemesterModuleID: get("semesterModuleId"),
			ModuleID:         get("moduleId"),
			IntakeCourseID:   get("intakeCourseId"),
			CourseID:         get("courseId"),
			SemesterID:       get("semesterId"),
			DayOfWeek:        get("dayOfWeek"),
			StartTime:        get("startTime"),
			EndTime:          get("endTime"),
			RoomID:           get("roomId"),
			LecturerID:       get("lecturerId"),
			ModuleStartDate:  start,
			ModuleEndDate:    end,
		})
		return err
	case RowTypeExam:
		examDate, err := parseRowDate("examDate", get("examDate"))
		if err != nil {
			return err
		}
		duration := 120
		if raw := get("durationMinute"); raw != "" {
			duration, err = strconv.Atoi(raw)
			if err != nil {
				return appErrors.Clone(appErrors.ErrValidation, "durationMinute must be a whole number")
			}
		}
		_, err = s.deps.Exams.Create(ctx, scope, &models.ExamSchedule{
			SchoolID:         schoolID,
			IntakeCourseID:   get("intakeCourseId"),
			SemesterModuleID: get("semesterModuleId"),
			ModuleID:         get("moduleId"),
			ExamDate:         examDate,
			ExamTime:         get("examTime"),
			DurationMinute:   duration,
			RoomID:           get("roomId"),
			Invigilators:     splitList(get("invigilators")),
		})
		return err
	case "":
		return appErrors.Clone(appErrors.ErrValidation, "type is required")
	}
	return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown row type %q", get("type")))
}

func draftTable(draft *models.ScheduleDraft) export.Table {
	rows := make([]map[string]string, 0, len(draft.Classes)+len(draft.Exams))
	for _, c := range draft.Classes {
		rows = append(rows, map[string]string{
			"type":             RowTypeClass,
			"intakeCourseId":   c.IntakeCourseID,
			"courseId":         c.CourseID,
			"semesterId":       c.SemesterID,
			"semesterModuleId": c.SemesterModuleID,
			"moduleId":         c.ModuleID,
			"dayOfWeek":        c.DayOfWeek,
			"startTime":        c.StartTime,
			"endTime":          c.EndTime,
			"roomId":           c.RoomID,
			"lecturerId":       c.LecturerID,
			"moduleStartDate":  c.ModuleStartDate,
			"moduleEndDate":    c.ModuleEndDate,
			"schoolId":         c.SchoolID,
		})
	}
	for _, e := range draft.Exams {
		rows = append(rows, map[string]string{
			"type":             RowTypeExam,
			"intakeCourseId":   e.IntakeCourseID,
			"courseId":         e.CourseID,
			"semesterId":       e.SemesterID,
			"semesterModuleId": e.SemesterModuleID,
			"moduleId":         e.ModuleID,
			"roomId":           e.RoomID,
			"examDate":         e.ExamDate,
			"examTime":         e.ExamTime,
			"durationMinute":   strconv.Itoa(e.DurationMinute),
			"invigilators":     strings.Join(e.Invigilators, ","),
			"schoolId":         e.SchoolID,
		})
	}
	return export.Table{
		Title:   fmt.Sprintf("Schedule %s", draft.ID),
		Headers: ScheduleColumns,
		Rows:    rows,
	}
}

func encoderFor(format export.Format) export.Encoder {
	switch format {
	case export.FormatCSV:
		return export.NewCSVCodec()
	case export.FormatPDF:
		return export.NewPDFRenderer(pdfColumns...)
	default:
		return export.NewXLSXCodec("Schedule")
	}
}

func decoderFor(filename string) (tableDecoder, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".xlsx":
		return export.NewXLSXCodec("Schedule"), nil
	case ".csv":
		return export.NewCSVCodec(), nil
	}
	return nil, appErrors.Clone(appErrors.ErrValidation, "schedule file must be .xlsx or .csv")
}

func parseRowDate(field, raw string) (models.Date, error) {
	if raw == "" {
		return models.Date{}, appErrors.Clone(appErrors.ErrValidation, field+" is required")
	}
	date, err := models.ParseDate(raw)
	if err != nil {
		return models.Date{}, appErrors.Invalid(err, "invalid "+field)
	}
	return date, nil
}

func splitList(raw string) []string {
	out := []string{}
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func containsHeader(headers []string, name string) bool {
	for _, h := range headers {
		if strings.EqualFold(strings.TrimSpace(h), name) {
			return true
		}
	}
	return false
}
