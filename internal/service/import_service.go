package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/noah-isme/course-vacancy-api/internal/dto"
	"github.com/noah-isme/course-vacancy-api/internal/models"
	"github.com/noah-isme/course-vacancy-api/pkg/config"
	appErrors "github.com/noah-isme/course-vacancy-api/pkg/errors"
)

type courseUpserter interface {
	UpsertByCode(ctx context.Context, course *models.Course) error
}

type importTeacherStore interface {
	UpsertByEmail(ctx context.Context, tx *sqlx.Tx, teacher *models.Teacher) error
}

type assignmentCreator interface {
	Create(ctx context.Context, assignment *models.Assignment) error
}

// Column headers recognised by the spreadsheet import, matched
// case-insensitively after trimming.
var importHeaderAliases = map[string]string{
	"code":          "code",
	"course code":   "code",
	"title":         "title",
	"course title":  "title",
	"faculty":       "faculty",
	"subcategory":   "subcategory",
	"school":        "school",
	"academic year": "academic_year",
	"year":          "academic_year",
	"vol1 total":    "vol1_total",
	"vol1":          "vol1_total",
	"vol2 total":    "vol2_total",
	"vol2":          "vol2_total",
	"vacant":        "vacant",
	"teacher email": "teacher_email",
	"teacher name":  "teacher_name",
	"teacher vol1":  "teacher_vol1",
	"teacher vol2":  "teacher_vol2",
	"coordinator":   "coordinator",
}

// ImportService ingests course catalogs from xlsx or csv uploads. Rows upsert
// by course code; a malformed row is reported and skipped, never fatal for the
// rest of the file.
type ImportService struct {
	courses     courseUpserter
	teachers    importTeacherStore
	assignments assignmentCreator
	audit       auditLogger
	cache       cacheInvalidator
	cfg         config.ImportsConfig
	logger      *zap.Logger
}

// NewImportService constructs the service.
func NewImportService(
	courses courseUpserter,
	teachers importTeacherStore,
	assignments assignmentCreator,
	audit auditLogger,
	cache cacheInvalidator,
	cfg config.ImportsConfig,
	logger *zap.Logger,
) *ImportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ImportService{
		courses:     courses,
		teachers:    teachers,
		assignments: assignments,
		audit:       audit,
		cache:       cache,
		cfg:         cfg,
		logger:      logger,
	}
}

// ImportCourses parses the upload and upserts every well-formed row. The
// filename extension picks the parser.
func (s *ImportService) ImportCourses(ctx context.Context, filename string, reader io.Reader, actor *models.JWTClaims) (*dto.ImportReport, error) {
	if !s.cfg.Enabled {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "imports are disabled")
	}
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}

	data, err := io.ReadAll(io.LimitReader(reader, s.cfg.MaxFileSize+1))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read upload")
	}
	if int64(len(data)) > s.cfg.MaxFileSize {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("file exceeds the %d byte limit", s.cfg.MaxFileSize))
	}

	var rows [][]string
	switch {
	case strings.HasSuffix(strings.ToLower(filename), ".xlsx"):
		rows, err = readXLSX(data)
	case strings.HasSuffix(strings.ToLower(filename), ".csv"):
		rows, err = readCSV(data)
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "unsupported file type, expected .xlsx or .csv")
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "failed to parse upload")
	}
	if len(rows) > s.cfg.MaxRows+1 {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("file exceeds the %d row limit", s.cfg.MaxRows))
	}
	if len(rows) < 2 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "file has no data rows")
	}

	columns, err := mapHeader(rows[0])
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "unrecognised header row")
	}

	report := &dto.ImportReport{}
	for i, row := range rows[1:] {
		rowNum := i + 2
		course, rowErr := parseCourseRow(row, columns)
		if rowErr != nil {
			report.RowsSkipped++
			report.Errors = append(report.Errors, dto.ImportRowError{Row: rowNum, Message: rowErr.Error()})
			continue
		}
		if err := s.courses.UpsertByCode(ctx, course); err != nil {
			report.RowsSkipped++
			report.Errors = append(report.Errors, dto.ImportRowError{Row: rowNum, Message: "database rejected row"})
			s.logger.Warn("import upsert failed", zap.Int("row", rowNum), zap.String("code", course.Code), zap.Error(err))
			continue
		}
		report.CoursesUpserted++

		if err := s.importAttribution(ctx, course, row, columns, report); err != nil {
			report.Errors = append(report.Errors, dto.ImportRowError{Row: rowNum, Message: err.Error()})
		}
	}

	s.emitAudit(ctx, actor, filename, report)
	if s.cache != nil && report.CoursesUpserted > 0 {
		if err := s.cache.DeleteByPattern(ctx, dashboardCachePattern); err != nil {
			s.logger.Warn("dashboard cache invalidation failed", zap.Error(err))
		}
	}
	return report, nil
}

// importAttribution handles the optional teacher columns of a row: the teacher
// is upserted by email and one hour_attribution row is created. A row without
// a teacher email carries no attribution.
func (s *ImportService) importAttribution(ctx context.Context, course *models.Course, row []string, columns map[string]int, report *dto.ImportReport) error {
	cell := func(field string) string {
		idx, ok := columns[field]
		if !ok || idx >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[idx])
	}

	email := strings.ToLower(cell("teacher_email"))
	if email == "" {
		return nil
	}
	name := cell("teacher_name")
	teacher := &models.Teacher{
		Email:     email,
		FirstName: firstName(name),
		LastName:  lastName(name),
	}
	if err := s.teachers.UpsertByEmail(ctx, nil, teacher); err != nil {
		return fmt.Errorf("teacher %s: database rejected upsert", email)
	}
	report.TeachersUpserted++

	vol1, err := parseVolume(cell("teacher_vol1"))
	if err != nil {
		return fmt.Errorf("teacher vol1: %w", err)
	}
	vol2, err := parseVolume(cell("teacher_vol2"))
	if err != nil {
		return fmt.Errorf("teacher vol2: %w", err)
	}

	teacherID := teacher.ID
	assignment := &models.Assignment{
		CourseID:      course.ID,
		TeacherID:     &teacherID,
		Source:        models.SourceHourAttribution,
		IsCoordinator: parseBoolCell(cell("coordinator")),
	}
	if vol1 != nil {
		assignment.Vol1Hours = *vol1
	}
	if vol2 != nil {
		assignment.Vol2Hours = *vol2
	}
	if err := s.assignments.Create(ctx, assignment); err != nil {
		return fmt.Errorf("attribution for %s: database rejected row", email)
	}
	return nil
}

func readXLSX(data []byte) ([][]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.New("workbook has no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %s: %w", sheets[0], err)
	}
	return rows, nil
}

func readCSV(data []byte) ([][]string, error) {
	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	return rows, nil
}

func mapHeader(header []string) (map[string]int, error) {
	columns := make(map[string]int, len(header))
	for i, cell := range header {
		key := strings.ToLower(strings.TrimSpace(cell))
		if field, ok := importHeaderAliases[key]; ok {
			columns[field] = i
		}
	}
	for _, required := range []string{"code", "title", "academic_year"} {
		if _, ok := columns[required]; !ok {
			return nil, fmt.Errorf("missing required column %q", required)
		}
	}
	return columns, nil
}

func parseCourseRow(row []string, columns map[string]int) (*models.Course, error) {
	cell := func(field string) string {
		idx, ok := columns[field]
		if !ok || idx >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[idx])
	}

	code := cell("code")
	if code == "" {
		return nil, errors.New("empty course code")
	}
	title := cell("title")
	if title == "" {
		return nil, errors.New("empty course title")
	}
	year := cell("academic_year")
	if year == "" {
		return nil, errors.New("empty academic year")
	}

	course := &models.Course{
		Code:         code,
		Title:        title,
		Faculty:      cell("faculty"),
		Subcategory:  cell("subcategory"),
		AcademicYear: year,
		Vacant:       parseBoolCell(cell("vacant")),
	}
	if school := cell("school"); school != "" {
		course.School = &school
	}

	var err error
	if course.Vol1Total, err = parseVolume(cell("vol1_total")); err != nil {
		return nil, fmt.Errorf("vol1 total: %w", err)
	}
	if course.Vol2Total, err = parseVolume(cell("vol2_total")); err != nil {
		return nil, fmt.Errorf("vol2 total: %w", err)
	}
	return course, nil
}

func parseVolume(raw string) (*float64, error) {
	if raw == "" {
		return nil, nil
	}
	// Legacy exports use a decimal comma.
	normalized := strings.ReplaceAll(raw, ",", ".")
	value, err := strconv.ParseFloat(normalized, 64)
	if err != nil {
		return nil, fmt.Errorf("not a number: %q", raw)
	}
	if value < 0 {
		return nil, fmt.Errorf("negative volume: %q", raw)
	}
	return &value, nil
}

func parseBoolCell(raw string) bool {
	switch strings.ToLower(raw) {
	case "1", "true", "yes", "y", "vacant":
		return true
	}
	return false
}

func (s *ImportService) emitAudit(ctx context.Context, actor *models.JWTClaims, filename string, report *dto.ImportReport) {
	if s.audit == nil {
		return
	}
	if err := s.audit.CreateAuditLog(ctx, &models.AuditLog{
		UserID:     &actor.UserID,
		Action:     models.AuditActionCourseImport,
		Resource:   "course_import",
		ResourceID: &filename,
		NewValues:  []byte(fmt.Sprintf(`{"upserted":%d,"skipped":%d}`, report.CoursesUpserted, report.RowsSkipped)),
	}); err != nil {
		s.logger.Warn("audit log write failed", zap.String("action", models.AuditActionCourseImport), zap.Error(err))
	}
}
