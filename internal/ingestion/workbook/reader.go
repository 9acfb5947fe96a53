package workbook

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/xuri/excelize/v2"

	types "github.com/yungbote/skillsync/internal/domain"
	"github.com/yungbote/skillsync/internal/normalization"
	"github.com/yungbote/skillsync/internal/platform/logger"
)

type Options struct {
	EmployeeSheet string
	SkillSheet    string
}

// Reader turns a workbook into typed, validated rows. Row-level problems are
// collected as failures; only an unusable file is an error.
type Reader struct {
	opts     Options
	validate *validator.Validate
	log      *logger.Logger
}

func NewReader(opts Options, baseLog *logger.Logger) *Reader {
	if strings.TrimSpace(opts.EmployeeSheet) == "" {
		opts.EmployeeSheet = types.SheetEmployees
	}
	if strings.TrimSpace(opts.SkillSheet) == "" {
		opts.SkillSheet = types.SheetSkills
	}
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	return &Reader{
		opts:     opts,
		validate: v,
		log:      baseLog.With("service", "WorkbookReader"),
	}
}

func (r *Reader) ReadFile(ctx context.Context, path string) (*Batch, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, types.NewError(types.CodeInputUnreadable, "workbook.open", err.Error(), err)
	}
	defer f.Close()
	return r.Read(ctx, f)
}

func (r *Reader) Read(ctx context.Context, src io.Reader) (*Batch, error) {
	const op = "workbook.read"
	f, err := excelize.OpenReader(src)
	if err != nil {
		return nil, types.NewError(types.CodeInputUnreadable, op, fmt.Sprintf("not a readable workbook: %v", err), err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil {
			r.log.Warn("close workbook", "error", cerr)
		}
	}()

	empSheet, err := findSheet(f, r.opts.EmployeeSheet)
	if err != nil {
		return nil, types.NewError(types.CodeInputUnreadable, op, err.Error(), err)
	}
	skillSheet, err := findSheet(f, r.opts.SkillSheet)
	if err != nil {
		return nil, types.NewError(types.CodeInputUnreadable, op, err.Error(), err)
	}

	batch := &Batch{EmployeeSheet: empSheet, SkillSheet: skillSheet}

	empRows, err := f.GetRows(empSheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, types.NewError(types.CodeInputUnreadable, op, fmt.Sprintf("read sheet %q: %v", empSheet, err), err)
	}
	if err := r.readEmployees(ctx, empSheet, empRows, batch); err != nil {
		return nil, err
	}

	skillRows, err := f.GetRows(skillSheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, types.NewError(types.CodeInputUnreadable, op, fmt.Sprintf("read sheet %q: %v", skillSheet, err), err)
	}
	if err := r.readSkills(ctx, skillSheet, skillRows, batch); err != nil {
		return nil, err
	}

	r.log.Info("workbook read",
		"employees", len(batch.Employees),
		"skills", len(batch.Skills),
		"dropped", len(batch.Failures),
	)
	return batch, nil
}

func findSheet(f *excelize.File, want string) (string, error) {
	for _, name := range f.GetSheetList() {
		if normalization.NormalizeName(name) == normalization.NormalizeName(want) {
			return name, nil
		}
	}
	return "", fmt.Errorf("sheet %q not found", want)
}

// headerRow returns the index of the first non-blank row.
func headerRow(rows [][]string) int {
	for i, cells := range rows {
		if !blankRow(cells) {
			return i
		}
	}
	return -1
}

func (r *Reader) readEmployees(ctx context.Context, sheet string, rows [][]string, batch *Batch) error {
	hi := headerRow(rows)
	if hi < 0 {
		return types.NewError(types.CodeInputUnreadable, "workbook.employees", fmt.Sprintf("sheet %q is empty", sheet), nil)
	}
	idx := mapHeader(rows[hi], employeeHeaders)
	if missing := missingColumns(idx, requiredEmployeeColumns); len(missing) > 0 {
		return types.NewError(types.CodeInputUnreadable, "workbook.employees",
			fmt.Sprintf("sheet %q missing columns: %s", sheet, strings.Join(missing, ", ")), nil)
	}
	for i := hi + 1; i < len(rows); i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		if blankRow(rows[i]) {
			continue
		}
		rowNum := i + 1
		row, err := r.parseEmployee(sheet, rowNum, rowCells{cells: rows[i], idx: idx})
		if err != nil {
			batch.Failures = append(batch.Failures, row.Failure(types.CodeInvalidField, err.Error()))
			continue
		}
		batch.Employees = append(batch.Employees, row)
	}
	return nil
}

func (r *Reader) parseEmployee(sheet string, rowNum int, c rowCells) (EmployeeRow, error) {
	row := EmployeeRow{
		Sheet:       sheet,
		Row:         rowNum,
		RowRef:      rowRef(sheet, rowNum),
		BusinessKey: c.get(colBusinessKey),
		Name:        c.get(colName),
		SubSegment:  c.get(colSubSegment),
		Project:     c.get(colProject),
		Team:        c.get(colTeam),
		Role:        c.get(colRole),
		Email:       strings.ToLower(c.get(colEmail)),
	}
	start, err := normalization.ParseDatePtr(c.get(colStartDate))
	if err != nil {
		return row, fmt.Errorf("start_date: %w", err)
	}
	row.StartDate = start
	if err := r.validate.Struct(row); err != nil {
		return row, describeValidation(err)
	}
	return row, nil
}

func (r *Reader) readSkills(ctx context.Context, sheet string, rows [][]string, batch *Batch) error {
	hi := headerRow(rows)
	if hi < 0 {
		// a workbook with employees only is valid
		return nil
	}
	idx := mapHeader(rows[hi], skillHeaders)
	if missing := missingColumns(idx, requiredSkillColumns); len(missing) > 0 {
		return types.NewError(types.CodeInputUnreadable, "workbook.skills",
			fmt.Sprintf("sheet %q missing columns: %s", sheet, strings.Join(missing, ", ")), nil)
	}
	for i := hi + 1; i < len(rows); i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		if blankRow(rows[i]) {
			continue
		}
		rowNum := i + 1
		row, err := r.parseSkill(sheet, rowNum, rowCells{cells: rows[i], idx: idx})
		if err != nil {
			batch.Failures = append(batch.Failures, row.Failure(types.CodeInvalidField, err.Error()))
			continue
		}
		batch.Skills = append(batch.Skills, row)
	}
	return nil
}

func (r *Reader) parseSkill(sheet string, rowNum int, c rowCells) (SkillRow, error) {
	row := SkillRow{
		Sheet:            sheet,
		Row:              rowNum,
		RowRef:           rowRef(sheet, rowNum),
		BusinessKey:      c.get(colBusinessKey),
		SkillText:        c.get(colSkill),
		ProficiencyLabel: c.get(colProficiency),
		Certification:    yesNo(c.get(colCertification)),
		Interest:         c.get(colInterest),
	}
	if lvl, ok := normalization.ProficiencyLevel(row.ProficiencyLabel); ok {
		row.ProficiencyLevel = &lvl
	}
	years, err := normalization.ParseDecimal(c.get(colYears))
	if err != nil {
		return row, fmt.Errorf("years_experience: %w", err)
	}
	row.YearsExperience = years
	lastUsed, err := normalization.ParseDatePtr(c.get(colLastUsed))
	if err != nil {
		return row, fmt.Errorf("last_used: %w", err)
	}
	row.LastUsed = lastUsed
	if err := r.validate.Struct(row); err != nil {
		return row, describeValidation(err)
	}
	return row, nil
}

// yesNo canonicalizes checkbox-style cells ("Y", "x", "TRUE") to yes/no and
// keeps any other text as written.
func yesNo(raw string) string {
	v, ok, err := normalization.ParseBool(raw)
	switch {
	case err != nil || !ok:
		return raw
	case v:
		return "yes"
	default:
		return "no"
	}
}

func describeValidation(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "required":
			parts = append(parts, fe.Field()+" is required")
		case "email":
			parts = append(parts, fe.Field()+" is not a valid email")
		case "max":
			parts = append(parts, fmt.Sprintf("%s exceeds %s characters", fe.Field(), fe.Param()))
		default:
			parts = append(parts, fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag()))
		}
	}
	return errors.New(strings.Join(parts, "; "))
}

func rowRef(sheet string, row int) string {
	return fmt.Sprintf("%s!%d", sheet, row)
}
