package workbook

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/yungbote/skillsync/internal/data/repos/testutil"
	types "github.com/yungbote/skillsync/internal/domain"
)

type sheet struct {
	name string
	rows [][]interface{}
}

func writeWorkbook(t *testing.T, sheets ...sheet) string {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	for i, s := range sheets {
		if i == 0 {
			require.NoError(t, f.SetSheetName("Sheet1", s.name))
		} else {
			_, err := f.NewSheet(s.name)
			require.NoError(t, err)
		}
		for r, row := range s.rows {
			cell, err := excelize.CoordinatesToCellName(1, r+1)
			require.NoError(t, err)
			row := row
			require.NoError(t, f.SetSheetRow(s.name, cell, &row))
		}
	}
	path := filepath.Join(t.TempDir(), "import.xlsx")
	require.NoError(t, f.SaveAs(path))
	return path
}

func TestReaderReadsTypedRows(t *testing.T) {
	path := writeWorkbook(t,
		sheet{name: "employees", rows: [][]interface{}{
			{"Employee ID", "Name", "Sub Segment", "Project", "Team", "Designation", "DOJ", "Email"},
			{"Z001", " Zara  Khan ", "Engineering", "Apollo", "Alpha", "Engineer", 44927, "Zara@Example.com"},
			{},
			{"Z002", "Omar", "Engineering", "Apollo", "", "", "", ""},
			{"Z003", "Lin", "Engineering", "Apollo", "Alpha", "", "2021-03-04", "not-an-email"},
			{"Z004", "Ade", "Engineering", "Apollo", "Alpha", "", "someday", ""},
		}},
		sheet{name: "Skills", rows: [][]interface{}{
			{"Emp ID", "Skill Name", "Proficiency", "Years of Experience", "Last Used", "Certification/Comment", "Interest"},
			{"Z001", "Python, SQL; Go", "Expert", "3 yrs", "2023-05-01", "PCEP", "High"},
			{"Z001", "Postgre", "", "abc", "", "", ""},
			{"", "Rust", "", "", "", "", ""},
		}},
	)

	r := NewReader(Options{}, testutil.Logger(t))
	batch, err := r.ReadFile(context.Background(), path)
	require.NoError(t, err)
	require.Equal(t, "employees", batch.EmployeeSheet)

	require.Len(t, batch.Employees, 1)
	e := batch.Employees[0]
	require.Equal(t, "Z001", e.BusinessKey)
	require.Equal(t, "Zara Khan", e.Name)
	require.Equal(t, "Engineer", e.Role)
	require.Equal(t, "zara@example.com", e.Email)
	require.Equal(t, "employees!2", e.RowRef)
	require.NotNil(t, e.StartDate)
	require.Equal(t, time.Date(2023, time.January, 1, 0, 0, 0, 0, time.UTC), *e.StartDate)

	require.Len(t, batch.Skills, 1)
	s := batch.Skills[0]
	require.Equal(t, "Python, SQL; Go", s.SkillText)
	require.Equal(t, 4, *s.ProficiencyLevel)
	require.Equal(t, "3", s.YearsExperience.Decimal.String())
	require.Equal(t, "PCEP", s.Certification)
	require.Equal(t, "High", s.Interest)

	byRef := map[string]types.FailureRecord{}
	for _, f := range batch.Failures {
		require.Equal(t, types.CodeInvalidField, f.Code)
		byRef[f.RowRef] = f
	}
	require.Len(t, byRef, 5)
	require.Contains(t, byRef["employees!4"].Message, "team is required")
	require.Contains(t, byRef["employees!5"].Message, "email")
	require.Contains(t, byRef["employees!6"].Message, "start_date")
	require.Contains(t, byRef["Skills!3"].Message, "years_experience")
	require.Equal(t, "Postgre", byRef["Skills!3"].SkillText)
	require.Contains(t, byRef["Skills!4"].Message, "business_key is required")
}

func TestReaderMissingSheet(t *testing.T) {
	path := writeWorkbook(t, sheet{name: "Employees", rows: [][]interface{}{
		{"Employee ID", "Name", "Sub Segment", "Project", "Team"},
	}})
	_, err := NewReader(Options{}, testutil.Logger(t)).ReadFile(context.Background(), path)
	require.True(t, types.IsCode(err, types.CodeInputUnreadable), "got %v", err)
	require.Contains(t, err.Error(), "Skills")
}

func TestReaderMissingRequiredHeader(t *testing.T) {
	path := writeWorkbook(t,
		sheet{name: "Employees", rows: [][]interface{}{{"Employee ID", "Name", "Project", "Team"}}},
		sheet{name: "Skills", rows: [][]interface{}{{"Employee ID", "Skill"}}},
	)
	_, err := NewReader(Options{}, testutil.Logger(t)).ReadFile(context.Background(), path)
	require.True(t, types.IsCode(err, types.CodeInputUnreadable))
	require.Contains(t, err.Error(), "sub_segment")
}

func TestReaderRejectsNonWorkbook(t *testing.T) {
	_, err := NewReader(Options{}, testutil.Logger(t)).Read(context.Background(), strings.NewReader("id,name\n1,a\n"))
	require.True(t, types.IsCode(err, types.CodeInputUnreadable))

	_, err = NewReader(Options{}, testutil.Logger(t)).ReadFile(context.Background(), filepath.Join(t.TempDir(), "missing.xlsx"))
	require.True(t, types.IsCode(err, types.CodeInputUnreadable))
}

func TestReaderCustomSheetNames(t *testing.T) {
	path := writeWorkbook(t,
		sheet{name: "People", rows: [][]interface{}{
			{"employee_id", "name", "org unit", "project", "team"},
			{"E1", "Ann", "Eng", "P", "T"},
		}},
		sheet{name: "Competencies", rows: [][]interface{}{{"employee_id", "skills"}}},
	)
	batch, err := NewReader(Options{EmployeeSheet: "people", SkillSheet: "COMPETENCIES"}, testutil.Logger(t)).
		ReadFile(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, batch.Employees, 1)
	require.Equal(t, "Eng", batch.Employees[0].SubSegment)
	require.Empty(t, batch.Skills)
}

func TestYesNoCanonicalizesCheckboxCells(t *testing.T) {
	cases := map[string]string{
		"Y":          "yes",
		"x":          "yes",
		"TRUE":       "yes",
		"No":         "no",
		"":           "",
		"AWS SA Pro": "AWS SA Pro",
	}
	for in, want := range cases {
		require.Equal(t, want, yesNo(in), in)
	}
}
