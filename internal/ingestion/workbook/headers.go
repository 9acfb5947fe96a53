package workbook

import (
	"strings"

	"github.com/yungbote/skillsync/internal/normalization"
)

type column string

const (
	colBusinessKey   column = "business_key"
	colName          column = "name"
	colSubSegment    column = "sub_segment"
	colProject       column = "project"
	colTeam          column = "team"
	colRole          column = "role"
	colStartDate     column = "start_date"
	colEmail         column = "email"
	colSkill         column = "skill"
	colProficiency   column = "proficiency"
	colYears         column = "years_experience"
	colLastUsed      column = "last_used"
	colCertification column = "certification"
	colInterest      column = "interest"
)

var employeeHeaders = map[string]column{
	"employee id":     colBusinessKey,
	"emp id":          colBusinessKey,
	"employee no":     colBusinessKey,
	"employee number": colBusinessKey,
	"business key":    colBusinessKey,
	"id":              colBusinessKey,
	"name":            colName,
	"employee name":   colName,
	"full name":       colName,
	"sub segment":     colSubSegment,
	"subsegment":      colSubSegment,
	"org unit":        colSubSegment,
	"segment":         colSubSegment,
	"project":         colProject,
	"project name":    colProject,
	"team":            colTeam,
	"team name":       colTeam,
	"role":            colRole,
	"designation":     colRole,
	"start date":      colStartDate,
	"date of joining": colStartDate,
	"joining date":    colStartDate,
	"doj":             colStartDate,
	"email":           colEmail,
	"email id":        colEmail,
	"e mail":          colEmail,
}

var skillHeaders = map[string]column{
	"employee id":             colBusinessKey,
	"emp id":                  colBusinessKey,
	"employee no":             colBusinessKey,
	"employee number":         colBusinessKey,
	"business key":            colBusinessKey,
	"id":                      colBusinessKey,
	"skill":                   colSkill,
	"skills":                  colSkill,
	"skill name":              colSkill,
	"proficiency":             colProficiency,
	"proficiency level":       colProficiency,
	"level":                   colProficiency,
	"years experience":        colYears,
	"years of experience":     colYears,
	"experience":              colYears,
	"yoe":                     colYears,
	"last used":               colLastUsed,
	"last used date":          colLastUsed,
	"certification":           colCertification,
	"comment":                 colCertification,
	"comments":                colCertification,
	"certification/comment":   colCertification,
	"certification / comment": colCertification,
	"interest":                colInterest,
	"interest level":          colInterest,
}

var (
	requiredEmployeeColumns = []column{colBusinessKey, colName, colSubSegment, colProject, colTeam}
	requiredSkillColumns    = []column{colBusinessKey, colSkill}
)

func normalizeHeader(h string) string {
	h = strings.NewReplacer("_", " ", "-", " ", ".", " ").Replace(h)
	return normalization.NormalizeName(h)
}

// mapHeader returns column → cell index. First occurrence of a column wins.
func mapHeader(cells []string, aliases map[string]column) map[column]int {
	out := map[column]int{}
	for i, cell := range cells {
		col, ok := aliases[normalizeHeader(cell)]
		if !ok {
			continue
		}
		if _, seen := out[col]; !seen {
			out[col] = i
		}
	}
	return out
}

func missingColumns(idx map[column]int, required []column) []string {
	var missing []string
	for _, c := range required {
		if _, ok := idx[c]; !ok {
			missing = append(missing, string(c))
		}
	}
	return missing
}

type rowCells struct {
	cells []string
	idx   map[column]int
}

func (r rowCells) get(c column) string {
	i, ok := r.idx[c]
	if !ok || i >= len(r.cells) {
		return ""
	}
	return normalization.CleanText(r.cells[i])
}

func blankRow(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
