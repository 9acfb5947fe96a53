package workbook

import (
	"fmt"

	types "github.com/yungbote/skillsync/internal/domain"
	"github.com/yungbote/skillsync/internal/normalization"
)

const skillSeparators = ",;"

// ExpandSkills splits multi-valued skill cells ("Python, SQL; Go") into one
// row per skill. Each output row inherits every other column; duplicates
// within a cell collapse to the first spelling. A cell holding only
// separators names no skill and is returned as an INVALID_FIELD failure.
func ExpandSkills(rows []SkillRow) ([]SkillRow, []types.FailureRecord) {
	out := make([]SkillRow, 0, len(rows))
	var dropped []types.FailureRecord
	for _, row := range rows {
		tokens := normalization.SplitTokens(row.SkillText, skillSeparators)
		seen := make(map[string]struct{}, len(tokens))
		unique := tokens[:0:0]
		for _, tok := range tokens {
			key := normalization.NormalizeKey(tok)
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			unique = append(unique, tok)
		}
		switch len(unique) {
		case 0:
			dropped = append(dropped, row.Failure(types.CodeInvalidField, "skill cell names no skill"))
			continue
		case 1:
			row.SkillText = unique[0]
			out = append(out, row)
			continue
		}
		for i, tok := range unique {
			child := row
			child.SkillText = tok
			child.RowRef = fmt.Sprintf("%s#%d", row.RowRef, i+1)
			out = append(out, child)
		}
	}
	return out, dropped
}
