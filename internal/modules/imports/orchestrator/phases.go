package orchestrator

import (
	types "github.com/yungbote/skillsync/internal/domain"
)

// phase owns the progress range [start, end].
type phase struct {
	name  string
	start int
	end   int
}

var (
	phaseReading    = phase{name: types.PhaseReadingInput, start: 0, end: 10}
	phaseMasterData = phase{name: types.PhaseValidatingMasterData, start: 10, end: 20}
	phaseEmployees  = phase{name: types.PhaseImportingEmployees, start: 20, end: 50}
	phaseExpanding  = phase{name: types.PhaseExpandingSkills, start: 50, end: 55}
	phaseSkills     = phase{name: types.PhaseImportingSkills, start: 55, end: 95}
	phaseFinalizing = phase{name: types.PhaseFinalizing, start: 95, end: 100}
)

// at maps done/total into the phase range.
func (p phase) at(done, total int) int {
	if total <= 0 || done >= total {
		return p.end
	}
	if done <= 0 {
		return p.start
	}
	return p.start + (p.end-p.start)*done/total
}
