package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
)

// logLine is one record of the unresolved-skill file sink.
type logLine struct {
	Event            string   `json:"event"`
	TS               string   `json:"ts"`
	RawText          string   `json:"raw_text"`
	NormalizedText   string   `json:"normalized_text"`
	Method           string   `json:"method"`
	EmployeeID       string   `json:"employee_id"`
	JobID            string   `json:"job_id"`
	Confidence       *float64 `json:"confidence"`
	CandidateSkillID string   `json:"candidate_skill_id"`
}

type textStats struct {
	NormalizedText string         `json:"normalized_text"`
	Occurrences    int            `json:"occurrences"`
	Employees      int            `json:"employees"`
	Jobs           int            `json:"jobs"`
	RawVariants    []string       `json:"raw_variants"`
	Methods        map[string]int `json:"methods"`
	BestConfidence *float64       `json:"best_confidence,omitempty"`
	Candidates     []string       `json:"candidates,omitempty"`
	FirstSeen      string         `json:"first_seen"`
	LastSeen       string         `json:"last_seen"`

	employees  map[string]bool
	jobs       map[string]bool
	raw        map[string]bool
	candidates map[string]bool
}

type unresolvedReport struct {
	Source        string       `json:"source"`
	Lines         int          `json:"lines"`
	SkippedLines  int          `json:"skipped_lines"`
	DistinctTexts int          `json:"distinct_texts"`
	ReviewEntries int          `json:"review_entries"`
	TopUnresolved []*textStats `json:"top_unresolved"`
}

func main() {
	path := "logs/unresolved_skills.jsonl"
	if len(os.Args) > 1 {
		path = os.Args[1]
	}
	limit := 50

	f, err := os.Open(path)
	if err != nil {
		exitf("open %s: %v", path, err)
	}
	defer f.Close()

	report := unresolvedReport{Source: path}
	byText := map[string]*textStats{}

	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		raw := strings.TrimSpace(sc.Text())
		if raw == "" {
			continue
		}
		report.Lines++
		var line logLine
		if err := json.Unmarshal([]byte(raw), &line); err != nil || line.Event != "unresolved_skill" {
			report.SkippedLines++
			continue
		}
		key := strings.TrimSpace(line.NormalizedText)
		if key == "" {
			key = strings.ToLower(strings.TrimSpace(line.RawText))
		}
		st := byText[key]
		if st == nil {
			st = &textStats{
				NormalizedText: key,
				Methods:        map[string]int{},
				FirstSeen:      line.TS,
				employees:      map[string]bool{},
				jobs:           map[string]bool{},
				raw:            map[string]bool{},
				candidates:     map[string]bool{},
			}
			byText[key] = st
		}
		st.Occurrences++
		st.LastSeen = line.TS
		st.Methods[line.Method]++
		if line.Method == "review" {
			report.ReviewEntries++
		}
		if line.EmployeeID != "" {
			st.employees[line.EmployeeID] = true
		}
		if line.JobID != "" {
			st.jobs[line.JobID] = true
		}
		if line.RawText != "" {
			st.raw[line.RawText] = true
		}
		if line.CandidateSkillID != "" {
			st.candidates[line.CandidateSkillID] = true
		}
		if line.Confidence != nil && (st.BestConfidence == nil || *line.Confidence > *st.BestConfidence) {
			c := *line.Confidence
			st.BestConfidence = &c
		}
	}
	if err := sc.Err(); err != nil {
		exitf("read %s: %v", path, err)
	}

	all := make([]*textStats, 0, len(byText))
	for _, st := range byText {
		st.Employees = len(st.employees)
		st.Jobs = len(st.jobs)
		st.RawVariants = sortedKeys(st.raw)
		st.Candidates = sortedKeys(st.candidates)
		all = append(all, st)
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].Occurrences != all[j].Occurrences {
			return all[i].Occurrences > all[j].Occurrences
		}
		return all[i].NormalizedText < all[j].NormalizedText
	})
	report.DistinctTexts = len(all)
	if len(all) > limit {
		all = all[:limit]
	}
	report.TopUnresolved = all

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(report); err != nil {
		exitf("encode report: %v", err)
	}
}

func sortedKeys(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func exitf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
