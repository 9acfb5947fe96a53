package main

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/yungbote/skillsync/internal/app"
	types "github.com/yungbote/skillsync/internal/domain"
	"github.com/yungbote/skillsync/internal/modules/imports/orchestrator"
)

type importFlags struct {
	file                 string
	jobID                string
	actor                string
	autoCreateMasterData bool
	json                 bool
}

func importCmd() *cobra.Command {
	var f importFlags
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import a workbook of employees and skills",
		Long: `Import reads the Employees and Skills sheets of a workbook, validates
them against the org master data, resolves skill names to the catalog and
stores the result. Row problems are reported without stopping the run.

Exit codes: 0 success, 2 completed with errors, 3 usage, 4 store unavailable,
5 import failed.`,
		Args: usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runImport(cmd, f)
		},
	}
	cmd.Flags().StringVarP(&f.file, "file", "f", "", "workbook to import (.xlsx)")
	cmd.Flags().StringVar(&f.jobID, "job-id", "", "use this job id instead of generating one")
	cmd.Flags().StringVar(&f.actor, "actor", "", "actor recorded in change history")
	cmd.Flags().BoolVar(&f.autoCreateMasterData, "auto-create-master-data", false, "create missing sub-segments, projects and teams")
	cmd.Flags().BoolVar(&f.json, "json", false, "print the report as JSON")
	return cmd
}

func (f importFlags) request() (orchestrator.Request, error) {
	req := orchestrator.Request{
		FilePath:             strings.TrimSpace(f.file),
		Actor:                strings.TrimSpace(f.actor),
		AutoCreateMasterData: f.autoCreateMasterData,
	}
	if req.FilePath == "" {
		return req, usageError{err: fmt.Errorf("--file is required")}
	}
	if raw := strings.TrimSpace(f.jobID); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return req, usageError{err: fmt.Errorf("invalid --job-id %q: %w", raw, err)}
		}
		req.JobID = &id
	}
	return req, nil
}

func runImport(cmd *cobra.Command, f importFlags) error {
	req, err := f.request()
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	a, err := app.New(ctx, app.Options{})
	if err != nil {
		return err
	}
	defer a.Close(ctx)
	a.StartMetrics(ctx)

	orch, err := a.Orchestrator()
	if err != nil {
		return err
	}
	report, err := orch.Run(ctx, req)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if f.json {
		err = writeJSON(out, report)
	} else {
		err = writeReport(out, report)
	}
	if err != nil {
		return err
	}
	if report.Status == types.ReportStatusCompletedWithErrors {
		return exitError{code: exitCompletedWithErrors}
	}
	return nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeReport(w io.Writer, r *types.ImportReport) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "job\t%s\n", r.JobID)
	if r.FileName != "" {
		fmt.Fprintf(tw, "file\t%s\n", r.FileName)
	}
	fmt.Fprintf(tw, "status\t%s\n", r.Status)
	fmt.Fprintf(tw, "duration\t%s\n", r.FinishedAt.Sub(r.StartedAt).Round(time.Millisecond))
	fmt.Fprintf(tw, "employees\ttotal=%d created=%d updated=%d failed=%d\n",
		r.Employees.Total, r.Employees.Created, r.Employees.Updated, r.Employees.Failed)
	fmt.Fprintf(tw, "skills\ttotal=%d created=%d updated=%d failed=%d\n",
		r.Skills.Total, r.Skills.Created, r.Skills.Updated, r.Skills.Failed)
	fmt.Fprintf(tw, "resolution\texact=%d alias=%d embedding=%d review=%d unresolved=%d\n",
		r.Resolution.Exact, r.Resolution.Alias, r.Resolution.Embedding, r.Resolution.Review, r.Resolution.Unresolved)
	if !r.UnresolvedStoreActive {
		fmt.Fprintf(tw, "unresolved store\tdisabled (file sink only)\n")
	}
	for _, c := range r.CreatedMasterData {
		fmt.Fprintf(tw, "created %s\t%s\n", c.Kind, c.Name)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	if len(r.Failures) == 0 {
		return nil
	}

	counts := r.FailureCount()
	codes := make([]string, 0, len(counts))
	for code := range counts {
		codes = append(codes, string(code))
	}
	sort.Strings(codes)
	fmt.Fprintf(w, "\nfailures (%d):\n", len(r.Failures))
	for _, code := range codes {
		fmt.Fprintf(w, "  %s\t%d\n", code, counts[types.ErrorCode(code)])
	}

	tw = tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "\nSHEET\tROW\tKEY\tSKILL\tCODE\tMESSAGE")
	for _, fr := range r.Failures {
		fmt.Fprintf(tw, "%s\t%d\t%s\t%s\t%s\t%s\n", fr.Sheet, fr.Row, fr.BusinessKey, fr.SkillText, fr.Code, fr.Message)
	}
	return tw.Flush()
}
