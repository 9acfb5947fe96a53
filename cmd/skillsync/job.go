package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/yungbote/skillsync/internal/app"
	types "github.com/yungbote/skillsync/internal/domain"
)

func jobCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "job",
		Short: "Inspect import jobs",
	}
	cmd.AddCommand(jobStatusCmd(), jobListCmd())
	return cmd
}

func jobStatusCmd() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "status <job-id>",
		Short: "Print the state of an import job",
		Args:  usageArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := uuid.Parse(strings.TrimSpace(args[0]))
			if err != nil {
				return usageError{err: fmt.Errorf("invalid job id %q: %w", args[0], err)}
			}
			ctx := cmd.Context()
			a, err := app.New(ctx, app.Options{SkipVector: true})
			if err != nil {
				return err
			}
			defer a.Close(ctx)

			job, err := a.Tracker.Get(ctx, id)
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), job)
			}
			return writeJob(cmd, job)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the job as JSON")
	return cmd
}

func jobListCmd() *cobra.Command {
	var (
		limit  int
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the most recent import jobs",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, _ []string) error {
			if limit < 1 {
				return usageError{err: fmt.Errorf("--limit must be at least 1, got %d", limit)}
			}
			ctx := cmd.Context()
			a, err := app.New(ctx, app.Options{SkipVector: true})
			if err != nil {
				return err
			}
			defer a.Close(ctx)

			jobs, err := a.Tracker.Recent(ctx, limit)
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), jobs)
			}
			return writeJobList(cmd.OutOrStdout(), jobs)
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "number of jobs to show")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the jobs as JSON")
	return cmd
}

func writeJobList(w io.Writer, jobs []*types.ImportJob) error {
	if len(jobs) == 0 {
		_, err := fmt.Fprintln(w, "no import jobs")
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "JOB\tSTATUS\tPHASE\tPROGRESS\tFAILED\tFILE\tCREATED")
	for _, j := range jobs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d%%\t%d\t%s\t%s\n",
			j.ID, j.Status, j.Phase, j.Progress, j.FailedRows, j.FileName, j.CreatedAt.UTC().Format("2006-01-02 15:04"))
	}
	return tw.Flush()
}

func writeJob(cmd *cobra.Command, job *types.ImportJob) error {
	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "job\t%s\n", job.ID)
	fmt.Fprintf(tw, "status\t%s\n", job.Status)
	fmt.Fprintf(tw, "phase\t%s\n", job.Phase)
	fmt.Fprintf(tw, "progress\t%d%%\n", job.Progress)
	if job.Message != "" {
		fmt.Fprintf(tw, "message\t%s\n", job.Message)
	}
	fmt.Fprintf(tw, "rows\ttotal=%d processed=%d succeeded=%d failed=%d\n",
		job.TotalRows, job.ProcessedRows, job.SucceededRows, job.FailedRows)
	if job.FileName != "" {
		fmt.Fprintf(tw, "file\t%s\n", job.FileName)
	}
	if job.Error != "" {
		fmt.Fprintf(tw, "error\t%s\n", job.Error)
	}
	return tw.Flush()
}
