package cli

import (
	"errors"
	"time"

	"github.com/hwinsight/hic/pkg/store"
	"github.com/spf13/cobra"
)

func NewJobsCommand(root *RootCommand) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "jobs",
		Short: "Inspect assessment jobs",
	}

	cmd.AddCommand(newJobsListCommand(root), newJobsShowCommand(root))
	return cmd
}

func newJobsListCommand(root *RootCommand) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List assessment jobs, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := openStore(root)
			if err != nil {
				return err
			}
			defer st.Close()

			jobs, err := st.ListJobs(cmd.Context())
			if err != nil {
				return err
			}

			opts := root.OutputOptions()
			switch opts.Format {
			case FormatJSON, FormatYAML:
				if jobs == nil {
					jobs = []store.Job{}
				}
				return opts.PrintStructured(jobs)
			default:
				if len(jobs) == 0 {
					opts.Infof("No jobs recorded.")
					return nil
				}
				headers := []string{"ID", "HOST ID", "STATUS", "REQUESTED", "ERROR"}
				rows := make([][]string, 0, len(jobs))
				for _, j := range jobs {
					rows = append(rows, []string{
						j.ID, j.HostID, string(j.Status),
						j.RequestedAt.Local().Format(time.RFC3339),
						j.ErrorMessage,
					})
				}
				return opts.PrintTable(headers, rows)
			}
		},
	}
}

func newJobsShowCommand(root *RootCommand) *cobra.Command {
	return &cobra.Command{
		Use:   "show <job-id>",
		Short: "Show a job and print its report when completed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := openStore(root)
			if err != nil {
				return err
			}
			defer st.Close()

			job, err := st.GetJob(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			opts := root.OutputOptions()
			rep, repErr := st.GetReportByJobID(cmd.Context(), job.ID)
			if repErr != nil && !errors.Is(repErr, store.ErrReportNotFound) {
				return repErr
			}

			switch opts.Format {
			case FormatJSON, FormatYAML:
				out := map[string]any{"job": job}
				if rep != nil {
					out["report"] = rep
				}
				return opts.PrintStructured(out)
			default:
				opts.Infof("Job %s on host %s: %s", job.ID, job.HostID, job.Status)
				if job.ErrorMessage != "" {
					opts.Infof("Error: %s", job.ErrorMessage)
				}
				if rep != nil {
					opts.Infof("")
					_, _ = opts.Writer.Write([]byte(rep.RenderedMarkdown))
				}
				return nil
			}
		},
	}
}
