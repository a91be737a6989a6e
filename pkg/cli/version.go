package cli

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
)

func NewVersionCommand(root *RootCommand) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := root.OutputOptions()
			switch opts.Format {
			case FormatJSON, FormatYAML:
				return opts.PrintStructured(map[string]string{
					"version":    cliVersion,
					"build_date": cliBuildDate,
					"git_commit": cliGitCommit,
					"go_version": runtime.Version(),
					"platform":   runtime.GOOS + "/" + runtime.GOARCH,
				})
			default:
				fmt.Fprintf(opts.Writer, "hic %s (commit %s, built %s, %s, %s/%s)\n",
					cliVersion, cliGitCommit, cliBuildDate,
					runtime.Version(), runtime.GOOS, runtime.GOARCH)
				return nil
			}
		},
	}
}
