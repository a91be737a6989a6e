// Package cli implements the hic command tree.
package cli

import (
	"fmt"
	"os"

	"github.com/hwinsight/hic/pkg/config"
	"github.com/hwinsight/hic/pkg/infra/logger"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

var (
	cliVersion   = "dev"
	cliBuildDate = "unknown"
	cliGitCommit = "unknown"
)

// SetVersion injects build metadata from main.
func SetVersion(version, buildDate, gitCommit string) {
	cliVersion = version
	cliBuildDate = buildDate
	cliGitCommit = gitCommit
}

type RootCommand struct {
	cmd       *cobra.Command
	cfg       *config.Config
	opts      *OutputOptions
	formatStr string
}

func NewRootCommand() *RootCommand {
	root := &RootCommand{
		opts: NewOutputOptions(),
	}

	cmd := &cobra.Command{
		Use:   "hic",
		Short: "HIC - Hardware Insight Console",
		Long: `HIC (Hardware Insight Console) inventories a machine's hardware by
running standard Linux diagnostics (dmidecode, lscpu, lsblk, lspci,
free, plus optional nvme/nvidia-smi), derives fitness ratings for
common usage roles, and suggests upgrades.

It runs one-shot assessments from the CLI, discovers candidate hosts
on the LAN, and can serve a small REST API backed by SQLite for
tracking hosts, assessment jobs, and reports.`,
		PersistentPreRunE: root.persistentPreRunE,
		SilenceUsage:      true,
	}

	root.bindFlags(cmd.PersistentFlags())

	root.cmd = cmd
	root.addSubCommands()

	return root
}

func (r *RootCommand) bindFlags(pflags *pflag.FlagSet) {
	pflags.StringVarP(&r.formatStr, "output", "o", "markdown", "Output format (markdown, json, yaml)")
	pflags.BoolVarP(&r.opts.Quiet, "quiet", "q", false, "Suppress non-essential output")
	pflags.String("config", "", "Config file path (default: ~/.hic/config.toml)")

	_ = viper.BindPFlag("output", pflags.Lookup("output"))
	_ = viper.BindPFlag("quiet", pflags.Lookup("quiet"))
	_ = viper.BindPFlag("config", pflags.Lookup("config"))
}

func (r *RootCommand) persistentPreRunE(cmd *cobra.Command, args []string) error {
	r.opts.Format = OutputFormat(r.formatStr)

	cfgPath := viper.GetString("config")
	var err error
	r.cfg, err = config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger.Init(logger.Config{
		Level:  r.cfg.Logging.Level,
		Format: r.cfg.Logging.Format,
	})

	return nil
}

func (r *RootCommand) addSubCommands() {
	r.cmd.AddCommand(
		NewAssessCommand(r),
		NewDiscoverCommand(r),
		NewServeCommand(r),
		NewHostsCommand(r),
		NewJobsCommand(r),
		NewVersionCommand(r),
	)
}

// Config returns the loaded configuration. Valid after
// PersistentPreRunE has run.
func (r *RootCommand) Config() *config.Config { return r.cfg }

// OutputOptions returns the shared output settings.
func (r *RootCommand) OutputOptions() *OutputOptions { return r.opts }

// Execute runs the root command, exiting non-zero on error.
func Execute() {
	root := NewRootCommand()
	if err := root.cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
