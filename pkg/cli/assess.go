package cli

import (
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/hwinsight/hic/pkg/assess"
	"github.com/hwinsight/hic/pkg/infra/logger"
	"github.com/hwinsight/hic/pkg/report"
	"github.com/spf13/cobra"
)

func NewAssessCommand(root *RootCommand) *cobra.Command {
	var (
		sudoMode   string
		promptSudo bool
	)

	cmd := &cobra.Command{
		Use:   "assess",
		Short: "Inventory this machine and print an assessment report",
		Long: `Assess runs the hardware inventory against the local machine.

Privilege negotiation happens once, up front:
  auto     use passwordless sudo if available, degrade gracefully
  skip     never attempt sudo; DMI-backed data will be missing
  require  sudo must work; the run aborts before any collection if not

With --prompt-sudo a password is requested interactively when
passwordless sudo is not configured. The password is held in memory
for the duration of the run and piped to sudo, never logged.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAssess(cmd, root, sudoMode, promptSudo)
		},
	}

	cmd.Flags().StringVar(&sudoMode, "sudo-mode", "", "Privilege mode: auto, skip, or require (default from config)")
	cmd.Flags().BoolVar(&promptSudo, "prompt-sudo", false, "Prompt for a sudo password if passwordless sudo fails")

	return cmd
}

func runAssess(cmd *cobra.Command, root *RootCommand, sudoModeFlag string, promptSudoFlag bool) error {
	cfg := root.Config()
	opts := root.OutputOptions()

	modeStr := cfg.Assess.SudoMode
	if sudoModeFlag != "" {
		modeStr = sudoModeFlag
	}
	mode, err := parseSudoMode(modeStr)
	if err != nil {
		return err
	}
	prompt := cfg.Assess.PromptSudo || promptSudoFlag

	ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	log := logger.Default()
	session := assess.NewSession(log)
	session.SetTimeoutCap(cfg.Assess.CommandTimeoutD)

	priv, err := session.ConfigurePrivileges(mode, prompt)
	if err != nil {
		if errors.Is(err, assess.ErrSudoRequired) {
			return fmt.Errorf("privilege negotiation failed: %w", err)
		}
		return err
	}
	if !priv.IsRoot && !priv.UseSudo {
		opts.Infof("Running without elevated privileges; DMI-backed details will be missing.")
	}

	opts.Infof("Collecting hardware inventory...")
	assessment, err := session.Assess(ctx)
	if err != nil {
		return fmt.Errorf("assessment interrupted: %w", err)
	}
	if cfg.General.Hostname != "" {
		assessment.Hostname = cfg.General.Hostname
	}

	switch opts.Format {
	case FormatJSON, FormatYAML:
		return opts.PrintStructured(assessment)
	default:
		fmt.Fprint(opts.Writer, report.Markdown(assessment))
		return nil
	}
}

func parseSudoMode(s string) (assess.SudoMode, error) {
	switch assess.SudoMode(s) {
	case assess.SudoAuto, assess.SudoSkip, assess.SudoRequire:
		return assess.SudoMode(s), nil
	default:
		return "", fmt.Errorf("invalid sudo mode %q (want auto, skip, or require)", s)
	}
}
