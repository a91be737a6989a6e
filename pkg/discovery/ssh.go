package discovery

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/hwinsight/hic/pkg/assess"
)

// SSHCheck is the result of a non-interactive SSH reachability probe.
// Reachable means the daemon answered (even with an auth failure);
// Authenticated means key-based login succeeded.
type SSHCheck struct {
	Target        string `json:"target"`
	Reachable     bool   `json:"reachable"`
	Authenticated bool   `json:"authenticated"`
	ExitCode      int    `json:"exit_code"`
	Stdout        string `json:"stdout,omitempty"`
	Stderr        string `json:"stderr,omitempty"`
}

// VerifySSH probes target with a batch-mode SSH connection that never
// prompts. The probe carries its own connect timeout plus one second
// of slack on the wall clock.
func (d *Discoverer) VerifySSH(ctx context.Context, target string, timeout time.Duration) SSHCheck {
	if !d.session.ToolPresent("ssh") {
		return SSHCheck{Target: target, ExitCode: -1, Stderr: "ssh executable not found"}
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	argv := []string{
		"ssh",
		"-o", "BatchMode=yes",
		"-o", fmt.Sprintf("ConnectTimeout=%.0f", timeout.Seconds()),
		"-o", "NumberOfPasswordPrompts=0",
		"-o", "StrictHostKeyChecking=no",
		target,
		"exit",
	}

	out := d.session.Run(ctx, assessCommand(argv, timeout+time.Second, true))

	check := SSHCheck{
		Target:   target,
		Stdout:   out.Stdout,
		Stderr:   out.Stderr,
		ExitCode: -1,
	}
	if out.TimedOut {
		check.Stderr = strings.TrimSpace(check.Stderr + "\ncommand timed out")
		return check
	}
	if out.HasExitCode {
		check.ExitCode = out.ExitCode
	}
	check.Authenticated = out.HasExitCode && out.ExitCode == 0
	check.Reachable = check.Authenticated || strings.Contains(out.Stderr, "Permission denied")
	return check
}

// assessCommand builds a guardrail command for discovery probes.
func assessCommand(argv []string, timeout time.Duration, optional bool) assess.Command {
	return assess.Command{Argv: argv, Timeout: timeout, Optional: optional}
}
