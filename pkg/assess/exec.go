package assess

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

// Command describes one guarded external invocation.
type Command struct {
	Argv    []string
	Timeout time.Duration
	// Optional lowers logging severity and suppresses the
	// missing-sudo advisory; absence of the tool is expected.
	Optional bool
	// NeedsRoot requests sudo wrapping when the session is not
	// already running as root.
	NeedsRoot bool
}

// Outcome is the immutable result of one guarded invocation. Every
// outcome, success or failure, is appended to the session's execution
// log exactly once.
type Outcome struct {
	Args          []string      `json:"args"`
	Stdout        string        `json:"stdout"`
	Stderr        string        `json:"stderr"`
	ExitCode      int           `json:"exit_code"`
	HasExitCode   bool          `json:"has_exit_code"`
	TimedOut      bool          `json:"timed_out"`
	FailureReason string        `json:"failure_reason,omitempty"`
	Elapsed       time.Duration `json:"elapsed"`
}

// Succeeded reports whether the invocation completed cleanly: no
// failure reason, no timeout, and a zero exit status when one was
// observed.
func (o Outcome) Succeeded() bool {
	return o.FailureReason == "" && !o.TimedOut && (!o.HasExitCode || o.ExitCode == 0)
}

// procResult is the raw result of a finished process, before the
// guardrail classifies it.
type procResult struct {
	stdout   string
	stderr   string
	exitCode int
	hasExit  bool
}

// runner abstracts process invocation so tests can substitute canned
// results. stdin is piped verbatim when non-empty; otherwise the child
// gets no input and can never block on a terminal.
type runner interface {
	run(ctx context.Context, argv []string, stdin string) (procResult, error)
}

type execRunner struct{}

func (execRunner) run(ctx context.Context, argv []string, stdin string) (procResult, error) {
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if stdin != "" {
		cmd.Stdin = strings.NewReader(stdin)
	}

	err := cmd.Run()

	res := procResult{stdout: stdout.String(), stderr: stderr.String()}
	if err == nil {
		res.hasExit = true
		return res, nil
	}

	// Partial output survives a deadline kill; report the timeout over
	// the secondary "signal: killed" error.
	if ctx.Err() != nil {
		return res, ctx.Err()
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		res.exitCode = exitErr.ExitCode()
		res.hasExit = true
		return res, nil
	}

	return res, err
}

const defaultCommandTimeout = 10 * time.Second

// Run executes cmd under the session's guardrails: sudo wrapping per
// the negotiated privilege state, a hard wall-clock timeout, failure
// classification, and execution-log recording. Timeouts, missing
// executables, and non-zero exits are all recoverable; the caller
// inspects Outcome.Succeeded.
func (s *Session) Run(ctx context.Context, cmd Command) Outcome {
	start := time.Now()

	argv := append([]string(nil), cmd.Argv...)
	stdin := ""

	if cmd.NeedsRoot {
		argv, stdin = s.wrapPrivileged(argv, cmd.Optional)
	}

	timeout := cmd.Timeout
	if timeout <= 0 {
		timeout = defaultCommandTimeout
	}
	s.mu.Lock()
	if s.timeoutCap > 0 && timeout > s.timeoutCap {
		timeout = s.timeoutCap
	}
	s.mu.Unlock()
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	res, err := s.runner.run(runCtx, argv, stdin)

	out := Outcome{
		Args:        argv,
		Stdout:      strings.TrimSpace(res.stdout),
		Stderr:      strings.TrimSpace(res.stderr),
		ExitCode:    res.exitCode,
		HasExitCode: res.hasExit,
		Elapsed:     time.Since(start),
	}

	display := strings.Join(argv, " ")

	switch {
	case err != nil && errors.Is(err, context.DeadlineExceeded):
		out.TimedOut = true
		out.FailureReason = "timed out after " + timeout.String() + ": " + display
		s.logger.Warn("command timed out", "command", display, "timeout", timeout)
	case err != nil && isNotFound(err):
		out.FailureReason = "command not found: " + argv[0]
		if !cmd.Optional {
			s.logger.Warn("command not found", "command", argv[0])
		}
	case err != nil:
		out.FailureReason = err.Error()
		if !cmd.Optional {
			s.logger.Warn("command failed to start", "command", display, "error", err)
		}
	case res.hasExit && res.exitCode != 0:
		reason := out.Stderr
		if reason == "" {
			reason = out.Stdout
		}
		if reason == "" {
			reason = "exit code " + strconv.Itoa(res.exitCode)
		}
		out.FailureReason = reason
		if cmd.Optional {
			s.logger.Info("command exited non-zero", "command", display, "exit_code", res.exitCode, "reason", reason)
		} else {
			s.logger.Warn("command exited non-zero", "command", display, "exit_code", res.exitCode, "reason", reason)
		}
	}

	s.mu.Lock()
	s.log = append(s.log, out)
	s.mu.Unlock()

	return out
}

// wrapPrivileged applies the negotiated escalation to argv. If
// negotiation has not run yet it runs once with defaults. When sudo is
// unavailable the command proceeds unprivileged, with a single
// session-wide advisory for non-optional commands.
func (s *Session) wrapPrivileged(argv []string, optional bool) ([]string, string) {
	s.mu.Lock()
	configured := s.priv.Configured
	s.mu.Unlock()

	if !configured {
		// Auto mode without prompting cannot fail.
		_, _ = s.ConfigurePrivileges(SudoAuto, false)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.priv.IsRoot {
		return argv, ""
	}

	if s.priv.UseSudo {
		if s.priv.RequiresPassword && s.priv.password != "" {
			return append([]string{"sudo", "-S"}, argv...), s.priv.password + "\n"
		}
		return append([]string{"sudo", "-n"}, argv...), ""
	}

	if !optional && !s.warnedNoSudo {
		s.logger.Info("running without sudo; privileged command may fail",
			"command", strings.Join(argv, " "))
		s.warnedNoSudo = true
	}
	return argv, ""
}

func isNotFound(err error) bool {
	var execErr *exec.Error
	return errors.Is(err, exec.ErrNotFound) || errors.As(err, &execErr)
}

// CommandLog returns a snapshot of every recorded invocation, in
// execution order.
func (s *Session) CommandLog() []Outcome {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Outcome(nil), s.log...)
}
