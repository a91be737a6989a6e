// Package assess implements the hardware inventory collection and
// assessment engine: privilege negotiation, guarded execution of the
// diagnostic tool set, parsers for their output, metric derivation,
// and role/upgrade heuristics.
//
// A Session owns all run-scoped state (privilege decision, execution
// log, warning suppression). Callers create one Session per assessment
// run; concurrent runs get independent Sessions.
package assess

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"sync"
	"time"

	"golang.org/x/term"
)

// SudoMode controls how the session obtains elevated privileges.
type SudoMode string

const (
	// SudoAuto probes for passwordless sudo and falls back to
	// unprivileged execution.
	SudoAuto SudoMode = "auto"
	// SudoSkip never attempts escalation.
	SudoSkip SudoMode = "skip"
	// SudoRequire demands working sudo; a rejected credential is fatal.
	SudoRequire SudoMode = "require"
)

// ErrSudoRequired is returned by ConfigurePrivileges when SudoRequire
// was requested and no working sudo path could be established. It is
// the engine's only fatal condition.
var ErrSudoRequired = errors.New("sudo access is required but credentials were rejected")

// ErrAlreadyConfigured is returned when ConfigurePrivileges is called
// twice on the same session without an intervening Reset.
var ErrAlreadyConfigured = errors.New("privileges already configured for this session")

// Privileges records the outcome of privilege negotiation.
type Privileges struct {
	IsRoot           bool
	UseSudo          bool
	RequiresPassword bool
	Mode             SudoMode
	Configured       bool

	// password is deliberately unexported; it never leaves the session.
	password string
}

const (
	sudoProbeTimeout    = 3 * time.Second
	sudoValidateTimeout = 5 * time.Second
)

// Session holds the state for a single assessment run.
type Session struct {
	logger *slog.Logger

	mu           sync.Mutex
	priv         Privileges
	log          []Outcome
	warnedNoSudo bool
	timeoutCap   time.Duration

	// Injection points for tests. NewSession wires real implementations.
	runner     runner
	lookPath   func(string) (string, error)
	readSecret func(prompt string) (string, error)
	geteuid    func() int
}

// NewSession creates a session with production defaults. logger may be
// nil, in which case slog.Default() is used.
func NewSession(logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.Default()
	}
	return &Session{
		logger:     logger,
		runner:     execRunner{},
		lookPath:   exec.LookPath,
		readSecret: readSecretFromTerminal,
		geteuid:    os.Geteuid,
	}
}

// ConfigurePrivileges decides whether sudo should wrap privileged
// commands for the rest of this session. It must be called at most
// once per session; Run performs it implicitly with defaults when a
// privileged command arrives first.
//
// With mode SudoRequire and no working sudo path the returned error is
// ErrSudoRequired, which callers treat as fatal before any collector
// runs.
func (s *Session) ConfigurePrivileges(mode SudoMode, promptPassword bool) (Privileges, error) {
	switch mode {
	case SudoAuto, SudoSkip, SudoRequire:
	default:
		return Privileges{}, fmt.Errorf("invalid sudo mode: %q", mode)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.priv.Configured {
		return s.priv, ErrAlreadyConfigured
	}

	s.priv = Privileges{
		IsRoot:     s.geteuid() == 0,
		Mode:       mode,
		Configured: true,
	}

	if s.priv.IsRoot || mode == SudoSkip {
		return s.priv, nil
	}

	if s.sudoCheckNonInteractive() {
		s.priv.UseSudo = true
		return s.priv, nil
	}

	if promptPassword || mode == SudoRequire {
		prompt := "sudo password: "
		if !promptPassword {
			prompt = "sudo password (required): "
		}
		password, err := s.readSecret(prompt)
		if err == nil && password != "" && s.sudoValidatePassword(password) {
			s.priv.UseSudo = true
			s.priv.RequiresPassword = true
			s.priv.password = password
			return s.priv, nil
		}
		if mode == SudoRequire {
			return s.priv, ErrSudoRequired
		}
	}

	return s.priv, nil
}

// Privileges returns a copy of the current privilege state.
func (s *Session) Privileges() Privileges {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.priv
}

// Reset clears privilege state, the execution log, and warning
// suppression. Intended for tests.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.priv = Privileges{}
	s.log = nil
	s.warnedNoSudo = false
}

// sudoCheckNonInteractive reports whether sudo works without a
// password. The probe is short and never prompts.
func (s *Session) sudoCheckNonInteractive() bool {
	ctx, cancel := context.WithTimeout(context.Background(), sudoProbeTimeout)
	defer cancel()

	res, err := s.runner.run(ctx, []string{"sudo", "-n", "true"}, "")
	return err == nil && res.hasExit && res.exitCode == 0
}

// sudoValidatePassword checks a candidate password against sudo by
// refreshing the credential cache with `sudo -S -v`.
func (s *Session) sudoValidatePassword(password string) bool {
	ctx, cancel := context.WithTimeout(context.Background(), sudoValidateTimeout)
	defer cancel()

	res, err := s.runner.run(ctx, []string{"sudo", "-S", "-v"}, password+"\n")
	return err == nil && res.hasExit && res.exitCode == 0
}

func readSecretFromTerminal(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)
	secret, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	return string(secret), nil
}

// SetTimeoutCap bounds every guarded command's wall-clock timeout.
// Commands keep their own shorter timeouts; zero disables the cap.
func (s *Session) SetTimeoutCap(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.timeoutCap = d
}

// ToolPresent reports whether an executable can be located on the
// search path. Used for optional-tool presence checks.
func (s *Session) ToolPresent(name string) bool {
	_, err := s.lookPath(name)
	return err == nil
}
