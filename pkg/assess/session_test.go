package assess

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRunner records every invocation and answers from a script keyed
// by the joined argv.
type fakeRunner struct {
	calls  [][]string
	stdins []string

	// respond decides the result for one invocation. Nil means
	// success with empty output.
	respond func(argv []string, stdin string) (procResult, error)
}

func (f *fakeRunner) run(ctx context.Context, argv []string, stdin string) (procResult, error) {
	f.calls = append(f.calls, append([]string(nil), argv...))
	f.stdins = append(f.stdins, stdin)
	if err := ctx.Err(); err != nil {
		return procResult{}, err
	}
	if f.respond == nil {
		return procResult{hasExit: true}, nil
	}
	return f.respond(argv, stdin)
}

func newTestSession(t *testing.T, r *fakeRunner) *Session {
	t.Helper()
	s := NewSession(slog.New(slog.DiscardHandler))
	s.runner = r
	s.geteuid = func() int { return 1000 }
	s.lookPath = func(string) (string, error) { return "", errors.New("not found") }
	s.readSecret = func(string) (string, error) {
		t.Fatal("unexpected password prompt")
		return "", nil
	}
	return s
}

func sudoSucceeds(argv []string, stdin string) (procResult, error) {
	if argv[0] == "sudo" {
		return procResult{hasExit: true, exitCode: 0}, nil
	}
	return procResult{hasExit: true}, nil
}

func sudoFails(argv []string, stdin string) (procResult, error) {
	if argv[0] == "sudo" {
		return procResult{hasExit: true, exitCode: 1, stderr: "sudo: a password is required"}, nil
	}
	return procResult{hasExit: true}, nil
}

func TestConfigurePrivilegesRoot(t *testing.T) {
	r := &fakeRunner{}
	s := newTestSession(t, r)
	s.geteuid = func() int { return 0 }

	priv, err := s.ConfigurePrivileges(SudoAuto, false)
	require.NoError(t, err)
	assert.True(t, priv.IsRoot)
	assert.False(t, priv.UseSudo)
	// Root never probes sudo.
	assert.Empty(t, r.calls)
}

func TestConfigurePrivilegesSkip(t *testing.T) {
	r := &fakeRunner{respond: sudoSucceeds}
	s := newTestSession(t, r)

	priv, err := s.ConfigurePrivileges(SudoSkip, false)
	require.NoError(t, err)
	assert.False(t, priv.UseSudo)
	assert.Empty(t, r.calls, "skip mode must not probe sudo")
}

func TestConfigurePrivilegesAutoPasswordless(t *testing.T) {
	r := &fakeRunner{respond: sudoSucceeds}
	s := newTestSession(t, r)

	priv, err := s.ConfigurePrivileges(SudoAuto, false)
	require.NoError(t, err)
	assert.True(t, priv.UseSudo)
	assert.False(t, priv.RequiresPassword)

	require.Len(t, r.calls, 1)
	assert.Equal(t, []string{"sudo", "-n", "true"}, r.calls[0])
}

func TestConfigurePrivilegesAutoDegrades(t *testing.T) {
	r := &fakeRunner{respond: sudoFails}
	s := newTestSession(t, r)

	priv, err := s.ConfigurePrivileges(SudoAuto, false)
	require.NoError(t, err)
	assert.False(t, priv.UseSudo)
}

func TestConfigurePrivilegesPromptAccepted(t *testing.T) {
	r := &fakeRunner{
		respond: func(argv []string, stdin string) (procResult, error) {
			if len(argv) >= 2 && argv[1] == "-n" {
				return procResult{hasExit: true, exitCode: 1}, nil
			}
			// sudo -S -v accepts the piped password.
			if len(argv) >= 2 && argv[1] == "-S" {
				if stdin == "hunter2\n" {
					return procResult{hasExit: true, exitCode: 0}, nil
				}
				return procResult{hasExit: true, exitCode: 1}, nil
			}
			return procResult{hasExit: true}, nil
		},
	}
	s := newTestSession(t, r)
	s.readSecret = func(string) (string, error) { return "hunter2", nil }

	priv, err := s.ConfigurePrivileges(SudoAuto, true)
	require.NoError(t, err)
	assert.True(t, priv.UseSudo)
	assert.True(t, priv.RequiresPassword)
}

func TestConfigurePrivilegesRequireRejected(t *testing.T) {
	r := &fakeRunner{respond: sudoFails}
	s := newTestSession(t, r)
	s.readSecret = func(string) (string, error) { return "wrong", nil }

	_, err := s.ConfigurePrivileges(SudoRequire, false)
	require.ErrorIs(t, err, ErrSudoRequired)
}

func TestConfigurePrivilegesRequirePromptErr(t *testing.T) {
	r := &fakeRunner{respond: sudoFails}
	s := newTestSession(t, r)
	s.readSecret = func(string) (string, error) { return "", errors.New("not a tty") }

	_, err := s.ConfigurePrivileges(SudoRequire, false)
	require.ErrorIs(t, err, ErrSudoRequired)
}

func TestConfigurePrivilegesInvalidMode(t *testing.T) {
	s := newTestSession(t, &fakeRunner{})
	_, err := s.ConfigurePrivileges(SudoMode("bogus"), false)
	require.Error(t, err)
}

func TestConfigurePrivilegesTwice(t *testing.T) {
	r := &fakeRunner{respond: sudoSucceeds}
	s := newTestSession(t, r)

	first, err := s.ConfigurePrivileges(SudoAuto, false)
	require.NoError(t, err)

	second, err := s.ConfigurePrivileges(SudoSkip, false)
	require.ErrorIs(t, err, ErrAlreadyConfigured)
	// The original decision stands.
	assert.Equal(t, first.UseSudo, second.UseSudo)
	assert.Equal(t, SudoAuto, second.Mode)
}

func TestResetAllowsReconfiguration(t *testing.T) {
	r := &fakeRunner{respond: sudoSucceeds}
	s := newTestSession(t, r)

	_, err := s.ConfigurePrivileges(SudoAuto, false)
	require.NoError(t, err)

	s.Reset()

	priv, err := s.ConfigurePrivileges(SudoSkip, false)
	require.NoError(t, err)
	assert.Equal(t, SudoSkip, priv.Mode)
	assert.Empty(t, s.CommandLog())
}

func TestToolPresent(t *testing.T) {
	s := newTestSession(t, &fakeRunner{})
	s.lookPath = func(name string) (string, error) {
		if name == "lscpu" {
			return "/usr/bin/lscpu", nil
		}
		return "", errors.New("not found")
	}

	assert.True(t, s.ToolPresent("lscpu"))
	assert.False(t, s.ToolPresent("nvme"))
}

func TestPasswordNeverInLogOrErrors(t *testing.T) {
	r := &fakeRunner{
		respond: func(argv []string, stdin string) (procResult, error) {
			if len(argv) >= 2 && argv[1] == "-n" && argv[0] == "sudo" && len(argv) == 3 {
				return procResult{hasExit: true, exitCode: 1}, nil
			}
			return procResult{hasExit: true, exitCode: 0}, nil
		},
	}
	s := newTestSession(t, r)
	s.readSecret = func(string) (string, error) { return "s3cret", nil }

	_, err := s.ConfigurePrivileges(SudoAuto, true)
	require.NoError(t, err)

	s.Run(context.Background(), Command{Argv: []string{"dmidecode", "-s", "system-manufacturer"}, NeedsRoot: true})

	for _, out := range s.CommandLog() {
		joined := strings.Join(out.Args, " ") + out.Stdout + out.Stderr + out.FailureReason
		assert.NotContains(t, joined, "s3cret")
	}
}
