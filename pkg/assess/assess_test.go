package assess

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedSession answers each diagnostic tool from a canned table,
// simulating a 16-thread, 32 GB, two-slot laptop without a discrete
// GPU.
func scriptedSession(t *testing.T, overrides map[string]func() (procResult, error)) *Session {
	t.Helper()

	canned := map[string]procResult{
		"dmidecode -s system-manufacturer": {stdout: "Micro-Star International Co., Ltd.\n", hasExit: true},
		"dmidecode -s system-product-name": {stdout: "Raider GE78 HX 14VGG\n", hasExit: true},
		"dmidecode -s bios-version":        {stdout: "E17S1IMS.10A\n", hasExit: true},
		"lscpu": {stdout: `Architecture: x86_64
CPU(s): 16
Model name: Intel(R) Core(TM) i7-13700H
Core(s) per socket: 14
Socket(s): 1
CPU max MHz: 5000.0000
Virtualization: VT-x`, hasExit: true},
		"dmidecode -t memory": {stdout: dmidecodeMemoryFixture, hasExit: true},
		"free -m":             {stdout: "Mem: 32768 100 100 100 100 100\n", hasExit: true},
		"lsblk -J -o NAME,MODEL,SIZE,TYPE,MOUNTPOINT,ROTA,TRAN": {
			stdout: `{"blockdevices":[{"name":"nvme0n1","model":"SSD","size":"1.8T","type":"disk","rota":false,"tran":"nvme"}]}`,
			hasExit: true,
		},
		"lspci": {stdout: "00:02.0 VGA compatible controller: Intel Corporation Raptor Lake-P UHD Graphics\n", hasExit: true},
	}

	r := &fakeRunner{
		respond: func(argv []string, stdin string) (procResult, error) {
			key := strings.Join(argv, " ")
			if fn, ok := overrides[key]; ok {
				return fn()
			}
			if res, ok := canned[key]; ok {
				return res, nil
			}
			return procResult{hasExit: true}, nil
		},
	}

	s := newTestSession(t, r)
	s.lookPath = func(name string) (string, error) {
		switch name {
		case "dmidecode", "lscpu", "lsblk", "lspci", "free":
			return "/usr/bin/" + name, nil
		}
		return "", errNotInstalled
	}
	return s
}

var errNotInstalled = errors.New("executable file not found in $PATH")

func TestAssessLaptopWithoutGPU(t *testing.T) {
	s := scriptedSession(t, nil)
	_, err := s.ConfigurePrivileges(SudoSkip, false)
	require.NoError(t, err)

	a, err := s.Assess(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "Raider GE78 HX 14VGG", a.Identity.ProductName)
	assert.Empty(t, a.MissingTools)

	assert.Equal(t, 16, a.Metrics.Threads)
	assert.Equal(t, 32.0, a.Metrics.RAMTotalGB)
	assert.Equal(t, 2, a.Metrics.RAMPopulated)
	assert.Equal(t, 0, a.Metrics.RAMEmpty)
	assert.False(t, a.Metrics.HasDedicatedGPU)

	require.Len(t, a.Ratings, len(Roles))
	assert.Equal(t, TierExcellent, a.Ratings[RoleWorkstation].Tier)
	assert.Equal(t, TierNotIdeal, a.Ratings[RoleLLM].Tier)

	var sawGPUTip bool
	for _, tip := range a.Tips {
		if strings.Contains(tip, "No discrete GPU detected") {
			sawGPUTip = true
		}
	}
	assert.True(t, sawGPUTip, "missing-GPU upgrade tip expected: %v", a.Tips)

	assert.Contains(t, a.StorageHint, "1/2 NVMe slots populated")
}

func TestAssessSurvivesMemoryTimeout(t *testing.T) {
	s := scriptedSession(t, map[string]func() (procResult, error){
		"dmidecode -t memory": func() (procResult, error) {
			return procResult{}, context.DeadlineExceeded
		},
	})
	_, err := s.ConfigurePrivileges(SudoSkip, false)
	require.NoError(t, err)

	a, err := s.Assess(context.Background())
	require.NoError(t, err)

	// The report is complete in shape: the live total stands in for
	// the missing module table.
	assert.Equal(t, 32.0, a.Metrics.RAMTotalGB)
	assert.Empty(t, a.Metrics.RAMModules)
	assert.Zero(t, a.Metrics.RAMSlots)
	require.Len(t, a.Ratings, len(Roles))
	assert.NotNil(t, a.Tips)

	var timedOut bool
	for _, out := range s.CommandLog() {
		if out.TimedOut {
			timedOut = true
		}
	}
	assert.True(t, timedOut, "memory collection timeout must be recorded")
}

func TestAssessReportsMissingTools(t *testing.T) {
	s := scriptedSession(t, nil)
	s.lookPath = func(name string) (string, error) { return "", errNotInstalled }
	_, err := s.ConfigurePrivileges(SudoSkip, false)
	require.NoError(t, err)

	a, err := s.Assess(context.Background())
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"dmidecode", "lscpu", "lsblk", "lspci", "free"}, a.MissingTools)
}

func TestAssessCancelledContext(t *testing.T) {
	s := scriptedSession(t, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.Assess(ctx)
	require.ErrorIs(t, err, context.Canceled)
}

func TestRequireModeAbortsBeforeCollectors(t *testing.T) {
	r := &fakeRunner{respond: sudoFails}
	s := newTestSession(t, r)
	s.readSecret = func(string) (string, error) { return "rejected", nil }

	_, err := s.ConfigurePrivileges(SudoRequire, false)
	require.ErrorIs(t, err, ErrSudoRequired)

	// Negotiation probed sudo but never ran a diagnostic command.
	assert.Empty(t, s.CommandLog())
	for _, call := range r.calls {
		assert.Equal(t, "sudo", call[0])
	}
}
