package assess

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const lspciFixture = `00:00.0 Host bridge: Intel Corporation Device 7d01
00:02.0 VGA compatible controller: Intel Corporation Raptor Lake-S UHD Graphics
01:00.0 3D controller: NVIDIA Corporation AD106M [GeForce RTX 4070 Max-Q]
02:00.0 Ethernet controller: Intel Corporation Killer E3100X`

func TestCollectGPUFiltersPCILines(t *testing.T) {
	r := &fakeRunner{
		respond: func(argv []string, stdin string) (procResult, error) {
			return procResult{stdout: lspciFixture, hasExit: true}, nil
		},
	}
	s := newTestSession(t, r)

	lines, accels := s.CollectGPU(context.Background())

	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "VGA compatible controller")
	assert.Contains(t, lines[1], "3D controller")
	assert.Empty(t, accels, "nvidia-smi absent, no accelerator entries")
}

func TestCollectGPUWithNvidiaSMI(t *testing.T) {
	r := &fakeRunner{
		respond: func(argv []string, stdin string) (procResult, error) {
			if argv[0] == "lspci" {
				return procResult{stdout: lspciFixture, hasExit: true}, nil
			}
			return procResult{stdout: "NVIDIA GeForce RTX 4070 Laptop GPU, 8188 MiB\n", hasExit: true}, nil
		},
	}
	s := newTestSession(t, r)
	s.lookPath = func(name string) (string, error) { return "/usr/bin/" + name, nil }

	_, accels := s.CollectGPU(context.Background())

	require.Len(t, accels, 1)
	assert.Equal(t, "NVIDIA GeForce RTX 4070 Laptop GPU", accels[0].Name)
	assert.Equal(t, "8188 MiB", accels[0].Memory)
}

func TestCollectGPUSkipsMalformedCSV(t *testing.T) {
	r := &fakeRunner{
		respond: func(argv []string, stdin string) (procResult, error) {
			if argv[0] == "lspci" {
				return procResult{hasExit: true}, nil
			}
			return procResult{stdout: "garbage line without separator\nname, 123 MiB, extra", hasExit: true}, nil
		},
	}
	s := newTestSession(t, r)
	s.lookPath = func(string) (string, error) { return "/usr/bin/nvidia-smi", nil }

	_, accels := s.CollectGPU(context.Background())
	assert.Empty(t, accels)
}

func TestCollectTotalMemoryMB(t *testing.T) {
	free := `              total        used        free      shared  buff/cache   available
Mem:          31894       12000        8000         600       11894       19000
Swap:          2047           0        2047`
	r := &fakeRunner{
		respond: func(argv []string, stdin string) (procResult, error) {
			return procResult{stdout: free, hasExit: true}, nil
		},
	}
	s := newTestSession(t, r)

	assert.Equal(t, uint64(31894), s.CollectTotalMemoryMB(context.Background()))
}

func TestCollectSystemIdentity(t *testing.T) {
	r := &fakeRunner{
		respond: func(argv []string, stdin string) (procResult, error) {
			switch argv[len(argv)-1] {
			case "system-manufacturer":
				return procResult{stdout: "Micro-Star International Co., Ltd.\n", hasExit: true}, nil
			case "system-product-name":
				return procResult{stdout: "Raider GE78 HX 14VGG\n", hasExit: true}, nil
			case "bios-version":
				return procResult{stderr: "/dev/mem: Permission denied", exitCode: 1, hasExit: true}, nil
			}
			return procResult{hasExit: true}, nil
		},
	}
	s := newTestSession(t, r)

	id := s.CollectSystemIdentity(context.Background())
	assert.Equal(t, "Micro-Star International Co., Ltd.", id.Manufacturer)
	assert.Equal(t, "Raider GE78 HX 14VGG", id.ProductName)
	assert.Empty(t, id.BIOSVersion, "failed query leaves the field empty")
}

const lscpuFixture = `Architecture:            x86_64
CPU op-mode(s):          32-bit, 64-bit
CPU(s):                  32
Model name:              Intel(R) Core(TM) i9-14900HX
Thread(s) per core:      2
Core(s) per socket:      24
Socket(s):               1
CPU max MHz:             5800.0000
CPU min MHz:             800.0000
Virtualization:          VT-x`

func TestCollectCPU(t *testing.T) {
	r := &fakeRunner{
		respond: func(argv []string, stdin string) (procResult, error) {
			return procResult{stdout: lscpuFixture, hasExit: true}, nil
		},
	}
	s := newTestSession(t, r)

	facts := s.CollectCPU(context.Background())
	assert.Equal(t, "32", facts["CPU(s)"])
	assert.Equal(t, "Intel(R) Core(TM) i9-14900HX", facts["Model name"])
	assert.Equal(t, "VT-x", facts["Virtualization"])
	assert.Equal(t, "24", facts["Core(s) per socket"])
}

func TestCollectCPUFailedCommand(t *testing.T) {
	r := &fakeRunner{
		respond: func(argv []string, stdin string) (procResult, error) {
			return procResult{exitCode: 127, hasExit: true}, nil
		},
	}
	s := newTestSession(t, r)

	facts := s.CollectCPU(context.Background())
	assert.Empty(t, facts)
	assert.False(t, strings.Contains(facts["Model name"], "Intel"))
}
