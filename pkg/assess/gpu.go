package assess

import (
	"context"
	"strings"
	"time"

	"github.com/shirou/gopsutil/v4/mem"
)

// Accelerator is one entry from the accelerator-management tool
// (nvidia-smi). Memory is the raw reported figure, e.g. "16384 MiB".
type Accelerator struct {
	Name   string `json:"name"`
	Memory string `json:"memory"`
}

// gpuKeywords filters lspci lines down to display adapters.
var gpuKeywords = []string{"vga", "3d", "display"}

// CollectGPU gathers display adapters from the PCI bus listing and,
// when nvidia-smi is installed, a higher-confidence accelerator list
// with VRAM figures. Either source may be empty without failing the
// run.
func (s *Session) CollectGPU(ctx context.Context) (pciLines []string, accels []Accelerator) {
	pci := s.Run(ctx, Command{
		Argv:    []string{"lspci"},
		Timeout: 10 * time.Second,
	})
	for _, line := range splitLines(pci.Stdout) {
		lower := strings.ToLower(line)
		for _, kw := range gpuKeywords {
			if strings.Contains(lower, kw) {
				pciLines = append(pciLines, line)
				break
			}
		}
	}

	if s.ToolPresent("nvidia-smi") {
		smi := s.Run(ctx, Command{
			Argv:     []string{"nvidia-smi", "--query-gpu=name,memory.total", "--format=csv,noheader"},
			Timeout:  15 * time.Second,
			Optional: true,
		})
		for _, line := range splitLines(smi.Stdout) {
			parts := strings.Split(line, ",")
			if len(parts) != 2 {
				continue
			}
			accels = append(accels, Accelerator{
				Name:   strings.TrimSpace(parts[0]),
				Memory: strings.TrimSpace(parts[1]),
			})
		}
	}

	return pciLines, accels
}

// CollectTotalMemoryMB probes the live memory total: `free -m` first,
// then the kernel via gopsutil when free is unavailable. Returns 0
// when neither source answers, which shifts derivation to module
// summation.
func (s *Session) CollectTotalMemoryMB(ctx context.Context) uint64 {
	out := s.Run(ctx, Command{
		Argv:    []string{"free", "-m"},
		Timeout: 5 * time.Second,
	})
	if out.Succeeded() {
		for _, line := range splitLines(out.Stdout) {
			if !strings.HasPrefix(line, "Mem:") {
				continue
			}
			if n := firstInt(strings.TrimSpace(strings.TrimPrefix(line, "Mem:"))); n > 0 {
				return uint64(n)
			}
		}
	}

	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		s.logger.Info("live memory total unavailable", "error", err)
		return 0
	}
	return vm.Total / (1024 * 1024)
}
