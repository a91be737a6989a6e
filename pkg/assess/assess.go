package assess

import (
	"context"
	"os"
	"time"
)

// requiredTools must be present for a complete inventory. Missing
// tools are reported in the assessment but never abort the run;
// affected collectors simply return empty records.
var requiredTools = []string{"dmidecode", "lscpu", "lsblk", "lspci", "free"}

// Assessment is the single structured artifact the rest of the system
// (rendering, persistence, transport) consumes. The engine never
// formats Markdown or JSON itself.
type Assessment struct {
	Hostname     string               `json:"hostname"`
	GeneratedAt  time.Time            `json:"generated_at"`
	Identity     SystemIdentity       `json:"identity"`
	CPU          CPUFacts             `json:"cpu"`
	Metrics      Metrics              `json:"metrics"`
	Disks        []Disk               `json:"disks"`
	GPUPCILines  []string             `json:"gpu_pci_lines,omitempty"`
	Accelerators []Accelerator        `json:"accelerators,omitempty"`
	NVMeRaw      string               `json:"nvme_raw,omitempty"`
	Ratings      map[Role]RoleRating  `json:"ratings"`
	Tips         []string             `json:"tips"`
	StorageHint  string               `json:"storage_hint"`
	Snapshot     *UtilizationSnapshot `json:"snapshot,omitempty"`
	MissingTools []string             `json:"missing_tools,omitempty"`
}

// Assess performs one full collection and assessment run. Collectors
// execute sequentially; each tolerates its own failures, so the
// returned assessment is always complete in shape even when individual
// records are empty. The only error paths are context cancellation and
// nothing else: privilege negotiation fatality is surfaced earlier by
// ConfigurePrivileges.
func (s *Session) Assess(ctx context.Context) (*Assessment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	a := &Assessment{GeneratedAt: time.Now()}
	a.Hostname, _ = os.Hostname()

	for _, tool := range requiredTools {
		if !s.ToolPresent(tool) {
			a.MissingTools = append(a.MissingTools, tool)
		}
	}
	if len(a.MissingTools) > 0 {
		s.logger.Warn("required diagnostic tools missing; report will be partial",
			"tools", a.MissingTools)
	}

	a.Identity = s.CollectSystemIdentity(ctx)
	a.CPU = s.CollectCPU(ctx)
	memInv := s.CollectMemory(ctx)
	totalMemMB := s.CollectTotalMemoryMB(ctx)
	a.Disks = s.CollectStorage(ctx)
	a.NVMeRaw = s.CollectNVMeList(ctx)
	a.GPUPCILines, a.Accelerators = s.CollectGPU(ctx)
	a.Snapshot = s.CollectSnapshot(ctx)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	a.Metrics = DeriveMetrics(a.CPU, memInv, totalMemMB, a.GPUPCILines, a.Accelerators, a.Disks)
	a.Ratings = RateRoles(a.Metrics)
	a.StorageHint = StorageSlotHint(a.Identity.ProductName, a.Disks)
	a.Tips = UpgradeTips(a.Metrics, a.NVMeRaw, a.StorageHint)

	return a, nil
}
