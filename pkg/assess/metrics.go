package assess

import "strings"

// Metrics is the single reconciled numeric/boolean view of the
// machine, fused from all collector records. All heuristics consume
// this and nothing else.
type Metrics struct {
	CPUModel       string  `json:"cpu_model"`
	Architecture   string  `json:"cpu_arch,omitempty"`
	Threads        int     `json:"threads"`
	Cores          int     `json:"cores"`
	MaxGHz         float64 `json:"cpu_max_ghz"`
	MinGHz         float64 `json:"cpu_min_ghz"`
	CurGHz         float64 `json:"cpu_cur_ghz"`
	Virtualization string  `json:"virtualization,omitempty"`

	RAMTotalGB            float64        `json:"ram_total_gb"`
	RAMSlots              int            `json:"ram_slots"`
	RAMPopulated          int            `json:"ram_populated"`
	RAMEmpty              int            `json:"ram_empty"`
	RAMModules            []MemoryModule `json:"ram_modules"`
	RAMMaxCapacityGB      *float64       `json:"ram_max_capacity_gb,omitempty"`
	RAMECC                string         `json:"ram_ecc,omitempty"`
	RAMConfiguredSpeedMTs *int           `json:"ram_configured_speed_mts,omitempty"`

	HasDedicatedGPU bool    `json:"has_dedicated_gpu"`
	GPUVRAMGB       float64 `json:"gpu_vram_gb"`

	StorageTotal int `json:"storage_total"`
	StorageNVMe  int `json:"storage_nvme"`
}

// DeriveMetrics fuses the raw collector records into Metrics. It is a
// pure function: identical inputs always yield identical output.
//
// Reconciliation rules:
//   - RAM total prefers the live total (free) and falls back to
//     summing parsed module capacities when the live total is zero.
//   - Slot accounting prefers the declared SMBIOS slot count, falling
//     back to counting modules that report a physical locator.
//   - Configured speed is the maximum speed that parses across
//     modules, a best-observed signal rather than an average.
//   - GPU VRAM is the maximum accelerator figure, GiB verbatim and
//     MiB divided by 1024.
//   - NVMe counting uses lsblk transport classification only.
func DeriveMetrics(cpu CPUFacts, memInv MemoryInventory, totalMemMB uint64, gpuPCI []string, accels []Accelerator, disks []Disk) Metrics {
	m := Metrics{
		CPUModel:       "Unknown",
		Architecture:   cpu["Architecture"],
		Virtualization: cpu["Virtualization"],
		RAMModules:     memInv.Modules,
		RAMECC:         memInv.ECC,
	}
	if model := cpu["Model name"]; model != "" {
		m.CPUModel = model
	}

	m.Threads = firstInt(cpu["CPU(s)"])
	sockets := 1
	if v, ok := cpu["Socket(s)"]; ok && v != "" {
		sockets = firstInt(v)
	}
	if coresPerSocket := firstInt(cpu["Core(s) per socket"]); coresPerSocket > 0 {
		m.Cores = sockets * coresPerSocket
	}

	m.MaxGHz = firstFloat(cpu["CPU max MHz"]) / 1000
	m.MinGHz = firstFloat(cpu["CPU min MHz"]) / 1000
	m.CurGHz = firstFloat(cpu["CPU MHz"]) / 1000

	m.RAMTotalGB = float64(totalMemMB) / 1024
	if m.RAMTotalGB == 0 {
		for _, mod := range memInv.Modules {
			m.RAMTotalGB += SizeToGB(mod.Size)
		}
	}

	for _, mod := range memInv.Modules {
		if mod.Installed() {
			m.RAMPopulated++
		}
	}
	if memInv.SlotCount != nil && *memInv.SlotCount > 0 {
		m.RAMSlots = *memInv.SlotCount
	} else {
		for _, mod := range memInv.Modules {
			if mod.Locator != "" {
				m.RAMSlots++
			}
		}
	}
	if m.RAMSlots > m.RAMPopulated {
		m.RAMEmpty = m.RAMSlots - m.RAMPopulated
	}
	m.RAMMaxCapacityGB = memInv.MaxCapacityGB

	for _, mod := range memInv.Modules {
		if speed, ok := ParseSpeedMTs(mod.EffectiveSpeed()); ok {
			if m.RAMConfiguredSpeedMTs == nil || speed > *m.RAMConfiguredSpeedMTs {
				s := speed
				m.RAMConfiguredSpeedMTs = &s
			}
		}
	}

	m.HasDedicatedGPU = detectDedicatedGPU(gpuPCI, accels)
	for _, a := range accels {
		if vram, ok := parseVRAMGB(a.Memory); ok && vram > m.GPUVRAMGB {
			m.GPUVRAMGB = vram
		}
	}

	m.StorageTotal = len(disks)
	for _, d := range disks {
		if d.IsNVMe() {
			m.StorageNVMe++
		}
	}

	return m
}

// detectDedicatedGPU approximates discrete-GPU presence from PCI
// lines. An AMD line containing "graphics" counts as discrete even
// though integrated AMD graphics matches too; report wording depends
// on this reading, so it stays. Any accelerator-tool entry also counts.
func detectDedicatedGPU(gpuPCI []string, accels []Accelerator) bool {
	for _, line := range gpuPCI {
		lower := strings.ToLower(line)
		if strings.Contains(lower, "nvidia") {
			return true
		}
		if strings.Contains(lower, "amd") && strings.Contains(lower, "graphics") {
			return true
		}
	}
	return len(accels) > 0
}
