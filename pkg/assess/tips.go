package assess

import (
	"fmt"
	"strings"
)

// chassisHint is model-specific storage expansion knowledge keyed by
// product-name prefix. Entries are ordered most-specific first because
// prefixes overlap.
type chassisHint struct {
	prefix    string
	nvmeSlots int
	notes     string
}

var chassisHints = []chassisHint{
	{
		prefix:    "Raider GE78 HX 14VGG",
		nvmeSlots: 2,
		notes:     "MSI documentation indicates two M.2 NVMe slots (PCIe Gen5 x4 primary, PCIe Gen4 x4 secondary).",
	},
	{
		prefix:    "Raider GE78",
		nvmeSlots: 2,
		notes:     "GE78 chassis typically offers two M.2 NVMe slots; confirm in the service manual for your exact sub-model.",
	},
}

// StorageSlotHint returns human-readable guidance about free storage
// slots, combining the chassis table with observed NVMe population.
func StorageSlotHint(productName string, disks []Disk) string {
	if productName == "" {
		return "Model name unavailable; consult the service manual for storage slot details."
	}

	var matched *chassisHint
	for i := range chassisHints {
		if strings.HasPrefix(productName, chassisHints[i].prefix) {
			matched = &chassisHints[i]
			break
		}
	}
	if matched == nil {
		return "No model-specific storage slot data; inspect the chassis or vendor documentation."
	}

	nvmePresent := 0
	for _, d := range disks {
		if d.IsNVMe() {
			nvmePresent++
		}
	}

	freeSlots := matched.nvmeSlots - nvmePresent
	detail := fmt.Sprintf("Detected %d/%d NVMe slots populated.", nvmePresent, matched.nvmeSlots)
	if freeSlots > 0 {
		detail = fmt.Sprintf("Detected %d/%d NVMe slots populated; about %d slot(s) likely free.",
			nvmePresent, matched.nvmeSlots, freeSlots)
	}
	return strings.TrimSpace(matched.notes + " " + detail)
}

// UpgradeTips derives ordered upgrade recommendations from the
// metrics. Order reflects priority (memory, storage, GPU,
// slot-specific, tooling) and each qualifying condition emits exactly
// one tip. The returned slice is never nil; empty means "no
// suggestions", distinct from not-yet-computed.
func UpgradeTips(m Metrics, nvmeRaw, storageHint string) []string {
	tips := []string{}

	if m.RAMEmpty > 0 {
		tips = append(tips, fmt.Sprintf("Populate the %d empty memory slot(s) to expand RAM.", m.RAMEmpty))
	} else if m.RAMTotalGB > 0 && m.RAMMaxCapacityGB != nil {
		if m.RAMTotalGB < *m.RAMMaxCapacityGB {
			tips = append(tips, fmt.Sprintf("Replace existing SODIMMs to move toward the %.0f GB platform ceiling.", *m.RAMMaxCapacityGB))
		} else {
			tips = append(tips, "System is already at the reported maximum memory capacity.")
		}
	}

	if m.StorageTotal <= 1 {
		tips = append(tips, "Only one storage device detected; add another NVMe/SATA drive for capacity or redundancy.")
	}

	if !m.HasDedicatedGPU {
		tips = append(tips, "No discrete GPU detected; add one if ML or media workloads are important and the chassis supports it.")
	}

	if storageHint != "" && strings.Contains(strings.ToLower(storageHint), "likely free") {
		tips = append(tips, "Use the free M.2 slot for a second NVMe SSD if additional fast storage is needed.")
	}

	if nvmeRaw != "" && !strings.Contains(nvmeRaw, "Device") {
		tips = append(tips, "Install nvme-cli for deeper NVMe diagnostics (temperature, firmware, spare space).")
	}

	return tips
}
