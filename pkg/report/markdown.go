// Package report renders an assessment into Markdown. It is a pure
// formatting layer: it consumes the engine's structured output and
// never invokes anything.
package report

import (
	"fmt"
	"strings"

	"github.com/hwinsight/hic/pkg/assess"
)

// Markdown renders the full hardware assessment report.
func Markdown(a *assess.Assessment) string {
	m := a.Metrics

	manufacturer := orUnknown(a.Identity.Manufacturer)
	product := orUnknown(a.Identity.ProductName)
	bios := orUnknown(a.Identity.BIOSVersion)

	var freqParts []string
	if m.MinGHz > 0 {
		freqParts = append(freqParts, fmt.Sprintf("min %.2f GHz", m.MinGHz))
	}
	if m.CurGHz > 0 {
		freqParts = append(freqParts, fmt.Sprintf("current %.2f GHz", m.CurGHz))
	}
	if m.MaxGHz > 0 {
		freqParts = append(freqParts, fmt.Sprintf("max %.2f GHz", m.MaxGHz))
	}
	freqLine := "Unavailable"
	if len(freqParts) > 0 {
		freqLine = strings.Join(freqParts, ", ")
	}

	ramSpeed := "Unknown"
	if m.RAMConfiguredSpeedMTs != nil {
		ramSpeed = fmt.Sprintf("%d MT/s", *m.RAMConfiguredSpeedMTs)
	}
	maxCapacity := "Unknown"
	if m.RAMMaxCapacityGB != nil {
		maxCapacity = fmt.Sprintf("%.0f GB", *m.RAMMaxCapacityGB)
	}
	ecc := m.RAMECC
	if ecc == "" {
		ecc = "Unknown / none"
	}

	var b strings.Builder
	line := func(format string, args ...any) {
		fmt.Fprintf(&b, format+"\n", args...)
	}

	line("# Hardware Assessment – %s", a.Hostname)
	line("")
	line("## System Summary")
	line("| Item | Value |")
	line("| --- | --- |")
	line("| Model | %s (%s) |", product, manufacturer)
	line("| BIOS | %s |", bios)
	line("| CPU | %s |", m.CPUModel)
	line("| CPU Frequency | %s |", freqLine)
	line("| Cores / Threads | %d / %d |", m.Cores, m.Threads)
	line("| RAM Installed | approximately %.1f GB across %d module(s) |", m.RAMTotalGB, m.RAMPopulated)
	line("| RAM Maximum (reported) | %s |", maxCapacity)
	line("| RAM Configured Speed | %s |", ramSpeed)
	line("| RAM ECC | %s |", ecc)
	line("| Virtualization | %s |", orUnknown(m.Virtualization))
	line("| Storage Devices Detected | %d (NVMe: %d) |", m.StorageTotal, m.StorageNVMe)
	line("")

	writeMemorySection(&b, m.RAMModules)
	writeStorageSection(&b, a.Disks, a.StorageHint)
	writeGPUSection(&b, a.GPUPCILines, a.Accelerators)
	writeRatingsSection(&b, a.Ratings)
	writeTipsSection(&b, a.Tips)

	if a.Snapshot != nil {
		s := a.Snapshot
		line("## Current Utilization")
		line("| Metric | Value |")
		line("| --- | --- |")
		line("| CPU Load | %.1f%% |", s.CPUPercent)
		line("| Memory In Use | %d / %d MB |", s.MemUsedMB, s.MemTotalMB)
		line("| Root Filesystem | %.1f / %.1f GB |", s.RootFSUsedGB, s.RootFSTotalGB)
		line("")
	}

	if a.NVMeRaw != "" {
		line("## Raw `nvme list` Output")
		line("```")
		line("%s", a.NVMeRaw)
		line("```")
		line("")
	}

	line("## Command Notes")
	line("- Run with sudo so dmidecode can read SMBIOS tables.")
	line("- Install optional tools (nvme-cli, nvidia-smi) for fuller reports.")
	line("- For macOS hosts, use system_profiler/ioreg equivalents instead; this tool targets Linux.")
	if len(a.MissingTools) > 0 {
		line("- Missing required tools: %s. Install them and rerun for a complete report.",
			strings.Join(a.MissingTools, ", "))
	}
	line("")

	return b.String()
}

func writeMemorySection(b *strings.Builder, modules []assess.MemoryModule) {
	fmt.Fprintln(b, "## Memory Modules")
	if len(modules) == 0 {
		fmt.Fprintln(b, "No module data available (dmidecode output was empty).")
		fmt.Fprintln(b)
		return
	}
	fmt.Fprintln(b, "| Slot | Size | Configured Speed | Part Number | Voltage |")
	fmt.Fprintln(b, "| --- | --- | --- | --- | --- |")
	for _, mod := range modules {
		if strings.Contains(mod.Size, "No Module") {
			continue
		}
		fmt.Fprintf(b, "| %s | %s | %s | %s | %s |\n",
			orUnknown(mod.Locator),
			orUnknown(mod.Size),
			orUnknown(mod.EffectiveSpeed()),
			orUnknown(mod.PartNumber),
			orUnknown(mod.Voltage),
		)
	}
	fmt.Fprintln(b)
}

func writeStorageSection(b *strings.Builder, disks []assess.Disk, hint string) {
	fmt.Fprintln(b, "## Storage Devices")
	if len(disks) == 0 {
		fmt.Fprintln(b, "No disks detected (lsblk returned nothing useful).")
	} else {
		fmt.Fprintln(b, "| Device | Model | Size | Type | Bus | Mountpoints |")
		fmt.Fprintln(b, "| --- | --- | --- | --- | --- | --- |")
		for _, d := range disks {
			driveType := "SSD"
			if d.Rota {
				driveType = "HDD"
			}
			tran := "?"
			if d.Tran != "" {
				tran = strings.ToUpper(d.Tran)
			}
			mounts := d.Mountpoints()
			mountStr := "-"
			if len(mounts) > 0 {
				mountStr = strings.Join(mounts, ", ")
			}
			fmt.Fprintf(b, "| %s | %s | %s | %s | %s | %s |\n",
				d.Name, orUnknown(d.Model), orUnknown(d.Size), driveType, tran, mountStr)
		}
	}
	fmt.Fprintln(b)
	fmt.Fprintf(b, "**Storage Slot Insight:** %s\n", hint)
	fmt.Fprintln(b)
}

func writeGPUSection(b *strings.Builder, pciLines []string, accels []assess.Accelerator) {
	fmt.Fprintln(b, "## GPU")
	if len(pciLines) > 0 {
		fmt.Fprintln(b, "Detected PCI/PCIe display adapters:")
		for _, line := range pciLines {
			fmt.Fprintf(b, "- %s\n", line)
		}
	} else {
		fmt.Fprintln(b, "- No GPU entries found via lspci.")
	}
	if len(accels) > 0 {
		fmt.Fprintln(b)
		fmt.Fprintln(b, "| NVIDIA GPU | Reported VRAM |")
		fmt.Fprintln(b, "| --- | --- |")
		for _, a := range accels {
			fmt.Fprintf(b, "| %s | %s |\n", a.Name, a.Memory)
		}
	}
	fmt.Fprintln(b)
}

func writeRatingsSection(b *strings.Builder, ratings map[assess.Role]assess.RoleRating) {
	fmt.Fprintln(b, "## Role Suitability")
	fmt.Fprintln(b, "| Role | Rating | Notes |")
	fmt.Fprintln(b, "| --- | --- | --- |")
	for _, role := range assess.Roles {
		r, ok := ratings[role]
		if !ok {
			continue
		}
		details := append([]string{r.Summary}, r.Notes...)
		fmt.Fprintf(b, "| %s | %s | %s |\n", role, r.Tier, strings.Join(details, "<br>"))
	}
	fmt.Fprintln(b)
}

func writeTipsSection(b *strings.Builder, tips []string) {
	fmt.Fprintln(b, "## Upgrade Opportunities")
	if len(tips) == 0 {
		fmt.Fprintln(b, "- No obvious upgrades suggested by current readings.")
	} else {
		for _, tip := range tips {
			fmt.Fprintf(b, "- %s\n", tip)
		}
	}
	fmt.Fprintln(b)
}

func orUnknown(s string) string {
	if s == "" {
		return "Unknown"
	}
	return s
}
