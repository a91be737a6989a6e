package assess

import (
	"context"
	"strings"
	"time"
)

// MemoryModule is one DIMM slot as reported by the SMBIOS memory
// device table. Size of "No Module Installed" marks an empty slot.
type MemoryModule struct {
	Locator         string `json:"locator,omitempty"`
	Size            string `json:"size,omitempty"`
	Speed           string `json:"speed,omitempty"`
	ConfiguredSpeed string `json:"configured_speed,omitempty"`
	PartNumber      string `json:"part_number,omitempty"`
	Voltage         string `json:"voltage,omitempty"`
}

// EffectiveSpeed prefers the configured (running) speed over the rated
// one.
func (m MemoryModule) EffectiveSpeed() string {
	if m.ConfiguredSpeed != "" {
		return m.ConfiguredSpeed
	}
	return m.Speed
}

// Installed reports whether the slot holds a module with a parseable
// size.
func (m MemoryModule) Installed() bool {
	return SizeToGB(m.Size) > 0
}

// MemoryInventory aggregates the SMBIOS physical-array block and its
// memory-device blocks. Nil pointer fields mean the array block was
// absent or unparseable, which downstream treats as unknown, not zero.
type MemoryInventory struct {
	Modules       []MemoryModule `json:"modules"`
	SlotCount     *int           `json:"slot_count,omitempty"`
	MaxCapacityGB *float64       `json:"max_capacity_gb,omitempty"`
	ECC           string         `json:"ecc,omitempty"`
}

// CollectMemory runs `dmidecode -t memory` and parses its handle-
// delimited key/value blocks. A timeout or missing tool yields an
// empty inventory; the run continues.
func (s *Session) CollectMemory(ctx context.Context) MemoryInventory {
	out := s.Run(ctx, Command{
		Argv:      []string{"dmidecode", "-t", "memory"},
		Timeout:   20 * time.Second,
		NeedsRoot: true,
	})
	return parseMemoryTable(out.Stdout)
}

func parseMemoryTable(text string) MemoryInventory {
	var (
		inv     MemoryInventory
		current *MemoryModule
		section string
		maxVolt string
	)

	flush := func() {
		if current != nil {
			if current.Voltage == "" {
				current.Voltage = maxVolt
			}
			inv.Modules = append(inv.Modules, *current)
			current = nil
			maxVolt = ""
		}
	}

	for _, raw := range splitLines(text) {
		line := strings.TrimRight(raw, " \t")
		if line == "" || strings.HasPrefix(line, "# dmidecode") {
			continue
		}
		if strings.HasPrefix(line, "Handle ") {
			flush()
			continue
		}
		if strings.HasPrefix(line, "Physical Memory Array") {
			section = "array"
			continue
		}
		if strings.HasPrefix(line, "Memory Device") {
			section = "device"
			current = &MemoryModule{}
			continue
		}

		key, value, ok := splitKeyValue(line)
		if !ok {
			continue
		}

		switch section {
		case "array":
			switch key {
			case "Maximum Capacity":
				if gb, ok := ParseCapacityGB(value); ok {
					inv.MaxCapacityGB = &gb
				}
			case "Number Of Devices":
				if n := firstInt(value); n > 0 {
					inv.SlotCount = &n
				}
			case "Error Correction Type":
				inv.ECC = value
			}
		case "device":
			if current == nil {
				continue
			}
			switch key {
			case "Locator":
				current.Locator = value
			case "Size":
				current.Size = value
			case "Speed":
				current.Speed = value
			case "Configured Memory Speed":
				current.ConfiguredSpeed = value
			case "Part Number":
				current.PartNumber = strings.TrimSpace(value)
			case "Configured Voltage":
				current.Voltage = value
			case "Maximum Voltage":
				maxVolt = value
			}
		}
	}
	flush()

	return inv
}

func splitLines(text string) []string {
	if text == "" {
		return nil
	}
	return strings.Split(text, "\n")
}

// splitKeyValue splits a "Key: value" diagnostic line, trimming both
// sides. Lines without a colon are skipped by callers.
func splitKeyValue(line string) (key, value string, ok bool) {
	idx := strings.Index(line, ":")
	if idx < 0 {
		return "", "", false
	}
	return strings.TrimSpace(line[:idx]), strings.TrimSpace(line[idx+1:]), true
}
