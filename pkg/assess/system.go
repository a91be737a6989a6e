package assess

import (
	"context"
	"time"
)

// SystemIdentity holds SMBIOS identity strings. Empty fields mean the
// value could not be read (dmidecode missing or unprivileged).
type SystemIdentity struct {
	Manufacturer string `json:"manufacturer,omitempty"`
	ProductName  string `json:"product_name,omitempty"`
	BIOSVersion  string `json:"bios_version,omitempty"`
}

// CollectSystemIdentity reads manufacturer, product name, and BIOS
// version via dmidecode string queries. Each query is privileged and
// independently recoverable.
func (s *Session) CollectSystemIdentity(ctx context.Context) SystemIdentity {
	var id SystemIdentity

	queries := []struct {
		keyword string
		dest    *string
	}{
		{"system-manufacturer", &id.Manufacturer},
		{"system-product-name", &id.ProductName},
		{"bios-version", &id.BIOSVersion},
	}

	for _, q := range queries {
		out := s.Run(ctx, Command{
			Argv:      []string{"dmidecode", "-s", q.keyword},
			Timeout:   15 * time.Second,
			NeedsRoot: true,
		})
		if out.Succeeded() && out.Stdout != "" {
			*q.dest = out.Stdout
		}
	}

	return id
}

// CPUFacts maps lscpu field names to their raw values. Keys of
// interest downstream: "CPU(s)", "Socket(s)", "Core(s) per socket",
// "Architecture", "Model name", "CPU MHz", "CPU min MHz",
// "CPU max MHz", "Virtualization".
type CPUFacts map[string]string

// CollectCPU parses `lscpu` key/value output. A failed invocation
// yields an empty map; derivation substitutes zeros and "Unknown".
func (s *Session) CollectCPU(ctx context.Context) CPUFacts {
	out := s.Run(ctx, Command{
		Argv:    []string{"lscpu"},
		Timeout: 10 * time.Second,
	})

	facts := make(CPUFacts)
	for _, line := range splitLines(out.Stdout) {
		key, value, ok := splitKeyValue(line)
		if !ok {
			continue
		}
		facts[key] = value
	}
	return facts
}
