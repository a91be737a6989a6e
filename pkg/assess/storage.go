package assess

import (
	"context"
	"encoding/json"
	"sort"
	"strings"
	"time"
)

// Disk mirrors one lsblk block device node. Children carry partitions;
// only top-level entries of type "disk" that are not loopback devices
// count as physical storage.
type Disk struct {
	Name       string `json:"name"`
	Model      string `json:"model,omitempty"`
	Size       string `json:"size,omitempty"`
	Type       string `json:"type,omitempty"`
	Mountpoint string `json:"mountpoint,omitempty"`
	Rota       bool   `json:"rota"`
	Tran       string `json:"tran,omitempty"`
	Children   []Disk `json:"children,omitempty"`
}

// IsNVMe classifies by reported transport, case-insensitively.
func (d Disk) IsNVMe() bool {
	return strings.EqualFold(d.Tran, "nvme")
}

// Mountpoints returns the sorted, de-duplicated mountpoints of the
// disk's partitions.
func (d Disk) Mountpoints() []string {
	seen := map[string]bool{}
	var mounts []string
	var walk func(Disk)
	walk = func(n Disk) {
		if n.Mountpoint != "" && !seen[n.Mountpoint] {
			seen[n.Mountpoint] = true
			mounts = append(mounts, n.Mountpoint)
		}
		for _, c := range n.Children {
			walk(c)
		}
	}
	for _, c := range d.Children {
		walk(c)
	}
	sort.Strings(mounts)
	return mounts
}

type lsblkOutput struct {
	BlockDevices []Disk `json:"blockdevices"`
}

// CollectStorage lists block devices via lsblk JSON output and returns
// the flattened set of whole physical disks. Partitions stay attached
// as children; loopback and other virtual devices are dropped.
func (s *Session) CollectStorage(ctx context.Context) []Disk {
	out := s.Run(ctx, Command{
		Argv:    []string{"lsblk", "-J", "-o", "NAME,MODEL,SIZE,TYPE,MOUNTPOINT,ROTA,TRAN"},
		Timeout: 15 * time.Second,
	})
	if out.Stdout == "" {
		return nil
	}

	var parsed lsblkOutput
	if err := json.Unmarshal([]byte(out.Stdout), &parsed); err != nil {
		s.logger.Warn("unparseable lsblk output", "error", err)
		return nil
	}

	var disks []Disk
	var recurse func(Disk)
	recurse = func(d Disk) {
		if d.Type == "disk" && !strings.HasPrefix(d.Name, "loop") {
			disks = append(disks, d)
		}
		for _, child := range d.Children {
			recurse(child)
		}
	}
	for _, block := range parsed.BlockDevices {
		recurse(block)
	}
	return disks
}

// CollectNVMeList returns the raw `nvme list` output when nvme-cli is
// installed, or "" otherwise. Purely informational; NVMe counting uses
// lsblk transports.
func (s *Session) CollectNVMeList(ctx context.Context) string {
	if !s.ToolPresent("nvme") {
		return ""
	}
	out := s.Run(ctx, Command{
		Argv:     []string{"nvme", "list"},
		Timeout:  15 * time.Second,
		Optional: true,
	})
	return out.Stdout
}
