//go:build linux

package assess

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sys/unix"
)

type cpuStat struct{ idle, total uint64 }

func readCPUStat() (cpuStat, error) {
	file, err := os.Open("/proc/stat")
	if err != nil {
		return cpuStat{}, err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	if !scanner.Scan() {
		return cpuStat{}, scanner.Err()
	}

	line := scanner.Text()
	parts := strings.Fields(line)
	if len(parts) < 5 || parts[0] != "cpu" {
		return cpuStat{}, fmt.Errorf("unexpected /proc/stat format: %q", line)
	}

	// Sum all jiffy fields; index 3 within the value fields is idle.
	var idle, total uint64
	for i, field := range parts[1:] {
		v, err := strconv.ParseUint(field, 10, 64)
		if err != nil {
			return cpuStat{}, fmt.Errorf("parse /proc/stat field %d: %w", i+1, err)
		}
		total += v
		if i == 3 {
			idle = v
		}
	}
	return cpuStat{idle: idle, total: total}, nil
}

// collectSnapshot takes two /proc/stat samples 200ms apart for current
// CPU load, reads /proc/meminfo, and statfs's the root filesystem.
func collectSnapshot(ctx context.Context) (*UtilizationSnapshot, error) {
	snap := &UtilizationSnapshot{Timestamp: time.Now()}

	s1, err := readCPUStat()
	if err != nil {
		return nil, err
	}
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(200 * time.Millisecond):
	}
	s2, err := readCPUStat()
	if err != nil {
		return nil, err
	}
	if deltaTotal := s2.total - s1.total; deltaTotal > 0 {
		deltaIdle := s2.idle - s1.idle
		snap.CPUPercent = float64(deltaTotal-deltaIdle) / float64(deltaTotal) * 100
	}

	if err := readMemInfo(snap); err != nil {
		return nil, err
	}

	var stat unix.Statfs_t
	if err := unix.Statfs("/", &stat); err != nil {
		return nil, fmt.Errorf("statfs /: %w", err)
	}
	total := stat.Blocks * uint64(stat.Bsize)
	free := stat.Bfree * uint64(stat.Bsize)
	snap.RootFSTotalGB = float64(total) / (1 << 30)
	snap.RootFSUsedGB = float64(total-free) / (1 << 30)

	return snap, nil
}

func readMemInfo(snap *UtilizationSnapshot) error {
	file, err := os.Open("/proc/meminfo")
	if err != nil {
		return err
	}
	defer file.Close()

	var memTotal, memAvailable uint64
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		parts := strings.Fields(scanner.Text())
		if len(parts) < 2 {
			continue
		}
		value, err := strconv.ParseUint(parts[1], 10, 64)
		if err != nil {
			continue
		}
		switch parts[0] {
		case "MemTotal:":
			memTotal = value / 1024
		case "MemAvailable:":
			memAvailable = value / 1024
		}
	}
	if memTotal == 0 {
		return scanner.Err()
	}
	snap.MemTotalMB = memTotal
	snap.MemUsedMB = memTotal - memAvailable
	return nil
}
