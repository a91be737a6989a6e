package assess

import (
	"context"
	"time"
)

// UtilizationSnapshot is a one-shot live reading taken alongside the
// hardware inventory. It is informational only; no heuristic consumes
// it.
type UtilizationSnapshot struct {
	CPUPercent    float64   `json:"cpu_percent"`
	MemUsedMB     uint64    `json:"mem_used_mb"`
	MemTotalMB    uint64    `json:"mem_total_mb"`
	RootFSUsedGB  float64   `json:"rootfs_used_gb"`
	RootFSTotalGB float64   `json:"rootfs_total_gb"`
	Timestamp     time.Time `json:"timestamp"`
}

// CollectSnapshot returns the live utilization snapshot, or nil when
// the platform readings are unavailable. Failures never abort a run.
func (s *Session) CollectSnapshot(ctx context.Context) *UtilizationSnapshot {
	snap, err := collectSnapshot(ctx)
	if err != nil {
		s.logger.Info("utilization snapshot unavailable", "error", err)
		return nil
	}
	return snap
}
