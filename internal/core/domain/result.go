package domain

import (
	"fmt"
	"time"
)

// MaxErrorMessages caps the error strings kept per cycle.
const MaxErrorMessages = 5

// SyncResult aggregates push outcomes of one cycle.
type SyncResult struct {
	RemoteUpdates int      `json:"remote_updates"`
	LocalUpdates  int      `json:"local_updates"`
	Unchanged     int      `json:"unchanged"`
	Errors        int      `json:"errors"`
	ErrorMessages []string `json:"error_messages,omitempty"`
}

// AddError counts a failure and keeps its message while under the cap.
func (r *SyncResult) AddError(msg string) {
	r.Errors++
	if len(r.ErrorMessages) < MaxErrorMessages {
		r.ErrorMessages = append(r.ErrorMessages, msg)
	}
}

func (r *SyncResult) Merge(other SyncResult) {
	r.RemoteUpdates += other.RemoteUpdates
	r.LocalUpdates += other.LocalUpdates
	r.Unchanged += other.Unchanged
	r.Errors += other.Errors
	for _, msg := range other.ErrorMessages {
		if len(r.ErrorMessages) >= MaxErrorMessages {
			break
		}
		r.ErrorMessages = append(r.ErrorMessages, msg)
	}
}

func (r SyncResult) Summary() string {
	return fmt.Sprintf("%d remote updates, %d local updates, %d unchanged, %d errors",
		r.RemoteUpdates, r.LocalUpdates, r.Unchanged, r.Errors)
}

// SyncStatistics is the last completed cycle as kept by the orchestrator.
type SyncStatistics struct {
	RunID             string        `json:"run_id,omitempty"`
	LastSync          time.Time     `json:"last_sync"`
	Duration          time.Duration `json:"duration"`
	RecordsProcessed  int           `json:"records_processed"`
	ConflictsDetected int           `json:"conflicts_detected"`
	RemoteUpdates     int           `json:"remote_updates"`
	LocalUpdates      int           `json:"local_updates"`
	Errors            int           `json:"errors"`
	ErrorMessages     []string      `json:"error_messages,omitempty"`
}

type RunStatus string

const (
	RunSuccess RunStatus = "success"
	RunSkipped RunStatus = "skipped"
	RunTimeout RunStatus = "timeout"
	RunError   RunStatus = "error"
)

// RunReport is what RunSync hands back to its caller.
type RunReport struct {
	Status            RunStatus   `json:"status"`
	RunID             string      `json:"run_id,omitempty"`
	DurationSeconds   float64     `json:"duration_seconds"`
	RecordsProcessed  int         `json:"records_processed,omitempty"`
	ConflictsDetected int         `json:"conflicts_detected,omitempty"`
	Result            *SyncResult `json:"sync_results,omitempty"`
	Error             string      `json:"error,omitempty"`
}

// Status is the orchestrator state exposed to operators.
type Status struct {
	IsSyncing        bool           `json:"is_syncing"`
	LastSync         *time.Time     `json:"last_sync"`
	Direction        Direction      `json:"sync_direction"`
	Resolution       Resolution     `json:"conflict_resolution"`
	Stats            SyncStatistics `json:"stats"`
	PendingConflicts int            `json:"pending_conflicts_count"`
}
