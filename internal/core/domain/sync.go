package domain

import "time"

// SyncPhase is the coordinator's position in the boot/sync state machine.
type SyncPhase string

const (
	PhaseUninitialized     SyncPhase = "uninitialized"
	PhaseLoadingLocal      SyncPhase = "loading_local"
	PhaseReady             SyncPhase = "ready"
	PhaseBackgroundSyncing SyncPhase = "background_syncing"
	PhaseSynced            SyncPhase = "synced"
)

// SyncStatus represents the current state of a sync operation
type SyncStatus string

const (
	SyncStatusIdle      SyncStatus = "idle"
	SyncStatusRunning   SyncStatus = "running"
	SyncStatusCompleted SyncStatus = "completed"
	SyncStatusFailed    SyncStatus = "failed"
)

// SyncState tracks the sync state for an entity kind
type SyncState struct {
	Kind        EntityKind `json:"kind"`
	Status      SyncStatus `json:"status"`
	Cursor      Timestamp  `json:"cursor"` // Lower bound for the next incremental fetch
	LastSyncAt  *time.Time `json:"last_sync_at,omitempty"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	Stats       SyncStats  `json:"stats"`
	Error       string     `json:"error,omitempty"`
}

// NewSyncState returns the idle state of a kind that has never synced.
func NewSyncState(kind EntityKind) *SyncState {
	return &SyncState{Kind: kind, Status: SyncStatusIdle}
}

// SyncStats holds statistics for a sync operation
type SyncStats struct {
	Fetched   int `json:"fetched"`
	Added     int `json:"added"`
	Updated   int `json:"updated"`
	Unchanged int `json:"unchanged"`
	Attempts  int `json:"attempts"`
}

// SyncResult represents the outcome of a sync cycle for one kind
type SyncResult struct {
	RunID    string     `json:"run_id"`
	Kind     EntityKind `json:"kind"`
	Success  bool       `json:"success"`
	Degraded bool       `json:"degraded"` // Cached data stays visible after a failed cycle
	Since    Timestamp  `json:"since"`
	Cursor   Timestamp  `json:"cursor"`
	Stats    SyncStats  `json:"stats"`
	Error    string     `json:"error,omitempty"`
	Duration float64    `json:"duration_seconds"`
}
