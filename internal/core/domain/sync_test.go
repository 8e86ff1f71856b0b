package domain

import (
	"encoding/json"
	"testing"
	"time"
)

func TestSyncStatusConstants(t *testing.T) {
	if SyncStatusIdle != "idle" {
		t.Errorf("expected SyncStatusIdle = 'idle', got %s", SyncStatusIdle)
	}
	if SyncStatusRunning != "running" {
		t.Errorf("expected SyncStatusRunning = 'running', got %s", SyncStatusRunning)
	}
	if SyncStatusCompleted != "completed" {
		t.Errorf("expected SyncStatusCompleted = 'completed', got %s", SyncStatusCompleted)
	}
	if SyncStatusFailed != "failed" {
		t.Errorf("expected SyncStatusFailed = 'failed', got %s", SyncStatusFailed)
	}
}

func TestSyncPhaseConstants(t *testing.T) {
	phases := map[SyncPhase]string{
		PhaseUninitialized:     "uninitialized",
		PhaseLoadingLocal:      "loading_local",
		PhaseReady:             "ready",
		PhaseBackgroundSyncing: "background_syncing",
		PhaseSynced:            "synced",
	}
	for phase, want := range phases {
		if string(phase) != want {
			t.Errorf("expected %s, got %s", want, phase)
		}
	}
}

func TestNewSyncState(t *testing.T) {
	state := NewSyncState(KindService)

	if state.Kind != KindService {
		t.Errorf("expected kind service, got %s", state.Kind)
	}
	if state.Status != SyncStatusIdle {
		t.Errorf("expected idle, got %s", state.Status)
	}
	if state.Cursor != 0 {
		t.Errorf("expected zero cursor, got %d", state.Cursor)
	}
}

func TestSyncState_JSON(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	state := &SyncState{
		Kind:       KindProvider,
		Status:     SyncStatusCompleted,
		Cursor:     1700000000000,
		LastSyncAt: &now,
		Stats:      SyncStats{Fetched: 3, Added: 2, Updated: 1, Attempts: 1},
	}

	data, err := json.Marshal(state)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var decoded SyncState
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if decoded.Cursor != state.Cursor {
		t.Errorf("expected cursor %d, got %d", state.Cursor, decoded.Cursor)
	}
	if decoded.Stats != state.Stats {
		t.Errorf("expected stats %+v, got %+v", state.Stats, decoded.Stats)
	}
	if decoded.StartedAt != nil {
		t.Error("expected nil StartedAt")
	}
}
