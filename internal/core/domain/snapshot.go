package domain

import (
	"encoding/json"
	"time"
)

// AppStatus is what the presentation layer switches on.
type AppStatus string

const (
	AppStatusInitializing AppStatus = "initializing"
	AppStatusReady        AppStatus = "ready"
)

// DataSource tells readers where the visible data last came from.
type DataSource string

const (
	SourceNone   DataSource = ""
	SourceCache  DataSource = "cache"
	SourceRemote DataSource = "remote"
)

// Snapshot is an immutable view of the application state.
type Snapshot struct {
	Status    AppStatus                `json:"status"`
	Source    DataSource               `json:"source"`
	Version   uint64                   `json:"version"`
	Entities  map[EntityKind][]*Entity `json:"-"`
	Site      json.RawMessage          `json:"site,omitempty"`
	UpdatedAt time.Time                `json:"updated_at"`
}

// Count returns how many entities of a kind are visible, archived included.
func (s Snapshot) Count(kind EntityKind) int {
	return len(s.Entities[kind])
}

// Counts returns the per-kind entity counts.
func (s Snapshot) Counts() map[EntityKind]int {
	counts := make(map[EntityKind]int, len(s.Entities))
	for kind, list := range s.Entities {
		counts[kind] = len(list)
	}
	return counts
}

// Active returns the entities of a kind with archived records filtered out.
func (s Snapshot) Active(kind EntityKind) []*Entity {
	all := s.Entities[kind]
	active := make([]*Entity, 0, len(all))
	for _, e := range all {
		if !e.Archived() {
			active = append(active, e)
		}
	}
	return active
}

// Find looks up a single entity by id.
func (s Snapshot) Find(kind EntityKind, id int64) (*Entity, bool) {
	for _, e := range s.Entities[kind] {
		if e.ID == id {
			return e, true
		}
	}
	return nil, false
}
