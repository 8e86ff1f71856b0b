package services

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/custodia-labs/signpost-sync/internal/core/domain"
)

// StateObserver is called with the new snapshot after every change.
type StateObserver func(domain.Snapshot)

// AppState is the single projection the presentation layer reads.
// Only the SyncCoordinator writes to it; readers get copies.
type AppState struct {
	notifyMu  sync.Mutex // serializes change+notify so observers see versions in order
	mu        sync.RWMutex
	snapshot  domain.Snapshot
	observers []observerEntry
	nextID    int
	readyCh   chan struct{}
}

type observerEntry struct {
	id int
	fn StateObserver
}

// NewAppState creates an empty state in the initializing status.
func NewAppState() *AppState {
	return &AppState{
		snapshot: domain.Snapshot{
			Status:   domain.AppStatusInitializing,
			Entities: make(map[domain.EntityKind][]*domain.Entity),
		},
		readyCh: make(chan struct{}),
	}
}

// Status returns the current application status.
func (s *AppState) Status() domain.AppStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot.Status
}

// Snapshot returns a copy of the current state that is safe to hold.
// Entity pointers are shared; publication replaces slices instead of mutating them.
func (s *AppState) Snapshot() domain.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.copyLocked()
}

func (s *AppState) copyLocked() domain.Snapshot {
	snap := s.snapshot
	snap.Entities = make(map[domain.EntityKind][]*domain.Entity, len(s.snapshot.Entities))
	for kind, list := range s.snapshot.Entities {
		snap.Entities[kind] = list
	}
	return snap
}

// Subscribe registers an observer. Observers run synchronously in
// subscription order. The returned func removes the observer.
func (s *AppState) Subscribe(fn StateObserver) (unsubscribe func()) {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.observers = append(s.observers, observerEntry{id: id, fn: fn})
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			for i, o := range s.observers {
				if o.id == id {
					s.observers = append(s.observers[:i:i], s.observers[i+1:]...)
					return
				}
			}
		})
	}
}

// WaitReady blocks until the status becomes ready or ctx is done.
func (s *AppState) WaitReady(ctx context.Context) error {
	select {
	case <-s.readyCh:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// publish replaces the entity list of a kind, marks the state ready and
// records where the data came from.
func (s *AppState) publish(kind domain.EntityKind, entities []*domain.Entity, source domain.DataSource) {
	s.update(func(snap *domain.Snapshot) bool {
		snap.Entities[kind] = entities
		snap.Source = source
		snap.Status = domain.AppStatusReady
		return true
	})
}

// load installs cached lists for several kinds at once.
func (s *AppState) load(entities map[domain.EntityKind][]*domain.Entity, source domain.DataSource) {
	s.update(func(snap *domain.Snapshot) bool {
		for kind, list := range entities {
			snap.Entities[kind] = list
		}
		snap.Source = source
		return true
	})
}

// setStatus changes the status; an unchanged status is not a change.
func (s *AppState) setStatus(status domain.AppStatus) {
	s.update(func(snap *domain.Snapshot) bool {
		if snap.Status == status {
			return false
		}
		snap.Status = status
		return true
	})
}

// setSite replaces the site document when its content differs.
func (s *AppState) setSite(site json.RawMessage) {
	s.update(func(snap *domain.Snapshot) bool {
		if string(snap.Site) == string(site) {
			return false
		}
		snap.Site = site
		return true
	})
}

// update applies fn under the lock and notifies observers afterwards.
func (s *AppState) update(fn func(snap *domain.Snapshot) bool) {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()

	s.mu.Lock()
	if !fn(&s.snapshot) {
		s.mu.Unlock()
		return
	}
	s.snapshot.Version++
	s.snapshot.UpdatedAt = time.Now()
	if s.snapshot.Status == domain.AppStatusReady {
		select {
		case <-s.readyCh:
		default:
			close(s.readyCh)
		}
	}
	snap := s.copyLocked()
	observers := make([]StateObserver, len(s.observers))
	for i, o := range s.observers {
		observers[i] = o.fn
	}
	s.mu.Unlock()

	for _, fn := range observers {
		fn(snap)
	}
}
