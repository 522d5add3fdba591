package schedule

import (
	"context"
	"strconv"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/singleflight"
)

// SnapshotStore caches the last snapshot of an underlying store. Reads are
// served from the cache until Invalidate is called; a failed reload keeps
// serving the previous snapshot when there is one.
type SnapshotStore struct {
	src   Store
	group singleflight.Group

	mu       sync.RWMutex
	snapshot []Participant
	stale    bool
	gen      uint64
	loaded   atomic.Bool
}

func NewSnapshotStore(src Store) *SnapshotStore {
	return &SnapshotStore{src: src, stale: true}
}

func (s *SnapshotStore) Participants(ctx context.Context) ([]Participant, error) {
	s.mu.RLock()
	if !s.stale {
		out := s.snapshot
		s.mu.RUnlock()
		return cloneAll(out), nil
	}
	gen := s.gen
	s.mu.RUnlock()

	// Reloads are shared per generation, so a reader arriving after an
	// Invalidate never joins a reload that started before it.
	v, err, _ := s.group.Do(strconv.FormatUint(gen, 10), func() (any, error) {
		ps, err := s.src.Participants(ctx)
		if err != nil {
			return nil, err
		}
		s.mu.Lock()
		s.snapshot = ps
		// An Invalidate during the read leaves the snapshot stale.
		s.stale = s.gen != gen
		s.mu.Unlock()
		s.loaded.Store(true)
		return ps, nil
	})
	if err != nil {
		s.mu.RLock()
		defer s.mu.RUnlock()
		if s.snapshot != nil {
			return cloneAll(s.snapshot), nil
		}
		return nil, err
	}
	return cloneAll(v.([]Participant)), nil
}

// Invalidate marks the snapshot stale; the next read reloads it.
func (s *SnapshotStore) Invalidate() {
	s.mu.Lock()
	s.stale = true
	s.gen++
	s.mu.Unlock()
}

// Loaded reports whether a snapshot has ever been loaded.
func (s *SnapshotStore) Loaded() bool {
	return s.loaded.Load()
}
