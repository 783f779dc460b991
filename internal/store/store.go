package store

import (
	"sync"
	"time"

	"github.com/fabricmon/telemetry/internal/model"
)

// Update describes a newly installed snapshot. Sent to subscribers on
// content change only, not on re-confirmation of existing content.
type Update struct {
	SnapshotID string
	CapturedAt time.Time
	Switches   int
}

// cached pairs a snapshot with the last instant its content was
// confirmed current by a successful poll.
type cached struct {
	snap        *model.TabularSnapshot
	confirmedAt time.Time
}

// SnapshotStore holds the current snapshot plus freshness metadata.
type SnapshotStore struct {
	mu          sync.RWMutex
	cur         *cached
	subscribers []chan<- Update
}

// New creates an empty store. Reads fail until the first Install.
func New() *SnapshotStore {
	return &SnapshotStore{}
}

// Install publishes snap as the current snapshot. If the snapshot id
// matches the one already held, content is left untouched and only the
// confirmation time advances, so freshness resets on every successful
// poll rather than only on content change.
func (s *SnapshotStore) Install(snap *model.TabularSnapshot, confirmedAt time.Time) {
	s.mu.Lock()
	changed := s.cur == nil || s.cur.snap.SnapshotID != snap.SnapshotID
	if changed {
		s.cur = &cached{snap: snap, confirmedAt: confirmedAt}
	} else {
		s.cur = &cached{snap: s.cur.snap, confirmedAt: confirmedAt}
	}
	var subs []chan<- Update
	if changed {
		subs = append(subs, s.subscribers...)
	}
	s.mu.Unlock()

	if !changed {
		return
	}
	u := Update{
		SnapshotID: snap.SnapshotID,
		CapturedAt: snap.CapturedAt,
		Switches:   len(snap.Rows),
	}
	for _, ch := range subs {
		// Non-blocking: a slow subscriber misses this update.
		select {
		case ch <- u:
		default:
		}
	}
}

// Confirm advances the confirmation time of the currently held content
// without touching it. Used for not-modified poll outcomes. Returns
// false if nothing has ever been installed.
func (s *SnapshotStore) Confirm(confirmedAt time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cur == nil {
		return false
	}
	s.cur = &cached{snap: s.cur.snap, confirmedAt: confirmedAt}
	return true
}

// Read returns the most recently installed snapshot and its age
// (time since last confirmation). ok is false until the first Install.
// Callers needing one consistent view must read once and reuse the
// result; a second Read may observe a newer snapshot.
func (s *SnapshotStore) Read() (*model.TabularSnapshot, time.Duration, bool) {
	s.mu.RLock()
	cur := s.cur
	s.mu.RUnlock()

	if cur == nil {
		return nil, 0, false
	}
	return cur.snap, time.Since(cur.confirmedAt), true
}

// Age reports how stale the visible data is. ok is false until the
// first Install.
func (s *SnapshotStore) Age() (time.Duration, bool) {
	_, age, ok := s.Read()
	return age, ok
}

// Subscribe registers ch to receive an Update for every install that
// changes content. Sends never block.
func (s *SnapshotStore) Subscribe(ch chan<- Update) {
	s.mu.Lock()
	s.subscribers = append(s.subscribers, ch)
	s.mu.Unlock()
}

// Unsubscribe removes ch from the subscriber list.
func (s *SnapshotStore) Unsubscribe(ch chan<- Update) {
	s.mu.Lock()
	for i, sub := range s.subscribers {
		if sub == ch {
			s.subscribers = append(s.subscribers[:i], s.subscribers[i+1:]...)
			break
		}
	}
	s.mu.Unlock()
}
