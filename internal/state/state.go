// Package state holds the per-feed persistent state as an in-memory
// snapshot. The snapshot is read-only during the concurrent phase of a check
// cycle; all mutation happens through Transform functions applied
// sequentially after the fan-out join, so the store itself needs no locks.
package state

import (
	"sort"

	"feedmailer/internal/model"
	"feedmailer/internal/seen"
)

// Transform is a pure state mutation produced by checking one feed and
// applied later by the sequential merge step. A nil Transform is a no-op.
type Transform func(*State)

type feedState struct {
	nextUpdate   int64
	hasNext      bool
	previous     seen.Set
	hasPrevious  bool
	pageContents string
	hasPage      bool
}

// State maps feed ids to their typed state entries: NextUpdate,
// PreviousEntries and PageContents, each with its own accessor pair.
type State struct {
	feeds map[model.FeedID]*feedState
	dirty map[model.FeedID]struct{}
}

// New returns an empty state snapshot.
func New() *State {
	return &State{
		feeds: make(map[model.FeedID]*feedState),
		dirty: make(map[model.FeedID]struct{}),
	}
}

func (s *State) get(id model.FeedID) *feedState {
	fs, ok := s.feeds[id]
	if !ok {
		fs = &feedState{}
		s.feeds[id] = fs
	}
	return fs
}

// NextUpdate returns the feed's scheduled next check time, if one is stored.
func (s *State) NextUpdate(id model.FeedID) (int64, bool) {
	fs, ok := s.feeds[id]
	if !ok {
		return 0, false
	}
	return fs.nextUpdate, fs.hasNext
}

// SetNextUpdate stores the feed's next check time.
func (s *State) SetNextUpdate(id model.FeedID, t int64) {
	fs := s.get(id)
	fs.nextUpdate = t
	fs.hasNext = true
	s.dirty[id] = struct{}{}
}

// PreviousEntries returns the feed's seen set. The second result is false on
// a feed's first-ever check, which is what triggers first-update suppression.
func (s *State) PreviousEntries(id model.FeedID) (seen.Set, bool) {
	fs, ok := s.feeds[id]
	if !ok || !fs.hasPrevious {
		return nil, false
	}
	return fs.previous, true
}

// SetPreviousEntries stores the feed's seen set.
func (s *State) SetPreviousEntries(id model.FeedID, set seen.Set) {
	fs := s.get(id)
	fs.previous = set
	fs.hasPrevious = true
	s.dirty[id] = struct{}{}
}

// PageContents returns the feed's stored raw content, if any. Reserved for
// raw-content diffing; no processor writes it today.
func (s *State) PageContents(id model.FeedID) (string, bool) {
	fs, ok := s.feeds[id]
	if !ok || !fs.hasPage {
		return "", false
	}
	return fs.pageContents, true
}

// SetPageContents stores the feed's raw content.
func (s *State) SetPageContents(id model.FeedID, contents string) {
	fs := s.get(id)
	fs.pageContents = contents
	fs.hasPage = true
	s.dirty[id] = struct{}{}
}

// Apply runs the transforms in order. Nil entries are skipped.
func (s *State) Apply(transforms ...Transform) {
	for _, t := range transforms {
		if t != nil {
			t(s)
		}
	}
}

// Dirty lists the feeds written since the snapshot was loaded (or since
// ClearDirty), sorted for deterministic persistence.
func (s *State) Dirty() []model.FeedID {
	ids := make([]model.FeedID, 0, len(s.dirty))
	for id := range s.dirty {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// ClearDirty marks the snapshot clean, typically right after loading it or
// after persisting the dirty feeds.
func (s *State) ClearDirty() {
	s.dirty = make(map[model.FeedID]struct{})
}
