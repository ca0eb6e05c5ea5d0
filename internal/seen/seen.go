// Package seen implements the per-feed dedup set with time-bounded forgetting.
package seen

import "time"

// GracePeriod is how long an entry id stays remembered after it last appeared
// in the feed, in seconds.
const GracePeriod = int64(31 * 24 * time.Hour / time.Second)

// Set maps entry ids to the Unix time at which they may be forgotten.
// An id present in the set has been seen at least once; absence does not
// imply the entry is new on a feed's first-ever check.
//
// All operations return a new set and leave the receiver untouched, so a
// snapshot taken at cycle start stays valid while checks run concurrently.
type Set map[string]int64

// Empty returns the zero-entry set used on a feed's first check.
func Empty() Set {
	return Set{}
}

// IsSeen reports whether id is in the set, regardless of its expiry.
func (s Set) IsSeen(id string) bool {
	_, ok := s[id]
	return ok
}

// Refresh sets the expiry of every id in ids. Ids not listed keep their
// existing expiry, so entries that vanished from the feed keep ticking
// toward eviction instead of being kept alive forever.
func (s Set) Refresh(ids []string, expiry int64) Set {
	out := make(Set, len(s)+len(ids))
	for id, exp := range s {
		out[id] = exp
	}
	for _, id := range ids {
		out[id] = expiry
	}
	return out
}

// EvictExpired removes every id whose expiry is at or before now.
func (s Set) EvictExpired(now int64) Set {
	out := make(Set, len(s))
	for id, exp := range s {
		if exp > now {
			out[id] = exp
		}
	}
	return out
}
