// Package process applies filter, dedup and content policy to a freshly
// parsed feed, producing the list of genuinely new entries and the updated
// seen set.
package process

import (
	"feedmailer/internal/model"
	"feedmailer/internal/seen"
)

// Result is the outcome of processing one parsed feed.
type Result struct {
	Feed model.Feed    // input feed, content-stripped per the options
	Seen seen.Set      // updated dedup set
	New  []model.Entry // entries not previously seen, in feed order
}

// Run scans the feed once. Entries rejected by the filter, or lacking any
// usable identity, are treated as if never fetched: they contribute neither
// to the new-entry list nor to the dedup refresh. Accepted ids get their
// forgetting clock pushed to now + grace period; ids whose clock has elapsed
// are then evicted.
func Run(now int64, baseURL string, opts model.Options, prev seen.Set, feed model.Feed) Result {
	out := model.Feed{
		Title: feed.Title,
		Link:  feed.Link,
		Icon:  feed.Icon,
	}

	var accepted []string
	var fresh []model.Entry

	for _, entry := range feed.Entries {
		entry = normalize(baseURL, entry)
		if entry.ID == "" {
			continue
		}
		if opts.Filter != nil && !opts.Filter.MatchEntry(entry.Title, entry.Summary, entry.Content) {
			continue
		}
		if opts.Content == model.ContentRemove {
			entry.Summary = ""
			entry.Content = ""
		}

		accepted = append(accepted, entry.ID)
		out.Entries = append(out.Entries, entry)
		if !prev.IsSeen(entry.ID) {
			fresh = append(fresh, entry)
		}
	}

	updated := prev.Refresh(accepted, now+seen.GracePeriod).EvictExpired(now)

	return Result{Feed: out, Seen: updated, New: fresh}
}

// normalize fills in a synthesized identity and title for entries the source
// left underspecified, so dedup has a key and mail rendering never sees an
// empty subject. Entries with neither id, link nor title stay id-less and
// are dropped by the caller.
func normalize(baseURL string, e model.Entry) model.Entry {
	if e.ID == "" {
		switch {
		case e.Link != "":
			e.ID = baseURL + e.Link
		case e.Title != "":
			e.ID = baseURL + e.Title
		}
	}
	if e.Title == "" {
		if e.Link != "" {
			e.Title = e.Link
		} else {
			e.Title = baseURL
		}
	}
	return e
}
