// Package mail turns new feed entries into outbound notification messages.
package mail

import (
	"fmt"
	"net/url"
	"time"

	"feedmailer/internal/model"
)

// Renderer produces the HTML and text bodies of a mail. Pure: no network or
// state access.
type Renderer interface {
	Render(feed model.Feed, entries []model.Entry, sender, label string) (html, text string)
}

// Prepare batches the new entries of one check cycle into mails, choosing the
// policy from the descriptor shape: Bundle descriptors get at most one mail,
// everything else one mail per entry (collapsing into a bundle when the count
// exceeds Options.MaxEntries).
func Prepare(now time.Time, desc model.Descriptor, opts model.Options, feed model.Feed, entries []model.Entry, r Renderer) []model.Mail {
	if desc.Bundle {
		return PrepareBundle(now, desc, opts, feed, entries, r)
	}
	return PrepareMails(now, desc, opts, feed, entries, r)
}

// PrepareMails produces one mail per entry. When the entry count exceeds
// Options.MaxEntries the whole cycle falls back to a single bundle instead.
func PrepareMails(now time.Time, desc model.Descriptor, opts model.Options, feed model.Feed, entries []model.Entry, r Renderer) []model.Mail {
	if opts.MaxEntries > 0 && len(entries) > opts.MaxEntries {
		return PrepareBundle(now, desc, opts, feed, entries, r)
	}

	sender := Sender(opts, feed, desc.URL)
	mails := make([]model.Mail, 0, len(entries))
	for _, entry := range entries {
		subject := entry.Title
		if subject == "" {
			subject = "New entry from " + sender
		}
		html, text := r.Render(feed, []model.Entry{entry}, sender, opts.Label)
		mails = append(mails, model.Mail{
			Sender:   sender,
			To:       opts.To,
			Subject:  subject,
			BodyHTML: html,
			BodyText: text,
			Date:     now,
		})
	}
	return mails
}

// PrepareBundle produces at most one mail covering all new entries of the
// cycle. Zero entries produce zero mails; a single entry reuses its own
// title as the subject.
func PrepareBundle(now time.Time, desc model.Descriptor, opts model.Options, feed model.Feed, entries []model.Entry, r Renderer) []model.Mail {
	if len(entries) == 0 {
		return nil
	}

	sender := Sender(opts, feed, desc.URL)
	subject := fmt.Sprintf("%d entries from %s", len(entries), sender)
	if len(entries) == 1 {
		subject = entries[0].Title
	}

	html, text := r.Render(feed, entries, sender, opts.Label)
	return []model.Mail{{
		Sender:   sender,
		To:       opts.To,
		Subject:  subject,
		BodyHTML: html,
		BodyText: text,
		Date:     now,
	}}
}

// Sender resolves the display name for a feed's mail: the configured title
// override, else the feed's own title, else the URL's host, else the URL.
func Sender(opts model.Options, feed model.Feed, rawURL string) string {
	if opts.Title != "" {
		return opts.Title
	}
	if feed.Title != "" {
		return feed.Title
	}
	if u, err := url.Parse(rawURL); err == nil && u.Host != "" {
		return u.Host
	}
	return rawURL
}
