// Package model defines the domain types used across the application.
package model

import (
	"crypto/sha256"
	"fmt"
	"time"
)

// FeedID is the stable identifier of a configured source, derived from its
// URL. It keys all persisted state for that source.
type FeedID string

// NewFeedID derives the identifier for a source URL.
func NewFeedID(url string) FeedID {
	h := sha256.Sum256([]byte(url))
	return FeedID(fmt.Sprintf("%x", h[:16]))
}

// ScrapeRule describes how to extract entries from a plain HTML page.
// Selectors are CSS; Entry selects one node per entry, the others are
// evaluated relative to it. Link must select an element carrying an href.
type ScrapeRule struct {
	Entry   string
	Title   string
	Link    string
	Content string
}

// Descriptor identifies a content source. A nil Scrape means the URL serves
// a regular RSS/Atom feed. Bundle only changes batching, never fetching.
type Descriptor struct {
	URL    string
	Scrape *ScrapeRule
	Bundle bool
}

// ContentPolicy controls whether entry bodies are kept in outgoing mail.
type ContentPolicy string

// Supported content policies.
const (
	ContentKeep   ContentPolicy = "keep"
	ContentRemove ContentPolicy = "remove"
)

// Refresh is a next-check policy, one of Every, At or AtWeekly.
type Refresh interface {
	isRefresh()
}

// Every schedules the next check a fixed number of hours after the current one.
type Every struct {
	Hours float64
}

// At schedules checks at a fixed wall-clock time, daily.
type At struct {
	Hour   int
	Minute int
}

// AtWeekly schedules checks at a fixed weekday and wall-clock time, weekly.
type AtWeekly struct {
	Day    time.Weekday
	Hour   int
	Minute int
}

func (Every) isRefresh()    {}
func (At) isRefresh()       {}
func (AtWeekly) isRefresh() {}

// DefaultRefresh applies to feeds configured without a refresh policy.
var DefaultRefresh Refresh = Every{Hours: 6}

// Matcher accepts or rejects an entry. A nil Matcher accepts everything.
// The filter package provides the expression-tree implementation.
type Matcher interface {
	MatchEntry(title, summary, content string) bool
}

// Options is the per-feed configuration, immutable during a check cycle.
type Options struct {
	Refresh    Refresh
	Filter     Matcher
	Content    ContentPolicy
	MaxEntries int // per-entry mails above this count collapse into a bundle; 0 = no limit
	Label      string
	Title      string
	To         string
}

// Source is one configured feed: identity, descriptor and options.
type Source struct {
	ID   FeedID
	Desc Descriptor
	Opts Options
}

// Entry is a single item of a parsed feed.
type Entry struct {
	ID      string
	Title   string
	Link    string
	Author  string
	Summary string
	Content string
	Date    time.Time // zero when the source gave none
}

// Feed is the parsed representation of a source: header plus ordered entries.
type Feed struct {
	Title   string
	Link    string
	Icon    string
	Entries []Entry
}

// Mail is one outbound notification message. Pure value, never mutated
// after creation.
type Mail struct {
	Sender   string
	To       string // empty means the configured default recipient
	Subject  string
	BodyHTML string
	BodyText string
	Date     time.Time
}

// UpdateLog records the outcome of checking one feed.
type UpdateLog struct {
	FeedID FeedID
	Result UpdateResult
}

// UpdateResult is one of Updated, FetchError, ParsingError or Uptodate.
type UpdateResult interface {
	isUpdateResult()
	String() string
}

// Updated reports a successful check and how many entries were new.
type Updated struct {
	Entries int
}

// FetchError reports a transport-level failure. Code is the HTTP status when
// one was received, 0 otherwise.
type FetchError struct {
	Code int
}

// ParsingError reports malformed source content. Pos is best-effort.
type ParsingError struct {
	Pos     string
	Message string
}

// Uptodate reports that the feed was not yet due for a check.
type Uptodate struct{}

func (Updated) isUpdateResult()      {}
func (FetchError) isUpdateResult()   {}
func (ParsingError) isUpdateResult() {}
func (Uptodate) isUpdateResult()     {}

func (u Updated) String() string { return fmt.Sprintf("%d new entries", u.Entries) }

func (e FetchError) String() string {
	if e.Code != 0 {
		return fmt.Sprintf("fetch failed with status %d", e.Code)
	}
	return "fetch failed"
}

func (e ParsingError) String() string {
	if e.Pos != "" {
		return fmt.Sprintf("parse error at %s: %s", e.Pos, e.Message)
	}
	return "parse error: " + e.Message
}

func (Uptodate) String() string { return "up to date" }
