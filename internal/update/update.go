// Package update drives feeds through fetch, parse, process, batch and
// schedule. CheckFeed handles a single feed and returns a pure state
// transform; CheckAll fans CheckFeed out over all feeds concurrently and
// then applies the transforms sequentially in input order, which keeps the
// run deterministic and race-free despite full fetch concurrency.
package update

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/samber/lo"

	"feedmailer/internal/fetcher"
	"feedmailer/internal/mail"
	"feedmailer/internal/model"
	"feedmailer/internal/process"
	"feedmailer/internal/refresh"
	"feedmailer/internal/scraper"
	"feedmailer/internal/seen"
	"feedmailer/internal/state"
)

// Fetcher retrieves the raw content of a source URL. The only suspension
// point of a feed's pipeline.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// Outcome is the result of checking one feed: a state transform to be
// applied by the sequential merge, the mails produced, and a log entry.
type Outcome struct {
	Transform state.Transform
	Mails     []model.Mail
	Log       model.UpdateLog
}

// Checker runs check cycles over configured sources.
type Checker struct {
	fetcher Fetcher
	render  mail.Renderer
	log     *slog.Logger
}

// New creates a Checker.
func New(f Fetcher, r mail.Renderer, log *slog.Logger) *Checker {
	return &Checker{fetcher: f, render: r, log: log}
}

// CheckFeed runs one feed through a full check. It only reads the snapshot,
// never writes it: all state effects are deferred into the returned
// transform.
func (c *Checker) CheckFeed(ctx context.Context, now time.Time, snap *state.State, src model.Source) Outcome {
	if next, ok := snap.NextUpdate(src.ID); ok && next >= now.Unix() {
		return Outcome{Log: model.UpdateLog{FeedID: src.ID, Result: model.Uptodate{}}}
	}

	// computed up front and written unconditionally, so a broken feed is
	// retried on its normal cadence rather than every cycle
	nextUpdate := refresh.Next(now, src.Opts.Refresh).Unix()
	scheduleOnly := state.Transform(func(st *state.State) {
		st.SetNextUpdate(src.ID, nextUpdate)
	})

	data, err := c.fetcher.Fetch(ctx, src.Desc.URL)
	if err != nil {
		c.log.Error("fetch feed", "feed_id", src.ID, "url", src.Desc.URL, "error", err)
		code := 0
		var se *fetcher.StatusError
		if errors.As(err, &se) {
			code = se.Code
		}
		return Outcome{
			Transform: scheduleOnly,
			Log:       model.UpdateLog{FeedID: src.ID, Result: model.FetchError{Code: code}},
		}
	}

	var feed model.Feed
	if src.Desc.Scrape != nil {
		feed = scraper.Scrape(src.Desc.URL, *src.Desc.Scrape, data)
	} else {
		feed, err = fetcher.Parse(src.Desc.URL, data)
		if err != nil {
			c.log.Error("parse feed", "feed_id", src.ID, "url", src.Desc.URL, "error", err)
			result := model.ParsingError{Message: err.Error()}
			var pe *fetcher.ParseError
			if errors.As(err, &pe) {
				result = model.ParsingError{Pos: pe.Pos, Message: pe.Msg}
			}
			return Outcome{
				Transform: scheduleOnly,
				Log:       model.UpdateLog{FeedID: src.ID, Result: result},
			}
		}
	}

	prev, hadPrevious := snap.PreviousEntries(src.ID)
	if !hadPrevious {
		prev = seen.Empty()
	}

	res := process.Run(now.Unix(), src.Desc.URL, src.Opts, prev, feed)

	// first-ever check only initializes the seen set; mailing every
	// pre-existing entry would flood the recipient
	var mails []model.Mail
	if hadPrevious {
		mails = mail.Prepare(now, src.Desc, src.Opts, res.Feed, res.New, c.render)
	}

	updatedSeen := res.Seen
	return Outcome{
		Transform: func(st *state.State) {
			st.SetPreviousEntries(src.ID, updatedSeen)
			st.SetNextUpdate(src.ID, nextUpdate)
		},
		Mails: mails,
		Log:   model.UpdateLog{FeedID: src.ID, Result: model.Updated{Entries: len(res.New)}},
	}
}

// CheckAll checks every source concurrently against the snapshot taken at
// cycle start, then folds the resulting transforms into snap sequentially in
// input order. Logs come back in input order regardless of completion order;
// mails are concatenated in the same order.
func (c *Checker) CheckAll(ctx context.Context, now time.Time, snap *state.State, srcs []model.Source) ([]model.Mail, []model.UpdateLog) {
	outcomes := make([]Outcome, len(srcs))

	var wg sync.WaitGroup
	for i, src := range srcs {
		wg.Add(1)
		go func(i int, src model.Source) {
			defer wg.Done()
			outcomes[i] = c.CheckFeed(ctx, now, snap, src)
		}(i, src)
	}
	wg.Wait()

	for _, o := range outcomes {
		snap.Apply(o.Transform)
	}

	mails := lo.FlatMap(outcomes, func(o Outcome, _ int) []model.Mail { return o.Mails })
	logs := lo.Map(outcomes, func(o Outcome, _ int) model.UpdateLog { return o.Log })
	return mails, logs
}
