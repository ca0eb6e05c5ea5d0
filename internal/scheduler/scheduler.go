// Package scheduler drives the periodic check cycle: load state, check all
// feeds, persist the merged state, deliver the produced mails.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"feedmailer/internal/model"
	"feedmailer/internal/storage"
	"feedmailer/internal/update"
)

// Sender delivers one produced mail.
type Sender interface {
	Send(m model.Mail) error
}

// Scheduler periodically checks all configured sources.
type Scheduler struct {
	store   storage.Storage
	checker *update.Checker
	sources []model.Source
	sender  Sender
	log     *slog.Logger
	tick    time.Duration
	loc     *time.Location
}

// New creates a Scheduler.
func New(store storage.Storage, checker *update.Checker, sources []model.Source, sender Sender, log *slog.Logger) *Scheduler {
	return &Scheduler{
		store:   store,
		checker: checker,
		sources: sources,
		sender:  sender,
		log:     log,
		tick:    1 * time.Minute,
		loc:     time.UTC,
	}
}

// SetTickInterval overrides the default 1-minute cycle interval. The
// interval only controls how often eligibility is evaluated; each feed's own
// refresh policy decides whether it is actually fetched.
func (s *Scheduler) SetTickInterval(d time.Duration) {
	s.tick = d
}

// SetLocation overrides the time zone cycles run in. Wall-clock refresh
// policies (daily and weekly slots) fire at their configured time in this
// zone; the default is UTC.
func (s *Scheduler) SetLocation(loc *time.Location) {
	if loc != nil {
		s.loc = loc
	}
}

// Run starts the cycle loop, blocking until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) {
	if _, err := s.RunOnce(ctx); err != nil {
		s.log.Error("check cycle", "error", err)
	}

	ticker := time.NewTicker(s.tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.RunOnce(ctx); err != nil {
				s.log.Error("check cycle", "error", err)
			}
		}
	}
}

// RunOnce executes a single check cycle at the current time and returns the
// per-feed logs in configuration order.
func (s *Scheduler) RunOnce(ctx context.Context) ([]model.UpdateLog, error) {
	now := time.Now().In(s.loc)

	snap, err := s.store.LoadState(ctx)
	if err != nil {
		return nil, fmt.Errorf("load state: %w", err)
	}

	mails, logs := s.checker.CheckAll(ctx, now, snap, s.sources)

	if err := s.store.SaveState(ctx, snap); err != nil {
		return logs, fmt.Errorf("save state: %w", err)
	}

	for _, l := range logs {
		switch l.Result.(type) {
		case model.Uptodate:
			s.log.Debug("feed checked", "feed_id", l.FeedID, "result", l.Result.String())
		case model.Updated:
			s.log.Info("feed checked", "feed_id", l.FeedID, "result", l.Result.String())
		default:
			s.log.Warn("feed checked", "feed_id", l.FeedID, "result", l.Result.String())
		}
	}

	sent := 0
	for _, m := range mails {
		if err := s.sender.Send(m); err != nil {
			s.log.Error("send mail", "subject", m.Subject, "error", err)
			continue
		}
		sent++
	}
	if sent > 0 {
		s.log.Info("sent mails", "count", sent)
	}

	return logs, nil
}
