package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"feedmailer/internal/config"
	"feedmailer/internal/fetcher"
	"feedmailer/internal/mail"
	"feedmailer/internal/mailer"
	"feedmailer/internal/model"
	"feedmailer/internal/scheduler"
	"feedmailer/internal/storage"
	"feedmailer/internal/update"
)

func main() {
	once := flag.Bool("once", false, "run a single check cycle and exit")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}

	log := newLogger(cfg.LogLevel)

	sources, err := config.LoadFeeds(cfg.FeedsPath)
	if err != nil {
		log.Error("load feeds", "path", cfg.FeedsPath, "error", err)
		os.Exit(1)
	}
	if len(sources) == 0 {
		log.Error("no feeds configured", "path", cfg.FeedsPath)
		os.Exit(1)
	}

	if dir := filepath.Dir(cfg.DatabasePath); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			log.Error("create data directory", "path", dir, "error", err)
			os.Exit(1)
		}
	}

	store, err := storage.NewSQLite(cfg.DatabasePath)
	if err != nil {
		log.Error("open database", "path", cfg.DatabasePath, "error", err)
		os.Exit(1)
	}
	defer func() { _ = store.Close() }()

	var sender scheduler.Sender
	if cfg.SMTPHost != "" {
		sender = mailer.NewSMTP(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword, cfg.MailFrom, cfg.MailTo)
	} else {
		sender = logSender{log: log}
	}

	loc, err := cfg.Location()
	if err != nil {
		log.Error("load timezone", "timezone", cfg.Timezone, "error", err)
		os.Exit(1)
	}

	checker := update.New(fetcher.New(http.DefaultClient), mail.DefaultRenderer{}, log)
	sched := scheduler.New(store, checker, sources, sender, log)
	sched.SetTickInterval(cfg.Tick)
	sched.SetLocation(loc)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if *once {
		if _, err := sched.RunOnce(ctx); err != nil {
			log.Error("check cycle", "error", err)
			os.Exit(1)
		}
		return
	}

	log.Info("starting feedmailer", "feeds", len(sources))

	if cfg.Listen != "" {
		go serveTrigger(ctx, cfg.Listen, sched, log)
	}

	sched.Run(ctx)

	log.Info("feedmailer stopped")
}

// logSender stands in for SMTP delivery when no server is configured; mails
// are only reported, which makes one-shot dry runs possible.
type logSender struct {
	log *slog.Logger
}

func (s logSender) Send(m model.Mail) error {
	s.log.Info("mail produced (no SMTP configured)", "sender", m.Sender, "subject", m.Subject)
	return nil
}

// serveTrigger exposes POST /check so an external caller can force a cycle
// between ticks.
func serveTrigger(ctx context.Context, addr string, sched *scheduler.Scheduler, log *slog.Logger) {
	mux := http.NewServeMux()
	mux.HandleFunc("/check", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		logs, err := sched.RunOnce(r.Context())
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		for _, l := range logs {
			fmt.Fprintf(w, "%s: %s\n", l.FeedID, l.Result.String())
		}
	})

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Info("trigger endpoint listening", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error("trigger endpoint", "error", err)
	}
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}
