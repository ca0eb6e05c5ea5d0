package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"feedmailer/internal/filter"
	"feedmailer/internal/model"
)

type feedsFile struct {
	Feeds []feedSpec `yaml:"feeds"`
}

type feedSpec struct {
	URL        string       `yaml:"url"`
	Scrape     *scrapeSpec  `yaml:"scrape"`
	Bundle     bool         `yaml:"bundle"`
	Refresh    *refreshSpec `yaml:"refresh"`
	Filter     *filterSpec  `yaml:"filter"`
	Content    string       `yaml:"content"`
	MaxEntries int          `yaml:"max_entries"`
	Label      string       `yaml:"label"`
	Title      string       `yaml:"title"`
	To         string       `yaml:"to"`
}

type scrapeSpec struct {
	Entry   string `yaml:"entry"`
	Title   string `yaml:"title"`
	Link    string `yaml:"link"`
	Content string `yaml:"content"`
}

// refreshSpec is one of: every (hours), at ("HH:MM"), weekly ("mon HH:MM").
// Clock times are interpreted in the configured timezone (UTC unless
// Config.Timezone says otherwise).
type refreshSpec struct {
	Every  float64 `yaml:"every"`
	At     string  `yaml:"at"`
	Weekly string  `yaml:"weekly"`
}

// filterSpec is one node of the filter expression tree. Exactly one field
// must be set per node.
type filterSpec struct {
	And     []filterSpec `yaml:"and"`
	Or      []filterSpec `yaml:"or"`
	Not     *filterSpec  `yaml:"not"`
	Title   string       `yaml:"title"`
	Content string       `yaml:"content"`
}

// LoadFeeds reads the YAML feeds file and returns the configured sources.
func LoadFeeds(path string) ([]model.Source, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path comes from our own config
	if err != nil {
		return nil, fmt.Errorf("read feeds file: %w", err)
	}
	return ParseFeeds(data)
}

// ParseFeeds parses the feeds file content.
func ParseFeeds(data []byte) ([]model.Source, error) {
	var file feedsFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse feeds file: %w", err)
	}

	sources := make([]model.Source, 0, len(file.Feeds))
	for _, spec := range file.Feeds {
		src, err := spec.build()
		if err != nil {
			return nil, fmt.Errorf("feed %q: %w", spec.URL, err)
		}
		sources = append(sources, src)
	}
	return sources, nil
}

func (spec feedSpec) build() (model.Source, error) {
	if spec.URL == "" {
		return model.Source{}, fmt.Errorf("missing url")
	}

	desc := model.Descriptor{URL: spec.URL, Bundle: spec.Bundle}
	if spec.Scrape != nil {
		if spec.Scrape.Entry == "" {
			return model.Source{}, fmt.Errorf("scrape rule needs an entry selector")
		}
		desc.Scrape = &model.ScrapeRule{
			Entry:   spec.Scrape.Entry,
			Title:   spec.Scrape.Title,
			Link:    spec.Scrape.Link,
			Content: spec.Scrape.Content,
		}
	}

	opts := model.Options{
		MaxEntries: spec.MaxEntries,
		Label:      spec.Label,
		Title:      spec.Title,
		To:         spec.To,
	}

	switch spec.Content {
	case "", string(model.ContentKeep):
		opts.Content = model.ContentKeep
	case string(model.ContentRemove):
		opts.Content = model.ContentRemove
	default:
		return model.Source{}, fmt.Errorf("unknown content policy %q", spec.Content)
	}

	if spec.Refresh != nil {
		policy, err := spec.Refresh.build()
		if err != nil {
			return model.Source{}, err
		}
		opts.Refresh = policy
	}

	if spec.Filter != nil {
		expr, err := spec.Filter.build()
		if err != nil {
			return model.Source{}, err
		}
		opts.Filter = filter.Entries{Expr: expr}
	}

	return model.Source{ID: model.NewFeedID(spec.URL), Desc: desc, Opts: opts}, nil
}

func (r refreshSpec) build() (model.Refresh, error) {
	set := 0
	if r.Every != 0 {
		set++
	}
	if r.At != "" {
		set++
	}
	if r.Weekly != "" {
		set++
	}
	if set != 1 {
		return nil, fmt.Errorf("refresh needs exactly one of every/at/weekly")
	}

	switch {
	case r.Every != 0:
		if r.Every < 0 {
			return nil, fmt.Errorf("refresh every must be positive, got %v", r.Every)
		}
		return model.Every{Hours: r.Every}, nil

	case r.At != "":
		hour, minute, err := parseClock(r.At)
		if err != nil {
			return nil, err
		}
		return model.At{Hour: hour, Minute: minute}, nil

	default:
		fields := strings.Fields(r.Weekly)
		if len(fields) != 2 {
			return nil, fmt.Errorf("weekly refresh must look like %q, got %q", "mon 09:30", r.Weekly)
		}
		day, err := parseWeekday(fields[0])
		if err != nil {
			return nil, err
		}
		hour, minute, err := parseClock(fields[1])
		if err != nil {
			return nil, err
		}
		return model.AtWeekly{Day: day, Hour: hour, Minute: minute}, nil
	}
}

func (f filterSpec) build() (filter.Expr, error) {
	set := 0
	if len(f.And) > 0 {
		set++
	}
	if len(f.Or) > 0 {
		set++
	}
	if f.Not != nil {
		set++
	}
	if f.Title != "" {
		set++
	}
	if f.Content != "" {
		set++
	}
	if set != 1 {
		return nil, fmt.Errorf("filter node needs exactly one of and/or/not/title/content")
	}

	switch {
	case len(f.And) > 0:
		children, err := buildChildren(f.And)
		if err != nil {
			return nil, err
		}
		return filter.And(children), nil
	case len(f.Or) > 0:
		children, err := buildChildren(f.Or)
		if err != nil {
			return nil, err
		}
		return filter.Or(children), nil
	case f.Not != nil:
		child, err := f.Not.build()
		if err != nil {
			return nil, err
		}
		return filter.Not{X: child}, nil
	case f.Title != "":
		return filter.MatchTitle(f.Title)
	default:
		return filter.MatchContent(f.Content)
	}
}

func buildChildren(specs []filterSpec) ([]filter.Expr, error) {
	out := make([]filter.Expr, 0, len(specs))
	for _, s := range specs {
		child, err := s.build()
		if err != nil {
			return nil, err
		}
		out = append(out, child)
	}
	return out, nil
}

func parseClock(s string) (int, int, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid time %q, want HH:MM", s)
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, fmt.Errorf("invalid hour in %q", s)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("invalid minute in %q", s)
	}
	return hour, minute, nil
}

var weekdays = map[string]time.Weekday{
	"sun": time.Sunday, "mon": time.Monday, "tue": time.Tuesday,
	"wed": time.Wednesday, "thu": time.Thursday, "fri": time.Friday,
	"sat": time.Saturday,
}

func parseWeekday(s string) (time.Weekday, error) {
	key := strings.ToLower(s)
	if len(key) > 3 {
		key = key[:3]
	}
	day, ok := weekdays[key]
	if !ok {
		return 0, fmt.Errorf("invalid weekday %q", s)
	}
	return day, nil
}
