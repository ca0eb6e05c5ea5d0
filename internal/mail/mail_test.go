package mail

import (
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"feedmailer/internal/model"
)

var now = time.Date(2024, 3, 6, 12, 0, 0, 0, time.UTC)

func entries(n int) []model.Entry {
	out := make([]model.Entry, n)
	for i := range out {
		out[i] = model.Entry{
			ID:    "id-" + string(rune('a'+i)),
			Title: "Entry " + string(rune('A'+i)),
			Link:  "https://example.com/" + string(rune('a'+i)),
		}
	}
	return out
}

func subjects(mails []model.Mail) []string {
	var out []string
	for _, m := range mails {
		out = append(out, m.Subject)
	}
	return out
}

func TestPrepareMails(t *testing.T) {
	feed := model.Feed{Title: "Example Feed"}
	desc := model.Descriptor{URL: "https://example.com/rss"}

	tests := []struct {
		name         string
		opts         model.Options
		entries      []model.Entry
		wantSubjects []string
	}{
		{
			name:         "one mail per entry",
			opts:         model.Options{},
			entries:      entries(2),
			wantSubjects: []string{"Entry A", "Entry B"},
		},
		{
			name:         "over max entries collapses to bundle",
			opts:         model.Options{MaxEntries: 2},
			entries:      entries(3),
			wantSubjects: []string{"3 entries from Example Feed"},
		},
		{
			name:         "at max entries stays per-entry",
			opts:         model.Options{MaxEntries: 2},
			entries:      entries(2),
			wantSubjects: []string{"Entry A", "Entry B"},
		},
		{
			name:         "single entry under limit keeps its title",
			opts:         model.Options{MaxEntries: 2},
			entries:      entries(1),
			wantSubjects: []string{"Entry A"},
		},
		{
			name:         "untitled entry gets generic subject",
			opts:         model.Options{},
			entries:      []model.Entry{{ID: "x", Link: "https://example.com/x"}},
			wantSubjects: []string{"New entry from Example Feed"},
		},
		{
			name:         "no entries no mails",
			opts:         model.Options{},
			entries:      nil,
			wantSubjects: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mails := PrepareMails(now, desc, tt.opts, feed, tt.entries, DefaultRenderer{})
			if diff := cmp.Diff(tt.wantSubjects, subjects(mails)); diff != "" {
				t.Errorf("subjects mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestPrepareBundle(t *testing.T) {
	feed := model.Feed{Title: "Example Feed"}
	desc := model.Descriptor{URL: "https://example.com/rss", Bundle: true}

	tests := []struct {
		name         string
		entries      []model.Entry
		wantSubjects []string
	}{
		{
			name:         "zero entries produce zero mails",
			entries:      nil,
			wantSubjects: nil,
		},
		{
			name:         "one entry reuses its title",
			entries:      entries(1),
			wantSubjects: []string{"Entry A"},
		},
		{
			name:         "several entries synthesize a count subject",
			entries:      entries(3),
			wantSubjects: []string{"3 entries from Example Feed"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mails := PrepareBundle(now, desc, model.Options{}, feed, tt.entries, DefaultRenderer{})
			if diff := cmp.Diff(tt.wantSubjects, subjects(mails)); diff != "" {
				t.Errorf("subjects mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestPrepareSelectsPolicyByDescriptor(t *testing.T) {
	feed := model.Feed{Title: "Example Feed"}

	bundled := Prepare(now, model.Descriptor{URL: "https://example.com/rss", Bundle: true}, model.Options{}, feed, entries(3), DefaultRenderer{})
	if diff := cmp.Diff(1, len(bundled)); diff != "" {
		t.Errorf("bundle descriptor mail count (-want +got):\n%s", diff)
	}

	plain := Prepare(now, model.Descriptor{URL: "https://example.com/rss"}, model.Options{}, feed, entries(3), DefaultRenderer{})
	if diff := cmp.Diff(3, len(plain)); diff != "" {
		t.Errorf("plain descriptor mail count (-want +got):\n%s", diff)
	}
}

func TestSender(t *testing.T) {
	tests := []struct {
		name string
		opts model.Options
		feed model.Feed
		url  string
		want string
	}{
		{
			name: "options title wins",
			opts: model.Options{Title: "My Override"},
			feed: model.Feed{Title: "Feed Title"},
			url:  "https://example.com/rss",
			want: "My Override",
		},
		{
			name: "feed title next",
			feed: model.Feed{Title: "Feed Title"},
			url:  "https://example.com/rss",
			want: "Feed Title",
		},
		{
			name: "url host next",
			url:  "https://example.com/rss",
			want: "example.com",
		},
		{
			name: "full url as last resort",
			url:  "not a url",
			want: "not a url",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Sender(tt.opts, tt.feed, tt.url)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Sender() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestRenderBodies(t *testing.T) {
	es := []model.Entry{{
		Title:   "Kubernetes 1.32 Released",
		Link:    "https://example.com/k8s",
		Summary: "Sidecar containers are stable.",
	}}

	html, text := DefaultRenderer{}.Render(model.Feed{}, es, "Example Feed", "news")

	for _, want := range []string{"Kubernetes 1.32 Released", "https://example.com/k8s"} {
		if !strings.Contains(html, want) {
			t.Errorf("html body missing %q:\n%s", want, html)
		}
		if !strings.Contains(text, want) {
			t.Errorf("text body missing %q:\n%s", want, text)
		}
	}
	if !strings.Contains(text, "[Example Feed (news)]") {
		t.Errorf("text body missing sender header:\n%s", text)
	}
}
