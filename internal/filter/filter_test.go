package filter

import (
	"regexp"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func title(t *testing.T, pattern string) Title {
	t.Helper()
	f, err := MatchTitle(pattern)
	if err != nil {
		t.Fatalf("MatchTitle(%q): %v", pattern, err)
	}
	return f
}

func content(t *testing.T, pattern string) Content {
	t.Helper()
	f, err := MatchContent(pattern)
	if err != nil {
		t.Fatalf("MatchContent(%q): %v", pattern, err)
	}
	return f
}

func TestMatchEntry(t *testing.T) {
	tests := []struct {
		name                 string
		expr                 Expr
		title, summary, body string
		want                 bool
	}{
		{
			name:  "nil expression passes everything",
			expr:  nil,
			title: "anything",
			want:  true,
		},
		{
			name:  "title pattern matches substring",
			expr:  title(t, "kubernetes"),
			title: "new kubernetes release",
			want:  true,
		},
		{
			name:  "title pattern does not match",
			expr:  title(t, "kubernetes"),
			title: "python update",
			want:  false,
		},
		{
			name: "title pattern never matches empty title",
			expr: Title{Pattern: regexp.MustCompile("")},
			want: false,
		},
		{
			name:    "content matches summary",
			expr:    content(t, "sidecar"),
			summary: "sidecar containers explained",
			want:    true,
		},
		{
			name: "content matches body when summary misses",
			expr: content(t, "sidecar"),
			body: "all about sidecar containers",
			want: true,
		},
		{
			name:    "content matches neither field",
			expr:    content(t, "sidecar"),
			summary: "networking",
			body:    "storage",
			want:    false,
		},
		{
			name:  "not inverts",
			expr:  Not{X: title(t, "vacancy")},
			title: "job vacancy",
			want:  false,
		},
		{
			name:  "and requires all children",
			expr:  And{title(t, "foo"), title(t, "bar")},
			title: "foo only",
			want:  false,
		},
		{
			name:  "and with all children matching",
			expr:  And{title(t, "foo"), title(t, "bar")},
			title: "foo bar",
			want:  true,
		},
		{
			name:  "empty and matches",
			expr:  And{},
			title: "anything",
			want:  true,
		},
		{
			name:  "or requires one child",
			expr:  Or{title(t, "helm"), title(t, "docker")},
			title: "docker update",
			want:  true,
		},
		{
			name:  "or with no matching child",
			expr:  Or{title(t, "helm"), title(t, "docker")},
			title: "python news",
			want:  false,
		},
		{
			name:  "empty or rejects",
			expr:  Or{},
			title: "anything",
			want:  false,
		},
		{
			name:    "and of title and negated content accepts",
			expr:    And{title(t, "foo"), Not{X: content(t, "bar")}},
			title:   "foo bar",
			summary: "clean summary",
			body:    "clean body",
			want:    true,
		},
		{
			name:    "and of title and negated content rejects on content hit",
			expr:    And{title(t, "foo"), Not{X: content(t, "bar")}},
			title:   "foo bar",
			summary: "mentions bar here",
			want:    false,
		},
		{
			name:  "regex alternation in title",
			expr:  title(t, "helm|docker"),
			title: "helm chart v3",
			want:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Entries{Expr: tt.expr}.MatchEntry(tt.title, tt.summary, tt.body)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("MatchEntry() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestInvalidPatterns(t *testing.T) {
	if _, err := MatchTitle("[invalid"); err == nil {
		t.Error("MatchTitle accepted invalid pattern")
	}
	if _, err := MatchContent("*bad"); err == nil {
		t.Error("MatchContent accepted invalid pattern")
	}
}
