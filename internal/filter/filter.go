// Package filter implements the feed entry matching engine: a small tree of
// boolean combinators over regex predicates on entry title and content.
package filter

import (
	"fmt"
	"regexp"
)

// Expr is a filter expression node. A nil Expr means "match everything";
// callers handle that case, the methods here assume a non-nil tree.
type Expr interface {
	match(title, summary, content string) bool
}

// Entries wraps an Expr as a model.Matcher. It accepts every entry when the
// expression is nil.
type Entries struct {
	Expr Expr
}

// MatchEntry reports whether the entry passes the filter.
func (e Entries) MatchEntry(title, summary, content string) bool {
	if e.Expr == nil {
		return true
	}
	return e.Expr.match(title, summary, content)
}

// And matches when every child matches. The empty conjunction matches.
type And []Expr

// Or matches when at least one child matches. The empty disjunction does not.
type Or []Expr

// Not inverts its child.
type Not struct {
	X Expr
}

// Title matches when the entry has a title and the pattern is found
// anywhere within it.
type Title struct {
	Pattern *regexp.Regexp
}

// Content matches when the pattern is found anywhere within the entry's
// summary or content; either field passing is sufficient.
type Content struct {
	Pattern *regexp.Regexp
}

func (a And) match(title, summary, content string) bool {
	ok := true
	for _, x := range a {
		if !x.match(title, summary, content) {
			ok = false
		}
	}
	return ok
}

func (o Or) match(title, summary, content string) bool {
	ok := false
	for _, x := range o {
		if x.match(title, summary, content) {
			ok = true
		}
	}
	return ok
}

func (n Not) match(title, summary, content string) bool {
	return !n.X.match(title, summary, content)
}

func (t Title) match(title, _, _ string) bool {
	return title != "" && t.Pattern.MatchString(title)
}

func (c Content) match(_, summary, content string) bool {
	return c.Pattern.MatchString(summary) || c.Pattern.MatchString(content)
}

// MatchTitle builds a Title predicate, validating the pattern.
func MatchTitle(pattern string) (Title, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return Title{}, fmt.Errorf("invalid title pattern: %w", err)
	}
	return Title{Pattern: re}, nil
}

// MatchContent builds a Content predicate, validating the pattern.
func MatchContent(pattern string) (Content, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return Content{}, fmt.Errorf("invalid content pattern: %w", err)
	}
	return Content{Pattern: re}, nil
}
