package state

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"feedmailer/internal/model"
	"feedmailer/internal/seen"
)

func TestTypedAccessors(t *testing.T) {
	s := New()
	id := model.NewFeedID("https://example.com/rss")

	if _, ok := s.NextUpdate(id); ok {
		t.Error("NextUpdate present on empty state")
	}
	if _, ok := s.PreviousEntries(id); ok {
		t.Error("PreviousEntries present on empty state")
	}
	if _, ok := s.PageContents(id); ok {
		t.Error("PageContents present on empty state")
	}

	s.SetNextUpdate(id, 12345)
	s.SetPreviousEntries(id, seen.Set{"a": 99})
	s.SetPageContents(id, "<html/>")

	if got, ok := s.NextUpdate(id); !ok || got != 12345 {
		t.Errorf("NextUpdate = %d, %v; want 12345, true", got, ok)
	}
	got, ok := s.PreviousEntries(id)
	if !ok {
		t.Fatal("PreviousEntries missing after set")
	}
	if diff := cmp.Diff(seen.Set{"a": 99}, got); diff != "" {
		t.Errorf("PreviousEntries mismatch (-want +got):\n%s", diff)
	}
	if page, ok := s.PageContents(id); !ok || page != "<html/>" {
		t.Errorf("PageContents = %q, %v; want %q, true", page, ok, "<html/>")
	}

	// keys are independent: a second feed with only NextUpdate set has no
	// PreviousEntries
	other := model.NewFeedID("https://other.example.com/rss")
	s.SetNextUpdate(other, 1)
	if _, ok := s.PreviousEntries(other); ok {
		t.Error("PreviousEntries leaked across typed keys")
	}
}

func TestApplyRunsInOrder(t *testing.T) {
	s := New()
	id := model.NewFeedID("https://example.com/rss")

	s.Apply(
		func(st *State) { st.SetNextUpdate(id, 1) },
		nil, // identity transform from an up-to-date feed
		func(st *State) { st.SetNextUpdate(id, 2) },
	)

	if got, _ := s.NextUpdate(id); got != 2 {
		t.Errorf("NextUpdate = %d, want last transform to win", got)
	}
}

func TestDirtyTracking(t *testing.T) {
	s := New()
	a := model.FeedID("aaaa")
	b := model.FeedID("bbbb")

	if len(s.Dirty()) != 0 {
		t.Error("fresh state reported dirty feeds")
	}

	s.SetNextUpdate(b, 1)
	s.SetPreviousEntries(a, seen.Empty())
	s.SetNextUpdate(b, 2)

	if diff := cmp.Diff([]model.FeedID{a, b}, s.Dirty()); diff != "" {
		t.Errorf("Dirty() mismatch (-want +got):\n%s", diff)
	}

	s.ClearDirty()
	if len(s.Dirty()) != 0 {
		t.Error("ClearDirty left dirty feeds")
	}
	if _, ok := s.NextUpdate(b); !ok {
		t.Error("ClearDirty dropped state values")
	}
}
