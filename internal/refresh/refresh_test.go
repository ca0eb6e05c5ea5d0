package refresh

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"feedmailer/internal/model"
)

func TestNext(t *testing.T) {
	// 2024-03-06 is a Wednesday.
	base := time.Date(2024, 3, 6, 19, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		now    time.Time
		policy model.Refresh
		want   time.Time
	}{
		{
			name:   "every whole hours",
			now:    base,
			policy: model.Every{Hours: 6},
			want:   base.Add(6 * time.Hour),
		},
		{
			name:   "every fractional hours",
			now:    base,
			policy: model.Every{Hours: 1.5},
			want:   base.Add(90 * time.Minute),
		},
		{
			name:   "at rolls to next day when slot has passed",
			now:    base, // 19:00
			policy: model.At{Hour: 18, Minute: 0},
			want:   time.Date(2024, 3, 7, 18, 0, 0, 0, time.UTC),
		},
		{
			name:   "at later today",
			now:    base,
			policy: model.At{Hour: 23, Minute: 30},
			want:   time.Date(2024, 3, 6, 23, 30, 0, 0, time.UTC),
		},
		{
			name:   "at exactly now rolls to next day",
			now:    base,
			policy: model.At{Hour: 19, Minute: 0},
			want:   time.Date(2024, 3, 7, 19, 0, 0, 0, time.UTC),
		},
		{
			name:   "weekly later this week",
			now:    base, // Wednesday
			policy: model.AtWeekly{Day: time.Friday, Hour: 9, Minute: 30},
			want:   time.Date(2024, 3, 8, 9, 30, 0, 0, time.UTC),
		},
		{
			name:   "weekly same day earlier time rolls a full week",
			now:    base, // Wednesday 19:00
			policy: model.AtWeekly{Day: time.Wednesday, Hour: 9, Minute: 0},
			want:   time.Date(2024, 3, 13, 9, 0, 0, 0, time.UTC),
		},
		{
			name:   "weekly same day later time stays this week",
			now:    base,
			policy: model.AtWeekly{Day: time.Wednesday, Hour: 22, Minute: 0},
			want:   time.Date(2024, 3, 6, 22, 0, 0, 0, time.UTC),
		},
		{
			name:   "weekly earlier weekday rolls forward",
			now:    base, // Wednesday
			policy: model.AtWeekly{Day: time.Monday, Hour: 8, Minute: 0},
			want:   time.Date(2024, 3, 11, 8, 0, 0, 0, time.UTC),
		},
		{
			name:   "nil policy uses default",
			now:    base,
			policy: nil,
			want:   base.Add(6 * time.Hour),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Next(tt.now, tt.policy)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Next() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestNextIsAlwaysInTheFuture(t *testing.T) {
	now := time.Date(2024, 3, 6, 19, 0, 0, 0, time.UTC)
	policies := []model.Refresh{
		model.Every{Hours: 0.25},
		model.At{Hour: 19, Minute: 0},
		model.AtWeekly{Day: time.Wednesday, Hour: 19, Minute: 0},
	}
	for _, p := range policies {
		if next := Next(now, p); !next.After(now) {
			t.Errorf("Next(%v, %#v) = %v, not after now", now, p, next)
		}
	}
}
