package Scheduler

import (
	"testing"
	"time"
)

func TestNextSlot(t *testing.T) {
	// 2025-06-06 is a Friday.
	cases := []struct {
		name  string
		after time.Time
		want  time.Time
	}{
		{
			name:  "midday stays put plus buffer",
			after: time.Date(2025, time.June, 3, 10, 0, 0, 0, time.UTC),
			want:  time.Date(2025, time.June, 3, 10, 30, 0, 0, time.UTC),
		},
		{
			name:  "early morning clamps to day start",
			after: time.Date(2025, time.June, 3, 7, 15, 0, 0, time.UTC),
			want:  time.Date(2025, time.June, 3, 8, 0, 0, 0, time.UTC),
		},
		{
			name:  "buffer landing exactly at day start is kept",
			after: time.Date(2025, time.June, 3, 7, 30, 0, 0, time.UTC),
			want:  time.Date(2025, time.June, 3, 8, 0, 0, 0, time.UTC),
		},
		{
			name:  "late afternoon rolls to next morning",
			after: time.Date(2025, time.June, 3, 16, 40, 0, 0, time.UTC),
			want:  time.Date(2025, time.June, 4, 8, 0, 0, 0, time.UTC),
		},
		{
			name:  "late night rolls through midnight to morning",
			after: time.Date(2025, time.June, 3, 23, 45, 0, 0, time.UTC),
			want:  time.Date(2025, time.June, 4, 8, 0, 0, 0, time.UTC),
		},
		{
			name:  "friday evening rolls over the weekend to monday",
			after: time.Date(2025, time.June, 6, 16, 45, 0, 0, time.UTC),
			want:  time.Date(2025, time.June, 9, 8, 0, 0, 0, time.UTC),
		},
		{
			name:  "saturday lands on monday morning",
			after: time.Date(2025, time.June, 7, 10, 0, 0, 0, time.UTC),
			want:  time.Date(2025, time.June, 9, 8, 0, 0, 0, time.UTC),
		},
		{
			name:  "sunday lands on monday morning",
			after: time.Date(2025, time.June, 8, 14, 0, 0, 0, time.UTC),
			want:  time.Date(2025, time.June, 9, 8, 0, 0, 0, time.UTC),
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := NextSlot(tc.after)
			if !got.Equal(tc.want) {
				t.Fatalf("NextSlot(%v) = %v, want %v", tc.after, got, tc.want)
			}
		})
	}
}

func TestSlotEnd(t *testing.T) {
	start := time.Date(2025, time.June, 3, 9, 0, 0, 0, time.UTC)
	if got := SlotEnd(start, 3.5); !got.Equal(start.Add(3*time.Hour + 30*time.Minute)) {
		t.Fatalf("SlotEnd with 3.5h = %v", got)
	}
	// No estimate falls back to the default visit length.
	if got := SlotEnd(start, 0); !got.Equal(start.Add(2 * time.Hour)) {
		t.Fatalf("SlotEnd with no estimate = %v, want two hours", got)
	}
}
