package schedule

import (
	"testing"
	"time"
)

func TestEvery_Next(t *testing.T) {
	now := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	if got := Every(time.Minute).Next(now); !got.Equal(now.Add(time.Minute)) {
		t.Errorf("unexpected next %v", got)
	}
}

func TestDailyAt_Next(t *testing.T) {
	trigger, err := DailyAt("01:00")
	if err != nil {
		t.Fatalf("DailyAt returned error: %v", err)
	}

	testCases := []struct {
		name string
		now  time.Time
		want time.Time
	}{
		{"before today's run", time.Date(2024, 5, 1, 0, 30, 0, 0, time.UTC), time.Date(2024, 5, 1, 1, 0, 0, 0, time.UTC)},
		{"exactly at run time", time.Date(2024, 5, 1, 1, 0, 0, 0, time.UTC), time.Date(2024, 5, 2, 1, 0, 0, 0, time.UTC)},
		{"after today's run", time.Date(2024, 5, 1, 13, 0, 0, 0, time.UTC), time.Date(2024, 5, 2, 1, 0, 0, 0, time.UTC)},
		{"month rollover", time.Date(2024, 5, 31, 23, 0, 0, 0, time.UTC), time.Date(2024, 6, 1, 1, 0, 0, 0, time.UTC)},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := trigger.Next(tc.now); !got.Equal(tc.want) {
				t.Errorf("Next(%v) = %v, want %v", tc.now, got, tc.want)
			}
		})
	}
}

func TestDailyAt_Invalid(t *testing.T) {
	for _, in := range []string{"", "25:00", "1am", "01:61"} {
		if _, err := DailyAt(in); err == nil {
			t.Errorf("expected error for %q", in)
		}
	}
}
