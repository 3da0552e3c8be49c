package session

import (
	"testing"
	"time"
)

func TestElapsedMinutesFloorsPartialMinutes(t *testing.T) {
	start := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)

	cases := []struct {
		name string
		end  time.Time
		want int64
	}{
		{"zero duration", start, 0},
		{"59 seconds floors to zero", start.Add(59 * time.Second), 0},
		{"exactly one minute", start.Add(time.Minute), 1},
		{"90 minutes and change", start.Add(90*time.Minute + 59*time.Second), 90},
		{"clock skew clamps to zero", start.Add(-5 * time.Minute), 0},
	}
	for _, tc := range cases {
		if got := ElapsedMinutes(start, tc.end); got != tc.want {
			t.Fatalf("%s: expected %d, got %d", tc.name, tc.want, got)
		}
	}
}

func TestCostCentsRoundsHalfUp(t *testing.T) {
	cases := []struct {
		name    string
		minutes int64
		rate    int64
		want    int64
	}{
		{"one hour at 5 dollars", 60, 500, 500},
		{"half hour at 5 dollars", 30, 500, 250},
		{"one minute at 5 dollars rounds to 8 cents", 1, 500, 8},
		{"7 minutes at 999 rounds half up", 7, 999, 117},
		{"zero minutes", 0, 500, 0},
		{"free cafe", 60, 0, 0},
	}
	for _, tc := range cases {
		if got := CostCents(tc.minutes, tc.rate); got != tc.want {
			t.Fatalf("%s: expected %d, got %d", tc.name, tc.want, got)
		}
	}
}

func TestCoinsEarnedUsesCafeRate(t *testing.T) {
	if got := CoinsEarned(90, 1); got != 90 {
		t.Fatalf("expected 90 coins at rate 1, got %d", got)
	}
	if got := CoinsEarned(30, 2); got != 60 {
		t.Fatalf("expected 60 coins at rate 2, got %d", got)
	}
	if got := CoinsEarned(-1, 1); got != 0 {
		t.Fatalf("expected 0 coins for negative minutes, got %d", got)
	}
}
