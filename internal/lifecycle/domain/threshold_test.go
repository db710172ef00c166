package domain

import (
	"testing"
	"time"
)

var testDefaults = ThresholdDefaults{AtRiskDays: 30, LostDays: 60}

func day(n int) time.Time {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	return base.AddDate(0, 0, n)
}

func TestCalculateThresholdsDefaults(t *testing.T) {
	for _, payments := range [][]time.Time{nil, {day(0)}} {
		got := CalculateThresholds(payments, testDefaults)
		if got.AtRiskDays != 30 || got.LostDays != 60 {
			t.Errorf("CalculateThresholds(%d payments) = %+v, want defaults 30/60", len(payments), got)
		}
	}
}

func TestCalculateThresholdsSingleInterval(t *testing.T) {
	got := CalculateThresholds([]time.Time{day(0), day(10)}, testDefaults)
	if got.AtRiskDays != 10 {
		t.Errorf("AtRiskDays = %v, want 10", got.AtRiskDays)
	}
	// avg*2 = 20 is below the lost floor of 60.
	if got.LostDays != 60 {
		t.Errorf("LostDays = %v, want 60", got.LostDays)
	}
}

// Payments at day 0, 10 and 40: after the third payment the running average
// is (10 + 30) / 2 = 20, and the lost threshold is max(40, 60) = 60.
func TestCalculateThresholdsRunningAverage(t *testing.T) {
	got := CalculateThresholds([]time.Time{day(0), day(10), day(40)}, testDefaults)
	if got.AtRiskDays != 20 {
		t.Errorf("AtRiskDays = %v, want 20", got.AtRiskDays)
	}
	if got.LostDays != 60 {
		t.Errorf("LostDays = %v, want 60", got.LostDays)
	}
}

// The update is exponentially weighted, not a true mean: recent intervals
// dominate older ones.
func TestCalculateThresholdsFavorsRecentIntervals(t *testing.T) {
	// Intervals: 10, 10, 40. Running average: 10 -> 10 -> 25.
	// A true mean would be 20.
	got := CalculateThresholds([]time.Time{day(0), day(10), day(20), day(60)}, testDefaults)
	if got.AtRiskDays != 25 {
		t.Errorf("AtRiskDays = %v, want 25", got.AtRiskDays)
	}
}

func TestCalculateThresholdsLostAboveFloor(t *testing.T) {
	// Single interval of 45 days: lost = max(90, 60) = 90.
	got := CalculateThresholds([]time.Time{day(0), day(45)}, testDefaults)
	if got.AtRiskDays != 45 {
		t.Errorf("AtRiskDays = %v, want 45", got.AtRiskDays)
	}
	if got.LostDays != 90 {
		t.Errorf("LostDays = %v, want 90", got.LostDays)
	}
}

func TestDaysSince(t *testing.T) {
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		activity time.Time
		want     int
	}{
		{"same instant", now, 0},
		{"future activity counts as zero", now.Add(2 * time.Hour), 0},
		{"partial day rounds up", now.Add(-3 * time.Hour), 1},
		{"exactly one day", now.Add(-24 * time.Hour), 1},
		{"just over one day rounds up", now.Add(-25 * time.Hour), 2},
		{"forty five days", now.AddDate(0, 0, -45), 45},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := DaysSince(tc.activity, now); got != tc.want {
				t.Errorf("DaysSince = %d, want %d", got, tc.want)
			}
		})
	}
}
