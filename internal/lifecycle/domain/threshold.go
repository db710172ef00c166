package domain

import "time"

const hoursPerDay = 24

// Thresholds are the adaptive day counts beyond which a relationship is
// reclassified. Both are recomputed from the full payment history on every
// evaluation, so they adapt as new payments arrive.
type Thresholds struct {
	AtRiskDays float64
	LostDays   float64
}

// ThresholdDefaults are the fallback day counts used when a relationship has
// fewer than two payments and therefore no interval to average.
type ThresholdDefaults struct {
	AtRiskDays int
	LostDays   int
}

// CalculateThresholds derives the at-risk and lost thresholds from an
// ascending list of successful-payment timestamps.
//
// The average is a smoothed running average, not an arithmetic mean: starting
// from the first interval, each subsequent interval is folded in as
// avg = (avg + interval) / 2. Recent intervals therefore weigh more than old
// ones, which is what makes the threshold track a customer's current payment
// rhythm instead of their lifetime average.
//
// The lost threshold is twice the average, floored at the configured default
// so a rapid payer is not declared lost within days.
func CalculateThresholds(payments []time.Time, defaults ThresholdDefaults) Thresholds {
	if len(payments) < 2 {
		return Thresholds{
			AtRiskDays: float64(defaults.AtRiskDays),
			LostDays:   float64(defaults.LostDays),
		}
	}

	avg := intervalDays(payments[0], payments[1])
	for i := 2; i < len(payments); i++ {
		avg = (avg + intervalDays(payments[i-1], payments[i])) / 2
	}

	lost := avg * 2
	if floor := float64(defaults.LostDays); lost < floor {
		lost = floor
	}

	return Thresholds{
		AtRiskDays: avg,
		LostDays:   lost,
	}
}

// DaysSince converts an activity timestamp into a whole-day gap, rounding up
// so that any partial day counts as a full one. Activity from the future
// (clock skew) counts as zero days.
func DaysSince(activity time.Time, now time.Time) int {
	elapsed := now.Sub(activity)
	if elapsed <= 0 {
		return 0
	}

	days := int(elapsed.Hours() / hoursPerDay)
	if elapsed.Hours() > float64(days)*hoursPerDay {
		days++
	}
	return days
}

func intervalDays(from, to time.Time) float64 {
	return to.Sub(from).Hours() / hoursPerDay
}
