package engine

import "time"

// HealthState is the athlete's self-reported illness status.
type HealthState string

const (
	HealthNormal    HealthState = "normal"
	HealthSick      HealthState = "sick"
	HealthReturning HealthState = "returning" // returning from illness
)

// ActivityRecord is one logged session. Optional fields are pointers;
// the aggregator substitutes population-typical defaults for nil.
type ActivityRecord struct {
	Date       time.Time
	DistanceKm float64
	RPE        *float64 // perceived exertion 1-10
	SleepHours *float64
	HRV        *float64
	HeartRate  *float64 // bpm, unused by the scorer but carried for display
}

// Aggregates are the scalar features the fatigue scorer consumes.
type Aggregates struct {
	SleepAvg float64
	HRVAvg   float64
	RPEAvg   float64
	ACWR     float64 // acute:chronic workload ratio
}

// Plausible bounds for self-reported signals. Present-but-absurd values are
// clamped at aggregation rather than rejected, mirroring how the simulator
// sanitizes its inputs.
const (
	minSleepHours = 0.0
	maxSleepHours = 14.0
	minHRV        = 10.0
	maxHRV        = 200.0
	minRPE        = 1.0
	maxRPE        = 10.0
)

// Aggregate reduces recent activity records plus the rolling distance history
// into scorer features. Missing fields default rather than propagating, so
// the result is always computable; an empty history yields neutral values.
// Out-of-range fields are clamped to their plausible bounds.
//
// ACWR divides this week's planned distance by the trailing 4-week average;
// a zero or empty chronic baseline is substituted with 1 to guard the division.
func Aggregate(records []ActivityRecord, last4WeeksKm []float64, plannedWeekKm float64) Aggregates {
	var sleepSum, hrvSum, rpeSum float64
	for _, r := range records {
		sleepSum += clamp(valueOr(r.SleepHours, DefaultSleepHours), minSleepHours, maxSleepHours)
		hrvSum += clamp(valueOr(r.HRV, DefaultHRV), minHRV, maxHRV)
		rpeSum += clamp(valueOr(r.RPE, DefaultRPE), minRPE, maxRPE)
	}

	n := float64(len(records))
	agg := Aggregates{
		SleepAvg: DefaultSleepHours,
		HRVAvg:   DefaultHRV,
		RPEAvg:   DefaultRPE,
	}
	if n > 0 {
		agg.SleepAvg = sleepSum / n
		agg.HRVAvg = hrvSum / n
		agg.RPEAvg = rpeSum / n
	}

	chronic := 0.0
	for _, km := range last4WeeksKm {
		chronic += km
	}
	if len(last4WeeksKm) > 0 {
		chronic /= float64(len(last4WeeksKm))
	}
	if chronic <= 0 {
		chronic = 1
	}
	agg.ACWR = plannedWeekKm / chronic

	return agg
}

func valueOr(p *float64, def float64) float64 {
	if p == nil {
		return def
	}
	return *p
}
