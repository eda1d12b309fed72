package engine

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// Weights are the learned fatigue-indicator weights. Each stays within
// [WeightFloor, WeightCeil]; the learner owns mutation.
type Weights struct {
	Sleep         float64
	HRV           float64
	RPE           float64
	RaceProximity float64
}

// DefaultWeights are the starting point for a new athlete.
func DefaultWeights() Weights {
	return Weights{
		Sleep:         0.8,
		HRV:           0.7,
		RPE:           0.6,
		RaceProximity: 0.9,
	}
}

// Clamped returns a copy with every weight forced into the legal range.
func (w Weights) Clamped() Weights {
	return Weights{
		Sleep:         clamp(w.Sleep, WeightFloor, WeightCeil),
		HRV:           clamp(w.HRV, WeightFloor, WeightCeil),
		RPE:           clamp(w.RPE, WeightFloor, WeightCeil),
		RaceProximity: clamp(w.RaceProximity, WeightFloor, WeightCeil),
	}
}

// SessionFeedback is a post-run subjective report used for the secondary
// fatigue correction.
type SessionFeedback struct {
	Date     time.Time
	RPE      float64 // 1-10
	Soreness float64 // 1-10
}

// ScoreInput bundles everything the scorer needs. Callers with no race on
// record should pass DefaultRaceHorizonWeeks for RaceWeeks.
type ScoreInput struct {
	Aggregates Aggregates
	Health     HealthState
	Weights    Weights
	RaceWeeks  float64
	// Feedback is the last ~7 days of post-run reports; may be empty.
	Feedback []SessionFeedback
}

// FatigueResult is the scored readiness picture for one planning cycle.
// Never persisted; it is derivable on demand from its inputs.
type FatigueResult struct {
	Score     float64 // 0 fresh .. 1 cooked
	Breakdown Aggregates
	Reason    string
}

// Score combines aggregated signals, health state and race proximity into a
// fatigue score in [0,1]. Pure: no side effects, no stored state.
func Score(in ScoreInput) FatigueResult {
	w := in.Weights.Clamped()
	agg := in.Aggregates

	var sum float64
	var flags []string

	if agg.SleepAvg < SleepThresholdHours {
		sum += w.Sleep
		flags = append(flags, "short sleep")
	}
	if agg.HRVAvg < HRVThreshold {
		sum += w.HRV
		flags = append(flags, "suppressed HRV")
	}
	if agg.RPEAvg > RPEThreshold {
		sum += w.RPE
		flags = append(flags, "elevated effort")
	}
	if agg.ACWR > ACWRThreshold {
		sum += ACWRWeight
		flags = append(flags, "load spike")
	}

	switch in.Health {
	case HealthSick:
		sum += IllnessWeight
		flags = append(flags, "currently sick")
	case HealthReturning:
		sum += IllnessWeight * 0.5
		flags = append(flags, "returning from illness")
	}

	proximity := math.Max(0, 1-in.RaceWeeks/RaceProximityRampWeeks)
	sum += proximity * w.RaceProximity

	score := clamp(sum/FatigueNormalizer, 0, 1)

	bump := feedbackBump(in.Feedback)
	score = clamp(score+bump, 0, 1)
	if bump > 0 {
		flags = append(flags, "recent sessions felt hard")
	}

	reason := "signals nominal"
	if len(flags) > 0 {
		reason = strings.Join(flags, ", ")
	}
	if proximity > 0.5 {
		reason = fmt.Sprintf("%s; race %.0f weeks out", reason, in.RaceWeeks)
	}

	return FatigueResult{
		Score:     score,
		Breakdown: agg,
		Reason:    reason,
	}
}

// feedbackBump derives a bounded correction from the last week of subjective
// reports. Sessions that felt harder or left more soreness than a neutral 6
// push the score up, capped at FeedbackBumpCap.
func feedbackBump(fb []SessionFeedback) float64 {
	if len(fb) == 0 {
		return 0
	}
	var rpeSum, soreSum float64
	for _, f := range fb {
		rpeSum += f.RPE
		soreSum += f.Soreness
	}
	n := float64(len(fb))
	bump := (rpeSum/n-6)*0.05 + (soreSum/n-6)*0.05
	return clamp(bump, 0, FeedbackBumpCap)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
