package engine

// OutcomeParams controls the blend between session completion and perceived
// effort when synthesizing a cycle outcome. The split is heuristic and
// exposed via config.
type OutcomeParams struct {
	CompletionWeight float64
	EffortWeight     float64
}

// DefaultOutcomeParams returns the standard 0.6/0.4 blend.
func DefaultOutcomeParams() OutcomeParams {
	return OutcomeParams{
		CompletionWeight: OutcomeCompletionWeight,
		EffortWeight:     OutcomeEffortWeight,
	}
}

// OutcomeScore synthesizes a [-1,1] score for the week that just ended:
// how much of the plan got done, and how hard it felt. A week where every
// planned session happened at comfortable effort scores near +1; a skipped,
// grinding week scores negative.
func OutcomeScore(planned WeekPlan, completed []ActivityRecord, p OutcomeParams) float64 {
	sessions := 0
	for _, d := range planned.Days {
		if d.Type != DayRest {
			sessions++
		}
	}

	done := 0
	var rpeSum float64
	var rpeN int
	for _, a := range completed {
		if a.DistanceKm > 0 {
			done++
			rpeSum += valueOr(a.RPE, DefaultRPE)
			rpeN++
		}
	}

	completion := 1.0
	if sessions > 0 {
		if done > sessions {
			done = sessions
		}
		completion = float64(done) / float64(sessions)
	}
	// Map [0,1] completion onto [-1,1] so a half-completed week is neutral.
	completionScore := completion*2 - 1

	effortScore := 0.0
	if rpeN > 0 {
		avgRPE := rpeSum / float64(rpeN)
		// Lower effort feels better. RPE 6 is neutral, RPE 1 maps to +1.
		effortScore = clamp((6-avgRPE)/5, -1, 1)
	}

	return clamp(p.CompletionWeight*completionScore+p.EffortWeight*effortScore, -1, 1)
}

// UpdateWeights applies one exponential-moving-average step to every weight.
// The 90% inertia is deliberate: one noisy week should barely move the model.
// Runs once per planning cycle, feeding the next cycle's scorer.
func UpdateWeights(w Weights, outcomeScore float64) Weights {
	step := func(v float64) float64 {
		return clamp(v*WeightInertia+outcomeScore*(1-WeightInertia), WeightFloor, WeightCeil)
	}
	return Weights{
		Sleep:         step(w.Sleep),
		HRV:           step(w.HRV),
		RPE:           step(w.RPE),
		RaceProximity: step(w.RaceProximity),
	}
}
