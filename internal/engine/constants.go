package engine

// Empirically chosen model constants. These came out of tuning against real
// training blocks, not from first principles; treat them as knobs, not truths.
const (
	// Aggregator defaults substituted for missing fields so the scorer is
	// always computable.
	DefaultSleepHours = 7.0
	DefaultHRV        = 60.0
	DefaultRPE        = 5.0

	// Fatigue indicator thresholds.
	SleepThresholdHours = 7.0
	HRVThreshold        = 50.0
	RPEThreshold        = 6.0
	ACWRThreshold       = 1.2

	// ACWR contribution is fixed, not learned.
	ACWRWeight = 0.5

	// Illness impact is weighted at full strength.
	IllnessWeight = 1.0

	// Race proximity ramps in over the final 12 weeks.
	RaceProximityRampWeeks = 12.0

	// DefaultRaceHorizonWeeks is the assumed proximity when no race is on
	// record.
	DefaultRaceHorizonWeeks = 8.0

	// FatigueNormalizer divides the weighted indicator sum.
	FatigueNormalizer = 4.0

	// FeedbackBumpCap bounds the subjective post-run feedback correction.
	FeedbackBumpCap = 0.15

	// Weight learning: 90% inertia per cycle, bounded range.
	WeightInertia = 0.9
	WeightFloor   = 0.2
	WeightCeil    = 1.0

	// Outcome score blend. The 0.6/0.4 split is heuristic; it is also
	// exposed through config for experimentation.
	OutcomeCompletionWeight = 0.6
	OutcomeEffortWeight     = 0.4

	// Riegel fatigue exponent: default and calibration bounds.
	DefaultDecayExponent = 1.06
	DecayExponentMin     = 1.03
	DecayExponentMax     = 1.12

	// Correction smoothing: alpha is capped and shrinks with calibration
	// count so factors converge instead of oscillating.
	SmoothingAlphaCap = 0.4

	// Lesson weights accrue per qualifying occurrence, with per-key caps.
	LessonWeightStep    = 0.05
	TaperBiasCap        = 0.45
	FuelingFocusCap     = 0.40
	HeatAcclimationCap  = 0.40
	HillsSpecificityCap = 0.40
	PacingControlCap    = 0.35

	// Total race-taper volume cut is bounded no matter how the lesson and
	// priority biases stack.
	MaxTaperCut = 0.6

	MarathonKm = 42.195
)
