package engine

import (
	"fmt"
	"math"
)

// PerformanceModel is the athlete's persisted Riegel model: a baseline
// anchor plus a calibrated fatigue exponent. Initialized once from the first
// baseline and thereafter only updated additively by calibration.
type PerformanceModel struct {
	Baseline         BaselineRace
	PerformanceDecay float64 // Riegel exponent, always within [1.03, 1.12]
	CalibrationCount int
	Confidence       float64 // 0-1, running blend of calibration quality
}

// NewPerformanceModel initializes the model from the first usable baseline.
func NewPerformanceModel(baseline BaselineRace) PerformanceModel {
	return PerformanceModel{
		Baseline:         baseline,
		PerformanceDecay: DefaultDecayExponent,
		Confidence:       baseline.Confidence,
	}
}

// CorrectionFactors are per-distance-band multipliers applied to future
// predictions, each smoothed independently toward race-day evidence.
// Upserted, never deleted.
type CorrectionFactors struct {
	AthleteID        string
	Band             string
	Terrain          float64
	Heat             float64
	Night            float64
	AidStation       float64
	BaseFatigue      float64
	CalibrationCount int
	LastQuality      float64
}

// NewCorrectionFactors returns neutral factors for a band.
func NewCorrectionFactors(athleteID, band string) CorrectionFactors {
	return CorrectionFactors{
		AthleteID:   athleteID,
		Band:        band,
		Terrain:     1,
		Heat:        1,
		Night:       1,
		AidStation:  1,
		BaseFatigue: 1,
	}
}

// DistanceBand buckets a race distance for correction-factor keying.
func DistanceBand(km float64) string {
	switch {
	case km < 42:
		return "sub-marathon"
	case km < 50:
		return "marathon"
	case km < 100:
		return "50-100km ultra"
	default:
		return "100km+ ultra"
	}
}

// RaceMeta describes the conditions of a completed race, used to decide
// which correction factors the evidence speaks to.
type RaceMeta struct {
	DistanceKm      float64
	ElevationGainM  float64
	Surface         string // "road", "trail", "mountain"
	TempC           float64
	Night           bool
	AidStations     int
	UsedPaceProfile bool
}

// CalibrationOutcome records what a calibration did, for audit. Quality is
// stored alongside the update but never gates it.
type CalibrationOutcome struct {
	Applied      bool
	Reason       string
	Quality      float64
	Alpha        float64
	ImpliedDecay float64
}

// smoothingAlpha shrinks with calibration count: min(cap, 1/(count+2)).
// Early races move the model, later ones only nudge it.
func smoothingAlpha(calibrationCount int) float64 {
	return math.Min(SmoothingAlphaCap, 1/float64(calibrationCount+2))
}

// CalibrationQuality scores how clean the evidence was: small prediction
// error, long distance and a personalized pace profile all raise trust.
func CalibrationQuality(predictedMin, actualMin, distanceKm float64, usedPaceProfile bool) float64 {
	if predictedMin <= 0 || actualMin <= 0 {
		return 0
	}
	deltaPct := math.Abs(actualMin-predictedMin) / predictedMin * 100
	q := clamp(1-deltaPct/50, 0, 1)
	if distanceKm >= 50 {
		q += 0.1
	}
	if usedPaceProfile {
		q += 0.1
	}
	return clamp(q, 0, 1)
}

// CalibrateDecay back-solves the Riegel exponent implied by the actual
// result against the model baseline and blends it into the persisted
// exponent with shrinking alpha. Skipped with an explicit reason when the
// model is not ready; never fabricates a baseline.
func CalibrateDecay(model *PerformanceModel, predictedMin, actualMin float64, meta RaceMeta) (PerformanceModel, CalibrationOutcome) {
	if model == nil || model.Baseline.TimeMin <= 0 || model.Baseline.DistanceKm <= 0 {
		return PerformanceModel{}, CalibrationOutcome{Reason: "no performance model: record a baseline race first"}
	}
	updated := *model

	if actualMin <= 0 || meta.DistanceKm <= 0 {
		return updated, CalibrationOutcome{Reason: "actual time and distance must be positive"}
	}
	ratio := meta.DistanceKm / model.Baseline.DistanceKm
	if math.Abs(math.Log(ratio)) < 1e-9 {
		return updated, CalibrationOutcome{Reason: "race distance equals baseline distance: decay not observable"}
	}

	implied := math.Log(actualMin/model.Baseline.TimeMin) / math.Log(ratio)
	alpha := smoothingAlpha(model.CalibrationCount)
	quality := CalibrationQuality(predictedMin, actualMin, meta.DistanceKm, meta.UsedPaceProfile)

	updated.PerformanceDecay = clamp((1-alpha)*model.PerformanceDecay+alpha*implied, DecayExponentMin, DecayExponentMax)
	updated.CalibrationCount++
	updated.Confidence = clamp((1-alpha)*model.Confidence+alpha*quality, 0, 1)

	return updated, CalibrationOutcome{
		Applied:      true,
		Reason:       fmt.Sprintf("decay %.4f -> %.4f (implied %.4f)", model.PerformanceDecay, updated.PerformanceDecay, implied),
		Quality:      quality,
		Alpha:        alpha,
		ImpliedDecay: implied,
	}
}

// ApplyFactors adjusts a predicted time by the band's learned multipliers.
// The same conditions that gate calibration gate application: a heat factor
// learned from hot races only fires on races forecast above 25C.
func ApplyFactors(timeMin float64, factors CorrectionFactors, meta RaceMeta) float64 {
	out := timeMin * factors.BaseFatigue
	if meta.Surface == "trail" || meta.Surface == "mountain" {
		out *= factors.Terrain
	}
	if meta.TempC > 25 {
		out *= factors.Heat
	}
	if meta.Night {
		out *= factors.Night
	}
	if meta.AidStations >= 5 {
		out *= factors.AidStation
	}
	return out
}

// CalibrateFactors smooths the band's correction multipliers toward the
// observed actual/predicted ratio. Each factor only moves when its condition
// was actually present in the race; the base fatigue factor always moves.
func CalibrateFactors(factors CorrectionFactors, predictedMin, actualMin float64, meta RaceMeta) (CorrectionFactors, CalibrationOutcome) {
	if predictedMin <= 0 || actualMin <= 0 {
		return factors, CalibrationOutcome{Reason: "need both predicted and actual time"}
	}

	updated := factors
	// Observed slowdown (or speedup) relative to the prediction, kept within
	// sanity bounds so one catastrophic race cannot wreck the factors.
	observed := clamp(actualMin/predictedMin, 0.5, 2.0)
	alpha := smoothingAlpha(factors.CalibrationCount)
	smooth := func(old float64) float64 { return (1-alpha)*old + alpha*observed }

	if meta.Surface == "trail" || meta.Surface == "mountain" {
		updated.Terrain = smooth(factors.Terrain)
	}
	if meta.TempC > 25 {
		updated.Heat = smooth(factors.Heat)
	}
	if meta.Night {
		updated.Night = smooth(factors.Night)
	}
	if meta.AidStations >= 5 {
		updated.AidStation = smooth(factors.AidStation)
	}
	updated.BaseFatigue = smooth(factors.BaseFatigue)

	quality := CalibrationQuality(predictedMin, actualMin, meta.DistanceKm, meta.UsedPaceProfile)
	updated.CalibrationCount++
	updated.LastQuality = quality

	return updated, CalibrationOutcome{
		Applied: true,
		Reason:  fmt.Sprintf("band %s smoothed toward %.3f", factors.Band, observed),
		Quality: quality,
		Alpha:   alpha,
	}
}
