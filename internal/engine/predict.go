package engine

import (
	"errors"
	"math"
	"sort"
	"time"
)

// ErrInsufficientData signals a normal data-sparsity state (new athlete, no
// baseline yet), not a failure. Callers degrade instead of erroring out.
var ErrInsufficientData = errors.New("insufficient data")

// Race is the upcoming event being predicted.
type Race struct {
	ID             string
	Name           string
	DistanceKm     float64
	ElevationGainM float64
	Surface        string
	Date           time.Time
	Priority       string // "A", "B", "C"

	// RouteEstimateMin is a route-derived time from elevation/pace analysis,
	// when available. RouteEstimateCorrected marks whether the ultra fatigue
	// correction was already applied upstream.
	RouteEstimateMin       *float64
	RouteEstimateCorrected bool

	// ManualEstimateMin is an athlete-entered expected time.
	ManualEstimateMin *float64
}

// BaselineRace anchors distance-scaling projection: a past performance, real
// or derived from a race-like training run.
type BaselineRace struct {
	DistanceKm   float64
	TimeMin      float64
	PaceMinPerKm float64
	Confidence   float64 // 0-1
	FromRace     bool    // real race result vs training-run inference
	Date         time.Time
}

// PredictionMethod identifies how a time estimate was produced.
type PredictionMethod string

const (
	MethodRoute  PredictionMethod = "route"
	MethodManual PredictionMethod = "manual"
	MethodRiegel PredictionMethod = "riegel"
)

// Confidence tiers, best to worst.
const (
	ConfidenceVeryHigh = "very-high"
	ConfidenceHigh     = "high"
	ConfidenceMedium   = "medium"
	ConfidenceLow      = "low"
	ConfidenceVeryLow  = "very-low"
)

var tierOrder = []string{ConfidenceVeryHigh, ConfidenceHigh, ConfidenceMedium, ConfidenceLow, ConfidenceVeryLow}

func downgrade(tier string, steps int) string {
	idx := 0
	for i, t := range tierOrder {
		if t == tier {
			idx = i
			break
		}
	}
	idx += steps
	if idx >= len(tierOrder) {
		idx = len(tierOrder) - 1
	}
	return tierOrder[idx]
}

// Prediction is a race-time estimate with its provenance.
type Prediction struct {
	TimeMin    float64
	Method     PredictionMethod
	Confidence string
}

// UltraCorrection stretches a sub-ultra time estimate for distances beyond
// the marathon, where fatigue accumulates faster than linear pace scaling
// suggests. The stretch follows the same power law as Riegel projection.
func UltraCorrection(timeMin, distanceKm, decay float64) float64 {
	if distanceKm <= MarathonKm {
		return timeMin
	}
	return timeMin * math.Pow(distanceKm/MarathonKm, decay-1)
}

// Predict produces a race-time estimate using the best available method, in
// priority order: route-derived estimate, manual estimate, Riegel projection
// from the baseline. Returns ErrInsufficientData when no method applies.
func Predict(race Race, baseline *BaselineRace, decay float64) (Prediction, error) {
	if decay < DecayExponentMin || decay > DecayExponentMax {
		decay = DefaultDecayExponent
	}

	if race.RouteEstimateMin != nil {
		t := *race.RouteEstimateMin
		if race.DistanceKm > 42 && !race.RouteEstimateCorrected {
			t = UltraCorrection(t, race.DistanceKm, decay)
		}
		return Prediction{
			TimeMin:    t,
			Method:     MethodRoute,
			Confidence: routeConfidence(race),
		}, nil
	}

	if race.ManualEstimateMin != nil {
		return Prediction{
			TimeMin:    *race.ManualEstimateMin,
			Method:     MethodManual,
			Confidence: ConfidenceMedium,
		}, nil
	}

	if baseline == nil || baseline.DistanceKm <= 0 || baseline.TimeMin <= 0 {
		return Prediction{}, ErrInsufficientData
	}

	t := baseline.TimeMin * math.Pow(race.DistanceKm/baseline.DistanceKm, decay)
	return Prediction{
		TimeMin:    t,
		Method:     MethodRiegel,
		Confidence: riegelConfidence(race, baseline),
	}, nil
}

func routeConfidence(race Race) string {
	tier := ConfidenceVeryHigh
	if race.DistanceKm > 50 {
		tier = downgrade(tier, 1)
	}
	return tier
}

// riegelConfidence grades a projection by how far it extrapolates and how
// trustworthy the anchor is.
func riegelConfidence(race Race, baseline *BaselineRace) string {
	tier := ConfidenceHigh

	ratio := race.DistanceKm / baseline.DistanceKm
	if ratio < 1 {
		ratio = 1 / ratio
	}
	if ratio > 1.5 {
		tier = downgrade(tier, 1)
	}
	if !baseline.FromRace {
		tier = downgrade(tier, 1)
	}
	if race.DistanceKm > 50 && ratio > 1.5 {
		tier = downgrade(tier, 1)
	}
	return tier
}

// standardRaceKm are the distances a training run may match to count as
// race-like evidence.
var standardRaceKm = []float64{5, 10, 21.0975, MarathonKm, 50, 100}

func isStandardDistance(km float64) bool {
	for _, d := range standardRaceKm {
		if math.Abs(km-d)/d <= 0.02 {
			return true
		}
	}
	return false
}

// RaceLike reports whether a training run is solid enough evidence to anchor
// a projection: long, a standard race distance, or a sustained tempo effort.
func RaceLike(distanceKm, durationMin float64) bool {
	if distanceKm >= 20 {
		return true
	}
	if isStandardDistance(distanceKm) {
		return true
	}
	return distanceKm >= 10 && durationMin >= 45
}

// BaselineCandidate is one past performance under consideration.
type BaselineCandidate struct {
	DistanceKm  float64
	DurationMin float64
	Date        time.Time
	FromRace    bool
}

// SelectBaseline scores all candidates and returns the best anchor, or nil
// when nothing qualifies. Real races beat training-derived estimates;
// training runs must look race-like at all. Among the rest, more recent and
// faster evidence wins.
func SelectBaseline(candidates []BaselineCandidate, now time.Time) *BaselineRace {
	type scored struct {
		c     BaselineCandidate
		score float64
		conf  float64
	}
	var eligible []scored

	for _, c := range candidates {
		if c.DistanceKm <= 0 || c.DurationMin <= 0 {
			continue
		}
		if !c.FromRace && !RaceLike(c.DistanceKm, c.DurationMin) {
			continue
		}

		conf := 0.6
		if c.FromRace {
			conf = 0.9
		}

		// Recency decays linearly over a year; evidence older than that
		// still counts but weakly.
		age := now.Sub(c.Date).Hours() / 24
		recency := clamp(1-age/365, 0, 1)

		// Faster pace is mildly preferred: 3 min/km maps near 1, 8 near 0.
		pace := c.DurationMin / c.DistanceKm
		paceQuality := clamp((8-pace)/5, 0, 1)

		eligible = append(eligible, scored{
			c:     c,
			score: 0.6*conf + 0.2*paceQuality + 0.2*recency,
			conf:  conf,
		})
	}

	if len(eligible) == 0 {
		return nil
	}

	sort.Slice(eligible, func(i, j int) bool {
		if eligible[i].c.FromRace != eligible[j].c.FromRace {
			return eligible[i].c.FromRace
		}
		return eligible[i].score > eligible[j].score
	})

	best := eligible[0]
	return &BaselineRace{
		DistanceKm:   best.c.DistanceKm,
		TimeMin:      best.c.DurationMin,
		PaceMinPerKm: best.c.DurationMin / best.c.DistanceKm,
		Confidence:   best.conf,
		FromRace:     best.c.FromRace,
		Date:         best.c.Date,
	}
}
