package engine

import (
	"fmt"
	"math"
)

// PacingStrategy selects one of the canonical pacing curves.
type PacingStrategy string

const (
	StrategyConservative PacingStrategy = "conservative"
	StrategyTarget       PacingStrategy = "target"
	StrategyAggressive   PacingStrategy = "aggressive"
)

// CanonicalStrategies are simulated side by side for comparison.
var CanonicalStrategies = []PacingStrategy{StrategyConservative, StrategyTarget, StrategyAggressive}

// strategyFactors modulate pace, energy cost and fatigue accumulation.
type strategyFactors struct {
	pace    float64 // multiplier on average pace (>1 = slower)
	energy  float64 // multiplier on glycogen depletion
	fatigue float64 // multiplier on fatigue accumulation
}

var strategyTable = map[PacingStrategy]strategyFactors{
	StrategyConservative: {pace: 1.05, energy: 0.90, fatigue: 0.85},
	StrategyTarget:       {pace: 1.00, energy: 1.00, fatigue: 1.00},
	StrategyAggressive:   {pace: 0.95, energy: 1.15, fatigue: 1.25},
}

// Simulation model constants. Tuned against marathon and 50-100km field
// data; the bonk threshold and the squared penalty shape matter more than
// the exact slopes.
const (
	baseGlycogenPerKm  = 2.4  // % depleted per km at target intensity
	carbGramPct        = 0.15 // % glycogen restored per gram of carbs
	bonkThresholdPct   = 25.0
	bonkPenaltyPerKm   = 3.0 // extra fatigue/km at full depletion
	baseFatigueShare   = 0.70
	exhaustionFatigue  = 95.0
	exhaustionGlycogen = 5.0
	bodyMassKg         = 70.0
	sweatSodiumMgPerL  = 800.0

	// Input clamp bounds.
	minPaceMinPerKm = 2.5
	maxPaceMinPerKm = 15.0
	minTempC        = -20.0
	maxTempC        = 45.0
	maxCarbsPerHour = 120.0
	maxFluidPerHour = 1500.0
	maxSodiumPerHr  = 1500.0
)

// NutritionPlan is the planned hourly intake during the race.
type NutritionPlan struct {
	CarbsGramsPerHour float64
	FluidMlPerHour    float64
	SodiumMgPerHour   float64
}

// PaceSegment is one kilometer of an explicit pacing plan.
type PaceSegment struct {
	Km           int // 1-based kilometer index
	PaceMinPerKm float64
}

// SimulationInput parameterizes one race simulation. Out-of-range values are
// clamped at entry; use StrictValidate first to warn instead.
type SimulationInput struct {
	DistanceKm  float64
	DurationMin float64 // expected finish time at target pacing
	Nutrition   NutritionPlan
	TempC       float64
	HumidityPct float64
	Readiness   float64 // 0 wrecked .. 1 fully fresh
	// Segments, when set, replaces the fixed strategy curve with explicit
	// per-kilometer pacing.
	Segments []PaceSegment
}

// StrictValidate reports out-of-range inputs without clamping them, for
// callers that want to warn the user before simulating.
func StrictValidate(in SimulationInput) error {
	pace := 0.0
	if in.DistanceKm > 0 {
		pace = in.DurationMin / in.DistanceKm
	}
	switch {
	case in.DistanceKm <= 0:
		return fmt.Errorf("distance must be positive, got %.1f", in.DistanceKm)
	case pace < minPaceMinPerKm || pace > maxPaceMinPerKm:
		return fmt.Errorf("pace %.2f min/km outside plausible range %.1f-%.1f", pace, minPaceMinPerKm, maxPaceMinPerKm)
	case in.HumidityPct < 0 || in.HumidityPct > 100:
		return fmt.Errorf("humidity %.0f%% outside 0-100", in.HumidityPct)
	case in.TempC < minTempC || in.TempC > maxTempC:
		return fmt.Errorf("temperature %.1fC outside %.0f-%.0f", in.TempC, minTempC, maxTempC)
	case in.Readiness < 0 || in.Readiness > 1:
		return fmt.Errorf("readiness %.2f outside 0-1", in.Readiness)
	}
	return nil
}

func clampInput(in SimulationInput) SimulationInput {
	if in.DistanceKm < 1 {
		in.DistanceKm = 1
	}
	pace := in.DurationMin / in.DistanceKm
	pace = clamp(pace, minPaceMinPerKm, maxPaceMinPerKm)
	in.DurationMin = pace * in.DistanceKm
	in.TempC = clamp(in.TempC, minTempC, maxTempC)
	in.HumidityPct = clamp(in.HumidityPct, 0, 100)
	in.Readiness = clamp(in.Readiness, 0, 1)
	in.Nutrition.CarbsGramsPerHour = clamp(in.Nutrition.CarbsGramsPerHour, 0, maxCarbsPerHour)
	in.Nutrition.FluidMlPerHour = clamp(in.Nutrition.FluidMlPerHour, 0, maxFluidPerHour)
	in.Nutrition.SodiumMgPerHour = clamp(in.Nutrition.SodiumMgPerHour, 0, maxSodiumPerHr)
	return in
}

// HeatIndex collapses temperature and humidity into one stress number.
// Below 20C humidity contributes nothing.
func HeatIndex(tempC, humidityPct float64) float64 {
	return tempC + (humidityPct/100)*math.Max(0, tempC-20)*0.5
}

// KmState is the simulation state at the end of one kilometer.
type KmState struct {
	Km             int
	GlycogenPct    float64
	FatiguePct     float64
	PaceMinPerKm   float64
	FluidDeficitMl float64
}

// HydrationStatus is the end-of-race fluid and sodium picture.
type HydrationStatus struct {
	FluidDeficitMl     float64
	SodiumDeficitMg    float64
	DehydrationPct     float64
	SweatRateMlPerHour float64
}

// SimulationResult is the full outcome of one simulation run. Pure output;
// nothing is persisted.
type SimulationResult struct {
	Strategy           PacingStrategy
	Series             []KmState
	TimeToExhaustionKm float64
	Hydration          HydrationStatus
	GIRisk             float64 // 0-100
	PerformancePenalty float64 // percent added to base time
	AdjustedTimeMin    float64
}

// Simulate runs the per-kilometer physiological model under one canonical
// pacing strategy. Deterministic: same input, same output.
func Simulate(in SimulationInput, strategy PacingStrategy) SimulationResult {
	in = clampInput(in)
	f, ok := strategyTable[strategy]
	if !ok {
		strategy = StrategyTarget
		f = strategyTable[strategy]
	}
	basePace := in.DurationMin / in.DistanceKm
	paceFor := func(int) float64 { return basePace * f.pace }
	intensityFor := func(int) (energy, fatigue float64) { return f.energy, f.fatigue }
	return run(in, strategy, paceFor, intensityFor)
}

// SimulateSegments runs a single simulation over an explicit per-kilometer
// pacing plan. Local intensity is the ratio of average pace to segment pace:
// kilometers faster than average cost disproportionately more.
func SimulateSegments(in SimulationInput) SimulationResult {
	in = clampInput(in)
	basePace := in.DurationMin / in.DistanceKm

	paces := make(map[int]float64, len(in.Segments))
	for _, s := range in.Segments {
		paces[s.Km] = clamp(s.PaceMinPerKm, minPaceMinPerKm, maxPaceMinPerKm)
	}
	paceFor := func(km int) float64 {
		if p, ok := paces[km]; ok {
			return p
		}
		return basePace
	}
	intensityFor := func(km int) (float64, float64) {
		ratio := basePace / paceFor(km)
		return math.Pow(ratio, 1.5), math.Pow(ratio, 2)
	}
	return run(in, StrategyTarget, paceFor, intensityFor)
}

// SimulateStrategies runs all three canonical strategies for comparison.
func SimulateStrategies(in SimulationInput) []SimulationResult {
	results := make([]SimulationResult, 0, len(CanonicalStrategies))
	for _, s := range CanonicalStrategies {
		results = append(results, Simulate(in, s))
	}
	return results
}

func run(in SimulationInput, strategy PacingStrategy, paceFor func(int) float64, intensityFor func(int) (float64, float64)) SimulationResult {
	heat := HeatIndex(in.TempC, in.HumidityPct)
	heatEnergyMod := 1 + 0.01*math.Max(0, heat-20)
	heatFatigueMod := 1 + 0.02*math.Max(0, heat-22)
	humidityMod := 1 + 0.002*math.Max(0, in.HumidityPct-60)
	readinessEnergyMod := 1 + 0.2*(1-in.Readiness)
	readinessFatigueMod := 1 + 0.3*(1-in.Readiness)
	sweatRate := 600 + 25*math.Max(0, heat-10) // ml/hr

	kms := int(math.Ceil(in.DistanceKm))
	baseFatiguePerKm := 100 / in.DistanceKm * baseFatigueShare

	glycogen := 100.0
	fatigue := 0.0
	var fluidDeficit, sodiumDeficit, elapsedMin float64
	exhaustionKm := in.DistanceKm

	series := make([]KmState, 0, kms)
	exhausted := false

	for km := 1; km <= kms; km++ {
		pace := paceFor(km)
		energyF, fatigueF := intensityFor(km)
		elapsedMin += pace

		// Hydration balance for this kilometer.
		sweat := sweatRate / 60 * pace
		intake := in.Nutrition.FluidMlPerHour / 60 * pace
		fluidDeficit += math.Max(0, sweat-intake)
		sodiumLoss := sweat / 1000 * sweatSodiumMgPerL
		sodiumIn := in.Nutrition.SodiumMgPerHour / 60 * pace
		sodiumDeficit += math.Max(0, sodiumLoss-sodiumIn)

		dehydrationPct := fluidDeficit / (bodyMassKg * 10)
		dehydrationMod := math.Min(1.5, 1+0.08*dehydrationPct)

		// Glycogen: base depletion modulated by intensity, heat and
		// readiness, replenished from fueling.
		depletion := baseGlycogenPerKm * energyF * heatEnergyMod * readinessEnergyMod
		replenish := in.Nutrition.CarbsGramsPerHour / 60 * pace * carbGramPct
		glycogen = clamp(glycogen-depletion+replenish, 0, 100)

		// Fatigue: modulated rate plus a squared penalty once glycogen is
		// below the bonk threshold.
		rate := baseFatiguePerKm * fatigueF * heatFatigueMod * humidityMod * readinessFatigueMod * dehydrationMod
		if glycogen < bonkThresholdPct {
			short := (bonkThresholdPct - glycogen) / bonkThresholdPct
			rate += short * short * bonkPenaltyPerKm
		}
		fatigue = clamp(fatigue+rate, 0, 100)

		if !exhausted && (fatigue >= exhaustionFatigue || glycogen <= exhaustionGlycogen) {
			// The final step may only be a partial kilometer.
			exhaustionKm = math.Min(float64(km), in.DistanceKm)
			exhausted = true
		}

		series = append(series, KmState{
			Km:             km,
			GlycogenPct:    glycogen,
			FatiguePct:     fatigue,
			PaceMinPerKm:   pace,
			FluidDeficitMl: fluidDeficit,
		})
	}

	hydration := HydrationStatus{
		FluidDeficitMl:     fluidDeficit,
		SodiumDeficitMg:    sodiumDeficit,
		DehydrationPct:     fluidDeficit / (bodyMassKg * 10),
		SweatRateMlPerHour: sweatRate,
	}

	intensity, _ := intensityFor(1)
	giRisk := giDistressRisk(in.Nutrition, heat, intensity)
	penalty := performancePenalty(heat, hydration.DehydrationPct, in.Nutrition.CarbsGramsPerHour, fatigue)

	return SimulationResult{
		Strategy:           strategy,
		Series:             series,
		TimeToExhaustionKm: exhaustionKm,
		Hydration:          hydration,
		GIRisk:             giRisk,
		PerformancePenalty: penalty,
		AdjustedTimeMin:    elapsedMin * (1 + penalty/100),
	}
}

// giDistressRisk is a thresholded weighted sum: aggressive fueling, heat,
// high intensity and heavy fluid intake each add risk independently.
func giDistressRisk(n NutritionPlan, heatIndex, intensity float64) float64 {
	risk := 0.0
	if n.CarbsGramsPerHour > 90 {
		risk += (n.CarbsGramsPerHour - 90) * 1.5
	}
	if heatIndex > 27 {
		risk += (heatIndex - 27) * 3
	}
	if intensity > 1.1 {
		risk += 20
	}
	if n.FluidMlPerHour > 800 {
		risk += (n.FluidMlPerHour - 800) * 0.05
	}
	return clamp(risk, 0, 100)
}

// performancePenalty aggregates individually thresholded penalties into a
// percentage added multiplicatively to base predicted time.
func performancePenalty(heatIndex, dehydrationPct, carbsPerHour, endFatigue float64) float64 {
	penalty := 0.0
	if heatIndex > 25 {
		penalty += (heatIndex - 25) * 0.8
	}
	if dehydrationPct > 2 {
		penalty += (dehydrationPct - 2) * 1.5
	}
	if carbsPerHour < 40 {
		penalty += (40 - carbsPerHour) * 0.1
	}
	if endFatigue > 80 {
		penalty += (endFatigue - 80) * 0.2
	}
	return penalty
}
