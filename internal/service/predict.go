package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"enduro/internal/engine"
	"enduro/internal/store"
)

// RaceService produces race forecasts: a time prediction plus a per-km
// simulation of three pacing strategies under expected conditions.
type RaceService struct {
	store    *store.Store
	log      *slog.Logger
	weather  WeatherOracle
	fallback Weather
}

// NewRaceService creates a race forecaster. oracle may be nil; forecasts then
// use the fallback conditions.
func NewRaceService(st *store.Store, log *slog.Logger, oracle WeatherOracle, fallback Weather) *RaceService {
	return &RaceService{store: st, log: log, weather: oracle, fallback: fallback}
}

// RaceForecast bundles everything PredictRace produced.
type RaceForecast struct {
	Race       store.Race
	Baseline   engine.BaselineRace
	Prediction engine.Prediction
	Band       string
	Factors    engine.CorrectionFactors
	Weather    Weather
	Strategies []engine.SimulationResult
}

// PredictRace forecasts the race with the given ID, or the athlete's next
// scheduled race when raceID is empty. The raw prediction is adjusted by the
// distance band's learned correction factors before simulation.
func (r *RaceService) PredictRace(ctx context.Context, athleteID, raceID string, now time.Time) (*RaceForecast, error) {
	var race *store.Race
	var err error
	if raceID != "" {
		race, err = r.store.GetRace(raceID)
	} else {
		race, err = r.store.NextRace(athleteID, now)
	}
	if err != nil {
		return nil, fmt.Errorf("loading race: %w", err)
	}

	baseline, err := r.selectBaseline(athleteID, now)
	if err != nil {
		return nil, err
	}

	// The model carries the learned decay exponent across races; the anchor
	// itself is re-selected every forecast so fresher evidence wins.
	model, err := r.store.GetPerformanceModel(athleteID)
	if errors.Is(err, store.ErrNoModel) {
		m := engine.NewPerformanceModel(*baseline)
		model = &m
	} else if err != nil {
		return nil, fmt.Errorf("loading performance model: %w", err)
	}
	model.Baseline = *baseline
	if err := r.store.SavePerformanceModel(athleteID, *model); err != nil {
		return nil, fmt.Errorf("persisting performance model: %w", err)
	}

	pred, err := engine.Predict(race.Engine(), baseline, model.PerformanceDecay)
	if err != nil {
		return nil, fmt.Errorf("predicting %s: %w", race.Name, err)
	}

	weather := r.conditions(ctx, race)

	band := engine.DistanceBand(race.DistanceKm)
	factors, err := r.store.GetCorrectionFactors(athleteID, band)
	if err != nil {
		return nil, fmt.Errorf("loading correction factors: %w", err)
	}
	pred.TimeMin = engine.ApplyFactors(pred.TimeMin, factors, race.Meta(weather.TempC, false))

	if err := r.store.SavePrediction(race.ID, pred); err != nil {
		return nil, fmt.Errorf("persisting prediction: %w", err)
	}

	strategies := engine.SimulateStrategies(engine.SimulationInput{
		DistanceKm:  race.DistanceKm,
		DurationMin: pred.TimeMin,
		Nutrition: engine.NutritionPlan{
			CarbsGramsPerHour: DefaultCarbsPerHour,
			FluidMlPerHour:    DefaultFluidPerHour,
			SodiumMgPerHour:   DefaultSodiumPerHour,
		},
		TempC:       weather.TempC,
		HumidityPct: weather.HumidityPct,
		Readiness:   DefaultRaceReadiness,
	})

	r.log.Info("race forecast",
		"athlete", athleteID,
		"race", race.Name,
		"method", pred.Method,
		"time_min", pred.TimeMin,
		"confidence", pred.Confidence,
		"band", band,
	)
	return &RaceForecast{
		Race:       *race,
		Baseline:   *baseline,
		Prediction: pred,
		Band:       band,
		Factors:    factors,
		Weather:    weather,
		Strategies: strategies,
	}, nil
}

// Simulate runs a one-off simulation with explicit inputs, warning (but not
// failing) on out-of-range values, which are clamped.
func (r *RaceService) Simulate(in engine.SimulationInput, strategy engine.PacingStrategy) engine.SimulationResult {
	if err := engine.StrictValidate(in); err != nil {
		r.log.Warn("simulation input out of range, clamping", "error", err)
	}
	return engine.Simulate(in, strategy)
}

// selectBaseline gathers race results and race-like training efforts from
// the trailing year and picks the strongest anchor.
func (r *RaceService) selectBaseline(athleteID string, now time.Time) (*engine.BaselineRace, error) {
	candidates, err := r.store.ListRaceResults(athleteID)
	if err != nil {
		return nil, fmt.Errorf("loading race results: %w", err)
	}

	acts, err := r.store.ListActivitiesSince(athleteID, now.AddDate(0, 0, -BaselineLookbackDays))
	if err != nil {
		return nil, fmt.Errorf("loading activities: %w", err)
	}
	for _, a := range acts {
		if engine.RaceLike(a.DistanceKm, a.DurationMin) {
			candidates = append(candidates, engine.BaselineCandidate{
				DistanceKm:  a.DistanceKm,
				DurationMin: a.DurationMin,
				Date:        a.Date,
				FromRace:    false,
			})
		}
	}

	baseline := engine.SelectBaseline(candidates, now)
	if baseline == nil {
		return nil, fmt.Errorf("no race results or race-like efforts on record: %w", engine.ErrInsufficientData)
	}
	return baseline, nil
}

// conditions asks the oracle for race-day weather, degrading to the
// configured fallback when no oracle is set, the race has no location, or
// the lookup fails.
func (r *RaceService) conditions(ctx context.Context, race *store.Race) Weather {
	if r.weather == nil || race.LocationLat == nil || race.LocationLon == nil {
		return r.fallback
	}
	w, err := r.weather.Current(ctx, *race.LocationLat, *race.LocationLon)
	if err != nil {
		r.log.Warn("weather lookup failed, using defaults", "race", race.Name, "error", err)
		return r.fallback
	}
	return w
}
