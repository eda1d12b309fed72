package service

import (
	"errors"
	"fmt"
	"log/slog"

	"enduro/internal/engine"
	"enduro/internal/store"
)

// CalibrationService folds real race results back into the performance model
// and the distance band's correction factors.
type CalibrationService struct {
	store *store.Store
	log   *slog.Logger
}

// NewCalibrationService creates a calibrator over the given store.
func NewCalibrationService(st *store.Store, log *slog.Logger) *CalibrationService {
	return &CalibrationService{store: st, log: log}
}

// CalibrationReport records what a RecordResult call changed.
type CalibrationReport struct {
	Band    string
	Decay   engine.CalibrationOutcome
	Factors engine.CalibrationOutcome
}

// RecordResult persists the actual finish time and runs both calibration
// tracks against the stored prediction. The result is always saved; when no
// prediction was made beforehand there is nothing to calibrate against and
// the report says so.
func (c *CalibrationService) RecordResult(athleteID, raceID string, actualMin float64, usedPaceProfile bool) (*CalibrationReport, error) {
	if actualMin <= 0 {
		return nil, fmt.Errorf("actual time must be positive, got %v", actualMin)
	}
	race, err := c.store.GetRace(raceID)
	if err != nil {
		return nil, fmt.Errorf("loading race: %w", err)
	}
	if err := c.store.SaveRaceResult(raceID, actualMin); err != nil {
		return nil, fmt.Errorf("persisting result: %w", err)
	}

	report := &CalibrationReport{Band: engine.DistanceBand(race.DistanceKm)}

	pred, err := c.store.LatestPrediction(raceID)
	if errors.Is(err, store.ErrNoPrediction) {
		reason := "no stored prediction to calibrate against"
		report.Decay = engine.CalibrationOutcome{Reason: reason}
		report.Factors = engine.CalibrationOutcome{Reason: reason}
		c.log.Info("result recorded without calibration", "race", race.Name, "actual_min", actualMin)
		return report, nil
	} else if err != nil {
		return nil, fmt.Errorf("loading prediction: %w", err)
	}

	meta := race.Meta(c.raceDayTempC(athleteID, raceID), usedPaceProfile)

	model, err := c.store.GetPerformanceModel(athleteID)
	if errors.Is(err, store.ErrNoModel) {
		model = nil
	} else if err != nil {
		return nil, fmt.Errorf("loading performance model: %w", err)
	}
	updatedModel, decayOutcome := engine.CalibrateDecay(model, pred.TimeMin, actualMin, meta)
	report.Decay = decayOutcome
	if decayOutcome.Applied {
		if err := c.store.SavePerformanceModel(athleteID, updatedModel); err != nil {
			return nil, fmt.Errorf("persisting performance model: %w", err)
		}
	}

	factors, err := c.store.GetCorrectionFactors(athleteID, report.Band)
	if err != nil {
		return nil, fmt.Errorf("loading correction factors: %w", err)
	}
	updatedFactors, factorOutcome := engine.CalibrateFactors(factors, pred.TimeMin, actualMin, meta)
	report.Factors = factorOutcome
	if factorOutcome.Applied {
		if err := c.store.SaveCorrectionFactors(updatedFactors); err != nil {
			return nil, fmt.Errorf("persisting correction factors: %w", err)
		}
	}

	c.log.Info("calibration complete",
		"athlete", athleteID,
		"race", race.Name,
		"predicted_min", pred.TimeMin,
		"actual_min", actualMin,
		"band", report.Band,
		"decay_applied", decayOutcome.Applied,
		"quality", factorOutcome.Quality,
	)
	return report, nil
}

// RecordRaceFeedback stores the post-race subjective report that lesson
// derivation mines.
func (c *CalibrationService) RecordRaceFeedback(athleteID string, fb engine.RaceFeedback) error {
	if fb.RaceID == "" {
		return fmt.Errorf("race id required")
	}
	if _, err := c.store.GetRace(fb.RaceID); err != nil {
		return fmt.Errorf("loading race: %w", err)
	}
	return c.store.SaveRaceFeedback(athleteID, fb)
}

// raceDayTempC pulls the temperature from recorded race feedback when the
// athlete reported one; calibration's heat gate otherwise stays closed.
func (c *CalibrationService) raceDayTempC(athleteID, raceID string) float64 {
	history, err := c.store.ListRaceFeedback(athleteID)
	if err != nil {
		c.log.Warn("loading race feedback for calibration", "error", err)
		return 0
	}
	for _, fb := range history {
		if fb.RaceID == raceID {
			return fb.TempC
		}
	}
	return 0
}
