package store

import (
	"database/sql"
	"errors"
	"time"

	"enduro/internal/engine"
)

// GetPerformanceModel loads the athlete's Riegel model, or ErrNoModel when
// none has been initialized yet.
func (s *Store) GetPerformanceModel(athleteID string) (*engine.PerformanceModel, error) {
	row := s.db.QueryRow(`
		SELECT baseline_distance_km, baseline_time_min, baseline_pace_min_km,
			baseline_confidence, baseline_from_race, baseline_date,
			performance_decay, calibration_count, confidence
		FROM performance_models
		WHERE athlete_id = ?
	`, athleteID)

	var m engine.PerformanceModel
	var fromRace int
	var date string
	err := row.Scan(&m.Baseline.DistanceKm, &m.Baseline.TimeMin, &m.Baseline.PaceMinPerKm,
		&m.Baseline.Confidence, &fromRace, &date,
		&m.PerformanceDecay, &m.CalibrationCount, &m.Confidence)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoModel
	}
	if err != nil {
		return nil, err
	}
	m.Baseline.FromRace = fromRace != 0
	m.Baseline.Date, err = time.Parse(time.RFC3339, date)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// SavePerformanceModel upserts the full model record.
func (s *Store) SavePerformanceModel(athleteID string, m engine.PerformanceModel) error {
	_, err := s.db.Exec(`
		INSERT INTO performance_models (athlete_id, baseline_distance_km, baseline_time_min,
			baseline_pace_min_km, baseline_confidence, baseline_from_race, baseline_date,
			performance_decay, calibration_count, confidence, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(athlete_id) DO UPDATE SET
			baseline_distance_km = excluded.baseline_distance_km,
			baseline_time_min = excluded.baseline_time_min,
			baseline_pace_min_km = excluded.baseline_pace_min_km,
			baseline_confidence = excluded.baseline_confidence,
			baseline_from_race = excluded.baseline_from_race,
			baseline_date = excluded.baseline_date,
			performance_decay = excluded.performance_decay,
			calibration_count = excluded.calibration_count,
			confidence = excluded.confidence,
			updated_at = CURRENT_TIMESTAMP
	`, athleteID, m.Baseline.DistanceKm, m.Baseline.TimeMin, m.Baseline.PaceMinPerKm,
		m.Baseline.Confidence, boolToInt(m.Baseline.FromRace), m.Baseline.Date.Format(time.RFC3339),
		m.PerformanceDecay, m.CalibrationCount, m.Confidence)
	return err
}

// GetCorrectionFactors loads the athlete's factors for a distance band,
// returning neutral factors when none are stored yet.
func (s *Store) GetCorrectionFactors(athleteID, band string) (engine.CorrectionFactors, error) {
	row := s.db.QueryRow(`
		SELECT terrain, heat, night, aid_station, base_fatigue, calibration_count, last_quality
		FROM correction_factors
		WHERE athlete_id = ? AND band = ?
	`, athleteID, band)

	f := engine.NewCorrectionFactors(athleteID, band)
	err := row.Scan(&f.Terrain, &f.Heat, &f.Night, &f.AidStation, &f.BaseFatigue,
		&f.CalibrationCount, &f.LastQuality)
	if errors.Is(err, sql.ErrNoRows) {
		return f, nil
	}
	if err != nil {
		return engine.CorrectionFactors{}, err
	}
	return f, nil
}

// SaveCorrectionFactors upserts the band's factors. Rows are never deleted.
func (s *Store) SaveCorrectionFactors(f engine.CorrectionFactors) error {
	_, err := s.db.Exec(`
		INSERT INTO correction_factors (athlete_id, band, terrain, heat, night, aid_station,
			base_fatigue, calibration_count, last_quality, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(athlete_id, band) DO UPDATE SET
			terrain = excluded.terrain,
			heat = excluded.heat,
			night = excluded.night,
			aid_station = excluded.aid_station,
			base_fatigue = excluded.base_fatigue,
			calibration_count = excluded.calibration_count,
			last_quality = excluded.last_quality,
			updated_at = CURRENT_TIMESTAMP
	`, f.AthleteID, f.Band, f.Terrain, f.Heat, f.Night, f.AidStation,
		f.BaseFatigue, f.CalibrationCount, f.LastQuality)
	return err
}
