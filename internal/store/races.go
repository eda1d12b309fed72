package store

import (
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"enduro/internal/engine"
)

// CreateRace stores a race, minting an ID when none is supplied.
func (s *Store) CreateRace(r *Race) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	_, err := s.db.Exec(`
		INSERT INTO races (id, athlete_id, name, distance_km, elevation_gain_m, surface, date, priority,
			route_estimate_min, route_estimate_corrected, manual_estimate_min, night, aid_stations,
			location_lat, location_lon)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, r.ID, r.AthleteID, r.Name, r.DistanceKm, r.ElevationGainM, r.Surface,
		r.Date.Format(time.RFC3339), r.Priority, r.RouteEstimateMin,
		boolToInt(r.RouteEstimateCorrected), r.ManualEstimateMin,
		boolToInt(r.Night), r.AidStations, r.LocationLat, r.LocationLon)
	return err
}

// GetRace retrieves a race by ID.
func (s *Store) GetRace(id string) (*Race, error) {
	row := s.db.QueryRow(`
		SELECT id, athlete_id, name, distance_km, elevation_gain_m, surface, date, priority,
			route_estimate_min, route_estimate_corrected, manual_estimate_min, night, aid_stations,
			location_lat, location_lon
		FROM races
		WHERE id = ?
	`, id)
	return scanRace(row)
}

// NextRace returns the athlete's next race on or after the given time, or
// ErrRaceNotFound when nothing is scheduled.
func (s *Store) NextRace(athleteID string, after time.Time) (*Race, error) {
	row := s.db.QueryRow(`
		SELECT id, athlete_id, name, distance_km, elevation_gain_m, surface, date, priority,
			route_estimate_min, route_estimate_corrected, manual_estimate_min, night, aid_stations,
			location_lat, location_lon
		FROM races
		WHERE athlete_id = ? AND date >= ?
		ORDER BY date ASC
		LIMIT 1
	`, athleteID, after.Format(time.RFC3339))
	return scanRace(row)
}

func scanRace(row *sql.Row) (*Race, error) {
	var r Race
	var date string
	var corrected, night int
	err := row.Scan(&r.ID, &r.AthleteID, &r.Name, &r.DistanceKm, &r.ElevationGainM, &r.Surface,
		&date, &r.Priority, &r.RouteEstimateMin, &corrected, &r.ManualEstimateMin,
		&night, &r.AidStations, &r.LocationLat, &r.LocationLon)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRaceNotFound
	}
	if err != nil {
		return nil, err
	}
	r.Date, err = time.Parse(time.RFC3339, date)
	if err != nil {
		return nil, err
	}
	r.RouteEstimateCorrected = corrected != 0
	r.Night = night != 0
	return &r, nil
}

// Engine converts a stored race into the engine's race shape.
func (r *Race) Engine() engine.Race {
	return engine.Race{
		ID:                     r.ID,
		Name:                   r.Name,
		DistanceKm:             r.DistanceKm,
		ElevationGainM:         r.ElevationGainM,
		Surface:                r.Surface,
		Date:                   r.Date,
		Priority:               r.Priority,
		RouteEstimateMin:       r.RouteEstimateMin,
		RouteEstimateCorrected: r.RouteEstimateCorrected,
		ManualEstimateMin:      r.ManualEstimateMin,
	}
}

// Meta converts a stored race into calibration metadata. Temperature comes
// from race-day conditions the caller knows about, not from the record.
func (r *Race) Meta(tempC float64, usedPaceProfile bool) engine.RaceMeta {
	return engine.RaceMeta{
		DistanceKm:      r.DistanceKm,
		ElevationGainM:  r.ElevationGainM,
		Surface:         r.Surface,
		TempC:           tempC,
		Night:           r.Night,
		AidStations:     r.AidStations,
		UsedPaceProfile: usedPaceProfile,
	}
}

// SavePrediction persists a forecast for later calibration.
func (s *Store) SavePrediction(raceID string, p engine.Prediction) error {
	_, err := s.db.Exec(`
		INSERT INTO race_predictions (race_id, time_min, method, confidence)
		VALUES (?, ?, ?, ?)
	`, raceID, p.TimeMin, string(p.Method), p.Confidence)
	return err
}

// LatestPrediction returns the most recent stored forecast for a race.
func (s *Store) LatestPrediction(raceID string) (*RacePrediction, error) {
	row := s.db.QueryRow(`
		SELECT race_id, time_min, method, confidence
		FROM race_predictions
		WHERE race_id = ?
		ORDER BY created_at DESC, rowid DESC
		LIMIT 1
	`, raceID)

	var p RacePrediction
	err := row.Scan(&p.RaceID, &p.TimeMin, &p.Method, &p.Confidence)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoPrediction
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// SaveRaceResult records the ground-truth finish time.
func (s *Store) SaveRaceResult(raceID string, actualMin float64) error {
	_, err := s.db.Exec(`
		INSERT INTO race_results (race_id, actual_min)
		VALUES (?, ?)
		ON CONFLICT(race_id) DO UPDATE SET actual_min = excluded.actual_min, recorded_at = CURRENT_TIMESTAMP
	`, raceID, actualMin)
	return err
}

// ListRaceResults returns (race, result) pairs for baseline selection,
// oldest first.
func (s *Store) ListRaceResults(athleteID string) ([]engine.BaselineCandidate, error) {
	rows, err := s.db.Query(`
		SELECT r.distance_km, res.actual_min, r.date
		FROM race_results res
		JOIN races r ON r.id = res.race_id
		WHERE r.athlete_id = ?
		ORDER BY r.date ASC
	`, athleteID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []engine.BaselineCandidate
	for rows.Next() {
		var c engine.BaselineCandidate
		var date string
		if err := rows.Scan(&c.DistanceKm, &c.DurationMin, &date); err != nil {
			return nil, err
		}
		c.Date, err = time.Parse(time.RFC3339, date)
		if err != nil {
			return nil, err
		}
		c.FromRace = true
		out = append(out, c)
	}
	return out, rows.Err()
}

// SaveRaceFeedback stores the post-race report (one per race).
func (s *Store) SaveRaceFeedback(athleteID string, fb engine.RaceFeedback) error {
	_, err := s.db.Exec(`
		INSERT INTO race_feedback (race_id, athlete_id, completed, rpe, issues, temp_c, humidity_pct)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(race_id) DO UPDATE SET
			completed = excluded.completed,
			rpe = excluded.rpe,
			issues = excluded.issues,
			temp_c = excluded.temp_c,
			humidity_pct = excluded.humidity_pct
	`, fb.RaceID, athleteID, boolToInt(fb.Completed), fb.RPE,
		strings.Join(fb.Issues, ","), fb.TempC, fb.HumidityPct)
	return err
}

// ListRaceFeedback returns the athlete's complete feedback history joined
// with race metadata, oldest first. This is the lesson deriver's input.
func (s *Store) ListRaceFeedback(athleteID string) ([]engine.RaceFeedback, error) {
	rows, err := s.db.Query(`
		SELECT f.race_id, r.date, r.priority, f.completed, f.rpe, f.issues,
			f.temp_c, f.humidity_pct, r.surface, r.elevation_gain_m
		FROM race_feedback f
		JOIN races r ON r.id = f.race_id
		WHERE f.athlete_id = ?
		ORDER BY r.date ASC
	`, athleteID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []engine.RaceFeedback
	for rows.Next() {
		var fb engine.RaceFeedback
		var date, issues string
		var completed int
		if err := rows.Scan(&fb.RaceID, &date, &fb.Priority, &completed, &fb.RPE, &issues,
			&fb.TempC, &fb.HumidityPct, &fb.Surface, &fb.ElevationGainM); err != nil {
			return nil, err
		}
		fb.Date, err = time.Parse(time.RFC3339, date)
		if err != nil {
			return nil, err
		}
		fb.Completed = completed != 0
		if issues != "" {
			fb.Issues = strings.Split(issues, ",")
		}
		out = append(out, fb)
	}
	return out, rows.Err()
}
