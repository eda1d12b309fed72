package store

import (
	"database/sql"
	"time"

	"enduro/internal/engine"
)

// InsertActivity logs a training session.
func (s *Store) InsertActivity(a *Activity) error {
	res, err := s.db.Exec(`
		INSERT INTO activities (athlete_id, date, distance_km, duration_min, rpe, sleep_hours, hrv, heart_rate)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, a.AthleteID, a.Date.Format(time.RFC3339), a.DistanceKm, a.DurationMin, a.RPE, a.SleepHours, a.HRV, a.HeartRate)
	if err != nil {
		return err
	}
	a.ID, err = res.LastInsertId()
	return err
}

// ListActivitiesSince returns an athlete's activities on or after the given
// date, oldest first.
func (s *Store) ListActivitiesSince(athleteID string, since time.Time) ([]Activity, error) {
	rows, err := s.db.Query(`
		SELECT id, athlete_id, date, distance_km, duration_min, rpe, sleep_hours, hrv, heart_rate
		FROM activities
		WHERE athlete_id = ? AND date >= ?
		ORDER BY date ASC
	`, athleteID, since.Format(time.RFC3339))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanActivities(rows)
}

// WeeklyDistances sums logged distance per week for the trailing `weeks`
// weeks ending at `until`, oldest week first. Weeks with no activity
// contribute zero, so the chronic-load denominator reflects real gaps.
func (s *Store) WeeklyDistances(athleteID string, until time.Time, weeks int) ([]float64, error) {
	since := until.AddDate(0, 0, -7*weeks)
	acts, err := s.ListActivitiesSince(athleteID, since)
	if err != nil {
		return nil, err
	}

	sums := make([]float64, weeks)
	for _, a := range acts {
		idx := int(a.Date.Sub(since).Hours() / 24 / 7)
		if idx >= 0 && idx < weeks {
			sums[idx] += a.DistanceKm
		}
	}
	return sums, nil
}

// InsertSessionFeedback records a post-run subjective report.
func (s *Store) InsertSessionFeedback(athleteID string, fb engine.SessionFeedback) error {
	_, err := s.db.Exec(`
		INSERT INTO session_feedback (athlete_id, date, rpe, soreness)
		VALUES (?, ?, ?, ?)
	`, athleteID, fb.Date.Format(time.RFC3339), fb.RPE, fb.Soreness)
	return err
}

// ListSessionFeedbackSince returns subjective reports on or after the date.
func (s *Store) ListSessionFeedbackSince(athleteID string, since time.Time) ([]engine.SessionFeedback, error) {
	rows, err := s.db.Query(`
		SELECT date, rpe, soreness
		FROM session_feedback
		WHERE athlete_id = ? AND date >= ?
		ORDER BY date ASC
	`, athleteID, since.Format(time.RFC3339))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []engine.SessionFeedback
	for rows.Next() {
		var fb engine.SessionFeedback
		var date string
		if err := rows.Scan(&date, &fb.RPE, &fb.Soreness); err != nil {
			return nil, err
		}
		fb.Date, err = time.Parse(time.RFC3339, date)
		if err != nil {
			return nil, err
		}
		out = append(out, fb)
	}
	return out, rows.Err()
}

// Records converts stored activities into the engine's record shape.
func Records(acts []Activity) []engine.ActivityRecord {
	records := make([]engine.ActivityRecord, 0, len(acts))
	for _, a := range acts {
		records = append(records, engine.ActivityRecord{
			Date:       a.Date,
			DistanceKm: a.DistanceKm,
			RPE:        a.RPE,
			SleepHours: a.SleepHours,
			HRV:        a.HRV,
			HeartRate:  a.HeartRate,
		})
	}
	return records
}

func scanActivities(rows *sql.Rows) ([]Activity, error) {
	var out []Activity
	for rows.Next() {
		var a Activity
		var date string
		if err := rows.Scan(&a.ID, &a.AthleteID, &date, &a.DistanceKm, &a.DurationMin,
			&a.RPE, &a.SleepHours, &a.HRV, &a.HeartRate); err != nil {
			return nil, err
		}
		parsed, err := time.Parse(time.RFC3339, date)
		if err != nil {
			return nil, err
		}
		a.Date = parsed
		out = append(out, a)
	}
	return out, rows.Err()
}
