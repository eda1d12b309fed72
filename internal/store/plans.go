package store

import (
	"fmt"
	"time"

	"enduro/internal/engine"
)

const weekFormat = "2006-01-02"

// GetWeekPlan loads the stored plan for the week starting at weekStart
// (a Monday). Returns ErrNoPlan when none exists yet.
func (s *Store) GetWeekPlan(athleteID string, weekStart time.Time) (engine.WeekPlan, error) {
	rows, err := s.db.Query(`
		SELECT weekday, day_type, target_km, title, COALESCE(note, '')
		FROM plan_days
		WHERE athlete_id = ? AND week_start = ?
		ORDER BY day_index ASC
	`, athleteID, weekStart.Format(weekFormat))
	if err != nil {
		return engine.WeekPlan{}, err
	}
	defer rows.Close()

	var plan engine.WeekPlan
	for rows.Next() {
		var d engine.DayPlan
		var dayType string
		if err := rows.Scan(&d.Weekday, &dayType, &d.TargetKm, &d.Title, &d.Note); err != nil {
			return engine.WeekPlan{}, err
		}
		d.Type = engine.DayType(dayType)
		plan.Days = append(plan.Days, d)
	}
	if err := rows.Err(); err != nil {
		return engine.WeekPlan{}, err
	}
	if len(plan.Days) == 0 {
		return engine.WeekPlan{}, ErrNoPlan
	}
	return plan, nil
}

// ReplaceWeekPlan writes the week's plan, superseding any previous plan for
// that week in one transaction. Plans are replaced, never merged; the caller
// must hold the per-athlete-week lock for the whole mutate-then-persist
// cycle (see service.CoachService).
func (s *Store) ReplaceWeekPlan(athleteID string, weekStart time.Time, plan engine.WeekPlan) error {
	if !plan.Valid() {
		return fmt.Errorf("refusing to persist invalid plan: %w", engine.ErrInvalidMutation)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	week := weekStart.Format(weekFormat)
	if _, err := tx.Exec(`DELETE FROM plan_days WHERE athlete_id = ? AND week_start = ?`, athleteID, week); err != nil {
		return err
	}

	for i, d := range plan.Days {
		_, err := tx.Exec(`
			INSERT INTO plan_days (athlete_id, week_start, day_index, weekday, day_type, target_km, title, note)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		`, athleteID, week, i, d.Weekday, string(d.Type), d.TargetKm, d.Title, d.Note)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}
