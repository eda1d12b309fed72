package store

import "database/sql"

// migrate runs all database migrations
func migrate(db *sql.DB) error {
	migrations := []string{
		// Logged training sessions. Immutable once written.
		`CREATE TABLE IF NOT EXISTS activities (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			athlete_id TEXT NOT NULL,
			date TEXT NOT NULL,
			distance_km REAL NOT NULL,
			duration_min REAL NOT NULL,
			rpe REAL,
			sleep_hours REAL,
			hrv REAL,
			heart_rate REAL,
			created_at TEXT DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE INDEX IF NOT EXISTS idx_activities_athlete_date ON activities(athlete_id, date)`,

		// Post-run subjective reports feeding the fatigue feedback bump.
		`CREATE TABLE IF NOT EXISTS session_feedback (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			athlete_id TEXT NOT NULL,
			date TEXT NOT NULL,
			rpe REAL NOT NULL,
			soreness REAL NOT NULL
		)`,

		`CREATE INDEX IF NOT EXISTS idx_session_feedback_athlete_date ON session_feedback(athlete_id, date)`,

		// Athlete state (learned weights + health), singleton row per athlete.
		`CREATE TABLE IF NOT EXISTS athlete_state (
			athlete_id TEXT PRIMARY KEY,
			weight_sleep REAL NOT NULL,
			weight_hrv REAL NOT NULL,
			weight_rpe REAL NOT NULL,
			weight_race_proximity REAL NOT NULL,
			health_state TEXT NOT NULL,
			updated_at TEXT DEFAULT CURRENT_TIMESTAMP
		)`,

		// Week plans, one row per day. Replaced wholesale each cycle.
		`CREATE TABLE IF NOT EXISTS plan_days (
			athlete_id TEXT NOT NULL,
			week_start TEXT NOT NULL,
			day_index INTEGER NOT NULL CHECK (day_index BETWEEN 0 AND 6),
			weekday TEXT NOT NULL,
			day_type TEXT NOT NULL,
			target_km REAL NOT NULL,
			title TEXT NOT NULL,
			note TEXT,
			PRIMARY KEY (athlete_id, week_start, day_index)
		)`,

		// Upcoming and past races.
		`CREATE TABLE IF NOT EXISTS races (
			id TEXT PRIMARY KEY,
			athlete_id TEXT NOT NULL,
			name TEXT NOT NULL,
			distance_km REAL NOT NULL,
			elevation_gain_m REAL NOT NULL DEFAULT 0,
			surface TEXT NOT NULL DEFAULT 'road',
			date TEXT NOT NULL,
			priority TEXT NOT NULL DEFAULT 'B',
			route_estimate_min REAL,
			route_estimate_corrected INTEGER NOT NULL DEFAULT 0,
			manual_estimate_min REAL,
			night INTEGER NOT NULL DEFAULT 0,
			aid_stations INTEGER NOT NULL DEFAULT 0,
			location_lat REAL,
			location_lon REAL,
			created_at TEXT DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE INDEX IF NOT EXISTS idx_races_athlete_date ON races(athlete_id, date)`,

		// Predictions persisted at prediction time so calibration can
		// compare against what was actually forecast.
		`CREATE TABLE IF NOT EXISTS race_predictions (
			race_id TEXT NOT NULL,
			time_min REAL NOT NULL,
			method TEXT NOT NULL,
			confidence TEXT NOT NULL,
			created_at TEXT DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (race_id) REFERENCES races(id) ON DELETE CASCADE
		)`,

		`CREATE INDEX IF NOT EXISTS idx_race_predictions_race ON race_predictions(race_id, created_at)`,

		// Ground-truth results.
		`CREATE TABLE IF NOT EXISTS race_results (
			race_id TEXT PRIMARY KEY,
			actual_min REAL NOT NULL,
			recorded_at TEXT DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (race_id) REFERENCES races(id) ON DELETE CASCADE
		)`,

		// Post-race feedback mined for lessons.
		`CREATE TABLE IF NOT EXISTS race_feedback (
			race_id TEXT PRIMARY KEY,
			athlete_id TEXT NOT NULL,
			completed INTEGER NOT NULL,
			rpe REAL NOT NULL,
			issues TEXT NOT NULL DEFAULT '',
			temp_c REAL NOT NULL DEFAULT 0,
			humidity_pct REAL NOT NULL DEFAULT 0,
			FOREIGN KEY (race_id) REFERENCES races(id) ON DELETE CASCADE
		)`,

		`CREATE INDEX IF NOT EXISTS idx_race_feedback_athlete ON race_feedback(athlete_id)`,

		// Riegel model, singleton per athlete. Updated additively.
		`CREATE TABLE IF NOT EXISTS performance_models (
			athlete_id TEXT PRIMARY KEY,
			baseline_distance_km REAL NOT NULL,
			baseline_time_min REAL NOT NULL,
			baseline_pace_min_km REAL NOT NULL,
			baseline_confidence REAL NOT NULL,
			baseline_from_race INTEGER NOT NULL,
			baseline_date TEXT NOT NULL,
			performance_decay REAL NOT NULL,
			calibration_count INTEGER NOT NULL DEFAULT 0,
			confidence REAL NOT NULL DEFAULT 0,
			updated_at TEXT DEFAULT CURRENT_TIMESTAMP
		)`,

		// Per-distance-band correction multipliers. Upserted, never deleted.
		`CREATE TABLE IF NOT EXISTS correction_factors (
			athlete_id TEXT NOT NULL,
			band TEXT NOT NULL,
			terrain REAL NOT NULL DEFAULT 1,
			heat REAL NOT NULL DEFAULT 1,
			night REAL NOT NULL DEFAULT 1,
			aid_station REAL NOT NULL DEFAULT 1,
			base_fatigue REAL NOT NULL DEFAULT 1,
			calibration_count INTEGER NOT NULL DEFAULT 0,
			last_quality REAL NOT NULL DEFAULT 0,
			updated_at TEXT DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (athlete_id, band)
		)`,
	}

	for _, m := range migrations {
		if _, err := db.Exec(m); err != nil {
			return err
		}
	}
	return nil
}
