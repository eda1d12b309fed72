package store

import "time"

// Activity is a logged training session. Immutable once written; the
// engine consumes it read-only.
type Activity struct {
	ID          int64     `db:"id"`
	AthleteID   string    `db:"athlete_id"`
	Date        time.Time `db:"date"`
	DistanceKm  float64   `db:"distance_km"`
	DurationMin float64   `db:"duration_min"`
	RPE         *float64  `db:"rpe"`         // 1-10, nullable
	SleepHours  *float64  `db:"sleep_hours"` // nullable
	HRV         *float64  `db:"hrv"`         // nullable
	HeartRate   *float64  `db:"heart_rate"`  // bpm, nullable
}

// AthleteState is the persisted learned state for one athlete.
type AthleteState struct {
	AthleteID           string  `db:"athlete_id"`
	WeightSleep         float64 `db:"weight_sleep"`
	WeightHRV           float64 `db:"weight_hrv"`
	WeightRPE           float64 `db:"weight_rpe"`
	WeightRaceProximity float64 `db:"weight_race_proximity"`
	HealthState         string  `db:"health_state"`
}

// Race is a stored race record.
type Race struct {
	ID                     string    `db:"id"`
	AthleteID              string    `db:"athlete_id"`
	Name                   string    `db:"name"`
	DistanceKm             float64   `db:"distance_km"`
	ElevationGainM         float64   `db:"elevation_gain_m"`
	Surface                string    `db:"surface"`
	Date                   time.Time `db:"date"`
	Priority               string    `db:"priority"`
	RouteEstimateMin       *float64  `db:"route_estimate_min"`
	RouteEstimateCorrected bool      `db:"route_estimate_corrected"`
	ManualEstimateMin      *float64  `db:"manual_estimate_min"`
	Night                  bool      `db:"night"`
	AidStations            int       `db:"aid_stations"`
	LocationLat            *float64  `db:"location_lat"`
	LocationLon            *float64  `db:"location_lon"`
}

// RacePrediction is a prediction persisted at forecast time, so later
// calibration compares against what was actually predicted.
type RacePrediction struct {
	RaceID     string    `db:"race_id"`
	TimeMin    float64   `db:"time_min"`
	Method     string    `db:"method"`
	Confidence string    `db:"confidence"`
	CreatedAt  time.Time `db:"created_at"`
}

// RaceResult is the ground-truth outcome of a race.
type RaceResult struct {
	RaceID    string  `db:"race_id"`
	ActualMin float64 `db:"actual_min"`
}
