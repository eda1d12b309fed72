package store

import (
	"database/sql"
	"errors"

	"enduro/internal/engine"
)

// GetAthleteState loads the athlete's learned weights and health state.
// Returns ErrNoAthleteState for a brand-new athlete.
func (s *Store) GetAthleteState(athleteID string) (*AthleteState, error) {
	row := s.db.QueryRow(`
		SELECT athlete_id, weight_sleep, weight_hrv, weight_rpe, weight_race_proximity, health_state
		FROM athlete_state
		WHERE athlete_id = ?
	`, athleteID)

	var st AthleteState
	err := row.Scan(&st.AthleteID, &st.WeightSleep, &st.WeightHRV, &st.WeightRPE,
		&st.WeightRaceProximity, &st.HealthState)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoAthleteState
	}
	if err != nil {
		return nil, err
	}
	return &st, nil
}

// SaveAthleteState inserts or updates the athlete's state.
func (s *Store) SaveAthleteState(st *AthleteState) error {
	_, err := s.db.Exec(`
		INSERT INTO athlete_state (athlete_id, weight_sleep, weight_hrv, weight_rpe, weight_race_proximity, health_state, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(athlete_id) DO UPDATE SET
			weight_sleep = excluded.weight_sleep,
			weight_hrv = excluded.weight_hrv,
			weight_rpe = excluded.weight_rpe,
			weight_race_proximity = excluded.weight_race_proximity,
			health_state = excluded.health_state,
			updated_at = CURRENT_TIMESTAMP
	`, st.AthleteID, st.WeightSleep, st.WeightHRV, st.WeightRPE, st.WeightRaceProximity, st.HealthState)
	return err
}

// Weights converts the stored row into engine weights.
func (st *AthleteState) Weights() engine.Weights {
	return engine.Weights{
		Sleep:         st.WeightSleep,
		HRV:           st.WeightHRV,
		RPE:           st.WeightRPE,
		RaceProximity: st.WeightRaceProximity,
	}
}

// SetWeights copies engine weights back onto the row.
func (st *AthleteState) SetWeights(w engine.Weights) {
	st.WeightSleep = w.Sleep
	st.WeightHRV = w.HRV
	st.WeightRPE = w.RPE
	st.WeightRaceProximity = w.RaceProximity
}

// Health returns the stored health state as the engine enum.
func (st *AthleteState) Health() engine.HealthState {
	switch st.HealthState {
	case string(engine.HealthSick):
		return engine.HealthSick
	case string(engine.HealthReturning):
		return engine.HealthReturning
	default:
		return engine.HealthNormal
	}
}

// NewAthleteState seeds default state for a first planning cycle.
func NewAthleteState(athleteID string) *AthleteState {
	st := &AthleteState{
		AthleteID:   athleteID,
		HealthState: string(engine.HealthNormal),
	}
	st.SetWeights(engine.DefaultWeights())
	return st
}
