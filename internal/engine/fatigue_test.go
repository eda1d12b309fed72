package engine

import (
	"math"
	"testing"
)

func TestScoreOverreachedWeek(t *testing.T) {
	// All four indicators fire, health normal, race 10 weeks out:
	// raw = (0.8 + 0.7 + 0.6 + 0.5 + 0 + 0.9*(1 - 10/12)) / 4 ≈ 0.69
	result := Score(ScoreInput{
		Aggregates: Aggregates{SleepAvg: 6.5, HRVAvg: 45, RPEAvg: 7, ACWR: 1.3},
		Health:     HealthNormal,
		Weights:    DefaultWeights(),
		RaceWeeks:  10,
	})

	if result.Score < 0.65 || result.Score > 0.75 {
		t.Errorf("Score = %v, want in [0.65, 0.75]", result.Score)
	}
	if result.Reason == "" {
		t.Error("expected a non-empty reason")
	}
}

func TestScoreClamped(t *testing.T) {
	tests := []struct {
		name string
		in   ScoreInput
	}{
		{
			name: "everything fires plus sickness plus feedback",
			in: ScoreInput{
				Aggregates: Aggregates{SleepAvg: 3, HRVAvg: 20, RPEAvg: 10, ACWR: 3},
				Health:     HealthSick,
				Weights:    Weights{Sleep: 1, HRV: 1, RPE: 1, RaceProximity: 1},
				RaceWeeks:  0,
				Feedback: []SessionFeedback{
					{RPE: 10, Soreness: 10},
					{RPE: 10, Soreness: 10},
				},
			},
		},
		{
			name: "nothing fires",
			in: ScoreInput{
				Aggregates: Aggregates{SleepAvg: 9, HRVAvg: 80, RPEAvg: 3, ACWR: 0.9},
				Health:     HealthNormal,
				Weights:    DefaultWeights(),
				RaceWeeks:  20,
			},
		},
		{
			name: "out-of-range weights clamped before use",
			in: ScoreInput{
				Aggregates: Aggregates{SleepAvg: 3, HRVAvg: 20, RPEAvg: 10, ACWR: 3},
				Health:     HealthSick,
				Weights:    Weights{Sleep: 5, HRV: -2, RPE: 99, RaceProximity: 3},
				RaceWeeks:  0,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Score(tt.in)
			if result.Score < 0 || result.Score > 1 {
				t.Errorf("Score = %v, want in [0, 1]", result.Score)
			}
		})
	}
}

func TestScoreIllnessTerm(t *testing.T) {
	base := ScoreInput{
		Aggregates: Aggregates{SleepAvg: 8, HRVAvg: 70, RPEAvg: 4, ACWR: 1.0},
		Weights:    DefaultWeights(),
		RaceWeeks:  DefaultRaceHorizonWeeks,
	}

	normal := base
	normal.Health = HealthNormal
	returning := base
	returning.Health = HealthReturning
	sick := base
	sick.Health = HealthSick

	sNormal := Score(normal).Score
	sReturning := Score(returning).Score
	sSick := Score(sick).Score

	// sick adds 1.0/4, returning adds 0.5/4.
	if math.Abs((sSick-sNormal)-0.25) > 1e-9 {
		t.Errorf("sick delta = %v, want 0.25", sSick-sNormal)
	}
	if math.Abs((sReturning-sNormal)-0.125) > 1e-9 {
		t.Errorf("returning delta = %v, want 0.125", sReturning-sNormal)
	}
}

func TestScoreProximityRamp(t *testing.T) {
	in := ScoreInput{
		Aggregates: Aggregates{SleepAvg: 8, HRVAvg: 70, RPEAvg: 4, ACWR: 1.0},
		Health:     HealthNormal,
		Weights:    DefaultWeights(),
	}

	// Proximity rises as the race nears, so the score must never drop
	// while weeks count down.
	var prev float64 = -1
	for _, weeks := range []float64{16, 12, 8, 4, 1, 0} {
		in.RaceWeeks = weeks
		s := Score(in).Score
		if s < prev {
			t.Errorf("Score at %v weeks = %v, dropped below %v", weeks, s, prev)
		}
		prev = s
	}
}

func TestFeedbackBump(t *testing.T) {
	tests := []struct {
		name     string
		feedback []SessionFeedback
		expected float64
		delta    float64
	}{
		{"no feedback", nil, 0, 0},
		{"neutral sessions", []SessionFeedback{{RPE: 6, Soreness: 6}}, 0, 1e-9},
		{"easy sessions never lower the score", []SessionFeedback{{RPE: 2, Soreness: 2}}, 0, 1e-9},
		{"hard sessions bump", []SessionFeedback{{RPE: 8, Soreness: 7}}, 0.15, 1e-9},
		{"bump capped", []SessionFeedback{{RPE: 10, Soreness: 10}, {RPE: 10, Soreness: 10}}, FeedbackBumpCap, 1e-9},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := feedbackBump(tt.feedback)
			if math.Abs(got-tt.expected) > tt.delta {
				t.Errorf("feedbackBump = %v, want %v", got, tt.expected)
			}
		})
	}
}
