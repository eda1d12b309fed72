package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"testing"

	"enduro/internal/engine"
	"enduro/internal/store"
)

type failingOracle struct{}

func (failingOracle) Current(context.Context, float64, float64) (Weather, error) {
	return Weather{}, fmt.Errorf("forecast service unreachable")
}

func newTestRaceService(t *testing.T, oracle WeatherOracle) (*RaceService, *store.Store) {
	t.Helper()
	st := store.OpenTest(t)
	return NewRaceService(st, testLogger(), oracle, Weather{TempC: 20, HumidityPct: 50}), st
}

// seedBaselineRace stores a finished half marathon six weeks back so
// forecasts have an anchor.
func seedBaselineRace(t *testing.T, st *store.Store) {
	t.Helper()
	past := store.Race{AthleteID: "a1", Name: "spring half", DistanceKm: 21.1,
		Date: testNow.AddDate(0, 0, -42), Priority: "B"}
	if err := st.CreateRace(&past); err != nil {
		t.Fatal(err)
	}
	if err := st.SaveRaceResult(past.ID, 95); err != nil {
		t.Fatal(err)
	}
}

func TestPredictRaceNoHistory(t *testing.T) {
	svc, st := newTestRaceService(t, nil)
	race := store.Race{AthleteID: "a1", Name: "marathon", DistanceKm: 42.195,
		Date: testNow.AddDate(0, 0, 56), Priority: "A"}
	if err := st.CreateRace(&race); err != nil {
		t.Fatal(err)
	}

	_, err := svc.PredictRace(context.Background(), "a1", race.ID, testNow)
	if !errors.Is(err, engine.ErrInsufficientData) {
		t.Fatalf("err = %v, want ErrInsufficientData", err)
	}
}

func TestPredictRaceEndToEnd(t *testing.T) {
	svc, st := newTestRaceService(t, nil)
	seedBaselineRace(t, st)
	goal := store.Race{AthleteID: "a1", Name: "autumn marathon", DistanceKm: 42.195,
		Date: testNow.AddDate(0, 0, 56), Priority: "A"}
	if err := st.CreateRace(&goal); err != nil {
		t.Fatal(err)
	}

	fc, err := svc.PredictRace(context.Background(), "a1", goal.ID, testNow)
	if err != nil {
		t.Fatalf("PredictRace: %v", err)
	}

	if fc.Prediction.Method != engine.MethodRiegel {
		t.Errorf("method = %v, want riegel", fc.Prediction.Method)
	}
	// Neutral factors: the raw Riegel scaling from the half result.
	want := 95 * math.Pow(42.195/21.1, engine.DefaultDecayExponent)
	if math.Abs(fc.Prediction.TimeMin-want) > 1e-6 {
		t.Errorf("TimeMin = %v, want %v", fc.Prediction.TimeMin, want)
	}
	if fc.Band != "marathon" {
		t.Errorf("band = %q, want marathon", fc.Band)
	}
	if !fc.Baseline.FromRace {
		t.Error("baseline should come from the stored race result")
	}
	if len(fc.Strategies) != 3 {
		t.Fatalf("got %d strategies, want 3", len(fc.Strategies))
	}

	// The prediction must be on record for later calibration.
	stored, err := st.LatestPrediction(goal.ID)
	if err != nil {
		t.Fatalf("LatestPrediction: %v", err)
	}
	if math.Abs(stored.TimeMin-fc.Prediction.TimeMin) > 1e-9 {
		t.Errorf("stored prediction %v, want %v", stored.TimeMin, fc.Prediction.TimeMin)
	}
	// The model was initialized with the selected baseline.
	model, err := st.GetPerformanceModel("a1")
	if err != nil {
		t.Fatalf("GetPerformanceModel: %v", err)
	}
	if model.Baseline.DistanceKm != 21.1 {
		t.Errorf("model baseline %v km, want 21.1", model.Baseline.DistanceKm)
	}
}

func TestPredictRaceNextScheduled(t *testing.T) {
	svc, st := newTestRaceService(t, nil)
	seedBaselineRace(t, st)
	near := store.Race{AthleteID: "a1", Name: "near 10k", DistanceKm: 10,
		Date: testNow.AddDate(0, 0, 7), Priority: "C"}
	far := store.Race{AthleteID: "a1", Name: "far 50k", DistanceKm: 50,
		Date: testNow.AddDate(0, 0, 90), Priority: "A"}
	for _, r := range []*store.Race{&near, &far} {
		if err := st.CreateRace(r); err != nil {
			t.Fatal(err)
		}
	}

	fc, err := svc.PredictRace(context.Background(), "a1", "", testNow)
	if err != nil {
		t.Fatalf("PredictRace: %v", err)
	}
	if fc.Race.ID != near.ID {
		t.Errorf("predicted %q, want the next scheduled race %q", fc.Race.Name, near.Name)
	}
}

func TestPredictRaceWeatherDegradesToDefaults(t *testing.T) {
	svc, st := newTestRaceService(t, failingOracle{})
	seedBaselineRace(t, st)
	lat, lon := 46.5, 9.8
	goal := store.Race{AthleteID: "a1", Name: "alpine marathon", DistanceKm: 42.195,
		Date: testNow.AddDate(0, 0, 56), Priority: "A", LocationLat: &lat, LocationLon: &lon}
	if err := st.CreateRace(&goal); err != nil {
		t.Fatal(err)
	}

	fc, err := svc.PredictRace(context.Background(), "a1", goal.ID, testNow)
	if err != nil {
		t.Fatalf("PredictRace: %v", err)
	}
	if fc.Weather.TempC != 20 || fc.Weather.HumidityPct != 50 {
		t.Errorf("weather = %+v, want fallback 20C/50%%", fc.Weather)
	}
}

func TestPredictRaceOracleConditionsUsed(t *testing.T) {
	oracle := StaticOracle{Weather: Weather{TempC: 31, HumidityPct: 80}}
	svc, st := newTestRaceService(t, oracle)
	seedBaselineRace(t, st)

	lat, lon := 37.9, 23.7
	factors := engine.NewCorrectionFactors("a1", "marathon")
	factors.Heat = 1.2
	factors.CalibrationCount = 1
	if err := st.SaveCorrectionFactors(factors); err != nil {
		t.Fatal(err)
	}
	goal := store.Race{AthleteID: "a1", Name: "hot marathon", DistanceKm: 42.195,
		Date: testNow.AddDate(0, 0, 56), Priority: "A", LocationLat: &lat, LocationLon: &lon}
	if err := st.CreateRace(&goal); err != nil {
		t.Fatal(err)
	}

	fc, err := svc.PredictRace(context.Background(), "a1", goal.ID, testNow)
	if err != nil {
		t.Fatalf("PredictRace: %v", err)
	}
	if fc.Weather.TempC != 31 {
		t.Fatalf("weather = %+v, want oracle conditions", fc.Weather)
	}
	// 31C opens the heat gate, so the learned factor slows the forecast.
	raw := 95 * math.Pow(42.195/21.1, engine.DefaultDecayExponent)
	want := raw * 1.2
	if math.Abs(fc.Prediction.TimeMin-want) > 1e-6 {
		t.Errorf("TimeMin = %v, want %v with heat factor applied", fc.Prediction.TimeMin, want)
	}
}

func TestPredictRaceUnknownRace(t *testing.T) {
	svc, _ := newTestRaceService(t, nil)
	_, err := svc.PredictRace(context.Background(), "a1", "no-such-race", testNow)
	if !errors.Is(err, store.ErrRaceNotFound) {
		t.Fatalf("err = %v, want ErrRaceNotFound", err)
	}
}

func TestPredictRaceTrainingBaselineFallback(t *testing.T) {
	svc, st := newTestRaceService(t, nil)

	// No race results, but a race-like long tempo effort on file.
	act := store.Activity{AthleteID: "a1", Date: testNow.AddDate(0, 0, -30),
		DistanceKm: 25, DurationMin: 130}
	if err := st.InsertActivity(&act); err != nil {
		t.Fatal(err)
	}
	goal := store.Race{AthleteID: "a1", Name: "marathon", DistanceKm: 42.195,
		Date: testNow.AddDate(0, 0, 56), Priority: "A"}
	if err := st.CreateRace(&goal); err != nil {
		t.Fatal(err)
	}

	fc, err := svc.PredictRace(context.Background(), "a1", goal.ID, testNow)
	if err != nil {
		t.Fatalf("PredictRace: %v", err)
	}
	if fc.Baseline.FromRace {
		t.Error("baseline marked FromRace with no results on record")
	}
	// Training-derived anchors can never carry riegel's full confidence.
	if fc.Prediction.Confidence == "high" || fc.Prediction.Confidence == "very-high" {
		t.Errorf("confidence = %q, want downgraded for a training baseline", fc.Prediction.Confidence)
	}
}
