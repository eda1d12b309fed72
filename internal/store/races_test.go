package store

import (
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"enduro/internal/engine"
)

func insertTestRace(t *testing.T, s *Store, r Race) Race {
	t.Helper()
	if err := s.CreateRace(&r); err != nil {
		t.Fatalf("CreateRace: %v", err)
	}
	return r
}

func TestCreateRaceMintsID(t *testing.T) {
	s := OpenTest(t)

	r := insertTestRace(t, s, Race{
		AthleteID:  "a1",
		Name:       "Autumn 50K",
		DistanceKm: 50,
		Surface:    "trail",
		Date:       time.Date(2026, 10, 10, 6, 0, 0, 0, time.UTC),
		Priority:   "A",
	})
	if r.ID == "" {
		t.Fatal("CreateRace left ID empty")
	}

	got, err := s.GetRace(r.ID)
	if err != nil {
		t.Fatalf("GetRace: %v", err)
	}
	if got.Name != r.Name || got.DistanceKm != r.DistanceKm || got.Surface != r.Surface {
		t.Errorf("GetRace = %+v, want %+v", got, r)
	}
}

func TestNextRace(t *testing.T) {
	s := OpenTest(t)
	now := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)

	insertTestRace(t, s, Race{AthleteID: "a1", Name: "past", DistanceKm: 21.1, Date: now.AddDate(0, -1, 0), Priority: "C"})
	soon := insertTestRace(t, s, Race{AthleteID: "a1", Name: "soon", DistanceKm: 42.195, Date: now.AddDate(0, 0, 14), Priority: "A"})
	insertTestRace(t, s, Race{AthleteID: "a1", Name: "later", DistanceKm: 50, Date: now.AddDate(0, 2, 0), Priority: "B"})

	got, err := s.NextRace("a1", now)
	if err != nil {
		t.Fatalf("NextRace: %v", err)
	}
	if got.ID != soon.ID {
		t.Errorf("NextRace = %q, want %q", got.Name, soon.Name)
	}

	if _, err := s.NextRace("a2", now); !errors.Is(err, ErrRaceNotFound) {
		t.Errorf("err = %v, want ErrRaceNotFound", err)
	}
}

func TestPredictionLatestWins(t *testing.T) {
	s := OpenTest(t)
	r := insertTestRace(t, s, Race{AthleteID: "a1", Name: "race", DistanceKm: 42.195, Date: time.Now().UTC(), Priority: "A"})

	if _, err := s.LatestPrediction(r.ID); !errors.Is(err, ErrNoPrediction) {
		t.Fatalf("err = %v, want ErrNoPrediction", err)
	}

	if err := s.SavePrediction(r.ID, engine.Prediction{TimeMin: 240, Method: engine.MethodRiegel, Confidence: "high"}); err != nil {
		t.Fatal(err)
	}
	if err := s.SavePrediction(r.ID, engine.Prediction{TimeMin: 232, Method: engine.MethodRiegel, Confidence: "high"}); err != nil {
		t.Fatal(err)
	}

	got, err := s.LatestPrediction(r.ID)
	if err != nil {
		t.Fatalf("LatestPrediction: %v", err)
	}
	if got.TimeMin != 232 {
		t.Errorf("TimeMin = %v, want 232 (most recent)", got.TimeMin)
	}
}

func TestRaceResultsAsBaselineCandidates(t *testing.T) {
	s := OpenTest(t)
	date := time.Date(2026, 5, 3, 8, 0, 0, 0, time.UTC)
	r := insertTestRace(t, s, Race{AthleteID: "a1", Name: "spring half", DistanceKm: 21.1, Date: date, Priority: "B"})

	if err := s.SaveRaceResult(r.ID, 98); err != nil {
		t.Fatal(err)
	}
	// Upsert replaces a mistaken entry.
	if err := s.SaveRaceResult(r.ID, 96.5); err != nil {
		t.Fatal(err)
	}

	got, err := s.ListRaceResults("a1")
	if err != nil {
		t.Fatalf("ListRaceResults: %v", err)
	}
	want := []engine.BaselineCandidate{{DistanceKm: 21.1, DurationMin: 96.5, Date: date, FromRace: true}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("candidates mismatch (-want +got):\n%s", diff)
	}
}

func TestRaceFeedbackRoundTrip(t *testing.T) {
	s := OpenTest(t)
	date := time.Date(2026, 7, 12, 7, 0, 0, 0, time.UTC)
	r := insertTestRace(t, s, Race{
		AthleteID: "a1", Name: "hot trail 50", DistanceKm: 50, ElevationGainM: 1800,
		Surface: "trail", Date: date, Priority: "A",
	})

	fb := engine.RaceFeedback{
		RaceID:    r.ID,
		Completed: true,
		RPE:       9,
		Issues:    []string{engine.IssueFueling, engine.IssueCramping},
		TempC:     29,
	}
	if err := s.SaveRaceFeedback("a1", fb); err != nil {
		t.Fatalf("SaveRaceFeedback: %v", err)
	}

	got, err := s.ListRaceFeedback("a1")
	if err != nil {
		t.Fatalf("ListRaceFeedback: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("got %d feedback rows, want 1", len(got))
	}
	if diff := cmp.Diff(fb.Issues, got[0].Issues); diff != "" {
		t.Errorf("issues mismatch (-want +got):\n%s", diff)
	}
	if !got[0].Completed || got[0].RPE != 9 || got[0].TempC != 29 {
		t.Errorf("feedback fields = %+v", got[0])
	}
	if got[0].Surface != "trail" || got[0].ElevationGainM != 1800 || got[0].Priority != "A" {
		t.Errorf("race metadata not joined: %+v", got[0])
	}
}

func TestPerformanceModelRoundTrip(t *testing.T) {
	s := OpenTest(t)

	if _, err := s.GetPerformanceModel("a1"); !errors.Is(err, ErrNoModel) {
		t.Fatalf("err = %v, want ErrNoModel", err)
	}

	m := engine.NewPerformanceModel(engine.BaselineRace{
		DistanceKm:   21.1,
		TimeMin:      95,
		PaceMinPerKm: 95 / 21.1,
		Confidence:   0.9,
		FromRace:     true,
		Date:         time.Date(2026, 5, 3, 8, 0, 0, 0, time.UTC),
	})
	m.PerformanceDecay = 1.08
	m.CalibrationCount = 3
	m.Confidence = 0.7
	if err := s.SavePerformanceModel("a1", m); err != nil {
		t.Fatalf("SavePerformanceModel: %v", err)
	}

	got, err := s.GetPerformanceModel("a1")
	if err != nil {
		t.Fatalf("GetPerformanceModel: %v", err)
	}
	if diff := cmp.Diff(m, *got); diff != "" {
		t.Errorf("model mismatch (-want +got):\n%s", diff)
	}

	// Upsert path.
	m.PerformanceDecay = 1.09
	m.CalibrationCount = 4
	if err := s.SavePerformanceModel("a1", m); err != nil {
		t.Fatal(err)
	}
	got, err = s.GetPerformanceModel("a1")
	if err != nil {
		t.Fatal(err)
	}
	if got.CalibrationCount != 4 || got.PerformanceDecay != 1.09 {
		t.Errorf("model after update = %+v", got)
	}
}

func TestCorrectionFactorsDefaultNeutral(t *testing.T) {
	s := OpenTest(t)

	got, err := s.GetCorrectionFactors("a1", "50-100km ultra")
	if err != nil {
		t.Fatalf("GetCorrectionFactors: %v", err)
	}
	if diff := cmp.Diff(engine.NewCorrectionFactors("a1", "50-100km ultra"), got); diff != "" {
		t.Errorf("expected neutral factors (-want +got):\n%s", diff)
	}

	got.Heat = 1.1
	got.Terrain = 1.25
	if err := s.SaveCorrectionFactors(got); err != nil {
		t.Fatalf("SaveCorrectionFactors: %v", err)
	}

	again, err := s.GetCorrectionFactors("a1", "50-100km ultra")
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(got, again); diff != "" {
		t.Errorf("factors round trip mismatch (-want +got):\n%s", diff)
	}

	// Other bands stay neutral.
	other, err := s.GetCorrectionFactors("a1", "marathon")
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(engine.NewCorrectionFactors("a1", "marathon"), other); diff != "" {
		t.Errorf("band isolation broken (-want +got):\n%s", diff)
	}
}
