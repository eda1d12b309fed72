package engine

import (
	"math"
	"testing"
)

func lessonWeight(lessons []RaceLesson, key string) (float64, bool) {
	for _, l := range lessons {
		if l.Key == key {
			return l.Weight, true
		}
	}
	return 0, false
}

func TestDeriveEmptyHistory(t *testing.T) {
	if lessons := Derive(nil); len(lessons) != 0 {
		t.Errorf("Derive(nil) = %v, want empty", lessons)
	}
}

func TestDerivePatternRules(t *testing.T) {
	history := []RaceFeedback{
		{Priority: "A", Completed: false, RPE: 9, Surface: "road", TempC: 18},
		{Priority: "B", Completed: true, RPE: 7, Issues: []string{IssueGI}, TempC: 29},
		{Priority: "C", Completed: true, RPE: 6, Surface: "trail", ElevationGainM: 1400, TempC: 15},
		{Priority: "A", Completed: true, RPE: 8, Issues: []string{IssueCramping}, TempC: 20},
	}

	lessons := Derive(history)

	tests := []struct {
		key      string
		expected float64
	}{
		{LessonTaperBiasUp, 0.05},      // one missed A-race at RPE>=8
		{LessonFuelingFocus, 0.05},     // one GI race
		{LessonHeatAcclimation, 0.05},  // one race above 25C
		{LessonHillsSpecificity, 0.05}, // one trail race with big vert
		{LessonPacingControl, 0.05},    // one cramping race
	}
	for _, tt := range tests {
		w, ok := lessonWeight(lessons, tt.key)
		if !ok {
			t.Errorf("lesson %s missing", tt.key)
			continue
		}
		if math.Abs(w-tt.expected) > 1e-9 {
			t.Errorf("lesson %s weight = %v, want %v", tt.key, w, tt.expected)
		}
	}
}

func TestDeriveWeightsCapped(t *testing.T) {
	var history []RaceFeedback
	for i := 0; i < 30; i++ {
		history = append(history, RaceFeedback{
			Priority:  "A",
			Completed: false,
			RPE:       9,
			Issues:    []string{IssueFueling, IssuePacing},
			TempC:     30,
			Surface:   "mountain",
		})
	}

	lessons := Derive(history)
	caps := map[string]float64{
		LessonTaperBiasUp:      TaperBiasCap,
		LessonFuelingFocus:     FuelingFocusCap,
		LessonHeatAcclimation:  HeatAcclimationCap,
		LessonHillsSpecificity: HillsSpecificityCap,
		LessonPacingControl:    PacingControlCap,
	}
	for key, cap := range caps {
		w, ok := lessonWeight(lessons, key)
		if !ok {
			t.Errorf("lesson %s missing", key)
			continue
		}
		if w != cap {
			t.Errorf("lesson %s = %v, want capped at %v", key, w, cap)
		}
	}
}

func TestDeriveFullRecompute(t *testing.T) {
	// Lessons are recomputed from scratch: shrinking the history shrinks
	// the weights, with no memory of the earlier larger set.
	long := make([]RaceFeedback, 4)
	for i := range long {
		long[i] = RaceFeedback{Priority: "A", Completed: false, RPE: 9}
	}
	short := long[:1]

	wLong, _ := lessonWeight(Derive(long), LessonTaperBiasUp)
	wShort, _ := lessonWeight(Derive(short), LessonTaperBiasUp)
	if wShort >= wLong {
		t.Errorf("recompute from shorter history: %v >= %v", wShort, wLong)
	}
}

func TestTaperScale(t *testing.T) {
	tests := []struct {
		name     string
		weeks    float64
		priority string
		lessons  []RaceLesson
		min, max float64
	}{
		{"far out, no cut", 6, "A", nil, 1, 1},
		{"race week A-race", 0, "A", nil, 0.6, 0.6},
		{"race week C-race cuts less", 0, "C", nil, 0.8, 0.8},
		{"lesson bias deepens the cut", 0, "B", []RaceLesson{{Key: LessonTaperBiasUp, Weight: 0.2}}, 0.5, 0.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := TaperScale(tt.weeks, tt.priority, tt.lessons)
			if got < tt.min-1e-9 || got > tt.max+1e-9 {
				t.Errorf("TaperScale = %v, want in [%v, %v]", got, tt.min, tt.max)
			}
		})
	}
}

func TestTaperScaleNeverCutsBeyondCap(t *testing.T) {
	lessons := []RaceLesson{{Key: LessonTaperBiasUp, Weight: TaperBiasCap}}
	for _, weeks := range []float64{0, 0.5, 1, 2, 3, 5} {
		scale := TaperScale(weeks, "A", lessons)
		if scale < 1-MaxTaperCut-1e-9 {
			t.Errorf("weeks %v: scale %v cuts more than %v", weeks, scale, MaxTaperCut)
		}
		if scale > 1 {
			t.Errorf("weeks %v: scale %v above 1", weeks, scale)
		}
	}
}
