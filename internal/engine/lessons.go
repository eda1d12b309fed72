package engine

import (
	"fmt"
	"math"
	"time"
)

// Lesson keys. Each maps to one pattern rule over race feedback history.
const (
	LessonTaperBiasUp      = "taper_bias_up"
	LessonFuelingFocus     = "fueling_focus"
	LessonHeatAcclimation  = "heat_acclimation"
	LessonHillsSpecificity = "hills_specificity"
	LessonPacingControl    = "pacing_control"
)

// Issue tags recorded in race feedback.
const (
	IssueFueling   = "fueling"
	IssueGI        = "gi"
	IssueHydration = "hydration"
	IssueCramping  = "cramping"
	IssuePacing    = "pacing"
)

// RaceFeedback is the athlete's post-race report plus the race conditions.
type RaceFeedback struct {
	RaceID         string
	Date           time.Time
	Priority       string // "A", "B", "C"
	Completed      bool
	RPE            float64 // 1-10
	Issues         []string
	TempC          float64
	HumidityPct    float64
	Surface        string // "road", "trail", "mountain"
	ElevationGainM float64
}

// RaceLesson is a weighted, recurring pattern mined from feedback history.
type RaceLesson struct {
	Key     string
	Weight  float64 // [0, 0.45]
	Summary string
}

func (f RaceFeedback) hasIssue(tags ...string) bool {
	for _, issue := range f.Issues {
		for _, tag := range tags {
			if issue == tag {
				return true
			}
		}
	}
	return false
}

// Derive recomputes the full lesson set from the complete feedback history.
// There is no incremental merge: the returned set replaces the prior one.
// Each rule is evaluated independently; weights accrue LessonWeightStep per
// qualifying race up to the rule's cap.
func Derive(history []RaceFeedback) []RaceLesson {
	var missedTaper, fueling, heat, hills, pacing int

	for _, f := range history {
		if f.Priority == "A" && !f.Completed && f.RPE >= 8 {
			missedTaper++
		}
		if f.hasIssue(IssueFueling, IssueGI, IssueHydration) {
			fueling++
		}
		if f.TempC > 25 || f.HumidityPct > 75 {
			heat++
		}
		if f.Surface == "trail" || f.Surface == "mountain" || f.ElevationGainM >= 1000 {
			hills++
		}
		if f.hasIssue(IssuePacing, IssueCramping) {
			pacing++
		}
	}

	var lessons []RaceLesson
	add := func(key string, count int, cap float64, summary string) {
		if count == 0 {
			return
		}
		lessons = append(lessons, RaceLesson{
			Key:     key,
			Weight:  math.Min(cap, LessonWeightStep*float64(count)),
			Summary: fmt.Sprintf("%s (%d races)", summary, count),
		})
	}

	add(LessonTaperBiasUp, missedTaper, TaperBiasCap,
		"A-races missed while arriving fatigued; taper harder")
	add(LessonFuelingFocus, fueling, FuelingFocusCap,
		"fueling, GI or hydration trouble; rehearse nutrition")
	add(LessonHeatAcclimation, heat, HeatAcclimationCap,
		"raced in heat or high humidity; acclimatize before similar events")
	add(LessonHillsSpecificity, hills, HillsSpecificityCap,
		"raced on trail or big vert; add hill-specific work")
	add(LessonPacingControl, pacing, PacingControlCap,
		"pacing or cramping problems; practice even pacing")

	return lessons
}

// TaperScale maps proximity to an upcoming race onto a volume multiplier for
// taper week planning. The cut eases out over the final three weeks, is
// biased up for higher-priority races and by any taper_bias_up lesson, and
// never exceeds MaxTaperCut in total.
func TaperScale(weeksToRace float64, priority string, lessons []RaceLesson) float64 {
	t := clamp(1-weeksToRace/3, 0, 1)
	easeOut := 1 - (1-t)*(1-t)

	base := 0.2
	switch priority {
	case "A":
		base = 0.4
	case "B":
		base = 0.3
	}

	cut := base * easeOut
	for _, l := range lessons {
		if l.Key == LessonTaperBiasUp {
			cut += l.Weight * easeOut
		}
	}
	cut = math.Min(cut, MaxTaperCut)
	return 1 - cut
}
