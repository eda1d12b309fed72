package engine

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidMutation is returned when a mutation would produce a structurally
// invalid plan. The caller keeps the previous plan; nothing is persisted.
var ErrInvalidMutation = errors.New("plan mutation produced an invalid plan")

// DayType tags what kind of session a day holds.
type DayType string

const (
	DayRest    DayType = "rest"
	DayEasy    DayType = "easy"
	DayQuality DayType = "quality"
	DayLong    DayType = "long"
)

// DayPlan is one day of the week plan.
type DayPlan struct {
	Weekday  string // "Monday" .. "Sunday"
	Type     DayType
	TargetKm float64
	Title    string
	Note     string
}

// WeekPlan is a Monday-first 7-day plan. Each planning cycle replaces the
// stored plan wholesale; plans are never merged.
type WeekPlan struct {
	Days []DayPlan
}

var weekdays = []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}

// BaseTemplate seeds a standard build week: two rest days, a quality session
// midweek, the long run on Saturday.
func BaseTemplate() WeekPlan {
	days := []DayPlan{
		{Type: DayRest, TargetKm: 0},
		{Type: DayEasy, TargetKm: 8},
		{Type: DayQuality, TargetKm: 10},
		{Type: DayEasy, TargetKm: 8},
		{Type: DayRest, TargetKm: 0},
		{Type: DayLong, TargetKm: 22},
		{Type: DayEasy, TargetKm: 6},
	}
	for i := range days {
		days[i].Weekday = weekdays[i]
		days[i].Title = dayTitle(days[i].Type, days[i].TargetKm)
	}
	return WeekPlan{Days: days}
}

// Valid reports whether the plan holds exactly 7 entries with rest days
// pinned to zero distance.
func (p WeekPlan) Valid() bool {
	if len(p.Days) != 7 {
		return false
	}
	for _, d := range p.Days {
		if d.Type == DayRest && d.TargetKm != 0 {
			return false
		}
		if d.TargetKm < 0 {
			return false
		}
	}
	return true
}

// TotalKm sums the week's target distance.
func (p WeekPlan) TotalKm() float64 {
	var sum float64
	for _, d := range p.Days {
		sum += d.TargetKm
	}
	return sum
}

func (p WeekPlan) clone() WeekPlan {
	days := make([]DayPlan, len(p.Days))
	copy(days, p.Days)
	return WeekPlan{Days: days}
}

// Adjustments enumerates every knob the lesson layer may turn. Explicit
// fields with zero-value defaults keep the merge logic exhaustive.
type Adjustments struct {
	VolumeCutPct     float64 // extra fractional cut on top of the taper multiplier
	AddRestDay       bool    // convert the shortest easy day to rest
	HillsSpecificity bool    // steer the quality day toward hill work
	FuelingRehearsal bool    // annotate the long run with a fueling rehearsal
	HeatPrep         bool    // annotate an easy day with heat acclimation
	PacingControl    bool    // annotate the quality day with pacing discipline
}

// AdjustmentsFromLessons maps derived lessons onto plan adjustments. The
// taper bias only bites inside the 3-week taper window.
func AdjustmentsFromLessons(lessons []RaceLesson, raceWeeksOut float64) Adjustments {
	var adj Adjustments
	for _, l := range lessons {
		switch l.Key {
		case LessonTaperBiasUp:
			if raceWeeksOut <= 3 {
				adj.VolumeCutPct += l.Weight
			}
		case LessonFuelingFocus:
			adj.FuelingRehearsal = true
		case LessonHeatAcclimation:
			adj.HeatPrep = true
		case LessonHillsSpecificity:
			adj.HillsSpecificity = true
		case LessonPacingControl:
			adj.PacingControl = true
		}
	}
	return adj
}

// taperMultiplier maps race proximity to a volume multiplier.
func taperMultiplier(raceWeeksOut float64) float64 {
	switch {
	case raceWeeksOut <= 1:
		return 0.6
	case raceWeeksOut <= 2:
		return 0.75
	case raceWeeksOut <= 3:
		return 0.85
	default:
		return 1.0
	}
}

// Mutate applies one cycle's adjustments to the base plan, in fixed order:
// taper multiplier, fatigue branch, freshness branch, volume scaling, then
// lesson adjustments. Fail-closed: if the result would be structurally
// invalid, the base plan is returned unchanged with ErrInvalidMutation.
func Mutate(base WeekPlan, fatigue FatigueResult, raceWeeksOut float64, lessons []RaceLesson) (WeekPlan, error) {
	if !base.Valid() {
		return base, fmt.Errorf("base plan: %w", ErrInvalidMutation)
	}

	plan := base.clone()
	mult := taperMultiplier(raceWeeksOut)

	// Days adjusted directly by the fatigue branch skip the general
	// multiplier, so a downgraded quality day keeps its explicit 60% cut.
	adjusted := make([]bool, len(plan.Days))

	switch {
	case fatigue.Score > 0.7:
		if mult > 0.8 {
			mult = 0.8
		}
		for i := range plan.Days {
			if plan.Days[i].Type == DayQuality {
				d := &plan.Days[i]
				d.Type = DayEasy
				d.TargetKm = math.Round(d.TargetKm * 0.6)
				d.Note = fmt.Sprintf("downgraded from quality: %s", fatigue.Reason)
				adjusted[i] = true
				break
			}
		}
	case fatigue.Score < 0.3 && raceWeeksOut > 4:
		if mult < 1.1 {
			mult = 1.1
		}
		for i := range plan.Days {
			switch plan.Days[i].Type {
			case DayQuality:
				plan.Days[i].TargetKm *= 1.10
			case DayLong:
				plan.Days[i].TargetKm *= 1.05
			}
		}
	}

	adj := AdjustmentsFromLessons(lessons, raceWeeksOut)
	if adj.VolumeCutPct > 0 {
		mult *= 1 - adj.VolumeCutPct
	}
	// No stack of biases may cut more than MaxTaperCut of volume.
	if mult < 1-MaxTaperCut {
		mult = 1 - MaxTaperCut
	}

	for i := range plan.Days {
		d := &plan.Days[i]
		if d.Type == DayRest {
			d.TargetKm = 0
			continue
		}
		if !adjusted[i] {
			d.TargetKm = math.Round(d.TargetKm * mult)
		}
		d.Title = dayTitle(d.Type, d.TargetKm)
	}

	applyNotes(&plan, adj)

	if adj.AddRestDay {
		convertShortestEasyToRest(&plan)
	}

	if !plan.Valid() {
		return base, ErrInvalidMutation
	}
	return plan, nil
}

func applyNotes(plan *WeekPlan, adj Adjustments) {
	heatNoted := false
	for i := range plan.Days {
		d := &plan.Days[i]
		switch d.Type {
		case DayQuality:
			if adj.HillsSpecificity {
				d.Note = appendNote(d.Note, "run this as a hill session")
			}
			if adj.PacingControl {
				d.Note = appendNote(d.Note, "hold even splits; no surges")
			}
		case DayLong:
			if adj.FuelingRehearsal {
				d.Note = appendNote(d.Note, "rehearse race fueling (60g carbs/hr)")
			}
		case DayEasy:
			if adj.HeatPrep && !heatNoted {
				d.Note = appendNote(d.Note, "heat acclimation: run in the warm part of the day")
				heatNoted = true
			}
		}
	}
}

func convertShortestEasyToRest(plan *WeekPlan) {
	best := -1
	for i, d := range plan.Days {
		if d.Type != DayEasy {
			continue
		}
		if best == -1 || d.TargetKm < plan.Days[best].TargetKm {
			best = i
		}
	}
	if best == -1 {
		return
	}
	d := &plan.Days[best]
	d.Type = DayRest
	d.TargetKm = 0
	d.Title = dayTitle(DayRest, 0)
	d.Note = appendNote(d.Note, "extra recovery day")
}

func appendNote(existing, note string) string {
	if existing == "" {
		return note
	}
	return existing + "; " + note
}

func dayTitle(t DayType, km float64) string {
	switch t {
	case DayRest:
		return "Rest"
	case DayEasy:
		return fmt.Sprintf("Easy %.0fkm", km)
	case DayQuality:
		return fmt.Sprintf("Quality %.0fkm", km)
	case DayLong:
		return fmt.Sprintf("Long %.0fkm", km)
	}
	return string(t)
}
