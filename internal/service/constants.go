package service

import "time"

const (
	// Signal windows
	SignalWindowDays     = 7
	ChronicLoadWeeks     = 4
	BaselineLookbackDays = 365

	// Race-day assumptions for simulation when nothing better is known.
	DefaultRaceReadiness = 0.9
	DefaultCarbsPerHour  = 60
	DefaultFluidPerHour  = 500
	DefaultSodiumPerHour = 300

	// Days in a training week, for proximity math.
	DaysPerWeek = 7
)

// startOfWeek returns the Monday 00:00 UTC on or before t.
func startOfWeek(t time.Time) time.Time {
	t = t.UTC()
	offset := (int(t.Weekday()) + 6) % 7 // Monday = 0
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return day.AddDate(0, 0, -offset)
}
