package service

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"enduro/internal/engine"
	"enduro/internal/store"
)

// ErrCycleInProgress is returned when a planning cycle for the same athlete
// and week is already running. The caller should retry after it finishes.
var ErrCycleInProgress = errors.New("planning cycle already in progress for this week")

// CoachService runs the weekly mutate-then-persist planning cycle.
type CoachService struct {
	store        *store.Store
	log          *slog.Logger
	outcome      engine.OutcomeParams
	horizonWeeks int

	mu       sync.Mutex
	inflight map[string]struct{}
}

// NewCoachService creates a coach over the given store.
func NewCoachService(st *store.Store, log *slog.Logger, outcome engine.OutcomeParams, horizonWeeks int) *CoachService {
	if horizonWeeks <= 0 {
		horizonWeeks = engine.DefaultRaceHorizonWeeks
	}
	return &CoachService{
		store:        st,
		log:          log,
		outcome:      outcome,
		horizonWeeks: horizonWeeks,
		inflight:     make(map[string]struct{}),
	}
}

// PlanningResult is everything one cycle produced, for display and audit.
type PlanningResult struct {
	WeekStart time.Time
	Plan      engine.WeekPlan
	Fatigue   engine.FatigueResult
	Weights   engine.Weights
	RaceWeeks float64
	Lessons   []engine.RaceLesson
	// PrevOutcome is the previous week's outcome score, nil when no prior
	// plan existed to score against.
	PrevOutcome *float64
}

// RunPlanningCycle scores the athlete's current fatigue, updates learned
// weights from last week's outcome, mutates the base template and persists
// the new week plan. The whole read-mutate-write sequence holds a
// per-(athlete, week) lock; a second concurrent attempt gets
// ErrCycleInProgress instead of racing.
func (c *CoachService) RunPlanningCycle(athleteID string, now time.Time) (*PlanningResult, error) {
	weekStart := startOfWeek(now)
	key := athleteID + "|" + weekStart.Format("2006-01-02")
	if !c.begin(key) {
		return nil, fmt.Errorf("%s week %s: %w", athleteID, weekStart.Format("2006-01-02"), ErrCycleInProgress)
	}
	defer c.end(key)

	state, err := c.store.GetAthleteState(athleteID)
	if errors.Is(err, store.ErrNoAthleteState) {
		state = store.NewAthleteState(athleteID)
	} else if err != nil {
		return nil, fmt.Errorf("loading athlete state: %w", err)
	}
	weights := state.Weights().Clamped()

	res := &PlanningResult{WeekStart: weekStart}

	base := engine.BaseTemplate()

	recent, err := c.activitiesBetween(athleteID, now.AddDate(0, 0, -SignalWindowDays), now.Add(time.Second))
	if err != nil {
		return nil, err
	}
	last4, err := c.store.WeeklyDistances(athleteID, weekStart, ChronicLoadWeeks)
	if err != nil {
		return nil, fmt.Errorf("loading weekly distances: %w", err)
	}
	agg := engine.Aggregate(recent, last4, base.TotalKm())

	feedback, err := c.store.ListSessionFeedbackSince(athleteID, now.AddDate(0, 0, -SignalWindowDays))
	if err != nil {
		return nil, fmt.Errorf("loading session feedback: %w", err)
	}

	res.RaceWeeks = float64(c.horizonWeeks)
	race, err := c.store.NextRace(athleteID, now)
	switch {
	case err == nil:
		res.RaceWeeks = race.Date.Sub(now).Hours() / 24 / DaysPerWeek
	case errors.Is(err, store.ErrRaceNotFound):
		// No race scheduled; the default horizon stands in.
	default:
		return nil, fmt.Errorf("loading next race: %w", err)
	}

	history, err := c.store.ListRaceFeedback(athleteID)
	if err != nil {
		return nil, fmt.Errorf("loading race feedback: %w", err)
	}
	res.Lessons = engine.Derive(history)

	res.Fatigue = engine.Score(engine.ScoreInput{
		Aggregates: agg,
		Health:     state.Health(),
		Weights:    weights,
		RaceWeeks:  res.RaceWeeks,
		Feedback:   feedback,
	})

	res.Weights = weights

	plan, err := engine.Mutate(base, res.Fatigue, res.RaceWeeks, res.Lessons)
	if err != nil {
		// Fail closed: the unmutated template is returned and nothing is
		// persisted, so the athlete keeps whatever plan was already stored.
		c.log.Warn("plan mutation rejected", "athlete", athleteID, "error", err)
		res.Plan = plan
		return res, fmt.Errorf("mutating plan: %w", err)
	}
	res.Plan = plan

	if err := c.store.ReplaceWeekPlan(athleteID, weekStart, plan); err != nil {
		return nil, fmt.Errorf("persisting week plan: %w", err)
	}

	// Score last week's plan against what actually happened; the nudged
	// weights feed the next cycle's scorer, not this one's.
	prevStart := weekStart.AddDate(0, 0, -DaysPerWeek)
	prevPlan, err := c.store.GetWeekPlan(athleteID, prevStart)
	switch {
	case err == nil:
		completed, err := c.activitiesBetween(athleteID, prevStart, weekStart)
		if err != nil {
			return nil, err
		}
		outcome := engine.OutcomeScore(prevPlan, completed, c.outcome)
		weights = engine.UpdateWeights(weights, outcome)
		res.PrevOutcome = &outcome
		res.Weights = weights
	case errors.Is(err, store.ErrNoPlan):
		// First cycle for this athlete; nothing to learn from yet.
	default:
		return nil, fmt.Errorf("loading previous plan: %w", err)
	}

	state.SetWeights(weights)
	if err := c.store.SaveAthleteState(state); err != nil {
		return nil, fmt.Errorf("persisting athlete state: %w", err)
	}

	c.log.Info("planning cycle complete",
		"athlete", athleteID,
		"week", weekStart.Format("2006-01-02"),
		"fatigue", res.Fatigue.Score,
		"total_km", plan.TotalKm(),
		"race_weeks", res.RaceWeeks,
	)
	return res, nil
}

// LogActivity records a training session.
func (c *CoachService) LogActivity(a *store.Activity) error {
	if a.DistanceKm < 0 || a.DurationMin < 0 {
		return fmt.Errorf("distance and duration must be non-negative")
	}
	return c.store.InsertActivity(a)
}

// LogSessionFeedback records a post-run subjective report.
func (c *CoachService) LogSessionFeedback(athleteID string, fb engine.SessionFeedback) error {
	if fb.RPE < 1 || fb.RPE > 10 || fb.Soreness < 1 || fb.Soreness > 10 {
		return fmt.Errorf("rpe and soreness must be within 1-10")
	}
	return c.store.InsertSessionFeedback(athleteID, fb)
}

func (c *CoachService) activitiesBetween(athleteID string, from, to time.Time) ([]engine.ActivityRecord, error) {
	acts, err := c.store.ListActivitiesSince(athleteID, from)
	if err != nil {
		return nil, fmt.Errorf("loading activities: %w", err)
	}
	var bounded []store.Activity
	for _, a := range acts {
		if a.Date.Before(to) {
			bounded = append(bounded, a)
		}
	}
	return store.Records(bounded), nil
}

func (c *CoachService) begin(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, busy := c.inflight[key]; busy {
		return false
	}
	c.inflight[key] = struct{}{}
	return true
}

func (c *CoachService) end(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.inflight, key)
}
