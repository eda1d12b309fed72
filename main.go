package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"enduro/internal/config"
	"enduro/internal/engine"
	"enduro/internal/service"
	"enduro/internal/store"
)

var (
	predictRace string

	calibrateRace  string
	calibrateTime  float64
	calibratePaced bool

	logKm       float64
	logMin      float64
	logDate     string
	logRPE      float64
	logSoreness float64
	logSleep    float64
	logHRV      float64
	logHR       float64

	feedbackRace      string
	feedbackCompleted bool
	feedbackRPE       float64
	feedbackIssues    string
	feedbackTemp      float64
	feedbackHumidity  float64
)

var rootCmd = &cobra.Command{
	Use:          "enduro",
	Short:        "Adaptive endurance training coach",
	SilenceUsage: true,
}

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Score fatigue and generate this week's plan",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(runPlan)
	},
}

var predictCmd = &cobra.Command{
	Use:   "predict",
	Short: "Forecast a race and simulate pacing strategies",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(runPredict)
	},
}

var calibrateCmd = &cobra.Command{
	Use:   "calibrate",
	Short: "Fold an actual race result into the model",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(runCalibrate)
	},
}

var logCmd = &cobra.Command{
	Use:   "log",
	Short: "Record a training session",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(runLog)
	},
}

var feedbackCmd = &cobra.Command{
	Use:   "feedback",
	Short: "Record a post-race report",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(runFeedback)
	},
}

func init() {
	predictCmd.Flags().StringVar(&predictRace, "race", "", "race id (defaults to the next scheduled race)")

	calibrateCmd.Flags().StringVar(&calibrateRace, "race", "", "race id")
	calibrateCmd.Flags().Float64Var(&calibrateTime, "time", 0, "actual finish time in minutes")
	calibrateCmd.Flags().BoolVar(&calibratePaced, "pace-profile", false, "whether the simulated pacing plan was followed")
	_ = calibrateCmd.MarkFlagRequired("race")

	logCmd.Flags().Float64Var(&logKm, "km", 0, "distance in kilometers")
	logCmd.Flags().Float64Var(&logMin, "min", 0, "duration in minutes")
	logCmd.Flags().StringVar(&logDate, "date", "", "session date YYYY-MM-DD (defaults to today)")
	logCmd.Flags().Float64Var(&logRPE, "rpe", 0, "perceived effort 1-10")
	logCmd.Flags().Float64Var(&logSoreness, "soreness", 0, "soreness 1-10")
	logCmd.Flags().Float64Var(&logSleep, "sleep", 0, "last night's sleep in hours")
	logCmd.Flags().Float64Var(&logHRV, "hrv", 0, "morning HRV")
	logCmd.Flags().Float64Var(&logHR, "hr", 0, "average heart rate")

	feedbackCmd.Flags().StringVar(&feedbackRace, "race", "", "race id")
	feedbackCmd.Flags().BoolVar(&feedbackCompleted, "completed", true, "whether the race was finished")
	feedbackCmd.Flags().Float64Var(&feedbackRPE, "rpe", 0, "overall effort 1-10")
	feedbackCmd.Flags().StringVar(&feedbackIssues, "issues", "", "comma-separated issues: fueling,gi,hydration,cramping,pacing")
	feedbackCmd.Flags().Float64Var(&feedbackTemp, "temp", 0, "race-day temperature C")
	feedbackCmd.Flags().Float64Var(&feedbackHumidity, "humidity", 0, "race-day humidity %")
	_ = feedbackCmd.MarkFlagRequired("race")

	rootCmd.AddCommand(planCmd, predictCmd, calibrateCmd, logCmd, feedbackCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// app bundles the wiring every subcommand needs.
type app struct {
	cfg     *config.Config
	log     *slog.Logger
	store   *store.Store
	outcome engine.OutcomeParams
	weather service.Weather
	now     time.Time
}

func withApp(fn func(*app) error) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel(cfg.LogLevel),
	}))

	db, err := store.Open(cfg.DatabasePath)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	return fn(&app{
		cfg:   cfg,
		log:   logger,
		store: db,
		outcome: engine.OutcomeParams{
			CompletionWeight: cfg.OutcomeCompletionWeight,
			EffortWeight:     cfg.OutcomeEffortWeight,
		},
		weather: service.Weather{TempC: cfg.DefaultTempC, HumidityPct: cfg.DefaultHumidityPct},
		now:     time.Now().UTC(),
	})
}

func runPlan(a *app) error {
	coach := service.NewCoachService(a.store, a.log, a.outcome, a.cfg.HorizonWeeks)
	res, err := coach.RunPlanningCycle(a.cfg.AthleteID, a.now)
	if err != nil {
		return err
	}

	fmt.Printf("Week of %s  (fatigue %.2f: %s)\n", res.WeekStart.Format("Jan 02"), res.Fatigue.Score, res.Fatigue.Reason)
	if res.PrevOutcome != nil {
		fmt.Printf("Last week's outcome: %+.2f\n", *res.PrevOutcome)
	}
	fmt.Println()
	for _, d := range res.Plan.Days {
		line := fmt.Sprintf("  %-9s  %-24s", d.Weekday, d.Title)
		if d.Note != "" {
			line += "  (" + d.Note + ")"
		}
		fmt.Println(line)
	}
	fmt.Printf("\nTotal: %.1f km\n", res.Plan.TotalKm())
	for _, l := range res.Lessons {
		fmt.Printf("Lesson: %s (weight %.2f)\n", l.Summary, l.Weight)
	}
	return nil
}

func runPredict(a *app) error {
	races := service.NewRaceService(a.store, a.log, service.StaticOracle{Weather: a.weather}, a.weather)
	fc, err := races.PredictRace(context.Background(), a.cfg.AthleteID, predictRace, a.now)
	if err != nil {
		return err
	}

	fmt.Printf("%s  %.1f km on %s\n", fc.Race.Name, fc.Race.DistanceKm, fc.Race.Date.Format("Jan 02, 2006"))
	fmt.Printf("Predicted: %s  (%s, confidence %s)\n", formatMinutes(fc.Prediction.TimeMin), fc.Prediction.Method, fc.Prediction.Confidence)
	fmt.Printf("Baseline:  %.1f km in %s", fc.Baseline.DistanceKm, formatMinutes(fc.Baseline.TimeMin))
	if fc.Baseline.FromRace {
		fmt.Print("  (race result)")
	}
	fmt.Println()
	fmt.Printf("Expected conditions: %.0fC, %.0f%% humidity\n\n", fc.Weather.TempC, fc.Weather.HumidityPct)

	for _, s := range fc.Strategies {
		fmt.Printf("  %-12s  adjusted %s  GI risk %.0f%%  penalty %.1f%%", s.Strategy,
			formatMinutes(s.AdjustedTimeMin), s.GIRisk, s.PerformancePenalty)
		if s.TimeToExhaustionKm < fc.Race.DistanceKm {
			fmt.Printf("  exhaustion at km %.0f", s.TimeToExhaustionKm)
		}
		fmt.Println()
	}
	return nil
}

func runCalibrate(a *app) error {
	cal := service.NewCalibrationService(a.store, a.log)
	report, err := cal.RecordResult(a.cfg.AthleteID, calibrateRace, calibrateTime, calibratePaced)
	if err != nil {
		return err
	}
	fmt.Printf("Band %s\n", report.Band)
	fmt.Printf("Decay:   %s\n", report.Decay.Reason)
	fmt.Printf("Factors: %s\n", report.Factors.Reason)
	if report.Decay.Applied {
		fmt.Printf("Quality: %.2f (alpha %.2f)\n", report.Decay.Quality, report.Decay.Alpha)
	}
	return nil
}

func runLog(a *app) error {
	coach := service.NewCoachService(a.store, a.log, a.outcome, a.cfg.HorizonWeeks)

	when := a.now
	if logDate != "" {
		parsed, err := time.Parse("2006-01-02", logDate)
		if err != nil {
			return fmt.Errorf("parsing --date: %w", err)
		}
		when = parsed
	}

	act := store.Activity{
		AthleteID:   a.cfg.AthleteID,
		Date:        when,
		DistanceKm:  logKm,
		DurationMin: logMin,
		RPE:         optional(logRPE),
		SleepHours:  optional(logSleep),
		HRV:         optional(logHRV),
		HeartRate:   optional(logHR),
	}
	if err := coach.LogActivity(&act); err != nil {
		return err
	}
	fmt.Printf("Logged %.1f km on %s\n", logKm, when.Format("Jan 02"))

	// A post-run report feeds the fatigue scorer's subjective bump.
	if logRPE > 0 && logSoreness > 0 {
		fb := engine.SessionFeedback{Date: when, RPE: logRPE, Soreness: logSoreness}
		if err := coach.LogSessionFeedback(a.cfg.AthleteID, fb); err != nil {
			return err
		}
		fmt.Println("Recorded session feedback")
	}
	return nil
}

func runFeedback(a *app) error {
	cal := service.NewCalibrationService(a.store, a.log)

	fb := engine.RaceFeedback{
		RaceID:      feedbackRace,
		Completed:   feedbackCompleted,
		RPE:         feedbackRPE,
		TempC:       feedbackTemp,
		HumidityPct: feedbackHumidity,
	}
	if feedbackIssues != "" {
		fb.Issues = strings.Split(feedbackIssues, ",")
	}
	if err := cal.RecordRaceFeedback(a.cfg.AthleteID, fb); err != nil {
		return err
	}
	fmt.Println("Recorded race feedback")
	return nil
}

func logLevel(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func formatMinutes(min float64) string {
	total := int(min + 0.5)
	h := total / 60
	m := total % 60
	if h == 0 {
		return fmt.Sprintf("%dm", m)
	}
	return fmt.Sprintf("%dh%02dm", h, m)
}

func optional(v float64) *float64 {
	if v == 0 {
		return nil
	}
	return &v
}
