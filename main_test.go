package main

import (
	"io"
	"strings"
	"testing"
)

func TestSubcommandsRegistered(t *testing.T) {
	for _, name := range []string{"plan", "predict", "calibrate", "log", "feedback"} {
		cmd, _, err := rootCmd.Find([]string{name})
		if err != nil {
			t.Fatalf("Find(%q) = %v", name, err)
		}
		if cmd.Name() != name {
			t.Errorf("Find(%q) resolved to %q", name, cmd.Name())
		}
	}
}

func TestCalibrateRequiresRace(t *testing.T) {
	rootCmd.SetOut(io.Discard)
	rootCmd.SetErr(io.Discard)
	rootCmd.SetArgs([]string{"calibrate", "--time", "240"})

	err := rootCmd.Execute()
	if err == nil || !strings.Contains(err.Error(), "race") {
		t.Errorf("Execute() = %v, want missing --race error", err)
	}
}

func TestFeedbackRequiresRace(t *testing.T) {
	rootCmd.SetOut(io.Discard)
	rootCmd.SetErr(io.Discard)
	rootCmd.SetArgs([]string{"feedback", "--completed"})

	err := rootCmd.Execute()
	if err == nil || !strings.Contains(err.Error(), "race") {
		t.Errorf("Execute() = %v, want missing --race error", err)
	}
}

func TestFormatMinutes(t *testing.T) {
	tests := []struct {
		min      float64
		expected string
	}{
		{45, "45m"},
		{59.6, "1h00m"},
		{95, "1h35m"},
		{232.5, "3h53m"},
	}
	for _, tt := range tests {
		if got := formatMinutes(tt.min); got != tt.expected {
			t.Errorf("formatMinutes(%v) = %q, want %q", tt.min, got, tt.expected)
		}
	}
}
