package session

import (
	"testing"
	"time"
)

func TestComputeAverages(t *testing.T) {
	start := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	snap := Snapshot{
		Key:          "k",
		Owner:        "alice",
		StartedAt:    start,
		EndedAt:      start.Add(90 * time.Second),
		Moistures:    []float64{10, 20, 30},
		Temperatures: []float64{21.5},
	}

	sum := Compute(snap)
	if sum.AverageMoisture == nil || *sum.AverageMoisture != 20.0 {
		t.Errorf("AverageMoisture: got %v, want 20.0", sum.AverageMoisture)
	}
	if sum.AverageTemperature == nil || *sum.AverageTemperature != 21.5 {
		t.Errorf("AverageTemperature: got %v, want 21.5", sum.AverageTemperature)
	}
	if sum.DurationSeconds != 90 {
		t.Errorf("DurationSeconds: got %d, want 90", sum.DurationSeconds)
	}
	if sum.SessionKey != "k" || sum.Owner != "alice" {
		t.Errorf("identity fields: %q/%q", sum.SessionKey, sum.Owner)
	}
}

func TestComputeRoundsToTwoDecimals(t *testing.T) {
	cases := []struct {
		name string
		in   []float64
		want float64
	}{
		{"thirds", []float64{1, 2, 2}, 1.67},
		{"halves", []float64{1, 2}, 1.5},
		{"exact", []float64{5, 5, 5}, 5},
		{"repeating", []float64{10, 10, 11}, 10.33},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := mean(tc.in)
			if got == nil || *got != tc.want {
				t.Errorf("mean(%v): got %v, want %v", tc.in, got, tc.want)
			}
		})
	}
}

func TestComputeEmptyHistory(t *testing.T) {
	sum := Compute(Snapshot{Moistures: nil, Temperatures: []float64{1}})
	if sum.AverageMoisture != nil {
		t.Errorf("AverageMoisture on empty history: got %v, want nil", sum.AverageMoisture)
	}
	if sum.AverageTemperature == nil {
		t.Error("AverageTemperature: got nil, want value")
	}
}
