package session

import (
	"math"
	"time"
)

// Summary is the averaged result of one finished monitoring run. Computed
// once at stop time; an empty history yields a nil average rather than a
// division error.
type Summary struct {
	SessionKey         string
	Owner              string
	AverageMoisture    *float64
	AverageTemperature *float64
	StartedAt          time.Time
	EndedAt            time.Time
	DurationSeconds    int64
}

// Compute reduces a snapshot into its summary. Pure function.
func Compute(snap Snapshot) Summary {
	return Summary{
		SessionKey:         snap.Key,
		Owner:              snap.Owner,
		AverageMoisture:    mean(snap.Moistures),
		AverageTemperature: mean(snap.Temperatures),
		StartedAt:          snap.StartedAt,
		EndedAt:            snap.EndedAt,
		DurationSeconds:    int64(snap.EndedAt.Sub(snap.StartedAt).Seconds()),
	}
}

// mean returns the arithmetic mean rounded to 2 decimal places, or nil for
// an empty history.
func mean(xs []float64) *float64 {
	if len(xs) == 0 {
		return nil
	}
	sum := 0.0
	for _, x := range xs {
		sum += x
	}
	avg := math.Round(sum/float64(len(xs))*100) / 100
	return &avg
}
