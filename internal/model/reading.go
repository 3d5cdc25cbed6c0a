package model

import "time"

// Reading is one normalized observation delivered by an ingestion source.
// Absent fields stay nil and are never folded into session accumulation.
type Reading struct {
	Moisture    *float64
	Temperature *float64
	ObservedAt  time.Time
}

// Float returns a pointer to v, for building readings inline.
func Float(v float64) *float64 { return &v }
