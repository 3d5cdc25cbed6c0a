package sensor_simulator

import (
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/greengrain/greengrain/internal/model"
)

const (
	// moisture drifts down as the soil dries; percent per minute.
	decayPerMin = 0.05

	defaultMoisture    = 42.0 // percent
	defaultTemperature = 21.0 // celsius

	// temperature does a bounded random walk around the baseline.
	tempJitter = 0.3
	tempMin    = 10.0
	tempMax    = 35.0
)

// DataGenerator keeps the simulated soil/air state and advances it on each
// sample. Deterministic when given a seeded rand.
type DataGenerator struct {
	mu          sync.Mutex
	seeded      bool
	last        time.Time
	moisture    float64 // percent [0..100]
	temperature float64 // celsius
	rng         *rand.Rand
}

func NewDataGenerator(rng *rand.Rand) *DataGenerator {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &DataGenerator{rng: rng}
}

// Next advances the simulation and returns the reading for deviceID/userID.
func (g *DataGenerator) Next(deviceID, userID string) model.SensorReading {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := time.Now().UTC()
	if !g.seeded {
		g.moisture = defaultMoisture
		g.temperature = defaultTemperature
		g.last = now
		g.seeded = true
	}

	dtMin := now.Sub(g.last).Minutes()
	if dtMin < 0 {
		dtMin = 0
	}
	g.last = now

	g.moisture = clamp(g.moisture-decayPerMin*dtMin, 0, 100)
	g.temperature = clamp(g.temperature+(g.rng.Float64()*2-1)*tempJitter, tempMin, tempMax)

	m := math.Round(g.moisture*100) / 100
	t := math.Round(g.temperature*100) / 100
	return model.SensorReading{
		DeviceID:    deviceID,
		UserID:      userID,
		Moisture:    &m,
		Temperature: &t,
		Timestamp:   now,
	}
}

// Water bumps the moisture level, simulating an irrigation or rainfall.
func (g *DataGenerator) Water(percent float64) {
	if percent <= 0 {
		return
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.moisture = clamp(g.moisture+percent, 0, 100)
}

func clamp(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
