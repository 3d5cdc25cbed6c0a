package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/sony/gobreaker"

	"github.com/greengrain/greengrain/internal/metrics"
	"github.com/greengrain/greengrain/internal/model"
)

// pollTimeout keeps a slow or unreachable device from stalling the loop.
const pollTimeout = 3 * time.Second

// Poller fetches the device's /reading endpoint on a fixed period and feeds
// the result through Record. Device errors are logged and the tick skipped;
// the session stays active throughout. The breaker stops hammering a device
// that is clearly down.
type Poller struct {
	url      string
	store    Recorder
	resolve  KeyResolver
	interval time.Duration
	client   *http.Client
	breaker  *gobreaker.CircuitBreaker
}

func NewPoller(url string, store Recorder, resolve KeyResolver, interval time.Duration) *Poller {
	return &Poller{
		url:      url,
		store:    store,
		resolve:  resolve,
		interval: interval,
		client:   &http.Client{Timeout: pollTimeout},
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:    "plant-device",
			Timeout: 15 * time.Second,
			ReadyToTrip: func(c gobreaker.Counts) bool {
				return c.ConsecutiveFailures >= 5
			},
		}),
	}
}

// Run polls until ctx is cancelled.
func (p *Poller) Run(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := p.poll(ctx); err != nil {
				log.Printf("ingest: poll %s: %v", p.url, err)
			}
		}
	}
}

func (p *Poller) poll(ctx context.Context) error {
	res, err := p.breaker.Execute(func() (any, error) {
		return p.fetch(ctx)
	})
	if err != nil {
		metrics.ReadingsDropped.WithLabelValues("poll", "transport").Inc()
		return err
	}

	sr := res.(model.SensorReading)
	if sr.Empty() {
		metrics.ReadingsDropped.WithLabelValues("poll", "empty").Inc()
		return nil
	}

	observed := sr.Timestamp
	if observed.IsZero() {
		observed = time.Now()
	}

	key := p.resolve(p.url, sr)
	recorded := p.store.Record(key, model.Reading{
		Moisture:    sr.Moisture,
		Temperature: sr.Temperature,
		ObservedAt:  observed,
	})
	if recorded {
		metrics.ReadingsIngested.WithLabelValues("poll").Inc()
	} else {
		metrics.ReadingsDropped.WithLabelValues("poll", "inactive").Inc()
	}
	return nil
}

func (p *Poller) fetch(ctx context.Context) (model.SensorReading, error) {
	var sr model.SensorReading

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.url, nil)
	if err != nil {
		return sr, err
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return sr, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return sr, fmt.Errorf("device status %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return sr, fmt.Errorf("decode reading: %w", err)
	}
	return sr, nil
}
