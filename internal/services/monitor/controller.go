package monitor

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/google/uuid"

	"github.com/greengrain/greengrain/internal/metrics"
	"github.com/greengrain/greengrain/internal/session"
)

// Gateway is the durable store for finished summaries. The write happens
// outside the session store's critical section.
type Gateway interface {
	Put(ctx context.Context, path string, doc any) error
}

// StopMetadata carries the client-supplied fields persisted alongside the
// averages. All fields are required and opaque: the service validates
// presence, not format.
type StopMetadata struct {
	Username    string
	StartedTime string
	EndedTime   string
	Duration    string
	Date        string
}

func (m StopMetadata) validate() error {
	for _, f := range []struct{ name, val string }{
		{"username", m.Username},
		{"startedTime", m.StartedTime},
		{"endedTime", m.EndedTime},
		{"duration", m.Duration},
		{"date", m.Date},
	} {
		if strings.TrimSpace(f.val) == "" {
			return fmt.Errorf("%w: missing %s", session.ErrValidation, f.name)
		}
	}
	return nil
}

// SummaryDocument is the shape written to the realtime database under
// users/{owner}/monitoring/{id}.
type SummaryDocument struct {
	Date               string  `json:"date"`
	StartingTime       string  `json:"startingTime"`
	EndTime            string  `json:"endTime"`
	Duration           string  `json:"duration"`
	AverageTemperature float64 `json:"averageTemperature"`
	AverageMoisture    float64 `json:"averageMoisture"`
}

// StopResult is returned to the caller after a successful stop.
type StopResult struct {
	MonitoringID string
	Summary      session.Summary
}

// Controller implements the client-facing lifecycle operations on top of
// the session store.
type Controller struct {
	store   *session.Store
	gateway Gateway
}

func NewController(store *session.Store, gateway Gateway) *Controller {
	return &Controller{store: store, gateway: gateway}
}

// Start acquires the session under key for requester.
func (c *Controller) Start(key, requester string) error {
	if strings.TrimSpace(requester) == "" {
		return fmt.Errorf("%w: missing userId", session.ErrValidation)
	}
	if err := c.store.Acquire(key, requester); err != nil {
		return err
	}
	metrics.SessionsStarted.Inc()
	metrics.ActiveSessions.Set(float64(c.store.Active()))
	return nil
}

// Stop validates the metadata, releases the session, computes the summary
// and persists it under a fresh monitoring id. A gateway failure surfaces
// as ErrPersistence; the session has already been reset at that point, so
// the run's data survives only in the log line below.
func (c *Controller) Stop(ctx context.Context, key, requester string, meta StopMetadata) (StopResult, error) {
	if strings.TrimSpace(requester) == "" {
		return StopResult{}, fmt.Errorf("%w: missing userId", session.ErrValidation)
	}
	if err := meta.validate(); err != nil {
		return StopResult{}, err
	}

	snap, err := c.store.Release(key, requester)
	if err != nil {
		return StopResult{}, err
	}
	metrics.ActiveSessions.Set(float64(c.store.Active()))

	sum := session.Compute(snap)
	id := uuid.NewString()

	// Release guarantees both histories non-empty, so both averages are set.
	doc := SummaryDocument{
		Date:               meta.Date,
		StartingTime:       meta.StartedTime,
		EndTime:            meta.EndedTime,
		Duration:           meta.Duration,
		AverageTemperature: *sum.AverageTemperature,
		AverageMoisture:    *sum.AverageMoisture,
	}

	path := fmt.Sprintf("users/%s/monitoring/%s", requester, id)
	if err := c.gateway.Put(ctx, path, doc); err != nil {
		metrics.PersistenceFailures.Inc()
		log.Printf("monitor: summary %s for %s lost after reset: %v (moist=%v temp=%v n=%d/%d)",
			id, requester, err, *sum.AverageMoisture, *sum.AverageTemperature,
			len(snap.Moistures), len(snap.Temperatures))
		return StopResult{}, fmt.Errorf("%w: %v", session.ErrPersistence, err)
	}

	metrics.SessionsStopped.Inc()
	return StopResult{MonitoringID: id, Summary: sum}, nil
}

// Status returns the current state; inactive is a shape, not an error.
func (c *Controller) Status(key string) session.State {
	return c.store.Peek(key)
}
