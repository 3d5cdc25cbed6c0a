package monitor

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/greengrain/greengrain/internal/model"
	"github.com/greengrain/greengrain/internal/session"
)

// fakeGateway records Put calls for assertions.
type fakeGateway struct {
	paths []string
	docs  []any
	err   error
}

func (f *fakeGateway) Put(_ context.Context, path string, doc any) error {
	if f.err != nil {
		return f.err
	}
	f.paths = append(f.paths, path)
	f.docs = append(f.docs, doc)
	return nil
}

func validMeta() StopMetadata {
	return StopMetadata{
		Username:    "Alice",
		StartedTime: "12:00:00",
		EndedTime:   "12:05:00",
		Duration:    "00:05:00",
		Date:        "2026-08-01",
	}
}

func TestStartRequiresRequester(t *testing.T) {
	ctrl := NewController(session.NewStore(), &fakeGateway{})
	if err := ctrl.Start("k", ""); !errors.Is(err, session.ErrValidation) {
		t.Errorf("Start without requester: got %v, want ErrValidation", err)
	}
	if err := ctrl.Start("k", "  "); !errors.Is(err, session.ErrValidation) {
		t.Errorf("Start with blank requester: got %v, want ErrValidation", err)
	}
}

func TestStopValidatesMetadata(t *testing.T) {
	store := session.NewStore()
	ctrl := NewController(store, &fakeGateway{})
	if err := ctrl.Start("k", "alice"); err != nil {
		t.Fatalf("Start: %v", err)
	}
	store.Record("k", model.Reading{Moisture: model.Float(5), Temperature: model.Float(20)})

	fields := []string{"username", "startedTime", "endedTime", "duration", "date"}
	for _, missing := range fields {
		meta := validMeta()
		switch missing {
		case "username":
			meta.Username = ""
		case "startedTime":
			meta.StartedTime = ""
		case "endedTime":
			meta.EndedTime = ""
		case "duration":
			meta.Duration = ""
		case "date":
			meta.Date = ""
		}
		_, err := ctrl.Stop(context.Background(), "k", "alice", meta)
		if !errors.Is(err, session.ErrValidation) {
			t.Errorf("Stop missing %s: got %v, want ErrValidation", missing, err)
		}
		if !strings.Contains(err.Error(), missing) {
			t.Errorf("Stop missing %s: error %q does not name the field", missing, err)
		}
	}

	// validation failures must not have disturbed the session
	if st := ctrl.Status("k"); !st.Active || len(st.Moistures) != 1 {
		t.Errorf("session disturbed by validation errors: %+v", st)
	}
}

func TestStopNoDataKeepsSession(t *testing.T) {
	ctrl := NewController(session.NewStore(), &fakeGateway{})
	if err := ctrl.Start("k", "alice"); err != nil {
		t.Fatalf("Start: %v", err)
	}

	_, err := ctrl.Stop(context.Background(), "k", "alice", validMeta())
	if !errors.Is(err, session.ErrNoData) {
		t.Fatalf("Stop with no readings: got %v, want ErrNoData", err)
	}
	if st := ctrl.Status("k"); !st.Active || st.Owner != "alice" {
		t.Errorf("session reset despite ErrNoData: %+v", st)
	}
}

func TestStopPersistsSummary(t *testing.T) {
	store := session.NewStore()
	gw := &fakeGateway{}
	ctrl := NewController(store, gw)

	if err := ctrl.Start("k", "alice"); err != nil {
		t.Fatalf("Start: %v", err)
	}
	store.Record("k", model.Reading{Moisture: model.Float(5)})
	store.Record("k", model.Reading{Temperature: model.Float(21.5)})

	res, err := ctrl.Stop(context.Background(), "k", "alice", validMeta())
	if err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if res.MonitoringID == "" {
		t.Error("expected a monitoring id")
	}
	if res.Summary.AverageMoisture == nil || *res.Summary.AverageMoisture != 5.0 {
		t.Errorf("AverageMoisture: got %v, want 5.0", res.Summary.AverageMoisture)
	}
	if res.Summary.AverageTemperature == nil || *res.Summary.AverageTemperature != 21.5 {
		t.Errorf("AverageTemperature: got %v, want 21.5", res.Summary.AverageTemperature)
	}

	wantPath := fmt.Sprintf("users/alice/monitoring/%s", res.MonitoringID)
	if len(gw.paths) != 1 || gw.paths[0] != wantPath {
		t.Errorf("gateway paths: got %v, want [%s]", gw.paths, wantPath)
	}
	doc, ok := gw.docs[0].(SummaryDocument)
	if !ok {
		t.Fatalf("gateway doc type: %T", gw.docs[0])
	}
	if doc.AverageMoisture != 5.0 || doc.AverageTemperature != 21.5 {
		t.Errorf("document averages: %+v", doc)
	}
	if doc.Date != "2026-08-01" || doc.Duration != "00:05:00" {
		t.Errorf("document metadata: %+v", doc)
	}

	// session is gone after a successful stop
	if st := ctrl.Status("k"); st.Active || len(st.Moistures) != 0 {
		t.Errorf("session survived stop: %+v", st)
	}
}

func TestStopGeneratesUniqueIDs(t *testing.T) {
	store := session.NewStore()
	ctrl := NewController(store, &fakeGateway{})

	seen := map[string]bool{}
	for i := 0; i < 3; i++ {
		if err := ctrl.Start("k", "alice"); err != nil {
			t.Fatalf("Start: %v", err)
		}
		store.Record("k", model.Reading{Moisture: model.Float(1), Temperature: model.Float(2)})
		res, err := ctrl.Stop(context.Background(), "k", "alice", validMeta())
		if err != nil {
			t.Fatalf("Stop: %v", err)
		}
		if seen[res.MonitoringID] {
			t.Fatalf("duplicate monitoring id %s", res.MonitoringID)
		}
		seen[res.MonitoringID] = true
	}
}

func TestStopPersistenceFailure(t *testing.T) {
	store := session.NewStore()
	gw := &fakeGateway{err: errors.New("rtdb down")}
	ctrl := NewController(store, gw)

	if err := ctrl.Start("k", "alice"); err != nil {
		t.Fatalf("Start: %v", err)
	}
	store.Record("k", model.Reading{Moisture: model.Float(1), Temperature: model.Float(2)})

	_, err := ctrl.Stop(context.Background(), "k", "alice", validMeta())
	if !errors.Is(err, session.ErrPersistence) {
		t.Fatalf("Stop: got %v, want ErrPersistence", err)
	}

	// the session was already reset by release; the data for this run is gone
	if st := ctrl.Status("k"); st.Active {
		t.Errorf("expected inactive session after persistence failure: %+v", st)
	}
}

func TestStopOwnershipEnforced(t *testing.T) {
	store := session.NewStore()
	ctrl := NewController(store, &fakeGateway{})

	if err := ctrl.Start("k", "alice"); err != nil {
		t.Fatalf("Start: %v", err)
	}
	store.Record("k", model.Reading{Moisture: model.Float(1), Temperature: model.Float(2)})

	if _, err := ctrl.Stop(context.Background(), "k", "bob", validMeta()); !errors.Is(err, session.ErrPermission) {
		t.Errorf("Stop by non-owner: got %v, want ErrPermission", err)
	}
	if st := ctrl.Status("k"); !st.Active || st.Owner != "alice" {
		t.Errorf("session disturbed by rejected stop: %+v", st)
	}
}
