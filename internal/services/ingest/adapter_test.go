package ingest

import (
	"testing"

	"github.com/greengrain/greengrain/internal/model"
)

// fakeMessage implements mqtt.Message for handler tests.
type fakeMessage struct {
	topic   string
	payload []byte
	id      uint16
}

func (m *fakeMessage) Duplicate() bool   { return false }
func (m *fakeMessage) Qos() byte         { return 1 }
func (m *fakeMessage) Retained() bool    { return false }
func (m *fakeMessage) Topic() string     { return m.topic }
func (m *fakeMessage) MessageID() uint16 { return m.id }
func (m *fakeMessage) Payload() []byte   { return m.payload }
func (m *fakeMessage) Ack()              {}

// fakeRecorder records Record calls.
type fakeRecorder struct {
	keys     []string
	readings []model.Reading
	active   bool
}

func (f *fakeRecorder) Record(key string, r model.Reading) bool {
	f.keys = append(f.keys, key)
	f.readings = append(f.readings, r)
	return f.active
}

func TestPushAdapterRecordsReading(t *testing.T) {
	rec := &fakeRecorder{active: true}
	a := NewPushAdapter(nil, rec, FixedKey("plant"))

	msg := &fakeMessage{
		topic:   "sensor/reading/alice",
		payload: []byte(`{"moisture": 37.5, "temperature": 22.1, "timestamp": "2026-08-01T12:00:00Z"}`),
	}
	if err := a.messageHandler(msg.Topic(), msg); err != nil {
		t.Fatalf("messageHandler: %v", err)
	}

	if len(rec.readings) != 1 {
		t.Fatalf("records: got %d, want 1", len(rec.readings))
	}
	if rec.keys[0] != "plant" {
		t.Errorf("key: got %q, want plant", rec.keys[0])
	}
	r := rec.readings[0]
	if r.Moisture == nil || *r.Moisture != 37.5 {
		t.Errorf("Moisture: got %v, want 37.5", r.Moisture)
	}
	if r.Temperature == nil || *r.Temperature != 22.1 {
		t.Errorf("Temperature: got %v, want 22.1", r.Temperature)
	}
	if r.ObservedAt.IsZero() {
		t.Error("ObservedAt not set")
	}
}

func TestPushAdapterInvalidJSONIsContained(t *testing.T) {
	rec := &fakeRecorder{active: true}
	a := NewPushAdapter(nil, rec, FixedKey("plant"))

	msg := &fakeMessage{topic: "sensor/reading/x", payload: []byte(`{nope`)}
	if err := a.messageHandler(msg.Topic(), msg); err != nil {
		t.Errorf("parse failure must not surface: %v", err)
	}
	if len(rec.readings) != 0 {
		t.Errorf("recorded %d readings from garbage", len(rec.readings))
	}
}

func TestPushAdapterSkipsEmptyReading(t *testing.T) {
	rec := &fakeRecorder{active: true}
	a := NewPushAdapter(nil, rec, FixedKey("plant"))

	msg := &fakeMessage{topic: "sensor/reading/x", payload: []byte(`{"device_id":"d1"}`)}
	if err := a.messageHandler(msg.Topic(), msg); err != nil {
		t.Fatalf("messageHandler: %v", err)
	}
	if len(rec.readings) != 0 {
		t.Error("empty reading should not be recorded")
	}
}

func TestPushAdapterDedupsRedelivery(t *testing.T) {
	rec := &fakeRecorder{active: true}
	a := NewPushAdapter(nil, rec, FixedKey("plant"))

	payload := []byte(`{"moisture": 10, "timestamp": "2026-08-01T12:00:00Z"}`)
	for i := 0; i < 3; i++ {
		msg := &fakeMessage{topic: "sensor/reading/x", payload: payload}
		if err := a.messageHandler(msg.Topic(), msg); err != nil {
			t.Fatalf("messageHandler: %v", err)
		}
	}
	if len(rec.readings) != 1 {
		t.Errorf("redelivered payload recorded %d times, want 1", len(rec.readings))
	}
}

func TestUserKeyResolver(t *testing.T) {
	resolve := UserKey("fallback")

	cases := []struct {
		name  string
		topic string
		r     model.SensorReading
		want  string
	}{
		{"payload user id wins", "sensor/reading/topicuser", model.SensorReading{UserID: "alice"}, "alice"},
		{"topic segment", "sensor/reading/bob", model.SensorReading{}, "bob"},
		{"bare topic falls back", "sensor/reading", model.SensorReading{}, "fallback"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := resolve(tc.topic, tc.r); got != tc.want {
				t.Errorf("resolve(%q): got %q, want %q", tc.topic, got, tc.want)
			}
		})
	}
}
