package ingest

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"log"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/greengrain/greengrain/internal/metrics"
	"github.com/greengrain/greengrain/internal/model"
	"github.com/greengrain/greengrain/pkg/dedup"
	"github.com/greengrain/greengrain/pkg/rabbitmq"
)

// PushAdapter turns MQTT messages on sensor/reading/# into Record calls.
// Parse failures are logged and swallowed; the stream keeps flowing and a
// session is never deactivated by a bad payload. Reconnects are handled by
// the shared MQTT client.
type PushAdapter struct {
	consumer rabbitmq.IConsumer
	store    Recorder
	resolve  KeyResolver
	deduper  *dedup.Deduper
}

func NewPushAdapter(consumer rabbitmq.IConsumer, store Recorder, resolve KeyResolver) *PushAdapter {
	return &PushAdapter{
		consumer: consumer,
		store:    store,
		resolve:  resolve,
		deduper:  dedup.New(2*time.Minute, 10000),
	}
}

// Start injects the handler and blocks consuming until ctx is cancelled.
func (a *PushAdapter) Start(ctx context.Context) {
	a.consumer.SetHandler(a.messageHandler)
	a.consumer.ConsumeMessage(ctx)
}

func (a *PushAdapter) messageHandler(topic string, msg mqtt.Message) error {
	// QoS1 redelivery carries the same payload, so the hash dedups it.
	h := sha256.Sum256(msg.Payload())
	if !a.deduper.ShouldProcess(hex.EncodeToString(h[:])) {
		return nil
	}

	var sr model.SensorReading
	if err := json.Unmarshal(msg.Payload(), &sr); err != nil {
		log.Printf("ingest: invalid JSON on %s: %v", topic, err)
		metrics.ReadingsDropped.WithLabelValues("push", "parse").Inc()
		return nil
	}
	if sr.Empty() {
		metrics.ReadingsDropped.WithLabelValues("push", "empty").Inc()
		return nil
	}

	observed := sr.Timestamp
	if observed.IsZero() {
		observed = time.Now()
	}

	key := a.resolve(topic, sr)
	recorded := a.store.Record(key, model.Reading{
		Moisture:    sr.Moisture,
		Temperature: sr.Temperature,
		ObservedAt:  observed,
	})
	if recorded {
		metrics.ReadingsIngested.WithLabelValues("push").Inc()
	} else {
		metrics.ReadingsDropped.WithLabelValues("push", "inactive").Inc()
	}
	return nil
}
