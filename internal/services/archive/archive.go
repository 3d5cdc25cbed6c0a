package archive

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"

	"github.com/greengrain/greengrain/internal/model"
	"github.com/greengrain/greengrain/pkg/rabbitmq"
)

// InfluxConfig holds the connection parameters for the reading archive.
type InfluxConfig struct {
	InfluxURL    string
	InfluxToken  string
	InfluxOrg    string
	InfluxBucket string
	Measurement  string // defaults to "plant_reading"
}

// Service archives every raw reading from the MQTT feed as an InfluxDB
// point and keeps the latest reading per device in memory. Write errors are
// logged and the stream continues; the archive is best-effort by design and
// independent of session lifecycle.
type Service struct {
	consumer    rabbitmq.IConsumer
	writeAPI    api.WriteAPIBlocking
	measurement string

	mu     sync.RWMutex
	latest map[string]model.SensorReading
}

func NewService(consumer rabbitmq.IConsumer, writeAPI api.WriteAPIBlocking, cfg InfluxConfig) (*Service, error) {
	if cfg.InfluxURL == "" || cfg.InfluxOrg == "" || cfg.InfluxBucket == "" {
		return nil, fmt.Errorf("influx config incomplete")
	}
	measurement := cfg.Measurement
	if measurement == "" {
		measurement = "plant_reading"
	}
	return &Service{
		consumer:    consumer,
		writeAPI:    writeAPI,
		measurement: measurement,
		latest:      make(map[string]model.SensorReading),
	}, nil
}

// Start injects the MQTT handler and blocks consuming until ctx closes.
func (s *Service) Start(ctx context.Context) {
	s.consumer.SetHandler(func(topic string, msg mqtt.Message) error {
		return s.handle(ctx, topic, msg.Payload())
	})
	s.consumer.ConsumeMessage(ctx)
}

func (s *Service) handle(ctx context.Context, topic string, payload []byte) error {
	var sr model.SensorReading
	if err := json.Unmarshal(payload, &sr); err != nil {
		log.Printf("archive: invalid JSON on %s: %v", topic, err)
		return nil // keep the stream alive
	}
	if sr.Empty() {
		return nil
	}

	t := sr.Timestamp
	if t.IsZero() {
		t = time.Now()
	}

	tags := map[string]string{}
	if sr.DeviceID != "" {
		tags["device_id"] = sr.DeviceID
	}
	if sr.UserID != "" {
		tags["user_id"] = sr.UserID
	}

	fields := map[string]interface{}{}
	if sr.Moisture != nil {
		fields["moisture"] = *sr.Moisture
	}
	if sr.Temperature != nil {
		fields["temperature"] = *sr.Temperature
	}

	point := influxdb2.NewPoint(s.measurement, tags, fields, t)
	if err := s.writeAPI.WritePoint(ctx, point); err != nil {
		log.Printf("archive: write error: %v", err)
		return err
	}

	s.mu.Lock()
	s.latest[cacheKey(sr)] = sr
	s.mu.Unlock()
	return nil
}

// Latest returns the most recent reading per device.
func (s *Service) Latest() []model.SensorReading {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.SensorReading, 0, len(s.latest))
	for _, r := range s.latest {
		out = append(out, r)
	}
	return out
}

func cacheKey(r model.SensorReading) string {
	if r.DeviceID != "" {
		return r.DeviceID
	}
	return r.UserID
}
