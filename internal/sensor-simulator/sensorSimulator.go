package sensor_simulator

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/greengrain/greengrain/pkg/rabbitmq"
)

// SensorSimulator plays the plant device: it publishes a reading on the
// MQTT topic at a fixed interval and serves the same reading over HTTP for
// poll-mode deployments.
type SensorSimulator struct {
	deviceID  string
	userID    string
	generator *DataGenerator
	publisher rabbitmq.IPublisher
}

func NewSensorSimulator(publisher rabbitmq.IPublisher, gen *DataGenerator, deviceID, userID string) *SensorSimulator {
	return &SensorSimulator{
		deviceID:  deviceID,
		userID:    userID,
		generator: gen,
		publisher: publisher,
	}
}

// Start publishes readings at interval until ctx is cancelled.
func (s *SensorSimulator) Start(ctx context.Context, interval time.Duration) {
	defer s.publisher.Close()

	for {
		select {
		case <-ctx.Done():
			return
		case <-time.After(interval):
			sr := s.generator.Next(s.deviceID, s.userID)
			payload, _ := json.Marshal(sr)
			if err := s.publisher.PublishMessage(string(payload)); err != nil {
				log.Printf("simulator: publish error: %v", err)
				continue
			}
			log.Printf("simulator: pub device=%s moisture=%.2f temp=%.2f",
				s.deviceID, *sr.Moisture, *sr.Temperature)
		}
	}
}

// ReadingHandler serves GET /reading for poll-mode adapters.
func (s *SensorSimulator) ReadingHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		sr := s.generator.Next(s.deviceID, s.userID)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(sr)
	})
}
