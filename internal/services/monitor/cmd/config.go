package main

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	Port string `env:"PORT" envDefault:"5000"`

	// SessionMode selects the deployment policy: "shared" runs one global
	// single-owner session under SharedKey; "per-user" keys sessions by the
	// requester identity (ownership then always matches).
	SessionMode string `env:"SESSION_MODE" envDefault:"per-user"`
	SharedKey   string `env:"SHARED_SESSION_KEY" envDefault:"greengrain"`

	// IngestMode: "push" (MQTT subscription), "poll" (device HTTP endpoint)
	// or "http" (devices POST /update-monitoring, no background source).
	IngestMode string `env:"INGEST_MODE" envDefault:"push"`

	MQTTHost     string `env:"MQTT_HOST" envDefault:"localhost"`
	MQTTPort     int    `env:"MQTT_PORT" envDefault:"1883"`
	MQTTUser     string `env:"MQTT_USER" envDefault:"mqtt_user"`
	MQTTPassword string `env:"MQTT_PASSWORD" envDefault:"mqtt_pwd"`
	MQTTClientID string `env:"MQTT_CLIENT_ID" envDefault:"monitor-service"`
	ReadingTopic string `env:"READING_TOPIC" envDefault:"sensor/reading/#"`

	DeviceURL    string        `env:"DEVICE_URL" envDefault:"http://localhost:5055/reading"`
	PollInterval time.Duration `env:"POLL_INTERVAL" envDefault:"10s"`

	FirebaseURL     string        `env:"FIREBASE_URL"`
	FirebaseAuth    string        `env:"FIREBASE_AUTH"`
	FirebaseTimeout time.Duration `env:"FIREBASE_TIMEOUT" envDefault:"5s"`
	BreakerFailures int           `env:"BREAKER_FAILURES" envDefault:"3"`
	BreakerOpenFor  time.Duration `env:"BREAKER_OPEN_FOR" envDefault:"10s"`
}

func loadConfig() (Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("parse env: %w", err)
	}
	switch cfg.SessionMode {
	case "shared", "per-user":
	default:
		return cfg, fmt.Errorf("invalid SESSION_MODE %q", cfg.SessionMode)
	}
	switch cfg.IngestMode {
	case "push", "poll", "http":
	default:
		return cfg, fmt.Errorf("invalid INGEST_MODE %q", cfg.IngestMode)
	}
	return cfg, nil
}
