package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	simulator "github.com/greengrain/greengrain/internal/sensor-simulator"
	"github.com/greengrain/greengrain/pkg/rabbitmq"
)

type config struct {
	Port     string        `env:"PORT" envDefault:"5055"`
	DeviceID string        `env:"DEVICE_ID" envDefault:"plant-01"`
	UserID   string        `env:"USER_ID" envDefault:""`
	Interval time.Duration `env:"PUBLISH_INTERVAL" envDefault:"5s"`

	MQTTHost     string `env:"MQTT_HOST" envDefault:"localhost"`
	MQTTPort     int    `env:"MQTT_PORT" envDefault:"1883"`
	MQTTUser     string `env:"MQTT_USER" envDefault:"mqtt_user"`
	MQTTPassword string `env:"MQTT_PASSWORD" envDefault:"mqtt_pwd"`
	MQTTClientID string `env:"MQTT_CLIENT_ID" envDefault:"sensor-simulator"`
	ReadingTopic string `env:"READING_TOPIC" envDefault:"sensor/reading/plant-01"`
}

func loadConfig() (config, error) {
	_ = godotenv.Load()
	var cfg config
	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig()
	if err != nil {
		log.Fatalf("simulator config: %v", err)
	}

	mqCfg := &rabbitmq.Config{
		Host:     cfg.MQTTHost,
		Port:     cfg.MQTTPort,
		User:     cfg.MQTTUser,
		Password: cfg.MQTTPassword,
		ClientID: cfg.MQTTClientID,
	}
	mqClient, err := rabbitmq.NewConn(mqCfg, ctx)
	if err != nil {
		log.Fatalf("mqtt connect failed: %v", err)
	}

	publisher := rabbitmq.NewPublisher(mqClient, cfg.ReadingTopic)
	gen := simulator.NewDataGenerator(nil)
	sim := simulator.NewSensorSimulator(publisher, gen, cfg.DeviceID, cfg.UserID)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) { _, _ = w.Write([]byte("ok")) })
	mux.Handle("/reading", sim.ReadingHandler())

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("simulator HTTP listening on :%s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("http server error: %v", err)
		}
	}()

	go sim.Start(ctx, cfg.Interval)

	<-ctx.Done()
	stop()

	shCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(shCtx)
	log.Println("simulator: shutdown complete")
}
