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
	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/joho/godotenv"

	archivepkg "github.com/greengrain/greengrain/internal/services/archive"
	"github.com/greengrain/greengrain/pkg/rabbitmq"
)

type config struct {
	Port string `env:"PORT" envDefault:"8080"`

	MQTTHost     string `env:"MQTT_HOST" envDefault:"localhost"`
	MQTTPort     int    `env:"MQTT_PORT" envDefault:"1883"`
	MQTTUser     string `env:"MQTT_USER" envDefault:"mqtt_user"`
	MQTTPassword string `env:"MQTT_PASSWORD" envDefault:"mqtt_pwd"`
	MQTTClientID string `env:"MQTT_CLIENT_ID" envDefault:"archive-service"`
	ReadingTopic string `env:"READING_TOPIC" envDefault:"sensor/reading/#"`

	InfluxURL    string `env:"INFLUX_URL" envDefault:"http://localhost:8086"`
	InfluxToken  string `env:"INFLUX_TOKEN"`
	InfluxOrg    string `env:"INFLUX_ORG" envDefault:"greengrain"`
	InfluxBucket string `env:"INFLUX_BUCKET" envDefault:"readings"`
	Measurement  string `env:"MEASUREMENT" envDefault:"plant_reading"`
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
		log.Fatalf("archive config: %v", err)
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
	consumer := rabbitmq.NewConsumer(mqClient, cfg.ReadingTopic, nil)

	influxClient := influxdb2.NewClient(cfg.InfluxURL, cfg.InfluxToken)
	defer influxClient.Close()
	writeAPI := influxClient.WriteAPIBlocking(cfg.InfluxOrg, cfg.InfluxBucket)

	svc, err := archivepkg.NewService(consumer, writeAPI, archivepkg.InfluxConfig{
		InfluxURL:    cfg.InfluxURL,
		InfluxToken:  cfg.InfluxToken,
		InfluxOrg:    cfg.InfluxOrg,
		InfluxBucket: cfg.InfluxBucket,
		Measurement:  cfg.Measurement,
	})
	if err != nil {
		log.Fatalf("archive init failed: %v", err)
	}

	mux := archivepkg.NewHTTPMux(svc)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("archive HTTP listening on :%s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("http server error: %v", err)
		}
	}()

	go svc.Start(ctx)

	<-ctx.Done()
	stop()

	shCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(shCtx)
	log.Println("archive: shutdown complete")
}
